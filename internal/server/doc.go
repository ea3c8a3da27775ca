// Package server provides the HTTP API for the voice collector:
// recording submission, health checks, configuration inspection, and
// Prometheus metrics.
package server
