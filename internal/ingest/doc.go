// Package ingest implements the ingestion pipeline: it validates a
// submitted recording, assigns a unique record id, encodes the audio in
// memory, and durably persists the audio blob and its JSON sidecar to
// the object store with retry on transient failures.
package ingest
