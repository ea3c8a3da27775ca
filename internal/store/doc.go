// Package store abstracts the remote object store that holds the voice
// dataset. It defines the ObjectStore interface consumed by the ingestion
// pipeline and the materialization pass, with S3, MinIO, and local
// filesystem backends selected through configuration.
package store
