// Package dataset defines the record layout shared by the ingestion
// pipeline and the materialization pass: the per-record JSON sidecar and
// the split-partitioned index loaded from the object store.
package dataset
