// Package materialize implements the batch materialization pass: it
// loads the dataset index from the object store, downloads every audio
// blob into a local cache, rewrites the in-memory audio column to
// absolute local paths, casts the column to typed, decodable audio, and
// republishes each split as a manifest. Local working state is removed
// unconditionally at the end of a run.
package materialize
