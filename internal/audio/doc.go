// Package audio handles audio format conversion for the voice dataset.
// It encodes submitted PCM-16 samples to FLAC (the active storage format)
// or WAV (the legacy format), decodes both for materialization and
// verification, and optionally resamples submissions to a target rate.
package audio
