package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ibraahimlab/voice-collector/internal/audio"
	"github.com/ibraahimlab/voice-collector/internal/dataset"
	"github.com/ibraahimlab/voice-collector/internal/metrics"
	"github.com/ibraahimlab/voice-collector/internal/store"
)

// ValidationError reports a submission rejected before any store
// interaction. Its message is safe to show to the submitter.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// Submission is one user recording plus its metadata, as delivered by
// the web form.
type Submission struct {
	Samples    []int16
	SampleRate int
	Transcript string
	SpeakerID  string // optional
	Language   string // optional
}

// Config contains ingestion pipeline configuration.
type Config struct {
	// Subfolder is the store directory for record pairs, e.g. "data".
	Subfolder string

	// Format is the audio container written to the store: "flac"
	// (active) or "wav" (legacy).
	Format string

	// TargetSampleRate resamples submissions before encoding when
	// non-zero; zero keeps the submission rate.
	TargetSampleRate int

	// MaxAttempts bounds each upload, including the first try.
	MaxAttempts int

	// RetryBackoff is the fixed wait between attempts.
	RetryBackoff time.Duration
}

// Pipeline turns one submission into a durable record pair: the encoded
// audio blob at <subfolder>/<id>.<ext> and the JSON sidecar at
// <subfolder>/<id>.json. Each run is an independent, self-contained
// transaction; there is no shared mutable state between submissions.
type Pipeline struct {
	store   store.ObjectStore
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPipeline creates an ingestion pipeline. Zero config fields fall
// back to the documented defaults (subfolder "data", FLAC, 3 attempts,
// 2s backoff).
func NewPipeline(st store.ObjectStore, config Config, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	if config.Subfolder == "" {
		config.Subfolder = "data"
	}
	if config.Format == "" {
		config.Format = "flac"
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 3
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = 2 * time.Second
	}

	return &Pipeline{
		store:   st,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

// Ingest validates the submission, encodes the audio, and uploads the
// record pair. It returns the new record id on success.
//
// On a partial failure (audio uploaded, sidecar upload exhausted) no
// rollback is attempted: the orphaned blob is unreferenced and harmless,
// and the materialization pass ignores it.
func (p *Pipeline) Ingest(ctx context.Context, sub Submission) (string, error) {
	startTime := time.Now()
	p.metrics.RecordSubmission()

	if err := validate(sub); err != nil {
		p.metrics.RecordValidationFailure()
		return "", err
	}

	id := uuid.New().String()

	samples, sampleRate := sub.Samples, sub.SampleRate
	if p.config.TargetSampleRate > 0 && p.config.TargetSampleRate != sampleRate {
		resampled, err := audio.Resample(samples, sampleRate, p.config.TargetSampleRate)
		if err != nil {
			return "", fmt.Errorf("failed to resample submission: %w", err)
		}
		samples, sampleRate = resampled, p.config.TargetSampleRate
	}

	encoded, err := p.encode(samples, sampleRate)
	if err != nil {
		return "", fmt.Errorf("failed to encode audio: %w", err)
	}

	audioRef := fmt.Sprintf("%s/%s.%s", p.config.Subfolder, id, p.config.Format)
	jsonRef := fmt.Sprintf("%s/%s.json", p.config.Subfolder, id)

	if err := p.uploadWithRetry(ctx, audioRef, encoded); err != nil {
		return "", err
	}

	rec := dataset.NewRecord(id, audioRef, sub.Transcript, sub.SpeakerID, sub.Language)
	sidecar, err := rec.EncodeJSON()
	if err != nil {
		return "", err
	}

	if err := p.uploadWithRetry(ctx, jsonRef, sidecar); err != nil {
		return "", err
	}

	audioSeconds := float64(len(samples)) / float64(sampleRate)
	p.metrics.RecordIngested(time.Since(startTime).Seconds(), audioSeconds)

	p.logger.Info("Record ingested",
		slog.String("id", id),
		slog.String("audio_ref", audioRef),
		slog.Float64("audio_seconds", audioSeconds),
		slog.Int("sample_rate", sampleRate),
	)

	return id, nil
}

// validate checks submission preconditions. It runs before any store
// interaction so invalid input causes zero writes.
func validate(sub Submission) error {
	if len(sub.Samples) == 0 {
		return &ValidationError{Reason: "please record audio before submitting"}
	}
	if strings.TrimSpace(sub.Transcript) == "" {
		return &ValidationError{Reason: "please type the transcript before submitting"}
	}
	if sub.SampleRate <= 0 {
		return &ValidationError{Reason: "submission has no sample rate"}
	}
	return nil
}

// encode converts samples to the configured container format.
func (p *Pipeline) encode(samples []int16, sampleRate int) ([]byte, error) {
	switch p.config.Format {
	case "wav":
		return audio.EncodeWAV(samples, sampleRate)
	default:
		return audio.EncodeFLAC(samples, sampleRate)
	}
}

// uploadWithRetry attempts the upload up to MaxAttempts times with a
// fixed backoff between attempts. Any store error triggers a retry; the
// final error is propagated after the budget is exhausted. This is the
// pipeline's only failure-recovery mechanism.
func (p *Pipeline) uploadWithRetry(ctx context.Context, path string, data []byte) error {
	var lastErr error

	for attempt := 1; attempt <= p.config.MaxAttempts; attempt++ {
		p.metrics.RecordUploadAttempt()

		lastErr = p.store.Upload(ctx, path, data)
		if lastErr == nil {
			return nil
		}

		p.logger.Warn("Upload failed",
			slog.String("path", path),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.config.MaxAttempts),
			slog.String("error", lastErr.Error()),
		)

		if attempt == p.config.MaxAttempts {
			break
		}

		p.metrics.RecordUploadRetry()
		select {
		case <-time.After(p.config.RetryBackoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.metrics.RecordUploadFailure()
	return fmt.Errorf("upload of %s failed after %d attempts: %w", path, p.config.MaxAttempts, lastErr)
}
