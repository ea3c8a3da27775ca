package materialize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ibraahimlab/voice-collector/internal/audio"
	"github.com/ibraahimlab/voice-collector/internal/dataset"
	"github.com/ibraahimlab/voice-collector/internal/metrics"
	"github.com/ibraahimlab/voice-collector/internal/store"
)

// AudioColumn is the typed audio value produced by the cast step: a
// locally resolvable, decoded file instead of an opaque path string.
type AudioColumn struct {
	Path         string `json:"path"`
	SamplingRate int    `json:"sampling_rate"`
	NumSamples   int    `json:"num_samples"`
}

// manifestRow is one published dataset row. Audio holds an AudioColumn
// for cast records and the raw store-relative string for records whose
// blob could not be resolved.
type manifestRow struct {
	ID         string `json:"id"`
	Audio      any    `json:"audio"`
	Transcript string `json:"transcript"`
	SpeakerID  string `json:"speaker_id"`
	Language   string `json:"language"`
	Timestamp  string `json:"timestamp"`
}

// Config contains materialization pass configuration.
type Config struct {
	// CacheDir receives downloaded blobs, mirroring the store layout.
	CacheDir string

	// WorkDir receives the working copies that records are rewritten to.
	WorkDir string

	// ManifestPrefix is the store directory for published split
	// manifests, e.g. "manifests".
	ManifestPrefix string
}

// Pass is one batch materialization run. It assumes it is the sole
// mutator of the dataset while running; a record ingested mid-run may be
// missed, which is accepted.
type Pass struct {
	store   store.ObjectStore
	config  Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewPass creates a materialization pass. Zero config fields fall back
// to the documented defaults.
func NewPass(st store.ObjectStore, config Config, logger *slog.Logger, m *metrics.Metrics) *Pass {
	if config.CacheDir == "" {
		config.CacheDir = "tmp_audio_root"
	}
	if config.WorkDir == "" {
		config.WorkDir = "work"
	}
	if config.ManifestPrefix == "" {
		config.ManifestPrefix = "manifests"
	}

	return &Pass{
		store:   st,
		config:  config,
		logger:  logger,
		metrics: m,
	}
}

// Run executes the pass. Only a failure to load the dataset index is
// fatal; per-record download failures and per-split publish failures are
// logged and isolated. Local working directories are removed regardless
// of the outcome.
func (p *Pass) Run(ctx context.Context) error {
	defer p.cleanup()

	idx, err := dataset.LoadIndex(ctx, p.store, p.logger)
	if err != nil {
		return fmt.Errorf("failed to load dataset index: %w", err)
	}

	p.logger.Info("Dataset index loaded",
		slog.Int("records", idx.Len()),
		slog.Int("splits", len(idx.Splits)),
	)

	downloads := p.downloadAll(ctx, idx)
	p.rewriteAll(idx, downloads)
	cast := p.castAll(idx)
	p.publishAll(ctx, idx, cast)

	return nil
}

// downloadAll brings every record's blob into the local cache. The
// audio field still holds the raw store path string at this stage, so
// no decode is triggered. Returns the mapping split/relpath -> absolute
// cache path for records that downloaded (or were already cached).
func (p *Pass) downloadAll(ctx context.Context, idx *dataset.Index) map[string]string {
	downloads := make(map[string]string)

	for _, split := range idx.SplitNames() {
		for _, rec := range idx.Splits[split] {
			key := split + "/" + rec.Audio

			cachePath := filepath.Join(p.config.CacheDir, filepath.FromSlash(rec.Audio))
			if _, err := os.Stat(cachePath); err == nil {
				if abs, err := filepath.Abs(cachePath); err == nil {
					downloads[key] = abs
				}
				continue
			}

			local, err := p.store.Download(ctx, rec.Audio, p.config.CacheDir)
			if err != nil {
				p.metrics.RecordDownload(false)
				p.logger.Error("Audio download failed, skipping record",
					slog.String("id", rec.ID),
					slog.String("audio_ref", rec.Audio),
					slog.String("error", err.Error()),
				)
				continue
			}

			p.metrics.RecordDownload(true)
			downloads[key] = local
		}
	}

	return downloads
}

// rewriteAll copies each downloaded blob into the working directory,
// mirroring the store layout, and rewrites the in-memory audio field to
// the absolute path of the copy. Records without a download mapping
// keep their unresolved store-relative reference.
func (p *Pass) rewriteAll(idx *dataset.Index, downloads map[string]string) {
	for _, split := range idx.SplitNames() {
		for _, rec := range idx.Splits[split] {
			key := split + "/" + rec.Audio

			source, ok := downloads[key]
			if !ok {
				continue
			}

			workPath := filepath.Join(p.config.WorkDir, filepath.FromSlash(rec.Audio))
			if err := copyFile(source, workPath); err != nil {
				p.logger.Warn("Failed to copy blob into working directory",
					slog.String("id", rec.ID),
					slog.String("error", err.Error()),
				)
				continue
			}

			abs, err := filepath.Abs(workPath)
			if err != nil {
				p.logger.Warn("Failed to resolve working path",
					slog.String("id", rec.ID),
					slog.String("error", err.Error()),
				)
				continue
			}

			rec.Audio = abs
			p.metrics.RecordRewrite()
		}
	}
}

// castAll reinterprets the audio column as decodable audio media. A
// record whose path was never rewritten fails the cast and keeps its
// string reference; this is a known, accepted gap.
func (p *Pass) castAll(idx *dataset.Index) map[*dataset.Record]*AudioColumn {
	cast := make(map[*dataset.Record]*AudioColumn)

	for _, split := range idx.SplitNames() {
		for _, rec := range idx.Splits[split] {
			col, err := castRecord(rec)
			if err != nil {
				p.metrics.RecordCastFailure()
				p.logger.Warn("Audio cast failed, record keeps raw reference",
					slog.String("id", rec.ID),
					slog.String("audio", rec.Audio),
					slog.String("error", err.Error()),
				)
				continue
			}
			cast[rec] = col
		}
	}

	return cast
}

// castRecord decodes the record's local audio file by extension.
func castRecord(rec *dataset.Record) (*AudioColumn, error) {
	if !filepath.IsAbs(rec.Audio) {
		return nil, fmt.Errorf("audio reference %q was not resolved to a local file", rec.Audio)
	}

	data, err := os.ReadFile(rec.Audio)
	if err != nil {
		return nil, err
	}

	var samples []int16
	var sampleRate int
	switch strings.ToLower(filepath.Ext(rec.Audio)) {
	case ".flac":
		samples, sampleRate, err = audio.DecodeFLAC(data)
	case ".wav":
		samples, sampleRate, err = audio.DecodeWAV(data)
	default:
		return nil, fmt.Errorf("unknown audio extension %q", filepath.Ext(rec.Audio))
	}
	if err != nil {
		return nil, err
	}

	return &AudioColumn{
		Path:         rec.Audio,
		SamplingRate: sampleRate,
		NumSamples:   len(samples),
	}, nil
}

// publishAll republishes each split independently as a JSONL manifest.
// A failure publishing one split does not roll back or block the others.
func (p *Pass) publishAll(ctx context.Context, idx *dataset.Index, cast map[*dataset.Record]*AudioColumn) {
	for _, split := range idx.SplitNames() {
		data, err := encodeManifest(idx.Splits[split], cast)
		if err != nil {
			p.metrics.RecordPublish(false)
			p.logger.Error("Failed to encode split manifest",
				slog.String("split", split),
				slog.String("error", err.Error()),
			)
			continue
		}

		manifestPath := p.config.ManifestPrefix + "/" + split + ".jsonl"
		if err := p.store.Upload(ctx, manifestPath, data); err != nil {
			p.metrics.RecordPublish(false)
			p.logger.Error("Failed to publish split",
				slog.String("split", split),
				slog.String("error", err.Error()),
			)
			continue
		}

		p.metrics.RecordPublish(true)
		p.logger.Info("Split published",
			slog.String("split", split),
			slog.String("path", manifestPath),
			slog.Int("records", len(idx.Splits[split])),
		)
	}
}

// encodeManifest serializes a split as JSONL, one row per record, with
// non-ASCII transcripts preserved verbatim.
func encodeManifest(recs []*dataset.Record, cast map[*dataset.Record]*AudioColumn) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for _, rec := range recs {
		row := manifestRow{
			ID:         rec.ID,
			Audio:      rec.Audio,
			Transcript: rec.Transcript,
			SpeakerID:  rec.SpeakerID,
			Language:   rec.Language,
			Timestamp:  rec.Timestamp,
		}
		if col, ok := cast[rec]; ok {
			row.Audio = col
		}
		if err := enc.Encode(&row); err != nil {
			return nil, fmt.Errorf("failed to encode row %s: %w", rec.ID, err)
		}
	}

	return buf.Bytes(), nil
}

// cleanup removes the local cache and working directories. It runs
// unconditionally at the end of every pass, successful or not.
func (p *Pass) cleanup() {
	for _, dir := range []string{p.config.CacheDir, p.config.WorkDir} {
		if err := os.RemoveAll(dir); err != nil {
			p.logger.Warn("Failed to remove working directory",
				slog.String("dir", dir),
				slog.String("error", err.Error()),
			)
		}
	}
	p.logger.Info("Temporary files cleaned up",
		slog.String("cache_dir", p.config.CacheDir),
		slog.String("work_dir", p.config.WorkDir),
	)
}

// copyFile copies source to dest, creating parent directories.
func copyFile(source, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}

	in, err := os.Open(source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}
