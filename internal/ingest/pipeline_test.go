package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ibraahimlab/voice-collector/internal/audio"
	"github.com/ibraahimlab/voice-collector/internal/dataset"
	"github.com/ibraahimlab/voice-collector/internal/store"
)

// flakyStore wraps a Local store and fails the first failuresPerPath
// Upload calls for every path.
type flakyStore struct {
	store.ObjectStore

	mu              sync.Mutex
	attempts        map[string]int
	failuresPerPath int
}

func newFlakyStore(t *testing.T, failures int) *flakyStore {
	t.Helper()
	inner, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)
	return &flakyStore{
		ObjectStore:     inner,
		attempts:        make(map[string]int),
		failuresPerPath: failures,
	}
}

func (f *flakyStore) Upload(ctx context.Context, path string, data []byte) error {
	f.mu.Lock()
	f.attempts[path]++
	n := f.attempts[path]
	f.mu.Unlock()

	if n <= f.failuresPerPath {
		return fmt.Errorf("simulated store error (attempt %d)", n)
	}
	return f.ObjectStore.Upload(ctx, path, data)
}

func (f *flakyStore) uploadAttempts(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[path]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testPipeline(st store.ObjectStore) *Pipeline {
	return NewPipeline(st, Config{
		Subfolder:    "data",
		Format:       "flac",
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	}, testLogger(), nil)
}

func validSubmission() Submission {
	samples := make([]int16, 16000) // 1s of silence at 16kHz
	return Submission{
		Samples:    samples,
		SampleRate: 16000,
		Transcript: "hello world",
		SpeakerID:  "spk1",
		Language:   "en",
	}
}

func TestIngestWritesRecordPair(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)
	p := testPipeline(st)

	id, err := p.Ingest(ctx, validSubmission())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// Exactly two new objects: audio blob + JSON sidecar.
	names, err := st.List(ctx, "data/")
	require.NoError(t, err)
	require.Equal(t, []string{"data/" + id + ".flac", "data/" + id + ".json"}, names)

	// Sidecar fields round-trip.
	raw, err := st.Get(ctx, "data/"+id+".json")
	require.NoError(t, err)
	rec, err := dataset.DecodeRecord(raw)
	require.NoError(t, err)
	require.Equal(t, id, rec.ID)
	require.Equal(t, "data/"+id+".flac", rec.Audio)
	require.Equal(t, "hello world", rec.Transcript)
	require.Equal(t, "spk1", rec.SpeakerID)
	require.Equal(t, "en", rec.Language)
	_, err = rec.ParseTimestamp()
	require.NoError(t, err)

	// The blob decodes back to the submitted audio.
	blob, err := st.Get(ctx, rec.Audio)
	require.NoError(t, err)
	decoded, rate, err := audio.DecodeFLAC(blob)
	require.NoError(t, err)
	require.Equal(t, 16000, rate)
	require.Len(t, decoded, 16000)
}

func TestIngestNotIdempotent(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)
	p := testPipeline(st)

	id1, err := p.Ingest(ctx, validSubmission())
	require.NoError(t, err)
	id2, err := p.Ingest(ctx, validSubmission())
	require.NoError(t, err)

	// Identical input produces two distinct records.
	require.NotEqual(t, id1, id2)

	names, err := st.List(ctx, "data/")
	require.NoError(t, err)
	require.Len(t, names, 4)
}

func TestIngestValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Submission)
	}{
		{"missing audio", func(s *Submission) { s.Samples = nil }},
		{"empty transcript", func(s *Submission) { s.Transcript = "" }},
		{"whitespace transcript", func(s *Submission) { s.Transcript = "   \t\n" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st, err := store.NewLocal(t.TempDir())
			require.NoError(t, err)
			p := testPipeline(st)

			sub := validSubmission()
			tt.mutate(&sub)

			_, err = p.Ingest(ctx, sub)
			require.Error(t, err)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))

			// Validation failures cause zero store writes.
			names, err := st.List(ctx, "")
			require.NoError(t, err)
			require.Empty(t, names)
		})
	}
}

func TestIngestRetrySucceedsWithinBudget(t *testing.T) {
	ctx := context.Background()
	fs := newFlakyStore(t, 2) // fail twice, succeed on 3rd
	p := testPipeline(fs)

	id, err := p.Ingest(ctx, validSubmission())
	require.NoError(t, err)

	audioRef := "data/" + id + ".flac"
	require.Equal(t, 3, fs.uploadAttempts(audioRef))
}

func TestIngestRetryExhausted(t *testing.T) {
	ctx := context.Background()
	fs := newFlakyStore(t, 3) // fail all 3 attempts
	p := testPipeline(fs)

	_, err := p.Ingest(ctx, validSubmission())
	require.Error(t, err)
	require.Contains(t, err.Error(), "after 3 attempts")

	// Exactly 3 attempts on the audio blob; the sidecar is never tried.
	fs.mu.Lock()
	defer fs.mu.Unlock()
	require.Len(t, fs.attempts, 1)
	for _, n := range fs.attempts {
		require.Equal(t, 3, n)
	}
}

func TestIngestResamplesToTargetRate(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)

	p := NewPipeline(st, Config{
		Subfolder:        "data",
		Format:           "flac",
		TargetSampleRate: 16000,
		MaxAttempts:      3,
		RetryBackoff:     time.Millisecond,
	}, testLogger(), nil)

	sub := validSubmission()
	sub.Samples = make([]int16, 8000) // 1s at 8kHz
	sub.SampleRate = 8000

	id, err := p.Ingest(ctx, sub)
	require.NoError(t, err)

	blob, err := st.Get(ctx, "data/"+id+".flac")
	require.NoError(t, err)
	_, rate, err := audio.DecodeFLAC(blob)
	require.NoError(t, err)
	require.Equal(t, 16000, rate)
}

func TestIngestLegacyWAVFormat(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)

	p := NewPipeline(st, Config{
		Subfolder:    "data",
		Format:       "wav",
		MaxAttempts:  3,
		RetryBackoff: time.Millisecond,
	}, testLogger(), nil)

	id, err := p.Ingest(ctx, validSubmission())
	require.NoError(t, err)

	names, err := st.List(ctx, "data/")
	require.NoError(t, err)
	require.Contains(t, names, "data/"+id+".wav")

	raw, err := st.Get(ctx, "data/"+id+".json")
	require.NoError(t, err)
	require.True(t, strings.Contains(string(raw), id+".wav"))
}
