package dataset

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ibraahimlab/voice-collector/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func uploadRecord(t *testing.T, st store.ObjectStore, split, id string) {
	t.Helper()
	rec := NewRecord(id, split+"/"+id+".flac", "transcript for "+id, "", "")
	data, err := rec.EncodeJSON()
	require.NoError(t, err)
	require.NoError(t, st.Upload(context.Background(), split+"/"+id+".json", data))
}

func TestLoadIndexGroupsBySplit(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)

	uploadRecord(t, st, "data", "a")
	uploadRecord(t, st, "data", "b")
	uploadRecord(t, st, "test", "c")

	// Audio blobs and derived manifests must not become records.
	require.NoError(t, st.Upload(ctx, "data/a.flac", []byte("audio")))
	require.NoError(t, st.Upload(ctx, "manifests/data.jsonl", []byte("{}")))

	idx, err := LoadIndex(ctx, st, discardLogger())
	require.NoError(t, err)

	require.Equal(t, []string{"data", "test"}, idx.SplitNames())
	require.Len(t, idx.Splits["data"], 2)
	require.Len(t, idx.Splits["test"], 1)
	require.Equal(t, 3, idx.Len())
}

func TestLoadIndexSkipsCorruptSidecar(t *testing.T) {
	ctx := context.Background()
	st, err := store.NewLocal(t.TempDir())
	require.NoError(t, err)

	uploadRecord(t, st, "data", "good")
	require.NoError(t, st.Upload(ctx, "data/bad.json", []byte("{broken")))

	idx, err := LoadIndex(ctx, st, discardLogger())
	require.NoError(t, err)
	require.Equal(t, 1, idx.Len())
	require.Equal(t, "good", idx.Splits["data"][0].ID)
}

func TestLoadIndexMissingRepository(t *testing.T) {
	st, err := store.OpenLocal(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.Nil(t, st)
	require.True(t, errors.Is(err, store.ErrRepositoryNotFound))
}

func TestSplitOf(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want string
	}{
		{"default subfolder", "data/abc.json", "data"},
		{"nested path", "test/deep/abc.json", "test"},
		{"bare key", "abc.json", "train"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitOf(tt.key); got != tt.want {
				t.Errorf("splitOf(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
