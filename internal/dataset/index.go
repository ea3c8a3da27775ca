package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/ibraahimlab/voice-collector/internal/store"
)

// manifestPrefix holds derived per-split manifests, not record sidecars.
const manifestPrefix = "manifests/"

// Index is the split-partitioned view of the dataset, loaded fresh from
// the object store at the start of a materialization run and mutated
// entirely in memory. The store is the only durable state.
type Index struct {
	// Splits maps split name to the records in that split.
	Splits map[string][]*Record
}

// SplitNames returns the split names in sorted order.
func (idx *Index) SplitNames() []string {
	names := make([]string, 0, len(idx.Splits))
	for name := range idx.Splits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of records across all splits.
func (idx *Index) Len() int {
	n := 0
	for _, recs := range idx.Splits {
		n += len(recs)
	}
	return n
}

// LoadIndex lists all JSON sidecars in the store and groups them into
// splits by their top-level key directory (the ingestion subfolder,
// "data" by default, yields a single split of that name).
//
// A missing repository surfaces as store.ErrRepositoryNotFound; callers
// treat that as fatal. A sidecar that fails to parse is logged and
// skipped so one corrupt object cannot block the whole dataset.
func LoadIndex(ctx context.Context, st store.ObjectStore, logger *slog.Logger) (*Index, error) {
	names, err := st.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list dataset objects: %w", err)
	}

	idx := &Index{Splits: make(map[string][]*Record)}

	for _, name := range names {
		if !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, manifestPrefix) {
			continue
		}

		data, err := st.Get(ctx, name)
		if err != nil {
			logger.Warn("Failed to fetch record sidecar",
				slog.String("path", name),
				slog.String("error", err.Error()),
			)
			continue
		}

		rec, err := DecodeRecord(data)
		if err != nil {
			logger.Warn("Skipping unparseable record sidecar",
				slog.String("path", name),
				slog.String("error", err.Error()),
			)
			continue
		}

		split := splitOf(name)
		idx.Splits[split] = append(idx.Splits[split], rec)
	}

	return idx, nil
}

// splitOf derives the split name from a sidecar key: the first path
// segment, or "train" for keys with no directory.
func splitOf(name string) string {
	if i := strings.IndexByte(name, '/'); i > 0 {
		return name[:i]
	}
	return "train"
}
