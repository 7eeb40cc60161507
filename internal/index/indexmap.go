// Package index manages feature index maps: the bidirectional mapping from
// feature names to the integer coordinates used by sparse vectors. Index
// files are gzip-compressed JSON so large feature spaces stay cheap to ship.
package index

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/klauspost/compress/gzip"

	"github.com/additive-ml/gamekit/internal/linalg"
)

// FeatureIndex assigns a dense integer id to every feature name.
type FeatureIndex struct {
	ids   map[string]int
	names []string
}

// Build creates an index over the given feature names. Names are
// deduplicated and sorted so the same name set always produces the same ids.
func Build(names []string) *FeatureIndex {
	uniq := make(map[string]struct{}, len(names))
	for _, n := range names {
		uniq[n] = struct{}{}
	}
	sorted := make([]string, 0, len(uniq))
	for n := range uniq {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	ids := make(map[string]int, len(sorted))
	for i, n := range sorted {
		ids[n] = i
	}
	return &FeatureIndex{ids: ids, names: sorted}
}

// ID returns the integer id for a feature name.
func (fi *FeatureIndex) ID(name string) (int, bool) {
	id, ok := fi.ids[name]
	return id, ok
}

// Name returns the feature name for an id, or "" when out of range.
func (fi *FeatureIndex) Name(id int) string {
	if id < 0 || id >= len(fi.names) {
		return ""
	}
	return fi.names[id]
}

// Names returns all feature names in id order. Callers must not mutate it.
func (fi *FeatureIndex) Names() []string {
	return fi.names
}

// Len returns the number of indexed features.
func (fi *FeatureIndex) Len() int {
	return len(fi.names)
}

// Vectorize converts a name-to-value map into a sparse vector, dropping
// names the index does not know. It returns the vector and the count of
// dropped names.
func (fi *FeatureIndex) Vectorize(features map[string]float64) (linalg.Vector, int) {
	entries := make(map[int]float64, len(features))
	dropped := 0
	for name, value := range features {
		id, ok := fi.ids[name]
		if !ok {
			dropped++
			continue
		}
		entries[id] = value
	}
	return linalg.New(entries), dropped
}

// Save writes the index to path as gzip-compressed JSON.
func (fi *FeatureIndex) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("index: create %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	zw := gzip.NewWriter(f)
	if err := json.NewEncoder(zw).Encode(fi.names); err != nil {
		return fmt.Errorf("index: encode %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("index: flush %s: %w", path, err)
	}
	return f.Close()
}

// Load reads an index previously written by Save.
func Load(path string) (*FeatureIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("index: %s is not a gzip index file: %w", path, err)
	}
	defer zr.Close() //nolint:errcheck

	var names []string
	if err := json.NewDecoder(zr).Decode(&names); err != nil {
		return nil, fmt.Errorf("index: decode %s: %w", path, err)
	}

	// Stored name order is authoritative: ids must survive a round trip
	// even if the file predates the current sort rule.
	ids := make(map[string]int, len(names))
	for i, n := range names {
		if _, dup := ids[n]; dup {
			return nil, fmt.Errorf("index: %s contains duplicate feature %q", path, n)
		}
		ids[n] = i
	}
	return &FeatureIndex{ids: ids, names: names}, nil
}
