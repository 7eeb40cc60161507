// Package dataset holds the partitioned record collection that scoring
// models consume, plus the persistence primitives (broadcast handles and
// the embedded spill store) those models manage explicitly.
package dataset

import (
	"fmt"
	"strings"

	"github.com/additive-ml/gamekit/internal/linalg"
)

// Datum is one scoring record: a unique id, its regression targets, the
// entity-id tags used by random-effect lookup, and per-shard feature vectors.
type Datum struct {
	UniqueID int64                    `json:"uid"`
	Response float64                  `json:"response"`
	Offset   float64                  `json:"offset"`
	Weight   float64                  `json:"weight"`
	IDs      map[string]string        `json:"ids,omitempty"`
	Features map[string]linalg.Vector `json:"features"`
}

// Dataset is an immutable, partitioned collection of Datum records.
// Partitioning exists so scorers can scan partitions concurrently; record
// order within a partition is stable but carries no meaning.
type Dataset struct {
	partitions [][]Datum
	size       int
}

// New splits data into at most numPartitions contiguous partitions.
// numPartitions < 1 is treated as 1.
func New(data []Datum, numPartitions int) *Dataset {
	if numPartitions < 1 {
		numPartitions = 1
	}
	if numPartitions > len(data) && len(data) > 0 {
		numPartitions = len(data)
	}

	ds := &Dataset{size: len(data)}
	if len(data) == 0 {
		return ds
	}

	chunk := (len(data) + numPartitions - 1) / numPartitions
	for start := 0; start < len(data); start += chunk {
		end := min(start+chunk, len(data))
		ds.partitions = append(ds.partitions, data[start:end])
	}
	return ds
}

// Partitions returns the backing partitions. Callers must not mutate them.
func (d *Dataset) Partitions() [][]Datum {
	return d.partitions
}

// Len returns the total record count.
func (d *Dataset) Len() int {
	return d.size
}

// Collect returns all records in partition order as a single slice.
func (d *Dataset) Collect() []Datum {
	out := make([]Datum, 0, d.size)
	for _, p := range d.partitions {
		out = append(out, p...)
	}
	return out
}

// StorageLevel selects where a persisted dataset snapshot lives.
type StorageLevel string

const (
	StorageMemoryOnly    StorageLevel = "memory_only"
	StorageMemoryAndDisk StorageLevel = "memory_and_disk"
	StorageDiskOnly      StorageLevel = "disk_only"
)

// RequiresDisk reports whether the level includes an on-disk copy.
func (s StorageLevel) RequiresDisk() bool {
	return s == StorageMemoryAndDisk || s == StorageDiskOnly
}

func (s StorageLevel) String() string {
	return string(s)
}

// ParseStorageLevel converts a flag or config value to a StorageLevel.
func ParseStorageLevel(s string) (StorageLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "memory_only", "memory":
		return StorageMemoryOnly, nil
	case "memory_and_disk":
		return StorageMemoryAndDisk, nil
	case "disk_only", "disk":
		return StorageDiskOnly, nil
	default:
		return StorageMemoryOnly, fmt.Errorf("invalid storage level %q: must be memory_only, memory_and_disk, or disk_only", s)
	}
}
