package dataset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func mkData(n int) []Datum {
	data := make([]Datum, n)
	for i := range data {
		data[i] = Datum{UniqueID: int64(i + 1)}
	}
	return data
}

func TestNew_Partitioning(t *testing.T) {
	tests := []struct {
		name       string
		records    int
		partitions int
		wantParts  int
	}{
		{"even split", 10, 2, 2},
		{"uneven split", 10, 3, 3},
		{"more partitions than records", 2, 8, 2},
		{"single partition", 5, 1, 1},
		{"zero partitions clamps to one", 5, 0, 1},
		{"empty dataset", 0, 4, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := New(mkData(tt.records), tt.partitions)
			require.Equal(t, tt.records, ds.Len())
			require.Len(t, ds.Partitions(), tt.wantParts)

			// Collect preserves every record exactly once.
			collected := ds.Collect()
			require.Len(t, collected, tt.records)
			seen := map[int64]bool{}
			for _, d := range collected {
				require.False(t, seen[d.UniqueID])
				seen[d.UniqueID] = true
			}
		})
	}
}

func TestParseStorageLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    StorageLevel
		wantErr bool
	}{
		{"memory_only", StorageMemoryOnly, false},
		{"memory", StorageMemoryOnly, false},
		{"MEMORY_AND_DISK", StorageMemoryAndDisk, false},
		{"disk_only", StorageDiskOnly, false},
		{"disk", StorageDiskOnly, false},
		{" disk_only ", StorageDiskOnly, false},
		{"tape", StorageMemoryOnly, true},
		{"", StorageMemoryOnly, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseStorageLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestStorageLevel_RequiresDisk(t *testing.T) {
	require.False(t, StorageMemoryOnly.RequiresDisk())
	require.True(t, StorageMemoryAndDisk.RequiresDisk())
	require.True(t, StorageDiskOnly.RequiresDisk())
}
