package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/additive-ml/gamekit/internal/index"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFeatureColumns(t *testing.T) {
	path := writeCSV(t, "uid,response,id:userId,global/age,global/income,perUser/clicks\n")

	shards, err := FeatureColumns(path)
	require.NoError(t, err)
	require.Equal(t, map[string][]string{
		"global":  {"age", "income"},
		"perUser": {"clicks"},
	}, shards)
}

func TestLoadCSV(t *testing.T) {
	path := writeCSV(t, `uid,response,offset,weight,id:userId,global/age,global/income
1,1.0,0.5,2.0,alice,34,100
2,0.0,,,bob,0,55
`)
	indexes := map[string]*index.FeatureIndex{
		"global": index.Build([]string{"age", "income"}),
	}

	data, err := LoadCSV(path, indexes)
	require.NoError(t, err)
	require.Len(t, data, 2)

	d := data[0]
	require.Equal(t, int64(1), d.UniqueID)
	require.Equal(t, 1.0, d.Response)
	require.Equal(t, 0.5, d.Offset)
	require.Equal(t, 2.0, d.Weight)
	require.Equal(t, "alice", d.IDs["userId"])
	require.Equal(t, 34.0, d.Features["global"].At(0))
	require.Equal(t, 100.0, d.Features["global"].At(1))

	// Empty optional cells default, zero features stay sparse.
	d = data[1]
	require.Equal(t, int64(2), d.UniqueID)
	require.Equal(t, 0.0, d.Offset)
	require.Equal(t, 1.0, d.Weight)
	require.Equal(t, 1, d.Features["global"].NNZ())
}

func TestLoadCSV_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing uid column", "response,global/age\n1.0,2\n"},
		{"bad uid", "uid,global/age\nnope,2\n"},
		{"bad feature value", "uid,global/age\n1,notanumber\n"},
		{"ragged row", "uid,global/age\n1\n"},
		{"unrecognized column", "uid,age\n1,2\n"},
		{"empty file", ""},
	}
	indexes := map[string]*index.FeatureIndex{"global": index.Build([]string{"age"})}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCSV(writeCSV(t, tt.content), indexes)
			require.Error(t, err)
		})
	}
}

func TestLoadCSV_UnknownShardSkipped(t *testing.T) {
	path := writeCSV(t, "uid,mystery/f1\n1,3.5\n")

	data, err := LoadCSV(path, map[string]*index.FeatureIndex{})
	require.NoError(t, err)
	require.Len(t, data, 1)
	require.NotContains(t, data[0].Features, "mystery")
}
