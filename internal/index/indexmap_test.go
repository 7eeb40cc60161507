package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_DeterministicIDs(t *testing.T) {
	a := Build([]string{"age", "zip", "income", "age"})
	b := Build([]string{"zip", "income", "age"})

	require.Equal(t, 3, a.Len())
	require.Equal(t, a.Names(), b.Names())

	id, ok := a.ID("age")
	require.True(t, ok)
	require.Equal(t, 0, id)
	require.Equal(t, "age", a.Name(0))

	_, ok = a.ID("missing")
	require.False(t, ok)
	require.Equal(t, "", a.Name(99))
	require.Equal(t, "", a.Name(-1))
}

func TestVectorize(t *testing.T) {
	fi := Build([]string{"a", "b", "c"})

	v, dropped := fi.Vectorize(map[string]float64{"a": 1.5, "c": -2.0, "unknown": 9.0})
	require.Equal(t, 1, dropped)
	require.Equal(t, 1.5, v.At(0))
	require.Equal(t, 0.0, v.At(1))
	require.Equal(t, -2.0, v.At(2))

	v, dropped = fi.Vectorize(nil)
	require.Equal(t, 0, dropped)
	require.Equal(t, 0, v.NNZ())
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	fi := Build([]string{"b", "a", "c"})
	path := filepath.Join(t.TempDir(), "features.json.gz")

	require.NoError(t, fi.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, fi.Names(), loaded.Names())

	for _, name := range fi.Names() {
		wantID, _ := fi.ID(name)
		gotID, ok := loaded.ID(name)
		require.True(t, ok)
		require.Equal(t, wantID, gotID)
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.gz"))
	require.Error(t, err)
}
