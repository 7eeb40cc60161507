package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/game"
	"github.com/additive-ml/gamekit/internal/index"
	"github.com/additive-ml/gamekit/internal/scoring"
)

const validConfig = `task_type: linear_regression
partitions: 2
models:
  - name: fixed
    kind: fixed_effect
    params:
      shard: global
      coefficients:
        age: 0.5
        income: -0.1
  - name: per-user
    kind: random_effect
    params:
      shard: perUser
      entity_tag: userId
      coefficients:
        alice:
          clicks: 0.4
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testIndexes() map[string]*index.FeatureIndex {
	return map[string]*index.FeatureIndex{
		"global":  index.Build([]string{"age", "income"}),
		"perUser": index.Build([]string{"clicks"}),
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeFile(t, "game.yaml", validConfig))
	require.NoError(t, err)
	require.Equal(t, "linear_regression", cfg.TaskType)
	require.Equal(t, 2, cfg.Partitions)
	require.Equal(t, "memory_only", cfg.StorageLevel)
	require.Len(t, cfg.Models, 2)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeFile(t, "game.yaml", `task_type: logistic_regression
models:
  - name: fixed
    kind: fixed_effect
    params: {shard: global, coefficients: {}}
`))
	require.NoError(t, err)
	require.Equal(t, DefaultPartitions, cfg.Partitions)
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing task type", "models:\n  - {name: a, kind: fixed_effect, params: {}}\n"},
		{"bad task type", "task_type: ranking\nmodels:\n  - {name: a, kind: fixed_effect, params: {}}\n"},
		{"no models", "task_type: linear_regression\nmodels: []\n"},
		{"bad kind", "task_type: linear_regression\nmodels:\n  - {name: a, kind: mystery, params: {}}\n"},
		{"unknown top-level key", "task_type: linear_regression\nbogus: 1\nmodels:\n  - {name: a, kind: fixed_effect, params: {}}\n"},
		{"not yaml", ": :\n  - [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, "game.yaml", tt.content))
			require.Error(t, err)
			require.Contains(t, err.Error(), "invalid")
		})
	}
}

func TestValidateBytes_OK(t *testing.T) {
	require.Empty(t, ValidateBytes([]byte(validConfig)))
}

func TestValidateBytes_ReportsLocation(t *testing.T) {
	errs := ValidateBytes([]byte("task_type: linear_regression\nmodels:\n  - {name: a, kind: bogus, params: {}}\n"))
	require.NotEmpty(t, errs)
	require.Contains(t, errs[0], "/models/0/kind")
}

func TestBuildModel(t *testing.T) {
	cfg, err := Load(writeFile(t, "game.yaml", validConfig))
	require.NoError(t, err)

	m, err := cfg.BuildModel(testIndexes())
	require.NoError(t, err)
	require.Equal(t, scoring.TaskLinearRegression, m.TaskType())
	require.Equal(t, 2, m.Len())

	fixed, ok := m.Scorer("fixed")
	require.True(t, ok)
	require.Equal(t, scoring.KindFixedEffect, fixed.Kind())

	re, ok := m.Scorer("per-user")
	require.True(t, ok)
	require.Equal(t, scoring.KindRandomEffect, re.Kind())
}

func TestBuildModel_ScoresDataset(t *testing.T) {
	cfg, err := Load(writeFile(t, "game.yaml", validConfig))
	require.NoError(t, err)

	indexes := testIndexes()
	m, err := cfg.BuildModel(indexes)
	require.NoError(t, err)

	csv := writeFile(t, "data.csv", `uid,id:userId,global/age,global/income,perUser/clicks
1,alice,10,100,2
2,bob,20,50,1
`)
	data, err := dataset.LoadCSV(csv, indexes)
	require.NoError(t, err)

	scores, err := m.Score(context.Background(), dataset.New(data, cfg.Partitions))
	require.NoError(t, err)
	require.InDelta(t, 10*0.5+100*-0.1+2*0.4, scores[1], 1e-9)
	require.InDelta(t, 20*0.5+50*-0.1, scores[2], 1e-9) // bob has no random-effect model
}

func TestBuildModel_Errors(t *testing.T) {
	indexes := testIndexes()

	t.Run("unknown shard", func(t *testing.T) {
		cfg := &Config{TaskType: "linear_regression", Models: []ModelSpec{{
			Name: "a", Kind: "fixed_effect",
			Params: map[string]any{"shard": "nope", "coefficients": map[string]any{}},
		}}}
		_, err := cfg.BuildModel(indexes)
		require.ErrorContains(t, err, "unknown shard")
	})

	t.Run("unknown coefficient name", func(t *testing.T) {
		cfg := &Config{TaskType: "linear_regression", Models: []ModelSpec{{
			Name: "a", Kind: "fixed_effect",
			Params: map[string]any{"shard": "global", "coefficients": map[string]any{"mystery": 1.0}},
		}}}
		_, err := cfg.BuildModel(indexes)
		require.ErrorContains(t, err, "missing from")
	})

	t.Run("missing entity tag", func(t *testing.T) {
		cfg := &Config{TaskType: "linear_regression", Models: []ModelSpec{{
			Name: "a", Kind: "random_effect",
			Params: map[string]any{"shard": "perUser", "coefficients": map[string]any{}},
		}}}
		_, err := cfg.BuildModel(indexes)
		require.ErrorContains(t, err, "entity_tag")
	})

	t.Run("bad task type", func(t *testing.T) {
		cfg := &Config{TaskType: "bogus", Models: nil}
		_, err := cfg.BuildModel(indexes)
		require.Error(t, err)
	})

	t.Run("mixed task types impossible via config", func(t *testing.T) {
		// One task type for the whole file means construction cannot hit
		// the multiple-model-types error through this path.
		cfg := &Config{TaskType: "linear_regression", Models: nil}
		_, err := cfg.BuildModel(indexes)
		var cfgErr *game.ConfigurationError
		require.ErrorAs(t, err, &cfgErr) // empty model list still fails
	})
}

func TestBuildModel_WithSpillStore(t *testing.T) {
	store, err := dataset.OpenStore(dataset.StoreConfig{InMemory: true})
	require.NoError(t, err)
	defer store.Close() //nolint:errcheck

	cfg := &Config{TaskType: "linear_regression", Models: []ModelSpec{{
		Name: "re", Kind: "random_effect",
		Params: map[string]any{
			"shard":      "perUser",
			"entity_tag": "userId",
			"coefficients": map[string]any{
				"alice": map[string]any{"clicks": 1.0},
			},
		},
	}}}

	m, err := cfg.BuildModel(testIndexes(), WithSpillStore(store))
	require.NoError(t, err)

	_, err = m.Persist(dataset.StorageDiskOnly)
	require.NoError(t, err)

	keys, err := store.Keys("random_effect/")
	require.NoError(t, err)
	require.NotEmpty(t, keys)
}

func TestResolveIndexes(t *testing.T) {
	csv := writeFile(t, "data.csv", "uid,global/age,global/income,perUser/clicks\n")

	idxPath := filepath.Join(t.TempDir(), "global.json.gz")
	require.NoError(t, index.Build([]string{"age", "income", "zip"}).Save(idxPath))

	cfg := &Config{Indexes: map[string]string{"global": idxPath}}
	indexes, err := cfg.ResolveIndexes(csv)
	require.NoError(t, err)

	// Configured index wins over the header-derived one.
	require.Equal(t, 3, indexes["global"].Len())
	// Header-only shard gets a built index.
	require.Equal(t, 1, indexes["perUser"].Len())
}

func TestResolveIndexes_MissingIndexFile(t *testing.T) {
	csv := writeFile(t, "data.csv", "uid,global/age\n")
	cfg := &Config{Indexes: map[string]string{"global": "/does/not/exist.gz"}}
	_, err := cfg.ResolveIndexes(csv)
	require.Error(t, err)
}
