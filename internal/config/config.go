// Package config loads and validates the driver configuration that
// declares a GAME model: its task type, sub-model specs, and the feature
// indexes used to vectorize datasets and coefficients.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/game"
	"github.com/additive-ml/gamekit/internal/index"
	"github.com/additive-ml/gamekit/internal/linalg"
	"github.com/additive-ml/gamekit/internal/scoring"
)

// DefaultPartitions is the dataset partition count used when the config
// does not set one.
const DefaultPartitions = 4

// Config is a parsed driver configuration.
type Config struct {
	TaskType     string            `yaml:"task_type"`
	Partitions   int               `yaml:"partitions,omitempty"`
	StorageLevel string            `yaml:"storage_level,omitempty"`
	Indexes      map[string]string `yaml:"indexes,omitempty"`
	Models       []ModelSpec       `yaml:"models"`
}

// ModelSpec declares one sub-model. Params are kind-specific and decoded
// when the model is built.
type ModelSpec struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind"`
	Params map[string]any `yaml:"params"`
}

// Load reads, schema-validates, and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if errs := ValidateBytes(data); len(errs) > 0 {
		return nil, fmt.Errorf("config: %s is invalid:\n  %s", path, strings.Join(errs, "\n  "))
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Partitions == 0 {
		cfg.Partitions = DefaultPartitions
	}
	if cfg.StorageLevel == "" {
		cfg.StorageLevel = dataset.StorageMemoryOnly.String()
	}
	return &cfg, nil
}

// ResolveIndexes returns a feature index per shard: shards with a
// configured index file load it, every other shard named in the dataset
// header gets an index built from its feature columns.
func (c *Config) ResolveIndexes(datasetPath string) (map[string]*index.FeatureIndex, error) {
	columns, err := dataset.FeatureColumns(datasetPath)
	if err != nil {
		return nil, err
	}

	indexes := make(map[string]*index.FeatureIndex, len(columns))
	for shard, names := range columns {
		indexes[shard] = index.Build(names)
	}
	for shard, path := range c.Indexes {
		fi, err := index.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config: index for shard %q: %w", shard, err)
		}
		indexes[shard] = fi
	}
	return indexes, nil
}

// BuildOption configures BuildModel.
type BuildOption func(*buildOptions)

type buildOptions struct {
	store *dataset.Store
}

// WithSpillStore attaches a spill store to every random-effect sub-model.
func WithSpillStore(s *dataset.Store) BuildOption {
	return func(o *buildOptions) {
		o.store = s
	}
}

// BuildModel constructs the GAME composite declared by the config,
// vectorizing coefficient maps through the given per-shard indexes.
func (c *Config) BuildModel(indexes map[string]*index.FeatureIndex, opts ...BuildOption) (*game.Model, error) {
	var bo buildOptions
	for _, o := range opts {
		o(&bo)
	}

	taskType, err := scoring.ParseTaskType(c.TaskType)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	pairs := make([]game.Named, 0, len(c.Models))
	for _, spec := range c.Models {
		scorer, err := buildScorer(spec, taskType, indexes, bo)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, game.Named{Name: spec.Name, Scorer: scorer})
	}
	return game.NewFromPairs(pairs...)
}

func buildScorer(spec ModelSpec, taskType scoring.TaskType, indexes map[string]*index.FeatureIndex, bo buildOptions) (scoring.DatumScorer, error) {
	switch scoring.Kind(spec.Kind) {
	case scoring.KindFixedEffect:
		var p struct {
			Shard        string             `mapstructure:"shard"`
			Coefficients map[string]float64 `mapstructure:"coefficients"`
		}
		if err := mapstructure.Decode(spec.Params, &p); err != nil {
			return nil, fmt.Errorf("config: model %q: %w", spec.Name, err)
		}
		fi, ok := indexes[p.Shard]
		if !ok {
			return nil, fmt.Errorf("config: model %q references unknown shard %q", spec.Name, p.Shard)
		}
		coeffs, dropped := fi.Vectorize(p.Coefficients)
		if dropped > 0 {
			return nil, fmt.Errorf("config: model %q has %d coefficients missing from the %q index", spec.Name, dropped, p.Shard)
		}
		return scoring.NewFixedEffectModel(p.Shard, taskType, coeffs), nil

	case scoring.KindRandomEffect:
		var p struct {
			Shard        string                        `mapstructure:"shard"`
			EntityTag    string                        `mapstructure:"entity_tag"`
			Coefficients map[string]map[string]float64 `mapstructure:"coefficients"`
		}
		if err := mapstructure.Decode(spec.Params, &p); err != nil {
			return nil, fmt.Errorf("config: model %q: %w", spec.Name, err)
		}
		if p.EntityTag == "" {
			return nil, fmt.Errorf("config: model %q is missing entity_tag", spec.Name)
		}
		fi, ok := indexes[p.Shard]
		if !ok {
			return nil, fmt.Errorf("config: model %q references unknown shard %q", spec.Name, p.Shard)
		}
		vectors := make(map[string]linalg.Vector, len(p.Coefficients))
		for entity, values := range p.Coefficients {
			v, dropped := fi.Vectorize(values)
			if dropped > 0 {
				return nil, fmt.Errorf("config: model %q entity %q has %d coefficients missing from the %q index", spec.Name, entity, dropped, p.Shard)
			}
			vectors[entity] = v
		}
		var reOpts []scoring.RandomEffectOption
		if bo.store != nil {
			reOpts = append(reOpts, scoring.WithStore(bo.store))
		}
		return scoring.NewRandomEffectModel(p.EntityTag, p.Shard, taskType, vectors, reOpts...), nil

	default:
		return nil, fmt.Errorf("config: model %q has invalid kind %q", spec.Name, spec.Kind)
	}
}
