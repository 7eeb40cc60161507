package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/linalg"
)

// RandomEffectModel scores each record against the coefficient vector of
// the entity the record belongs to, looked up through an entity-id tag
// (e.g. "userId"). Records whose entity has no model contribute nothing.
//
// The per-entity coefficient table is the model's dataset-backed resource:
// Persist with a disk-bearing storage level snapshots it into the spill
// store, Unpersist drops the snapshot. A model built without a store
// treats both as no-ops.
type RandomEffectModel struct {
	entityTag    string
	featureShard string
	taskType     TaskType
	coefficients map[string]linalg.Vector

	mu        sync.Mutex
	store     *dataset.Store
	persisted bool
}

// RandomEffectOption configures a RandomEffectModel.
type RandomEffectOption func(*RandomEffectModel)

// WithStore attaches a spill store used by Persist/Unpersist.
func WithStore(s *dataset.Store) RandomEffectOption {
	return func(m *RandomEffectModel) {
		m.store = s
	}
}

// NewRandomEffectModel builds a per-entity model over one feature shard.
func NewRandomEffectModel(entityTag, featureShard string, taskType TaskType, coefficients map[string]linalg.Vector, opts ...RandomEffectOption) *RandomEffectModel {
	m := &RandomEffectModel{
		entityTag:    entityTag,
		featureShard: featureShard,
		taskType:     taskType,
		coefficients: coefficients,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *RandomEffectModel) Kind() Kind {
	return KindRandomEffect
}

func (m *RandomEffectModel) TaskType() TaskType {
	return m.taskType
}

// EntityTag returns the id tag used to look up per-entity coefficients.
func (m *RandomEffectModel) EntityTag() string {
	return m.entityTag
}

// FeatureShard returns the feature shard this model scores against.
func (m *RandomEffectModel) FeatureShard() string {
	return m.featureShard
}

// EntityCoefficients returns the coefficient vector for one entity.
func (m *RandomEffectModel) EntityCoefficients(entity string) (linalg.Vector, bool) {
	v, ok := m.coefficients[entity]
	return v, ok
}

// Score scans partitions concurrently, emitting a contribution only for
// records whose entity has a coefficient vector.
func (m *RandomEffectModel) Score(ctx context.Context, ds *dataset.Dataset) (KeyValueScore, error) {
	parts := ds.Partitions()
	partials := make([]KeyValueScore, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := KeyValueScore{}
			for _, d := range part {
				coeffs, ok := m.coefficients[d.IDs[m.entityTag]]
				if !ok {
					continue
				}
				out[d.UniqueID] = linalg.Dot(coeffs, d.Features[m.featureShard])
			}
			partials[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := KeyValueScore{}
	for _, p := range partials {
		for id, v := range p {
			total[id] += v
		}
	}
	return total, nil
}

func (m *RandomEffectModel) Summary() string {
	return fmt.Sprintf("random-effect model (tag=%s, shard=%s, task=%s, entities=%d)",
		m.entityTag, m.featureShard, m.taskType, len(m.coefficients))
}

// Equal reports value equality: same tag, shard, task type, and per-entity
// coefficients.
func (m *RandomEffectModel) Equal(other DatumScorer) bool {
	o, ok := other.(*RandomEffectModel)
	if !ok {
		return false
	}
	if m.entityTag != o.entityTag || m.featureShard != o.featureShard || m.taskType != o.taskType {
		return false
	}
	if len(m.coefficients) != len(o.coefficients) {
		return false
	}
	for entity, v := range m.coefficients {
		ov, ok := o.coefficients[entity]
		if !ok || !v.Equal(ov, 0) {
			return false
		}
	}
	return true
}

// Persist snapshots the coefficient table into the spill store when the
// level includes disk. Repeated calls are no-ops until Unpersist.
func (m *RandomEffectModel) Persist(level dataset.StorageLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil || !level.RequiresDisk() || m.persisted {
		return nil
	}

	entities := make([]string, 0, len(m.coefficients))
	for entity := range m.coefficients {
		entities = append(entities, entity)
	}
	sort.Strings(entities)

	for _, entity := range entities {
		payload, err := json.Marshal(m.coefficients[entity])
		if err != nil {
			return fmt.Errorf("random-effect model (tag=%s): encode %s: %w", m.entityTag, entity, err)
		}
		if err := m.store.Put(m.snapshotKey(entity), payload); err != nil {
			return fmt.Errorf("random-effect model (tag=%s): persist %s: %w", m.entityTag, entity, err)
		}
	}
	m.persisted = true
	return nil
}

// Unpersist drops the store snapshot. Safe to call when nothing is persisted.
func (m *RandomEffectModel) Unpersist() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store == nil || !m.persisted {
		return nil
	}
	if err := m.store.DeletePrefix(m.snapshotPrefix()); err != nil {
		return fmt.Errorf("random-effect model (tag=%s): unpersist: %w", m.entityTag, err)
	}
	m.persisted = false
	return nil
}

// Persisted reports whether a store snapshot currently exists.
func (m *RandomEffectModel) Persisted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persisted
}

func (m *RandomEffectModel) snapshotPrefix() string {
	return fmt.Sprintf("random_effect/%s/%s/", m.entityTag, m.featureShard)
}

func (m *RandomEffectModel) snapshotKey(entity string) string {
	return m.snapshotPrefix() + entity
}

var (
	_ DatumScorer   = (*RandomEffectModel)(nil)
	_ DatasetBacked = (*RandomEffectModel)(nil)
)
