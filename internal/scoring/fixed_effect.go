package scoring

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/linalg"
)

// FixedEffectModel scores every record against a single coefficient vector
// over one feature shard. The coefficients are held through a broadcast
// handle so retraining rounds can share them across model generations, and
// released through the BroadcastBacked capability.
type FixedEffectModel struct {
	featureShard string
	taskType     TaskType
	coefficients *dataset.Broadcast[linalg.Vector]
}

// NewFixedEffectModel wraps the coefficient vector in a fresh broadcast handle.
func NewFixedEffectModel(featureShard string, taskType TaskType, coefficients linalg.Vector) *FixedEffectModel {
	return NewSharedFixedEffectModel(featureShard, taskType, dataset.NewBroadcast(coefficients))
}

// NewSharedFixedEffectModel reuses an existing broadcast handle.
func NewSharedFixedEffectModel(featureShard string, taskType TaskType, coefficients *dataset.Broadcast[linalg.Vector]) *FixedEffectModel {
	return &FixedEffectModel{
		featureShard: featureShard,
		taskType:     taskType,
		coefficients: coefficients,
	}
}

func (m *FixedEffectModel) Kind() Kind {
	return KindFixedEffect
}

func (m *FixedEffectModel) TaskType() TaskType {
	return m.taskType
}

// FeatureShard returns the feature shard this model scores against.
func (m *FixedEffectModel) FeatureShard() string {
	return m.featureShard
}

// Coefficients returns the broadcast coefficient vector.
func (m *FixedEffectModel) Coefficients() (linalg.Vector, error) {
	return m.coefficients.Value()
}

// Score computes the dot product of the coefficient vector with every
// record's shard features, scanning partitions concurrently.
func (m *FixedEffectModel) Score(ctx context.Context, ds *dataset.Dataset) (KeyValueScore, error) {
	coeffs, err := m.coefficients.Value()
	if err != nil {
		return nil, fmt.Errorf("fixed-effect model (shard=%s): %w", m.featureShard, err)
	}

	parts := ds.Partitions()
	partials := make([]KeyValueScore, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out := make(KeyValueScore, len(part))
			for _, d := range part {
				out[d.UniqueID] = linalg.Dot(coeffs, d.Features[m.featureShard])
			}
			partials[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := make(KeyValueScore, ds.Len())
	for _, p := range partials {
		for id, v := range p {
			total[id] += v
		}
	}
	return total, nil
}

func (m *FixedEffectModel) Summary() string {
	coeffs, err := m.coefficients.Value()
	if err != nil {
		return fmt.Sprintf("fixed-effect model (shard=%s, task=%s, coefficients released)", m.featureShard, m.taskType)
	}
	return fmt.Sprintf("fixed-effect model (shard=%s, task=%s, features=%d)", m.featureShard, m.taskType, coeffs.NNZ())
}

// Equal reports value equality: same shard, task type, and coefficients.
func (m *FixedEffectModel) Equal(other DatumScorer) bool {
	o, ok := other.(*FixedEffectModel)
	if !ok {
		return false
	}
	if m.featureShard != o.featureShard || m.taskType != o.taskType {
		return false
	}
	a, errA := m.coefficients.Value()
	b, errB := o.coefficients.Value()
	if errA != nil || errB != nil {
		return errA != nil && errB != nil
	}
	return a.Equal(b, 0)
}

// UnpersistBroadcast releases the coefficient broadcast. Safe to call more
// than once.
func (m *FixedEffectModel) UnpersistBroadcast() error {
	return m.coefficients.Release()
}

var (
	_ DatumScorer     = (*FixedEffectModel)(nil)
	_ BroadcastBacked = (*FixedEffectModel)(nil)
)
