// Package game implements the generalized additive mixed-effect (GAME)
// composite: a named collection of independently trained sub-models that
// share one task type and score a dataset by summing their per-record
// contributions.
package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/additive-ml/gamekit/internal/dataset"
	"github.com/additive-ml/gamekit/internal/scoring"
)

// Named pairs a sub-model with its registration name.
type Named struct {
	Name   string
	Scorer scoring.DatumScorer
}

// Model is an immutable composite of named sub-models. Update returns a
// new Model sharing every unchanged sub-model reference with its
// predecessor; no operation mutates an existing Model.
type Model struct {
	scorers  map[string]scoring.DatumScorer
	taskType scoring.TaskType
}

// New builds a Model from a name-to-scorer mapping. Every sub-model must
// report the same task type; anything else, including an empty mapping,
// fails with a *ConfigurationError.
func New(scorers map[string]scoring.DatumScorer) (*Model, error) {
	taskType, err := determineTaskType(scorers)
	if err != nil {
		return nil, err
	}

	owned := make(map[string]scoring.DatumScorer, len(scorers))
	for name, s := range scorers {
		owned[name] = s
	}
	return &Model{scorers: owned, taskType: taskType}, nil
}

// NewFromPairs is the variadic constructor. A name given twice keeps the
// last binding.
func NewFromPairs(pairs ...Named) (*Model, error) {
	scorers := make(map[string]scoring.DatumScorer, len(pairs))
	for _, p := range pairs {
		scorers[p.Name] = p.Scorer
	}
	return New(scorers)
}

func determineTaskType(scorers map[string]scoring.DatumScorer) (scoring.TaskType, error) {
	seen := map[scoring.TaskType]struct{}{}
	for _, s := range scorers {
		seen[s.TaskType()] = struct{}{}
	}
	if len(seen) != 1 {
		types := make([]scoring.TaskType, 0, len(seen))
		for t := range seen {
			types = append(types, t)
		}
		sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
		return scoring.TaskNone, &ConfigurationError{TaskTypes: types}
	}
	for t := range seen {
		return t, nil
	}
	return scoring.TaskNone, nil // unreachable
}

// TaskType returns the task type shared by every sub-model. The value is
// computed at construction and copied across updates, never recomputed;
// callers that cannot trust their updates should call Validate.
func (m *Model) TaskType() scoring.TaskType {
	return m.taskType
}

// Scorer returns the sub-model registered under name.
func (m *Model) Scorer(name string) (scoring.DatumScorer, bool) {
	s, ok := m.scorers[name]
	return s, ok
}

// Len returns the number of sub-models.
func (m *Model) Len() int {
	return len(m.scorers)
}

// Update returns a new Model with name rebound to scorer. When name is
// already registered the replacement must carry the same variant Kind as
// the existing sub-model; a mismatch fails with an
// *UnsupportedOperationError and leaves the receiver untouched. Unknown
// names insert without validation. The new Model reuses the receiver's
// cached task type instead of recomputing it.
func (m *Model) Update(name string, scorer scoring.DatumScorer) (*Model, error) {
	if existing, ok := m.scorers[name]; ok && existing.Kind() != scorer.Kind() {
		return nil, &UnsupportedOperationError{
			Name:        name,
			Existing:    existing.Kind(),
			Replacement: scorer.Kind(),
		}
	}

	next := make(map[string]scoring.DatumScorer, len(m.scorers)+1)
	for n, s := range m.scorers {
		next[n] = s
	}
	next[name] = scorer
	return &Model{scorers: next, taskType: m.taskType}, nil
}

// Validate re-runs the task-type check that construction performs and
// additionally confirms the cached task type still matches. Updates skip
// this check for speed; call Validate after applying updates whose type
// preservation is not guaranteed.
func (m *Model) Validate() error {
	taskType, err := determineTaskType(m.scorers)
	if err != nil {
		return err
	}
	if taskType != m.taskType {
		return &ConfigurationError{TaskTypes: []scoring.TaskType{m.taskType, taskType}}
	}
	return nil
}

// Scorers returns the backing name-to-scorer map without copying. Callers
// must treat it as read-only.
func (m *Model) Scorers() map[string]scoring.DatumScorer {
	return m.scorers
}

// SortedNames returns the sub-model names in lexical order.
func (m *Model) SortedNames() []string {
	names := make([]string, 0, len(m.scorers))
	for name := range m.scorers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedScorers returns name-sorted (name, scorer) pairs for deterministic
// iteration.
func (m *Model) SortedScorers() []Named {
	names := m.SortedNames()
	pairs := make([]Named, len(names))
	for i, name := range names {
		pairs[i] = Named{Name: name, Scorer: m.scorers[name]}
	}
	return pairs
}

// Persist asks every dataset-backed sub-model to persist at the given
// storage level; sub-models without the capability are skipped. Every
// sub-model is visited even when an earlier one fails; failures are joined
// into the returned error. Returns the receiver for chaining.
func (m *Model) Persist(level dataset.StorageLevel) (*Model, error) {
	var errs []error
	for _, p := range m.SortedScorers() {
		if backed, ok := p.Scorer.(scoring.DatasetBacked); ok {
			if err := backed.Persist(level); err != nil {
				errs = append(errs, fmt.Errorf("persist %q: %w", p.Name, err))
			}
		}
	}
	return m, errors.Join(errs...)
}

// Unpersist releases every sub-model's explicit resources: dataset-backed
// sub-models unpersist their datasets and broadcast-backed sub-models
// release their broadcasts. A sub-model with both capabilities receives
// both calls. Safe on already-released resources. Returns the receiver.
func (m *Model) Unpersist() (*Model, error) {
	var errs []error
	for _, p := range m.SortedScorers() {
		if backed, ok := p.Scorer.(scoring.DatasetBacked); ok {
			if err := backed.Unpersist(); err != nil {
				errs = append(errs, fmt.Errorf("unpersist %q: %w", p.Name, err))
			}
		}
		if backed, ok := p.Scorer.(scoring.BroadcastBacked); ok {
			if err := backed.UnpersistBroadcast(); err != nil {
				errs = append(errs, fmt.Errorf("unpersist broadcast %q: %w", p.Name, err))
			}
		}
	}
	return m, errors.Join(errs...)
}

// Score runs every sub-model over the full dataset concurrently and merges
// the per-sub-model scores by key-wise addition. The result is the raw
// linear predictor; no link function is applied. Sub-model failures abort
// the whole computation: a partial aggregate would be silently wrong.
func (m *Model) Score(ctx context.Context, ds *dataset.Dataset) (scoring.KeyValueScore, error) {
	names := m.SortedNames()
	partials := make([]scoring.KeyValueScore, len(names))

	g, ctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			kv, err := m.scorers[name].Score(ctx, ds)
			if err != nil {
				return fmt.Errorf("score %q: %w", name, err)
			}
			partials[i] = kv
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := scoring.KeyValueScore{}
	for _, p := range partials {
		total = total.Plus(p)
	}
	return total, nil
}

// Equal reports structural equality: same task type, same name set, and
// pointwise-equal sub-models by value. The relation is symmetric.
func (m *Model) Equal(other *Model) bool {
	if other == nil {
		return false
	}
	if m.taskType != other.taskType || len(m.scorers) != len(other.scorers) {
		return false
	}
	for name, s := range m.scorers {
		os, ok := other.scorers[name]
		if !ok || !s.Equal(os) {
			return false
		}
	}
	return true
}

// SummaryString produces a multi-line report with each sub-model's name
// and its own summary, in name order.
func (m *Model) SummaryString() string {
	var b strings.Builder
	fmt.Fprintf(&b, "GAME model (task=%s, sub-models=%d)\n", m.taskType, len(m.scorers))
	for _, p := range m.SortedScorers() {
		fmt.Fprintf(&b, "  %s: %s\n", p.Name, p.Scorer.Summary())
	}
	return b.String()
}
