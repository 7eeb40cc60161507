package scoring

import (
	"context"
	"sync"

	"github.com/additive-ml/gamekit/internal/dataset"
)

// MockScorer is a simple DatumScorer implementation for testing.
type MockScorer struct {
	// ID gives the mock an equality identity: two mocks are Equal iff
	// their IDs match.
	ID string

	MockKind Kind
	Task     TaskType
	Scores   KeyValueScore
	Err      error
	Text     string
}

// NewMockScorer creates a mock with the given identity, kind and task type.
func NewMockScorer(id string, kind Kind, task TaskType) *MockScorer {
	return &MockScorer{ID: id, MockKind: kind, Task: task, Text: "mock scorer " + id}
}

func (m *MockScorer) Kind() Kind {
	return m.MockKind
}

func (m *MockScorer) TaskType() TaskType {
	return m.Task
}

func (m *MockScorer) Score(context.Context, *dataset.Dataset) (KeyValueScore, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Scores.Clone(), nil
}

func (m *MockScorer) Summary() string {
	return m.Text
}

func (m *MockScorer) Equal(other DatumScorer) bool {
	o, ok := other.(*MockScorer)
	return ok && o.ID == m.ID
}

var _ DatumScorer = (*MockScorer)(nil)

// MockLifecycleScorer is a MockScorer that also records lifecycle calls
// through both optional capabilities.
type MockLifecycleScorer struct {
	MockScorer

	// LifecycleErr, when set, is returned by every lifecycle call.
	LifecycleErr error

	mu                sync.Mutex
	PersistCalls      int
	UnpersistCalls    int
	BroadcastReleases int
	LastLevel         dataset.StorageLevel
}

func (m *MockLifecycleScorer) Persist(level dataset.StorageLevel) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PersistCalls++
	m.LastLevel = level
	return m.LifecycleErr
}

func (m *MockLifecycleScorer) Unpersist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UnpersistCalls++
	return m.LifecycleErr
}

func (m *MockLifecycleScorer) UnpersistBroadcast() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BroadcastReleases++
	return m.LifecycleErr
}

var (
	_ DatumScorer     = (*MockLifecycleScorer)(nil)
	_ DatasetBacked   = (*MockLifecycleScorer)(nil)
	_ BroadcastBacked = (*MockLifecycleScorer)(nil)
)
