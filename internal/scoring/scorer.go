// Package scoring defines the per-datum scoring contract shared by every
// sub-model, the mergeable key-value score they produce, and the concrete
// fixed-effect and random-effect model implementations.
package scoring

import (
	"context"
	"fmt"
	"strings"

	"github.com/additive-ml/gamekit/internal/dataset"
)

// TaskType identifies the prediction problem a model was trained for.
type TaskType string

const (
	TaskLogisticRegression TaskType = "logistic_regression"
	TaskLinearRegression   TaskType = "linear_regression"
	TaskPoissonRegression  TaskType = "poisson_regression"
	TaskSmoothedHingeSVM   TaskType = "smoothed_hinge_svm"
	TaskNone               TaskType = "none"
)

func (t TaskType) String() string {
	return string(t)
}

// ParseTaskType converts a config or flag value to a TaskType.
func ParseTaskType(s string) (TaskType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "logistic_regression", "logistic":
		return TaskLogisticRegression, nil
	case "linear_regression", "linear":
		return TaskLinearRegression, nil
	case "poisson_regression", "poisson":
		return TaskPoissonRegression, nil
	case "smoothed_hinge_svm":
		return TaskSmoothedHingeSVM, nil
	case "none":
		return TaskNone, nil
	default:
		return TaskNone, fmt.Errorf("invalid task type %q: must be logistic_regression, linear_regression, poisson_regression, smoothed_hinge_svm, or none", s)
	}
}

// Kind is the concrete-variant discriminant for a sub-model. Replacing a
// named sub-model requires the replacement to carry the same Kind.
type Kind string

const (
	KindFixedEffect  Kind = "fixed_effect"
	KindRandomEffect Kind = "random_effect"
)

func (k Kind) String() string {
	return string(k)
}

// DatumScorer is the capability every composable sub-model implements:
// score a dataset into per-record contributions, report its task type and
// variant, summarize itself, and compare for value equality.
type DatumScorer interface {
	// Kind returns the concrete-variant discriminant.
	Kind() Kind

	// TaskType returns the prediction problem the model was trained for.
	TaskType() TaskType

	// Score computes the raw linear-predictor contribution of this model
	// for every record in the dataset. Records the model has nothing to
	// say about may be omitted; a missing id merges as zero.
	Score(ctx context.Context, ds *dataset.Dataset) (KeyValueScore, error)

	// Summary returns a human-readable description of the model.
	Summary() string

	// Equal reports value equality with another scorer.
	Equal(other DatumScorer) bool
}

// DatasetBacked is the optional capability of sub-models holding a
// partitioned-dataset resource that needs explicit persistence control.
// Both operations are idempotent and safe regardless of current state.
type DatasetBacked interface {
	Persist(level dataset.StorageLevel) error
	Unpersist() error
}

// BroadcastBacked is the optional capability of sub-models holding a
// broadcast resource that needs explicit release.
type BroadcastBacked interface {
	UnpersistBroadcast() error
}
