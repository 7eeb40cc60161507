package game

import (
	"fmt"
	"strings"

	"github.com/additive-ml/gamekit/internal/scoring"
)

// ConfigurationError reports that a model's sub-models do not share exactly
// one task type. TaskTypes lists every distinct type found; it is empty for
// a model with no sub-models.
type ConfigurationError struct {
	TaskTypes []scoring.TaskType
}

func (e *ConfigurationError) Error() string {
	if len(e.TaskTypes) == 0 {
		return "GAME model has multiple model types: (no sub-models)"
	}
	names := make([]string, len(e.TaskTypes))
	for i, t := range e.TaskTypes {
		names[i] = t.String()
	}
	return fmt.Sprintf("GAME model has multiple model types: %s", strings.Join(names, ", "))
}

// UnsupportedOperationError reports an update that tried to replace a
// sub-model with one of a different concrete variant.
type UnsupportedOperationError struct {
	Name        string
	Existing    scoring.Kind
	Replacement scoring.Kind
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("cannot update model %q: replacement variant %s does not match existing variant %s",
		e.Name, e.Replacement, e.Existing)
}
