package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// Model backends.
const (
	BackendLogReg = "logreg"
	BackendBayes  = "bayes"
)

var (
	ErrEmptyTrainingSet = errors.New("classifier: empty training set")
	ErrUnknownBackend   = errors.New("classifier: unknown backend")
)

// Example is one labelled training text.
type Example struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// Model is a text classification backend. Texts are already normalized.
// Predict returns an empty label when the text carries no usable features.
type Model interface {
	Train(examples []Example) error
	Predict(text string) (label string, confidence float64)
}

// StatefulModel can export and restore its fitted parameters so a persisted
// artifact does not need a refit.
type StatefulModel interface {
	Model
	State() (json.RawMessage, error)
	Restore(state json.RawMessage) error
}

// NewModel returns an untrained model for backend. An empty backend selects
// logistic regression.
func NewModel(backend string) (Model, error) {
	switch backend {
	case "", BackendLogReg:
		return newLogReg(), nil
	case BackendBayes:
		return newNaiveBayes(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}

func sortedClasses(examples []Example) []string {
	seen := make(map[string]struct{})
	for _, ex := range examples {
		seen[ex.Category] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return classes
}
