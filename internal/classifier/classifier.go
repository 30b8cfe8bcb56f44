// Package classifier maps expense descriptions to spending categories.
//
// A Classifier starts untrained and answers from a keyword dictionary. After
// Train it predicts with a statistical model and falls back to the dictionary
// whenever the model is not confident enough. Corrections are folded in with
// RetrainWithFeedback, which refits on the whole corpus.
package classifier

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"kopilka/internal/core"
)

const (
	// DefaultConfidenceThreshold is used when Options leaves the threshold zero.
	DefaultConfidenceThreshold = 0.3
	// NeutralConfidence is reported by an untrained classifier.
	NeutralConfidence = 0.5
)

// ErrEmptyExample is returned by RetrainWithFeedback for text with no letters.
var ErrEmptyExample = errors.New("classifier: example has no letters")

// Options configures a Classifier.
type Options struct {
	Backend string
	// ConfidenceThreshold is the minimum model probability trusted over the
	// dictionary. Zero selects DefaultConfidenceThreshold.
	ConfidenceThreshold float64
	// ModelPath, when set, receives an artifact after every successful
	// training.
	ModelPath  string
	Dictionary Dictionary
}

// Classifier maps descriptions to categories with a trained model and a
// keyword dictionary fallback. It is safe for concurrent use.
type Classifier struct {
	backend   string
	threshold float64
	dict      Dictionary
	path      string

	// writeMu serializes training so refits never interleave; mu guards the
	// fitted state swapped in at the end of a refit.
	writeMu  sync.Mutex
	mu       sync.RWMutex
	model    Model
	examples []Example
	memory   map[string]string
}

// New returns an untrained classifier. It fails for an unknown backend or a
// threshold outside [0,1].
func New(opts Options) (*Classifier, error) {
	backend := opts.Backend
	if backend == "" {
		backend = BackendLogReg
	}
	if _, err := NewModel(backend); err != nil {
		return nil, err
	}
	threshold := opts.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("classifier: confidence threshold %v out of [0,1]", threshold)
	}
	dict := opts.Dictionary
	if len(dict) == 0 {
		dict = DefaultDictionary
	}
	return &Classifier{
		backend:   backend,
		threshold: threshold,
		dict:      dict,
		path:      opts.ModelPath,
	}, nil
}

func (c *Classifier) Backend() string { return c.backend }

func (c *Classifier) Threshold() float64 { return c.threshold }

func (c *Classifier) Dictionary() Dictionary { return c.dict }

// Trained reports whether a model has been fitted or loaded.
func (c *Classifier) Trained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.model != nil
}

// Examples returns a copy of the current training corpus.
func (c *Classifier) Examples() []Example {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Example(nil), c.examples...)
}

// Train fits a fresh model on examples and replaces the current one. On error
// the classifier is left exactly as it was.
func (c *Classifier) Train(examples []Example) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	prepared, err := prepare(examples)
	if err != nil {
		return err
	}
	if err := c.fitAndSwap(prepared); err != nil {
		return err
	}
	c.persist()
	return nil
}

// TrainSeed trains on the dictionary keywords.
func (c *Classifier) TrainSeed() error {
	return c.Train(c.dict.SeedExamples())
}

// RetrainWithFeedback appends a corrected example to the corpus and refits
// from scratch. An untrained classifier starts from the seed corpus.
func (c *Classifier) RetrainWithFeedback(description, category string) error {
	text := Normalize(description)
	if text == "" {
		return ErrEmptyExample
	}
	if !core.IsCategory(category) {
		return fmt.Errorf("%w: %q", core.ErrUnknownCategory, category)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.RLock()
	corpus := append([]Example(nil), c.examples...)
	c.mu.RUnlock()
	if len(corpus) == 0 {
		seed, err := prepare(c.dict.SeedExamples())
		if err != nil {
			return err
		}
		corpus = seed
	}
	corpus = append(corpus, Example{Text: text, Category: category})

	if err := c.fitAndSwap(corpus); err != nil {
		return fmt.Errorf("retrain: %w", err)
	}
	c.persist()
	return nil
}

// Classify always resolves to a category.
func (c *Classifier) Classify(description string) string {
	label, _ := c.Predict(description)
	return label
}

// Confidence is the top class probability for description. A trained
// classifier reports 1 for an exact trained example and 0 for text with no
// letters; an untrained one reports NeutralConfidence.
func (c *Classifier) Confidence(description string) float64 {
	_, conf := c.Predict(description)
	return conf
}

// Predict returns the category Classify would pick together with the value
// Confidence would report.
func (c *Classifier) Predict(description string) (string, float64) {
	text := Normalize(description)

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.model == nil {
		return c.dict.Lookup(text), NeutralConfidence
	}
	if text == "" {
		return core.CategoryOther, 0
	}
	if label, ok := c.memory[text]; ok {
		return label, 1
	}
	label, conf := c.model.Predict(text)
	if label == "" || conf < c.threshold {
		return c.dict.Lookup(text), conf
	}
	return label, conf
}

// Save writes the current state to path. An untrained classifier has nothing
// to save.
func (c *Classifier) Save(path string) error {
	c.mu.RLock()
	model, examples := c.model, append([]Example(nil), c.examples...)
	c.mu.RUnlock()
	if model == nil {
		return errors.New("classifier: not trained")
	}

	a := Artifact{
		Version:  ArtifactVersion,
		Backend:  c.backend,
		SavedAt:  time.Now().UTC(),
		Examples: examples,
	}
	if sm, ok := model.(StatefulModel); ok {
		state, err := sm.State()
		if err != nil {
			return fmt.Errorf("export model state: %w", err)
		}
		a.State = state
	}
	return WriteArtifact(path, a)
}

// Load replaces the current state with the artifact at path. Backends that
// cannot restore state directly are refitted from the stored examples.
func (c *Classifier) Load(path string) error {
	a, err := ReadArtifact(path)
	if err != nil {
		return err
	}
	if a.Backend != c.backend {
		return fmt.Errorf("%w: artifact %q, configured %q", ErrArtifactBackend, a.Backend, c.backend)
	}
	prepared, err := prepare(a.Examples)
	if err != nil {
		return fmt.Errorf("artifact examples: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	model, err := NewModel(c.backend)
	if err != nil {
		return err
	}
	restored := false
	if sm, ok := model.(StatefulModel); ok && len(a.State) > 0 {
		if err := sm.Restore(a.State); err != nil {
			slog.Warn("Classifier state unreadable, refitting from examples", "path", path, "error", err)
		} else {
			restored = true
		}
	}
	if !restored {
		if err := model.Train(prepared); err != nil {
			return fmt.Errorf("refit from artifact: %w", err)
		}
	}
	c.swap(model, prepared)
	return nil
}

func (c *Classifier) fitAndSwap(examples []Example) error {
	model, err := NewModel(c.backend)
	if err != nil {
		return err
	}
	if err := model.Train(examples); err != nil {
		return err
	}
	c.swap(model, examples)
	return nil
}

func (c *Classifier) swap(model Model, examples []Example) {
	memory := make(map[string]string, len(examples))
	for _, ex := range examples {
		memory[ex.Text] = ex.Category
	}
	c.mu.Lock()
	c.model, c.examples, c.memory = model, examples, memory
	c.mu.Unlock()
}

func (c *Classifier) persist() {
	if c.path == "" {
		return
	}
	if err := c.Save(c.path); err != nil {
		slog.Warn("Failed to save classifier artifact", "path", c.path, "error", err)
	}
}

// prepare normalizes example texts and drops the ones left empty.
func prepare(examples []Example) ([]Example, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	out := make([]Example, 0, len(examples))
	for _, ex := range examples {
		if !core.IsCategory(ex.Category) {
			return nil, fmt.Errorf("%w: %q", core.ErrUnknownCategory, ex.Category)
		}
		text := Normalize(ex.Text)
		if text == "" {
			continue
		}
		out = append(out, Example{Text: text, Category: ex.Category})
	}
	if len(out) == 0 {
		return nil, ErrEmptyTrainingSet
	}
	return out, nil
}
