package classifier

import (
	"fmt"

	"github.com/jbrukh/bayesian"
)

// naiveBayes wraps the TF-IDF naive Bayes classifier from jbrukh/bayesian.
// The library panics on misuse (fewer than two classes, predicting before
// conversion), so every call into it is guarded.
type naiveBayes struct {
	cl      *bayesian.Classifier
	classes []bayesian.Class
	known   map[string]struct{}
	single  string // set when the corpus has exactly one class
}

func newNaiveBayes() *naiveBayes {
	return &naiveBayes{}
}

func (m *naiveBayes) Train(examples []Example) (err error) {
	if len(examples) == 0 {
		return ErrEmptyTrainingSet
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("bayes: train: %v", r)
		}
	}()

	known := make(map[string]struct{})
	for _, ex := range examples {
		for _, t := range terms(ex.Text) {
			known[t] = struct{}{}
		}
	}
	if len(known) == 0 {
		return fmt.Errorf("%w: no usable tokens", ErrEmptyTrainingSet)
	}

	names := sortedClasses(examples)
	if len(names) == 1 {
		m.cl, m.classes, m.known, m.single = nil, nil, known, names[0]
		return nil
	}
	classes := make([]bayesian.Class, len(names))
	for i, n := range names {
		classes[i] = bayesian.Class(n)
	}
	cl := bayesian.NewClassifierTfIdf(classes...)
	for _, ex := range examples {
		cl.Learn(terms(ex.Text), bayesian.Class(ex.Category))
	}
	cl.ConvertTermsFreqToTfIdf()

	m.cl, m.classes, m.known, m.single = cl, classes, known, ""
	return nil
}

func (m *naiveBayes) Predict(text string) (label string, confidence float64) {
	var doc []string
	for _, t := range terms(text) {
		if _, ok := m.known[t]; ok {
			doc = append(doc, t)
		}
	}
	if len(doc) == 0 {
		return "", 0
	}
	if m.single != "" {
		return m.single, 1
	}
	if m.cl == nil {
		return "", 0
	}
	defer func() {
		if r := recover(); r != nil {
			label, confidence = "", 0
		}
	}()
	scores, best, _ := m.cl.ProbScores(doc)
	return string(m.classes[best]), scores[best]
}
