package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

const (
	logRegEpochs       = 120
	logRegLearningRate = 0.5
	logRegL2           = 1e-4
)

type feature struct {
	idx int
	val float64
}

// terms expands normalized text into word tokens and padded character
// trigrams. Trigrams let inflected forms ("молока") share signal with the
// trained form ("молоко").
func terms(text string) []string {
	words := strings.Fields(text)
	out := make([]string, 0, len(words)*4)
	for _, w := range words {
		out = append(out, "w:"+w)
		r := []rune(" " + w + " ")
		for i := 0; i+3 <= len(r); i++ {
			out = append(out, "c:"+string(r[i:i+3]))
		}
	}
	return out
}

// vectorizer is a smoothed TF-IDF with L2-normalized rows.
type vectorizer struct {
	Vocab map[string]int `json:"vocab"`
	IDF   []float64      `json:"idf"`
}

func fitVectorizer(docs [][]string) vectorizer {
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, t := range doc {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	vocab := make([]string, 0, len(df))
	for t := range df {
		vocab = append(vocab, t)
	}
	sort.Strings(vocab)

	v := vectorizer{Vocab: make(map[string]int, len(vocab)), IDF: make([]float64, len(vocab))}
	n := float64(len(docs))
	for i, t := range vocab {
		v.Vocab[t] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	return v
}

func (v vectorizer) transform(doc []string) []feature {
	counts := make(map[int]float64)
	for _, t := range doc {
		if i, ok := v.Vocab[t]; ok {
			counts[i]++
		}
	}
	if len(counts) == 0 {
		return nil
	}
	out := make([]feature, 0, len(counts))
	for i, c := range counts {
		out = append(out, feature{idx: i, val: c * v.IDF[i]})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].idx < out[b].idx })
	var norm float64
	for _, f := range out {
		norm += f.val * f.val
	}
	norm = math.Sqrt(norm)
	for i := range out {
		out[i].val /= norm
	}
	return out
}

// logReg is multinomial logistic regression over TF-IDF features, fitted by
// SGD over the examples in their given order starting from zero weights, so
// the same corpus always produces the same model.
type logReg struct {
	Vec     vectorizer  `json:"vectorizer"`
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Bias    []float64   `json:"bias"`
}

func newLogReg() *logReg {
	return &logReg{}
}

func (m *logReg) Train(examples []Example) error {
	if len(examples) == 0 {
		return ErrEmptyTrainingSet
	}
	docs := make([][]string, len(examples))
	for i, ex := range examples {
		docs[i] = terms(ex.Text)
	}
	vec := fitVectorizer(docs)
	if len(vec.Vocab) == 0 {
		return fmt.Errorf("%w: no usable tokens", ErrEmptyTrainingSet)
	}

	classes := sortedClasses(examples)
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	xs := make([][]feature, len(docs))
	for i, d := range docs {
		xs[i] = vec.transform(d)
	}

	k, dim := len(classes), len(vec.Vocab)
	w := make([][]float64, k)
	for i := range w {
		w[i] = make([]float64, dim)
	}
	b := make([]float64, k)
	probs := make([]float64, k)

	decay := 1 - logRegLearningRate*logRegL2
	for epoch := 0; epoch < logRegEpochs; epoch++ {
		for i, x := range xs {
			if len(x) == 0 {
				continue
			}
			softmaxInto(probs, w, b, x)
			y := classIdx[examples[i].Category]
			for c := 0; c < k; c++ {
				g := probs[c]
				if c == y {
					g -= 1
				}
				if g == 0 {
					continue
				}
				for _, f := range x {
					w[c][f.idx] -= logRegLearningRate * g * f.val
				}
				b[c] -= logRegLearningRate * g
			}
		}
		for c := range w {
			for j := range w[c] {
				w[c][j] *= decay
			}
		}
	}

	m.Vec, m.Classes, m.Weights, m.Bias = vec, classes, w, b
	return nil
}

func (m *logReg) Predict(text string) (string, float64) {
	if len(m.Classes) == 0 {
		return "", 0
	}
	x := m.Vec.transform(terms(text))
	if len(x) == 0 {
		return "", 0
	}
	probs := make([]float64, len(m.Classes))
	softmaxInto(probs, m.Weights, m.Bias, x)
	best := 0
	for c := 1; c < len(probs); c++ {
		if probs[c] > probs[best] {
			best = c
		}
	}
	return m.Classes[best], probs[best]
}

func (m *logReg) State() (json.RawMessage, error) {
	return json.Marshal(m)
}

func (m *logReg) Restore(state json.RawMessage) error {
	var restored logReg
	if err := json.Unmarshal(state, &restored); err != nil {
		return fmt.Errorf("decode logreg state: %w", err)
	}
	k := len(restored.Classes)
	if k == 0 || len(restored.Weights) != k || len(restored.Bias) != k || len(restored.Vec.Vocab) != len(restored.Vec.IDF) {
		return fmt.Errorf("decode logreg state: inconsistent shape")
	}
	for _, row := range restored.Weights {
		if len(row) != len(restored.Vec.IDF) {
			return fmt.Errorf("decode logreg state: inconsistent shape")
		}
	}
	*m = restored
	return nil
}

func softmaxInto(out []float64, w [][]float64, b []float64, x []feature) {
	maxScore := math.Inf(-1)
	for c := range out {
		s := b[c]
		for _, f := range x {
			s += w[c][f.idx] * f.val
		}
		out[c] = s
		if s > maxScore {
			maxScore = s
		}
	}
	var sum float64
	for c := range out {
		out[c] = math.Exp(out[c] - maxScore)
		sum += out[c]
	}
	for c := range out {
		out[c] /= sum
	}
}
