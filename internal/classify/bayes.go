package classify

import (
	"math"
	"sort"

	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/text"
)

// Example is a labeled training sentence
type Example struct {
	Text  string
	Label model.SentenceType
}

// Model is an immutable multinomial naive Bayes model. Methods never mutate
// the receiver; WithExample returns a new snapshot.
type Model struct {
	docs       map[model.SentenceType]int
	termCounts map[model.SentenceType]map[string]int
	totals     map[model.SentenceType]int
	vocab      map[string]bool
	examples   int
}

// Prediction is the top label of a model and its posterior probability
type Prediction struct {
	Label      model.SentenceType
	Confidence float64
	Known      bool // false when no term of the sentence is in the vocabulary
}

// Train builds a model from labeled examples. Examples with no indexable
// terms are ignored.
func Train(examples []Example) *Model {
	m := &Model{
		docs:       make(map[model.SentenceType]int),
		termCounts: make(map[model.SentenceType]map[string]int),
		totals:     make(map[model.SentenceType]int),
		vocab:      make(map[string]bool),
	}
	for _, ex := range examples {
		m.add(ex)
	}
	return m
}

func (m *Model) add(ex Example) {
	tokens := text.Tokenize(ex.Text)
	if len(tokens) == 0 {
		return
	}
	counts := m.termCounts[ex.Label]
	if counts == nil {
		counts = make(map[string]int)
		m.termCounts[ex.Label] = counts
	}
	for _, tok := range tokens {
		counts[tok]++
		m.vocab[tok] = true
	}
	m.docs[ex.Label]++
	m.totals[ex.Label] += len(tokens)
	m.examples++
}

// WithExample returns a copy of the model trained on one more example
func (m *Model) WithExample(ex Example) *Model {
	next := &Model{
		docs:       make(map[model.SentenceType]int, len(m.docs)),
		termCounts: make(map[model.SentenceType]map[string]int, len(m.termCounts)),
		totals:     make(map[model.SentenceType]int, len(m.totals)),
		vocab:      make(map[string]bool, len(m.vocab)),
		examples:   m.examples,
	}
	for label, n := range m.docs {
		next.docs[label] = n
	}
	for label, counts := range m.termCounts {
		c := make(map[string]int, len(counts))
		for term, n := range counts {
			c[term] = n
		}
		next.termCounts[label] = c
	}
	for label, n := range m.totals {
		next.totals[label] = n
	}
	for term := range m.vocab {
		next.vocab[term] = true
	}
	next.add(ex)
	return next
}

// Size returns the number of training examples
func (m *Model) Size() int {
	return m.examples
}

// Labels returns the trained labels in sorted order
func (m *Model) Labels() []model.SentenceType {
	labels := make([]model.SentenceType, 0, len(m.docs))
	for label := range m.docs {
		labels = append(labels, label)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })
	return labels
}

// Predict scores a sentence with Laplace smoothing. Terms outside the
// vocabulary are ignored; a sentence with no known term yields Known=false.
func (m *Model) Predict(sentence string) Prediction {
	var known []string
	for _, tok := range text.Tokenize(sentence) {
		if m.vocab[tok] {
			known = append(known, tok)
		}
	}
	if len(known) == 0 || m.examples == 0 {
		return Prediction{}
	}

	labels := m.Labels()
	vocabSize := float64(len(m.vocab))
	logs := make([]float64, len(labels))
	for i, label := range labels {
		lp := math.Log(float64(m.docs[label]) / float64(m.examples))
		denom := float64(m.totals[label]) + vocabSize
		for _, tok := range known {
			lp += math.Log((float64(m.termCounts[label][tok]) + 1) / denom)
		}
		logs[i] = lp
	}

	best := 0
	for i := range logs {
		if logs[i] > logs[best] {
			best = i
		}
	}

	// Softmax relative to the best log score avoids underflow.
	var sum float64
	for _, lp := range logs {
		sum += math.Exp(lp - logs[best])
	}
	return Prediction{
		Label:      labels[best],
		Confidence: 1 / sum,
		Known:      true,
	}
}
