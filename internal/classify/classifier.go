package classify

import (
	"sync/atomic"

	"github.com/ppiankov/argintel/internal/model"
)

// Classifier labels sentences with lexical rules and a naive Bayes model.
// The model is held as an immutable snapshot; AddTrainingExample swaps in a
// new snapshot so classification never observes a partially trained model.
type Classifier struct {
	rules    *Rules
	model    atomic.Pointer[Model]
	ruleConf float64
	fallback float64
}

// New returns a classifier over the given model. A nil model is trained on
// SeedExamples.
func New(m *Model, cfg model.ClassifierConfig) *Classifier {
	if m == nil {
		m = Train(SeedExamples)
	}
	if cfg.RuleConfidence <= 0 {
		cfg.RuleConfidence = 0.9
	}
	if cfg.FallbackConfidence <= 0 {
		cfg.FallbackConfidence = 0.1
	}
	c := &Classifier{
		rules:    DefaultRules(),
		ruleConf: cfg.RuleConfidence,
		fallback: cfg.FallbackConfidence,
	}
	c.model.Store(m)
	return c
}

// NewDefault returns a classifier trained on the seed corpus with default
// confidences
func NewDefault() *Classifier {
	return New(nil, model.DefaultConfig().Classifier)
}

// Model returns the current snapshot
func (c *Classifier) Model() *Model {
	return c.model.Load()
}

// Classify labels each sentence. All sentences of one call are classified
// against the same model snapshot.
func (c *Classifier) Classify(sentences []string) []model.Sentence {
	snapshot := c.model.Load()
	out := make([]model.Sentence, 0, len(sentences))
	for i, s := range sentences {
		out = append(out, c.classifyOne(snapshot, s, i))
	}
	return out
}

func (c *Classifier) classifyOne(m *Model, s string, pos int) model.Sentence {
	if match, ok := c.rules.Match(s); ok {
		return model.Sentence{Text: s, Type: match.Type, Confidence: c.ruleConf, Position: pos}
	}

	pred := m.Predict(s)
	if !pred.Known {
		return model.Sentence{Text: s, Type: model.SentenceBackground, Confidence: c.fallback, Position: pos}
	}
	return model.Sentence{Text: s, Type: pred.Label, Confidence: pred.Confidence, Position: pos}
}

// AddTrainingExample trains a new snapshot with one more example and
// publishes it. Concurrent callers retry until their example is included.
func (c *Classifier) AddTrainingExample(ex Example) {
	for {
		current := c.model.Load()
		next := current.WithExample(ex)
		if c.model.CompareAndSwap(current, next) {
			return
		}
	}
}
