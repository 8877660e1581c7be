package classify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/argintel/internal/model"
)

func TestClassify_RuleIndicators(t *testing.T) {
	c := NewDefault()

	tests := []struct {
		sentence string
		want     model.SentenceType
	}{
		{"The bill will increase unemployment.", model.SentenceClaim},
		{"According to the 2024 labor report, unemployment rose by 5%.", model.SentenceEvidence},
		{"Parliament must reject the levy.", model.SentenceClaim},
		{"This clause violates the right to privacy.", model.SentenceClaim},
		{"Research indicates that fares doubled.", model.SentenceEvidence},
		{"Section 12 of the draft repeals the old act.", model.SentenceEvidence},
		{"Prices went up 12 per cent in March.", model.SentenceEvidence},
		{"Nearly 40% of traders closed shop.", model.SentenceEvidence},
	}

	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			got := c.Classify([]string{tt.sentence})
			require.Len(t, got, 1)
			assert.Equal(t, tt.want, got[0].Type)
			assert.GreaterOrEqual(t, got[0].Confidence, 0.9)
		})
	}
}

func TestClassify_ClaimRuleWinsOverEvidenceRule(t *testing.T) {
	c := NewDefault()
	got := c.Classify([]string{"According to the ministry, the levy will hurt farmers."})
	assert.Equal(t, model.SentenceClaim, got[0].Type)
}

func TestRules_WholeWordsOnly(t *testing.T) {
	r := DefaultRules()

	_, ok := r.Match("I was unwilling to comment")
	assert.False(t, ok, "will inside unwilling must not match")

	m, ok := r.Match("They WILL pay more")
	require.True(t, ok)
	assert.Equal(t, "will", m.Indicator)
}

func TestClassify_ModelFallback(t *testing.T) {
	c := NewDefault()
	got := c.Classify([]string{"Consequently fewer traders remain."})
	require.Len(t, got, 1)
	assert.Equal(t, model.SentenceReasoning, got[0].Type)
	assert.Greater(t, got[0].Confidence, 0.0)
	assert.LessOrEqual(t, got[0].Confidence, 1.0)
}

func TestClassify_UnknownTextDegradesToBackground(t *testing.T) {
	c := NewDefault()
	got := c.Classify([]string{"Greetings from Kisumu.", "", "!!!"})
	require.Len(t, got, 3)
	for i, s := range got {
		assert.Equal(t, model.SentenceBackground, s.Type)
		assert.Equal(t, 0.1, s.Confidence)
		assert.Equal(t, i, s.Position)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	c := NewDefault()
	in := []string{
		"The bill will increase unemployment.",
		"Therefore the burden falls on families.",
		"Greetings from Kisumu.",
	}
	assert.Equal(t, c.Classify(in), c.Classify(in))
}

func TestModel_WithExampleLeavesOriginalUntouched(t *testing.T) {
	base := Train(SeedExamples)
	next := base.WithExample(Example{Text: "Greetings from Kisumu", Label: model.SentenceReasoning})

	assert.Equal(t, len(SeedExamples), base.Size())
	assert.Equal(t, len(SeedExamples)+1, next.Size())
	assert.False(t, base.Predict("greetings").Known)

	pred := next.Predict("greetings")
	assert.True(t, pred.Known)
	assert.Equal(t, model.SentenceReasoning, pred.Label)
}

func TestModel_EmptyExamplesIgnored(t *testing.T) {
	m := Train([]Example{{Text: "", Label: model.SentenceClaim}, {Text: "the of", Label: model.SentenceClaim}})
	assert.Equal(t, 0, m.Size())
	assert.Empty(t, m.Labels())
	assert.False(t, m.Predict("anything at all").Known)
}

func TestClassifier_AddTrainingExampleSwapsSnapshot(t *testing.T) {
	c := NewDefault()
	before := c.Model()

	c.AddTrainingExample(Example{Text: "Greetings from Kisumu", Label: model.SentenceReasoning})

	assert.NotSame(t, before, c.Model())
	got := c.Classify([]string{"Greetings from Kisumu."})
	assert.Equal(t, model.SentenceReasoning, got[0].Type)
}

func TestClassifier_ConcurrentRetraining(t *testing.T) {
	c := NewDefault()
	const writers = 8

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.AddTrainingExample(Example{Text: "Harambee spirit unites neighbours", Label: model.SentenceReasoning})
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := c.Classify([]string{"The bill will increase unemployment.", "Harambee spirit"})
			assert.Len(t, got, 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, len(SeedExamples)+writers, c.Model().Size())
}
