package extract

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/argintel/internal/classify"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/score"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestExtractor(opts ...Option) *Extractor {
	clock := func() time.Time { return testNow }
	opts = append([]Option{WithClock(clock)}, opts...)
	return NewExtractor(classify.NewDefault(), score.NewScorer(nil, clock), opts...)
}

func TestExtractStructure_ClaimWithStatisticalEvidence(t *testing.T) {
	e := newTestExtractor()

	arg, err := e.ExtractStructure(
		"The bill will increase unemployment. According to the 2024 labor report, unemployment rose by 5%.",
		"finance-bill-2024", "user-1",
	)
	require.NoError(t, err)

	require.Len(t, arg.Claims, 1)
	claim := arg.Claims[0]
	assert.Equal(t, "The bill will increase unemployment.", claim.Text)
	assert.Equal(t, model.ClaimTypeFactual, claim.Type)
	assert.GreaterOrEqual(t, claim.Confidence, 0.9)

	require.Len(t, arg.Evidence, 1)
	ev := arg.Evidence[0]
	assert.Equal(t, model.EvidenceStatistical, ev.Type)
	assert.Equal(t, claim.ID, ev.ClaimID)
	assert.Equal(t, []string{ev.ID}, claim.Sources)
	assert.Equal(t, "the 2024 labor report", ev.Source)
	assert.False(t, ev.Verified)
	assert.InDelta(t, ev.Quality.Factors.Mean(), ev.Quality.Score, 1e-12)

	assert.Equal(t, model.PositionOppose, arg.Position)
	assert.Equal(t, "finance-bill-2024", arg.BillID)
	assert.Equal(t, "user-1", arg.UserID)
	assert.Equal(t, testNow, arg.CreatedAt)
	assert.Nil(t, arg.ProcessedAt)

	wantQuality := (0.5 + (0.4 + 1.2/9) + 0.8 + 0.8) / 4
	assert.InDelta(t, 0.3*0.9+0.5*wantQuality+0.2, arg.Strength, 1e-9)
}

func TestExtractStructure_Idempotent(t *testing.T) {
	e := newTestExtractor()
	comment := "<p>Parliament must reject the levy.</p><p>Research shows 30% of farmers sell at a loss. Therefore prices will rise.</p>"

	first, err := e.ExtractStructure(comment, "bill-1", "user-1")
	require.NoError(t, err)
	second, err := e.ExtractStructure(comment, "bill-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)

	other, err := e.ExtractStructure(comment, "bill-1", "user-2")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
}

func TestExtractStructure_EmptyComment(t *testing.T) {
	e := newTestExtractor()

	for _, in := range []string{"", "   ", "<p> </p>", "!!! ...", "<script>alert(1)</script>"} {
		_, err := e.ExtractStructure(in, "bill-1", "user-1")
		assert.ErrorIs(t, err, ErrEmptyComment, "input %q", in)
	}
}

func TestExtractStructure_EvidenceWithoutClaims(t *testing.T) {
	e := newTestExtractor()

	arg, err := e.ExtractStructure("According to KNBS, fuel prices rose 12% in 2025.", "bill-1", "user-1")
	require.NoError(t, err)

	assert.Empty(t, arg.Claims)
	require.Len(t, arg.Evidence, 1)
	assert.Empty(t, arg.Evidence[0].ClaimID)
	assert.InDelta(t, 0.4, arg.Evidence[0].Quality.Factors.Relevance, 1e-9)
	assert.Equal(t, 0.0, arg.Strength)
}

func TestExtractStructure_LinksEvidenceByOverlap(t *testing.T) {
	e := newTestExtractor()

	arg, err := e.ExtractStructure(
		"The levy will hurt farmers. The clinic fund should expand maternal care. "+
			"According to the ministry, maternal care visits rose 20% in 2025.",
		"bill-1", "user-1",
	)
	require.NoError(t, err)

	require.Len(t, arg.Claims, 2)
	require.Len(t, arg.Evidence, 1)
	assert.Equal(t, arg.Claims[1].ID, arg.Evidence[0].ClaimID)
	assert.Empty(t, arg.Claims[0].Sources)
}

func TestLinkEvidence_Ties(t *testing.T) {
	claims := []claimRef{
		{index: 0, position: 0, terms: []string{"farmers", "suffer", "will"}},
		{index: 1, position: 2, terms: []string{"more", "must", "pay", "traders"}},
	}

	between := model.Sentence{Text: "According to the census, households number 12 million.", Position: 1}
	assert.Equal(t, 0, linkEvidence(between, claims), "equal distance goes to the earliest claim")

	after := model.Sentence{Text: "According to the census, households number 12 million.", Position: 3}
	assert.Equal(t, 1, linkEvidence(after, claims), "nearest claim wins a tie")

	assert.Equal(t, -1, linkEvidence(after, nil))
}

func TestExtractStructure_MarkupStripped(t *testing.T) {
	e := newTestExtractor()

	arg, err := e.ExtractStructure("<p>The bill <b>will</b> raise fares.</p>", "bill-1", "user-1")
	require.NoError(t, err)
	require.Len(t, arg.Claims, 1)
	assert.Equal(t, "The bill will raise fares.", arg.Claims[0].Text)
}

func TestExtractStructure_ReasoningCollected(t *testing.T) {
	e := newTestExtractor()

	arg, err := e.ExtractStructure("Parliament must reject the levy. Consequently fewer traders remain.", "bill-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Consequently fewer traders remain.", arg.Reasoning)
}

func TestExtractStructure_DuplicateClaimsCollapsed(t *testing.T) {
	e := newTestExtractor()

	arg, err := e.ExtractStructure("The levy must go. THE LEVY MUST GO!", "bill-1", "user-1")
	require.NoError(t, err)
	assert.Len(t, arg.Claims, 1)
}

func TestClaimType(t *testing.T) {
	tests := []struct {
		sentence string
		want     model.ClaimType
	}{
		{"This clause is unconstitutional.", model.ClaimTypeInterpretive},
		{"Article 43 protects health.", model.ClaimTypeInterpretive},
		{"Parliament should amend the levy.", model.ClaimTypePolicy},
		{"Fuel prices rose by 30 percent.", model.ClaimTypeFactual},
		{"There was no public participation.", model.ClaimTypeProcedural},
		{"This is a disgrace.", model.ClaimTypeValue},
	}

	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			assert.Equal(t, tt.want, claimType(tt.sentence))
		})
	}
}

func TestEvidenceType(t *testing.T) {
	tests := []struct {
		sentence string
		want     model.EvidenceType
	}{
		{"Article 43 of the Constitution guarantees health care.", model.EvidenceConstitutionalReference},
		{"In Okiya Omtatah v. Attorney General the court struck down the levy.", model.EvidenceLegalPrecedent},
		{"A university study of 400 traders found losses.", model.EvidenceEmpiricalStudy},
		{"Economist Jane Doe says fares will rise.", model.EvidenceExpertOpinion},
		{"According to the 2024 labor report, unemployment rose by 5%.", model.EvidenceStatistical},
		{"My shop lost customers last month.", model.EvidenceAnecdotal},
	}

	for _, tt := range tests {
		t.Run(tt.sentence, func(t *testing.T) {
			assert.Equal(t, tt.want, evidenceType(tt.sentence))
		})
	}
}

func TestEvidenceSource(t *testing.T) {
	assert.Equal(t, "the 2024 labor report", evidenceSource("According to the 2024 labor report, unemployment rose by 5%."))
	assert.Equal(t, "https://kenyalaw.org/act", evidenceSource("See https://kenyalaw.org/act for the text, according to me."))
	assert.Equal(t, "KNBS", evidenceSource("according to KNBS."))
	assert.Empty(t, evidenceSource("My shop lost customers."))
}

func TestPosition(t *testing.T) {
	lex := newPositionLexicon()

	assert.Equal(t, model.PositionSupport, lex.sentencePosition("I support this bill."))
	assert.Equal(t, model.PositionOppose, lex.sentencePosition("I do not support this bill."))
	assert.Equal(t, model.PositionOppose, lex.sentencePosition("The levy is unfair."))
	assert.Equal(t, model.PositionNeutral, lex.sentencePosition("The committee met on Tuesday."))

	assert.Equal(t, model.PositionNeutral, majorityPosition(nil))
	assert.Equal(t, model.PositionNeutral, majorityPosition([]model.Position{model.PositionSupport, model.PositionOppose, model.PositionNeutral}))
	assert.Equal(t, model.PositionSupport, majorityPosition([]model.Position{model.PositionSupport, model.PositionNeutral, model.PositionNeutral}))

	e := newTestExtractor()
	arg, err := e.ExtractStructure("I support the health clause. The levy is unfair.", "bill-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, model.PositionNeutral, arg.Position)
}

func TestExtractBatch_PartialFailure(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	e := newTestExtractor(WithWorkers(3), WithLogger(logging.NewFromCore(core)))

	ts := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	comments := []model.Comment{
		{ID: "c1", BillID: "bill-1", UserID: "u1", Text: "The levy will hurt farmers.", Timestamp: ts},
		{ID: "c2", BillID: "bill-1", UserID: "u2", Text: "<script>alert(1)</script>"},
		{ID: "c3", BillID: "bill-1", UserID: "u3", Text: "I support the health clause."},
		{ID: "c4", BillID: "bill-1", UserID: "u4", Text: "Parliament must pass this bill."},
	}

	args, failures := e.ExtractBatch(context.Background(), comments)

	require.Len(t, args, 3)
	assert.Equal(t, "c1", args[0].CommentID)
	assert.Equal(t, "c3", args[1].CommentID)
	assert.Equal(t, "c4", args[2].CommentID)
	assert.Equal(t, ts, args[0].CreatedAt)
	assert.Equal(t, testNow, args[1].CreatedAt)

	require.Len(t, failures, 1)
	assert.Equal(t, "c2", failures[0].CommentID)
	assert.ErrorIs(t, failures[0].Err, ErrEmptyComment)

	entries := logs.FilterMessage("comment extraction failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "c2", entries[0].ContextMap()["comment_id"])
}

func TestExtractBatch_MatchesSequentialExtraction(t *testing.T) {
	e := newTestExtractor(WithWorkers(4))

	var comments []model.Comment
	for i, txt := range []string{
		"The levy will hurt farmers.",
		"According to KNBS, fuel prices rose 12% in 2025.",
		"Parliament must pass this bill. It is long overdue.",
		"The health clause protects mothers.",
	} {
		comments = append(comments, model.Comment{ID: string(rune('a' + i)), BillID: "bill-1", UserID: "u", Text: txt})
	}

	args, failures := e.ExtractBatch(context.Background(), comments)
	require.Empty(t, failures)
	require.Len(t, args, len(comments))

	for i, c := range comments {
		want, err := e.ExtractComment(c)
		require.NoError(t, err)
		assert.Equal(t, want, args[i])
	}
}
