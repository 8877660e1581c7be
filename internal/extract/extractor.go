// Package extract turns comment text into structured arguments: claims,
// evidence linked to those claims, a position and a strength score.
package extract

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/argintel/internal/classify"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/score"
	"github.com/ppiankov/argintel/internal/text"
	"github.com/ppiankov/argintel/internal/worker"
)

// ErrEmptyComment is returned for comments with no text once markup is removed
var ErrEmptyComment = errors.New("comment has no text")

// Failure records a comment that could not be extracted
type Failure struct {
	CommentID string
	Err       error
}

// Extractor builds arguments from comments. It holds no per-comment state and
// is safe for concurrent use.
type Extractor struct {
	classifier *classify.Classifier
	scorer     *score.Scorer
	lexicon    *positionLexicon
	workers    int
	now        func() time.Time
	logger     logging.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithWorkers sets the number of comments extracted concurrently by ExtractBatch
func WithWorkers(n int) Option {
	return func(e *Extractor) { e.workers = n }
}

// WithClock sets the clock used for CreatedAt when a comment has no timestamp
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the logger for per-comment failures
func WithLogger(l logging.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// NewExtractor creates an extractor. Nil collaborators get defaults.
func NewExtractor(classifier *classify.Classifier, scorer *score.Scorer, opts ...Option) *Extractor {
	if classifier == nil {
		classifier = classify.NewDefault()
	}
	if scorer == nil {
		scorer = score.NewScorer(nil, nil)
	}
	e := &Extractor{
		classifier: classifier,
		scorer:     scorer,
		lexicon:    newPositionLexicon(),
		workers:    1,
		now:        time.Now,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractStructure builds the argument of one comment text
func (e *Extractor) ExtractStructure(commentText, billID, userID string) (model.Argument, error) {
	return e.extract(model.Comment{BillID: billID, UserID: userID, Text: commentText}, e.now())
}

// ExtractComment builds the argument of a comment record. The comment's
// timestamp becomes the argument's CreatedAt.
func (e *Extractor) ExtractComment(c model.Comment) (model.Argument, error) {
	createdAt := c.Timestamp
	if createdAt.IsZero() {
		createdAt = e.now()
	}
	return e.extract(c, createdAt)
}

// ExtractBatch extracts comments concurrently. A comment that fails is logged
// and reported as a Failure; the rest of the batch continues. Arguments keep
// the order of their comments.
func (e *Extractor) ExtractBatch(ctx context.Context, comments []model.Comment) ([]model.Argument, []Failure) {
	outcomes := worker.Map(ctx, e.workers, comments, func(_ context.Context, c model.Comment) (model.Argument, error) {
		return e.ExtractComment(c)
	})

	args := make([]model.Argument, 0, len(comments))
	var failures []Failure
	for i, o := range outcomes {
		if o.Err != nil {
			failures = append(failures, Failure{CommentID: comments[i].ID, Err: o.Err})
			e.logger.Warn("comment extraction failed",
				logging.String("comment_id", comments[i].ID),
				logging.String("bill_id", comments[i].BillID),
				logging.Err(o.Err),
			)
			continue
		}
		args = append(args, o.Value)
	}
	return args, failures
}

func (e *Extractor) extract(c model.Comment, createdAt time.Time) (model.Argument, error) {
	clean := text.StripMarkup(c.Text)
	sentences := text.SplitSentences(clean)
	if len(sentences) == 0 {
		return model.Argument{}, ErrEmptyComment
	}

	classified := e.classifier.Classify(sentences)
	argID := model.StableID(c.BillID, c.UserID, c.ID, clean)

	claims := make([]model.Claim, 0)
	var refs []claimRef
	var evidenceSentences []model.Sentence
	var reasoning []string
	positions := make([]model.Position, 0, len(classified))
	seen := make(map[string]bool)

	for _, s := range classified {
		pos := e.lexicon.sentencePosition(s.Text)
		positions = append(positions, pos)

		switch s.Type {
		case model.SentenceClaim:
			key := strings.Join(text.Words(s.Text), " ")
			if seen[key] {
				continue
			}
			seen[key] = true
			refs = append(refs, claimRef{index: len(claims), position: s.Position, terms: text.TermSet(s.Text)})
			claims = append(claims, model.Claim{
				ID:         model.StableID(argID, "claim", strconv.Itoa(s.Position)),
				Text:       s.Text,
				Type:       claimType(s.Text),
				Confidence: s.Confidence,
				Sources:    []string{},
				Position:   pos,
			})
		case model.SentenceEvidence:
			evidenceSentences = append(evidenceSentences, s)
		case model.SentenceReasoning:
			reasoning = append(reasoning, s.Text)
		}
	}

	evidence := make([]model.Evidence, 0, len(evidenceSentences))
	for _, s := range evidenceSentences {
		ev := model.Evidence{
			ID:     model.StableID(argID, "evidence", strconv.Itoa(s.Position)),
			Text:   s.Text,
			Type:   evidenceType(s.Text),
			Source: evidenceSource(s.Text),
		}

		claimText := ""
		if idx := linkEvidence(s, refs); idx >= 0 {
			ev.ClaimID = claims[idx].ID
			claimText = claims[idx].Text
			claims[idx].Sources = append(claims[idx].Sources, ev.ID)
		}
		ev.Quality = e.scorer.EvidenceQuality(s.Text, claimText)
		evidence = append(evidence, ev)
	}

	return model.Argument{
		ID:        argID,
		BillID:    c.BillID,
		UserID:    c.UserID,
		CommentID: c.ID,
		Claims:    claims,
		Evidence:  evidence,
		Reasoning: strings.Join(reasoning, " "),
		Strength:  e.scorer.Strength(claims, evidence),
		Position:  majorityPosition(positions),
		CreatedAt: createdAt,
	}, nil
}
