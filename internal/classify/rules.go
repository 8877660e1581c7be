// Package classify labels comment sentences as claim, evidence, reasoning or
// background. High-precision lexical rules run first; a naive Bayes model
// trained on a seed corpus handles the rest.
package classify

import (
	"sort"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"

	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/text"
)

// ClaimIndicators mark a sentence as a claim without consulting the model
var ClaimIndicators = []string{
	"will", "should", "must", "shall", "need to", "ought to",
	"violates", "violate", "benefits", "benefit", "harms", "harm", "hurts",
	"is unfair", "is unjust", "unconstitutional", "undermines", "threatens",
	"protects", "is wrong", "is necessary", "is good", "is bad",
}

// EvidenceIndicators mark a sentence as evidence without consulting the model
var EvidenceIndicators = []string{
	"according to", "data shows", "data show", "research indicates",
	"research shows", "studies show", "study found", "statistics show",
	"survey found", "report found", "evidence shows", "figures show",
	"article", "section", "clause", "per cent", "percent",
}

// RuleMatch is a sentence label decided by an indicator
type RuleMatch struct {
	Type      model.SentenceType
	Indicator string
}

// Rules matches indicator phrases on whole-word boundaries with one
// Aho-Corasick pass per sentence
type Rules struct {
	matcher  *ahocorasick.Matcher
	patterns []string
	labels   []model.SentenceType
}

// NewRules builds the automaton. Claim indicators take precedence over
// evidence indicators when a sentence contains both.
func NewRules(claimIndicators, evidenceIndicators []string) *Rules {
	r := &Rules{}
	add := func(indicators []string, label model.SentenceType) {
		for _, ind := range indicators {
			padded := text.Padded(ind)
			if strings.TrimSpace(padded) == "" {
				continue
			}
			r.patterns = append(r.patterns, padded)
			r.labels = append(r.labels, label)
		}
	}
	add(claimIndicators, model.SentenceClaim)
	add(evidenceIndicators, model.SentenceEvidence)

	if len(r.patterns) > 0 {
		r.matcher = ahocorasick.NewStringMatcher(r.patterns)
	}
	return r
}

// DefaultRules returns rules over the built-in indicator lists
func DefaultRules() *Rules {
	return NewRules(ClaimIndicators, EvidenceIndicators)
}

// Match returns the rule label of a sentence, if any indicator matches.
// A percentage sign counts as an evidence indicator.
func (r *Rules) Match(sentence string) (RuleMatch, bool) {
	var hits []int
	if r.matcher != nil {
		hits = r.matcher.Match([]byte(text.Padded(sentence)))
	}
	sort.Ints(hits)

	for _, label := range []model.SentenceType{model.SentenceClaim, model.SentenceEvidence} {
		for _, h := range hits {
			if r.labels[h] == label {
				return RuleMatch{Type: label, Indicator: strings.TrimSpace(r.patterns[h])}, true
			}
		}
		if label == model.SentenceEvidence && strings.Contains(sentence, "%") {
			return RuleMatch{Type: label, Indicator: "%"}, true
		}
	}
	return RuleMatch{}, false
}
