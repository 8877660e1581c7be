package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/text"
)

// typeRule maps keyword phrases to a category. Rules are checked in order and
// the first rule with a whole-word match wins.
type typeRule[T any] struct {
	kind     T
	keywords []string
	pattern  *regexp.Regexp // optional, checked against the raw sentence
}

var claimTypeRules = []typeRule[model.ClaimType]{
	{
		kind: model.ClaimTypeInterpretive,
		keywords: []string{
			"constitution", "constitutional", "unconstitutional", "bill of rights",
			"interpretation", "interpret", "court", "lawful", "unlawful", "legal", "illegal",
			"rights", "right to",
		},
		pattern: regexp.MustCompile(`(?i)\barticle\s+\d+`),
	},
	{
		kind: model.ClaimTypePolicy,
		keywords: []string{
			"should", "must", "ought", "need to", "needs to", "shall", "recommend",
			"propose", "amend", "amended", "repeal", "scrap", "withdraw", "reject",
			"adopt", "allocate", "fund", "implement", "introduce",
		},
	},
	{
		kind: model.ClaimTypeFactual,
		keywords: []string{
			"percent", "per cent", "million", "billion", "statistics", "rate",
			"increase", "decrease", "rose", "fell", "doubled", "halved", "majority",
		},
		pattern: regexp.MustCompile(`\d|%`),
	},
	{
		kind: model.ClaimTypeProcedural,
		keywords: []string{
			"public participation", "participation", "consultation", "consulted",
			"committee", "hearing", "hearings", "vote", "voted", "procedure",
			"process", "debate", "quorum", "first reading", "second reading",
			"third reading", "gazetted", "notice",
		},
	},
}

// claimType infers the kind of a claim sentence. Value judgements are the
// fallback.
func claimType(sentence string) model.ClaimType {
	return matchType(claimTypeRules, sentence, model.ClaimTypeValue)
}

func matchType[T any](rules []typeRule[T], sentence string, fallback T) T {
	padded := text.Padded(sentence)
	for _, rule := range rules {
		for _, kw := range rule.keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return rule.kind
			}
		}
		if rule.pattern != nil && rule.pattern.MatchString(sentence) {
			return rule.kind
		}
	}
	return fallback
}
