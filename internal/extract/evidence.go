package extract

import (
	"regexp"
	"strings"

	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/similarity"
	"github.com/ppiankov/argintel/internal/text"
)

var evidenceTypeRules = []typeRule[model.EvidenceType]{
	{
		kind:     model.EvidenceConstitutionalReference,
		keywords: []string{"constitution", "constitutional", "bill of rights"},
		pattern:  regexp.MustCompile(`(?i)\barticle\s+\d+`),
	},
	{
		kind: model.EvidenceLegalPrecedent,
		keywords: []string{
			"court", "courts", "ruling", "ruled", "judgment", "judgement", "precedent",
			"tribunal", "petition", "case law", "high court", "supreme court",
		},
		pattern: regexp.MustCompile(`\b[A-Z][\w.]*\s+v\.?\s+[A-Z]`),
	},
	{
		kind: model.EvidenceEmpiricalStudy,
		keywords: []string{
			"study", "studies", "research", "researchers", "survey", "experiment",
			"trial", "journal", "university", "peer reviewed", "findings",
		},
	},
	{
		kind: model.EvidenceExpertOpinion,
		keywords: []string{
			"expert", "experts", "economist", "economists", "professor", "dr",
			"analyst", "analysts", "lawyer", "advocate", "scientist", "doctors",
		},
	},
	{
		kind: model.EvidenceStatistical,
		keywords: []string{
			"percent", "per cent", "statistics", "data", "figures", "census",
			"rate", "average", "median", "million", "billion",
		},
		pattern: regexp.MustCompile(`\d|%`),
	},
}

var attributionPattern = regexp.MustCompile(`(?i)\baccording to\s+([^,;:!?]+)`)

// evidenceType infers the kind of an evidence sentence. Personal accounts
// are the fallback.
func evidenceType(sentence string) model.EvidenceType {
	return matchType(evidenceTypeRules, sentence, model.EvidenceAnecdotal)
}

// evidenceSource returns the first cited URL, or the attribution after
// "according to"
func evidenceSource(sentence string) string {
	if urls := text.URLs(sentence); len(urls) > 0 {
		return urls[0]
	}
	if m := attributionPattern.FindStringSubmatch(sentence); m != nil {
		return strings.TrimRight(strings.TrimSpace(m[1]), ".")
	}
	return ""
}

// claimRef is a built claim with the data needed to link evidence to it
type claimRef struct {
	index    int // Index into Argument.Claims
	position int // Sentence index in the comment
	terms    []string
}

// linkEvidence returns the index of the claim with the largest word-set
// overlap with the evidence sentence. Ties go to the claim nearest in the
// comment, then to the earliest. Returns -1 when there are no claims.
func linkEvidence(evidence model.Sentence, claims []claimRef) int {
	terms := text.TermSet(evidence.Text)

	best, bestScore, bestDist := -1, -1.0, 0
	for _, c := range claims {
		score := similarity.Jaccard(terms, c.terms)
		dist := abs(c.position - evidence.Position)
		if score > bestScore || (score == bestScore && dist < bestDist) {
			best, bestScore, bestDist = c.index, score, dist
		}
	}
	return best
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
