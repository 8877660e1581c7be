package score

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/similarity"
	"github.com/ppiankov/argintel/internal/text"
)

// Recency decays linearly to zero over this many years
const recencyWindowYears = 10

var (
	yearPattern     = regexp.MustCompile(`\b(1[89]\d{2}|20\d{2})\b`)
	numberPattern   = regexp.MustCompile(`\d`)
	percentPattern  = regexp.MustCompile(`(?i)%|\bper ?cent\b`)
	citationPattern = regexp.MustCompile(`(?i)\b(section|article|clause|chapter|cap\.?|paragraph)\s+\d+`)
)

var (
	researchTerms = []string{"research", "study", "studies", "survey", "university", "journal", "peer reviewed", "researchers", "census"}
	expertTerms   = []string{"expert", "experts", "economist", "economists", "professor", "doctor", "doctors", "analyst", "analysts", "lawyer", "scientist", "scientists"}
	officialTerms = []string{"official", "government", "ministry", "bureau", "parliament", "court", "auditor", "commission", "gazette", "treasury", "statistics"}
)

// Scorer computes evidence quality and argument strength. Every factor is a
// simple, inspectable heuristic; none of them judges truth.
type Scorer struct {
	authority *AuthorityClassifier
	now       func() time.Time
}

// NewScorer creates a scorer. A nil authority classifier uses the default
// domain lists; a nil clock uses time.Now.
func NewScorer(authority *AuthorityClassifier, now func() time.Time) *Scorer {
	if authority == nil {
		authority = NewAuthorityClassifier(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &Scorer{authority: authority, now: now}
}

// EvidenceQuality scores one evidence sentence against the claim it is
// linked to. claimText may be empty when the argument has no claims.
func (s *Scorer) EvidenceQuality(evidenceText, claimText string) model.EvidenceQuality {
	padded := text.Padded(evidenceText)

	factors := model.QualityFactors{
		Credibility:   clamp01(s.credibility(evidenceText, padded)),
		Relevance:     clamp01(relevance(evidenceText, claimText)),
		Recency:       clamp01(s.recency(evidenceText)),
		Verifiability: clamp01(verifiability(evidenceText)),
	}
	return model.EvidenceQuality{
		Score:   factors.Mean(),
		Factors: factors,
	}
}

// 1. Credibility: 0.5 base, raised by research, expert and official terms,
// adjusted by the authority tier of a cited URL
func (s *Scorer) credibility(raw, padded string) float64 {
	c := 0.5
	if containsAny(padded, researchTerms) {
		c += 0.2
	}
	if containsAny(padded, expertTerms) {
		c += 0.15
	}
	if containsAny(padded, officialTerms) {
		c += 0.15
	}

	if urls := text.URLs(raw); len(urls) > 0 {
		switch s.authority.Classify(urls[0]) {
		case model.TierPrimary:
			c += 0.2
		case model.TierSecondary:
			c += 0.1
		default:
			c -= 0.1
		}
	}
	return c
}

// 2. Relevance: 0.4 + 1.2 × word-set overlap with the linked claim, 0.4
// when there is no claim
func relevance(evidenceText, claimText string) float64 {
	if strings.TrimSpace(claimText) == "" {
		return 0.4
	}
	return 0.4 + 1.2*similarity.Jaccard(text.TermSet(evidenceText), text.TermSet(claimText))
}

// 3. Recency: 1 − age/10 years from the most recent year mentioned, 0.5
// when no plausible year is found
func (s *Scorer) recency(raw string) float64 {
	year, ok := s.latestYear(raw)
	if !ok {
		return 0.5
	}
	age := s.now().Year() - year
	return 1 - float64(age)/recencyWindowYears
}

// 4. Verifiability: 0.3 base, +0.3 for a year, +0.2 for a percentage or
// number, +0.2 for a URL or a section/article citation
func verifiability(raw string) float64 {
	v := 0.3
	if yearPattern.MatchString(raw) {
		v += 0.3
	}
	if percentPattern.MatchString(raw) || numberPattern.MatchString(raw) {
		v += 0.2
	}
	if len(text.URLs(raw)) > 0 || citationPattern.MatchString(raw) {
		v += 0.2
	}
	return v
}

// latestYear returns the most recent year in s that is not in the future
func (s *Scorer) latestYear(raw string) (int, bool) {
	current := s.now().Year()
	best, found := 0, false
	for _, m := range yearPattern.FindAllString(raw, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y > current {
			continue
		}
		if !found || y > best {
			best, found = y, true
		}
	}
	return best, found
}

// Strength is 0.3·meanClaimConfidence + 0.5·meanEvidenceQuality +
// 0.2·min(1, evidence/claims); 0 when there are no claims
func (s *Scorer) Strength(claims []model.Claim, evidence []model.Evidence) float64 {
	if len(claims) == 0 {
		return 0
	}

	var claimConf float64
	for _, c := range claims {
		claimConf += c.Confidence
	}
	claimConf /= float64(len(claims))

	var quality float64
	if len(evidence) > 0 {
		for _, e := range evidence {
			quality += e.Quality.Score
		}
		quality /= float64(len(evidence))
	}

	coverage := float64(len(evidence)) / float64(len(claims))
	if coverage > 1 {
		coverage = 1
	}

	return clamp01(0.3*claimConf + 0.5*quality + 0.2*coverage)
}

// containsAny reports whether a padded sentence contains any of the terms
// as whole words
func containsAny(padded string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(padded, " "+t+" ") {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
