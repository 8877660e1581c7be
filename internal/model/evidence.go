package model

// Evidence is a supporting statement offered for a claim
type Evidence struct {
	ID       string          `json:"id"`
	ClaimID  string          `json:"claim_id"` // Empty when the argument has no claims
	Text     string          `json:"text"`
	Type     EvidenceType    `json:"type"`
	Quality  EvidenceQuality `json:"quality"`
	Source   string          `json:"source,omitempty"` // Attribution or cited URL
	Verified bool            `json:"verified"`         // Only set by an external fact-check
}

// EvidenceType classifies the kind of evidence offered
type EvidenceType string

const (
	EvidenceStatistical             EvidenceType = "statistical"
	EvidenceAnecdotal               EvidenceType = "anecdotal"
	EvidenceExpertOpinion           EvidenceType = "expert_opinion"
	EvidenceLegalPrecedent          EvidenceType = "legal_precedent"
	EvidenceEmpiricalStudy          EvidenceType = "empirical_study"
	EvidenceConstitutionalReference EvidenceType = "constitutional_reference"
)

// EvidenceQuality is the transparent quality breakdown of one evidence item.
// Score is always the arithmetic mean of the four factors.
type EvidenceQuality struct {
	Score   float64        `json:"score"`
	Factors QualityFactors `json:"factors"`
}

// QualityFactors are the individual quality signals, each in 0..1
type QualityFactors struct {
	Credibility   float64 `json:"credibility"`
	Relevance     float64 `json:"relevance"`
	Recency       float64 `json:"recency"`
	Verifiability float64 `json:"verifiability"`
}

// Mean returns the arithmetic mean of the four factors
func (f QualityFactors) Mean() float64 {
	return (f.Credibility + f.Relevance + f.Recency + f.Verifiability) / 4
}

// AuthorityTier represents the classification of a cited source
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Laws, gazettes, parliament, courts, statistics offices
	TierSecondary AuthorityTier = 2 // Universities, major publishers, reputable media
	TierTertiary  AuthorityTier = 3 // Blogs, personal websites, social media
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}
