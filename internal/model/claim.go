package model

// SentenceType is the rhetorical role of a sentence within a comment
type SentenceType string

const (
	SentenceClaim      SentenceType = "claim"
	SentenceEvidence   SentenceType = "evidence"
	SentenceReasoning  SentenceType = "reasoning"
	SentenceBackground SentenceType = "background"
)

// Sentence is one classified sentence of a comment
type Sentence struct {
	Text       string       `json:"text"`
	Type       SentenceType `json:"type"`
	Confidence float64      `json:"confidence"` // 0..1
	Position   int          `json:"position"`   // Sentence index in source (0-based)
}

// Position is the stance an argument, claim or cluster takes on a bill
type Position string

const (
	PositionSupport Position = "support"
	PositionOppose  Position = "oppose"
	PositionNeutral Position = "neutral"
	PositionMixed   Position = "mixed" // Clusters only
)

// Claim represents an assertion made by a commenter
type Claim struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Type       ClaimType `json:"type"`
	Confidence float64   `json:"confidence"`
	Sources    []string  `json:"sources"` // IDs of evidence linked to this claim
	Position   Position  `json:"position"`
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeFactual      ClaimType = "factual"      // Numeric or statistical assertions
	ClaimTypeValue        ClaimType = "value"        // Judgements of good and bad
	ClaimTypePolicy       ClaimType = "policy"       // What should be done
	ClaimTypeInterpretive ClaimType = "interpretive" // Readings of constitutional or legal text
	ClaimTypeProcedural   ClaimType = "procedural"   // How the legislative process was run
)
