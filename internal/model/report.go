package model

import "time"

// BriefFormat selects the document the external renderer produces
type BriefFormat string

const (
	FormatPDF      BriefFormat = "pdf"
	FormatWord     BriefFormat = "word"
	FormatMarkdown BriefFormat = "markdown"
)

// ParseBriefFormat validates a format name
func ParseBriefFormat(s string) (BriefFormat, bool) {
	switch BriefFormat(s) {
	case FormatPDF, FormatWord, FormatMarkdown:
		return BriefFormat(s), true
	default:
		return "", false
	}
}

// LegislativeBrief is the summarized public input on one bill
type LegislativeBrief struct {
	ID              string            `json:"id"`
	BillID          string            `json:"bill_id"`
	GeneratedAt     time.Time         `json:"generated_at"`
	Summary         BriefSummary      `json:"summary"`
	KeyArguments    KeyArguments      `json:"key_arguments"`
	Clusters        []ArgumentCluster `json:"clusters"`
	Coalitions      []Coalition       `json:"coalitions"`
	Recommendations []string          `json:"recommendations"`
	PowerBalance    PowerBalance      `json:"power_balance"`
	Format          BriefFormat       `json:"format"`
	Principles      Principles        `json:"principles"`

	Narrative *Narrative `json:"narrative,omitempty"` // Optional LLM narrative (separate, never affects the brief)
}

// BriefSummary holds aggregate counts over all arguments
type BriefSummary struct {
	TotalArguments    int     `json:"total_arguments"`
	UniqueClaims      int     `json:"unique_claims"`
	SupportPercentage float64 `json:"support_percentage"`
	OpposePercentage  float64 `json:"oppose_percentage"`
}

// KeyArguments are the strongest arguments on each side
type KeyArguments struct {
	Support []Argument `json:"support"`
	Oppose  []Argument `json:"oppose"`
}

// PowerBalance summarizes how influence is spread across coalitions
type PowerBalance struct {
	IsBalanced        bool     `json:"is_balanced"`
	DominantCoalition string   `json:"dominant_coalition,omitempty"`
	Marginalized      []string `json:"marginalized"`
}

// Principles documents which core principles were applied
type Principles struct {
	NonNormative bool `json:"non_normative"` // Describes structure, not truth
	Transparent  bool `json:"transparent"`   // All scores explainable
	Symmetric    bool `json:"symmetric"`     // Same rules for all positions
}

// DefaultPrinciples returns the standard principles
func DefaultPrinciples() Principles {
	return Principles{
		NonNormative: true,
		Transparent:  true,
		Symmetric:    true,
	}
}

// Narrative contains an optional LLM-generated prose summary.
// It never affects any structured field of the brief.
type Narrative struct {
	Enabled   bool     `json:"enabled"`
	Provider  string   `json:"provider,omitempty"`
	Model     string   `json:"model,omitempty"`
	Text      string   `json:"text,omitempty"`
	CitedURLs []string `json:"cited_urls,omitempty"`
	Warnings  []string `json:"warnings,omitempty"`
}
