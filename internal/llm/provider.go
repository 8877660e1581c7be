package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/argintel/internal/model"
)

// ErrCitationLeak is returned when a response cites a URL outside the allowlist
var ErrCitationLeak = errors.New("citation outside allowlist")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize writes a narrative for the brief with strict evidence mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for narrative generation
type SummarizeRequest struct {
	Brief model.LegislativeBrief

	// EvidenceURLs is the STRICT allowlist of URLs the LLM can cite.
	// They are the URLs commenters cited in the brief's key arguments.
	EvidenceURLs []string

	// Prompt overrides BuildPrompt when set
	Prompt string

	Model     string
	MaxTokens int
}

// SummarizeResponse contains the LLM's output
type SummarizeResponse struct {
	Summary    string
	CitedURLs  []string // URLs found in Summary, for verification
	Model      string
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	Provider string // "openai", "ollama", "" (disabled)
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	// StrictEvidence enforces the URL allowlist (should always be true)
	StrictEvidence bool

	MaxTokens int
	RateLimit model.RateLimit
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:        30 * time.Second,
		StrictEvidence: true,
		MaxTokens:      800,
	}
}

// BuildPrompt constructs the default strict-evidence prompt for a brief
func BuildPrompt(brief model.LegislativeBrief, evidenceURLs []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `You are summarizing public input on bill %s. The analysis describes the structure of citizen arguments - it NEVER asserts that a position is right or wrong.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. Describe both sides with the same neutral register.
4. If evidence is thin, state that explicitly.
5. Never say a claim "is true" or "is false" - only describe what commenters argued and cited.

Summary:
- Arguments: %d (%d unique claims)
- Support: %.0f%%
- Oppose: %.0f%%
- Coalitions: %d
- Balanced: %t
`, brief.BillID, joinURLs(evidenceURLs),
		brief.Summary.TotalArguments, brief.Summary.UniqueClaims,
		brief.Summary.SupportPercentage, brief.Summary.OpposePercentage,
		len(brief.Coalitions), brief.PowerBalance.IsBalanced)

	if brief.PowerBalance.DominantCoalition != "" {
		fmt.Fprintf(&b, "- Dominant coalition: %s\n", brief.PowerBalance.DominantCoalition)
	}

	b.WriteString("\nMain issues:\n")
	for i, c := range brief.Clusters {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s (%d arguments, %s)\n", c.Name, c.Size, c.Position)
	}

	b.WriteString("\nProvide a 4-6 sentence neutral narrative of the public input.")
	return b.String()
}

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No evidence URLs available)"
	}
	var b strings.Builder
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			fmt.Fprintf(&b, "\n... and %d more URLs", len(urls)-20)
			break
		}
		fmt.Fprintf(&b, "\n- %s", url)
	}
	return b.String()
}
