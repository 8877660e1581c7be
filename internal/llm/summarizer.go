package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/text"
	"github.com/ppiankov/argintel/internal/worker"
)

// Summarizer produces the optional brief narrative. It runs after the brief
// is generated and never changes its structured fields; failures degrade to
// warnings on the narrative.
type Summarizer struct {
	provider Provider
	config   Config
	limiter  *worker.Limiter
	logger   logging.Logger
}

// NewSummarizer creates a summarizer. An empty provider yields a disabled
// summarizer.
func NewSummarizer(config Config, logger logging.Logger) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}
	return newSummarizer(provider, config, logger), nil
}

func newSummarizer(provider Provider, config Config, logger logging.Logger) *Summarizer {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Summarizer{
		provider: provider,
		config:   config,
		limiter:  worker.NewLimiter(config.RateLimit.RequestsPerSecond, config.RateLimit.Burst),
		logger:   logger.Named("llm"),
	}
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s != nil && s.provider != nil
}

// ProviderName returns the configured provider, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if !s.IsEnabled() {
		return ""
	}
	return s.provider.Name()
}

// GenerateNarrative writes a narrative for the brief. It returns nil when
// disabled. Provider errors and citation leaks are reported as warnings so
// the brief itself is never lost.
func (s *Summarizer) GenerateNarrative(ctx context.Context, brief model.LegislativeBrief) (*model.Narrative, error) {
	if !s.IsEnabled() {
		return nil, nil
	}

	name := s.provider.Name()
	if !s.provider.IsAvailable(ctx) {
		return &model.Narrative{
			Enabled:  false,
			Provider: name,
			Warnings: []string{fmt.Sprintf("LLM provider %s is not available", name)},
		}, nil
	}

	if err := s.limiter.Wait(ctx, name); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	urls := EvidenceURLs(brief)
	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Brief:        brief,
		EvidenceURLs: urls,
		Model:        s.config.Model,
		MaxTokens:    s.config.MaxTokens,
	})
	if err != nil {
		s.logger.Warn("narrative generation failed",
			logging.String("bill_id", brief.BillID),
			logging.String("provider", name),
			logging.Err(err))
		return &model.Narrative{
			Enabled:  true,
			Provider: name,
			Model:    s.config.Model,
			Warnings: []string{fmt.Sprintf("Narrative generation failed: %v", err)},
		}, nil
	}

	return &model.Narrative{
		Enabled:   true,
		Provider:  name,
		Model:     resp.Model,
		Text:      resp.Summary,
		CitedURLs: resp.CitedURLs,
		Warnings: []string{
			fmt.Sprintf("Tokens used: %d", resp.TokensUsed),
			fmt.Sprintf("Verified %d citations against %d allowed URLs", len(resp.CitedURLs), len(urls)),
		},
	}, nil
}

// EvidenceURLs returns the citation allowlist for a brief: every URL cited
// in the evidence of its key arguments, in order of first appearance
func EvidenceURLs(brief model.LegislativeBrief) []string {
	seen := make(map[string]bool)
	urls := []string{}
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	args := append(append([]model.Argument{}, brief.KeyArguments.Support...), brief.KeyArguments.Oppose...)
	for _, a := range args {
		for _, e := range a.Evidence {
			for _, u := range text.URLs(e.Text) {
				add(u)
			}
			if strings.HasPrefix(e.Source, "http://") || strings.HasPrefix(e.Source, "https://") {
				add(e.Source)
			}
		}
	}
	return urls
}

// RenderSeparateMarkdown renders the narrative as a standalone document,
// kept apart from the brief so generated prose is never mistaken for analysis
func RenderSeparateMarkdown(n *model.Narrative) string {
	if n == nil || !n.Enabled {
		return ""
	}

	var b strings.Builder
	b.WriteString("# LLM Narrative\n\n")
	b.WriteString("> **GENERATED CONTENT.** This narrative was written by a language model from the structured brief. ")
	b.WriteString("All counts, clusters, coalitions and recommendations were determined independently of it.\n\n")
	fmt.Fprintf(&b, "- **Provider:** %s\n", n.Provider)
	if n.Model != "" {
		fmt.Fprintf(&b, "- **Model:** %s\n", n.Model)
	}
	b.WriteString("- **Strict Evidence Mode:** true\n\n")

	b.WriteString("## Narrative\n\n")
	if n.Text == "" {
		b.WriteString("_No narrative generated._\n")
	} else {
		b.WriteString(n.Text)
		b.WriteString("\n")
	}

	if len(n.CitedURLs) > 0 {
		b.WriteString("\n## Cited sources\n\n")
		for _, u := range n.CitedURLs {
			fmt.Fprintf(&b, "- %s\n", u)
		}
	}

	if len(n.Warnings) > 0 {
		b.WriteString("\n## Notes\n\n")
		for _, w := range n.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
