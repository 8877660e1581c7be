package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
)

// MockProvider implements the Provider interface for testing
type MockProvider struct {
	name      string
	available bool
	response  *SummarizeResponse
	err       error
	requests  []SummarizeRequest
}

func (m *MockProvider) Name() string {
	return m.name
}

func (m *MockProvider) Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func (m *MockProvider) IsAvailable(ctx context.Context) bool {
	return m.available
}

func testBrief() model.LegislativeBrief {
	return model.LegislativeBrief{
		BillID: "finance-bill-2025",
		KeyArguments: model.KeyArguments{
			Oppose: []model.Argument{{
				Evidence: []model.Evidence{
					{Text: "See https://knbs.or.ke/cpi-2024 for inflation.", Source: "https://knbs.or.ke/cpi-2024"},
					{Text: "According to the Treasury, revenue fell.", Source: "the Treasury"},
				},
			}},
			Support: []model.Argument{{
				Evidence: []model.Evidence{
					{Text: "Data at www.kenyalaw.org/acts shows it.", Source: "http://www.kenyalaw.org/acts"},
				},
			}},
		},
	}
}

func TestNewSummarizer_DisabledProvider(t *testing.T) {
	summarizer, err := NewSummarizer(Config{}, logging.NewNop())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if summarizer.IsEnabled() {
		t.Error("Expected summarizer to be disabled")
	}
	if summarizer.ProviderName() != "" {
		t.Error("Expected empty provider name when disabled")
	}

	narrative, err := summarizer.GenerateNarrative(context.Background(), testBrief())
	if err != nil {
		t.Errorf("Expected no error when disabled, got %v", err)
	}
	if narrative != nil {
		t.Error("Expected nil narrative when provider disabled")
	}
}

func TestNewSummarizer_UnknownProvider(t *testing.T) {
	if _, err := NewSummarizer(Config{Provider: "nope"}, nil); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestSummarizer_ProviderUnavailable(t *testing.T) {
	summarizer := newSummarizer(&MockProvider{name: "test-provider"}, Config{StrictEvidence: true}, nil)

	narrative, err := summarizer.GenerateNarrative(context.Background(), testBrief())
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if narrative == nil {
		t.Fatal("Expected narrative object with warnings")
	}
	if narrative.Enabled {
		t.Error("Expected narrative to be marked as disabled")
	}
	if len(narrative.Warnings) == 0 || !strings.Contains(narrative.Warnings[0], "not available") {
		t.Errorf("Expected warning about provider unavailability, got %v", narrative.Warnings)
	}
}

func TestSummarizer_Success(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		response: &SummarizeResponse{
			Summary:    "Commenters are divided.",
			CitedURLs:  []string{"https://knbs.or.ke/cpi-2024"},
			Model:      "test-model",
			TokensUsed: 150,
		},
	}
	summarizer := newSummarizer(mock, Config{Model: "test-model", StrictEvidence: true}, nil)

	narrative, err := summarizer.GenerateNarrative(context.Background(), testBrief())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !narrative.Enabled {
		t.Error("Expected narrative to be enabled")
	}
	if narrative.Provider != "test-provider" {
		t.Errorf("Expected provider 'test-provider', got '%s'", narrative.Provider)
	}
	if narrative.Text != "Commenters are divided." {
		t.Errorf("Unexpected narrative text '%s'", narrative.Text)
	}

	foundTokens, foundCitations := false, false
	for _, warning := range narrative.Warnings {
		if strings.Contains(warning, "Tokens used: 150") {
			foundTokens = true
		}
		if strings.Contains(warning, "Verified 1 citations against 2 allowed URLs") {
			foundCitations = true
		}
	}
	if !foundTokens || !foundCitations {
		t.Errorf("Expected token and citation notes, got %v", narrative.Warnings)
	}

	if len(mock.requests) != 1 {
		t.Fatalf("Expected one provider call, got %d", len(mock.requests))
	}
	want := []string{"http://www.kenyalaw.org/acts", "https://knbs.or.ke/cpi-2024"}
	got := mock.requests[0].EvidenceURLs
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("Expected allowlist %v, got %v", want, got)
	}
}

func TestSummarizer_ProviderError(t *testing.T) {
	mock := &MockProvider{
		name:      "test-provider",
		available: true,
		err:       errors.New("API rate limit exceeded"),
	}
	summarizer := newSummarizer(mock, Config{StrictEvidence: true}, nil)

	narrative, err := summarizer.GenerateNarrative(context.Background(), testBrief())
	if err != nil {
		t.Errorf("Expected no error (graceful degradation), got %v", err)
	}
	if narrative == nil || !narrative.Enabled {
		t.Fatal("Expected enabled narrative with error warning")
	}
	if narrative.Text != "" {
		t.Error("Expected no text on failure")
	}
	if len(narrative.Warnings) != 1 || !strings.Contains(narrative.Warnings[0], "rate limit") {
		t.Errorf("Expected warning to mention error: %v", narrative.Warnings)
	}
}

func TestEvidenceURLs_Empty(t *testing.T) {
	urls := EvidenceURLs(model.LegislativeBrief{})
	if urls == nil || len(urls) != 0 {
		t.Errorf("Expected empty non-nil allowlist, got %v", urls)
	}
}

func TestRenderSeparateMarkdown(t *testing.T) {
	if RenderSeparateMarkdown(nil) != "" {
		t.Error("Expected empty markdown when nil")
	}
	if RenderSeparateMarkdown(&model.Narrative{Enabled: false}) != "" {
		t.Error("Expected empty markdown when disabled")
	}

	md := RenderSeparateMarkdown(&model.Narrative{
		Enabled:   true,
		Provider:  "openai",
		Model:     "gpt-4o-mini",
		Text:      "Commenters are divided.",
		CitedURLs: []string{"https://knbs.or.ke/cpi-2024"},
		Warnings:  []string{"Tokens used: 150"},
	})
	for _, section := range []string{
		"# LLM Narrative",
		"GENERATED CONTENT",
		"determined independently",
		"openai",
		"gpt-4o-mini",
		"Strict Evidence Mode",
		"Commenters are divided.",
		"## Cited sources",
		"https://knbs.or.ke/cpi-2024",
		"## Notes",
		"Tokens used: 150",
	} {
		if !strings.Contains(md, section) {
			t.Errorf("Expected markdown to contain '%s'", section)
		}
	}

	md = RenderSeparateMarkdown(&model.Narrative{Enabled: true, Provider: "openai"})
	if !strings.Contains(md, "No narrative generated") {
		t.Error("Expected message about no narrative")
	}
}

func TestBuildPrompt(t *testing.T) {
	brief := model.LegislativeBrief{
		BillID: "finance-bill-2025",
		Summary: model.BriefSummary{
			TotalArguments:    12,
			UniqueClaims:      9,
			SupportPercentage: 25,
			OpposePercentage:  75,
		},
		Clusters: []model.ArgumentCluster{
			{Name: "Fuel Levy", Size: 8, Position: model.PositionOppose},
		},
		PowerBalance: model.PowerBalance{DominantCoalition: "Fuel, Levy coalition"},
	}

	prompt := BuildPrompt(brief, []string{"https://knbs.or.ke/cpi-2024"})
	for _, element := range []string{
		"CRITICAL RULES",
		"MUST ONLY cite URLs from this allowed list",
		"https://knbs.or.ke/cpi-2024",
		"bill finance-bill-2025",
		"Arguments: 12 (9 unique claims)",
		"Oppose: 75%",
		"Dominant coalition: Fuel, Levy coalition",
		"Fuel Levy (8 arguments, oppose)",
	} {
		if !strings.Contains(prompt, element) {
			t.Errorf("Expected prompt to contain '%s'", element)
		}
	}

	if !strings.Contains(BuildPrompt(model.LegislativeBrief{}, nil), "(No evidence URLs available)") {
		t.Error("Expected placeholder for empty allowlist")
	}
}
