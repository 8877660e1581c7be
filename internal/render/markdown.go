package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/argintel/internal/model"
)

const maxHeadline = 200

// MarkdownRenderer writes a human-readable brief
type MarkdownRenderer struct {
	IncludeFooter bool
}

func (m *MarkdownRenderer) Render(w io.Writer, brief model.LegislativeBrief) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Legislative Brief: %s\n\n", brief.BillID)
	fmt.Fprintf(&b, "_Generated %s (brief %s)_\n\n", brief.GeneratedAt.UTC().Format("2006-01-02 15:04 UTC"), brief.ID)

	b.WriteString("## Summary\n\n")
	b.WriteString("| Measure | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Arguments | %d |\n", brief.Summary.TotalArguments)
	fmt.Fprintf(&b, "| Unique claims | %d |\n", brief.Summary.UniqueClaims)
	fmt.Fprintf(&b, "| Support | %.1f%% |\n", brief.Summary.SupportPercentage)
	fmt.Fprintf(&b, "| Oppose | %.1f%% |\n\n", brief.Summary.OpposePercentage)

	writePowerBalance(&b, brief.PowerBalance)

	b.WriteString("## Key Arguments\n\n")
	writeArguments(&b, "Support", brief.KeyArguments.Support)
	writeArguments(&b, "Oppose", brief.KeyArguments.Oppose)

	b.WriteString("## Issues\n\n")
	if len(brief.Clusters) == 0 {
		b.WriteString("_No issue clusters._\n\n")
	} else {
		b.WriteString("| Issue | Position | Arguments | Cohesion | Keywords |\n|---|---|---|---|---|\n")
		for _, c := range brief.Clusters {
			fmt.Fprintf(&b, "| %s | %s | %d | %.2f | %s |\n",
				cell(c.Name), c.Position, c.Size, c.Cohesion, cell(strings.Join(c.Keywords, ", ")))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Coalitions\n\n")
	if len(brief.Coalitions) == 0 {
		b.WriteString("_No coalitions detected._\n\n")
	} else {
		b.WriteString("| Coalition | Position | Power | Stakeholders | Diversity | Shared interests |\n|---|---|---|---|---|---|\n")
		for _, c := range brief.Coalitions {
			fmt.Fprintf(&b, "| %s | %s | %.0f%% | %d | %.2f | %s |\n",
				cell(c.Name), c.Position, c.Power*100, len(c.Stakeholders), c.Diversity.Overall,
				cell(strings.Join(c.SharedInterests, ", ")))
		}
		b.WriteString("\n")
	}

	b.WriteString("## Recommendations\n\n")
	if len(brief.Recommendations) == 0 {
		b.WriteString("_None._\n")
	}
	for _, r := range brief.Recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}

	if m.IncludeFooter {
		b.WriteString("\n---\n\n")
		b.WriteString("_This brief describes the structure of public input: what commenters claimed, ")
		b.WriteString("what they cited and how they grouped. It does not determine which position is correct. ")
		b.WriteString("The same rules are applied to every position.")
		if brief.Narrative != nil && brief.Narrative.Enabled {
			b.WriteString(" A generated narrative is published separately and did not influence this brief.")
		}
		b.WriteString("_\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writePowerBalance(b *strings.Builder, p model.PowerBalance) {
	b.WriteString("## Power Balance\n\n")
	if p.IsBalanced {
		b.WriteString("No coalition dominates the input.\n")
	} else {
		fmt.Fprintf(b, "**Unbalanced:** the %s dominates the input.\n", p.DominantCoalition)
	}
	if len(p.Marginalized) > 0 {
		fmt.Fprintf(b, "\nMarginalized: %s\n", strings.Join(p.Marginalized, "; "))
	}
	b.WriteString("\n")
}

func writeArguments(b *strings.Builder, title string, args []model.Argument) {
	fmt.Fprintf(b, "### %s\n\n", title)
	if len(args) == 0 {
		b.WriteString("_None._\n\n")
		return
	}
	for i, a := range args {
		fmt.Fprintf(b, "%d. %s (strength %.2f, %d evidence)\n", i+1, headline(a), a.Strength, len(a.Evidence))
	}
	b.WriteString("\n")
}

// headline is the first claim of an argument, or its reasoning
func headline(a model.Argument) string {
	s := a.Reasoning
	if len(a.Claims) > 0 {
		s = a.Claims[0].Text
	}
	if s == "" {
		return "(no claim)"
	}
	if r := []rune(s); len(r) > maxHeadline {
		s = string(r[:maxHeadline]) + "..."
	}
	return s
}

// cell escapes a table cell
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
