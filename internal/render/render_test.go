package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/argintel/internal/model"
)

func testBrief(format model.BriefFormat) model.LegislativeBrief {
	return model.LegislativeBrief{
		ID:          "brief-1",
		BillID:      "finance-bill-2025",
		GeneratedAt: time.Date(2026, 6, 1, 12, 30, 0, 0, time.UTC),
		Summary: model.BriefSummary{
			TotalArguments: 4, UniqueClaims: 3, SupportPercentage: 25, OpposePercentage: 75,
		},
		KeyArguments: model.KeyArguments{
			Oppose: []model.Argument{{
				ID:       "a1",
				Strength: 0.61,
				Claims:   []model.Claim{{Text: "The fuel levy will raise transport costs."}},
				Evidence: []model.Evidence{{Text: "KNBS reports 12% inflation."}},
			}},
			Support: []model.Argument{{ID: "a2", Strength: 0.3, Reasoning: "Therefore revenue grows."}},
		},
		Clusters: []model.ArgumentCluster{
			{Name: "Fuel Levy", Position: model.PositionOppose, Size: 3, Cohesion: 0.42, Keywords: []string{"fuel", "levy"}},
		},
		Coalitions: []model.Coalition{
			{Name: "Fuel, Levy coalition", Position: model.PositionOppose, Power: 0.75,
				Stakeholders: []string{"u1", "u2", "u3"}, SharedInterests: []string{"fuel|diesel"}},
		},
		Recommendations: []string{"Review the opposing clusters."},
		PowerBalance: model.PowerBalance{
			IsBalanced: false, DominantCoalition: "Fuel, Levy coalition", Marginalized: []string{"Clinic coalition"},
		},
		Format:     format,
		Principles: model.DefaultPrinciples(),
	}
}

func TestMarkdownRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&MarkdownRenderer{IncludeFooter: true}).Render(&buf, testBrief(model.FormatMarkdown)))
	md := buf.String()

	for _, want := range []string{
		"# Legislative Brief: finance-bill-2025",
		"2026-06-01 12:30 UTC",
		"| Arguments | 4 |",
		"| Oppose | 75.0% |",
		"**Unbalanced:** the Fuel, Levy coalition dominates",
		"Marginalized: Clinic coalition",
		"1. The fuel levy will raise transport costs. (strength 0.61, 1 evidence)",
		"1. Therefore revenue grows. (strength 0.30, 0 evidence)",
		"| Fuel Levy | oppose | 3 | 0.42 | fuel, levy |",
		`fuel\|diesel`,
		"| 75% | 3 |",
		"- Review the opposing clusters.",
		"does not determine which position is correct",
	} {
		assert.Contains(t, md, want)
	}
}

func TestMarkdownRenderer_EmptyAndNoFooter(t *testing.T) {
	var buf bytes.Buffer
	b := model.LegislativeBrief{BillID: "b", PowerBalance: model.PowerBalance{IsBalanced: true}}
	require.NoError(t, (&MarkdownRenderer{}).Render(&buf, b))
	md := buf.String()

	assert.Contains(t, md, "No coalition dominates")
	assert.Contains(t, md, "_No issue clusters._")
	assert.Contains(t, md, "_No coalitions detected._")
	assert.NotContains(t, md, "does not determine")
}

func TestHeadline_Truncates(t *testing.T) {
	long := strings.Repeat("á", maxHeadline+10)
	h := headline(model.Argument{Claims: []model.Claim{{Text: long}}})
	assert.Equal(t, maxHeadline+3, len([]rune(h)))
	assert.Equal(t, "(no claim)", headline(model.Argument{}))
}

func TestJSONRenderer(t *testing.T) {
	var buf bytes.Buffer
	brief := testBrief(model.FormatMarkdown)
	require.NoError(t, JSONRenderer{}.Render(&buf, brief))

	var got model.LegislativeBrief
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, brief.BillID, got.BillID)
	assert.Equal(t, brief.PowerBalance, got.PowerBalance)
	assert.Contains(t, buf.String(), "\n  \"bill_id\"")
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(false)

	var buf bytes.Buffer
	require.NoError(t, reg.Render(&buf, testBrief(model.FormatMarkdown)))
	assert.Contains(t, buf.String(), "# Legislative Brief")

	err := reg.Render(&buf, testBrief(model.FormatPDF))
	assert.True(t, errors.Is(err, ErrNoRenderer))

	reg.Register(model.FormatPDF, RendererFunc(func(w io.Writer, b model.LegislativeBrief) error {
		_, err := io.WriteString(w, "%PDF "+b.BillID)
		return err
	}))
	buf.Reset()
	require.NoError(t, reg.Render(&buf, testBrief(model.FormatPDF)))
	assert.Equal(t, "%PDF finance-bill-2025", buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "brief.json")
	require.NoError(t, WriteFile(path, JSONRenderer{}, testBrief(model.FormatMarkdown)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "finance-bill-2025")

	failing := RendererFunc(func(io.Writer, model.LegislativeBrief) error { return errors.New("boom") })
	err = WriteFile(filepath.Join(t.TempDir(), "x.md"), failing, model.LegislativeBrief{})
	require.Error(t, err)

	entries, _ := os.ReadDir(filepath.Dir(path))
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".md", Extension(model.FormatMarkdown))
	assert.Equal(t, ".pdf", Extension(model.FormatPDF))
	assert.Equal(t, ".docx", Extension(model.FormatWord))
}
