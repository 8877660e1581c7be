// Package brief assembles the legislative brief for a bill from its
// arguments, clusters and coalitions. It produces structured data only;
// document bytes come from internal/render.
package brief

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ppiankov/argintel/internal/coalition"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/text"
)

// ErrUnsupportedFormat is returned for a format outside pdf, word and markdown
var ErrUnsupportedFormat = errors.New("unsupported brief format")

const (
	defaultKeyArguments = 5
	weakEvidenceScore   = 0.5
	majorityPercentage  = 50.0
)

// Generator builds legislative briefs
type Generator struct {
	keyArguments int
	coalition    model.CoalitionConfig
	now          func() time.Time
	newID        func() string
}

// Option configures a Generator
type Option func(*Generator)

// WithClock overrides the generation timestamp source
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithIDFunc overrides brief ID generation
func WithIDFunc(fn func() string) Option {
	return func(g *Generator) { g.newID = fn }
}

// NewGenerator creates a generator. Coalition thresholds drive the power
// balance section.
func NewGenerator(cfg model.BriefConfig, coalitionCfg model.CoalitionConfig, opts ...Option) *Generator {
	g := &Generator{
		keyArguments: cfg.KeyArguments,
		coalition:    coalitionCfg,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        model.NewID,
	}
	if g.keyArguments <= 0 {
		g.keyArguments = defaultKeyArguments
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GenerateBrief aggregates one bill's analysis into a brief. The format is
// recorded for the renderer and does not change the brief's structure.
func (g *Generator) GenerateBrief(
	billID string,
	clusters []model.ArgumentCluster,
	coalitions []model.Coalition,
	args []model.Argument,
	format model.BriefFormat,
) (model.LegislativeBrief, error) {
	f, ok := model.ParseBriefFormat(string(format))
	if !ok {
		return model.LegislativeBrief{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if clusters == nil {
		clusters = []model.ArgumentCluster{}
	}
	if coalitions == nil {
		coalitions = []model.Coalition{}
	}

	balance := coalition.AnalyzePowerBalance(coalitions, g.coalition)
	summary := summarize(args)

	return model.LegislativeBrief{
		ID:          g.newID(),
		BillID:      billID,
		GeneratedAt: g.now(),
		Summary:     summary,
		KeyArguments: model.KeyArguments{
			Support: strongest(args, model.PositionSupport, g.keyArguments),
			Oppose:  strongest(args, model.PositionOppose, g.keyArguments),
		},
		Clusters:        clusters,
		Coalitions:      coalitions,
		Recommendations: recommend(summary, clusters, args, balance),
		PowerBalance:    balance,
		Format:          f,
		Principles:      model.DefaultPrinciples(),
	}, nil
}

func summarize(args []model.Argument) model.BriefSummary {
	s := model.BriefSummary{TotalArguments: len(args)}
	if len(args) == 0 {
		return s
	}

	unique := make(map[string]struct{})
	var support, oppose int
	for _, a := range args {
		for _, c := range a.Claims {
			key := strings.Join(text.Words(c.Text), " ")
			if key != "" {
				unique[key] = struct{}{}
			}
		}
		switch a.Position {
		case model.PositionSupport:
			support++
		case model.PositionOppose:
			oppose++
		}
	}

	s.UniqueClaims = len(unique)
	s.SupportPercentage = percent(support, len(args))
	s.OpposePercentage = percent(oppose, len(args))
	return s
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// strongest returns up to n arguments of one position by descending
// strength. Equal strengths keep their input order.
func strongest(args []model.Argument, pos model.Position, n int) []model.Argument {
	out := make([]model.Argument, 0, n)
	for _, a := range args {
		if a.Position == pos {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Strength > out[j].Strength
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func recommend(
	summary model.BriefSummary,
	clusters []model.ArgumentCluster,
	args []model.Argument,
	balance model.PowerBalance,
) []string {
	recs := []string{}
	if summary.TotalArguments == 0 {
		return append(recs, "No arguments were extracted; gather further public input before drawing conclusions.")
	}

	switch {
	case summary.OpposePercentage > majorityPercentage:
		recs = append(recs, fmt.Sprintf(
			"A majority of arguments (%.0f%%) oppose the bill; review the opposing clusters before the next reading.",
			summary.OpposePercentage))
	case summary.SupportPercentage > majorityPercentage:
		recs = append(recs, fmt.Sprintf(
			"A majority of arguments (%.0f%%) support the bill; confirm the supporting evidence holds under scrutiny.",
			summary.SupportPercentage))
	}

	var evidence, verified int
	var quality float64
	for _, a := range args {
		for _, e := range a.Evidence {
			evidence++
			quality += e.Quality.Score
			if e.Verified {
				verified++
			}
		}
	}
	switch {
	case evidence == 0:
		recs = append(recs, "No argument cites evidence; request supporting data from submitters.")
	case quality/float64(evidence) < weakEvidenceScore:
		recs = append(recs, fmt.Sprintf(
			"The evidence base is weak (mean quality %.2f); seek primary sources on the contested points.",
			quality/float64(evidence)))
	}

	var mixed []string
	for _, c := range clusters {
		if c.Position == model.PositionMixed {
			mixed = append(mixed, c.Name)
		}
	}
	if len(mixed) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Positions are divided within %s; hold targeted consultations on these issues.",
			strings.Join(mixed, "; ")))
	}

	if !balance.IsBalanced && balance.DominantCoalition != "" {
		recs = append(recs, fmt.Sprintf(
			"The %s holds a dominant share of engaged stakeholders; weigh minority submissions explicitly.",
			balance.DominantCoalition))
	}
	if len(balance.Marginalized) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Reach out to under-represented groups: %s.",
			strings.Join(balance.Marginalized, "; ")))
	}

	if evidence > 0 && verified == 0 {
		recs = append(recs, fmt.Sprintf(
			"None of the %d evidence items has been independently verified.", evidence))
	}
	return recs
}
