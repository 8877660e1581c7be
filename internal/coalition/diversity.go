package coalition

import (
	"math"
	"strings"

	"github.com/ppiankov/argintel/internal/model"
)

// population indexes stakeholder metadata and the number of distinct values
// each attribute takes across all stakeholders
type population struct {
	byUser     map[string]model.Stakeholder
	categories [3]int // region, demographic, sector
}

func newPopulation(stakeholders []model.Stakeholder) *population {
	p := &population{byUser: make(map[string]model.Stakeholder, len(stakeholders))}
	seen := [3]map[string]bool{{}, {}, {}}
	for _, s := range stakeholders {
		if s.UserID == "" {
			continue
		}
		p.byUser[s.UserID] = s
		for dim, v := range attributes(s) {
			if v != "" {
				seen[dim][v] = true
			}
		}
	}
	for dim := range seen {
		p.categories[dim] = len(seen[dim])
	}
	return p
}

func attributes(s model.Stakeholder) [3]string {
	norm := func(v string) string { return strings.ToLower(strings.TrimSpace(v)) }
	return [3]string{norm(s.Region), norm(s.Demographic), norm(s.Sector)}
}

// diversity returns the normalized Shannon entropy of each attribute over the
// given users and the number of users with metadata. Entropy is normalized
// by the log of the attribute's category count in the whole population, so
// a coalition spanning every region scores 1. Attributes with fewer than two
// categories in the population score 0.
func (p *population) diversity(users []string) (model.DiversityMetrics, int) {
	counts := [3]map[string]int{{}, {}, {}}
	profiled := 0
	for _, u := range users {
		s, ok := p.byUser[u]
		if !ok {
			continue
		}
		profiled++
		for dim, v := range attributes(s) {
			if v != "" {
				counts[dim][v]++
			}
		}
	}

	var scores [3]float64
	for dim := range counts {
		scores[dim] = normalizedEntropy(counts[dim], p.categories[dim])
	}

	return model.DiversityMetrics{
		Geographic:  scores[0],
		Demographic: scores[1],
		Sectoral:    scores[2],
		Overall:     (scores[0] + scores[1] + scores[2]) / 3,
	}, profiled
}

func normalizedEntropy(counts map[string]int, categories int) float64 {
	if categories < 2 {
		return 0
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}

	var h float64
	for _, n := range counts {
		if n == 0 {
			continue
		}
		p := float64(n) / float64(total)
		h -= p * math.Log(p)
	}
	return clamp01(h / math.Log(float64(categories)))
}
