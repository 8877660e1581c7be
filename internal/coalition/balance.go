package coalition

import (
	"github.com/ppiankov/argintel/internal/model"
)

// AnalyzePowerBalance reports whether one coalition dominates. The power
// shares are relative: the strongest coalition is dominant when its power
// exceeds the dominance threshold as a share of all coalitions' power.
// Coalitions with power below the marginal threshold, or with profiled
// stakeholders and overall diversity below the diversity threshold, are
// listed as marginalized.
func AnalyzePowerBalance(coalitions []model.Coalition, cfg model.CoalitionConfig) model.PowerBalance {
	balance := model.PowerBalance{IsBalanced: true, Marginalized: []string{}}
	if len(coalitions) == 0 {
		return balance
	}

	var total float64
	strongest := 0
	for i, c := range coalitions {
		total += c.Power
		if c.Power > coalitions[strongest].Power {
			strongest = i
		}
	}

	// A lone coalition holds every share but only dominates when others exist
	if total > 0 && len(coalitions) > 1 {
		if coalitions[strongest].Power/total > cfg.DominanceThreshold {
			balance.IsBalanced = false
			balance.DominantCoalition = coalitions[strongest].Name
		}
	}

	for _, c := range coalitions {
		lowPower := c.Power < cfg.MarginalPower
		lowDiversity := c.Profiled > 0 && c.Diversity.Overall < cfg.MarginalDiversity
		if lowPower || lowDiversity {
			balance.Marginalized = append(balance.Marginalized, c.Name)
		}
	}
	return balance
}

// AnalyzePowerBalance applies the detector's thresholds
func (d *Detector) AnalyzePowerBalance(coalitions []model.Coalition) model.PowerBalance {
	return AnalyzePowerBalance(coalitions, d.cfg)
}
