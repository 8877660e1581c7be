package cluster

import (
	"github.com/ppiankov/argintel/internal/model"
)

// Thresholds decide a cluster's position from the shares of its members
type Thresholds struct {
	Majority float64 // A share above this makes the cluster support or oppose
	Minority float64 // Both shares below this make the cluster neutral
}

// DefaultThresholds returns the 0.7 / 0.3 rule
func DefaultThresholds() Thresholds {
	return Thresholds{Majority: 0.7, Minority: 0.3}
}

// ThresholdsFromConfig reads the position thresholds from configuration.
// Zero is a valid share: a zero minority share never yields neutral.
func ThresholdsFromConfig(cfg model.ClusteringConfig) Thresholds {
	return Thresholds{Majority: cfg.MajorityShare, Minority: cfg.MinorityShare}
}

// DeterminePosition labels a group of arguments: support or oppose when that
// share exceeds the majority threshold, neutral when both shares are below
// the minority threshold, mixed otherwise. An empty group is neutral.
func DeterminePosition(args []model.Argument, t Thresholds) model.Position {
	if len(args) == 0 {
		return model.PositionNeutral
	}

	var support, oppose int
	for _, a := range args {
		switch a.Position {
		case model.PositionSupport:
			support++
		case model.PositionOppose:
			oppose++
		}
	}
	n := float64(len(args))
	supportShare, opposeShare := float64(support)/n, float64(oppose)/n

	switch {
	case supportShare > t.Majority:
		return model.PositionSupport
	case opposeShare > t.Majority:
		return model.PositionOppose
	case supportShare < t.Minority && opposeShare < t.Minority:
		return model.PositionNeutral
	default:
		return model.PositionMixed
	}
}

// ClusterByPosition splits arguments by their own position into exactly
// three clusters, Support, Oppose and Neutral, in that order. No similarity
// is computed; members agree by construction, so cohesion is 1.
func ClusterByPosition(billID string, args []model.Argument) []model.ArgumentCluster {
	buckets := []struct {
		name     string
		position model.Position
	}{
		{"Support", model.PositionSupport},
		{"Oppose", model.PositionOppose},
		{"Neutral", model.PositionNeutral},
	}

	clusters := make([]model.ArgumentCluster, 0, len(buckets))
	for _, b := range buckets {
		ids := []string{}
		var memberArgs []model.Argument
		for _, a := range args {
			p := a.Position
			if p != model.PositionSupport && p != model.PositionOppose {
				p = model.PositionNeutral
			}
			if p == b.position {
				ids = append(ids, a.ID)
				memberArgs = append(memberArgs, a)
			}
		}
		clusters = append(clusters, model.ArgumentCluster{
			ID:                   model.StableID(billID, "position", string(b.position)),
			BillID:               billID,
			Name:                 b.name,
			Description:          describe(len(ids), b.position, nil),
			Arguments:            ids,
			RepresentativeClaims: topClaims(memberArgs, representativeClaims),
			Size:                 len(ids),
			Cohesion:             1,
			Position:             b.position,
		})
	}
	return clusters
}
