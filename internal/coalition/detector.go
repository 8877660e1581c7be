// Package coalition groups argument clusters that share interests into
// coalitions and summarizes the balance of power between them.
package coalition

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/similarity"
	"github.com/ppiankov/argintel/internal/text"
)

const maxSharedInterests = 10

// Detector finds coalitions among the clusters of one bill
type Detector struct {
	cfg    model.CoalitionConfig
	logger logging.Logger
}

// NewDetector creates a detector with the given thresholds. Zero is a
// valid threshold.
func NewDetector(cfg model.CoalitionConfig, logger logging.Logger) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Detector{cfg: cfg, logger: logger}
}

// Config returns the effective thresholds
func (d *Detector) Config() model.CoalitionConfig {
	return d.cfg
}

type candidate struct {
	cluster   model.ArgumentCluster
	interests []string
	users     []string
	support   bool
	oppose    bool
}

type pair struct {
	a, b  int
	score float64
}

// Detect groups clusters whose interest vocabularies overlap by at least the
// interest threshold. Clusters supporting the bill are never grouped with
// clusters opposing it, even through a chain of mixed clusters. Empty
// clusters are ignored. Power is measured against every stakeholder with an
// argument in args.
func (d *Detector) Detect(clusters []model.ArgumentCluster, args []model.Argument, stakeholders []model.Stakeholder) []model.Coalition {
	argByID := make(map[string]model.Argument, len(args))
	engaged := make(map[string]bool)
	for _, a := range args {
		argByID[a.ID] = a
		if a.UserID != "" {
			engaged[a.UserID] = true
		}
	}

	var cands []candidate
	for _, c := range clusters {
		if len(c.Arguments) == 0 {
			continue
		}
		cands = append(cands, candidate{
			cluster:   c,
			interests: interestsOf(c),
			users:     usersOf(c, argByID),
			support:   c.Position == model.PositionSupport,
			oppose:    c.Position == model.PositionOppose,
		})
	}
	if len(cands) == 0 {
		return nil
	}

	// Strongest overlaps merge first so a chain cannot block a better pair
	var pairs []pair
	for i := range cands {
		for j := i + 1; j < len(cands); j++ {
			score := similarity.Jaccard(cands[i].interests, cands[j].interests)
			if score >= d.cfg.InterestThreshold && score > 0 {
				pairs = append(pairs, pair{a: i, b: j, score: score})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	uf := newUnionFind(len(cands))
	support := make([]bool, len(cands))
	oppose := make([]bool, len(cands))
	for i, c := range cands {
		support[i], oppose[i] = c.support, c.oppose
	}
	for _, p := range pairs {
		ra, rb := uf.find(p.a), uf.find(p.b)
		if ra == rb {
			continue
		}
		if (support[ra] || support[rb]) && (oppose[ra] || oppose[rb]) {
			continue
		}
		root := uf.union(ra, rb)
		support[root] = support[ra] || support[rb]
		oppose[root] = oppose[ra] || oppose[rb]
	}

	groups := make(map[int][]int)
	var roots []int
	for i := range cands {
		r := uf.find(i)
		if _, ok := groups[r]; !ok {
			roots = append(roots, r)
		}
		groups[r] = append(groups[r], i)
	}

	profiles := newPopulation(stakeholders)
	coalitions := make([]model.Coalition, 0, len(roots))
	for _, r := range roots {
		coalitions = append(coalitions, d.build(cands, groups[r], argByID, len(engaged), profiles))
	}

	sort.SliceStable(coalitions, func(i, j int) bool {
		return coalitions[i].Power > coalitions[j].Power
	})

	d.logger.Debug("coalitions detected",
		logging.Int("clusters", len(cands)),
		logging.Int("coalitions", len(coalitions)),
		logging.Int("engaged", len(engaged)),
	)
	return coalitions
}

func (d *Detector) build(cands []candidate, members []int, argByID map[string]model.Argument, engaged int, profiles *population) model.Coalition {
	billID := cands[members[0]].cluster.BillID

	var clusterIDs []string
	var argIDs []string
	userSet := make(map[string]bool)
	for _, m := range members {
		clusterIDs = append(clusterIDs, cands[m].cluster.ID)
		argIDs = append(argIDs, cands[m].cluster.Arguments...)
		for _, u := range cands[m].users {
			userSet[u] = true
		}
	}
	users := sortedKeys(userSet)

	interests := sharedInterests(cands, members)

	power := 0.0
	if engaged > 0 {
		power = float64(len(users)) / float64(engaged)
	}

	diversity, profiled := profiles.diversity(users)

	return model.Coalition{
		ID:              model.StableID(append([]string{billID, "coalition"}, clusterIDs...)...),
		BillID:          billID,
		Name:            coalitionName(cands, members, interests),
		Clusters:        clusterIDs,
		Stakeholders:    users,
		SharedInterests: interests,
		Position:        dominantPosition(argIDs, argByID),
		Power:           clamp01(power),
		Diversity:       diversity,
		Profiled:        profiled,
	}
}

// interestsOf returns the interest vocabulary of a cluster: its keywords, or
// the terms of its representative claims when it has none
func interestsOf(c model.ArgumentCluster) []string {
	if len(c.Keywords) > 0 {
		out := append([]string(nil), c.Keywords...)
		sort.Strings(out)
		return out
	}
	var parts []string
	for _, claim := range c.RepresentativeClaims {
		parts = append(parts, claim.Text)
	}
	return text.TermSet(strings.Join(parts, " "))
}

func usersOf(c model.ArgumentCluster, argByID map[string]model.Argument) []string {
	set := make(map[string]bool)
	for _, id := range c.Arguments {
		if a, ok := argByID[id]; ok && a.UserID != "" {
			set[a.UserID] = true
		}
	}
	return sortedKeys(set)
}

// sharedInterests returns the terms held by more than one member cluster,
// most common first. A single cluster shares all of its interests.
func sharedInterests(cands []candidate, members []int) []string {
	counts := make(map[string]int)
	for _, m := range members {
		for _, term := range cands[m].interests {
			counts[term]++
		}
	}

	minCount := 1
	if len(members) > 1 {
		minCount = 2
	}

	var terms []string
	for term, n := range counts {
		if n >= minCount {
			terms = append(terms, term)
		}
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > maxSharedInterests {
		terms = terms[:maxSharedInterests]
	}
	return terms
}

// dominantPosition is the majority of support and oppose among the member
// arguments, neutral on a tie or when nobody takes a side
func dominantPosition(argIDs []string, argByID map[string]model.Argument) model.Position {
	var support, oppose int
	for _, id := range argIDs {
		switch argByID[id].Position {
		case model.PositionSupport:
			support++
		case model.PositionOppose:
			oppose++
		}
	}
	switch {
	case support > oppose:
		return model.PositionSupport
	case oppose > support:
		return model.PositionOppose
	default:
		return model.PositionNeutral
	}
}

var titleCase = cases.Title(language.English)

func coalitionName(cands []candidate, members []int, interests []string) string {
	if len(interests) > 0 {
		top := interests
		if len(top) > 3 {
			top = top[:3]
		}
		return titleCase.String(strings.Join(top, ", ")) + " coalition"
	}
	return cands[members[0]].cluster.Name + " coalition"
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

type unionFind struct {
	parent []int
	rank   []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n), rank: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

// union joins two roots and returns the new root
func (u *unionFind) union(a, b int) int {
	if u.rank[a] < u.rank[b] {
		a, b = b, a
	}
	u.parent[b] = a
	if u.rank[a] == u.rank[b] {
		u.rank[a]++
	}
	return a
}
