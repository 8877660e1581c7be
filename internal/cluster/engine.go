// Package cluster groups the arguments of one bill into clusters of related
// arguments and labels each cluster with its dominant position.
package cluster

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/similarity"
)

// Method selects the partitioning algorithm
type Method string

const (
	MethodKMeans       Method = "kmeans"
	MethodHierarchical Method = "hierarchical"
)

const (
	defaultMinClusterSize = 2
	defaultMaxIterations  = 100
	keywordCount          = 5
	representativeClaims  = 3
)

// Options controls one clustering run
type Options struct {
	Method         Method
	MaxClusters    int // 0 = min(10, ceil(n/5))
	MinClusterSize int // 0 = 2
	MaxIterations  int // 0 = 100
	Seed           int64
}

// OptionsFromConfig converts clustering configuration into run options
func OptionsFromConfig(cfg model.ClusteringConfig) Options {
	return Options{
		Method:         Method(cfg.Method),
		MaxClusters:    cfg.MaxClusters,
		MinClusterSize: cfg.MinClusterSize,
		MaxIterations:  cfg.MaxIterations,
		Seed:           cfg.Seed,
	}
}

func (o Options) withDefaults(n int) Options {
	if o.Method == "" {
		o.Method = MethodKMeans
	}
	if o.MinClusterSize <= 0 {
		o.MinClusterSize = defaultMinClusterSize
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = defaultMaxIterations
	}
	if o.MaxClusters <= 0 {
		o.MaxClusters = int(math.Min(10, math.Ceil(float64(n)/5)))
	}
	if o.MaxClusters > n {
		o.MaxClusters = n
	}
	if o.MaxClusters < 1 {
		o.MaxClusters = 1
	}
	return o
}

// Engine clusters arguments
type Engine struct {
	thresholds Thresholds
	logger     logging.Logger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(thresholds Thresholds, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Engine{thresholds: thresholds, logger: logger}
}

// ClusterArguments partitions the arguments of one bill. With fewer
// arguments than MinClusterSize it returns a single cluster of all of them.
// Otherwise clusters smaller than MinClusterSize are dropped, so some
// arguments may not appear in any cluster. The corpus error is returned when
// no argument has indexable text.
func (e *Engine) ClusterArguments(ctx context.Context, args []model.Argument, opts Options) ([]model.ArgumentCluster, error) {
	if len(args) == 0 {
		return nil, nil
	}
	opts = opts.withDefaults(len(args))

	texts := make([]string, len(args))
	for i, a := range args {
		texts[i] = a.Text()
	}

	if len(args) < opts.MinClusterSize {
		corpus, _ := similarity.NewCorpus(texts) // nil corpus only loses keywords
		c := e.build(args, seq(len(args)), corpus)
		if corpus != nil {
			c.Cohesion = cohesion(corpus.SimilarityMatrix(), seq(len(args)))
		}
		return []model.ArgumentCluster{c}, nil
	}

	corpus, err := similarity.NewCorpus(texts)
	if err != nil {
		return nil, fmt.Errorf("build corpus: %w", err)
	}

	sim := corpus.SimilarityMatrix()

	// Arguments without indexable terms are equally far from everything.
	// They stay out of the partition and form a group of their own.
	var indexed, blank []int
	for i := range sim {
		if sim[i][i] > 0 {
			indexed = append(indexed, i)
		} else {
			blank = append(blank, i)
		}
	}
	dist := distances(sim, indexed)

	var groups [][]int
	switch opts.Method {
	case MethodHierarchical:
		groups, err = agglomerative(ctx, dist, opts.MaxClusters)
	case MethodKMeans:
		rng := rand.New(rand.NewSource(opts.Seed))
		groups, err = kMedoids(ctx, dist, opts.MaxClusters, opts.MaxIterations, rng)
	default:
		return nil, fmt.Errorf("unknown clustering method %q", opts.Method)
	}
	if err != nil {
		return nil, fmt.Errorf("%s clustering: %w", opts.Method, err)
	}
	for _, g := range groups {
		for j, local := range g {
			g[j] = indexed[local]
		}
	}
	if len(blank) > 0 {
		groups = append(groups, blank)
	}

	var clusters []model.ArgumentCluster
	dropped := 0
	for _, g := range groups {
		if len(g) < opts.MinClusterSize {
			dropped += len(g)
			continue
		}
		c := e.build(args, g, corpus)
		c.Cohesion = cohesion(sim, g)
		clusters = append(clusters, c)
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Size > clusters[j].Size
	})

	e.logger.Debug("arguments clustered",
		logging.String("bill_id", args[0].BillID),
		logging.String("method", string(opts.Method)),
		logging.Int("arguments", len(args)),
		logging.Int("clusters", len(clusters)),
		logging.Int("unclustered", dropped),
	)
	return clusters, nil
}

// distances returns the pairwise distance matrix of the selected items.
// An item is at distance 0 from itself.
func distances(sim [][]float64, items []int) [][]float64 {
	dist := make([][]float64, len(items))
	for a, i := range items {
		dist[a] = make([]float64, len(items))
		for b, j := range items {
			if a != b {
				dist[a][b] = 1 - sim[i][j]
			}
		}
	}
	return dist
}

// build assembles a cluster of the given argument indexes. Cohesion is
// computed by the caller when similarities are known.
func (e *Engine) build(args []model.Argument, group []int, corpus *similarity.Corpus) model.ArgumentCluster {
	billID := args[group[0]].BillID
	ids := make([]string, len(group))
	memberArgs := make([]model.Argument, len(group))
	for i, idx := range group {
		ids[i] = args[idx].ID
		memberArgs[i] = args[idx]
	}

	var keywords []string
	if corpus != nil {
		keywords = corpus.TopTerms(group, keywordCount)
	}
	position := DeterminePosition(memberArgs, e.thresholds)

	return model.ArgumentCluster{
		ID:                   model.StableID(append([]string{billID, "cluster"}, ids...)...),
		BillID:               billID,
		Name:                 clusterName(keywords),
		Description:          describe(len(group), position, keywords),
		Arguments:            ids,
		RepresentativeClaims: topClaims(memberArgs, representativeClaims),
		Keywords:             keywords,
		Size:                 len(group),
		Cohesion:             1,
		Position:             position,
	}
}

// cohesion is the mean pairwise similarity of the group, 1 for a singleton
func cohesion(sim [][]float64, group []int) float64 {
	if len(group) < 2 {
		return 1
	}
	var sum float64
	pairs := 0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			sum += sim[group[i]][group[j]]
			pairs++
		}
	}
	return sum / float64(pairs)
}

// topClaims returns the n highest-confidence claims of the arguments. Ties
// keep argument order.
func topClaims(args []model.Argument, n int) []model.Claim {
	var claims []model.Claim
	for _, a := range args {
		claims = append(claims, a.Claims...)
	}
	sort.SliceStable(claims, func(i, j int) bool {
		return claims[i].Confidence > claims[j].Confidence
	})
	if len(claims) > n {
		claims = claims[:n]
	}
	return claims
}

var titleCase = cases.Title(language.English)

func clusterName(keywords []string) string {
	if len(keywords) == 0 {
		return "General comments"
	}
	top := keywords
	if len(top) > 3 {
		top = top[:3]
	}
	return titleCase.String(strings.Join(top, ", "))
}

func describe(size int, position model.Position, keywords []string) string {
	noun := "arguments"
	if size == 1 {
		noun = "argument"
	}
	desc := fmt.Sprintf("%d %s, position %s", size, noun, position)
	if len(keywords) > 0 {
		desc += "; key terms: " + strings.Join(keywords, ", ")
	}
	return desc
}
