// Package pipeline runs the argument analysis of a bill end to end: it reads
// the bill's comments, extracts arguments, clusters them, detects coalitions,
// generates the brief and persists every intermediate result.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/argintel/internal/brief"
	"github.com/ppiankov/argintel/internal/cache"
	"github.com/ppiankov/argintel/internal/classify"
	"github.com/ppiankov/argintel/internal/cluster"
	"github.com/ppiankov/argintel/internal/coalition"
	"github.com/ppiankov/argintel/internal/extract"
	"github.com/ppiankov/argintel/internal/llm"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/metrics"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/render"
	"github.com/ppiankov/argintel/internal/score"
	"github.com/ppiankov/argintel/internal/source"
)

// ErrNoArguments is returned when none of a bill's comments yields an argument
var ErrNoArguments = errors.New("no arguments extracted")

// Pipeline stage names used for timings
const (
	StageFetch     = "fetch"
	StageExtract   = "extract"
	StageCluster   = "cluster"
	StageCoalition = "coalition"
	StageBrief     = "brief"
	StageNarrative = "narrative"
	StagePersist   = "persist"
)

// Store persists pipeline results. *store.Store satisfies it.
type Store interface {
	Stakeholders(ctx context.Context, userIDs []string) ([]model.Stakeholder, error)
	SaveArguments(ctx context.Context, args []model.Argument) error
	SaveClusters(ctx context.Context, runID, billID string, clusters []model.ArgumentCluster) error
	SaveCoalitions(ctx context.Context, runID, billID string, coalitions []model.Coalition) error
	SaveBrief(ctx context.Context, b model.LegislativeBrief) error
	MarkProcessed(ctx context.Context, commentIDs []string, at time.Time) error
}

// Result is the complete analysis of one bill
type Result struct {
	BillID     string                  `json:"bill_id"`
	Comments   int                     `json:"comments"`
	Failed     []string                `json:"failed,omitempty"` // Comment IDs that yielded no argument
	Arguments  []model.Argument        `json:"arguments"`
	Clusters   []model.ArgumentCluster `json:"clusters"`
	Coalitions []model.Coalition       `json:"coalitions"`
	Brief      model.LegislativeBrief  `json:"brief"`
	Cached     bool                    `json:"-"`
}

// Outcome is the result of one bill in a batch
type Outcome struct {
	BillID string
	Result *Result
	Err    error
}

// Pipeline orchestrates the analysis of bills
type Pipeline struct {
	source     source.CommentSource
	store      Store
	extractor  *extract.Extractor
	engine     *cluster.Engine
	detector   *coalition.Detector
	generator  *brief.Generator
	summarizer *llm.Summarizer
	renderers  *render.Registry
	cache      cache.Cache
	metrics    *metrics.Metrics
	logger     logging.Logger
	config     *model.Config
	clusterOpt cluster.Options
	configKey  string
	now        func() time.Time
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithStore persists results. Without a store nothing is saved and no
// stakeholder profiles are available.
func WithStore(st Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithCache caches bill results keyed by comments and configuration
func WithCache(c cache.Cache) Option {
	return func(p *Pipeline) { p.cache = c }
}

// WithMetrics records stage timings and counts
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithSummarizer replaces the summarizer built from the LLM config
func WithSummarizer(s *llm.Summarizer) Option {
	return func(p *Pipeline) { p.summarizer = s }
}

// WithRenderers replaces the default renderer registry
func WithRenderers(r *render.Registry) Option {
	return func(p *Pipeline) { p.renderers = r }
}

// WithLogger sets the logger
func WithLogger(l logging.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock sets the clock used for timestamps
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline reading comments from src
func New(cfg *model.Config, src source.CommentSource, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:    src,
		cache:     cache.Nop{},
		logger:    logging.NewNop(),
		config:    cfg,
		now:       time.Now,
		configKey: configKey(cfg),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("pipeline")

	scorer := score.NewScorer(score.NewAuthorityClassifier(&cfg.Authority), p.now)
	p.extractor = extract.NewExtractor(
		classify.New(nil, cfg.Classifier),
		scorer,
		extract.WithWorkers(cfg.Concurrency.Workers),
		extract.WithClock(p.now),
		extract.WithLogger(p.logger),
	)
	p.engine = cluster.NewEngine(cluster.ThresholdsFromConfig(cfg.Clustering), p.logger)
	p.clusterOpt = cluster.OptionsFromConfig(cfg.Clustering)
	p.detector = coalition.NewDetector(cfg.Coalition, p.logger)
	p.generator = brief.NewGenerator(cfg.Brief, cfg.Coalition, brief.WithClock(p.now))

	if p.summarizer == nil && cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg.LLM), p.logger)
		if err != nil {
			p.logger.Warn("LLM provider unavailable, narratives disabled",
				logging.String("provider", cfg.LLM.Provider), logging.Err(err))
		} else {
			p.summarizer = s
		}
	}
	if p.renderers == nil {
		p.renderers = render.NewRegistry(true)
	}
	return p
}

// ProcessBill analyzes the bill's comments. Clustering failures abort the
// bill before anything is persisted.
func (p *Pipeline) ProcessBill(ctx context.Context, billID string) (*Result, error) {
	log := p.logger.With(logging.String("bill_id", billID))

	start := time.Now()
	comments, err := p.source.Comments(ctx, billID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments: %w", err)
	}
	p.metrics.ObserveStage(StageFetch, time.Since(start))
	if len(comments) == 0 {
		return nil, fmt.Errorf("bill %s has no comments: %w", billID, ErrNoArguments)
	}

	key := cache.Key("result", billID, p.configKey, commentsKey(comments))
	if cached, ok := cache.Load[Result](p.cache, key); ok {
		log.Info("using cached result", logging.Int("comments", len(comments)))
		if p.store != nil {
			if err := p.store.MarkProcessed(ctx, commentIDs(comments), p.now().UTC()); err != nil {
				return nil, fmt.Errorf("mark processed: %w", err)
			}
		}
		cached.Cached = true
		return &cached, nil
	}

	start = time.Now()
	args, failures := p.extractor.ExtractBatch(ctx, comments)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.metrics.ObserveStage(StageExtract, time.Since(start))
	p.metrics.RecordComments(len(args), len(failures))
	if len(args) == 0 {
		return nil, fmt.Errorf("bill %s: %w", billID, ErrNoArguments)
	}
	processed := p.now().UTC()
	for i := range args {
		args[i].ProcessedAt = &processed
	}

	start = time.Now()
	clusters, err := p.engine.ClusterArguments(ctx, args, p.clusterOpt)
	if err != nil {
		return nil, fmt.Errorf("cluster arguments: %w", err)
	}
	p.metrics.ObserveStage(StageCluster, time.Since(start))

	start = time.Now()
	stakeholders, err := p.stakeholders(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("load stakeholders: %w", err)
	}
	coalitions := p.detector.Detect(clusters, args, stakeholders)
	p.metrics.ObserveStage(StageCoalition, time.Since(start))

	start = time.Now()
	format := model.BriefFormat(p.config.Brief.Format)
	b, err := p.generator.GenerateBrief(billID, clusters, coalitions, args, format)
	if err != nil {
		return nil, fmt.Errorf("generate brief: %w", err)
	}
	p.metrics.ObserveStage(StageBrief, time.Since(start))

	if p.summarizer.IsEnabled() {
		start = time.Now()
		narrative, err := p.summarizer.GenerateNarrative(ctx, b)
		if err != nil {
			log.Warn("narrative skipped", logging.Err(err))
		}
		b.Narrative = narrative
		p.metrics.ObserveStage(StageNarrative, time.Since(start))
	}

	result := &Result{
		BillID:     billID,
		Comments:   len(comments),
		Failed:     failedIDs(failures),
		Arguments:  args,
		Clusters:   b.Clusters,
		Coalitions: b.Coalitions,
		Brief:      b,
	}

	if p.store != nil {
		start = time.Now()
		if err := p.persist(ctx, result, comments); err != nil {
			return nil, fmt.Errorf("persist: %w", err)
		}
		p.metrics.ObserveStage(StagePersist, time.Since(start))
	}

	p.metrics.RecordRun(len(clusters), len(coalitions), string(b.Format))
	if err := cache.Store(p.cache, key, result, 0); err != nil {
		log.Warn("caching result failed", logging.Err(err))
	}

	log.Info("bill processed",
		logging.Int("comments", len(comments)),
		logging.Int("arguments", len(args)),
		logging.Int("failed", len(failures)),
		logging.Int("clusters", len(clusters)),
		logging.Int("coalitions", len(coalitions)),
	)
	return result, nil
}

// ProcessBills analyzes bills concurrently, at most Concurrency.Bills at a
// time. Each bill fails independently; outcomes keep the order of billIDs.
func (p *Pipeline) ProcessBills(ctx context.Context, billIDs []string) ([]Outcome, error) {
	outcomes := make([]Outcome, len(billIDs))

	g, ctx := errgroup.WithContext(ctx)
	limit := p.config.Concurrency.Bills
	if limit < 1 {
		limit = 1
	}
	g.SetLimit(limit)

	for i, id := range billIDs {
		i, id := i, id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				outcomes[i] = Outcome{BillID: id, Err: err}
				return err
			}
			res, err := p.ProcessBill(ctx, id)
			outcomes[i] = Outcome{BillID: id, Result: res, Err: err}
			if err != nil {
				p.logger.Error("bill failed", logging.String("bill_id", id), logging.Err(err))
			}
			return nil
		})
	}
	return outcomes, g.Wait()
}

// WriteOutputs renders a result into dir: the brief in its configured
// format, a JSON copy, and the narrative as a separate file when present.
// It returns the written paths.
func (p *Pipeline) WriteOutputs(res *Result, dir string) ([]string, error) {
	base := filepath.Join(dir, res.BillID)
	var written []string

	jsonPath := base + ".json"
	if err := render.WriteFile(jsonPath, render.JSONRenderer{}, res.Brief); err != nil {
		return written, fmt.Errorf("render json: %w", err)
	}
	written = append(written, jsonPath)

	briefPath := base + render.Extension(res.Brief.Format)
	if err := render.WriteFile(briefPath, p.renderers, res.Brief); err != nil {
		return written, fmt.Errorf("render %s: %w", res.Brief.Format, err)
	}
	written = append(written, briefPath)

	if n := res.Brief.Narrative; n != nil && n.Enabled {
		narrativePath := base + ".llm.md"
		md := llm.RenderSeparateMarkdown(n)
		if err := render.WriteFile(narrativePath, render.RendererFunc(func(w io.Writer, _ model.LegislativeBrief) error {
			_, err := io.WriteString(w, md)
			return err
		}), res.Brief); err != nil {
			p.logger.Warn("writing narrative failed", logging.String("path", narrativePath), logging.Err(err))
		} else {
			written = append(written, narrativePath)
		}
	}
	return written, nil
}

// persist saves one run. The brief ID identifies the run its clusters and
// coalitions belong to.
func (p *Pipeline) persist(ctx context.Context, res *Result, comments []model.Comment) error {
	runID := res.Brief.ID
	if err := p.store.SaveArguments(ctx, res.Arguments); err != nil {
		return fmt.Errorf("save arguments: %w", err)
	}
	if err := p.store.SaveClusters(ctx, runID, res.BillID, res.Clusters); err != nil {
		return fmt.Errorf("save clusters: %w", err)
	}
	if err := p.store.SaveCoalitions(ctx, runID, res.BillID, res.Coalitions); err != nil {
		return fmt.Errorf("save coalitions: %w", err)
	}
	if err := p.store.SaveBrief(ctx, res.Brief); err != nil {
		return fmt.Errorf("save brief: %w", err)
	}

	if err := p.store.MarkProcessed(ctx, commentIDs(comments), p.now().UTC()); err != nil {
		return fmt.Errorf("mark processed: %w", err)
	}
	return nil
}

func (p *Pipeline) stakeholders(ctx context.Context, args []model.Argument) ([]model.Stakeholder, error) {
	if p.store == nil {
		return nil, nil
	}
	seen := make(map[string]bool)
	var users []string
	for _, a := range args {
		if a.UserID != "" && !seen[a.UserID] {
			seen[a.UserID] = true
			users = append(users, a.UserID)
		}
	}
	sort.Strings(users)
	return p.store.Stakeholders(ctx, users)
}

func commentIDs(comments []model.Comment) []string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}

func failedIDs(failures []extract.Failure) []string {
	if len(failures) == 0 {
		return nil
	}
	ids := make([]string, len(failures))
	for i, f := range failures {
		ids[i] = f.CommentID
	}
	return ids
}

// commentsKey identifies a comment set by content
func commentsKey(comments []model.Comment) string {
	parts := make([]string, 0, 2*len(comments))
	for _, c := range comments {
		parts = append(parts, c.ID, c.UserID+"\x01"+c.Text)
	}
	return cache.Key(parts...)
}

// configKey covers every setting that changes analysis output
func configKey(cfg *model.Config) string {
	data, _ := json.Marshal(struct {
		Classifier model.ClassifierConfig
		Clustering model.ClusteringConfig
		Coalition  model.CoalitionConfig
		Brief      model.BriefConfig
		Authority  model.AuthorityConfig
		LLM        string
	}{cfg.Classifier, cfg.Clustering, cfg.Coalition, cfg.Brief, cfg.Authority, cfg.LLM.Provider + "/" + cfg.LLM.Model})
	return cache.Key(string(data))
}
