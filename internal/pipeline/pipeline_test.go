package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/argintel/internal/cache"
	"github.com/ppiankov/argintel/internal/llm"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/metrics"
	"github.com/ppiankov/argintel/internal/model"
	"github.com/ppiankov/argintel/internal/similarity"
	"github.com/ppiankov/argintel/internal/source"
	"github.com/ppiankov/argintel/internal/store"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

// mapSource serves fixed comments per bill and counts calls
type mapSource struct {
	bills map[string][]model.Comment
	err   error
	calls atomic.Int32
}

func (s *mapSource) Comments(_ context.Context, billID string) ([]model.Comment, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.Comment(nil), s.bills[billID]...), nil
}

// recordingStore counts writes and can fail them
type recordingStore struct {
	mu       sync.Mutex
	briefs   []model.LegislativeBrief
	marked   []string
	failSave error
}

func (s *recordingStore) Stakeholders(context.Context, []string) ([]model.Stakeholder, error) {
	return []model.Stakeholder{}, nil
}
func (s *recordingStore) SaveArguments(context.Context, []model.Argument) error { return s.failSave }
func (s *recordingStore) SaveClusters(context.Context, string, string, []model.ArgumentCluster) error {
	return nil
}
func (s *recordingStore) SaveCoalitions(context.Context, string, string, []model.Coalition) error {
	return nil
}
func (s *recordingStore) SaveBrief(_ context.Context, b model.LegislativeBrief) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.briefs = append(s.briefs, b)
	return nil
}
func (s *recordingStore) MarkProcessed(_ context.Context, ids []string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = append(s.marked, ids...)
	return nil
}

func billComments(billID string) []model.Comment {
	texts := []string{
		"The fuel levy will raise transport costs. According to KNBS, fuel prices rose 12% in 2025.",
		"I oppose the fuel levy. Matatu fares will double for commuters.",
		"The fuel levy hurts farmers who transport produce to market.",
		"This fuel levy is unfair to transport operators.",
		"I support the health clause. Clinics in rural areas need funding.",
		"The health clause will fund clinics. Mothers deserve better maternal care.",
		"Parliament must pass the health clause to support rural clinics.",
		"<script>alert(1)</script>",
	}
	comments := make([]model.Comment, len(texts))
	for i, txt := range texts {
		comments[i] = model.Comment{
			ID:        billID + "-c" + string(rune('1'+i)),
			BillID:    billID,
			UserID:    "u" + string(rune('1'+i)),
			Text:      txt,
			Timestamp: testNow.Add(-time.Duration(len(texts)-i) * time.Hour),
		}
	}
	return comments
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Concurrency.Workers = 2
	cfg.Concurrency.Bills = 2
	return cfg
}

func clock() time.Time { return testNow }

func TestProcessBill_PersistsEveryStage(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "argintel.db"))
	require.NoError(t, err)
	defer st.Close()

	comments := billComments("bill-1")
	require.NoError(t, st.SaveComments(ctx, comments))
	require.NoError(t, st.SaveStakeholders(ctx, []model.Stakeholder{
		{UserID: "u1", Region: "Nairobi", Sector: "transport"},
		{UserID: "u5", Region: "Kisumu", Sector: "health"},
	}))

	p := New(testConfig(), source.NewStoreSource(st), WithStore(st), WithClock(clock))
	res, err := p.ProcessBill(ctx, "bill-1")
	require.NoError(t, err)

	assert.Equal(t, "bill-1", res.BillID)
	assert.Equal(t, len(comments), res.Comments)
	assert.Equal(t, []string{"bill-1-c8"}, res.Failed, "markup-only comment is skipped")
	require.Len(t, res.Arguments, len(comments)-1)
	for _, a := range res.Arguments {
		require.NotNil(t, a.ProcessedAt)
		assert.Equal(t, testNow, *a.ProcessedAt)
	}
	assert.NotEmpty(t, res.Clusters)
	assert.Equal(t, model.FormatMarkdown, res.Brief.Format)
	assert.Equal(t, testNow, res.Brief.GeneratedAt)
	assert.Equal(t, len(res.Arguments), res.Brief.Summary.TotalArguments)
	assert.Nil(t, res.Brief.Narrative, "no LLM configured")
	assert.False(t, res.Cached)

	saved, err := st.FindArgumentsByBill(ctx, "bill-1")
	require.NoError(t, err)
	assert.Len(t, saved, len(res.Arguments))

	clusters, err := st.FindClustersByBill(ctx, "bill-1")
	require.NoError(t, err)
	assert.Len(t, clusters, len(res.Clusters))

	latest, err := st.LatestBrief(ctx, "bill-1")
	require.NoError(t, err)
	assert.Equal(t, res.Brief.ID, latest.ID)

	pending, err := st.UnprocessedComments(ctx, "bill-1")
	require.NoError(t, err)
	assert.Empty(t, pending, "every fetched comment is marked processed")
}

func TestProcessBill_LaterBatchKeepsEarlierRun(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(filepath.Join(t.TempDir(), "argintel.db"))
	require.NoError(t, err)
	defer st.Close()

	require.NoError(t, st.SaveComments(ctx, billComments("bill-1")))
	p := New(testConfig(), source.NewStoreSource(st), WithStore(st), WithClock(clock))
	first, err := p.ProcessBill(ctx, "bill-1")
	require.NoError(t, err)
	require.NotEmpty(t, first.Clusters)

	require.NoError(t, st.SaveComments(ctx, []model.Comment{
		{ID: "bill-1-d1", BillID: "bill-1", UserID: "u21", Text: "The housing deduction burdens workers."},
		{ID: "bill-1-d2", BillID: "bill-1", UserID: "u22", Text: "Workers reject the housing deduction."},
		{ID: "bill-1-d3", BillID: "bill-1", UserID: "u23", Text: "The housing deduction must be reduced."},
	}))
	second, err := p.ProcessBill(ctx, "bill-1")
	require.NoError(t, err)
	assert.Equal(t, 3, second.Comments, "only unprocessed comments are fetched")
	require.NotEqual(t, first.Brief.ID, second.Brief.ID)

	latest, err := st.FindClustersByBill(ctx, "bill-1")
	require.NoError(t, err)
	assert.ElementsMatch(t, clusterIDs(second.Clusters), clusterIDs(latest))

	earlier, err := st.FindClustersByRun(ctx, first.Brief.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, clusterIDs(first.Clusters), clusterIDs(earlier))

	earlierCoalitions, err := st.FindCoalitionsByRun(ctx, first.Brief.ID)
	require.NoError(t, err)
	assert.Len(t, earlierCoalitions, len(first.Coalitions))

	member := first.Clusters[0].Arguments[0]
	id, err := st.ClusterOf(ctx, member)
	require.NoError(t, err)
	assert.Equal(t, first.Clusters[0].ID, id)
}

func clusterIDs(clusters []model.ArgumentCluster) []string {
	ids := make([]string, len(clusters))
	for i, c := range clusters {
		ids[i] = c.ID
	}
	return ids
}

func TestProcessBill_NoArguments(t *testing.T) {
	rec := &recordingStore{}
	src := &mapSource{bills: map[string][]model.Comment{
		"markup": {{ID: "c1", BillID: "markup", UserID: "u1", Text: "<script>alert(1)</script>"}},
	}}
	p := New(testConfig(), src, WithStore(rec), WithClock(clock))

	_, err := p.ProcessBill(context.Background(), "markup")
	assert.True(t, errors.Is(err, ErrNoArguments))

	_, err = p.ProcessBill(context.Background(), "empty")
	assert.True(t, errors.Is(err, ErrNoArguments))

	assert.Empty(t, rec.briefs)
	assert.Empty(t, rec.marked)
}

func TestProcessBill_EmptyCorpusPersistsNothing(t *testing.T) {
	rec := &recordingStore{}
	src := &mapSource{bills: map[string][]model.Comment{
		"bill-1": {
			{ID: "c1", BillID: "bill-1", UserID: "u1", Text: "It is what it is."},
			{ID: "c2", BillID: "bill-1", UserID: "u2", Text: "They did it so."},
		},
	}}
	p := New(testConfig(), src, WithStore(rec), WithClock(clock))

	_, err := p.ProcessBill(context.Background(), "bill-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, similarity.ErrEmptyCorpus))
	assert.Empty(t, rec.briefs)
	assert.Empty(t, rec.marked)
}

func TestProcessBill_SourceAndPersistErrors(t *testing.T) {
	boom := errors.New("repository down")
	p := New(testConfig(), &mapSource{err: boom})
	_, err := p.ProcessBill(context.Background(), "bill-1")
	assert.True(t, errors.Is(err, boom))
	assert.Contains(t, err.Error(), "fetch comments")

	rec := &recordingStore{failSave: errors.New("disk full")}
	src := &mapSource{bills: map[string][]model.Comment{"bill-1": billComments("bill-1")}}
	p = New(testConfig(), src, WithStore(rec), WithClock(clock))
	_, err = p.ProcessBill(context.Background(), "bill-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save arguments")
	assert.Empty(t, rec.marked)
}

func TestProcessBill_CachedResult(t *testing.T) {
	rec := &recordingStore{}
	src := &mapSource{bills: map[string][]model.Comment{"bill-1": billComments("bill-1")}}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	p := New(testConfig(), src, WithStore(rec), WithCache(c), WithClock(clock))

	first, err := p.ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)
	second, err := p.ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Brief.ID, second.Brief.ID)
	assert.Equal(t, first.Brief.Summary, second.Brief.Summary)
	assert.Len(t, rec.briefs, 1, "cached results are not persisted again")
	assert.Len(t, rec.marked, 2*len(billComments("bill-1")))

	// A config change is a different analysis
	cfg := testConfig()
	cfg.Brief.KeyArguments = 1
	third, err := New(cfg, src, WithCache(c), WithClock(clock)).ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)
	assert.False(t, third.Cached)
}

func TestProcessBill_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	src := &mapSource{bills: map[string][]model.Comment{"bill-1": billComments("bill-1")}}
	p := New(testConfig(), src, WithMetrics(metrics.New(reg)), WithClock(clock))

	_, err := p.ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["argintel_comments_processed_total"])
	assert.True(t, names["argintel_stage_duration_seconds"])
	assert.True(t, names["argintel_briefs_generated_total"])
}

func TestProcessBill_Narrative(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/models" {
			_ = json.NewEncoder(w).Encode(openai.ModelsList{Models: []openai.Model{{ID: "gpt-4o-mini"}}})
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "gpt-4o-mini",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Most commenters oppose the fuel levy."},
			}},
			Usage: openai.Usage{TotalTokens: 42},
		})
	}))
	defer server.Close()

	summarizer, err := llm.NewSummarizer(llm.Config{
		Provider:       "openai",
		APIKey:         "test-key",
		BaseURL:        server.URL,
		Timeout:        5 * time.Second,
		StrictEvidence: true,
	}, logging.NewNop())
	require.NoError(t, err)

	src := &mapSource{bills: map[string][]model.Comment{"bill-1": billComments("bill-1")}}
	p := New(testConfig(), src, WithSummarizer(summarizer), WithClock(clock))
	res, err := p.ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)

	require.NotNil(t, res.Brief.Narrative)
	assert.True(t, res.Brief.Narrative.Enabled)
	assert.Equal(t, "Most commenters oppose the fuel levy.", res.Brief.Narrative.Text)

	without, err := New(testConfig(), src, WithClock(clock)).ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)
	assert.Equal(t, without.Brief.Summary, res.Brief.Summary, "the narrative never changes the brief")
	assert.Equal(t, without.Brief.Recommendations, res.Brief.Recommendations)
}

func TestProcessBills(t *testing.T) {
	src := &mapSource{bills: map[string][]model.Comment{
		"bill-1": billComments("bill-1"),
		"bill-3": billComments("bill-3"),
	}}
	p := New(testConfig(), src, WithClock(clock))

	outcomes, err := p.ProcessBills(context.Background(), []string{"bill-1", "bill-2", "bill-3"})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "bill-1", outcomes[0].BillID)
	require.NoError(t, outcomes[0].Err)
	assert.Equal(t, "bill-1", outcomes[0].Result.Brief.BillID)

	assert.Equal(t, "bill-2", outcomes[1].BillID)
	assert.True(t, errors.Is(outcomes[1].Err, ErrNoArguments))
	assert.Nil(t, outcomes[1].Result)

	require.NoError(t, outcomes[2].Err)
	assert.Equal(t, "bill-3", outcomes[2].Result.Brief.BillID)
}

func TestProcessBills_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &mapSource{bills: map[string][]model.Comment{"bill-1": billComments("bill-1")}}
	outcomes, err := New(testConfig(), src).ProcessBills(ctx, []string{"bill-1", "bill-2"})
	assert.ErrorIs(t, err, context.Canceled)
	for _, o := range outcomes {
		assert.Error(t, o.Err)
	}
}

func TestWriteOutputs(t *testing.T) {
	src := &mapSource{bills: map[string][]model.Comment{"bill-1": billComments("bill-1")}}
	p := New(testConfig(), src, WithClock(clock))
	res, err := p.ProcessBill(context.Background(), "bill-1")
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := p.WriteOutputs(res, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "bill-1.json"),
		filepath.Join(dir, "bill-1.md"),
	}, paths)

	md, err := os.ReadFile(filepath.Join(dir, "bill-1.md"))
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Legislative Brief: bill-1")

	res.Brief.Narrative = &model.Narrative{Enabled: true, Provider: "openai", Text: "Prose."}
	paths, err = p.WriteOutputs(res, dir)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	narrative, err := os.ReadFile(paths[2])
	require.NoError(t, err)
	assert.Contains(t, string(narrative), "Prose.")

	res.Brief.Format = model.FormatPDF
	_, err = p.WriteOutputs(res, dir)
	assert.Error(t, err, "no pdf renderer registered")
}
