package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/argintel/internal/cache"
	"github.com/ppiankov/argintel/internal/logging"
	"github.com/ppiankov/argintel/internal/metrics"
	"github.com/ppiankov/argintel/internal/pipeline"
	"github.com/ppiankov/argintel/internal/render"
	"github.com/ppiankov/argintel/internal/source"
)

var (
	billID      string
	outputDir   string
	metricsAddr string
	timeout     time.Duration
	noCache     bool
	noFooter    bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Analyze the comments on one bill and write its brief",
	Long: `Process runs the full analysis for one bill:
- Read the bill's comments from the configured source
- Extract claims, evidence, position and strength per comment
- Cluster related arguments and detect stakeholder coalitions
- Generate the legislative brief and persist every result

Example:
  argintel process --bill finance-bill-2025
  argintel process --bill finance-bill-2025 --source file --source-path comments.jsonl
  argintel process --bill finance-bill-2025 --metrics-addr :9090`,
	RunE: runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&billID, "bill", "", "bill identifier (required)")
	_ = processCmd.MarkFlagRequired("bill")
	addRunFlags(processCmd)
}

// addRunFlags registers the flags shared by process and batch
func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&outputDir, "output-dir", "./argintel-briefs", "output directory for briefs")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "total timeout")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh analysis)")
	cmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable principles footer in Markdown briefs")
	cmd.Flags().String("source", "", "comment source (store, file, http)")
	cmd.Flags().String("source-path", "", "JSON-lines comment file for --source file")
	cmd.Flags().String("source-url", "", "comment API base URL for --source http")
	cmd.Flags().String("format", "", "brief format (markdown, pdf, word)")
	cmd.Flags().String("llm-provider", "", "LLM provider for the optional narrative (openai, ollama)")
	cmd.Flags().String("llm-model", "", "LLM model name")
	cmd.PreRunE = bindRunFlags
}

// bindRunFlags binds the running command's flags to config keys. Binding
// happens at run time because process and batch share the keys.
func bindRunFlags(cmd *cobra.Command, args []string) error {
	for key, flag := range map[string]string{
		"source.kind":     "source",
		"source.path":     "source-path",
		"source.base_url": "source-url",
		"brief.format":    "format",
		"llm.provider":    "llm-provider",
		"llm.model":       "llm-model",
	} {
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return fmt.Errorf("bind --%s: %w", flag, err)
		}
	}
	return nil
}

// runner is a configured pipeline with its collaborators
type runner struct {
	*env
	pipeline *pipeline.Pipeline
	ctx      context.Context
	cancel   context.CancelFunc
}

func newRunner() (*runner, error) {
	e, err := setup()
	if err != nil {
		return nil, err
	}
	if noCache {
		e.cfg.Cache.Enabled = false
		e.cache = cache.Nop{}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	r := &runner{env: e, ctx: ctx, cancel: cancel}

	opts := []pipeline.Option{
		pipeline.WithStore(e.store),
		pipeline.WithCache(e.cache),
		pipeline.WithLogger(e.logger),
		pipeline.WithRenderers(render.NewRegistry(!noFooter)),
	}

	addr := metricsAddr
	if addr == "" {
		addr = e.cfg.Metrics.Addr
	}
	if addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		opts = append(opts, pipeline.WithMetrics(metrics.New(reg)))
		go func() {
			if err := metrics.Serve(ctx, addr, reg, e.logger); err != nil {
				e.logger.Error("metrics endpoint failed", logging.Err(err))
			}
		}()
	}

	src, err := source.New(e.cfg.Source, e.store, e.cache, e.logger)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("comment source: %w", err)
	}
	r.pipeline = pipeline.New(e.cfg, src, opts...)
	return r, nil
}

func (r *runner) Close() {
	r.cancel()
	r.env.Close()
}

func runProcess(cmd *cobra.Command, args []string) error {
	r, err := newRunner()
	if err != nil {
		return err
	}
	defer r.Close()

	res, err := r.pipeline.ProcessBill(r.ctx, billID)
	if err != nil {
		return fmt.Errorf("process %s: %w", billID, err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	paths, err := r.pipeline.WriteOutputs(res, outputDir)
	for _, p := range paths {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Wrote %s\n", p)
	}
	if err != nil {
		return fmt.Errorf("write brief: %w", err)
	}

	printSummary(cmd.ErrOrStderr(), res)
	return nil
}

// printSummary writes a short human summary of a result
func printSummary(w io.Writer, res *pipeline.Result) {
	b := res.Brief
	cached := ""
	if res.Cached {
		cached = " (cached)"
	}
	fmt.Fprintf(w, "\n  Bill:         %s%s\n", res.BillID, cached)
	fmt.Fprintf(w, "  Comments:     %d (%d skipped)\n", res.Comments, len(res.Failed))
	fmt.Fprintf(w, "  Arguments:    %d (%d unique claims)\n", b.Summary.TotalArguments, b.Summary.UniqueClaims)
	fmt.Fprintf(w, "  Support:      %.0f%%\n", b.Summary.SupportPercentage)
	fmt.Fprintf(w, "  Oppose:       %.0f%%\n", b.Summary.OpposePercentage)
	fmt.Fprintf(w, "  Issues:       %d\n", len(b.Clusters))
	fmt.Fprintf(w, "  Coalitions:   %d\n", len(b.Coalitions))
	if b.PowerBalance.IsBalanced {
		fmt.Fprintf(w, "  Balance:      balanced\n")
	} else {
		fmt.Fprintf(w, "  Balance:      dominated by %s\n", b.PowerBalance.DominantCoalition)
	}
	if n := b.Narrative; n != nil {
		for _, warning := range n.Warnings {
			fmt.Fprintf(w, "  LLM:          %s\n", warning)
		}
	}
	fmt.Fprintln(w)
}
