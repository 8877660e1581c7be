// Package metrics exposes Prometheus collectors for the argument pipeline.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ppiankov/argintel/internal/logging"
)

const namespace = "argintel"

// Comment outcome labels
const (
	StatusExtracted = "extracted"
	StatusFailed    = "failed"
)

// Metrics holds the pipeline collectors. A nil *Metrics records nothing.
type Metrics struct {
	CommentsProcessed  *prometheus.CounterVec
	ArgumentsExtracted prometheus.Counter
	StageDuration      *prometheus.HistogramVec
	ClustersPerRun     prometheus.Histogram
	CoalitionsPerRun   prometheus.Histogram
	BriefsGenerated    *prometheus.CounterVec
}

// New registers the collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CommentsProcessed: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comments_processed_total",
			Help:      "Comments run through structure extraction, by outcome",
		}, []string{"status"}),
		ArgumentsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arguments_extracted_total",
			Help:      "Arguments produced by structure extraction",
		}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per pipeline stage",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		ClustersPerRun: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "clusters_per_run",
			Help:      "Argument clusters found per bill",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}),
		CoalitionsPerRun: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "coalitions_per_run",
			Help:      "Coalitions detected per bill",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 10},
		}),
		BriefsGenerated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "briefs_generated_total",
			Help:      "Legislative briefs generated, by format",
		}, []string{"format"}),
	}
}

// RecordComments counts one batch of extraction outcomes
func (m *Metrics) RecordComments(extracted, failed int) {
	if m == nil {
		return
	}
	m.CommentsProcessed.WithLabelValues(StatusExtracted).Add(float64(extracted))
	m.CommentsProcessed.WithLabelValues(StatusFailed).Add(float64(failed))
	m.ArgumentsExtracted.Add(float64(extracted))
}

// ObserveStage records how long a stage took
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordRun records the result sizes of one bill's run
func (m *Metrics) RecordRun(clusters, coalitions int, format string) {
	if m == nil {
		return
	}
	m.ClustersPerRun.Observe(float64(clusters))
	m.CoalitionsPerRun.Observe(float64(coalitions))
	m.BriefsGenerated.WithLabelValues(format).Inc()
}

// Serve exposes /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string, g prometheus.Gatherer, logger logging.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("metrics endpoint listening", logging.String("addr", addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
