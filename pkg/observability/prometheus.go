package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus implements every hook interface with Prometheus collectors.
// Register one instance per process with the Set*Hooks functions.
type Prometheus struct {
	runs         *prometheus.CounterVec
	runDuration  prometheus.Histogram
	rewrites     *prometheus.CounterVec
	gatesRemoved prometheus.Histogram
	permutations prometheus.Histogram

	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec

	cacheOps   *prometheus.CounterVec
	cacheBytes prometheus.Histogram

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// NewPrometheus creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Prometheus{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qsimplify_runs_total",
			Help: "Simplification runs by outcome",
		}, []string{"outcome"}),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qsimplify_run_duration_seconds",
			Help:    "Wall time of a simplification run",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}),
		rewrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qsimplify_rewrites_total",
			Help: "Applied rewrites by rule",
		}, []string{"rule"}),
		gatesRemoved: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qsimplify_gates_removed",
			Help:    "Gates removed per simplification run",
			Buckets: []float64{0, 1, 2, 5, 10, 50, 100, 1000},
		}),
		permutations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qsimplify_permutations",
			Help:    "Row permutations tried per simplification run",
			Buckets: prometheus.ExponentialBuckets(1, 10, 8),
		}),
		pipelineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qsimplify_pipeline_runs_total",
			Help: "Pipeline executions by input format and cache result",
		}, []string{"format", "cache_hit", "outcome"}),
		pipelineDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qsimplify_pipeline_duration_seconds",
			Help:    "Wall time of a pipeline execution",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}, []string{"format"}),
		cacheOps: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qsimplify_cache_operations_total",
			Help: "Cache lookups and writes",
		}, []string{"key_type", "op"}),
		cacheBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "qsimplify_cache_entry_bytes",
			Help:    "Size of cache writes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 8),
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "qsimplify_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qsimplify_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5},
		}, []string{"method", "route"}),
	}
}

// Install registers p for every hook kind.
func (p *Prometheus) Install() {
	SetSimplifyHooks(p)
	SetPipelineHooks(p)
	SetCacheHooks(p)
	SetHTTPHooks(p)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (p *Prometheus) OnSimplifyStart(context.Context, int, int) {}

func (p *Prometheus) OnRewrite(_ context.Context, rule string) {
	p.rewrites.WithLabelValues(rule).Inc()
}

func (p *Prometheus) OnSimplifyComplete(_ context.Context, s RunSummary, err error) {
	p.runs.WithLabelValues(outcome(err)).Inc()
	p.runDuration.Observe(s.Duration.Seconds())
	p.gatesRemoved.Observe(float64(s.GatesBefore - s.GatesAfter))
	p.permutations.Observe(float64(s.Permutations))
}

func (p *Prometheus) OnRunStart(context.Context, string, string) {}

func (p *Prometheus) OnRunComplete(_ context.Context, _ string, format string, cacheHit bool, d time.Duration, err error) {
	p.pipelineRuns.WithLabelValues(format, strconv.FormatBool(cacheHit), outcome(err)).Inc()
	p.pipelineDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Observe(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

var (
	_ SimplifyHooks = (*Prometheus)(nil)
	_ PipelineHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
