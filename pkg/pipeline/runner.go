package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/qsimplify/pkg/cache"
	"github.com/matzehuels/qsimplify/pkg/circuit"
	qio "github.com/matzehuels/qsimplify/pkg/io"
	"github.com/matzehuels/qsimplify/pkg/observability"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
	"github.com/matzehuels/qsimplify/pkg/simplify"
)

// cacheKeyType labels simplification entries in cache hooks.
const cacheKeyType = "simplify"

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// TTL is the lifetime of stored results. Zero uses cache.DefaultTTL.
	TTL time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete decode → simplify → encode pipeline with
// caching.
//
// When the simplifier runs out of budget, Execute returns the partial
// result together with the BUDGET_EXCEEDED error. Partial results are
// never cached.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	start := time.Now()
	hooks := observability.Pipeline()
	hooks.OnRunStart(ctx, runID, opts.InputFormat)

	res, err := r.execute(ctx, runID, opts)

	hit := res != nil && res.CacheHit
	hooks.OnRunComplete(ctx, runID, opts.InputFormat, hit, time.Since(start), err)
	return res, err
}

func (r *Runner) execute(ctx context.Context, runID string, opts Options) (*Result, error) {
	logger := r.Logger.With("run", runID)

	g, err := Decode(opts.Input, opts.InputFormat)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if err := clean.Normalize(g); err != nil {
		return nil, fmt.Errorf("normalize input: %w", err)
	}
	data, err := qio.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("hash input: %w", err)
	}

	result := &Result{RunID: runID, GraphHash: cache.Hash(data)}
	logger.Debug("decoded input",
		"format", opts.InputFormat,
		"qubits", g.Height(),
		"columns", g.Width(),
		"gates", g.GateCount())

	key := r.Keyer.SimplifyKey(result.GraphHash, opts.Rules.Hash(), opts.SimplifyKeyOpts())
	if opts.UseCache() {
		if cached, ok := r.lookup(ctx, logger, key); ok {
			result.Graph = cached
			result.CacheHit = true
			result.Stats = simplify.Stats{
				GatesBefore:    g.GateCount(),
				GatesAfter:     cached.GateCount(),
				RewritesByRule: map[string]int{},
			}
			logger.Info("loaded from cache", "gates", cached.GateCount())
			return result, r.finish(result, opts)
		}
	}

	s := &simplify.Simplifier{
		Rules:   opts.Rules,
		Options: opts.SimplifyOptions(),
		Logger:  logger,
	}
	sr, runErr := s.Simplify(ctx, g)
	if sr == nil {
		return nil, runErr
	}
	result.Graph = sr.Graph
	result.Stats = sr.Stats
	result.Steps = sr.Steps

	if err := r.finish(result, opts); err != nil {
		return nil, err
	}
	if runErr != nil {
		return result, runErr
	}
	if !opts.Trace {
		r.store(ctx, logger, key, result.Graph)
	}

	logger.Info("simplified circuit",
		"gates_before", result.Stats.GatesBefore,
		"gates_after", result.Stats.GatesAfter,
		"rewrites", result.Stats.Rewrites,
		"iterations", result.Stats.Iterations,
		"duration", result.Stats.Duration)
	return result, nil
}

// finish derives the circuit and the encoded output from result.Graph.
func (r *Runner) finish(result *Result, opts Options) error {
	c, err := circuit.FromGraph(result.Graph)
	if err != nil {
		return fmt.Errorf("convert graph: %w", err)
	}
	result.Circuit = c

	switch opts.OutputFormat {
	case FormatQASM:
		result.Output = []byte(c.QASM())
	default:
		out, err := Encode(result.Graph, opts.OutputFormat)
		if err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		result.Output = out
	}
	return nil
}

// lookup returns the cached graph for key. Unreadable entries count as
// misses so a corrupt cache never fails a run.
func (r *Runner) lookup(ctx context.Context, logger *log.Logger, key string) (*qgraph.Graph, bool) {
	hooks := observability.Cache()
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		logger.Warn("cache lookup failed", "err", err)
	}
	if err != nil || !hit {
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	g, err := qio.Unmarshal(data)
	if err != nil {
		logger.Warn("discarding unreadable cache entry", "key", key, "err", err)
		hooks.OnCacheMiss(ctx, cacheKeyType)
		return nil, false
	}
	hooks.OnCacheHit(ctx, cacheKeyType)
	return g, true
}

func (r *Runner) store(ctx context.Context, logger *log.Logger, key string, g *qgraph.Graph) {
	data, err := qio.Marshal(g)
	if err != nil {
		logger.Warn("cannot encode result for cache", "err", err)
		return
	}
	ttl := r.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		logger.Warn("cache store failed", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, cacheKeyType, len(data))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}
