// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about simplification runs, cache operations, and HTTP
// requests.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the engine packages free of metrics frameworks
//   - Allows different backends; [Prometheus] is the bundled one
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    p := observability.NewPrometheus(prometheus.DefaultRegisterer)
//	    observability.SetSimplifyHooks(p)
//	    observability.SetCacheHooks(p)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Simplify().OnSimplifyStart(ctx, gates, rules)
//	// ... rewrite ...
//	observability.Simplify().OnSimplifyComplete(ctx, summary, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Simplify Hooks
// =============================================================================

// RunSummary describes a finished simplification run.
type RunSummary struct {
	Iterations   int
	Rewrites     int
	Permutations int
	GatesBefore  int
	GatesAfter   int
	Duration     time.Duration
}

// SimplifyHooks receives events from the simplifier.
type SimplifyHooks interface {
	// OnSimplifyStart records the start of a run.
	OnSimplifyStart(ctx context.Context, gates, rules int)

	// OnRewrite records one applied rewrite.
	OnRewrite(ctx context.Context, rule string)

	// OnSimplifyComplete records the end of a run. err is non-nil when the
	// run was cut short.
	OnSimplifyComplete(ctx context.Context, summary RunSummary, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the decode -> simplify -> encode pipeline.
type PipelineHooks interface {
	OnRunStart(ctx context.Context, runID, inputFormat string)
	OnRunComplete(ctx context.Context, runID, inputFormat string, cacheHit bool, duration time.Duration, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from the HTTP server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, route string)

	// OnResponse records the response to a request.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSimplifyHooks is a no-op implementation of SimplifyHooks.
type NoopSimplifyHooks struct{}

func (NoopSimplifyHooks) OnSimplifyStart(context.Context, int, int)            {}
func (NoopSimplifyHooks) OnRewrite(context.Context, string)                    {}
func (NoopSimplifyHooks) OnSimplifyComplete(context.Context, RunSummary, error) {}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnRunStart(context.Context, string, string) {}
func (NoopPipelineHooks) OnRunComplete(context.Context, string, string, bool, time.Duration, error) {
}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                     {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	simplifyHooks SimplifyHooks = NoopSimplifyHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetSimplifyHooks registers custom simplifier hooks.
// This should be called once at application startup before any simplification.
func SetSimplifyHooks(h SimplifyHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		simplifyHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
// This should be called once at application startup before any pipeline operations.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before serving requests.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Simplify returns the registered simplifier hooks.
func Simplify() SimplifyHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return simplifyHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	simplifyHooks = NoopSimplifyHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
