// Package simplify reduces circuit graphs by pattern matching and rewriting.
//
// The primitives are [Search], [ExtractSubgraph], [Rewrite] and
// [ApplyRule]. [Simplifier] runs a rule set over a private copy of a graph
// for a number of iterations, normalizing after each one, within an
// optional permutation and time budget:
//
//	set, _ := rules.Default()
//	res, err := simplify.New(set, simplify.Options{Iterations: 3}).Simplify(ctx, g)
//
// Simplification is deterministic: the same graph, rules and options always
// produce the same result. Rewrites are not checked for semantic
// equivalence; that is the rule author's responsibility.
package simplify

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/observability"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/clean"
	"github.com/matzehuels/qsimplify/pkg/rules"
)

// Options controls a simplification run.
type Options struct {
	// Iterations is the number of passes over the rule set. Defaults to 1.
	// A pass without any rewrite ends the run early.
	Iterations int
	// MaxPermutations caps the row assignments tried across the whole run.
	// Zero means unlimited.
	MaxPermutations int
	// Timeout caps the run's wall time. Zero means no limit.
	Timeout time.Duration
	// Trace records a [Step] per rewrite.
	Trace bool
}

// Stats summarizes a run.
type Stats struct {
	Iterations     int
	Rewrites       int
	RewritesByRule map[string]int
	Permutations   int
	GatesBefore    int
	GatesAfter     int
	Duration       time.Duration
}

// Step is one traced rewrite.
type Step struct {
	Rule      string
	Iteration int
	// Mapping is the match that was rewritten, graph to pattern positions.
	Mapping Mapping
	// Graph is a snapshot right after the rewrite.
	Graph *qgraph.Graph
}

// Result is the outcome of a run.
type Result struct {
	Graph *qgraph.Graph
	Stats Stats
	Steps []Step
}

// Simplifier applies a rule set to graphs. It holds no per-run state and
// may be shared between goroutines.
type Simplifier struct {
	Rules   *rules.Set
	Options Options
	Logger  *log.Logger
	// Hooks receives run events. Nil uses the registered observability hooks.
	Hooks observability.SimplifyHooks
}

// New returns a simplifier for set.
func New(set *rules.Set, opts Options) *Simplifier {
	return &Simplifier{Rules: set, Options: opts}
}

func (s *Simplifier) logger() *log.Logger {
	if s.Logger == nil {
		return log.Default()
	}
	return s.Logger
}

func (s *Simplifier) hooks() observability.SimplifyHooks {
	if s.Hooks == nil {
		return observability.Simplify()
	}
	return s.Hooks
}

// Simplify runs the rule set over a copy of g; g itself is never modified.
//
// The copy is normalized first. Each iteration applies every rule, in
// order, until it no longer matches, then normalizes again. When the
// budget runs out or ctx is cancelled, Simplify returns the normalized
// graph reached so far together with an error of code BUDGET_EXCEEDED.
func (s *Simplifier) Simplify(ctx context.Context, g *qgraph.Graph) (*Result, error) {
	if s.Rules == nil {
		return nil, qerrors.New(qerrors.ErrCodeInvalidInput, "simplifier has no rule set")
	}
	opts := s.Options
	if opts.Iterations <= 0 {
		opts.Iterations = 1
	}
	start := time.Now()
	b := &budget{ctx: ctx, maxPerms: opts.MaxPermutations}
	if opts.Timeout > 0 {
		b.deadline = start.Add(opts.Timeout)
	}

	work := g.Clone()
	res := &Result{Graph: work, Stats: Stats{RewritesByRule: make(map[string]int)}}
	if err := clean.Normalize(work); err != nil {
		return nil, err
	}
	res.Stats.GatesBefore = work.GateCount()

	hooks, logger := s.hooks(), s.logger()
	hooks.OnSimplifyStart(ctx, res.Stats.GatesBefore, s.Rules.Len())

	err := s.run(ctx, b, opts, res)
	if nerr := clean.Normalize(work); nerr != nil && err == nil {
		err = nerr
	}

	res.Stats.Permutations = b.permutations
	res.Stats.GatesAfter = work.GateCount()
	res.Stats.Duration = time.Since(start)
	hooks.OnSimplifyComplete(ctx, observability.RunSummary{
		Iterations:   res.Stats.Iterations,
		Rewrites:     res.Stats.Rewrites,
		Permutations: res.Stats.Permutations,
		GatesBefore:  res.Stats.GatesBefore,
		GatesAfter:   res.Stats.GatesAfter,
		Duration:     res.Stats.Duration,
	}, err)

	logger.Debug("simplified",
		"iterations", res.Stats.Iterations,
		"rewrites", res.Stats.Rewrites,
		"gates_before", res.Stats.GatesBefore,
		"gates_after", res.Stats.GatesAfter,
		"permutations", res.Stats.Permutations,
		"duration", res.Stats.Duration)
	if err != nil {
		logger.Warn("simplification stopped early", "err", err)
		return res, err
	}
	return res, nil
}

func (s *Simplifier) run(ctx context.Context, b *budget, opts Options, res *Result) error {
	hooks, logger := s.hooks(), s.logger()
	for it := 1; it <= opts.Iterations; it++ {
		res.Stats.Iterations = it
		rewrites := 0
		for _, rule := range s.Rules.Rules() {
			if err := b.check(); err != nil {
				return err
			}
			n, err := b.applyRule(res.Graph, rule, func(m Mapping) {
				hooks.OnRewrite(ctx, rule.Name)
				logger.Debug("rewrite", "rule", rule.Name, "iteration", it, "cells", len(m))
				if opts.Trace {
					res.Steps = append(res.Steps, Step{
						Rule:      rule.Name,
						Iteration: it,
						Mapping:   m.Clone(),
						Graph:     res.Graph.Clone(),
					})
				}
			})
			rewrites += n
			res.Stats.Rewrites += n
			if n > 0 {
				res.Stats.RewritesByRule[rule.Name] += n
			}
			if err != nil {
				return err
			}
		}
		if err := clean.Normalize(res.Graph); err != nil {
			return err
		}
		if rewrites == 0 {
			break
		}
	}
	return nil
}

// Simplify is a convenience wrapper: it runs set over a copy of g for the
// given number of iterations without a budget and returns the result graph.
func Simplify(g *qgraph.Graph, set *rules.Set, iterations int) (*qgraph.Graph, error) {
	s := &Simplifier{Rules: set, Options: Options{Iterations: iterations}, Logger: log.New(io.Discard)}
	res, err := s.Simplify(context.Background(), g)
	if err != nil {
		return nil, err
	}
	return res.Graph, nil
}

// IsBudgetExceeded reports whether err ended a run early.
func IsBudgetExceeded(err error) bool {
	return err != nil && (qerrors.Is(err, qerrors.ErrCodeBudgetExceeded) || errors.Is(err, context.DeadlineExceeded))
}
