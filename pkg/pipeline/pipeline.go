// Package pipeline runs the decode -> simplify -> encode flow shared by the
// CLI and the HTTP server.
//
// A [Runner] owns the cache and logger. [Runner.Execute] decodes a QASM
// program or graph JSON document, looks the result up in the cache, runs
// the simplifier on a miss and encodes the simplified graph back into the
// requested format:
//
//	set, _ := rules.Default()
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Input:       src,
//	    InputFormat: pipeline.FormatQASM,
//	    Rules:       set,
//	    Iterations:  3,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	os.Stdout.Write(res.Output)
//
// Cache keys combine the content hash of the normalized input graph, the
// rule set hash and every option that changes the result. Traced runs
// bypass the cache since steps are not stored.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/matzehuels/qsimplify/pkg/cache"
	"github.com/matzehuels/qsimplify/pkg/circuit"
	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/rules"
	"github.com/matzehuels/qsimplify/pkg/simplify"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultIterations is the number of passes over the rule set.
	DefaultIterations = 3

	// MaxIterations bounds Iterations for untrusted input.
	MaxIterations = 100
)

// Input and output formats.
const (
	FormatQASM = "qasm"
	FormatJSON = "json"
)

// ValidFormats is the set of supported input and output formats.
var ValidFormats = map[string]bool{
	FormatQASM: true,
	FormatJSON: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one pipeline run.
type Options struct {
	// Input is the program source or graph document.
	Input []byte `json:"-"`
	// InputFormat is "qasm" or "json".
	InputFormat string `json:"input_format"`
	// OutputFormat defaults to InputFormat.
	OutputFormat string `json:"output_format,omitempty"`

	// Rules is the rule set to apply. Nil uses the bundled default rules.
	Rules *rules.Set `json:"-"`

	Iterations      int           `json:"iterations,omitempty"`
	MaxPermutations int           `json:"max_permutations,omitempty"`
	Timeout         time.Duration `json:"timeout,omitempty"`
	Trace           bool          `json:"trace,omitempty"`

	// Refresh skips the cache lookup but still stores the new result.
	Refresh bool `json:"refresh,omitempty"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and API responses.
	RunID string

	// Graph is the simplified graph.
	Graph *qgraph.Graph

	// GraphHash is the content hash of the normalized input graph.
	GraphHash string

	// Circuit is the simplified graph as an instruction list.
	Circuit *circuit.Circuit

	// Output is the simplified graph encoded in OutputFormat.
	Output []byte

	// Stats describes the run. On a cache hit only the gate counts are set.
	Stats simplify.Stats

	// Steps holds the traced rewrites when Options.Trace is set.
	Steps []simplify.Step

	// CacheHit reports whether the result came from the cache.
	CacheHit bool
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return qerrors.New(qerrors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: qasm, json)", format)
	}
	return nil
}

// FormatFromPath picks the input format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".qasm":
		return FormatQASM, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", qerrors.New(qerrors.ErrCodeInvalidFormat, "cannot infer format of %q (want .qasm or .json)", path)
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect
// as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if len(o.Input) == 0 {
		return qerrors.New(qerrors.ErrCodeInvalidInput, "input is required")
	}
	if err := ValidateFormat(o.InputFormat); err != nil {
		return err
	}
	if o.OutputFormat == "" {
		o.OutputFormat = o.InputFormat
	}
	if err := ValidateFormat(o.OutputFormat); err != nil {
		return err
	}
	switch {
	case o.Iterations == 0:
		o.Iterations = DefaultIterations
	case o.Iterations < 0 || o.Iterations > MaxIterations:
		return qerrors.New(qerrors.ErrCodeInvalidInput, "iterations must be between 1 and %d, got %d", MaxIterations, o.Iterations)
	}
	if o.MaxPermutations < 0 {
		return qerrors.New(qerrors.ErrCodeInvalidInput, "max_permutations must not be negative")
	}
	if o.Timeout < 0 {
		return qerrors.New(qerrors.ErrCodeInvalidInput, "timeout must not be negative")
	}
	if o.Rules == nil {
		set, err := rules.Default()
		if err != nil {
			return fmt.Errorf("load default rules: %w", err)
		}
		o.Rules = set
	}
	o.validated = true
	return nil
}

// SimplifyOptions returns the simplifier options.
func (o *Options) SimplifyOptions() simplify.Options {
	return simplify.Options{
		Iterations:      o.Iterations,
		MaxPermutations: o.MaxPermutations,
		Timeout:         o.Timeout,
		Trace:           o.Trace,
	}
}

// SimplifyKeyOpts returns cache key options for the simplification result.
func (o *Options) SimplifyKeyOpts() cache.SimplifyKeyOpts {
	return cache.SimplifyKeyOpts{
		Iterations:      o.Iterations,
		MaxPermutations: o.MaxPermutations,
		Timeout:         o.Timeout,
		Trace:           o.Trace,
	}
}

// UseCache reports whether the run may read from the cache.
func (o *Options) UseCache() bool {
	return !o.Refresh && !o.Trace
}
