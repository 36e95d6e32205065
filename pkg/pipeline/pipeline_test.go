package pipeline

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/qsimplify/pkg/cache"
	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/observability"
	"github.com/matzehuels/qsimplify/pkg/simplify"
)

const hhcx = `OPENQASM 2.0;
include "qelib1.inc";
qreg q[2];
h q[0];
h q[0];
cx q[0],q[1];
`

const wantCX = `OPENQASM 2.0;
include "qelib1.inc";

qreg q[2];

cx q[0],q[1];
`

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func fileRunner(t *testing.T) (*Runner, *cache.FileCache) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	return NewRunner(c, nil, quietLogger()), c
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"qasm", false},
		{"json", false},
		{"yaml", true},
		{"QASM", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !qerrors.Is(err, qerrors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, qerrors.GetCode(err))
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"bell.qasm", FormatQASM, false},
		{"dir/BELL.QASM", FormatQASM, false},
		{"graph.json", FormatJSON, false},
		{"rules.yaml", "", true},
		{"noext", "", true},
	}

	for _, tt := range tests {
		got, err := FormatFromPath(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v; want %q, wantErr %v", tt.path, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Input: []byte(hhcx), InputFormat: FormatQASM}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Valid options should pass: %v", err)
	}
	if opts.Iterations != DefaultIterations {
		t.Errorf("Iterations should be %d, got %d", DefaultIterations, opts.Iterations)
	}
	if opts.OutputFormat != FormatQASM {
		t.Errorf("OutputFormat should default to input format, got %q", opts.OutputFormat)
	}
	if opts.Rules == nil || opts.Rules.Len() == 0 {
		t.Error("Rules should default to the bundled rules")
	}

	// Idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("Second call should pass: %v", err)
	}
}

func TestOptionsValidate(t *testing.T) {
	input := []byte(hhcx)
	tests := []struct {
		name string
		opts Options
		code qerrors.Code
	}{
		{"missing input", Options{InputFormat: FormatQASM}, qerrors.ErrCodeInvalidInput},
		{"bad input format", Options{Input: input, InputFormat: "svg"}, qerrors.ErrCodeInvalidFormat},
		{"bad output format", Options{Input: input, InputFormat: FormatQASM, OutputFormat: "dot"}, qerrors.ErrCodeInvalidFormat},
		{"negative iterations", Options{Input: input, InputFormat: FormatQASM, Iterations: -1}, qerrors.ErrCodeInvalidInput},
		{"too many iterations", Options{Input: input, InputFormat: FormatQASM, Iterations: MaxIterations + 1}, qerrors.ErrCodeInvalidInput},
		{"negative permutations", Options{Input: input, InputFormat: FormatQASM, MaxPermutations: -1}, qerrors.ErrCodeInvalidInput},
		{"negative timeout", Options{Input: input, InputFormat: FormatQASM, Timeout: -time.Second}, qerrors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := qerrors.GetCode(err); got != tt.code {
				t.Errorf("code = %s, want %s", got, tt.code)
			}
		})
	}
}

func TestExecuteQASM(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())

	res, err := runner.Execute(context.Background(), Options{
		Input:       []byte(hhcx),
		InputFormat: FormatQASM,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := string(res.Output); got != wantCX {
		t.Errorf("Output:\n%s\nwant:\n%s", got, wantCX)
	}
	if res.RunID == "" {
		t.Error("RunID should be set")
	}
	if res.GraphHash == "" {
		t.Error("GraphHash should be set")
	}
	if res.Stats.GatesBefore != 3 || res.Stats.GatesAfter != 1 {
		t.Errorf("gates %d -> %d, want 3 -> 1", res.Stats.GatesBefore, res.Stats.GatesAfter)
	}
	if res.Stats.RewritesByRule["h-h"] != 1 {
		t.Errorf("RewritesByRule = %v", res.Stats.RewritesByRule)
	}
	if res.Circuit.Len() != 1 {
		t.Errorf("Circuit has %d instructions, want 1", res.Circuit.Len())
	}
	if res.CacheHit {
		t.Error("NullCache should never hit")
	}
}

func TestExecuteJSONOutput(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())

	res, err := runner.Execute(context.Background(), Options{
		Input:        []byte(hhcx),
		InputFormat:  FormatQASM,
		OutputFormat: FormatJSON,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	g, err := Decode(res.Output, FormatJSON)
	if err != nil {
		t.Fatalf("Decode output: %v", err)
	}
	if !g.Equal(res.Graph) {
		t.Errorf("decoded output differs from result graph:\n%s\nvs\n%s", g, res.Graph)
	}

	// Feed the JSON back in: nothing left to simplify.
	again, err := runner.Execute(context.Background(), Options{Input: res.Output, InputFormat: FormatJSON})
	if err != nil {
		t.Fatalf("Execute json: %v", err)
	}
	if again.Stats.Rewrites != 0 {
		t.Errorf("second pass rewrote %d times", again.Stats.Rewrites)
	}
}

func TestExecuteDecodeError(t *testing.T) {
	runner := NewRunner(nil, nil, quietLogger())

	_, err := runner.Execute(context.Background(), Options{
		Input:       []byte("OPENQASM 2.0;\nqreg q[1];\nfoo q[0];\n"),
		InputFormat: FormatQASM,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !qerrors.Is(err, qerrors.ErrCodeInvalidCircuit) {
		t.Errorf("code = %s, want INVALID_CIRCUIT", qerrors.GetCode(err))
	}
}

func TestExecuteCacheRoundTrip(t *testing.T) {
	runner, _ := fileRunner(t)
	ctx := context.Background()
	opts := Options{Input: []byte(hhcx), InputFormat: FormatQASM}

	first, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss")
	}

	second, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit")
	}
	if string(second.Output) != string(first.Output) {
		t.Errorf("cached output differs:\n%s\nvs\n%s", second.Output, first.Output)
	}
	if second.Stats.GatesBefore != 3 || second.Stats.GatesAfter != 1 {
		t.Errorf("cached gates %d -> %d", second.Stats.GatesBefore, second.Stats.GatesAfter)
	}
	if second.RunID == first.RunID {
		t.Error("runs should get distinct ids")
	}

	opts.Refresh = true
	third, err := runner.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh run: %v", err)
	}
	if third.CacheHit {
		t.Error("refresh should bypass the cache")
	}
}

func TestExecuteCacheKeyIncludesOptions(t *testing.T) {
	runner, _ := fileRunner(t)
	ctx := context.Background()

	if _, err := runner.Execute(ctx, Options{Input: []byte(hhcx), InputFormat: FormatQASM, Iterations: 1}); err != nil {
		t.Fatal(err)
	}
	res, err := runner.Execute(ctx, Options{Input: []byte(hhcx), InputFormat: FormatQASM, Iterations: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.CacheHit {
		t.Error("different iteration count should not share a cache entry")
	}
}

func TestExecuteTraceBypassesCache(t *testing.T) {
	runner, c := fileRunner(t)
	ctx := context.Background()

	res, err := runner.Execute(ctx, Options{Input: []byte(hhcx), InputFormat: FormatQASM, Trace: true})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(res.Steps) != 1 || res.Steps[0].Rule != "h-h" {
		t.Errorf("Steps = %+v", res.Steps)
	}
	if n, _ := c.Clear(); n != 0 {
		t.Errorf("traced run stored %d entries", n)
	}
}

func TestExecuteBudgetExceeded(t *testing.T) {
	runner, c := fileRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := runner.Execute(ctx, Options{Input: []byte(hhcx), InputFormat: FormatQASM})
	if !simplify.IsBudgetExceeded(err) {
		t.Fatalf("err = %v, want BUDGET_EXCEEDED", err)
	}
	if res == nil || len(res.Output) == 0 {
		t.Fatal("partial result should be returned")
	}
	if res.Stats.GatesAfter != 3 {
		t.Errorf("GatesAfter = %d, want 3", res.Stats.GatesAfter)
	}
	if n, _ := c.Clear(); n != 0 {
		t.Errorf("partial result stored %d entries", n)
	}
}

type recordingHooks struct {
	observability.NoopPipelineHooks
	started, completed int
	hits               int
}

func (h *recordingHooks) OnRunStart(context.Context, string, string) { h.started++ }

func (h *recordingHooks) OnRunComplete(_ context.Context, _, _ string, hit bool, _ time.Duration, _ error) {
	h.completed++
	if hit {
		h.hits++
	}
}

func TestExecuteHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	runner, _ := fileRunner(t)
	opts := Options{Input: []byte(hhcx), InputFormat: FormatQASM}
	for range 2 {
		if _, err := runner.Execute(context.Background(), opts); err != nil {
			t.Fatal(err)
		}
	}
	if hooks.started != 2 || hooks.completed != 2 || hooks.hits != 1 {
		t.Errorf("hooks = %+v", hooks)
	}
}

func TestRenderFormats(t *testing.T) {
	g, err := Decode([]byte(wantCX), FormatQASM)
	if err != nil {
		t.Fatal(err)
	}

	dot, err := Render(context.Background(), g, RenderDOT, RenderOptions{})
	if err != nil {
		t.Fatalf("Render dot: %v", err)
	}
	if !strings.HasPrefix(string(dot), "digraph G {") {
		t.Errorf("dot output = %q", dot)
	}

	text, err := Render(context.Background(), g, RenderText, RenderOptions{})
	if err != nil {
		t.Fatalf("Render text: %v", err)
	}
	if !strings.Contains(string(text), "●") {
		t.Errorf("text output missing control: %q", text)
	}

	if _, err := Render(context.Background(), g, "gif", RenderOptions{}); !qerrors.Is(err, qerrors.ErrCodeInvalidFormat) {
		t.Errorf("Render gif err = %v", err)
	}
}
