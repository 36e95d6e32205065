package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/qsimplify/pkg/buildinfo"
	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/pipeline"
	"github.com/matzehuels/qsimplify/pkg/simplify"
)

// SimplifyRequest is the body of POST /v1/simplify.
type SimplifyRequest struct {
	Input        string `json:"input" validate:"required"`
	InputFormat  string `json:"input_format" validate:"required,oneof=qasm json"`
	OutputFormat string `json:"output_format,omitempty" validate:"omitempty,oneof=qasm json"`
	// Rules selects rules by name, in application order. Empty applies the
	// whole server rule set.
	Rules           []string `json:"rules,omitempty" validate:"omitempty,max=256,dive,required"`
	Iterations      int      `json:"iterations,omitempty" validate:"min=0,max=100"`
	MaxPermutations int      `json:"max_permutations,omitempty" validate:"min=0"`
	TimeoutMS       int      `json:"timeout_ms,omitempty" validate:"min=0"`
	Trace           bool     `json:"trace,omitempty"`
	Refresh         bool     `json:"refresh,omitempty"`
}

// SimplifyResponse is the body of a successful POST /v1/simplify.
type SimplifyResponse struct {
	RunID        string `json:"run_id"`
	Output       string `json:"output"`
	OutputFormat string `json:"output_format"`
	CacheHit     bool   `json:"cache_hit"`
	// Complete is false when the budget ran out; Output then holds the
	// partially simplified circuit and Warning says why.
	Complete bool       `json:"complete"`
	Warning  string     `json:"warning,omitempty"`
	Stats    StatsBody  `json:"stats"`
	Steps    []StepBody `json:"steps,omitempty"`
}

// StatsBody mirrors simplify.Stats.
type StatsBody struct {
	Iterations     int            `json:"iterations"`
	Rewrites       int            `json:"rewrites"`
	RewritesByRule map[string]int `json:"rewrites_by_rule,omitempty"`
	Permutations   int            `json:"permutations"`
	GatesBefore    int            `json:"gates_before"`
	GatesAfter     int            `json:"gates_after"`
	DurationMS     float64        `json:"duration_ms"`
}

// StepBody describes one traced rewrite.
type StepBody struct {
	Rule      string `json:"rule"`
	Iteration int    `json:"iteration"`
	Gates     int    `json:"gates"`
}

// RuleBody describes one loaded rule.
type RuleBody struct {
	Name               string `json:"name"`
	PatternQubits      int    `json:"pattern_qubits"`
	PatternColumns     int    `json:"pattern_columns"`
	ReplacementGates   int    `json:"replacement_gates"`
	ReplacementColumns int    `json:"replacement_columns"`
}

// RulesResponse is the body of GET /v1/rules.
type RulesResponse struct {
	Hash  string     `json:"hash"`
	Rules []RuleBody `json:"rules"`
}

var requestValidate = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

func validateRequest(req *SimplifyRequest) error {
	err := requestValidate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return qerrors.Wrap(qerrors.ErrCodeInvalidInput, err, "invalid request")
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "SimplifyRequest.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return qerrors.New(qerrors.ErrCodeInvalidInput, "invalid request: %s", strings.Join(msgs, "; "))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleRules(w http.ResponseWriter, r *http.Request) {
	resp := RulesResponse{Hash: s.opts.Rules.Hash(), Rules: []RuleBody{}}
	for _, rule := range s.opts.Rules.Rules() {
		pattern, repl := rule.Pattern(), rule.Replacement()
		resp.Rules = append(resp.Rules, RuleBody{
			Name:               rule.Name,
			PatternQubits:      pattern.Height(),
			PatternColumns:     pattern.Width(),
			ReplacementGates:   repl.GateCount(),
			ReplacementColumns: repl.Width(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSimplify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req SimplifyRequest
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeErr(w, r, qerrors.Wrap(qerrors.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	if err := validateRequest(&req); err != nil {
		s.writeErr(w, r, err)
		return
	}

	opts, err := s.pipelineOptions(req)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	ctx := r.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	res, err := s.opts.Runner.Execute(ctx, opts)
	complete := true
	var warning string
	switch {
	case err != nil && res != nil && simplify.IsBudgetExceeded(err):
		complete, warning = false, qerrors.UserMessage(err)
	case err != nil:
		s.writeErr(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newSimplifyResponse(res, opts.OutputFormat, complete, warning))
}

// pipelineOptions turns a validated request into run options, filling the
// budget from the server defaults and capping the timeout.
func (s *Server) pipelineOptions(req SimplifyRequest) (pipeline.Options, error) {
	d := s.opts.Defaults
	opts := pipeline.Options{
		Input:           []byte(req.Input),
		InputFormat:     req.InputFormat,
		OutputFormat:    req.OutputFormat,
		Rules:           s.opts.Rules,
		Iterations:      req.Iterations,
		MaxPermutations: req.MaxPermutations,
		Timeout:         time.Duration(req.TimeoutMS) * time.Millisecond,
		Trace:           req.Trace,
		Refresh:         req.Refresh,
	}
	if opts.Iterations == 0 {
		opts.Iterations = d.Iterations
	}
	if opts.MaxPermutations == 0 {
		opts.MaxPermutations = d.MaxPermutations
	}
	if opts.Timeout == 0 {
		opts.Timeout = d.Timeout
	}
	if limit := s.opts.RequestTimeout; limit > 0 && (opts.Timeout == 0 || opts.Timeout > limit) {
		opts.Timeout = limit
	}
	if len(req.Rules) > 0 {
		set, err := s.opts.Rules.Subset(req.Rules...)
		if err != nil {
			return opts, qerrors.Wrap(qerrors.ErrCodeInvalidInput, err, "select rules")
		}
		opts.Rules = set
	}
	if opts.OutputFormat == "" {
		opts.OutputFormat = opts.InputFormat
	}
	return opts, nil
}

func newSimplifyResponse(res *pipeline.Result, format string, complete bool, warning string) SimplifyResponse {
	st := res.Stats
	resp := SimplifyResponse{
		RunID:        res.RunID,
		Output:       string(res.Output),
		OutputFormat: format,
		CacheHit:     res.CacheHit,
		Complete:     complete,
		Warning:      warning,
		Stats: StatsBody{
			Iterations:     st.Iterations,
			Rewrites:       st.Rewrites,
			RewritesByRule: st.RewritesByRule,
			Permutations:   st.Permutations,
			GatesBefore:    st.GatesBefore,
			GatesAfter:     st.GatesAfter,
			DurationMS:     float64(st.Duration.Microseconds()) / 1000,
		},
	}
	for _, step := range res.Steps {
		resp.Steps = append(resp.Steps, StepBody{
			Rule:      step.Rule,
			Iteration: step.Iteration,
			Gates:     step.Graph.GateCount(),
		})
	}
	return resp
}
