package rules

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/build"
)

func graph(t *testing.T, b *build.Builder) *qgraph.Graph {
	t.Helper()
	g, err := b.Build(false)
	require.NoError(t, err)
	return g
}

func TestAnchor(t *testing.T) {
	p := graph(t, build.New().Put(qgraph.H.On(1), 0).Put(qgraph.X.On(0), 2))
	a, err := Anchor(p)
	require.NoError(t, err)
	assert.Equal(t, qgraph.X, a.Kind)
	assert.Equal(t, qgraph.Pos(0, 2), a.Pos)

	_, err = Anchor(qgraph.New())
	assert.ErrorIs(t, err, ErrEmptyPattern)

	_, err = Anchor(graph(t, build.New().Push(qgraph.Identity.On(0))))
	assert.ErrorIs(t, err, ErrNoAnchor)
	assert.Equal(t, qerrors.ErrCodeInvalidPattern, qerrors.GetCode(err))
}

func TestNewRuleMask(t *testing.T) {
	pattern := graph(t, build.New().
		Push(qgraph.H.On(1)).
		Push(qgraph.CX.On(0, 1)).
		Push(qgraph.H.On(1)))
	replacement := graph(t, build.New().Put(qgraph.CZ.On(0, 1), 1))

	r, err := NewRule("h-cx-h", pattern, replacement)
	require.NoError(t, err)

	m := r.Mask()
	assert.Equal(t, 2, m.Height())
	assert.Equal(t, 3, m.Width())
	assert.False(t, m.At(0, 0), "pattern filler inside the replacement box is don't care")
	assert.True(t, m.At(0, 1))
	assert.True(t, m.At(1, 0))
	assert.True(t, m.At(1, 1))
	assert.False(t, m.At(0, 2), "pattern filler beyond the replacement is don't care too")
	assert.True(t, m.At(1, 2))
	assert.True(t, m.At(-1, 0), "cells outside the box are strict")
	assert.True(t, m.At(0, 3))
	assert.Equal(t, ".#.\n###\n", m.String())
	assert.Equal(t, qgraph.Pos(0, 1), r.Anchor().Pos)
}

func TestNewRuleCopiesGraphs(t *testing.T) {
	pattern := graph(t, build.New().Push(qgraph.H.On(0)).Push(qgraph.H.On(0)))
	r, err := NewRule("hh", pattern, nil)
	require.NoError(t, err)

	require.NoError(t, pattern.RemoveNode(qgraph.Pos(0, 0)))
	assert.Equal(t, 2, r.Pattern().Len())

	p := r.Pattern()
	require.NoError(t, p.RemoveNode(qgraph.Pos(0, 1)))
	assert.Equal(t, 2, r.Pattern().Len())
	assert.Equal(t, 0, r.Replacement().Len())
}

func TestNewRuleNormalizesPatternAngles(t *testing.T) {
	pattern := graph(t, build.New().Push(qgraph.RZ.On(0).WithAngle(-math.Pi)))
	r, err := NewRule("rz", pattern, nil)
	require.NoError(t, err)
	n, _ := r.Pattern().Node(qgraph.Pos(0, 0))
	assert.InDelta(t, 3*math.Pi, n.Angle, 1e-9)
}

func TestNewRuleRejectsOversizedReplacement(t *testing.T) {
	pattern := graph(t, build.New().Push(qgraph.H.On(0)))
	replacement := graph(t, build.New().Push(qgraph.X.On(0)).Push(qgraph.X.On(0)))
	_, err := NewRule("grow", pattern, replacement)
	assert.ErrorIs(t, err, ErrReplacementTooLarge)
}

func TestSetHash(t *testing.T) {
	mk := func(name string, k qgraph.Kind) *Rule {
		r, err := NewRule(name, graph(t, build.New().Push(k.On(0)).Push(k.On(0))), nil)
		require.NoError(t, err)
		return r
	}
	a := NewSet(mk("a", qgraph.H), mk("b", qgraph.X))
	b := NewSet(mk("a", qgraph.H), mk("b", qgraph.X))
	c := NewSet(mk("b", qgraph.X), mk("a", qgraph.H))

	assert.Equal(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Hash(), c.Hash(), "order is part of the identity")
	assert.Len(t, a.Hash(), 64)
	assert.Equal(t, []string{"a", "b"}, a.Names())

	r, ok := a.Rule("b")
	require.True(t, ok)
	assert.Equal(t, "b", r.Name)
	_, ok = a.Rule("missing")
	assert.False(t, ok)
}

func TestDefault(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)
	assert.Greater(t, set.Len(), 10)
	assert.Contains(t, set.Names(), "h-h")
	assert.Contains(t, set.Names(), "cx-cx")

	again, err := Default()
	require.NoError(t, err)
	assert.NotSame(t, set, again)
	assert.Equal(t, set.Hash(), again.Hash())
}

func TestSubset(t *testing.T) {
	set, err := Default()
	require.NoError(t, err)

	sub, err := set.Subset("cx-cx", "h-h")
	require.NoError(t, err)
	assert.Equal(t, []string{"cx-cx", "h-h"}, sub.Names())
	assert.NotEqual(t, set.Hash(), sub.Hash())

	_, err = set.Subset("h-h", "nope")
	assert.Equal(t, qerrors.ErrCodeNotFound, qerrors.GetCode(err))
}

func TestGateRecordValidate(t *testing.T) {
	q := func(v int) *int { return &v }
	a := func(v float64) *Angle { x := Angle(v); return &x }

	tests := []struct {
		name    string
		rec     GateRecord
		wantErr string
	}{
		{"single", GateRecord{Gate: "h", Qubit: q(0)}, ""},
		{"controlled", GateRecord{Gate: "cx", Control: q(0), Target: q(1)}, ""},
		{"toffoli", GateRecord{Gate: "ccx", Controls: []int{0, 1}, Target: q(2)}, ""},
		{"swap", GateRecord{Gate: "swap", Qubits: []int{0, 1}}, ""},
		{"measure", GateRecord{Gate: "measure", Qubit: q(0), Bit: q(1)}, ""},
		{"rotation", GateRecord{Gate: "rz", Qubit: q(0), Angle: a(math.Pi)}, ""},
		{"unknown gate", GateRecord{Gate: "u3", Qubit: q(0)}, "unknown gate"},
		{"missing gate", GateRecord{Qubit: q(0)}, "gate failed required"},
		{"missing qubit", GateRecord{Gate: "h"}, "qubit is required for h"},
		{"extra target", GateRecord{Gate: "h", Qubit: q(0), Target: q(1)}, "target is not allowed for h"},
		{"negative qubit", GateRecord{Gate: "x", Qubit: q(-1)}, "qubit failed min=0"},
		{"duplicate qubits", GateRecord{Gate: "cz", Control: q(1), Target: q(1)}, "must be distinct"},
		{"missing angle", GateRecord{Gate: "rx", Qubit: q(0)}, "angle is required for rx"},
		{"angle on h", GateRecord{Gate: "h", Qubit: q(0), Angle: a(1)}, "angle is not allowed for h"},
		{"angle out of range", GateRecord{Gate: "ry", Qubit: q(0), Angle: a(13)}, "within ±4π"},
		{"measure without bit", GateRecord{Gate: "measure", Qubit: q(0)}, "bit is required for measure"},
		{"short controls", GateRecord{Gate: "ccz", Controls: []int{0}, Target: q(2)}, "controls failed len=2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rec.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseYAML(t *testing.T) {
	doc := `
- name: rz-pi
  pattern:
    - {gate: rz, qubit: 0, angle: pi/2}
    - {gate: rz, qubit: 0, angle: "-3*pi/2"}
  replacement: []
- pattern:
    - {gate: cx, control: 0, target: 1}
    - {gate: x, qubit: 1, column: 3}
  replacement:
    - {gate: x, qubit: 1}
`
	set, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 2, set.Len())
	assert.Equal(t, []string{"rz-pi", "rule-1"}, set.Names())

	rz := set.Rules()[0].Pattern()
	n, _ := rz.Node(qgraph.Pos(0, 1))
	assert.InDelta(t, 5*math.Pi/2, n.Angle, 1e-9, "angles are normalized into [0, 4π)")

	p := set.Rules()[1].Pattern()
	assert.Equal(t, 4, p.Width(), "column 3 is kept as written")
	x, _ := p.Node(qgraph.Pos(1, 3))
	assert.Equal(t, qgraph.X, x.Kind)
}

func TestParseJSON(t *testing.T) {
	doc := `[
		{"name": "ccz-ccz",
		 "pattern": [
			{"gate": "ccz", "controls": [0, 1], "target": 2},
			{"gate": "ccz", "controls": [0, 1], "target": 2}],
		 "replacement": []},
		{"name": "p",
		 "pattern": [{"gate": "p", "qubit": 0, "angle": 0.5}],
		 "replacement": []}
	]`
	set, err := Parse([]byte(doc), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"ccz-ccz", "p"}, set.Names())
	assert.Equal(t, 3, set.Rules()[0].Pattern().Height())
}

func TestParseIdentityReplacement(t *testing.T) {
	doc := `
- name: hh
  pattern:
    - {gate: h, qubit: 0}
    - {gate: h, qubit: 0}
  replacement:
    - {gate: id, qubit: 0}
    - {gate: id, qubit: 0}
`
	set, err := Parse([]byte(doc), FormatYAML)
	require.NoError(t, err)
	require.Equal(t, 1, set.Len())

	r := set.Rules()[0].Replacement()
	assert.Equal(t, 1, r.Height())
	assert.Equal(t, 1, r.Width(), "pushed fillers share one column")
	n, ok := r.Node(qgraph.Pos(0, 0))
	require.True(t, ok)
	assert.True(t, n.IsFiller())
}

func TestParseErrorsNameEntry(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		wantIndex int
		wantMsg   string
	}{
		{
			name:      "missing replacement key",
			doc:       `[{"pattern": [{"gate": "h", "qubit": 0}], "replacement": []}, {"pattern": [{"gate": "h", "qubit": 0}]}]`,
			wantIndex: 1,
			wantMsg:   "replacement failed required",
		},
		{
			name:      "missing pattern key",
			doc:       `[{"replacement": []}]`,
			wantIndex: 0,
			wantMsg:   "pattern failed required",
		},
		{
			name:      "malformed record",
			doc:       `[{"pattern": [{"gate": "h", "qubit": 0}, {"gate": "cx", "qubit": 0}], "replacement": []}]`,
			wantIndex: 0,
			wantMsg:   "pattern[1].control is required for cx",
		},
		{
			name:      "filler-only pattern",
			doc:       `[{"name": "a", "pattern": [{"gate": "h", "qubit": 0}], "replacement": []}, {"name": "b", "pattern": [{"gate": "id", "qubit": 0}], "replacement": []}]`,
			wantIndex: 1,
			wantMsg:   "no anchor",
		},
		{
			name:      "duplicate name",
			doc:       `[{"name": "a", "pattern": [{"gate": "h", "qubit": 0}], "replacement": []}, {"name": "a", "pattern": [{"gate": "x", "qubit": 0}], "replacement": []}]`,
			wantIndex: 1,
			wantMsg:   "duplicate rule name",
		},
		{
			name:      "occupied column",
			doc:       `[{"pattern": [{"gate": "h", "qubit": 0, "column": 0}, {"gate": "x", "qubit": 0, "column": 0}], "replacement": []}]`,
			wantIndex: 0,
			wantMsg:   "record 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc), FormatJSON)
			require.Error(t, err)
			assert.Equal(t, qerrors.ErrCodeInvalidRuleDocument, qerrors.GetCode(err))

			var ie *qerrors.IndexedError
			require.True(t, errors.As(err, &ie), "error should name the entry: %v", err)
			assert.Equal(t, tt.wantIndex, ie.Index)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte(`[{"pattern": [{"gate": "h", "qubits": 0}], "replacment": []}]`), FormatJSON)
	require.Error(t, err)
	assert.Equal(t, qerrors.ErrCodeInvalidRuleDocument, qerrors.GetCode(err))

	_, err = Parse([]byte("- pattern: [{gate: h, qubit: 0}]\n  replacment: []\n"), FormatYAML)
	require.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		set, err := Parse(nil, f)
		require.NoError(t, err)
		assert.Equal(t, 0, set.Len())
	}
}

func TestFormatFromPath(t *testing.T) {
	f, err := FormatFromPath("rules/custom.YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	_, err = FormatFromPath("rules.toml")
	assert.Equal(t, qerrors.ErrCodeInvalidFormat, qerrors.GetCode(err))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(t.TempDir() + "/nope.json")
	assert.Equal(t, qerrors.ErrCodeFileNotFound, qerrors.GetCode(err))
}

func TestAngleDecoding(t *testing.T) {
	var recs []GateRecord
	require.NoError(t, json.Unmarshal([]byte(`[{"gate": "rz", "qubit": 0, "angle": "pi/4"}, {"gate": "rz", "qubit": 0, "angle": 1.5}]`), &recs))
	assert.InDelta(t, math.Pi/4, float64(*recs[0].Angle), 1e-12)
	assert.InDelta(t, 1.5, float64(*recs[1].Angle), 1e-12)

	err := json.Unmarshal([]byte(`[{"gate": "rz", "qubit": 0, "angle": "tau"}]`), &recs)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid angle"))
}
