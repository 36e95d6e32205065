package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// MaxAngle bounds the magnitude of angles in rule documents.
const MaxAngle = 4 * math.Pi

// Angle is a gate angle in a rule document. It decodes from a number or
// from a pi expression such as "pi/2" or "-3*pi/4".
type Angle float64

// UnmarshalJSON accepts a JSON number or string.
func (a *Angle) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err == nil {
		*a = Angle(v)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("angle must be a number or pi expression: %s", data)
	}
	return a.parse(s)
}

// UnmarshalYAML accepts a YAML scalar.
func (a *Angle) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: angle must be a scalar", node.Line)
	}
	return a.parse(node.Value)
}

func (a *Angle) parse(s string) error {
	v, err := qgraph.ParseAngle(s)
	if err != nil {
		return err
	}
	*a = Angle(v)
	return nil
}

// MarshalJSON writes the angle in pi notation where possible.
func (a Angle) MarshalJSON() ([]byte, error) {
	return json.Marshal(qgraph.FormatAngle(float64(a)))
}

// GateRecord is one gate of a rule document. Which qubit fields apply
// depends on the gate:
//
//   - single-qubit gates and measure: qubit (plus bit for measure)
//   - cx, cy, cz, ch, cp: control and target
//   - swap: qubits (two entries)
//   - ccx, ccz: controls (two entries) and target
//
// Parametrized gates (rx, ry, rz, p, cp) require angle. Column is
// optional; without it the gate is pushed to the next free column.
type GateRecord struct {
	Gate     string `json:"gate" yaml:"gate" validate:"required,gatekind"`
	Qubit    *int   `json:"qubit,omitempty" yaml:"qubit,omitempty" validate:"omitempty,min=0"`
	Control  *int   `json:"control,omitempty" yaml:"control,omitempty" validate:"omitempty,min=0"`
	Target   *int   `json:"target,omitempty" yaml:"target,omitempty" validate:"omitempty,min=0"`
	Controls []int  `json:"controls,omitempty" yaml:"controls,omitempty" validate:"omitempty,len=2,dive,min=0"`
	Qubits   []int  `json:"qubits,omitempty" yaml:"qubits,omitempty" validate:"omitempty,len=2,dive,min=0"`
	Bit      *int   `json:"bit,omitempty" yaml:"bit,omitempty" validate:"omitempty,min=0"`
	Column   *int   `json:"column,omitempty" yaml:"column,omitempty" validate:"omitempty,min=0"`
	Angle    *Angle `json:"angle,omitempty" yaml:"angle,omitempty" validate:"omitempty,angle"`
}

// Entry is one rule of a rule document.
type Entry struct {
	Name        string       `json:"name,omitempty" yaml:"name,omitempty" validate:"rulename"`
	Pattern     []GateRecord `json:"pattern" yaml:"pattern" validate:"required,min=1,dive"`
	Replacement []GateRecord `json:"replacement" yaml:"replacement" validate:"required,dive"`
}

// recordValidate is the validator instance for rule documents.
// Initialized in init() with the gate-specific validators.
var recordValidate *validator.Validate

func init() {
	recordValidate = validator.New(validator.WithRequiredStructEnabled())
	recordValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = recordValidate.RegisterValidation("gatekind", validateGateKind)
	_ = recordValidate.RegisterValidation("angle", validateAngle)
	_ = recordValidate.RegisterValidation("rulename", validateRuleName)
	recordValidate.RegisterStructValidation(validateGateShape, GateRecord{})
}

func validateGateKind(fl validator.FieldLevel) bool {
	_, ok := qgraph.ParseKind(fl.Field().String())
	return ok
}

func validateAngle(fl validator.FieldLevel) bool {
	v := fl.Field().Float()
	return !math.IsNaN(v) && math.Abs(v) <= MaxAngle+qgraph.AngleAbsTol
}

func validateRuleName(fl validator.FieldLevel) bool {
	return qerrors.ValidateRuleName(fl.Field().String()) == nil
}

// validateGateShape checks which qubit fields a record carries against its
// gate kind, and that the qubits are distinct.
func validateGateShape(sl validator.StructLevel) {
	r := sl.Current().Interface().(GateRecord)
	kind, ok := qgraph.ParseKind(r.Gate)
	if !ok {
		return // reported by the gatekind tag
	}

	expect := func(want, present bool, field string) {
		switch {
		case want && !present:
			sl.ReportError(r.Gate, field, field, "required_for_"+kind.String(), "")
		case !want && present:
			sl.ReportError(r.Gate, field, field, "excluded_for_"+kind.String(), "")
		}
	}
	controlled := kind.Controls() > 0
	expect(kind.Arity() == 1, r.Qubit != nil, "qubit")
	expect(kind.Controls() == 1, r.Control != nil, "control")
	expect(controlled, r.Target != nil, "target")
	expect(kind.Controls() == 2, r.Controls != nil, "controls")
	expect(kind == qgraph.Swap, r.Qubits != nil, "qubits")
	expect(kind == qgraph.Measure, r.Bit != nil, "bit")
	expect(kind.Parametrized(), r.Angle != nil, "angle")

	if qs := r.qubits(kind); hasDuplicate(qs) {
		sl.ReportError(r.Qubits, "qubits", "Qubits", "distinct_qubits", fmt.Sprint(qs))
	}
}

func hasDuplicate(qs []int) bool {
	for i, q := range qs {
		if slices.Contains(qs[:i], q) {
			return true
		}
	}
	return false
}

// qubits collects the record's qubit indices in gate order. Missing fields
// are skipped, so the result is only complete for a valid record.
func (r GateRecord) qubits(kind qgraph.Kind) []int {
	var qs []int
	add := func(p *int) {
		if p != nil {
			qs = append(qs, *p)
		}
	}
	switch {
	case kind.Arity() == 1:
		add(r.Qubit)
	case kind == qgraph.Swap:
		qs = append(qs, r.Qubits...)
	default:
		add(r.Control)
		qs = append(qs, r.Controls...)
		add(r.Target)
	}
	return qs
}

// Validate checks the record against the gate schema.
func (r GateRecord) Validate() error {
	if err := recordValidate.Struct(r); err != nil {
		return describeValidation(err)
	}
	return nil
}

// ToGate converts a validated record.
func (r GateRecord) ToGate() (qgraph.Gate, error) {
	if err := r.Validate(); err != nil {
		return qgraph.Gate{}, err
	}
	kind, _ := qgraph.ParseKind(r.Gate)
	gate := kind.On(r.qubits(kind)...)
	if r.Angle != nil {
		gate = gate.WithAngle(float64(*r.Angle))
	}
	if r.Bit != nil {
		gate = gate.WithBit(*r.Bit)
	}
	return gate, nil
}

// describeValidation flattens validator errors into one readable error.
func describeValidation(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		field := strings.TrimPrefix(fe.Namespace(), "GateRecord.")
		field = strings.TrimPrefix(field, "Entry.")
		switch {
		case strings.HasPrefix(fe.Tag(), "required_for_"):
			msgs = append(msgs, fmt.Sprintf("%s is required for %s", field, strings.TrimPrefix(fe.Tag(), "required_for_")))
		case strings.HasPrefix(fe.Tag(), "excluded_for_"):
			msgs = append(msgs, fmt.Sprintf("%s is not allowed for %s", field, strings.TrimPrefix(fe.Tag(), "excluded_for_")))
		case fe.Tag() == "distinct_qubits":
			msgs = append(msgs, fmt.Sprintf("qubits %s must be distinct", fe.Param()))
		case fe.Tag() == "gatekind":
			msgs = append(msgs, fmt.Sprintf("unknown gate %q", fe.Value()))
		case fe.Tag() == "angle":
			msgs = append(msgs, fmt.Sprintf("%s must be finite and within ±4π", field))
		case fe.Param() != "":
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}
