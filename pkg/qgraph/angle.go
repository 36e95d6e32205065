package qgraph

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Angle tolerance used by every angle comparison in the module.
const (
	AngleAbsTol = 1e-9
	AngleRelTol = 1e-9
)

// AnglesEqual compares two angles with the module's absolute and relative
// tolerance.
func AnglesEqual(a, b float64) bool {
	diff := math.Abs(a - b)
	if diff <= AngleAbsTol {
		return true
	}
	return diff <= AngleRelTol*math.Max(math.Abs(a), math.Abs(b))
}

// NormalizeAngle reduces angle into [0, period). Values within tolerance of
// the period map to 0. A zero period leaves the angle unchanged.
func NormalizeAngle(angle, period float64) float64 {
	if period == 0 {
		return angle
	}
	r := math.Mod(angle, period)
	if r < 0 {
		r += period
	}
	if AnglesEqual(r, period) || AnglesEqual(r, 0) {
		return 0
	}
	return r
}

// piExpr matches pi, 2pi, 2*pi, pi/2, 3*pi/4, -pi/2 and similar.
var piExpr = regexp.MustCompile(`^(-?)(\d*\.?\d*)\s*\*?\s*pi(?:\s*/\s*(\d+\.?\d*))?$`)

// ParseAngle parses a plain number or a multiple/fraction of pi.
//
// Accepted forms: "1.5707", "-0.5", "pi", "pi/2", "2pi", "3*pi/4", "-pi/8".
func ParseAngle(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty angle")
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, nil
	}

	m := piExpr.FindStringSubmatch(strings.ToLower(s))
	if m == nil {
		return 0, fmt.Errorf("invalid angle %q", s)
	}
	coeff := 1.0
	if m[2] != "" {
		c, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid angle %q: %w", s, err)
		}
		coeff = c
	}
	v := coeff * math.Pi
	if m[3] != "" {
		d, err := strconv.ParseFloat(m[3], 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("invalid angle %q: bad denominator", s)
		}
		v /= d
	}
	if m[1] == "-" {
		v = -v
	}
	return v, nil
}

var piForms = []struct {
	value   float64
	display string
}{
	{4 * math.Pi, "4*pi"},
	{2 * math.Pi, "2*pi"},
	{math.Pi, "pi"},
	{math.Pi / 2, "pi/2"},
	{math.Pi / 3, "pi/3"},
	{math.Pi / 4, "pi/4"},
	{math.Pi / 6, "pi/6"},
	{math.Pi / 8, "pi/8"},
	{3 * math.Pi / 4, "3*pi/4"},
	{3 * math.Pi / 2, "3*pi/2"},
	{2 * math.Pi / 3, "2*pi/3"},
	{5 * math.Pi / 4, "5*pi/4"},
	{7 * math.Pi / 4, "7*pi/4"},
}

// FormatAngle renders an angle, using pi notation for common fractions.
func FormatAngle(v float64) string {
	for _, pf := range piForms {
		if AnglesEqual(v, pf.value) {
			return pf.display
		}
		if AnglesEqual(v, -pf.value) {
			return "-" + pf.display
		}
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
