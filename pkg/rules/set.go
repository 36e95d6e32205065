package rules

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"slices"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
)

// Set is an immutable ordered list of rules. It is constructed once and
// handed to the simplifier explicitly.
type Set struct {
	rules []*Rule
	hash  string
}

// NewSet returns a set applying rules in the given order.
func NewSet(rules ...*Rule) *Set {
	s := &Set{rules: slices.Clone(rules)}
	s.hash = s.computeHash()
	return s
}

// Rules returns the rules in application order.
func (s *Set) Rules() []*Rule { return slices.Clone(s.rules) }

// Len returns the number of rules.
func (s *Set) Len() int { return len(s.rules) }

// Names returns the rule names in application order.
func (s *Set) Names() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Rule returns the rule with the given name.
func (s *Set) Rule(name string) (*Rule, bool) {
	i := slices.IndexFunc(s.rules, func(r *Rule) bool { return r.Name == name })
	if i < 0 {
		return nil, false
	}
	return s.rules[i], true
}

// Subset returns a set holding the named rules, in the order given.
func (s *Set) Subset(names ...string) (*Set, error) {
	picked := make([]*Rule, 0, len(names))
	for _, name := range names {
		r, ok := s.Rule(name)
		if !ok {
			return nil, qerrors.New(qerrors.ErrCodeNotFound, "unknown rule %q", name)
		}
		picked = append(picked, r)
	}
	return NewSet(picked...), nil
}

// Hash returns a stable content hash of the set, suitable for cache keys.
// Sets with the same rules in the same order hash identically.
func (s *Set) Hash() string { return s.hash }

type hashedGraph struct {
	Nodes []string `json:"n"`
	Edges []string `json:"e"`
}

type hashedRule struct {
	Name        string      `json:"name"`
	Pattern     hashedGraph `json:"p"`
	Replacement hashedGraph `json:"r"`
}

func (s *Set) computeHash() string {
	snapshot := make([]hashedRule, len(s.rules))
	for i, r := range s.rules {
		snapshot[i] = hashedRule{
			Name:        r.Name,
			Pattern:     snapshotGraph(r.pattern),
			Replacement: snapshotGraph(r.replacement),
		}
	}
	data, _ := json.Marshal(snapshot)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func snapshotGraph(g *qgraph.Graph) hashedGraph {
	var h hashedGraph
	for _, n := range g.Nodes() {
		h.Nodes = append(h.Nodes, fmt.Sprintf("%s %s %.12g %d", n.Pos, n.Kind, n.Angle, n.Bit))
	}
	for _, e := range g.Edges() {
		if !e.Kind.Positional() {
			h.Edges = append(h.Edges, e.String())
		}
	}
	return h
}
