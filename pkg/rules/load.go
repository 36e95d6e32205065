package rules

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	qerrors "github.com/matzehuels/qsimplify/pkg/errors"
	"github.com/matzehuels/qsimplify/pkg/qgraph"
	"github.com/matzehuels/qsimplify/pkg/qgraph/build"
)

// Format is a rule document encoding.
type Format string

// Supported rule document formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from a file extension: .json, .yaml or .yml.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", qerrors.New(qerrors.ErrCodeInvalidFormat, "unsupported rule document extension %q (want .json, .yaml or .yml)", filepath.Ext(path))
}

// LoadFile reads a rule document from disk.
func LoadFile(path string) (*Set, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, qerrors.Wrap(qerrors.ErrCodeFileNotFound, err, "rule document %s", path)
		}
		return nil, err
	}
	return Parse(data, format)
}

// Load reads a rule document from r.
func Load(r io.Reader, format Format) (*Set, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data, format)
}

// Parse decodes a rule document and builds its rules in document order.
// Failures carry code INVALID_RULE_DOCUMENT and a [qerrors.IndexedError]
// naming the offending entry.
func Parse(data []byte, format Format) (*Set, error) {
	entries, err := Decode(data, format)
	if err != nil {
		return nil, err
	}

	rules := make([]*Rule, 0, len(entries))
	seen := make(map[string]int, len(entries))
	for i, e := range entries {
		r, err := e.Rule(i)
		if err != nil {
			return nil, err
		}
		if prev, dup := seen[r.Name]; dup {
			return nil, invalidEntry(i, "name", fmt.Errorf("duplicate rule name %q (first used by entry %d)", r.Name, prev))
		}
		seen[r.Name] = i
		rules = append(rules, r)
	}
	return NewSet(rules...), nil
}

// Decode parses a rule document into entries without building graphs.
// Unknown keys are rejected.
func Decode(data []byte, format Format) ([]Entry, error) {
	var entries []Entry
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, qerrors.Wrap(qerrors.ErrCodeInvalidRuleDocument, err, "decode JSON rule document")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&entries); err != nil && !errors.Is(err, io.EOF) {
			return nil, qerrors.Wrap(qerrors.ErrCodeInvalidRuleDocument, err, "decode YAML rule document")
		}
	default:
		return nil, qerrors.New(qerrors.ErrCodeInvalidFormat, "unknown rule document format %q", format)
	}
	return entries, nil
}

// Rule validates the entry and builds its rule. index is the entry's
// position in the document; it names unnamed rules and is reported in errors.
func (e Entry) Rule(index int) (*Rule, error) {
	if err := recordValidate.Struct(e); err != nil {
		return nil, invalidEntry(index, "", describeValidation(err))
	}

	pattern, err := buildGraph(e.Pattern)
	if err != nil {
		return nil, invalidEntry(index, "pattern", err)
	}
	replacement, err := buildGraph(e.Replacement)
	if err != nil {
		return nil, invalidEntry(index, "replacement", err)
	}

	name := e.Name
	if name == "" {
		name = fmt.Sprintf("rule-%d", index)
	}
	r, err := NewRule(name, pattern, replacement)
	if err != nil {
		return nil, invalidEntry(index, name, err)
	}
	return r, nil
}

// buildGraph places the records with exact shape: records with a column
// are put there, the others pushed.
func buildGraph(records []GateRecord) (*qgraph.Graph, error) {
	b := build.New()
	for i, rec := range records {
		gate, err := rec.ToGate()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if rec.Column != nil {
			b.Put(gate, *rec.Column)
		} else {
			b.Push(gate)
		}
		if err := b.Err(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}
	return b.Build(false)
}

func invalidEntry(index int, field string, err error) error {
	return qerrors.Wrap(qerrors.ErrCodeInvalidRuleDocument,
		&qerrors.IndexedError{Index: index, Field: field, Err: err},
		"invalid rule document")
}
