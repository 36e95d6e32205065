package rules

import (
	_ "embed"
)

//go:embed default_rules.yaml
var defaultRules []byte

// Default parses the bundled rule document. Each call builds a fresh set;
// construct it once and pass it to the simplifier.
func Default() (*Set, error) {
	return Parse(defaultRules, FormatYAML)
}

// DefaultDocument returns the bundled rule document in YAML.
func DefaultDocument() []byte {
	return append([]byte(nil), defaultRules...)
}
