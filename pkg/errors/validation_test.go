package errors

import (
	"strings"
	"testing"
)

func TestValidateRuleName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"empty", "", false},
		{"simple", "h-h", false},
		{"dotted", "clifford.cx_cx", false},
		{"digits", "rule42", false},

		{"leading dash", "-h", true},
		{"space", "h h", true},
		{"slash", "a/b", true},
		{"unicode", "hadamard-σ", true},
		{"too long", strings.Repeat("a", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRuleName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateRuleName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidRuleDocument) {
				t.Errorf("ValidateRuleName(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		relative bool
		wantErr  bool
	}{
		{"valid simple", "rules/clifford.yaml", true, false},
		{"valid filename only", "rules.json", true, false},
		{"absolute allowed", "/etc/qsimplify/rules.yaml", false, false},
		{"traversal allowed when absolute ok", "../rules.yaml", false, false},

		{"empty", "", false, true},
		{"too long", strings.Repeat("a", 600), false, true},
		{"absolute path", "/etc/passwd", true, true},
		{"path traversal", "../../../etc/passwd", true, true},
		{"path traversal middle", "foo/../bar", true, true},
		{"null byte", "foo\x00bar", false, true},
		{"backslash", "foo\\bar", true, true},
		{"control char", "foo\x01bar", false, true},
		{"newline", "foo\nbar", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input, tt.relative)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidGraphOp,
		ErrCodeInvalidPattern,
		ErrCodeInvalidRuleDocument,
		ErrCodeInvalidCircuit,
		ErrCodeInvalidFormat,
		ErrCodeInvalidPath,
		ErrCodeNotFound,
		ErrCodeFileNotFound,
		ErrCodeBudgetExceeded,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
