package errors

import (
	"strings"
	"testing"
)

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "points", false},
		{"valid with dash", "final-tree", false},
		{"valid with underscore", "run_42", false},
		{"valid with dot", "tree.v2", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"path traversal", "a..b", true},
		{"slash", "out/tree", true},
		{"backslash", "out\\tree", true},
		{"leading dot", ".hidden", true},
		{"leading dash", "-flag", true},
		{"space", "final tree", true},
		{"null byte", "foo\x00bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLabel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateLabel(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidLabel) {
				t.Errorf("ValidateLabel(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidLabel)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "tree.svg", false},
		{"valid nested", "out/run/tree.png", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"absolute", "/etc/passwd", true},
		{"traversal", "../secret", true},
		{"traversal nested", "out/../../x", true},
		{"backslash", "out\\tree.svg", true},
		{"null byte", "tree\x00.svg", true},
		{"control char", "tree\x01.svg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateFormat(t *testing.T) {
	allowed := []string{"svg", "png", "json"}
	if err := ValidateFormat("svg", allowed); err != nil {
		t.Errorf("ValidateFormat(svg) = %v", err)
	}
	err := ValidateFormat("gif", allowed)
	if !Is(err, ErrCodeInvalidFormat) {
		t.Fatalf("ValidateFormat(gif) = %v, want %v", err, ErrCodeInvalidFormat)
	}
	if !strings.Contains(err.Error(), "svg, png, json") {
		t.Errorf("message %q does not list allowed formats", err.Error())
	}
}
