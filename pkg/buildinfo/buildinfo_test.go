package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := Version
	Version = "v9.9.9"
	defer func() { Version = old }()

	if got := Template(); !strings.HasPrefix(got, "{{.Name}} v9.9.9\n") {
		t.Errorf("Template() = %q", got)
	}
	if got := String(); !strings.Contains(got, "version: v9.9.9") || !strings.Contains(got, "commit: ") {
		t.Errorf("String() = %q", got)
	}
}
