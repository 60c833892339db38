package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		format, want string
	}{
		{"svg", "tree.svg"},
		{"json", "tree.json"},
		{"topology", "tree.topology.svg"},
		{"raster-png", "tree.raster.png"},
	}
	for _, tt := range tests {
		if got := artifactPath("out", "tree", tt.format); got != filepath.Join("out", tt.want) {
			t.Errorf("artifactPath(%q) = %q, want %q", tt.format, got, filepath.Join("out", tt.want))
		}
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	arts := map[string][]byte{"svg": []byte("<svg/>"), "json": []byte("{}")}

	paths, err := writeArtifacts(dir, "tree", arts, []string{"json", "svg"})
	if err != nil {
		t.Fatalf("writeArtifacts: %v", err)
	}
	if len(paths) != 2 || filepath.Base(paths[0]) != "tree.json" {
		t.Fatalf("paths = %v, want json then svg", paths)
	}
	data, err := os.ReadFile(paths[1])
	if err != nil || string(data) != "<svg/>" {
		t.Errorf("tree.svg = %q, %v", data, err)
	}
}

func TestWriteArtifactsErrors(t *testing.T) {
	dir := t.TempDir()
	arts := map[string][]byte{"svg": []byte("<svg/>")}

	if _, err := writeArtifacts(dir, "../escape", arts, []string{"svg"}); err == nil {
		t.Error("writeArtifacts should reject a traversing label")
	}
	if _, err := writeArtifacts(dir, "tree", arts, []string{"png"}); err == nil {
		t.Error("writeArtifacts should fail for a format that was not rendered")
	}
}
