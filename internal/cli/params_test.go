package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/config"
)

func newParamCommand(t *testing.T, args ...string) (*cobra.Command, *paramFlags) {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	pf := addParamFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags(%v): %v", args, err)
	}
	return cmd, pf
}

func TestResolveDefaults(t *testing.T) {
	cmd, pf := newParamCommand(t)
	p, err := pf.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p != config.Default() {
		t.Errorf("resolve() = %+v, want defaults", p)
	}
}

func TestResolveFlagsOverride(t *testing.T) {
	cmd, pf := newParamCommand(t, "-n", "32", "--seed", "9", "--murray", "2.7")
	p, err := pf.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Terminals != 32 || p.Seed != 9 || p.MurrayExponent != 2.7 {
		t.Errorf("resolve() = %+v, want terminals 32, seed 9, murray 2.7", p)
	}
	if p.PerfusionRadius != config.DefaultPerfusionRadius {
		t.Errorf("radius = %d, untouched flags should keep their default", p.PerfusionRadius)
	}
}

func TestResolveConfigFileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	if err := os.WriteFile(path, []byte("terminals = 40\nseed = 3\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cmd, pf := newParamCommand(t, "-c", path, "--seed", "11")
	p, err := pf.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Terminals != 40 {
		t.Errorf("terminals = %d, want 40 from the file", p.Terminals)
	}
	if p.Seed != 11 {
		t.Errorf("seed = %d, want 11 from the flag", p.Seed)
	}
}

func TestResolveInvalid(t *testing.T) {
	cmd, pf := newParamCommand(t, "-n", "0")
	if _, err := pf.resolve(cmd); err == nil {
		t.Error("resolve with zero terminals should fail")
	}
}
