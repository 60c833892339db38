package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	p := Default()
	if err := p.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if got := p.Inlet(); got != geom.Pt(-100, 0) {
		t.Errorf("Inlet() = %v, want (-100, 0)", got)
	}
	if got, want := p.TerminalFlow(), DefaultInletFlow/DefaultTerminals; got != want {
		t.Errorf("TerminalFlow() = %g, want %g", got, want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.toml")
	content := `
perfusion_radius = 40
terminals = 12
murray_exponent = 2.7
seed = 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if p.PerfusionRadius != 40 || p.Terminals != 12 || p.MurrayExponent != 2.7 || p.Seed != 7 {
		t.Errorf("Load() = %+v", p)
	}
	// Unset keys keep their defaults.
	if p.InletPressure != DefaultInletPressure {
		t.Errorf("InletPressure = %g, want default %g", p.InletPressure, DefaultInletPressure)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "perfusion_radius = 40\ncolour = \"red\"\n"},
		{"syntax", "perfusion_radius = \n"},
		{"wrong type", "terminals = \"many\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.content))
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Decode() error = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	p := Default()
	p.Terminals = 9
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if got != p {
		t.Errorf("round trip = %+v, want %+v", got, p)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"zero radius", func(p *Params) { p.PerfusionRadius = 0 }},
		{"huge radius", func(p *Params) { p.PerfusionRadius = 2_000_000_000 }},
		{"negative terminals", func(p *Params) { p.Terminals = -1 }},
		{"inlet below terminal", func(p *Params) { p.InletPressure = p.TerminalPressure }},
		{"zero flow", func(p *Params) { p.InletFlow = 0 }},
		{"zero exponent", func(p *Params) { p.MurrayExponent = 0 }},
		{"negative rejections", func(p *Params) { p.MaxRejections = -5 }},
		{"negative step", func(p *Params) { p.Step = -0.1 }},
		{"coarse step", func(p *Params) { p.PerfusionRadius = 1; p.Step = 1 }},
		{"negative epsilon", func(p *Params) { p.Epsilon = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Default()
			tt.modify(&p)
			err := p.Validate()
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Validate() = %v, want %s", err, errors.ErrCodeInvalidConfig)
			}
		})
	}
}

func TestValidateMaxRadius(t *testing.T) {
	p := Default()
	p.PerfusionRadius = MaxPerfusionRadius
	if err := p.Validate(); err != nil {
		t.Errorf("Validate() at the maximum radius = %v", err)
	}
	p.PerfusionRadius++
	if err := p.Validate(); err == nil {
		t.Error("Validate() should reject a radius above the maximum")
	}
}

func TestHash(t *testing.T) {
	a, b := Default(), Default()
	if a.Hash() != b.Hash() {
		t.Error("Hash should be deterministic")
	}
	b.Seed++
	if a.Hash() == b.Hash() {
		t.Error("different seeds should hash differently")
	}
	if len(a.Hash()) != 64 {
		t.Errorf("Hash length = %d, want 64", len(a.Hash()))
	}
}

func TestSolver(t *testing.T) {
	p := Default()
	p.Epsilon = 0.5
	s := p.Solver()
	if s.Exponent != p.MurrayExponent || s.Epsilon != 0.5 {
		t.Errorf("Solver() = %+v", s)
	}
}

func TestExampleParamFiles(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "params", "*.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Skip("no example parameter files")
	}
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			p, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if err := p.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}
