// Package config loads and validates the parameters of a growth run.
//
// Parameters come from three layers, later layers winning:
//
//  1. [Default]
//  2. a TOML file read with [Load]
//  3. command-line flags applied by the CLI
//
// A parameter file looks like:
//
//	perfusion_radius  = 100
//	terminals         = 64
//	terminal_pressure = 8000     # Pa
//	inlet_pressure    = 13300    # Pa
//	inlet_flow        = 8.33e-6  # m³/s
//	murray_exponent   = 3
//	seed              = 42
package config

import (
	"encoding/json"
	"io"
	"math"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/arteria/pkg/cache"
	"github.com/matzehuels/arteria/pkg/core/geom"
	"github.com/matzehuels/arteria/pkg/core/grow"
	"github.com/matzehuels/arteria/pkg/core/junction"
	"github.com/matzehuels/arteria/pkg/core/sampler"
	"github.com/matzehuels/arteria/pkg/errors"
)

// Default values.
const (
	DefaultPerfusionRadius  = 100
	DefaultTerminals        = 64
	DefaultTerminalPressure = 8000.0  // 60 mmHg
	DefaultInletPressure    = 13300.0 // 100 mmHg
	DefaultInletFlow        = 8.33e-6 // 500 ml/min
	DefaultMurrayExponent   = 3.0
	DefaultSeed             = uint64(42)
)

// MaxPerfusionRadius bounds the radius so the dense rasters, side 2R+1,
// stay within a few tens of megabytes.
const MaxPerfusionRadius = 4096

// Params is the full configuration of a growth run. It is embedded in every
// persisted tree document, so it carries json and bson tags as well.
type Params struct {
	PerfusionRadius  int     `toml:"perfusion_radius" json:"perfusion_radius" bson:"perfusion_radius"`
	Terminals        int     `toml:"terminals" json:"terminals" bson:"terminals"`
	TerminalPressure float64 `toml:"terminal_pressure" json:"terminal_pressure" bson:"terminal_pressure"`
	InletPressure    float64 `toml:"inlet_pressure" json:"inlet_pressure" bson:"inlet_pressure"`
	InletFlow        float64 `toml:"inlet_flow" json:"inlet_flow" bson:"inlet_flow"`
	MurrayExponent   float64 `toml:"murray_exponent" json:"murray_exponent" bson:"murray_exponent"`

	Seed          uint64  `toml:"seed" json:"seed" bson:"seed"`
	MaxRejections int     `toml:"max_rejections" json:"max_rejections,omitempty" bson:"max_rejections,omitempty"`
	Step          float64 `toml:"step" json:"step,omitempty" bson:"step,omitempty"`
	Epsilon       float64 `toml:"epsilon" json:"epsilon,omitempty" bson:"epsilon,omitempty"`
}

// Default returns the default parameters.
func Default() Params {
	return Params{
		PerfusionRadius:  DefaultPerfusionRadius,
		Terminals:        DefaultTerminals,
		TerminalPressure: DefaultTerminalPressure,
		InletPressure:    DefaultInletPressure,
		InletFlow:        DefaultInletFlow,
		MurrayExponent:   DefaultMurrayExponent,
		Seed:             DefaultSeed,
		MaxRejections:    sampler.DefaultMaxRejections,
		Step:             grow.DefaultStep,
		Epsilon:          junction.DefaultEpsilon,
	}
}

// Load reads a TOML parameter file over the defaults.
func Load(path string) (Params, error) {
	p := Default()
	md, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Params{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read %s", path)
	}
	return p, checkUndecoded(md)
}

// Decode reads TOML parameters from r over the defaults.
func Decode(r io.Reader) (Params, error) {
	p := Default()
	md, err := toml.NewDecoder(r).Decode(&p)
	if err != nil {
		return Params{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode parameters")
	}
	return p, checkUndecoded(md)
}

func checkUndecoded(md toml.MetaData) error {
	if keys := md.Undecoded(); len(keys) > 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "unknown parameter %q", keys[0].String())
	}
	return nil
}

// Encode writes p as TOML.
func (p Params) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(p)
}

// Validate checks every parameter and reports the first problem as an
// INVALID_CONFIG error.
func (p Params) Validate() error {
	if err := p.Growth().Validate(); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid parameters")
	}
	switch {
	case p.PerfusionRadius > MaxPerfusionRadius:
		return errors.New(errors.ErrCodeInvalidConfig, "perfusion_radius %d exceeds the maximum of %d", p.PerfusionRadius, MaxPerfusionRadius)
	case p.MaxRejections < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "max_rejections %d must not be negative", p.MaxRejections)
	case p.Step < 0 || math.IsNaN(p.Step):
		return errors.New(errors.ErrCodeInvalidConfig, "step %g must not be negative", p.Step)
	case p.Step > 0 && p.Step*2 > float64(p.PerfusionRadius):
		return errors.New(errors.ErrCodeInvalidConfig, "step %g is too coarse for radius %d", p.Step, p.PerfusionRadius)
	case p.Epsilon < 0 || math.IsNaN(p.Epsilon):
		return errors.New(errors.ErrCodeInvalidConfig, "epsilon %g must not be negative", p.Epsilon)
	}
	return nil
}

// Growth returns the physical parameters for [grow.New].
func (p Params) Growth() grow.Params {
	return grow.Params{
		Radius:           float64(p.PerfusionRadius),
		Terminals:        p.Terminals,
		TerminalPressure: p.TerminalPressure,
		InletPressure:    p.InletPressure,
		InletFlow:        p.InletFlow,
		Exponent:         p.MurrayExponent,
	}
}

// Solver returns the junction solver configured by p.
func (p Params) Solver() *junction.Solver {
	s := junction.NewSolver(p.MurrayExponent)
	if p.Epsilon > 0 {
		s.Epsilon = p.Epsilon
	}
	return s
}

// Inlet returns the inlet point (−R, 0).
func (p Params) Inlet() geom.Point { return p.Growth().Inlet() }

// TerminalFlow returns the flow allotted to each terminal.
func (p Params) TerminalFlow() float64 { return p.Growth().TerminalFlow() }

// Hash returns a content hash of the parameters. Two runs with equal hashes
// grow identical trees.
func (p Params) Hash() string {
	data, _ := json.Marshal(p)
	return cache.Hash(data)
}
