package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/arteria/pkg/config"
)

// paramFlags binds the growth parameters to flags. Values from --config are
// loaded first; only flags the user actually set override them.
type paramFlags struct {
	configPath string
	values     config.Params
}

func addParamFlags(cmd *cobra.Command) *paramFlags {
	pf := &paramFlags{values: config.Default()}
	f := cmd.Flags()
	f.StringVarP(&pf.configPath, "config", "c", "", "TOML parameter file")
	f.IntVarP(&pf.values.PerfusionRadius, "radius", "r", pf.values.PerfusionRadius, "perfusion radius in pixels (1 px = 1 cm)")
	f.IntVarP(&pf.values.Terminals, "terminals", "n", pf.values.Terminals, "number of terminal points")
	f.Float64Var(&pf.values.TerminalPressure, "terminal-pressure", pf.values.TerminalPressure, "terminal pressure in Pa")
	f.Float64Var(&pf.values.InletPressure, "inlet-pressure", pf.values.InletPressure, "inlet pressure in Pa")
	f.Float64Var(&pf.values.InletFlow, "inlet-flow", pf.values.InletFlow, "inlet flow in m³/s")
	f.Float64Var(&pf.values.MurrayExponent, "murray", pf.values.MurrayExponent, "Murray exponent")
	f.Uint64Var(&pf.values.Seed, "seed", pf.values.Seed, "random seed")
	f.IntVar(&pf.values.MaxRejections, "max-rejections", pf.values.MaxRejections, "consecutive sampler rejections before giving up")
	f.Float64Var(&pf.values.Step, "step", pf.values.Step, "candidate spacing along a segment in pixels")
	return pf
}

// resolve returns the effective parameters for cmd.
func (pf *paramFlags) resolve(cmd *cobra.Command) (config.Params, error) {
	p := config.Default()
	if pf.configPath != "" {
		var err error
		if p, err = config.Load(pf.configPath); err != nil {
			return p, err
		}
	}

	changed := cmd.Flags().Changed
	v := pf.values
	for name, apply := range map[string]func(){
		"radius":            func() { p.PerfusionRadius = v.PerfusionRadius },
		"terminals":         func() { p.Terminals = v.Terminals },
		"terminal-pressure": func() { p.TerminalPressure = v.TerminalPressure },
		"inlet-pressure":    func() { p.InletPressure = v.InletPressure },
		"inlet-flow":        func() { p.InletFlow = v.InletFlow },
		"murray":            func() { p.MurrayExponent = v.MurrayExponent },
		"seed":              func() { p.Seed = v.Seed },
		"max-rejections":    func() { p.MaxRejections = v.MaxRejections },
		"step":              func() { p.Step = v.Step },
	} {
		if changed(name) {
			apply()
		}
	}
	return p, p.Validate()
}
