// Package cli holds the flag wiring and console output shared by the
// gs1 commands.
package cli

import (
	"flag"
	"fmt"

	"github.com/cwbudde/algo-gs1/fm"
	"github.com/cwbudde/algo-gs1/preset"
)

// EngineFlags are the engine options every command accepts.
type EngineFlags struct {
	Patch     int
	PatchFile string
	Routing1  string
	Routing2  string
}

// Register adds the engine flags to fs.
func (f *EngineFlags) Register(fs *flag.FlagSet) {
	fs.IntVar(&f.Patch, "patch", 0, "Patch id (0 = EP11, 1 = EP22; a -patch-file registers its own id)")
	fs.StringVar(&f.PatchFile, "patch-file", "", "Patch JSON file to register and select (optional)")
	fs.StringVar(&f.Routing1, "routing1", "norm", "Stack 1 routing: norm, pi/2, pi, cross")
	fs.StringVar(&f.Routing2, "routing2", "norm", "Stack 2 routing: norm, pi/2, pi, cross")
}

// Config resolves the flags into an engine configuration and registry.
// A patch file overrides -patch with the id it registers.
func (f *EngineFlags) Config() (fm.Config, *fm.Registry, error) {
	cfg := fm.DefaultConfig()
	cfg.Patch = f.Patch
	reg := fm.NewDefaultRegistry()
	if f.PatchFile != "" {
		id, err := preset.RegisterFile(reg, f.PatchFile)
		if err != nil {
			return cfg, nil, fmt.Errorf("load patch %q: %w", f.PatchFile, err)
		}
		cfg.Patch = id
	}
	for i, s := range []string{f.Routing1, f.Routing2} {
		mode, err := fm.ParseRoutingMode(s)
		if err != nil {
			return cfg, nil, fmt.Errorf("routing%d: %w", i+1, err)
		}
		cfg.Routing[i] = mode
	}
	return cfg, reg, nil
}

// Engine builds an engine from the flags.
func (f *EngineFlags) Engine() (*fm.Engine, error) {
	cfg, reg, err := f.Config()
	if err != nil {
		return nil, err
	}
	return fm.NewEngine(fm.NewTables(), reg, cfg)
}
