package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/crustheat/internal/config"
	"github.com/san-kum/crustheat/internal/thermal"
)

// simFlags are the scenario flags shared by run, live and serve.
type simFlags struct {
	preset     string
	configFile string
	name       string

	width, depth   float64
	spacing        float64
	diffusivity    float64
	dikeWidth      float64
	sillLength     float64
	sillDepth      float64
	tHot, tSurface float64
	gradient       float64
	steps          int
	dt             float64
	workers        int
	snapshotEvery  int
}

func (f *simFlags) register(cmd *cobra.Command) {
	d := thermal.DefaultConfig()
	fs := cmd.Flags()
	fs.StringVar(&f.preset, "preset", "", "start from a named preset (see `crustheat presets`)")
	fs.StringVar(&f.configFile, "config", "", "config file path (.yaml or .ini)")
	fs.StringVar(&f.name, "name", "", "run name used in the run id")

	fs.Float64Var(&f.width, "width", d.DomainWidthKm, "domain width (km)")
	fs.Float64Var(&f.depth, "depth", d.DomainDepthKm, "domain depth (km)")
	fs.Float64Var(&f.spacing, "spacing", d.Dx, "grid spacing dx = dy (m)")
	fs.Float64Var(&f.diffusivity, "diffusivity", d.Diffusivity, "thermal diffusivity (m²/s)")
	fs.Float64Var(&f.dikeWidth, "dike-width", d.VerticalBodyWidthKm, "vertical body width (km)")
	fs.Float64Var(&f.sillLength, "sill-length", d.HorizontalBodyLengthKm, "horizontal body length (km)")
	fs.Float64Var(&f.sillDepth, "sill-depth", d.HorizontalBodyDepthKm, "horizontal body thickness below the surface (km)")
	fs.Float64Var(&f.tHot, "t-hot", d.THot, "intrusion temperature (°C)")
	fs.Float64Var(&f.tSurface, "t-surface", d.TSurface, "surface temperature (°C)")
	fs.Float64Var(&f.gradient, "gradient", d.GradientPerKm, "geothermal gradient (°C/km)")
	fs.IntVar(&f.steps, "steps", d.Steps, "number of time steps")
	fs.Float64Var(&f.dt, "dt", 0, "explicit time step in seconds (0 derives the stable step)")
	fs.IntVar(&f.workers, "workers", 0, "goroutines per sweep (0 or 1 runs serially)")
	fs.IntVar(&f.snapshotEvery, "snapshot-every", 0, "emit a snapshot every N steps")
}

// resolve layers defaults, preset, config file and explicitly set flags, in
// that order.
func (f *simFlags) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if f.preset != "" {
		p := config.GetPreset(f.preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %s)", f.preset, strings.Join(config.ListPresets(), ", "))
		}
		cfg = p
	}

	if f.configFile != "" {
		loaded, err := config.LoadInto(f.configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		cfg.Name = f.name
	}
	if changed("width") {
		cfg.Domain.WidthKm = f.width
	}
	if changed("depth") {
		cfg.Domain.DepthKm = f.depth
	}
	if changed("spacing") {
		cfg.Domain.Dx, cfg.Domain.Dy = f.spacing, f.spacing
	}
	if changed("diffusivity") {
		cfg.Material.Diffusivity = f.diffusivity
	}
	if changed("dike-width") {
		cfg.Bodies.VerticalWidthKm = f.dikeWidth
	}
	if changed("sill-length") {
		cfg.Bodies.HorizontalLengthKm = f.sillLength
	}
	if changed("sill-depth") {
		cfg.Bodies.HorizontalDepthKm = f.sillDepth
	}
	if changed("t-hot") {
		cfg.Temperatures.Hot = f.tHot
	}
	if changed("t-surface") {
		cfg.Temperatures.Surface = f.tSurface
	}
	if changed("gradient") {
		cfg.Temperatures.GradientPerKm = f.gradient
	}
	if changed("steps") {
		cfg.Run.Steps = f.steps
	}
	if changed("dt") {
		cfg.Run.TimeStep = f.dt
	}
	if changed("workers") {
		cfg.Run.Workers = f.workers
	}
	if changed("snapshot-every") {
		cfg.Run.SnapshotEvery = f.snapshotEvery
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.Name == "" {
		cfg.Name = "mars"
	}
	return cfg, nil
}
