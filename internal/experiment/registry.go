package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/crustheat/internal/thermal"
)

// setter writes one swept parameter into a solver configuration.
type setter func(cfg *thermal.SimulationConfig, v float64) error

var params = map[string]setter{
	"diffusivity": func(c *thermal.SimulationConfig, v float64) error { c.Diffusivity = v; return nil },
	"t_hot":       func(c *thermal.SimulationConfig, v float64) error { c.THot = v; return nil },
	"t_surface":   func(c *thermal.SimulationConfig, v float64) error { c.TSurface = v; return nil },
	"gradient":    func(c *thermal.SimulationConfig, v float64) error { c.GradientPerKm = v; return nil },
	"dike_width":  func(c *thermal.SimulationConfig, v float64) error { c.VerticalBodyWidthKm = v; return nil },
	"sill_length": func(c *thermal.SimulationConfig, v float64) error { c.HorizontalBodyLengthKm = v; return nil },
	"sill_depth":  func(c *thermal.SimulationConfig, v float64) error { c.HorizontalBodyDepthKm = v; return nil },
	"spacing": func(c *thermal.SimulationConfig, v float64) error {
		c.Dx, c.Dy = v, v
		return nil
	},
	"steps": func(c *thermal.SimulationConfig, v float64) error {
		if v != math.Trunc(v) {
			return fmt.Errorf("experiment: steps must be whole, got %g", v)
		}
		c.Steps = int(v)
		return nil
	},
}

// Apply sets the named parameter on cfg.
func Apply(cfg *thermal.SimulationConfig, name string, v float64) error {
	fn, ok := params[name]
	if !ok {
		return fmt.Errorf("experiment: unknown parameter: %s", name)
	}
	return fn(cfg, v)
}

// ParamNames lists the sweepable parameters.
func ParamNames() []string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
