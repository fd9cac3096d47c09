package thermal

import (
	"fmt"
	"math"
)

// MaxFourierNumber is the explicit 2D stability limit for alpha*dt/dx².
const MaxFourierNumber = 0.25

// fourierTolerance absorbs rounding when a caller passes the derived step back in.
const fourierTolerance = 1e-12

const (
	DefaultDomainKm           = 8.0
	DefaultSpacing            = 50.0
	DefaultDiffusivity        = 1e-6
	DefaultVerticalWidthKm    = 0.1
	DefaultHorizontalLengthKm = 2.0
	DefaultHorizontalDepthKm  = 0.5
	DefaultTHot               = 1300.0
	DefaultTSurface           = -63.0
	DefaultGradientPerKm      = 10.0
	DefaultSteps              = 200
)

// SimulationConfig is the immutable input of one run. Lengths of the domain and
// hot bodies are in km, spacing in m, diffusivity in m²/s, temperatures in °C.
type SimulationConfig struct {
	DomainWidthKm float64 `json:"domain_width_km"`
	DomainDepthKm float64 `json:"domain_depth_km"`
	Dx            float64 `json:"dx"`
	Dy            float64 `json:"dy"`
	Diffusivity   float64 `json:"diffusivity"`

	VerticalBodyWidthKm    float64 `json:"vertical_body_width_km"`
	HorizontalBodyLengthKm float64 `json:"horizontal_body_length_km"`
	HorizontalBodyDepthKm  float64 `json:"horizontal_body_depth_km"`

	THot          float64 `json:"t_hot"`
	TSurface      float64 `json:"t_surface"`
	GradientPerKm float64 `json:"gradient_per_km"`

	Steps int `json:"steps"`

	// TimeStep overrides the derived stable step when non-zero.
	TimeStep float64 `json:"time_step,omitempty"`
	// Workers > 1 splits each sweep across goroutines.
	Workers int `json:"workers,omitempty"`
	// SnapshotEvery emits a snapshot every N steps; 0 emits only the final one.
	SnapshotEvery int `json:"snapshot_every,omitempty"`
}

// DefaultConfig returns the Mars-analog reference cross-section.
func DefaultConfig() SimulationConfig {
	return SimulationConfig{
		DomainWidthKm:          DefaultDomainKm,
		DomainDepthKm:          DefaultDomainKm,
		Dx:                     DefaultSpacing,
		Dy:                     DefaultSpacing,
		Diffusivity:            DefaultDiffusivity,
		VerticalBodyWidthKm:    DefaultVerticalWidthKm,
		HorizontalBodyLengthKm: DefaultHorizontalLengthKm,
		HorizontalBodyDepthKm:  DefaultHorizontalDepthKm,
		THot:                   DefaultTHot,
		TSurface:               DefaultTSurface,
		GradientPerKm:          DefaultGradientPerKm,
		Steps:                  DefaultSteps,
	}
}

// StableTimeStep returns dt = 2*dx²/(4*alpha)*0.5.
func StableTimeStep(dx, alpha float64) float64 {
	return 2 * (dx * dx) / (4 * alpha) * 0.5
}

// FourierNumber returns alpha*dt/dx².
func FourierNumber(alpha, dt, dx float64) float64 {
	return alpha * dt / (dx * dx)
}

// EffectiveTimeStep is the configured TimeStep, or the stable step when unset.
func (c SimulationConfig) EffectiveTimeStep() float64 {
	if c.TimeStep != 0 {
		return c.TimeStep
	}
	return StableTimeStep(c.Dx, c.Diffusivity)
}

// Validate checks the scalar constraints. Hot-body geometry depends on the grid
// and is checked by Compose.
func (c SimulationConfig) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"DomainWidthKm", c.DomainWidthKm},
		{"DomainDepthKm", c.DomainDepthKm},
		{"Dx", c.Dx},
		{"Dy", c.Dy},
		{"Diffusivity", c.Diffusivity},
		{"VerticalBodyWidthKm", c.VerticalBodyWidthKm},
		{"HorizontalBodyLengthKm", c.HorizontalBodyLengthKm},
		{"HorizontalBodyDepthKm", c.HorizontalBodyDepthKm},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return invalid(p.name, p.v, "> 0")
		}
	}
	for _, t := range []struct {
		name string
		v    float64
	}{
		{"THot", c.THot},
		{"TSurface", c.TSurface},
		{"GradientPerKm", c.GradientPerKm},
		{"TimeStep", c.TimeStep},
	} {
		if math.IsNaN(t.v) || math.IsInf(t.v, 0) {
			return invalid(t.name, t.v, "finite")
		}
	}
	if c.Dx != c.Dy {
		return invalid("Dy", c.Dy, fmt.Sprintf("== Dx (%g)", c.Dx))
	}
	if c.VerticalBodyWidthKm > c.DomainWidthKm {
		return invalid("VerticalBodyWidthKm", c.VerticalBodyWidthKm, fmt.Sprintf("<= DomainWidthKm (%g)", c.DomainWidthKm))
	}
	if c.HorizontalBodyLengthKm > c.DomainWidthKm {
		return invalid("HorizontalBodyLengthKm", c.HorizontalBodyLengthKm, fmt.Sprintf("<= DomainWidthKm (%g)", c.DomainWidthKm))
	}
	if c.HorizontalBodyDepthKm > c.DomainDepthKm {
		return invalid("HorizontalBodyDepthKm", c.HorizontalBodyDepthKm, fmt.Sprintf("<= DomainDepthKm (%g)", c.DomainDepthKm))
	}
	if c.Steps < 0 {
		return invalid("Steps", float64(c.Steps), ">= 0")
	}
	if c.Workers < 0 {
		return invalid("Workers", float64(c.Workers), ">= 0")
	}
	if c.SnapshotEvery < 0 {
		return invalid("SnapshotEvery", float64(c.SnapshotEvery), ">= 0")
	}
	if c.TimeStep < 0 {
		return invalid("TimeStep", c.TimeStep, ">= 0")
	}
	if c.TimeStep > 0 {
		if r := FourierNumber(c.Diffusivity, c.TimeStep, c.Dx); r > MaxFourierNumber*(1+fourierTolerance) {
			return &ConfigError{
				Field:      "TimeStep",
				Value:      c.TimeStep,
				Constraint: fmt.Sprintf("alpha*dt/dx^2 <= %g (got %g)", MaxFourierNumber, r),
				Kind:       ErrStabilityViolation,
			}
		}
	}
	return nil
}
