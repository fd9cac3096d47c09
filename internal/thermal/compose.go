package thermal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// bodyPlan holds the half-open index ranges of the two hot bodies.
type bodyPlan struct {
	xCenter int

	dikeLo, dikeHi int

	sillXEnd int
	sillYEnd int
}

// planBodies converts body dimensions to node ranges and rejects empty or
// out-of-grid ranges before anything is written.
func planBodies(g Grid, cfg SimulationConfig) (bodyPlan, error) {
	p := bodyPlan{xCenter: g.SizeX / 2}

	width := int(math.Round(cfg.VerticalBodyWidthKm * 1000 / g.Dx))
	if width <= 0 {
		return bodyPlan{}, invalid("VerticalBodyWidthKm", cfg.VerticalBodyWidthKm,
			fmt.Sprintf("at least 1 node at Dx=%g (rounds to %d)", g.Dx, width))
	}
	half := width / 2
	if half == 0 {
		return bodyPlan{}, invalid("VerticalBodyWidthKm", cfg.VerticalBodyWidthKm,
			fmt.Sprintf("a non-empty band [xc-w/2, xc+w/2) at Dx=%g (w=%d)", g.Dx, width))
	}
	p.dikeLo, p.dikeHi = p.xCenter-half, p.xCenter+half
	if p.dikeLo < 0 || p.dikeHi > g.SizeX {
		return bodyPlan{}, invalid("VerticalBodyWidthKm", cfg.VerticalBodyWidthKm,
			fmt.Sprintf("band [%d, %d) inside [0, %d)", p.dikeLo, p.dikeHi, g.SizeX))
	}

	length := int(math.Round(cfg.HorizontalBodyLengthKm * 1000 / g.Dx))
	p.sillXEnd = p.xCenter + length
	if length <= 0 {
		return bodyPlan{}, invalid("HorizontalBodyLengthKm", cfg.HorizontalBodyLengthKm,
			fmt.Sprintf("at least 1 node at Dx=%g", g.Dx))
	}
	if p.sillXEnd > g.SizeX {
		return bodyPlan{}, invalid("HorizontalBodyLengthKm", cfg.HorizontalBodyLengthKm,
			fmt.Sprintf("x_end (%d) <= SizeX (%d)", p.sillXEnd, g.SizeX))
	}

	p.sillYEnd = int(math.Round(cfg.HorizontalBodyDepthKm * 1000 / g.Dy))
	if p.sillYEnd <= 0 {
		return bodyPlan{}, invalid("HorizontalBodyDepthKm", cfg.HorizontalBodyDepthKm,
			fmt.Sprintf("at least 1 node at Dy=%g", g.Dy))
	}
	if p.sillYEnd > g.SizeY {
		return bodyPlan{}, invalid("HorizontalBodyDepthKm", cfg.HorizontalBodyDepthKm,
			fmt.Sprintf("y_end (%d) <= SizeY (%d)", p.sillYEnd, g.SizeY))
	}
	return p, nil
}

// Compose writes the initial condition into f: background gradient, vertical
// body, horizontal body, then the surface clamp. Later writes win. f is left
// untouched when the geometry is rejected.
func Compose(g Grid, f *Field, cfg SimulationConfig) error {
	if f.SizeX != g.SizeX || f.SizeY != g.SizeY {
		return fmt.Errorf("thermal: field %dx%d does not match grid %dx%d", f.SizeX, f.SizeY, g.SizeX, g.SizeY)
	}
	p, err := planBodies(g, cfg)
	if err != nil {
		return err
	}

	depth := floats.Span(make([]float64, g.SizeY), 0, g.HeightKm)
	for i := 0; i < g.SizeX; i++ {
		col := f.Column(i)
		for j := range col {
			col[j] = cfg.TSurface + cfg.GradientPerKm*depth[j]
		}
	}

	for i := p.dikeLo; i < p.dikeHi; i++ {
		col := f.Column(i)
		for j := range col {
			col[j] = cfg.THot
		}
	}

	for i := p.xCenter; i < p.sillXEnd; i++ {
		col := f.Column(i)
		for j := 0; j < p.sillYEnd; j++ {
			col[j] = cfg.THot
		}
	}

	EnforceSurface(f, cfg.TSurface)
	return nil
}

// EnforceSurface pins the top row (j = 0) to tSurface.
func EnforceSurface(f *Field, tSurface float64) {
	for i := 0; i < f.SizeX; i++ {
		f.Data[i*f.SizeY] = tSurface
	}
}
