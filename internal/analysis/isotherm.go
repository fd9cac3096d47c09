package analysis

import (
	"math"

	"github.com/san-kum/crustheat/internal/thermal"
)

// DefaultIsotherms are the freezing and boiling points of water in °C.
var DefaultIsotherms = []float64{0, 100}

// Point is a position in the cross-section. Depth is positive downward.
type Point struct {
	XKm     float64 `json:"x_km"`
	DepthKm float64 `json:"depth_km"`
}

// Isotherm holds, per column, the shallowest depth at which the field crosses
// Level. Depth is NaN for columns with no crossing.
type Isotherm struct {
	Level   float64   `json:"level"`
	XKm     []float64 `json:"x_km"`
	DepthKm []float64 `json:"depth_km"`
}

// ExtractIsotherm scans each column from the surface down and linearly
// interpolates between the two nodes that bracket level.
func ExtractIsotherm(f *thermal.Field, g thermal.Grid, level float64) Isotherm {
	iso := Isotherm{
		Level:   level,
		XKm:     make([]float64, f.SizeX),
		DepthKm: make([]float64, f.SizeX),
	}
	for i := 0; i < f.SizeX; i++ {
		iso.XKm[i] = g.XKm(i)
		iso.DepthKm[i] = crossing(f.Column(i), g, level)
	}
	return iso
}

func crossing(col []float64, g thermal.Grid, level float64) float64 {
	for j := 0; j+1 < len(col); j++ {
		a, b := col[j]-level, col[j+1]-level
		if a == 0 {
			return g.DepthKm(j)
		}
		if a*b < 0 || b == 0 {
			t := a / (a - b)
			d0, d1 := g.DepthKm(j), g.DepthKm(j+1)
			return d0 + t*(d1-d0)
		}
	}
	return math.NaN()
}

// Coverage returns the fraction of columns in which the isotherm was found.
func (iso Isotherm) Coverage() float64 {
	if len(iso.DepthKm) == 0 {
		return 0
	}
	n := 0
	for _, d := range iso.DepthKm {
		if !math.IsNaN(d) {
			n++
		}
	}
	return float64(n) / float64(len(iso.DepthKm))
}

// Segments splits the isotherm into runs of consecutive columns with a
// crossing, ready to draw as polylines.
func (iso Isotherm) Segments() [][]Point {
	var out [][]Point
	var cur []Point
	for i, d := range iso.DepthKm {
		if math.IsNaN(d) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, Point{XKm: iso.XKm[i], DepthKm: d})
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// ShallowestKm returns the minimum crossing depth, or NaN.
func (iso Isotherm) ShallowestKm() float64 {
	best := math.NaN()
	for _, d := range iso.DepthKm {
		if !math.IsNaN(d) && (math.IsNaN(best) || d < best) {
			best = d
		}
	}
	return best
}
