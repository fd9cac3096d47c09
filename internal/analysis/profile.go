package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/crustheat/internal/thermal"
)

// Profile is a temperature-against-depth reading of one column.
type Profile struct {
	XKm         float64   `json:"x_km"`
	DepthKm     []float64 `json:"depth_km"`
	Temperature []float64 `json:"temperature"`
}

// ColumnProfile copies column i of the field. It panics if i is out of range.
func ColumnProfile(f *thermal.Field, g thermal.Grid, i int) Profile {
	col := f.Column(i)
	p := Profile{
		XKm:         g.XKm(i),
		DepthKm:     make([]float64, len(col)),
		Temperature: make([]float64, len(col)),
	}
	copy(p.Temperature, col)
	for j := range col {
		p.DepthKm[j] = g.DepthKm(j)
	}
	return p
}

// ProfileAt returns the profile of the column nearest to xKm, clamped to the
// domain.
func ProfileAt(f *thermal.Field, g thermal.Grid, xKm float64) Profile {
	i := 0
	if f.SizeX > 1 && g.WidthKm > 0 {
		pos := (xKm + g.WidthKm/2) / g.WidthKm * float64(f.SizeX-1)
		i = int(math.Round(pos))
	}
	if i < 0 {
		i = 0
	}
	if i > f.SizeX-1 {
		i = f.SizeX - 1
	}
	return ColumnProfile(f, g, i)
}

// Stats summarises a field.
type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

func Summarize(f *thermal.Field) Stats {
	if f == nil || len(f.Data) == 0 {
		return Stats{Min: math.NaN(), Max: math.NaN(), Mean: math.NaN(), StdDev: math.NaN()}
	}
	mean, std := stat.MeanStdDev(f.Data, nil)
	return Stats{
		Min:    floats.Min(f.Data),
		Max:    floats.Max(f.Data),
		Mean:   mean,
		StdDev: std,
	}
}

// AreaAbove returns the cross-section area in km² of nodes hotter than level,
// counting each node as one dx by dy cell.
func AreaAbove(f *thermal.Field, g thermal.Grid, level float64) float64 {
	n := 0
	for _, v := range f.Data {
		if v > level {
			n++
		}
	}
	return float64(n) * g.Dx / 1000 * g.Dy / 1000
}
