package viz

import (
	"fmt"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/crustheat/internal/analysis"
)

// ProfilePlot charts temperature against depth index for one or more columns.
// The x axis runs from the surface (left) to the bottom of the domain.
func ProfilePlot(profiles []analysis.Profile, width, height int) string {
	series := make([][]float64, 0, len(profiles))
	for _, p := range profiles {
		if len(p.Temperature) > 0 {
			series = append(series, p.Temperature)
		}
	}
	if len(series) == 0 {
		return ""
	}

	caption := "temperature (°C) vs depth, surface to "
	last := profiles[len(profiles)-1]
	if n := len(last.DepthKm); n > 0 {
		caption += fmt.Sprintf("%.1f km", last.DepthKm[n-1])
	}
	for k, p := range profiles {
		if k == 0 {
			caption += fmt.Sprintf(" | x=%.2f", p.XKm)
		} else {
			caption += fmt.Sprintf(", %.2f", p.XKm)
		}
	}

	opts := []asciigraph.Option{
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	}
	if len(series) > 1 {
		opts = append(opts, asciigraph.SeriesColors(asciigraph.Red, asciigraph.Blue, asciigraph.Green, asciigraph.Yellow))
	}
	return asciigraph.PlotMany(series, opts...)
}
