package export

import (
	"fmt"
	"io"
	"os"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/san-kum/crustheat/internal/analysis"
)

var profileColors = []drawing.Color{
	chart.ColorRed,
	chart.ColorBlue,
	chart.ColorGreen,
	{R: 255, G: 165, B: 0, A: 255},
}

// ProfileChart renders temperature against depth for each profile as a PNG.
// Depth is plotted negative so the surface sits at the top.
func ProfileChart(w io.Writer, profiles []analysis.Profile, title string) error {
	if len(profiles) == 0 {
		return fmt.Errorf("export: no profiles to chart")
	}

	series := make([]chart.Series, 0, len(profiles))
	for k, p := range profiles {
		if len(p.Temperature) < 2 {
			return fmt.Errorf("export: profile at x=%.2f km has %d samples", p.XKm, len(p.Temperature))
		}
		depth := make([]float64, len(p.DepthKm))
		for j, d := range p.DepthKm {
			depth[j] = -d
		}
		series = append(series, chart.ContinuousSeries{
			Name:    fmt.Sprintf("x = %.2f km", p.XKm),
			XValues: p.Temperature,
			YValues: depth,
			Style:   chart.Style{StrokeColor: profileColors[k%len(profileColors)], StrokeWidth: 2.0},
		})
	}

	graph := chart.Chart{
		Title:  title,
		Width:  640,
		Height: 480,
		XAxis: chart.XAxis{
			Name:  "Temperature (°C)",
			Style: chart.Style{FontSize: 10.0},
		},
		YAxis: chart.YAxis{
			Name:  "Depth (km)",
			Style: chart.Style{FontSize: 10.0},
			ValueFormatter: func(v interface{}) string {
				return fmt.Sprintf("%.1f", v.(float64))
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}

func WriteProfileChart(path string, profiles []analysis.Profile, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return ProfileChart(f, profiles, title)
}
