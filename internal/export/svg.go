package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/thermal"
	"github.com/san-kum/crustheat/internal/viz"
)

// SVGOptions controls HeatmapSVG.
type SVGOptions struct {
	Width, Height int
	Scale         viz.Scale
	Colormap      viz.Colormap
	Isotherms     []float64
	// MaxCells caps the rectangles drawn per axis; larger fields are sampled.
	MaxCells int
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Width:     640,
		Height:    640,
		Scale:     viz.DefaultScale,
		Colormap:  viz.ColormapHot,
		Isotherms: analysis.DefaultIsotherms,
		MaxCells:  200,
	}
}

const (
	svgMarginLeft   = 60
	svgMarginTop    = 50
	svgMarginRight  = 20
	svgMarginBottom = 40
)

// HeatmapSVG draws the field over its km extent with isotherm polylines, axis
// labels and the elapsed-time title.
func HeatmapSVG(s thermal.Snapshot, opts SVGOptions) string {
	if s.Field == nil {
		return ""
	}
	if opts.MaxCells <= 0 {
		opts.MaxCells = 200
	}
	f, g := s.Field, s.Grid()
	nx, ny := min(f.SizeX, opts.MaxCells), min(f.SizeY, opts.MaxCells)
	plotW := float64(opts.Width - svgMarginLeft - svgMarginRight)
	plotH := float64(opts.Height - svgMarginTop - svgMarginBottom)
	cw, ch := plotW/float64(nx), plotH/float64(ny)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#ffffff"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	for k, line := range strings.Split(viz.Title(s), "\n") {
		fmt.Fprintf(&sb, `<text x="%d" y="%d" font-family="sans-serif" font-size="14" text-anchor="middle">%s</text>
`, opts.Width/2, 20+k*18, line)
	}

	fmt.Fprintf(&sb, `<g transform="translate(%d,%d)" shape-rendering="crispEdges">
`, svgMarginLeft, svgMarginTop)
	for c := 0; c < nx; c++ {
		i := c * f.SizeX / nx
		for r := 0; r < ny; r++ {
			j := r * f.SizeY / ny
			red, green, blue := opts.Colormap.RGB(opts.Scale.Normalize(f.At(i, j)))
			fmt.Fprintf(&sb, `<rect x="%.2f" y="%.2f" width="%.2f" height="%.2f" fill="rgb(%d,%d,%d)"/>
`, float64(c)*cw, float64(r)*ch, cw+0.05, ch+0.05, red, green, blue)
		}
	}
	sb.WriteString("</g>\n")

	project := func(p analysis.Point) (float64, float64) {
		x := svgMarginLeft + (p.XKm+g.WidthKm/2)/g.WidthKm*plotW
		y := svgMarginTop + p.DepthKm/g.HeightKm*plotH
		return x, y
	}
	for _, level := range opts.Isotherms {
		iso := analysis.ExtractIsotherm(f, g, level)
		color := string(viz.IsothermColor(level))
		for _, seg := range iso.Segments() {
			if len(seg) < 2 {
				continue
			}
			sb.WriteString(`<path fill="none" stroke="` + color + `" stroke-width="2" d="M`)
			for k, p := range seg {
				x, y := project(p)
				if k == 0 {
					fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
				} else {
					fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
				}
			}
			sb.WriteString("\"/>\n")
		}
		if d := iso.ShallowestKm(); !math.IsNaN(d) {
			fmt.Fprintf(&sb, `<text x="%d" y="%.1f" font-family="sans-serif" font-size="11" fill="%s">T=%g</text>
`, svgMarginLeft+4, svgMarginTop+d/g.HeightKm*plotH-4, color, level)
		}
	}

	xMin, xMax, dMin, dMax := s.Extent()
	fmt.Fprintf(&sb, `<g font-family="sans-serif" font-size="11">
<text x="%d" y="%d">%g</text>
<text x="%d" y="%d" text-anchor="end">%g</text>
<text x="%d" y="%d" text-anchor="middle">Horizontal distance (km)</text>
<text x="%d" y="%d" text-anchor="end">%g</text>
<text x="%d" y="%d" text-anchor="end">%g</text>
<text x="14" y="%d" transform="rotate(-90 14 %d)" text-anchor="middle">Depth (km)</text>
</g>
</svg>
`,
		svgMarginLeft, opts.Height-svgMarginBottom+14, xMin,
		opts.Width-svgMarginRight, opts.Height-svgMarginBottom+14, xMax,
		svgMarginLeft+int(plotW/2), opts.Height-8,
		svgMarginLeft-4, svgMarginTop+10, dMax,
		svgMarginLeft-4, opts.Height-svgMarginBottom, dMin,
		svgMarginTop+int(plotH/2), svgMarginTop+int(plotH/2))
	return sb.String()
}

func WriteHeatmapSVG(path string, s thermal.Snapshot, opts SVGOptions) error {
	return os.WriteFile(path, []byte(HeatmapSVG(s, opts)), 0644)
}

func titleLine(s thermal.Snapshot) string {
	return strings.ReplaceAll(viz.Title(s), "\n", " | ")
}
