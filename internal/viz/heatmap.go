package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/thermal"
)

// Heatmap draws a field as Width x Height terminal cells. Each cell shows two
// vertically stacked samples using the upper half block.
type Heatmap struct {
	Width, Height int
	Scale         Scale
	Colormap      Colormap
}

func NewHeatmap(w, h int) *Heatmap {
	return &Heatmap{Width: w, Height: h, Scale: DefaultScale, Colormap: ColormapHot}
}

// sample picks the node nearest to the centre of output cell k of n along an
// axis with size nodes.
func sample(k, n, size int) int {
	idx := int((float64(k) + 0.5) * float64(size) / float64(n))
	if idx >= size {
		idx = size - 1
	}
	return idx
}

// Render draws f and overlays the given isotherms.
func (h *Heatmap) Render(f *thermal.Field, g thermal.Grid, isotherms []analysis.Isotherm) string {
	if f == nil || h.Width <= 0 || h.Height <= 0 {
		return ""
	}
	overlay := h.overlay(f, g, isotherms)

	var b strings.Builder
	rows := h.Height * 2
	for r := 0; r < h.Height; r++ {
		jTop := sample(2*r, rows, f.SizeY)
		jBot := sample(2*r+1, rows, f.SizeY)
		for c := 0; c < h.Width; c++ {
			i := sample(c, h.Width, f.SizeX)
			top := h.Colormap.At(h.Scale.Normalize(f.At(i, jTop)))
			bot := h.Colormap.At(h.Scale.Normalize(f.At(i, jBot)))
			if level, ok := overlay[[2]int{r, c}]; ok {
				b.WriteString(lipgloss.NewStyle().Foreground(IsothermColor(level)).Background(bot).Bold(true).Render("━"))
				continue
			}
			b.WriteString(lipgloss.NewStyle().Foreground(top).Background(bot).Render("▀"))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// overlay maps each isotherm crossing to the terminal cell that contains it.
func (h *Heatmap) overlay(f *thermal.Field, g thermal.Grid, isotherms []analysis.Isotherm) map[[2]int]float64 {
	out := make(map[[2]int]float64)
	if g.HeightKm <= 0 {
		return out
	}
	for _, iso := range isotherms {
		for c := 0; c < h.Width; c++ {
			i := sample(c, h.Width, f.SizeX)
			if i >= len(iso.DepthKm) {
				continue
			}
			d := iso.DepthKm[i]
			if math.IsNaN(d) {
				continue
			}
			r := int(d / g.HeightKm * float64(h.Height))
			if r >= h.Height {
				r = h.Height - 1
			}
			out[[2]int{r, c}] = iso.Level
		}
	}
	return out
}

// Legend renders the colour ramp with its clipping range.
func (h *Heatmap) Legend(width int) string {
	if width < 2 {
		width = 2
	}
	var b strings.Builder
	for k := 0; k < width; k++ {
		t := float64(k) / float64(width-1)
		b.WriteString(lipgloss.NewStyle().Foreground(h.Colormap.At(t)).Render("█"))
	}
	return fmt.Sprintf("%s %s %s", MetricLabel.Render(fmt.Sprintf("%.0f°C", h.Scale.Min)), b.String(),
		MetricLabel.Render(fmt.Sprintf("%.0f°C", h.Scale.Max)))
}

// IsothermCanvas plots isotherm lines on a braille canvas spanning the domain.
func IsothermCanvas(isotherms []analysis.Isotherm, g thermal.Grid, w, h int) *Canvas {
	c := NewCanvas(w, h)
	dw, dh := c.Dots()
	if g.WidthKm <= 0 || g.HeightKm <= 0 {
		return c
	}
	project := func(p analysis.Point) (int, int) {
		x := (p.XKm + g.WidthKm/2) / g.WidthKm * float64(dw-1)
		y := p.DepthKm / g.HeightKm * float64(dh-1)
		return int(math.Round(x)), int(math.Round(y))
	}
	for _, iso := range isotherms {
		for _, seg := range iso.Segments() {
			x0, y0 := project(seg[0])
			c.Set(x0, y0)
			for _, p := range seg[1:] {
				x1, y1 := project(p)
				c.DrawLine(x0, y0, x1, y1)
				x0, y0 = x1, y1
			}
		}
	}
	return c
}

// Title mirrors the classic figure heading: elapsed time in ky and step count.
func Title(s thermal.Snapshot) string {
	return fmt.Sprintf("Final Temperature Distribution\nTime: %.2f ky, Steps: %d", s.Kiloyears(), s.Step)
}
