package viz

import (
	"math"

	"github.com/charmbracelet/lipgloss"
)

// Scale clips temperatures to [Min, Max] before colouring.
type Scale struct {
	Min, Max float64
}

// DefaultScale highlights the cold crust: everything above 10 °C saturates.
var DefaultScale = Scale{Min: -63, Max: 10}

// Normalize maps v onto [0, 1], clamping outside the scale.
func (s Scale) Normalize(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	span := s.Max - s.Min
	if span <= 0 {
		return 0
	}
	t := (v - s.Min) / span
	return math.Max(0, math.Min(1, t))
}

// Colormap is a piecewise-linear colour ramp.
type Colormap struct {
	Name  string
	Stops []lipgloss.Color
}

var (
	ColormapHot = Colormap{
		Name:  "hot",
		Stops: []lipgloss.Color{"#0b0000", "#e00000", "#ffd200", "#ffffff"},
	}

	ColormapInferno = Colormap{
		Name:  "inferno",
		Stops: []lipgloss.Color{"#000004", "#420a68", "#932667", "#dd513a", "#fca50a", "#fcffa4"},
	}

	ColormapCoolwarm = Colormap{
		Name:  "coolwarm",
		Stops: []lipgloss.Color{"#3b4cc0", "#8db0fe", "#dddddd", "#f49a7b", "#b40426"},
	}

	ColormapGray = Colormap{
		Name:  "gray",
		Stops: []lipgloss.Color{"#000000", "#ffffff"},
	}

	Colormaps = []Colormap{ColormapHot, ColormapInferno, ColormapCoolwarm, ColormapGray}
)

// IsothermColors follows the usual plot convention: freezing in blue, boiling
// in green.
var IsothermColors = map[float64]lipgloss.Color{
	0:   "#1f4fff",
	100: "#00c040",
}

func IsothermColor(level float64) lipgloss.Color {
	if c, ok := IsothermColors[level]; ok {
		return c
	}
	return "#ffffff"
}

func GetColormap(name string) Colormap {
	for _, c := range Colormaps {
		if c.Name == name {
			return c
		}
	}
	return ColormapHot
}

func ColormapNames() []string {
	names := make([]string, len(Colormaps))
	for i, c := range Colormaps {
		names[i] = c.Name
	}
	return names
}

// nextColormap returns the colormap after cur in Colormaps.
func nextColormap(cur Colormap) Colormap {
	for i, c := range Colormaps {
		if c.Name == cur.Name {
			return Colormaps[(i+1)%len(Colormaps)]
		}
	}
	return Colormaps[0]
}

// At interpolates the ramp at t in [0, 1].
func (c Colormap) At(t float64) lipgloss.Color {
	r, g, b := c.RGB(t)
	return lipgloss.Color(hexColor(r, g, b))
}

// RGB interpolates the ramp at t in [0, 1] as 8-bit channels.
func (c Colormap) RGB(t float64) (int, int, int) {
	if len(c.Stops) == 0 {
		return 0, 0, 0
	}
	if len(c.Stops) == 1 || t <= 0 {
		return parseHex(string(c.Stops[0]))
	}
	if t >= 1 {
		return parseHex(string(c.Stops[len(c.Stops)-1]))
	}
	pos := t * float64(len(c.Stops)-1)
	k := int(pos)
	frac := pos - float64(k)
	sr, sg, sb := parseHex(string(c.Stops[k]))
	er, eg, eb := parseHex(string(c.Stops[k+1]))
	return lerp(sr, er, frac), lerp(sg, eg, frac), lerp(sb, eb, frac)
}

func lerp(a, b int, t float64) int {
	return int(math.Round(float64(a) + t*float64(b-a)))
}

func parseHex(hex string) (r, g, b int) {
	if len(hex) != 7 || hex[0] != '#' {
		return 255, 255, 255
	}
	return parseHexByte(hex[1:3]), parseHexByte(hex[3:5]), parseHexByte(hex[5:7])
}

func parseHexByte(s string) int {
	var val int
	for _, c := range s {
		val *= 16
		switch {
		case c >= '0' && c <= '9':
			val += int(c - '0')
		case c >= 'a' && c <= 'f':
			val += int(c - 'a' + 10)
		case c >= 'A' && c <= 'F':
			val += int(c - 'A' + 10)
		}
	}
	return val
}

func hexColor(r, g, b int) string {
	return "#" + hexByte(r) + hexByte(g) + hexByte(b)
}

func hexByte(v int) string {
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	const hex = "0123456789abcdef"
	return string(hex[v/16]) + string(hex[v%16])
}
