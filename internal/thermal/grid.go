package thermal

import (
	"fmt"
	"math"
)

// MinNodes is the smallest node count per axis that leaves one interior node.
const MinNodes = 3

// Grid holds the node counts derived from the physical domain.
type Grid struct {
	SizeX, SizeY int
	Dx, Dy       float64
	WidthKm      float64
	HeightKm     float64
}

// NewGrid floors domain*1000/spacing on each axis.
func NewGrid(widthKm, depthKm, dx, dy float64) (Grid, error) {
	if !(dx > 0) {
		return Grid{}, invalid("Dx", dx, "> 0")
	}
	if !(dy > 0) {
		return Grid{}, invalid("Dy", dy, "> 0")
	}
	sx := math.Floor(widthKm * 1000 / dx)
	sy := math.Floor(depthKm * 1000 / dy)
	if !(sx >= MinNodes) || math.IsInf(sx, 0) {
		return Grid{}, invalid("SizeX", sx, fmt.Sprintf(">= %d nodes (DomainWidthKm=%g, Dx=%g)", MinNodes, widthKm, dx))
	}
	if !(sy >= MinNodes) || math.IsInf(sy, 0) {
		return Grid{}, invalid("SizeY", sy, fmt.Sprintf(">= %d nodes (DomainDepthKm=%g, Dy=%g)", MinNodes, depthKm, dy))
	}
	return Grid{
		SizeX:    int(sx),
		SizeY:    int(sy),
		Dx:       dx,
		Dy:       dy,
		WidthKm:  widthKm,
		HeightKm: depthKm,
	}, nil
}

// NewField allocates a zeroed field shaped like the grid.
func (g Grid) NewField() *Field {
	return NewField(g.SizeX, g.SizeY)
}

// Interior returns the number of nodes updated by the stencil.
func (g Grid) Interior() int {
	return (g.SizeX - 2) * (g.SizeY - 2)
}

// XKm maps column i onto [-WidthKm/2, WidthKm/2], the plot extent.
func (g Grid) XKm(i int) float64 {
	if g.SizeX < 2 {
		return 0
	}
	return -g.WidthKm/2 + float64(i)*g.WidthKm/float64(g.SizeX-1)
}

// DepthKm maps row j onto [0, HeightKm], matching the initial gradient.
func (g Grid) DepthKm(j int) float64 {
	if g.SizeY < 2 {
		return 0
	}
	return float64(j) * g.HeightKm / float64(g.SizeY-1)
}

// Field is a SizeX x SizeY temperature array stored with x as the outer index,
// so Data[i*SizeY+j] is node (i, j) and j = 0 is the surface.
type Field struct {
	SizeX int       `json:"size_x"`
	SizeY int       `json:"size_y"`
	Data  []float64 `json:"data"`
}

func NewField(sizeX, sizeY int) *Field {
	return &Field{SizeX: sizeX, SizeY: sizeY, Data: make([]float64, sizeX*sizeY)}
}

func (f *Field) Index(i, j int) int { return i*f.SizeY + j }

func (f *Field) At(i, j int) float64 { return f.Data[i*f.SizeY+j] }

func (f *Field) Set(i, j int, v float64) { f.Data[i*f.SizeY+j] = v }

// Column returns the depth profile at x index i. The slice aliases the field.
func (f *Field) Column(i int) []float64 {
	return f.Data[i*f.SizeY : (i+1)*f.SizeY]
}

// Row copies the values at depth index j across all x.
func (f *Field) Row(j int) []float64 {
	row := make([]float64, f.SizeX)
	for i := range row {
		row[i] = f.Data[i*f.SizeY+j]
	}
	return row
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	c := &Field{SizeX: f.SizeX, SizeY: f.SizeY, Data: make([]float64, len(f.Data))}
	copy(c.Data, f.Data)
	return c
}

// CopyFrom overwrites f with src. Shapes must match.
func (f *Field) CopyFrom(src *Field) {
	if f.SizeX != src.SizeX || f.SizeY != src.SizeY {
		panic("thermal: field shape mismatch")
	}
	copy(f.Data, src.Data)
}

// Equal reports bitwise equality of shape and values.
func (f *Field) Equal(other *Field) bool {
	if other == nil || f.SizeX != other.SizeX || f.SizeY != other.SizeY {
		return false
	}
	for k, v := range f.Data {
		if math.Float64bits(v) != math.Float64bits(other.Data[k]) {
			return false
		}
	}
	return true
}

// IsValid reports whether every value is finite.
func (f *Field) IsValid() bool {
	for _, v := range f.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
