package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/crustheat/internal/thermal"
)

// Peak tracks the hottest interior cell of the latest snapshot.
type Peak struct {
	name    string
	value   float64
	samples int
}

func NewPeak() *Peak {
	return &Peak{name: "peak_temperature"}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) OnSnapshot(s thermal.Snapshot) {
	f := s.Field
	if f == nil || f.SizeX < 3 || f.SizeY < 3 {
		return
	}
	peak := math.Inf(-1)
	for i := 1; i < f.SizeX-1; i++ {
		col := f.Column(i)[1 : f.SizeY-1]
		peak = math.Max(peak, floats.Max(col))
	}
	p.value = peak
	p.samples++
}

func (p *Peak) Value() float64 {
	if p.samples == 0 {
		return math.NaN()
	}
	return p.value
}

func (p *Peak) Reset() {
	p.value = 0
	p.samples = 0
}

// MeanInterior is the mean temperature of the interior nodes of the latest
// snapshot. It falls as the intrusions cool toward the surface.
type MeanInterior struct {
	name    string
	value   float64
	samples int
}

func NewMeanInterior() *MeanInterior {
	return &MeanInterior{name: "mean_interior"}
}

func (m *MeanInterior) Name() string { return m.name }

func (m *MeanInterior) OnSnapshot(s thermal.Snapshot) {
	f := s.Field
	if f == nil || f.SizeX < 3 || f.SizeY < 3 {
		return
	}
	var sum float64
	for i := 1; i < f.SizeX-1; i++ {
		sum += floats.Sum(f.Column(i)[1 : f.SizeY-1])
	}
	m.value = sum / float64((f.SizeX-2)*(f.SizeY-2))
	m.samples++
}

func (m *MeanInterior) Value() float64 {
	if m.samples == 0 {
		return math.NaN()
	}
	return m.value
}

func (m *MeanInterior) Reset() {
	m.value = 0
	m.samples = 0
}
