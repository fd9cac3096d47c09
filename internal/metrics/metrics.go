package metrics

import "github.com/san-kum/crustheat/internal/thermal"

// Metric is a snapshot observer that reduces a run to one number.
type Metric interface {
	thermal.Observer
	Name() string
	Value() float64
	Reset()
}

// Set fans snapshots out to several metrics. It is itself an observer.
type Set []Metric

func (s Set) OnSnapshot(snap thermal.Snapshot) {
	for _, m := range s {
		m.OnSnapshot(snap)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}

func (s Set) Reset() {
	for _, m := range s {
		m.Reset()
	}
}

// Default returns the metrics recorded with every stored run. initial is the
// field before the first step.
func Default(initial *thermal.Field) Set {
	return Set{NewPeak(), NewMeanInterior(), NewBoundsFor(initial)}
}
