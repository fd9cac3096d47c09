package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/crustheat/internal/thermal"
)

// boundsSlack absorbs rounding in the convex update.
const boundsSlack = 1e-9

// Bounds checks the discrete maximum principle: every observed field must stay
// inside [lo, hi]. Value is the fraction of snapshots that did.
type Bounds struct {
	name       string
	lo, hi     float64
	violations int
	samples    int
}

func NewBounds(lo, hi float64) *Bounds {
	return &Bounds{name: "bounds", lo: lo, hi: hi}
}

// NewBoundsFor takes the bounds from the initial field.
func NewBoundsFor(initial *thermal.Field) *Bounds {
	if initial == nil || len(initial.Data) == 0 {
		return NewBounds(math.Inf(-1), math.Inf(1))
	}
	return NewBounds(floats.Min(initial.Data), floats.Max(initial.Data))
}

func (b *Bounds) Name() string { return b.name }

func (b *Bounds) OnSnapshot(s thermal.Snapshot) {
	if s.Field == nil {
		return
	}
	b.samples++
	for _, v := range s.Field.Data {
		if math.IsNaN(v) || v < b.lo-boundsSlack || v > b.hi+boundsSlack {
			b.violations++
			return
		}
	}
}

func (b *Bounds) Value() float64 {
	if b.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(b.violations)/float64(b.samples)
}

func (b *Bounds) Violations() int { return b.violations }

func (b *Bounds) Reset() {
	b.violations = 0
	b.samples = 0
}
