package thermal

// Stepper applies one explicit Euler step of the 5-point Laplacian.
type Stepper struct {
	r        float64
	tSurface float64
	workers  int
}

// NewStepper precomputes r = alpha*dt/dx².
func NewStepper(alpha, dt, dx, tSurface float64, workers int) *Stepper {
	return &Stepper{
		r:        FourierNumber(alpha, dt, dx),
		tSurface: tSurface,
		workers:  workers,
	}
}

// Ratio returns alpha*dt/dx².
func (s *Stepper) Ratio() float64 { return s.r }

// Sweep reads only cur and writes every node of next: interior nodes get the
// stencil update, edge nodes keep their previous value, then the surface row is
// pinned. cur and next must not alias.
func (s *Stepper) Sweep(cur, next *Field) {
	if cur == next {
		panic("thermal: sweep requires two distinct buffers")
	}
	copyEdges(cur, next)

	if s.workers > 1 {
		parallelFor(1, cur.SizeX-1, s.workers, func(lo, hi int) {
			s.sweepColumns(cur, next, lo, hi)
		})
	} else {
		s.sweepColumns(cur, next, 1, cur.SizeX-1)
	}

	EnforceSurface(next, s.tSurface)
}

// sweepColumns updates interior nodes with x index in [lo, hi).
func (s *Stepper) sweepColumns(cur, next *Field, lo, hi int) {
	ny := cur.SizeY
	old, out := cur.Data, next.Data
	r := s.r
	for i := lo; i < hi; i++ {
		base := i * ny
		for j := 1; j < ny-1; j++ {
			k := base + j
			c := old[k]
			out[k] = c + r*(old[k+ny]+old[k-ny]+old[k+1]+old[k-1]-4*c)
		}
	}
}

// copyEdges carries the frozen boundary nodes over to the next buffer.
func copyEdges(cur, next *Field) {
	nx, ny := cur.SizeX, cur.SizeY
	copy(next.Data[:ny], cur.Data[:ny])
	last := (nx - 1) * ny
	copy(next.Data[last:last+ny], cur.Data[last:last+ny])
	for i := 1; i < nx-1; i++ {
		base := i * ny
		next.Data[base] = cur.Data[base]
		next.Data[base+ny-1] = cur.Data[base+ny-1]
	}
}
