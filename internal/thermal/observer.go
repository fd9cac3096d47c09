package thermal

import "sync/atomic"

// Snapshot is a read-only copy of the run state after a completed step.
type Snapshot struct {
	Field          *Field  `json:"field"`
	Step           int     `json:"step"`
	TotalSteps     int     `json:"total_steps"`
	TimeStep       float64 `json:"dt"`
	Dx             float64 `json:"dx"`
	Dy             float64 `json:"dy"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	ElapsedYears   float64 `json:"elapsed_years"`
	DomainWidthKm  float64 `json:"domain_width_km"`
	DomainDepthKm  float64 `json:"domain_depth_km"`
	TSurface       float64 `json:"t_surface"`
	THot           float64 `json:"t_hot"`
}

// Progress returns Step/TotalSteps, or 1 for a zero-step run.
func (s Snapshot) Progress() float64 {
	if s.TotalSteps == 0 {
		return 1
	}
	return float64(s.Step) / float64(s.TotalSteps)
}

// Kiloyears is the elapsed simulated time in thousands of years.
func (s Snapshot) Kiloyears() float64 { return s.ElapsedYears / 1e3 }

// Extent returns plot bounds in km: x centred on the dike, depth negative down.
func (s Snapshot) Extent() (xMin, xMax, depthMin, depthMax float64) {
	return -s.DomainWidthKm / 2, s.DomainWidthKm / 2, -s.DomainDepthKm, 0
}

// Grid reconstructs the node geometry of the snapshot.
func (s Snapshot) Grid() Grid {
	g := Grid{Dx: s.Dx, Dy: s.Dy, WidthKm: s.DomainWidthKm, HeightKm: s.DomainDepthKm}
	if s.Field != nil {
		g.SizeX, g.SizeY = s.Field.SizeX, s.Field.SizeY
	}
	return g
}

// Observer receives snapshots from a running simulation. OnSnapshot runs on the
// solver goroutine and must not block.
type Observer interface {
	OnSnapshot(s Snapshot)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Snapshot)

func (f ObserverFunc) OnSnapshot(s Snapshot) { f(s) }

// ChannelObserver hands snapshots to another goroutine without ever blocking the
// solver. When the buffer is full the snapshot is dropped and counted.
type ChannelObserver struct {
	ch      chan Snapshot
	dropped atomic.Int64
	closed  atomic.Bool
}

func NewChannelObserver(buffer int) *ChannelObserver {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelObserver{ch: make(chan Snapshot, buffer)}
}

func (c *ChannelObserver) OnSnapshot(s Snapshot) {
	if c.closed.Load() {
		return
	}
	select {
	case c.ch <- s:
	default:
		c.dropped.Add(1)
	}
}

// C is the receive side for the consumer.
func (c *ChannelObserver) C() <-chan Snapshot { return c.ch }

// Dropped counts snapshots discarded because the consumer lagged.
func (c *ChannelObserver) Dropped() int64 { return c.dropped.Load() }

// Close stops delivery and closes the channel. Call it from the goroutine that
// ran the simulation once Run has returned.
func (c *ChannelObserver) Close() {
	if c.closed.CompareAndSwap(false, true) {
		close(c.ch)
	}
}
