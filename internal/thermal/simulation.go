package thermal

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Simulation owns the grid, both field buffers, the stepper and the clock of one
// run.
type Simulation struct {
	cfg     SimulationConfig
	grid    Grid
	dt      float64
	stepper *Stepper

	cur, next *Field
	clock     Clock
	step      int

	log logrus.FieldLogger
}

// Option customises a Simulation.
type Option func(*Simulation)

// WithLogger routes run lifecycle logs to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.log = l
		}
	}
}

// Result summarises a finished (or interrupted) run.
type Result struct {
	Final      Snapshot
	StepsTaken int
	WallTime   time.Duration
}

// New validates cfg, builds the grid and composes the initial condition. Nothing
// is allocated when validation fails.
func New(cfg SimulationConfig, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	grid, err := NewGrid(cfg.DomainWidthKm, cfg.DomainDepthKm, cfg.Dx, cfg.Dy)
	if err != nil {
		return nil, err
	}
	if _, err := planBodies(grid, cfg); err != nil {
		return nil, err
	}

	dt := cfg.EffectiveTimeStep()
	s := &Simulation{
		cfg:     cfg,
		grid:    grid,
		dt:      dt,
		stepper: NewStepper(cfg.Diffusivity, dt, cfg.Dx, cfg.TSurface, cfg.Workers),
		cur:     grid.NewField(),
		next:    grid.NewField(),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"size_x":  grid.SizeX,
		"size_y":  grid.SizeY,
		"dt":      dt,
		"fourier": s.stepper.Ratio(),
		"steps":   cfg.Steps,
		"workers": cfg.Workers,
	}).Debug("simulation initialised")
	return s, nil
}

// Reset recomposes the initial condition and zeroes the clock.
func (s *Simulation) Reset() error {
	if err := Compose(s.grid, s.cur, s.cfg); err != nil {
		return err
	}
	s.next.CopyFrom(s.cur)
	s.clock.Reset()
	s.step = 0
	return nil
}

func (s *Simulation) Config() SimulationConfig { return s.cfg }

func (s *Simulation) Grid() Grid { return s.grid }

// TimeStep returns the constant dt in seconds.
func (s *Simulation) TimeStep() float64 { return s.dt }

// FourierNumber returns alpha*dt/dx² for this run.
func (s *Simulation) FourierNumber() float64 { return s.stepper.Ratio() }

// StepIndex returns the number of completed steps.
func (s *Simulation) StepIndex() int { return s.step }

func (s *Simulation) Clock() Clock { return s.clock }

// Step advances one full sweep: stencil into the scratch buffer, surface clamp,
// swap, clock.
func (s *Simulation) Step() {
	s.stepper.Sweep(s.cur, s.next)
	s.cur, s.next = s.next, s.cur
	s.clock.Advance(s.dt)
	s.step++
}

// Snapshot copies the current field and step metadata.
func (s *Simulation) Snapshot() Snapshot {
	return Snapshot{
		Field:          s.cur.Clone(),
		Step:           s.step,
		TotalSteps:     s.cfg.Steps,
		TimeStep:       s.dt,
		Dx:             s.cfg.Dx,
		Dy:             s.cfg.Dy,
		ElapsedSeconds: s.clock.Seconds(),
		ElapsedYears:   s.clock.Years(),
		DomainWidthKm:  s.cfg.DomainWidthKm,
		DomainDepthKm:  s.cfg.DomainDepthKm,
		TSurface:       s.cfg.TSurface,
		THot:           s.cfg.THot,
	}
}

// Run executes cfg.Steps steps from the initial condition. A simulation that
// already stepped is reset first, so each Run is an independent run. The
// context is checked between steps; on cancellation the field reflects the last
// completed step and the error is a *RunError wrapping ctx.Err().
func (s *Simulation) Run(ctx context.Context, observers ...Observer) (*Result, error) {
	if s.step != 0 {
		if err := s.Reset(); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	log := s.log.WithField("steps", s.cfg.Steps)
	log.Debug("run started")

	every := s.cfg.SnapshotEvery
	for s.step < s.cfg.Steps {
		select {
		case <-ctx.Done():
			res := &Result{Final: s.Snapshot(), StepsTaken: s.step, WallTime: time.Since(start)}
			log.WithField("completed", s.step).Info("run canceled")
			return res, &RunError{Step: s.step, Elapsed: s.clock.Seconds(), Err: ctx.Err()}
		default:
		}

		s.Step()

		if every > 0 && s.step%every == 0 && s.step != s.cfg.Steps {
			s.notify(observers)
		}
	}

	final := s.Snapshot()
	s.notify(observers)

	res := &Result{Final: final, StepsTaken: s.step, WallTime: time.Since(start)}
	log.WithFields(logrus.Fields{
		"elapsed_ky": s.clock.Kiloyears(),
		"wall":       res.WallTime,
	}).Debug("run finished")
	return res, nil
}

// notify gives every observer its own copy of the current field, taken from
// the solver buffer rather than from what an earlier observer received.
func (s *Simulation) notify(observers []Observer) {
	if len(observers) == 0 {
		return
	}
	snap := s.Snapshot()
	for k, o := range observers {
		if k > 0 {
			snap.Field = s.cur.Clone()
		}
		o.OnSnapshot(snap)
	}
}
