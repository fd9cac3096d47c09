// Package thermal implements an explicit finite-difference solver for 2D heat
// conduction through a crustal cross-section.
//
// The package is organised around a single run object:
//
//   - [SimulationConfig]: immutable input (domain, spacing, diffusivity, hot bodies)
//   - [Grid] and [Field]: node counts and the temperature array, row index = x,
//     column index = depth (0 = surface)
//   - [Compose]: background gradient, vertical dike, horizontal sill, surface clamp
//   - [Stepper]: Jacobi sweeps of the 5-point stencil with a double buffer
//   - [Clock]: simulated elapsed time
//   - [Simulation]: owns all of the above for one run
//
// # Example
//
//	cfg := thermal.DefaultConfig()
//	s, err := thermal.New(cfg)
//	if err != nil {
//	    return err
//	}
//	res, err := s.Run(ctx, thermal.ObserverFunc(func(snap thermal.Snapshot) {
//	    fmt.Println(snap.Step, snap.ElapsedYears)
//	}))
//
// # Stability
//
// The time step is derived as dt = 2*dx²/(4*alpha)*0.5, which puts the Fourier
// number alpha*dt/dx² exactly on the 2D explicit limit of 0.25. A configured
// [SimulationConfig.TimeStep] above that limit is rejected with
// [ErrStabilityViolation].
//
// # Thread Safety
//
// A Simulation is NOT safe for concurrent use. Observers receive deep copies of
// the field, so they may keep or read snapshots from other goroutines. Independent
// runs must each use their own Simulation.
package thermal
