package thermal_test

import (
	"context"
	"errors"
	"io"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus"

	"github.com/san-kum/crustheat/internal/thermal"
)

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func smallConfig() thermal.SimulationConfig {
	cfg := thermal.DefaultConfig()
	cfg.DomainWidthKm = 2
	cfg.DomainDepthKm = 2
	cfg.VerticalBodyWidthKm = 0.2
	cfg.HorizontalBodyLengthKm = 0.5
	cfg.HorizontalBodyDepthKm = 0.3
	cfg.Steps = 20
	return cfg
}

func newSim(cfg thermal.SimulationConfig) *thermal.Simulation {
	s, err := thermal.New(cfg, thermal.WithLogger(quietLogger()))
	Expect(err).NotTo(HaveOccurred())
	return s
}

type recorder struct {
	snaps []thermal.Snapshot
}

func (r *recorder) OnSnapshot(s thermal.Snapshot) { r.snaps = append(r.snaps, s) }

var _ = Describe("Simulation", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("construction", func() {
		It("derives a time step at the stability limit", func() {
			s := newSim(thermal.DefaultConfig())
			Expect(s.TimeStep()).To(BeNumerically("~", 6.25e8, 1e-3))
			Expect(s.FourierNumber()).To(BeNumerically("<=", thermal.MaxFourierNumber*(1+1e-12)))
			Expect(s.Grid().SizeX).To(Equal(160))
			Expect(s.Grid().SizeY).To(Equal(160))
		})

		It("rejects an undersized grid without returning a simulation", func() {
			cfg := thermal.DefaultConfig()
			cfg.DomainWidthKm = 0.1
			cfg.DomainDepthKm = 0.1
			cfg.VerticalBodyWidthKm = 0.05
			cfg.HorizontalBodyLengthKm = 0.05
			cfg.HorizontalBodyDepthKm = 0.05

			s, err := thermal.New(cfg)
			Expect(s).To(BeNil())
			Expect(errors.Is(err, thermal.ErrInvalidConfig)).To(BeTrue())

			var cerr *thermal.ConfigError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Field).To(Equal("SizeX"))
		})

		It("rejects an unstable explicit time step", func() {
			cfg := thermal.DefaultConfig()
			cfg.TimeStep = 1e9
			_, err := thermal.New(cfg)
			Expect(err).To(MatchError(thermal.ErrStabilityViolation))
		})
	})

	Describe("Run", func() {
		It("returns the composed initial condition for a zero-step run", func() {
			cfg := thermal.DefaultConfig()
			cfg.Steps = 0
			s := newSim(cfg)

			g := s.Grid()
			want := g.NewField()
			Expect(thermal.Compose(g, want, cfg)).To(Succeed())

			rec := &recorder{}
			res, err := s.Run(ctx, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(0))
			Expect(res.Final.ElapsedYears).To(Equal(0.0))
			Expect(res.Final.Field.Equal(want)).To(BeTrue())
			Expect(rec.snaps).To(HaveLen(1))
		})

		It("applies the five-point stencil for a single step", func() {
			cfg := thermal.DefaultConfig()
			cfg.Steps = 1
			s := newSim(cfg)

			g := s.Grid()
			f0 := g.NewField()
			Expect(thermal.Compose(g, f0, cfg)).To(Succeed())

			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			f1 := res.Final.Field

			r := s.FourierNumber()
			for i := 1; i < g.SizeX-1; i++ {
				for j := 1; j < g.SizeY-1; j++ {
					c := f0.At(i, j)
					want := c + r*(f0.At(i+1, j)+f0.At(i-1, j)+f0.At(i, j+1)+f0.At(i, j-1)-4*c)
					Expect(f1.At(i, j)).To(Equal(want), "cell (%d,%d)", i, j)
				}
			}
			for i := 0; i < g.SizeX; i++ {
				Expect(f1.At(i, 0)).To(Equal(cfg.TSurface))
				Expect(f1.At(i, g.SizeY-1)).To(Equal(f0.At(i, g.SizeY-1)))
			}
			for j := 1; j < g.SizeY; j++ {
				Expect(f1.At(0, j)).To(Equal(f0.At(0, j)))
				Expect(f1.At(g.SizeX-1, j)).To(Equal(f0.At(g.SizeX-1, j)))
			}
		})

		It("reports elapsed time in years", func() {
			s := newSim(thermal.DefaultConfig())
			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			want := 200 * s.TimeStep() / 86400 / 365.24
			Expect(res.StepsTaken).To(Equal(200))
			Expect(res.Final.ElapsedYears).To(BeNumerically("~", want, want*1e-12))
			Expect(res.Final.ElapsedYears).To(BeNumerically("~", 3961.0, 1.0))
		})

		It("keeps the surface pinned and the edges frozen on every step", func() {
			cfg := smallConfig()
			cfg.SnapshotEvery = 1
			s := newSim(cfg)
			initial := s.Snapshot().Field
			g := s.Grid()

			rec := &recorder{}
			_, err := s.Run(ctx, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(rec.snaps).To(HaveLen(cfg.Steps))

			for _, snap := range rec.snaps {
				f := snap.Field
				for i := 0; i < g.SizeX; i++ {
					Expect(f.At(i, 0)).To(Equal(cfg.TSurface))
					Expect(f.At(i, g.SizeY-1)).To(Equal(initial.At(i, g.SizeY-1)))
				}
				for j := 1; j < g.SizeY; j++ {
					Expect(f.At(0, j)).To(Equal(initial.At(0, j)))
					Expect(f.At(g.SizeX-1, j)).To(Equal(initial.At(g.SizeX-1, j)))
				}
			}
		})

		It("never leaves the initial temperature range", func() {
			cfg := smallConfig()
			cfg.Steps = 100
			s := newSim(cfg)

			lo, hi := math.Inf(1), math.Inf(-1)
			for _, v := range s.Snapshot().Field.Data {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}

			res, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Field.IsValid()).To(BeTrue())
			for _, v := range res.Final.Field.Data {
				Expect(v).To(BeNumerically(">=", lo-1e-9))
				Expect(v).To(BeNumerically("<=", hi+1e-9))
			}
		})

		It("is deterministic across runs and worker counts", func() {
			cfg := thermal.DefaultConfig()
			cfg.Steps = 30

			a, err := newSim(cfg).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			b, err := newSim(cfg).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Final.Field.Equal(b.Final.Field)).To(BeTrue())

			cfg.Workers = 4
			c, err := newSim(cfg).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(a.Final.Field.Equal(c.Final.Field)).To(BeTrue())
		})

		It("resets before a second run", func() {
			s := newSim(smallConfig())
			first, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			second, err := s.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.StepsTaken).To(Equal(first.StepsTaken))
			Expect(second.Final.Field.Equal(first.Final.Field)).To(BeTrue())
		})

		It("emits intermediate snapshots at the configured cadence", func() {
			cfg := thermal.DefaultConfig()
			cfg.SnapshotEvery = 50
			s := newSim(cfg)

			rec := &recorder{}
			_, err := s.Run(ctx, rec)
			Expect(err).NotTo(HaveOccurred())

			steps := make([]int, 0, len(rec.snaps))
			for _, snap := range rec.snaps {
				steps = append(steps, snap.Step)
			}
			Expect(steps).To(Equal([]int{50, 100, 150, 200}))
		})

		It("isolates observers from each other and from the solver", func() {
			cfg := smallConfig()
			s := newSim(cfg)

			vandal := thermal.ObserverFunc(func(snap thermal.Snapshot) {
				for k := range snap.Field.Data {
					snap.Field.Data[k] = 1e9
				}
			})
			rec := &recorder{}
			res, err := s.Run(ctx, vandal, rec)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.snaps).To(HaveLen(1))
			Expect(rec.snaps[0].Field.At(1, 1)).NotTo(Equal(1e9))
			Expect(res.Final.Field.Equal(rec.snaps[0].Field)).To(BeTrue())
		})

		It("hands every observer a field copied from the solver at each cadence step", func() {
			cfg := smallConfig()
			cfg.Steps = 6
			cfg.SnapshotEvery = 2

			want := &recorder{}
			_, err := newSim(cfg).Run(ctx, want)
			Expect(err).NotTo(HaveOccurred())

			s := newSim(cfg)
			first, last := &recorder{}, &recorder{}
			marker := thermal.ObserverFunc(func(snap thermal.Snapshot) {
				snap.Field.Set(1, 1, 12345)
			})
			_, err = s.Run(ctx, first, marker, last)
			Expect(err).NotTo(HaveOccurred())

			Expect(last.snaps).To(HaveLen(len(want.snaps)))
			for k := range want.snaps {
				Expect(last.snaps[k].Step).To(Equal(want.snaps[k].Step))
				Expect(last.snaps[k].Field.Equal(want.snaps[k].Field)).To(BeTrue())
				Expect(first.snaps[k].Field.At(1, 1)).NotTo(Equal(12345.0))
			}
		})
	})

	Describe("cancellation", func() {
		It("does nothing when the context is already canceled", func() {
			s := newSim(smallConfig())
			initial := s.Snapshot().Field

			cctx, cancel := context.WithCancel(ctx)
			cancel()

			res, err := s.Run(cctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(res.StepsTaken).To(Equal(0))
			Expect(res.Final.Field.Equal(initial)).To(BeTrue())
		})

		It("stops between steps and keeps the last completed field", func() {
			cfg := thermal.DefaultConfig()
			cfg.SnapshotEvery = 1
			s := newSim(cfg)

			cctx, cancel := context.WithCancel(ctx)
			defer cancel()
			stopper := thermal.ObserverFunc(func(snap thermal.Snapshot) {
				if snap.Step == 5 {
					cancel()
				}
			})

			res, err := s.Run(cctx, stopper)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())

			var rerr *thermal.RunError
			Expect(errors.As(err, &rerr)).To(BeTrue())
			Expect(rerr.Step).To(Equal(5))
			Expect(res.StepsTaken).To(Equal(5))

			ref := cfg
			ref.Steps = 5
			ref.SnapshotEvery = 0
			want, err := newSim(ref).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Final.Field.Equal(want.Final.Field)).To(BeTrue())
		})
	})
})
