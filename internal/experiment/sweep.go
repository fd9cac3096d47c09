package experiment

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/metrics"
	"github.com/san-kum/crustheat/internal/thermal"
)

// Outcome is one point of a sweep. Err is set when the configuration was
// rejected or the run was interrupted.
type Outcome struct {
	Index   int
	Params  map[string]float64
	Config  thermal.SimulationConfig
	Result  *thermal.Result
	Metrics map[string]float64
	Err     error
}

// Sweep runs every point of Grid from Base. Each point gets its own Simulation.
type Sweep struct {
	Base        thermal.SimulationConfig
	Grid        *Grid
	Concurrency int
	Logger      log.FieldLogger
	// OnOutcome, if set, is called as each point finishes, from the worker
	// goroutine.
	OnOutcome func(Outcome)
}

// Run executes the sweep. Invalid points are reported in their Outcome and do
// not stop the others. Cancelling ctx stops outstanding runs and returns the
// context error alongside whatever finished.
func (s *Sweep) Run(ctx context.Context) ([]Outcome, error) {
	grid := s.Grid
	if grid == nil {
		grid = NewGrid()
	}
	points := grid.Points()
	logger := s.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	limit := s.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	outcomes := make([]Outcome, len(points))
	var finished atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for k, p := range points {
		k, p := k, p
		g.Go(func() error {
			out := s.runPoint(gctx, k, p, logger)
			outcomes[k] = out
			n := finished.Add(1)
			entry := logger.WithFields(log.Fields{"point": k, "done": n, "total": len(points)})
			if out.Err != nil {
				entry.WithError(out.Err).Warn("sweep point failed")
			} else {
				entry.Debug("sweep point finished")
			}
			if s.OnOutcome != nil {
				s.OnOutcome(out)
			}
			return gctx.Err()
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return outcomes, err
}

func (s *Sweep) runPoint(ctx context.Context, index int, p map[string]float64, logger log.FieldLogger) Outcome {
	out := Outcome{Index: index, Params: p, Config: s.Base}
	for name, v := range p {
		if err := Apply(&out.Config, name, v); err != nil {
			out.Err = err
			return out
		}
	}

	sim, err := thermal.New(out.Config, thermal.WithLogger(logger.WithField("point", index)))
	if err != nil {
		out.Err = err
		return out
	}

	set := metrics.Default(sim.Snapshot().Field)
	res, err := sim.Run(ctx, set)
	out.Result = res
	if err != nil {
		out.Err = err
		return out
	}

	out.Metrics = set.Values()
	g := res.Final.Grid()
	for _, level := range analysis.DefaultIsotherms {
		iso := analysis.ExtractIsotherm(res.Final.Field, g, level)
		out.Metrics[isothermKey(level)] = iso.ShallowestKm()
	}
	out.Metrics["area_above_0_km2"] = analysis.AreaAbove(res.Final.Field, g, 0)
	out.Metrics["elapsed_years"] = res.Final.ElapsedYears
	return out
}

func isothermKey(level float64) string {
	return fmt.Sprintf("iso_%g_top_km", level)
}

// Best returns the successful outcome with the lowest (or highest) value of
// metric. ok is false if no outcome carries the metric.
func Best(outcomes []Outcome, metric string, maximize bool) (Outcome, bool) {
	ranked := Rank(outcomes, metric, maximize)
	if len(ranked) == 0 {
		return Outcome{}, false
	}
	return ranked[0], true
}

// Rank orders successful outcomes by metric, skipping NaN values.
func Rank(outcomes []Outcome, metric string, maximize bool) []Outcome {
	var ok []Outcome
	for _, o := range outcomes {
		if o.Err != nil || o.Metrics == nil {
			continue
		}
		v, present := o.Metrics[metric]
		if !present || math.IsNaN(v) {
			continue
		}
		ok = append(ok, o)
	}
	sort.SliceStable(ok, func(a, b int) bool {
		va, vb := ok[a].Metrics[metric], ok[b].Metrics[metric]
		if maximize {
			return va > vb
		}
		return va < vb
	})
	return ok
}
