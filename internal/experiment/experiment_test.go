package experiment

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/crustheat/internal/thermal"
)

func quietLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func smallBase() thermal.SimulationConfig {
	cfg := thermal.DefaultConfig()
	cfg.DomainWidthKm = 2
	cfg.DomainDepthKm = 2
	cfg.VerticalBodyWidthKm = 0.2
	cfg.HorizontalBodyLengthKm = 0.5
	cfg.HorizontalBodyDepthKm = 0.3
	cfg.Steps = 10
	return cfg
}

func TestApply(t *testing.T) {
	cfg := thermal.DefaultConfig()
	require.NoError(t, Apply(&cfg, "t_hot", 900))
	require.NoError(t, Apply(&cfg, "spacing", 25))
	require.NoError(t, Apply(&cfg, "steps", 12))
	assert.Equal(t, 900.0, cfg.THot)
	assert.Equal(t, 25.0, cfg.Dx)
	assert.Equal(t, 25.0, cfg.Dy)
	assert.Equal(t, 12, cfg.Steps)

	assert.Error(t, Apply(&cfg, "steps", 1.5))
	assert.Error(t, Apply(&cfg, "nope", 1))
	assert.Contains(t, ParamNames(), "diffusivity")
}

func TestGridPoints(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Add("t_hot", 900, 1300))
	require.NoError(t, g.Add("steps", 1, 2, 3))
	assert.Error(t, g.Add("bogus", 1))
	assert.Error(t, g.Add("gradient"))

	points := g.Points()
	require.Len(t, points, 6)
	assert.Equal(t, map[string]float64{"t_hot": 900, "steps": 1}, points[0])
	assert.Equal(t, map[string]float64{"t_hot": 1300, "steps": 3}, points[5])

	assert.Len(t, NewGrid().Points(), 1)
}

func TestSweepRun(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Add("t_hot", 600, 1300))
	require.NoError(t, g.Add("dike_width", 0.2, 5))

	var mu sync.Mutex
	seen := 0
	s := &Sweep{
		Base:        smallBase(),
		Grid:        g,
		Concurrency: 2,
		Logger:      quietLogger(),
		OnOutcome: func(Outcome) {
			mu.Lock()
			seen++
			mu.Unlock()
		},
	}

	outcomes, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 4)
	assert.Equal(t, 4, seen)

	for k, o := range outcomes {
		assert.Equal(t, k, o.Index)
		if o.Params["dike_width"] == 5 {
			assert.True(t, errors.Is(o.Err, thermal.ErrInvalidConfig), "dike wider than domain must be rejected")
			continue
		}
		require.NoError(t, o.Err)
		assert.Equal(t, 10, o.Result.StepsTaken)
		assert.Equal(t, 1.0, o.Metrics["bounds"])
		assert.Contains(t, o.Metrics, "iso_0_top_km")
		assert.LessOrEqual(t, o.Metrics["peak_temperature"], o.Config.THot)
	}

	best, ok := Best(outcomes, "peak_temperature", true)
	require.True(t, ok)
	assert.Equal(t, 1300.0, best.Params["t_hot"])

	ranked := Rank(outcomes, "peak_temperature", false)
	require.Len(t, ranked, 2)
	assert.Equal(t, 600.0, ranked[0].Params["t_hot"])
}

func TestSweepMatchesSingleRun(t *testing.T) {
	base := smallBase()
	s := &Sweep{Base: base, Concurrency: 4, Logger: quietLogger()}
	outcomes, err := s.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	sim, err := thermal.New(base, thermal.WithLogger(quietLogger()))
	require.NoError(t, err)
	res, err := sim.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Final.Field.Equal(outcomes[0].Result.Final.Field))
}

func TestSweepCanceled(t *testing.T) {
	g := NewGrid()
	require.NoError(t, g.Add("t_hot", 500, 600, 700))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Sweep{Base: smallBase(), Grid: g, Concurrency: 1, Logger: quietLogger()}
	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBest_Empty(t *testing.T) {
	_, ok := Best([]Outcome{{Err: errors.New("x")}}, "peak_temperature", false)
	assert.False(t, ok)
}
