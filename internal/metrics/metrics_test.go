package metrics

import (
	"context"
	"io"
	"math"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/crustheat/internal/thermal"
)

func fieldOf(sizeX, sizeY int, fill float64) *thermal.Field {
	f := thermal.NewField(sizeX, sizeY)
	for k := range f.Data {
		f.Data[k] = fill
	}
	return f
}

func TestPeakIgnoresBoundary(t *testing.T) {
	f := fieldOf(4, 4, 10)
	f.Set(0, 0, 5000)
	f.Set(2, 2, 42)

	p := NewPeak()
	if !math.IsNaN(p.Value()) {
		t.Error("expected NaN before any snapshot")
	}
	p.OnSnapshot(thermal.Snapshot{Field: f})
	if p.Value() != 42 {
		t.Errorf("expected 42, got %f", p.Value())
	}

	p.Reset()
	if !math.IsNaN(p.Value()) {
		t.Error("expected NaN after reset")
	}
}

func TestMeanInterior(t *testing.T) {
	f := fieldOf(4, 4, 100)
	f.Set(1, 1, 0)
	f.Set(3, 3, -1e6)

	m := NewMeanInterior()
	m.OnSnapshot(thermal.Snapshot{Field: f})
	if math.Abs(m.Value()-75) > 1e-12 {
		t.Errorf("expected 75, got %f", m.Value())
	}
}

func TestBounds(t *testing.T) {
	b := NewBounds(-63, 1300)
	if b.Value() != 1.0 {
		t.Error("empty bounds should report 1")
	}

	b.OnSnapshot(thermal.Snapshot{Field: fieldOf(3, 3, 0)})
	hot := fieldOf(3, 3, 0)
	hot.Set(1, 1, 1400)
	b.OnSnapshot(thermal.Snapshot{Field: hot})

	if b.Violations() != 1 {
		t.Errorf("expected 1 violation, got %d", b.Violations())
	}
	if b.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", b.Value())
	}

	nan := fieldOf(3, 3, math.NaN())
	b.Reset()
	b.OnSnapshot(thermal.Snapshot{Field: nan})
	if b.Value() != 0 {
		t.Errorf("NaN field should violate, got %f", b.Value())
	}
}

func TestDefaultSetOverRun(t *testing.T) {
	cfg := thermal.DefaultConfig()
	cfg.Steps = 40
	cfg.SnapshotEvery = 10

	log := logrus.New()
	log.SetOutput(io.Discard)
	sim, err := thermal.New(cfg, thermal.WithLogger(log))
	if err != nil {
		t.Fatal(err)
	}

	set := Default(sim.Snapshot().Field)
	if _, err := sim.Run(context.Background(), set); err != nil {
		t.Fatal(err)
	}

	v := set.Values()
	if v["bounds"] != 1.0 {
		t.Errorf("maximum principle violated: %f", v["bounds"])
	}
	if v["peak_temperature"] > cfg.THot || v["peak_temperature"] < cfg.TSurface {
		t.Errorf("peak out of range: %f", v["peak_temperature"])
	}
	if len(v) != 3 {
		t.Errorf("expected 3 values, got %d", len(v))
	}

	set.Reset()
	if !math.IsNaN(set.Values()["mean_interior"]) {
		t.Error("expected reset mean to be NaN")
	}
}
