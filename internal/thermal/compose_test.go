package thermal

import (
	"errors"
	"math"
	"testing"
)

func composeDefault(t *testing.T, cfg SimulationConfig) (Grid, *Field) {
	t.Helper()
	g, err := NewGrid(cfg.DomainWidthKm, cfg.DomainDepthKm, cfg.Dx, cfg.Dy)
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	f := g.NewField()
	if err := Compose(g, f, cfg); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	return g, f
}

func TestCompose_Gradient(t *testing.T) {
	cfg := DefaultConfig()
	g, f := composeDefault(t, cfg)

	// column 0 is outside both bodies
	for j := 1; j < g.SizeY; j++ {
		depthKm := float64(j) * cfg.DomainDepthKm / float64(g.SizeY-1)
		want := cfg.TSurface + cfg.GradientPerKm*depthKm
		if math.Abs(f.At(0, j)-want) > 1e-9 {
			t.Fatalf("At(0,%d) = %v, want %v", j, f.At(0, j), want)
		}
	}
	bottom := f.At(0, g.SizeY-1)
	if math.Abs(bottom-(cfg.TSurface+cfg.GradientPerKm*cfg.DomainDepthKm)) > 1e-9 {
		t.Errorf("bottom = %v, want %v", bottom, cfg.TSurface+cfg.GradientPerKm*cfg.DomainDepthKm)
	}
}

func TestCompose_Bodies(t *testing.T) {
	cfg := DefaultConfig()
	g, f := composeDefault(t, cfg)

	// xc = 80, width = 2 nodes -> dike rows [79, 81)
	for _, i := range []int{79, 80} {
		for j := 1; j < g.SizeY; j++ {
			if f.At(i, j) != cfg.THot {
				t.Fatalf("dike At(%d,%d) = %v, want %v", i, j, f.At(i, j), cfg.THot)
			}
		}
	}
	for _, i := range []int{78, 81} {
		if f.At(i, 100) == cfg.THot {
			t.Errorf("At(%d,100) should be outside the dike", i)
		}
	}

	// sill: x in [80, 120), y in [0, 10)
	for i := 80; i < 120; i++ {
		for j := 1; j < 10; j++ {
			if f.At(i, j) != cfg.THot {
				t.Fatalf("sill At(%d,%d) = %v, want %v", i, j, f.At(i, j), cfg.THot)
			}
		}
	}
	if f.At(120, 5) == cfg.THot {
		t.Error("At(120,5) should be past the sill end")
	}
	if f.At(100, 10) == cfg.THot {
		t.Error("At(100,10) should be below the sill")
	}
}

func TestCompose_SurfaceClampWins(t *testing.T) {
	cfg := DefaultConfig()
	g, f := composeDefault(t, cfg)

	for i := 0; i < g.SizeX; i++ {
		if f.At(i, 0) != cfg.TSurface {
			t.Fatalf("At(%d,0) = %v, want %v", i, f.At(i, 0), cfg.TSurface)
		}
	}
}

func TestCompose_OverlapIsHot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.THot = 900
	_, f := composeDefault(t, cfg)

	// (80, 1..9) is covered by both bodies
	for j := 1; j < 10; j++ {
		if f.At(80, j) != 900 {
			t.Errorf("overlap At(80,%d) = %v, want 900", j, f.At(80, j))
		}
	}
	if f.At(80, 0) != cfg.TSurface {
		t.Errorf("overlap surface = %v, want %v", f.At(80, 0), cfg.TSurface)
	}
}

func TestCompose_InvalidGeometry(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SimulationConfig)
		field  string
	}{
		{"width rounds to zero", func(c *SimulationConfig) { c.VerticalBodyWidthKm = 0.01 }, "VerticalBodyWidthKm"},
		{"single node band is empty", func(c *SimulationConfig) { c.VerticalBodyWidthKm = 0.05 }, "VerticalBodyWidthKm"},
		{"sill past the edge", func(c *SimulationConfig) { c.HorizontalBodyLengthKm = 5 }, "HorizontalBodyLengthKm"},
		{"sill length rounds to zero", func(c *SimulationConfig) { c.HorizontalBodyLengthKm = 0.01 }, "HorizontalBodyLengthKm"},
		{"sill depth rounds to zero", func(c *SimulationConfig) { c.HorizontalBodyDepthKm = 0.01 }, "HorizontalBodyDepthKm"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			g, err := NewGrid(cfg.DomainWidthKm, cfg.DomainDepthKm, cfg.Dx, cfg.Dy)
			if err != nil {
				t.Fatal(err)
			}
			f := g.NewField()

			err = Compose(g, f, cfg)
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) || cerr.Field != tt.field {
				t.Errorf("expected ConfigError on %s, got %v", tt.field, err)
			}
			for k, v := range f.Data {
				if v != 0 {
					t.Fatalf("field mutated at %d: %v", k, v)
				}
			}
		})
	}
}

func TestCompose_ShapeMismatch(t *testing.T) {
	cfg := DefaultConfig()
	g, err := NewGrid(cfg.DomainWidthKm, cfg.DomainDepthKm, cfg.Dx, cfg.Dy)
	if err != nil {
		t.Fatal(err)
	}
	if err := Compose(g, NewField(10, 10), cfg); err == nil {
		t.Error("expected error for mismatched field")
	}
}

func TestEnforceSurface(t *testing.T) {
	f := NewField(4, 3)
	for k := range f.Data {
		f.Data[k] = 5
	}
	EnforceSurface(f, -63)
	for i := 0; i < 4; i++ {
		if f.At(i, 0) != -63 {
			t.Errorf("At(%d,0) = %v", i, f.At(i, 0))
		}
		if f.At(i, 1) != 5 {
			t.Errorf("At(%d,1) changed to %v", i, f.At(i, 1))
		}
	}
}
