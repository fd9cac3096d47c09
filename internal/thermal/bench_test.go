package thermal

import (
	"fmt"
	"testing"
)

func BenchmarkSweep(b *testing.B) {
	for _, workers := range []int{1, 2, 4} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			cfg := DefaultConfig()
			g, err := NewGrid(cfg.DomainWidthKm, cfg.DomainDepthKm, cfg.Dx, cfg.Dy)
			if err != nil {
				b.Fatal(err)
			}
			cur, next := g.NewField(), g.NewField()
			if err := Compose(g, cur, cfg); err != nil {
				b.Fatal(err)
			}
			st := NewStepper(cfg.Diffusivity, cfg.EffectiveTimeStep(), cfg.Dx, cfg.TSurface, workers)

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				st.Sweep(cur, next)
				cur, next = next, cur
			}
		})
	}
}

func BenchmarkCompose(b *testing.B) {
	cfg := DefaultConfig()
	g, _ := NewGrid(cfg.DomainWidthKm, cfg.DomainDepthKm, cfg.Dx, cfg.Dy)
	f := g.NewField()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Compose(g, f, cfg)
	}
}
