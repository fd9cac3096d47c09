package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/config"
	"github.com/san-kum/crustheat/internal/metrics"
	"github.com/san-kum/crustheat/internal/storage"
	"github.com/san-kum/crustheat/internal/stream"
	"github.com/san-kum/crustheat/internal/thermal"
	"github.com/san-kum/crustheat/internal/viz"
)

func newRunCmd() *cobra.Command {
	var (
		sim    simFlags
		watch  bool
		fps    int
		noSave bool
		svgOut string
		pngOut string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation and store the final field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sim.resolve(cmd)
			if err != nil {
				return err
			}
			if watch && cfg.Run.SnapshotEvery == 0 {
				cfg.Run.SnapshotEvery = defaultCadence(cfg.Run.Steps, 200)
			}

			s, err := thermal.New(cfg.Simulation(), thermal.WithLogger(log.StandardLogger()))
			if err != nil {
				return err
			}
			logRunStart(cfg, s)

			ctx, stop := signalContext()
			defer stop()

			set := metrics.Default(s.Snapshot().Field)
			observers := []thermal.Observer{set, progressLogger()}
			var finishWatch func(*thermal.Result)
			if watch {
				var obs thermal.Observer
				obs, finishWatch = startWatch(fps)
				observers = append(observers, obs)
			}

			res, runErr := s.Run(ctx, observers...)
			if finishWatch != nil {
				finishWatch(res)
			}
			if runErr != nil && res == nil {
				return runErr
			}
			if runErr != nil {
				log.WithError(runErr).Warn("run interrupted, keeping partial result")
				// metrics only sampled emitted snapshots; give them the last field
				set.OnSnapshot(res.Final)
			}

			values := set.Values()
			id := ""
			if !noSave {
				id, err = saveRun(cmd, cfg, res, values)
				if err != nil {
					return err
				}
			}

			if svgOut != "" {
				if err := writeSVG(svgOut, res.Final); err != nil {
					return err
				}
			}
			if pngOut != "" {
				if err := writePNG(pngOut, res.Final); err != nil {
					return err
				}
			}

			printSummary(os.Stdout, id, s, res, values)
			return runErr
		},
	}

	sim.register(cmd)
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "draw the field in the terminal while running")
	cmd.Flags().IntVar(&fps, "fps", 10, "maximum redraws per second with --watch")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().StringVar(&svgOut, "svg", "", "also write the final heatmap as SVG")
	cmd.Flags().StringVar(&pngOut, "png", "", "also write depth profiles as PNG")
	return cmd
}

func newLiveCmd() *cobra.Command {
	var (
		sim    simFlags
		buffer int
		noSave bool
	)

	cmd := &cobra.Command{
		Use:   "live",
		Short: "Run a simulation in an interactive terminal view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sim.resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.Run.SnapshotEvery == 0 {
				cfg.Run.SnapshotEvery = defaultCadence(cfg.Run.Steps, 100)
			}

			s, err := thermal.New(cfg.Simulation(), thermal.WithLogger(log.StandardLogger()))
			if err != nil {
				return err
			}

			// The TUI owns the terminal; keep log lines out of it.
			log.SetOutput(io.Discard)
			defer log.SetOutput(os.Stderr)

			ctx, stop := signalContext()
			defer stop()
			ctx, cancel := context.WithCancel(ctx)
			defer cancel()

			obs := thermal.NewChannelObserver(buffer)
			set := metrics.Default(s.Snapshot().Field)
			p := tea.NewProgram(viz.NewLiveModel(obs, cancel).WithScale(viz.DefaultScale), tea.WithAltScreen())

			type outcome struct {
				res *thermal.Result
				err error
			}
			done := make(chan outcome, 1)
			go func() {
				res, err := s.Run(ctx, set, obs)
				obs.Close()
				p.Send(viz.RunFinishedMsg{Err: err})
				done <- outcome{res, err}
			}()

			if _, err := p.Run(); err != nil {
				cancel()
				<-done
				return fmt.Errorf("terminal ui: %w", err)
			}
			cancel()
			out := <-done

			if out.res == nil {
				return out.err
			}
			id := ""
			if !noSave && out.err == nil {
				if id, err = saveRun(cmd, cfg, out.res, set.Values()); err != nil {
					return err
				}
			}
			printSummary(os.Stdout, id, s, out.res, set.Values())
			if errors.Is(out.err, context.Canceled) {
				return nil
			}
			return out.err
		},
	}

	sim.register(cmd)
	cmd.Flags().IntVar(&buffer, "buffer", 16, "snapshot channel capacity")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	return cmd
}

func newServeCmd() *cobra.Command {
	var (
		sim    simFlags
		addr   string
		buffer int
		hold   bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a simulation and stream snapshots over WebSocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sim.resolve(cmd)
			if err != nil {
				return err
			}
			if cfg.Run.SnapshotEvery == 0 {
				cfg.Run.SnapshotEvery = defaultCadence(cfg.Run.Steps, 100)
			}

			s, err := thermal.New(cfg.Simulation(), thermal.WithLogger(log.StandardLogger()))
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			logger := log.WithField("component", "stream")
			hub := stream.NewHub(buffer, logger)
			srv := stream.NewServer(addr, hub, logger)

			serveErr := make(chan error, 1)
			go func() { serveErr <- srv.Serve(ctx) }()

			set := metrics.Default(s.Snapshot().Field)
			res, runErr := s.Run(ctx, set, hub, progressLogger())
			if runErr == nil {
				log.WithFields(log.Fields{
					"clients": hub.Clients(),
					"dropped": hub.Dropped(),
				}).Info("run complete")
				if res != nil {
					printSummary(os.Stdout, "", s, res, set.Values())
				}
				if hold {
					log.WithField("addr", addr).Info("holding final frame, interrupt to exit")
					<-ctx.Done()
				}
			}
			hub.Close()
			stop()

			if err := <-serveErr; err != nil {
				return fmt.Errorf("stream server: %w", err)
			}
			if errors.Is(runErr, context.Canceled) {
				return nil
			}
			return runErr
		},
	}

	sim.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&buffer, "buffer", stream.DefaultClientBuffer, "per-client frame buffer")
	cmd.Flags().BoolVar(&hold, "hold", true, "keep serving the final frame until interrupted")
	return cmd
}

// startWatch draws snapshots on its own goroutine. The returned observer only
// queues; finish closes the queue, waits for the drawer and makes sure the
// result's field is the last frame on screen.
func startWatch(fps int) (thermal.Observer, func(*thermal.Result)) {
	r := viz.NewTerminalRenderer(os.Stdout, fps, viz.DefaultScale)
	obs := thermal.NewChannelObserver(4)
	drawn := make(chan thermal.Snapshot, 1)

	r.Start()
	go func() { drawn <- r.Follow(obs.C()) }()

	return obs, func(res *thermal.Result) {
		obs.Close()
		last := <-drawn
		if res != nil && (last.Field == nil || last.Step != res.Final.Step) {
			r.Draw(res.Final)
		}
		r.Stop()
		if n := obs.Dropped(); n > 0 {
			log.WithField("dropped", n).Debug("watch skipped frames")
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// defaultCadence spreads roughly n snapshots over steps.
func defaultCadence(steps, n int) int {
	if every := steps / n; every > 1 {
		return every
	}
	return 1
}

func logRunStart(cfg *config.Config, s *thermal.Simulation) {
	g := s.Grid()
	log.WithFields(log.Fields{
		"name":    cfg.Name,
		"grid":    fmt.Sprintf("%dx%d", g.SizeX, g.SizeY),
		"dt":      s.TimeStep(),
		"fourier": s.FourierNumber(),
		"steps":   cfg.Run.Steps,
		"workers": cfg.Run.Workers,
	}).Info("starting run")
}

func progressLogger() thermal.Observer {
	return thermal.ObserverFunc(func(snap thermal.Snapshot) {
		log.WithFields(log.Fields{
			"step":       snap.Step,
			"progress":   fmt.Sprintf("%.0f%%", snap.Progress()*100),
			"elapsed_ky": fmt.Sprintf("%.2f", snap.Kiloyears()),
		}).Debug("snapshot")
	})
}

func openStore(cmd *cobra.Command, cfg *config.Config) (*storage.Store, error) {
	dir := dataDir
	if cfg != nil && !cmd.Flags().Changed("data") && cfg.Output.Dir != "" {
		dir = cfg.Output.Dir
	}
	store := storage.New(dir)
	if err := store.Init(); err != nil {
		return nil, fmt.Errorf("failed to init storage: %w", err)
	}
	return store, nil
}

func saveRun(cmd *cobra.Command, cfg *config.Config, res *thermal.Result, values map[string]float64) (string, error) {
	store, err := openStore(cmd, cfg)
	if err != nil {
		return "", err
	}
	id, err := store.Save(cfg.Name, cfg.Simulation(), res, values)
	if err != nil {
		return "", fmt.Errorf("failed to save run: %w", err)
	}
	log.WithFields(log.Fields{"id": id, "dir": store.Dir()}).Info("run saved")
	return id, nil
}

func printSummary(w io.Writer, id string, s *thermal.Simulation, res *thermal.Result, values map[string]float64) {
	final := res.Final
	g := final.Grid()

	if id != "" {
		fmt.Fprintf(w, "run id: %s\n", id)
	}
	fmt.Fprintln(w, viz.Title(final))
	fmt.Fprintf(w, "grid: %d x %d  dt: %.4g s  r: %.3f  wall: %s\n",
		g.SizeX, g.SizeY, s.TimeStep(), s.FourierNumber(), res.WallTime.Round(time.Millisecond))

	stats := analysis.Summarize(final.Field)
	fmt.Fprintf(w, "temperature: min %.2f  max %.2f  mean %.2f  std %.2f °C\n",
		stats.Min, stats.Max, stats.Mean, stats.StdDev)

	for _, level := range analysis.DefaultIsotherms {
		iso := analysis.ExtractIsotherm(final.Field, g, level)
		top := "none"
		if d := iso.ShallowestKm(); !math.IsNaN(d) {
			top = fmt.Sprintf("%.3f km", d)
		}
		fmt.Fprintf(w, "isotherm %g °C: top %s, coverage %.0f%%\n", level, top, iso.Coverage()*100)
	}

	if len(values) > 0 {
		fmt.Fprintln(w, "metrics:")
		names := make([]string, 0, len(values))
		for k := range values {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			fmt.Fprintf(w, "  %s: %.6g\n", k, values[k])
		}
	}
}
