package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/crustheat/internal/config"
	"github.com/san-kum/crustheat/internal/experiment"
)

func newSweepCmd() *cobra.Command {
	var (
		sim         simFlags
		paramSpecs  []string
		concurrency int
		rankBy      string
		maximize    bool
		save        bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a grid of scenarios and rank them by a metric",
		Long: "Run the cartesian product of --param values on top of the base scenario.\n" +
			"Parameters: " + strings.Join(experiment.ParamNames(), ", "),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := sim.resolve(cmd)
			if err != nil {
				return err
			}
			if len(paramSpecs) == 0 {
				return fmt.Errorf("at least one --param is required")
			}

			grid := experiment.NewGrid()
			for _, spec := range paramSpecs {
				name, values, err := parseParam(spec)
				if err != nil {
					return err
				}
				if err := grid.Add(name, values...); err != nil {
					return err
				}
			}

			ctx, stop := signalContext()
			defer stop()

			sw := &experiment.Sweep{
				Base:        cfg.Simulation(),
				Grid:        grid,
				Concurrency: concurrency,
				Logger:      log.WithField("sweep", cfg.Name),
			}
			log.WithField("points", len(grid.Points())).Info("starting sweep")
			outcomes, runErr := sw.Run(ctx)
			if runErr != nil && !errors.Is(runErr, context.Canceled) {
				return runErr
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "#\t%s\tPEAK\tMEAN\tTOP 0°C (km)\tTOP 100°C (km)\tSTATUS\n", strings.ToUpper(strings.Join(grid.Names, "\t")))
			for _, o := range outcomes {
				cols := make([]string, 0, len(grid.Names))
				for _, name := range grid.Names {
					cols = append(cols, strconv.FormatFloat(o.Params[name], 'g', -1, 64))
				}
				status := "ok"
				if o.Err != nil {
					status = o.Err.Error()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n", o.Index, strings.Join(cols, "\t"),
					metricCell(o.Metrics, "peak_temperature"),
					metricCell(o.Metrics, "mean_interior"),
					metricCell(o.Metrics, "iso_0_top_km"),
					metricCell(o.Metrics, "iso_100_top_km"),
					status)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if best, ok := experiment.Best(outcomes, rankBy, maximize); ok {
				fmt.Printf("\nbest by %s: #%d %v = %.6g\n", rankBy, best.Index, best.Params, best.Metrics[rankBy])
				if save {
					bestCfg := config.FromSimulation(best.Config)
					bestCfg.Name = fmt.Sprintf("%s-sweep-%d", cfg.Name, best.Index)
					bestCfg.Output = cfg.Output
					if _, err := saveRun(cmd, bestCfg, best.Result, best.Metrics); err != nil {
						return err
					}
				}
			} else {
				fmt.Printf("\nno outcome reports %s\n", rankBy)
			}
			return runErr
		},
	}

	sim.register(cmd)
	cmd.Flags().StringArrayVarP(&paramSpecs, "param", "p", nil, "swept parameter as name=v1,v2,... (repeatable)")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "simultaneous runs (0 uses GOMAXPROCS)")
	cmd.Flags().StringVar(&rankBy, "rank-by", "peak_temperature", "metric used to pick the best point")
	cmd.Flags().BoolVar(&maximize, "maximize", false, "rank highest first")
	cmd.Flags().BoolVar(&save, "save", false, "store the best run")
	return cmd
}

// parseParam splits "name=v1,v2,..." into its parts.
func parseParam(spec string) (string, []float64, error) {
	name, list, ok := strings.Cut(spec, "=")
	if !ok || name == "" || list == "" {
		return "", nil, fmt.Errorf("invalid --param %q (want name=v1,v2,...)", spec)
	}
	var values []float64
	for _, s := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return "", nil, fmt.Errorf("invalid --param %q: %w", spec, err)
		}
		values = append(values, v)
	}
	return strings.TrimSpace(name), values, nil
}

func metricCell(m map[string]float64, key string) string {
	v, ok := m[key]
	if !ok || math.IsNaN(v) {
		return "-"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}
