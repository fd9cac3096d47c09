package main

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/config"
	"github.com/san-kum/crustheat/internal/export"
	"github.com/san-kum/crustheat/internal/thermal"
	"github.com/san-kum/crustheat/internal/viz"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, nil)
			if err != nil {
				return err
			}
			runs, err := store.List()
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Println("no runs stored in", store.Dir())
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTIME\tGRID\tSTEPS\tELAPSED (ky)\tPEAK (°C)")
			for _, r := range runs {
				peak := "-"
				if v, ok := r.Metrics["peak_temperature"]; ok && !math.IsNaN(v) {
					peak = fmt.Sprintf("%.1f", v)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%d\t%.2f\t%s\n",
					r.ID, r.Name, r.Timestamp.Format("2006-01-02 15:04"),
					r.SizeX, r.SizeY, r.StepsTaken, r.ElapsedYears/1e3, peak)
			}
			return w.Flush()
		},
	}
}

func newShowCmd() *cobra.Command {
	var (
		width   int
		height  int
		profile []float64
	)

	cmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "Show the final field of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, nil)
			if err != nil {
				return err
			}
			meta, snap, err := store.LoadSnapshot(args[0])
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}
			g := snap.Grid()

			fmt.Printf("run: %s (%s)\n", meta.ID, meta.Name)
			fmt.Printf("grid: %d x %d  dt: %.4g s  r: %.3f\n", meta.SizeX, meta.SizeY, meta.TimeStep, meta.FourierNumber)

			var isos []analysis.Isotherm
			for _, level := range analysis.DefaultIsotherms {
				isos = append(isos, analysis.ExtractIsotherm(snap.Field, g, level))
			}

			hm := viz.NewHeatmap(width, height)
			fmt.Println(viz.TitleStyle.Render(viz.Title(snap)))
			fmt.Print(hm.Render(snap.Field, g, isos))
			fmt.Println(hm.Legend(24))

			stats := analysis.Summarize(snap.Field)
			fmt.Printf("\ntemperature: min %.2f  max %.2f  mean %.2f  std %.2f °C\n",
				stats.Min, stats.Max, stats.Mean, stats.StdDev)
			for _, iso := range isos {
				top := "none"
				if d := iso.ShallowestKm(); !math.IsNaN(d) {
					top = fmt.Sprintf("%.3f km", d)
				}
				fmt.Printf("isotherm %g °C: top %s\n", iso.Level, top)
			}

			if len(profile) == 0 {
				profile = []float64{0, -g.WidthKm / 4}
			}
			var ps []analysis.Profile
			for _, x := range profile {
				ps = append(ps, analysis.ProfileAt(snap.Field, g, x))
			}
			fmt.Println()
			fmt.Println(viz.ProfilePlot(ps, width, 12))

			// surface-parallel profile at the sill's base
			row := snap.Field.Row(nearestRow(g, meta.Config.HorizontalBodyDepthKm))
			fmt.Println()
			fmt.Println(asciigraph.Plot(row,
				asciigraph.Height(8),
				asciigraph.Width(width),
				asciigraph.Caption(fmt.Sprintf("T along depth %.2f km", meta.Config.HorizontalBodyDepthKm))))
			return nil
		},
	}

	cmd.Flags().IntVar(&width, "width", 64, "plot width in characters")
	cmd.Flags().IntVar(&height, "height", 24, "heatmap height in characters")
	cmd.Flags().Float64SliceVar(&profile, "profile", nil, "x positions (km) for depth profiles")
	return cmd
}

func nearestRow(g thermal.Grid, depthKm float64) int {
	j := int(math.Round(depthKm / g.HeightKm * float64(g.SizeY-1)))
	if j < 0 {
		return 0
	}
	if j >= g.SizeY {
		return g.SizeY - 1
	}
	return j
}

func newExportCmd() *cobra.Command {
	var (
		format string
		out    string
		levels []float64
	)

	cmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "Export a stored run as JSON, SVG heatmap or PNG profile chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(cmd, nil)
			if err != nil {
				return err
			}
			meta, snap, err := store.LoadSnapshot(args[0])
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}

			format = strings.ToLower(format)
			if out == "" {
				out = filepath.Join(store.Dir(), meta.ID, "final."+format)
			}

			switch format {
			case "json":
				doc := export.NewDocument(snap, levels...)
				doc.Metrics = meta.Metrics
				err = export.WriteJSONFile(out, doc)
			case "svg":
				err = writeSVG(out, snap)
			case "png":
				err = writePNG(out, snap)
			default:
				return fmt.Errorf("unknown format %q (want json, svg or png)", format)
			}
			if err != nil {
				return fmt.Errorf("failed to export: %w", err)
			}
			fmt.Printf("exported %s to %s\n", meta.ID, out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "svg", "output format: json, svg or png")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (default inside the run directory)")
	cmd.Flags().Float64SliceVar(&levels, "isotherm", nil, "isotherm levels for json (default 0,100)")
	return cmd
}

func writeSVG(path string, snap thermal.Snapshot) error {
	return export.WriteHeatmapSVG(path, snap, export.DefaultSVGOptions())
}

func writePNG(path string, snap thermal.Snapshot) error {
	g := snap.Grid()
	profiles := []analysis.Profile{
		analysis.ProfileAt(snap.Field, g, 0),
		analysis.ProfileAt(snap.Field, g, -g.WidthKm/4),
		analysis.ProfileAt(snap.Field, g, g.WidthKm/4),
	}
	return export.WriteProfileChart(path, profiles, viz.Title(snap))
}

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List built-in scenario presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tDOMAIN (km)\tDX (m)\tDIKE (km)\tSILL (km)\tSTEPS")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%gx%g\t%g\t%g\t%gx%g\t%d\n",
					name, p.Domain.WidthKm, p.Domain.DepthKm, p.Domain.Dx,
					p.Bodies.VerticalWidthKm, p.Bodies.HorizontalLengthKm, p.Bodies.HorizontalDepthKm,
					p.Run.Steps)
			}
			return w.Flush()
		},
	}
}

func newInitCmd() *cobra.Command {
	var preset string

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a scenario config file (.yaml)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if preset != "" {
				if cfg = config.GetPreset(preset); cfg == nil {
					return fmt.Errorf("unknown preset: %s", preset)
				}
			}
			if _, err := os.Stat(args[0]); err == nil {
				return fmt.Errorf("%s already exists", args[0])
			}
			if err := config.Save(args[0], cfg); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Println("wrote", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&preset, "preset", "", "start from a named preset")
	return cmd
}
