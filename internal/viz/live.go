package viz

import (
	"context"
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/thermal"
)

const (
	heatmapWidth    = 64
	heatmapHeight   = 24
	historyCapacity = 120
)

var (
	statsStyle = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 2).Width(42)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
)

// SnapshotMsg carries one snapshot from the solver into the program.
type SnapshotMsg thermal.Snapshot

// StreamClosedMsg reports that the observer channel was closed.
type StreamClosedMsg struct{}

// RunFinishedMsg is sent by the caller when Simulation.Run returns.
type RunFinishedMsg struct {
	Err error
}

// LiveModel is a Bubble Tea model that follows a running simulation. It never
// touches solver state; everything it shows arrives as snapshots.
type LiveModel struct {
	obs    *thermal.ChannelObserver
	cancel context.CancelFunc

	latest   *thermal.Snapshot
	received int
	history  []float64
	heatmap  *Heatmap

	showIsotherms bool
	showProfile   bool
	showHelp      bool

	done bool
	err  error
}

// NewLiveModel follows obs. cancel, if non-nil, is called when the user quits.
func NewLiveModel(obs *thermal.ChannelObserver, cancel context.CancelFunc) LiveModel {
	return LiveModel{
		obs:           obs,
		cancel:        cancel,
		history:       make([]float64, 0, historyCapacity),
		heatmap:       NewHeatmap(heatmapWidth, heatmapHeight),
		showIsotherms: true,
	}
}

// WithScale sets the heatmap clipping range.
func (m LiveModel) WithScale(s Scale) LiveModel {
	hm := *m.heatmap
	hm.Scale = s
	m.heatmap = &hm
	return m
}

func waitForSnapshot(ch <-chan thermal.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return StreamClosedMsg{}
		}
		return SnapshotMsg(s)
	}
}

func (m LiveModel) Init() tea.Cmd {
	return waitForSnapshot(m.obs.C())
}

func (m LiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		case "c":
			hm := *m.heatmap
			hm.Colormap = nextColormap(hm.Colormap)
			m.heatmap = &hm
		case "i":
			m.showIsotherms = !m.showIsotherms
		case "p":
			m.showProfile = !m.showProfile
		case "?":
			m.showHelp = !m.showHelp
		}
	case SnapshotMsg:
		s := thermal.Snapshot(msg)
		m.latest = &s
		m.received++
		m.history = append(m.history, analysis.Summarize(s.Field).Mean)
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
		return m, waitForSnapshot(m.obs.C())
	case StreamClosedMsg:
		m.done = true
	case RunFinishedMsg:
		m.done = true
		m.err = msg.Err
	}
	return m, nil
}

// Latest returns the most recent snapshot, or nil.
func (m LiveModel) Latest() *thermal.Snapshot { return m.latest }

func (m LiveModel) Done() bool { return m.done }

func (m LiveModel) View() string {
	var s strings.Builder

	status := StatusRunning.Render("RUNNING")
	switch {
	case m.err != nil:
		status = StatusFailed.Render("STOPPED: " + m.err.Error())
	case m.done:
		status = StatusDone.Render("DONE")
	}

	if m.latest == nil {
		s.WriteString(TitleStyle.Render("crustheat") + "  " + status + "\n")
		s.WriteString(Subtle.Render("waiting for first snapshot...") + "\n")
		return s.String()
	}

	snap := *m.latest
	g := snap.Grid()

	var isos []analysis.Isotherm
	for _, level := range analysis.DefaultIsotherms {
		isos = append(isos, analysis.ExtractIsotherm(snap.Field, g, level))
	}
	overlay := isos
	if !m.showIsotherms {
		overlay = nil
	}

	left := TitleStyle.Render(Title(snap)) + "\n" +
		m.heatmap.Render(snap.Field, g, overlay) +
		m.heatmap.Legend(24) + "\n"

	stats := analysis.Summarize(snap.Field)
	var r strings.Builder
	r.WriteString(status + "\n\n")
	r.WriteString(ProgressBar(snap.Progress(), 30) + fmt.Sprintf(" %3.0f%%\n\n", snap.Progress()*100))
	row := func(label, value string) {
		r.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d / %d", snap.Step, snap.TotalSteps))
	row("Elapsed", fmt.Sprintf("%.2f ky", snap.Kiloyears()))
	row("Grid", fmt.Sprintf("%d x %d", g.SizeX, g.SizeY))
	row("Max", fmt.Sprintf("%.1f °C", stats.Max))
	row("Mean", fmt.Sprintf("%.2f °C", stats.Mean))
	for _, iso := range isos {
		depth := "n/a"
		if d := iso.ShallowestKm(); !math.IsNaN(d) {
			depth = fmt.Sprintf("%.2f km", d)
		}
		row(fmt.Sprintf("%g °C top", iso.Level), depth)
	}
	row("Snapshots", fmt.Sprintf("%d (%d dropped)", m.received, m.obs.Dropped()))
	r.WriteString("\n" + MetricLabel.Render("mean T") + " " + SparklineChart(m.history, 28) + "\n")

	if m.showProfile {
		profiles := []analysis.Profile{
			analysis.ProfileAt(snap.Field, g, 0),
			analysis.ProfileAt(snap.Field, g, -g.WidthKm/4),
		}
		r.WriteString("\n" + ProfilePlot(profiles, 30, 8) + "\n")
	}
	r.WriteString(helpStyle.Render("C:Colormap I:Isotherms P:Profile ?:Help Q:Quit"))

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, statsStyle.Render(r.String()))
	if m.showHelp {
		help := Panel.Render(strings.Join([]string{
			"C  cycle colormap (" + strings.Join(ColormapNames(), ", ") + ")",
			"I  toggle 0 °C / 100 °C isotherms",
			"P  toggle depth profiles",
			"?  toggle this help",
			"Q  quit and cancel the run",
		}, "\n"))
		return help + "\n" + main
	}
	return main
}
