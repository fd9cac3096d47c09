package viz

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/thermal"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// TerminalRenderer redraws the heatmap from a stream of snapshots, at most
// frameRate times per second. It is not a thermal.Observer: feed it from a
// thermal.ChannelObserver so drawing never runs on the solver goroutine.
type TerminalRenderer struct {
	out       io.Writer
	frameRate int
	lastFrame time.Time
	heatmap   *Heatmap
}

func NewTerminalRenderer(out io.Writer, frameRate int, scale Scale) *TerminalRenderer {
	if frameRate <= 0 {
		frameRate = 10
	}
	hm := NewHeatmap(heatmapWidth, heatmapHeight)
	hm.Scale = scale
	return &TerminalRenderer{out: out, frameRate: frameRate, heatmap: hm}
}

// Follow draws snapshots from ch until it is closed and returns the last one
// received. The final snapshot of a run bypasses the frame limit.
func (r *TerminalRenderer) Follow(ch <-chan thermal.Snapshot) thermal.Snapshot {
	var last thermal.Snapshot
	for s := range ch {
		last = s
		if s.Step != s.TotalSteps && time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
			continue
		}
		r.Draw(s)
	}
	return last
}

// Draw writes the frame for s immediately.
func (r *TerminalRenderer) Draw(s thermal.Snapshot) {
	r.lastFrame = time.Now()
	fmt.Fprint(r.out, r.Frame(s))
}

// Frame renders one full screen for s.
func (r *TerminalRenderer) Frame(s thermal.Snapshot) string {
	g := s.Grid()
	isos := make([]analysis.Isotherm, 0, len(analysis.DefaultIsotherms))
	for _, level := range analysis.DefaultIsotherms {
		isos = append(isos, analysis.ExtractIsotherm(s.Field, g, level))
	}

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(TitleStyle.Render(Title(s)) + "\n")
	b.WriteString(r.heatmap.Render(s.Field, g, isos))
	b.WriteString(r.heatmap.Legend(24) + "\n")
	b.WriteString(ProgressBar(s.Progress(), heatmapWidth) + "\n")
	return b.String()
}

func (r *TerminalRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *TerminalRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
