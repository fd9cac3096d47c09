// Package viz renders temperature snapshots in the terminal.
//
//   - [Heatmap]: half-block colour map of a field with isotherm overlay
//   - [Canvas]: braille canvas used for isotherm line plots
//   - [ProfilePlot]: temperature against depth via asciigraph
//   - [LiveModel]: Bubble Tea viewer fed by a thermal.ChannelObserver
//   - [TerminalRenderer]: throttled ANSI redraw fed from a snapshot channel
//
// # Key Bindings
//
//	C - Cycle colormaps
//	I - Toggle isotherm overlay
//	P - Toggle depth profile
//	? - Show help
//	Q - Quit (cancels the run)
package viz
