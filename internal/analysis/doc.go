// Package analysis extracts geological readings from temperature fields.
//
//   - [ExtractIsotherm]: depth of a temperature level in every column
//   - [ColumnProfile] and [ProfileAt]: temperature against depth
//   - [Summarize]: min, max, mean and spread of a field
//   - [AreaAbove]: cross-section area hotter than a level
//
// # Isotherms
//
// The freezing (0 °C) and boiling (100 °C) isotherms bound the zone where
// liquid water is stable under the crust:
//
//	for _, level := range analysis.DefaultIsotherms {
//	    iso := analysis.ExtractIsotherm(snap.Field, snap.Grid(), level)
//	    fmt.Println(level, iso.Coverage())
//	}
package analysis
