package export

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/crustheat/internal/analysis"
	"github.com/san-kum/crustheat/internal/thermal"
)

// Document is the JSON form of a snapshot together with its derived readings.
// It is also the payload pushed to stream clients.
type Document struct {
	Title     string              `json:"title"`
	Snapshot  thermal.Snapshot    `json:"snapshot"`
	Extent    [4]float64          `json:"extent"`
	Stats     analysis.Stats      `json:"stats"`
	Isotherms []analysis.Isotherm `json:"isotherms"`
	Metrics   map[string]float64  `json:"metrics,omitempty"`
}

// NewDocument derives isotherms at the given levels (DefaultIsotherms if none).
func NewDocument(s thermal.Snapshot, levels ...float64) Document {
	if len(levels) == 0 {
		levels = analysis.DefaultIsotherms
	}
	g := s.Grid()
	xMin, xMax, dMin, dMax := s.Extent()
	doc := Document{
		Title:    titleLine(s),
		Snapshot: s,
		Extent:   [4]float64{xMin, xMax, dMin, dMax},
	}
	if s.Field != nil {
		doc.Stats = analysis.Summarize(s.Field)
		for _, level := range levels {
			doc.Isotherms = append(doc.Isotherms, markMissing(analysis.ExtractIsotherm(s.Field, g, level)))
		}
	}
	return doc
}

// JSON cannot carry NaN; columns without a crossing are written as -1.
func markMissing(iso analysis.Isotherm) analysis.Isotherm {
	for i, d := range iso.DepthKm {
		if math.IsNaN(d) {
			iso.DepthKm[i] = -1
		}
	}
	return iso
}

func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func WriteJSONFile(path string, doc Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, doc)
}
