package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/crustheat/internal/thermal"
)

const (
	metadataFile = "metadata.json"
	fieldFile    = "field.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID            string                   `json:"id"`
	Name          string                   `json:"name"`
	Timestamp     time.Time                `json:"timestamp"`
	Config        thermal.SimulationConfig `json:"config"`
	SizeX         int                      `json:"size_x"`
	SizeY         int                      `json:"size_y"`
	TimeStep      float64                  `json:"dt"`
	FourierNumber float64                  `json:"fourier_number"`
	StepsTaken    int                      `json:"steps_taken"`
	ElapsedYears  float64                  `json:"elapsed_years"`
	WallSeconds   float64                  `json:"wall_seconds"`
	Metrics       map[string]float64       `json:"metrics,omitempty"`
}

// Save writes metadata.json and the final field as field.csv into a fresh run
// directory and returns its id.
func (s *Store) Save(name string, cfg thermal.SimulationConfig, result *thermal.Result, metrics map[string]float64) (string, error) {
	if result == nil || result.Final.Field == nil {
		return "", errors.New("storage: result has no field")
	}
	if err := s.Init(); err != nil {
		return "", err
	}

	runID, runDir, err := s.allocate(name)
	if err != nil {
		return "", err
	}

	final := result.Final
	meta := RunMetadata{
		ID:            runID,
		Name:          name,
		Timestamp:     time.Now(),
		Config:        cfg,
		SizeX:         final.Field.SizeX,
		SizeY:         final.Field.SizeY,
		TimeStep:      final.TimeStep,
		FourierNumber: thermal.FourierNumber(cfg.Diffusivity, final.TimeStep, cfg.Dx),
		StepsTaken:    result.StepsTaken,
		ElapsedYears:  final.ElapsedYears,
		WallSeconds:   result.WallTime.Seconds(),
		Metrics:       finiteMetrics(metrics),
	}

	err = writeMetadata(filepath.Join(runDir, metadataFile), meta)
	if err == nil {
		err = writeField(filepath.Join(runDir, fieldFile), final)
	}
	if err != nil {
		os.RemoveAll(runDir)
		return "", fmt.Errorf("storage: save %s: %w", runID, err)
	}
	return runID, nil
}

// finiteMetrics drops NaN and infinite values, which JSON cannot encode. A
// metric that never saw a snapshot reports NaN.
func finiteMetrics(metrics map[string]float64) map[string]float64 {
	if len(metrics) == 0 {
		return nil
	}
	out := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[k] = v
	}
	return out
}

// allocate creates <name>_<unix> and suffixes it until the directory is new, so
// concurrent saves in the same second never share a directory.
func (s *Store) allocate(name string) (string, string, error) {
	base := fmt.Sprintf("%s_%d", sanitize(name), time.Now().Unix())
	id := base
	for n := 2; ; n++ {
		dir := filepath.Join(s.baseDir, id)
		err := os.Mkdir(dir, 0755)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", err
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
}

func sanitize(name string) string {
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '-'
	}, name)
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// writeField stores one CSV row per depth row: the first column is depth in km
// and the header carries the x position of each column in km.
func writeField(path string, snap thermal.Snapshot) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	field, g := snap.Field, snap.Grid()
	w := csv.NewWriter(f)

	header := make([]string, 0, field.SizeX+1)
	header = append(header, "depth_km")
	for i := 0; i < field.SizeX; i++ {
		header = append(header, strconv.FormatFloat(g.XKm(i), 'f', 3, 64))
	}
	if err := w.Write(header); err != nil {
		return err
	}

	row := make([]string, field.SizeX+1)
	for j := 0; j < field.SizeY; j++ {
		row[0] = strconv.FormatFloat(g.DepthKm(j), 'f', 3, 64)
		for i := 0; i < field.SizeX; i++ {
			row[i+1] = strconv.FormatFloat(field.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(a, b int) bool {
		return runs[a].Timestamp.After(runs[b].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

// LoadField reads the final field of a run back into solver layout.
func (s *Store) LoadField(runID string) (*thermal.Field, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, fieldFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, fmt.Errorf("storage: %s: empty field", runID)
	}

	sizeX := len(records[0]) - 1
	sizeY := len(records) - 1
	field := thermal.NewField(sizeX, sizeY)
	for j, record := range records[1:] {
		if len(record) != sizeX+1 {
			return nil, fmt.Errorf("storage: %s: row %d has %d columns, want %d", runID, j, len(record), sizeX+1)
		}
		for i := 0; i < sizeX; i++ {
			v, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s: row %d: %w", runID, j, err)
			}
			field.Set(i, j, v)
		}
	}
	return field, nil
}

// LoadSnapshot rebuilds the final snapshot of a stored run.
func (s *Store) LoadSnapshot(runID string) (*RunMetadata, thermal.Snapshot, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, thermal.Snapshot{}, err
	}
	field, err := s.LoadField(runID)
	if err != nil {
		return nil, thermal.Snapshot{}, err
	}
	if field.SizeX != meta.SizeX || field.SizeY != meta.SizeY {
		return nil, thermal.Snapshot{}, fmt.Errorf("storage: %s: field is %dx%d, metadata says %dx%d",
			runID, field.SizeX, field.SizeY, meta.SizeX, meta.SizeY)
	}

	cfg := meta.Config
	return meta, thermal.Snapshot{
		Field:          field,
		Step:           meta.StepsTaken,
		TotalSteps:     cfg.Steps,
		TimeStep:       meta.TimeStep,
		Dx:             cfg.Dx,
		Dy:             cfg.Dy,
		ElapsedSeconds: meta.TimeStep * float64(meta.StepsTaken),
		ElapsedYears:   meta.ElapsedYears,
		DomainWidthKm:  cfg.DomainWidthKm,
		DomainDepthKm:  cfg.DomainDepthKm,
		TSurface:       cfg.TSurface,
		THot:           cfg.THot,
	}, nil
}
