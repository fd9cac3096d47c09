package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/crustheat/internal/thermal"
)

const DefaultOutputDir = "runs"

type Config struct {
	Name         string             `yaml:"name,omitempty"`
	Domain       DomainConfig       `yaml:"domain"`
	Material     MaterialConfig     `yaml:"material"`
	Bodies       BodiesConfig       `yaml:"bodies"`
	Temperatures TemperaturesConfig `yaml:"temperatures"`
	Run          RunConfig          `yaml:"run"`
	Output       OutputConfig       `yaml:"output"`
}

type DomainConfig struct {
	WidthKm float64 `yaml:"width_km"`
	DepthKm float64 `yaml:"depth_km"`
	Dx      float64 `yaml:"dx"`
	Dy      float64 `yaml:"dy"`
}

type MaterialConfig struct {
	Diffusivity float64 `yaml:"diffusivity"`
}

type BodiesConfig struct {
	VerticalWidthKm    float64 `yaml:"vertical_width_km"`
	HorizontalLengthKm float64 `yaml:"horizontal_length_km"`
	HorizontalDepthKm  float64 `yaml:"horizontal_depth_km"`
}

type TemperaturesConfig struct {
	Hot           float64 `yaml:"hot"`
	Surface       float64 `yaml:"surface"`
	GradientPerKm float64 `yaml:"gradient_per_km"`
}

type RunConfig struct {
	Steps         int     `yaml:"steps"`
	TimeStep      float64 `yaml:"time_step,omitempty"`
	Workers       int     `yaml:"workers,omitempty"`
	SnapshotEvery int     `yaml:"snapshot_every,omitempty"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return FromSimulation(thermal.DefaultConfig())
}

// FromSimulation wraps a solver configuration in file form.
func FromSimulation(s thermal.SimulationConfig) *Config {
	return &Config{
		Domain: DomainConfig{
			WidthKm: s.DomainWidthKm,
			DepthKm: s.DomainDepthKm,
			Dx:      s.Dx,
			Dy:      s.Dy,
		},
		Material: MaterialConfig{Diffusivity: s.Diffusivity},
		Bodies: BodiesConfig{
			VerticalWidthKm:    s.VerticalBodyWidthKm,
			HorizontalLengthKm: s.HorizontalBodyLengthKm,
			HorizontalDepthKm:  s.HorizontalBodyDepthKm,
		},
		Temperatures: TemperaturesConfig{
			Hot:           s.THot,
			Surface:       s.TSurface,
			GradientPerKm: s.GradientPerKm,
		},
		Run: RunConfig{
			Steps:         s.Steps,
			TimeStep:      s.TimeStep,
			Workers:       s.Workers,
			SnapshotEvery: s.SnapshotEvery,
		},
		Output: OutputConfig{Dir: DefaultOutputDir},
	}
}

// Simulation flattens c into the solver's input. It does not validate.
func (c *Config) Simulation() thermal.SimulationConfig {
	return thermal.SimulationConfig{
		DomainWidthKm:          c.Domain.WidthKm,
		DomainDepthKm:          c.Domain.DepthKm,
		Dx:                     c.Domain.Dx,
		Dy:                     c.Domain.Dy,
		Diffusivity:            c.Material.Diffusivity,
		VerticalBodyWidthKm:    c.Bodies.VerticalWidthKm,
		HorizontalBodyLengthKm: c.Bodies.HorizontalLengthKm,
		HorizontalBodyDepthKm:  c.Bodies.HorizontalDepthKm,
		THot:                   c.Temperatures.Hot,
		TSurface:               c.Temperatures.Surface,
		GradientPerKm:          c.Temperatures.GradientPerKm,
		Steps:                  c.Run.Steps,
		TimeStep:               c.Run.TimeStep,
		Workers:                c.Run.Workers,
		SnapshotEvery:          c.Run.SnapshotEvery,
	}
}

// Validate checks the solver parameters.
func (c *Config) Validate() error {
	return c.Simulation().Validate()
}

// Load reads a YAML file, or an INI file when the extension is .ini. Keys the
// file omits keep their default values.
func Load(path string) (*Config, error) {
	return LoadInto(path, DefaultConfig())
}

// LoadInto reads path on top of a copy of base, so keys the file omits keep
// base's values. base is not modified; nil means DefaultConfig.
func LoadInto(path string, base *Config) (*Config, error) {
	if base == nil {
		base = DefaultConfig()
	}
	cfg := *base

	if strings.EqualFold(filepath.Ext(path), ".ini") {
		file, err := ini.Load(path)
		if err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
		if err := applyINI(file, &cfg); err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadINI reads the sectioned INI form:
//
//	[domain]
//	width_km = 8
//	dx = 50
//	[temperatures]
//	hot = 1300
func LoadINI(path string) (*Config, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := applyINI(file, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

type iniKey struct {
	section, name string
	str           *string
	num           *float64
	count         *int
}

// applyINI overwrites the fields whose keys are present. A value that does not
// parse is an error naming the key.
func applyINI(file *ini.File, cfg *Config) error {
	keys := []iniKey{
		{section: "", name: "name", str: &cfg.Name},
		{section: "domain", name: "width_km", num: &cfg.Domain.WidthKm},
		{section: "domain", name: "depth_km", num: &cfg.Domain.DepthKm},
		{section: "domain", name: "dx", num: &cfg.Domain.Dx},
		{section: "domain", name: "dy", num: &cfg.Domain.Dy},
		{section: "material", name: "diffusivity", num: &cfg.Material.Diffusivity},
		{section: "bodies", name: "vertical_width_km", num: &cfg.Bodies.VerticalWidthKm},
		{section: "bodies", name: "horizontal_length_km", num: &cfg.Bodies.HorizontalLengthKm},
		{section: "bodies", name: "horizontal_depth_km", num: &cfg.Bodies.HorizontalDepthKm},
		{section: "temperatures", name: "hot", num: &cfg.Temperatures.Hot},
		{section: "temperatures", name: "surface", num: &cfg.Temperatures.Surface},
		{section: "temperatures", name: "gradient_per_km", num: &cfg.Temperatures.GradientPerKm},
		{section: "run", name: "steps", count: &cfg.Run.Steps},
		{section: "run", name: "time_step", num: &cfg.Run.TimeStep},
		{section: "run", name: "workers", count: &cfg.Run.Workers},
		{section: "run", name: "snapshot_every", count: &cfg.Run.SnapshotEvery},
		{section: "output", name: "dir", str: &cfg.Output.Dir},
	}

	for _, k := range keys {
		sec := file.Section(k.section)
		if !sec.HasKey(k.name) {
			continue
		}
		key := sec.Key(k.name)
		var err error
		switch {
		case k.str != nil:
			*k.str = key.String()
		case k.num != nil:
			*k.num, err = key.Float64()
		case k.count != nil:
			*k.count, err = key.Int()
		}
		if err != nil {
			return fmt.Errorf("key %q in [%s]: %w", k.name, sectionName(k.section), err)
		}
	}
	return nil
}

func sectionName(s string) string {
	if s == "" {
		return ini.DefaultSection
	}
	return s
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
