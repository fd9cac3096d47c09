package config

import "sort"

// Presets holds named scenarios. Each starts from the default Mars section.
var Presets = map[string]*Config{
	"mars-default": preset("mars-default", func(c *Config) {}),
	"thick-sill": preset("thick-sill", func(c *Config) {
		c.Bodies.HorizontalLengthKm = 3
		c.Bodies.HorizontalDepthKm = 1.5
	}),
	"wide-dike": preset("wide-dike", func(c *Config) {
		c.Bodies.VerticalWidthKm = 0.5
	}),
	"quick": preset("quick", func(c *Config) {
		c.Domain.WidthKm = 4
		c.Domain.DepthKm = 4
		c.Domain.Dx = 100
		c.Domain.Dy = 100
		c.Bodies.VerticalWidthKm = 0.2
		c.Bodies.HorizontalLengthKm = 1
		c.Run.Steps = 50
	}),
}

func preset(name string, mutate func(*Config)) *Config {
	c := DefaultConfig()
	c.Name = name
	mutate(c)
	return c
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
