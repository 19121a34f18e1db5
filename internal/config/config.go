// Package config provides the YAML burn configuration shared by the CLI
// and the wizard. It handles loading from disk with default values and
// applying the result to a session.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/mrsinham/roiburn/internal/burn"
	"github.com/mrsinham/roiburn/internal/export"
	"github.com/mrsinham/roiburn/internal/logging"
	"github.com/mrsinham/roiburn/internal/roi"
	"github.com/mrsinham/roiburn/internal/session"
	"gopkg.in/yaml.v3"
)

// Config is the complete burn configuration.
type Config struct {
	ImageSetName   string         `yaml:"image_set_name"`
	SeparateSeries bool           `yaml:"separate_series"`
	Note           string         `yaml:"note"`
	Annotation     Annotation     `yaml:"annotation"`
	Defaults       Defaults       `yaml:"defaults"`
	Regions        []RegionConfig `yaml:"regions,omitempty"`
	Output         Output         `yaml:"output"`
	Logging        Logging        `yaml:"logging"`
}

// Annotation controls the text band burned under each slice.
type Annotation struct {
	Enabled     bool    `yaml:"enabled"`
	FooterDelta float64 `yaml:"footer_delta"`
	TextHU      float64 `yaml:"text_hu"`
}

// Defaults are the session-wide region settings. Preset, when set, names
// an HU preset that replaces TargetHU.
type Defaults struct {
	TargetHU  float64 `yaml:"target_hu"`
	Preset    string  `yaml:"preset,omitempty"`
	LineStyle string  `yaml:"line_style"`
	LineWidth float64 `yaml:"line_width"`
	Outline   bool    `yaml:"outline"`
	Fill      bool    `yaml:"fill"`
	FillDelta float64 `yaml:"fill_delta"`
}

// RegionConfig overrides the defaults for one region. Absent keys keep the
// default.
type RegionConfig struct {
	Name      string   `yaml:"name"`
	Selected  bool     `yaml:"selected"`
	TargetHU  *float64 `yaml:"target_hu,omitempty"`
	Preset    string   `yaml:"preset,omitempty"`
	LineStyle string   `yaml:"line_style,omitempty"`
	LineWidth *float64 `yaml:"line_width,omitempty"`
	Outline   *bool    `yaml:"outline,omitempty"`
	Fill      *bool    `yaml:"fill,omitempty"`
	FillDelta *float64 `yaml:"fill_delta,omitempty"`
}

// Output controls where and how the burned series is written.
type Output struct {
	Dir             string `yaml:"dir"`
	Zip             bool   `yaml:"zip"`
	Workers         int    `yaml:"workers"`
	RecomputeWindow bool   `yaml:"recompute_window"`
}

// Logging selects the log level, format and optional rotating file.
type Logging struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	d := roi.DefaultDefaults()
	return &Config{
		Annotation: Annotation{
			Enabled:     true,
			FooterDelta: burn.DefaultFooterDelta,
			TextHU:      burn.DefaultAnnotationHU,
		},
		Defaults: Defaults{
			TargetHU:  d.TargetHU,
			LineStyle: string(d.Style),
			LineWidth: d.Width,
			Outline:   d.Outline,
			Fill:      d.Fill,
			FillDelta: d.FillDelta,
		},
		Output: Output{
			Dir:     ".",
			Workers: runtime.NumCPU(),
		},
		Logging: Logging{
			Level:      "INFO",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if err := checkFinite("annotation.footer_delta", c.Annotation.FooterDelta); err != nil {
		return err
	}
	if err := checkFinite("annotation.text_hu", c.Annotation.TextHU); err != nil {
		return err
	}
	if err := checkRegion("defaults", c.Defaults.LineStyle, c.Defaults.Preset, &c.Defaults.TargetHU, &c.Defaults.LineWidth, &c.Defaults.FillDelta); err != nil {
		return err
	}

	seen := make(map[string]bool)
	for i, r := range c.Regions {
		if strings.TrimSpace(r.Name) == "" {
			return fmt.Errorf("regions[%d]: name is required", i)
		}
		if seen[r.Name] {
			return fmt.Errorf("regions[%d]: duplicate region %q", i, r.Name)
		}
		seen[r.Name] = true
		if err := checkRegion(fmt.Sprintf("regions[%d]", i), r.LineStyle, r.Preset, r.TargetHU, r.LineWidth, r.FillDelta); err != nil {
			return err
		}
	}

	if c.Output.Workers < 0 {
		return fmt.Errorf("output.workers must not be negative, got %d", c.Output.Workers)
	}
	if _, ok := logging.ParseLevel(c.Logging.Level); !ok && c.Logging.Level != "" {
		return fmt.Errorf("logging.level: unknown level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format: want text or json, got %q", c.Logging.Format)
	}
	return nil
}

func checkRegion(at, style, preset string, target, width, delta *float64) error {
	if style != "" {
		if _, ok := roi.ParseStyle(style); !ok {
			return fmt.Errorf("%s.line_style: want solid or dotted, got %q", at, style)
		}
	}
	if preset != "" {
		if _, ok := roi.PresetByName(preset); !ok {
			return fmt.Errorf("%s.preset: unknown preset %q", at, preset)
		}
	}
	for _, f := range []struct {
		key string
		v   *float64
	}{{"target_hu", target}, {"line_width", width}, {"fill_delta", delta}} {
		if f.v == nil {
			continue
		}
		if err := checkFinite(at+"."+f.key, *f.v); err != nil {
			return err
		}
	}
	return nil
}

func checkFinite(key string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", key)
	}
	return nil
}

// targetHU returns the preset intensity when one is named.
func targetHU(preset string, def float64) float64 {
	if p, ok := roi.PresetByName(preset); ok {
		return p.HU
	}
	return def
}

// BurnOptions returns the compositor options. A disabled annotation sets a
// zero footer delta, which suppresses the band.
func (c *Config) BurnOptions() burn.Options {
	opts := burn.DefaultOptions()
	opts.Note = c.Note
	opts.AnnotationHU = c.Annotation.TextHU
	opts.FooterDelta = c.Annotation.FooterDelta
	if !c.Annotation.Enabled {
		opts.FooterDelta = 0
	}
	return opts
}

// ExportOptions returns the exporter options.
func (c *Config) ExportOptions() export.Options {
	return export.Options{
		Name:            c.ImageSetName,
		Separate:        c.SeparateSeries,
		RecomputeWindow: c.Output.RecomputeWindow,
		Workers:         c.Output.Workers,
	}
}

// RegionDefaults returns the session-wide region defaults.
func (c *Config) RegionDefaults() roi.Defaults {
	style, ok := roi.ParseStyle(c.Defaults.LineStyle)
	if !ok {
		style = roi.Solid
	}
	return roi.Defaults{
		TargetHU:  targetHU(c.Defaults.Preset, c.Defaults.TargetHU),
		Style:     style,
		Width:     roi.NormalizeWidth(c.Defaults.LineWidth),
		Outline:   c.Defaults.Outline,
		Fill:      c.Defaults.Fill,
		FillDelta: roi.NormalizeDelta(c.Defaults.FillDelta),
	}
}

// Apply installs the defaults, burn options and per-region settings on a
// loaded session. Regions the catalog does not hold are an error. The
// fill default applies to regions without an entry of their own.
func (c *Config) Apply(s *session.Session) error {
	s.Defaults = c.RegionDefaults()
	s.Options = c.BurnOptions()

	for _, rc := range c.Regions {
		r, err := s.Catalog.Lookup(rc.Name)
		if err != nil {
			return err
		}
		st := roi.Settings{
			Selected:  rc.Selected,
			TargetHU:  rc.TargetHU,
			Outline:   rc.Outline,
			Fill:      rc.Fill,
			FillDelta: rc.FillDelta,
			Width:     rc.LineWidth,
		}
		if p, ok := roi.PresetByName(rc.Preset); ok {
			st.TargetHU = roi.Float(p.HU)
		}
		if style, ok := roi.ParseStyle(rc.LineStyle); ok {
			st.Style = roi.StylePtr(style)
		}
		r.Settings = st
	}
	return nil
}

// Capture records the session's current settings so a later Apply
// reproduces them. Only regions with a non-default setting are listed.
func (c *Config) Capture(s *session.Session) {
	d := s.Defaults
	c.Defaults.TargetHU = d.TargetHU
	c.Defaults.Preset = ""
	c.Defaults.LineStyle = string(d.Style)
	c.Defaults.LineWidth = d.Width
	c.Defaults.Outline = d.Outline
	c.Defaults.Fill = d.Fill
	c.Defaults.FillDelta = d.FillDelta
	c.Note = s.Options.Note
	c.Annotation.Enabled = s.Options.FooterDelta != 0
	if c.Annotation.Enabled {
		c.Annotation.FooterDelta = s.Options.FooterDelta
	}
	c.Annotation.TextHU = s.Options.AnnotationHU

	c.Regions = nil
	for _, r := range s.Catalog.Sorted() {
		st := r.Settings
		if !st.Selected && st.Fill == nil && st.TargetHU == nil && st.Outline == nil &&
			st.FillDelta == nil && st.Style == nil && st.Width == nil {
			continue
		}
		rc := RegionConfig{
			Name:      r.Name,
			Selected:  st.Selected,
			TargetHU:  st.TargetHU,
			LineWidth: st.Width,
			Outline:   st.Outline,
			Fill:      st.Fill,
			FillDelta: st.FillDelta,
		}
		if st.Style != nil {
			rc.LineStyle = string(*st.Style)
		}
		c.Regions = append(c.Regions, rc)
	}
}
