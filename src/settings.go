package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"time"

	"github.com/danfragoso/coverwall/internal/compositor"
	"github.com/danfragoso/coverwall/internal/palette"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Display is one target screen.
type Display struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// Config is the coverwall configuration file.
type Config struct {
	Style           string        `yaml:"style"`
	FillMode        string        `yaml:"fill_mode"`
	CustomColor     string        `yaml:"custom_color,omitempty"`
	Displays        []Display     `yaml:"displays"`
	OutputDir       string        `yaml:"output_dir"`
	MaxOutputs      int           `yaml:"max_outputs"`
	LogPath         string        `yaml:"log_path"`
	LogLevel        string        `yaml:"log_level"`
	Listen          string        `yaml:"listen"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	Debounce        time.Duration `yaml:"debounce"`
	InstallationID  string        `yaml:"installation_id"`
}

// loadConfig reads the YAML config at path. A missing file yields the
// defaults. A config without an installation ID gets one and is saved back.
func loadConfig(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logMsg(fmt.Sprintf("INFO: No config at %s, using defaults", path))
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Generate installation ID if it doesn't exist
	if cfg.InstallationID == "" {
		cfg.InstallationID = uuid.New().String()
		logMsg(fmt.Sprintf("INFO: Generated new installation ID: %s", cfg.InstallationID))
		if err := saveConfig(path, cfg); err != nil {
			logMsg(fmt.Sprintf("WARNING: Could not save config: %v", err))
		}
	} else {
		logMsg(fmt.Sprintf("INFO: Loaded installation ID: %s", cfg.InstallationID))
	}
	return cfg, nil
}

func saveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyDefaults() {
	if c.Style == "" {
		c.Style = compositor.Cover.String()
	}
	if c.FillMode == "" {
		c.FillMode = compositor.FillAuto.String()
	}
	if len(c.Displays) == 0 {
		c.Displays = []Display{{Width: DEFAULT_WIDTH, Height: DEFAULT_HEIGHT}}
	}
	if c.OutputDir == "" {
		c.OutputDir = DEFAULT_OUTPUT_DIR
	}
	if c.MaxOutputs <= 0 {
		c.MaxOutputs = DEFAULT_MAX_OUTPUTS
	}
	if c.LogPath == "" {
		c.LogPath = DEFAULT_LOG_PATH
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Listen == "" {
		c.Listen = DEFAULT_LISTEN
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = DEFAULT_CLEANUP_INTERVAL
	}
	if c.Debounce <= 0 {
		c.Debounce = DEFAULT_DEBOUNCE
	}
}

// Validate checks every field a render depends on.
func (c *Config) Validate() error {
	if _, err := compositor.ParseStyle(c.Style); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	fill, err := compositor.ParseFillMode(c.FillMode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if fill == compositor.FillCustom && c.CustomColor == "" {
		return errors.New("config: fill_mode custom needs custom_color")
	}
	if c.CustomColor != "" {
		if _, err := palette.ParseHex(c.CustomColor); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	for i, d := range c.Displays {
		if d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("config: display %d has invalid size %dx%d", i, d.Width, d.Height)
		}
	}
	if c.MaxOutputs < len(c.Displays) {
		return fmt.Errorf("config: max_outputs %d cannot hold one render for %d displays", c.MaxOutputs, len(c.Displays))
	}
	return nil
}

// baseRequest builds a render request from the configured style and
// displays. Callers fill in the artwork and track fields.
func (c *Config) baseRequest() (compositor.Request, error) {
	var req compositor.Request
	style, err := compositor.ParseStyle(c.Style)
	if err != nil {
		return req, err
	}
	fill, err := compositor.ParseFillMode(c.FillMode)
	if err != nil {
		return req, err
	}
	req.Style = style
	req.Fill = fill
	if c.CustomColor != "" {
		col, err := palette.ParseHex(c.CustomColor)
		if err != nil {
			return req, err
		}
		req.CustomColor = col
	}
	for _, d := range c.Displays {
		req.Sizes = append(req.Sizes, image.Pt(d.Width, d.Height))
	}
	return req, nil
}
