package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danfragoso/coverwall/internal/compositor"
	"github.com/google/uuid"
)

func TestLoadConfigDefaultsAndInstallationID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverwall.yaml")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Style != "cover" || cfg.FillMode != "auto" {
		t.Errorf("style/fill = %q/%q", cfg.Style, cfg.FillMode)
	}
	if len(cfg.Displays) != 1 || cfg.Displays[0] != (Display{DEFAULT_WIDTH, DEFAULT_HEIGHT}) {
		t.Errorf("displays = %+v", cfg.Displays)
	}
	if cfg.Debounce != DEFAULT_DEBOUNCE || cfg.CleanupInterval != DEFAULT_CLEANUP_INTERVAL {
		t.Errorf("durations = %v / %v", cfg.Debounce, cfg.CleanupInterval)
	}
	if _, err := uuid.Parse(cfg.InstallationID); err != nil {
		t.Fatalf("installation id %q: %v", cfg.InstallationID, err)
	}

	// The generated ID was saved and survives a reload.
	again, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if again.InstallationID != cfg.InstallationID {
		t.Errorf("installation id changed %s -> %s", cfg.InstallationID, again.InstallationID)
	}
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverwall.yaml")
	yml := `style: collageEffect
fill_mode: custom
custom_color: "#336699"
displays:
  - {width: 2560, height: 1440}
  - {width: 1080, height: 1920}
max_outputs: 6
debounce: 1s
cleanup_interval: 30s
installation_id: 8b0c0a52-3c5b-4e2a-9d43-0d2b1a1f5e11
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Debounce != time.Second || cfg.CleanupInterval != 30*time.Second {
		t.Errorf("durations = %v / %v", cfg.Debounce, cfg.CleanupInterval)
	}
	req, err := cfg.baseRequest()
	if err != nil {
		t.Fatal(err)
	}
	if req.Style != compositor.CollageEffect || req.Fill != compositor.FillCustom {
		t.Errorf("request style/fill = %v/%v", req.Style, req.Fill)
	}
	if len(req.Sizes) != 2 || req.Sizes[1].X != 1080 || req.Sizes[1].Y != 1920 {
		t.Errorf("sizes = %v", req.Sizes)
	}
	r, g, b, _ := req.CustomColor.RGBA()
	if r>>8 != 0x33 || g>>8 != 0x66 || b>>8 != 0x99 {
		t.Errorf("custom color = %v", req.CustomColor)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"unknown style", func(c *Config) { c.Style = "tiled" }, "unknown style"},
		{"unknown fill", func(c *Config) { c.FillMode = "random" }, "unknown fill mode"},
		{"custom without color", func(c *Config) { c.FillMode = "custom" }, "needs custom_color"},
		{"bad color", func(c *Config) { c.CustomColor = "#zzz" }, "parse color"},
		{"zero display", func(c *Config) { c.Displays = []Display{{0, 100}} }, "invalid size"},
		{"cache too small", func(c *Config) {
			c.Displays = []Display{{10, 10}, {20, 20}}
			c.MaxOutputs = 1
		}, "max_outputs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.applyDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coverwall.yaml")
	if err := os.WriteFile(path, []byte("displays: [oops"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadConfig(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSplitLevel(t *testing.T) {
	tests := []struct {
		in       string
		wantText string
	}{
		{"INFO: Started", "Started"},
		{"WARNING: slow", "slow"},
		{"ERROR: broken", "broken"},
		{"plain message", "plain message"},
	}
	for _, tt := range tests {
		if _, text := splitLevel(tt.in); text != tt.wantText {
			t.Errorf("splitLevel(%q) text = %q, want %q", tt.in, text, tt.wantText)
		}
	}
}
