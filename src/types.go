package main

import (
	"context"
	"sync"
	"time"

	"github.com/danfragoso/coverwall/internal/compositor"
)

// App metadata
const (
	APP_NAME    = "coverwall"
	APP_VERSION = "0.0.1"
	APP_AUTHOR  = "Danilo Fragoso"
)

// Defaults used when the config file leaves a field out
const (
	DEFAULT_CONFIG_PATH      = "./coverwall.yaml"
	DEFAULT_LOG_PATH         = "./coverwall.log"
	DEFAULT_OUTPUT_DIR       = "./wallpapers"
	DEFAULT_MAX_OUTPUTS      = 12
	DEFAULT_LISTEN           = ":8080"
	DEFAULT_DEBOUNCE         = 250 * time.Millisecond
	DEFAULT_CLEANUP_INTERVAL = 10 * time.Second
	DEFAULT_WIDTH            = 1920
	DEFAULT_HEIGHT           = 1080

	MAX_UPLOAD_BYTES = 32 << 20
)

// OutputFile is one rendered wallpaper written to the output directory.
type OutputFile struct {
	Name   string `json:"name"`
	Path   string `json:"-"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Applier hands finished wallpapers to whatever sets them on the desktop.
type Applier interface {
	Apply(ctx context.Context, files []OutputFile) error
}

// Track is what a render knows about the playing track.
type Track struct {
	Title  string
	Artist string
	Art    []byte
	Source string // file the track was read from
}

// Coverwall is the running application.
type Coverwall struct {
	Config     *Config
	ConfigPath string

	Compositor *compositor.Compositor
	Trigger    *Trigger
	Cache      *OutputCache
	Applier    Applier

	mu         sync.Mutex
	LastStatus []compositor.Status
	LastFiles  []OutputFile
	LastRender time.Time
}
