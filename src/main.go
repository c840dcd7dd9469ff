package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danfragoso/coverwall/internal/compositor"
	"github.com/danfragoso/coverwall/internal/history"
)

// newApp wires the compositor, trigger and output cache from cfg.
func newApp(cfg *Config, configPath string) (*Coverwall, error) {
	app := &Coverwall{Config: cfg, ConfigPath: configPath, Applier: logApplier{}}

	comp, err := compositor.New(
		compositor.WithLogger(logger),
		compositor.WithObserver(app),
		compositor.WithHistory(history.New(logger)),
	)
	if err != nil {
		return nil, err
	}
	app.Compositor = comp

	app.Cache, err = newOutputCache(cfg.OutputDir, cfg.MaxOutputs)
	if err != nil {
		return nil, err
	}
	app.Trigger = newTrigger(app.Compositor.Render, app.commit, cfg.Debounce)
	return app, nil
}

// RenderStarted and RenderFinished make the app the compositor's observer.
func (app *Coverwall) RenderStarted(req compositor.Request) {
	logMsg(fmt.Sprintf("INFO: Rendering %s for %d display(s)", req.Style, len(req.Sizes)))
}

func (app *Coverwall) RenderFinished(res compositor.Result) {
	app.mu.Lock()
	defer app.mu.Unlock()
	app.LastStatus = res.Status
	app.LastRender = time.Now()
}

// commit stores the rasters and hands them to the applier. It runs only for
// the newest render.
func (app *Coverwall) commit(ctx context.Context, res *compositor.Result) ([]OutputFile, error) {
	files, err := app.Cache.Commit(res)
	if err != nil {
		return nil, fmt.Errorf("commit outputs: %w", err)
	}

	app.mu.Lock()
	app.LastFiles = files
	app.mu.Unlock()

	if err := app.Applier.Apply(ctx, files); err != nil {
		return files, fmt.Errorf("apply wallpaper: %w", err)
	}
	return files, nil
}

// renderTrack fires a render of track with the configured style.
func (app *Coverwall) renderTrack(ctx context.Context, track *Track) (*compositor.Result, []OutputFile, error) {
	req, err := app.Config.baseRequest()
	if err != nil {
		return nil, nil, err
	}
	req.Data = track.Art
	req.TrackName = track.Title
	req.Artist = track.Artist
	return app.Trigger.Fire(ctx, req)
}

func (app *Coverwall) status() ([]compositor.Status, []OutputFile, time.Time) {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.LastStatus, app.LastFiles, app.LastRender
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run is main without os.Exit, so the log file is synced and the signal
// context released on every path, failures included. It returns the exit code.
func run(args []string) int {
	defer recoverCrash("main")

	fs := flag.NewFlagSet(APP_NAME, flag.ContinueOnError)
	configPath := fs.String("config", DEFAULT_CONFIG_PATH, "path to the YAML config file")
	imagePath := fs.String("image", "", "render this artwork image once")
	audioPath := fs.String("audio", "", "render the artwork embedded in this audio file once")
	serve := fs.String("serve", "", "serve the HTTP API on this address (\"-\" uses the configured listen address)")
	style := fs.String("style", "", "override the configured style")
	showVersion := fs.Bool("version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if *showVersion {
		fmt.Printf("%s %s\n", APP_NAME, APP_VERSION)
		return 0
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	if *style != "" {
		cfg.Style = *style
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			return 1
		}
	}
	if err := initLogger(cfg.LogPath, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}
	defer closeLogger()

	logMsg("\n\n\n-----------")
	logMsg(fmt.Sprintf("INFO: Starting %s %s (installation %s)", APP_NAME, APP_VERSION, cfg.InstallationID))

	app, err := newApp(cfg, *configPath)
	if err != nil {
		logMsg(fmt.Sprintf("FATAL: Init failed: %v", err))
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		defer recoverCrash("history cleanup")
		app.Compositor.History().Run(ctx, cfg.CleanupInterval)
	}()

	switch {
	case *serve != "":
		addr := *serve
		if addr == "-" {
			addr = cfg.Listen
		}
		if err := app.serve(ctx, addr); err != nil {
			logMsg(fmt.Sprintf("FATAL: Server failed: %v", err))
			return 1
		}
	case *imagePath != "" || *audioPath != "":
		path := *imagePath
		if path == "" {
			path = *audioPath
		}
		if err := app.renderOnce(ctx, path); err != nil {
			logMsg(fmt.Sprintf("ERROR: %v", err))
			return 1
		}
	default:
		fs.Usage()
		return 2
	}
	return 0
}

func (app *Coverwall) renderOnce(ctx context.Context, path string) error {
	track, err := loadTrack(path)
	if err != nil {
		return err
	}
	res, files, err := app.renderTrack(ctx, track)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return errors.New("interrupted")
		}
		return err
	}
	for _, f := range files {
		fmt.Println(f.Path)
	}
	if text := res.StatusText(); text != "" {
		logMsg("WARNING: " + strings.TrimSpace(text))
	}
	return nil
}
