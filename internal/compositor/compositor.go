// Package compositor turns the current artwork into one finished wallpaper
// raster per display, in one of eight styles. It owns the artwork history and
// the collage layout, so every render goes through a single Compositor.
package compositor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/danfragoso/coverwall/internal/canvas"
	"github.com/danfragoso/coverwall/internal/collage"
	"github.com/danfragoso/coverwall/internal/history"
	"github.com/danfragoso/coverwall/internal/palette"
	"github.com/disintegration/imaging"
)

const placeholderSize = 600

// Request describes one render. Image takes precedence over Data; Data is
// decoded when Image is nil.
type Request struct {
	Image       image.Image
	Data        []byte
	Style       Style
	Fill        FillMode
	CustomColor color.Color // used with FillCustom
	Sizes       []image.Point
	TrackName   string
	Artist      string
}

// StatusKind classifies a non-fatal fallback taken during a render.
type StatusKind string

const (
	StatusDecodeFailure StatusKind = "DecodeFailure"
	StatusPaletteEmpty  StatusKind = "PaletteExtractionEmpty"
	StatusGridFull      StatusKind = "GridFull"
	StatusInvalidSize   StatusKind = "InvalidSize"
)

// Status is an informational note attached to a Result.
type Status struct {
	Kind    StatusKind `json:"kind"`
	Message string     `json:"message"`
}

// Raster is the finished wallpaper for one display size.
type Raster struct {
	Size  image.Point
	Image *image.RGBA
}

// EncodePNG writes the raster losslessly.
func (r Raster) EncodePNG(w io.Writer) error {
	if r.Image == nil {
		return errors.New("empty raster")
	}
	return imaging.Encode(w, r.Image, imaging.PNG)
}

// Result holds one raster per valid requested size, in request order.
type Result struct {
	Style    Style
	Rasters  []Raster
	Status   []Status
	Duration time.Duration
}

func (r *Result) note(kind StatusKind, format string, args ...any) {
	r.Status = append(r.Status, Status{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// StatusText joins every status message, or returns "" when the render took
// no fallback.
func (r *Result) StatusText() string {
	msgs := make([]string, len(r.Status))
	for i, s := range r.Status {
		msgs[i] = s.Message
	}
	return strings.Join(msgs, "; ")
}

// Observer is told about renders as they happen. RenderFinished is only
// called for renders that completed; cancelled renders report nothing.
type Observer interface {
	RenderStarted(req Request)
	RenderFinished(res Result)
}

type nopObserver struct{}

func (nopObserver) RenderStarted(Request) {}
func (nopObserver) RenderFinished(Result) {}

// Compositor renders wallpapers. Renders are serialized: the history buffer
// and the collage grids are only touched by one render at a time.
type Compositor struct {
	mu       sync.Mutex
	history  *history.Buffer
	collage  *collage.Engine
	faces    *canvas.Faces
	observer Observer
	logger   *slog.Logger
}

type Option func(*Compositor)

func WithLogger(l *slog.Logger) Option {
	return func(c *Compositor) { c.logger = l }
}

func WithObserver(o Observer) Option {
	return func(c *Compositor) { c.observer = o }
}

// WithHistory shares an existing buffer, typically one whose cleanup loop is
// already running.
func WithHistory(b *history.Buffer) Option {
	return func(c *Compositor) { c.history = b }
}

func WithCollage(e *collage.Engine) Option {
	return func(c *Compositor) { c.collage = e }
}

// New returns a Compositor with an empty history and collage session.
func New(opts ...Option) (*Compositor, error) {
	faces, err := canvas.NewFaces()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	c := &Compositor{faces: faces, observer: nopObserver{}}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.history == nil {
		c.history = history.New(c.logger)
	}
	if c.collage == nil {
		c.collage = collage.New(collage.WithLogger(c.logger))
	}
	return c, nil
}

// History exposes the artwork buffer for status reporting and cleanup.
func (c *Compositor) History() *history.Buffer { return c.history }

// ResetSession starts a new collage session with an empty history.
func (c *Compositor) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history.Reset()
	c.collage.Reset()
	c.logger.Info("compositor: session reset")
}

// Render produces one raster per size in req.Sizes.
//
// The current artwork is pushed into the history whatever the style. Decode
// failures, empty palettes and a full collage grid are absorbed into
// Result.Status; the only error returned is the context's.
func (c *Compositor) Render(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	c.observer.RenderStarted(req)
	res := &Result{Style: req.Style}

	src := req.Image
	if src == nil {
		src = c.decode(req.Data, res)
	}
	c.history.Push(src)

	sizes := make([]image.Point, 0, len(req.Sizes))
	for _, s := range req.Sizes {
		if s.X <= 0 || s.Y <= 0 {
			res.note(StatusInvalidSize, "skipped display size %dx%d", s.X, s.Y)
			continue
		}
		sizes = append(sizes, s)
	}

	j := &job{
		src:     src,
		req:     req,
		faces:   c.faces,
		palette: palette.DefaultPalette,
	}
	if req.Style.usesPalette() {
		p, err := palette.Extract(src)
		if err != nil {
			res.note(StatusPaletteEmpty, "using default colors: %v", err)
		}
		j.palette = p
	}

	var err error
	if req.Style == CollageEffect {
		res.Rasters, err = c.renderCollage(ctx, src, sizes, res)
	} else {
		res.Rasters, err = c.renderParallel(ctx, j, sizes)
	}
	if err != nil {
		c.logger.Warn("compositor: render aborted", "style", req.Style, "error", err)
		return nil, err
	}

	res.Duration = time.Since(start)
	c.logger.Info("compositor: rendered",
		"style", req.Style,
		"displays", len(res.Rasters),
		"history", c.history.Len(),
		"duration", res.Duration)
	for _, s := range res.Status {
		c.logger.Warn("compositor: fallback", "kind", s.Kind, "message", s.Message)
	}
	c.observer.RenderFinished(*res)
	return res, nil
}

func (c *Compositor) decode(data []byte, res *Result) image.Image {
	if len(data) == 0 {
		res.note(StatusDecodeFailure, "no artwork, using placeholder")
		return placeholder()
	}
	img, err := palette.Decode(data)
	if err != nil {
		res.note(StatusDecodeFailure, "%v, using placeholder", err)
		return placeholder()
	}
	return img
}

// renderCollage walks the sizes one by one; each size owns a grid.
func (c *Compositor) renderCollage(ctx context.Context, src image.Image, sizes []image.Point, res *Result) ([]Raster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.collage.Retain(sizes...)
	previous := c.history.Snapshot(true)
	if n := len(previous) - collage.HistoryCells; n > 0 {
		previous = previous[n:]
	}

	rasters := make([]Raster, 0, len(sizes))
	for _, size := range sizes {
		img, stats, err := c.collage.Render(ctx, src, previous, size)
		if err != nil {
			return nil, err
		}
		if errors.Is(stats.Err(), collage.ErrGridFull) {
			res.note(StatusGridFull, "%dx%d: %d images not placed", size.X, size.Y, stats.Dropped)
		}
		rasters = append(rasters, Raster{Size: size, Image: img})
	}
	return rasters, nil
}

// renderParallel draws each size on its own goroutine. The styles it serves
// read only the job, so displays share no mutable state.
func (c *Compositor) renderParallel(ctx context.Context, j *job, sizes []image.Point) ([]Raster, error) {
	rasters := make([]Raster, len(sizes))
	var wg sync.WaitGroup
	for i, size := range sizes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rasters[i] = Raster{Size: size, Image: j.render(size, c.logger)}
		}()
	}
	wg.Wait()

	// Stale results must not be committed by the caller.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rasters, nil
}

// placeholder stands in for artwork that could not be decoded.
func placeholder() image.Image {
	dc, img := canvas.NewCanvas(image.Pt(placeholderSize, placeholderSize))
	canvas.DiagonalGradient(dc, palette.DefaultPalette, canvas.Rect{W: placeholderSize, H: placeholderSize})
	return img
}
