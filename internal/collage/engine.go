package collage

import (
	"context"
	"image"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/danfragoso/coverwall/internal/canvas"
	"github.com/danfragoso/coverwall/internal/history"
	"github.com/danfragoso/coverwall/internal/palette"
	"github.com/fogleman/gg"
)

// Placement styling
const (
	jitterFraction = 0.1
	maxRotation    = 20.0
	currentScale   = 1.4

	plainBorder      = 0.04
	plainBottomExtra = 0.12
	emphBorder       = 0.06
	emphBottomExtra  = 0.14
)

// Stats summarizes what one Render changed.
type Stats struct {
	Placed   int  // new history placements
	Pruned   int  // placements dropped because their entry left the history
	Dropped  int  // history entries left unplaced because the grid is full
	GridFull bool // a free cell was needed but none was left
}

// Err returns ErrGridFull when entries had to be dropped.
func (s Stats) Err() error {
	if s.GridFull {
		return ErrGridFull
	}
	return nil
}

// Engine owns one GridState per collage canvas size.
type Engine struct {
	mu     sync.Mutex
	states map[image.Point]*GridState
	rng    *rand.Rand
	logger *slog.Logger
}

type Option func(*Engine)

// WithRand sets the random source used for cells, jitter and rotation.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) { e.rng = r }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New returns an Engine with no grids.
func New(opts ...Option) *Engine {
	e := &Engine{states: make(map[image.Point]*GridState)}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		seed := uint64(time.Now().UnixNano())
		e.rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	if e.logger == nil {
		e.logger = slog.New(slog.DiscardHandler)
	}
	return e
}

// State returns the grid for size, creating an empty one if needed.
func (e *Engine) State(size image.Point) *GridState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state(size)
}

func (e *Engine) state(size image.Point) *GridState {
	g, ok := e.states[size]
	if !ok {
		g = NewGridState(size)
		e.states[size] = g
		e.logger.Debug("collage: new grid", "width", size.X, "height", size.Y)
	}
	return g
}

// Retain discards grids for every size not listed. A display whose size
// changed therefore starts over with an empty grid.
func (e *Engine) Retain(sizes ...image.Point) {
	keep := make(map[image.Point]bool, len(sizes))
	for _, s := range sizes {
		keep[s] = true
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for s := range e.states {
		if !keep[s] {
			delete(e.states, s)
			e.logger.Debug("collage: dropped grid", "width", s.X, "height", s.Y)
		}
	}
}

// Reset clears every grid, starting a new collage session.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, g := range e.states {
		g.Reset()
	}
}

// Render draws the collage for size.
//
// Existing placements are redrawn exactly where they were. History entries
// without a placement get a random free cell, in order, until the grid is
// full. The current track always sits on the center cell, drawn at the
// canvas center, emphasized and on top. The context is checked before every change to the grid; a cancelled
// render leaves the grid consistent and returns ctx.Err().
func (e *Engine) Render(ctx context.Context, current image.Image, previous []history.Entry, size image.Point) (*image.RGBA, Stats, error) {
	var stats Stats
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	g := e.state(size)

	dc, out := canvas.NewCanvas(size)
	full := canvas.Rect{W: float64(size.X), H: float64(size.Y)}

	images := make([]image.Image, 0, len(previous)+1)
	weights := make([]int, 0, len(previous)+1)
	images = append(images, current)
	weights = append(weights, palette.CurrentWeight)
	byID := make(map[uint64]image.Image, len(previous))
	for _, entry := range previous {
		images = append(images, entry.Image)
		weights = append(weights, palette.HistoryWeight)
		byID[entry.ID] = entry.Image
	}
	canvas.DiagonalGradient(dc, palette.Harmonize(images, weights), full)

	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	stats.Pruned = g.removeWhere(func(p Placement) bool {
		_, ok := byID[p.EntryID]
		return !p.Current && !ok
	})

	// The center cell is reserved before any history image can take it.
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}
	cur := e.currentPlacement(g)
	g.removeWhere(func(p Placement) bool { return !p.Current && g.Reserved(p.Cell) })
	g.RemoveCurrentTrackPlacement()
	if err := g.Place(cur); err != nil {
		return nil, stats, err
	}

	placed := make(map[uint64]bool, len(previous))
	for _, p := range g.placements {
		if p.Current {
			continue
		}
		placed[p.EntryID] = true
		e.drawPlacement(dc, byID[p.EntryID], p)
	}

	for i, entry := range previous {
		if placed[entry.ID] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}
		cell, ok := g.NextAvailableCell(e.rng)
		if !ok {
			stats.GridFull = true
			for _, rest := range previous[i:] {
				if !placed[rest.ID] {
					stats.Dropped++
				}
			}
			break
		}
		p := e.newPlacement(g, cell, entry.ID)
		if err := g.Place(p); err != nil {
			return nil, stats, err
		}
		placed[entry.ID] = true
		stats.Placed++
		e.drawPlacement(dc, entry.Image, p)
	}

	e.drawPlacement(dc, current, cur)

	e.logger.Debug("collage: rendered",
		"width", size.X, "height", size.Y,
		"placements", len(g.placements),
		"placed", stats.Placed, "pruned", stats.Pruned, "dropped", stats.Dropped)
	return out, stats, nil
}

func (e *Engine) currentPlacement(g *GridState) Placement {
	cw, ch := g.CellSize()
	return Placement{
		Cell:    g.CenterCell(),
		CenterX: float64(g.size.X) / 2,
		CenterY: float64(g.size.Y) / 2,
		Width:   cw * currentScale,
		Height:  ch * currentScale,
		Current: true,
		EntryID: CurrentEntryID,
	}
}

func (e *Engine) newPlacement(g *GridState, cell Cell, id uint64) Placement {
	cw, ch := g.CellSize()
	cx, cy := g.CellCenter(cell)
	return Placement{
		Cell:     cell,
		CenterX:  cx + e.symmetric()*jitterFraction*cw,
		CenterY:  cy + e.symmetric()*jitterFraction*ch,
		Rotation: e.symmetric() * maxRotation,
		Width:    cw * (1.1 + OverlapFactor),
		Height:   ch * (1.1 + OverlapFactor),
		EntryID:  id,
	}
}

// symmetric returns a uniform value in [-1, 1).
func (e *Engine) symmetric() float64 {
	return e.rng.Float64()*2 - 1
}

func (e *Engine) drawPlacement(dc *gg.Context, img image.Image, p Placement) {
	short := math.Min(p.Width, p.Height)
	f := canvas.Frame{
		CenterX:     p.CenterX,
		CenterY:     p.CenterY,
		Width:       p.Width,
		Height:      p.Height,
		Rotation:    p.Rotation,
		Border:      short * plainBorder,
		BottomExtra: short * plainBottomExtra,
	}
	if p.Current {
		f.Border = short * emphBorder
		f.BottomExtra = short * emphBottomExtra
		f.Emphasized = true
	}
	canvas.FramedPolaroid(dc, img, f)
}
