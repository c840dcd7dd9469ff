package collage

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math/rand/v2"
	"testing"

	"github.com/danfragoso/coverwall/internal/history"
)

var testSize = image.Pt(500, 400)

func newTestEngine() *Engine {
	return New(WithRand(rand.New(rand.NewPCG(7, 11))))
}

func tile(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 24, 24))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func entries(n int) []history.Entry {
	out := make([]history.Entry, n)
	for i := range out {
		out[i] = history.Entry{
			ID:    uint64(i + 1),
			Image: tile(color.RGBA{R: uint8(i * 10), G: 120, B: uint8(255 - i*10), A: 255}),
		}
	}
	return out
}

func checkInvariants(t *testing.T, g *GridState) {
	t.Helper()
	cells := make(map[Cell]bool)
	current := 0
	for _, p := range g.Placements() {
		if cells[p.Cell] {
			t.Errorf("cell %v referenced twice", p.Cell)
		}
		cells[p.Cell] = true
		if p.Current {
			current++
			if p.Cell != g.CenterCell() {
				t.Errorf("current placement at %v, want center %v", p.Cell, g.CenterCell())
			}
		} else if g.Reserved(p.Cell) {
			t.Errorf("entry %d placed on reserved cell %v", p.EntryID, p.Cell)
		}
	}
	if current != 1 {
		t.Errorf("found %d current placements, want exactly 1", current)
	}
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			c := Cell{Col: col, Row: row}
			if g.Occupied(c) != cells[c] {
				t.Errorf("occupied(%v) = %v but referenced = %v", c, g.Occupied(c), cells[c])
			}
		}
	}
}

func TestRenderKeepsPriorPlacementsStable(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	all := entries(8)

	var before []Placement
	for n := 0; n <= len(all); n++ {
		out, _, err := e.Render(ctx, tile(color.RGBA{R: 200, A: 255}), all[:n], testSize)
		if err != nil {
			t.Fatalf("render %d: %v", n, err)
		}
		if out.Bounds().Size() != testSize {
			t.Fatalf("render %d size = %v", n, out.Bounds().Size())
		}

		after := make(map[uint64]Placement)
		for _, p := range e.State(testSize).Placements() {
			if !p.Current {
				after[p.EntryID] = p
			}
		}
		for _, p := range before {
			if p.Current {
				continue
			}
			got, ok := after[p.EntryID]
			if !ok {
				t.Fatalf("render %d lost placement for entry %d", n, p.EntryID)
			}
			if got != p {
				t.Errorf("render %d moved entry %d: %+v -> %+v", n, p.EntryID, p, got)
			}
		}
		if len(after) != n {
			t.Errorf("render %d has %d history placements, want %d", n, len(after), n)
		}
		checkInvariants(t, e.State(testSize))
		before = e.State(testSize).Placements()
	}
}

func TestRerenderWithoutChangesIsIdempotent(t *testing.T) {
	e := newTestEngine()
	prev := entries(5)
	cur := tile(color.RGBA{G: 200, A: 255})

	if _, _, err := e.Render(context.Background(), cur, prev, testSize); err != nil {
		t.Fatal(err)
	}
	first := e.State(testSize).Placements()
	_, stats, err := e.Render(context.Background(), cur, prev, testSize)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Placed != 0 {
		t.Errorf("second render placed %d new images", stats.Placed)
	}
	second := e.State(testSize).Placements()
	if len(first) != len(second) {
		t.Fatalf("placement count changed %d -> %d", len(first), len(second))
	}
	for _, p := range first {
		found := false
		for _, q := range second {
			if p == q {
				found = true
			}
		}
		if !found {
			t.Errorf("placement %+v changed", p)
		}
	}
}

func TestCurrentTrackSingularity(t *testing.T) {
	e := newTestEngine()
	for i := 0; i < 12; i++ {
		if _, _, err := e.Render(context.Background(), tile(color.RGBA{B: 255, A: 255}), entries(i), testSize); err != nil {
			t.Fatal(err)
		}
		checkInvariants(t, e.State(testSize))
	}
	cur, ok := e.State(testSize).CurrentPlacement()
	if !ok {
		t.Fatal("no current placement")
	}
	if cur.Rotation != 0 || cur.CenterX != 250 || cur.CenterY != 200 {
		t.Errorf("current placement %+v not centered and upright", cur)
	}
	cw, ch := e.State(testSize).CellSize()
	if cur.Width != cw*currentScale || cur.Height != ch*currentScale {
		t.Errorf("current size %.1fx%.1f, want 1.4x cell", cur.Width, cur.Height)
	}
}

func TestGridExhaustion(t *testing.T) {
	e := newTestEngine()
	cells := Cols * Rows
	prev := entries(cells + 5)

	out, stats, err := e.Render(context.Background(), tile(color.RGBA{R: 255, A: 255}), prev, testSize)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if out == nil {
		t.Fatal("no raster")
	}
	if !stats.GridFull || !errors.Is(stats.Err(), ErrGridFull) {
		t.Errorf("expected grid full, got %+v", stats)
	}
	if stats.Placed > cells {
		t.Errorf("placed %d, at most %d cells exist", stats.Placed, cells)
	}
	if stats.Placed != HistoryCells || stats.Dropped != len(prev)-HistoryCells {
		t.Errorf("placed %d dropped %d, want %d and %d", stats.Placed, stats.Dropped, HistoryCells, len(prev)-HistoryCells)
	}
	if _, ok := e.State(testSize).NextAvailableCell(e.rng); ok {
		t.Error("grid should have no free cell")
	}
	checkInvariants(t, e.State(testSize))
}

func TestEvictedEntriesFreeTheirCells(t *testing.T) {
	e := newTestEngine()
	prev := entries(6)
	if _, _, err := e.Render(context.Background(), nil, prev, testSize); err != nil {
		t.Fatal(err)
	}
	_, stats, err := e.Render(context.Background(), nil, prev[2:], testSize)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Pruned != 2 {
		t.Errorf("pruned %d, want 2", stats.Pruned)
	}
	for _, p := range e.State(testSize).Placements() {
		if p.EntryID == 1 || p.EntryID == 2 {
			t.Errorf("evicted entry %d still placed", p.EntryID)
		}
	}
	checkInvariants(t, e.State(testSize))
}

func TestRetainDropsOtherSizes(t *testing.T) {
	e := newTestEngine()
	other := image.Pt(300, 200)
	for _, s := range []image.Point{testSize, other} {
		if _, _, err := e.Render(context.Background(), nil, entries(3), s); err != nil {
			t.Fatal(err)
		}
	}
	e.Retain(other)
	if n := len(e.State(testSize).Placements()); n != 0 {
		t.Errorf("size change should start an empty grid, found %d placements", n)
	}
	if n := len(e.State(other).Placements()); n != 4 {
		t.Errorf("retained grid has %d placements, want 4", n)
	}
}

func TestResetClearsSession(t *testing.T) {
	e := newTestEngine()
	if _, _, err := e.Render(context.Background(), nil, entries(4), testSize); err != nil {
		t.Fatal(err)
	}
	e.Reset()
	g := e.State(testSize)
	if len(g.Placements()) != 0 {
		t.Errorf("reset left %d placements", len(g.Placements()))
	}
	if g.Occupied(g.CenterCell()) {
		t.Error("reset left the center cell occupied")
	}
}

func TestCancelledRenderLeavesGridUntouched(t *testing.T) {
	e := newTestEngine()
	if _, _, err := e.Render(context.Background(), nil, entries(2), testSize); err != nil {
		t.Fatal(err)
	}
	before := e.State(testSize).Placements()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := e.Render(ctx, nil, entries(6), testSize); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	after := e.State(testSize).Placements()
	if len(after) != len(before) {
		t.Errorf("cancelled render changed placements %d -> %d", len(before), len(after))
	}
}

func TestPlaceRejectsOccupiedCell(t *testing.T) {
	g := NewGridState(testSize)
	if err := g.Place(Placement{Cell: Cell{0, 0}, EntryID: 1}); err != nil {
		t.Fatal(err)
	}
	if err := g.Place(Placement{Cell: Cell{0, 0}, EntryID: 2}); !errors.Is(err, ErrCellOccupied) {
		t.Errorf("err = %v, want ErrCellOccupied", err)
	}
	if g.RemoveCurrentTrackPlacement() {
		t.Error("no current placement should have been removed")
	}
}

func TestCellsUnderCurrentFrameStayFree(t *testing.T) {
	e := newTestEngine()
	_, stats, err := e.Render(context.Background(), tile(color.RGBA{B: 255, A: 255}), entries(HistoryCells), testSize)
	if err != nil {
		t.Fatal(err)
	}
	if stats.GridFull || stats.Placed != HistoryCells {
		t.Errorf("stats = %+v, want all %d entries placed", stats, HistoryCells)
	}

	g := e.State(testSize)
	checkInvariants(t, g)
	above := Cell{Col: Cols / 2, Row: Rows/2 - 1}
	if !g.Reserved(above) || !g.Reserved(g.CenterCell()) {
		t.Fatalf("cells %v and %v should be reserved", above, g.CenterCell())
	}
	if g.Occupied(above) {
		t.Errorf("history image placed under the current frame at %v", above)
	}

	// The current frame straddles both reserved cells.
	cur, _ := g.CurrentPlacement()
	_, ch := g.CellSize()
	_, aboveY := g.CellCenter(above)
	_, centerY := g.CellCenter(g.CenterCell())
	if cur.CenterY-cur.Height/2 > aboveY || cur.CenterY+cur.Height/2 < centerY {
		t.Errorf("current frame spans y %.1f..%.1f, want it to cover both cell centers (%.1f, %.1f)",
			cur.CenterY-cur.Height/2, cur.CenterY+cur.Height/2, aboveY, centerY)
	}
	if cur.CenterY != float64(testSize.Y)/2 || cur.CenterY != float64(Rows/2)*ch {
		t.Errorf("current center y = %.1f, want canvas center on the row boundary", cur.CenterY)
	}
}

func TestPlaceRejectsReservedCell(t *testing.T) {
	g := NewGridState(testSize)
	above := Cell{Col: Cols / 2, Row: Rows/2 - 1}
	if err := g.Place(Placement{Cell: above, EntryID: 1}); !errors.Is(err, ErrCellReserved) {
		t.Errorf("err = %v, want ErrCellReserved", err)
	}
	if g.Occupied(above) {
		t.Error("rejected placement occupied its cell")
	}
	if err := g.Place(Placement{Cell: g.CenterCell(), Current: true, EntryID: CurrentEntryID}); err != nil {
		t.Errorf("current placement on center cell: %v", err)
	}
}
