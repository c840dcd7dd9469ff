// Package collage lays album artwork out on a persistent grid. Placements are
// added incrementally as new tracks arrive and are never moved afterwards, so
// successive renders of the same canvas size only ever grow the collage.
package collage

import (
	"errors"
	"image"
	"math/rand/v2"
)

// Grid geometry
const (
	Cols          = 5
	Rows          = 4
	OverlapFactor = 0.4
)

// HistoryCells is the number of cells open to history images; the rest sit
// under the current track's frame.
const HistoryCells = Cols*Rows - 2

// CurrentEntryID marks the now-playing placement. History IDs start at 1.
const CurrentEntryID uint64 = 0

var (
	ErrGridFull     = errors.New("collage grid is full")
	ErrCellOccupied = errors.New("collage cell already occupied")
	ErrCellReserved = errors.New("collage cell reserved for the current track")
)

// Cell addresses one grid slot.
type Cell struct {
	Col, Row int
}

// Placement fixes one image's position, rotation and size in the collage.
type Placement struct {
	Cell             Cell
	CenterX, CenterY float64
	Rotation         float64 // degrees
	Width, Height    float64
	Current          bool
	EntryID          uint64 // history entry, or CurrentEntryID
}

// GridState is the layout of one canvas size. The occupied set always equals
// the set of cells referenced by placements, and at most one placement is
// the current track.
type GridState struct {
	size         image.Point
	cellW, cellH float64
	occupied     map[Cell]bool
	placements   []Placement
}

// NewGridState returns an empty Cols x Rows grid for a canvas of size.
func NewGridState(size image.Point) *GridState {
	return &GridState{
		size:     size,
		cellW:    float64(size.X) / Cols,
		cellH:    float64(size.Y) / Rows,
		occupied: make(map[Cell]bool),
	}
}

func (g *GridState) Size() image.Point { return g.size }

func (g *GridState) CellSize() (float64, float64) { return g.cellW, g.cellH }

// CenterCell is the fixed slot of the current track. The current frame is
// drawn at the canvas center rather than the middle of this cell: with an even
// row count that point is the edge between CenterCell and the cell above it,
// so both are reserved (see Reserved).
func (g *GridState) CenterCell() Cell {
	return Cell{Col: Cols / 2, Row: Rows / 2}
}

// Reserved reports whether c lies under the current track's frame and is
// therefore never handed to a history image.
func (g *GridState) Reserved(c Cell) bool {
	center := g.CenterCell()
	return c.Col == center.Col && (c.Row == center.Row || c.Row == center.Row-1)
}

// CellCenter returns the canvas coordinates of the middle of c.
func (g *GridState) CellCenter(c Cell) (float64, float64) {
	return (float64(c.Col) + 0.5) * g.cellW, (float64(c.Row) + 0.5) * g.cellH
}

// NextAvailableCell picks a uniformly random unoccupied, unreserved cell. It
// reports false when the grid is full.
func (g *GridState) NextAvailableCell(rng *rand.Rand) (Cell, bool) {
	free := make([]Cell, 0, Cols*Rows)
	for row := 0; row < Rows; row++ {
		for col := 0; col < Cols; col++ {
			c := Cell{Col: col, Row: row}
			if !g.occupied[c] && !g.Reserved(c) {
				free = append(free, c)
			}
		}
	}
	if len(free) == 0 {
		return Cell{}, false
	}
	return free[rng.IntN(len(free))], true
}

// Place marks p's cell occupied and appends p.
func (g *GridState) Place(p Placement) error {
	if p.Current {
		g.RemoveCurrentTrackPlacement()
	}
	if !p.Current && g.Reserved(p.Cell) {
		return ErrCellReserved
	}
	if g.occupied[p.Cell] {
		return ErrCellOccupied
	}
	g.occupied[p.Cell] = true
	g.placements = append(g.placements, p)
	return nil
}

// RemoveCurrentTrackPlacement frees the current track's cell. It reports
// whether a placement was removed.
func (g *GridState) RemoveCurrentTrackPlacement() bool {
	return g.removeWhere(func(p Placement) bool { return p.Current }) > 0
}

// CurrentPlacement returns the current track's placement, if any.
func (g *GridState) CurrentPlacement() (Placement, bool) {
	for _, p := range g.placements {
		if p.Current {
			return p, true
		}
	}
	return Placement{}, false
}

// Placements returns a copy of the placements in insertion order.
func (g *GridState) Placements() []Placement {
	out := make([]Placement, len(g.placements))
	copy(out, g.placements)
	return out
}

// Occupied reports whether c holds a placement.
func (g *GridState) Occupied(c Cell) bool { return g.occupied[c] }

// Reset clears every placement.
func (g *GridState) Reset() {
	g.placements = nil
	g.occupied = make(map[Cell]bool)
}

func (g *GridState) removeWhere(match func(Placement) bool) int {
	kept := g.placements[:0]
	removed := 0
	for _, p := range g.placements {
		if match(p) {
			delete(g.occupied, p.Cell)
			removed++
			continue
		}
		kept = append(kept, p)
	}
	g.placements = kept
	return removed
}
