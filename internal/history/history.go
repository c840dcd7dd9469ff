// Package history keeps a bounded, ordered buffer of down-scaled artwork from
// recently rendered tracks.
package history

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/image/draw"
)

// Buffer limits
const (
	ThumbSize       = 300
	SoftCap         = 20 // applied on every Push
	HardCap         = 15 // applied by Cleanup
	CleanupInterval = 10 * time.Second
)

// Entry is one remembered artwork. IDs grow monotonically within a Buffer and
// are never reused, so they stay valid while older entries are evicted.
type Entry struct {
	ID    uint64
	Image image.Image
}

// Buffer is a FIFO of Entries with two eviction thresholds. It is safe for
// concurrent use.
type Buffer struct {
	mu      sync.Mutex
	entries []Entry
	nextID  uint64
	logger  *slog.Logger
}

// New returns an empty Buffer. A nil logger disables logging.
func New(logger *slog.Logger) *Buffer {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Buffer{logger: logger, nextID: 1}
}

// Push stores a thumbnail of img and trims the front down to SoftCap.
func (b *Buffer) Push(img image.Image) Entry {
	thumb := Thumbnail(img, ThumbSize)

	b.mu.Lock()
	defer b.mu.Unlock()

	e := Entry{ID: b.nextID, Image: thumb}
	b.nextID++
	b.entries = append(b.entries, e)
	if n := len(b.entries) - SoftCap; n > 0 {
		b.evict(n)
		b.logger.Debug("history: soft cap eviction", "evicted", n)
	}
	return e
}

// Cleanup trims the front down to HardCap and reports how many entries were
// dropped.
func (b *Buffer) Cleanup() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.entries) - HardCap
	if n <= 0 {
		return 0
	}
	b.evict(n)
	b.logger.Debug("history: cleanup eviction", "evicted", n, "remaining", len(b.entries))
	return n
}

// Run calls Cleanup every interval until ctx is cancelled.
func (b *Buffer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = CleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Cleanup()
		}
	}
}

// Snapshot returns a copy of the entries, oldest first. With previousOnly the
// newest entry (the track just pushed) is left out.
func (b *Buffer) Snapshot(previousOnly bool) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(b.entries)
	if previousOnly && n > 0 {
		n--
	}
	out := make([]Entry, n)
	copy(out, b.entries[:n])
	return out
}

// Len returns the number of stored entries.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Reset drops every entry. IDs keep increasing.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = nil
}

func (b *Buffer) evict(n int) {
	// Shift instead of reslicing so evicted images can be collected.
	copy(b.entries, b.entries[n:])
	for i := len(b.entries) - n; i < len(b.entries); i++ {
		b.entries[i] = Entry{}
	}
	b.entries = b.entries[:len(b.entries)-n]
}

// Thumbnail scales img to fit a box x box square, preserving aspect ratio.
// Images already inside the box are copied unchanged.
func Thumbnail(img image.Image, box int) *image.RGBA {
	if img == nil {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.NewRGBA(image.Rect(0, 0, 0, 0))
	}

	newW, newH := w, h
	if w > box || h > box {
		if w > h {
			newW = box
			newH = max(1, h*box/w)
		} else {
			newH = box
			newW = max(1, w*box/h)
		}
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
