package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/danfragoso/coverwall/internal/compositor"
	"github.com/google/uuid"
)

var ErrUnknownOutput = errors.New("unknown output file")

// OutputCache keeps the most recent rendered wallpapers on disk. Files are
// named <uuid>_<w>x<h>.png; once more than max files exist the oldest go.
type OutputCache struct {
	dir string
	max int

	mu    sync.Mutex
	names []string // oldest first
}

// newOutputCache creates dir if needed and adopts the PNGs already in it.
func newOutputCache(dir string, max int) (*OutputCache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read output dir: %w", err)
	}

	type existing struct {
		name string
		mod  int64
	}
	var found []existing
	for _, e := range entries {
		if e.IsDir() || !isOutputName(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		found = append(found, existing{e.Name(), info.ModTime().UnixNano()})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].mod < found[j].mod })

	c := &OutputCache{dir: dir, max: max}
	for _, f := range found {
		c.names = append(c.names, f.name)
	}
	c.mu.Lock()
	c.evictLocked()
	c.mu.Unlock()
	return c, nil
}

// Commit writes every raster of res and evicts old files. A commit is all or
// nothing: if any raster fails to write, the files already written for res
// are removed again and the cache is left as it was.
func (c *OutputCache) Commit(res *compositor.Result) ([]OutputFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := uuid.New().String()
	files := make([]OutputFile, 0, len(res.Rasters))
	for _, r := range res.Rasters {
		name := fmt.Sprintf("%s_%dx%d.png", id, r.Size.X, r.Size.Y)
		path := filepath.Join(c.dir, name)
		if err := writeRaster(path, r); err != nil {
			c.discard(files)
			return nil, err
		}
		files = append(files, OutputFile{Name: name, Path: path, Width: r.Size.X, Height: r.Size.Y})
	}
	for _, f := range files {
		c.names = append(c.names, f.Name)
	}
	c.evictLocked()
	return files, nil
}

// discard removes the files of a failed commit.
func (c *OutputCache) discard(files []OutputFile) {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logMsg(fmt.Sprintf("WARNING: Failed to remove partial output %s: %v", f.Name, err))
		}
	}
}

func writeRaster(path string, r compositor.Raster) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	if err := r.EncodePNG(f); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}

// Path resolves a file name previously returned by Commit.
func (c *OutputCache) Path(name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.names {
		if n == name {
			return filepath.Join(c.dir, name), nil
		}
	}
	return "", ErrUnknownOutput
}

// Len returns the number of cached files.
func (c *OutputCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.names)
}

func (c *OutputCache) evictLocked() {
	for len(c.names) > c.max {
		name := c.names[0]
		c.names = c.names[1:]
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			logMsg(fmt.Sprintf("WARNING: Failed to evict %s: %v", name, err))
			continue
		}
		logMsg(fmt.Sprintf("DEBUG: Evicted %s", name))
	}
}

// isOutputName matches <uuid>_<w>x<h>.png.
func isOutputName(name string) bool {
	base, ok := strings.CutSuffix(name, ".png")
	if !ok {
		return false
	}
	id, size, ok := strings.Cut(base, "_")
	if !ok {
		return false
	}
	if _, err := uuid.Parse(id); err != nil {
		return false
	}
	var w, h int
	n, err := fmt.Sscanf(size, "%dx%d", &w, &h)
	return err == nil && n == 2 && w > 0 && h > 0
}
