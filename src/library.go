package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

var imageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// loadTrack reads artwork and tags from path. Image files are used as-is;
// anything else is read as an audio file with embedded tags.
func loadTrack(path string) (*Track, error) {
	if imageExts[strings.ToLower(filepath.Ext(path))] {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read artwork: %w", err)
		}
		return &Track{Art: data, Source: path}, nil
	}
	return scanTrack(path)
}

// scanTrack reads metadata and embedded artwork from a single audio file
func scanTrack(path string) (*Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	track := &Track{Source: path}

	m, err := tag.ReadFrom(f)
	if err == nil {
		track.Title = m.Title()
		track.Artist = m.Artist()
		if track.Artist == "" {
			track.Artist = m.AlbumArtist()
		}

		if pic := m.Picture(); pic != nil {
			track.Art = pic.Data
			logMsg(fmt.Sprintf("INFO: [SCAN] Track has art: %s | Size: %d bytes, Type: %s, Ext: %s",
				filepath.Base(path), len(pic.Data), pic.MIMEType, pic.Ext))
		} else {
			logMsg(fmt.Sprintf("WARNING: [SCAN] Track has NO art: %s | Format: %T",
				filepath.Base(path), m))
		}
	} else {
		logMsg(fmt.Sprintf("WARNING: [SCAN] Tag read error: %s | Error: %v", filepath.Base(path), err))
	}

	// Fallback: use filename as title
	if track.Title == "" {
		track.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return track, nil
}
