package main

import (
	"context"
	"fmt"
)

// logApplier only records where the wallpapers were written. Setting them on
// the desktop is left to whatever watches the output directory.
type logApplier struct{}

func (logApplier) Apply(_ context.Context, files []OutputFile) error {
	for _, f := range files {
		logMsg(fmt.Sprintf("INFO: Wallpaper ready %dx%d: %s", f.Width, f.Height, f.Path))
	}
	return nil
}
