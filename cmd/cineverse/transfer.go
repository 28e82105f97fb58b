package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/cineverse/internal/watchlist"
)

// exportWatchlist writes to stdout for "-", into a dated file when path is a
// directory, and to path otherwise.
func exportWatchlist(wl *watchlist.Watchlist, path string) error {
	if path == "-" {
		return wl.WriteExport(os.Stdout)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, watchlist.ExportFileName(time.Now()))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	if err := wl.WriteExport(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	fmt.Fprintf(os.Stderr, "✓ Exported %d titles to %s\n", wl.Count(), path)
	return nil
}

func importWatchlist(wl *watchlist.Watchlist, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	defer f.Close()

	added, err := wl.Import(f)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Imported %d new titles (%d total)\n", added, wl.Count())
	return nil
}
