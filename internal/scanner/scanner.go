// file: internal/scanner/scanner.go
// version: 2.0.0
// guid: 6e7f8a9b-0c1d-2e3f-4a5b-6c7d8e9f0a1c

package scanner

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/library"
	"github.com/jdfalk/audibleshelf/internal/metrics"
	"github.com/jdfalk/audibleshelf/internal/skiplog"
)

// FindFiles walks the input directory and returns the audio files that still
// need processing: supported extension, at or above the configured minimum
// size, and not yet in the processed log. The failed-files folder is never
// descended into. Results are sorted for deterministic batch order.
func FindFiles(cfg *config.Config, processed *skiplog.Log) ([]string, error) {
	if _, err := os.Stat(cfg.InputDir); err != nil {
		return nil, fmt.Errorf("input directory not accessible: %w", err)
	}

	minBytes := int64(cfg.MinFileSizeMB) * 1024 * 1024
	var found []string

	err := filepath.WalkDir(cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("[WARN] skipping unreadable path %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if d.Name() == library.FailedDirName {
				return filepath.SkipDir
			}
			return nil
		}

		if !cfg.IsSupportedExtension(filepath.Ext(path)) {
			return nil
		}

		if processed != nil && processed.Contains(path) {
			log.Printf("[DEBUG] skipping already processed file: %s", path)
			metrics.IncSkipped()
			return nil
		}

		info, err := d.Info()
		if err != nil {
			log.Printf("[WARN] could not stat %s: %v", path, err)
			return nil
		}
		if info.Size() < minBytes {
			log.Printf("[DEBUG] skipping small file %s (%.2f MB)", path, float64(info.Size())/(1024*1024))
			return nil
		}

		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	sort.Strings(found)
	return found, nil
}
