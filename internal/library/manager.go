// file: internal/library/manager.go
// version: 1.3.0
// guid: 9b0c1d2e-3f4a-5b6c-7d8e-9f0a1b2c3d4f

package library

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/models"
)

// CoverFetcher downloads a cover image to a local path. Satisfied by the
// catalog client; injected so commits are testable without a network.
type CoverFetcher interface {
	DownloadCover(coverURL, destPath string) error
}

// Manager commits finalized records to the library: it computes destination
// paths, relocates the audio file, and writes the sidecar package.
type Manager struct {
	cfg    *config.Config
	covers CoverFetcher
}

// NewManager creates a library manager.
func NewManager(cfg *config.Config, covers CoverFetcher) *Manager {
	return &Manager{cfg: cfg, covers: covers}
}

// Commit relocates srcPath into the library and writes sidecars and cover
// art next to it. The commit is copy-first: the source is only removed (in
// move mode) after the audio copy and sidecars succeeded, so any failure
// leaves the source untouched. A failed cover download is logged and does
// not fail the commit. Dry-run mode logs intent and touches nothing.
func (m *Manager) Commit(record *models.MetadataRecord, srcPath string) (Destination, error) {
	dest, err := m.PlanDestination(record, srcPath)
	if err != nil {
		return Destination{}, err
	}

	if m.cfg.DryRun {
		log.Printf("[DRY RUN] would commit %s -> %s", srcPath, dest.AudioPath)
		log.Printf("[DRY RUN] would write sidecars and cover into %s", dest.Dir)
		return dest, nil
	}

	if _, err := os.Stat(dest.AudioPath); err == nil {
		return Destination{}, &FileSystemError{Path: dest.AudioPath, Op: "commit", Err: fmt.Errorf("destination already exists")}
	}

	if err := os.MkdirAll(dest.Dir, 0755); err != nil {
		return Destination{}, &FileSystemError{Path: dest.Dir, Op: "mkdir", Err: err}
	}

	if err := copyFile(srcPath, dest.AudioPath); err != nil {
		os.Remove(dest.AudioPath)
		return Destination{}, &FileSystemError{Path: dest.AudioPath, Op: "copy", Err: err}
	}

	if err := m.WriteSidecars(record, dest.Dir); err != nil {
		os.Remove(dest.AudioPath)
		return Destination{}, &FileSystemError{Path: dest.Dir, Op: "sidecar write", Err: err}
	}

	// Cover failures are tolerated: the library entry is complete enough
	// without the image and the URL is kept in the metadata sidecar.
	if record.CoverURL != "" && m.covers != nil {
		if err := m.covers.DownloadCover(record.CoverURL, filepath.Join(dest.Dir, "cover.jpg")); err != nil {
			log.Printf("[WARN] cover download failed for %q: %v", record.Title, err)
		}
	}

	if m.cfg.MoveFiles {
		if err := os.Remove(srcPath); err != nil {
			// The copy is in place; losing the delete only costs disk space.
			log.Printf("[WARN] could not remove source %s after move: %v", srcPath, err)
		}
	}

	return dest, nil
}

// CreateFolder builds the destination folder with sidecars and cover but no
// audio file. Used by the lookup command to pre-create library entries from
// bare ASINs.
func (m *Manager) CreateFolder(record *models.MetadataRecord) (Destination, error) {
	dest, err := m.PlanDestination(record, "")
	if err != nil {
		return Destination{}, err
	}

	if m.cfg.DryRun {
		log.Printf("[DRY RUN] would create folder %s with sidecars", dest.Dir)
		return dest, nil
	}

	if err := os.MkdirAll(dest.Dir, 0755); err != nil {
		return Destination{}, &FileSystemError{Path: dest.Dir, Op: "mkdir", Err: err}
	}
	if err := m.WriteSidecars(record, dest.Dir); err != nil {
		return Destination{}, &FileSystemError{Path: dest.Dir, Op: "sidecar write", Err: err}
	}
	if record.CoverURL != "" && m.covers != nil {
		if err := m.covers.DownloadCover(record.CoverURL, filepath.Join(dest.Dir, "cover.jpg")); err != nil {
			log.Printf("[WARN] cover download failed for %q: %v", record.Title, err)
		}
	}
	return dest, nil
}

// MoveToFailed copies (or in move mode, moves) a file nothing could process
// into the failed-files folder under the library root for manual review.
func (m *Manager) MoveToFailed(srcPath string) error {
	failedDir := filepath.Join(m.cfg.OutputDir, FailedDirName)
	destPath := filepath.Join(failedDir, filepath.Base(srcPath))

	if m.cfg.DryRun {
		log.Printf("[DRY RUN] would move failed file to %s", destPath)
		return nil
	}

	if err := os.MkdirAll(failedDir, 0755); err != nil {
		return &FileSystemError{Path: failedDir, Op: "mkdir", Err: err}
	}
	if err := copyFile(srcPath, destPath); err != nil {
		return &FileSystemError{Path: destPath, Op: "copy", Err: err}
	}
	if m.cfg.MoveFiles {
		if err := os.Remove(srcPath); err != nil {
			log.Printf("[WARN] could not remove source %s after move: %v", srcPath, err)
		}
	}
	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}

	if err := destFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}

	return nil
}
