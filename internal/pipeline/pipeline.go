// file: internal/pipeline/pipeline.go
// version: 1.2.0
// guid: 6c7d8e9f-0a1b-2c3d-4e5f-6a7b8c9d0eb6

package pipeline

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/jdfalk/audibleshelf/internal/catalog"
	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/library"
	"github.com/jdfalk/audibleshelf/internal/matcher"
	"github.com/jdfalk/audibleshelf/internal/metrics"
	"github.com/jdfalk/audibleshelf/internal/models"
	"github.com/jdfalk/audibleshelf/internal/scanner"
	"github.com/jdfalk/audibleshelf/internal/skiplog"
	"github.com/jdfalk/audibleshelf/internal/tags"
)

// Catalog is the remote lookup surface the pipeline needs. Satisfied by
// catalog.Client.
type Catalog interface {
	FetchByASIN(asin string) (*models.MetadataRecord, error)
	Search(title, author string) ([]models.MetadataRecord, error)
	SearchKeywords(keywords string) ([]models.MetadataRecord, error)
}

// Summary reports batch results.
type Summary struct {
	Processed int
	Failed    int
}

// Runner drives the per-file pipeline sequentially: tag read, ASIN waterfall,
// catalog fetch, merge, library commit, processed-log append. One file at a
// time, no shared state beyond the processed log.
type Runner struct {
	cfg      *config.Config
	catalog  Catalog
	manager  *library.Manager
	log      *skiplog.Log
	asinMap  map[string]string
	readTags func(string) (models.LocalFileInfo, error)

	// ShowProgress draws a progress bar over the batch, for CLI use.
	ShowProgress bool
}

// NewRunner creates a pipeline runner.
func NewRunner(cfg *config.Config, cat Catalog, manager *library.Manager, processedLog *skiplog.Log, asinMap map[string]string) *Runner {
	return &Runner{
		cfg:      cfg,
		catalog:  cat,
		manager:  manager,
		log:      processedLog,
		asinMap:  asinMap,
		readTags: tags.Read,
	}
}

// Run scans the input directory and processes every pending file in order.
func (r *Runner) Run() (Summary, error) {
	files, err := scanner.FindFiles(r.cfg, r.log)
	if err != nil {
		return Summary{}, err
	}

	fmt.Printf("Found %d new audio files to process\n", len(files))

	var bar *progressbar.ProgressBar
	if r.ShowProgress && len(files) > 0 {
		bar = progressbar.Default(int64(len(files)))
	}

	var summary Summary
	for _, path := range files {
		if err := r.ProcessFile(path); err != nil {
			log.Printf("[WARN] %s: %v", filepath.Base(path), err)
			summary.Failed++
		} else {
			summary.Processed++
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	fmt.Printf("Processing complete: %d processed, %d failed\n", summary.Processed, summary.Failed)
	return summary, nil
}

// ProcessFile runs the full pipeline for one file.
func (r *Runner) ProcessFile(path string) error {
	local, err := r.readTags(path)
	if err != nil {
		// Bad local file: skip it and let the batch continue. It stays in
		// place for the user to inspect.
		metrics.IncFailed("read")
		return fmt.Errorf("skipping unreadable file: %w", err)
	}

	asin := r.resolveASIN(path, local)
	if asin == "" {
		metrics.IncFailed("identify")
		if err := r.manager.MoveToFailed(path); err != nil {
			log.Printf("[WARN] could not stash failed file %s: %v", path, err)
		}
		return fmt.Errorf("no ASIN could be determined")
	}

	record, err := r.catalog.FetchByASIN(asin)
	if err != nil {
		metrics.IncCatalogRequest("error")
		metrics.IncFailed("fetch")
		if err := r.manager.MoveToFailed(path); err != nil {
			log.Printf("[WARN] could not stash failed file %s: %v", path, err)
		}
		return fmt.Errorf("catalog fetch for %s failed: %w", asin, err)
	}
	metrics.IncCatalogRequest("hit")

	merged := matcher.Merge(local, record, r.cfg.Precedence)
	if merged.Title == "" {
		metrics.IncFailed("fetch")
		if err := r.manager.MoveToFailed(path); err != nil {
			log.Printf("[WARN] could not stash failed file %s: %v", path, err)
		}
		return fmt.Errorf("no title for %s after merge", asin)
	}

	start := time.Now()
	dest, err := r.manager.Commit(merged, path)
	if err != nil {
		metrics.IncFailed("commit")
		return fmt.Errorf("commit failed: %w", err)
	}
	metrics.ObserveCommitDuration(time.Since(start))

	if !r.cfg.DryRun {
		if err := r.log.Append(path, dest.AudioPath, merged.Title, merged.ASIN); err != nil {
			log.Printf("[WARN] could not update processed log: %v", err)
		}
	}

	metrics.IncProcessed()
	log.Printf("[INFO] committed %q -> %s", merged.Title, dest.Dir)
	return nil
}

// resolveASIN walks the identification waterfall: explicit map entry,
// embedded tag, filename pattern, tag-based search, then filename search.
func (r *Runner) resolveASIN(path string, local models.LocalFileInfo) string {
	if asin, ok := r.asinMap[filepath.Base(path)]; ok && asin != "" {
		log.Printf("[DEBUG] ASIN from map: %s", asin)
		return asin
	}

	if local.ASIN != "" {
		log.Printf("[DEBUG] ASIN from embedded tag: %s", local.ASIN)
		return local.ASIN
	}

	if asin := tags.ASINFromFilename(path); asin != "" {
		log.Printf("[DEBUG] ASIN from filename: %s", asin)
		return asin
	}

	if local.Title != "" && local.Author != "" {
		if asin := r.searchFirst(func() ([]models.MetadataRecord, error) {
			return r.catalog.Search(local.Title, local.Author)
		}); asin != "" {
			log.Printf("[DEBUG] ASIN from tag search: %s", asin)
			return asin
		}
	}

	term := tags.CleanSearchTerm(path)
	if dir := filepath.Base(filepath.Dir(path)); dir != "" && dir != "." && filepath.Dir(path) != r.cfg.InputDir {
		term = tags.CleanSearchTerm(dir) + " " + term
	}
	if asin := r.searchFirst(func() ([]models.MetadataRecord, error) {
		return r.catalog.SearchKeywords(term)
	}); asin != "" {
		log.Printf("[DEBUG] ASIN from filename search: %s", asin)
		return asin
	}

	return ""
}

func (r *Runner) searchFirst(search func() ([]models.MetadataRecord, error)) string {
	results, err := search()
	if err != nil {
		var netErr *catalog.NetworkError
		if errors.As(err, &netErr) {
			metrics.IncCatalogRequest("error")
		}
		log.Printf("[WARN] catalog search failed: %v", err)
		return ""
	}
	if len(results) == 0 {
		return ""
	}
	return results[0].ASIN
}
