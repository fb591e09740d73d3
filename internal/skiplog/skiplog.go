// file: internal/skiplog/skiplog.go
// version: 1.1.0
// guid: 4c5d6e7f-8a9b-0c1d-2e3f-4a5b6c7d8e90

package skiplog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jdfalk/audibleshelf/internal/models"
)

// DefaultName is the processed-log filename used when no explicit log path
// is configured; it lives in the output directory.
const DefaultName = "processed.json"

// Log is the append-only record of already-processed source files. It is the
// only state shared across runs; consulting it at scan time is what makes
// reruns idempotent.
type Log struct {
	path    string
	entries map[string]models.ProcessedLogEntry
}

// Load reads the processed log at path. A missing or unreadable log is not
// an error: processing starts fresh and the log is recreated on first append.
func Load(path string) *Log {
	l := &Log{
		path:    path,
		entries: make(map[string]models.ProcessedLogEntry),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("[WARN] could not read processed log %s: %v (starting fresh)", path, err)
		}
		return l
	}

	if err := json.Unmarshal(data, &l.entries); err != nil {
		log.Printf("[WARN] could not parse processed log %s: %v (starting fresh)", path, err)
		l.entries = make(map[string]models.ProcessedLogEntry)
	}
	return l
}

// Contains reports whether sourcePath has already been processed.
func (l *Log) Contains(sourcePath string) bool {
	_, ok := l.entries[sourcePath]
	return ok
}

// Len returns the number of recorded entries.
func (l *Log) Len() int {
	return len(l.entries)
}

// Entries returns all log entries sorted by source path.
func (l *Log) Entries() []models.ProcessedLogEntry {
	out := make([]models.ProcessedLogEntry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourcePath < out[j].SourcePath })
	return out
}

// Append records a committed file and persists the log. The file is written
// to a temp path and renamed so a crash mid-write cannot corrupt it.
func (l *Log) Append(sourcePath, destPath, title, asin string) error {
	l.entries[sourcePath] = models.ProcessedLogEntry{
		SourcePath: sourcePath,
		DestPath:   destPath,
		Title:      title,
		ASIN:       asin,
		Timestamp:  time.Now().UTC(),
	}
	return l.save()
}

func (l *Log) save() error {
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(l.entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode processed log: %w", err)
	}

	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write processed log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace processed log: %w", err)
	}
	return nil
}

// PathFor returns the configured log path, defaulting to DefaultName inside
// the output directory.
func PathFor(logPath, outputDir string) string {
	if logPath != "" {
		return logPath
	}
	return filepath.Join(outputDir, DefaultName)
}
