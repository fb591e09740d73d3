// file: internal/models/record.go
// version: 1.1.0
// guid: 2f3a4b5c-6d7e-8f9a-0b1c-2d3e4f5a6b7c

package models

import (
	"strings"
	"time"
)

// MetadataRecord is the catalog-shaped view of a single audiobook. One record
// is owned by the pipeline invocation that produced it until it is committed
// to the processed log.
type MetadataRecord struct {
	ASIN           string   `json:"asin"`
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle,omitempty"`
	Authors        []string `json:"authors"`
	Narrators      []string `json:"narrators"`
	Series         string   `json:"series,omitempty"`
	SeriesSequence string   `json:"series_sequence,omitempty"`
	Description    string   `json:"description,omitempty"`
	ReleaseDate    string   `json:"release_date,omitempty"`
	Year           string   `json:"year,omitempty"`
	Rating         *float64 `json:"rating,omitempty"`
	CoverURL       string   `json:"cover_url,omitempty"`
	ProductURL     string   `json:"product_url,omitempty"`

	// MatchScore is a display-only similarity annotation added when ranking
	// search candidates against local tags. It never reorders results.
	MatchScore *int `json:"match_score,omitempty"`
}

// PrimaryAuthor returns the first author, or "Unknown Author" when none is set.
func (r *MetadataRecord) PrimaryAuthor() string {
	if len(r.Authors) > 0 && r.Authors[0] != "" {
		return r.Authors[0]
	}
	return "Unknown Author"
}

// JoinedAuthors returns all authors joined by sep.
func (r *MetadataRecord) JoinedAuthors(sep string) string {
	return joinNonEmpty(r.Authors, sep)
}

// JoinedNarrators returns all narrators joined by sep.
func (r *MetadataRecord) JoinedNarrators(sep string) string {
	return joinNonEmpty(r.Narrators, sep)
}

func joinNonEmpty(values []string, sep string) string {
	kept := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			kept = append(kept, v)
		}
	}
	return strings.Join(kept, sep)
}

// LocalFileInfo holds what could be read off the file itself: path, the
// embedded tag subset, and the embedded cover when present.
type LocalFileInfo struct {
	Path      string `json:"path"`
	ASIN      string `json:"asin,omitempty"`
	Title     string `json:"title,omitempty"`
	Author    string `json:"author,omitempty"`
	CoverData []byte `json:"-"`
	CoverMIME string `json:"cover_mime,omitempty"`
}

// HasCover reports whether an embedded cover image was found.
func (l *LocalFileInfo) HasCover() bool {
	return len(l.CoverData) > 0
}

// ProcessedLogEntry records a committed file. Entries are appended once a
// commit succeeds and consulted at scan time to keep reruns idempotent.
type ProcessedLogEntry struct {
	SourcePath string    `json:"source_path"`
	DestPath   string    `json:"dest_path"`
	Title      string    `json:"title,omitempty"`
	ASIN       string    `json:"asin,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
