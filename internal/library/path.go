// file: internal/library/path.go
// version: 1.2.0
// guid: 8a9b0c1d-2e3f-4a5b-6c7d-8e9f0a1b2c3e

package library

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jdfalk/audibleshelf/internal/models"
)

// FailedDirName is the folder under the output directory that collects files
// no processing strategy could handle.
const FailedDirName = "__FAILED_TO_PROCESS__"

const maxSegmentLength = 200

// Destination is a planned landing spot for one audiobook.
type Destination struct {
	Dir       string // book folder, receives sidecars and cover
	AudioPath string // renamed audio file inside Dir
}

// PlanDestination computes the destination paths for a finalized record from
// the configured naming patterns. The record must have a non-empty title.
// Every expanded value is sanitized per segment, so the result never contains
// traversal segments regardless of what the catalog returned.
func (m *Manager) PlanDestination(record *models.MetadataRecord, srcPath string) (Destination, error) {
	if record == nil || strings.TrimSpace(record.Title) == "" {
		return Destination{}, fmt.Errorf("record has no title, cannot compute destination")
	}

	folder := expandPattern(m.cfg.FolderNamingPattern, record, m.cfg.MultiValueDelimiter)
	folder = sanitizePath(folder)
	if folder == "" {
		return Destination{}, fmt.Errorf("folder pattern expanded to nothing for %q", record.Title)
	}

	file := expandPattern(m.cfg.FileNamingPattern, record, m.cfg.MultiValueDelimiter)
	file = sanitizeFilename(file)
	if file == "" {
		file = sanitizeFilename(record.Title)
	}

	dir := filepath.Join(m.cfg.OutputDir, filepath.FromSlash(folder))
	return Destination{
		Dir:       dir,
		AudioPath: filepath.Join(dir, file+strings.ToLower(filepath.Ext(srcPath))),
	}, nil
}

// expandPattern expands a naming pattern with record fields
func expandPattern(pattern string, record *models.MetadataRecord, delimiter string) string {
	if delimiter == "" {
		delimiter = " & "
	}

	replacements := map[string]string{
		"{title}":         record.Title,
		"{subtitle}":      record.Subtitle,
		"{author}":        record.PrimaryAuthor(),
		"{authors}":       record.JoinedAuthors(delimiter),
		"{narrator}":      record.JoinedNarrators(delimiter),
		"{series}":        record.Series,
		"{series_number}": record.SeriesSequence,
		"{year}":          record.Year,
		"{asin}":          record.ASIN,
	}

	result := pattern
	for placeholder, value := range replacements {
		if value == "" {
			result = removeEmptySegment(result, placeholder)
		} else {
			result = strings.ReplaceAll(result, placeholder, value)
		}
	}

	return cleanupPattern(result)
}

// removeEmptySegment removes segments containing empty placeholders
func removeEmptySegment(pattern, placeholder string) string {
	patterns := []string{
		fmt.Sprintf(` - %s`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`%s - `, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\(%s[^)]*\)`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`\([^(]*%s\)`, regexp.QuoteMeta(placeholder)),
		fmt.Sprintf(`/%s`, regexp.QuoteMeta(placeholder)),
		regexp.QuoteMeta(placeholder),
	}

	result := pattern
	for _, p := range patterns {
		re := regexp.MustCompile(p)
		result = re.ReplaceAllString(result, "")
	}
	return result
}

// cleanupPattern cleans up extra spaces, dashes, and parentheses
func cleanupPattern(pattern string) string {
	re := regexp.MustCompile(`\s+`)
	pattern = re.ReplaceAllString(pattern, " ")

	re = regexp.MustCompile(`\(\s*\)`)
	pattern = re.ReplaceAllString(pattern, "")

	re = regexp.MustCompile(`/+`)
	pattern = re.ReplaceAllString(pattern, "/")

	pattern = strings.Trim(pattern, " -/")

	return pattern
}

// sanitizePath sanitizes a slash-separated relative path segment by segment.
// Dot and dot-dot segments are dropped entirely.
func sanitizePath(path string) string {
	parts := strings.Split(path, "/")
	kept := make([]string, 0, len(parts))
	for _, part := range parts {
		part = sanitizeFilename(part)
		if part == "" || part == "." || part == ".." {
			continue
		}
		kept = append(kept, part)
	}
	return strings.Join(kept, "/")
}

// sanitizeFilename sanitizes a single path segment for filesystem use. The
// result never contains separators, so expanded metadata cannot escape the
// output directory. Over-long names are cut at a word boundary when one is
// close enough.
func sanitizeFilename(name string) string {
	invalid := []string{"<", ">", ":", "\"", "|", "?", "*", "/", "\\", "\n", "\r", "\t"}
	for _, char := range invalid {
		name = strings.ReplaceAll(name, char, "")
	}

	re := regexp.MustCompile(`\s+`)
	name = re.ReplaceAllString(name, " ")
	name = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(name), "."))

	if len(name) > maxSegmentLength {
		cut := name[:maxSegmentLength]
		if idx := strings.LastIndex(cut, " "); idx > 0 {
			cut = cut[:idx]
		}
		name = strings.TrimSpace(cut)
	}

	return name
}
