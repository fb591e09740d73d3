// file: internal/tags/reader.go
// version: 1.2.0
// guid: 9d0e1f2a-3b4c-5d6e-7f8a-9b0c1d2e3f4b

package tags

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dhowden/tag"

	"github.com/jdfalk/audibleshelf/internal/models"
)

// ErrUnsupportedFile signals that the path does not point to a readable,
// supported audio container.
var ErrUnsupportedFile = errors.New("unsupported audio file")

// asinRawKeys are the raw frame/atom names where an ASIN may be embedded,
// in lookup order. TXXX frames for ID3, freeform atoms for MP4, and the
// CDEK atom Audible's own encoder writes.
var asinRawKeys = []string{
	"TXXX:ASIN",
	"TXXX:Asin",
	"ASIN",
	"----:com.apple.iTunes:ASIN",
	"CDEK",
}

// asinInFilenameRe matches an Audible ASIN embedded in a filename.
var asinInFilenameRe = regexp.MustCompile(`\b(B0[0-9A-Z]{8})\b`)

// filenameKeepWordsRe preserves "Book 2" / "Part IV" style markers when
// cleaning a filename into a search term.
var filenameKeepWordsRe = regexp.MustCompile(`(?i)\b(book|part|bk|pt|act)\b[ \-]*(\d+|[IVXLCDM]+)\b`)

var (
	filenameCleanRe = regexp.MustCompile(`[_\-.]+`)
	multiSpaceRe    = regexp.MustCompile(`\s+`)
)

// Read extracts the embedded tag subset this tool cares about (title, author,
// ASIN, cover art) from an audio file. A file with no tags at all yields a
// LocalFileInfo with only Path set. Read has no side effects on the file.
func Read(path string) (models.LocalFileInfo, error) {
	info := models.LocalFileInfo{Path: path}

	f, err := os.Open(path)
	if err != nil {
		return info, fmt.Errorf("%w: %s: %v", ErrUnsupportedFile, path, err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		if errors.Is(err, tag.ErrNoTagsFound) {
			return info, nil
		}
		return info, fmt.Errorf("%w: %s: %v", ErrUnsupportedFile, path, err)
	}

	info.Title = strings.TrimSpace(m.Title())
	info.Author = strings.TrimSpace(m.Artist())
	info.ASIN = extractASIN(m)

	if pic := m.Picture(); pic != nil && len(pic.Data) > 0 {
		info.CoverData = pic.Data
		info.CoverMIME = pic.MIMEType
		if info.CoverMIME == "" {
			info.CoverMIME = "image/jpeg"
		}
	}

	return info, nil
}

// extractASIN hunts the raw tag map for an ASIN, then falls back to an
// "ASIN: B0..." marker inside the comment field.
func extractASIN(m tag.Metadata) string {
	raw := m.Raw()
	for _, key := range asinRawKeys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		if s := rawString(v); s != "" {
			return s
		}
	}

	comment := m.Comment()
	if idx := strings.Index(comment, "ASIN:"); idx >= 0 {
		rest := strings.TrimSpace(comment[idx+len("ASIN:"):])
		if fields := strings.Fields(rest); len(fields) > 0 {
			return fields[0]
		}
	}

	return ""
}

// rawString normalizes a raw tag value. Values arrive as strings for ID3
// frames and byte slices for MP4 freeform atoms.
func rawString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	default:
		return ""
	}
}

// ASINFromFilename returns an ASIN embedded in the file name, if any.
func ASINFromFilename(path string) string {
	if m := asinInFilenameRe.FindStringSubmatch(filepath.Base(path)); m != nil {
		return strings.ToUpper(m[1])
	}
	return ""
}

// CleanSearchTerm turns a file name into a keyword search term: separators
// become spaces, while series markers like "Book 2" are pulled out and
// re-appended so they survive the cleanup.
func CleanSearchTerm(filename string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	cleaned := filenameCleanRe.ReplaceAllString(base, " ")

	var kept []string
	for _, m := range filenameKeepWordsRe.FindAllStringSubmatch(cleaned, -1) {
		kept = append(kept, m[1]+" "+m[2])
	}
	cleaned = filenameKeepWordsRe.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned + " " + strings.Join(kept, " "))
	return multiSpaceRe.ReplaceAllString(cleaned, " ")
}
