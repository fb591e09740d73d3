// file: internal/tags/reader_test.go
// version: 1.1.0
// guid: 0e1f2a3b-4c5d-6e7f-8a9b-0c1d2e3f4a5b

package tags

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/dhowden/tag"
)

// fakeMetadata implements tag.Metadata for extractASIN tests.
type fakeMetadata struct {
	raw     map[string]interface{}
	comment string
}

func (f *fakeMetadata) Format() tag.Format          { return tag.ID3v2_3 }
func (f *fakeMetadata) FileType() tag.FileType      { return tag.MP3 }
func (f *fakeMetadata) Title() string               { return "" }
func (f *fakeMetadata) Album() string               { return "" }
func (f *fakeMetadata) Artist() string              { return "" }
func (f *fakeMetadata) AlbumArtist() string         { return "" }
func (f *fakeMetadata) Composer() string            { return "" }
func (f *fakeMetadata) Year() int                   { return 0 }
func (f *fakeMetadata) Genre() string               { return "" }
func (f *fakeMetadata) Track() (int, int)           { return 0, 0 }
func (f *fakeMetadata) Disc() (int, int)            { return 0, 0 }
func (f *fakeMetadata) Picture() *tag.Picture       { return nil }
func (f *fakeMetadata) Lyrics() string              { return "" }
func (f *fakeMetadata) Comment() string             { return f.comment }
func (f *fakeMetadata) Raw() map[string]interface{} { return f.raw }

func TestExtractASINFromRawFrames(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]interface{}
		want string
	}{
		{"txxx frame", map[string]interface{}{"TXXX:ASIN": "B002V0QK4C"}, "B002V0QK4C"},
		{"itunes freeform", map[string]interface{}{"----:com.apple.iTunes:ASIN": []byte("B0036I54I6")}, "B0036I54I6"},
		{"cdek atom", map[string]interface{}{"CDEK": "B01M3X2E7B"}, "B01M3X2E7B"},
		{"whitespace trimmed", map[string]interface{}{"ASIN": "  B002V0QK4C  "}, "B002V0QK4C"},
		{"non-string value ignored", map[string]interface{}{"TXXX:ASIN": 42}, ""},
		{"no frames", map[string]interface{}{}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := extractASIN(&fakeMetadata{raw: tc.raw})
			if got != tc.want {
				t.Errorf("extractASIN = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestExtractASINFromComment(t *testing.T) {
	m := &fakeMetadata{
		raw:     map[string]interface{}{},
		comment: "Ripped from Audible. ASIN: B002V0QK4C (US store)",
	}
	if got := extractASIN(m); got != "B002V0QK4C" {
		t.Errorf("expected ASIN from comment, got %q", got)
	}

	m.comment = "ASIN:"
	if got := extractASIN(m); got != "" {
		t.Errorf("expected empty ASIN for bare marker, got %q", got)
	}
}

func TestReadUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.m4b")
	if err := os.WriteFile(path, []byte("this is not an audio container"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Read(path)
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.mp3"))
	if !errors.Is(err, ErrUnsupportedFile) {
		t.Errorf("expected ErrUnsupportedFile, got %v", err)
	}
}

func TestASINFromFilename(t *testing.T) {
	cases := map[string]string{
		"The Martian [B00B5HZGUG].m4b":       "B00B5HZGUG",
		"b00b5hzgug - the martian.mp3":       "",
		"Project Hail Mary B08G9PRS1K 64k":   "B08G9PRS1K",
		"A Book Without Identifiers.m4b":     "",
		"/library/in/B017V4IM1G - Seveneves": "B017V4IM1G",
		"catalog number B0000000000 too.mp3": "",
	}
	for name, want := range cases {
		if got := ASINFromFilename(name); got != want {
			t.Errorf("ASINFromFilename(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestCleanSearchTerm(t *testing.T) {
	cases := map[string]string{
		"stormlight_archive-book_2-words.of.radiance.m4b": "stormlight archive words of radiance book 2",
		"The Hobbit.mp3": "The Hobbit",
		"Dune - Frank Herbert - Part 1.m4b": "Dune Frank Herbert Part 1",
	}
	for in, want := range cases {
		if got := CleanSearchTerm(in); got != want {
			t.Errorf("CleanSearchTerm(%q) = %q, want %q", in, got, want)
		}
	}
}
