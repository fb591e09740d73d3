// file: internal/skiplog/skiplog_test.go
// version: 1.1.0
// guid: 5d6e7f8a-9b0c-1d2e-3f4a-5b6c7d8e9f01

package skiplog

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileStartsFresh(t *testing.T) {
	l := Load(filepath.Join(t.TempDir(), "processed.json"))
	if l.Len() != 0 {
		t.Errorf("expected empty log, got %d entries", l.Len())
	}
	if l.Contains("/in/a.m4b") {
		t.Error("empty log should not contain anything")
	}
}

func TestAppendAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")

	l := Load(path)
	if err := l.Append("/in/a.m4b", "/out/Author/A/a.m4b", "A Title", "B002V0QK4C"); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := l.Append("/in/b.m4b", "/out/Author/B/b.m4b", "B Title", ""); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	reloaded := Load(path)
	if reloaded.Len() != 2 {
		t.Fatalf("expected 2 entries after reload, got %d", reloaded.Len())
	}
	if !reloaded.Contains("/in/a.m4b") || !reloaded.Contains("/in/b.m4b") {
		t.Error("reloaded log missing entries")
	}

	entries := reloaded.Entries()
	if entries[0].SourcePath != "/in/a.m4b" || entries[1].SourcePath != "/in/b.m4b" {
		t.Errorf("entries not sorted by source path: %v", entries)
	}
	if entries[0].Title != "A Title" || entries[0].ASIN != "B002V0QK4C" {
		t.Errorf("entry fields lost on reload: %+v", entries[0])
	}
	if entries[0].Timestamp.IsZero() {
		t.Error("timestamp not recorded")
	}
}

func TestLoadCorruptFileStartsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	l := Load(path)
	if l.Len() != 0 {
		t.Errorf("expected fresh log for corrupt file, got %d entries", l.Len())
	}

	// And it is writable again afterwards.
	if err := l.Append("/in/a.m4b", "/out/a.m4b", "", ""); err != nil {
		t.Fatalf("append after corrupt load failed: %v", err)
	}
	if Load(path).Len() != 1 {
		t.Error("expected recovered log with 1 entry")
	}
}

func TestAppendCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "processed.json")
	l := Load(path)
	if err := l.Append("/in/a.m4b", "/out/a.m4b", "", ""); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestPathFor(t *testing.T) {
	if got := PathFor("/explicit/log.json", "/out"); got != "/explicit/log.json" {
		t.Errorf("explicit path ignored: %q", got)
	}
	if got := PathFor("", "/out"); got != filepath.Join("/out", DefaultName) {
		t.Errorf("default path = %q", got)
	}
}
