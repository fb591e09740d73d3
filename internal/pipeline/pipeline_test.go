// file: internal/pipeline/pipeline_test.go
// version: 1.1.0
// guid: 7d8e9f0a-1b2c-3d4e-5f6a-7b8c9d0ec1f7

package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdfalk/audibleshelf/internal/catalog"
	"github.com/jdfalk/audibleshelf/internal/config"
	"github.com/jdfalk/audibleshelf/internal/library"
	"github.com/jdfalk/audibleshelf/internal/models"
	"github.com/jdfalk/audibleshelf/internal/skiplog"
	"github.com/jdfalk/audibleshelf/internal/tags"
)

type fakeCatalog struct {
	records     map[string]*models.MetadataRecord
	searchHits  []models.MetadataRecord
	fetchCalls  []string
	searchCalls []string
}

func (f *fakeCatalog) FetchByASIN(asin string) (*models.MetadataRecord, error) {
	f.fetchCalls = append(f.fetchCalls, asin)
	if rec, ok := f.records[asin]; ok {
		return rec, nil
	}
	return nil, catalog.ErrNotFound
}

func (f *fakeCatalog) Search(title, author string) ([]models.MetadataRecord, error) {
	f.searchCalls = append(f.searchCalls, author+" "+title)
	return f.searchHits, nil
}

func (f *fakeCatalog) SearchKeywords(keywords string) ([]models.MetadataRecord, error) {
	f.searchCalls = append(f.searchCalls, keywords)
	return f.searchHits, nil
}

type fakeCovers struct{}

func (fakeCovers) DownloadCover(coverURL, destPath string) error {
	return os.WriteFile(destPath, []byte("jpg"), 0o644)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	inDir := t.TempDir()
	outDir := t.TempDir()
	return &config.Config{
		InputDir:            inDir,
		OutputDir:           outDir,
		FolderNamingPattern: "{author}/{series}/{title} ({year})",
		FileNamingPattern:   "{title} - {author}",
		MinFileSizeMB:       0,
		Precedence:          config.PrecedenceRemote,
		MultiValueDelimiter: " & ",
		SupportedExtensions: []string{".m4b", ".mp3"},
	}
}

func writeAudioFile(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("audio payload"), 0o644))
	return path
}

func newTestRunner(cfg *config.Config, cat Catalog, local models.LocalFileInfo, readErr error) (*Runner, *skiplog.Log) {
	processedLog := skiplog.Load(skiplog.PathFor("", cfg.OutputDir))
	r := NewRunner(cfg, cat, library.NewManager(cfg, fakeCovers{}), processedLog, nil)
	r.readTags = func(string) (models.LocalFileInfo, error) {
		if readErr != nil {
			return models.LocalFileInfo{}, readErr
		}
		return local, nil
	}
	return r, processedLog
}

func TestProcessFileWithEmbeddedASIN(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "book.m4b")

	cat := &fakeCatalog{records: map[string]*models.MetadataRecord{
		"B017V4IM1G": {
			ASIN:    "B017V4IM1G",
			Title:   "Seveneves",
			Authors: []string{"Neal Stephenson"},
			Year:    "2015",
		},
	}}
	r, processedLog := newTestRunner(cfg, cat, models.LocalFileInfo{ASIN: "B017V4IM1G"}, nil)

	require.NoError(t, r.ProcessFile(src))

	assert.Equal(t, []string{"B017V4IM1G"}, cat.fetchCalls)
	assert.Empty(t, cat.searchCalls, "embedded ASIN should short-circuit searches")

	dest := filepath.Join(cfg.OutputDir, "Neal Stephenson", "Seveneves (2015)", "Seveneves - Neal Stephenson.m4b")
	assert.FileExists(t, dest)
	assert.FileExists(t, src, "default mode copies, source stays")
	assert.True(t, processedLog.Contains(src))
}

func TestProcessFileASINMapWinsOverTag(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "book.m4b")

	cat := &fakeCatalog{records: map[string]*models.MetadataRecord{
		"B0MAPPED99": {ASIN: "B0MAPPED99", Title: "Mapped Title", Authors: []string{"A"}},
	}}
	r, _ := newTestRunner(cfg, cat, models.LocalFileInfo{ASIN: "B0TAGGED00"}, nil)
	r.asinMap = map[string]string{"book.m4b": "B0MAPPED99"}

	require.NoError(t, r.ProcessFile(src))
	assert.Equal(t, []string{"B0MAPPED99"}, cat.fetchCalls)
}

func TestProcessFileFallsBackToFilenameASIN(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "Seveneves B017V4IM1G.m4b")

	cat := &fakeCatalog{records: map[string]*models.MetadataRecord{
		"B017V4IM1G": {ASIN: "B017V4IM1G", Title: "Seveneves", Authors: []string{"Neal Stephenson"}},
	}}
	r, _ := newTestRunner(cfg, cat, models.LocalFileInfo{}, nil)

	require.NoError(t, r.ProcessFile(src))
	assert.Equal(t, []string{"B017V4IM1G"}, cat.fetchCalls)
}

func TestProcessFileSearchesByTags(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "untitled.m4b")

	cat := &fakeCatalog{
		records: map[string]*models.MetadataRecord{
			"B0FOUND123": {ASIN: "B0FOUND123", Title: "Project Hail Mary", Authors: []string{"Andy Weir"}},
		},
		searchHits: []models.MetadataRecord{{ASIN: "B0FOUND123", Title: "Project Hail Mary"}},
	}
	r, _ := newTestRunner(cfg, cat, models.LocalFileInfo{Title: "Project Hail Mary", Author: "Andy Weir"}, nil)

	require.NoError(t, r.ProcessFile(src))
	require.Len(t, cat.searchCalls, 1)
	assert.Equal(t, "Andy Weir Project Hail Mary", cat.searchCalls[0])
	assert.Equal(t, []string{"B0FOUND123"}, cat.fetchCalls)
}

func TestProcessFileNoASINMovesToFailed(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "mystery.m4b")

	cat := &fakeCatalog{}
	r, processedLog := newTestRunner(cfg, cat, models.LocalFileInfo{}, nil)

	err := r.ProcessFile(src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no ASIN")

	assert.FileExists(t, filepath.Join(cfg.OutputDir, library.FailedDirName, "mystery.m4b"))
	assert.FileExists(t, src, "copy mode leaves the source in place")
	assert.False(t, processedLog.Contains(src))
}

func TestProcessFileUnreadableSkipsInPlace(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "corrupt.m4b")

	r, _ := newTestRunner(cfg, &fakeCatalog{}, models.LocalFileInfo{}, fmt.Errorf("boom: %w", tags.ErrUnsupportedFile))

	err := r.ProcessFile(src)
	require.Error(t, err)
	assert.FileExists(t, src, "unreadable files stay where they are")
	assert.NoDirExists(t, filepath.Join(cfg.OutputDir, library.FailedDirName))
}

func TestProcessFileFetchFailureMovesToFailed(t *testing.T) {
	cfg := testConfig(t)
	src := writeAudioFile(t, cfg.InputDir, "book.m4b")

	cat := &fakeCatalog{} // knows no ASINs
	r, _ := newTestRunner(cfg, cat, models.LocalFileInfo{ASIN: "B0UNKNOWN1"}, nil)

	err := r.ProcessFile(src)
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(cfg.OutputDir, library.FailedDirName, "book.m4b"))
}

func TestRunProcessesBatchAndSkipsOnRerun(t *testing.T) {
	cfg := testConfig(t)
	writeAudioFile(t, cfg.InputDir, "one.m4b")
	writeAudioFile(t, cfg.InputDir, "two.m4b")

	cat := &fakeCatalog{records: map[string]*models.MetadataRecord{
		"B017V4IM1G": {ASIN: "B017V4IM1G", Title: "Seveneves", Authors: []string{"Neal Stephenson"}},
	}}
	r, _ := newTestRunner(cfg, cat, models.LocalFileInfo{ASIN: "B017V4IM1G"}, nil)

	summary, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 0, summary.Failed)

	// Second pass reloads the log the way a fresh invocation would and
	// must find nothing left to do.
	r2, _ := newTestRunner(cfg, cat, models.LocalFileInfo{ASIN: "B017V4IM1G"}, nil)
	summary, err = r2.Run()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Processed)
	assert.Equal(t, 0, summary.Failed)
}

func TestRunDryRunLeavesEverythingUntouched(t *testing.T) {
	cfg := testConfig(t)
	cfg.DryRun = true
	src := writeAudioFile(t, cfg.InputDir, "one.m4b")

	cat := &fakeCatalog{records: map[string]*models.MetadataRecord{
		"B017V4IM1G": {ASIN: "B017V4IM1G", Title: "Seveneves", Authors: []string{"Neal Stephenson"}},
	}}
	r, processedLog := newTestRunner(cfg, cat, models.LocalFileInfo{ASIN: "B017V4IM1G"}, nil)

	summary, err := r.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
	assert.FileExists(t, src)
	assert.False(t, processedLog.Contains(src))

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLoadASINMapJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asins.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"book.m4b": "B017V4IM1G"}`), 0o644))

	m, err := LoadASINMap(path)
	require.NoError(t, err)
	assert.Equal(t, "B017V4IM1G", m["book.m4b"])
}

func TestLoadASINMapCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "asins.csv")
	require.NoError(t, os.WriteFile(path, []byte("book.m4b,B017V4IM1G\nother.mp3,B0DAINTY42\n"), 0o644))

	m, err := LoadASINMap(path)
	require.NoError(t, err)
	assert.Len(t, m, 2)
	assert.Equal(t, "B0DAINTY42", m["other.mp3"])
}

func TestLoadASINMapEmptyPath(t *testing.T) {
	m, err := LoadASINMap("")
	require.NoError(t, err)
	assert.Nil(t, m)
}
