// file: internal/library/sidecar.go
// version: 1.1.0
// guid: 0c1d2e3f-4a5b-6c7d-8e9f-0a1b2c3d4e50

package library

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jdfalk/audibleshelf/internal/models"
)

// Sidecar filenames, matching what Audiobookshelf picks up next to the audio.
const (
	descFileName     = "desc.txt"
	readerFileName   = "reader.txt"
	metadataFileName = "metadata.json"
	opfFileName      = "book.opf"
)

// WriteSidecars writes the sidecar package for a record into dir. With OPF
// enabled the book.opf carries description and narrators, so the plain-text
// fallbacks are skipped; metadata.json is always written for reference.
func (m *Manager) WriteSidecars(record *models.MetadataRecord, dir string) error {
	if m.cfg.CreateOPF {
		if err := writeOPF(record, filepath.Join(dir, opfFileName)); err != nil {
			return err
		}
	} else {
		if record.Description != "" {
			if err := writeTextFile(filepath.Join(dir, descFileName), record.Description); err != nil {
				return err
			}
		}
		if narrators := record.JoinedNarrators(m.cfg.MultiValueDelimiter); narrators != "" {
			if err := writeTextFile(filepath.Join(dir, readerFileName), narrators); err != nil {
				return err
			}
		}
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode metadata sidecar: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFileName), append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write metadata sidecar: %w", err)
	}

	return nil
}

func writeTextFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content+"\n"), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
