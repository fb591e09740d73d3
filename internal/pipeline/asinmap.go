// file: internal/pipeline/asinmap.go
// version: 1.0.0
// guid: 5b6c7d8e-9f0a-1b2c-3d4e-5f6a7b8c9da5

package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadASINMap reads an explicit filename-to-ASIN mapping from a .json object
// file or a two-column .csv file. Entries here outrank every other ASIN
// source in the waterfall.
func LoadASINMap(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read ASIN map: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		asinMap := make(map[string]string)
		if err := json.Unmarshal(data, &asinMap); err != nil {
			return nil, fmt.Errorf("could not parse ASIN map %s: %w", path, err)
		}
		return asinMap, nil
	case ".csv":
		reader := csv.NewReader(strings.NewReader(string(data)))
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("could not parse ASIN map %s: %w", path, err)
		}
		asinMap := make(map[string]string, len(rows))
		for _, row := range rows {
			if len(row) < 2 {
				continue
			}
			name, asin := strings.TrimSpace(row[0]), strings.TrimSpace(row[1])
			if name != "" && asin != "" {
				asinMap[name] = asin
			}
		}
		return asinMap, nil
	default:
		return nil, fmt.Errorf("unknown ASIN map format %q (want .json or .csv)", filepath.Ext(path))
	}
}
