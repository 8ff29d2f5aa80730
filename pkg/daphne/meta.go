package daphne

import (
	"encoding/json"
	"fmt"
	"os"
)

// metaFile is the sidecar JSON placed next to every staged file and
// expected next to every file result. Schema is present for frames
// only, one entry per column.
type metaFile struct {
	NumRows   int64        `json:"numRows"`
	NumCols   int64        `json:"numCols"`
	ValueType string       `json:"valueType,omitempty"`
	Schema    []metaColumn `json:"schema,omitempty"`
}

type metaColumn struct {
	Label     string `json:"label"`
	ValueType string `json:"valueType"`
}

func writeMeta(path string, m metaFile) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func readMeta(path string) (metaFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return metaFile{}, err
	}
	var m metaFile
	if err := json.Unmarshal(b, &m); err != nil {
		return metaFile{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return m, nil
}
