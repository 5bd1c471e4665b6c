// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dataset persists the publication dataset and its review
// artifacts. The dataset is a single JSON document rewritten whole on
// every merge; a temp-file-and-rename write keeps the original intact
// until the new content is fully on disk. Exactly one process may write
// a given dataset file at a time — the single-writer rule is operational,
// not enforced here.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/meshintel/scopus-harvest/pkg/types"
)

// Load reads a dataset file. A missing file yields an empty dataset so a
// first run can merge into nothing; any other read or parse problem is an
// error, fatal to the caller's run.
func Load(path string) (types.Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.Dataset{}, nil
		}
		return types.Dataset{}, fmt.Errorf("reading dataset %s: %w", path, err)
	}

	var ds types.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return types.Dataset{}, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return ds, nil
}

// Write persists the dataset as indented JSON via a temp file and rename.
func Write(path string, ds types.Dataset) error {
	return writeJSON(path, ds)
}

// WriteArtifact persists a review artifact (inaccessible staff, ambiguous
// matches, ID mismatches) next to the dataset. Artifacts are meant for
// humans, not for consumption by other components.
func WriteArtifact(path string, v any) error {
	return writeJSON(path, v)
}

func writeJSON(path string, v any) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", path, err)
	}
	data = append(data, '\n')

	tmpFile, err := os.CreateTemp(filepath.Dir(path), ".harvest-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
