// Package repository implements the domain repositories over flat JSON
// document files. Each collection is one pretty-printed JSON array; every
// mutation is a full load-modify-save guarded by a per-collection mutex.
package repository

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// loadCollection reads the whole collection from path. A missing file is an
// empty collection; malformed JSON is logged and degrades to empty rather
// than failing the operation.
func loadCollection[T any](path string) []T {
	b, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Error().Err(err).Str("file", path).Msg("Failed to read collection")
		}
		return nil
	}
	var items []T
	if err := json.Unmarshal(b, &items); err != nil {
		log.Error().Err(err).Str("file", path).Msg("Malformed collection file, treating as empty")
		return nil
	}
	return items
}

// saveCollection writes the whole collection back to path, pretty-printed.
func saveCollection[T any](path string, items []T) error {
	if items == nil {
		items = []T{}
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
