package timetable

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Load reads a grid saved by Save.
func Load(path string) (Grid, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var grid Grid
	err = json.Unmarshal(contents, &grid)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return grid, nil
}

// Save writes the grid as a json document of room -> days -> hours. The
// file is replaced atomically.
func Save(path string, grid Grid) error {
	contents, err := json.MarshalIndent(grid, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.Write(contents)
	if err != nil {
		tmp.Close()
		return err
	}
	err = tmp.Close()
	if err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// ImportFunc builds a grid from scratch, usually Importer.Import bound to a
// source document.
type ImportFunc func(ctx context.Context) (Grid, error)

// LoadOrImport loads the grid at path, when there is none it is imported
// once and saved there.
func LoadOrImport(ctx context.Context, path string, importGrid ImportFunc) (grid Grid, imported bool, err error) {
	grid, err = Load(path)
	if err == nil {
		return grid, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}

	grid, err = importGrid(ctx)
	if err != nil {
		return nil, false, err
	}
	err = Save(path, grid)
	if err != nil {
		return nil, false, err
	}
	return grid, true, nil
}
