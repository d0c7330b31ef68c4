package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/OCharnyshevich/minecraft-light/internal/server/config"
	"github.com/OCharnyshevich/minecraft-light/internal/server/world"
)

// Storage handles file-based persistence for config, block edits and light.
// Every dimension gets its own directory below dir.
type Storage struct {
	dir string
	log *slog.Logger
}

// New creates a new Storage rooted at dir, creating it as needed.
func New(dir string, log *slog.Logger) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}
	return &Storage{dir: dir, log: log}, nil
}

// DimensionDir returns the directory of a dimension, creating it as needed.
func (s *Storage) DimensionDir(name string) (string, error) {
	d := filepath.Join(s.dir, name)
	if err := os.MkdirAll(d, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", d, err)
	}
	return d, nil
}

// OpenLightStore opens the light database of a dimension.
func (s *Storage) OpenLightStore(dimension string) (*LightStore, error) {
	d, err := s.DimensionDir(dimension)
	if err != nil {
		return nil, err
	}
	return OpenLightStore(filepath.Join(d, "light"), s.log.With("dimension", dimension))
}

// LoadConfig reads config.json into cfg. If the file does not exist, cfg is unchanged.
func (s *Storage) LoadConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	s.log.Info("loaded config from file", "path", path)
	return nil
}

// SaveConfig writes cfg to config.json atomically.
func (s *Storage) SaveConfig(cfg *config.Config) error {
	path := filepath.Join(s.dir, "config.json")
	return s.atomicWriteJSON(path, cfg)
}

// LoadWorld reads the overrides of a dimension and bulk-loads them into w.
func (s *Storage) LoadWorld(dimension string, w *world.World) error {
	path := filepath.Join(s.dir, dimension, "overrides.json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read world overrides: %w", err)
	}

	var wd WorldData
	if err := json.Unmarshal(data, &wd); err != nil {
		return fmt.Errorf("parse world overrides: %w", err)
	}

	overrides := make(map[world.BlockPos]int32, len(wd.Overrides))
	for _, o := range wd.Overrides {
		overrides[world.BlockPos{X: o.X, Y: o.Y, Z: o.Z}] = o.StateID
	}

	w.LoadOverrides(overrides)
	s.log.Info("loaded world overrides", "dimension", dimension, "count", len(overrides))
	return nil
}

// SaveWorld writes all block overrides of a dimension atomically.
func (s *Storage) SaveWorld(dimension string, w *world.World) error {
	d, err := s.DimensionDir(dimension)
	if err != nil {
		return err
	}
	wd := WorldData{Overrides: []BlockOverride{}}
	w.ForEachOverride(func(pos world.BlockPos, stateID int32) {
		wd.Overrides = append(wd.Overrides, BlockOverride{
			X: pos.X, Y: pos.Y, Z: pos.Z, StateID: stateID,
		})
	})
	return s.atomicWriteJSON(filepath.Join(d, "overrides.json"), &wd)
}

// atomicWriteJSON marshals v to JSON and writes it atomically using a temp file + rename.
func (s *Storage) atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	data = append(data, '\n')

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
