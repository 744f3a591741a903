package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"liquidityLaunch/internal/model"
)

// FileProgressStore keeps snapshots of all pools in one JSON file.
type FileProgressStore struct {
	Path string
}

type progressFile struct {
	Pools map[string]model.PoolSnapshot `json:"pools"`
}

func (s *FileProgressStore) Load(ctx context.Context, poolID string) (model.PoolSnapshot, bool, error) {
	if s == nil || s.Path == "" {
		return model.PoolSnapshot{}, false, nil
	}
	file, err := s.read()
	if err != nil {
		return model.PoolSnapshot{}, false, err
	}
	snap, ok := file.Pools[poolID]
	return snap, ok, nil
}

func (s *FileProgressStore) Save(ctx context.Context, snapshot model.PoolSnapshot) error {
	if s == nil || s.Path == "" {
		return nil
	}
	file, err := s.read()
	if err != nil {
		return err
	}
	snapshot.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	file.Pools[snapshot.PoolID] = snapshot

	dir := filepath.Dir(s.Path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.Path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state tmp: %w", err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (s *FileProgressStore) read() (progressFile, error) {
	file := progressFile{Pools: make(map[string]model.PoolSnapshot)}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return file, nil
		}
		return file, fmt.Errorf("read state: %w", err)
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return file, fmt.Errorf("parse state: %w", err)
	}
	if file.Pools == nil {
		file.Pools = make(map[string]model.PoolSnapshot)
	}
	return file, nil
}
