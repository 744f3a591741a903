package storage

import (
	"context"

	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/storage/postgres"
)

// DBProgressStore stores snapshots in the pool_progress table.
type DBProgressStore struct {
	Store *postgres.Store
}

func (s *DBProgressStore) Load(ctx context.Context, poolID string) (model.PoolSnapshot, bool, error) {
	if s == nil || s.Store == nil {
		return model.PoolSnapshot{}, false, nil
	}
	return s.Store.LoadProgress(ctx, poolID)
}

func (s *DBProgressStore) Save(ctx context.Context, snapshot model.PoolSnapshot) error {
	if s == nil || s.Store == nil {
		return nil
	}
	return s.Store.SaveProgress(ctx, snapshot)
}
