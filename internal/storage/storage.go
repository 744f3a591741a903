package storage

import (
	"context"

	"liquidityLaunch/internal/model"
)

// EventSink receives drained hook events.
type EventSink interface {
	PutEvents(events []model.SyncEvent) error
}

// ProgressStore persists pool snapshots between runs.
type ProgressStore interface {
	Load(ctx context.Context, poolID string) (model.PoolSnapshot, bool, error)
	Save(ctx context.Context, snapshot model.PoolSnapshot) error
}
