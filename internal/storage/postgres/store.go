package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityLaunch/internal/model"
)

// Store provides Postgres persistence for release schedules, progress and events.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// UpsertSchedules inserts or updates the schedule of each snapshot.
func (s *Store) UpsertSchedules(ctx context.Context, snapshots []model.PoolSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, snap := range snapshots {
		batch.Queue(`
			INSERT INTO release_schedules (
				pool_id, currency0, currency1, fee, tick_spacing, hooks,
				total_amount, start_time, end_time, min_tick, max_tick, release_token0, epoch_size,
				created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7::text::numeric,$8,$9,$10,$11,$12,$13,now(),now())
			ON CONFLICT (pool_id)
			DO UPDATE SET
				total_amount = EXCLUDED.total_amount,
				start_time = EXCLUDED.start_time,
				end_time = EXCLUDED.end_time,
				min_tick = EXCLUDED.min_tick,
				max_tick = EXCLUDED.max_tick,
				release_token0 = EXCLUDED.release_token0,
				epoch_size = EXCLUDED.epoch_size,
				updated_at = now()
		`,
			snap.PoolID,
			snap.Key.Currency0.Hex(),
			snap.Key.Currency1.Hex(),
			int64(snap.Key.Fee),
			snap.Key.TickSpacing,
			snap.Key.Hooks.Hex(),
			model.BigString(snap.Schedule.TotalAmount),
			int64(snap.Schedule.StartTime),
			int64(snap.Schedule.EndTime),
			snap.Schedule.MinTick,
			snap.Schedule.MaxTick,
			snap.Schedule.IsReleaseTokenFirst,
			int64(snap.Progress.EpochSize),
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshots {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// UpsertSyncEvents inserts or updates hook events.
func (s *Store) UpsertSyncEvents(ctx context.Context, events []model.SyncEvent) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO sync_events (
				pool_id, kind, epoch, ts, branch, delta, sold, floor_tick, liquidity, amount_released, owner, created_at
			) VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,'')::numeric,NULLIF($7,'')::numeric,$8,
				NULLIF($9,'')::numeric,NULLIF($10,'')::numeric,NULLIF($11,''),now())
			ON CONFLICT (pool_id, kind, epoch, ts)
			DO UPDATE SET
				branch = EXCLUDED.branch,
				delta = EXCLUDED.delta,
				sold = EXCLUDED.sold,
				floor_tick = EXCLUDED.floor_tick,
				liquidity = EXCLUDED.liquidity,
				amount_released = EXCLUDED.amount_released,
				owner = EXCLUDED.owner
		`,
			ev.PoolID,
			ev.Kind,
			int64(ev.Epoch),
			int64(ev.Timestamp),
			ev.Branch,
			ev.Delta,
			ev.Sold,
			ev.FloorTick,
			ev.Liquidity,
			ev.AmountReleased,
			ev.Owner,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadProgress returns the stored snapshot of a pool.
func (s *Store) LoadProgress(ctx context.Context, poolID string) (model.PoolSnapshot, bool, error) {
	if poolID == "" {
		return model.PoolSnapshot{}, false, fmt.Errorf("pool id required")
	}
	var (
		data      []byte
		updatedAt time.Time
	)
	row := s.pool.QueryRow(ctx, `SELECT snapshot, updated_at FROM pool_progress WHERE pool_id=$1`, poolID)
	if err := row.Scan(&data, &updatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.PoolSnapshot{}, false, nil
		}
		return model.PoolSnapshot{}, false, err
	}
	var snap model.PoolSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.PoolSnapshot{}, false, fmt.Errorf("parse snapshot: %w", err)
	}
	snap.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
	return snap, true, nil
}

// SaveProgress upserts the snapshot of a pool.
func (s *Store) SaveProgress(ctx context.Context, snap model.PoolSnapshot) error {
	if snap.PoolID == "" {
		return fmt.Errorf("pool id required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO pool_progress (pool_id, amount_released, floor_tick, disabled, owner, epochs, snapshot, updated_at)
		VALUES ($1, $2::text::numeric, $3, $4, $5, $6, $7, now())
		ON CONFLICT (pool_id) DO UPDATE
		SET amount_released = EXCLUDED.amount_released,
			floor_tick = EXCLUDED.floor_tick,
			disabled = EXCLUDED.disabled,
			owner = EXCLUDED.owner,
			epochs = EXCLUDED.epochs,
			snapshot = EXCLUDED.snapshot,
			updated_at = now()
	`,
		snap.PoolID,
		model.BigString(snap.Progress.AmountReleased),
		snap.Progress.CurrentFloorTick,
		snap.Progress.ReconciliationDisabled,
		snap.Progress.Owner.Hex(),
		len(snap.Progress.ReconciledEpochs),
		data,
	)
	return err
}
