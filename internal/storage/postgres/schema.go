package postgres

const schema = `
CREATE TABLE IF NOT EXISTS release_schedules (
	pool_id        TEXT PRIMARY KEY,
	currency0      TEXT NOT NULL,
	currency1      TEXT NOT NULL,
	fee            BIGINT NOT NULL,
	tick_spacing   INTEGER NOT NULL,
	hooks          TEXT NOT NULL,
	total_amount   NUMERIC(78, 0) NOT NULL,
	start_time     BIGINT NOT NULL,
	end_time       BIGINT NOT NULL,
	min_tick       INTEGER NOT NULL,
	max_tick       INTEGER NOT NULL,
	release_token0 BOOLEAN NOT NULL,
	epoch_size     BIGINT NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS pool_progress (
	pool_id         TEXT PRIMARY KEY,
	amount_released NUMERIC(78, 0) NOT NULL,
	floor_tick      INTEGER NOT NULL,
	disabled        BOOLEAN NOT NULL,
	owner           TEXT NOT NULL,
	epochs          INTEGER NOT NULL,
	snapshot        JSONB NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS sync_events (
	pool_id         TEXT NOT NULL,
	kind            TEXT NOT NULL,
	epoch           BIGINT NOT NULL,
	ts              BIGINT NOT NULL,
	branch          TEXT,
	delta           NUMERIC(78, 0),
	sold            NUMERIC(78, 0),
	floor_tick      INTEGER NOT NULL,
	liquidity       NUMERIC(78, 0),
	amount_released NUMERIC(78, 0),
	owner           TEXT,
	created_at      TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (pool_id, kind, epoch, ts)
);
`
