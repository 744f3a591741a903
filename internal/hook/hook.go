// Package hook implements the scheduled release hook. It holds the release
// token in custody and, once per epoch, moves the pool position toward the
// target curve, selling into the market when the price sits above the new
// floor.
package hook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
	"liquidityLaunch/internal/release"
)

// Engine is the pool manager the hook is attached to.
type Engine interface {
	Now() uint64
	IsUnlocked() bool
	Unlock(ctx context.Context, locker common.Address, fn func(ctx context.Context) error) error
	ModifyLiquidity(ctx context.Context, owner common.Address, key model.PoolKey, params model.ModifyLiquidityParams) (model.BalanceDelta, error)
	Swap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) (model.BalanceDelta, error)
	Settle(payer, currency common.Address, amount *big.Int) error
	Take(account, currency, recipient common.Address, amount *big.Int) error
	Transfer(currency, from, to common.Address, amount *big.Int) error
	BalanceOf(currency, holder common.Address) *big.Int
	Slot0(id model.PoolID) (model.Slot0, error)
	PositionLiquidity(id model.PoolID, owner common.Address, lower, upper int32) *big.Int
}

type Hook struct {
	address common.Address
	engine  Engine
	logger  *zap.Logger

	store  *Store
	guard  *guard
	events []model.SyncEvent
}

func New(address common.Address, engine Engine, logger *zap.Logger) *Hook {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hook{
		address: address,
		engine:  engine,
		logger:  logger,
		store:   NewStore(),
		guard:   newGuard(),
	}
}

func (h *Hook) Address() common.Address { return h.address }

// Snapshot captures the store and the event buffer; the returned func restores them.
func (h *Hook) Snapshot() func() {
	store := h.store.clone()
	n := len(h.events)
	return func() {
		h.store = store
		h.events = h.events[:n]
	}
}

// AfterInitialize validates the schedule carried in hookData, pulls the
// total amount from sender into custody and starts progress with sender as
// owner.
func (h *Hook) AfterInitialize(ctx context.Context, sender common.Address, key model.PoolKey, slot0 model.Slot0, hookData []byte) error {
	schedule, epochSize, err := DecodePayload(hookData)
	if err != nil {
		return err
	}
	id := key.ID()
	if key.Hooks != h.address {
		return fmt.Errorf("%w: %s hooks %s", ErrPoolNotCreated, id.Hex(), key.Hooks.Hex())
	}
	// The manager inserts the pool before calling back.
	if _, err := h.engine.Slot0(id); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrPoolNotCreated, id.Hex(), err)
	}
	if _, ok := h.store.Get(id); ok {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, id.Hex())
	}
	if err := validateSchedule(schedule, epochSize, key.TickSpacing, h.engine.Now()); err != nil {
		return err
	}

	custody := CustodyAddress(h.address, id)
	currency := key.Currency(schedule.IsReleaseTokenFirst)
	if err := h.engine.Transfer(currency, sender, custody, schedule.TotalAmount); err != nil {
		return fmt.Errorf("pull release amount: %w", err)
	}

	rec := &Record{
		Key:      key,
		Custody:  custody,
		Schedule: schedule,
		Progress: model.Progress{
			AmountReleased:   big.NewInt(0),
			CurrentFloorTick: release.WideTick(schedule),
			ReconciledEpochs: make(map[uint64]struct{}),
			Owner:            sender,
			EpochSize:        epochSize,
		},
	}
	if err := h.store.Create(rec); err != nil {
		return err
	}
	h.emit(model.SyncEvent{
		Kind:      model.EventOwnership,
		PoolID:    id.Hex(),
		Timestamp: h.engine.Now(),
		FloorTick: rec.Progress.CurrentFloorTick,
		Owner:     sender.Hex(),
	})
	h.logger.Info("schedule initialized",
		zap.String("pool", id.Hex()),
		zap.String("owner", sender.Hex()),
		zap.String("total_amount", schedule.TotalAmount.String()),
		zap.Uint64("start", schedule.StartTime),
		zap.Uint64("end", schedule.EndTime),
		zap.Int32("initial_tick", slot0.Tick),
	)
	return nil
}

// BeforeSwap reconciles the pool before a trade. Trades issued by the
// reconciler itself, and trades before the window opens, pass through.
func (h *Hook) BeforeSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) error {
	id := key.ID()
	if h.guard.held(id) {
		return nil
	}
	rec, ok := h.store.Get(id)
	if !ok {
		return nil
	}
	if h.engine.Now() < rec.Schedule.StartTime {
		return nil
	}
	return h.reconcile(ctx, rec)
}

func validateSchedule(s model.Schedule, epochSize uint64, spacing int32, now uint64) error {
	if s.StartTime > s.EndTime {
		return fmt.Errorf("%w: start %d after end %d", ErrInvalidTimeRange, s.StartTime, s.EndTime)
	}
	if s.EndTime < now {
		return fmt.Errorf("%w: end %d already passed at %d", ErrInvalidTimeRange, s.EndTime, now)
	}
	if epochSize == 0 {
		return ErrInvalidEpochSize
	}
	if s.MinTick > s.MaxTick {
		return fmt.Errorf("%w: min %d above max %d", ErrInvalidTickRange, s.MinTick, s.MaxTick)
	}
	lo, hi := liquidity.UsableTickBounds(spacing)
	if s.MinTick < lo || s.MaxTick > hi {
		return fmt.Errorf("%w: [%d, %d] outside usable [%d, %d]", ErrInvalidTickRange, s.MinTick, s.MaxTick, lo, hi)
	}
	if s.MinTick%spacing != 0 || s.MaxTick%spacing != 0 {
		return fmt.Errorf("%w: [%d, %d] not aligned to spacing %d", ErrInvalidTickRange, s.MinTick, s.MaxTick, spacing)
	}
	if s.TotalAmount == nil || s.TotalAmount.Sign() < 0 {
		return fmt.Errorf("%w: total amount %v", ErrInvalidPayload, s.TotalAmount)
	}
	return nil
}

// Schedule returns a copy of the pool's schedule.
func (h *Hook) Schedule(id model.PoolID) (model.Schedule, error) {
	rec, ok := h.store.Get(id)
	if !ok {
		return model.Schedule{}, fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	return rec.Schedule.Clone(), nil
}

// Progress returns a copy of the pool's progress.
func (h *Hook) Progress(id model.PoolID) (model.Progress, error) {
	rec, ok := h.store.Get(id)
	if !ok {
		return model.Progress{}, fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	return rec.Progress.Clone(), nil
}

func (h *Hook) PoolKey(id model.PoolID) (model.PoolKey, error) {
	rec, ok := h.store.Get(id)
	if !ok {
		return model.PoolKey{}, fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	return rec.Key, nil
}

func (h *Hook) Pools() []model.PoolID { return h.store.Pools() }

// Custody returns the account holding the pool's tokens and position.
func (h *Hook) Custody(id model.PoolID) (common.Address, error) {
	rec, ok := h.store.Get(id)
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrUnknownPool, id.Hex())
	}
	return rec.Custody, nil
}

// DrainEvents returns the buffered events and clears the buffer.
func (h *Hook) DrainEvents() []model.SyncEvent {
	out := h.events
	h.events = nil
	return out
}

func (h *Hook) emit(ev model.SyncEvent) {
	h.events = append(h.events, ev)
}

// withSession runs fn in the current unlock session, opening one if needed.
func (h *Hook) withSession(ctx context.Context, fn func(ctx context.Context) error) error {
	if h.engine.IsUnlocked() {
		return fn(ctx)
	}
	return h.engine.Unlock(ctx, h.address, fn)
}
