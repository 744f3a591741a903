// Package engine is an in-memory concentrated-liquidity pool manager with
// flash accounting. Callers open an unlock session, trade and move
// liquidity against per-account deltas, and must settle every delta to zero
// before the session closes. Any failure inside a session or an
// initialization rolls back the engine and its registered journals.
//
// An Engine is not safe for concurrent use: hooks call back into it from
// inside its own operations.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
)

// Hooks receives pool lifecycle callbacks for pools whose key names it.
type Hooks interface {
	AfterInitialize(ctx context.Context, sender common.Address, key model.PoolKey, slot0 model.Slot0, hookData []byte) error
	BeforeSwap(ctx context.Context, sender common.Address, key model.PoolKey, params model.SwapParams) error
}

// Journal is state outside the engine that must roll back with it.
type Journal interface {
	Snapshot() (revert func())
}

type positionKey struct {
	pool  model.PoolID
	owner common.Address
	lower int32
	upper int32
}

type Engine struct {
	logger  *zap.Logger
	address common.Address
	now     uint64

	pools     map[model.PoolID]*pool
	positions map[positionKey]*big.Int
	ledger    *Ledger

	hooks    map[common.Address]Hooks
	journals []Journal

	unlocked bool
	deltas   map[common.Address]map[common.Address]*big.Int
}

// New creates an engine whose reserves are held under address.
func New(address common.Address, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:    logger,
		address:   address,
		pools:     make(map[model.PoolID]*pool),
		positions: make(map[positionKey]*big.Int),
		ledger:    NewLedger(),
		hooks:     make(map[common.Address]Hooks),
	}
}

func (e *Engine) Address() common.Address { return e.address }

// Now returns the engine clock in unix seconds.
func (e *Engine) Now() uint64 { return e.now }

// Warp sets the engine clock.
func (e *Engine) Warp(ts uint64) { e.now = ts }

func (e *Engine) IsUnlocked() bool { return e.unlocked }

// RegisterHook binds a hook implementation to its address.
func (e *Engine) RegisterHook(address common.Address, hooks Hooks) {
	e.hooks[address] = hooks
	if journal, ok := hooks.(Journal); ok {
		e.AddJournal(journal)
	}
}

// AddJournal registers external state to snapshot with the engine.
func (e *Engine) AddJournal(journal Journal) {
	e.journals = append(e.journals, journal)
}

// Initialize creates the pool at sqrtPriceX96 and runs the AfterInitialize hook.
func (e *Engine) Initialize(ctx context.Context, sender common.Address, key model.PoolKey, sqrtPriceX96 *big.Int, hookData []byte) (int32, error) {
	if bytes.Compare(key.Currency0.Bytes(), key.Currency1.Bytes()) >= 0 {
		return 0, ErrCurrencyNotSorted
	}
	if key.TickSpacing <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidTickSpacing, key.TickSpacing)
	}
	id := key.ID()
	if _, ok := e.pools[id]; ok {
		return 0, fmt.Errorf("%w: %s", ErrPoolAlreadyInitialized, id.Hex())
	}
	tick, err := liquidity.TickAtSqrtPrice(sqrtPriceX96)
	if err != nil {
		return 0, err
	}

	var hooks Hooks
	if key.Hooks != (common.Address{}) {
		h, ok := e.hooks[key.Hooks]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrHookNotRegistered, key.Hooks.Hex())
		}
		hooks = h
	}

	err = e.atomic(func() error {
		p := newPool(key, sqrtPriceX96, tick)
		e.pools[id] = p
		if hooks == nil {
			return nil
		}
		if err := hooks.AfterInitialize(ctx, sender, key, p.slot0(), hookData); err != nil {
			return fmt.Errorf("after initialize hook: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	e.logger.Debug("pool initialized",
		zap.String("pool", id.Hex()),
		zap.Int32("tick", tick),
		zap.String("sqrt_price_x96", sqrtPriceX96.String()),
	)
	return tick, nil
}

// Unlock opens a flash-accounting session for fn. All deltas must be zero
// when fn returns, otherwise the session reverts.
func (e *Engine) Unlock(ctx context.Context, locker common.Address, fn func(ctx context.Context) error) error {
	if e.unlocked {
		return ErrAlreadyUnlocked
	}
	return e.atomic(func() error {
		e.unlocked = true
		e.deltas = make(map[common.Address]map[common.Address]*big.Int)
		defer func() {
			e.unlocked = false
			e.deltas = nil
		}()

		if err := fn(ctx); err != nil {
			return err
		}
		return e.checkSettled()
	})
}

// Settle pays amount of currency from payer into the engine and credits the
// payer's delta.
func (e *Engine) Settle(payer, currency common.Address, amount *big.Int) error {
	if !e.unlocked {
		return ErrLocked
	}
	if err := e.ledger.Transfer(currency, payer, e.address, amount); err != nil {
		return fmt.Errorf("settle: %w", err)
	}
	e.account(payer, currency, amount)
	return nil
}

// Take sends amount of currency from the engine to recipient and debits the
// account's delta.
func (e *Engine) Take(account, currency, recipient common.Address, amount *big.Int) error {
	if !e.unlocked {
		return ErrLocked
	}
	if err := e.ledger.Transfer(currency, e.address, recipient, amount); err != nil {
		return fmt.Errorf("take: %w", err)
	}
	e.account(account, currency, new(big.Int).Neg(amount))
	return nil
}

// CurrencyDelta returns the open delta of account in currency.
func (e *Engine) CurrencyDelta(account, currency common.Address) *big.Int {
	if d, ok := e.deltas[account][currency]; ok {
		return new(big.Int).Set(d)
	}
	return big.NewInt(0)
}

// Mint creates tokens for holder, outside of any session.
func (e *Engine) Mint(currency, to common.Address, amount *big.Int) error {
	return e.ledger.Mint(currency, to, amount)
}

// Transfer moves tokens between holders.
func (e *Engine) Transfer(currency, from, to common.Address, amount *big.Int) error {
	return e.ledger.Transfer(currency, from, to, amount)
}

func (e *Engine) BalanceOf(currency, holder common.Address) *big.Int {
	return e.ledger.Balance(currency, holder)
}

func (e *Engine) Slot0(id model.PoolID) (model.Slot0, error) {
	p, ok := e.pools[id]
	if !ok {
		return model.Slot0{}, fmt.Errorf("%w: %s", ErrPoolNotInitialized, id.Hex())
	}
	return p.slot0(), nil
}

// Liquidity returns the active liquidity of the pool.
func (e *Engine) Liquidity(id model.PoolID) (*big.Int, error) {
	p, ok := e.pools[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotInitialized, id.Hex())
	}
	return new(big.Int).Set(p.liquidity), nil
}

func (e *Engine) PositionLiquidity(id model.PoolID, owner common.Address, lower, upper int32) *big.Int {
	if l, ok := e.positions[positionKey{pool: id, owner: owner, lower: lower, upper: upper}]; ok {
		return new(big.Int).Set(l)
	}
	return big.NewInt(0)
}

func (e *Engine) account(account, currency common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	byCurrency, ok := e.deltas[account]
	if !ok {
		byCurrency = make(map[common.Address]*big.Int)
		e.deltas[account] = byCurrency
	}
	prev, ok := byCurrency[currency]
	if !ok {
		prev = big.NewInt(0)
	}
	byCurrency[currency] = new(big.Int).Add(prev, amount)
}

func (e *Engine) accountDelta(account common.Address, key model.PoolKey, delta model.BalanceDelta) {
	e.account(account, key.Currency0, delta.Amount0)
	e.account(account, key.Currency1, delta.Amount1)
}

func (e *Engine) checkSettled() error {
	for account, byCurrency := range e.deltas {
		for currency, d := range byCurrency {
			if d.Sign() != 0 {
				return fmt.Errorf("%w: account %s currency %s delta %s", ErrCurrencyNotSettled, account.Hex(), currency.Hex(), d)
			}
		}
	}
	return nil
}

type snapshot struct {
	pools     map[model.PoolID]*pool
	positions map[positionKey]*big.Int
	ledger    *Ledger
	reverts   []func()
}

func (e *Engine) snapshot() snapshot {
	s := snapshot{
		pools:     make(map[model.PoolID]*pool, len(e.pools)),
		positions: make(map[positionKey]*big.Int, len(e.positions)),
		ledger:    e.ledger.clone(),
	}
	for id, p := range e.pools {
		s.pools[id] = p.clone()
	}
	for k, l := range e.positions {
		s.positions[k] = l
	}
	for _, j := range e.journals {
		s.reverts = append(s.reverts, j.Snapshot())
	}
	return s
}

func (e *Engine) restore(s snapshot) {
	e.pools = s.pools
	e.positions = s.positions
	e.ledger = s.ledger
	for i := len(s.reverts) - 1; i >= 0; i-- {
		s.reverts[i]()
	}
}

// atomic runs fn and restores all state if it fails.
func (e *Engine) atomic(fn func() error) error {
	s := e.snapshot()
	if err := fn(); err != nil {
		e.restore(s)
		return err
	}
	return nil
}
