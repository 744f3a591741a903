package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
)

var (
	managerAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	token0      = common.HexToAddress("0x1000000000000000000000000000000000000001")
	token1      = common.HexToAddress("0x2000000000000000000000000000000000000002")
	lp          = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

func testKey() model.PoolKey {
	return model.PoolKey{Currency0: token0, Currency1: token1, Fee: 3000, TickSpacing: 60}
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(managerAddr, nil)
	supply, _ := new(big.Int).SetString("100000000000000000000", 10)
	if err := e.Mint(token0, lp, supply); err != nil {
		t.Fatalf("mint token0: %v", err)
	}
	if err := e.Mint(token1, lp, supply); err != nil {
		t.Fatalf("mint token1: %v", err)
	}
	if _, err := e.Initialize(context.Background(), lp, testKey(), liquidity.Q96, nil); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return e
}

func settle(t *testing.T, e *Engine, account common.Address, key model.PoolKey, delta model.BalanceDelta) {
	t.Helper()
	for _, leg := range []struct {
		currency common.Address
		amount   *big.Int
	}{{key.Currency0, delta.Amount0}, {key.Currency1, delta.Amount1}} {
		switch leg.amount.Sign() {
		case -1:
			if err := e.Settle(account, leg.currency, new(big.Int).Neg(leg.amount)); err != nil {
				t.Fatalf("settle: %v", err)
			}
		case 1:
			if err := e.Take(account, leg.currency, account, leg.amount); err != nil {
				t.Fatalf("take: %v", err)
			}
		}
	}
}

func addLiquidity(t *testing.T, e *Engine, lower, upper int32, liq int64) {
	t.Helper()
	key := testKey()
	err := e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		delta, err := e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
			TickLower: lower, TickUpper: upper, LiquidityDelta: big.NewInt(liq),
		})
		if err != nil {
			return err
		}
		settle(t, e, lp, key, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("add liquidity: %v", err)
	}
}

func TestInitializeValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	if _, err := e.Initialize(ctx, lp, testKey(), liquidity.Q96, nil); !errors.Is(err, ErrPoolAlreadyInitialized) {
		t.Fatalf("expected ErrPoolAlreadyInitialized, got %v", err)
	}

	unsorted := model.PoolKey{Currency0: token1, Currency1: token0, Fee: 3000, TickSpacing: 60}
	if _, err := e.Initialize(ctx, lp, unsorted, liquidity.Q96, nil); !errors.Is(err, ErrCurrencyNotSorted) {
		t.Fatalf("expected ErrCurrencyNotSorted, got %v", err)
	}

	hooked := testKey()
	hooked.Hooks = common.HexToAddress("0x000000000000000000000000000000000000beef")
	if _, err := e.Initialize(ctx, lp, hooked, liquidity.Q96, nil); !errors.Is(err, ErrHookNotRegistered) {
		t.Fatalf("expected ErrHookNotRegistered, got %v", err)
	}
}

func TestOperationsRequireUnlock(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	key := testKey()

	if _, err := e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{TickLower: -60, TickUpper: 60, LiquidityDelta: big.NewInt(1)}); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked from ModifyLiquidity, got %v", err)
	}
	if _, err := e.Swap(ctx, lp, key, model.SwapParams{ZeroForOne: true, AmountIn: big.NewInt(1)}); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked from Swap, got %v", err)
	}
	if err := e.Settle(lp, token0, big.NewInt(1)); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked from Settle, got %v", err)
	}

	err := e.Unlock(ctx, lp, func(ctx context.Context) error {
		return e.Unlock(ctx, lp, func(context.Context) error { return nil })
	})
	if !errors.Is(err, ErrAlreadyUnlocked) {
		t.Fatalf("expected ErrAlreadyUnlocked, got %v", err)
	}
	if e.IsUnlocked() {
		t.Fatalf("engine left unlocked")
	}
}

func TestUnsettledSessionReverts(t *testing.T) {
	e := newTestEngine(t)
	key := testKey()

	err := e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		_, err := e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
			TickLower: -600, TickUpper: 600, LiquidityDelta: big.NewInt(1_000_000_000),
		})
		return err
	})
	if !errors.Is(err, ErrCurrencyNotSettled) {
		t.Fatalf("expected ErrCurrencyNotSettled, got %v", err)
	}
	if got := e.PositionLiquidity(key.ID(), lp, -600, 600); got.Sign() != 0 {
		t.Fatalf("position survived revert: %s", got)
	}
	if got, _ := e.Liquidity(key.ID()); got.Sign() != 0 {
		t.Fatalf("active liquidity survived revert: %s", got)
	}
}

type recordingJournal struct {
	value    int
	reverted int
}

func (j *recordingJournal) Snapshot() func() {
	saved := j.value
	return func() {
		j.value = saved
		j.reverted++
	}
}

func TestJournalRevertsWithSession(t *testing.T) {
	e := newTestEngine(t)
	j := &recordingJournal{value: 1}
	e.AddJournal(j)

	boom := errors.New("boom")
	err := e.Unlock(context.Background(), lp, func(context.Context) error {
		j.value = 2
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if j.value != 1 || j.reverted != 1 {
		t.Fatalf("journal not reverted: value=%d reverted=%d", j.value, j.reverted)
	}

	if err := e.Unlock(context.Background(), lp, func(context.Context) error {
		j.value = 3
		return nil
	}); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if j.value != 3 || j.reverted != 1 {
		t.Fatalf("journal reverted on success: value=%d reverted=%d", j.value, j.reverted)
	}
}

func TestModifyLiquidityAmounts(t *testing.T) {
	e := newTestEngine(t)
	key := testKey()

	err := e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		// Entirely above the price: token0 only.
		delta, err := e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
			TickLower: 600, TickUpper: 1200, LiquidityDelta: big.NewInt(1_000_000_000_000),
		})
		if err != nil {
			return err
		}
		if delta.Amount0.Sign() >= 0 || delta.Amount1.Sign() != 0 {
			t.Errorf("above-range delta = (%s, %s)", delta.Amount0, delta.Amount1)
		}
		settle(t, e, lp, key, delta)

		// Entirely below the price: token1 only.
		delta, err = e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
			TickLower: -1200, TickUpper: -600, LiquidityDelta: big.NewInt(1_000_000_000_000),
		})
		if err != nil {
			return err
		}
		if delta.Amount0.Sign() != 0 || delta.Amount1.Sign() >= 0 {
			t.Errorf("below-range delta = (%s, %s)", delta.Amount0, delta.Amount1)
		}
		settle(t, e, lp, key, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if got, _ := e.Liquidity(key.ID()); got.Sign() != 0 {
		t.Fatalf("out-of-range positions counted as active: %s", got)
	}

	err = e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		_, err := e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
			TickLower: 600, TickUpper: 1200, LiquidityDelta: big.NewInt(-2_000_000_000_000),
		})
		return err
	})
	if !errors.Is(err, ErrInsufficientLiquidity) {
		t.Fatalf("expected ErrInsufficientLiquidity, got %v", err)
	}
}

func TestModifyLiquidityTickValidation(t *testing.T) {
	e := newTestEngine(t)
	key := testKey()
	cases := []struct {
		name         string
		lower, upper int32
	}{
		{"inverted", 60, -60},
		{"misaligned", -61, 60},
		{"beyond bounds", -887280, 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.Unlock(context.Background(), lp, func(ctx context.Context) error {
				_, err := e.ModifyLiquidity(ctx, lp, key, model.ModifyLiquidityParams{
					TickLower: tc.lower, TickUpper: tc.upper, LiquidityDelta: big.NewInt(1),
				})
				return err
			})
			if !errors.Is(err, ErrInvalidTickRange) {
				t.Fatalf("expected ErrInvalidTickRange, got %v", err)
			}
		})
	}
}

func TestSwapExactInput(t *testing.T) {
	e := newTestEngine(t)
	key := testKey()
	addLiquidity(t, e, -6000, 6000, 1_000_000_000_000_000_000)

	before1 := e.BalanceOf(token1, lp)
	amountIn := big.NewInt(1_000_000_000_000_000)
	err := e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		delta, err := e.Swap(ctx, lp, key, model.SwapParams{ZeroForOne: true, AmountIn: amountIn})
		if err != nil {
			return err
		}
		if new(big.Int).Neg(delta.Amount0).Cmp(amountIn) != 0 {
			t.Errorf("spent %s, want %s", new(big.Int).Neg(delta.Amount0), amountIn)
		}
		if delta.Amount1.Sign() <= 0 || delta.Amount1.Cmp(amountIn) >= 0 {
			t.Errorf("received %s, want (0, %s)", delta.Amount1, amountIn)
		}
		settle(t, e, lp, key, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}

	slot0, _ := e.Slot0(key.ID())
	if slot0.Tick >= 0 {
		t.Fatalf("tick after selling token0 = %d, want < 0", slot0.Tick)
	}
	if e.BalanceOf(token1, lp).Cmp(before1) <= 0 {
		t.Fatalf("token1 balance did not grow")
	}
}

func TestSwapStopsAtPriceLimit(t *testing.T) {
	e := newTestEngine(t)
	key := testKey()
	addLiquidity(t, e, -6000, 6000, 1_000_000_000_000_000_000)

	limit, err := liquidity.SqrtPriceAtTick(-120)
	if err != nil {
		t.Fatalf("sqrt price: %v", err)
	}
	amountIn, _ := new(big.Int).SetString("50000000000000000000", 10)
	err = e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		delta, err := e.Swap(ctx, lp, key, model.SwapParams{ZeroForOne: true, AmountIn: amountIn, SqrtPriceLimitX96: limit})
		if err != nil {
			return err
		}
		if new(big.Int).Neg(delta.Amount0).Cmp(amountIn) >= 0 {
			t.Errorf("limit swap consumed the whole input")
		}
		settle(t, e, lp, key, delta)

		// A limit behind the price does nothing.
		delta, err = e.Swap(ctx, lp, key, model.SwapParams{ZeroForOne: true, AmountIn: amountIn, SqrtPriceLimitX96: limit})
		if err != nil {
			return err
		}
		if delta.Amount0.Sign() != 0 || delta.Amount1.Sign() != 0 {
			t.Errorf("repeat swap delta = (%s, %s), want zero", delta.Amount0, delta.Amount1)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}

	slot0, _ := e.Slot0(key.ID())
	if slot0.SqrtPriceX96.Cmp(limit) != 0 || slot0.Tick != -120 {
		t.Fatalf("slot0 = (%s, %d), want limit at tick -120", slot0.SqrtPriceX96, slot0.Tick)
	}
}

func TestSwapCrossesInitializedTicks(t *testing.T) {
	e := newTestEngine(t)
	key := testKey()
	addLiquidity(t, e, -600, 600, 1_000_000_000_000)
	addLiquidity(t, e, 600, 1200, 1_000_000_000_000)

	limit, err := liquidity.SqrtPriceAtTick(900)
	if err != nil {
		t.Fatalf("sqrt price: %v", err)
	}
	amountIn, _ := new(big.Int).SetString("1000000000000000000", 10)
	err = e.Unlock(context.Background(), lp, func(ctx context.Context) error {
		delta, err := e.Swap(ctx, lp, key, model.SwapParams{ZeroForOne: false, AmountIn: amountIn, SqrtPriceLimitX96: limit})
		if err != nil {
			return err
		}
		settle(t, e, lp, key, delta)
		return nil
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}

	slot0, _ := e.Slot0(key.ID())
	if slot0.Tick != 900 {
		t.Fatalf("tick = %d, want 900", slot0.Tick)
	}
	active, _ := e.Liquidity(key.ID())
	if active.Cmp(big.NewInt(1_000_000_000_000)) != 0 {
		t.Fatalf("active liquidity after crossing = %s", active)
	}
}

func TestNextInitializedTick(t *testing.T) {
	p := newPool(testKey(), liquidity.Q96, 0)
	p.updateTick(-120, big.NewInt(5), false)
	p.updateTick(180, big.NewInt(5), true)

	if tick, ok := p.nextInitializedTick(0, true); !ok || tick != -120 {
		t.Fatalf("lte from 0 = (%d, %v), want (-120, true)", tick, ok)
	}
	if tick, ok := p.nextInitializedTick(-120, true); !ok || tick != -120 {
		t.Fatalf("lte from -120 = (%d, %v), want (-120, true)", tick, ok)
	}
	if tick, ok := p.nextInitializedTick(180, false); ok || tick != liquidity.MaxTick {
		t.Fatalf("gt from 180 = (%d, %v), want (max, false)", tick, ok)
	}
	if tick, ok := p.nextInitializedTick(0, false); !ok || tick != 180 {
		t.Fatalf("gt from 0 = (%d, %v), want (180, true)", tick, ok)
	}

	p.updateTick(-120, big.NewInt(-5), false)
	if _, ok := p.ticks[-120]; ok {
		t.Fatalf("tick -120 still initialized after removal")
	}
	if tick, ok := p.nextInitializedTick(0, true); ok || tick != liquidity.MinTick {
		t.Fatalf("lte after removal = (%d, %v), want (min, false)", tick, ok)
	}
}

func TestLedgerTransfer(t *testing.T) {
	l := NewLedger()
	if err := l.Mint(token0, lp, big.NewInt(10)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Transfer(token0, lp, managerAddr, big.NewInt(11)); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	if err := l.Transfer(token0, lp, managerAddr, big.NewInt(-1)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if err := l.Transfer(token0, lp, managerAddr, big.NewInt(4)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	snap := l.clone()
	if err := l.Transfer(token0, lp, managerAddr, big.NewInt(6)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := snap.Balance(token0, lp); got.Int64() != 6 {
		t.Fatalf("clone balance changed to %s", got)
	}
	if got := l.Balance(token0, managerAddr); got.Int64() != 10 {
		t.Fatalf("manager balance = %s, want 10", got)
	}
}
