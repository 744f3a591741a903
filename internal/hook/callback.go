package hook

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityLaunch/internal/model"
)

// Request is an engine operation issued by the hook inside an unlock session.
type Request interface {
	request()
}

// ModifyPosition changes the hook's liquidity over a range. Amounts owed to
// the hook are sent to Recipient.
type ModifyPosition struct {
	Key       model.PoolKey
	Params    model.ModifyLiquidityParams
	Recipient common.Address
}

// Swap trades hook custody against the pool.
type Swap struct {
	Key    model.PoolKey
	Params model.SwapParams
}

func (ModifyPosition) request() {}
func (Swap) request()           {}

// execute runs req for account and settles the resulting delta so the
// account leaves no open balance behind.
func (h *Hook) execute(ctx context.Context, account common.Address, req Request) (model.BalanceDelta, error) {
	var (
		key       model.PoolKey
		delta     model.BalanceDelta
		recipient = account
		err       error
	)
	switch r := req.(type) {
	case ModifyPosition:
		key = r.Key
		if r.Recipient != (common.Address{}) {
			recipient = r.Recipient
		}
		delta, err = h.engine.ModifyLiquidity(ctx, account, r.Key, r.Params)
	case Swap:
		key = r.Key
		delta, err = h.engine.Swap(ctx, account, r.Key, r.Params)
	default:
		return model.ZeroDelta(), fmt.Errorf("unsupported request %T", req)
	}
	if err != nil {
		return model.ZeroDelta(), err
	}
	if err := h.settle(account, key.Currency0, delta.Amount0, recipient); err != nil {
		return model.ZeroDelta(), err
	}
	if err := h.settle(account, key.Currency1, delta.Amount1, recipient); err != nil {
		return model.ZeroDelta(), err
	}
	return delta, nil
}

func (h *Hook) settle(account, currency common.Address, amount *big.Int, recipient common.Address) error {
	if amount == nil {
		return nil
	}
	switch amount.Sign() {
	case -1:
		return h.engine.Settle(account, currency, new(big.Int).Neg(amount))
	case 1:
		return h.engine.Take(account, currency, recipient, amount)
	}
	return nil
}
