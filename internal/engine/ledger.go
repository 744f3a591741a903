package engine

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Ledger tracks token balances per currency and holder.
type Ledger struct {
	balances map[common.Address]map[common.Address]*uint256.Int
}

func NewLedger() *Ledger {
	return &Ledger{balances: make(map[common.Address]map[common.Address]*uint256.Int)}
}

// Balance returns the holder's balance of currency.
func (l *Ledger) Balance(currency, holder common.Address) *big.Int {
	bal, ok := l.balances[currency][holder]
	if !ok {
		return big.NewInt(0)
	}
	return bal.ToBig()
}

// Mint credits amount of currency to holder.
func (l *Ledger) Mint(currency, to common.Address, amount *big.Int) error {
	amt, err := toUint256(amount)
	if err != nil {
		return err
	}
	next, overflow := new(uint256.Int).AddOverflow(l.get(currency, to), amt)
	if overflow {
		return fmt.Errorf("mint %s: balance overflow", currency.Hex())
	}
	l.set(currency, to, next)
	return nil
}

// Transfer moves amount of currency between holders.
func (l *Ledger) Transfer(currency, from, to common.Address, amount *big.Int) error {
	amt, err := toUint256(amount)
	if err != nil {
		return err
	}
	if amt.IsZero() || from == to {
		return nil
	}
	remaining, underflow := new(uint256.Int).SubOverflow(l.get(currency, from), amt)
	if underflow {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrInsufficientBalance, from.Hex(), l.Balance(currency, from), amount)
	}
	credited, overflow := new(uint256.Int).AddOverflow(l.get(currency, to), amt)
	if overflow {
		return fmt.Errorf("transfer %s: balance overflow", currency.Hex())
	}
	l.set(currency, from, remaining)
	l.set(currency, to, credited)
	return nil
}

func (l *Ledger) get(currency, holder common.Address) *uint256.Int {
	if bal, ok := l.balances[currency][holder]; ok {
		return bal
	}
	return new(uint256.Int)
}

func (l *Ledger) set(currency, holder common.Address, value *uint256.Int) {
	holders, ok := l.balances[currency]
	if !ok {
		holders = make(map[common.Address]*uint256.Int)
		l.balances[currency] = holders
	}
	holders[holder] = value
}

// clone copies the maps; balances are replaced on write so values can be shared.
func (l *Ledger) clone() *Ledger {
	out := NewLedger()
	for currency, holders := range l.balances {
		copied := make(map[common.Address]*uint256.Int, len(holders))
		for holder, bal := range holders {
			copied[holder] = bal
		}
		out.balances[currency] = copied
	}
	return out
}

func toUint256(amount *big.Int) (*uint256.Int, error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}
	amt, overflow := uint256.FromBig(amount)
	if overflow {
		return nil, fmt.Errorf("%w: %s exceeds 256 bits", ErrInvalidAmount, amount)
	}
	return amt, nil
}
