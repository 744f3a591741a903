package model

import (
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// PoolID identifies a pool by the hash of its key.
type PoolID = common.Hash

// PoolKey describes a pool: its two currencies (sorted), fee tier, tick spacing and hook.
type PoolKey struct {
	Currency0   common.Address `json:"currency0"`
	Currency1   common.Address `json:"currency1"`
	Fee         uint32         `json:"fee"`
	TickSpacing int32          `json:"tick_spacing"`
	Hooks       common.Address `json:"hooks"`
}

// ID returns keccak256(currency0 || currency1 || fee || tickSpacing || hooks).
func (k PoolKey) ID() PoolID {
	var fee [4]byte
	var spacing [4]byte
	binary.BigEndian.PutUint32(fee[:], k.Fee)
	binary.BigEndian.PutUint32(spacing[:], uint32(k.TickSpacing))
	return crypto.Keccak256Hash(k.Currency0.Bytes(), k.Currency1.Bytes(), fee[:], spacing[:], k.Hooks.Bytes())
}

// Currency returns currency0 when first is true, currency1 otherwise.
func (k PoolKey) Currency(first bool) common.Address {
	if first {
		return k.Currency0
	}
	return k.Currency1
}

// Slot0 is the current price state of a pool.
type Slot0 struct {
	SqrtPriceX96 *big.Int
	Tick         int32
}
