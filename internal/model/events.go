package model

// Event kinds emitted by the release hook.
const (
	EventSync      = "sync"
	EventFinalize  = "finalize"
	EventOwnership = "ownership"
)

// Reconciliation branches.
const (
	BranchExtend         = "extend"
	BranchSellThenExtend = "sell_then_extend"
)

// SyncEvent records one effectful hook operation. Amounts are decimal strings.
type SyncEvent struct {
	Kind           string `json:"kind"`
	PoolID         string `json:"pool_id"`
	Epoch          uint64 `json:"epoch"`
	Timestamp      uint64 `json:"timestamp"`
	Branch         string `json:"branch,omitempty"`
	Delta          string `json:"delta,omitempty"`
	Sold           string `json:"sold,omitempty"`
	FloorTick      int32  `json:"floor_tick"`
	Liquidity      string `json:"liquidity,omitempty"`
	AmountReleased string `json:"amount_released,omitempty"`
	Owner          string `json:"owner,omitempty"`
}
