package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Schedule is the immutable release plan of a pool.
// MinTick and MaxTick are expressed in the pool's own tick space.
type Schedule struct {
	TotalAmount         *big.Int `json:"total_amount"`
	StartTime           uint64   `json:"start_time"`
	EndTime             uint64   `json:"end_time"`
	MinTick             int32    `json:"min_tick"`
	MaxTick             int32    `json:"max_tick"`
	IsReleaseTokenFirst bool     `json:"is_release_token_first"`
}

// Duration returns EndTime - StartTime.
func (s Schedule) Duration() uint64 {
	return s.EndTime - s.StartTime
}

// Progress is the mutable release state of a pool.
type Progress struct {
	AmountReleased         *big.Int            `json:"amount_released"`
	CurrentFloorTick       int32               `json:"current_floor_tick"`
	ReconciledEpochs       map[uint64]struct{} `json:"reconciled_epochs"`
	ReconciliationDisabled bool                `json:"reconciliation_disabled"`
	Owner                  common.Address      `json:"owner"`
	EpochSize              uint64              `json:"epoch_size"`
}

// IsReconciled reports whether the epoch already ran.
func (p Progress) IsReconciled(epoch uint64) bool {
	_, ok := p.ReconciledEpochs[epoch]
	return ok
}

// MarkReconciled records the epoch as processed.
func (p *Progress) MarkReconciled(epoch uint64) {
	if p.ReconciledEpochs == nil {
		p.ReconciledEpochs = make(map[uint64]struct{})
	}
	p.ReconciledEpochs[epoch] = struct{}{}
}

// Clone returns a deep copy that shares no mutable state with p.
func (p Progress) Clone() Progress {
	out := p
	out.AmountReleased = cloneInt(p.AmountReleased)
	out.ReconciledEpochs = make(map[uint64]struct{}, len(p.ReconciledEpochs))
	for epoch := range p.ReconciledEpochs {
		out.ReconciledEpochs[epoch] = struct{}{}
	}
	return out
}

// Clone returns a deep copy of the schedule.
func (s Schedule) Clone() Schedule {
	out := s
	out.TotalAmount = cloneInt(s.TotalAmount)
	return out
}

func cloneInt(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}
