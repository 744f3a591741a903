package engine

import (
	"math/big"

	"github.com/google/btree"

	"liquidityLaunch/internal/liquidity"
	"liquidityLaunch/internal/model"
)

type tickInfo struct {
	gross *big.Int
	net   *big.Int
}

// pool holds the price state and the initialized ticks of one pool. Big
// values are replaced, never mutated, so a shallow copy is a valid snapshot.
type pool struct {
	key          model.PoolKey
	sqrtPriceX96 *big.Int
	tick         int32
	liquidity    *big.Int
	ticks        map[int32]tickInfo
	index        *btree.BTreeG[int32]
}

func newPool(key model.PoolKey, sqrtPriceX96 *big.Int, tick int32) *pool {
	return &pool{
		key:          key,
		sqrtPriceX96: new(big.Int).Set(sqrtPriceX96),
		tick:         tick,
		liquidity:    big.NewInt(0),
		ticks:        make(map[int32]tickInfo),
		index:        btree.NewOrderedG[int32](16),
	}
}

func (p *pool) clone() *pool {
	out := *p
	out.ticks = make(map[int32]tickInfo, len(p.ticks))
	for tick, info := range p.ticks {
		out.ticks[tick] = info
	}
	out.index = p.index.Clone()
	return &out
}

func (p *pool) slot0() model.Slot0 {
	return model.Slot0{SqrtPriceX96: new(big.Int).Set(p.sqrtPriceX96), Tick: p.tick}
}

// updateTick applies a liquidity change at a range boundary.
func (p *pool) updateTick(tick int32, delta *big.Int, upper bool) {
	info, ok := p.ticks[tick]
	if !ok {
		info = tickInfo{gross: big.NewInt(0), net: big.NewInt(0)}
	}
	info.gross = new(big.Int).Add(info.gross, delta)
	if upper {
		info.net = new(big.Int).Sub(info.net, delta)
	} else {
		info.net = new(big.Int).Add(info.net, delta)
	}

	if info.gross.Sign() == 0 {
		delete(p.ticks, tick)
		p.index.Delete(tick)
		return
	}
	p.ticks[tick] = info
	p.index.ReplaceOrInsert(tick)
}

// nextInitializedTick returns the closest initialized tick at or below tick
// when lte is set, or strictly above tick otherwise. When none exists it
// returns the engine's tick bound and false.
func (p *pool) nextInitializedTick(tick int32, lte bool) (int32, bool) {
	var next int32
	found := false
	if lte {
		p.index.DescendLessOrEqual(tick, func(item int32) bool {
			next, found = item, true
			return false
		})
		if !found {
			return liquidity.MinTick, false
		}
		return next, true
	}

	if tick >= liquidity.MaxTick {
		return liquidity.MaxTick, false
	}
	p.index.AscendGreaterOrEqual(tick+1, func(item int32) bool {
		next, found = item, true
		return false
	})
	if !found {
		return liquidity.MaxTick, false
	}
	return next, true
}
