package dex

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"liquidityLaunch/internal/model"
)

// Caller executes read-only contract calls. *chain.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	mu   sync.RWMutex
	data map[common.Address]model.TokenMeta
}

func NewTokenMetaCache() *TokenMetaCache {
	return &TokenMetaCache{data: make(map[common.Address]model.TokenMeta)}
}

func (c *TokenMetaCache) Get(address common.Address) (model.TokenMeta, bool) {
	if c == nil {
		return model.TokenMeta{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.data[address]
	return meta, ok
}

func (c *TokenMetaCache) Set(address common.Address, meta model.TokenMeta) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.data[address] = meta
	c.mu.Unlock()
}

// slot0Result mirrors the outputs of the V3 slot0() getter.
type slot0Result struct {
	SqrtPriceX96               *big.Int
	Tick                       *big.Int
	ObservationIndex           uint16
	ObservationCardinality     uint16
	ObservationCardinalityNext uint16
	FeeProtocol                uint8
	Unlocked                   bool
}

// reader issues eth_calls pinned to one block.
type reader struct {
	ctx    context.Context
	caller Caller
	block  *big.Int
}

func (r reader) unpack(to common.Address, parsed abi.ABI, method string, out interface{}) error {
	data, err := parsed.Pack(method)
	if err != nil {
		return fmt.Errorf("pack %s: %w", method, err)
	}
	resp, err := r.caller.CallContract(r.ctx, ethereum.CallMsg{To: &to, Data: data}, r.block)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	if len(resp) == 0 {
		return fmt.Errorf("call %s: empty result", method)
	}
	if err := parsed.UnpackIntoInterface(out, method, resp); err != nil {
		return fmt.Errorf("unpack %s: %w", method, err)
	}
	return nil
}

// ReadPool loads the configuration and price state of a V3-style pool at
// block (nil means latest). Token metadata failures are logged and leave
// the token with only its address.
func ReadPool(ctx context.Context, caller Caller, pool common.Address, block *big.Int, tokenCache *TokenMetaCache, logger *zap.Logger) (model.LivePool, error) {
	if caller == nil {
		return model.LivePool{}, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	poolABI, err := V3PoolABI()
	if err != nil {
		return model.LivePool{}, fmt.Errorf("parse pool abi: %w", err)
	}
	r := reader{ctx: ctx, caller: caller, block: block}

	var (
		token0, token1 common.Address
		fee, spacing   *big.Int
		slot0          slot0Result
	)
	if err := r.unpack(pool, poolABI, "token0", &token0); err != nil {
		return model.LivePool{}, err
	}
	if err := r.unpack(pool, poolABI, "token1", &token1); err != nil {
		return model.LivePool{}, err
	}
	if err := r.unpack(pool, poolABI, "fee", &fee); err != nil {
		return model.LivePool{}, err
	}
	if err := r.unpack(pool, poolABI, "tickSpacing", &spacing); err != nil {
		return model.LivePool{}, err
	}
	if err := r.unpack(pool, poolABI, "slot0", &slot0); err != nil {
		return model.LivePool{}, err
	}

	tickSpacing, err := int24FromBig(spacing)
	if err != nil {
		return model.LivePool{}, fmt.Errorf("tick spacing: %w", err)
	}
	tick, err := int24FromBig(slot0.Tick)
	if err != nil {
		return model.LivePool{}, fmt.Errorf("slot0 tick: %w", err)
	}
	if !fee.IsUint64() || fee.Uint64() >= 1<<24 {
		return model.LivePool{}, fmt.Errorf("fee out of range: %s", fee)
	}

	live := model.LivePool{
		Address:      pool.Hex(),
		Token0:       tokenMeta(r, token0, tokenCache, logger),
		Token1:       tokenMeta(r, token1, tokenCache, logger),
		Fee:          uint32(fee.Uint64()),
		TickSpacing:  tickSpacing,
		SqrtPriceX96: slot0.SqrtPriceX96.String(),
		Tick:         tick,
	}
	if block != nil {
		live.BlockNumber = block.Uint64()
	}

	// Some forks drop the liquidity getter; the floor plan does not need it.
	var liq *big.Int
	if err := r.unpack(pool, poolABI, "liquidity", &liq); err != nil {
		logger.Debug("liquidity call failed", zap.String("pool", pool.Hex()), zap.Error(err))
	} else {
		live.Liquidity = liq.String()
	}
	return live, nil
}

func tokenMeta(r reader, token common.Address, cache *TokenMetaCache, logger *zap.Logger) model.TokenMeta {
	if meta, ok := cache.Get(token); ok {
		return meta
	}
	meta, err := FetchTokenMeta(r.ctx, r.caller, token, logger)
	if err != nil {
		logger.Warn("token metadata fetch failed", zap.String("token", token.Hex()), zap.Error(err))
	}
	cache.Set(token, meta)
	return meta
}

// FetchTokenMeta loads ERC20 decimals, symbol and name at the latest block.
// symbol and name fall back to the bytes32 variant used by older tokens.
func FetchTokenMeta(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (model.TokenMeta, error) {
	meta := model.TokenMeta{Address: token.Hex()}
	if caller == nil {
		return meta, fmt.Errorf("chain client is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	stringABI, err := erc20ABIString.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}
	r := reader{ctx: ctx, caller: caller}

	if err := r.unpack(token, stringABI, "decimals", &meta.Decimals); err != nil {
		return meta, err
	}

	text := func(method string) string {
		var s string
		if err := r.unpack(token, stringABI, method, &s); err == nil {
			return s
		}
		var raw [32]byte
		if err := r.unpack(token, bytes32ABI, method, &raw); err != nil {
			logger.Debug("token text call failed", zap.String("token", token.Hex()), zap.String("method", method), zap.Error(err))
			return ""
		}
		return string(bytes.TrimRight(raw[:], "\x00"))
	}
	meta.Symbol = text("symbol")
	meta.Name = text("name")
	return meta, nil
}

// int24FromBig narrows an ABI int24 value.
func int24FromBig(value *big.Int) (int32, error) {
	if value == nil {
		return 0, fmt.Errorf("missing int24 value")
	}
	if !value.IsInt64() || value.Int64() < -(1<<23) || value.Int64() >= 1<<23 {
		return 0, fmt.Errorf("int24 overflow: %s", value)
	}
	return int32(value.Int64()), nil
}
