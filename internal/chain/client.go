package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Head is a block number with its timestamp.
type Head struct {
	Number    uint64
	Timestamp uint64
}

// Client is a read-only RPC client. It serves the eth_calls of the pool
// reader and the block time the release curve is evaluated at.
type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client

	mu    sync.RWMutex
	times map[uint64]uint64
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rc, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:   rc,
		eth:   ethclient.NewClient(rc),
		times: make(map[uint64]uint64),
	}, nil
}

func (c *Client) Close() {
	if c.rpc != nil {
		c.rpc.Close()
	}
}

// Head returns the latest block and its timestamp.
func (c *Client) Head(ctx context.Context) (Head, error) {
	number, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return Head{}, fmt.Errorf("block number: %w", err)
	}
	ts, err := c.BlockTimestamp(ctx, number)
	if err != nil {
		return Head{}, err
	}
	return Head{Number: number, Timestamp: ts}, nil
}

// BlockTimestamp returns the timestamp of block number. Results are cached
// since a mined header never changes.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	c.mu.RLock()
	ts, ok := c.times[number]
	c.mu.RUnlock()
	if ok {
		return ts, nil
	}

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}
	c.mu.Lock()
	c.times[number] = header.Time
	c.mu.Unlock()
	return header.Time, nil
}

// CallContract performs an eth_call at blockNumber (nil means latest).
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.eth.CallContract(ctx, msg, blockNumber)
}
