package model

// LivePool is the state of a deployed V3-style pool read over RPC.
type LivePool struct {
	Address      string    `json:"address"`
	Token0       TokenMeta `json:"token0"`
	Token1       TokenMeta `json:"token1"`
	Fee          uint32    `json:"fee"`
	TickSpacing  int32     `json:"tick_spacing"`
	Liquidity    string    `json:"liquidity,omitempty"`
	SqrtPriceX96 string    `json:"sqrt_price_x96"`
	Tick         int32     `json:"tick"`
	BlockNumber  uint64    `json:"block_number"`
	Timestamp    uint64    `json:"timestamp"`
}

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"address"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}
