package config

import (
	"time"

	"github.com/spf13/pflag"
)

// SimulateConfig extends Config with the knobs of the simulate command.
type SimulateConfig struct {
	Config
	Step           time.Duration
	BuyerLiquidity string
	BuyAmount      string
	InitialTick    int32
}

// LoadSimulate merges config file, environment variables, and flags into SimulateConfig.
func LoadSimulate(cfgFile string, flags *pflag.FlagSet) (SimulateConfig, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return SimulateConfig{}, err
	}
	v.SetDefault("step", time.Hour)
	v.SetDefault("buyer-liquidity", "0")
	v.SetDefault("buy-amount", "0")

	return SimulateConfig{
		Config:         fromViper(v),
		Step:           v.GetDuration("step"),
		BuyerLiquidity: v.GetString("buyer-liquidity"),
		BuyAmount:      v.GetString("buy-amount"),
		InitialTick:    v.GetInt32("initial-tick"),
	}, nil
}
