package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"liquidityLaunch/internal/model"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	TotalAmount   string
	Start         string
	End           string
	MinTick       int32
	MaxTick       int32
	ReleaseToken0 bool
	EpochSize     time.Duration
	TickSpacing   int32
	Fee           uint32

	RPCURL       string
	Pool         string
	Out          string
	PGDSN        string
	StateFile    string
	MaxRetries   int
	RetryBackoff time.Duration
	LogLevel     string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags)
	if err != nil {
		return Config{}, err
	}
	return fromViper(v), nil
}

func newViper(cfgFile string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix("LAUNCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("epoch-size", time.Hour)
	v.SetDefault("tick-spacing", 60)
	v.SetDefault("fee", 3000)
	v.SetDefault("release-token0", true)
	v.SetDefault("out", "./data/sync_events.jsonl")
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func fromViper(v *viper.Viper) Config {
	return Config{
		TotalAmount:   v.GetString("total-amount"),
		Start:         v.GetString("start"),
		End:           v.GetString("end"),
		MinTick:       v.GetInt32("min-tick"),
		MaxTick:       v.GetInt32("max-tick"),
		ReleaseToken0: v.GetBool("release-token0"),
		EpochSize:     v.GetDuration("epoch-size"),
		TickSpacing:   v.GetInt32("tick-spacing"),
		Fee:           v.GetUint32("fee"),
		RPCURL:        v.GetString("rpc"),
		Pool:          v.GetString("pool"),
		Out:           v.GetString("out"),
		PGDSN:         v.GetString("pg-dsn"),
		StateFile:     v.GetString("state-file"),
		MaxRetries:    v.GetInt("max-retries"),
		RetryBackoff:  v.GetDuration("retry-backoff"),
		LogLevel:      v.GetString("log-level"),
	}
}

// Schedule converts the schedule fields and returns it with the epoch size
// in seconds.
func (c Config) Schedule() (model.Schedule, uint64, error) {
	total, err := model.ParseBigInt(c.TotalAmount)
	if err != nil {
		return model.Schedule{}, 0, fmt.Errorf("total amount: %w", err)
	}
	if total.Sign() <= 0 {
		return model.Schedule{}, 0, fmt.Errorf("total amount must be positive")
	}
	start, err := ParseTimestamp(c.Start)
	if err != nil {
		return model.Schedule{}, 0, fmt.Errorf("start: %w", err)
	}
	end, err := ParseTimestamp(c.End)
	if err != nil {
		return model.Schedule{}, 0, fmt.Errorf("end: %w", err)
	}
	epochSize := uint64(c.EpochSize / time.Second)
	if epochSize == 0 {
		return model.Schedule{}, 0, fmt.Errorf("epoch size must be at least 1s, got %s", c.EpochSize)
	}
	return model.Schedule{
		TotalAmount:         total,
		StartTime:           start,
		EndTime:             end,
		MinTick:             c.MinTick,
		MaxTick:             c.MaxTick,
		IsReleaseTokenFirst: c.ReleaseToken0,
	}, epochSize, nil
}
