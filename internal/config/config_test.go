package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/pflag"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want uint64
		err  bool
	}{
		{"", 0, false},
		{"100000", 100000, false},
		{"2024-01-01T00:00:00Z", 1704067200, false},
		{"yesterday", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.in)
		if (err != nil) != tc.err {
			t.Fatalf("ParseTimestamp(%q) error = %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("ParseTimestamp(%q) mismatch: got %d want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseAddress(t *testing.T) {
	if _, err := ParseAddress("0x1234"); err == nil {
		t.Fatalf("expected error for short address")
	}
	addr, err := ParseAddress(" 0x00000000000000000000000000000000000000aa ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if addr != common.HexToAddress("0xaa") {
		t.Fatalf("address mismatch: %s", addr.Hex())
	}
}

func TestLoadMergesFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "launch.yaml")
	content := "total-amount: \"1000000000000000000000\"\nstart: \"10000\"\nend: \"96400\"\nmin-tick: 5000\nmax-tick: 10000\nepoch-size: 30m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LAUNCH_TICK_SPACING", "10")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	if err := flags.Parse([]string{"--log-level=debug"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	cfg, err := Load(path, flags)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.TickSpacing != 10 || cfg.Fee != 3000 || !cfg.ReleaseToken0 {
		t.Fatalf("config mismatch: %+v", cfg)
	}

	s, epochSize, err := cfg.Schedule()
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if epochSize != 1800 || s.StartTime != 10000 || s.EndTime != 96400 || s.MinTick != 5000 || s.MaxTick != 10000 {
		t.Fatalf("schedule mismatch: %+v epoch %d", s, epochSize)
	}
	if s.TotalAmount.String() != "1000000000000000000000" {
		t.Fatalf("total mismatch: %s", s.TotalAmount)
	}
}

func TestScheduleRejectsBadValues(t *testing.T) {
	base := Config{TotalAmount: "10", Start: "1", End: "2", EpochSize: time.Minute}
	cases := map[string]func(*Config){
		"zero total":  func(c *Config) { c.TotalAmount = "0" },
		"bad total":   func(c *Config) { c.TotalAmount = "ten" },
		"bad start":   func(c *Config) { c.Start = "soon" },
		"short epoch": func(c *Config) { c.EpochSize = time.Millisecond },
	}
	for name, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if _, _, err := cfg.Schedule(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
