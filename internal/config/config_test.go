// internal/config/config_test.go
package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "4Z7cXSyeFR8wNGMVXUE1TwtKn5D5Vu7FzEv69dokLv7KrQk7h6pu4LF8ZRR9yQBhc7uSM6RTTZtU1fmaxiNrxXrs"

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("PRIVATE_KEY", testKey)
	t.Setenv("MAINNET_RPC", "https://api.mainnet-beta.solana.com")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, testKey, cfg.PrivateKey)
	assert.Equal(t, uint64(0), cfg.MinOutRequired)
	assert.Equal(t, WrappedSOLMint, cfg.BaseMint)
	assert.Equal(t, []string{USDCMint, USDTMint}, cfg.TargetMints)
	assert.Equal(t, uint64(DefaultAmountIn), cfg.AmountIn)
	assert.Equal(t, uint64(15_000), cfg.GasEstimate)
	assert.Equal(t, uint64(75_000), cfg.SafetyMargin)
	assert.Equal(t, 3*time.Second, cfg.PairDelay)
	assert.Equal(t, 15*time.Second, cfg.CycleDelay)
	assert.Equal(t, 1500*time.Millisecond, cfg.SettleDelay)
	assert.Equal(t, 20*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, "solayer", cfg.Relay)
}

func TestLoadMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		rpc     string
		wantErr error
	}{
		{name: "missing key", key: "", rpc: "https://rpc.example.com", wantErr: ErrMissingPrivateKey},
		{name: "missing rpc", key: testKey, rpc: "", wantErr: ErrMissingRPCURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("PRIVATE_KEY", tt.key)
			t.Setenv("MAINNET_RPC", tt.rpc)

			_, err := Load("")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("UPPER_AMOUNT_WITH_DECIMAL", "25000")
	t.Setenv("ARB_TARGET_MINTS", "mintA, mintB ,")
	t.Setenv("ARB_RELAY", "jito")
	t.Setenv("ARB_PAIR_DELAY_MS", "500")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, uint64(25_000), cfg.MinOutRequired)
	assert.Equal(t, []string{"mintA", "mintB"}, cfg.TargetMints)
	assert.Equal(t, "jito", cfg.Relay)
	assert.Equal(t, 500*time.Millisecond, cfg.PairDelay)
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"amount_in": 10000000,
		"slippage_bps": 100,
		"cycle_delay_ms": 30000,
		"relay": "rpc",
		"venue_probe": true
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(10_000_000), cfg.AmountIn)
	assert.Equal(t, 100, cfg.SlippageBps)
	assert.Equal(t, 30*time.Second, cfg.CycleDelay)
	assert.Equal(t, "rpc", cfg.Relay)
	assert.True(t, cfg.VenueProbe)
}

func TestValidateRejectsBadValues(t *testing.T) {
	base := func() *Config {
		return &Config{
			PrivateKey:       testKey,
			RPCURL:           "https://rpc.example.com",
			QuoteBaseURL:     DefaultQuoteBaseURL,
			BaseMint:         WrappedSOLMint,
			TargetMints:      []string{USDCMint},
			AmountIn:         1,
			ConfirmTimeoutMS: 1000,
			Relay:            "jito",
		}
	}
	require.NoError(t, base().validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"ws rpc", func(c *Config) { c.RPCURL = "wss://rpc.example.com" }},
		{"no targets", func(c *Config) { c.TargetMints = nil }},
		{"zero amount", func(c *Config) { c.AmountIn = 0 }},
		{"slippage", func(c *Config) { c.SlippageBps = 10_001 }},
		{"negative delay", func(c *Config) { c.CycleDelayMS = -1 }},
		{"no confirm timeout", func(c *Config) { c.ConfirmTimeoutMS = 0 }},
		{"relay", func(c *Config) { c.Relay = "carrier-pigeon" }},
		{"threshold overflow", func(c *Config) {
			c.MinOutRequired = math.MaxUint64 - 1_000
			c.GasEstimate = DefaultGasEstimate
			c.SafetyMargin = DefaultSafetyMargin
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.validate())
		})
	}
}

func TestMaskedRPCURL(t *testing.T) {
	cfg := &Config{RPCURL: "https://mainnet.helius-rpc.com/?api-key=secret"}
	assert.NotContains(t, cfg.MaskedRPCURL(), "secret")

	cfg.RPCURL = "https://api.mainnet-beta.solana.com"
	assert.Equal(t, cfg.RPCURL, cfg.MaskedRPCURL())
}
