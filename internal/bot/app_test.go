package bot

import (
	"context"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/solana-arb-bot/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		PrivateKey:     solana.NewWallet().PrivateKey.String(),
		RPCURL:         "http://127.0.0.1:1",
		QuoteBaseURL:   "http://127.0.0.1:1",
		BaseMint:       config.WrappedSOLMint,
		TargetMints:    []string{config.USDCMint, config.USDTMint},
		AmountIn:       config.DefaultAmountIn,
		SlippageBps:    config.DefaultSlippageBps,
		GasEstimate:    config.DefaultGasEstimate,
		SafetyMargin:   config.DefaultSafetyMargin,
		PairDelay:      time.Hour,
		CycleDelay:     time.Hour,
		ConfirmTimeout: time.Second,
		Relay:          "solayer",
		JitoRegion:     "mainnet",
	}
}

func TestNew(t *testing.T) {
	for _, relayName := range []string{"solayer", "jito", "rpc"} {
		t.Run(relayName, func(t *testing.T) {
			cfg := testConfig()
			cfg.Relay = relayName
			app, err := New(cfg, zaptest.NewLogger(t))
			require.NoError(t, err)
			assert.NotNil(t, app.runner)
		})
	}
}

func TestNewRejectsBadKey(t *testing.T) {
	cfg := testConfig()
	cfg.PrivateKey = "short"
	_, err := New(cfg, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestRunReturnsOnCancel(t *testing.T) {
	app, err := New(testConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
