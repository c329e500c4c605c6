// internal/bot/app.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-arb-bot/internal/arbitrage"
	"github.com/rovshanmuradov/solana-arb-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-arb-bot/internal/config"
	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
	"github.com/rovshanmuradov/solana-arb-bot/internal/logger"
	"github.com/rovshanmuradov/solana-arb-bot/internal/metrics"
	"github.com/rovshanmuradov/solana-arb-bot/internal/relay"
	"github.com/rovshanmuradov/solana-arb-bot/internal/txbuilder"
	"github.com/rovshanmuradov/solana-arb-bot/internal/wallet"
)

// App owns the wired daemon: the arbitrage runner and the optional status server.
type App struct {
	cfg      *config.Config
	logger   *zap.Logger
	runner   *arbitrage.Runner
	registry *prometheus.Registry
}

// New builds every component from cfg.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	w, err := wallet.NewWallet(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	chain := solbc.NewClient(cfg.RPCURL, logger)
	quotes := jupiter.NewClient(cfg.QuoteBaseURL, logger)

	submitter, err := relay.New(cfg.Relay, relay.Options{
		JitoRegion: cfg.JitoRegion,
		Sender:     chain,
	}, logger)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	runner, err := arbitrage.NewRunner(arbitrage.Config{
		BaseMint:    cfg.BaseMint,
		TargetMints: cfg.TargetMints,
		AmountIn:    cfg.AmountIn,
		SlippageBps: cfg.SlippageBps,
		Evaluator: arbitrage.EvaluatorParams{
			MinOutRequired: cfg.MinOutRequired,
			GasEstimate:    cfg.GasEstimate,
			SafetyMargin:   cfg.SafetyMargin,
		},
		PairDelay:      cfg.PairDelay,
		CycleDelay:     cfg.CycleDelay,
		SettleDelay:    cfg.SettleDelay,
		ConfirmTimeout: cfg.ConfirmTimeout,
		Priority: txbuilder.Priority{
			ComputeUnits: cfg.ComputeUnitLimit,
			UnitPrice:    cfg.ComputeUnitPrice,
		},
		VenueProbe: cfg.VenueProbe,
	}, quotes, chain, submitter, w, arbitrage.NewSession(), logger, arbitrage.WithObserver(collector))
	if err != nil {
		return nil, err
	}

	logger.Info("Bot initialized",
		zap.String("wallet", w.String()),
		zap.String("rpc", cfg.MaskedRPCURL()),
		zap.String("relay", submitter.Name()),
		zap.Strings("targets", cfg.TargetMints))

	return &App{cfg: cfg, logger: logger, runner: runner, registry: registry}, nil
}

// Run blocks until ctx is cancelled or a component fails. Cancellation is a
// clean shutdown and returns nil.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.runner.Run(gctx)
	})

	if a.cfg.MetricsAddr != "" {
		router := metrics.NewRouter(a.registry, a.runner.Session().Snapshot)
		g.Go(func() error {
			return metrics.Serve(gctx, a.cfg.MetricsAddr, router, a.logger.Named("status"))
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}

	stats := a.runner.Session().Snapshot()
	a.logger.Info("Final session stats",
		zap.Int("cycles", stats.Cycles),
		zap.Int("total_trades", stats.TotalTrades),
		zap.Int("successful_trades", stats.SuccessfulTrades),
		zap.String("total_profit_sol", stats.TotalProfitSOL),
		zap.String("uptime", stats.Uptime))
	return err
}

// Shutdown flushes the logger.
func (a *App) Shutdown() {
	a.logger.Info("Bot shutting down")
	if err := logger.Sync(a.logger); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to sync logger during shutdown: %v\n", err)
	}
}
