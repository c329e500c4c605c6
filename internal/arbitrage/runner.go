// internal/arbitrage/runner.go
package arbitrage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/blockchain"
	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
	"github.com/rovshanmuradov/solana-arb-bot/internal/logger"
	"github.com/rovshanmuradov/solana-arb-bot/internal/relay"
	"github.com/rovshanmuradov/solana-arb-bot/internal/txbuilder"
	"github.com/rovshanmuradov/solana-arb-bot/internal/wallet"
)

// QuoteClient is the aggregator API used by the runner.
type QuoteClient interface {
	GetQuote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.Quote, error)
	GetSwapInstructions(ctx context.Context, quote *jupiter.Quote, userPublicKey string) (*jupiter.SwapInstructions, error)
}

type venueFamily struct {
	name   string
	labels []string
}

// venueFamilies are quoted separately when VenueProbe is on.
var venueFamilies = []venueFamily{
	{name: "raydium", labels: []string{"Raydium", "Raydium CLMM", "Raydium CP"}},
	{name: "orca", labels: []string{"Orca", "Whirlpool", "Orca V2"}},
}

// Config drives the poll loop.
type Config struct {
	BaseMint    string
	TargetMints []string
	AmountIn    uint64
	SlippageBps int
	Evaluator   EvaluatorParams

	PairDelay      time.Duration
	CycleDelay     time.Duration
	SettleDelay    time.Duration
	ConfirmTimeout time.Duration

	Priority   txbuilder.Priority
	VenueProbe bool
}

// PairResult describes one pair check, successful or not.
type PairResult struct {
	Pair               string
	Evaluation         Evaluation
	Leg1Signature      solana.Signature
	Leg2Signature      solana.Signature
	IntermediateAmount uint64
	BalanceBefore      uint64
	BalanceAfter       uint64
	Profit             int64
}

// Runner executes the quote, evaluate and swap loop over the configured pairs.
// All work happens sequentially on the calling goroutine.
type Runner struct {
	cfg      Config
	base     solana.PublicKey
	targets  []solana.PublicKey
	quotes   QuoteClient
	chain    blockchain.Client
	relay    relay.Submitter
	wallet   *wallet.Wallet
	session  *Session
	observer Observer
	logger   *zap.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithObserver reports runner events to o.
func WithObserver(o Observer) Option {
	return func(r *Runner) {
		if o != nil {
			r.observer = o
		}
	}
}

// NewRunner validates cfg and wires the collaborators.
func NewRunner(
	cfg Config,
	quotes QuoteClient,
	chain blockchain.Client,
	submitter relay.Submitter,
	w *wallet.Wallet,
	session *Session,
	logger *zap.Logger,
	opts ...Option,
) (*Runner, error) {
	base, err := solana.PublicKeyFromBase58(cfg.BaseMint)
	if err != nil {
		return nil, fmt.Errorf("invalid base mint %q: %w", cfg.BaseMint, err)
	}
	if len(cfg.TargetMints) == 0 {
		return nil, errors.New("no target mints configured")
	}
	targets := make([]solana.PublicKey, 0, len(cfg.TargetMints))
	for _, m := range cfg.TargetMints {
		pk, err := solana.PublicKeyFromBase58(m)
		if err != nil {
			return nil, fmt.Errorf("invalid target mint %q: %w", m, err)
		}
		targets = append(targets, pk)
	}
	if cfg.AmountIn == 0 {
		return nil, errors.New("amount in must be positive")
	}
	if session == nil {
		session = NewSession()
	}

	// Derive every token account once; the set of mints never changes.
	if err := w.PrecomputeATAs(append([]solana.PublicKey{base}, targets...)); err != nil {
		return nil, err
	}

	r := &Runner{
		cfg:      cfg,
		base:     base,
		targets:  targets,
		quotes:   quotes,
		chain:    chain,
		relay:    submitter,
		wallet:   w,
		session:  session,
		observer: nopObserver{},
		logger:   logger.Named("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Session returns the counters updated by the runner.
func (r *Runner) Session() *Session {
	return r.session
}

// Run polls until ctx is cancelled and then returns ctx.Err().
func (r *Runner) Run(ctx context.Context) error {
	return r.RunCycles(ctx, 0)
}

// RunCycles runs n full cycles over the target mints; n <= 0 runs until ctx is
// cancelled. Failed pair checks never stop the loop.
func (r *Runner) RunCycles(ctx context.Context, n int) error {
	r.logger.Info("Arbitrage loop started",
		zap.String("wallet", r.wallet.String()),
		zap.String("base_mint", r.base.String()),
		zap.Int("pairs", len(r.targets)),
		zap.String("relay", r.relay.Name()),
		zap.String("amount_in_sol", LamportsToSOL(int64(r.cfg.AmountIn)).String()))

	for cycle := 1; n <= 0 || cycle <= n; cycle++ {
		r.logger.Debug("Cycle started", zap.Int("cycle", cycle))

		for _, target := range r.targets {
			if _, err := r.CheckPair(ctx, target); err != nil && ctx.Err() != nil {
				return ctx.Err()
			}
			if err := sleepContext(ctx, r.cfg.PairDelay); err != nil {
				return err
			}
		}

		r.session.RecordCycle()
		if stats := r.session.Snapshot(); stats.TotalTrades > 0 {
			r.logger.Info("Session stats",
				zap.Int("cycle", cycle),
				zap.Int("total_trades", stats.TotalTrades),
				zap.Int("successful_trades", stats.SuccessfulTrades),
				zap.String("success_rate_pct", stats.SuccessRatePct),
				zap.String("total_profit_sol", stats.TotalProfitSOL))
		}

		if n > 0 && cycle == n {
			break
		}
		if err := sleepContext(ctx, r.cfg.CycleDelay); err != nil {
			return err
		}
	}
	return nil
}

// CheckPair quotes base -> target -> base and executes both legs when the
// round trip clears the evaluator threshold. Every failure is counted in the
// session and returned; cancellation is returned without being counted.
func (r *Runner) CheckPair(ctx context.Context, target solana.PublicKey) (result *PairResult, err error) {
	pair := pairName(r.base, target)
	log := logger.WithOperation(r.logger, "check_pair").With(zap.String("pair", pair))
	result = &PairResult{Pair: pair}

	defer func() {
		if err == nil {
			r.session.RecordSuccess(result.Profit)
			r.observer.ObserveAttempt(pair, true, "", result.Profit)
			return
		}
		if ctx.Err() != nil {
			log.Info("Pair check interrupted", zap.Error(err))
			return
		}
		reason := FailureReason(err)
		r.session.RecordFailure(err)
		r.observer.ObserveAttempt(pair, false, reason, 0)
		stats := r.session.Snapshot()
		log.Warn("Pair check failed",
			zap.String("reason", reason),
			zap.Error(err),
			zap.String("success_rate", fmt.Sprintf("%d/%d", stats.SuccessfulTrades, stats.TotalTrades)))
	}()

	baseATA, err := r.wallet.ATA(r.base)
	if err != nil {
		return result, err
	}
	result.BalanceBefore, err = r.chain.TokenBalance(ctx, baseATA)
	if err != nil {
		return result, fmt.Errorf("read base balance: %w", err)
	}

	log.Debug("Checking arbitrage")

	quote1, err := r.quote(ctx, "leg1", r.base, target, r.cfg.AmountIn, nil)
	if err != nil {
		return result, err
	}
	leg1Out, err := quote1.OutAmountU64()
	if err != nil {
		return result, err
	}

	quote2, err := r.quote(ctx, "leg2", target, r.base, leg1Out, nil)
	if err != nil {
		return result, err
	}
	leg2Out, err := quote2.OutAmountU64()
	if err != nil {
		return result, err
	}

	log.Info("Quote analysis",
		zap.Uint64("amount_in", r.cfg.AmountIn),
		zap.Uint64("leg1_out", leg1Out),
		zap.Uint64("leg2_out", leg2Out),
		zap.String("leg1_price_impact_pct", quote1.PriceImpactPct),
		zap.String("leg2_price_impact_pct", quote2.PriceImpactPct),
		zap.Strings("leg1_route", quote1.Labels()),
		zap.Strings("leg2_route", quote2.Labels()))

	if r.cfg.VenueProbe {
		r.probeVenues(ctx, log, target)
	}

	ev := Evaluate(r.cfg.AmountIn, leg2Out, r.cfg.Evaluator)
	result.Evaluation = ev
	r.observer.ObserveEvaluation(pair, ev)

	if !ev.Profitable {
		log.Info("Not profitable after fees",
			zap.Uint64("minimum_required", ev.MinimumProfitRequired),
			zap.Int64("net_profit", ev.NetProfit))
		return result, fmt.Errorf("%w: out %d <= required %d", ErrNotProfitable, leg2Out, ev.MinimumProfitRequired)
	}

	log.Info("Profitable round trip found",
		zap.String("net_profit_sol", ev.NetProfitSOL()),
		zap.String("net_profit_pct", ev.NetProfitPct.StringFixed(3)))

	// Leg 1: base -> target, creating the intermediate account if needed.
	userKey := r.wallet.PublicKey.String()
	swap1, err := r.quotes.GetSwapInstructions(ctx, quote1, userKey)
	if err != nil {
		return result, fmt.Errorf("swap1 instructions: %w", err)
	}
	swap1Ix, err := txbuilder.BuildInstruction(txbuilder.NewLeg(swap1, quote1))
	if err != nil {
		return result, fmt.Errorf("swap1: %w", err)
	}
	createATA, err := txbuilder.CreateATAIdempotent(r.wallet.PublicKey, r.wallet.PublicKey, target)
	if err != nil {
		return result, err
	}

	result.Leg1Signature, err = r.execute(ctx, log, "leg1",
		[]solana.Instruction{createATA, swap1Ix}, swap1.AddressLookupTableAddresses)
	if err != nil {
		return result, err
	}

	if err := sleepContext(ctx, r.cfg.SettleDelay); err != nil {
		return result, err
	}

	// Leg 2 spends what actually settled, not what leg 1 was quoted at.
	intermediateATA, err := r.wallet.ATA(target)
	if err != nil {
		return result, err
	}
	result.IntermediateAmount, err = r.chain.TokenBalance(ctx, intermediateATA)
	if err != nil {
		return result, fmt.Errorf("read intermediate balance: %w", err)
	}
	if result.IntermediateAmount == 0 {
		return result, ErrNoIntermediateBalance
	}
	log.Info("Intermediate balance settled", zap.Uint64("amount", result.IntermediateAmount))

	freshQuote2, err := r.quote(ctx, "leg2_fresh", target, r.base, result.IntermediateAmount, nil)
	if err != nil {
		return result, err
	}
	swap2, err := r.quotes.GetSwapInstructions(ctx, freshQuote2, userKey)
	if err != nil {
		return result, fmt.Errorf("swap2 instructions: %w", err)
	}

	plan := txbuilder.ParsePlan(swap1, swap2, quote1, freshQuote2)
	log.Debug("Swap plan",
		zap.Int("accounts", len(plan.Accounts)),
		zap.Int("lookup_tables", len(plan.LookupTables)),
		zap.Strings("mints", plan.Mints),
		zap.String("fresh_leg2_out", plan.Swap2.OutAmount))

	_, swap2Ix, err := txbuilder.BuildPlanInstructions(plan)
	if err != nil {
		return result, err
	}
	closeATA, err := txbuilder.CloseAccount(intermediateATA, r.wallet.PublicKey, r.wallet.PublicKey)
	if err != nil {
		return result, err
	}

	result.Leg2Signature, err = r.execute(ctx, log, "leg2",
		[]solana.Instruction{swap2Ix, closeATA}, swap2.AddressLookupTableAddresses)
	if err != nil {
		return result, err
	}

	result.BalanceAfter, err = r.chain.TokenBalance(ctx, baseATA)
	if err != nil {
		return result, fmt.Errorf("read final balance: %w", err)
	}
	result.Profit = int64(result.BalanceAfter) - int64(result.BalanceBefore)

	log.Info("Round trip completed",
		zap.Uint64("balance_before", result.BalanceBefore),
		zap.Uint64("balance_after", result.BalanceAfter),
		zap.String("profit_sol", LamportsToSOL(result.Profit).StringFixed(9)))

	return result, nil
}

func (r *Runner) quote(ctx context.Context, leg string, in, out solana.PublicKey, amount uint64, dexes []string) (*jupiter.Quote, error) {
	start := time.Now()
	q, err := r.quotes.GetQuote(ctx, jupiter.QuoteRequest{
		InputMint:   in.String(),
		OutputMint:  out.String(),
		Amount:      amount,
		SlippageBps: r.cfg.SlippageBps,
		Dexes:       dexes,
	})
	r.observer.ObserveQuote(leg, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%s quote: %w", leg, err)
	}
	return q, nil
}

// execute compiles, signs and submits one leg, then waits for confirmation.
func (r *Runner) execute(ctx context.Context, log *zap.Logger, leg string, instructions []solana.Instruction, lookupTables []string) (solana.Signature, error) {
	addresses, err := txbuilder.ParseLookupTableAddresses(lookupTables)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", leg, err)
	}
	tables, err := r.chain.LookupTables(ctx, addresses)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s lookup tables: %w", leg, err)
	}
	blockhash, err := r.chain.LatestBlockhash(ctx)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s blockhash: %w", leg, err)
	}

	tx, err := txbuilder.Compile(instructions, r.wallet.PublicKey, blockhash, tables, r.cfg.Priority)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s: %w", leg, err)
	}
	if err := r.wallet.SignTransaction(tx); err != nil {
		return solana.Signature{}, fmt.Errorf("%s sign: %w", leg, err)
	}

	start := time.Now()
	sig, err := r.relay.Submit(ctx, tx)
	r.observer.ObserveSubmission(r.relay.Name(), leg, time.Since(start), err)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%s submit via %s: %w", leg, r.relay.Name(), err)
	}
	log.Info("Transaction submitted",
		zap.String("leg", leg),
		zap.String("signature", logger.ShortSignature(sig.String())))

	start = time.Now()
	err = r.chain.WaitForConfirmation(ctx, sig, r.cfg.ConfirmTimeout)
	r.observer.ObserveConfirmation(leg, time.Since(start), err)
	if err != nil {
		return sig, fmt.Errorf("%s confirm %s: %w", leg, sig, err)
	}
	log.Info("Transaction confirmed", zap.String("leg", leg), zap.String("signature", sig.String()))
	return sig, nil
}

// probeVenues prices leg 1 on single venue families and logs the spread.
// Probe failures are informational only.
func (r *Runner) probeVenues(ctx context.Context, log *zap.Logger, target solana.PublicKey) {
	var best, worst uint64
	for _, venue := range venueFamilies {
		q, err := r.quote(ctx, "probe", r.base, target, r.cfg.AmountIn, venue.labels)
		if err != nil {
			log.Debug("Venue probe failed", zap.String("venue", venue.name), zap.Error(err))
			continue
		}
		out, err := q.OutAmountU64()
		if err != nil {
			continue
		}
		log.Debug("Venue quote", zap.String("venue", venue.name), zap.Uint64("out_amount", out))
		if best == 0 || out > best {
			best = out
		}
		if worst == 0 || out < worst {
			worst = out
		}
	}
	if best > 0 && worst > 0 && best != worst {
		log.Info("Venue spread",
			zap.Uint64("best_out", best),
			zap.Uint64("worst_out", worst),
			zap.Uint64("spread_bps", (best-worst)*10_000/worst))
	}
}

func pairName(base, target solana.PublicKey) string {
	b, t := logger.ShortAddress(base.String()), logger.ShortAddress(target.String())
	return b + "->" + t + "->" + b
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
