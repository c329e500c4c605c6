// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	addresslookuptable "github.com/gagliardetto/solana-go/programs/address-lookup-table"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/blockchain"
)

const confirmPollInterval = 500 * time.Millisecond

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrConfirmationTimeout = errors.New("transaction confirmation timeout")
	ErrTransactionFailed   = errors.New("transaction failed on chain")

	errNotConfirmed = errors.New("transaction not confirmed yet")
)

// IsAccountNotFoundError reports whether err means the account does not exist.
func IsAccountNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "could not find account")
}

// Client is a thin adapter over the solana-go RPC client.
type Client struct {
	rpc    *rpc.Client
	logger *zap.Logger
}

var _ blockchain.Client = (*Client)(nil)

// NewClient creates a client for rpcURL.
func NewClient(rpcURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    rpc.New(rpcURL),
		logger: logger.Named("solbc-client"),
	}
}

// LatestBlockhash returns a recent blockhash at confirmed commitment.
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Error("GetLatestBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	return result.Value.Blockhash, nil
}

// TokenBalance returns the raw token amount held by a token account.
func (c *Client) TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		if IsAccountNotFoundError(err) {
			return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
		}
		return 0, fmt.Errorf("get token balance %s: %w", account, err)
	}
	if result == nil || result.Value == nil {
		return 0, fmt.Errorf("%w: %s", ErrAccountNotFound, account)
	}
	amount, err := strconv.ParseUint(result.Value.Amount, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse token balance %q: %w", result.Value.Amount, err)
	}
	return amount, nil
}

// LookupTables resolves address lookup tables. Tables that fail to load are
// skipped with a warning; the transaction can still compile without them.
func (c *Client) LookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error) {
	tables := make(map[solana.PublicKey]solana.PublicKeySlice, len(addresses))
	for _, address := range addresses {
		state, err := addresslookuptable.GetAddressLookupTable(ctx, c.rpc, address)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Warn("Error loading lookup table",
				zap.String("address", address.String()),
				zap.Error(err))
			continue
		}
		tables[address] = state.Addresses
	}
	return tables, nil
}

// SendTransaction submits tx straight to the node: no preflight, no node-side
// retries, processed commitment hint.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := uint(0)
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentProcessed,
		MaxRetries:          &maxRetries,
	})
	if err != nil {
		c.logger.Error("SendTransaction error", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}

// WaitForConfirmation polls the signature status until it reaches confirmed
// (or finalized) commitment. It fails with ErrConfirmationTimeout once timeout
// elapses and with ErrTransactionFailed when the transaction landed with an error.
func (c *Client) WaitForConfirmation(ctx context.Context, signature solana.Signature, timeout time.Duration) error {
	err := waitForConfirmation(ctx, c.rpc, signature, timeout, confirmPollInterval, c.logger)
	if errors.Is(err, ErrTransactionFailed) {
		return describeFailure(ctx, c.rpc, signature, err, c.logger)
	}
	return err
}

type transactionGetter interface {
	GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error)
}

// describeFailure fetches the program logs of a failed transaction and, when
// they carry an Anchor error, appends it to err.
func describeFailure(
	ctx context.Context,
	getter transactionGetter,
	signature solana.Signature,
	err error,
	logger *zap.Logger,
) error {
	maxVersion := uint64(0)
	tx, getErr := getter.GetTransaction(ctx, signature, &rpc.GetTransactionOpts{
		Commitment:                     rpc.CommitmentConfirmed,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if getErr != nil || tx == nil || tx.Meta == nil {
		logger.Debug("Could not fetch logs of failed transaction",
			zap.String("signature", signature.String()),
			zap.Error(getErr))
		return err
	}

	anchorErr, ok := ParseAnchorLogs(tx.Meta.LogMessages)
	if !ok {
		return err
	}
	logger.Warn("Transaction failed with program error",
		zap.String("signature", signature.String()),
		zap.Int("error_code", anchorErr.Code),
		zap.String("error_name", anchorErr.Name),
		zap.String("error_message", anchorErr.Msg))
	return fmt.Errorf("%w (%s)", err, anchorErr)
}

type statusGetter interface {
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

func waitForConfirmation(
	ctx context.Context,
	getter statusGetter,
	signature solana.Signature,
	timeout, interval time.Duration,
	logger *zap.Logger,
) error {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	op := func() (struct{}, error) {
		statuses, err := getter.GetSignatureStatuses(waitCtx, false, signature)
		if err != nil {
			logger.Warn("Error getting signature statuses", zap.Error(err))
			return struct{}{}, err
		}
		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			return struct{}{}, errNotConfirmed
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", ErrTransactionFailed, status.Err))
		}
		switch status.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			return struct{}{}, nil
		default:
			return struct{}{}, errNotConfirmed
		}
	}

	_, err := backoff.Retry(waitCtx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(interval)),
		backoff.WithMaxElapsedTime(timeout),
	)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrTransactionFailed) {
		return err
	}
	// caller cancellation wins over the timeout classification
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return fmt.Errorf("%w: %s after %s: %v", ErrConfirmationTimeout, signature, timeout, err)
}
