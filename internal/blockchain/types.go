// internal/blockchain/types.go
package blockchain

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

// Client is the slice of chain access the arbitrage loop needs.
type Client interface {
	// LatestBlockhash returns a recent blockhash for compiling transactions.
	LatestBlockhash(ctx context.Context) (solana.Hash, error)
	// TokenBalance returns the raw amount held by a token account.
	TokenBalance(ctx context.Context, account solana.PublicKey) (uint64, error)
	// LookupTables resolves address lookup tables by address.
	LookupTables(ctx context.Context, addresses []solana.PublicKey) (map[solana.PublicKey]solana.PublicKeySlice, error)
	// SendTransaction submits a signed transaction through the node.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// WaitForConfirmation blocks until signature is confirmed or timeout elapses.
	WaitForConfirmation(ctx context.Context, signature solana.Signature, timeout time.Duration) error
}
