// internal/relay/rpc.go
package relay

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// TransactionSender is satisfied by the chain client.
type TransactionSender interface {
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
}

// RPC submits through the regular RPC node.
type RPC struct {
	sender TransactionSender
	logger *zap.Logger
}

func NewRPC(sender TransactionSender, logger *zap.Logger) *RPC {
	return &RPC{sender: sender, logger: logger.Named("rpc-relay")}
}

func (r *RPC) Name() string { return "rpc" }

func (r *RPC) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	return r.sender.SendTransaction(ctx, tx)
}
