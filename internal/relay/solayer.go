// internal/relay/solayer.go
package relay

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// SolayerEndpoint is the Solayer transaction accelerator.
const SolayerEndpoint = "https://acc.solayer.org"

type solayerOptions struct {
	Encoding            string `json:"encoding"`
	SkipPreflight       bool   `json:"skipPreflight"`
	PreflightCommitment string `json:"preflightCommitment"`
	MaxRetries          int    `json:"maxRetries"`
}

// Solayer submits base58 encoded transactions to the accelerator.
type Solayer struct {
	rpc    *jsonRPC
	logger *zap.Logger
}

func NewSolayer(endpoint string, client *http.Client, logger *zap.Logger) *Solayer {
	l := logger.Named("solayer")
	return &Solayer{rpc: newJSONRPC(endpoint, client, l), logger: l}
}

func (s *Solayer) Name() string { return "solayer" }

func (s *Solayer) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	raw, err := tx.MarshalBinary()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("serialize transaction: %w", err)
	}
	sig, err := s.rpc.sendTransaction(ctx, base58.Encode(raw), solayerOptions{
		Encoding:            "base58",
		SkipPreflight:       true,
		PreflightCommitment: "processed",
		MaxRetries:          0,
	})
	if err != nil {
		s.logger.Warn("Solayer submission failed", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}
