// internal/relay/jito.go
package relay

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Block engine regions.
var jitoRegions = map[string]string{
	"mainnet":   "https://mainnet.block-engine.jito.wtf",
	"amsterdam": "https://amsterdam.mainnet.block-engine.jito.wtf",
	"frankfurt": "https://frankfurt.mainnet.block-engine.jito.wtf",
	"ny":        "https://ny.mainnet.block-engine.jito.wtf",
	"tokyo":     "https://tokyo.mainnet.block-engine.jito.wtf",
}

const jitoTransactionsPath = "/api/v1/transactions?bundleOnly=false"

// JitoEndpoint returns the transactions endpoint of region.
func JitoEndpoint(region string) (string, error) {
	base, ok := jitoRegions[region]
	if !ok {
		return "", fmt.Errorf("%w: jito region %q", ErrUnknownRelay, region)
	}
	return base + jitoTransactionsPath, nil
}

// Jito submits single transactions to a block engine.
type Jito struct {
	rpc    *jsonRPC
	region string
	logger *zap.Logger
}

// NewJito creates a submitter for region (mainnet when empty).
func NewJito(region string, client *http.Client, logger *zap.Logger) (*Jito, error) {
	if region == "" {
		region = "mainnet"
	}
	endpoint, err := JitoEndpoint(region)
	if err != nil {
		return nil, err
	}
	return newJitoWithEndpoint(endpoint, region, client, logger), nil
}

func newJitoWithEndpoint(endpoint, region string, client *http.Client, logger *zap.Logger) *Jito {
	l := logger.Named("jito")
	return &Jito{
		rpc:    newJSONRPC(endpoint, client, l),
		region: region,
		logger: l,
	}
}

func (j *Jito) Name() string { return "jito-" + j.region }

// Submit sends tx base64 encoded.
func (j *Jito) Submit(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	encoded, err := tx.ToBase64()
	if err != nil {
		return solana.Signature{}, fmt.Errorf("encode transaction: %w", err)
	}
	sig, err := j.rpc.sendTransaction(ctx, encoded, map[string]string{"encoding": "base64"})
	if err != nil {
		j.logger.Warn("Jito submission failed", zap.Error(err))
		return solana.Signature{}, err
	}
	return sig, nil
}
