// internal/arbitrage/errors.go
package arbitrage

import (
	"errors"

	"github.com/rovshanmuradov/solana-arb-bot/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
	"github.com/rovshanmuradov/solana-arb-bot/internal/relay"
	"github.com/rovshanmuradov/solana-arb-bot/internal/txbuilder"
)

var (
	ErrNotProfitable         = errors.New("round trip not profitable")
	ErrNoIntermediateBalance = errors.New("no intermediate token balance after first swap")
)

// Failure reasons reported to the observer.
const (
	reasonNotProfitable    = "not_profitable"
	reasonNoIntermediate   = "no_intermediate_balance"
	reasonQuoteHTTP        = "quote_http"
	reasonMalformed        = "malformed_response"
	reasonSwapInstructions = "swap_instructions"
	reasonBuild            = "build"
	reasonRelayRejected    = "relay_rejected"
)

// FailureReason maps a pair-check error onto a short label.
func FailureReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotProfitable):
		return reasonNotProfitable
	case errors.Is(err, ErrNoIntermediateBalance):
		return reasonNoIntermediate
	case errors.Is(err, jupiter.ErrSwapInstructions):
		return reasonSwapInstructions
	case errors.Is(err, jupiter.ErrHTTPStatus):
		return reasonQuoteHTTP
	case errors.Is(err, jupiter.ErrMalformedResponse), errors.Is(err, relay.ErrMalformedResponse):
		return reasonMalformed
	case errors.Is(err, txbuilder.ErrMissingProgramID), errors.Is(err, txbuilder.ErrInvalidInstructionData):
		return reasonBuild
	}
	if reason := solbc.ClassifyError(err); reason != solbc.ReasonOther {
		return reason
	}
	if errors.Is(err, relay.ErrRelayRejected) {
		return reasonRelayRejected
	}
	return solbc.ReasonOther
}
