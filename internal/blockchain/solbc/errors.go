package solbc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
)

// Failure reasons used as metric labels and log fields.
const (
	ReasonBlockhashNotFound = "blockhash_not_found"
	ReasonSimulationFailed  = "simulation_failed"
	ReasonInsufficientFunds = "insufficient_funds"
	ReasonRateLimited       = "rate_limited"
	ReasonTimeout           = "confirmation_timeout"
	ReasonOnChain           = "transaction_failed"
	ReasonCanceled          = "canceled"
	ReasonOther             = "other"
)

// ClassifyError maps a submission or confirmation error onto a short reason.
func ClassifyError(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, context.Canceled):
		return ReasonCanceled
	case errors.Is(err, ErrConfirmationTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrTransactionFailed):
		return ReasonOnChain
	}

	msg := err.Error()
	var rpcErr *jsonrpc.RPCError
	if errors.As(err, &rpcErr) {
		msg = rpcErr.Message
		if rpcErr.Code == 429 {
			return ReasonRateLimited
		}
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "blockhash not found"):
		return ReasonBlockhashNotFound
	case strings.Contains(lower, "simulation failed"):
		return ReasonSimulationFailed
	case strings.Contains(lower, "insufficient funds"), strings.Contains(lower, "insufficient lamports"):
		return ReasonInsufficientFunds
	case strings.Contains(lower, "too many requests"), strings.Contains(lower, "rate limit"):
		return ReasonRateLimited
	}
	return ReasonOther
}

// AnchorError is the decoded form of an "AnchorError occurred" program log.
type AnchorError struct {
	Code int
	Name string
	Msg  string
}

func (e AnchorError) String() string {
	return fmt.Sprintf("anchor error %d %s: %s", e.Code, e.Name, e.Msg)
}

// ParseAnchorLogs returns the first Anchor error found in logs.
// Example line: "Program log: AnchorError occurred. Error Code: SlippageToleranceExceeded.
// Error Number: 6001. Error Message: Slippage tolerance exceeded."
func ParseAnchorLogs(logs []string) (AnchorError, bool) {
	for _, line := range logs {
		if !strings.Contains(line, "AnchorError") {
			continue
		}
		var out AnchorError
		out.Name = fieldAfter(line, "Error Code:")
		out.Msg = fieldAfter(line, "Error Message:")
		for _, r := range fieldAfter(line, "Error Number:") {
			if r < '0' || r > '9' {
				break
			}
			out.Code = out.Code*10 + int(r-'0')
		}
		return out, true
	}
	return AnchorError{}, false
}

func fieldAfter(line, marker string) string {
	idx := strings.Index(line, marker)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(line[idx+len(marker):])
	if end := strings.Index(rest, "."); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
