// internal/jupiter/types.go
package jupiter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Quote is the aggregator's answer to GET /quote. Amounts stay decimal strings
// on the wire; use the accessors for integer values.
type Quote struct {
	InputMint            string          `json:"inputMint"`
	InAmount             string          `json:"inAmount"`
	OutputMint           string          `json:"outputMint"`
	OutAmount            string          `json:"outAmount"`
	OtherAmountThreshold string          `json:"otherAmountThreshold"`
	SwapMode             string          `json:"swapMode"`
	SlippageBps          int             `json:"slippageBps"`
	PlatformFee          *PlatformFee    `json:"platformFee"`
	PriceImpactPct       string          `json:"priceImpactPct"`
	RoutePlan            []RoutePlanStep `json:"routePlan"`
	ContextSlot          uint64          `json:"contextSlot"`
	TimeTaken            float64         `json:"timeTaken"`

	// raw is echoed back verbatim as quoteResponse.
	raw json.RawMessage
}

// PlatformFee is present when the quote carries an integrator fee.
type PlatformFee struct {
	Amount string `json:"amount"`
	FeeBps int    `json:"feeBps"`
}

// RoutePlanStep is one hop of a route.
type RoutePlanStep struct {
	SwapInfo SwapInfo `json:"swapInfo"`
	Percent  int      `json:"percent"`
}

// SwapInfo describes the AMM used by a hop.
type SwapInfo struct {
	AmmKey     string `json:"ammKey"`
	Label      string `json:"label"`
	InputMint  string `json:"inputMint"`
	OutputMint string `json:"outputMint"`
	InAmount   string `json:"inAmount"`
	OutAmount  string `json:"outAmount"`
	FeeAmount  string `json:"feeAmount"`
	FeeMint    string `json:"feeMint"`
}

// OutAmountU64 parses OutAmount.
func (q *Quote) OutAmountU64() (uint64, error) {
	return parseAmount("outAmount", q.OutAmount)
}

// Labels lists the AMM labels of the route in order.
func (q *Quote) Labels() []string {
	labels := make([]string, 0, len(q.RoutePlan))
	for _, step := range q.RoutePlan {
		labels = append(labels, step.SwapInfo.Label)
	}
	return labels
}

// Raw returns the payload the quote was decoded from.
func (q *Quote) Raw() json.RawMessage {
	if q.raw != nil {
		return q.raw
	}
	b, _ := json.Marshal(q)
	return b
}

func parseAmount(field, value string) (uint64, error) {
	if value == "" {
		return 0, fmt.Errorf("%w: %s is empty", ErrMalformedResponse, field)
	}
	n, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrMalformedResponse, field, value, err)
	}
	return n, nil
}

// QuoteRequest are the query parameters of GET /quote.
type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      uint64
	SlippageBps int
	// Dexes restricts routing to the listed venue labels.
	Dexes []string
}

// AccountMeta is an account reference of a swap instruction.
type AccountMeta struct {
	Pubkey     string `json:"pubkey"`
	IsSigner   bool   `json:"isSigner"`
	IsWritable bool   `json:"isWritable"`
}

// Instruction is an instruction description returned by /swap-instructions.
type Instruction struct {
	ProgramID string        `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      string        `json:"data"` // base64
}

// SwapInstructions is the response of POST /swap-instructions.
type SwapInstructions struct {
	ComputeBudgetInstructions   []Instruction   `json:"computeBudgetInstructions"`
	SetupInstructions           []Instruction   `json:"setupInstructions"`
	SwapInstruction             *Instruction    `json:"swapInstruction"`
	CleanupInstruction          *Instruction    `json:"cleanupInstruction"`
	AddressLookupTableAddresses []string        `json:"addressLookupTableAddresses"`
	Error                       json.RawMessage `json:"error,omitempty"`
}

// ErrorMessage flattens the error field, which is either a string or an
// object carrying a message.
func (s *SwapInstructions) ErrorMessage() string {
	if len(s.Error) == 0 || string(s.Error) == "null" {
		return ""
	}
	var text string
	if err := json.Unmarshal(s.Error, &text); err == nil {
		return text
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(s.Error, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(s.Error)
}

type swapInstructionsRequest struct {
	QuoteResponse     json.RawMessage `json:"quoteResponse"`
	WrapAndUnwrapSol  bool            `json:"wrapAndUnwrapSol"`
	UseSharedAccounts bool            `json:"useSharedAccounts"`
	UserPublicKey     string          `json:"userPublicKey"`
}
