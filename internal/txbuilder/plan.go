// internal/txbuilder/plan.go
package txbuilder

import (
	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
)

// Leg is one swap of a round trip: the aggregator instruction plus the
// quote figures it executes.
type Leg struct {
	ProgramID  string
	Accounts   []jupiter.AccountMeta
	Data       string
	InputMint  string
	OutputMint string
	InAmount   string
	OutAmount  string
	SwapMode   string
}

// SwapPlan is the merged view of both legs of a round trip.
type SwapPlan struct {
	Swap1 Leg
	Swap2 Leg

	// Accounts is the union of both legs' accounts, unique by pubkey.
	Accounts []jupiter.AccountMeta
	// LookupTables is the union of both legs' lookup table addresses.
	LookupTables []string
	// Mints lists every mint touched by either quote.
	Mints []string
}

// DefaultSwapMode applies when a quote does not state its swap mode.
const DefaultSwapMode = "ExactIn"

// NewLeg pairs a swap instruction with its quote. A nil instruction yields a
// leg without program id, which BuildInstruction rejects.
func NewLeg(ix *jupiter.SwapInstructions, quote *jupiter.Quote) Leg {
	var leg Leg
	if ix != nil && ix.SwapInstruction != nil {
		leg.ProgramID = ix.SwapInstruction.ProgramID
		leg.Accounts = ix.SwapInstruction.Accounts
		leg.Data = ix.SwapInstruction.Data
	}
	if quote != nil {
		leg.InputMint = quote.InputMint
		leg.OutputMint = quote.OutputMint
		leg.InAmount = quote.InAmount
		leg.OutAmount = quote.OutAmount
		leg.SwapMode = quote.SwapMode
	}
	if leg.SwapMode == "" {
		leg.SwapMode = DefaultSwapMode
	}
	return leg
}

// ParsePlan merges the swap instructions of both legs into a SwapPlan.
func ParsePlan(ix1, ix2 *jupiter.SwapInstructions, q1, q2 *jupiter.Quote) *SwapPlan {
	plan := &SwapPlan{
		Swap1: NewLeg(ix1, q1),
		Swap2: NewLeg(ix2, q2),
	}
	plan.Accounts = MergeAccounts(plan.Swap1.Accounts, plan.Swap2.Accounts)
	plan.LookupTables = MergeLookupTables(lookupTables(ix1), lookupTables(ix2))
	plan.Mints = UniqueMints(q1, q2)
	return plan
}

func lookupTables(ix *jupiter.SwapInstructions) []string {
	if ix == nil {
		return nil
	}
	return ix.AddressLookupTableAddresses
}

// MergeAccounts returns the accounts of all lists unique by pubkey, in first
// seen order. Signer and writable flags are OR-merged across duplicates.
func MergeAccounts(lists ...[]jupiter.AccountMeta) []jupiter.AccountMeta {
	index := make(map[string]int)
	var merged []jupiter.AccountMeta
	for _, list := range lists {
		for _, acc := range list {
			if i, ok := index[acc.Pubkey]; ok {
				merged[i].IsSigner = merged[i].IsSigner || acc.IsSigner
				merged[i].IsWritable = merged[i].IsWritable || acc.IsWritable
				continue
			}
			index[acc.Pubkey] = len(merged)
			merged = append(merged, acc)
		}
	}
	return merged
}

// MergeLookupTables is the exact-match union of the given address lists.
func MergeLookupTables(lists ...[]string) []string {
	return unique(lists...)
}

// UniqueMints lists the input and output mints of the quotes without repeats.
func UniqueMints(quotes ...*jupiter.Quote) []string {
	var mints []string
	for _, q := range quotes {
		if q == nil {
			continue
		}
		mints = append(mints, q.InputMint, q.OutputMint)
	}
	return unique(mints)
}

func unique(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, item := range list {
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
