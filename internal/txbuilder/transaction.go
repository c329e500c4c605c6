// internal/txbuilder/transaction.go
package txbuilder

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Compile builds a v0 transaction. Lookup tables are optional; when given they
// compress the account list of the message.
func Compile(
	instructions []solana.Instruction,
	payer solana.PublicKey,
	blockhash solana.Hash,
	tables map[solana.PublicKey]solana.PublicKeySlice,
	priority Priority,
) (*solana.Transaction, error) {
	if len(instructions) == 0 {
		return nil, errors.New("no instructions to compile")
	}

	all := append(ComputeBudgetInstructions(priority), instructions...)

	opts := []solana.TransactionOption{solana.TransactionPayer(payer)}
	if len(tables) > 0 {
		opts = append(opts, solana.TransactionAddressTables(tables))
	}

	tx, err := solana.NewTransaction(all, blockhash, opts...)
	if err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return tx, nil
}

// ParseLookupTableAddresses converts base58 table addresses, skipping blanks.
func ParseLookupTableAddresses(addresses []string) ([]solana.PublicKey, error) {
	out := make([]solana.PublicKey, 0, len(addresses))
	for _, addr := range addresses {
		if addr == "" {
			continue
		}
		pk, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return nil, fmt.Errorf("lookup table %q: %w", addr, err)
		}
		out = append(out, pk)
	}
	return out, nil
}
