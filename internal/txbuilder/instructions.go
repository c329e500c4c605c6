// internal/txbuilder/instructions.go
package txbuilder

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
)

var (
	ErrMissingProgramID       = errors.New("swap instruction has no program id")
	ErrInvalidInstructionData = errors.New("invalid instruction data")
)

// BuildInstruction converts a leg into an executable instruction.
func BuildInstruction(leg Leg) (solana.Instruction, error) {
	if leg.ProgramID == "" {
		return nil, ErrMissingProgramID
	}
	programID, err := solana.PublicKeyFromBase58(leg.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("%w: program id %q: %v", ErrInvalidInstructionData, leg.ProgramID, err)
	}
	metas, err := accountMetas(leg.Accounts)
	if err != nil {
		return nil, err
	}
	data, err := base64.StdEncoding.DecodeString(leg.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	return solana.NewInstruction(programID, metas, data), nil
}

// BuildPlanInstructions returns the swap instructions of both legs.
func BuildPlanInstructions(plan *SwapPlan) (solana.Instruction, solana.Instruction, error) {
	swap1, err := BuildInstruction(plan.Swap1)
	if err != nil {
		return nil, nil, fmt.Errorf("swap1: %w", err)
	}
	swap2, err := BuildInstruction(plan.Swap2)
	if err != nil {
		return nil, nil, fmt.Errorf("swap2: %w", err)
	}
	return swap1, swap2, nil
}

func accountMetas(accounts []jupiter.AccountMeta) (solana.AccountMetaSlice, error) {
	metas := make(solana.AccountMetaSlice, 0, len(accounts))
	for _, acc := range accounts {
		pk, err := solana.PublicKeyFromBase58(acc.Pubkey)
		if err != nil {
			return nil, fmt.Errorf("%w: account %q: %v", ErrInvalidInstructionData, acc.Pubkey, err)
		}
		metas = append(metas, solana.NewAccountMeta(pk, acc.IsWritable, acc.IsSigner))
	}
	return metas, nil
}

// CreateATAIdempotent creates owner's associated token account for mint if it
// does not exist yet. payer funds the rent.
func CreateATAIdempotent(payer, owner, mint solana.PublicKey) (solana.Instruction, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return nil, fmt.Errorf("derive associated token account: %w", err)
	}
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(ata).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(solana.TokenProgramID),
			solana.Meta(solana.SysVarRentPubkey),
		},
		[]byte{1}, // create_idempotent
	), nil
}

// CloseAccount closes a token account and returns its rent to destination.
func CloseAccount(account, destination, owner solana.PublicKey) (solana.Instruction, error) {
	ix, err := token.NewCloseAccountInstruction(account, destination, owner, []solana.PublicKey{}).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build close account: %w", err)
	}
	return ix, nil
}

// Priority describes the compute budget requested by a transaction.
type Priority struct {
	ComputeUnits uint32 // compute unit limit, 0 keeps the runtime default
	UnitPrice    uint64 // micro-lamports per compute unit
}

// ComputeBudgetInstructions returns the instructions for p; empty when p is zero.
func ComputeBudgetInstructions(p Priority) []solana.Instruction {
	var instructions []solana.Instruction
	if p.ComputeUnits > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitLimitInstruction(p.ComputeUnits).Build())
	}
	if p.UnitPrice > 0 {
		instructions = append(instructions, computebudget.NewSetComputeUnitPriceInstruction(p.UnitPrice).Build())
	}
	return instructions
}
