package txbuilder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	jupProg  = "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"
	userKey  = "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM"
	poolKey  = "58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2"
)

func testQuotes() (*jupiter.Quote, *jupiter.Quote) {
	q1 := &jupiter.Quote{InputMint: solMint, OutputMint: usdcMint, InAmount: "5000000", OutAmount: "1000000", SwapMode: "ExactIn"}
	q2 := &jupiter.Quote{InputMint: usdcMint, OutputMint: solMint, InAmount: "1000000", OutAmount: "5200000", SwapMode: "ExactIn"}
	return q1, q2
}

func testInstructions() (*jupiter.SwapInstructions, *jupiter.SwapInstructions) {
	ix1 := &jupiter.SwapInstructions{
		SwapInstruction: &jupiter.Instruction{
			ProgramID: jupProg,
			Accounts: []jupiter.AccountMeta{
				{Pubkey: userKey, IsSigner: true, IsWritable: false},
				{Pubkey: poolKey, IsSigner: false, IsWritable: false},
			},
			Data: "AQID",
		},
		AddressLookupTableAddresses: []string{"lut1", "lut2"},
	}
	ix2 := &jupiter.SwapInstructions{
		SwapInstruction: &jupiter.Instruction{
			ProgramID: jupProg,
			Accounts: []jupiter.AccountMeta{
				{Pubkey: poolKey, IsSigner: false, IsWritable: true},
				{Pubkey: userKey, IsSigner: false, IsWritable: true},
			},
			Data: "BAUG",
		},
		AddressLookupTableAddresses: []string{"lut2", "lut3"},
	}
	return ix1, ix2
}

func TestParsePlan(t *testing.T) {
	ix1, ix2 := testInstructions()
	q1, q2 := testQuotes()

	plan := ParsePlan(ix1, ix2, q1, q2)
	require.NotNil(t, plan)

	assert.Equal(t, jupProg, plan.Swap1.ProgramID)
	assert.Equal(t, "AQID", plan.Swap1.Data)
	assert.Equal(t, solMint, plan.Swap1.InputMint)
	assert.Equal(t, "5200000", plan.Swap2.OutAmount)
	assert.Equal(t, "ExactIn", plan.Swap2.SwapMode)

	assert.Equal(t, []jupiter.AccountMeta{
		{Pubkey: userKey, IsSigner: true, IsWritable: true},
		{Pubkey: poolKey, IsSigner: false, IsWritable: true},
	}, plan.Accounts)
	assert.Equal(t, []string{"lut1", "lut2", "lut3"}, plan.LookupTables)
	assert.Equal(t, []string{solMint, usdcMint}, plan.Mints)
}

func TestParsePlanMissingInstruction(t *testing.T) {
	_, ix2 := testInstructions()
	q1, q2 := testQuotes()

	plan := ParsePlan(&jupiter.SwapInstructions{}, ix2, q1, q2)
	assert.Empty(t, plan.Swap1.ProgramID)
	assert.Equal(t, solMint, plan.Swap1.InputMint)

	_, _, err := BuildPlanInstructions(plan)
	assert.ErrorIs(t, err, ErrMissingProgramID)
}

func TestNewLegDefaultsSwapMode(t *testing.T) {
	ix1, _ := testInstructions()
	q1, _ := testQuotes()
	q1.SwapMode = ""

	leg := NewLeg(ix1, q1)
	assert.Equal(t, DefaultSwapMode, leg.SwapMode)

	q1.SwapMode = "ExactOut"
	assert.Equal(t, "ExactOut", NewLeg(ix1, q1).SwapMode)
}

func TestMergeAccountsIdempotent(t *testing.T) {
	list := []jupiter.AccountMeta{
		{Pubkey: "a", IsWritable: true},
		{Pubkey: "b", IsSigner: true},
		{Pubkey: "a", IsSigner: true},
	}
	once := MergeAccounts(list)
	twice := MergeAccounts(list, list)

	assert.Equal(t, once, twice)
	assert.Equal(t, once, MergeAccounts(once))
	assert.Equal(t, []jupiter.AccountMeta{
		{Pubkey: "a", IsSigner: true, IsWritable: true},
		{Pubkey: "b", IsSigner: true},
	}, once)
}

func TestMergeAccountsWritableWins(t *testing.T) {
	merged := MergeAccounts(
		[]jupiter.AccountMeta{{Pubkey: "x", IsWritable: false}},
		[]jupiter.AccountMeta{{Pubkey: "x", IsWritable: true}},
	)
	require.Len(t, merged, 1)
	assert.True(t, merged[0].IsWritable)

	merged = MergeAccounts(
		[]jupiter.AccountMeta{{Pubkey: "x", IsWritable: true}},
		[]jupiter.AccountMeta{{Pubkey: "x", IsWritable: false}},
	)
	assert.True(t, merged[0].IsWritable)
}

func TestMergeLookupTablesNoRepeats(t *testing.T) {
	got := MergeLookupTables([]string{"a", "b", "a"}, []string{"", "c", "b"}, nil)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Empty(t, MergeLookupTables(nil, nil))
}

func TestUniqueMints(t *testing.T) {
	q1, q2 := testQuotes()
	assert.Equal(t, []string{solMint, usdcMint}, UniqueMints(q1, q2, nil))
}
