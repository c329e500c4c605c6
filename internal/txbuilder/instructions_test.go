package txbuilder

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-arb-bot/internal/jupiter"
)

func TestBuildInstruction(t *testing.T) {
	ix1, _ := testInstructions()
	q1, _ := testQuotes()

	ix, err := BuildInstruction(NewLeg(ix1, q1))
	require.NoError(t, err)

	assert.Equal(t, solana.MustPublicKeyFromBase58(jupProg), ix.ProgramID())
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	accounts := ix.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, solana.MustPublicKeyFromBase58(userKey), accounts[0].PublicKey)
	assert.True(t, accounts[0].IsSigner)
	assert.False(t, accounts[0].IsWritable)
}

func TestBuildInstructionErrors(t *testing.T) {
	tests := []struct {
		name string
		leg  Leg
		want error
	}{
		{"missing program", Leg{Data: "AQID"}, ErrMissingProgramID},
		{"bad program", Leg{ProgramID: "not-base58!"}, ErrInvalidInstructionData},
		{"bad account", Leg{ProgramID: jupProg, Accounts: []jupiter.AccountMeta{{Pubkey: "0OIl"}}}, ErrInvalidInstructionData},
		{"bad data", Leg{ProgramID: jupProg, Data: "%%%"}, ErrInvalidInstructionData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildInstruction(tt.leg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreateATAIdempotent(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58(userKey)
	mint := solana.MustPublicKeyFromBase58(usdcMint)

	ix, err := CreateATAIdempotent(owner, owner, mint)
	require.NoError(t, err)

	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(t, err)

	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, ix.ProgramID())
	accounts := ix.Accounts()
	require.Len(t, accounts, 7)
	assert.True(t, accounts[0].IsSigner)
	assert.Equal(t, ata, accounts[1].PublicKey)
	assert.True(t, accounts[1].IsWritable)
	assert.Equal(t, mint, accounts[3].PublicKey)

	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, []byte{1}, data)
}

func TestCloseAccount(t *testing.T) {
	owner := solana.MustPublicKeyFromBase58(userKey)
	account := solana.MustPublicKeyFromBase58(poolKey)

	ix, err := CloseAccount(account, owner, owner)
	require.NoError(t, err)
	assert.Equal(t, solana.TokenProgramID, ix.ProgramID())
	assert.Equal(t, account, ix.Accounts()[0].PublicKey)
}

func TestComputeBudgetInstructions(t *testing.T) {
	assert.Empty(t, ComputeBudgetInstructions(Priority{}))
	assert.Len(t, ComputeBudgetInstructions(Priority{UnitPrice: 10_000}), 1)
	assert.Len(t, ComputeBudgetInstructions(Priority{ComputeUnits: 400_000, UnitPrice: 10_000}), 2)
}
