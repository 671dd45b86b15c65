package migrate

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/svm/programs/metadata"
	"github.com/amoebit/migrator/pkg/svm/programs/token"
	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// handleMigrate performs one migration. All validation happens before
// the first nested invocation, so a rejected request leaves no trace.
func (p *Program) handleMigrate(ctx *syscall.ExecutionContext, accounts *MigrationAccounts) error {
	if !p.allowed[accounts.NewUpdateAuthority.Pubkey] {
		return fmt.Errorf("%w: %s", ErrUpdateAuthorityMismatch, accounts.NewUpdateAuthority.Pubkey)
	}

	holding, err := token.DeserializeTokenAccount(accounts.Holding.Data)
	if err != nil {
		return fmt.Errorf("%w: holding account: %v", ErrMalformedAccount, err)
	}
	mint, err := token.DeserializeMint(accounts.Mint.Data)
	if err != nil {
		return fmt.Errorf("%w: mint account: %v", ErrMalformedAccount, err)
	}

	if holding.Amount != 1 {
		return fmt.Errorf("%w: amount %d", ErrEmptyToken, holding.Amount)
	}

	if mint.Decimals != 0 {
		return fmt.Errorf("%w: decimals %d", ErrInvalidMint, mint.Decimals)
	}
	if mint.Supply != 1 {
		return fmt.Errorf("%w: supply %d", ErrInvalidMint, mint.Supply)
	}
	if mint.FreezeAuthority.IsSome {
		return fmt.Errorf("%w: freeze authority set", ErrInvalidMint)
	}
	if holding.Mint != accounts.Mint.Pubkey {
		return fmt.Errorf("%w: holding account mint %s does not match %s",
			ErrInvalidMint, holding.Mint, accounts.Mint.Pubkey)
	}

	authority, bump, err := DeriveAuthority(p.ProgramID)
	if err != nil {
		return err
	}
	if authority != accounts.Authority.Pubkey {
		return fmt.Errorf("%w: expected %s, got %s",
			ErrAuthorityDerivationMismatch, authority, accounts.Authority.Pubkey)
	}

	ruggedMeta, err := metadata.Deserialize(accounts.RuggedMetadata.Data)
	if err != nil {
		return fmt.Errorf("%w: rugged metadata: %v", ErrMalformedAccount, err)
	}

	authoritySeeds := [][][]byte{{
		[]byte(AuthoritySeed),
		p.ProgramID[:],
		[]byte(AuthoritySeed),
		{bump},
	}}

	// Attach metadata to the replacement mint, carrying over the
	// original name, symbol and uri. The derived authority is recorded
	// as a verified zero-share creator; the external authority takes
	// the full share, unverified.
	createInst := metadata.CreateMetadataAccountsInstruction{
		Data: metadata.Data{
			Name:                 ruggedMeta.Data.Name,
			Symbol:               ruggedMeta.Data.Symbol,
			Uri:                  ruggedMeta.Data.Uri,
			SellerFeeBasisPoints: SellerFeeBasisPoints,
			Creators: []metadata.Creator{
				{Address: authority, Verified: true, Share: 0},
				{Address: accounts.NewUpdateAuthority.Pubkey, Verified: false, Share: 100},
			},
		},
		IsMutable:               true,
		UpdateAuthorityIsSigner: true,
	}
	err = ctx.InvokeSigned(types.Instruction{
		ProgramID: accounts.MetadataProgram.Pubkey,
		Accounts: []types.AccountMeta{
			{Pubkey: accounts.Metadata.Pubkey, IsWritable: true},
			{Pubkey: accounts.Mint.Pubkey},
			{Pubkey: accounts.Payer.Pubkey, IsSigner: true},
			{Pubkey: accounts.Payer.Pubkey, IsSigner: true, IsWritable: true},
			{Pubkey: authority, IsSigner: true},
			{Pubkey: accounts.SystemProgram.Pubkey},
			{Pubkey: accounts.Rent.Pubkey},
		},
		Data: createInst.Encode(),
	}, authoritySeeds)
	if err != nil {
		return err
	}

	// Mark the primary sale complete. The update authority stays with
	// the derived signer.
	sold := true
	updateInst := metadata.UpdateMetadataAccountsInstruction{
		PrimarySaleHappened: &sold,
	}
	err = ctx.InvokeSigned(types.Instruction{
		ProgramID: accounts.MetadataProgram.Pubkey,
		Accounts: []types.AccountMeta{
			{Pubkey: accounts.Metadata.Pubkey, IsWritable: true},
			{Pubkey: authority, IsSigner: true},
		},
		Data: updateInst.Encode(),
	}, authoritySeeds)
	if err != nil {
		return err
	}

	// Freeze the replacement supply at one by removing the mint
	// authority.
	setAuthInst := token.SetAuthorityInstruction{
		AuthorityType: token.AuthorityTypeMintTokens,
		NewAuthority:  nil,
	}
	err = ctx.Invoke(types.Instruction{
		ProgramID: accounts.TokenProgram.Pubkey,
		Accounts: []types.AccountMeta{
			{Pubkey: accounts.Mint.Pubkey, IsWritable: true},
			{Pubkey: accounts.Payer.Pubkey, IsSigner: true},
		},
		Data: setAuthInst.Encode(),
	})
	if err != nil {
		return err
	}

	// Destroy the rugged token.
	burnInst := token.BurnInstruction{Amount: 1}
	err = ctx.Invoke(types.Instruction{
		ProgramID: accounts.TokenProgram.Pubkey,
		Accounts: []types.AccountMeta{
			{Pubkey: accounts.RuggedHolding.Pubkey, IsWritable: true},
			{Pubkey: accounts.RuggedMint.Pubkey, IsWritable: true},
			{Pubkey: accounts.Payer.Pubkey, IsSigner: true},
		},
		Data: burnInst.Encode(),
	})
	if err != nil {
		return err
	}

	ctx.Log("Migrated %s, burned %s", accounts.Mint.Pubkey, accounts.RuggedMint.Pubkey)
	return nil
}
