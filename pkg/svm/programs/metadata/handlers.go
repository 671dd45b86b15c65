package metadata

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/svm/programs/token"
	"github.com/amoebit/migrator/pkg/svm/syscall"
)

// handleCreateMetadataAccounts handles the CreateMetadataAccounts
// instruction.
// Account layout:
//
//	[0] metadata (writable) - The metadata account to initialize
//	[1] mint - The mint the metadata describes
//	[2] mint_authority (signer) - The mint authority
//	[3] payer (signer, writable) - Funds the new account
//	[4] update_authority - The update authority for the new record
//	[5] system program
//	[6] rent sysvar
func handleCreateMetadataAccounts(ctx *syscall.ExecutionContext, inst *CreateMetadataAccountsInstruction) error {
	if ctx.AccountCount() < 7 {
		return fmt.Errorf("%w: CreateMetadataAccounts requires 7 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	metaAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !metaAcc.IsWritable {
		return fmt.Errorf("%w: metadata account", ErrAccountNotWritable)
	}

	mintAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}

	mintAuthorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}
	if !mintAuthorityAcc.IsSigner {
		return fmt.Errorf("%w: mint authority", ErrAccountNotSigner)
	}

	payerAcc, err := ctx.GetAccountByIndex(3)
	if err != nil {
		return err
	}
	if !payerAcc.IsSigner {
		return fmt.Errorf("%w: payer", ErrAccountNotSigner)
	}

	updateAuthorityAcc, err := ctx.GetAccountByIndex(4)
	if err != nil {
		return err
	}
	if inst.UpdateAuthorityIsSigner && !updateAuthorityAcc.IsSigner {
		return ErrUpdateAuthorityNotSigner
	}

	// The metadata account address is bound to the mint.
	derived, _, err := findMetadataAddress(mintAcc.Pubkey)
	if err != nil {
		return err
	}
	if metaAcc.Pubkey != derived {
		return ErrInvalidMetadataKey
	}

	if IsInitialized(metaAcc.Data) {
		return ErrAlreadyInitialized
	}

	mint, err := token.DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	if !mint.IsInitialized {
		return fmt.Errorf("%w: mint not initialized", ErrInvalidMint)
	}
	if !mint.MintAuthority.IsSome || mint.MintAuthority.Value != mintAuthorityAcc.Pubkey {
		return ErrMintAuthorityMismatch
	}

	if err := inst.Data.Validate(); err != nil {
		return err
	}

	// A creator may only be marked verified when it signed this
	// instruction.
	for _, c := range inst.Data.Creators {
		if !c.Verified {
			continue
		}
		signer, err := ctx.GetAccount(c.Address)
		if err != nil || !signer.IsSigner {
			return fmt.Errorf("%w: %s", ErrUnverifiedCreator, c.Address)
		}
	}

	record := &Metadata{
		Key:             KeyMetadataV1,
		UpdateAuthority: updateAuthorityAcc.Pubkey,
		Mint:            mintAcc.Pubkey,
		Data:            inst.Data,
		IsMutable:       inst.IsMutable,
	}
	metaAcc.Data = record.Serialize()

	return nil
}

// handleUpdateMetadataAccounts handles the UpdateMetadataAccounts
// instruction.
// Account layout:
//
//	[0] metadata (writable) - The metadata account
//	[1] update_authority (signer) - The current update authority
func handleUpdateMetadataAccounts(ctx *syscall.ExecutionContext, inst *UpdateMetadataAccountsInstruction) error {
	if ctx.AccountCount() < 2 {
		return fmt.Errorf("%w: UpdateMetadataAccounts requires 2 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	metaAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !metaAcc.IsWritable {
		return fmt.Errorf("%w: metadata account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !authorityAcc.IsSigner {
		return ErrUpdateAuthorityNotSigner
	}

	if !IsInitialized(metaAcc.Data) {
		return ErrNotInitialized
	}
	record, err := Deserialize(metaAcc.Data)
	if err != nil {
		return err
	}

	if record.UpdateAuthority != authorityAcc.Pubkey {
		return ErrUpdateAuthorityMismatch
	}

	if inst.Data != nil {
		if !record.IsMutable {
			return ErrImmutable
		}
		if err := inst.Data.Validate(); err != nil {
			return err
		}
		record.Data = *inst.Data
	}

	if inst.NewUpdateAuthority != nil {
		record.UpdateAuthority = *inst.NewUpdateAuthority
	}

	if inst.PrimarySaleHappened != nil {
		record.PrimarySaleHappened = *inst.PrimarySaleHappened
	}

	metaAcc.Data = record.Serialize()

	return nil
}
