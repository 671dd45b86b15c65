package token

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// handleInitializeMint handles the InitializeMint instruction.
// Account layout:
//
//	[0] mint (writable) - The mint to initialize
//	[1] rent sysvar
func handleInitializeMint(ctx *syscall.ExecutionContext, inst *InitializeMintInstruction) error {
	if ctx.AccountCount() < 2 {
		return fmt.Errorf("%w: InitializeMint requires 2 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	mintAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !mintAcc.IsWritable {
		return fmt.Errorf("%w: mint account", ErrAccountNotWritable)
	}

	if len(mintAcc.Data) >= MintSize {
		existing, err := DeserializeMint(mintAcc.Data)
		if err == nil && existing.IsInitialized {
			return ErrAlreadyInitialized
		}
	}

	if len(mintAcc.Data) < MintSize {
		return fmt.Errorf("%w: mint account data too small, expected %d bytes",
			ErrInvalidAccountData, MintSize)
	}

	var freezeAuth *types.Pubkey
	if inst.FreezeAuthority != nil {
		freezeAuth = inst.FreezeAuthority
	}

	mint := NewMint(inst.Decimals, &inst.MintAuthority, freezeAuth)
	copy(mintAcc.Data, mint.Serialize())

	return nil
}

// handleInitializeAccount handles the InitializeAccount instruction.
// Account layout:
//
//	[0] account (writable) - The account to initialize
//	[1] mint - The mint for this account
//	[2] owner - The owner of the new account
//	[3] rent sysvar
func handleInitializeAccount(ctx *syscall.ExecutionContext) error {
	if ctx.AccountCount() < 4 {
		return fmt.Errorf("%w: InitializeAccount requires 4 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	tokenAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !tokenAcc.IsWritable {
		return fmt.Errorf("%w: token account", ErrAccountNotWritable)
	}

	mintAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}

	ownerAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}

	if len(tokenAcc.Data) >= TokenAccountSize {
		existing, err := DeserializeTokenAccount(tokenAcc.Data)
		if err == nil && existing.State != AccountStateUninitialized {
			return ErrAlreadyInitialized
		}
	}

	if len(tokenAcc.Data) < TokenAccountSize {
		return fmt.Errorf("%w: token account data too small, expected %d bytes",
			ErrInvalidAccountData, TokenAccountSize)
	}

	if len(mintAcc.Data) < MintSize {
		return fmt.Errorf("%w: mint account data too small", ErrInvalidMint)
	}
	mint, err := DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidMint, err)
	}
	if !mint.IsInitialized {
		return fmt.Errorf("%w: mint not initialized", ErrInvalidMint)
	}

	account := NewTokenAccount(mintAcc.Pubkey, ownerAcc.Pubkey)
	copy(tokenAcc.Data, account.Serialize())

	return nil
}

// handleTransfer handles the Transfer instruction.
// Account layout:
//
//	[0] source (writable) - The source token account
//	[1] destination (writable) - The destination token account
//	[2] authority (signer) - The source account owner or delegate
func handleTransfer(ctx *syscall.ExecutionContext, inst *TransferInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: Transfer requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	sourceAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !sourceAcc.IsWritable {
		return fmt.Errorf("%w: source account", ErrAccountNotWritable)
	}

	destAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !destAcc.IsWritable {
		return fmt.Errorf("%w: destination account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}
	if !authorityAcc.IsSigner {
		return fmt.Errorf("%w: authority", ErrAccountNotSigner)
	}

	source, err := DeserializeTokenAccount(sourceAcc.Data)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	dest, err := DeserializeTokenAccount(destAcc.Data)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if source.State == AccountStateUninitialized {
		return fmt.Errorf("source: %w", ErrNotInitialized)
	}
	if dest.State == AccountStateUninitialized {
		return fmt.Errorf("destination: %w", ErrNotInitialized)
	}

	if source.IsFrozen() {
		return fmt.Errorf("source: %w", ErrAccountFrozen)
	}
	if dest.IsFrozen() {
		return fmt.Errorf("destination: %w", ErrAccountFrozen)
	}

	if source.Mint != dest.Mint {
		return ErrMintMismatch
	}

	isOwner := source.Owner == authorityAcc.Pubkey
	isDelegate := source.Delegate.IsSome && source.Delegate.Value == authorityAcc.Pubkey

	if !isOwner && !isDelegate {
		return ErrOwnerMismatch
	}

	var availableAmount uint64
	if isDelegate {
		availableAmount = source.DelegatedAmount
	} else {
		availableAmount = source.Amount
	}

	if inst.Amount > availableAmount {
		return ErrInsufficientFunds
	}

	source.Amount -= inst.Amount
	dest.Amount += inst.Amount

	if isDelegate {
		source.DelegatedAmount -= inst.Amount
	}

	copy(sourceAcc.Data, source.Serialize())
	copy(destAcc.Data, dest.Serialize())

	return nil
}

// handleMintTo handles the MintTo instruction.
// Account layout:
//
//	[0] mint (writable) - The mint
//	[1] destination (writable) - The account to mint to
//	[2] mint_authority (signer) - The mint authority
func handleMintTo(ctx *syscall.ExecutionContext, inst *MintToInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: MintTo requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	mintAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !mintAcc.IsWritable {
		return fmt.Errorf("%w: mint account", ErrAccountNotWritable)
	}

	destAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !destAcc.IsWritable {
		return fmt.Errorf("%w: destination account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}
	if !authorityAcc.IsSigner {
		return fmt.Errorf("%w: mint authority", ErrAccountNotSigner)
	}

	mint, err := DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}
	dest, err := DeserializeTokenAccount(destAcc.Data)
	if err != nil {
		return fmt.Errorf("destination: %w", err)
	}

	if !mint.IsInitialized {
		return fmt.Errorf("mint: %w", ErrNotInitialized)
	}

	if dest.State == AccountStateUninitialized {
		return fmt.Errorf("destination: %w", ErrNotInitialized)
	}
	if dest.IsFrozen() {
		return fmt.Errorf("destination: %w", ErrAccountFrozen)
	}

	if dest.Mint != mintAcc.Pubkey {
		return ErrMintMismatch
	}

	if !mint.MintAuthority.IsSome {
		return ErrFixedSupply
	}
	if mint.MintAuthority.Value != authorityAcc.Pubkey {
		return ErrAuthorityMismatch
	}

	if mint.Supply > ^uint64(0)-inst.Amount {
		return ErrOverflow
	}
	if dest.Amount > ^uint64(0)-inst.Amount {
		return ErrOverflow
	}

	mint.Supply += inst.Amount
	dest.Amount += inst.Amount

	copy(mintAcc.Data, mint.Serialize())
	copy(destAcc.Data, dest.Serialize())

	return nil
}

// handleBurn handles the Burn instruction.
// Account layout:
//
//	[0] source (writable) - The token account to burn from
//	[1] mint (writable) - The mint
//	[2] authority (signer) - The account owner or delegate
func handleBurn(ctx *syscall.ExecutionContext, inst *BurnInstruction) error {
	if ctx.AccountCount() < 3 {
		return fmt.Errorf("%w: Burn requires 3 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	sourceAcc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !sourceAcc.IsWritable {
		return fmt.Errorf("%w: source account", ErrAccountNotWritable)
	}

	mintAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !mintAcc.IsWritable {
		return fmt.Errorf("%w: mint account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(2)
	if err != nil {
		return err
	}
	if !authorityAcc.IsSigner {
		return fmt.Errorf("%w: authority", ErrAccountNotSigner)
	}

	source, err := DeserializeTokenAccount(sourceAcc.Data)
	if err != nil {
		return fmt.Errorf("source: %w", err)
	}
	mint, err := DeserializeMint(mintAcc.Data)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	if source.State == AccountStateUninitialized {
		return fmt.Errorf("source: %w", ErrNotInitialized)
	}
	if !mint.IsInitialized {
		return fmt.Errorf("mint: %w", ErrNotInitialized)
	}
	if source.IsFrozen() {
		return fmt.Errorf("source: %w", ErrAccountFrozen)
	}

	if source.Mint != mintAcc.Pubkey {
		return ErrMintMismatch
	}

	isOwner := source.Owner == authorityAcc.Pubkey
	isDelegate := source.Delegate.IsSome && source.Delegate.Value == authorityAcc.Pubkey

	if !isOwner && !isDelegate {
		return ErrOwnerMismatch
	}

	var availableAmount uint64
	if isDelegate {
		availableAmount = source.DelegatedAmount
	} else {
		availableAmount = source.Amount
	}

	if inst.Amount > availableAmount {
		return ErrInsufficientFunds
	}

	source.Amount -= inst.Amount
	mint.Supply -= inst.Amount

	if isDelegate {
		source.DelegatedAmount -= inst.Amount
	}

	copy(sourceAcc.Data, source.Serialize())
	copy(mintAcc.Data, mint.Serialize())

	return nil
}

// handleSetAuthority handles the SetAuthority instruction.
// Account layout:
//
//	[0] account (writable) - The mint or token account
//	[1] current_authority (signer) - The current authority
func handleSetAuthority(ctx *syscall.ExecutionContext, inst *SetAuthorityInstruction) error {
	if ctx.AccountCount() < 2 {
		return fmt.Errorf("%w: SetAuthority requires 2 accounts, got %d",
			ErrInvalidNumberOfAccounts, ctx.AccountCount())
	}

	acc, err := ctx.GetAccountByIndex(0)
	if err != nil {
		return err
	}
	if !acc.IsWritable {
		return fmt.Errorf("%w: account", ErrAccountNotWritable)
	}

	authorityAcc, err := ctx.GetAccountByIndex(1)
	if err != nil {
		return err
	}
	if !authorityAcc.IsSigner {
		return fmt.Errorf("%w: current authority", ErrAccountNotSigner)
	}

	switch inst.AuthorityType {
	case AuthorityTypeMintTokens, AuthorityTypeFreezeAccount:
		return setMintAuthority(acc, authorityAcc, inst)
	case AuthorityTypeAccountOwner, AuthorityTypeCloseAccount:
		return setTokenAccountAuthority(acc, authorityAcc, inst)
	default:
		return fmt.Errorf("%w: unknown authority type %d", ErrInvalidInstruction, inst.AuthorityType)
	}
}

func setMintAuthority(acc *syscall.AccountInfo, authorityAcc *syscall.AccountInfo, inst *SetAuthorityInstruction) error {
	mint, err := DeserializeMint(acc.Data)
	if err != nil {
		return fmt.Errorf("mint: %w", err)
	}

	if !mint.IsInitialized {
		return fmt.Errorf("mint: %w", ErrNotInitialized)
	}

	switch inst.AuthorityType {
	case AuthorityTypeMintTokens:
		if !mint.MintAuthority.IsSome {
			return ErrNoAuthority
		}
		if mint.MintAuthority.Value != authorityAcc.Pubkey {
			return ErrAuthorityMismatch
		}
		if inst.NewAuthority != nil {
			mint.MintAuthority = COption{IsSome: true, Value: *inst.NewAuthority}
		} else {
			mint.MintAuthority = COption{IsSome: false}
		}

	case AuthorityTypeFreezeAccount:
		if !mint.FreezeAuthority.IsSome {
			return ErrNoAuthority
		}
		if mint.FreezeAuthority.Value != authorityAcc.Pubkey {
			return ErrAuthorityMismatch
		}
		if inst.NewAuthority != nil {
			mint.FreezeAuthority = COption{IsSome: true, Value: *inst.NewAuthority}
		} else {
			mint.FreezeAuthority = COption{IsSome: false}
		}
	}

	copy(acc.Data, mint.Serialize())
	return nil
}

func setTokenAccountAuthority(acc *syscall.AccountInfo, authorityAcc *syscall.AccountInfo, inst *SetAuthorityInstruction) error {
	account, err := DeserializeTokenAccount(acc.Data)
	if err != nil {
		return fmt.Errorf("token account: %w", err)
	}

	if account.State == AccountStateUninitialized {
		return fmt.Errorf("token account: %w", ErrNotInitialized)
	}

	switch inst.AuthorityType {
	case AuthorityTypeAccountOwner:
		if account.Owner != authorityAcc.Pubkey {
			return ErrOwnerMismatch
		}
		if inst.NewAuthority == nil {
			return fmt.Errorf("%w: cannot remove account owner", ErrInvalidInstruction)
		}
		account.Owner = *inst.NewAuthority
		// Clear delegate when owner changes
		account.Delegate = COption{IsSome: false}
		account.DelegatedAmount = 0

	case AuthorityTypeCloseAccount:
		hasCloseAuth := account.CloseAuthority.IsSome && account.CloseAuthority.Value == authorityAcc.Pubkey
		isOwner := account.Owner == authorityAcc.Pubkey

		if !hasCloseAuth && !isOwner {
			return ErrOwnerMismatch
		}

		if inst.NewAuthority != nil {
			account.CloseAuthority = COption{IsSome: true, Value: *inst.NewAuthority}
		} else {
			account.CloseAuthority = COption{IsSome: false}
		}
	}

	copy(acc.Data, account.Serialize())
	return nil
}
