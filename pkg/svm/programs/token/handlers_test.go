package token

import (
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	var pk types.Pubkey
	copy(pk[:], hash[:])
	return pk
}

func mintInfo(pubkey types.Pubkey, mint *Mint, writable bool) *syscall.AccountInfo {
	return accountInfo(pubkey, mint.Serialize(), false, writable)
}

func tokenInfo(pubkey types.Pubkey, account *TokenAccount, writable bool) *syscall.AccountInfo {
	return accountInfo(pubkey, account.Serialize(), false, writable)
}

func accountInfo(pubkey types.Pubkey, data []byte, signer, writable bool) *syscall.AccountInfo {
	return syscall.NewAccountInfo(pubkey, &types.Account{
		Lamports: 1_000_000,
		Data:     data,
		Owner:    types.TokenProgramID,
	}, signer, writable)
}

func execute(t *testing.T, accounts []*syscall.AccountInfo, data []byte) error {
	t.Helper()
	ctx := syscall.NewExecutionContext(types.TokenProgramID, accounts, data, 1_000_000)
	return New().Execute(ctx)
}

func TestInitializeMint(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")

	accounts := []*syscall.AccountInfo{
		accountInfo(mintKey, make([]byte, MintSize), false, true),
		accountInfo(types.SysvarRentID, nil, false, false),
	}

	inst := InitializeMintInstruction{Decimals: 0, MintAuthority: authority}
	if err := execute(t, accounts, inst.Encode()); err != nil {
		t.Fatalf("InitializeMint failed: %v", err)
	}

	mint, err := DeserializeMint(accounts[0].Data)
	if err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	if !mint.IsInitialized {
		t.Error("mint should be initialized")
	}
	if mint.Decimals != 0 || mint.Supply != 0 {
		t.Errorf("unexpected mint state: decimals=%d supply=%d", mint.Decimals, mint.Supply)
	}
	if !mint.MintAuthority.IsSome || mint.MintAuthority.Value != authority {
		t.Error("mint authority not set")
	}
	if mint.FreezeAuthority.IsSome {
		t.Error("freeze authority should be none")
	}
}

func TestInitializeMint_AlreadyInitialized(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")

	existing := NewMint(0, &authority, nil)
	accounts := []*syscall.AccountInfo{
		mintInfo(mintKey, existing, true),
		accountInfo(types.SysvarRentID, nil, false, false),
	}

	inst := InitializeMintInstruction{Decimals: 0, MintAuthority: authority}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrAlreadyInitialized) {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
}

func TestInitializeAccount(t *testing.T) {
	accountKey := testPubkey("token_account")
	mintKey := testPubkey("mint")
	owner := testPubkey("owner")
	authority := testPubkey("authority")

	accounts := []*syscall.AccountInfo{
		accountInfo(accountKey, make([]byte, TokenAccountSize), false, true),
		mintInfo(mintKey, NewMint(0, &authority, nil), false),
		accountInfo(owner, nil, false, false),
		accountInfo(types.SysvarRentID, nil, false, false),
	}

	inst := InitializeAccountInstruction{}
	if err := execute(t, accounts, inst.Encode()); err != nil {
		t.Fatalf("InitializeAccount failed: %v", err)
	}

	tok, err := DeserializeTokenAccount(accounts[0].Data)
	if err != nil {
		t.Fatalf("deserialize failed: %v", err)
	}
	if tok.State != AccountStateInitialized {
		t.Error("account should be initialized")
	}
	if tok.Mint != mintKey || tok.Owner != owner {
		t.Error("account mint or owner mismatch")
	}
}

func TestTransfer(t *testing.T) {
	mintKey := testPubkey("mint")
	owner := testPubkey("owner")
	destOwner := testPubkey("dest_owner")

	source := NewTokenAccount(mintKey, owner)
	source.Amount = 10
	dest := NewTokenAccount(mintKey, destOwner)

	accounts := []*syscall.AccountInfo{
		tokenInfo(testPubkey("source"), source, true),
		tokenInfo(testPubkey("dest"), dest, true),
		accountInfo(owner, nil, true, false),
	}

	inst := TransferInstruction{Amount: 4}
	if err := execute(t, accounts, inst.Encode()); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}

	gotSource, _ := DeserializeTokenAccount(accounts[0].Data)
	gotDest, _ := DeserializeTokenAccount(accounts[1].Data)
	if gotSource.Amount != 6 || gotDest.Amount != 4 {
		t.Errorf("balances wrong: source=%d dest=%d", gotSource.Amount, gotDest.Amount)
	}
}

func TestTransfer_InsufficientFunds(t *testing.T) {
	mintKey := testPubkey("mint")
	owner := testPubkey("owner")

	source := NewTokenAccount(mintKey, owner)
	source.Amount = 1
	dest := NewTokenAccount(mintKey, testPubkey("dest_owner"))

	accounts := []*syscall.AccountInfo{
		tokenInfo(testPubkey("source"), source, true),
		tokenInfo(testPubkey("dest"), dest, true),
		accountInfo(owner, nil, true, false),
	}

	inst := TransferInstruction{Amount: 2}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestTransfer_WrongAuthority(t *testing.T) {
	mintKey := testPubkey("mint")

	source := NewTokenAccount(mintKey, testPubkey("owner"))
	source.Amount = 10
	dest := NewTokenAccount(mintKey, testPubkey("dest_owner"))
	stranger := testPubkey("stranger")

	accounts := []*syscall.AccountInfo{
		tokenInfo(testPubkey("source"), source, true),
		tokenInfo(testPubkey("dest"), dest, true),
		accountInfo(stranger, nil, true, false),
	}

	inst := TransferInstruction{Amount: 1}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrOwnerMismatch) {
		t.Errorf("expected ErrOwnerMismatch, got %v", err)
	}
}

func TestMintTo(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")
	owner := testPubkey("owner")

	mint := NewMint(0, &authority, nil)
	dest := NewTokenAccount(mintKey, owner)

	accounts := []*syscall.AccountInfo{
		mintInfo(mintKey, mint, true),
		tokenInfo(testPubkey("dest"), dest, true),
		accountInfo(authority, nil, true, false),
	}

	inst := MintToInstruction{Amount: 1}
	if err := execute(t, accounts, inst.Encode()); err != nil {
		t.Fatalf("MintTo failed: %v", err)
	}

	gotMint, _ := DeserializeMint(accounts[0].Data)
	gotDest, _ := DeserializeTokenAccount(accounts[1].Data)
	if gotMint.Supply != 1 || gotDest.Amount != 1 {
		t.Errorf("mint state wrong: supply=%d amount=%d", gotMint.Supply, gotDest.Amount)
	}
}

func TestMintTo_FixedSupply(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")

	// Mint authority removed, supply is fixed.
	mint := NewMint(0, nil, nil)
	dest := NewTokenAccount(mintKey, testPubkey("owner"))

	accounts := []*syscall.AccountInfo{
		mintInfo(mintKey, mint, true),
		tokenInfo(testPubkey("dest"), dest, true),
		accountInfo(authority, nil, true, false),
	}

	inst := MintToInstruction{Amount: 1}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrFixedSupply) {
		t.Errorf("expected ErrFixedSupply, got %v", err)
	}
}

func TestBurn(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")
	owner := testPubkey("owner")

	mint := NewMint(0, &authority, nil)
	mint.Supply = 1
	source := NewTokenAccount(mintKey, owner)
	source.Amount = 1

	accounts := []*syscall.AccountInfo{
		tokenInfo(testPubkey("source"), source, true),
		mintInfo(mintKey, mint, true),
		accountInfo(owner, nil, true, false),
	}

	inst := BurnInstruction{Amount: 1}
	if err := execute(t, accounts, inst.Encode()); err != nil {
		t.Fatalf("Burn failed: %v", err)
	}

	gotSource, _ := DeserializeTokenAccount(accounts[0].Data)
	gotMint, _ := DeserializeMint(accounts[1].Data)
	if gotSource.Amount != 0 || gotMint.Supply != 0 {
		t.Errorf("burn state wrong: amount=%d supply=%d", gotSource.Amount, gotMint.Supply)
	}
}

func TestBurn_MintMismatch(t *testing.T) {
	owner := testPubkey("owner")
	authority := testPubkey("authority")

	mint := NewMint(0, &authority, nil)
	source := NewTokenAccount(testPubkey("other_mint"), owner)
	source.Amount = 1

	accounts := []*syscall.AccountInfo{
		tokenInfo(testPubkey("source"), source, true),
		mintInfo(testPubkey("mint"), mint, true),
		accountInfo(owner, nil, true, false),
	}

	inst := BurnInstruction{Amount: 1}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrMintMismatch) {
		t.Errorf("expected ErrMintMismatch, got %v", err)
	}
}

func TestSetAuthority_RemoveMintAuthority(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")

	mint := NewMint(0, &authority, nil)
	mint.Supply = 1

	accounts := []*syscall.AccountInfo{
		mintInfo(mintKey, mint, true),
		accountInfo(authority, nil, true, false),
	}

	inst := SetAuthorityInstruction{AuthorityType: AuthorityTypeMintTokens, NewAuthority: nil}
	if err := execute(t, accounts, inst.Encode()); err != nil {
		t.Fatalf("SetAuthority failed: %v", err)
	}

	gotMint, _ := DeserializeMint(accounts[0].Data)
	if gotMint.MintAuthority.IsSome {
		t.Error("mint authority should be removed")
	}
	// Supply is untouched; only the authority slot changes.
	if gotMint.Supply != 1 {
		t.Errorf("supply changed: %d", gotMint.Supply)
	}
}

func TestSetAuthority_WrongSigner(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")
	stranger := testPubkey("stranger")

	mint := NewMint(0, &authority, nil)

	accounts := []*syscall.AccountInfo{
		mintInfo(mintKey, mint, true),
		accountInfo(stranger, nil, true, false),
	}

	inst := SetAuthorityInstruction{AuthorityType: AuthorityTypeMintTokens}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrAuthorityMismatch) {
		t.Errorf("expected ErrAuthorityMismatch, got %v", err)
	}
}

func TestSetAuthority_MissingSignature(t *testing.T) {
	mintKey := testPubkey("mint")
	authority := testPubkey("authority")

	mint := NewMint(0, &authority, nil)

	accounts := []*syscall.AccountInfo{
		mintInfo(mintKey, mint, true),
		accountInfo(authority, nil, false, false),
	}

	inst := SetAuthorityInstruction{AuthorityType: AuthorityTypeMintTokens}
	err := execute(t, accounts, inst.Encode())
	if !errors.Is(err, ErrAccountNotSigner) {
		t.Errorf("expected ErrAccountNotSigner, got %v", err)
	}
}

func TestUnknownInstruction(t *testing.T) {
	err := execute(t, nil, []byte{99})
	if !errors.Is(err, ErrInvalidInstruction) {
		t.Errorf("expected ErrInvalidInstruction, got %v", err)
	}
}

func TestMintRoundTrip(t *testing.T) {
	authority := testPubkey("authority")
	freeze := testPubkey("freeze")

	mint := NewMint(9, &authority, &freeze)
	mint.Supply = 123_456

	restored, err := DeserializeMint(mint.Serialize())
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if *restored != *mint {
		t.Errorf("round trip mismatch: %+v vs %+v", restored, mint)
	}
}

func TestTokenAccountRoundTrip(t *testing.T) {
	account := NewTokenAccount(testPubkey("mint"), testPubkey("owner"))
	account.Amount = 42
	account.Delegate = COption{IsSome: true, Value: testPubkey("delegate")}
	account.DelegatedAmount = 7
	account.CloseAuthority = COption{IsSome: true, Value: testPubkey("closer")}

	restored, err := DeserializeTokenAccount(account.Serialize())
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if *restored != *account {
		t.Errorf("round trip mismatch: %+v vs %+v", restored, account)
	}
}
