package accounts

import (
	"bytes"
	"crypto/sha256"
	"sync"
	"testing"

	"github.com/amoebit/migrator/pkg/types"
)

// Helper function to create test pubkeys
func testPubkey(seed string) types.Pubkey {
	hash := sha256.Sum256([]byte(seed))
	var pk types.Pubkey
	copy(pk[:], hash[:])
	return pk
}

// Helper function to create test accounts
func testAccount(lamports types.Lamports, data []byte, owner types.Pubkey) *types.Account {
	return &types.Account{
		Lamports:   lamports,
		Data:       data,
		Owner:      owner,
		Executable: false,
		RentEpoch:  0,
	}
}

func TestMemoryDB_NewMemoryDB(t *testing.T) {
	db := NewMemoryDB()
	if db == nil {
		t.Fatal("NewMemoryDB returned nil")
	}

	if db.GetAccountsCount() != 0 {
		t.Errorf("new DB should have 0 accounts, got %d", db.GetAccountsCount())
	}
}

func TestMemoryDB_SetAndGetAccount(t *testing.T) {
	db := NewMemoryDB()
	pubkey := testPubkey("test_account")
	account := testAccount(1_000_000_000, []byte("test_data"), types.SystemProgramID)

	err := db.SetAccount(pubkey, account)
	if err != nil {
		t.Fatalf("SetAccount failed: %v", err)
	}

	retrieved, err := db.GetAccount(pubkey)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}

	if retrieved == nil {
		t.Fatal("GetAccount returned nil for existing account")
	}

	if retrieved.Lamports != account.Lamports {
		t.Errorf("expected lamports %d, got %d", account.Lamports, retrieved.Lamports)
	}

	if !bytes.Equal(retrieved.Data, account.Data) {
		t.Errorf("expected data %v, got %v", account.Data, retrieved.Data)
	}

	if retrieved.Owner != account.Owner {
		t.Errorf("expected owner %s, got %s", account.Owner.String(), retrieved.Owner.String())
	}
}

func TestMemoryDB_GetAccount_NotFound(t *testing.T) {
	db := NewMemoryDB()
	pubkey := testPubkey("nonexistent")

	account, err := db.GetAccount(pubkey)
	if err != nil {
		t.Fatalf("GetAccount should not error for nonexistent account: %v", err)
	}

	if account != nil {
		t.Error("GetAccount should return nil for nonexistent account")
	}
}

func TestMemoryDB_HasAccount(t *testing.T) {
	db := NewMemoryDB()
	pubkey := testPubkey("test_account")
	account := testAccount(1000, nil, types.SystemProgramID)

	if db.HasAccount(pubkey) {
		t.Error("HasAccount should return false for nonexistent account")
	}

	_ = db.SetAccount(pubkey, account)
	if !db.HasAccount(pubkey) {
		t.Error("HasAccount should return true for existing account")
	}
}

func TestMemoryDB_DeleteAccount(t *testing.T) {
	db := NewMemoryDB()
	pubkey := testPubkey("test_account")
	account := testAccount(1000, nil, types.SystemProgramID)

	_ = db.SetAccount(pubkey, account)

	err := db.DeleteAccount(pubkey)
	if err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}

	if db.HasAccount(pubkey) {
		t.Error("account should be deleted")
	}

	retrieved, _ := db.GetAccount(pubkey)
	if retrieved != nil {
		t.Error("GetAccount should return nil for deleted account")
	}
}

func TestMemoryDB_SetAccounts_Batch(t *testing.T) {
	db := NewMemoryDB()

	var updates []types.AccountUpdate
	for i := 0; i < 13; i++ {
		updates = append(updates, types.AccountUpdate{
			Pubkey:  testPubkey("batch_" + string(rune('a'+i))),
			Account: testAccount(types.Lamports(i*100), []byte{byte(i)}, types.TokenProgramID),
		})
	}

	if err := db.SetAccounts(updates); err != nil {
		t.Fatalf("SetAccounts failed: %v", err)
	}

	if db.GetAccountsCount() != 13 {
		t.Errorf("expected 13 accounts, got %d", db.GetAccountsCount())
	}

	for _, u := range updates {
		got, err := db.GetAccount(u.Pubkey)
		if err != nil || got == nil {
			t.Fatalf("batch account %s missing after commit", u.Pubkey)
		}
		if got.Lamports != u.Account.Lamports {
			t.Errorf("account %s lamports %d, want %d", u.Pubkey, got.Lamports, u.Account.Lamports)
		}
	}
}

func TestMemoryDB_GetAccountsCount(t *testing.T) {
	db := NewMemoryDB()

	for i := 0; i < 10; i++ {
		pubkey := testPubkey("account_" + string(rune('a'+i)))
		account := testAccount(types.Lamports(i*1000), nil, types.SystemProgramID)
		_ = db.SetAccount(pubkey, account)
	}

	if db.GetAccountsCount() != 10 {
		t.Errorf("expected 10 accounts, got %d", db.GetAccountsCount())
	}

	pubkey := testPubkey("account_a")
	_ = db.DeleteAccount(pubkey)

	if db.GetAccountsCount() != 9 {
		t.Errorf("expected 9 accounts after delete, got %d", db.GetAccountsCount())
	}
}

func TestMemoryDB_DataIsolation(t *testing.T) {
	db := NewMemoryDB()
	pubkey := testPubkey("test_account")
	originalData := []byte("original_data")
	account := testAccount(1000, originalData, types.SystemProgramID)

	_ = db.SetAccount(pubkey, account)

	// Modify the original data
	originalData[0] = 'X'

	retrieved, _ := db.GetAccount(pubkey)
	if retrieved.Data[0] == 'X' {
		t.Error("modifying original data should not affect stored data")
	}

	// Modify retrieved data
	retrieved.Data[0] = 'Y'

	retrieved2, _ := db.GetAccount(pubkey)
	if retrieved2.Data[0] == 'Y' {
		t.Error("modifying retrieved data should not affect stored data")
	}
}

func TestMemoryDB_Concurrent(t *testing.T) {
	db := NewMemoryDB()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pubkey := testPubkey("account_" + string(rune(i)))
			account := testAccount(types.Lamports(i*1000), nil, types.SystemProgramID)
			_ = db.SetAccount(pubkey, account)
		}(i)
	}

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pubkey := testPubkey("account_" + string(rune(i)))
			_, _ = db.GetAccount(pubkey)
		}(i)
	}

	wg.Wait()

	count := db.GetAccountsCount()
	if count != 100 {
		t.Errorf("expected 100 accounts, got %d", count)
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	account := &types.Account{
		Lamports:   5_000_000,
		Data:       []byte{0x01, 0x02, 0x03, 0x04},
		Owner:      types.TokenProgramID,
		Executable: true,
		RentEpoch:  42,
	}

	data, err := SerializeAccount(account)
	if err != nil {
		t.Fatalf("SerializeAccount failed: %v", err)
	}

	restored, err := DeserializeAccount(data)
	if err != nil {
		t.Fatalf("DeserializeAccount failed: %v", err)
	}

	if restored.Lamports != account.Lamports {
		t.Errorf("lamports mismatch: %d vs %d", restored.Lamports, account.Lamports)
	}
	if !bytes.Equal(restored.Data, account.Data) {
		t.Error("data mismatch")
	}
	if restored.Owner != account.Owner {
		t.Error("owner mismatch")
	}
	if restored.Executable != account.Executable {
		t.Error("executable mismatch")
	}
	if restored.RentEpoch != account.RentEpoch {
		t.Error("rent epoch mismatch")
	}
}

func TestSerializeAccount_Nil(t *testing.T) {
	if _, err := SerializeAccount(nil); err == nil {
		t.Error("serializing nil account should error")
	}
}

func TestDeserializeAccount_TooShort(t *testing.T) {
	if _, err := DeserializeAccount([]byte{1, 2, 3}); err == nil {
		t.Error("deserializing short data should error")
	}
}

func TestDeserializeAccount_TruncatedData(t *testing.T) {
	account := testAccount(1000, []byte("payload"), types.SystemProgramID)
	data, _ := SerializeAccount(account)

	// Chop off the tail so data_len no longer matches
	if _, err := DeserializeAccount(data[:len(data)-5]); err == nil {
		t.Error("deserializing truncated data should error")
	}
}

func TestBadgerDB_SetAndGetAccount(t *testing.T) {
	db, err := NewBadgerDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerDB failed: %v", err)
	}
	defer db.Close()

	pubkey := testPubkey("persistent_account")
	account := testAccount(777, []byte("persisted"), types.TokenProgramID)

	if err := db.SetAccount(pubkey, account); err != nil {
		t.Fatalf("SetAccount failed: %v", err)
	}

	retrieved, err := db.GetAccount(pubkey)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if retrieved == nil {
		t.Fatal("GetAccount returned nil for existing account")
	}
	if retrieved.Lamports != 777 {
		t.Errorf("expected lamports 777, got %d", retrieved.Lamports)
	}
	if !bytes.Equal(retrieved.Data, []byte("persisted")) {
		t.Error("data mismatch after round trip")
	}

	if db.GetAccountsCount() != 1 {
		t.Errorf("expected 1 account, got %d", db.GetAccountsCount())
	}
}

func TestBadgerDB_SetAccounts_Batch(t *testing.T) {
	db, err := NewBadgerDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerDB failed: %v", err)
	}
	defer db.Close()

	var updates []types.AccountUpdate
	for i := 0; i < 5; i++ {
		updates = append(updates, types.AccountUpdate{
			Pubkey:  testPubkey("batch_" + string(rune('a'+i))),
			Account: testAccount(types.Lamports(i), nil, types.SystemProgramID),
		})
	}

	if err := db.SetAccounts(updates); err != nil {
		t.Fatalf("SetAccounts failed: %v", err)
	}

	if db.GetAccountsCount() != 5 {
		t.Errorf("expected 5 accounts, got %d", db.GetAccountsCount())
	}
}

func TestBadgerDB_DeleteAccount(t *testing.T) {
	db, err := NewBadgerDB(t.TempDir())
	if err != nil {
		t.Fatalf("NewBadgerDB failed: %v", err)
	}
	defer db.Close()

	pubkey := testPubkey("doomed")
	_ = db.SetAccount(pubkey, testAccount(1, nil, types.SystemProgramID))

	if err := db.DeleteAccount(pubkey); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if db.HasAccount(pubkey) {
		t.Error("account should be deleted")
	}
	if db.GetAccountsCount() != 0 {
		t.Errorf("expected 0 accounts, got %d", db.GetAccountsCount())
	}
}
