// Package snapshot reads and writes account-set snapshots: JSON files
// mapping pubkeys to account state, optionally zstd-compressed. The
// migration runner is fed its pre-existing accounts this way and dumps
// the post-migration state back out in the same format.
package snapshot

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/amoebit/migrator/pkg/accounts"
	"github.com/amoebit/migrator/pkg/types"
)

// Snapshot errors
var (
	// ErrInvalidSnapshot indicates the snapshot file could not be parsed.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// CompressedSuffix marks zstd-compressed snapshot files.
const CompressedSuffix = ".zst"

// AccountRecord is the JSON form of a single account.
type AccountRecord struct {
	Lamports   uint64 `json:"lamports"`
	Owner      string `json:"owner"`
	Data       string `json:"data,omitempty"` // base64
	Executable bool   `json:"executable,omitempty"`
	RentEpoch  uint64 `json:"rent_epoch,omitempty"`
}

// Snapshot is a set of accounts keyed by base58 pubkey.
type Snapshot struct {
	Accounts map[string]AccountRecord `json:"accounts"`
}

// New creates an empty snapshot.
func New() *Snapshot {
	return &Snapshot{Accounts: make(map[string]AccountRecord)}
}

// Add records an account under its pubkey.
func (s *Snapshot) Add(pubkey types.Pubkey, account *types.Account) {
	record := AccountRecord{
		Lamports:   uint64(account.Lamports),
		Owner:      account.Owner.String(),
		Executable: account.Executable,
		RentEpoch:  uint64(account.RentEpoch),
	}
	if len(account.Data) > 0 {
		record.Data = base64.StdEncoding.EncodeToString(account.Data)
	}
	s.Accounts[pubkey.String()] = record
}

// Count returns the number of accounts in the snapshot.
func (s *Snapshot) Count() int {
	return len(s.Accounts)
}

// Updates converts the snapshot into typed account updates.
func (s *Snapshot) Updates() ([]types.AccountUpdate, error) {
	updates := make([]types.AccountUpdate, 0, len(s.Accounts))
	for key, record := range s.Accounts {
		pubkey, err := types.PubkeyFromBase58(key)
		if err != nil {
			return nil, fmt.Errorf("%w: bad pubkey %q: %v", ErrInvalidSnapshot, key, err)
		}
		owner, err := types.PubkeyFromBase58(record.Owner)
		if err != nil {
			return nil, fmt.Errorf("%w: bad owner for %q: %v", ErrInvalidSnapshot, key, err)
		}

		account := &types.Account{
			Lamports:   types.Lamports(record.Lamports),
			Owner:      owner,
			Executable: record.Executable,
			RentEpoch:  types.Epoch(record.RentEpoch),
		}
		if record.Data != "" {
			data, err := base64.StdEncoding.DecodeString(record.Data)
			if err != nil {
				return nil, fmt.Errorf("%w: bad data for %q: %v", ErrInvalidSnapshot, key, err)
			}
			account.Data = data
		}

		updates = append(updates, types.AccountUpdate{Pubkey: pubkey, Account: account})
	}
	return updates, nil
}

// Load reads a snapshot from a file. Files ending in .zst are
// decompressed with zstd.
func Load(path string) (*Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	if strings.HasSuffix(path, CompressedSuffix) {
		decoder, err := zstd.NewReader(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer decoder.Close()

		raw, err = decoder.DecodeAll(raw, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: zstd decompression failed: %v", ErrInvalidSnapshot, err)
		}
	}

	snap := New()
	if err := json.Unmarshal(raw, snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if snap.Accounts == nil {
		snap.Accounts = make(map[string]AccountRecord)
	}
	return snap, nil
}

// Save writes the snapshot to a file. Files ending in .zst are
// compressed with zstd.
func (s *Snapshot) Save(path string) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	if strings.HasSuffix(path, CompressedSuffix) {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			return fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		raw = encoder.EncodeAll(raw, nil)
		if err := encoder.Close(); err != nil {
			return fmt.Errorf("failed to close zstd encoder: %w", err)
		}
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// LoadIntoDB loads a snapshot file into the database in a single batch.
// Returns the number of accounts loaded.
func LoadIntoDB(path string, db accounts.DB) (int, error) {
	snap, err := Load(path)
	if err != nil {
		return 0, err
	}
	updates, err := snap.Updates()
	if err != nil {
		return 0, err
	}
	if err := db.SetAccounts(updates); err != nil {
		return 0, fmt.Errorf("failed to store accounts: %w", err)
	}
	return len(updates), nil
}

// FromDB captures the given accounts out of the database. Missing
// accounts are skipped.
func FromDB(db accounts.DB, pubkeys []types.Pubkey) (*Snapshot, error) {
	snap := New()
	for _, pubkey := range pubkeys {
		account, err := db.GetAccount(pubkey)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", pubkey, err)
		}
		if account == nil {
			continue
		}
		snap.Add(pubkey, account)
	}
	return snap, nil
}
