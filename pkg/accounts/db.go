// Package accounts provides account storage for the migrator runtime.
//
// Two implementations are provided: an in-memory store used by tests and
// dry runs, and a persistent BadgerDB store used when replaying migration
// batches against a saved ledger snapshot.
package accounts

import (
	"github.com/amoebit/migrator/pkg/types"
)

// DB defines the interface for account storage.
type DB interface {
	// GetAccount retrieves an account by pubkey.
	// Returns nil, nil if account does not exist.
	GetAccount(pubkey types.Pubkey) (*types.Account, error)

	// SetAccount stores an account.
	SetAccount(pubkey types.Pubkey, account *types.Account) error

	// SetAccounts stores a batch of accounts. Either all writes land
	// or none do; the executor relies on this when committing the
	// account set touched by a successful migration.
	SetAccounts(updates []types.AccountUpdate) error

	// DeleteAccount removes an account.
	DeleteAccount(pubkey types.Pubkey) error

	// HasAccount returns true if the account exists.
	HasAccount(pubkey types.Pubkey) bool

	// GetAccountsCount returns the total number of accounts.
	GetAccountsCount() uint64

	// Close closes the database.
	Close() error
}
