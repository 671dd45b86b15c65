// Package migrate implements the NFT migration program: it burns a
// compromised ("rugged") token and attaches fresh metadata to a
// replacement one-of-one mint in a single atomic instruction.
//
// The program signs its metadata writes with a derived authority so
// that no private key ever controls the migrated records.
package migrate

import (
	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// AuthoritySeed is the constant seed used to derive the program's
// signing authority. The full seed set is
// [AuthoritySeed, program_id, AuthoritySeed].
const AuthoritySeed = "amoebit_minter"

// SellerFeeBasisPoints is the royalty rate stamped on migrated
// metadata (5%).
const SellerFeeBasisPoints = 500

// DefaultUpdateAuthority is the only external update authority
// accepted when no explicit allow list is configured.
var DefaultUpdateAuthority = types.MustPubkeyFromBase58("VLawmZTgLAbdeqrU579ohsdey9H1h3Mi1UeUJpg2mQB")

// Config carries the program's operator-tunable settings.
type Config struct {
	// AllowedUpdateAuthorities is the set of external keys that may be
	// recorded as the collector-facing creator of migrated metadata.
	// Empty means the default authority only.
	AllowedUpdateAuthorities []types.Pubkey
}

// Program implements the migration program.
type Program struct {
	// ProgramID is this program's public key.
	ProgramID types.Pubkey

	allowed map[types.Pubkey]bool
}

// New creates a migration Program with the default allow list.
func New(programID types.Pubkey) *Program {
	return NewWithConfig(programID, Config{})
}

// NewWithConfig creates a migration Program with an explicit allow
// list.
func NewWithConfig(programID types.Pubkey, cfg Config) *Program {
	allowed := make(map[types.Pubkey]bool)
	if len(cfg.AllowedUpdateAuthorities) == 0 {
		allowed[DefaultUpdateAuthority] = true
	} else {
		for _, pk := range cfg.AllowedUpdateAuthorities {
			allowed[pk] = true
		}
	}
	return &Program{
		ProgramID: programID,
		allowed:   allowed,
	}
}

// Execute executes a migration instruction. The instruction payload is
// ignored; every input arrives through the account list.
func (p *Program) Execute(ctx *syscall.ExecutionContext) error {
	accounts, err := collectAccounts(ctx)
	if err != nil {
		return err
	}
	return p.handleMigrate(ctx, accounts)
}

// GetProgramID returns the migration program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}

// DeriveAuthority derives the program's signing authority and bump for
// the given program ID.
func DeriveAuthority(programID types.Pubkey) (types.Pubkey, uint8, error) {
	seeds := [][]byte{
		[]byte(AuthoritySeed),
		programID[:],
		[]byte(AuthoritySeed),
	}
	return syscall.FindProgramAddressSync(seeds, programID)
}
