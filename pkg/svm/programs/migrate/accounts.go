package migrate

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/svm/syscall"
)

// AccountCount is the number of accounts a migration instruction takes.
const AccountCount = 13

// MigrationAccounts names the accounts of a migration instruction.
// The wire order is fixed; this struct exists so the handler never
// touches raw indices.
type MigrationAccounts struct {
	// Payer funds the new metadata account, acts as mint authority for
	// the replacement token, and must own the token being burned.
	Payer *syscall.AccountInfo

	// RuggedMint is the mint of the token being retired.
	RuggedMint *syscall.AccountInfo

	// SystemProgram is the system program account.
	SystemProgram *syscall.AccountInfo

	// Holding is the payer's token account holding the replacement
	// token.
	Holding *syscall.AccountInfo

	// Mint is the replacement token's mint.
	Mint *syscall.AccountInfo

	// Metadata is the metadata account to create for the replacement
	// mint.
	Metadata *syscall.AccountInfo

	// MetadataProgram is the token metadata program account.
	MetadataProgram *syscall.AccountInfo

	// Rent is the rent sysvar account.
	Rent *syscall.AccountInfo

	// Authority is the program's derived signing authority.
	Authority *syscall.AccountInfo

	// TokenProgram is the SPL token program account.
	TokenProgram *syscall.AccountInfo

	// RuggedMetadata is the metadata account of the retired token,
	// read for its name, symbol and uri.
	RuggedMetadata *syscall.AccountInfo

	// RuggedHolding is the payer's token account holding the retired
	// token; its balance is burned.
	RuggedHolding *syscall.AccountInfo

	// NewUpdateAuthority is the proposed external update authority,
	// checked against the allow list and recorded as a creator.
	NewUpdateAuthority *syscall.AccountInfo
}

// collectAccounts maps the instruction's positional account list onto
// the named record.
func collectAccounts(ctx *syscall.ExecutionContext) (*MigrationAccounts, error) {
	if ctx.AccountCount() < AccountCount {
		return nil, fmt.Errorf("%w: migration requires %d accounts, got %d",
			ErrInvalidNumberOfAccounts, AccountCount, ctx.AccountCount())
	}

	accs := &MigrationAccounts{}
	for i, dst := range []**syscall.AccountInfo{
		&accs.Payer,
		&accs.RuggedMint,
		&accs.SystemProgram,
		&accs.Holding,
		&accs.Mint,
		&accs.Metadata,
		&accs.MetadataProgram,
		&accs.Rent,
		&accs.Authority,
		&accs.TokenProgram,
		&accs.RuggedMetadata,
		&accs.RuggedHolding,
		&accs.NewUpdateAuthority,
	} {
		acc, err := ctx.GetAccountByIndex(i)
		if err != nil {
			return nil, err
		}
		*dst = acc
	}
	return accs, nil
}
