// Package metadata implements the token metadata program used by the
// migration flow:
//   - Creating metadata accounts bound to a mint
//   - Updating metadata fields, authority and primary-sale flag
//
// Program ID: metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s
package metadata

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// Program implements the token metadata program.
type Program struct {
	// ProgramID is the metadata program's public key
	ProgramID types.Pubkey
}

// New creates a new metadata Program instance.
func New() *Program {
	return &Program{
		ProgramID: types.TokenMetadataProgramID,
	}
}

// Execute executes a metadata program instruction.
// The instruction format is:
//   - First byte: instruction discriminator
//   - Remaining bytes: instruction-specific data
func (p *Program) Execute(ctx *syscall.ExecutionContext) error {
	if len(ctx.InstructionData) < 1 {
		return fmt.Errorf("%w: instruction data too short", ErrInvalidInstructionData)
	}

	discriminator := ctx.InstructionData[0]

	var instructionData []byte
	if len(ctx.InstructionData) > 1 {
		instructionData = ctx.InstructionData[1:]
	}

	switch discriminator {
	case InstructionCreateMetadataAccounts:
		var inst CreateMetadataAccountsInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleCreateMetadataAccounts(ctx, &inst)

	case InstructionUpdateMetadataAccounts:
		var inst UpdateMetadataAccountsInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleUpdateMetadataAccounts(ctx, &inst)

	default:
		return fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstruction, discriminator)
	}
}

// GetProgramID returns the metadata program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}

// findMetadataAddress derives the metadata account address for a mint.
func findMetadataAddress(mint types.Pubkey) (types.Pubkey, uint8, error) {
	seeds := [][]byte{
		[]byte(PDASeed),
		types.TokenMetadataProgramID[:],
		mint[:],
	}
	return syscall.FindProgramAddressSync(seeds, types.TokenMetadataProgramID)
}
