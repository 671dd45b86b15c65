// Package token implements the subset of the SPL Token Program
// exercised by the migration flow:
//   - Creating and managing token mints
//   - Initializing token accounts
//   - Transferring, minting and burning tokens
//   - Changing mint and account authorities
//
// Program ID: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
package token

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/svm/syscall"
	"github.com/amoebit/migrator/pkg/types"
)

// Program implements the SPL Token Program.
type Program struct {
	// ProgramID is the Token Program's public key
	ProgramID types.Pubkey
}

// New creates a new token Program instance.
func New() *Program {
	return &Program{
		ProgramID: types.TokenProgramID,
	}
}

// Execute executes a Token Program instruction.
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
	case InstructionInitializeMint:
		var inst InitializeMintInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleInitializeMint(ctx, &inst)

	case InstructionInitializeAccount:
		return handleInitializeAccount(ctx)

	case InstructionTransfer:
		var inst TransferInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleTransfer(ctx, &inst)

	case InstructionSetAuthority:
		var inst SetAuthorityInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleSetAuthority(ctx, &inst)

	case InstructionMintTo:
		var inst MintToInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleMintTo(ctx, &inst)

	case InstructionBurn:
		var inst BurnInstruction
		if err := inst.Decode(instructionData); err != nil {
			return err
		}
		return handleBurn(ctx, &inst)

	default:
		return fmt.Errorf("%w: unknown instruction %d", ErrInvalidInstruction, discriminator)
	}
}

// GetProgramID returns the Token Program's public key.
func (p *Program) GetProgramID() types.Pubkey {
	return p.ProgramID
}
