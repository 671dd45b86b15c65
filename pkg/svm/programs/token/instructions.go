package token

import (
	"encoding/binary"
	"fmt"

	"github.com/amoebit/migrator/pkg/types"
)

// Token Program instruction discriminators (first byte of instruction data)
const (
	InstructionInitializeMint    uint8 = 0
	InstructionInitializeAccount uint8 = 1
	InstructionTransfer          uint8 = 3
	InstructionSetAuthority      uint8 = 6
	InstructionMintTo            uint8 = 7
	InstructionBurn              uint8 = 8
)

// Authority types for SetAuthority instruction
const (
	AuthorityTypeMintTokens    uint8 = 0
	AuthorityTypeFreezeAccount uint8 = 1
	AuthorityTypeAccountOwner  uint8 = 2
	AuthorityTypeCloseAccount  uint8 = 3
)

// InitializeMintInstruction represents an InitializeMint instruction.
// Accounts:
//
//	[0] mint (writable) - The mint to initialize
//	[1] rent sysvar
type InitializeMintInstruction struct {
	Decimals        uint8         // Number of decimal places
	MintAuthority   types.Pubkey  // Authority to mint tokens
	FreezeAuthority *types.Pubkey // Optional authority to freeze accounts
}

// Decode decodes an InitializeMint instruction from bytes.
func (inst *InitializeMintInstruction) Decode(data []byte) error {
	// Layout: decimals (1) + mint_authority (32) + freeze_authority option tag (1) [+ freeze_authority (32)]
	if len(data) < 34 {
		return fmt.Errorf("%w: InitializeMint requires at least 34 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}

	inst.Decimals = data[0]
	copy(inst.MintAuthority[:], data[1:33])

	if data[33] == 1 {
		if len(data) < 66 {
			return fmt.Errorf("%w: InitializeMint with freeze authority requires 66 bytes",
				ErrInvalidInstructionData)
		}
		freezeAuth := types.Pubkey{}
		copy(freezeAuth[:], data[34:66])
		inst.FreezeAuthority = &freezeAuth
	}

	return nil
}

// Encode encodes an InitializeMint instruction to bytes.
func (inst *InitializeMintInstruction) Encode() []byte {
	var data []byte
	if inst.FreezeAuthority != nil {
		data = make([]byte, 1+66)
		data[0] = InstructionInitializeMint
		data[1] = inst.Decimals
		copy(data[2:34], inst.MintAuthority[:])
		data[34] = 1
		copy(data[35:67], inst.FreezeAuthority[:])
	} else {
		data = make([]byte, 1+34)
		data[0] = InstructionInitializeMint
		data[1] = inst.Decimals
		copy(data[2:34], inst.MintAuthority[:])
		data[34] = 0
	}
	return data
}

// InitializeAccountInstruction represents an InitializeAccount instruction.
// Accounts:
//
//	[0] account (writable) - The account to initialize
//	[1] mint - The mint for this account
//	[2] owner - The owner of the new account
//	[3] rent sysvar
type InitializeAccountInstruction struct {
	// No additional data required - accounts provide all info
}

// Decode decodes an InitializeAccount instruction from bytes.
func (inst *InitializeAccountInstruction) Decode(_ []byte) error {
	return nil
}

// Encode encodes an InitializeAccount instruction to bytes.
func (inst *InitializeAccountInstruction) Encode() []byte {
	return []byte{InstructionInitializeAccount}
}

// TransferInstruction represents a Transfer instruction.
// Accounts:
//
//	[0] source (writable) - The source token account
//	[1] destination (writable) - The destination token account
//	[2] authority (signer) - The source account owner or delegate
type TransferInstruction struct {
	Amount uint64 // Amount of tokens to transfer
}

// Decode decodes a Transfer instruction from bytes.
func (inst *TransferInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: Transfer requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes a Transfer instruction to bytes.
func (inst *TransferInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionTransfer
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}

// SetAuthorityInstruction represents a SetAuthority instruction.
// Accounts:
//
//	[0] account (writable) - The mint or token account
//	[1] current_authority (signer) - The current authority
type SetAuthorityInstruction struct {
	AuthorityType uint8         // Type of authority to change
	NewAuthority  *types.Pubkey // New authority (nil to remove)
}

// Decode decodes a SetAuthority instruction from bytes.
func (inst *SetAuthorityInstruction) Decode(data []byte) error {
	if len(data) < 2 {
		return fmt.Errorf("%w: SetAuthority requires at least 2 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.AuthorityType = data[0]

	if data[1] == 1 {
		if len(data) < 34 {
			return fmt.Errorf("%w: SetAuthority with new authority requires 34 bytes",
				ErrInvalidInstructionData)
		}
		newAuth := types.Pubkey{}
		copy(newAuth[:], data[2:34])
		inst.NewAuthority = &newAuth
	}

	return nil
}

// Encode encodes a SetAuthority instruction to bytes.
func (inst *SetAuthorityInstruction) Encode() []byte {
	if inst.NewAuthority != nil {
		data := make([]byte, 35)
		data[0] = InstructionSetAuthority
		data[1] = inst.AuthorityType
		data[2] = 1
		copy(data[3:35], inst.NewAuthority[:])
		return data
	}
	return []byte{InstructionSetAuthority, inst.AuthorityType, 0}
}

// MintToInstruction represents a MintTo instruction.
// Accounts:
//
//	[0] mint (writable) - The mint
//	[1] destination (writable) - The account to mint to
//	[2] mint_authority (signer) - The mint authority
type MintToInstruction struct {
	Amount uint64 // Amount of tokens to mint
}

// Decode decodes a MintTo instruction from bytes.
func (inst *MintToInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: MintTo requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes a MintTo instruction to bytes.
func (inst *MintToInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionMintTo
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}

// BurnInstruction represents a Burn instruction.
// Accounts:
//
//	[0] source (writable) - The token account to burn from
//	[1] mint (writable) - The mint
//	[2] authority (signer) - The account owner or delegate
type BurnInstruction struct {
	Amount uint64 // Amount of tokens to burn
}

// Decode decodes a Burn instruction from bytes.
func (inst *BurnInstruction) Decode(data []byte) error {
	if len(data) < 8 {
		return fmt.Errorf("%w: Burn requires 8 bytes, got %d",
			ErrInvalidInstructionData, len(data))
	}
	inst.Amount = binary.LittleEndian.Uint64(data[0:8])
	return nil
}

// Encode encodes a Burn instruction to bytes.
func (inst *BurnInstruction) Encode() []byte {
	data := make([]byte, 9)
	data[0] = InstructionBurn
	binary.LittleEndian.PutUint64(data[1:9], inst.Amount)
	return data
}
