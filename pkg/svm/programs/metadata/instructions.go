package metadata

import (
	"fmt"

	"github.com/amoebit/migrator/pkg/types"
)

// Metadata program instruction discriminators (first byte of
// instruction data).
const (
	InstructionCreateMetadataAccounts uint8 = 0
	InstructionUpdateMetadataAccounts uint8 = 1
)

// CreateMetadataAccountsInstruction creates a metadata account for a
// mint.
// Accounts:
//
//	[0] metadata (writable) - The metadata account to initialize
//	[1] mint - The mint the metadata describes
//	[2] mint_authority (signer) - The mint authority
//	[3] payer (signer, writable) - Funds the new account
//	[4] update_authority - The update authority for the new record
//	[5] system program
//	[6] rent sysvar
//
// If UpdateAuthorityIsSigner is set, account [4] must have signed.
type CreateMetadataAccountsInstruction struct {
	Data                    Data
	IsMutable               bool
	UpdateAuthorityIsSigner bool
}

// Decode decodes a CreateMetadataAccounts instruction from bytes.
func (inst *CreateMetadataAccountsInstruction) Decode(data []byte) error {
	r := &reader{data: data}

	inst.Data.Name = r.str(MaxNameLength)
	inst.Data.Symbol = r.str(MaxSymbolLength)
	inst.Data.Uri = r.str(MaxUriLength)
	inst.Data.SellerFeeBasisPoints = r.u16()

	if r.u8() == 1 {
		count := r.u32()
		if count > MaxCreators {
			r.fail(ErrTooManyCreators)
		}
		creators := make([]Creator, 0, count)
		for i := uint32(0); i < count && r.err == nil; i++ {
			var c Creator
			r.pubkey(&c.Address)
			c.Verified = r.u8() != 0
			c.Share = r.u8()
			creators = append(creators, c)
		}
		inst.Data.Creators = creators
	}

	inst.IsMutable = r.u8() != 0
	inst.UpdateAuthorityIsSigner = r.u8() != 0

	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, r.err)
	}
	return nil
}

// Encode encodes a CreateMetadataAccounts instruction to bytes.
func (inst *CreateMetadataAccountsInstruction) Encode() []byte {
	buf := []byte{InstructionCreateMetadataAccounts}
	buf = inst.Data.appendTo(buf)
	buf = append(buf, boolByte(inst.IsMutable), boolByte(inst.UpdateAuthorityIsSigner))
	return buf
}

// UpdateMetadataAccountsInstruction updates an existing metadata
// record. Each field is optional; nil fields are left unchanged.
// Accounts:
//
//	[0] metadata (writable) - The metadata account
//	[1] update_authority (signer) - The current update authority
type UpdateMetadataAccountsInstruction struct {
	Data                *Data
	NewUpdateAuthority  *types.Pubkey
	PrimarySaleHappened *bool
}

// Decode decodes an UpdateMetadataAccounts instruction from bytes.
func (inst *UpdateMetadataAccountsInstruction) Decode(data []byte) error {
	r := &reader{data: data}

	if r.u8() == 1 {
		d := Data{}
		d.Name = r.str(MaxNameLength)
		d.Symbol = r.str(MaxSymbolLength)
		d.Uri = r.str(MaxUriLength)
		d.SellerFeeBasisPoints = r.u16()
		if r.u8() == 1 {
			count := r.u32()
			if count > MaxCreators {
				r.fail(ErrTooManyCreators)
			}
			creators := make([]Creator, 0, count)
			for i := uint32(0); i < count && r.err == nil; i++ {
				var c Creator
				r.pubkey(&c.Address)
				c.Verified = r.u8() != 0
				c.Share = r.u8()
				creators = append(creators, c)
			}
			d.Creators = creators
		}
		inst.Data = &d
	}

	if r.u8() == 1 {
		var pk types.Pubkey
		r.pubkey(&pk)
		inst.NewUpdateAuthority = &pk
	}

	if r.u8() == 1 {
		v := r.u8() != 0
		inst.PrimarySaleHappened = &v
	}

	if r.err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstructionData, r.err)
	}
	return nil
}

// Encode encodes an UpdateMetadataAccounts instruction to bytes.
func (inst *UpdateMetadataAccountsInstruction) Encode() []byte {
	buf := []byte{InstructionUpdateMetadataAccounts}

	if inst.Data != nil {
		buf = append(buf, 1)
		buf = inst.Data.appendTo(buf)
	} else {
		buf = append(buf, 0)
	}

	if inst.NewUpdateAuthority != nil {
		buf = append(buf, 1)
		buf = append(buf, inst.NewUpdateAuthority[:]...)
	} else {
		buf = append(buf, 0)
	}

	if inst.PrimarySaleHappened != nil {
		buf = append(buf, 1, boolByte(*inst.PrimarySaleHappened))
	} else {
		buf = append(buf, 0)
	}

	return buf
}
