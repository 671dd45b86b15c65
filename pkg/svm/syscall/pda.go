package syscall

import (
	"errors"

	"github.com/amoebit/migrator/pkg/crypto"
	"github.com/amoebit/migrator/pkg/types"
)

// PDA constants
const (
	// MaxSeeds is the maximum number of seeds for PDA derivation
	MaxSeeds = 16
	// MaxSeedLen is the maximum length of a single seed
	MaxSeedLen = 32
	// PDAMarker is the string appended during PDA derivation
	PDAMarker = "ProgramDerivedAddress"

	// CUCreatePDA is the compute cost of a single derivation attempt.
	CUCreatePDA = 1500
)

// PDA errors
var (
	ErrTooManySeeds   = errors.New("too many PDA seeds")
	ErrSeedTooLong    = errors.New("PDA seed exceeds maximum length")
	ErrAddressOnCurve = errors.New("derived address is on the ed25519 curve")
	ErrNoViableBump   = errors.New("no viable bump seed found")
)

// CreateProgramAddress derives a program address from seeds and a
// program ID.
//
// Formula: SHA256(seeds... || program_id || "ProgramDerivedAddress").
// The result must NOT be on the ed25519 curve; on-curve results are
// rejected so no keypair can ever sign for a program address.
func CreateProgramAddress(seeds [][]byte, programID types.Pubkey) (types.Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return types.ZeroPubkey, ErrTooManySeeds
	}
	for _, seed := range seeds {
		if len(seed) > MaxSeedLen {
			return types.ZeroPubkey, ErrSeedTooLong
		}
	}

	input := make([][]byte, 0, len(seeds)+2)
	input = append(input, seeds...)
	input = append(input, programID[:], []byte(PDAMarker))
	hash := crypto.Hashv(input)

	if crypto.IsOnCurve(hash[:]) {
		return types.ZeroPubkey, ErrAddressOnCurve
	}

	var pda types.Pubkey
	copy(pda[:], hash[:])
	return pda, nil
}

// FindProgramAddress searches bump seeds from 255 down to 0 for the
// first off-curve program address. The search is deterministic: the
// same seeds and program ID always produce the same address and bump.
func FindProgramAddress(seeds [][]byte, programID types.Pubkey, ctx *ExecutionContext) (types.Pubkey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return types.ZeroPubkey, 0, ErrTooManySeeds
	}

	seedsWithBump := make([][]byte, len(seeds)+1)
	copy(seedsWithBump, seeds)
	bumpSeed := []byte{0}
	seedsWithBump[len(seeds)] = bumpSeed

	for bump := 255; bump >= 0; bump-- {
		if ctx != nil {
			if err := ctx.ConsumeComputeUnits(CUCreatePDA); err != nil {
				return types.ZeroPubkey, 0, err
			}
		}

		bumpSeed[0] = uint8(bump)
		pda, err := CreateProgramAddress(seedsWithBump, programID)
		if err == nil {
			return pda, uint8(bump), nil
		}
		if !errors.Is(err, ErrAddressOnCurve) {
			return types.ZeroPubkey, 0, err
		}
	}

	return types.ZeroPubkey, 0, ErrNoViableBump
}

// FindProgramAddressSync is FindProgramAddress without compute metering.
func FindProgramAddressSync(seeds [][]byte, programID types.Pubkey) (types.Pubkey, uint8, error) {
	return FindProgramAddress(seeds, programID, nil)
}
