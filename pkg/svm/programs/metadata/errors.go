package metadata

import "errors"

// Metadata program errors
var (
	// ErrInvalidInstruction indicates the instruction is invalid.
	ErrInvalidInstruction = errors.New("invalid instruction")

	// ErrInvalidInstructionData indicates the instruction data is malformed.
	ErrInvalidInstructionData = errors.New("invalid instruction data")

	// ErrInvalidMetadataData indicates the metadata account data is malformed.
	ErrInvalidMetadataData = errors.New("invalid metadata data")

	// ErrAlreadyInitialized indicates the metadata account is already initialized.
	ErrAlreadyInitialized = errors.New("metadata already initialized")

	// ErrNotInitialized indicates the metadata account is not initialized.
	ErrNotInitialized = errors.New("metadata not initialized")

	// ErrUpdateAuthorityMismatch indicates the signer is not the update authority.
	ErrUpdateAuthorityMismatch = errors.New("update authority mismatch")

	// ErrUpdateAuthorityNotSigner indicates the update authority did not sign.
	ErrUpdateAuthorityNotSigner = errors.New("update authority is not a signer")

	// ErrImmutable indicates the metadata cannot be changed.
	ErrImmutable = errors.New("metadata is immutable")

	// ErrInvalidMetadataKey indicates the metadata account address does not
	// match the derived address for the mint.
	ErrInvalidMetadataKey = errors.New("invalid metadata account address")

	// ErrInvalidMint indicates the mint account is invalid.
	ErrInvalidMint = errors.New("invalid mint")

	// ErrMintAuthorityMismatch indicates the signer is not the mint authority.
	ErrMintAuthorityMismatch = errors.New("mint authority mismatch")

	// ErrNameTooLong indicates the name exceeds the maximum length.
	ErrNameTooLong = errors.New("name too long")

	// ErrSymbolTooLong indicates the symbol exceeds the maximum length.
	ErrSymbolTooLong = errors.New("symbol too long")

	// ErrUriTooLong indicates the uri exceeds the maximum length.
	ErrUriTooLong = errors.New("uri too long")

	// ErrTooManyCreators indicates the creator list exceeds the limit.
	ErrTooManyCreators = errors.New("too many creators")

	// ErrShareTotal indicates creator shares do not sum to 100.
	ErrShareTotal = errors.New("creator shares must total 100")

	// ErrUnverifiedCreator indicates a creator was marked verified
	// without a matching signature.
	ErrUnverifiedCreator = errors.New("creator cannot be verified without signature")

	// ErrInvalidNumberOfAccounts indicates an incorrect number of accounts were provided.
	ErrInvalidNumberOfAccounts = errors.New("invalid number of accounts")

	// ErrAccountNotSigner indicates a required signer is missing.
	ErrAccountNotSigner = errors.New("account is not a signer")

	// ErrAccountNotWritable indicates a required writable account is not writable.
	ErrAccountNotWritable = errors.New("account is not writable")
)
