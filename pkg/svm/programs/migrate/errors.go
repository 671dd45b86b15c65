package migrate

import "errors"

// Migration program errors
var (
	// ErrUpdateAuthorityMismatch indicates the proposed update authority
	// is not on the allow list.
	ErrUpdateAuthorityMismatch = errors.New("update authority not allowed")

	// ErrMalformedAccount indicates an account's state bytes failed to
	// parse as their expected layout.
	ErrMalformedAccount = errors.New("malformed account data")

	// ErrEmptyToken indicates the holding account does not hold exactly
	// one token.
	ErrEmptyToken = errors.New("holding account must hold exactly one token")

	// ErrInvalidMint indicates the mint does not have the shape of a
	// one-of-one token or does not match the holding account.
	ErrInvalidMint = errors.New("invalid mint")

	// ErrAuthorityDerivationMismatch indicates the supplied authority
	// account does not match the derived program authority.
	ErrAuthorityDerivationMismatch = errors.New("authority derivation mismatch")

	// ErrInvalidNumberOfAccounts indicates an incorrect number of
	// accounts were provided.
	ErrInvalidNumberOfAccounts = errors.New("invalid number of accounts")
)
