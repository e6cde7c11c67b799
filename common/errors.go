// Package common defines shared constants and sentinel errors used across
// the identity core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.

	// ErrNotFound means a unique-key lookup matched zero rows. It is an
	// expected outcome, not a failure.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateRecord means a unique-key lookup matched more than one
	// row. The uniqueness invariant is broken; callers must surface it,
	// never pick a row.
	ErrDuplicateRecord = errors.New("duplicate record")

	// Service-level errors.

	// ErrAuthenticationFailed covers both an unknown email and a wrong
	// password. The two cases are deliberately indistinguishable.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrAccountNotFound means an external identity resolved to no user.
	ErrAccountNotFound = errors.New("account not found")

	// ErrMergeConflict means the target and source of a merge resolved
	// to the same user.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrIdentityInUse means the external identity is already bound to
	// a user, so it cannot be linked again.
	ErrIdentityInUse = errors.New("identity already in use")
)
