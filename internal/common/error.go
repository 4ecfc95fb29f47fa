// Package common defines shared constants and sentinel errors used across
// the Yggdrasil service. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Credential and token errors. All of them are surfaced to the wire as
	// the same generic forbidden response; keeping them distinct internally
	// helps logging and tests.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidProfile     = errors.New("invalid profile for this token")

	// Profile and texture errors.
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidImage    = errors.New("invalid image")

	// Handshake miss. Deliberately covers session-absent, name-mismatch,
	// IP-mismatch and expiry, so the calling game server cannot tell them
	// apart.
	ErrNotJoined = errors.New("not joined")

	// Transient store failure; the only kind a caller should retry.
	ErrStoreUnavailable = errors.New("store unavailable")

	// Generic internal flow control.
	ErrorInternal = errors.New("internal error")
)

// terminal errors: retrying the same request cannot change the outcome.
var terminalErrors = []error{
	ErrorNotFound,
	ErrAlreadyExists,
	ErrInvalidCredentials,
	ErrInvalidToken,
	ErrInvalidProfile,
	ErrProfileNotFound,
	ErrInvalidImage,
	ErrNotJoined,
}

// Terminal reports whether err maps to one of the protocol-level sentinel
// errors, as opposed to a transient store failure.
func Terminal(err error) bool {
	for _, sentinel := range terminalErrors {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
