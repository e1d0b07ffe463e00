// Package errors defines the Zault error taxonomy: a small set of
// sentinel errors grouped by class, and a wrapping type that carries the
// failing operation alongside an underlying cause. Error messages never
// include key material, tokens, or other secret values — only operation
// names and, where safe, hashes.
package errors

import (
	"errors"
	"fmt"
)

// Code classifies an error into the taxonomy described in spec §7. It
// also doubles as the process exit code used by an embedding surface.
type Code int

// Exit codes, matching the embedding surface's mapping in spec §6.
const (
	Ok           Code = 0
	CodeInvalidArg Code = -1
	CodeAlloc      Code = -2
	CodeIO         Code = -3
	CodeCrypto     Code = -4
	CodeInvalidData Code = -5
	CodeNotFound   Code = -6
	CodeExists     Code = -7
	CodeAuthFailed Code = -8
)

// String returns a short, human-readable class name.
func (c Code) String() string {
	switch c {
	case Ok:
		return "Ok"
	case CodeInvalidArg:
		return "InvalidArg"
	case CodeAlloc:
		return "Alloc"
	case CodeIO:
		return "IO"
	case CodeCrypto:
		return "Crypto"
	case CodeInvalidData:
		return "InvalidData"
	case CodeNotFound:
		return "NotFound"
	case CodeExists:
		return "Exists"
	case CodeAuthFailed:
		return "AuthFailed"
	default:
		return "Unknown"
	}
}

// Sentinel errors, one representative per taxonomy class. Component code
// should prefer wrapping one of these with New or Wrapf so callers can both
// match on the sentinel (via errors.Is) and read a specific message.
var (
	// ErrInvalidArg indicates a caller mistake: wrong length, nil where required.
	ErrInvalidArg = errors.New("zault: invalid argument")

	// ErrAlloc indicates the system is out of memory.
	ErrAlloc = errors.New("zault: allocation failed")

	// ErrIO indicates a filesystem operation failed.
	ErrIO = errors.New("zault: io error")

	// ErrCrypto indicates a primitive failed internally (e.g. RNG failure).
	ErrCrypto = errors.New("zault: crypto error")

	// ErrInvalidData indicates corruption: truncation, bad magic, hash mismatch.
	ErrInvalidData = errors.New("zault: invalid data")

	// ErrNotFound indicates an absent hash, block, or file.
	ErrNotFound = errors.New("zault: not found")

	// ErrExists indicates a non-idempotent write conflict.
	ErrExists = errors.New("zault: already exists")

	// ErrAuthFailed indicates signature verification, AEAD open, or share
	// expiry check failed.
	ErrAuthFailed = errors.New("zault: authentication failed")
)

// codeFor maps a sentinel to its taxonomy Code.
var codeFor = map[error]Code{
	ErrInvalidArg:   CodeInvalidArg,
	ErrAlloc:        CodeAlloc,
	ErrIO:           CodeIO,
	ErrCrypto:       CodeCrypto,
	ErrInvalidData:  CodeInvalidData,
	ErrNotFound:     CodeNotFound,
	ErrExists:       CodeExists,
	ErrAuthFailed:   CodeAuthFailed,
}

// VaultError wraps a taxonomy sentinel with the operation that failed and,
// optionally, an underlying cause from a lower layer (os, circl, x/crypto).
type VaultError struct {
	Op   string
	Code Code
	Err  error // one of the sentinels above, or nil
	Wrap error // underlying cause, or nil
}

func (e *VaultError) Error() string {
	if e.Wrap != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Err, e.Wrap)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Err)
}

// Unwrap lets errors.Is/As see through to both the sentinel and the cause.
func (e *VaultError) Unwrap() []error {
	if e.Wrap != nil {
		return []error{e.Err, e.Wrap}
	}
	return []error{e.Err}
}

// ExitCode returns the embedding-surface exit code for this error.
func (e *VaultError) ExitCode() int {
	return int(e.Code)
}

// New builds a VaultError from one of the package sentinels.
func New(op string, sentinel error) *VaultError {
	return &VaultError{Op: op, Code: codeFor[sentinel], Err: sentinel}
}

// Wrapf builds a VaultError from one of the package sentinels plus an
// underlying cause, for when a lower layer (os, circl) returned an error.
func Wrapf(op string, sentinel error, cause error) *VaultError {
	return &VaultError{Op: op, Code: codeFor[sentinel], Err: sentinel, Wrap: cause}
}

// Is reports whether any error in err's chain matches target. Convenience
// wrapper around errors.Is, kept for symmetry with the rest of the package.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// ExitCode extracts the embedding-surface exit code from any error,
// returning CodeCrypto for unrecognized errors (conservative default:
// never claim Ok for a non-nil error).
func ExitCode(err error) int {
	if err == nil {
		return int(Ok)
	}
	var ve *VaultError
	if As(err, &ve) {
		return ve.ExitCode()
	}
	return int(CodeCrypto)
}
