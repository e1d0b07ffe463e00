// aead.go adapts ChaCha20-Poly1305 (RFC 8439) to Zault's wire layout.
//
// golang.org/x/crypto/chacha20poly1305's Seal produces ciphertext || tag.
// Every AEAD-protected structure in Zault instead stores
// nonce || tag || ciphertext, so callers can locate the fixed-size nonce
// and tag without first knowing the plaintext length. This file is the
// only place that reorders bytes between the two layouts.
package crypto

import (
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
)

// Seal encrypts and authenticates plaintext under key with an explicit
// nonce, returning nonce || tag || ciphertext. The caller owns nonce
// uniqueness — Zault generates fresh random nonces per seal rather than
// keeping a session counter, since each encryption targets an independent
// block or token rather than a stream of packets.
func Seal(key, nonce, plaintext, additionalData []byte) ([]byte, error) {
	if len(key) != constants.AEADKeySize {
		return nil, vaulterrors.New("crypto.Seal", vaulterrors.ErrInvalidArg)
	}
	if len(nonce) != constants.AEADNonceSize {
		return nil, vaulterrors.New("crypto.Seal", vaulterrors.ErrInvalidArg)
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.Seal", vaulterrors.ErrCrypto, err)
	}

	// native layout: ciphertext || tag
	sealed := aead.Seal(nil, nonce, plaintext, additionalData)
	ctLen := len(sealed) - constants.AEADTagSize
	ct := sealed[:ctLen]
	tag := sealed[ctLen:]

	out := make([]byte, constants.AEADNonceSize+constants.AEADTagSize+len(ct))
	copy(out, nonce)
	copy(out[constants.AEADNonceSize:], tag)
	copy(out[constants.AEADNonceSize+constants.AEADTagSize:], ct)
	return out, nil
}

// Open reverses Seal: given nonce || tag || ciphertext, verifies the tag
// and returns plaintext. Returns ErrAuthFailed on any tag mismatch,
// without distinguishing which byte differed.
func Open(key, sealed, additionalData []byte) ([]byte, error) {
	if len(key) != constants.AEADKeySize {
		return nil, vaulterrors.New("crypto.Open", vaulterrors.ErrInvalidArg)
	}
	minLen := constants.AEADNonceSize + constants.AEADTagSize
	if len(sealed) < minLen {
		return nil, vaulterrors.New("crypto.Open", vaulterrors.ErrInvalidData)
	}

	nonce := sealed[:constants.AEADNonceSize]
	tag := sealed[constants.AEADNonceSize : constants.AEADNonceSize+constants.AEADTagSize]
	ct := sealed[constants.AEADNonceSize+constants.AEADTagSize:]

	// reassemble into the library's native ciphertext || tag layout
	native := make([]byte, len(ct)+len(tag))
	copy(native, ct)
	copy(native[len(ct):], tag)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.Open", vaulterrors.ErrCrypto, err)
	}

	plaintext, err := aead.Open(nil, nonce, native, additionalData)
	if err != nil {
		return nil, vaulterrors.New("crypto.Open", vaulterrors.ErrAuthFailed)
	}
	return plaintext, nil
}

// Overhead returns the number of bytes Seal adds beyond the plaintext
// length: the nonce plus the authentication tag.
func Overhead() int {
	return constants.AEADNonceSize + constants.AEADTagSize
}

// SealPooled behaves like Seal but generates its nonce and output buffer
// from the package's buffer pool instead of allocating fresh each call.
// It is the fast path for fileproto's chunk loop, where add_file seals one
// buffer per ≤1 MiB content chunk. The caller must call PutChunkBuffer on
// the returned slice once it has been handed off (e.g. to store.Put).
func SealPooled(key, plaintext, additionalData []byte) ([]byte, error) {
	if len(key) != constants.AEADKeySize {
		return nil, vaulterrors.New("crypto.SealPooled", vaulterrors.ErrInvalidArg)
	}

	nonce := GetNonce()
	defer PutNonce(nonce)
	if err := SecureRandom(nonce); err != nil {
		return nil, err
	}

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.SealPooled", vaulterrors.ErrCrypto, err)
	}

	scratch := GetChunkBuffer(len(plaintext) + constants.AEADTagSize)
	defer PutChunkBuffer(scratch)
	sealed := aead.Seal(scratch[:0], nonce, plaintext, additionalData)
	ctLen := len(sealed) - constants.AEADTagSize
	ct := sealed[:ctLen]
	tag := sealed[ctLen:]

	out := GetChunkBuffer(constants.AEADNonceSize + constants.AEADTagSize + ctLen)
	copy(out, nonce)
	copy(out[constants.AEADNonceSize:], tag)
	copy(out[constants.AEADNonceSize+constants.AEADTagSize:], ct)
	return out, nil
}

// OpenPooled behaves like Open but draws its scratch and plaintext buffers
// from the package's buffer pool. The caller must call PutChunkBuffer on
// the returned plaintext once it has been consumed (e.g. copied out into
// an assembly buffer).
func OpenPooled(key, sealed, additionalData []byte) ([]byte, error) {
	if len(key) != constants.AEADKeySize {
		return nil, vaulterrors.New("crypto.OpenPooled", vaulterrors.ErrInvalidArg)
	}
	minLen := constants.AEADNonceSize + constants.AEADTagSize
	if len(sealed) < minLen {
		return nil, vaulterrors.New("crypto.OpenPooled", vaulterrors.ErrInvalidData)
	}

	nonce := sealed[:constants.AEADNonceSize]
	tag := sealed[constants.AEADNonceSize:minLen]
	ct := sealed[minLen:]

	native := GetChunkBuffer(len(ct) + len(tag))
	defer PutChunkBuffer(native)
	copy(native, ct)
	copy(native[len(ct):], tag)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.OpenPooled", vaulterrors.ErrCrypto, err)
	}

	plainBuf := GetChunkBuffer(len(ct))
	plaintext, err := aead.Open(plainBuf[:0], nonce, native, additionalData)
	if err != nil {
		PutChunkBuffer(plainBuf)
		return nil, vaulterrors.New("crypto.OpenPooled", vaulterrors.ErrAuthFailed)
	}
	return plaintext, nil
}
