// mldsa.go wraps ML-DSA-65 (NIST FIPS 204), the signature scheme Zault
// uses for block signing and share-token authentication. Category 3
// security, matching ML-KEM-768.
package crypto

import (
	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
)

// MLDSAPublicKey wraps an ML-DSA-65 verification key.
type MLDSAPublicKey struct {
	key *mldsa65.PublicKey
}

// MLDSAPrivateKey wraps an ML-DSA-65 signing key.
type MLDSAPrivateKey struct {
	key *mldsa65.PrivateKey
}

// MLDSAKeyPair is an ML-DSA-65 signing/verification key pair.
type MLDSAKeyPair struct {
	Public  *MLDSAPublicKey
	Private *MLDSAPrivateKey
}

// GenerateMLDSAKeyPair generates a fresh ML-DSA-65 key pair from the
// system CSPRNG.
func GenerateMLDSAKeyPair() (*MLDSAKeyPair, error) {
	pk, sk, err := mldsa65.GenerateKey(Reader)
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.GenerateMLDSAKeyPair", vaulterrors.ErrCrypto, err)
	}
	return &MLDSAKeyPair{Public: &MLDSAPublicKey{key: pk}, Private: &MLDSAPrivateKey{key: sk}}, nil
}

// NewMLDSAKeyPairFromSeed deterministically derives an ML-DSA-65 key pair
// from a 32-byte seed, the same way identity.FromSeed reconstructs a
// signing identity without persisting the private key.
func NewMLDSAKeyPairFromSeed(seed []byte) (*MLDSAKeyPair, error) {
	if len(seed) != constants.MLDSASeedSize {
		return nil, vaulterrors.New("crypto.NewMLDSAKeyPairFromSeed", vaulterrors.ErrInvalidArg)
	}
	var s [32]byte
	copy(s[:], seed)
	pk, sk := mldsa65.NewKeyFromSeed(&s)
	return &MLDSAKeyPair{Public: &MLDSAPublicKey{key: pk}, Private: &MLDSAPrivateKey{key: sk}}, nil
}

// Sign produces a detached ML-DSA-65 signature over message. The context
// argument and "randomized" flag follow circl's SignTo signature; Zault
// always signs deterministically with an empty context.
func Sign(sk *MLDSAPrivateKey, message []byte) ([]byte, error) {
	if sk == nil || sk.key == nil {
		return nil, vaulterrors.New("crypto.Sign", vaulterrors.ErrInvalidArg)
	}
	sig := make([]byte, mldsa65.SignatureSize)
	if err := mldsa65.SignTo(sk.key, message, nil, false, sig); err != nil {
		return nil, vaulterrors.Wrapf("crypto.Sign", vaulterrors.ErrCrypto, err)
	}
	return sig, nil
}

// Verify checks a detached ML-DSA-65 signature over message.
func Verify(pk *MLDSAPublicKey, message, signature []byte) bool {
	if pk == nil || pk.key == nil {
		return false
	}
	if len(signature) != constants.MLDSASignatureSize {
		return false
	}
	return mldsa65.Verify(pk.key, message, nil, signature)
}

// Bytes returns the encoded public key.
func (pk *MLDSAPublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	b, _ := pk.key.MarshalBinary()
	return b
}

// PublicBytes returns the encoded public key of the pair.
func (kp *MLDSAKeyPair) PublicBytes() []byte {
	return kp.Public.Bytes()
}

// Bytes returns the encoded signing key. Treat the result as secret
// material.
func (sk *MLDSAPrivateKey) Bytes() ([]byte, error) {
	if sk == nil || sk.key == nil {
		return nil, vaulterrors.New("crypto.MLDSAPrivateKey.Bytes", vaulterrors.ErrInvalidArg)
	}
	return sk.key.MarshalBinary()
}

// ParseMLDSAPrivateKey decodes an ML-DSA-65 private key.
func ParseMLDSAPrivateKey(data []byte) (*MLDSAPrivateKey, error) {
	if len(data) != constants.MLDSAPrivateKeySize {
		return nil, vaulterrors.New("crypto.ParseMLDSAPrivateKey", vaulterrors.ErrInvalidData)
	}
	sk := new(mldsa65.PrivateKey)
	if err := sk.UnmarshalBinary(data); err != nil {
		return nil, vaulterrors.Wrapf("crypto.ParseMLDSAPrivateKey", vaulterrors.ErrInvalidData, err)
	}
	return &MLDSAPrivateKey{key: sk}, nil
}

// ParseMLDSAPublicKey decodes an ML-DSA-65 public key.
func ParseMLDSAPublicKey(data []byte) (*MLDSAPublicKey, error) {
	if len(data) != constants.MLDSAPublicKeySize {
		return nil, vaulterrors.New("crypto.ParseMLDSAPublicKey", vaulterrors.ErrInvalidData)
	}
	pk := new(mldsa65.PublicKey)
	if err := pk.UnmarshalBinary(data); err != nil {
		return nil, vaulterrors.Wrapf("crypto.ParseMLDSAPublicKey", vaulterrors.ErrInvalidData, err)
	}
	return &MLDSAPublicKey{key: pk}, nil
}

// Zeroize drops the key pair's references; circl exposes no explicit
// wipe for ML-DSA private keys.
func (kp *MLDSAKeyPair) Zeroize() {
	kp.Private = nil
	kp.Public = nil
}
