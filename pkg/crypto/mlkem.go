// mlkem.go wraps ML-KEM-768 (NIST FIPS 203), the key-encapsulation
// mechanism Zault uses for the share protocol. Security rests on the
// hardness of Module Learning With Errors; category 3 (ML-KEM-768) is
// the level spec.md standardizes on for all share tokens.
package crypto

import (
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
)

// MLKEMPublicKey wraps an ML-KEM-768 encapsulation key.
type MLKEMPublicKey struct {
	key *mlkem768.PublicKey
}

// MLKEMPrivateKey wraps an ML-KEM-768 decapsulation key.
type MLKEMPrivateKey struct {
	key *mlkem768.PrivateKey
}

// MLKEMKeyPair is an ML-KEM-768 encapsulation/decapsulation key pair.
type MLKEMKeyPair struct {
	Public  *MLKEMPublicKey
	Private *MLKEMPrivateKey
}

// GenerateMLKEMKeyPair generates a fresh ML-KEM-768 key pair from the
// system CSPRNG.
func GenerateMLKEMKeyPair() (*MLKEMKeyPair, error) {
	pk, sk, err := mlkem768.GenerateKeyPair(Reader)
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.GenerateMLKEMKeyPair", vaulterrors.ErrCrypto, err)
	}
	return &MLKEMKeyPair{Public: &MLKEMPublicKey{key: pk}, Private: &MLKEMPrivateKey{key: sk}}, nil
}

// NewMLKEMKeyPairFromSeed deterministically derives an ML-KEM-768 key
// pair from a 32-byte seed. The same seed always yields the same pair,
// which is what lets identity.FromSeed reconstruct an identity's KEM
// keys without storing them.
func NewMLKEMKeyPairFromSeed(seed []byte) (*MLKEMKeyPair, error) {
	if len(seed) != constants.MLKEMSeedSize {
		return nil, vaulterrors.New("crypto.NewMLKEMKeyPairFromSeed", vaulterrors.ErrInvalidArg)
	}
	pk, sk, err := mlkem768.GenerateKeyPair(&deterministicReader{data: expandSeed(seed, 64)})
	if err != nil {
		return nil, vaulterrors.Wrapf("crypto.NewMLKEMKeyPairFromSeed", vaulterrors.ErrCrypto, err)
	}
	return &MLKEMKeyPair{Public: &MLKEMPublicKey{key: pk}, Private: &MLKEMPrivateKey{key: sk}}, nil
}

// deterministicReader replays a fixed byte slice as an io.Reader, letting
// a deterministic seed stand in for crypto/rand during key generation.
type deterministicReader struct {
	data   []byte
	offset int
}

func (r *deterministicReader) Read(p []byte) (n int, err error) {
	n = copy(p, r.data[r.offset:])
	r.offset += n
	return n, nil
}

// expandSeed stretches a 32-byte seed to n bytes via SHA3-256 in counter
// mode, since circl's GenerateKeyPair reads more than 32 bytes of
// randomness internally.
func expandSeed(seed []byte, n int) []byte {
	out := make([]byte, 0, n)
	var counter byte
	for len(out) < n {
		h := NewHasher()
		h.Write(seed)
		h.Write([]byte{counter})
		out = append(out, h.Sum(nil)...)
		counter++
	}
	return out[:n]
}

// MLKEMEncapsulate generates a fresh shared secret and its ciphertext
// under the given public key.
func MLKEMEncapsulate(pk *MLKEMPublicKey) (ciphertext, sharedSecret []byte, err error) {
	if pk == nil || pk.key == nil {
		return nil, nil, vaulterrors.New("crypto.MLKEMEncapsulate", vaulterrors.ErrInvalidArg)
	}

	ct := make([]byte, mlkem768.CiphertextSize)
	ss := make([]byte, mlkem768.SharedKeySize)

	seed := make([]byte, mlkem768.EncapsulationSeedSize)
	if err := SecureRandom(seed); err != nil {
		return nil, nil, err
	}
	pk.key.EncapsulateTo(ct, ss, seed)
	return ct, ss, nil
}

// MLKEMDecapsulate recovers the shared secret from a ciphertext using
// the decapsulation key.
func MLKEMDecapsulate(sk *MLKEMPrivateKey, ciphertext []byte) ([]byte, error) {
	if sk == nil || sk.key == nil {
		return nil, vaulterrors.New("crypto.MLKEMDecapsulate", vaulterrors.ErrInvalidArg)
	}
	if len(ciphertext) != constants.MLKEMCiphertextSize {
		return nil, vaulterrors.New("crypto.MLKEMDecapsulate", vaulterrors.ErrInvalidArg)
	}

	ss := make([]byte, mlkem768.SharedKeySize)
	sk.key.DecapsulateTo(ss, ciphertext)
	return ss, nil
}

// Bytes returns the encoded public key.
func (pk *MLKEMPublicKey) Bytes() []byte {
	if pk == nil || pk.key == nil {
		return nil
	}
	buf := make([]byte, mlkem768.PublicKeySize)
	pk.key.Pack(buf)
	return buf
}

// PublicBytes returns the encoded public key of the pair.
func (kp *MLKEMKeyPair) PublicBytes() []byte {
	return kp.Public.Bytes()
}

// Bytes returns the encoded decapsulation key. Treat the result as secret
// material: zeroize it once the caller is done deriving from it.
func (sk *MLKEMPrivateKey) Bytes() ([]byte, error) {
	if sk == nil || sk.key == nil {
		return nil, vaulterrors.New("crypto.MLKEMPrivateKey.Bytes", vaulterrors.ErrInvalidArg)
	}
	buf := make([]byte, mlkem768.PrivateKeySize)
	sk.key.Pack(buf)
	return buf, nil
}

// ParseMLKEMPrivateKey decodes an ML-KEM-768 decapsulation key.
func ParseMLKEMPrivateKey(data []byte) (*MLKEMPrivateKey, error) {
	if len(data) != constants.MLKEMPrivateKeySize {
		return nil, vaulterrors.New("crypto.ParseMLKEMPrivateKey", vaulterrors.ErrInvalidData)
	}
	sk := new(mlkem768.PrivateKey)
	if err := sk.Unpack(data); err != nil {
		return nil, vaulterrors.Wrapf("crypto.ParseMLKEMPrivateKey", vaulterrors.ErrInvalidData, err)
	}
	return &MLKEMPrivateKey{key: sk}, nil
}

// ParseMLKEMPublicKey decodes an ML-KEM-768 public key.
func ParseMLKEMPublicKey(data []byte) (*MLKEMPublicKey, error) {
	if len(data) != constants.MLKEMPublicKeySize {
		return nil, vaulterrors.New("crypto.ParseMLKEMPublicKey", vaulterrors.ErrInvalidData)
	}
	pk := new(mlkem768.PublicKey)
	if err := pk.Unpack(data); err != nil {
		return nil, vaulterrors.Wrapf("crypto.ParseMLKEMPublicKey", vaulterrors.ErrInvalidData, err)
	}
	return &MLKEMPublicKey{key: pk}, nil
}

// Zeroize drops the key pair's references so the private key becomes
// eligible for garbage collection. circl does not expose explicit key
// wiping; this is the best this layer can do without vendoring circl.
func (kp *MLKEMKeyPair) Zeroize() {
	kp.Private = nil
	kp.Public = nil
}
