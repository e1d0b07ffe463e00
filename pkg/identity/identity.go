// Package identity holds a vault's ML-DSA-65 signing keys and ML-KEM-768
// encapsulation keys, and the on-disk format that persists the secret
// half between process runs.
package identity

import (
	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/pkg/crypto"
)

// Identity is a vault's full keypair set: an ML-DSA-65 signing key used
// to authenticate every block and share token it produces, and an
// ML-KEM-768 key used both to receive shares from other identities and,
// via its secret half, to derive the vault's master key.
type Identity struct {
	DSA *crypto.MLDSAKeyPair
	KEM *crypto.MLKEMKeyPair
}

// Generate creates a fresh identity from the system CSPRNG and runs the
// pairwise consistency check before returning it.
func Generate() (*Identity, error) {
	dsa, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		return nil, vaulterrors.Wrapf("identity.Generate", vaulterrors.ErrCrypto, err)
	}
	kem, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		return nil, vaulterrors.Wrapf("identity.Generate", vaulterrors.ErrCrypto, err)
	}
	if err := crypto.CheckIdentityConsistency(dsa, kem); err != nil {
		return nil, vaulterrors.Wrapf("identity.Generate", vaulterrors.ErrCrypto, err)
	}
	return &Identity{DSA: dsa, KEM: kem}, nil
}

// FromSeed deterministically derives both keypairs from a 32-byte seed by
// expanding it through domain-separated SHA3-256 into independent
// per-primitive seeds, then invoking each primitive's seeded keygen.
func FromSeed(seed []byte) (*Identity, error) {
	if len(seed) != 32 {
		return nil, vaulterrors.New("identity.FromSeed", vaulterrors.ErrInvalidArg)
	}

	dsaSeed := crypto.DomainHash(constants.DomainIdentityDSASeed, seed)
	kemSeed := crypto.DomainHash(constants.DomainIdentityKEMSeed, seed)

	dsa, err := crypto.NewMLDSAKeyPairFromSeed(dsaSeed[:])
	if err != nil {
		return nil, vaulterrors.Wrapf("identity.FromSeed", vaulterrors.ErrCrypto, err)
	}
	kem, err := crypto.NewMLKEMKeyPairFromSeed(kemSeed[:])
	if err != nil {
		return nil, vaulterrors.Wrapf("identity.FromSeed", vaulterrors.ErrCrypto, err)
	}
	if err := crypto.CheckIdentityConsistency(dsa, kem); err != nil {
		return nil, vaulterrors.Wrapf("identity.FromSeed", vaulterrors.ErrCrypto, err)
	}
	return &Identity{DSA: dsa, KEM: kem}, nil
}

// SerializePublic concatenates the DSA and KEM public keys, in that
// order, producing the 3136-byte wire form other identities exchange.
func (id *Identity) SerializePublic() []byte {
	out := make([]byte, 0, constants.IdentityPublicSize)
	out = append(out, id.DSA.PublicBytes()...)
	out = append(out, id.KEM.PublicBytes()...)
	return out
}

// ParsePublicKeys splits a serialized public identity into its DSA and
// KEM halves, validating the exact total length first.
func ParsePublicKeys(data []byte) (*crypto.MLDSAPublicKey, *crypto.MLKEMPublicKey, error) {
	if len(data) != constants.IdentityPublicSize {
		return nil, nil, vaulterrors.New("identity.ParsePublicKeys", vaulterrors.ErrInvalidArg)
	}
	dsaPk, err := crypto.ParseMLDSAPublicKey(data[:constants.MLDSAPublicKeySize])
	if err != nil {
		return nil, nil, err
	}
	kemPk, err := crypto.ParseMLKEMPublicKey(data[constants.MLDSAPublicKeySize:])
	if err != nil {
		return nil, nil, err
	}
	return dsaPk, kemPk, nil
}

// MasterKey derives the vault's 32-byte symmetric master key from this
// identity's ML-KEM secret key, per spec §4.8: SHA3-256 over the domain
// separator and the packed decapsulation key. Deterministic — loading
// the identity always recovers the same master key.
func (id *Identity) MasterKey() ([32]byte, error) {
	skBytes, err := id.KEM.Private.Bytes()
	if err != nil {
		return [32]byte{}, vaulterrors.Wrapf("identity.MasterKey", vaulterrors.ErrCrypto, err)
	}
	return crypto.DomainHash(constants.DomainMasterKey, skBytes), nil
}

// Zeroize drops the references to both keypairs; the underlying circl
// secret key memory is not overwritten. The Identity must not be used
// again.
func (id *Identity) Zeroize() {
	if id.DSA != nil {
		id.DSA.Zeroize()
	}
	if id.KEM != nil {
		id.KEM.Zeroize()
	}
}
