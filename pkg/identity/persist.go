package identity

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/pkg/crypto"
)

const saltFileName = "identity.salt"

// Save persists id's secret bundle to dir/identity under 0600 permissions,
// encrypted under a key derived from a machine-local salt. This is the
// Open Question resolution spec.md flags: a passphrase-free, machine-local
// KDF is clearly weaker than a passphrase or OS keystore, and is
// documented as such — callers with stronger requirements should wrap
// Save/Load with their own encryption layer rather than rely on this one.
func Save(dir string, id *Identity) error {
	salt, err := loadOrCreateSalt(dir)
	if err != nil {
		return err
	}
	fileKey := crypto.DomainHash(constants.DomainIdentityFileKey, salt)

	dsaSK, err := id.DSA.Private.Bytes()
	if err != nil {
		return vaulterrors.Wrapf("identity.Save", vaulterrors.ErrCrypto, err)
	}
	kemSK, err := id.KEM.Private.Bytes()
	if err != nil {
		return vaulterrors.Wrapf("identity.Save", vaulterrors.ErrCrypto, err)
	}

	// The public halves are not secret, but storing them alongside the
	// private halves lets Load reconstruct a full Identity without a
	// second, separately-managed public-key file.
	bundle := encodeLengthPrefixed(id.DSA.PublicBytes(), dsaSK, id.KEM.PublicBytes(), kemSK)

	nonce := make([]byte, constants.AEADNonceSize)
	if err := crypto.SecureRandom(nonce); err != nil {
		return err
	}
	sealed, err := crypto.Seal(fileKey[:], nonce, bundle, nil)
	if err != nil {
		return vaulterrors.Wrapf("identity.Save", vaulterrors.ErrCrypto, err)
	}

	out := make([]byte, 0, 4+2+len(sealed))
	out = append(out, []byte(constants.IdentityFileMagic)...)
	var verBuf [2]byte
	binary.LittleEndian.PutUint16(verBuf[:], constants.IdentityFileVersion)
	out = append(out, verBuf[:]...)
	out = append(out, sealed...)

	return writeFileAtomic(filepath.Join(dir, "identity"), out, 0o600)
}

// Load reads and decrypts the identity bundle from dir/identity.
func Load(dir string) (*Identity, error) {
	salt, err := loadSalt(dir)
	if err != nil {
		return nil, err
	}
	fileKey := crypto.DomainHash(constants.DomainIdentityFileKey, salt)

	raw, err := os.ReadFile(filepath.Join(dir, "identity"))
	if err != nil {
		return nil, vaulterrors.Wrapf("identity.Load", vaulterrors.ErrIO, err)
	}
	if len(raw) < 4+2 || string(raw[:4]) != constants.IdentityFileMagic {
		return nil, vaulterrors.New("identity.Load", vaulterrors.ErrInvalidData)
	}
	version := binary.LittleEndian.Uint16(raw[4:6])
	if version != constants.IdentityFileVersion {
		return nil, vaulterrors.New("identity.Load", vaulterrors.ErrInvalidData)
	}

	bundle, err := crypto.Open(fileKey[:], raw[6:], nil)
	if err != nil {
		return nil, vaulterrors.New("identity.Load", vaulterrors.ErrAuthFailed)
	}

	dsaPub, dsaSK, kemPub, kemSK, err := decodeLengthPrefixed4(bundle)
	if err != nil {
		return nil, err
	}

	dsaPrivKey, err := crypto.ParseMLDSAPrivateKey(dsaSK)
	if err != nil {
		return nil, err
	}
	dsaPubKey, err := crypto.ParseMLDSAPublicKey(dsaPub)
	if err != nil {
		return nil, err
	}
	kemPrivKey, err := crypto.ParseMLKEMPrivateKey(kemSK)
	if err != nil {
		return nil, err
	}
	kemPubKey, err := crypto.ParseMLKEMPublicKey(kemPub)
	if err != nil {
		return nil, err
	}

	return &Identity{
		DSA: &crypto.MLDSAKeyPair{Public: dsaPubKey, Private: dsaPrivKey},
		KEM: &crypto.MLKEMKeyPair{Public: kemPubKey, Private: kemPrivKey},
	}, nil
}

func loadOrCreateSalt(dir string) ([]byte, error) {
	path := filepath.Join(dir, saltFileName)
	if data, err := os.ReadFile(path); err == nil {
		if len(data) != 32 {
			return nil, vaulterrors.New("identity.loadOrCreateSalt", vaulterrors.ErrInvalidData)
		}
		return data, nil
	}
	salt := make([]byte, 32)
	if err := crypto.SecureRandom(salt); err != nil {
		return nil, err
	}
	if err := writeFileAtomic(path, salt, 0o600); err != nil {
		return nil, err
	}
	return salt, nil
}

func loadSalt(dir string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(dir, saltFileName))
	if err != nil {
		return nil, vaulterrors.Wrapf("identity.loadSalt", vaulterrors.ErrIO, err)
	}
	if len(data) != 32 {
		return nil, vaulterrors.New("identity.loadSalt", vaulterrors.ErrInvalidData)
	}
	return data, nil
}

// encodeLengthPrefixed concatenates fields as u32-LE-length ‖ field,
// mirroring the pack's own private-key serialization convention.
func encodeLengthPrefixed(fields ...[]byte) []byte {
	out := make([]byte, 0)
	var lenBuf [4]byte
	for _, f := range fields {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(f)))
		out = append(out, lenBuf[:]...)
		out = append(out, f...)
	}
	return out
}

func decodeLengthPrefixed4(data []byte) (a, b, c, d []byte, err error) {
	fields := make([][]byte, 0, 4)
	for i := 0; i < 4; i++ {
		if len(data) < 4 {
			return nil, nil, nil, nil, vaulterrors.New("identity.decodeLengthPrefixed4", vaulterrors.ErrInvalidData)
		}
		n := binary.LittleEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, nil, nil, nil, vaulterrors.New("identity.decodeLengthPrefixed4", vaulterrors.ErrInvalidData)
		}
		fields = append(fields, data[:n])
		data = data[n:]
	}
	return fields[0], fields[1], fields[2], fields[3], nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory, fsync, and rename — so a crash mid-write never leaves a
// truncated identity or salt file behind.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return vaulterrors.Wrapf("identity.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("identity.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("identity.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterrors.Wrapf("identity.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return vaulterrors.Wrapf("identity.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return vaulterrors.Wrapf("identity.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	return nil
}
