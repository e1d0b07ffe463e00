// Package share implements Zault's share-token construction and
// redemption: a stateless, post-quantum-wrapped grant of a single file's
// per-file key to a recipient identity, carrying a signed expiry.
package share

import (
	"encoding/binary"
	"time"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/pkg/block"
	"github.com/pzverkov/zault/pkg/crypto"
)

// Token is the decoded form of a share token.
type Token struct {
	ExpiresAt     int64
	FileHash      block.Hash
	KEMCiphertext []byte // 1088 bytes
	AEADSealed    []byte // 12+16+32 = 60 bytes, the wrapped per-file key
	SignerPK      []byte // 1952 bytes
	Signature     []byte // 3309 bytes
}

// Create builds and signs a share token granting fileHash's per-file key
// to the holder of recipientKEMPk, expiring at expiresAt.
func Create(dsa *crypto.MLDSAKeyPair, recipientKEMPk *crypto.MLKEMPublicKey, fileHash block.Hash, perFileKey []byte, expiresAt int64) ([]byte, error) {
	if len(perFileKey) != constants.AEADKeySize {
		return nil, vaulterrors.New("share.Create", vaulterrors.ErrInvalidArg)
	}

	kemCt, ss, err := crypto.MLKEMEncapsulate(recipientKEMPk)
	if err != nil {
		return nil, err
	}
	defer crypto.Zeroize(ss)

	nonce := make([]byte, constants.AEADNonceSize)
	if err := crypto.SecureRandom(nonce); err != nil {
		return nil, err
	}
	aeadSealed, err := crypto.Seal(ss, nonce, perFileKey, nil)
	if err != nil {
		return nil, err
	}

	preamble := buildPreamble(expiresAt, fileHash, kemCt, aeadSealed)

	signerPK := dsa.PublicBytes()
	sig, err := crypto.Sign(dsa.Private, preamble)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, constants.ShareTokenSize)
	out = append(out, preamble...)
	out = append(out, signerPK...)
	out = append(out, sig...)
	return out, nil
}

func buildPreamble(expiresAt int64, fileHash block.Hash, kemCt, aeadSealed []byte) []byte {
	out := make([]byte, 0, 4+8+constants.HashSize+len(kemCt)+len(aeadSealed))
	out = append(out, []byte(constants.ShareTokenMagic)...)
	var i64 [8]byte
	binary.LittleEndian.PutUint64(i64[:], uint64(expiresAt))
	out = append(out, i64[:]...)
	out = append(out, fileHash[:]...)
	out = append(out, kemCt...)
	out = append(out, aeadSealed...)
	return out
}

// Parse decodes a fixed-size share token and verifies its signature,
// without checking expiry — that is Redeem's job, so a caller inspecting
// an expired token can still read its metadata.
func Parse(data []byte) (*Token, error) {
	if len(data) != constants.ShareTokenSize {
		return nil, vaulterrors.New("share.Parse", vaulterrors.ErrInvalidData)
	}
	if string(data[:4]) != constants.ShareTokenMagic {
		return nil, vaulterrors.New("share.Parse", vaulterrors.ErrInvalidData)
	}

	off := 4
	expiresAt := int64(binary.LittleEndian.Uint64(data[off : off+8]))
	off += 8

	var fileHash block.Hash
	copy(fileHash[:], data[off:off+constants.HashSize])
	off += constants.HashSize

	kemCt := append([]byte(nil), data[off:off+constants.MLKEMCiphertextSize]...)
	off += constants.MLKEMCiphertextSize

	aeadSize := constants.AEADNonceSize + constants.AEADTagSize + constants.AEADKeySize
	aeadSealed := append([]byte(nil), data[off:off+aeadSize]...)
	off += aeadSize

	signerPK := append([]byte(nil), data[off:off+constants.MLDSAPublicKeySize]...)
	off += constants.MLDSAPublicKeySize

	signature := append([]byte(nil), data[off:off+constants.MLDSASignatureSize]...)

	pk, err := crypto.ParseMLDSAPublicKey(signerPK)
	if err != nil {
		return nil, err
	}

	preamble := buildPreamble(expiresAt, fileHash, kemCt, aeadSealed)
	if !crypto.Verify(pk, preamble, signature) {
		return nil, vaulterrors.New("share.Parse", vaulterrors.ErrAuthFailed)
	}

	return &Token{
		ExpiresAt:     expiresAt,
		FileHash:      fileHash,
		KEMCiphertext: kemCt,
		AEADSealed:    aeadSealed,
		SignerPK:      signerPK,
		Signature:     signature,
	}, nil
}

// Redeem parses, verifies, and checks expiry on a token, then recovers
// the per-file key using the recipient's ML-KEM private key. It does not
// re-wrap or store anything; the vault layer does that so it can decide
// whether the file is already present locally.
func Redeem(data []byte, recipientKEMSk *crypto.MLKEMPrivateKey, now time.Time) (block.Hash, []byte, error) {
	tok, err := Parse(data)
	if err != nil {
		return block.Hash{}, nil, err
	}
	if now.Unix() > tok.ExpiresAt {
		return block.Hash{}, nil, vaulterrors.New("share.Redeem", vaulterrors.ErrAuthFailed)
	}

	ss, err := crypto.MLKEMDecapsulate(recipientKEMSk, tok.KEMCiphertext)
	if err != nil {
		return block.Hash{}, nil, err
	}
	defer crypto.Zeroize(ss)

	perFileKey, err := crypto.Open(ss, tok.AEADSealed, nil)
	if err != nil {
		return block.Hash{}, nil, vaulterrors.New("share.Redeem", vaulterrors.ErrAuthFailed)
	}

	return tok.FileHash, perFileKey, nil
}
