// Package block implements Zault's canonical block encoding: a signed,
// content-addressed record that is either an encrypted content chunk or
// a file's metadata. A block's address is the SHA3-256 digest of its own
// canonical encoding, so storing a block and computing its key are the
// same operation.
package block

import (
	"encoding/binary"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/pkg/crypto"
)

// Kind tags what a block's body contains.
type Kind byte

const (
	KindContent  Kind = constants.BlockKindContent
	KindMetadata Kind = constants.BlockKindMetadata
)

// Hash is a block's address: the SHA3-256 digest of its canonical encoding.
type Hash [constants.HashSize]byte

// Block is a signed, addressed record. SignerPK and Signature authenticate
// Kind ‖ Body ‖ SignerPK under the producing identity's ML-DSA-65 key.
type Block struct {
	Kind      Kind
	Body      []byte
	SignerPK  []byte // 1952 bytes
	Signature []byte // 3309 bytes
}

// Sign builds a Block over body, signing Kind ‖ Body ‖ SignerPK with dsa's private key.
func Sign(kind Kind, body []byte, dsa *crypto.MLDSAKeyPair) (*Block, error) {
	signerPK := dsa.PublicBytes()
	msg := signingMessage(kind, body, signerPK)

	sig, err := crypto.Sign(dsa.Private, msg)
	if err != nil {
		return nil, vaulterrors.Wrapf("block.Sign", vaulterrors.ErrCrypto, err)
	}

	return &Block{Kind: kind, Body: body, SignerPK: signerPK, Signature: sig}, nil
}

func signingMessage(kind Kind, body, signerPK []byte) []byte {
	msg := make([]byte, 0, 1+len(body)+len(signerPK))
	msg = append(msg, byte(kind))
	msg = append(msg, body...)
	msg = append(msg, signerPK...)
	return msg
}

// Encode produces the canonical wire form:
// kind(1) ‖ body_len(u32 LE) ‖ body ‖ signer_pk(1952) ‖ signature(3309).
func (b *Block) Encode() ([]byte, error) {
	if len(b.SignerPK) != constants.MLDSAPublicKeySize {
		return nil, vaulterrors.New("block.Encode", vaulterrors.ErrInvalidArg)
	}
	if len(b.Signature) != constants.MLDSASignatureSize {
		return nil, vaulterrors.New("block.Encode", vaulterrors.ErrInvalidArg)
	}

	out := make([]byte, 0, 1+4+len(b.Body)+len(b.SignerPK)+len(b.Signature))
	out = append(out, byte(b.Kind))
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(b.Body)))
	out = append(out, lenBuf[:]...)
	out = append(out, b.Body...)
	out = append(out, b.SignerPK...)
	out = append(out, b.Signature...)
	return out, nil
}

// Hash returns the block's address: SHA3-256 of its canonical encoding.
func (b *Block) Hash() (Hash, error) {
	enc, err := b.Encode()
	if err != nil {
		return Hash{}, err
	}
	return Hash(crypto.Hash256(enc)), nil
}

// Decode parses and verifies a canonically encoded block. A signature
// that fails to verify is reported as AuthFailed rather than InvalidData,
// matching spec's distinction between malformed bytes and an
// authenticated-but-wrong payload.
func Decode(data []byte) (*Block, error) {
	if len(data) < 1+4 {
		return nil, vaulterrors.New("block.Decode", vaulterrors.ErrInvalidData)
	}
	kind := Kind(data[0])
	if kind != KindContent && kind != KindMetadata {
		return nil, vaulterrors.New("block.Decode", vaulterrors.ErrInvalidData)
	}

	bodyLen := binary.LittleEndian.Uint32(data[1:5])
	rest := data[5:]
	tailSize := constants.MLDSAPublicKeySize + constants.MLDSASignatureSize
	if uint64(bodyLen)+uint64(tailSize) != uint64(len(rest)) {
		return nil, vaulterrors.New("block.Decode", vaulterrors.ErrInvalidData)
	}

	body := rest[:bodyLen]
	signerPK := rest[bodyLen : bodyLen+constants.MLDSAPublicKeySize]
	signature := rest[bodyLen+constants.MLDSAPublicKeySize:]

	pk, err := crypto.ParseMLDSAPublicKey(signerPK)
	if err != nil {
		return nil, err
	}
	msg := signingMessage(kind, body, signerPK)
	if !crypto.Verify(pk, msg, signature) {
		return nil, vaulterrors.New("block.Decode", vaulterrors.ErrAuthFailed)
	}

	return &Block{Kind: kind, Body: body, SignerPK: signerPK, Signature: signature}, nil
}

// String renders a hash as lowercase hex, the block store's filename form.
func (h Hash) String() string {
	const hexdigits = "0123456789abcdef"
	out := make([]byte, len(h)*2)
	for i, b := range h {
		out[i*2] = hexdigits[b>>4]
		out[i*2+1] = hexdigits[b&0x0f]
	}
	return string(out)
}
