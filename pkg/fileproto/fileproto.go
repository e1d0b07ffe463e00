// Package fileproto implements Zault's file protocol: splitting a file
// into per-file-key-encrypted content blocks plus one signed metadata
// block, and reassembling a file from its metadata hash.
package fileproto

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/pkg/block"
	"github.com/pzverkov/zault/pkg/crypto"
	"github.com/pzverkov/zault/pkg/store"
)

// Metadata is the decoded form of a MetadataBlock.body.
type Metadata struct {
	FileName      string
	PlaintextSize uint64
	WrappedKey    []byte // AEADNonceSize+AEADTagSize+32 bytes
	ContentHashes []block.Hash
	CreatedAt     int64
}

// EncodeMetadata produces the canonical MetadataBlock.body per spec §3:
// file_name_len(u32 LE) ‖ file_name ‖ plaintext_size(u64 LE) ‖
// wrapped_key(60) ‖ chunk_count(u32 LE) ‖ chunk_count×hash(32) ‖
// created_at(i64 LE).
func EncodeMetadata(m *Metadata) ([]byte, error) {
	nameBytes := []byte(m.FileName)
	if len(nameBytes) > constants.MaxFileNameLen {
		return nil, vaulterrors.New("fileproto.EncodeMetadata", vaulterrors.ErrInvalidArg)
	}
	if len(m.WrappedKey) != constants.WrappedKeySize {
		return nil, vaulterrors.New("fileproto.EncodeMetadata", vaulterrors.ErrInvalidArg)
	}

	out := make([]byte, 0, 4+len(nameBytes)+8+len(m.WrappedKey)+4+len(m.ContentHashes)*constants.HashSize+8)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(nameBytes)))
	out = append(out, u32[:]...)
	out = append(out, nameBytes...)

	var u64 [8]byte
	binary.LittleEndian.PutUint64(u64[:], m.PlaintextSize)
	out = append(out, u64[:]...)

	out = append(out, m.WrappedKey...)

	binary.LittleEndian.PutUint32(u32[:], uint32(len(m.ContentHashes)))
	out = append(out, u32[:]...)
	for _, h := range m.ContentHashes {
		out = append(out, h[:]...)
	}

	var i64 [8]byte
	binary.LittleEndian.PutUint64(i64[:], uint64(m.CreatedAt))
	out = append(out, i64[:]...)

	return out, nil
}

// DecodeMetadata parses a MetadataBlock.body, failing InvalidData on
// truncation or a length field inconsistent with the remaining bytes.
func DecodeMetadata(data []byte) (*Metadata, error) {
	if len(data) < 4 {
		return nil, vaulterrors.New("fileproto.DecodeMetadata", vaulterrors.ErrInvalidData)
	}
	nameLen := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]
	if uint64(nameLen) > uint64(len(data)) || nameLen > constants.MaxFileNameLen {
		return nil, vaulterrors.New("fileproto.DecodeMetadata", vaulterrors.ErrInvalidData)
	}
	name := string(data[:nameLen])
	data = data[nameLen:]

	if len(data) < 8 {
		return nil, vaulterrors.New("fileproto.DecodeMetadata", vaulterrors.ErrInvalidData)
	}
	plaintextSize := binary.LittleEndian.Uint64(data[:8])
	data = data[8:]

	if len(data) < constants.WrappedKeySize {
		return nil, vaulterrors.New("fileproto.DecodeMetadata", vaulterrors.ErrInvalidData)
	}
	wrappedKey := append([]byte(nil), data[:constants.WrappedKeySize]...)
	data = data[constants.WrappedKeySize:]

	if len(data) < 4 {
		return nil, vaulterrors.New("fileproto.DecodeMetadata", vaulterrors.ErrInvalidData)
	}
	chunkCount := binary.LittleEndian.Uint32(data[:4])
	data = data[4:]

	needed := uint64(chunkCount)*constants.HashSize + 8
	if uint64(len(data)) != needed {
		return nil, vaulterrors.New("fileproto.DecodeMetadata", vaulterrors.ErrInvalidData)
	}

	hashes := make([]block.Hash, chunkCount)
	for i := range hashes {
		copy(hashes[i][:], data[:constants.HashSize])
		data = data[constants.HashSize:]
	}

	createdAt := int64(binary.LittleEndian.Uint64(data[:8]))

	return &Metadata{
		FileName:      name,
		PlaintextSize: plaintextSize,
		WrappedKey:    wrappedKey,
		ContentHashes: hashes,
		CreatedAt:     createdAt,
	}, nil
}

// AddFile reads the file at path, encrypts it under a fresh per-file key
// in ≤1 MiB chunks, stores the resulting content and metadata blocks,
// and returns the metadata block's hash.
func AddFile(s *store.Store, dsa *crypto.MLDSAKeyPair, masterKey []byte, path string) (block.Hash, error) {
	name := filepath.Base(path)
	if strings.ContainsAny(name, "/\\") {
		return block.Hash{}, vaulterrors.New("fileproto.AddFile", vaulterrors.ErrInvalidArg)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		return block.Hash{}, vaulterrors.Wrapf("fileproto.AddFile", vaulterrors.ErrIO, err)
	}

	return addFileBytes(s, dsa, masterKey, name, contents)
}

func addFileBytes(s *store.Store, dsa *crypto.MLDSAKeyPair, masterKey []byte, name string, contents []byte) (block.Hash, error) {
	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		return block.Hash{}, err
	}
	defer crypto.Zeroize(perFileKey)

	hashes := make([]block.Hash, 0)
	for off := 0; off < len(contents); off += constants.MaxChunkSize {
		end := off + constants.MaxChunkSize
		if end > len(contents) {
			end = len(contents)
		}
		chunk := contents[off:end]

		sealed, err := crypto.SealPooled(perFileKey, chunk, nil)
		if err != nil {
			return block.Hash{}, err
		}

		cb, err := block.Sign(block.KindContent, sealed, dsa)
		if err != nil {
			crypto.PutChunkBuffer(sealed)
			return block.Hash{}, err
		}
		h, err := s.Put(cb)
		crypto.PutChunkBuffer(sealed)
		if err != nil {
			return block.Hash{}, err
		}
		hashes = append(hashes, h)
	}

	nonce := make([]byte, constants.AEADNonceSize)
	if err := crypto.SecureRandom(nonce); err != nil {
		return block.Hash{}, err
	}
	wrappedKey, err := crypto.Seal(masterKey, nonce, perFileKey, nil)
	if err != nil {
		return block.Hash{}, err
	}

	meta := &Metadata{
		FileName:      name,
		PlaintextSize: uint64(len(contents)),
		WrappedKey:    wrappedKey,
		ContentHashes: hashes,
		CreatedAt:     time.Now().Unix(),
	}
	body, err := EncodeMetadata(meta)
	if err != nil {
		return block.Hash{}, err
	}

	mb, err := block.Sign(block.KindMetadata, body, dsa)
	if err != nil {
		return block.Hash{}, err
	}
	return s.Put(mb)
}

// GetFile reconstructs the file addressed by metaHash and writes it
// atomically to outPath.
func GetFile(s *store.Store, masterKey []byte, metaHash block.Hash, outPath string) error {
	contents, _, err := readFile(s, masterKey, metaHash)
	if err != nil {
		return err
	}
	return writeFileAtomic(outPath, contents)
}

// ReadFile reconstructs and returns the plaintext contents and decoded
// metadata addressed by metaHash, without writing to disk.
func ReadFile(s *store.Store, masterKey []byte, metaHash block.Hash) ([]byte, *Metadata, error) {
	return readFile(s, masterKey, metaHash)
}

// UnwrapPerFileKey loads the metadata block at metaHash and recovers its
// per_file_key under masterKey, without fetching or decrypting any
// content block. Used by share creation, which needs only the key.
func UnwrapPerFileKey(s *store.Store, masterKey []byte, metaHash block.Hash) ([]byte, *Metadata, error) {
	mb, err := s.Get(metaHash)
	if err != nil {
		return nil, nil, err
	}
	if mb.Kind != block.KindMetadata {
		return nil, nil, vaulterrors.New("fileproto.UnwrapPerFileKey", vaulterrors.ErrInvalidData)
	}
	meta, err := DecodeMetadata(mb.Body)
	if err != nil {
		return nil, nil, err
	}
	perFileKey, err := crypto.Open(masterKey, meta.WrappedKey, nil)
	if err != nil {
		return nil, nil, vaulterrors.New("fileproto.UnwrapPerFileKey", vaulterrors.ErrAuthFailed)
	}
	return perFileKey, meta, nil
}

// RewrapPerFileKey re-seals perFileKey under masterKey and rewrites the
// metadata block at metaHash with the new wrapped_key, signing it with
// dsa. Used by share redemption to adopt a key wrapped under a sender's
// master key into the local vault.
func RewrapPerFileKey(s *store.Store, dsa *crypto.MLDSAKeyPair, masterKey []byte, metaHash block.Hash, perFileKey []byte) error {
	mb, err := s.Get(metaHash)
	if err != nil {
		return err
	}
	if mb.Kind != block.KindMetadata {
		return vaulterrors.New("fileproto.RewrapPerFileKey", vaulterrors.ErrInvalidData)
	}
	meta, err := DecodeMetadata(mb.Body)
	if err != nil {
		return err
	}

	nonce := make([]byte, constants.AEADNonceSize)
	if err := crypto.SecureRandom(nonce); err != nil {
		return err
	}
	wrappedKey, err := crypto.Seal(masterKey, nonce, perFileKey, nil)
	if err != nil {
		return err
	}
	meta.WrappedKey = wrappedKey

	body, err := EncodeMetadata(meta)
	if err != nil {
		return err
	}
	newBlock, err := block.Sign(block.KindMetadata, body, dsa)
	if err != nil {
		return err
	}
	return s.Rewrite(metaHash, newBlock)
}

func readFile(s *store.Store, masterKey []byte, metaHash block.Hash) ([]byte, *Metadata, error) {
	mb, err := s.Get(metaHash)
	if err != nil {
		return nil, nil, err
	}
	if mb.Kind != block.KindMetadata {
		return nil, nil, vaulterrors.New("fileproto.readFile", vaulterrors.ErrInvalidData)
	}
	meta, err := DecodeMetadata(mb.Body)
	if err != nil {
		return nil, nil, err
	}

	perFileKey, err := crypto.Open(masterKey, meta.WrappedKey, nil)
	if err != nil {
		return nil, nil, vaulterrors.New("fileproto.readFile", vaulterrors.ErrAuthFailed)
	}
	defer crypto.Zeroize(perFileKey)

	out := make([]byte, 0, meta.PlaintextSize)
	for _, h := range meta.ContentHashes {
		cb, err := s.Get(h)
		if err != nil {
			return nil, nil, err
		}
		if cb.Kind != block.KindContent {
			return nil, nil, vaulterrors.New("fileproto.readFile", vaulterrors.ErrInvalidData)
		}
		plain, err := crypto.OpenPooled(perFileKey, cb.Body, nil)
		if err != nil {
			return nil, nil, vaulterrors.New("fileproto.readFile", vaulterrors.ErrAuthFailed)
		}
		out = append(out, plain...)
		crypto.PutChunkBuffer(plain)
	}

	if uint64(len(out)) != meta.PlaintextSize {
		return nil, nil, vaulterrors.New("fileproto.readFile", vaulterrors.ErrInvalidData)
	}

	return out, meta, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return vaulterrors.Wrapf("fileproto.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("fileproto.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("fileproto.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterrors.Wrapf("fileproto.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return vaulterrors.Wrapf("fileproto.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	return nil
}
