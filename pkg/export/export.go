// Package export implements Zault's portable block container: exporting
// a set of blocks (and everything a metadata block transitively
// references) to a single file, and importing one back atomically.
package export

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"sort"

	"github.com/pzverkov/zault/internal/constants"
	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/pkg/block"
	"github.com/pzverkov/zault/pkg/crypto"
	"github.com/pzverkov/zault/pkg/store"
)

// Export computes the transitive closure of hashes (pulling in every
// content hash referenced by an included metadata block), sorts it
// deterministically, and writes a container to outPath.
func Export(s *store.Store, hashes []block.Hash, outPath string) (int, error) {
	closure, err := closure(s, hashes)
	if err != nil {
		return 0, err
	}

	sorted := make([]block.Hash, 0, len(closure))
	for h := range closure {
		sorted = append(sorted, h)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i][:], sorted[j][:]) < 0
	})

	buf := new(bytes.Buffer)
	buf.WriteString(constants.ExportMagic)

	var u32 [4]byte
	binary.LittleEndian.PutUint32(u32[:], uint32(len(sorted)))
	buf.Write(u32[:])

	for _, h := range sorted {
		b, err := s.Get(h)
		if err != nil {
			return 0, err
		}
		enc, err := b.Encode()
		if err != nil {
			return 0, err
		}
		buf.Write(h[:])
		binary.LittleEndian.PutUint32(u32[:], uint32(len(enc)))
		buf.Write(u32[:])
		buf.Write(enc)
	}

	trailer := crypto.Hash256(buf.Bytes())
	buf.Write(trailer[:])

	if err := writeFileAtomic(outPath, buf.Bytes()); err != nil {
		return 0, err
	}
	return len(sorted), nil
}

// closure returns the set of hashes in blocks, expanded to include every
// content hash referenced transitively by an included metadata block.
func closure(s *store.Store, hashes []block.Hash) (map[block.Hash]bool, error) {
	seen := make(map[block.Hash]bool, len(hashes))
	for _, h := range hashes {
		if seen[h] {
			continue
		}
		seen[h] = true

		b, err := s.Get(h)
		if err != nil {
			return nil, err
		}
		if b.Kind != block.KindMetadata {
			continue
		}

		refs, err := metadataContentHashes(b.Body)
		if err != nil {
			return nil, err
		}
		for _, ref := range refs {
			seen[ref] = true
		}
	}
	return seen, nil
}

// metadataContentHashes pulls the content_hashes field out of a
// MetadataBlock.body without fully decoding file_name or wrapped_key,
// so export does not need to import fileproto and create a dependency
// cycle.
func metadataContentHashes(body []byte) ([]block.Hash, error) {
	if len(body) < 4 {
		return nil, vaulterrors.New("export.metadataContentHashes", vaulterrors.ErrInvalidData)
	}
	nameLen := binary.LittleEndian.Uint32(body[:4])
	body = body[4:]
	if uint64(nameLen) > uint64(len(body)) {
		return nil, vaulterrors.New("export.metadataContentHashes", vaulterrors.ErrInvalidData)
	}
	body = body[nameLen:]

	if len(body) < 8 {
		return nil, vaulterrors.New("export.metadataContentHashes", vaulterrors.ErrInvalidData)
	}
	body = body[8:] // plaintext_size

	if len(body) < constants.WrappedKeySize {
		return nil, vaulterrors.New("export.metadataContentHashes", vaulterrors.ErrInvalidData)
	}
	body = body[constants.WrappedKeySize:]

	if len(body) < 4 {
		return nil, vaulterrors.New("export.metadataContentHashes", vaulterrors.ErrInvalidData)
	}
	chunkCount := binary.LittleEndian.Uint32(body[:4])
	body = body[4:]

	needed := uint64(chunkCount)*constants.HashSize + 8
	if uint64(len(body)) != needed {
		return nil, vaulterrors.New("export.metadataContentHashes", vaulterrors.ErrInvalidData)
	}

	out := make([]block.Hash, chunkCount)
	for i := range out {
		copy(out[i][:], body[:constants.HashSize])
		body = body[constants.HashSize:]
	}
	return out, nil
}

// Import verifies a container's trailer commitment and every entry's
// declared hash, then stores each block. Nothing is persisted unless the
// entire container validates first: a corrupt container fails atomically.
func Import(s *store.Store, inPath string) (int, error) {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return 0, vaulterrors.Wrapf("export.Import", vaulterrors.ErrIO, err)
	}

	if len(data) < len(constants.ExportMagic)+4+constants.HashSize {
		return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
	}
	if string(data[:len(constants.ExportMagic)]) != constants.ExportMagic {
		return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
	}

	trailerOff := len(data) - constants.HashSize
	body, trailer := data[:trailerOff], data[trailerOff:]
	want := crypto.Hash256(body)
	if !bytes.Equal(want[:], trailer) {
		return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
	}

	off := len(constants.ExportMagic)
	count := binary.LittleEndian.Uint32(body[off : off+4])
	off += 4

	type entry struct {
		hash block.Hash
		blk  *block.Block
	}
	entries := make([]entry, 0, count)

	for i := uint32(0); i < count; i++ {
		if off+constants.HashSize+4 > len(body) {
			return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
		}
		var h block.Hash
		copy(h[:], body[off:off+constants.HashSize])
		off += constants.HashSize

		encLen := binary.LittleEndian.Uint32(body[off : off+4])
		off += 4
		if uint64(off)+uint64(encLen) > uint64(len(body)) {
			return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
		}
		enc := body[off : off+int(encLen)]
		off += int(encLen)

		gotHash := crypto.Hash256(enc)
		if !bytes.Equal(gotHash[:], h[:]) {
			return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
		}

		b, err := block.Decode(enc)
		if err != nil {
			return 0, err
		}
		entries = append(entries, entry{hash: h, blk: b})
	}
	if off != trailerOff {
		return 0, vaulterrors.New("export.Import", vaulterrors.ErrInvalidData)
	}

	imported := 0
	for _, e := range entries {
		if _, err := s.Put(e.blk); err != nil {
			return 0, err
		}
		imported++
	}
	return imported, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return vaulterrors.Wrapf("export.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("export.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("export.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterrors.Wrapf("export.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return vaulterrors.Wrapf("export.writeFileAtomic", vaulterrors.ErrIO, err)
	}
	return nil
}
