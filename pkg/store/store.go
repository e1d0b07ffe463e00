// Package store implements Zault's content-addressed block store: a flat
// directory of files named by their block's lowercase-hex hash. Writes
// are atomic (temp file, fsync, rename) and every read verifies the
// block's signature before returning it.
package store

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"

	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/internal/logging"
	"github.com/pzverkov/zault/pkg/block"
)

// Store is a directory-backed block store. A single mutex serializes
// writes; spec.md's single-writer-per-handle model means the store
// never needs more than in-process coordination.
type Store struct {
	dir string
	mu  sync.Mutex
	log *logging.Logger
}

// Open returns a Store rooted at dir, creating dir if it does not exist.
func Open(dir string, log *logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Null()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, vaulterrors.Wrapf("store.Open", vaulterrors.ErrIO, err)
	}
	return &Store{dir: dir, log: log.Named("store")}, nil
}

func (s *Store) pathFor(h block.Hash) string {
	return filepath.Join(s.dir, h.String())
}

// Put encodes, hashes, and durably writes b, returning its address. A
// pre-existing file with the same hash and identical bytes is a no-op
// (idempotent); differing bytes under the same address is a hash
// collision or on-disk tamper and fails with InvalidData.
func (s *Store) Put(b *block.Block) (block.Hash, error) {
	enc, err := b.Encode()
	if err != nil {
		return block.Hash{}, err
	}
	h, err := b.Hash()
	if err != nil {
		return block.Hash{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.pathFor(h)
	if existing, err := os.ReadFile(path); err == nil {
		if bytes.Equal(existing, enc) {
			return h, nil
		}
		return block.Hash{}, vaulterrors.New("store.Put", vaulterrors.ErrInvalidData)
	}

	if err := writeAtomic(path, enc); err != nil {
		return block.Hash{}, err
	}
	s.log.Debug("block written", logging.Fields{"hash": h.String(), "size": len(enc)})
	return h, nil
}

// Get reads, decodes, and verifies the block at hash. A missing file
// yields NotFound; a malformed or unverifiable file yields InvalidData
// or AuthFailed from block.Decode.
func (s *Store) Get(h block.Hash) (*block.Block, error) {
	data, err := os.ReadFile(s.pathFor(h))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterrors.New("store.Get", vaulterrors.ErrNotFound)
		}
		return nil, vaulterrors.Wrapf("store.Get", vaulterrors.ErrIO, err)
	}
	return block.Decode(data)
}

// Rewrite overwrites the block stored at h with b's encoding, without
// requiring b.Hash() == h. This is the one deliberate exception to
// content-addressing: share redemption must update a metadata block's
// wrapped_key in place, under the same address other blocks already
// reference it by, rather than publish it under a new address.
func (s *Store) Rewrite(h block.Hash, b *block.Block) error {
	enc, err := b.Encode()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(s.pathFor(h), enc); err != nil {
		return err
	}
	s.log.Debug("block rewritten", logging.Fields{"hash": h.String(), "size": len(enc)})
	return nil
}

// Has reports whether a block with the given hash is present.
func (s *Store) Has(h block.Hash) bool {
	_, err := os.Stat(s.pathFor(h))
	return err == nil
}

// Iter lazily enumerates every hash currently in the store, in whatever
// order the directory entries happen to be returned. Export does not
// use it; its dependency closure is resolved through Get.
func (s *Store) Iter() func(yield func(block.Hash) bool) {
	return func(yield func(block.Hash) bool) {
		entries, err := os.ReadDir(s.dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			h, ok := parseHashName(e.Name())
			if !ok {
				continue
			}
			if !yield(h) {
				return
			}
		}
	}
}

func parseHashName(name string) (block.Hash, bool) {
	if len(name) != 64 {
		return block.Hash{}, false
	}
	var h block.Hash
	for i := 0; i < 32; i++ {
		hi, ok1 := hexVal(name[i*2])
		lo, ok2 := hexVal(name[i*2+1])
		if !ok1 || !ok2 {
			return block.Hash{}, false
		}
		h[i] = hi<<4 | lo
	}
	return h, true
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	default:
		return 0, false
	}
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return vaulterrors.Wrapf("store.writeAtomic", vaulterrors.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("store.writeAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("store.writeAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterrors.Wrapf("store.writeAtomic", vaulterrors.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return vaulterrors.Wrapf("store.writeAtomic", vaulterrors.ErrIO, err)
	}
	return nil
}
