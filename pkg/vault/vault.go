// Package vault composes identity, block storage, and the file and
// share protocols into the single handle an embedding surface opens,
// operates on, and destroys.
//
// A Vault is not safe for concurrent mutation from multiple goroutines
// beyond the serialization it provides internally: every operation takes
// an internal mutex, so callers get linearizable semantics without
// needing their own locking, but only one vault handle may have a given
// directory open at a time — enforced by an advisory lock file acquired
// at Init and released at Close.
package vault

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	vaulterrors "github.com/pzverkov/zault/internal/errors"
	"github.com/pzverkov/zault/internal/logging"
	"github.com/pzverkov/zault/pkg/block"
	"github.com/pzverkov/zault/pkg/crypto"
	"github.com/pzverkov/zault/pkg/export"
	"github.com/pzverkov/zault/pkg/fileproto"
	"github.com/pzverkov/zault/pkg/identity"
	"github.com/pzverkov/zault/pkg/metrics"
	"github.com/pzverkov/zault/pkg/share"
	"github.com/pzverkov/zault/pkg/store"
)

// Vault is an open handle onto a vault directory: an identity, a master
// key derived from it, the block store backing it, and the operational
// machinery (lock, logger, metrics, health) wired around them.
type Vault struct {
	mu sync.Mutex

	dir       string
	id        *identity.Identity
	masterKey [32]byte
	store     *store.Store
	lock      *store.AdvisoryLock

	log       *logging.Logger
	collector *metrics.Collector
	health    *metrics.HealthCheck

	closed bool
}

// Option configures Init.
type Option func(*options)

type options struct {
	log       *logging.Logger
	collector *metrics.Collector
	version   string
}

// WithLogger sets the logger a Vault reports operational events to.
// Defaults to a no-op logger.
func WithLogger(log *logging.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithCollector sets the metrics collector a Vault records operation
// counts and latencies into. Defaults to a fresh, unshared collector.
func WithCollector(c *metrics.Collector) Option {
	return func(o *options) { o.collector = c }
}

// WithVersion sets the version string reported by HealthCheck.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Init opens the vault rooted at dir, creating it on first use: loading
// or generating the identity, deriving the master key, opening the
// block store, and acquiring the directory's advisory lock. It refuses
// to proceed if the process's cryptographic primitives fail their
// self-test.
func Init(dir string, opts ...Option) (*Vault, error) {
	if !crypto.SelfTestPassed() {
		return nil, vaulterrors.New("vault.Init", vaulterrors.ErrCrypto)
	}

	cfg := &options{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.log == nil {
		cfg.log = logging.Null()
	}
	if cfg.collector == nil {
		cfg.collector = metrics.NewCollector(nil)
	}

	lock, err := store.AcquireLock(dir)
	if err != nil {
		return nil, err
	}

	id, err := loadOrGenerateIdentity(dir)
	if err != nil {
		lock.Release()
		return nil, err
	}

	masterKey, err := id.MasterKey()
	if err != nil {
		lock.Release()
		id.Zeroize()
		return nil, err
	}

	blockStore, err := store.Open(blocksDir(dir), cfg.log)
	if err != nil {
		lock.Release()
		id.Zeroize()
		crypto.Zeroize(masterKey[:])
		return nil, err
	}

	v := &Vault{
		dir:       dir,
		id:        id,
		masterKey: masterKey,
		store:     blockStore,
		lock:      lock,
		log:       cfg.log.Named("vault"),
		collector: cfg.collector,
	}
	v.health = metrics.NewHealthCheck(v.collector, cfg.version)
	v.health.AddCheck("store_writable", metrics.StoreWritableCheck(v.probeStoreWritable))
	v.health.AddCheck("self_test", metrics.SelfTestCheck(crypto.SelfTestPassed))

	v.log.Info("vault opened", logging.Fields{"dir": dir})
	return v, nil
}

func loadOrGenerateIdentity(dir string) (*identity.Identity, error) {
	if _, err := os.Stat(filepath.Join(dir, "identity")); err == nil {
		return identity.Load(dir)
	}
	id, err := identity.Generate()
	if err != nil {
		return nil, err
	}
	if err := identity.Save(dir, id); err != nil {
		id.Zeroize()
		return nil, err
	}
	return id, nil
}

func blocksDir(dir string) string {
	return filepath.Join(dir, "blocks")
}

// AddFile reads the file at path, encrypts and stores it, and returns
// its metadata hash.
func (v *Vault) AddFile(path string) (block.Hash, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return block.Hash{}, vaulterrors.New("vault.AddFile", vaulterrors.ErrInvalidArg)
	}

	start := time.Now()
	h, err := fileproto.AddFile(v.store, v.id.DSA, v.masterKey[:], path)
	if err != nil {
		v.log.Warn("add_file failed", logging.Fields{"error": err.Error()})
		return block.Hash{}, err
	}

	size := uint64(0)
	if info, statErr := os.Stat(path); statErr == nil {
		size = uint64(info.Size())
	}
	v.collector.FileAdded(size, time.Since(start))
	v.log.Info("file added", logging.Fields{"hash": h.String()})
	return h, nil
}

// GetFile reconstructs the file addressed by metaHash and writes it to
// outPath.
func (v *Vault) GetFile(metaHash block.Hash, outPath string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return vaulterrors.New("vault.GetFile", vaulterrors.ErrInvalidArg)
	}

	start := time.Now()
	contents, meta, err := fileproto.ReadFile(v.store, v.masterKey[:], metaHash)
	if err != nil {
		v.log.Warn("get_file failed", logging.Fields{"hash": metaHash.String(), "error": err.Error()})
		return err
	}
	if err := writeAtomic(outPath, contents); err != nil {
		return err
	}
	v.collector.FileFetched(meta.PlaintextSize, time.Since(start))
	v.log.Info("file fetched", logging.Fields{"hash": metaHash.String()})
	return nil
}

// CreateShare mints a share token granting the bearer access to the
// file addressed by fileHash, redeemable by the holder of the private
// half of recipientKEMPk until expiresAt.
func (v *Vault) CreateShare(fileHash block.Hash, recipientKEMPk *crypto.MLKEMPublicKey, expiresAt int64) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil, vaulterrors.New("vault.CreateShare", vaulterrors.ErrInvalidArg)
	}

	start := time.Now()
	perFileKey, _, err := fileproto.UnwrapPerFileKey(v.store, v.masterKey[:], fileHash)
	if err != nil {
		v.log.Warn("create_share failed", logging.Fields{"hash": fileHash.String(), "error": err.Error()})
		return nil, err
	}
	defer crypto.Zeroize(perFileKey)

	tok, err := share.Create(v.id.DSA, recipientKEMPk, fileHash, perFileKey, expiresAt)
	if err != nil {
		return nil, err
	}
	v.collector.ShareCreated(time.Since(start))
	v.log.Info("share created", logging.Fields{"hash": fileHash.String()})
	return tok, nil
}

// RedeemShare validates a share token and, if the file it names is not
// already present locally, adopts its per-file key by rewrapping it
// under this vault's master key. A share redeemed after it has expired
// fails with AuthFailed; its counter is distinguished from a rejected
// (malformed or forged) token.
func (v *Vault) RedeemShare(token []byte) (block.Hash, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return block.Hash{}, vaulterrors.New("vault.RedeemShare", vaulterrors.ErrInvalidArg)
	}

	tok, err := share.Parse(token)
	if err != nil {
		v.collector.ShareRejected()
		v.collector.RecordAuthFailure()
		return block.Hash{}, err
	}

	now := time.Now()
	fileHash, perFileKey, err := share.Redeem(token, v.id.KEM.Private, now)
	if err != nil {
		if now.Unix() > tok.ExpiresAt {
			v.collector.ShareExpired()
		} else {
			v.collector.ShareRejected()
		}
		v.collector.RecordAuthFailure()
		v.log.Warn("redeem_share failed", logging.Fields{"error": err.Error()})
		return block.Hash{}, err
	}
	defer crypto.Zeroize(perFileKey)

	if !v.store.Has(fileHash) {
		if err := fileproto.RewrapPerFileKey(v.store, v.id.DSA, v.masterKey[:], fileHash, perFileKey); err != nil {
			return block.Hash{}, err
		}
	}

	v.collector.ShareRedeemed()
	v.log.Info("share redeemed", logging.Fields{"hash": fileHash.String()})
	return fileHash, nil
}

// Export writes the transitive closure of hashes to outPath as a
// self-contained container.
func (v *Vault) Export(hashes []block.Hash, outPath string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, vaulterrors.New("vault.Export", vaulterrors.ErrInvalidArg)
	}

	n, err := export.Export(v.store, hashes, outPath)
	if err != nil {
		return 0, err
	}
	v.collector.BlocksExported(n)
	v.log.Info("blocks exported", logging.Fields{"count": n})
	return n, nil
}

// Import validates and stores every block in the container at inPath,
// atomically: a single invalid entry fails the whole import with no
// blocks persisted.
func (v *Vault) Import(inPath string) (int, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return 0, vaulterrors.New("vault.Import", vaulterrors.ErrInvalidArg)
	}

	n, err := export.Import(v.store, inPath)
	if err != nil {
		return 0, err
	}
	v.collector.BlocksImported(n)
	v.log.Info("blocks imported", logging.Fields{"count": n})
	return n, nil
}

// HealthCheck returns a report covering store writability, the
// primitive self-test result, and current operation counters.
func (v *Vault) HealthCheck() metrics.HealthResponse {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.health.Check()
}

// PublicIdentity returns the vault's serialized public identity, safe
// to share with counterparties that need to address shares to it.
func (v *Vault) PublicIdentity() []byte {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.id.SerializePublic()
}

// Close releases the advisory lock, zeroizes the master key, and drops
// the identity's key references (the ML-DSA/ML-KEM secret key memory
// itself is not overwritten). The Vault must not be used again.
func (v *Vault) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return nil
	}
	v.closed = true

	crypto.Zeroize(v.masterKey[:])
	v.id.Zeroize()
	err := v.lock.Release()
	v.log.Info("vault closed", nil)
	return err
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return vaulterrors.Wrapf("vault.writeAtomic", vaulterrors.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("vault.writeAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return vaulterrors.Wrapf("vault.writeAtomic", vaulterrors.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return vaulterrors.Wrapf("vault.writeAtomic", vaulterrors.ErrIO, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return vaulterrors.Wrapf("vault.writeAtomic", vaulterrors.ErrIO, err)
	}
	return nil
}

// probeStoreWritable creates and removes a throwaway file in the store
// directory. It cannot round-trip through Put, since the store never
// unlinks a block once written.
func (v *Vault) probeStoreWritable() error {
	f, err := os.CreateTemp(blocksDir(v.dir), ".probe-*")
	if err != nil {
		return vaulterrors.Wrapf("vault.probeStoreWritable", vaulterrors.ErrIO, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
