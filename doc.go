// Package zault provides a local, post-quantum encrypted, content-addressed
// storage engine with secure file sharing.
//
// Every block a vault writes is addressed by the SHA3-256 hash of its
// canonical encoding and signed with ML-DSA-65; file contents are
// encrypted per-file with ChaCha20-Poly1305 under keys wrapped in a
// vault-local master key derived from an ML-KEM-768 identity. Sharing a
// file mints a signed, expiring token that lets a specific recipient
// identity recover that file's key without ever touching the vault's
// master key.
//
// # Quick Start
//
//	import "github.com/pzverkov/zault/pkg/vault"
//
//	v, _ := vault.Init("/path/to/vault")
//	defer v.Close()
//
//	metaHash, _ := v.AddFile("report.pdf")
//	_ = v.GetFile(metaHash, "report-copy.pdf")
//
// Sharing a file with another vault's identity:
//
//	_, recipientKEMPk, _ := identity.ParsePublicKeys(recipientPublicIdentity)
//	token, _ := v.CreateShare(metaHash, recipientKEMPk, time.Now().Add(24*time.Hour).Unix())
//	// token travels to the recipient out of band
//	fileHash, _ := recipientVault.RedeemShare(token)
//
// # Package Structure
//
// The module is organized into several packages:
//
//   - pkg/vault: the composed handle — identity, store, lock, metrics,
//     health — that an embedding surface opens and operates on
//   - pkg/crypto: low-level primitives (ML-DSA-65, ML-KEM-768, SHA3-256,
//     ChaCha20-Poly1305), self-test, and pairwise consistency checks
//   - pkg/block: the signed, content-addressed block envelope
//   - pkg/store: the directory-backed block store and its advisory lock
//   - pkg/identity: a vault's keypair set and its on-disk persistence
//   - pkg/fileproto: splitting a file into encrypted content blocks plus
//     a signed metadata block, and reassembling it
//   - pkg/share: share-token construction and redemption
//   - pkg/export: the export/import container format and its transitive
//     dependency closure
//   - pkg/metrics: counters, histograms, a Prometheus text exporter, an
//     optional OpenTelemetry tracer, and health checks
//   - internal/constants: wire sizes and domain separators
//   - internal/errors: the vault error taxonomy and exit-code mapping
//   - internal/logging: structured, leveled, secret-free logging
//
// # Security Properties
//
//   - Post-quantum signing: ML-DSA-65 (NIST FIPS 204) over every block
//   - Post-quantum key exchange: ML-KEM-768 (NIST FIPS 203) for share
//     tokens and master-key derivation
//   - Authenticated encryption: ChaCha20-Poly1305 for content and
//     wrapped per-file keys
//   - Tamper evidence: every block's address commits to its signed
//     contents; any modification fails verification on read
//   - Bounded share lifetime: tokens carry a signed expiry checked by
//     the redeemer, not a trusted server
//   - Secret hygiene: per-file keys and the master key are zeroized on
//     drop; ML-* secret keys are released but their memory is not
//     overwritten; no secret material appears in logs
//
// # Testing
//
//	go test ./...                         # all tests
//	go test -run 'TestHash256EmptyInput|TestSelfTest' ./pkg/crypto  # known-answer tests
//
// # References
//
//   - NIST FIPS 203: Module-Lattice-Based Key-Encapsulation Mechanism Standard
//   - NIST FIPS 204: Module-Lattice-Based Digital Signature Standard
//   - NIST FIPS 202: SHA-3 Standard
//   - RFC 8439: ChaCha20 and Poly1305 for IETF Protocols
package zault
