// Package constants defines the fixed sizes and wire parameters used
// throughout Zault: primitive key/ciphertext/tag sizes, block and
// container framing constants, and protocol limits.
package constants

// SHA3-256
const (
	// HashSize is the size of a block address (SHA3-256 digest).
	HashSize = 32
)

// ChaCha20-Poly1305 AEAD (RFC 8439)
const (
	// AEADKeySize is the ChaCha20-Poly1305 key size in bytes.
	AEADKeySize = 32
	// AEADNonceSize is the ChaCha20-Poly1305 nonce size in bytes.
	AEADNonceSize = 12
	// AEADTagSize is the ChaCha20-Poly1305 authentication tag size in bytes.
	AEADTagSize = 16
)

// ML-DSA-65 (NIST FIPS 204, Category 3 security)
const (
	// MLDSAPublicKeySize is the size of an ML-DSA-65 public key in bytes.
	MLDSAPublicKeySize = 1952
	// MLDSAPrivateKeySize is the size of an ML-DSA-65 private key in bytes.
	MLDSAPrivateKeySize = 4032
	// MLDSASignatureSize is the size of an ML-DSA-65 signature in bytes.
	MLDSASignatureSize = 3309
	// MLDSASeedSize is the size of the deterministic key-generation seed.
	MLDSASeedSize = 32
)

// ML-KEM-768 (NIST FIPS 203, Category 3 security)
const (
	// MLKEMPublicKeySize is the size of an ML-KEM-768 encapsulation key in bytes.
	MLKEMPublicKeySize = 1184
	// MLKEMPrivateKeySize is the size of an ML-KEM-768 decapsulation key in bytes.
	MLKEMPrivateKeySize = 2400
	// MLKEMCiphertextSize is the size of an ML-KEM-768 ciphertext in bytes.
	MLKEMCiphertextSize = 1088
	// MLKEMSharedSecretSize is the size of the ML-KEM-768 shared secret in bytes.
	MLKEMSharedSecretSize = 32
	// MLKEMSeedSize is the size of the deterministic key-generation seed.
	MLKEMSeedSize = 32
)

// Identity wire format
const (
	// IdentityPublicSize is DSA-pk ‖ KEM-pk with no framing.
	IdentityPublicSize = MLDSAPublicKeySize + MLKEMPublicKeySize

	// IdentityFileMagic tags the on-disk encrypted identity bundle.
	IdentityFileMagic = "ZID1"
	// IdentityFileVersion is the current on-disk bundle format version.
	IdentityFileVersion uint16 = 1
)

// Block wire format (§4.3)
const (
	// BlockKindContent tags a content block.
	BlockKindContent byte = 1
	// BlockKindMetadata tags a metadata block.
	BlockKindMetadata byte = 2
)

// File protocol limits (§4.5)
const (
	// MaxChunkSize is the maximum plaintext size of a single content chunk.
	MaxChunkSize = 1 << 20 // 1 MiB
	// MaxFileNameLen is the maximum encoded length of a stored file name.
	MaxFileNameLen = 4096
	// WrappedKeySize is nonce(12) ‖ tag(16) ‖ per-file-key(32).
	WrappedKeySize = AEADNonceSize + AEADTagSize + 32
)

// Share token wire format (§3)
const (
	// ShareTokenMagic identifies a Zault share token.
	ShareTokenMagic = "ZST1"

	// ShareTokenSize is the fixed total size of a serialized share token.
	ShareTokenSize = 4 + 8 + HashSize + MLKEMCiphertextSize +
		AEADNonceSize + AEADTagSize + 32 + MLDSAPublicKeySize + MLDSASignatureSize
)

// Export container wire format (§3)
const (
	// ExportMagic identifies a Zault export container.
	ExportMagic = "ZAULTBX1"
)

// Master key derivation domain separators (§4.2, §4.8)
const (
	// DomainMasterKey separates vault master-key derivation.
	DomainMasterKey = "zault-master"
	// DomainIdentityDSASeed separates ML-DSA seed expansion.
	DomainIdentityDSASeed = "zault-id-dsa"
	// DomainIdentityKEMSeed separates ML-KEM seed expansion.
	DomainIdentityKEMSeed = "zault-id-kem"
	// DomainIdentityFileKey separates the identity-bundle file key.
	DomainIdentityFileKey = "zault-identity-file"
)
