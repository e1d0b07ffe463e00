// consistency.go implements a pairwise consistency check: a per-keypair
// verification run immediately after key generation, before the caller
// is allowed to trust the keys. This catches a broken RNG or a corrupted
// keygen path that would otherwise only surface the first time a real
// signature or encapsulation failed to verify — potentially long after
// the bad key was persisted to disk.
package crypto

import (
	"bytes"
	"fmt"
)

// CheckIdentityConsistency verifies a freshly generated identity keypair:
// it signs and verifies a nonce with the ML-DSA key, then encapsulates
// and decapsulates against the ML-KEM key, returning an error describing
// the first failure.
func CheckIdentityConsistency(dsa *MLDSAKeyPair, kem *MLKEMKeyPair) error {
	if dsa == nil || dsa.Private == nil || dsa.Public == nil {
		return fmt.Errorf("consistency: ML-DSA keypair incomplete")
	}
	if kem == nil || kem.Private == nil || kem.Public == nil {
		return fmt.Errorf("consistency: ML-KEM keypair incomplete")
	}

	nonce := make([]byte, 32)
	if err := SecureRandom(nonce); err != nil {
		return fmt.Errorf("consistency: %w", err)
	}

	sig, err := Sign(dsa.Private, nonce)
	if err != nil {
		return fmt.Errorf("consistency: sign failed: %w", err)
	}
	if !Verify(dsa.Public, nonce, sig) {
		return fmt.Errorf("consistency: freshly generated ML-DSA signature failed to verify")
	}

	ct, ss1, err := MLKEMEncapsulate(kem.Public)
	if err != nil {
		return fmt.Errorf("consistency: encapsulate failed: %w", err)
	}
	ss2, err := MLKEMDecapsulate(kem.Private, ct)
	if err != nil {
		return fmt.Errorf("consistency: decapsulate failed: %w", err)
	}
	if !bytes.Equal(ss1, ss2) {
		return fmt.Errorf("consistency: encapsulate/decapsulate shared secret mismatch")
	}

	return nil
}
