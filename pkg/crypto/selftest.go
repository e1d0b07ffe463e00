// selftest.go runs a power-on self-test over every primitive adapter in
// this package: known-answer vectors where one exists (SHA3-256), and a
// round-trip consistency check where randomness makes a fixed KAT
// impractical (ChaCha20-Poly1305, ML-KEM-768, ML-DSA-65).
//
// This is production code, not test code — vault.Init refuses to open a
// store if the self-test has not passed, on the theory that a corrupted
// binary or a broken build of a dependency should fail loudly before it
// touches real key material, not silently produce wrong ciphertexts.
package crypto

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"sync"
)

// SelfTestResult records the outcome of each self-test check.
type SelfTestResult struct {
	Passed      bool
	SHA3Passed  bool
	AEADPassed  bool
	MLKEMPassed bool
	MLDSAPassed bool
	Errors      []string
}

var (
	selfTestResult *SelfTestResult
	selfTestOnce   sync.Once
)

var knownEmptySHA3256, _ = hex.DecodeString("a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a")

// RunSelfTest executes the self-test once and caches the result; safe to
// call from multiple goroutines or multiple times.
func RunSelfTest() *SelfTestResult {
	selfTestOnce.Do(func() {
		r := &SelfTestResult{Passed: true}

		if err := checkSHA3KAT(); err != nil {
			r.Passed = false
			r.Errors = append(r.Errors, fmt.Sprintf("sha3 KAT: %v", err))
		} else {
			r.SHA3Passed = true
		}

		if err := checkAEADRoundTrip(); err != nil {
			r.Passed = false
			r.Errors = append(r.Errors, fmt.Sprintf("aead round-trip: %v", err))
		} else {
			r.AEADPassed = true
		}

		if err := checkMLKEMRoundTrip(); err != nil {
			r.Passed = false
			r.Errors = append(r.Errors, fmt.Sprintf("mlkem round-trip: %v", err))
		} else {
			r.MLKEMPassed = true
		}

		if err := checkMLDSARoundTrip(); err != nil {
			r.Passed = false
			r.Errors = append(r.Errors, fmt.Sprintf("mldsa round-trip: %v", err))
		} else {
			r.MLDSAPassed = true
		}

		selfTestResult = r
	})
	return selfTestResult
}

// SelfTestPassed reports whether the self-test has run and passed.
func SelfTestPassed() bool {
	if selfTestResult == nil {
		return false
	}
	return selfTestResult.Passed
}

func checkSHA3KAT() error {
	got := Hash256(nil)
	if !bytes.Equal(got[:], knownEmptySHA3256) {
		return fmt.Errorf("SHA3-256(\"\") = %x, want %x", got, knownEmptySHA3256)
	}
	return nil
}

func checkAEADRoundTrip() error {
	key := make([]byte, 32)
	nonce := make([]byte, 12)
	// fixed, non-secret values: this checks the cipher implementation, not key secrecy
	for i := range key {
		key[i] = byte(i)
	}
	plaintext := []byte("zault-selftest-aead")

	sealed, err := Seal(key, nonce, plaintext, []byte("ad"))
	if err != nil {
		return err
	}
	opened, err := Open(key, sealed, []byte("ad"))
	if err != nil {
		return err
	}
	if !bytes.Equal(opened, plaintext) {
		return fmt.Errorf("round-trip mismatch: got %q, want %q", opened, plaintext)
	}
	return nil
}

func checkMLKEMRoundTrip() error {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	kp, err := NewMLKEMKeyPairFromSeed(seed)
	if err != nil {
		return err
	}
	ct, ss1, err := MLKEMEncapsulate(kp.Public)
	if err != nil {
		return err
	}
	ss2, err := MLKEMDecapsulate(kp.Private, ct)
	if err != nil {
		return err
	}
	if !bytes.Equal(ss1, ss2) {
		return fmt.Errorf("shared secret mismatch")
	}
	return nil
}

func checkMLDSARoundTrip() error {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i + 1)
	}
	kp, err := NewMLDSAKeyPairFromSeed(seed)
	if err != nil {
		return err
	}
	msg := []byte("zault-selftest-mldsa")
	sig, err := Sign(kp.Private, msg)
	if err != nil {
		return err
	}
	if !Verify(kp.Public, msg, sig) {
		return fmt.Errorf("signature failed to verify")
	}
	return nil
}

func init() {
	RunSelfTest()
}
