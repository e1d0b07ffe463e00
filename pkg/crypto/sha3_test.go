package crypto

import (
	"encoding/hex"
	"testing"
)

// TestHash256EmptyInput pins SHA3-256("") to its well-known digest, the
// same known-answer vector the power-on self-test checks.
func TestHash256EmptyInput(t *testing.T) {
	want := "a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a"
	got := Hash256(nil)
	if hex.EncodeToString(got[:]) != want {
		t.Fatalf("SHA3-256(\"\") = %x, want %s", got, want)
	}
}

func TestDomainHashSeparatesDomains(t *testing.T) {
	a := DomainHash("domain-a", []byte("same-input"))
	b := DomainHash("domain-b", []byte("same-input"))
	if a == b {
		t.Fatalf("DomainHash produced identical output for two different domains")
	}
}

func TestDomainHashDeterministic(t *testing.T) {
	a := DomainHash("zault-master", []byte("x"), []byte("y"))
	b := DomainHash("zault-master", []byte("x"), []byte("y"))
	if a != b {
		t.Fatalf("DomainHash is not deterministic across calls with identical input")
	}
}
