package crypto

import "testing"

func TestCheckIdentityConsistencyFreshKeys(t *testing.T) {
	dsa, err := GenerateMLDSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLDSAKeyPair: %v", err)
	}
	kem, err := GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair: %v", err)
	}
	if err := CheckIdentityConsistency(dsa, kem); err != nil {
		t.Fatalf("CheckIdentityConsistency: %v", err)
	}
}

func TestCheckIdentityConsistencyRejectsIncomplete(t *testing.T) {
	if err := CheckIdentityConsistency(nil, nil); err == nil {
		t.Fatalf("expected error for nil keypairs")
	}
	dsa, _ := GenerateMLDSAKeyPair()
	if err := CheckIdentityConsistency(dsa, nil); err == nil {
		t.Fatalf("expected error for missing KEM keypair")
	}
}
