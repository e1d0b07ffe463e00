package share

import (
	"testing"
	"time"

	"github.com/pzverkov/zault/internal/constants"
	"github.com/pzverkov/zault/pkg/block"
	"github.com/pzverkov/zault/pkg/crypto"
)

func testActors(t *testing.T) (*crypto.MLDSAKeyPair, *crypto.MLKEMKeyPair) {
	t.Helper()
	dsa, err := crypto.GenerateMLDSAKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLDSAKeyPair: %v", err)
	}
	kem, err := crypto.GenerateMLKEMKeyPair()
	if err != nil {
		t.Fatalf("GenerateMLKEMKeyPair: %v", err)
	}
	return dsa, kem
}

func TestCreateParseRoundTrip(t *testing.T) {
	sender, _ := testActors(t)
	_, recipientKEM := testActors(t)

	var fileHash block.Hash
	fileHash[0] = 0xAB

	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		t.Fatalf("SecureRandom: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	tokBytes, err := Create(sender, recipientKEM.Public, fileHash, perFileKey, expiresAt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(tokBytes) != constants.ShareTokenSize {
		t.Fatalf("token size = %d, want %d", len(tokBytes), constants.ShareTokenSize)
	}

	tok, err := Parse(tokBytes)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if tok.FileHash != fileHash {
		t.Fatalf("parsed file hash mismatch")
	}
	if tok.ExpiresAt != expiresAt {
		t.Fatalf("parsed expiry = %d, want %d", tok.ExpiresAt, expiresAt)
	}
}

func TestRedeemRecoversPerFileKey(t *testing.T) {
	sender, _ := testActors(t)
	_, recipientKEM := testActors(t)

	var fileHash block.Hash
	fileHash[1] = 0xCD

	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		t.Fatalf("SecureRandom: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	tokBytes, err := Create(sender, recipientKEM.Public, fileHash, perFileKey, expiresAt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	gotHash, gotKey, err := Redeem(tokBytes, recipientKEM.Private, time.Now())
	if err != nil {
		t.Fatalf("Redeem: %v", err)
	}
	if gotHash != fileHash {
		t.Fatalf("redeemed file hash mismatch")
	}
	if string(gotKey) != string(perFileKey) {
		t.Fatalf("redeemed per-file key mismatch")
	}
}

func TestRedeemRejectsExpiredToken(t *testing.T) {
	sender, _ := testActors(t)
	_, recipientKEM := testActors(t)

	var fileHash block.Hash
	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		t.Fatalf("SecureRandom: %v", err)
	}

	expiresAt := time.Now().Add(-time.Hour).Unix()
	tokBytes, err := Create(sender, recipientKEM.Public, fileHash, perFileKey, expiresAt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := Redeem(tokBytes, recipientKEM.Private, time.Now()); err == nil {
		t.Fatalf("Redeem accepted an expired token, want error")
	}
}

func TestRedeemRejectsWrongRecipient(t *testing.T) {
	sender, _ := testActors(t)
	_, recipientKEM := testActors(t)
	_, otherKEM := testActors(t)

	var fileHash block.Hash
	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		t.Fatalf("SecureRandom: %v", err)
	}

	expiresAt := time.Now().Add(time.Hour).Unix()
	tokBytes, err := Create(sender, recipientKEM.Public, fileHash, perFileKey, expiresAt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := Redeem(tokBytes, otherKEM.Private, time.Now()); err == nil {
		t.Fatalf("Redeem succeeded with the wrong recipient key, want error")
	}
}

func TestParseRejectsForgedSignature(t *testing.T) {
	sender, _ := testActors(t)
	_, recipientKEM := testActors(t)

	var fileHash block.Hash
	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		t.Fatalf("SecureRandom: %v", err)
	}
	expiresAt := time.Now().Add(time.Hour).Unix()
	tokBytes, err := Create(sender, recipientKEM.Public, fileHash, perFileKey, expiresAt)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Flip a byte inside the preamble (the file hash region) without
	// touching the signature, invalidating it.
	tokBytes[20] ^= 0xFF

	if _, err := Parse(tokBytes); err == nil {
		t.Fatalf("Parse accepted a tampered token, want AuthFailed")
	}
}

func TestParseRejectsWrongLength(t *testing.T) {
	if _, err := Parse([]byte{1, 2, 3}); err == nil {
		t.Fatalf("Parse accepted a short token, want InvalidData")
	}
}

func TestParseRejectsBadMagic(t *testing.T) {
	sender, _ := testActors(t)
	_, recipientKEM := testActors(t)
	var fileHash block.Hash
	perFileKey := make([]byte, constants.AEADKeySize)
	if err := crypto.SecureRandom(perFileKey); err != nil {
		t.Fatalf("SecureRandom: %v", err)
	}
	tokBytes, err := Create(sender, recipientKEM.Public, fileHash, perFileKey, time.Now().Add(time.Hour).Unix())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	tokBytes[0] = 'X'
	if _, err := Parse(tokBytes); err == nil {
		t.Fatalf("Parse accepted bad magic, want InvalidData")
	}
}
