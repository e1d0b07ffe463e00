package crypto

import (
	"bytes"
	"testing"

	"github.com/pzverkov/zault/internal/constants"
)

func TestSealOpenRoundTrip(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	nonce := make([]byte, constants.AEADNonceSize)
	MustSecureRandom(nonce)

	plaintext := []byte("the quick brown fox jumps over the lazy dog")
	ad := []byte("associated-data")

	sealed, err := Seal(key, nonce, plaintext, ad)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if len(sealed) != constants.AEADNonceSize+constants.AEADTagSize+len(plaintext) {
		t.Fatalf("sealed length = %d, want %d", len(sealed), constants.AEADNonceSize+constants.AEADTagSize+len(plaintext))
	}
	if !bytes.Equal(sealed[:constants.AEADNonceSize], nonce) {
		t.Fatalf("sealed does not lead with the nonce")
	}

	got, err := Open(key, sealed, ad)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open roundtrip = %q, want %q", got, plaintext)
	}
}

func TestOpenRejectsTamperedCiphertext(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	nonce := make([]byte, constants.AEADNonceSize)
	MustSecureRandom(nonce)

	sealed, err := Seal(key, nonce, []byte("secret"), nil)
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF

	if _, err := Open(key, sealed, nil); err == nil {
		t.Fatalf("Open succeeded on tampered ciphertext, want error")
	}
}

func TestOpenRejectsWrongAssociatedData(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	nonce := make([]byte, constants.AEADNonceSize)
	MustSecureRandom(nonce)

	sealed, err := Seal(key, nonce, []byte("secret"), []byte("ad-a"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, err := Open(key, sealed, []byte("ad-b")); err == nil {
		t.Fatalf("Open succeeded with mismatched associated data, want error")
	}
}

func TestSealRejectsWrongKeySize(t *testing.T) {
	nonce := make([]byte, constants.AEADNonceSize)
	if _, err := Seal(make([]byte, 16), nonce, []byte("x"), nil); err == nil {
		t.Fatalf("Seal accepted a short key, want error")
	}
}

func TestOpenRejectsTruncatedInput(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	if _, err := Open(key, []byte{1, 2, 3}, nil); err == nil {
		t.Fatalf("Open accepted truncated input, want error")
	}
}

func TestSealOpenPooledRoundTrip(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	plaintext := bytes.Repeat([]byte{0x7a}, constants.MaxChunkSize)
	ad := []byte("chunk-ad")

	sealed, err := SealPooled(key, plaintext, ad)
	if err != nil {
		t.Fatalf("SealPooled: %v", err)
	}
	if len(sealed) != constants.AEADNonceSize+constants.AEADTagSize+len(plaintext) {
		t.Fatalf("sealed length = %d, want %d", len(sealed), constants.AEADNonceSize+constants.AEADTagSize+len(plaintext))
	}

	got, err := OpenPooled(key, sealed, ad)
	if err != nil {
		t.Fatalf("OpenPooled: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("OpenPooled roundtrip mismatch for a full-size chunk")
	}
	PutChunkBuffer(got)
	PutChunkBuffer(sealed)
}

func TestSealPooledInteropWithOpen(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	plaintext := []byte("pooled seal, plain open")

	sealed, err := SealPooled(key, plaintext, nil)
	if err != nil {
		t.Fatalf("SealPooled: %v", err)
	}
	got, err := Open(key, sealed, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if !bytes.Equal(got, plaintext) {
		t.Fatalf("Open(SealPooled(...)) = %q, want %q", got, plaintext)
	}
	PutChunkBuffer(sealed)
}

func TestOpenPooledRejectsTamperedCiphertext(t *testing.T) {
	key := make([]byte, constants.AEADKeySize)
	MustSecureRandom(key)
	sealed, err := SealPooled(key, []byte("secret chunk"), nil)
	if err != nil {
		t.Fatalf("SealPooled: %v", err)
	}
	sealed[len(sealed)-1] ^= 0xFF

	if _, err := OpenPooled(key, sealed, nil); err == nil {
		t.Fatalf("OpenPooled succeeded on tampered ciphertext, want error")
	}
	PutChunkBuffer(sealed)
}
