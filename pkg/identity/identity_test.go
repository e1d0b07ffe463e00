package identity

import (
	"bytes"
	"testing"

	"github.com/pzverkov/zault/internal/constants"
)

func TestGenerateProducesConsistentIdentity(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	pub := id.SerializePublic()
	if len(pub) != constants.IdentityPublicSize {
		t.Fatalf("len(pub) = %d, want %d", len(pub), constants.IdentityPublicSize)
	}
}

func TestFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}

	a, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	b, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}

	if !bytes.Equal(a.SerializePublic(), b.SerializePublic()) {
		t.Fatalf("FromSeed is not deterministic: two calls with the same seed produced different public keys")
	}
}

func TestFromSeedDifferentSeedsDiffer(t *testing.T) {
	seedA := make([]byte, 32)
	seedB := make([]byte, 32)
	seedB[0] = 1

	a, err := FromSeed(seedA)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	b, err := FromSeed(seedB)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	if bytes.Equal(a.SerializePublic(), b.SerializePublic()) {
		t.Fatalf("two different seeds produced the same identity")
	}
}

func TestFromSeedRejectsWrongLength(t *testing.T) {
	if _, err := FromSeed(make([]byte, 16)); err == nil {
		t.Fatalf("FromSeed accepted a 16-byte seed, want error")
	}
}

func TestMasterKeyDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	id, err := FromSeed(seed)
	if err != nil {
		t.Fatalf("FromSeed: %v", err)
	}
	k1, err := id.MasterKey()
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	k2, err := id.MasterKey()
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	if k1 != k2 {
		t.Fatalf("MasterKey is not stable across calls")
	}
}

func TestParsePublicKeysRoundTrip(t *testing.T) {
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	pub := id.SerializePublic()

	dsaPk, kemPk, err := ParsePublicKeys(pub)
	if err != nil {
		t.Fatalf("ParsePublicKeys: %v", err)
	}
	if !bytes.Equal(dsaPk.Bytes(), id.DSA.Public.Bytes()) {
		t.Fatalf("parsed DSA public key does not match original")
	}
	if !bytes.Equal(kemPk.Bytes(), id.KEM.Public.Bytes()) {
		t.Fatalf("parsed KEM public key does not match original")
	}
}

func TestParsePublicKeysRejectsWrongLength(t *testing.T) {
	if _, _, err := ParsePublicKeys(make([]byte, 10)); err == nil {
		t.Fatalf("ParsePublicKeys accepted malformed input, want error")
	}
}
