package identity

import (
	"bytes"
	"os"
	"testing"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Save(dir, id); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !bytes.Equal(loaded.SerializePublic(), id.SerializePublic()) {
		t.Fatalf("loaded identity's public key does not match the saved one")
	}

	origKey, err := id.MasterKey()
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	loadedKey, err := loaded.MasterKey()
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	if origKey != loadedKey {
		t.Fatalf("master key changed across save/load")
	}
}

func TestSaveCreatesRestrictivePermissions(t *testing.T) {
	dir := t.TempDir()
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Save(dir, id); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(dir + "/identity")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("identity file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestLoadRejectsTamperedBundle(t *testing.T) {
	dir := t.TempDir()
	id, err := Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := Save(dir, id); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := dir + "/identity"
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatalf("Load succeeded on a tampered bundle, want error")
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(dir); err == nil {
		t.Fatalf("Load succeeded with no identity file present, want error")
	}
}
