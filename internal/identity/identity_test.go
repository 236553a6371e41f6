package identity

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOrCreatePersistsAcrossCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.key")

	first, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("first load: %v", err)
	}

	second, err := LoadOrCreate(path)
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	firstID, err := first.GetPublic().Raw()
	if err != nil {
		t.Fatalf("first public key: %v", err)
	}
	secondID, err := second.GetPublic().Raw()
	if err != nil {
		t.Fatalf("second public key: %v", err)
	}
	if string(firstID) != string(secondID) {
		t.Fatal("expected the same key to be loaded on the second call")
	}
}

func TestLoadOrCreateRecoversFromCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.key")
	if err := os.WriteFile(path, []byte("not a valid key"), 0o600); err != nil {
		t.Fatalf("seed corrupt file: %v", err)
	}

	if _, err := LoadOrCreate(path); err != nil {
		t.Fatalf("expected recovery from a corrupt key file, got: %v", err)
	}
}
