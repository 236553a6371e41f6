package playlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/meshwatch/meshwatch/internal/model"
)

func TestStoreSaveAndRestore(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir)

	h := NewHandler()
	h.Replace(videos("a", "b", "c"))
	h.Select(model.NewFileVideo("b"))

	if err := store.Save(context.Background(), "room1", h); err != nil {
		t.Fatalf("save: %v", err)
	}

	pl, playing, ok := store.Restore("room1")
	if !ok {
		t.Fatal("expected a restored playlist")
	}
	if len(pl) != 3 || pl[1].Name() != "b" {
		t.Fatalf("unexpected restored playlist: %+v", pl)
	}
	if playing != 1 {
		t.Fatalf("expected playing index 1, got %d", playing)
	}
}

func TestRestorePicksGreatestTimestamp(t *testing.T) {
	dir := t.TempDir()
	roomDir := filepath.Join(dir, "playlist", "room1")
	if err := os.MkdirAll(roomDir, 0o755); err != nil {
		t.Fatal(err)
	}

	older := "2020-01-01_000000.yaml"
	newer := "2030-01-01_000000.yaml"
	if err := os.WriteFile(filepath.Join(roomDir, older), []byte("playing: 0\nplaylist:\n  - file: old.mkv\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(roomDir, newer), []byte("playing: 0\nplaylist:\n  - file: new.mkv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir)
	pl, _, ok := store.Restore("room1")
	if !ok {
		t.Fatal("expected a restored playlist")
	}
	if pl[0].Name() != "new.mkv" {
		t.Fatalf("expected the lexicographically greatest timestamp to win, got %q", pl[0].Name())
	}
}

func TestRestoreSkipsMalformedFiles(t *testing.T) {
	dir := t.TempDir()
	roomDir := filepath.Join(dir, "playlist", "room1")
	if err := os.MkdirAll(roomDir, 0o755); err != nil {
		t.Fatal(err)
	}

	bad := "2030-01-01_000000.yaml"
	good := "2020-01-01_000000.yaml"
	if err := os.WriteFile(filepath.Join(roomDir, bad), []byte("not: [valid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(roomDir, good), []byte("playing: 0\nplaylist:\n  - file: ok.mkv\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(dir)
	pl, _, ok := store.Restore("room1")
	if !ok {
		t.Fatal("expected to fall back to the next-best file")
	}
	if pl[0].Name() != "ok.mkv" {
		t.Fatalf("expected fallback to the well-formed file, got %q", pl[0].Name())
	}
}

func TestRestoreMissingRoomReturnsFalse(t *testing.T) {
	store := NewStore(t.TempDir())
	if _, _, ok := store.Restore("never-existed"); ok {
		t.Fatal("expected no snapshot for a room with no saved playlists")
	}
}
