package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefaultHasBootstrapRelay(t *testing.T) {
	cfg := Default()
	if cfg.Relay != bootstrapRelay {
		t.Fatalf("expected baked-in bootstrap relay, got %q", cfg.Relay)
	}
	if cfg.AutoConnect {
		t.Fatal("expected auto_connect to default to false")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := Config{
		Username:    "alice",
		MediaDirs:   []string{"/media/movies", "/media/shows"},
		Relay:       "/ip4/1.2.3.4/udp/7766/quic-v1/p2p/abc",
		Room:        "movie-night",
		Password:    "hunter2",
		AutoConnect: true,
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(loaded, cfg) {
		t.Fatalf("round-trip mismatch:\nwant %+v\ngot  %+v", cfg, loaded)
	}
}

func TestLoadOrDefaultFallsBackOnMissingFile(t *testing.T) {
	cfg := LoadOrDefault(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if cfg.Relay != bootstrapRelay {
		t.Fatalf("expected defaults for a missing config file, got %+v", cfg)
	}
}
