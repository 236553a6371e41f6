// Package identity manages the peer's persistent Ed25519 keypair.
package identity

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/libp2p/go-libp2p/core/crypto"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("identity")

// LoadOrCreate loads the persistent identity key at keyFile, generating
// and saving a new Ed25519 key on first run. The libp2p host derives its
// PeerID from the returned key, so a peer's address is stable across
// restarts.
func LoadOrCreate(keyFile string) (crypto.PrivKey, error) {
	if data, err := os.ReadFile(keyFile); err == nil {
		priv, err := crypto.UnmarshalPrivateKey(data)
		if err == nil {
			return priv, nil
		}
		log.Warnw("corrupt identity key, generating a new one", "path", keyFile, "error", err)
	}

	priv, _, err := crypto.GenerateEd25519Key(nil)
	if err != nil {
		return nil, fmt.Errorf("generate identity key: %w", err)
	}

	raw, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal identity key: %w", err)
	}

	if dir := filepath.Dir(keyFile); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create identity key directory: %w", err)
		}
	}
	if err := os.WriteFile(keyFile, raw, 0o600); err != nil {
		return nil, fmt.Errorf("save identity key: %w", err)
	}

	log.Infow("generated new identity key", "path", keyFile)
	return priv, nil
}
