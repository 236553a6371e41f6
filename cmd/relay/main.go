// Command relay runs the standalone admission server: it hands out room
// hosting to the first peer that asks for a room name and tells later
// arrivals who the host is, then gets out of the way — room traffic
// flows peer-to-peer over the relayed circuit it provides.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	logging "github.com/ipfs/go-log/v2"

	"github.com/meshwatch/meshwatch/internal/identity"
	"github.com/meshwatch/meshwatch/internal/relay"
)

var log = logging.Logger("relay-main")

func main() {
	port := flag.Int("port", 7766, "TCP/QUIC listen port")
	listenAddr := flag.String("listen-addr", "0.0.0.0", "listen address shown in the startup banner; the host always listens on all IPv4 and IPv6 interfaces")
	logLevel := flag.String("log-level", "info", "log level (debug, info, warn, error)")
	flag.Parse()

	logging.SetAllLoggers(logging.LevelInfo)
	if lvl, err := logging.LevelFromString(*logLevel); err == nil {
		logging.SetAllLoggers(lvl)
	}

	keyFile, err := keyFilePath()
	if err != nil {
		log.Fatalw("determine identity key path", "error", err)
	}
	priv, err := identity.LoadOrCreate(keyFile)
	if err != nil {
		log.Fatalw("load identity", "error", err)
	}

	h, err := relay.NewHost(priv, *port)
	if err != nil {
		log.Fatalw("build relay host", "error", err)
	}
	defer h.Close()

	r := relay.New(h)

	fmt.Printf("relay listening on port %d (%s), peer id %s\n", *port, *listenAddr, h.ID())
	for _, addr := range h.Addrs() {
		fmt.Printf("  %s/p2p/%s\n", addr, h.ID())
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	<-ctx.Done()
	log.Infow("relay stopped", "rooms_held_at_exit", r.RoomCount())
}

func keyFilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("determine config dir: %w", err)
	}
	return filepath.Join(dir, "meshwatch", "relay-identity.key"), nil
}
