// Command peer runs one playback-sync participant: it loads (or seeds)
// local config and identity, joins or hosts a room through the
// configured relay, and runs the event loop until asked to exit.
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

	"github.com/meshwatch/meshwatch/internal/communicator"
	"github.com/meshwatch/meshwatch/internal/config"
	"github.com/meshwatch/meshwatch/internal/core"
	"github.com/meshwatch/meshwatch/internal/filedb"
	"github.com/meshwatch/meshwatch/internal/identity"
	"github.com/meshwatch/meshwatch/internal/player"
	"github.com/meshwatch/meshwatch/internal/playlist"
)

var log = logging.Logger("peer-main")

func main() {
	skipDBRefresh := flag.Bool("skip-database-refresh", false, "skip the initial media directory crawl")
	autoConnect := flag.Bool("auto-connect", false, "connect to the configured room immediately on startup")
	logLevelTerminal := flag.String("log-level-terminal", "info", "log level for terminal output")
	logLevelChat := flag.String("log-level-chat", "info", "chat log level, shown in the startup banner; not applied to any logger")
	configPath := flag.String("config", "", "override the default config.toml path")
	ui := flag.String("ui", "ratatui", "ui backend (iced, ratatui) — both resolve to the headless adapter")
	flag.Parse()

	if lvl, err := logging.LevelFromString(*logLevelTerminal); err == nil {
		logging.SetAllLoggers(lvl)
	}

	cfgPath := *configPath
	if cfgPath == "" {
		p, err := config.FilePath()
		if err != nil {
			log.Fatalw("determine config path", "error", err)
		}
		cfgPath = p
	}
	cfg := config.LoadOrDefault(cfgPath)

	baseDir := filepath.Dir(cfgPath)
	keyFile := filepath.Join(baseDir, "identity.key")
	dataDir := filepath.Join(baseDir, "data")

	priv, err := identity.LoadOrCreate(keyFile)
	if err != nil {
		log.Fatalw("load identity", "error", err)
	}

	h, err := communicator.NewPeerHost(priv, cfg.Relay)
	if err != nil {
		log.Fatalw("build peer host", "error", err)
	}
	defer h.Close()

	comm := communicator.NewLibp2p(h)
	defer comm.Close()

	db := filedb.New()
	for _, dir := range cfg.MediaDirs {
		db.AddPath(dir)
	}

	store := playlist.NewStore(dataDir)
	headless := core.NewHeadless()
	mp := player.NewNullPlayer()

	model := core.New(comm, mp, headless, db, store, cfg)
	model.RestorePlaylist()

	if !*skipDBRefresh {
		db.StartUpdate()
	}

	fmt.Printf("meshwatch peer — identity %s\n", h.ID())
	fmt.Printf("relay:    %s\n", cfg.Relay)
	fmt.Printf("room:     %s\n", cfg.Room)
	fmt.Printf("username: %s\n", cfg.Username)
	fmt.Printf("ui:       %s (headless)\n", *ui)
	fmt.Printf("chat log level: %s\n", *logLevelChat)
	fmt.Println("press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("shutting down")
		cancel()
	}()

	if *autoConnect && cfg.Room != "" {
		comm.Connect(model.Endpoint())
	}

	model.Run(ctx)
}
