package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/b0ase/path402/apps/mintpanel/internal/config"
	"github.com/b0ase/path402/apps/mintpanel/internal/daemon"
	"github.com/b0ase/path402/apps/mintpanel/internal/mcpserver"
)

var Version = "0.1.0"

func main() {
	cfgPath := flag.String("config", "", "path to mintpanel.yaml")
	mcpMode := flag.Bool("mcp", false, "serve MCP tools on stdio instead of waiting for signals")
	flag.Parse()

	// stdout is the MCP transport in -mcp mode
	var out io.Writer = os.Stdout
	if *mcpMode {
		out = os.Stderr
	}
	log.SetOutput(os.Stderr)

	// ANSI orange: \033[38;5;208m  Reset: \033[0m
	orange := "\033[38;5;208m"
	reset := "\033[0m"
	dim := "\033[2m"

	fmt.Fprintf(out, orange+`
     __  __ _       _   ____                  _
    |  \/  (_)_ __ | |_|  _ \ __ _ _ __   ___| |
    | |\/| | | '_ \| __| |_) / _`+"`"+` | '_ \ / _ \ |
    | |  | | | | | | |_|  __/ (_| | | | |  __/ |
    |_|  |_|_|_| |_|\__|_|   \__,_|_| |_|\___|_|
`+reset+`
  `+dim+`EpicNFT wallet mint panel  v%s`+reset+`
  `+orange+`━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━`+reset+`
`, Version)

	// Resolve config path
	if *cfgPath == "" {
		home, _ := os.UserHomeDir()
		*cfgPath = filepath.Join(home, ".mintpanel", "mintpanel.yaml")
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("[main] Failed to load config: %v", err)
	}

	log.Printf("[main] Data dir: %s", cfg.DataDir)

	d, err := daemon.New(cfg)
	if err != nil {
		log.Fatalf("[main] Failed to create daemon: %v", err)
	}

	if err := d.Start(); err != nil {
		log.Fatalf("[main] Failed to start daemon: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *mcpMode {
		log.Println("[mcp] Serving tools on stdio")
		srv := mcpserver.New(Version, d, d.Panel())
		if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[mcp] Session ended: %v", err)
		}
	} else {
		<-ctx.Done()
		log.Println("[main] Received signal, shutting down...")
	}

	d.Stop()
	log.Println("[main] Goodbye.")
}
