package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/b0ase/path402/apps/mintpanel/internal/config"
	"github.com/b0ase/path402/apps/mintpanel/internal/db"
	"github.com/b0ase/path402/apps/mintpanel/internal/nft"
	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
	"github.com/b0ase/path402/apps/mintpanel/internal/server"
	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

const (
	dialTimeout   = 10 * time.Second
	detectTimeout = 30 * time.Second
)

// Daemon orchestrates all MintPanel subsystems.
type Daemon struct {
	cfg       *config.Config
	nodeID    string
	startTime time.Time
	rpc       *wallet.RPCProvider
	keyWallet *wallet.Wallet
	provider  wallet.Provider
	contract  *nft.EpicNFT
	panel     *panel.Panel
	httpSrv   *server.Server
	port      int
	stopCh    chan struct{}
}

// New creates a new daemon instance.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg.Contract.Address != "" && !common.IsHexAddress(cfg.Contract.Address) {
		return nil, fmt.Errorf("invalid contract address %q", cfg.Contract.Address)
	}
	return &Daemon{cfg: cfg, stopCh: make(chan struct{})}, nil
}

// Start initializes and starts all subsystems in order.
func (d *Daemon) Start() error {
	d.startTime = time.Now()

	// 1. Open database
	if err := os.MkdirAll(d.cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	if err := db.Open(d.cfg.DBPath()); err != nil {
		return fmt.Errorf("db open: %w", err)
	}

	// 2. Get/set node ID
	nodeID, err := db.GetNodeID()
	if err != nil {
		return fmt.Errorf("get node id: %w", err)
	}
	d.nodeID = nodeID
	log.Printf("[daemon] Node ID: %s", nodeID[:16])

	// 3. Wallet provider
	//    RPC endpoint → provider (endpoint signs) and contract transport
	//    Key (config/env) → local signer, RPC only reports the chain
	ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
	rpcProv, err := wallet.Dial(ctx, d.cfg.Wallet.RPCURL)
	cancel()
	if err != nil {
		log.Printf("[wallet] No RPC endpoint: %v", err)
	} else {
		d.rpc = rpcProv
		d.provider = rpcProv
		log.Printf("[wallet] RPC endpoint: %s", d.cfg.Wallet.RPCURL)
	}

	if d.cfg.Wallet.Key != "" {
		w, err := wallet.Load(d.cfg.Wallet.Key)
		if err != nil {
			log.Printf("[wallet] Key load failed: %v (continuing with RPC signing)", err)
		} else {
			d.keyWallet = w
			var chain wallet.ChainReader
			if d.rpc != nil {
				chain = d.rpc
			}
			d.provider = wallet.NewKeyProvider(w, db.AuthStore{}, chain)
			log.Printf("[wallet] Loaded signing key: %s", w.Address.Hex())
		}
	}

	// 4. Contract binding
	if d.rpc != nil && d.cfg.Contract.Address != "" {
		c, err := nft.New(d.rpc.Client(), common.HexToAddress(d.cfg.Contract.Address), nft.Options{
			Signer:       d.keyWallet,
			PollInterval: d.cfg.Contract.PollInterval,
		})
		if err != nil {
			log.Printf("[nft] WARNING: Contract binding failed: %v", err)
		} else {
			d.contract = c
			log.Printf("[nft] Bound collection at %s", c.Address().Hex())
		}
	}

	// 5. Panel
	deps := panel.Deps{Journal: db.Journal{}}
	if d.provider != nil {
		deps.Provider = d.provider
	}
	if d.contract != nil {
		deps.Contract = d.contract
	}
	d.panel = panel.New(PanelConfig(d.cfg), deps)
	d.panel.Start()

	ctx, cancel = context.WithTimeout(context.Background(), detectTimeout)
	d.panel.Detect(ctx)
	cancel()

	// 6. Start periodic status logging
	go d.statusLoop()

	// 7. Start HTTP API
	d.httpSrv = server.New(d.cfg.API.Bind, d.cfg.API.Port, d, d.panel)
	if port, err := d.httpSrv.Start(); err != nil {
		log.Printf("[daemon] WARNING: HTTP API failed to start: %v (panel continues)", err)
	} else {
		d.port = port
		log.Printf("[daemon] HTTP API on port %d", port)
	}

	log.Println("[daemon] All systems online")
	return nil
}

// PanelConfig maps the daemon config onto the panel's constants.
func PanelConfig(cfg *config.Config) panel.Config {
	return panel.Config{
		ExpectedChainID:      cfg.Wallet.ExpectedChainID,
		NetworkName:          cfg.Wallet.NetworkName,
		TotalMintCount:       cfg.Contract.TotalMintCount,
		ToastDuration:        cfg.Panel.ToastDuration,
		FailureToastDuration: cfg.Panel.FailureToastDuration,
		ExplorerURL:          cfg.Contract.ExplorerURL,
		Links: panel.Links{
			TwitterHandle: cfg.Links.TwitterHandle,
			TwitterURL:    cfg.Links.TwitterURL(),
			OpenSeaURL:    cfg.Links.OpenSeaURL,
		},
	}
}

func (d *Daemon) statusLoop() {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-d.stopCh:
			return
		case <-ticker.C:
			attempts, _ := db.CountMintAttempts()
			events, _ := db.CountMintEvents()
			s := d.panel.Snapshot()
			account := s.Account
			if account == "" {
				account = "none"
			}
			log.Printf("[daemon] Account: %s | Minted: %d/%d | Phase: %s | Attempts: %d mined, %d failed | Events: %d",
				account, s.MintCount, d.cfg.Contract.TotalMintCount, s.Phase,
				attempts[db.MintMined], attempts[db.MintFailed], events)
		}
	}
}

// Stop shuts down all subsystems.
func (d *Daemon) Stop() {
	log.Println("[daemon] Shutting down...")
	close(d.stopCh)

	if d.httpSrv != nil {
		d.httpSrv.Stop()
	}
	if d.panel != nil {
		d.panel.Stop()
	}
	if d.rpc != nil {
		d.rpc.Close()
	}
	db.Close()

	log.Println("[daemon] Shutdown complete")
}

// --- Status accessors (used by HTTP API and MCP) ---

func (d *Daemon) NodeID() string        { return d.nodeID }
func (d *Daemon) Uptime() time.Duration { return time.Since(d.startTime) }
func (d *Daemon) Port() int             { return d.port }
func (d *Daemon) Panel() *panel.Panel   { return d.panel }

func (d *Daemon) WalletStatus() map[string]interface{} {
	result := map[string]interface{}{
		"provider":          d.provider != nil,
		"rpc_url":           d.cfg.Wallet.RPCURL,
		"expected_chain_id": d.cfg.Wallet.ExpectedChainID,
		"network":           d.cfg.Wallet.NetworkName,
	}
	switch {
	case d.keyWallet != nil:
		result["mode"] = "key"
		result["address"] = d.keyWallet.Address.Hex()
	case d.rpc != nil:
		result["mode"] = "rpc"
	default:
		result["mode"] = "none"
	}
	return result
}

func (d *Daemon) ContractStatus() map[string]interface{} {
	return map[string]interface{}{
		"address":          d.cfg.Contract.Address,
		"bound":            d.contract != nil,
		"total_mint_count": d.cfg.Contract.TotalMintCount,
		"explorer_url":     d.cfg.Contract.ExplorerURL,
	}
}

// RecentMints returns the latest journaled mint attempts.
func (d *Daemon) RecentMints(limit int) ([]db.MintAttempt, error) {
	return db.GetRecentMintAttempts(limit, 0)
}

// RecentEvents returns the latest observed minted events.
func (d *Daemon) RecentEvents(limit int) ([]db.MintEvent, error) {
	return db.GetRecentMintEvents(limit)
}
