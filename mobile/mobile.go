// Package mobile provides gomobile-bindable functions for the MintPanel daemon.
// All complex data is returned as JSON strings since gomobile cannot export
// maps, slices, or structs with unexported fields.
package mobile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/b0ase/path402/apps/mintpanel/internal/config"
	"github.com/b0ase/path402/apps/mintpanel/internal/daemon"

	// Required by gomobile bind at build time
	_ "golang.org/x/mobile/bind"
)

const connectTimeout = 2 * time.Minute

var (
	mu      sync.Mutex
	d       *daemon.Daemon
	running bool
	apiPort int
	version = "0.1.0"
)

// Start initialises and starts the MintPanel daemon.
// configYAML may be empty to use defaults. dataDir is the path to the app's
// private files directory (e.g. Context.getFilesDir() + "/mintpanel").
func Start(configYAML string, dataDir string) error {
	mu.Lock()
	defer mu.Unlock()

	if running {
		return fmt.Errorf("already running")
	}

	cfg, err := config.LoadFromBytes([]byte(configYAML))
	if err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	d, err = daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	if err := d.Start(); err != nil {
		d.Stop()
		d = nil
		return fmt.Errorf("start daemon: %w", err)
	}

	apiPort = d.Port()
	running = true
	return nil
}

// Stop gracefully shuts down the daemon.
func Stop() {
	mu.Lock()
	defer mu.Unlock()

	if d != nil {
		d.Stop()
		d = nil
	}
	running = false
	apiPort = 0
}

// IsRunning returns true if the daemon is currently running.
func IsRunning() bool {
	mu.Lock()
	defer mu.Unlock()
	return running
}

// GetStatus returns full daemon status as a JSON string.
func GetStatus() string {
	mu.Lock()
	defer mu.Unlock()

	if d == nil {
		return `{"running":false}`
	}

	status := map[string]interface{}{
		"running":   true,
		"node_id":   d.NodeID(),
		"uptime_ms": d.Uptime().Milliseconds(),
		"wallet":    d.WalletStatus(),
		"contract":  d.ContractStatus(),
		"panel":     d.Panel().View(),
	}

	data, _ := json.Marshal(status)
	return string(data)
}

// GetPanel returns the rendered panel as a JSON string.
func GetPanel() string {
	mu.Lock()
	defer mu.Unlock()

	if d == nil {
		return `{"error":"daemon not running"}`
	}
	data, _ := json.Marshal(d.Panel().View())
	return string(data)
}

// Connect requests wallet access and returns the panel.
// Returns JSON: {"account":"...",...} or {"error":"..."}.
func Connect() string {
	dm := current()
	if dm == nil {
		return `{"error":"daemon not running"}`
	}
	// The wallet prompt can take minutes; mu stays free so status calls
	// keep answering meanwhile.
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := dm.Panel().Connect(ctx); err != nil {
		return errorJSON(err)
	}
	data, _ := json.Marshal(dm.Panel().View())
	return string(data)
}

// Mint submits a mint in the background and returns the panel in its
// mining phase. Poll GetPanel for the outcome.
func Mint() string {
	dm := current()
	if dm == nil {
		return `{"error":"daemon not running"}`
	}
	if err := dm.Panel().MintAsync(); err != nil {
		return errorJSON(err)
	}
	data, _ := json.Marshal(dm.Panel().View())
	return string(data)
}

// AckAlerts dismisses queued warnings.
// Returns JSON: {"acknowledged":N} or {"error":"..."}.
func AckAlerts() string {
	mu.Lock()
	defer mu.Unlock()

	if d == nil {
		return `{"error":"daemon not running"}`
	}
	data, _ := json.Marshal(map[string]int{"acknowledged": d.Panel().AckAlerts()})
	return string(data)
}

// GetMints returns recent mint attempts as a JSON array.
func GetMints(limit int) string {
	mu.Lock()
	defer mu.Unlock()

	if d == nil {
		return `[]`
	}
	mints, err := d.RecentMints(clampLimit(limit))
	if err != nil || len(mints) == 0 {
		return `[]`
	}
	data, _ := json.Marshal(mints)
	return string(data)
}

// GetEvents returns recently observed minted events as a JSON array.
func GetEvents(limit int) string {
	mu.Lock()
	defer mu.Unlock()

	if d == nil {
		return `[]`
	}
	events, err := d.RecentEvents(clampLimit(limit))
	if err != nil || len(events) == 0 {
		return `[]`
	}
	data, _ := json.Marshal(events)
	return string(data)
}

// GetAPIPort returns the port the HTTP API is listening on.
func GetAPIPort() int {
	mu.Lock()
	defer mu.Unlock()
	return apiPort
}

// GetVersion returns the MintPanel version string.
func GetVersion() string {
	return version
}

// current returns the daemon without holding mu past the read.
func current() *daemon.Daemon {
	mu.Lock()
	defer mu.Unlock()
	return d
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 5
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func errorJSON(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}
