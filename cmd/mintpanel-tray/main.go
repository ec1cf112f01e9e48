package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/getlantern/systray"

	"github.com/b0ase/path402/apps/mintpanel/internal/config"
	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

var Version = "0.1.0"

const pollInterval = 3 * time.Second

type trayApp struct {
	mu         sync.Mutex
	daemonCmd  *exec.Cmd
	ownsDaemon bool
	configPath string

	// candidates are the API addresses the daemon may listen on; base is
	// the one that last answered /health.
	candidates []string
	baseMu     sync.Mutex
	base       string

	// Header
	mTitle  *systray.MenuItem
	mUptime *systray.MenuItem

	// Wallet section
	mWalletHeader *systray.MenuItem
	mAccount      *systray.MenuItem
	mChain        *systray.MenuItem
	mCopyAddr     *systray.MenuItem

	// Collection section
	mCollHeader *systray.MenuItem
	mMinted     *systray.MenuItem
	mPhase      *systray.MenuItem
	mLastTx     *systray.MenuItem

	// Recent mints
	mMintsHeader *systray.MenuItem
	mMint1       *systray.MenuItem
	mMint2       *systray.MenuItem
	mMint3       *systray.MenuItem

	// Actions
	mConnect   *systray.MenuItem
	mMint      *systray.MenuItem
	mDashboard *systray.MenuItem
	mOpenSea   *systray.MenuItem
	mQuit      *systray.MenuItem
}

type fullStatus struct {
	NodeID   string `json:"node_id"`
	UptimeMs int64  `json:"uptime_ms"`
}

type mintEvent struct {
	TxHash      string `json:"tx_hash"`
	FromAddress string `json:"from_address"`
	TokenID     string `json:"token_id"`
	BlockNumber uint64 `json:"block_number"`
	ObservedAt  int64  `json:"observed_at"`
}

func main() {
	app := &trayApp{}

	for i, arg := range os.Args[1:] {
		if arg == "-config" && i+1 < len(os.Args)-1 {
			app.configPath = os.Args[i+2]
		}
	}

	app.candidates = apiCandidates(app.configPath)
	systray.Run(app.onReady, app.onExit)
}

func apiCandidates(path string) []string {
	if path == "" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, ".mintpanel", "mintpanel.yaml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Printf("[tray] Config load failed: %v (using defaults)", err)
		cfg = config.DefaultConfig()
	}
	return cfg.APIURLs()
}

func (a *trayApp) onReady() {
	systray.SetIcon(iconData)
	systray.SetTooltip("MintPanel v" + Version)

	// ── Header ──────────────────────────────────
	a.mTitle = systray.AddMenuItem(panel.Title+"  v"+Version, "")
	a.mTitle.Disable()
	a.mUptime = systray.AddMenuItem("     ⏱ Uptime: starting...", "")
	a.mUptime.Disable()

	systray.AddSeparator()

	// ── Wallet ──────────────────────────────────
	a.mWalletHeader = systray.AddMenuItem("💰 WALLET", "")
	a.mWalletHeader.Disable()
	a.mAccount = systray.AddMenuItem("     🔑 Account: --", "")
	a.mAccount.Disable()
	a.mChain = systray.AddMenuItem("     🌐 Chain: --", "")
	a.mChain.Disable()
	a.mCopyAddr = systray.AddMenuItem("     📋 Copy Address", "Copy the connected account to clipboard")

	systray.AddSeparator()

	// ── Collection ──────────────────────────────
	a.mCollHeader = systray.AddMenuItem("🖼  COLLECTION", "")
	a.mCollHeader.Disable()
	a.mMinted = systray.AddMenuItem("     🏆 Minted: --", "")
	a.mMinted.Disable()
	a.mPhase = systray.AddMenuItem("     ⏸ Idle", "")
	a.mPhase.Disable()
	a.mLastTx = systray.AddMenuItem("     🔗 Last tx: --", "Open the last transaction in the explorer")

	systray.AddSeparator()

	// ── Recent Mints ────────────────────────────
	a.mMintsHeader = systray.AddMenuItem("🧾 RECENT MINTS", "")
	a.mMintsHeader.Disable()
	a.mMint1 = systray.AddMenuItem("     --", "")
	a.mMint1.Disable()
	a.mMint2 = systray.AddMenuItem("     --", "")
	a.mMint2.Disable()
	a.mMint3 = systray.AddMenuItem("     --", "")
	a.mMint3.Disable()

	systray.AddSeparator()

	// ── Actions ─────────────────────────────────
	a.mConnect = systray.AddMenuItem("🔌 Connect to Wallet", "Request wallet account access")
	a.mMint = systray.AddMenuItem("⛏  Mint NFT", "Submit a mint transaction")
	a.mMint.Hide()
	a.mDashboard = systray.AddMenuItem("🖥  Open Panel", "Open the mint panel in browser")
	a.mOpenSea = systray.AddMenuItem("🌊 View Collection on OpenSea", "")

	systray.AddSeparator()

	a.mQuit = systray.AddMenuItem("Quit MintPanel", "Stop daemon and quit")

	// Start daemon if not already running
	if !a.isDaemonRunning() {
		a.startDaemon()
	}

	go a.pollLoop()
	go a.handleClicks()
}

func (a *trayApp) onExit() {
	a.stopDaemon()
}

func (a *trayApp) baseURL() string {
	a.baseMu.Lock()
	defer a.baseMu.Unlock()
	if a.base == "" {
		return a.candidates[0]
	}
	return a.base
}

// isDaemonRunning checks every candidate address and remembers the first
// healthy one.
func (a *trayApp) isDaemonRunning() bool {
	client := &http.Client{Timeout: 2 * time.Second}
	for _, base := range a.candidates {
		resp, err := client.Get(base + "/health")
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == 200 {
			a.baseMu.Lock()
			a.base = base
			a.baseMu.Unlock()
			return true
		}
	}
	return false
}

func (a *trayApp) startDaemon() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.daemonCmd != nil {
		return
	}

	binaryPath := "mintpaneld"
	if exe, err := os.Executable(); err == nil {
		dir := exe[:strings.LastIndex(exe, "/")+1]
		candidate := dir + "mintpaneld"
		if _, err := os.Stat(candidate); err == nil {
			binaryPath = candidate
		}
	}

	args := []string{}
	if a.configPath != "" {
		args = append(args, "-config", a.configPath)
	}

	a.daemonCmd = exec.Command(binaryPath, args...)
	a.daemonCmd.Stdout = os.Stdout
	a.daemonCmd.Stderr = os.Stderr
	a.daemonCmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := a.daemonCmd.Start(); err != nil {
		log.Printf("[tray] Failed to start daemon: %v", err)
		a.daemonCmd = nil
		return
	}

	a.ownsDaemon = true
	log.Printf("[tray] Started daemon (PID %d)", a.daemonCmd.Process.Pid)

	go func() {
		if err := a.daemonCmd.Wait(); err != nil {
			log.Printf("[tray] Daemon exited: %v", err)
		}
		a.mu.Lock()
		a.daemonCmd = nil
		a.ownsDaemon = false
		a.mu.Unlock()
	}()

	for i := 0; i < 30; i++ {
		time.Sleep(500 * time.Millisecond)
		if a.isDaemonRunning() {
			log.Println("[tray] Daemon is ready")
			return
		}
	}
	log.Println("[tray] WARNING: Daemon did not become ready within 15s")
}

func (a *trayApp) stopDaemon() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.daemonCmd == nil || !a.ownsDaemon {
		return
	}

	log.Println("[tray] Stopping daemon...")
	a.daemonCmd.Process.Signal(syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		a.daemonCmd.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[tray] Daemon stopped cleanly")
	case <-time.After(5 * time.Second):
		log.Println("[tray] Daemon did not stop, sending SIGKILL")
		a.daemonCmd.Process.Kill()
	}
	a.daemonCmd = nil
}

func (a *trayApp) pollLoop() {
	a.updateStatus()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			a.updateStatus()
		case <-sigCh:
			systray.Quit()
			return
		}
	}
}

func (a *trayApp) updateStatus() {
	v := fetchPanel(a.baseURL())
	if v == nil && a.isDaemonRunning() {
		v = fetchPanel(a.baseURL())
	}
	if v == nil {
		a.mAccount.SetTitle("     🔑 Account: --")
		a.mChain.SetTitle("     🌐 Chain: --")
		a.mMinted.SetTitle("     🏆 Minted: --")
		a.mPhase.SetTitle("     🔶 Daemon Offline")
		a.mLastTx.SetTitle("     🔗 Last tx: --")
		a.mUptime.SetTitle("     ⏱ Uptime: offline")
		a.mConnect.Disable()
		a.mMint.Disable()
		systray.SetTooltip("MintPanel - Offline")
		return
	}

	// Wallet
	if v.Account == "" {
		a.mAccount.SetTitle("     🔑 Account: not connected")
	} else {
		a.mAccount.SetTitle(fmt.Sprintf("     🔑 %s", shortAddr(v.Account)))
	}
	switch {
	case v.ChainID == "":
		a.mChain.SetTitle("     🌐 Chain: --")
	case v.WrongNetwork:
		a.mChain.SetTitle(fmt.Sprintf("     ⚠️ Chain %s (wrong network)", v.ChainID))
	default:
		a.mChain.SetTitle(fmt.Sprintf("     🌐 Chain %s", v.ChainID))
	}

	// Collection
	a.mMinted.SetTitle(fmt.Sprintf("     🏆 %s", v.Counter))
	switch v.Phase {
	case panel.PhaseMining:
		a.mPhase.SetTitle("     🟠 Mining...please wait.")
	case panel.PhaseMined:
		a.mPhase.SetTitle("     ✅ Mined")
	default:
		a.mPhase.SetTitle("     ⏸ Idle")
	}
	if v.LastTx != "" {
		a.mLastTx.SetTitle(fmt.Sprintf("     🔗 %s", shortAddr(v.LastTx)))
	}

	// Actions follow the render policy: exactly one of connect or mint.
	if v.ShowConnect {
		a.mConnect.Show()
		a.mConnect.Enable()
		a.mMint.Hide()
	} else {
		a.mConnect.Hide()
		a.mMint.Show()
		if v.ShowLoading {
			a.mMint.Disable()
		} else {
			a.mMint.Enable()
		}
	}
	if v.Links.OpenSeaURL == "" {
		a.mOpenSea.Disable()
	}

	if status := fetchFullStatus(a.baseURL()); status != nil {
		a.mUptime.SetTitle(fmt.Sprintf("     ⏱ %s", formatUptime(status.UptimeMs)))
	}

	a.updateRecentMints()

	systray.SetTooltip(fmt.Sprintf("MintPanel - %d/%d minted | %s", v.MintCount, v.TotalMintCount, v.Phase))
}

func (a *trayApp) updateRecentMints() {
	events := fetchRecentMints(a.baseURL())
	items := []*systray.MenuItem{a.mMint1, a.mMint2, a.mMint3}

	for i, item := range items {
		if i < len(events) {
			e := events[i]
			item.SetTitle(fmt.Sprintf("     🟧 #%s  %s  %s", e.TokenID, shortAddr(e.FromAddress), formatTimeAgo(e.ObservedAt)))
		} else {
			item.SetTitle("     --")
		}
	}
}

func fetchPanel(base string) *panel.View {
	data, err := fetchJSON(base + "/api/panel")
	if err != nil {
		return nil
	}
	var v panel.View
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return &v
}

func fetchFullStatus(base string) *fullStatus {
	data, err := fetchJSON(base + "/status")
	if err != nil {
		return nil
	}
	var fs fullStatus
	if err := json.Unmarshal(data, &fs); err != nil {
		return nil
	}
	return &fs
}

func fetchRecentMints(base string) []mintEvent {
	data, err := fetchJSON(base + "/api/events?limit=3")
	if err != nil {
		return nil
	}
	var events []mintEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil
	}
	return events
}

func fetchJSON(url string) ([]byte, error) {
	client := &http.Client{Timeout: 3 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// post fires an action endpoint. Connect waits on the wallet, so no short timeout.
func post(base, path string) error {
	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Post(base+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("%s: %s %s", path, resp.Status, e.Error)
	}
	return nil
}

func shortAddr(s string) string {
	if len(s) > 16 {
		return s[:8] + "…" + s[len(s)-6:]
	}
	return s
}

func formatUptime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60

	if hours >= 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh %dm", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}

func formatTimeAgo(ts int64) string {
	ago := time.Since(time.UnixMilli(ts))
	switch {
	case ago < time.Minute:
		return "just now"
	case ago < time.Hour:
		return fmt.Sprintf("%dm ago", int(ago.Minutes()))
	case ago < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(ago.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(ago.Hours()/24))
	}
}

func (a *trayApp) handleClicks() {
	for {
		select {
		case <-a.mConnect.ClickedCh:
			go func() {
				if err := post(a.baseURL(), "/api/connect"); err != nil {
					log.Printf("[tray] Connect failed: %v", err)
				}
				a.updateStatus()
			}()

		case <-a.mMint.ClickedCh:
			a.mMint.Disable()
			go func() {
				if err := post(a.baseURL(), "/api/mint"); err != nil {
					log.Printf("[tray] Mint failed: %v", err)
				}
				a.updateStatus()
			}()

		case <-a.mLastTx.ClickedCh:
			if v := fetchPanel(a.baseURL()); v != nil && v.TxURL != "" {
				openBrowser(v.TxURL)
			}

		case <-a.mCopyAddr.ClickedCh:
			if v := fetchPanel(a.baseURL()); v != nil && v.Account != "" {
				copyToClipboard(v.Account)
			}

		case <-a.mDashboard.ClickedCh:
			openBrowser(a.baseURL())

		case <-a.mOpenSea.ClickedCh:
			if v := fetchPanel(a.baseURL()); v != nil && v.Links.OpenSeaURL != "" {
				openBrowser(v.Links.OpenSeaURL)
			}

		case <-a.mQuit.ClickedCh:
			systray.Quit()
			return
		}
	}
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	default:
		cmd = exec.Command("open", url)
	}
	cmd.Start()
}

func copyToClipboard(text string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("pbcopy")
	case "linux":
		cmd = exec.Command("xclip", "-selection", "clipboard")
	default:
		return
	}
	cmd.Stdin = strings.NewReader(text)
	cmd.Run()
}
