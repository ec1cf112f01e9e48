// Package panel is the wallet mint panel controller: it detects or requests
// a wallet connection, listens for minted events to refresh the counter and
// submits mints, reflecting each step in State.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/event"

	"github.com/b0ase/path402/apps/mintpanel/internal/nft"
	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

// ErrNotConnected is returned by Mint before any account was adopted.
var ErrNotConnected = errors.New("wallet not connected")

var errNoContract = errors.New("no contract binding")

var errStopped = errors.New("panel stopped")

// queryTimeout bounds the counter refresh after a minted event.
const queryTimeout = 30 * time.Second

// Config holds the panel constants.
type Config struct {
	ExpectedChainID      string
	NetworkName          string
	TotalMintCount       uint64
	ToastDuration        time.Duration
	FailureToastDuration time.Duration
	ExplorerURL          string
	Links                Links
}

// Journal records mint history. All methods are best effort.
type Journal interface {
	StartAttempt(account string) (string, error)
	SubmittedAttempt(id, txHash string) error
	FinishAttempt(id, txHash string, mintErr error) error
	RecordEvent(txHash string, logIndex uint, from, tokenID string, block uint64) error
}

// Deps are the panel's collaborators. Provider and Contract may be nil when
// no wallet is available; Journal may be nil; Clock defaults to wall time.
type Deps struct {
	Provider wallet.Provider
	Contract nft.Contract
	Journal  Journal
	Clock    clock.Clock
}

// Panel owns State and every transition on it.
type Panel struct {
	cfg      Config
	provider wallet.Provider
	contract nft.Contract
	journal  Journal
	clock    clock.Clock

	mu         sync.Mutex
	state      State
	sub        event.Subscription
	toastTimer *clock.Timer
	toastGen   uint64

	events  chan nft.MintedEvent
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
	started atomic.Bool
}

// New creates a panel. Call Start to begin handling events.
func New(cfg Config, deps Deps) *Panel {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if cfg.ToastDuration <= 0 {
		cfg.ToastDuration = 5 * time.Second
	}
	if cfg.FailureToastDuration <= 0 {
		cfg.FailureToastDuration = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Panel{
		cfg:      cfg,
		provider: deps.Provider,
		contract: deps.Contract,
		journal:  deps.Journal,
		clock:    deps.Clock,
		state:    newState(),
		events:   make(chan nft.MintedEvent, 16),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start runs the event loop.
func (p *Panel) Start() {
	if p.started.Swap(true) {
		return
	}
	go p.run()
}

// Stop cancels the listener, the toast timer and in-flight mints, then
// waits for the event loop to exit.
func (p *Panel) Stop() {
	p.cancel()

	p.mu.Lock()
	sub := p.sub
	p.sub = nil
	if p.toastTimer != nil {
		p.toastTimer.Stop()
		p.toastTimer = nil
	}
	p.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
	p.wg.Wait()
	if p.started.Load() {
		<-p.done
	}
	log.Println("[panel] Stopped")
}

// Snapshot returns a copy of the current state.
func (p *Panel) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.clone()
}

// View renders the current state.
func (p *Panel) View() View {
	return Render(p.Snapshot(), p.cfg)
}

// AckAlerts dismisses the queued warnings.
func (p *Panel) AckAlerts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.AckAlerts()
}

// Detect adopts an already-authorized account, if any, checks the network
// and attaches the minted listener. It never fails.
func (p *Panel) Detect(ctx context.Context) {
	if p.provider == nil {
		log.Println("[panel] Make sure you have a wallet provider!")
		return
	}
	log.Println("[panel] Wallet provider found")

	accounts, err := p.provider.Accounts(ctx)
	if err != nil {
		log.Printf("[panel] eth_accounts failed: %v", err)
		return
	}
	if len(accounts) == 0 {
		log.Println("[panel] No authorized account found")
		return
	}

	account := accounts[0]
	log.Printf("[panel] Found an authorized account: %s", account)
	p.mu.Lock()
	p.state.Adopt(account)
	p.mu.Unlock()

	chainID, err := p.provider.ChainID(ctx)
	if err != nil {
		log.Printf("[panel] eth_chainId failed: %v", err)
	} else {
		log.Printf("[panel] Connected to chain %s", chainID)
		p.mu.Lock()
		p.state.SetChain(chainID)
		if !wallet.SameChain(chainID, p.cfg.ExpectedChainID) {
			p.state.Alert(fmt.Sprintf("You are not connected to the %s Network!", p.cfg.NetworkName))
		}
		p.mu.Unlock()
	}

	p.subscribe()
}

// Connect asks the provider for account access. On failure the state is
// left unchanged and the error is returned for display.
func (p *Panel) Connect(ctx context.Context) error {
	if p.provider == nil {
		p.mu.Lock()
		p.state.Alert("Get a wallet provider!")
		p.mu.Unlock()
		log.Println("[panel] Connect: no wallet provider")
		return wallet.ErrNoProvider
	}

	accounts, err := p.provider.RequestAccounts(ctx)
	if err != nil {
		log.Printf("[panel] Connect failed: %v", err)
		return fmt.Errorf("request accounts: %w", err)
	}
	if len(accounts) == 0 {
		log.Println("[panel] Connect: provider returned no accounts")
		return fmt.Errorf("request accounts: no accounts returned")
	}

	log.Printf("[panel] Connected %s", accounts[0])
	p.mu.Lock()
	p.state.Adopt(accounts[0])
	p.mu.Unlock()

	if chainID, err := p.provider.ChainID(ctx); err == nil {
		p.mu.Lock()
		p.state.SetChain(chainID)
		p.mu.Unlock()
	}

	p.subscribe()
	return nil
}

// Mint submits a mint and blocks until it settles or ctx is done. Only
// ErrNotConnected (and a missing binding) is returned before submission;
// every other outcome ends in State. If ctx ends first its error is returned
// and the mint keeps settling in the background.
func (p *Panel) Mint(ctx context.Context) error {
	account, err := p.beginMint()
	if err != nil {
		return err
	}
	done := make(chan struct{})
	go func() {
		defer p.wg.Done()
		defer close(done)
		p.finishMint(account)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MintAsync moves the panel to mining and settles the mint in the
// background, bounded by the panel's lifetime.
func (p *Panel) MintAsync() error {
	account, err := p.beginMint()
	if err != nil {
		return err
	}
	go func() {
		defer p.wg.Done()
		p.finishMint(account)
	}()
	return nil
}

// beginMint checks the preconditions, enters mining and registers the
// settlement with wg. Holding mu orders the Add before Stop's Wait.
func (p *Panel) beginMint() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctx.Err() != nil {
		return "", errStopped
	}
	if p.state.Account == "" {
		return "", ErrNotConnected
	}
	if p.contract == nil {
		log.Println("[panel] Mint: no contract binding")
		return "", errNoContract
	}
	p.state.BeginMint()
	p.wg.Add(1)
	return p.state.Account, nil
}

func (p *Panel) finishMint(account string) {
	ctx := p.ctx
	attemptID := ""
	if p.journal != nil {
		id, err := p.journal.StartAttempt(account)
		if err != nil {
			log.Printf("[panel] Failed to journal mint attempt: %v", err)
		}
		attemptID = id
	}

	log.Println("[panel] Going to pop wallet now to pay gas...")
	txHash := ""
	tx, err := p.contract.Mint(ctx, account)
	if err == nil {
		txHash = tx.Hash().Hex()
		if p.journal != nil && attemptID != "" {
			if jerr := p.journal.SubmittedAttempt(attemptID, txHash); jerr != nil {
				log.Printf("[panel] Failed to journal mint tx: %v", jerr)
			}
		}
		log.Println("[panel] Mining...please wait.")
		_, err = tx.Wait(ctx)
	}

	// Shutting down says nothing about a submitted tx: leave it pending.
	if err != nil && txHash != "" && ctx.Err() != nil {
		log.Printf("[panel] Stopped before %s settled, left pending", txHash)
		return
	}

	if err != nil {
		log.Printf("[panel] Mint failed: %v", err)
		p.mu.Lock()
		p.state.MintFailed(err.Error(), p.cfg.TotalMintCount)
		p.showToastLocked(p.cfg.FailureToastDuration)
		p.mu.Unlock()
	} else {
		if url := TxURL(p.cfg.ExplorerURL, txHash); url != "" {
			log.Printf("[panel] Mined, see transaction: %s", url)
		} else {
			log.Printf("[panel] Mined: %s", txHash)
		}
		p.mu.Lock()
		p.state.MintConfirmed(txHash)
		p.mu.Unlock()
	}

	if p.journal != nil && attemptID != "" {
		if jerr := p.journal.FinishAttempt(attemptID, txHash, err); jerr != nil {
			log.Printf("[panel] Failed to journal mint outcome: %v", jerr)
		}
	}
}

// subscribe attaches the minted listener once.
func (p *Panel) subscribe() {
	if p.contract == nil {
		log.Println("[panel] No contract binding, listener not attached")
		return
	}

	p.mu.Lock()
	if !p.state.MarkSubscribed() {
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	sub, err := p.contract.WatchMinted(p.ctx, p.events)
	if err != nil {
		log.Printf("[panel] Failed to attach listener: %v", err)
		p.mu.Lock()
		p.state.ClearSubscribed()
		p.mu.Unlock()
		return
	}

	p.mu.Lock()
	if p.ctx.Err() != nil {
		p.mu.Unlock()
		sub.Unsubscribe()
		return
	}
	p.sub = sub
	p.mu.Unlock()
	log.Println("[panel] Setup event listener!")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		err, ok := <-sub.Err()
		if !ok || err == nil {
			return
		}
		log.Printf("[panel] Listener dropped: %v", err)
		p.mu.Lock()
		if p.sub == sub {
			p.sub = nil
			p.state.ClearSubscribed()
		}
		p.mu.Unlock()
	}()
}

func (p *Panel) run() {
	defer close(p.done)
	for {
		select {
		case <-p.ctx.Done():
			return
		case ev := <-p.events:
			p.handleMinted(ev)
		}
	}
}

func (p *Panel) handleMinted(ev nft.MintedEvent) {
	tokenID := "?"
	if ev.TokenID != nil {
		tokenID = ev.TokenID.String()
	}
	log.Printf("[panel] %s %s", ev.From.Hex(), tokenID)

	if p.journal != nil {
		if err := p.journal.RecordEvent(ev.TxHash.Hex(), ev.LogIndex, ev.From.Hex(), tokenID, ev.BlockNumber); err != nil {
			log.Printf("[panel] Failed to journal minted event: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(p.ctx, queryTimeout)
	defer cancel()
	total, err := p.contract.TotalMinted(ctx)
	if err != nil {
		log.Printf("[panel] Failed to refresh minted count: %v", err)
		return
	}

	p.mu.Lock()
	p.state.SetCount(total)
	p.showToastLocked(p.cfg.ToastDuration)
	p.mu.Unlock()
}

// showToastLocked shows the toast and (re)arms its auto-hide. Callers hold mu.
func (p *Panel) showToastLocked(d time.Duration) {
	p.state.ShowToast()
	if p.ctx.Err() != nil {
		return
	}
	if p.toastTimer != nil {
		p.toastTimer.Stop()
	}
	p.toastGen++
	gen := p.toastGen
	p.toastTimer = p.clock.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if gen != p.toastGen {
			return
		}
		p.state.HideToast()
		p.toastTimer = nil
	})
}
