package panel

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"

	"github.com/b0ase/path402/apps/mintpanel/internal/nft"
	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

type fakeProvider struct {
	accounts   []string
	requested  []string
	requestErr error
	chainID    string
}

func (f *fakeProvider) Accounts(ctx context.Context) ([]string, error) {
	return f.accounts, nil
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]string, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.requested, nil
}

func (f *fakeProvider) ChainID(ctx context.Context) (string, error) {
	return f.chainID, nil
}

type fakeTx struct {
	hash    common.Hash
	waitErr error
	release chan struct{}
}

func (t *fakeTx) Hash() common.Hash { return t.hash }

func (t *fakeTx) Wait(ctx context.Context) (*types.Receipt, error) {
	if t.release != nil {
		select {
		case <-t.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if t.waitErr != nil {
		return nil, t.waitErr
	}
	return &types.Receipt{Status: types.ReceiptStatusSuccessful}, nil
}

type fakeContract struct {
	mu      sync.Mutex
	total   uint64
	tx      *fakeTx
	mintErr error
	watches int
	sink    chan<- nft.MintedEvent
}

func (c *fakeContract) TotalMinted(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, nil
}

func (c *fakeContract) Mint(ctx context.Context, from string) (nft.PendingTx, error) {
	if c.mintErr != nil {
		return nil, c.mintErr
	}
	return c.tx, nil
}

func (c *fakeContract) WatchMinted(ctx context.Context, sink chan<- nft.MintedEvent) (event.Subscription, error) {
	c.mu.Lock()
	c.watches++
	c.sink = sink
	c.mu.Unlock()
	return event.NewSubscription(func(quit <-chan struct{}) error {
		<-quit
		return nil
	}), nil
}

func (c *fakeContract) watchCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.watches
}

func (c *fakeContract) emit(t *testing.T, ev nft.MintedEvent) {
	t.Helper()
	c.mu.Lock()
	sink := c.sink
	c.mu.Unlock()
	if sink == nil {
		t.Fatal("no listener attached")
	}
	sink <- ev
}

type recordingJournal struct {
	mu        sync.Mutex
	started   int
	submitted []string
	finished  []error
	events    []string
}

func (j *recordingJournal) StartAttempt(account string) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.started++
	return "attempt", nil
}

func (j *recordingJournal) SubmittedAttempt(id, txHash string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.submitted = append(j.submitted, txHash)
	return nil
}

func (j *recordingJournal) FinishAttempt(id, txHash string, mintErr error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.finished = append(j.finished, mintErr)
	return nil
}

func (j *recordingJournal) RecordEvent(txHash string, logIndex uint, from, tokenID string, block uint64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.events = append(j.events, tokenID)
	return nil
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestPanel(t *testing.T, p wallet.Provider, c nft.Contract, j Journal) (*Panel, *clock.Mock) {
	t.Helper()
	mock := clock.NewMock()
	deps := Deps{Provider: p, Clock: mock}
	if c != nil {
		deps.Contract = c
	}
	if j != nil {
		deps.Journal = j
	}
	pn := New(testConfig(), deps)
	pn.Start()
	t.Cleanup(pn.Stop)
	return pn, mock
}

func TestDetectWithoutProvider(t *testing.T) {
	pn, _ := newTestPanel(t, nil, &fakeContract{}, nil)
	pn.Detect(context.Background())

	s := pn.Snapshot()
	if s.Account != "" || s.Subscribed || len(s.Alerts) != 0 {
		t.Errorf("state changed without provider: %+v", s)
	}
}

func TestDetectNoAuthorizedAccount(t *testing.T) {
	c := &fakeContract{}
	pn, _ := newTestPanel(t, &fakeProvider{chainID: "0x4"}, c, nil)
	pn.Detect(context.Background())

	s := pn.Snapshot()
	if s.Account != "" {
		t.Errorf("account = %q, want empty", s.Account)
	}
	if c.watchCount() != 0 {
		t.Errorf("listener attached without an account")
	}
}

func TestDetectWrongNetworkWarnsOnce(t *testing.T) {
	c := &fakeContract{}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x1"}
	pn, _ := newTestPanel(t, prov, c, nil)
	pn.Detect(context.Background())

	s := pn.Snapshot()
	if s.Account != "0xabc" {
		t.Errorf("account = %q, want 0xabc", s.Account)
	}
	if len(s.Alerts) != 1 {
		t.Fatalf("alerts = %v, want exactly one", s.Alerts)
	}
	if s.Alerts[0] != "You are not connected to the Rinkeby Test Network!" {
		t.Errorf("alert = %q", s.Alerts[0])
	}
	if !s.Subscribed || c.watchCount() != 1 {
		t.Errorf("subscribed=%v watches=%d", s.Subscribed, c.watchCount())
	}
	if !pn.View().WrongNetwork {
		t.Error("view does not flag the wrong network")
	}
}

func TestDetectExpectedNetworkNoAlert(t *testing.T) {
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, _ := newTestPanel(t, prov, &fakeContract{}, nil)
	pn.Detect(context.Background())

	if alerts := pn.Snapshot().Alerts; len(alerts) != 0 {
		t.Errorf("alerts = %v, want none", alerts)
	}
}

func TestConnectWithoutProvider(t *testing.T) {
	pn, _ := newTestPanel(t, nil, &fakeContract{}, nil)
	err := pn.Connect(context.Background())
	if !errors.Is(err, wallet.ErrNoProvider) {
		t.Fatalf("err = %v, want ErrNoProvider", err)
	}
	s := pn.Snapshot()
	if len(s.Alerts) != 1 || s.Alerts[0] != "Get a wallet provider!" {
		t.Errorf("alerts = %v", s.Alerts)
	}
	if n := pn.AckAlerts(); n != 1 {
		t.Errorf("AckAlerts = %d, want 1", n)
	}
}

func TestConnectRejectedLeavesState(t *testing.T) {
	c := &fakeContract{}
	prov := &fakeProvider{requestErr: wallet.ErrUserRejected}
	pn, _ := newTestPanel(t, prov, c, nil)

	err := pn.Connect(context.Background())
	if !errors.Is(err, wallet.ErrUserRejected) {
		t.Fatalf("err = %v, want ErrUserRejected", err)
	}
	s := pn.Snapshot()
	if s.Account != "" || s.Subscribed {
		t.Errorf("state changed after rejection: %+v", s)
	}
	if c.watchCount() != 0 {
		t.Error("listener attached after rejection")
	}
}

func TestConnectAttachesListenerOnce(t *testing.T) {
	c := &fakeContract{}
	prov := &fakeProvider{requested: []string{"0xabc"}, accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, _ := newTestPanel(t, prov, c, nil)

	pn.Detect(context.Background())
	if err := pn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := pn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if c.watchCount() != 1 {
		t.Errorf("watches = %d, want 1", c.watchCount())
	}
	if pn.Snapshot().Account != "0xabc" {
		t.Errorf("account = %q", pn.Snapshot().Account)
	}
}

func TestMintedEventRefreshesCounter(t *testing.T) {
	c := &fakeContract{total: 4}
	j := &recordingJournal{}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, mock := newTestPanel(t, prov, c, j)
	pn.Detect(context.Background())

	c.emit(t, nft.MintedEvent{From: common.HexToAddress("0xabc"), TokenID: big.NewInt(3)})
	waitFor(t, "toast shown", func() bool { return pn.Snapshot().Toast == ToastShow })

	if got := pn.Snapshot().MintCount; got != 4 {
		t.Errorf("count = %d, want 4 (queried)", got)
	}

	mock.Add(4 * time.Second)
	if pn.Snapshot().Toast != ToastShow {
		t.Error("toast hidden before 5s")
	}
	mock.Add(time.Second)
	waitFor(t, "toast hidden", func() bool { return pn.Snapshot().Toast == ToastHide })

	j.mu.Lock()
	defer j.mu.Unlock()
	if len(j.events) != 1 || j.events[0] != "3" {
		t.Errorf("journaled events = %v", j.events)
	}
}

func TestSecondEventRestartsToastTimer(t *testing.T) {
	c := &fakeContract{total: 1}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, mock := newTestPanel(t, prov, c, nil)
	pn.Detect(context.Background())

	c.emit(t, nft.MintedEvent{TokenID: big.NewInt(0)})
	waitFor(t, "count 1", func() bool { return pn.Snapshot().MintCount == 1 })
	mock.Add(3 * time.Second)

	c.mu.Lock()
	c.total = 2
	c.mu.Unlock()
	c.emit(t, nft.MintedEvent{TokenID: big.NewInt(1)})
	waitFor(t, "count 2", func() bool { return pn.Snapshot().MintCount == 2 })

	mock.Add(3 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if pn.Snapshot().Toast != ToastShow {
		t.Error("first timer hid the toast of the second event")
	}
	mock.Add(2 * time.Second)
	waitFor(t, "toast hidden", func() bool { return pn.Snapshot().Toast == ToastHide })
}

func TestMintNotConnected(t *testing.T) {
	pn, _ := newTestPanel(t, &fakeProvider{}, &fakeContract{}, nil)
	if err := pn.Mint(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("err = %v, want ErrNotConnected", err)
	}
	if pn.Snapshot().Phase != PhaseIdle {
		t.Errorf("phase = %s, want idle", pn.Snapshot().Phase)
	}
}

func TestMintFailureForcesCounter(t *testing.T) {
	c := &fakeContract{mintErr: wallet.ErrUserRejected}
	j := &recordingJournal{}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, mock := newTestPanel(t, prov, c, j)
	pn.Detect(context.Background())

	if err := pn.Mint(context.Background()); err != nil {
		t.Fatalf("Mint: %v", err)
	}
	s := pn.Snapshot()
	if s.Phase != PhaseMined {
		t.Errorf("phase = %s, want mined", s.Phase)
	}
	if s.MintCount != 15 {
		t.Errorf("count = %d, want 15", s.MintCount)
	}
	if s.Toast != ToastShow {
		t.Errorf("toast = %q, want show", s.Toast)
	}
	if s.LastError == "" {
		t.Error("last_error not recorded")
	}

	mock.Add(time.Second)
	waitFor(t, "toast hidden", func() bool { return pn.Snapshot().Toast == ToastHide })

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.started != 1 || len(j.finished) != 1 || j.finished[0] == nil {
		t.Errorf("journal started=%d finished=%v", j.started, j.finished)
	}
}

func TestMintRevertedCountsAsFailure(t *testing.T) {
	c := &fakeContract{tx: &fakeTx{hash: common.HexToHash("0x01"), waitErr: nft.ErrReverted}}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, _ := newTestPanel(t, prov, c, nil)
	pn.Detect(context.Background())

	pn.Mint(context.Background())
	s := pn.Snapshot()
	if s.Phase != PhaseMined || s.MintCount != 15 {
		t.Errorf("phase=%s count=%d, want mined/15", s.Phase, s.MintCount)
	}
}

func TestMintAsyncPhases(t *testing.T) {
	release := make(chan struct{})
	hash := common.HexToHash("0xfeed")
	c := &fakeContract{tx: &fakeTx{hash: hash, release: release}}
	j := &recordingJournal{}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, _ := newTestPanel(t, prov, c, j)
	pn.Detect(context.Background())

	if err := pn.MintAsync(); err != nil {
		t.Fatalf("MintAsync: %v", err)
	}
	if got := pn.Snapshot().Phase; got != PhaseMining {
		t.Fatalf("phase = %s right after MintAsync, want mining", got)
	}
	if !pn.View().ShowLoading {
		t.Error("loading hidden while mining")
	}

	close(release)
	waitFor(t, "mined", func() bool { return pn.Snapshot().Phase == PhaseMined })

	s := pn.Snapshot()
	if s.LastTx != hash.Hex() {
		t.Errorf("last_tx = %s, want %s", s.LastTx, hash.Hex())
	}
	if s.MintCount != 0 {
		t.Errorf("count = %d, success must not touch the counter", s.MintCount)
	}
	if want := "https://rinkeby.etherscan.io/tx/" + hash.Hex(); pn.View().TxURL != want {
		t.Errorf("tx_url = %s", pn.View().TxURL)
	}
	waitFor(t, "journal finish", func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		return len(j.finished) == 1 && j.finished[0] == nil
	})
}

func TestStopCancelsToastTimer(t *testing.T) {
	c := &fakeContract{mintErr: errors.New("boom")}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	mock := clock.NewMock()
	pn := New(testConfig(), Deps{Provider: prov, Contract: c, Clock: mock})
	pn.Start()
	pn.Detect(context.Background())
	pn.Mint(context.Background())

	pn.Stop()
	mock.Add(2 * time.Second)
	time.Sleep(20 * time.Millisecond)
	if pn.Snapshot().Toast != ToastShow {
		t.Error("toast timer fired after Stop")
	}
}

func TestStopWithoutStart(t *testing.T) {
	pn := New(testConfig(), Deps{})
	done := make(chan struct{})
	go func() {
		pn.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a panel that never started")
	}
}

func TestStopLeavesSubmittedMintPending(t *testing.T) {
	hash := common.HexToHash("0xbeef")
	c := &fakeContract{tx: &fakeTx{hash: hash, release: make(chan struct{})}}
	j := &recordingJournal{}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn := New(testConfig(), Deps{Provider: prov, Contract: c, Journal: j, Clock: clock.NewMock()})
	pn.Start()
	pn.Detect(context.Background())

	if err := pn.MintAsync(); err != nil {
		t.Fatalf("MintAsync: %v", err)
	}
	waitFor(t, "tx submitted", func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		return len(j.submitted) == 1
	})

	pn.Stop()

	s := pn.Snapshot()
	if s.Phase != PhaseMining || s.MintCount != 0 || s.Toast != "" || s.LastError != "" {
		t.Errorf("shutdown treated as failure: phase=%s count=%d toast=%q last_error=%q",
			s.Phase, s.MintCount, s.Toast, s.LastError)
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.submitted[0] != hash.Hex() {
		t.Errorf("submitted = %v", j.submitted)
	}
	if len(j.finished) != 0 {
		t.Errorf("attempt settled on shutdown: %v", j.finished)
	}
}

func TestMintCallerGivesUpWhileMining(t *testing.T) {
	release := make(chan struct{})
	hash := common.HexToHash("0xcafe")
	c := &fakeContract{tx: &fakeTx{hash: hash, release: release}}
	j := &recordingJournal{}
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	pn, _ := newTestPanel(t, prov, c, j)
	pn.Detect(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- pn.Mint(ctx) }()
	waitFor(t, "tx submitted", func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		return len(j.submitted) == 1
	})
	cancel()
	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("Mint = %v, want context.Canceled", err)
	}
	if got := pn.Snapshot().Phase; got != PhaseMining {
		t.Fatalf("phase = %s after caller left, want mining", got)
	}

	close(release)
	waitFor(t, "mined", func() bool { return pn.Snapshot().Phase == PhaseMined })
	if s := pn.Snapshot(); s.LastTx != hash.Hex() || s.LastError != "" {
		t.Errorf("last_tx=%s last_error=%q", s.LastTx, s.LastError)
	}
}

func TestMintAfterStopRefused(t *testing.T) {
	prov := &fakeProvider{accounts: []string{"0xabc"}, chainID: "0x4"}
	c := &fakeContract{tx: &fakeTx{hash: common.HexToHash("0x01")}}
	pn := New(testConfig(), Deps{Provider: prov, Contract: c, Clock: clock.NewMock()})
	pn.Start()
	pn.Detect(context.Background())
	pn.Stop()

	if err := pn.MintAsync(); err == nil {
		t.Fatal("MintAsync accepted after Stop")
	}
	if got := pn.Snapshot().Phase; got != PhaseIdle {
		t.Errorf("phase = %s, want idle", got)
	}
}
