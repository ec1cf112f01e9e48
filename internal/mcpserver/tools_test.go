package mcpserver

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/b0ase/path402/apps/mintpanel/internal/db"
	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

type fakeDaemon struct{}

func (fakeDaemon) NodeID() string        { return "node-1" }
func (fakeDaemon) Uptime() time.Duration { return time.Minute }
func (fakeDaemon) WalletStatus() map[string]interface{} {
	return map[string]interface{}{"mode": "key"}
}
func (fakeDaemon) ContractStatus() map[string]interface{} {
	return map[string]interface{}{"address": "0x53FfC2FFc01184cBa366E84dE60FF988B2C27526"}
}

type fakePanel struct {
	view       panel.View
	connectErr error
	mintFails  string
	mintStuck  bool
	asyncCalls int
}

func (p *fakePanel) View() panel.View { return p.view }

func (p *fakePanel) Connect(ctx context.Context) error {
	if p.connectErr != nil {
		return p.connectErr
	}
	p.view.Account = "0xabc"
	p.view.ChainID = "0x4"
	return nil
}

func (p *fakePanel) Mint(ctx context.Context) error {
	if p.view.Account == "" {
		return panel.ErrNotConnected
	}
	if p.mintStuck {
		p.view.Phase = panel.PhaseMining
		<-ctx.Done()
		return ctx.Err()
	}
	p.view.Phase = panel.PhaseMined
	if p.mintFails != "" {
		p.view.LastError = p.mintFails
		p.view.Counter = "15/15 NFTs minted so far"
		return nil
	}
	p.view.LastTx = "0xfeed"
	p.view.TxURL = "https://rinkeby.etherscan.io/tx/0xfeed"
	return nil
}

func (p *fakePanel) MintAsync() error {
	p.asyncCalls++
	if p.view.Account == "" {
		return panel.ErrNotConnected
	}
	p.view.Phase = panel.PhaseMining
	return nil
}

var testImpl = &mcp.Implementation{Name: "mintpanel-test", Version: "0.1.0"}

func session(t *testing.T, p *fakePanel) *mcp.ClientSession {
	t.Helper()
	if err := db.Open(filepath.Join(t.TempDir(), "test.db")); err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(db.Close)

	s := New("test", fakeDaemon{}, p)
	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() { _ = s.server.Run(ctx, serverT) }()

	client := mcp.NewClient(testImpl, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

// callTool returns the text of the first content block and whether the
// tool reported an error.
func callTool(t *testing.T, cs *mcp.ClientSession, name string, args any) (string, bool) {
	t.Helper()
	result, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent", name)
	}
	return tc.Text, result.IsError
}

func TestToolsListed(t *testing.T) {
	cs := session(t, &fakePanel{})
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	want := map[string]bool{"mintpanel_status": false, "mintpanel_connect": false, "mintpanel_mint": false, "mintpanel_history": false}
	for _, tool := range res.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Errorf("tool %s not registered", name)
		}
	}
}

func TestStatus(t *testing.T) {
	p := &fakePanel{view: panel.View{
		Title:        panel.Title,
		Account:      "0xabc",
		ChainID:      "0x1",
		WrongNetwork: true,
		Counter:      "4/15 NFTs minted so far",
		Phase:        panel.PhaseIdle,
		Alerts:       []string{"You are not connected to the Rinkeby Test Network!"},
	}}
	cs := session(t, p)

	text, isErr := callTool(t, cs, "mintpanel_status", map[string]any{})
	if isErr {
		t.Fatalf("status errored: %s", text)
	}
	for _, want := range []string{"My NFT Collection", "`0xabc`", "wrong network", "4/15 NFTs minted so far", "Rinkeby Test Network"} {
		if !strings.Contains(text, want) {
			t.Errorf("status missing %q:\n%s", want, text)
		}
	}
}

func TestConnect(t *testing.T) {
	cs := session(t, &fakePanel{})
	text, isErr := callTool(t, cs, "mintpanel_connect", map[string]any{})
	if isErr {
		t.Fatalf("connect errored: %s", text)
	}
	if !strings.Contains(text, "0xabc") {
		t.Errorf("connect text = %s", text)
	}
}

func TestConnectRejected(t *testing.T) {
	cs := session(t, &fakePanel{connectErr: wallet.ErrUserRejected})
	text, isErr := callTool(t, cs, "mintpanel_connect", map[string]any{})
	if !isErr {
		t.Fatal("expected tool error")
	}
	if !strings.Contains(text, "rejected") {
		t.Errorf("text = %s", text)
	}
}

func TestMintAsync(t *testing.T) {
	p := &fakePanel{view: panel.View{Account: "0xabc"}}
	cs := session(t, p)
	text, isErr := callTool(t, cs, "mintpanel_mint", map[string]any{})
	if isErr {
		t.Fatalf("mint errored: %s", text)
	}
	if p.asyncCalls != 1 {
		t.Errorf("MintAsync calls = %d", p.asyncCalls)
	}
}

func TestMintWait(t *testing.T) {
	cs := session(t, &fakePanel{view: panel.View{Account: "0xabc"}})
	text, isErr := callTool(t, cs, "mintpanel_mint", map[string]any{"wait": true})
	if isErr {
		t.Fatalf("mint errored: %s", text)
	}
	if !strings.Contains(text, "https://rinkeby.etherscan.io/tx/0xfeed") {
		t.Errorf("text = %s", text)
	}
}

func TestMintWaitFailure(t *testing.T) {
	cs := session(t, &fakePanel{view: panel.View{Account: "0xabc"}, mintFails: "user rejected request"})
	text, isErr := callTool(t, cs, "mintpanel_mint", map[string]any{"wait": true})
	if !isErr {
		t.Fatalf("expected tool error, got %s", text)
	}
	if !strings.Contains(text, "15/15") {
		t.Errorf("text = %s", text)
	}
}

func TestMintWaitTimesOutStillPending(t *testing.T) {
	defer func(d time.Duration) { mintWaitTimeout = d }(mintWaitTimeout)
	mintWaitTimeout = 20 * time.Millisecond

	cs := session(t, &fakePanel{view: panel.View{Account: "0xabc"}, mintStuck: true})
	text, isErr := callTool(t, cs, "mintpanel_mint", map[string]any{"wait": true})
	if isErr {
		t.Fatalf("pending mint reported as failure: %s", text)
	}
	if !strings.Contains(text, "still mining") {
		t.Errorf("text = %s", text)
	}
}

func TestMintNotConnected(t *testing.T) {
	cs := session(t, &fakePanel{})
	text, isErr := callTool(t, cs, "mintpanel_mint", map[string]any{})
	if !isErr || !strings.Contains(text, "not connected") {
		t.Errorf("isErr=%v text=%s", isErr, text)
	}
}

func TestHistory(t *testing.T) {
	cs := session(t, &fakePanel{})

	text, _ := callTool(t, cs, "mintpanel_history", map[string]any{})
	if !strings.Contains(text, "No mint attempts yet.") {
		t.Errorf("empty history = %s", text)
	}

	id, _ := db.InsertMintAttempt("0xabc")
	db.FinishMintAttempt(id, "0xfeed", db.MintMined, "")
	db.InsertMintEvent(&db.MintEvent{TxHash: "0xfeed", FromAddress: "0xabc", TokenID: "5", BlockNumber: 42})

	text, isErr := callTool(t, cs, "mintpanel_history", map[string]any{"limit": 5})
	if isErr {
		t.Fatalf("history errored: %s", text)
	}
	for _, want := range []string{"Attempts (1)", "mined", "`0xfeed`", "token #5", "block 42"} {
		if !strings.Contains(text, want) {
			t.Errorf("history missing %q:\n%s", want, text)
		}
	}
}
