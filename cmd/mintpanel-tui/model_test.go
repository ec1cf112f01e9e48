package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

type fakeAPI struct {
	view       panel.View
	connectErr error
	connects   int
	mints      int
	acks       int
}

func (f *fakeAPI) View() (panel.View, error) { return f.view, nil }

func (f *fakeAPI) Connect() (panel.View, error) {
	f.connects++
	if f.connectErr != nil {
		return panel.View{}, f.connectErr
	}
	f.view.Account = "0xabc"
	f.view.ShowConnect, f.view.ShowMint = false, true
	return f.view, nil
}

func (f *fakeAPI) Mint() (panel.View, error) {
	f.mints++
	f.view.Phase = panel.PhaseMining
	f.view.ShowLoading = true
	return f.view, nil
}

func (f *fakeAPI) AckAlerts() error {
	f.acks++
	f.view.Alerts = nil
	return nil
}

func (f *fakeAPI) Events(limit int) ([]mintEvent, error) {
	return []mintEvent{{TokenID: "3", FromAddress: "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf", BlockNumber: 9}}, nil
}

func disconnectedView() panel.View {
	return panel.View{
		Title:          panel.Title,
		SubText:        panel.SubText,
		ShowConnect:    true,
		Phase:          panel.PhaseIdle,
		TotalMintCount: 15,
		Counter:        "0/15 NFTs minted so far",
		Links: panel.Links{
			TwitterHandle: "huertaarielcsw",
			TwitterURL:    "https://twitter.com/huertaarielcsw",
			OpenSeaURL:    "https://testnets.opensea.io/collection/squarenft-ykq9erwesl",
		},
	}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	next, _ := m.Update(cmd())
	return next.(model)
}

func loaded(t *testing.T, api *fakeAPI) model {
	t.Helper()
	m := newModel(api)
	return run(t, m, m.refresh())
}

func TestRefreshLoadsView(t *testing.T) {
	m := loaded(t, &fakeAPI{view: disconnectedView()})
	if !m.loaded || !m.online {
		t.Fatalf("loaded=%v online=%v", m.loaded, m.online)
	}
	out := m.View()
	for _, want := range []string{"My NFT Collection", "Connect to Wallet", "0/15", "@huertaarielcsw", "#3"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestOfflineView(t *testing.T) {
	m := newModel(&fakeAPI{})
	next, _ := m.Update(refreshMsg{err: errors.New("connection refused")})
	out := next.(model).View()
	if !strings.Contains(out, "offline") {
		t.Errorf("offline view = %s", out)
	}
}

func TestConnectKey(t *testing.T) {
	api := &fakeAPI{view: disconnectedView()}
	m := loaded(t, api)

	next, cmd := m.Update(keyRunes("c"))
	m = next.(model)
	if m.busy == "" {
		t.Error("busy label not set while connecting")
	}
	m = run(t, m, cmd)
	if api.connects != 1 {
		t.Errorf("connects = %d", api.connects)
	}
	if m.view.Account != "0xabc" || m.busy != "" {
		t.Errorf("after connect: account=%q busy=%q", m.view.Account, m.busy)
	}
	if !strings.Contains(m.View(), "Mint NFT") {
		t.Error("mint button not rendered after connect")
	}
}

func TestConnectErrorShown(t *testing.T) {
	api := &fakeAPI{view: disconnectedView(), connectErr: errors.New("user rejected the request")}
	m := loaded(t, api)

	_, cmd := m.Update(keyRunes("c"))
	m = run(t, m, cmd)
	if !strings.Contains(m.View(), "user rejected the request") {
		t.Error("connect error not rendered")
	}
}

func TestMintKeyIgnoredWhenDisconnected(t *testing.T) {
	api := &fakeAPI{view: disconnectedView()}
	m := loaded(t, api)
	if _, cmd := m.Update(keyRunes("m")); cmd != nil {
		t.Error("mint issued without a connected account")
	}
}

func TestMintKeyShowsLoading(t *testing.T) {
	v := disconnectedView()
	v.Account, v.ShowConnect, v.ShowMint = "0xabc", false, true
	api := &fakeAPI{view: v}
	m := loaded(t, api)

	_, cmd := m.Update(keyRunes("m"))
	m = run(t, m, cmd)
	if api.mints != 1 {
		t.Fatalf("mints = %d", api.mints)
	}
	if !strings.Contains(m.View(), "Mining...please wait.") {
		t.Error("loading indicator not rendered while mining")
	}
	if _, cmd := m.Update(keyRunes("m")); cmd != nil {
		t.Error("second mint issued while mining")
	}
}

func TestToastAndAlerts(t *testing.T) {
	v := disconnectedView()
	v.Toast = panel.ToastShow
	v.Counter = "4/15 NFTs minted so far"
	v.Alerts = []string{"You are not connected to the Rinkeby Test Network!"}
	api := &fakeAPI{view: v}
	m := loaded(t, api)

	out := m.View()
	if !strings.Contains(out, "4/15 NFTs minted so far") {
		t.Error("toast not rendered")
	}
	if !strings.Contains(out, "Rinkeby Test Network") {
		t.Error("alert not rendered")
	}

	_, cmd := m.Update(keyRunes("a"))
	m = run(t, m, cmd)
	if api.acks != 1 || len(m.view.Alerts) != 0 {
		t.Errorf("acks=%d alerts=%v", api.acks, m.view.Alerts)
	}
}

func TestQuit(t *testing.T) {
	m := newModel(&fakeAPI{})
	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("no command for q")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestAPIClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/panel", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(panel.View{Counter: "2/15 NFTs minted so far"})
	})
	mux.HandleFunc("POST /api/mint", func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("mint content-type = %q", ct)
		}
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "wallet not connected"})
	})
	mux.HandleFunc("GET /api/events", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %s", r.URL.Query().Get("limit"))
		}
		json.NewEncoder(w).Encode([]mintEvent{{TokenID: "1"}})
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	c := newAPIClient(ts.URL + "/")
	v, err := c.View()
	if err != nil {
		t.Fatalf("View: %v", err)
	}
	if v.Counter != "2/15 NFTs minted so far" {
		t.Errorf("counter = %q", v.Counter)
	}

	if _, err := c.Mint(); err == nil || err.Error() != "wallet not connected" {
		t.Errorf("Mint err = %v", err)
	}

	events, err := c.Events(5)
	if err != nil || len(events) != 1 {
		t.Errorf("Events = %v, %v", events, err)
	}
}
