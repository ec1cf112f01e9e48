package mobile

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/b0ase/path402/apps/mintpanel/internal/rpctest"
)

const testAccount = "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf"

func startMobile(t *testing.T) {
	t.Helper()
	startMobileGated(t, nil)
}

// startMobileGated holds every eth_requestAccounts reply until gate closes.
func startMobileGated(t *testing.T, gate <-chan struct{}) {
	t.Helper()
	node := rpctest.NewServer(func(method string, params []json.RawMessage) (interface{}, *rpctest.Error) {
		switch method {
		case "eth_accounts":
			return []string{}, nil
		case "eth_requestAccounts":
			if gate != nil {
				<-gate
			}
			return []string{testAccount}, nil
		case "eth_chainId":
			return "0x4", nil
		case "eth_blockNumber":
			return "0x10", nil
		case "eth_getLogs":
			return []interface{}{}, nil
		}
		return nil, rpctest.MethodNotFound(method)
	})
	t.Cleanup(node.Close)

	yaml := fmt.Sprintf("wallet:\n  rpc_url: %s\ncontract:\n  poll_interval: 50ms\napi:\n  port: 0\n", node.URL)
	if err := Start(yaml, t.TempDir()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(Stop)
}

func TestNotRunning(t *testing.T) {
	if IsRunning() {
		t.Fatal("running before Start")
	}
	if got := GetStatus(); got != `{"running":false}` {
		t.Errorf("GetStatus = %s", got)
	}
	if got := Connect(); !strings.Contains(got, "daemon not running") {
		t.Errorf("Connect = %s", got)
	}
	if got := GetMints(5); got != `[]` {
		t.Errorf("GetMints = %s", got)
	}
}

func TestStartConnect(t *testing.T) {
	startMobile(t)

	if !IsRunning() {
		t.Fatal("not running after Start")
	}
	if GetAPIPort() == 0 {
		t.Error("API port not recorded")
	}
	if err := Start("", t.TempDir()); err == nil {
		t.Error("second Start should fail")
	}

	var status struct {
		Running bool `json:"running"`
		Panel   struct {
			ShowConnect bool `json:"show_connect"`
		} `json:"panel"`
	}
	if err := json.Unmarshal([]byte(GetStatus()), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || !status.Panel.ShowConnect {
		t.Errorf("status = %+v", status)
	}

	var view struct {
		Account  string `json:"account"`
		ShowMint bool   `json:"show_mint"`
	}
	if err := json.Unmarshal([]byte(Connect()), &view); err != nil {
		t.Fatalf("decode connect: %v", err)
	}
	if view.Account != testAccount || !view.ShowMint {
		t.Errorf("connect view = %+v", view)
	}

	if got := GetEvents(0); got != `[]` {
		t.Errorf("GetEvents = %s", got)
	}
}

func TestStopResets(t *testing.T) {
	startMobile(t)
	Stop()
	if IsRunning() || GetAPIPort() != 0 {
		t.Errorf("running=%v port=%d after Stop", IsRunning(), GetAPIPort())
	}
}

func TestPendingConnectLeavesQueriesFree(t *testing.T) {
	gate := make(chan struct{})
	startMobileGated(t, gate)

	done := make(chan string, 1)
	go func() { done <- Connect() }()

	answered := make(chan struct{})
	go func() {
		IsRunning()
		GetStatus()
		GetPanel()
		close(answered)
	}()
	select {
	case <-answered:
	case <-time.After(2 * time.Second):
		close(gate)
		t.Fatal("status calls blocked behind a pending Connect")
	}

	close(gate)
	select {
	case got := <-done:
		if !strings.Contains(got, testAccount) {
			t.Errorf("Connect = %s", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Connect did not return")
	}
}
