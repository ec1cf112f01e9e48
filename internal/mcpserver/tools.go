package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/b0ase/path402/apps/mintpanel/internal/db"
)

// --- Input types ---

type emptyInput struct{}

type mintInput struct {
	Wait bool `json:"wait,omitempty" jsonschema:"block until the transaction is mined or fails"`
}

type historyInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"max number of attempts and events to return (default 10)"`
}

// mintWaitTimeout bounds a blocking mint so a stuck transaction cannot hang the session.
var mintWaitTimeout = 10 * time.Minute

// registerTools adds all mint panel MCP tools to the server.
func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mintpanel_status",
		Description: "Panel status: account, network, mint counter, mint phase, alerts, last transaction",
	}, s.handleStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mintpanel_connect",
		Description: "Request wallet account access and attach the mint listener",
	}, s.handleConnect)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mintpanel_mint",
		Description: "Submit a mint from the connected account; set wait to block until it settles",
	}, s.handleMint)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "mintpanel_history",
		Description: "Recent mint attempts and observed NewEpicNFTMinted events",
	}, s.handleHistory)
}

// --- Handlers ---

func (s *MCPServer) handleStatus(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	v := s.panel.View()

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", v.Title)
	fmt.Fprintf(&b, "**Node ID:** `%s`\n", s.daemon.NodeID())
	fmt.Fprintf(&b, "**Uptime:** %s\n\n", s.daemon.Uptime().Round(time.Second))

	fmt.Fprintf(&b, "## Wallet\n")
	if v.Account == "" {
		fmt.Fprintf(&b, "- Account: not connected\n")
	} else {
		fmt.Fprintf(&b, "- Account: `%s`\n", v.Account)
	}
	if v.ChainID != "" {
		fmt.Fprintf(&b, "- Chain: %s", v.ChainID)
		if v.WrongNetwork {
			fmt.Fprintf(&b, " (wrong network)")
		}
		fmt.Fprintf(&b, "\n")
	}
	for k, val := range s.daemon.WalletStatus() {
		fmt.Fprintf(&b, "- %s: %v\n", k, val)
	}

	fmt.Fprintf(&b, "\n## Collection\n")
	fmt.Fprintf(&b, "- %s\n", v.Counter)
	fmt.Fprintf(&b, "- Phase: %s\n", v.Phase)
	if v.TxURL != "" {
		fmt.Fprintf(&b, "- Last transaction: %s\n", v.TxURL)
	} else if v.LastTx != "" {
		fmt.Fprintf(&b, "- Last transaction: `%s`\n", v.LastTx)
	}
	if v.LastError != "" {
		fmt.Fprintf(&b, "- Last error: %s\n", v.LastError)
	}
	for k, val := range s.daemon.ContractStatus() {
		fmt.Fprintf(&b, "- %s: %v\n", k, val)
	}

	if len(v.Alerts) > 0 {
		fmt.Fprintf(&b, "\n## Alerts\n")
		for _, a := range v.Alerts {
			fmt.Fprintf(&b, "- %s\n", a)
		}
	}

	return textResult(b.String()), nil, nil
}

func (s *MCPServer) handleConnect(ctx context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, any, error) {
	if err := s.panel.Connect(ctx); err != nil {
		return errResult(fmt.Sprintf("connect failed: %v", err)), nil, nil
	}
	v := s.panel.View()
	return textResult(fmt.Sprintf("Connected.\n\n- **Account:** `%s`\n- **Chain:** %s", v.Account, v.ChainID)), nil, nil
}

func (s *MCPServer) handleMint(ctx context.Context, _ *mcp.CallToolRequest, input mintInput) (*mcp.CallToolResult, any, error) {
	if !input.Wait {
		if err := s.panel.MintAsync(); err != nil {
			return errResult(fmt.Sprintf("mint failed: %v", err)), nil, nil
		}
		return textResult("Mint submitted. Mining...please wait.\n\nCall `mintpanel_status` to follow the phase."), nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, mintWaitTimeout)
	defer cancel()
	if err := s.panel.Mint(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return textResult("Mint submitted, still mining.\n\nCall `mintpanel_status` to follow the phase."), nil, nil
		}
		return errResult(fmt.Sprintf("mint failed: %v", err)), nil, nil
	}

	v := s.panel.View()
	if v.LastError != "" {
		return errResult(fmt.Sprintf("mint failed: %s\n\n%s", v.LastError, v.Counter)), nil, nil
	}
	link := v.TxURL
	if link == "" {
		link = v.LastTx
	}
	return textResult(fmt.Sprintf("Mined, see transaction: %s", link)), nil, nil
}

func (s *MCPServer) handleHistory(_ context.Context, _ *mcp.CallToolRequest, input historyInput) (*mcp.CallToolResult, any, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	attempts, err := db.GetRecentMintAttempts(limit, 0)
	if err != nil {
		return errResult(fmt.Sprintf("failed to read attempts: %v", err)), nil, nil
	}
	events, err := db.GetRecentMintEvents(limit)
	if err != nil {
		return errResult(fmt.Sprintf("failed to read events: %v", err)), nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Mint History\n\n## Attempts (%d)\n", len(attempts))
	if len(attempts) == 0 {
		fmt.Fprintf(&b, "No mint attempts yet.\n")
	}
	for _, a := range attempts {
		fmt.Fprintf(&b, "- %s `%s` %s", time.UnixMilli(a.StartedAt).UTC().Format(time.RFC3339), a.Account, a.Status)
		if a.TxHash != nil {
			fmt.Fprintf(&b, " tx `%s`", *a.TxHash)
		}
		if a.Error != nil {
			fmt.Fprintf(&b, " (%s)", *a.Error)
		}
		fmt.Fprintf(&b, "\n")
	}

	fmt.Fprintf(&b, "\n## Minted Events (%d)\n", len(events))
	if len(events) == 0 {
		fmt.Fprintf(&b, "No minted events observed yet.\n")
	}
	for _, e := range events {
		fmt.Fprintf(&b, "- token #%s from `%s` at block %d\n", e.TokenID, e.FromAddress, e.BlockNumber)
	}

	return textResult(b.String()), nil, nil
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
