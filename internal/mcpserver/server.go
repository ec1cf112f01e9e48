package mcpserver

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

// DaemonInfo provides read-only access to daemon state for MCP tools.
type DaemonInfo interface {
	NodeID() string
	Uptime() time.Duration
	WalletStatus() map[string]interface{}
	ContractStatus() map[string]interface{}
}

// PanelController is the slice of the panel the tools drive.
type PanelController interface {
	View() panel.View
	Connect(ctx context.Context) error
	Mint(ctx context.Context) error
	MintAsync() error
}

// MCPServer wraps the MCP protocol server with mint panel tools.
type MCPServer struct {
	server *mcp.Server
	daemon DaemonInfo
	panel  PanelController
}

// New creates an MCP server with all mint panel tools registered.
func New(version string, daemon DaemonInfo, p PanelController) *MCPServer {
	s := &MCPServer{
		daemon: daemon,
		panel:  p,
		server: mcp.NewServer(
			&mcp.Implementation{
				Name:    "mintpanel",
				Version: version,
			},
			&mcp.ServerOptions{
				Instructions: "MintPanel NFT mint daemon. Provides tools to inspect the panel, connect the wallet, mint an NFT and list mint history.",
			},
		),
	}
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects.
func (s *MCPServer) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
