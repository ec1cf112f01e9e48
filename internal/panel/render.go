package panel

import (
	"fmt"
	"strings"

	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

const (
	Title   = "My NFT Collection"
	SubText = "Each unique. Each beautiful. Discover your NFT today."
)

// Links are the static anchors always shown on the panel.
type Links struct {
	TwitterHandle string `json:"twitter_handle"`
	TwitterURL    string `json:"twitter_url"`
	OpenSeaURL    string `json:"opensea_url"`
}

// View is the render-ready projection of State.
type View struct {
	Title          string   `json:"title"`
	SubText        string   `json:"sub_text"`
	Account        string   `json:"account"`
	ChainID        string   `json:"chain_id"`
	WrongNetwork   bool     `json:"wrong_network"`
	ShowConnect    bool     `json:"show_connect"`
	ShowMint       bool     `json:"show_mint"`
	ShowLoading    bool     `json:"show_loading"`
	Phase          Phase    `json:"phase"`
	Toast          Toast    `json:"toast"`
	MintCount      uint64   `json:"mint_count"`
	TotalMintCount uint64   `json:"total_mint_count"`
	Counter        string   `json:"counter"`
	Alerts         []string `json:"alerts"`
	LastTx         string   `json:"last_tx,omitempty"`
	TxURL          string   `json:"tx_url,omitempty"`
	LastError      string   `json:"last_error,omitempty"`
	Links          Links    `json:"links"`
}

// Render projects s for display. It has no side effects.
func Render(s State, cfg Config) View {
	v := View{
		Title:          Title,
		SubText:        SubText,
		Account:        s.Account,
		ChainID:        s.ChainID,
		ShowConnect:    s.Account == "",
		ShowMint:       s.Account != "",
		ShowLoading:    s.Phase == PhaseMining,
		Phase:          s.Phase,
		Toast:          s.Toast,
		MintCount:      s.MintCount,
		TotalMintCount: cfg.TotalMintCount,
		Counter:        fmt.Sprintf("%d/%d NFTs minted so far", s.MintCount, cfg.TotalMintCount),
		Alerts:         append([]string{}, s.Alerts...),
		LastTx:         s.LastTx,
		LastError:      s.LastError,
		Links:          cfg.Links,
	}
	if s.ChainID != "" && cfg.ExpectedChainID != "" {
		v.WrongNetwork = !wallet.SameChain(s.ChainID, cfg.ExpectedChainID)
	}
	if s.LastTx != "" {
		v.TxURL = TxURL(cfg.ExplorerURL, s.LastTx)
	}
	return v
}

// TxURL links a transaction on the block explorer.
func TxURL(explorer, txHash string) string {
	if explorer == "" {
		return ""
	}
	return strings.TrimRight(explorer, "/") + "/tx/" + txHash
}
