package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

// -------------------- THEME (Lip Gloss) --------------------

var (
	cAccent = lipgloss.Color("208")
	cMuted  = lipgloss.Color("244")
	cText   = lipgloss.Color("255")
	cWarn   = lipgloss.Color("203")
	cOK     = lipgloss.Color("42")

	appStyle    = lipgloss.NewStyle().Padding(1, 2)
	titleStyle  = lipgloss.NewStyle().Foreground(cAccent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(cMuted)
	textStyle   = lipgloss.NewStyle().Foreground(cText)
	accentStyle = lipgloss.NewStyle().Foreground(cAccent)
	warnStyle   = lipgloss.NewStyle().Foreground(cWarn).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(cOK)
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(cAccent).
			Bold(true).
			Padding(0, 2)
	toastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(cAccent).
			Padding(0, 1)
	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(cWarn).
			Foreground(cWarn).
			Padding(0, 1)
)

func shortHash(s string) string {
	if len(s) <= 14 {
		return s
	}
	return s[:8] + "…" + s[len(s)-4:]
}

func (m model) View() string {
	var b strings.Builder

	if !m.loaded {
		if m.online {
			b.WriteString(m.spin.View() + " Loading panel...\n")
		} else {
			b.WriteString(warnStyle.Render("mintpaneld is offline") + "\n")
			b.WriteString(mutedStyle.Render("Start it with `mintpaneld` and this screen will pick it up.") + "\n\n")
			b.WriteString(mutedStyle.Render("q quit"))
		}
		return appStyle.Render(b.String())
	}

	v := m.view
	b.WriteString(titleStyle.Render(v.Title) + "\n")
	b.WriteString(mutedStyle.Render(v.SubText) + "\n\n")

	if v.Toast == panel.ToastShow {
		b.WriteString(toastStyle.Render(v.Counter) + "\n\n")
	}

	for _, a := range v.Alerts {
		b.WriteString(alertStyle.Render(a) + "\n")
	}
	if len(v.Alerts) > 0 {
		b.WriteString(mutedStyle.Render("a dismiss") + "\n\n")
	}

	if v.Account == "" {
		b.WriteString(mutedStyle.Render("Account  ") + textStyle.Render("not connected") + "\n")
	} else {
		b.WriteString(mutedStyle.Render("Account  ") + textStyle.Render(v.Account) + "\n")
	}
	if v.ChainID != "" {
		chain := okStyle.Render(v.ChainID)
		if v.WrongNetwork {
			chain = warnStyle.Render(v.ChainID + " (wrong network)")
		}
		b.WriteString(mutedStyle.Render("Chain    ") + chain + "\n")
	}
	b.WriteString(mutedStyle.Render("Minted   ") + accentStyle.Render(fmt.Sprintf("%d/%d", v.MintCount, v.TotalMintCount)) + "\n\n")

	switch {
	case v.ShowConnect:
		b.WriteString(buttonStyle.Render("c  Connect to Wallet") + "\n")
	case v.ShowMint:
		b.WriteString(buttonStyle.Render("m  Mint NFT") + "\n")
	}

	if m.busy != "" {
		b.WriteString("\n" + m.spin.View() + " " + m.busy + "\n")
	} else if v.ShowLoading {
		b.WriteString("\n" + m.spin.View() + " Mining...please wait.\n")
	}

	if v.TxURL != "" {
		b.WriteString("\n" + okStyle.Render("Mined, see transaction: ") + textStyle.Render(v.TxURL) + "\n")
	}
	if v.LastError != "" {
		b.WriteString("\n" + warnStyle.Render("Last mint failed: ") + textStyle.Render(v.LastError) + "\n")
	}
	if m.lastErr != "" {
		b.WriteString("\n" + warnStyle.Render(m.lastErr) + "\n")
	}

	if len(m.events) > 0 {
		b.WriteString("\n" + mutedStyle.Render("Recent mints") + "\n")
		for _, e := range m.events {
			b.WriteString(fmt.Sprintf("  #%-4s %s  block %d\n", e.TokenID, shortHash(e.FromAddress), e.BlockNumber))
		}
	}

	b.WriteString("\n" + accentStyle.Render("View Collection on OpenSea") + " " + mutedStyle.Render(v.Links.OpenSeaURL) + "\n")
	b.WriteString(mutedStyle.Render("@"+v.Links.TwitterHandle+"  "+v.Links.TwitterURL) + "\n")

	status := okStyle.Render("● online")
	if !m.online {
		status = warnStyle.Render("● offline")
	}
	b.WriteString("\n" + status + "  " + mutedStyle.Render("c connect · m mint · q quit"))

	return appStyle.Render(b.String())
}
