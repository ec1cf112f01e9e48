package main

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

const (
	pollInterval = time.Second
	eventLimit   = 5
)

// panelAPI is what the model needs from the daemon.
type panelAPI interface {
	View() (panel.View, error)
	Connect() (panel.View, error)
	Mint() (panel.View, error)
	AckAlerts() error
	Events(limit int) ([]mintEvent, error)
}

type keyMap struct {
	Connect key.Binding
	Mint    key.Binding
	Ack     key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Connect: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "connect wallet")),
		Mint:    key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "mint NFT")),
		Ack:     key.NewBinding(key.WithKeys("a", "enter"), key.WithHelp("a", "dismiss alerts")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// -------------------- MESSAGES --------------------

type tickMsg time.Time

type refreshMsg struct {
	view   panel.View
	events []mintEvent
	err    error
}

type actionMsg struct {
	view panel.View
	err  error
}

// -------------------- MODEL --------------------

type model struct {
	api  panelAPI
	keys keyMap
	spin spinner.Model

	view    panel.View
	events  []mintEvent
	online  bool
	loaded  bool
	busy    string // in-flight action label
	lastErr string
	width   int
}

func newModel(api panelAPI) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = accentStyle
	return model{api: api, keys: defaultKeys(), spin: sp}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), tick(), m.spin.Tick)
}

func tick() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m model) refresh() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		v, err := api.View()
		if err != nil {
			return refreshMsg{err: err}
		}
		events, _ := api.Events(eventLimit)
		return refreshMsg{view: v, events: events}
	}
}

func (m model) action(fn func() (panel.View, error)) tea.Cmd {
	return func() tea.Msg {
		v, err := fn()
		return actionMsg{view: v, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Connect):
			if m.busy != "" || !m.view.ShowConnect {
				return m, nil
			}
			m.busy = "Connecting to wallet..."
			return m, m.action(m.api.Connect)
		case key.Matches(msg, m.keys.Mint):
			if m.busy != "" || !m.view.ShowMint || m.view.ShowLoading {
				return m, nil
			}
			m.busy = "Going to pop wallet now to pay gas..."
			return m, m.action(m.api.Mint)
		case key.Matches(msg, m.keys.Ack):
			if len(m.view.Alerts) == 0 {
				return m, nil
			}
			api := m.api
			return m, m.action(func() (panel.View, error) {
				if err := api.AckAlerts(); err != nil {
					return panel.View{}, err
				}
				return api.View()
			})
		}
		return m, nil

	case refreshMsg:
		if msg.err != nil {
			m.online = false
			return m, nil
		}
		m.online, m.loaded = true, true
		m.view = msg.view
		m.events = msg.events
		return m, nil

	case actionMsg:
		m.busy = ""
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			return m, m.refresh()
		}
		m.lastErr = ""
		m.view = msg.view
		m.loaded = true
		return m, m.refresh()

	case tickMsg:
		return m, tea.Batch(m.refresh(), tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}
