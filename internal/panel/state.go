package panel

// Phase tracks the last submitted mint.
type Phase string

const (
	PhaseIdle   Phase = "idle"
	PhaseMining Phase = "mining"
	PhaseMined  Phase = "mined"
)

// Toast is the counter notification's visibility class. The empty value
// means it was never shown.
type Toast string

const (
	ToastShow Toast = "show"
	ToastHide Toast = "hide"
)

// State is everything the panel renders from. It is only changed through
// the transition methods below.
type State struct {
	Account    string   `json:"account"`
	ChainID    string   `json:"chain_id"`
	MintCount  uint64   `json:"mint_count"`
	Toast      Toast    `json:"toast"`
	Phase      Phase    `json:"phase"`
	Alerts     []string `json:"alerts"`
	LastTx     string   `json:"last_tx,omitempty"`
	LastError  string   `json:"last_error,omitempty"`
	Subscribed bool     `json:"subscribed"`
}

func newState() State {
	return State{Phase: PhaseIdle}
}

// Adopt sets the connected account. An empty account is ignored; the
// connection is never cleared.
func (s *State) Adopt(account string) {
	if account == "" {
		return
	}
	s.Account = account
}

func (s *State) SetChain(id string) {
	s.ChainID = id
}

// Alert queues a blocking warning for the user.
func (s *State) Alert(msg string) {
	s.Alerts = append(s.Alerts, msg)
}

// AckAlerts drops the queued warnings and reports how many there were.
func (s *State) AckAlerts() int {
	n := len(s.Alerts)
	s.Alerts = nil
	return n
}

func (s *State) BeginMint() {
	s.Phase = PhaseMining
}

func (s *State) MintConfirmed(txHash string) {
	s.Phase = PhaseMined
	s.LastTx = txHash
	s.LastError = ""
}

// MintFailed settles a failed mint the same way as a confirmed one and
// pins the counter at the collection size.
func (s *State) MintFailed(reason string, total uint64) {
	s.Phase = PhaseMined
	s.MintCount = total
	s.LastError = reason
}

func (s *State) SetCount(n uint64) {
	s.MintCount = n
}

func (s *State) ShowToast() {
	s.Toast = ToastShow
}

func (s *State) HideToast() {
	s.Toast = ToastHide
}

// MarkSubscribed reports whether the caller should attach the listener.
func (s *State) MarkSubscribed() bool {
	if s.Subscribed {
		return false
	}
	s.Subscribed = true
	return true
}

func (s *State) ClearSubscribed() {
	s.Subscribed = false
}

func (s State) clone() State {
	if s.Alerts != nil {
		s.Alerts = append([]string(nil), s.Alerts...)
	}
	return s
}
