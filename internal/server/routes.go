package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/b0ase/path402/apps/mintpanel/internal/db"
	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
	"github.com/b0ase/path402/apps/mintpanel/internal/wallet"
)

// connectTimeout bounds how long a connect request waits on the wallet.
const connectTimeout = 2 * time.Minute

func (s *Server) registerRoutes(r chi.Router) {
	r.Get("/", s.handleDashboard)
	r.Get("/health", s.handleHealth)
	r.Get("/status", s.handleStatus)
	r.Route("/api", func(r chi.Router) {
		r.Get("/panel", s.handlePanel)
		r.Post("/connect", s.handleConnect)
		r.Post("/mint", s.handleMint)
		r.Get("/mints", s.handleMints)
		r.Get("/events", s.handleEvents)
		r.Post("/alerts/ack", s.handleAckAlerts)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSONStatus(w, code, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def, max int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return def
	}
	if max > 0 && v > max {
		return max
	}
	return v
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	nodeID := s.daemon.NodeID()
	if len(nodeID) > 16 {
		nodeID = nodeID[:16]
	}
	writeJSON(w, map[string]interface{}{
		"status":    "ok",
		"version":   "0.1.0",
		"node_id":   nodeID,
		"uptime_ms": s.daemon.Uptime().Milliseconds(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	attempts, _ := db.CountMintAttempts()
	events, _ := db.CountMintEvents()

	writeJSON(w, map[string]interface{}{
		"node_id":   s.daemon.NodeID(),
		"uptime_ms": s.daemon.Uptime().Milliseconds(),
		"wallet":    s.daemon.WalletStatus(),
		"contract":  s.daemon.ContractStatus(),
		"panel":     s.panel.View(),
		"journal": map[string]interface{}{
			"attempts": attempts,
			"events":   events,
		},
	})
}

func (s *Server) handlePanel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.panel.View())
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), connectTimeout)
	defer cancel()

	if err := s.panel.Connect(ctx); err != nil {
		switch {
		case errors.Is(err, wallet.ErrNoProvider):
			writeError(w, http.StatusServiceUnavailable, err.Error())
		case errors.Is(err, wallet.ErrUserRejected):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}
	writeJSON(w, s.panel.View())
}

func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	if err := s.panel.MintAsync(); err != nil {
		if errors.Is(err, panel.ErrNotConnected) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSONStatus(w, http.StatusAccepted, s.panel.View())
}

func (s *Server) handleMints(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20, 200)
	offset := queryInt(r, "offset", 0, 0)

	attempts, err := db.GetRecentMintAttempts(limit, offset)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if attempts == nil {
		attempts = []db.MintAttempt{}
	}
	writeJSON(w, attempts)
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	events, err := db.GetRecentMintEvents(queryInt(r, "limit", 20, 200))
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if events == nil {
		events = []db.MintEvent{}
	}
	writeJSON(w, events)
}

func (s *Server) handleAckAlerts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]int{"acknowledged": s.panel.AckAlerts()})
}
