// Package rpctest serves canned Ethereum JSON-RPC responses over HTTP for
// tests of the wallet provider and the contract binding.
package rpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Handler answers one call. Returning a non-nil *Error replies with it.
type Handler func(method string, params []json.RawMessage) (interface{}, *Error)

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *Error          `json:"error,omitempty"`
}

// Server is an httptest server that records the methods it was called with.
type Server struct {
	*httptest.Server
	mu    sync.Mutex
	calls map[string]int
}

// NewServer starts a JSON-RPC server backed by h. Unknown methods should be
// answered by h with code -32601.
func NewServer(h Handler) *Server {
	s := &Server{calls: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.calls[req.Method]++
		s.mu.Unlock()

		result, rpcErr := h(req.Method, req.Params)
		resp := response{JSONRPC: "2.0", ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
		} else {
			resp.Result = result
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	return s
}

// Calls returns how many times method was invoked.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// MethodNotFound is the standard reply for unhandled methods.
func MethodNotFound(method string) *Error {
	return &Error{Code: -32601, Message: "the method " + method + " does not exist/is not available"}
}
