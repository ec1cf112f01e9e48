package server

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/b0ase/path402/apps/mintpanel/internal/panel"
)

// DaemonInfo provides read-only access to daemon state for the API.
type DaemonInfo interface {
	NodeID() string
	Uptime() time.Duration
	WalletStatus() map[string]interface{}
	ContractStatus() map[string]interface{}
}

// PanelController is the slice of the panel the API drives.
type PanelController interface {
	View() panel.View
	Connect(ctx context.Context) error
	MintAsync() error
	AckAlerts() int
}

// Server is the HTTP dashboard and JSON API for the mint panel daemon.
type Server struct {
	httpSrv *http.Server
	daemon  DaemonInfo
	panel   PanelController
	bind    string
	port    int
}

// New creates an HTTP server.
func New(bind string, port int, daemon DaemonInfo, p PanelController) *Server {
	s := &Server{daemon: daemon, panel: p, bind: bind, port: port}
	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed API, for mounting or httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	// Only the dashboard served from this address may call the API from a browser.
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: sameOrigin,
		AllowedMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:  []string{"Content-Type"},
		MaxAge:          300,
	}))
	r.Use(guardWrites)
	s.registerRoutes(r)
	return r
}

func sameOrigin(r *http.Request, origin string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Host == r.Host
}

// guardWrites refuses POSTs from foreign origins and POSTs that are not
// JSON. A JSON content type makes browsers preflight, which CORS then denies.
func guardWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			if origin := r.Header.Get("Origin"); origin != "" && !sameOrigin(r, origin) {
				log.Printf("[api] Refused %s %s from origin %s", r.Method, r.URL.Path, origin)
				writeError(w, http.StatusForbidden, "cross-origin request refused")
				return
			}
			mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if mt != "application/json" {
				writeError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Start pre-acquires the port and begins serving HTTP requests.
// If the primary port is in use, it falls back to port+1.
// Returns the actual port bound.
func (s *Server) Start() (int, error) {
	addr := fmt.Sprintf("%s:%d", s.bind, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		// Try fallback port
		fallbackPort := s.port + 1
		fallbackAddr := fmt.Sprintf("%s:%d", s.bind, fallbackPort)
		ln, err = net.Listen("tcp", fallbackAddr)
		if err != nil {
			return 0, fmt.Errorf("listen on %s and fallback %s: %w", addr, fallbackAddr, err)
		}
		log.Printf("[api] WARNING: Using fallback port %d (primary %d was in use)", fallbackPort, s.port)
		s.port = fallbackPort
	}
	if s.port == 0 {
		s.port = ln.Addr().(*net.TCPAddr).Port
	}

	log.Printf("[api] HTTP API listening on %s:%d", s.bind, s.port)
	go func() {
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()
	return s.port, nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.httpSrv.Shutdown(ctx)
	log.Println("[api] HTTP server stopped")
}
