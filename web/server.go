package web

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/warenwerk/palletkit/feed"
	"github.com/warenwerk/palletkit/loadlist"
	"github.com/warenwerk/palletkit/logging"
	"github.com/warenwerk/palletkit/ratelimit"
	"github.com/warenwerk/palletkit/signature"
	"github.com/warenwerk/palletkit/taskapi"
	"github.com/warenwerk/palletkit/workflow"
)

// Config holds the server settings.
type Config struct {
	// Listen is the bind address, e.g. ":8080".
	Listen string

	// BaseURL is the externally reachable prefix used when building
	// scan and load-list URLs for QR codes.
	BaseURL string

	// AuthUsers maps Basic Auth username to password for the private
	// routes. Empty map means every private route answers 401.
	AuthUsers map[string]string

	// ReadTimeout bounds request reads. There is no server-wide write
	// timeout: the SSE and WebSocket feed routes hold their
	// connections open indefinitely.
	ReadTimeout time.Duration
}

// DefaultConfig returns server settings with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Listen:      ":8080",
		BaseURL:     "http://localhost:8080",
		ReadTimeout: 10 * time.Second,
	}
}

// Deps are the service components the handlers dispatch into.
type Deps struct {
	Engine    *workflow.Engine
	Signer    *signature.Signer
	Gateway   taskapi.Gateway
	Snapshots *loadlist.Store
	Limiter   ratelimit.Limiter
	Feed      feed.Feed
	Logger    *logging.Logger
}

// Server serves the scan pages and the load-list API.
type Server struct {
	config Config
	deps   Deps
	logger *logging.Logger
	tmpl   *template.Template
	srv    *http.Server
}

// NewServer builds the server and its route table.
func NewServer(config Config, deps Deps) (*Server, error) {
	if config.Listen == "" {
		config.Listen = DefaultConfig().Listen
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultConfig().BaseURL
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = DefaultConfig().ReadTimeout
	}

	tmpl, err := template.New("pages").Parse(pageTemplates)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		deps:   deps,
		logger: deps.Logger.WithComponent("web"),
		tmpl:   tmpl,
	}
	s.srv = &http.Server{
		Addr:        config.Listen,
		Handler:     s.routes(),
		ReadTimeout: config.ReadTimeout,
	}
	return s, nil
}

// Handler returns the full route table, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Public: invoked by scanning a printed QR code, no login context.
	mux.Handle("GET /scan/{taskID}", s.public(http.HandlerFunc(s.handleScanPrompt)))
	mux.Handle("POST /scan/{taskID}", s.public(http.HandlerFunc(s.handleScanAnswer)))
	mux.Handle("GET /complete/{taskID}", s.public(http.HandlerFunc(s.handleCompleteDirect)))

	// Private: warehouse office tooling.
	mux.Handle("GET /api/av/labels", s.private(http.HandlerFunc(s.handleLabels)))
	mux.Handle("POST /api/av/tasks", s.private(http.HandlerFunc(s.handleCreateTasks)))
	mux.Handle("POST /api/av/create", s.private(http.HandlerFunc(s.handleCreateList)))
	mux.Handle("GET /api/av/list/{id}", s.private(http.HandlerFunc(s.handleGetList)))
	mux.Handle("GET /api/av/search", s.private(http.HandlerFunc(s.handleSearch)))

	if s.deps.Feed != nil {
		mux.Handle("GET /events", s.private(feed.NewSSEHandler(s.deps.Feed, 30*time.Second, s.deps.Logger)))
		mux.Handle("GET /ws", s.private(feed.NewWSHandler(s.deps.Feed, s.deps.Logger)))
	}

	return s.recover(s.logRequests(mux))
}

// Start runs the server until it is shut down. Blocks.
func (s *Server) Start() error {
	s.logger.Info("listening", map[string]interface{}{"addr": s.config.Listen})
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// OnShutdown drains in-flight requests, for the shutdown coordinator.
func (s *Server) OnShutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
