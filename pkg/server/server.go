package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/nestroute/internal/errors"
	"github.com/vango-dev/nestroute/pkg/manifest"
)

// ErrNoManifest is returned while no manifest has been loaded.
var ErrNoManifest = stderrors.New("server: no manifest loaded")

// Server serves route trees to WebSocket clients.
type Server struct {
	config   *Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	catalog  atomic.Pointer[Catalog]

	mu    sync.Mutex
	conns map[*conn]struct{}

	httpServer *http.Server
}

// New creates a Server. A nil config uses DefaultConfig.
func New(config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	}
	config.applyDefaults()

	s := &Server{
		config: config,
		logger: config.Logger,
		conns:  make(map[*conn]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// SetManifest validates m and serves it to new connections.
func (s *Server) SetManifest(m *manifest.Manifest) error {
	c, err := NewCatalog(m)
	if err != nil {
		return err
	}
	s.catalog.Store(c)
	s.logger.Info("manifest loaded", "source", m.Source, "routes", len(c.Routes()))
	return nil
}

// Catalog returns the catalog of the current manifest, or nil.
func (s *Server) Catalog() *Catalog {
	return s.catalog.Load()
}

// Connections returns the number of open WebSocket connections.
func (s *Server) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}

// Handler returns the HTTP handler with every endpoint mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)

	r.Get(s.config.WSPath, s.HandleWebSocket)
	r.Get("/routes", s.handleRoutes)
	r.Get("/match", s.handleMatch)
	r.Get("/healthz", s.handleHealth)
	if s.config.Gatherer != nil {
		r.Method(http.MethodGet, s.config.MetricsPath,
			promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// HandleWebSocket upgrades the request and runs the connection until it
// closes. The initial segment is taken from the "segment" query parameter.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Load()
	if cat == nil {
		http.Error(w, ErrNoManifest.Error(), http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		s.logger.Debug("upgrade failed", "error", err)
		return
	}

	segment, err := canonical(r.URL.Query().Get("segment"))
	if err != nil {
		segment = "/"
	}

	c := newConn(s, ws)
	s.track(c, true)
	defer s.track(c, false)

	go c.writeLoop()

	// Transitions run on this goroutine, bounded by the request.
	ctx := r.Context()
	if err := c.start(ctx, cat.Manifest(), segment); err != nil {
		c.logger.Warn("session start failed", "error", err)
		c.sendError(err, "R304")
	}
	if c.router != nil {
		defer c.router.Stop()
	}

	c.readLoop(ctx)
}

func (s *Server) track(c *conn, open bool) {
	s.mu.Lock()
	if open {
		s.conns[c] = struct{}{}
	} else {
		delete(s.conns, c)
	}
	s.mu.Unlock()

	if m := s.config.Metrics; m != nil {
		if open {
			m.ConnectionOpened()
		} else {
			m.ConnectionClosed()
		}
	}
	if open {
		c.logger.Info("connection opened")
	} else {
		c.logger.Info("connection closed")
	}
}

// checkOrigin accepts requests without an Origin header, same-origin
// requests and the configured origins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	allowed := s.config.AllowedOrigins
	if slices.Contains(allowed, "*") || slices.Contains(allowed, origin) {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	s.logger.Warn("origin rejected",
		"code", "R303",
		"origin", origin,
		"remote", r.RemoteAddr)
	if m := s.config.Metrics; m != nil {
		m.ProtocolError("origin")
	}
	return false
}

type routesResponse struct {
	Version int         `json:"version"`
	Source  string      `json:"source,omitempty"`
	Routes  []RouteInfo `json:"routes"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Load()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("R201").Wrap(ErrNoManifest))
		return
	}
	writeJSON(w, http.StatusOK, routesResponse{
		Version: cat.Manifest().Version,
		Source:  cat.Manifest().Source,
		Routes:  cat.Routes(),
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	cat := s.catalog.Load()
	if cat == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("R201").Wrap(ErrNoManifest))
		return
	}
	segment := r.URL.Query().Get("segment")
	if segment == "" {
		writeError(w, http.StatusBadRequest, errors.New("R301").WithDetail("missing segment query parameter"))
		return
	}

	res, err := cat.Match(segment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errors.Classify(err, "R304"))
		return
	}
	status := http.StatusOK
	if !res.Matched {
		status = http.StatusNotFound
	}
	writeJSON(w, status, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.catalog.Load() == nil {
		http.Error(w, "no manifest", http.StatusServiceUnavailable)
		return
	}
	w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, err *errors.RouterdError) {
	writeJSON(w, status, err)
}

// Run serves on the configured address until ctx is done, then shuts
// down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("server starting", "address", s.config.Address)
		if err := s.httpServer.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			return errors.New("R401").Wrap(err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down...")
		return s.Shutdown(context.WithoutCancel(ctx))
	})
	return g.Wait()
}

// Shutdown closes every connection and stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	conns := make([]*conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.close()
	}

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}
	if c := s.catalog.Load(); c != nil {
		c.Close()
	}

	s.logger.Info("server shutdown complete")
	return nil
}
