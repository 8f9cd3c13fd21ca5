package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rickgao/marketstream/internal/hub"
	"github.com/rickgao/marketstream/internal/metrics"
	"github.com/rickgao/marketstream/internal/publisher"
	"github.com/rickgao/marketstream/internal/version"
)

// Config holds HTTP server settings.
type Config struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MetricsPath  string
}

// Pinger reports backing-store health. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Hub       hub.Hub
	HubConfig hub.Config
	Publisher publisher.Publisher
	Recorder  *metrics.Recorder
	Gatherer  prometheus.Gatherer
	DB        Pinger // nil when no journal database is configured
}

// Server is the streamd HTTP server.
type Server struct {
	cfg    Config
	logger *slog.Logger
	deps   Deps

	upgrader websocket.Upgrader
	httpSrv  *http.Server
	started  time.Time
}

// New creates a Server.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		logger: logger,
		deps:   deps,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}

	s.httpSrv = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/orders", s.handleOrders)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/health", s.handleHealth)

	metricsPath := s.cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	mux.Handle(metricsPath, promhttp.HandlerFor(s.deps.Gatherer, promhttp.HandlerOpts{}))

	return mux
}

// Start begins serving. Returns once the listener stops.
func (s *Server) Start() error {
	s.started = time.Now()
	s.logger.Info("http server started", "addr", s.httpSrv.Addr)

	if err := s.httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping http server")
	return s.httpSrv.Shutdown(ctx)
}

// handleOrders accepts one order placement request.
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req publisher.OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return
	}

	ack, err := s.deps.Publisher.Submit(r.Context(), req)
	if err != nil {
		var verr *publisher.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": verr.Error()})
			return
		}
		s.logger.Error("order submission failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, ack)
}

// handleWS upgrades a subscriber connection and starts its session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	var userID uint32
	if v := r.URL.Query().Get("user_id"); v != "" {
		parsed, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			s.logger.Debug("ignoring bad user_id", "value", v)
		} else {
			userID = uint32(parsed)
		}
	}

	sess := hub.NewSession(conn, userID, s.deps.HubConfig, s.deps.Recorder, s.logger)
	if err := s.deps.Hub.Register(sess); err != nil {
		s.logger.Warn("session register failed", "error", err)
		conn.Close()
		return
	}
	sess.Start()
}

// handleStats reports runtime statistics.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"active_connections": s.deps.Hub.Stats().Sessions,
		"uptime_seconds":     time.Since(s.started).Seconds(),
		"timestamp":          time.Now(),
		"version":            version.Version,
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleHealth reports component health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := struct {
		Status     string         `json:"status"`
		Components map[string]any `json:"components"`
	}{
		Status:     "healthy",
		Components: make(map[string]any),
	}

	health.Components["hub"] = map[string]any{
		"sessions": s.deps.Hub.Stats().Sessions,
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Ping(ctx); err != nil {
			health.Status = "degraded"
			health.Components["postgres"] = map[string]string{
				"status": "disconnected",
				"error":  err.Error(),
			}
		} else {
			health.Components["postgres"] = "connected"
		}
	}

	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, health)
}

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
