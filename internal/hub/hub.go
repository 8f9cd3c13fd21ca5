package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/rickgao/marketstream/internal/metrics"
	"github.com/rickgao/marketstream/internal/model"
)

// Broadcaster is the producer-facing side of the hub.
type Broadcaster interface {
	// Broadcast delivers an event to every registered session
	// subscribed to the event's symbol. It never blocks on a slow
	// session; a session with a full queue is shed instead.
	Broadcast(event model.MarketEvent)
}

// Hub owns the registry of live subscriber sessions.
type Hub interface {
	Broadcaster

	// Register adds a session to the registry and activates it.
	// Registering the same session twice is an error.
	Register(s *Session) error

	// Unregister removes a session and closes its outbound queue.
	// Idempotent: unregistering an absent session is a no-op.
	Unregister(s *Session)

	// Stats returns current registry statistics.
	Stats() Stats

	// Close unregisters every session and rejects further registers.
	Close()
}

// hub implements the Hub interface.
type hub struct {
	cfg    Config
	logger *slog.Logger
	rec    *metrics.Recorder

	mu       sync.RWMutex
	sessions map[*Session]struct{}
	closed   bool
}

// New creates a new Hub.
func New(cfg Config, rec *metrics.Recorder, logger *slog.Logger) Hub {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop()
	}

	return &hub{
		cfg:      cfg,
		logger:   logger,
		rec:      rec,
		sessions: make(map[*Session]struct{}),
	}
}

// Register adds a session to the registry.
func (h *hub) Register(s *Session) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return ErrHubClosed
	}
	if _, ok := h.sessions[s]; ok {
		h.mu.Unlock()
		h.logger.Warn("duplicate register ignored", "session_id", s.ID)
		return ErrAlreadyRegistered
	}
	s.hub = h
	h.sessions[s] = struct{}{}
	h.mu.Unlock()

	s.setState(StateActive)
	h.logger.Debug("session registered", "session_id", s.ID, "user_id", s.UserID)
	return nil
}

// Unregister removes a session from the registry.
func (h *hub) Unregister(s *Session) {
	h.mu.Lock()
	_, ok := h.sessions[s]
	if ok {
		delete(h.sessions, s)
	}
	h.mu.Unlock()

	if !ok {
		return
	}

	s.closeQueue()
	h.logger.Debug("session unregistered", "session_id", s.ID, "user_id", s.UserID)
}

// Broadcast fans out one event to all matching sessions.
func (h *hub) Broadcast(event model.MarketEvent) {
	start := time.Now()
	h.rec.EventPublished(event.Kind)

	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", "kind", event.Kind, "error", err)
		return
	}

	// Snapshot matching sessions so enqueueing happens outside the
	// registry lock.
	h.mu.RLock()
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		if s.subscribedTo(event.Symbol) {
			targets = append(targets, s)
		}
	}
	h.mu.RUnlock()

	delivered := 0
	for _, s := range targets {
		switch s.tryEnqueue(data) {
		case nil:
			delivered++
		case ErrQueueFull:
			h.logger.Warn("session queue full, shedding",
				"session_id", s.ID,
				"user_id", s.UserID,
			)
			h.rec.SessionShed()
			h.Unregister(s)
		default:
			// Queue already closed: session is draining, skip.
		}
	}

	if delivered > 0 {
		h.rec.MessagesStreamed(event.Kind, delivered)
	}
	h.rec.ObserveLatency(metrics.OpBroadcast, time.Since(start))
}

// Stats returns current registry statistics.
func (h *hub) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{Sessions: len(h.sessions)}
}

// Close shuts down the hub and every registered session.
func (h *hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	targets := make([]*Session, 0, len(h.sessions))
	for s := range h.sessions {
		targets = append(targets, s)
	}
	h.sessions = make(map[*Session]struct{})
	h.mu.Unlock()

	for _, s := range targets {
		s.closeQueue()
	}

	h.logger.Info("hub closed", "sessions", len(targets))
}
