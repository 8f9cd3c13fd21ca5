package hub

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rickgao/marketstream/internal/metrics"
)

var newline = []byte{'\n'}

// Session is one subscriber's live connection: its transport, its
// bounded outbound queue, and its subscription set.
//
// Two goroutines serve a started session: readPump consumes control
// frames and owns the subscription set; writePump drains the queue to
// the transport. Closing the queue is the only termination signal;
// both pumps observe it and exit.
type Session struct {
	ID     string
	UserID uint32

	cfg    Config
	logger *slog.Logger
	rec    *metrics.Recorder

	hub  Hub // set by Register
	conn *websocket.Conn

	send chan []byte

	mu          sync.Mutex
	state       SessionState
	queueClosed bool
	symbols     map[string]struct{}

	unregOnce sync.Once
	loops     atomic.Int32
}

// NewSession creates a session for an upgraded connection. The session
// is in the Connecting state until registered with a hub.
func NewSession(conn *websocket.Conn, userID uint32, cfg Config, rec *metrics.Recorder, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	if rec == nil {
		rec = metrics.Nop()
	}

	s := &Session{
		ID:      uuid.NewString(),
		UserID:  userID,
		cfg:     cfg,
		rec:     rec,
		conn:    conn,
		send:    make(chan []byte, cfg.QueueSize),
		state:   StateConnecting,
		symbols: make(map[string]struct{}),
	}
	s.logger = logger.With("session_id", s.ID)

	rec.ConnInc(StateConnecting.String())
	return s
}

// Start launches the session's reader and writer goroutines. The
// session must be registered first.
func (s *Session) Start() {
	s.loops.Store(2)
	go s.writePump()
	go s.readPump()
}

// State returns the session's current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe adds symbols to the session's subscription set.
func (s *Session) Subscribe(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
}

// Unsubscribe removes symbols from the session's subscription set.
func (s *Session) Unsubscribe(symbols ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sym := range symbols {
		delete(s.symbols, sym)
	}
}

// subscribedTo reports whether the session should receive events for
// the given symbol. An empty symbol is a global event.
func (s *Session) subscribedTo(symbol string) bool {
	if symbol == "" {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.symbols[symbol]
	return ok
}

// tryEnqueue places data on the outbound queue without blocking.
// Returns ErrQueueFull if the queue is at capacity and ErrQueueClosed
// if the session is already draining.
func (s *Session) tryEnqueue(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.queueClosed {
		return ErrQueueClosed
	}

	select {
	case s.send <- data:
		return nil
	default:
		return ErrQueueFull
	}
}

// closeQueue closes the outbound queue exactly once. The writer pump
// flushes whatever is already queued, then releases the transport.
func (s *Session) closeQueue() {
	s.mu.Lock()
	if s.queueClosed {
		s.mu.Unlock()
		return
	}
	s.queueClosed = true
	close(s.send)
	s.mu.Unlock()

	s.setState(StateDraining)
}

// setState transitions the session state and keeps the connection
// gauge in sync. Closed is terminal.
func (s *Session) setState(next SessionState) {
	s.mu.Lock()
	prev := s.state
	if prev == next || prev == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = next
	s.mu.Unlock()

	s.rec.ConnDec(prev.String())
	if next != StateClosed {
		s.rec.ConnInc(next.String())
	}
}

// terminate unregisters the session from its hub. Safe to call from
// either pump; the hub's Unregister is idempotent regardless.
func (s *Session) terminate() {
	s.unregOnce.Do(func() {
		if s.hub != nil {
			s.hub.Unregister(s)
		}
	})
}

// loopDone marks one pump as exited; the last one out closes the state.
func (s *Session) loopDone() {
	if s.loops.Add(-1) == 0 {
		s.setState(StateClosed)
	}
}

// writePump drains the outbound queue to the transport, coalescing
// queued messages into a single write, and sends keepalive pings when
// the connection is idle.
func (s *Session) writePump() {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		s.loopDone()
	}()

	for {
		select {
		case data, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if !ok {
				// Queue closed and fully drained.
				s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			w, err := s.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				s.terminate()
				return
			}
			w.Write(data)

			// Coalesce whatever else is already queued into this write.
			n := len(s.send)
			for i := 0; i < n; i++ {
				more, ok := <-s.send
				if !ok {
					break
				}
				w.Write(newline)
				w.Write(more)
			}

			if err := w.Close(); err != nil {
				s.terminate()
				return
			}
			ticker.Reset(s.cfg.PingInterval)

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.terminate()
				return
			}
		}
	}
}

// readPump consumes inbound control frames and keeps the read deadline
// fresh. Deadline expiry or any transport error terminates the session.
func (s *Session) readPump() {
	defer func() {
		s.terminate()
		s.conn.Close()
		s.loopDone()
	}()

	s.conn.SetReadLimit(s.cfg.MaxFrameSize)
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				s.logger.Warn("session read error", "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
		s.handleControl(data)
	}
}

// handleControl applies one subscribe/unsubscribe frame.
func (s *Session) handleControl(data []byte) {
	var frame controlFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		s.logger.Warn("malformed control frame", "error", err)
		return
	}

	switch frame.Action {
	case "subscribe":
		s.Subscribe(frame.Symbols...)
		s.logger.Debug("subscribed", "symbols", frame.Symbols)
	case "unsubscribe":
		s.Unsubscribe(frame.Symbols...)
		s.logger.Debug("unsubscribed", "symbols", frame.Symbols)
	default:
		s.logger.Debug("ignoring control frame", "action", frame.Action)
	}
}
