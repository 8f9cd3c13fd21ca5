package hub

import (
	"errors"
	"time"
)

// Errors
var (
	ErrHubClosed         = errors.New("hub closed")
	ErrAlreadyRegistered = errors.New("session already registered")
	ErrQueueFull         = errors.New("session queue full")
	ErrQueueClosed       = errors.New("session queue closed")
)

// SessionState is the lifecycle state of a subscriber session.
type SessionState int32

const (
	StateConnecting SessionState = iota
	StateActive
	StateDraining
	StateClosed
)

// String returns the state name used for logs and metric labels.
func (s SessionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateDraining:
		return "draining"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// controlFrame is an inbound subscription command from a subscriber.
type controlFrame struct {
	Action  string   `json:"action"` // "subscribe" or "unsubscribe"
	Symbols []string `json:"symbols"`
}

// Config holds hub and session settings.
type Config struct {
	QueueSize    int           // Outbound queue capacity per session
	PingInterval time.Duration // Idle interval before sending a keepalive ping
	WriteTimeout time.Duration // Write deadline per transport write
	ReadTimeout  time.Duration // Read deadline; reset on every inbound frame
	MaxFrameSize int64         // Max inbound frame size in bytes
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		QueueSize:    256,
		PingInterval: 54 * time.Second,
		WriteTimeout: 10 * time.Second,
		ReadTimeout:  60 * time.Second,
		MaxFrameSize: 512,
	}
}

// Stats provides statistics about the hub.
type Stats struct {
	Sessions int // Currently registered sessions
}
