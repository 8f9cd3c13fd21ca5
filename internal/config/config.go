package config

import "time"

// Config is the root configuration for a streamd instance.
type Config struct {
	Instance InstanceConfig `yaml:"instance"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hub      HubConfig      `yaml:"hub"`
	Journal  JournalConfig  `yaml:"journal"`
	Feed     FeedConfig     `yaml:"feed"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// InstanceConfig identifies this streamd instance.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// DatabaseConfig holds the Postgres connection for the order journal.
// Leaving host empty disables the journal (events still fan out).
type DatabaseConfig struct {
	Postgres DBConfig `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// HubConfig holds streaming hub and session settings.
type HubConfig struct {
	QueueSize    int           `yaml:"queue_size"`
	PingInterval time.Duration `yaml:"ping_interval"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	MaxFrameSize int64         `yaml:"max_frame_size"`
}

// JournalConfig holds order journal batching settings.
type JournalConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// FeedConfig holds the NATS market-data feed settings.
// Leaving URL empty disables the feed.
type FeedConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// MetricsConfig holds the Prometheus scrape endpoint settings.
type MetricsConfig struct {
	Path string `yaml:"path"`
}
