package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerPort         = 8080
	DefaultServerReadTimeout  = 10 * time.Second
	DefaultServerWriteTimeout = 10 * time.Second
	DefaultServerIdleTimeout  = 60 * time.Second
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultQueueSize          = 256
	DefaultPingInterval       = 54 * time.Second
	DefaultWriteTimeout       = 10 * time.Second
	DefaultReadTimeout        = 60 * time.Second
	DefaultMaxFrameSize       = 512
	DefaultBatchSize          = 1000
	DefaultFlushInterval      = 1 * time.Second
	DefaultBufferSize         = 10000
	DefaultSubjectPrefix      = "market"
	DefaultMetricsPath        = "/metrics"
)

func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = DefaultServerIdleTimeout
	}

	// Database defaults
	applyDBDefaults(&c.Database.Postgres)

	// Hub defaults
	if c.Hub.QueueSize == 0 {
		c.Hub.QueueSize = DefaultQueueSize
	}
	if c.Hub.PingInterval == 0 {
		c.Hub.PingInterval = DefaultPingInterval
	}
	if c.Hub.WriteTimeout == 0 {
		c.Hub.WriteTimeout = DefaultWriteTimeout
	}
	if c.Hub.ReadTimeout == 0 {
		c.Hub.ReadTimeout = DefaultReadTimeout
	}
	if c.Hub.MaxFrameSize == 0 {
		c.Hub.MaxFrameSize = DefaultMaxFrameSize
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}
	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultBufferSize
	}

	// Feed defaults
	if c.Feed.SubjectPrefix == "" {
		c.Feed.SubjectPrefix = DefaultSubjectPrefix
	}

	// Metrics defaults
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
