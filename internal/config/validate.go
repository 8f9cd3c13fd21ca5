package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	// Database is optional; validate only when configured.
	if c.JournalEnabled() {
		if err := c.Database.Postgres.validate("database.postgres"); err != nil {
			return err
		}
	}

	if c.Hub.QueueSize < 1 {
		return errors.New("hub.queue_size must be >= 1")
	}
	if c.Hub.PingInterval >= c.Hub.ReadTimeout {
		return fmt.Errorf("hub.ping_interval (%s) must be shorter than hub.read_timeout (%s)",
			c.Hub.PingInterval, c.Hub.ReadTimeout)
	}
	if c.Hub.MaxFrameSize < 1 {
		return errors.New("hub.max_frame_size must be >= 1")
	}

	if c.Journal.BatchSize < 1 {
		return errors.New("journal.batch_size must be >= 1")
	}
	if c.Journal.BufferSize < 1 {
		return errors.New("journal.buffer_size must be >= 1")
	}

	return nil
}

// JournalEnabled reports whether a journal database is configured.
func (c *Config) JournalEnabled() bool {
	return c.Database.Postgres.Host != ""
}

// FeedEnabled reports whether a market-data feed is configured.
func (c *Config) FeedEnabled() bool {
	return c.Feed.URL != ""
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
