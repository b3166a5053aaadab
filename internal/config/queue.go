package config

import (
	"fmt"
	"time"
)

const (
	defaultQueueName             = "stake_events_queue"
	defaultQueueMaxRetryAttempts = 3
	defaultQueueRetryInterval    = 500 * time.Millisecond
)

type QueueConfig struct {
	URL              string        `mapstructure:"url"`
	User             string        `mapstructure:"user"`
	Password         string        `mapstructure:"password"`
	QueueName        string        `mapstructure:"queue-name"`
	MaxRetryAttempts uint          `mapstructure:"max-retry-attempts"`
	RetryInterval    time.Duration `mapstructure:"retry-interval"`
}

func (cfg *QueueConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("queue url is required")
	}
	if cfg.User == "" {
		return fmt.Errorf("queue user is required")
	}
	if cfg.Password == "" {
		return fmt.Errorf("queue password is required")
	}

	if cfg.QueueName == "" {
		cfg.QueueName = defaultQueueName
	}
	if cfg.MaxRetryAttempts == 0 {
		cfg.MaxRetryAttempts = defaultQueueMaxRetryAttempts
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultQueueRetryInterval
	}

	return nil
}

// AmqpURL builds the dial url, the configured url is host[:port] without credentials.
func (cfg *QueueConfig) AmqpURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.URL)
}
