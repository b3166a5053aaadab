package config

import (
	"fmt"
	"net/url"
	"time"
)

const (
	DbTypeMongo  = "mongo"
	DbTypeMemory = "memory"

	defaultDbMaxRetryTimes = 5
	defaultDbRetryInterval = 2 * time.Second
)

type DbConfig struct {
	// Type selects the storage backend, memory is meant for local runs only
	Type          string        `mapstructure:"type"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	DbName        string        `mapstructure:"db-name"`
	Address       string        `mapstructure:"address"`
	MaxRetryTimes uint          `mapstructure:"max-retry-times"`
	RetryInterval time.Duration `mapstructure:"retry-interval"`
}

func (cfg *DbConfig) Validate() error {
	if cfg.Type == "" {
		cfg.Type = DbTypeMongo
	}

	switch cfg.Type {
	case DbTypeMemory:
		return nil
	case DbTypeMongo:
	default:
		return fmt.Errorf("unsupported db type %q", cfg.Type)
	}

	if cfg.Username == "" {
		return fmt.Errorf("missing db username")
	}

	if cfg.Password == "" {
		return fmt.Errorf("missing db password")
	}

	if cfg.Address == "" {
		return fmt.Errorf("missing db address")
	}

	if cfg.DbName == "" {
		return fmt.Errorf("missing db name")
	}

	u, err := url.Parse(cfg.Address)
	if err != nil {
		return fmt.Errorf("invalid db address: %w", err)
	}

	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return fmt.Errorf("unsupported db address scheme %q, should be mongodb or mongodb+srv", u.Scheme)
	}

	if cfg.MaxRetryTimes == 0 {
		cfg.MaxRetryTimes = defaultDbMaxRetryTimes
	}

	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = defaultDbRetryInterval
	}

	return nil
}
