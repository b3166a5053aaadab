package config

import (
	"errors"
	"time"
)

const defaultCustodyStatsPollingInterval = 1 * time.Minute

type PollerConfig struct {
	ReconciliationPollingInterval time.Duration `mapstructure:"reconciliation-polling-interval"`
	CustodyStatsPollingInterval   time.Duration `mapstructure:"custody-stats-polling-interval"`
	ReconciliationBatchLimit      uint64        `mapstructure:"reconciliation-batch-limit"`
}

func (cfg *PollerConfig) Validate() error {
	if cfg.ReconciliationPollingInterval <= 0 {
		return errors.New("reconciliation-polling-interval must be positive")
	}

	if cfg.ReconciliationBatchLimit <= 0 {
		return errors.New("reconciliation-batch-limit must be positive")
	}

	if cfg.CustodyStatsPollingInterval <= 0 {
		cfg.CustodyStatsPollingInterval = defaultCustodyStatsPollingInterval
	}

	return nil
}
