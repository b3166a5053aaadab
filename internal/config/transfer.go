package config

import (
	"fmt"
	"net/url"
	"time"
)

const defaultTransferRequestTimeout = 10 * time.Second

// TransferConfig points at the custody service that moves tokens between
// account wallets and the pooled custody balance.
type TransferConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func (cfg *TransferConfig) Validate() error {
	if cfg.URL == "" {
		return fmt.Errorf("transfer service url is required")
	}

	u, err := url.Parse(cfg.URL)
	if err != nil {
		return fmt.Errorf("invalid transfer service url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("transfer service url must be http or https, got %q", u.Scheme)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTransferRequestTimeout
	}

	return nil
}
