package services

import (
	"context"
	"fmt"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/internal/utils/poller"
	"github.com/rs/zerolog/log"
)

// StartCustodyStatsPoller blocks until ctx is done
func (s *Service) StartCustodyStatsPoller(ctx context.Context) {
	custodyPoller := poller.NewPoller(
		s.cfg.Poller.CustodyStatsPollingInterval,
		metrics.RecordPollerDuration("custody_stats", s.updateCustodyStats),
	)
	custodyPoller.Start(ctx)
}

func (s *Service) updateCustodyStats(ctx context.Context) error {
	balances, err := s.db.GetCustodyBalances(ctx)
	if err != nil {
		return fmt.Errorf("failed to get custody balances: %w", err)
	}

	for _, balance := range balances {
		metrics.RecordCustodyBalance(balance.Token, balance.Balance)
		if balance.Balance < 0 {
			log.Ctx(ctx).Warn().
				Str("token", balance.Token).
				Int64("balance", balance.Balance).
				Msg("custody balance is negative, pool is underfunded")
		}
	}
	return nil
}

func (s *Service) GetCustodyBalances(ctx context.Context) ([]*model.CustodyBalance, *types.Error) {
	balances, err := s.db.GetCustodyBalances(ctx)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get custody balances: %w", err),
		)
	}
	return balances, nil
}
