package services

import (
	"context"
	"fmt"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
)

const defaultStakeEventsLimit = 100

// StakeOverview is a stake record together with its vesting projection at At.
type StakeOverview struct {
	Record          *model.StakeRecord
	State           types.StakeState
	At              time.Time
	Vested          uint64
	Claimable       uint64
	CliffTime       time.Time
	FullyVestedTime time.Time
}

// LedgerParams are the protocol constants the ledger runs with
type LedgerParams struct {
	StakeToken            string
	RewardToken           string
	MinStake              uint64
	MaxStake              uint64
	StakeStep             uint64
	RewardRateNumerator   uint64
	RewardRateDenominator uint64
	VestingCliff          time.Duration
	VestingPeriod         time.Duration

	// RestakeRequiresClaimedReward means Stake fails with PENDING_REWARD until the
	// previous grant is fully claimed
	RestakeRequiresClaimedReward bool
}

func (s *Service) GetStake(ctx context.Context, account string) (*model.StakeRecord, *types.Error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return nil, err
	}
	return s.getStakeRecord(ctx, account)
}

func (s *Service) GetStakeOverview(ctx context.Context, account string) (*StakeOverview, *types.Error) {
	record, err := s.GetStake(ctx, account)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	grant := record.Grant()
	return &StakeOverview{
		Record:          record,
		State:           model.StakeStateOf(record),
		At:              now,
		Vested:          s.schedule.VestedAmount(grant, now),
		Claimable:       s.schedule.Claimable(grant, record.RewardClaimed, now),
		CliffTime:       s.schedule.CliffTime(grant),
		FullyVestedTime: s.schedule.FullyVestedTime(grant),
	}, nil
}

// VestedAmount projects the vested reward of the account at the given instant, the
// current time when at is zero. It never mutates state.
func (s *Service) VestedAmount(ctx context.Context, account string, at time.Time) (uint64, *types.Error) {
	record, err := s.GetStake(ctx, account)
	if err != nil {
		return 0, err
	}

	if at.IsZero() {
		at = s.clock.Now()
	}
	return s.schedule.VestedAmount(record.Grant(), at), nil
}

// GetStakeReference returns the cross-ledger reference id of the current stake
func (s *Service) GetStakeReference(ctx context.Context, account string) (string, *types.Error) {
	record, err := s.GetStake(ctx, account)
	if err != nil {
		return "", err
	}
	return record.ReferenceID, nil
}

// GetStakeHistory returns the archived stakes of the account, newest first.
// The current stake is not part of the history.
func (s *Service) GetStakeHistory(ctx context.Context, account string) ([]*model.StakeHistoryDocument, *types.Error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return nil, err
	}

	docs, dbErr := s.db.GetStakeHistory(ctx, account)
	if dbErr != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get stake history of %s: %w", account, dbErr),
		)
	}
	return docs, nil
}

func (s *Service) GetStakeEvents(ctx context.Context, account string, limit int64) ([]*model.StakeEventDocument, *types.Error) {
	account, err := normalizeAccount(account)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultStakeEventsLimit
	}

	docs, dbErr := s.db.GetStakeEvents(ctx, account, limit)
	if dbErr != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get stake events of %s: %w", account, dbErr),
		)
	}
	return docs, nil
}

func (s *Service) Params() *LedgerParams {
	ledger := s.cfg.Ledger
	return &LedgerParams{
		StakeToken:            ledger.StakeToken,
		RewardToken:           ledger.RewardToken,
		MinStake:              ledger.MinStake,
		MaxStake:              ledger.MaxStake,
		StakeStep:             ledger.StakeStep,
		RewardRateNumerator:   ledger.RewardRateNumerator,
		RewardRateDenominator: ledger.RewardRateDenominator,
		VestingCliff:          s.schedule.Cliff,
		VestingPeriod:         s.schedule.Period,

		RestakeRequiresClaimedReward: true,
	}
}

// Ping checks that the storage is reachable
func (s *Service) Ping(ctx context.Context) *types.Error {
	if err := s.db.Ping(ctx); err != nil {
		return types.NewInternalServiceError(fmt.Errorf("failed to ping db: %w", err))
	}
	return nil
}
