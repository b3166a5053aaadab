package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/liquidstaking/staking-ledger/internal/db"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/internal/utils/state"
	"github.com/liquidstaking/staking-ledger/pkg"
	"github.com/rs/zerolog/log"
)

// Stake locks amount of the stake token from the account into custody and opens a
// fresh reward grant. A closed previous stake is archived before its slot is reused,
// and restaking is refused while that stake still has reward left to claim.
func (s *Service) Stake(ctx context.Context, account string, amount uint64) (record *model.StakeRecord, err *types.Error) {
	defer observeOperation(operationStake, time.Now(), &err)

	account, err = normalizeAccount(account)
	if err != nil {
		return nil, err
	}
	if err := s.validateStakeAmount(amount); err != nil {
		return nil, err
	}

	unlock, err := s.lockAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := log.Ctx(ctx).With().Str("account", account).Uint64("amount", amount).Logger()
	log.Debug().Msg("processing stake")

	existing, err := s.getStakeRecord(ctx, account)
	if err != nil && err.ErrorCode != types.NoStakeFound {
		return nil, err
	}

	if !state.IsQualifiedStateForStakeStateChange(model.StakeStateOf(existing), types.StateStaked) {
		return nil, types.NewErrorWithMsg(
			http.StatusConflict,
			types.AlreadyStaked,
			fmt.Sprintf("account %s already has an open stake", account),
		)
	}
	if existing != nil && existing.HasUnclaimedReward() {
		return nil, types.NewErrorWithMsg(
			http.StatusConflict,
			types.PendingReward,
			fmt.Sprintf(
				"previous stake of %s has %d unclaimed reward, claim it before staking again",
				account, existing.RewardGranted-existing.RewardClaimed,
			),
		)
	}

	now := s.clock.Now().Unix()
	salt := uuid.NewString()
	record = &model.StakeRecord{
		Account:       account,
		Principal:     amount,
		RewardGranted: s.rewardFor(amount),
		RewardClaimed: 0,
		StartTime:     now,
		Unstaked:      false,
		StakeSalt:     salt,
		ReferenceID:   pkg.DeriveReferenceID(account, salt),
	}

	reference := uuid.NewString()
	if err := s.debit(ctx, types.EventStaked, account, types.TokenStake, amount, reference); err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("stake debit failed")
		return nil, err
	}

	// funds moved, the rest must complete even if the caller goes away
	ctx = context.WithoutCancel(ctx)

	stakeFailed := func(cause error) *types.Error {
		return s.reconcile(ctx, &model.ReconciliationDocument{
			Operation:   types.EventStaked,
			Account:     account,
			Token:       types.TokenStake,
			Amount:      amount,
			TransferRef: reference,
		}, cause)
	}

	// the closed record is archived only once the new stake is paid for
	if existing != nil {
		if dbErr := s.db.ArchiveStake(ctx, model.NewStakeHistoryDocument(existing, now)); dbErr != nil {
			return nil, stakeFailed(fmt.Errorf("failed to archive previous stake: %w", dbErr))
		}
	}

	if dbErr := s.db.SaveNewStake(ctx, record, existing); dbErr != nil {
		return nil, stakeFailed(fmt.Errorf("failed to save stake: %w", dbErr))
	}

	s.adjustCustody(ctx, types.EventStaked, account, types.TokenStake, int64(amount), reference)
	unlock()

	s.emit(ctx, &types.StakeEvent{
		Type:          types.EventStaked,
		Account:       account,
		Token:         types.TokenStake,
		Amount:        amount,
		RewardGranted: record.RewardGranted,
		ReferenceID:   record.ReferenceID,
		Timestamp:     now,
	})

	log.Info().
		Uint64("reward_granted", record.RewardGranted).
		Str("reference_id", record.ReferenceID).
		Msg("stake opened")
	return record, nil
}

// Unstake returns the principal of the open stake. The grant is left untouched and
// keeps vesting.
func (s *Service) Unstake(ctx context.Context, account string) (record *model.StakeRecord, err *types.Error) {
	defer observeOperation(operationUnstake, time.Now(), &err)

	account, err = normalizeAccount(account)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lockAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	defer unlock()

	log := log.Ctx(ctx).With().Str("account", account).Logger()
	log.Debug().Msg("processing unstake")

	existing, err := s.getStakeRecord(ctx, account)
	if err != nil {
		return nil, err
	}
	if !state.IsQualifiedStateForStakeStateChange(model.StakeStateOf(existing), types.StateUnstaked) {
		return nil, types.NewErrorWithMsg(
			http.StatusConflict,
			types.AlreadyUnstaked,
			fmt.Sprintf("stake of %s is already unstaked", account),
		)
	}

	reference := uuid.NewString()
	if err := s.credit(ctx, types.EventUnstaked, account, types.TokenStake, existing.Principal, reference); err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("unstake credit failed")
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	now := s.clock.Now().Unix()

	record, dbErr := s.db.MarkStakeUnstaked(ctx, account, now)
	if dbErr != nil {
		return nil, s.reconcile(ctx, &model.ReconciliationDocument{
			Operation:   types.EventUnstaked,
			Account:     account,
			Token:       types.TokenStake,
			Amount:      existing.Principal,
			TransferRef: reference,
		}, fmt.Errorf("failed to mark stake unstaked: %w", dbErr))
	}

	s.adjustCustody(ctx, types.EventUnstaked, account, types.TokenStake, -int64(existing.Principal), reference)
	unlock()

	s.emit(ctx, &types.StakeEvent{
		Type:          types.EventUnstaked,
		Account:       account,
		Token:         types.TokenStake,
		Amount:        existing.Principal,
		RewardGranted: record.RewardGranted,
		RewardClaimed: record.RewardClaimed,
		ReferenceID:   record.ReferenceID,
		Timestamp:     now,
	})

	log.Info().Uint64("principal", existing.Principal).Msg("stake closed")
	return record, nil
}

// Claim pays out whatever vested since the last claim. Nothing vested yet is a
// successful claim of 0.
func (s *Service) Claim(ctx context.Context, account string) (claimed uint64, err *types.Error) {
	defer observeOperation(operationClaim, time.Now(), &err)

	account, err = normalizeAccount(account)
	if err != nil {
		return 0, err
	}

	unlock, err := s.lockAccount(ctx, account)
	if err != nil {
		return 0, err
	}
	defer unlock()

	log := log.Ctx(ctx).With().Str("account", account).Logger()
	log.Debug().Msg("processing claim")

	existing, err := s.getStakeRecord(ctx, account)
	if err != nil {
		return 0, err
	}

	now := s.clock.Now()
	vested := s.schedule.VestedAmount(existing.Grant(), now)
	claimable := s.schedule.Claimable(existing.Grant(), existing.RewardClaimed, now)
	if claimable == 0 {
		log.Debug().Msg("nothing to claim")
		return 0, nil
	}

	reference := uuid.NewString()
	if err := s.credit(ctx, types.EventClaimed, account, types.TokenReward, claimable, reference); err != nil {
		log.Error().Err(err).Str("reference", reference).Msg("claim credit failed")
		return 0, err
	}

	ctx = context.WithoutCancel(ctx)

	if dbErr := s.db.UpdateStakeRewardClaimed(ctx, account, existing.RewardClaimed, vested); dbErr != nil {
		return 0, s.reconcile(ctx, &model.ReconciliationDocument{
			Operation:   types.EventClaimed,
			Account:     account,
			Token:       types.TokenReward,
			Amount:      claimable,
			TransferRef: reference,
		}, fmt.Errorf("failed to update claimed reward: %w", dbErr))
	}

	s.adjustCustody(ctx, types.EventClaimed, account, types.TokenReward, -int64(claimable), reference)
	unlock()

	s.emit(ctx, &types.StakeEvent{
		Type:          types.EventClaimed,
		Account:       account,
		Token:         types.TokenReward,
		Amount:        claimable,
		RewardGranted: existing.RewardGranted,
		RewardClaimed: vested,
		ReferenceID:   existing.ReferenceID,
		Timestamp:     now.Unix(),
	})

	log.Info().
		Uint64("claimed", claimable).
		Uint64("reward_claimed", vested).
		Msg("reward claimed")
	return claimable, nil
}

// getStakeRecord maps storage errors, a missing record becomes NoStakeFound
func (s *Service) getStakeRecord(ctx context.Context, account string) (*model.StakeRecord, *types.Error) {
	record, err := s.db.GetStake(ctx, account)
	if err != nil {
		if db.IsNotFoundError(err) {
			return nil, types.NewErrorWithMsg(
				http.StatusNotFound,
				types.NoStakeFound,
				fmt.Sprintf("no stake found for account %s", account),
			)
		}
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to get stake of %s: %w", account, err),
		)
	}
	return record, nil
}
