package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/rs/zerolog/log"
)

// FundRewards moves reward tokens from a funder into custody so that vested grants
// are backed. Grants are promised at stake time, the pool is topped up separately.
func (s *Service) FundRewards(ctx context.Context, funder string, amount uint64) (err *types.Error) {
	defer observeOperation(operationFundRewards, time.Now(), &err)

	funder, err = normalizeAccount(funder)
	if err != nil {
		return err
	}
	if amount == 0 {
		return types.NewError(http.StatusBadRequest, types.InvalidAmount, errors.New("funding amount must be positive"))
	}
	if amount > math.MaxInt64 {
		return types.NewError(http.StatusBadRequest, types.InvalidAmount, errors.New("funding amount is too large"))
	}

	reference := uuid.NewString()
	if err := s.debit(ctx, types.EventRewardsFunded, funder, types.TokenReward, amount, reference); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("funder", funder).Msg("reward funding debit failed")
		return err
	}

	ctx = context.WithoutCancel(ctx)
	now := s.clock.Now().Unix()

	if dbErr := s.db.IncrementCustodyBalance(ctx, types.TokenReward, int64(amount), now); dbErr != nil {
		return s.reconcile(ctx, &model.ReconciliationDocument{
			Operation:   types.EventRewardsFunded,
			Account:     funder,
			Token:       types.TokenReward,
			Amount:      amount,
			TransferRef: reference,
		}, fmt.Errorf("failed to update reward custody balance: %w", dbErr))
	}

	s.emit(ctx, &types.StakeEvent{
		Type:      types.EventRewardsFunded,
		Account:   funder,
		Token:     types.TokenReward,
		Amount:    amount,
		Timestamp: now,
	})

	log.Ctx(ctx).Info().
		Str("funder", funder).
		Uint64("amount", amount).
		Msg("reward pool funded")
	return nil
}
