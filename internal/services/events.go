package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/rs/zerolog/log"
)

// emit appends the event to the db event log and pushes it to the queue. It runs
// after the ledger write, so failures are logged and counted but never fail the operation.
func (s *Service) emit(ctx context.Context, ev *types.StakeEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	log := log.Ctx(ctx).With().
		Str("event_id", ev.ID).
		Str("event_type", ev.Type.String()).
		Str("account", ev.Account).
		Logger()

	if err := s.db.SaveStakeEvent(ctx, model.FromStakeEvent(ev)); err != nil {
		metrics.RecordEventLogError()
		log.Error().Err(err).Msg("failed to append stake event to the event log")
	}

	if err := s.publisher.PushStakeEvent(ctx, ev); err != nil {
		log.Error().Err(err).Msg("failed to push stake event to the queue")
	}
}

// adjustCustody applies delta to the pooled balance of a token. The ledger write
// already succeeded, so a failure here is recorded for an operator instead of
// failing the operation.
func (s *Service) adjustCustody(
	ctx context.Context, op types.EventType, account string, token types.TokenKind, delta int64, reference string,
) {
	err := s.db.IncrementCustodyBalance(ctx, token, delta, s.clock.Now().Unix())
	if err == nil {
		return
	}

	amount := delta
	if amount < 0 {
		amount = -amount
	}
	s.recordReconciliation(ctx, &model.ReconciliationDocument{
		Operation:   op,
		Account:     account,
		Token:       token,
		Amount:      uint64(amount),
		TransferRef: reference,
	}, err)
}
