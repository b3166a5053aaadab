package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/liquidstaking/staking-ledger/internal/db"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/internal/utils/poller"
	"github.com/rs/zerolog/log"
)

// reconcile records a transfer whose ledger write could not be confirmed. Funds
// already moved, so nothing is retried: the document waits for an operator.
func (s *Service) reconcile(ctx context.Context, doc *model.ReconciliationDocument, cause error) *types.Error {
	s.recordReconciliation(ctx, doc, cause)

	return types.NewError(
		http.StatusInternalServerError,
		types.ReconciliationRequired,
		fmt.Errorf("%s of %d %s token for %s succeeded but the ledger was not updated, reconciliation %s: %w",
			doc.Operation, doc.Amount, doc.Token, doc.Account, doc.ID, cause),
	)
}

func (s *Service) recordReconciliation(ctx context.Context, doc *model.ReconciliationDocument, cause error) {
	doc.ID = uuid.NewString()
	doc.Cause = cause.Error()
	doc.State = model.ReconciliationPending
	doc.CreatedAt = s.clock.Now().Unix()

	metrics.IncReconciliationRequired(doc.Operation.String())

	logEvent := log.Ctx(ctx).Error().
		Err(cause).
		Str("reconciliation_id", doc.ID).
		Str("operation", doc.Operation.String()).
		Str("account", doc.Account).
		Str("token", doc.Token.String()).
		Uint64("amount", doc.Amount).
		Str("transfer_ref", doc.TransferRef)

	if err := s.db.SaveReconciliation(ctx, doc); err != nil {
		// the log line is now the only trace of the transfer
		logEvent.AnErr("save_error", err).Msg("transfer needs reconciliation, failed to persist reconciliation record")
		return
	}
	logEvent.Msg("transfer needs reconciliation")
}

func (s *Service) ListPendingReconciliations(
	ctx context.Context, limit int64,
) ([]*model.ReconciliationDocument, *types.Error) {
	docs, err := s.db.FindPendingReconciliations(ctx, limit)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to find pending reconciliations: %w", err),
		)
	}
	return docs, nil
}

// ResolveReconciliation is called by an operator after settling the transfer by hand
func (s *Service) ResolveReconciliation(ctx context.Context, id, note string) *types.Error {
	if id == "" {
		return types.NewValidationFailedError(errors.New("reconciliation id is required"))
	}
	if note == "" {
		return types.NewValidationFailedError(errors.New("resolution note is required"))
	}

	if err := s.db.ResolveReconciliation(ctx, id, note, s.clock.Now().Unix()); err != nil {
		if db.IsNotFoundError(err) {
			return types.NewErrorWithMsg(
				http.StatusNotFound,
				types.NotFound,
				fmt.Sprintf("pending reconciliation %s not found", id),
			)
		}
		return types.NewInternalServiceError(
			fmt.Errorf("failed to resolve reconciliation %s: %w", id, err),
		)
	}

	log.Ctx(ctx).Info().
		Str("reconciliation_id", id).
		Str("note", note).
		Msg("reconciliation resolved")
	return nil
}

// StartReconciliationPoller blocks until ctx is done
func (s *Service) StartReconciliationPoller(ctx context.Context) {
	reconciliationPoller := poller.NewPoller(
		s.cfg.Poller.ReconciliationPollingInterval,
		metrics.RecordPollerDuration("reconciliation", s.checkPendingReconciliations),
	)
	reconciliationPoller.Start(ctx)
}

func (s *Service) checkPendingReconciliations(ctx context.Context) error {
	count, err := s.db.CountPendingReconciliations(ctx)
	if err != nil {
		return fmt.Errorf("failed to count pending reconciliations: %w", err)
	}
	metrics.RecordPendingReconciliations(count)

	if count == 0 {
		return nil
	}

	docs, err := s.db.FindPendingReconciliations(ctx, int64(s.cfg.Poller.ReconciliationBatchLimit))
	if err != nil {
		return fmt.Errorf("failed to find pending reconciliations: %w", err)
	}
	for _, doc := range docs {
		log.Ctx(ctx).Warn().
			Str("reconciliation_id", doc.ID).
			Str("operation", doc.Operation.String()).
			Str("account", doc.Account).
			Uint64("amount", doc.Amount).
			Int64("created_at", doc.CreatedAt).
			Msg("reconciliation still pending")
	}
	return nil
}
