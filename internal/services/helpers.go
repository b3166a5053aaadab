package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/liquidstaking/staking-ledger/internal/clients/transferclient"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/pkg"
)

const (
	operationStake       = "stake"
	operationUnstake     = "unstake"
	operationClaim       = "claim"
	operationFundRewards = "fund_rewards"
)

func normalizeAccount(account string) (string, *types.Error) {
	normalized, err := pkg.NormalizeAccount(account)
	if err != nil {
		return "", types.NewError(http.StatusBadRequest, types.InvalidAccount, err)
	}
	return normalized, nil
}

func (s *Service) validateStakeAmount(amount uint64) *types.Error {
	ledger := s.cfg.Ledger
	if amount < ledger.MinStake || amount > ledger.MaxStake {
		return types.NewErrorWithMsg(
			http.StatusBadRequest,
			types.InvalidAmount,
			fmt.Sprintf("stake amount %d is outside of [%d, %d]", amount, ledger.MinStake, ledger.MaxStake),
		)
	}
	if amount%ledger.StakeStep != 0 {
		return types.NewErrorWithMsg(
			http.StatusBadRequest,
			types.InvalidAmount,
			fmt.Sprintf("stake amount %d is not a multiple of %d", amount, ledger.StakeStep),
		)
	}
	return nil
}

// rewardFor converts a stake amount into its reward grant. The ledger config guarantees
// the division is exact and the result fits in 64 bits for every valid amount.
func (s *Service) rewardFor(amount uint64) uint64 {
	return sdkmath.NewIntFromUint64(amount).
		Mul(sdkmath.NewIntFromUint64(s.cfg.Ledger.RewardRateNumerator)).
		Quo(sdkmath.NewIntFromUint64(s.cfg.Ledger.RewardRateDenominator)).
		Uint64()
}

func (s *Service) tokenSymbol(kind types.TokenKind) string {
	if kind == types.TokenReward {
		return s.cfg.Ledger.RewardToken
	}
	return s.cfg.Ledger.StakeToken
}

// lockAccount enters the exclusive scope of an account. The release func is safe to
// call more than once, operations release early to emit outside of the lock.
func (s *Service) lockAccount(ctx context.Context, account string) (func(), *types.Error) {
	unlock, err := s.locks.Lock(ctx, account)
	if err != nil {
		return nil, types.NewInternalServiceError(
			fmt.Errorf("failed to acquire lock for account %s: %w", account, err),
		)
	}
	return unlock, nil
}

// debit and credit bound the transfer call by the configured timeout
func (s *Service) debit(
	ctx context.Context, op types.EventType, account string, kind types.TokenKind, amount uint64, reference string,
) *types.Error {
	transferCtx, cancel := context.WithTimeout(ctx, s.cfg.Ledger.TransferTimeout)
	defer cancel()

	if err := s.transfer.Debit(transferCtx, account, s.tokenSymbol(kind), amount, reference); err != nil {
		s.recordUncertainTransfer(ctx, op, account, kind, amount, reference, err)
		return transferFailed("debit", kind, err)
	}
	return nil
}

func (s *Service) credit(
	ctx context.Context, op types.EventType, account string, kind types.TokenKind, amount uint64, reference string,
) *types.Error {
	transferCtx, cancel := context.WithTimeout(ctx, s.cfg.Ledger.TransferTimeout)
	defer cancel()

	if err := s.transfer.Credit(transferCtx, account, s.tokenSymbol(kind), amount, reference); err != nil {
		s.recordUncertainTransfer(ctx, op, account, kind, amount, reference, err)
		return transferFailed("credit", kind, err)
	}
	return nil
}

// recordUncertainTransfer leaves a reconciliation record for a timed out transfer.
// Its outcome is unknown and the ledger state was not changed, so an operator has
// to check the transfer service for the reference.
func (s *Service) recordUncertainTransfer(
	ctx context.Context, op types.EventType, account string, kind types.TokenKind, amount uint64, reference string, err error,
) {
	if transferclient.KindOf(err) != transferclient.ErrTimeout {
		return
	}
	s.recordReconciliation(context.WithoutCancel(ctx), &model.ReconciliationDocument{
		Operation:   op,
		Account:     account,
		Token:       kind,
		Amount:      amount,
		TransferRef: reference,
	}, fmt.Errorf("transfer outcome unknown: %w", err))
}

func transferFailed(direction string, kind types.TokenKind, err error) *types.Error {
	statusCode := http.StatusBadGateway
	switch transferclient.KindOf(err) {
	case transferclient.ErrInsufficientFunds, transferclient.ErrNotApproved, transferclient.ErrRejected:
		statusCode = http.StatusUnprocessableEntity
	case transferclient.ErrTimeout:
		statusCode = http.StatusGatewayTimeout
	}

	return types.NewError(
		statusCode,
		types.TransferFailed,
		fmt.Errorf("failed to %s %s token: %w", direction, kind, err),
	)
}

// observeOperation is deferred by every mutating operation with a pointer to its result error
func observeOperation(operation string, startTime time.Time, err **types.Error) {
	code := ""
	if *err != nil {
		code = (*err).ErrorCode.String()
	}
	metrics.RecordLedgerOperation(time.Since(startTime), operation, code)
}
