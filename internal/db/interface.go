package db

import (
	"context"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
)

type DbInterface interface {
	Ping(ctx context.Context) error

	// GetStake returns the stake slot of the account or NotFoundError.
	GetStake(ctx context.Context, account string) (*model.StakeRecord, error)
	// SaveNewStake writes a freshly opened stake into the account slot. With replaced nil
	// the slot must be empty, otherwise it must still hold the closed record replaced.
	// DuplicateKeyError in both cases when the slot is not in the expected state.
	SaveNewStake(ctx context.Context, record, replaced *model.StakeRecord) error
	// MarkStakeUnstaked closes an open stake and returns the updated record.
	// NotFoundError when there is no open stake for the account.
	MarkStakeUnstaked(ctx context.Context, account string, unstakedAt int64) (*model.StakeRecord, error)
	// UpdateStakeRewardClaimed moves reward_claimed from prevClaimed to newClaimed.
	// NotFoundError when the stored value is no longer prevClaimed.
	UpdateStakeRewardClaimed(ctx context.Context, account string, prevClaimed, newClaimed uint64) error
	// ArchiveStake stores a closed record in the history. Archiving the same record twice is a no-op.
	ArchiveStake(ctx context.Context, doc *model.StakeHistoryDocument) error
	GetStakeHistory(ctx context.Context, account string) ([]*model.StakeHistoryDocument, error)

	IncrementCustodyBalance(ctx context.Context, token types.TokenKind, delta int64, updatedAt int64) error
	GetCustodyBalances(ctx context.Context) ([]*model.CustodyBalance, error)

	SaveStakeEvent(ctx context.Context, doc *model.StakeEventDocument) error
	GetStakeEvents(ctx context.Context, account string, limit int64) ([]*model.StakeEventDocument, error)

	SaveReconciliation(ctx context.Context, doc *model.ReconciliationDocument) error
	GetReconciliation(ctx context.Context, id string) (*model.ReconciliationDocument, error)
	FindPendingReconciliations(ctx context.Context, limit int64) ([]*model.ReconciliationDocument, error)
	CountPendingReconciliations(ctx context.Context) (int64, error)
	// ResolveReconciliation marks a pending document as resolved, NotFoundError if
	// it does not exist or was already resolved.
	ResolveReconciliation(ctx context.Context, id, note string, resolvedAt int64) error
}
