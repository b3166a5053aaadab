package db

import (
	"context"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
)

type DbWithMetrics struct {
	db DbInterface
}

func NewDbWithMetrics(db DbInterface) *DbWithMetrics {
	return &DbWithMetrics{db: db}
}

func (d *DbWithMetrics) Ping(ctx context.Context) error {
	return d.db.Ping(ctx)
}

func (d *DbWithMetrics) GetStake(ctx context.Context, account string) (result *model.StakeRecord, err error) {
	//nolint:errcheck
	d.run("GetStake", func() error {
		result, err = d.db.GetStake(ctx, account)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveNewStake(ctx context.Context, record, replaced *model.StakeRecord) error {
	return d.run("SaveNewStake", func() error {
		return d.db.SaveNewStake(ctx, record, replaced)
	})
}

func (d *DbWithMetrics) MarkStakeUnstaked(ctx context.Context, account string, unstakedAt int64) (result *model.StakeRecord, err error) {
	//nolint:errcheck
	d.run("MarkStakeUnstaked", func() error {
		result, err = d.db.MarkStakeUnstaked(ctx, account, unstakedAt)
		return err
	})
	return
}

func (d *DbWithMetrics) UpdateStakeRewardClaimed(ctx context.Context, account string, prevClaimed, newClaimed uint64) error {
	return d.run("UpdateStakeRewardClaimed", func() error {
		return d.db.UpdateStakeRewardClaimed(ctx, account, prevClaimed, newClaimed)
	})
}

func (d *DbWithMetrics) ArchiveStake(ctx context.Context, doc *model.StakeHistoryDocument) error {
	return d.run("ArchiveStake", func() error {
		return d.db.ArchiveStake(ctx, doc)
	})
}

func (d *DbWithMetrics) GetStakeHistory(ctx context.Context, account string) (result []*model.StakeHistoryDocument, err error) {
	//nolint:errcheck
	d.run("GetStakeHistory", func() error {
		result, err = d.db.GetStakeHistory(ctx, account)
		return err
	})
	return
}

func (d *DbWithMetrics) IncrementCustodyBalance(ctx context.Context, token types.TokenKind, delta int64, updatedAt int64) error {
	return d.run("IncrementCustodyBalance", func() error {
		return d.db.IncrementCustodyBalance(ctx, token, delta, updatedAt)
	})
}

func (d *DbWithMetrics) GetCustodyBalances(ctx context.Context) (result []*model.CustodyBalance, err error) {
	//nolint:errcheck
	d.run("GetCustodyBalances", func() error {
		result, err = d.db.GetCustodyBalances(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveStakeEvent(ctx context.Context, doc *model.StakeEventDocument) error {
	return d.run("SaveStakeEvent", func() error {
		return d.db.SaveStakeEvent(ctx, doc)
	})
}

func (d *DbWithMetrics) GetStakeEvents(ctx context.Context, account string, limit int64) (result []*model.StakeEventDocument, err error) {
	//nolint:errcheck
	d.run("GetStakeEvents", func() error {
		result, err = d.db.GetStakeEvents(ctx, account, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) SaveReconciliation(ctx context.Context, doc *model.ReconciliationDocument) error {
	return d.run("SaveReconciliation", func() error {
		return d.db.SaveReconciliation(ctx, doc)
	})
}

func (d *DbWithMetrics) GetReconciliation(ctx context.Context, id string) (result *model.ReconciliationDocument, err error) {
	//nolint:errcheck
	d.run("GetReconciliation", func() error {
		result, err = d.db.GetReconciliation(ctx, id)
		return err
	})
	return
}

func (d *DbWithMetrics) FindPendingReconciliations(ctx context.Context, limit int64) (result []*model.ReconciliationDocument, err error) {
	//nolint:errcheck
	d.run("FindPendingReconciliations", func() error {
		result, err = d.db.FindPendingReconciliations(ctx, limit)
		return err
	})
	return
}

func (d *DbWithMetrics) CountPendingReconciliations(ctx context.Context) (result int64, err error) {
	//nolint:errcheck
	d.run("CountPendingReconciliations", func() error {
		result, err = d.db.CountPendingReconciliations(ctx)
		return err
	})
	return
}

func (d *DbWithMetrics) ResolveReconciliation(ctx context.Context, id, note string, resolvedAt int64) error {
	return d.run("ResolveReconciliation", func() error {
		return d.db.ResolveReconciliation(ctx, id, note, resolvedAt)
	})
}

// run is private method that executes passed lambda function and send metrics data with spent time, method name
// and an error if any. It returns the error from the lambda function for convenience
func (d *DbWithMetrics) run(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordDbLatency(duration, method, err != nil)
	return err
}
