package db_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/liquidstaking/staking-ledger/internal/db"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStorage runs the same behaviour checks against any DbInterface implementation.
// Every subtest works on fresh random accounts so the backend does not need resetting.
func testStorage(t *testing.T, store db.DbInterface) {
	ctx := t.Context()

	t.Run("ping", func(t *testing.T) {
		require.NoError(t, store.Ping(ctx))
	})
	t.Run("get stake not found", func(t *testing.T) {
		record, err := store.GetStake(ctx, randomAccount())
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
		assert.Nil(t, record)
	})
	t.Run("save new stake", func(t *testing.T) {
		record := createStakeRecord()
		require.NoError(t, store.SaveNewStake(ctx, record, nil))

		found, err := store.GetStake(ctx, record.Account)
		require.NoError(t, err)
		assert.Equal(t, record, found)

		// slot is taken
		again := createStakeRecord()
		again.Account = record.Account
		err = store.SaveNewStake(ctx, again, nil)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))

		// an open record cannot be replaced either
		err = store.SaveNewStake(ctx, again, record)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))
	})
	t.Run("unstake", func(t *testing.T) {
		record := createStakeRecord()
		require.NoError(t, store.SaveNewStake(ctx, record, nil))

		updated, err := store.MarkStakeUnstaked(ctx, record.Account, record.StartTime+100)
		require.NoError(t, err)
		assert.True(t, updated.Unstaked)
		assert.Equal(t, record.StartTime+100, updated.UnstakedAt)
		assert.Equal(t, record.Principal, updated.Principal)

		_, err = store.MarkStakeUnstaked(ctx, record.Account, record.StartTime+200)
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))

		_, err = store.MarkStakeUnstaked(ctx, randomAccount(), record.StartTime)
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))
	})
	t.Run("replace closed stake", func(t *testing.T) {
		record := createStakeRecord()
		record.RewardClaimed = record.RewardGranted
		require.NoError(t, store.SaveNewStake(ctx, record, nil))
		closed, err := store.MarkStakeUnstaked(ctx, record.Account, record.StartTime+10)
		require.NoError(t, err)

		stale := *closed
		stale.StartTime--
		fresh := createStakeRecord()
		fresh.Account = record.Account
		err = store.SaveNewStake(ctx, fresh, &stale)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))

		require.NoError(t, store.SaveNewStake(ctx, fresh, closed))
		found, err := store.GetStake(ctx, record.Account)
		require.NoError(t, err)
		assert.Equal(t, fresh, found)
	})
	t.Run("claimed reward compare and set", func(t *testing.T) {
		record := createStakeRecord()
		require.NoError(t, store.SaveNewStake(ctx, record, nil))

		require.NoError(t, store.UpdateStakeRewardClaimed(ctx, record.Account, 0, 10))

		// stale previous value
		err := store.UpdateStakeRewardClaimed(ctx, record.Account, 0, 20)
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))

		// above the grant
		err = store.UpdateStakeRewardClaimed(ctx, record.Account, 10, record.RewardGranted+1)
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))

		require.NoError(t, store.UpdateStakeRewardClaimed(ctx, record.Account, 10, record.RewardGranted))
		found, err := store.GetStake(ctx, record.Account)
		require.NoError(t, err)
		assert.Equal(t, record.RewardGranted, found.RewardClaimed)
	})
	t.Run("history", func(t *testing.T) {
		account := randomAccount()
		first := createStakeRecord()
		first.Account = account
		second := createStakeRecord()
		second.Account = account
		second.StartTime = first.StartTime + 1000

		require.NoError(t, store.ArchiveStake(ctx, model.NewStakeHistoryDocument(first, first.StartTime+500)))
		require.NoError(t, store.ArchiveStake(ctx, model.NewStakeHistoryDocument(second, second.StartTime+500)))
		// same record again is ignored
		require.NoError(t, store.ArchiveStake(ctx, model.NewStakeHistoryDocument(first, first.StartTime+900)))

		docs, err := store.GetStakeHistory(ctx, account)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, second, docs[0].Record)
		assert.Equal(t, first, docs[1].Record)
		assert.Equal(t, first.StartTime+500, docs[1].ArchivedAt)

		docs, err = store.GetStakeHistory(ctx, randomAccount())
		require.NoError(t, err)
		assert.Empty(t, docs)
	})
	t.Run("custody balance", func(t *testing.T) {
		before := custodyBalance(t, store, types.TokenStake)

		require.NoError(t, store.IncrementCustodyBalance(ctx, types.TokenStake, 300, 1))
		require.NoError(t, store.IncrementCustodyBalance(ctx, types.TokenStake, -100, 2))

		assert.Equal(t, before+200, custodyBalance(t, store, types.TokenStake))
	})
	t.Run("stake events", func(t *testing.T) {
		account := randomAccount()
		for i := range 3 {
			doc := &model.StakeEventDocument{
				ID:        gofakeit.UUID(),
				Type:      types.EventStaked,
				Account:   account,
				Token:     types.TokenStake,
				Amount:    uint64(i + 1),
				Timestamp: int64(1000 + i),
			}
			require.NoError(t, store.SaveStakeEvent(ctx, doc))
			if i == 0 {
				err := store.SaveStakeEvent(ctx, doc)
				require.Error(t, err)
				assert.True(t, db.IsDuplicateKeyError(err))
			}
		}

		docs, err := store.GetStakeEvents(ctx, account, 2)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, uint64(3), docs[0].Amount)
		assert.Equal(t, uint64(2), docs[1].Amount)

		docs, err = store.GetStakeEvents(ctx, account, 0)
		require.NoError(t, err)
		assert.Len(t, docs, 3)
	})
	t.Run("reconciliation", func(t *testing.T) {
		pendingBefore, err := store.CountPendingReconciliations(ctx)
		require.NoError(t, err)

		doc := &model.ReconciliationDocument{
			ID:          gofakeit.UUID(),
			Operation:   types.EventClaimed,
			Account:     randomAccount(),
			Token:       types.TokenReward,
			Amount:      gofakeit.Uint64() >> 1,
			TransferRef: gofakeit.UUID(),
			Cause:       gofakeit.HackerPhrase(),
			State:       model.ReconciliationPending,
			CreatedAt:   1,
		}
		require.NoError(t, store.SaveReconciliation(ctx, doc))
		err = store.SaveReconciliation(ctx, doc)
		require.Error(t, err)
		assert.True(t, db.IsDuplicateKeyError(err))

		count, err := store.CountPendingReconciliations(ctx)
		require.NoError(t, err)
		assert.Equal(t, pendingBefore+1, count)

		pending, err := store.FindPendingReconciliations(ctx, 0)
		require.NoError(t, err)
		assert.Contains(t, pending, doc)

		require.NoError(t, store.ResolveReconciliation(ctx, doc.ID, "refunded", 2))
		err = store.ResolveReconciliation(ctx, doc.ID, "again", 3)
		require.Error(t, err)
		assert.True(t, db.IsNotFoundError(err))

		found, err := store.GetReconciliation(ctx, doc.ID)
		require.NoError(t, err)
		assert.Equal(t, model.ReconciliationResolved, found.State)
		assert.Equal(t, "refunded", found.ResolutionNote)
		assert.Equal(t, int64(2), found.ResolvedAt)

		_, err = store.GetReconciliation(ctx, gofakeit.UUID())
		assert.True(t, db.IsNotFoundError(err))
	})
}

func randomAccount() string {
	return gofakeit.UUID()
}

func createStakeRecord() *model.StakeRecord {
	principal := uint64(gofakeit.Number(1, 10)) * 100_000_000
	return &model.StakeRecord{
		Account:       randomAccount(),
		Principal:     principal,
		RewardGranted: principal / 1000,
		StartTime:     int64(gofakeit.Number(1_600_000_000, 1_700_000_000)),
		StakeSalt:     gofakeit.UUID(),
		ReferenceID:   gofakeit.UUID(),
	}
}

func custodyBalance(t *testing.T, store db.DbInterface, token types.TokenKind) int64 {
	balances, err := store.GetCustodyBalances(t.Context())
	require.NoError(t, err)
	for _, b := range balances {
		if b.Token == token.String() {
			return b.Balance
		}
	}
	return 0
}
