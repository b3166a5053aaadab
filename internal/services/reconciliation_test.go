package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReconciliation(t *testing.T) {
	t.Run("failed stake write after debit", func(t *testing.T) {
		env := newTestEnv(t)
		env.db.saveStakeErr = errors.New("write concern timeout")

		var reference string
		env.expectDebit(testAccount, stakeToken, 200_000_000).Run(func(args mock.Arguments) {
			reference = args.String(4)
		})
		_, err := env.svc.Stake(t.Context(), testAccount, 200_000_000)
		requireErrorCode(t, err, types.ReconciliationRequired)
		assert.Contains(t, err.Error(), "write concern timeout")

		// no record, no custody change
		_, getErr := env.svc.GetStake(t.Context(), testAccount)
		requireErrorCode(t, getErr, types.NoStakeFound)
		assert.Zero(t, env.custody(t, types.TokenStake))

		docs, err := env.svc.ListPendingReconciliations(t.Context(), 10)
		require.Nil(t, err)
		require.Len(t, docs, 1)
		doc := docs[0]
		assert.Equal(t, types.EventStaked, doc.Operation)
		assert.Equal(t, testAccount, doc.Account)
		assert.Equal(t, types.TokenStake, doc.Token)
		assert.Equal(t, uint64(200_000_000), doc.Amount)
		assert.Equal(t, reference, doc.TransferRef)
		assert.Equal(t, model.ReconciliationPending, doc.State)
		assert.Equal(t, startTime.Unix(), doc.CreatedAt)
		assert.Contains(t, doc.Cause, "write concern timeout")

		require.NoError(t, env.svc.checkPendingReconciliations(t.Context()))

		env.advance(time.Hour)
		err = env.svc.ResolveReconciliation(t.Context(), doc.ID, "principal refunded manually")
		require.Nil(t, err)

		resolved, dbErr := env.db.GetReconciliation(t.Context(), doc.ID)
		require.NoError(t, dbErr)
		assert.Equal(t, model.ReconciliationResolved, resolved.State)
		assert.Equal(t, startTime.Add(time.Hour).Unix(), resolved.ResolvedAt)
		assert.Equal(t, "principal refunded manually", resolved.ResolutionNote)

		docs, err = env.svc.ListPendingReconciliations(t.Context(), 10)
		require.Nil(t, err)
		assert.Empty(t, docs)

		// resolving twice is refused
		err = env.svc.ResolveReconciliation(t.Context(), doc.ID, "again")
		requireErrorCode(t, err, types.NotFound)
	})
	t.Run("failed claim write keeps the claimed amount", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustStake(t, testAccount, 100_000_000)
		env.advance(time.Hour)
		env.db.rewardClaimErr = errors.New("primary stepped down")

		env.expectCredit(testAccount, rewardToken, 100_000)
		_, err := env.svc.Claim(t.Context(), testAccount)
		requireErrorCode(t, err, types.ReconciliationRequired)

		record, getErr := env.svc.GetStake(t.Context(), testAccount)
		require.Nil(t, getErr)
		assert.Zero(t, record.RewardClaimed)

		docs, listErr := env.svc.ListPendingReconciliations(t.Context(), 0)
		require.Nil(t, listErr)
		require.Len(t, docs, 1)
		assert.Equal(t, types.EventClaimed, docs[0].Operation)
		assert.Equal(t, types.TokenReward, docs[0].Token)
	})
	t.Run("failed unstake write", func(t *testing.T) {
		env := newTestEnv(t)
		env.mustStake(t, testAccount, 100_000_000)
		env.db.unstakeErr = errors.New("connection lost")

		env.expectCredit(testAccount, stakeToken, 100_000_000)
		_, err := env.svc.Unstake(t.Context(), testAccount)
		requireErrorCode(t, err, types.ReconciliationRequired)

		count, dbErr := env.db.CountPendingReconciliations(t.Context())
		require.NoError(t, dbErr)
		assert.Equal(t, int64(1), count)
	})
	t.Run("custody failure does not fail the operation", func(t *testing.T) {
		env := newTestEnv(t)
		env.db.custodyErr = errors.New("custody unavailable")

		record := env.mustStake(t, testAccount, 100_000_000)
		assert.False(t, record.Unstaked)

		docs, err := env.svc.ListPendingReconciliations(t.Context(), 10)
		require.Nil(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, types.EventStaked, docs[0].Operation)
		assert.Contains(t, docs[0].Cause, "custody unavailable")
	})
	t.Run("caller cancellation after the transfer", func(t *testing.T) {
		env := newTestEnv(t)
		ctx, cancel := context.WithCancel(t.Context())

		env.expectDebit(testAccount, stakeToken, 100_000_000).Run(func(mock.Arguments) {
			cancel()
		})
		record, err := env.svc.Stake(ctx, testAccount, 100_000_000)
		require.Nil(t, err)
		assert.Equal(t, uint64(100_000_000), record.Principal)

		stored, getErr := env.svc.GetStake(t.Context(), testAccount)
		require.Nil(t, getErr)
		assert.Equal(t, record.ReferenceID, stored.ReferenceID)
	})
	t.Run("validation", func(t *testing.T) {
		env := newTestEnv(t)
		err := env.svc.ResolveReconciliation(t.Context(), "", "note")
		requireErrorCode(t, err, types.ValidationError)

		err = env.svc.ResolveReconciliation(t.Context(), "some-id", "")
		requireErrorCode(t, err, types.ValidationError)

		err = env.svc.ResolveReconciliation(t.Context(), "unknown", "note")
		requireErrorCode(t, err, types.NotFound)
	})
}

func TestPollers(t *testing.T) {
	env := newTestEnv(t)
	env.mustStake(t, testAccount, 100_000_000)

	require.NoError(t, env.svc.checkPendingReconciliations(t.Context()))
	require.NoError(t, env.svc.updateCustodyStats(t.Context()))

	balances, err := env.svc.GetCustodyBalances(t.Context())
	require.Nil(t, err)
	require.Len(t, balances, 1)
	assert.Equal(t, types.TokenStake.String(), balances[0].Token)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	// both return once the context is done
	env.svc.StartReconciliationPoller(ctx)
	env.svc.StartCustodyStatsPoller(ctx)
}
