package services

import (
	"context"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/db"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/tests/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	// checksummed form of testAccountLower
	testAccount      = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	testAccountLower = "0x8ba1f109551bd432803012645ac136ddd64dba72"
	otherAccount     = "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B"

	stakeToken  = "WSOL"
	rewardToken = "USDT"
)

var startTime = time.Unix(1_700_000_000, 0)

// faultyDB lets tests fail single storage calls on top of the in-memory backend
type faultyDB struct {
	*db.MemoryDatabase
	saveStakeErr    error
	unstakeErr      error
	rewardClaimErr  error
	custodyErr      error
	stakeEventErr   error
	archiveStakeErr error
}

func (f *faultyDB) SaveNewStake(ctx context.Context, record, replaced *model.StakeRecord) error {
	if f.saveStakeErr != nil {
		return f.saveStakeErr
	}
	return f.MemoryDatabase.SaveNewStake(ctx, record, replaced)
}

func (f *faultyDB) MarkStakeUnstaked(ctx context.Context, account string, unstakedAt int64) (*model.StakeRecord, error) {
	if f.unstakeErr != nil {
		return nil, f.unstakeErr
	}
	return f.MemoryDatabase.MarkStakeUnstaked(ctx, account, unstakedAt)
}

func (f *faultyDB) UpdateStakeRewardClaimed(ctx context.Context, account string, prevClaimed, newClaimed uint64) error {
	if f.rewardClaimErr != nil {
		return f.rewardClaimErr
	}
	return f.MemoryDatabase.UpdateStakeRewardClaimed(ctx, account, prevClaimed, newClaimed)
}

func (f *faultyDB) IncrementCustodyBalance(ctx context.Context, token types.TokenKind, delta int64, updatedAt int64) error {
	if f.custodyErr != nil {
		return f.custodyErr
	}
	return f.MemoryDatabase.IncrementCustodyBalance(ctx, token, delta, updatedAt)
}

func (f *faultyDB) SaveStakeEvent(ctx context.Context, doc *model.StakeEventDocument) error {
	if f.stakeEventErr != nil {
		return f.stakeEventErr
	}
	return f.MemoryDatabase.SaveStakeEvent(ctx, doc)
}

func (f *faultyDB) ArchiveStake(ctx context.Context, doc *model.StakeHistoryDocument) error {
	if f.archiveStakeErr != nil {
		return f.archiveStakeErr
	}
	return f.MemoryDatabase.ArchiveStake(ctx, doc)
}

type testEnv struct {
	svc       *Service
	db        *faultyDB
	transfer  *mocks.TransferInterface
	publisher *mocks.EventPublisher
	clock     *clock.TestClock
}

func newTestEnv(t *testing.T, modify ...func(cfg *config.Config)) *testEnv {
	t.Helper()
	metrics.Init(0)

	cfg := &config.Config{
		Ledger: *config.DefaultLedgerConfig(),
		Poller: config.PollerConfig{
			ReconciliationPollingInterval: time.Minute,
			CustodyStatsPollingInterval:   time.Minute,
			ReconciliationBatchLimit:      10,
		},
	}
	for _, m := range modify {
		m(cfg)
	}
	require.NoError(t, cfg.Ledger.Validate())

	env := &testEnv{
		db:        &faultyDB{MemoryDatabase: db.NewMemoryDatabase()},
		transfer:  mocks.NewTransferInterface(t),
		publisher: mocks.NewEventPublisher(t),
		clock:     clock.NewTestClock(startTime),
	}
	// events are checked through the db event log, the queue only has to accept them
	env.publisher.On("PushStakeEvent", mock.Anything, mock.Anything).Return(nil).Maybe()

	svc, err := NewService(cfg, db.NewDbWithMetrics(env.db), env.transfer, env.publisher, env.clock)
	require.NoError(t, err)
	env.svc = svc
	return env
}

func oneToOneRate(cfg *config.Config) {
	cfg.Ledger.RewardRateNumerator = 1
	cfg.Ledger.RewardRateDenominator = 1
}

func (e *testEnv) advance(d time.Duration) {
	e.clock.SetTime(startTime.Add(d))
}

func (e *testEnv) expectDebit(account, token string, amount uint64) *mock.Call {
	return e.transfer.On("Debit", mock.Anything, account, token, amount, mock.AnythingOfType("string")).Return(nil).Once()
}

func (e *testEnv) expectCredit(account, token string, amount uint64) *mock.Call {
	return e.transfer.On("Credit", mock.Anything, account, token, amount, mock.AnythingOfType("string")).Return(nil).Once()
}

func (e *testEnv) mustStake(t *testing.T, account string, amount uint64) *model.StakeRecord {
	t.Helper()
	e.expectDebit(account, stakeToken, amount)
	record, err := e.svc.Stake(t.Context(), account, amount)
	require.Nil(t, err)
	return record
}

func (e *testEnv) custody(t *testing.T, token types.TokenKind) int64 {
	t.Helper()
	balances, err := e.db.GetCustodyBalances(t.Context())
	require.NoError(t, err)
	for _, b := range balances {
		if b.Token == token.String() {
			return b.Balance
		}
	}
	return 0
}

func requireErrorCode(t *testing.T, err *types.Error, code types.ErrorCode) {
	t.Helper()
	require.NotNil(t, err)
	require.Equal(t, code, err.ErrorCode, err.Error())
}
