package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/db"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/services"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/tests/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	account      = "0x8ba1f109551bD432803012645Ac136ddd64DBA72"
	accountLower = "0x8ba1f109551bd432803012645ac136ddd64dba72"
)

var startTime = time.Unix(1_700_000_000, 0)

type testServer struct {
	router   http.Handler
	transfer *mocks.TransferInterface
	clock    *clock.TestClock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	metrics.Init(0)

	cfg := &config.Config{Ledger: *config.DefaultLedgerConfig()}
	require.NoError(t, cfg.Ledger.Validate())

	ts := &testServer{
		transfer: mocks.NewTransferInterface(t),
		clock:    clock.NewTestClock(startTime),
	}
	svc, err := services.NewService(cfg, db.NewMemoryDatabase(), ts.transfer, nil, ts.clock)
	require.NoError(t, err)

	ts.router = New(svc).Router()
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func requireAPIError(t *testing.T, rec *httptest.ResponseRecorder, status int, code types.ErrorCode) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, code.String(), resp.ErrorCode)
	assert.NotEmpty(t, resp.Message)
}

func (ts *testServer) stake(t *testing.T, amount uint64) model.StakeRecord {
	t.Helper()
	ts.transfer.On("Debit", mock.Anything, account, "WSOL", amount, mock.AnythingOfType("string")).Return(nil).Once()

	rec := ts.do(t, http.MethodPost, "/v1/stakes", StakeRequest{Account: accountLower, Amount: amount})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[model.StakeRecord](t, rec)
}

func TestStakeLifecycle(t *testing.T) {
	ts := newTestServer(t)

	record := ts.stake(t, 300_000_000)
	assert.Equal(t, account, record.Account)
	assert.Equal(t, uint64(300_000), record.RewardGranted)

	rec := ts.do(t, http.MethodPost, "/v1/stakes", StakeRequest{Account: account, Amount: 300_000_000})
	requireAPIError(t, rec, http.StatusConflict, types.AlreadyStaked)

	ts.clock.SetTime(startTime.Add(900 * time.Second))
	rec = ts.do(t, http.MethodGet, "/v1/stakes/"+account, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	overview := decode[StakeOverviewResponse](t, rec)
	assert.Equal(t, types.StateStaked, overview.State)
	assert.Equal(t, uint64(150_000), overview.Vested)
	assert.Equal(t, uint64(150_000), overview.Claimable)
	assert.Equal(t, record.ReferenceID, overview.ReferenceID)
	assert.Equal(t, startTime.Add(7*time.Minute).Unix(), overview.CliffTime)

	ts.transfer.On("Credit", mock.Anything, account, "USDT", uint64(150_000), mock.AnythingOfType("string")).Return(nil).Once()
	rec = ts.do(t, http.MethodPost, "/v1/stakes/"+account+"/claim", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, uint64(150_000), decode[ClaimResponse](t, rec).Claimed)

	ts.transfer.On("Credit", mock.Anything, account, "WSOL", uint64(300_000_000), mock.AnythingOfType("string")).Return(nil).Once()
	rec = ts.do(t, http.MethodPost, "/v1/stakes/"+account+"/unstake", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[model.StakeRecord](t, rec).Unstaked)

	rec = ts.do(t, http.MethodPost, "/v1/stakes/"+account+"/unstake", nil)
	requireAPIError(t, rec, http.StatusConflict, types.AlreadyUnstaked)

	rec = ts.do(t, http.MethodGet, "/v1/stakes/"+account+"/events?limit=10", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.StakeEventDocument](t, rec), 3)

	rec = ts.do(t, http.MethodGet, "/v1/stakes/"+account+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]model.StakeRecord](t, rec))
}

func TestStakeValidation(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/v1/stakes", StakeRequest{Account: "0x1234", Amount: 100_000_000})
	requireAPIError(t, rec, http.StatusBadRequest, types.InvalidAccount)

	rec = ts.do(t, http.MethodPost, "/v1/stakes", StakeRequest{Account: account, Amount: 150_000_000})
	requireAPIError(t, rec, http.StatusBadRequest, types.InvalidAmount)

	rec = ts.do(t, http.MethodPost, "/v1/stakes", map[string]any{"account": account, "amount": 100_000_000, "extra": true})
	requireAPIError(t, rec, http.StatusBadRequest, types.ValidationError)

	rec = ts.do(t, http.MethodPost, "/v1/stakes", nil)
	requireAPIError(t, rec, http.StatusBadRequest, types.ValidationError)
}

func TestQueries(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/v1/stakes/"+account, nil)
	requireAPIError(t, rec, http.StatusNotFound, types.NoStakeFound)

	record := ts.stake(t, 100_000_000)

	t.Run("vested", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/stakes/"+account+"/vested?at=1700001800", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[VestedResponse](t, rec)
		assert.Equal(t, uint64(100_000), resp.Vested)
		assert.Equal(t, int64(1_700_001_800), resp.At)

		rec = ts.do(t, http.MethodGet, "/v1/stakes/"+account+"/vested", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, decode[VestedResponse](t, rec).Vested)

		rec = ts.do(t, http.MethodGet, "/v1/stakes/"+account+"/vested?at=yesterday", nil)
		requireAPIError(t, rec, http.StatusBadRequest, types.ValidationError)
	})
	t.Run("reference", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/stakes/"+accountLower+"/reference", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, record.ReferenceID, decode[ReferenceResponse](t, rec).ReferenceID)
	})
	t.Run("events limit", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/stakes/"+account+"/events?limit=-1", nil)
		requireAPIError(t, rec, http.StatusBadRequest, types.ValidationError)
	})
	t.Run("custody", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/custody", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		balances := decode[[]model.CustodyBalance](t, rec)
		require.Len(t, balances, 1)
		assert.Equal(t, int64(100_000_000), balances[0].Balance)
	})
	t.Run("params", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/v1/params", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		params := decode[ParamsResponse](t, rec)
		assert.Equal(t, "WSOL", params.StakeToken)
		assert.Equal(t, int64(420), params.VestingCliffSeconds)
		assert.Equal(t, int64(1800), params.VestingPeriodSeconds)
		assert.True(t, params.RestakeRequiresClaimedReward)
	})
	t.Run("healthcheck", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/healthcheck", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestFundRewards(t *testing.T) {
	ts := newTestServer(t)

	ts.transfer.On("Debit", mock.Anything, account, "USDT", uint64(1_000_000), mock.AnythingOfType("string")).Return(nil).Once()
	rec := ts.do(t, http.MethodPost, "/v1/rewards/fund", FundRewardsRequest{Funder: account, Amount: 1_000_000})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = ts.do(t, http.MethodPost, "/v1/rewards/fund", FundRewardsRequest{Funder: account})
	requireAPIError(t, rec, http.StatusBadRequest, types.InvalidAmount)
}
