package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/services"
	"github.com/liquidstaking/staking-ledger/internal/types"
)

type Handler struct {
	service *services.Service
}

func New(service *services.Service) *Handler {
	return &Handler{service: service}
}

type StakeRequest struct {
	Account string `json:"account"`
	Amount  uint64 `json:"amount"`
}

type FundRewardsRequest struct {
	Funder string `json:"funder"`
	Amount uint64 `json:"amount"`
}

type ClaimResponse struct {
	Account string `json:"account"`
	Claimed uint64 `json:"claimed"`
}

type StakeOverviewResponse struct {
	*model.StakeRecord
	State           types.StakeState `json:"state"`
	At              int64            `json:"at"`
	Vested          uint64           `json:"vested"`
	Claimable       uint64           `json:"claimable"`
	CliffTime       int64            `json:"cliff_time"`
	FullyVestedTime int64            `json:"fully_vested_time"`
}

type VestedResponse struct {
	Account string `json:"account"`
	At      int64  `json:"at"`
	Vested  uint64 `json:"vested"`
}

type ReferenceResponse struct {
	Account     string `json:"account"`
	ReferenceID string `json:"reference_id"`
}

type ParamsResponse struct {
	StakeToken            string `json:"stake_token"`
	RewardToken           string `json:"reward_token"`
	MinStake              uint64 `json:"min_stake"`
	MaxStake              uint64 `json:"max_stake"`
	StakeStep             uint64 `json:"stake_step"`
	RewardRateNumerator   uint64 `json:"reward_rate_numerator"`
	RewardRateDenominator uint64 `json:"reward_rate_denominator"`
	VestingCliffSeconds   int64  `json:"vesting_cliff_seconds"`
	VestingPeriodSeconds  int64  `json:"vesting_period_seconds"`

	// when set, claim the whole previous reward before staking again
	RestakeRequiresClaimedReward bool `json:"restake_requires_claimed_reward"`
}

func (h *Handler) Stake(w http.ResponseWriter, r *http.Request) *types.Error {
	var req StakeRequest
	if err := parseJSON(r, &req); err != nil {
		return err
	}

	record, err := h.service.Stake(r.Context(), req.Account, req.Amount)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, record)
	return nil
}

func (h *Handler) Unstake(w http.ResponseWriter, r *http.Request) *types.Error {
	record, err := h.service.Unstake(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, record)
	return nil
}

func (h *Handler) Claim(w http.ResponseWriter, r *http.Request) *types.Error {
	account := chi.URLParam(r, "account")
	claimed, err := h.service.Claim(r.Context(), account)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ClaimResponse{Account: account, Claimed: claimed})
	return nil
}

func (h *Handler) GetStake(w http.ResponseWriter, r *http.Request) *types.Error {
	overview, err := h.service.GetStakeOverview(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, StakeOverviewResponse{
		StakeRecord:     overview.Record,
		State:           overview.State,
		At:              overview.At.Unix(),
		Vested:          overview.Vested,
		Claimable:       overview.Claimable,
		CliffTime:       overview.CliffTime.Unix(),
		FullyVestedTime: overview.FullyVestedTime.Unix(),
	})
	return nil
}

// GetVested projects the vested reward, the optional "at" query is unix seconds
func (h *Handler) GetVested(w http.ResponseWriter, r *http.Request) *types.Error {
	var at time.Time
	if raw := r.URL.Query().Get("at"); raw != "" {
		sec, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || sec < 0 {
			return types.NewValidationFailedError(fmt.Errorf("invalid at %q, expected unix seconds", raw))
		}
		at = time.Unix(sec, 0)
	}

	account := chi.URLParam(r, "account")
	vested, err := h.service.VestedAmount(r.Context(), account, at)
	if err != nil {
		return err
	}
	resp := VestedResponse{Account: account, Vested: vested}
	if !at.IsZero() {
		resp.At = at.Unix()
	}
	writeJSON(w, http.StatusOK, resp)
	return nil
}

func (h *Handler) GetReference(w http.ResponseWriter, r *http.Request) *types.Error {
	account := chi.URLParam(r, "account")
	reference, err := h.service.GetStakeReference(r.Context(), account)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, ReferenceResponse{Account: account, ReferenceID: reference})
	return nil
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) *types.Error {
	docs, err := h.service.GetStakeHistory(r.Context(), chi.URLParam(r, "account"))
	if err != nil {
		return err
	}

	records := make([]*model.StakeRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, doc.Record)
	}
	writeJSON(w, http.StatusOK, records)
	return nil
}

func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) *types.Error {
	limit, err := parseLimit(r)
	if err != nil {
		return err
	}

	events, err := h.service.GetStakeEvents(r.Context(), chi.URLParam(r, "account"), limit)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, events)
	return nil
}

func (h *Handler) FundRewards(w http.ResponseWriter, r *http.Request) *types.Error {
	var req FundRewardsRequest
	if err := parseJSON(r, &req); err != nil {
		return err
	}

	if err := h.service.FundRewards(r.Context(), req.Funder, req.Amount); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (h *Handler) GetCustody(w http.ResponseWriter, r *http.Request) *types.Error {
	balances, err := h.service.GetCustodyBalances(r.Context())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, balances)
	return nil
}

func (h *Handler) GetParams(w http.ResponseWriter, _ *http.Request) *types.Error {
	params := h.service.Params()
	writeJSON(w, http.StatusOK, ParamsResponse{
		StakeToken:            params.StakeToken,
		RewardToken:           params.RewardToken,
		MinStake:              params.MinStake,
		MaxStake:              params.MaxStake,
		StakeStep:             params.StakeStep,
		RewardRateNumerator:   params.RewardRateNumerator,
		RewardRateDenominator: params.RewardRateDenominator,
		VestingCliffSeconds:   int64(params.VestingCliff / time.Second),
		VestingPeriodSeconds:  int64(params.VestingPeriod / time.Second),

		RestakeRequiresClaimedReward: params.RestakeRequiresClaimedReward,
	})
	return nil
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) *types.Error {
	if err := h.service.Ping(r.Context()); err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	return nil
}

func parseLimit(r *http.Request) (int64, *types.Error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		return 0, types.NewValidationFailedError(fmt.Errorf("invalid limit %q", raw))
	}
	return limit, nil
}
