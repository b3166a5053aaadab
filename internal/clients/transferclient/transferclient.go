package transferclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/clients/client"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/rs/zerolog/log"
)

const (
	debitPath  = "/v1/debit"
	creditPath = "/v1/credit"

	idempotencyHeader = "Idempotency-Key"
)

type TransferClient struct {
	httpClient *http.Client
	cfg        *config.TransferConfig
}

func NewTransferClient(cfg *config.TransferConfig) *TransferClient {
	return &TransferClient{
		httpClient: &http.Client{},
		cfg:        cfg,
	}
}

func (c *TransferClient) GetBaseURL() string {
	return strings.TrimRight(c.cfg.URL, "/")
}

func (c *TransferClient) GetDefaultRequestTimeout() time.Duration {
	return c.cfg.Timeout
}

func (c *TransferClient) GetHttpClient() *http.Client {
	return c.httpClient
}

type transferRequest struct {
	Account   string `json:"account"`
	Token     string `json:"token"`
	Amount    uint64 `json:"amount,string"`
	Reference string `json:"reference"`
}

type transferResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

type errorResponse struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func (c *TransferClient) Debit(ctx context.Context, account, token string, amount uint64, reference string) error {
	return c.transfer(ctx, debitPath, account, token, amount, reference)
}

func (c *TransferClient) Credit(ctx context.Context, account, token string, amount uint64, reference string) error {
	return c.transfer(ctx, creditPath, account, token, amount, reference)
}

func (c *TransferClient) transfer(
	ctx context.Context, path, account, token string, amount uint64, reference string,
) error {
	input := &transferRequest{
		Account:   account,
		Token:     token,
		Amount:    amount,
		Reference: reference,
	}
	opts := &client.HttpClientOptions{
		Path:         path,
		TemplatePath: path,
		Headers:      map[string]string{idempotencyHeader: reference},
	}

	resp, err := client.SendRequest[transferRequest, transferResponse](ctx, c, http.MethodPost, opts, input)
	if err != nil {
		return c.classify(ctx, path, reference, err)
	}

	log.Ctx(ctx).Debug().
		Str("path", path).
		Str("reference", resp.Reference).
		Str("status", resp.Status).
		Msg("transfer accepted")
	return nil
}

// classify turns transport and http errors into TransferError. A 409 means the
// reference was already executed, which is reported as success.
func (c *TransferClient) classify(ctx context.Context, path, reference string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewTransferError(ErrTimeout, err.Error())
	}

	httpErr, ok := client.AsHttpError(err)
	if !ok {
		return NewTransferError(ErrUnavailable, err.Error())
	}

	reason := string(httpErr.Body)
	var body errorResponse
	if jsonErr := json.Unmarshal(httpErr.Body, &body); jsonErr == nil && body.Message != "" {
		reason = body.Message
	}

	switch httpErr.StatusCode {
	case http.StatusConflict:
		log.Ctx(ctx).Warn().
			Str("path", path).
			Str("reference", reference).
			Msg("transfer reference already executed")
		return nil
	case http.StatusPaymentRequired:
		return NewTransferError(ErrInsufficientFunds, reason)
	case http.StatusForbidden:
		return NewTransferError(ErrNotApproved, reason)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return NewTransferError(ErrRejected, reason)
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return NewTransferError(ErrTimeout, reason)
	default:
		return NewTransferError(ErrUnavailable, fmt.Sprintf("status %d: %s", httpErr.StatusCode, reason))
	}
}
