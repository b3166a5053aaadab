package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/rs/zerolog/log"
)

// maxErrorBodySize caps how much of a failed response is kept in HttpError
const maxErrorBodySize = 4 << 10

type BaseClient interface {
	GetBaseURL() string
	GetDefaultRequestTimeout() time.Duration
	GetHttpClient() *http.Client
}

type HttpClientOptions struct {
	// Timeout overrides the default request timeout of the client when positive
	Timeout time.Duration
	Path    string
	// TemplatePath is the path used as metric label, it must not contain ids
	TemplatePath string
	Headers      map[string]string
}

// HttpError is returned for any non 2xx response
type HttpError struct {
	StatusCode int
	Body       []byte
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, string(e.Body))
}

func AsHttpError(err error) (*HttpError, bool) {
	var httpErr *HttpError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// SendRequest encodes input as JSON, sends it and decodes a JSON response into R.
// A nil input sends no body.
func SendRequest[I any, R any](
	ctx context.Context, client BaseClient, method string, opts *HttpClientOptions, input *I,
) (*R, error) {
	timeout := client.GetDefaultRequestTimeout()
	if opts.Timeout > 0 {
		timeout = opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := client.GetBaseURL() + opts.Path

	var body io.Reader
	if input != nil {
		payload, err := json.Marshal(input)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range opts.Headers {
		req.Header.Set(k, v)
	}

	timer := metrics.StartClientRequestDurationTimer(client.GetBaseURL(), method, opts.TemplatePath)

	resp, err := client.GetHttpClient().Do(req)
	if err != nil {
		timer(0)
		// the caller decides what a timeout means, keep the context error in the chain
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("request to %s failed: %w", opts.TemplatePath, ctxErr)
		}
		return nil, fmt.Errorf("request to %s failed: %w", opts.TemplatePath, err)
	}
	defer resp.Body.Close()
	timer(resp.StatusCode)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		log.Ctx(ctx).Debug().
			Int("status_code", resp.StatusCode).
			Str("path", opts.TemplatePath).
			Msg("unexpected response from remote service")
		return nil, &HttpError{
			StatusCode: resp.StatusCode,
			Body:       errBody,
		}
	}

	var result R
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &result, nil
}
