package transferclient

import (
	"context"
	"time"

	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
)

type transferClientWithMetrics struct {
	transfer TransferInterface
}

func NewTransferClientWithMetrics(transfer TransferInterface) *transferClientWithMetrics {
	return &transferClientWithMetrics{transfer: transfer}
}

func (t *transferClientWithMetrics) Debit(ctx context.Context, account, token string, amount uint64, reference string) error {
	return runTransferMethodWithMetrics("Debit", func() error {
		return t.transfer.Debit(ctx, account, token, amount, reference)
	})
}

func (t *transferClientWithMetrics) Credit(ctx context.Context, account, token string, amount uint64, reference string) error {
	return runTransferMethodWithMetrics("Credit", func() error {
		return t.transfer.Credit(ctx, account, token, amount, reference)
	})
}

func runTransferMethodWithMetrics(method string, f func() error) error {
	startTime := time.Now()
	err := f()
	duration := time.Since(startTime)

	metrics.RecordTransferClientLatency(duration, method, err != nil)
	return err
}
