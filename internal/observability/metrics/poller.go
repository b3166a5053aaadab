package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type pollFunc = func(ctx context.Context) error

// RecordPollerDuration wraps one poll iteration of the named poller. Each iteration
// logs with the poller name attached.
func RecordPollerDuration(poller string, f pollFunc) pollFunc {
	return func(ctx context.Context) error {
		logger := log.Ctx(ctx).With().Str("poller", poller).Logger()
		ctx = logger.WithContext(ctx)

		startTime := time.Now()
		err := f(ctx)

		status := Success
		if err != nil {
			status = Error
		}
		pollerDurationHistogram.WithLabelValues(poller, status.String()).Observe(time.Since(startTime).Seconds())

		return err
	}
}
