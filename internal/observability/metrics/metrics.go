package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Outcome string

const (
	Success                  Outcome       = "success"
	Error                    Outcome       = "error"
	MetricRequestTimeout     time.Duration = 5 * time.Second
	MetricRequestIdleTimeout time.Duration = 10 * time.Second
)

func (O Outcome) String() string {
	return string(O)
}

var (
	once                           sync.Once
	metricsRouter                  *chi.Mux
	ledgerOperationLatency         *prometheus.HistogramVec
	transferClientLatency          *prometheus.HistogramVec
	queueSendErrorCounter          prometheus.Counter
	eventLogErrorCounter           prometheus.Counter
	clientRequestDurationHistogram *prometheus.HistogramVec
	pollerDurationHistogram        *prometheus.HistogramVec
	reconciliationRequiredCounter  *prometheus.CounterVec
	pendingReconciliationsGauge    prometheus.Gauge
	custodyBalanceGauge            *prometheus.GaugeVec
	dbLatency                      *prometheus.HistogramVec
)

// Init initializes the metrics package.
func Init(metricsPort int) {
	once.Do(func() {
		initMetricsRouter(metricsPort)
		registerMetrics()
	})
}

// initMetricsRouter initializes the metrics router.
func initMetricsRouter(metricsPort int) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})
	// Create a custom server with timeout settings
	metricsAddr := fmt.Sprintf(":%d", metricsPort)
	server := &http.Server{
		Addr:         metricsAddr,
		Handler:      metricsRouter,
		ReadTimeout:  MetricRequestTimeout,
		WriteTimeout: MetricRequestTimeout,
		IdleTimeout:  MetricRequestIdleTimeout,
	}

	// Start the server in a separate goroutine
	go func() {
		log.Printf("Starting metrics server on %s", metricsAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("Error starting metrics server on %s", metricsAddr)
		}
	}()
}

// registerMetrics initializes and register the Prometheus metrics.
func registerMetrics() {
	defaultHistogramBucketsSeconds := []float64{0.1, 0.5, 1, 2.5, 5, 10, 30}

	ledgerOperationLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ledger_operation_duration_seconds",
			Help:    "Histogram of ledger operation durations in seconds, split by operation and error code.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"operation", "status", "error_code"},
	)

	// client requests are the ones sending to other service
	clientRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "client_request_duration_seconds",
			Help:    "Histogram of outgoing client request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"baseurl", "method", "path", "status"},
	)

	transferClientLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "transfer_client_latency_seconds",
			Help:    "Histogram of transfer client durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"method", "status"},
	)

	// add a counter for the number of errors from the fail to push message into queue
	queueSendErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "queue_send_error_count",
			Help: "The total number of errors when sending messages to the queue",
		},
	)

	eventLogErrorCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "event_log_error_count",
			Help: "The total number of errors when appending stake events to the db event log",
		},
	)

	pollerDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "poller_duration_seconds",
			Help:    "Histogram of poller durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"type", "status"},
	)

	reconciliationRequiredCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconciliation_required_total",
			Help: "Number of transfers that succeeded while the following ledger write failed",
		},
		[]string{"operation"},
	)

	pendingReconciliationsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pending_reconciliations_count",
			Help: "Number of reconciliation records waiting for an operator",
		},
	)

	custodyBalanceGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "custody_balance",
			Help: "Pooled custody balance per token kind in base units",
		},
		[]string{"token"},
	)

	dbLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "db_latency_seconds",
			Help: "DB latency in seconds splitted by method and execution status",
		},
		[]string{"method", "status"},
	)

	prometheus.MustRegister(
		ledgerOperationLatency,
		transferClientLatency,
		queueSendErrorCounter,
		eventLogErrorCounter,
		clientRequestDurationHistogram,
		pollerDurationHistogram,
		reconciliationRequiredCounter,
		pendingReconciliationsGauge,
		custodyBalanceGauge,
		dbLatency,
	)
}

// RecordLedgerOperation observes one Stake/Unstake/Claim/FundRewards call.
// errorCode is empty on success.
func RecordLedgerOperation(d time.Duration, operation, errorCode string) {
	status := Success
	if errorCode != "" {
		status = Error
	}

	ledgerOperationLatency.WithLabelValues(operation, status.String(), errorCode).Observe(d.Seconds())
}

func RecordTransferClientLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	transferClientLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func RecordDbLatency(d time.Duration, method string, failure bool) {
	status := Success
	if failure {
		status = Error
	}

	dbLatency.WithLabelValues(method, status.String()).Observe(d.Seconds())
}

func IncReconciliationRequired(operation string) {
	reconciliationRequiredCounter.WithLabelValues(operation).Inc()
}

func RecordPendingReconciliations(count int64) {
	pendingReconciliationsGauge.Set(float64(count))
}

func RecordCustodyBalance(token string, balance int64) {
	custodyBalanceGauge.WithLabelValues(token).Set(float64(balance))
}

// StartClientRequestDurationTimer starts a timer to measure outgoing client request duration.
func StartClientRequestDurationTimer(baseUrl, method, path string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		clientRequestDurationHistogram.WithLabelValues(
			baseUrl,
			method,
			path,
			fmt.Sprintf("%d", statusCode),
		).Observe(duration)
	}
}

func RecordQueueSendError() {
	queueSendErrorCounter.Inc()
}

func RecordEventLogError() {
	eventLogErrorCounter.Inc()
}
