package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/liquidstaking/staking-ledger/internal/api"
	"github.com/liquidstaking/staking-ledger/internal/clients/transferclient"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/observability/tracing"
	"github.com/liquidstaking/staking-ledger/internal/queue"
	"github.com/liquidstaking/staking-ledger/internal/services"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func StartServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start-server",
		Short: "Starts the staking ledger api server and its pollers",
		Args:  cobra.ExactArgs(0),
		RunE:  startServer,
	}

	return cmd
}

func startServer(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = tracing.InjectTraceID(ctx)
	log := log.Ctx(ctx)

	// load config
	cfgPath := GetConfigPath()
	cfg, err := config.New(cfgPath)
	if err != nil {
		return fmt.Errorf("error while loading config file %s: %w", cfgPath, err)
	}

	dbClient, closeDb, err := newDb(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeDb()

	var transferClient transferclient.TransferInterface
	transferClient = transferclient.NewTransferClient(&cfg.Transfer)
	transferClient = transferclient.NewTransferClientWithMetrics(transferClient)

	var publisher queue.EventPublisher = queue.NoopPublisher{}
	if cfg.Queue != nil {
		// Create a basic zap logger
		zapLogger, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("error while creating zap logger: %w", err)
		}
		defer func() {
			// syncing stderr fails on some platforms, nothing to act on
			_ = zapLogger.Sync()
		}()

		qm, err := queue.NewQueueManager(cfg.Queue, zapLogger)
		if err != nil {
			return fmt.Errorf("failed to initialize event queue: %w", err)
		}
		publisher = qm
	} else {
		log.Info().Msg("no queue configured, stake events only go to the event log")
	}
	defer publisher.Shutdown()

	service, err := services.NewService(cfg, dbClient, transferClient, publisher, nil)
	if err != nil {
		return fmt.Errorf("error while creating service: %w", err)
	}

	// initialize metrics with the metrics port from config
	metricsPort := cfg.Metrics.GetMetricsPort()
	metrics.Init(metricsPort)

	server := api.NewServer(&cfg.Server, api.New(service))

	p := pool.New().WithContext(ctx).WithCancelOnError()
	p.Go(server.Start)
	p.Go(func(ctx context.Context) error {
		service.StartReconciliationPoller(ctx)
		return nil
	})
	p.Go(func(ctx context.Context) error {
		service.StartCustodyStatsPoller(ctx)
		return nil
	})

	err = p.Wait()
	log.Info().Msg("staking ledger stopped")
	return err
}
