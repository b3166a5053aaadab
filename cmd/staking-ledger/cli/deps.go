package cli

import (
	"context"
	"fmt"

	"github.com/liquidstaking/staking-ledger/internal/clients/transferclient"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/db"
	dbmodel "github.com/liquidstaking/staking-ledger/internal/db/model"
	"github.com/liquidstaking/staking-ledger/internal/queue"
	"github.com/liquidstaking/staking-ledger/internal/services"
	"github.com/rs/zerolog/log"
)

// newDb opens the configured storage backend wrapped with metrics. The returned
// close func is never nil.
func newDb(ctx context.Context, cfg *config.Config) (db.DbInterface, func(), error) {
	if cfg.Db.Type == config.DbTypeMemory {
		log.Ctx(ctx).Warn().Msg("using in-memory storage, ledger state is lost on exit")
		return db.NewDbWithMetrics(db.NewMemoryDatabase()), func() {}, nil
	}

	if err := dbmodel.Setup(ctx, &cfg.Db); err != nil {
		return nil, nil, fmt.Errorf("error while setting up staking db model: %w", err)
	}

	dbClient, err := db.New(ctx, cfg.Db)
	if err != nil {
		return nil, nil, fmt.Errorf("error while creating db client: %w", err)
	}
	closeFn := func() {
		if err := dbClient.Close(context.WithoutCancel(ctx)); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("error while closing db client")
		}
	}
	return db.NewDbWithMetrics(dbClient), closeFn, nil
}

// newService builds a ledger service without an event queue, used by the
// maintenance commands
func newService(ctx context.Context) (*services.Service, func(), error) {
	cfg, err := config.New(GetConfigPath())
	if err != nil {
		return nil, nil, fmt.Errorf("error while loading config file %s: %w", GetConfigPath(), err)
	}

	dbClient, closeFn, err := newDb(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	transferClient := transferclient.NewTransferClient(&cfg.Transfer)
	service, err := services.NewService(cfg, dbClient, transferClient, queue.NoopPublisher{}, nil)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("error while creating service: %w", err)
	}
	return service, closeFn, nil
}
