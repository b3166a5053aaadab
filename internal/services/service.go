package services

import (
	"fmt"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/liquidstaking/staking-ledger/internal/clients/transferclient"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/db"
	"github.com/liquidstaking/staking-ledger/internal/queue"
	"github.com/liquidstaking/staking-ledger/internal/utils/keylock"
	"github.com/liquidstaking/staking-ledger/internal/vesting"
)

type Service struct {
	cfg       *config.Config
	db        db.DbInterface
	transfer  transferclient.TransferInterface
	publisher queue.EventPublisher
	clock     clock.Clock
	schedule  vesting.Schedule
	locks     *keylock.KeyedMutex
}

func NewService(
	cfg *config.Config,
	db db.DbInterface,
	transfer transferclient.TransferInterface,
	publisher queue.EventPublisher,
	clk clock.Clock,
) (*Service, error) {
	schedule, err := vesting.NewSchedule(cfg.Ledger.VestingCliff, cfg.Ledger.VestingPeriod)
	if err != nil {
		return nil, fmt.Errorf("invalid vesting schedule: %w", err)
	}

	if publisher == nil {
		publisher = queue.NoopPublisher{}
	}
	if clk == nil {
		clk = clock.NewDefaultClock()
	}

	return &Service{
		cfg:       cfg,
		db:        db,
		transfer:  transfer,
		publisher: publisher,
		clock:     clk,
		schedule:  schedule,
		locks:     keylock.New(),
	}, nil
}
