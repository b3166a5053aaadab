package db

import (
	"context"
	"fmt"

	"github.com/avast/retry-go/v4"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type Database struct {
	dbName string
	client *mongo.Client
}

// New connects to mongo and pings the primary, retrying both according to the db config.
func New(ctx context.Context, cfg config.DbConfig) (*Database, error) {
	credential := options.Credential{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	clientOps := options.Client().ApplyURI(cfg.Address).SetAuth(credential)

	attempts := cfg.MaxRetryTimes
	if attempts == 0 {
		attempts = 1
	}

	client, err := retry.DoWithData(
		func() (*mongo.Client, error) {
			client, err := mongo.Connect(ctx, clientOps)
			if err != nil {
				return nil, err
			}
			if err := client.Ping(ctx, readpref.Primary()); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
			return client, nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(cfg.RetryInterval),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warn().Err(err).Uint("attempt", n+1).Msg("failed to connect to mongo, retrying")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	return &Database{
		dbName: cfg.DbName,
		client: client,
	}, nil
}

func (db *Database) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

func (db *Database) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

func (db *Database) collection(name string) *mongo.Collection {
	return db.client.Database(db.dbName).Collection(name)
}
