//go:build integration

package queue_test

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/liquidstaking/staking-ledger/internal/config"
	"github.com/liquidstaking/staking-ledger/internal/observability/metrics"
	"github.com/liquidstaking/staking-ledger/internal/queue"
	"github.com/liquidstaking/staking-ledger/internal/types"
	"github.com/liquidstaking/staking-ledger/pkg"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	rabbitUser     = "user"
	rabbitPassword = "password"
	rabbitVersion  = "3.13-alpine"
)

var queueCfg *config.QueueConfig

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Fatalf("failed to connect to docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Name:       "rabbitmq-integration-tests-" + gofakeit.LetterN(3),
		Repository: "rabbitmq",
		Tag:        pkg.Getenv("RABBITMQ_VERSION", rabbitVersion),
		Env: []string{
			"RABBITMQ_DEFAULT_USER=" + rabbitUser,
			"RABBITMQ_DEFAULT_PASS=" + rabbitPassword,
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Fatalf("failed to start rabbitmq: %v", err)
	}

	queueCfg = &config.QueueConfig{
		URL:      "localhost:" + resource.GetPort("5672/tcp"),
		User:     rabbitUser,
		Password: rabbitPassword,
	}
	if err := queueCfg.Validate(); err != nil {
		log.Fatalf("invalid queue config: %v", err)
	}

	pool.MaxWait = time.Minute
	err = pool.Retry(func() error {
		conn, err := amqp.Dial(queueCfg.AmqpURL())
		if err != nil {
			return err
		}
		return conn.Close()
	})
	if err != nil {
		_ = pool.Purge(resource)
		log.Fatalf("rabbitmq is not reachable: %v", err)
	}

	metrics.Init(0)
	code := m.Run()

	if err := pool.Purge(resource); err != nil {
		log.Fatalf("failed to purge rabbitmq: %v", err)
	}
	os.Exit(code)
}

func TestQueueManager_PushStakeEvent(t *testing.T) {
	qm, err := queue.NewQueueManager(queueCfg, zap.NewNop())
	require.NoError(t, err)
	defer qm.Shutdown()

	ev := &types.StakeEvent{
		ID:            uuid.NewString(),
		Type:          types.EventStaked,
		Account:       "0x8ba1f109551bD432803012645Ac136ddd64DBA72",
		Token:         types.TokenStake,
		Amount:        300_000_000,
		RewardGranted: 300_000,
		Timestamp:     time.Now().Unix(),
	}
	require.NoError(t, qm.PushStakeEvent(t.Context(), ev))

	conn, err := amqp.Dial(queueCfg.AmqpURL())
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var delivery amqp.Delivery
	require.Eventually(t, func() bool {
		d, ok, err := ch.Get(queueCfg.QueueName, true)
		if err != nil || !ok {
			return false
		}
		delivery = d
		return true
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, ev.ID, delivery.MessageId)
	assert.Equal(t, "STAKED", delivery.Type)

	var got types.StakeEvent
	require.NoError(t, json.Unmarshal(delivery.Body, &got))
	assert.Equal(t, *ev, got)

	t.Run("reconnects after the connection dropped", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
		defer cancel()

		qm.Shutdown()
		require.NoError(t, qm.PushStakeEvent(ctx, ev))
	})
}
