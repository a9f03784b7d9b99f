package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorconnect/jobs/pkg/circuitbreaker"
	"github.com/vendorconnect/jobs/pkg/logger"
	"github.com/vendorconnect/jobs/pkg/messaging"
)

func TestNewRedisBrokerRejectsBadURL(t *testing.T) {
	_, err := NewRedisBroker(context.Background(), Config{URL: "http://localhost:6379"}, logger.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse Redis URL")
}

func TestPublishOpensBreakerWhenRedisIsDown(t *testing.T) {
	b := &RedisBroker{
		// nothing listens on port 1
		client: redis.NewClient(&redis.Options{
			Addr:        "127.0.0.1:1",
			MaxRetries:  -1,
			DialTimeout: 200 * time.Millisecond,
		}),
		cb: circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
			Name:        "redis-broker",
			MaxFailures: 2,
			Timeout:     time.Minute,
		}),
		logger: logger.Nop(),
	}
	defer b.Close()

	ctx := context.Background()
	msg := messaging.Message{Type: "notification.created"}
	for i := 0; i < 2; i++ {
		err := b.Publish(ctx, messaging.ChannelNotifications, msg)
		require.Error(t, err)
		assert.False(t, errors.Is(err, circuitbreaker.ErrOpen))
	}

	err := b.Publish(ctx, messaging.ChannelNotifications, msg)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Error(t, b.PingContext(ctx))
}
