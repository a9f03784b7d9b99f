package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNopBrokerDropsMessages(t *testing.T) {
	var b Broker = NopBroker{}

	assert.NoError(t, b.Publish(context.Background(), ChannelNotifications, Message{Type: "notification.created"}))
	assert.NoError(t, b.Close())
}
