package mq

import (
	"context"
	"testing"

	"github.com/goaltrackr/apiserver/config"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromConfigDisabled(t *testing.T) {
	broker, err := FromConfig(context.Background(), config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, broker)
}

func TestFromConfigUnknownBackend(t *testing.T) {
	_, err := FromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.ErrorContains(t, err, "kafka")
}

func TestFromConfigRequiresSettings(t *testing.T) {
	_, err := FromConfig(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.Error(t, err)

	_, err = FromConfig(context.Background(), config.MQConfig{Backend: "pubsub"})
	assert.Error(t, err)
}

func TestHeadersToAttributes(t *testing.T) {
	attrs := headersToAttributes(amqp.Table{
		"type":  "goal.created",
		"raw":   []byte("bytes"),
		"count": int32(3),
	})
	assert.Equal(t, map[string]string{"type": "goal.created", "raw": "bytes", "count": "3"}, attrs)
	assert.Nil(t, headersToAttributes(nil))
}

func TestSubscriptionName(t *testing.T) {
	assert.Equal(t, "goal-events-sub", (&PubSubClient{subscriptionSuffix: "-sub"}).subscriptionName("goal-events"))
	assert.Equal(t, "goal-events", (&PubSubClient{}).subscriptionName("goal-events"))
}
