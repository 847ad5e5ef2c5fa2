package messaging

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"callinsight/pkg/analysis"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestDisabledClientIsNoOp(t *testing.T) {
	client := NewAMQPClient(testLogger(), AMQPConfig{})

	assert.False(t, client.Enabled())
	require.NoError(t, client.Connect())
	assert.False(t, client.IsConnected())

	// Publishing without a broker succeeds silently.
	assert.NoError(t, client.PublishRecord("call-1", analysis.ConversationRecord{}))
	assert.NoError(t, client.PublishSummary("call-1", analysis.AttributeSummary{}, analysis.SentimentSummary{}, 0))
	client.OnRecord("call-1", analysis.ConversationRecord{})

	client.Disconnect()
}

func TestConfigDefaults(t *testing.T) {
	client := NewAMQPClient(testLogger(), AMQPConfig{
		URL:       "amqp://localhost:5672/",
		QueueName: "callinsight.records",
	})

	assert.True(t, client.Enabled())
	assert.Equal(t, "callinsight.records", client.config.RoutingKey)
	assert.True(t, client.config.Durable)
	assert.False(t, client.config.AutoDelete)
}

func TestPublishWhenNotConnected(t *testing.T) {
	client := NewAMQPClient(testLogger(), AMQPConfig{
		URL:       "amqp://localhost:5672/",
		QueueName: "callinsight.records",
	})

	err := client.PublishRecord("call-1", analysis.ConversationRecord{})
	assert.Error(t, err, "an enabled but unconnected client must refuse to publish")
}
