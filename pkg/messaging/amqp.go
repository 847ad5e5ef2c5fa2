package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"

	"callinsight/pkg/analysis"
)

// RecordMessage is the per-line message published to the queue.
type RecordMessage struct {
	CallUUID  string                      `json:"call_uuid"`
	Record    analysis.ConversationRecord `json:"record"`
	Timestamp time.Time                   `json:"timestamp"`
}

// SummaryMessage is the end-of-call message carrying the aggregates.
type SummaryMessage struct {
	CallUUID   string                    `json:"call_uuid"`
	Attributes analysis.AttributeSummary `json:"attributes"`
	Sentiments analysis.SentimentSummary `json:"sentiments"`
	Records    int                       `json:"record_count"`
	Timestamp  time.Time                 `json:"timestamp"`
}

// AMQPConfig holds AMQP client configuration
type AMQPConfig struct {
	URL          string
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Durable      bool
	AutoDelete   bool
}

// AMQPClient handles AMQP connections and record publishing. A client with
// no URL configured is a no-op publisher: every method succeeds without
// doing anything, so callers need no conditional wiring.
type AMQPClient struct {
	logger    *logrus.Logger
	config    AMQPConfig
	conn      *amqp.Connection
	channel   *amqp.Channel
	connected bool
	connMutex sync.RWMutex
}

// NewAMQPClient creates a new AMQP client
func NewAMQPClient(logger *logrus.Logger, config AMQPConfig) *AMQPClient {
	if config.RoutingKey == "" {
		config.RoutingKey = config.QueueName
	}
	config.Durable = true
	config.AutoDelete = false

	return &AMQPClient{
		logger: logger,
		config: config,
	}
}

// Enabled reports whether publishing is configured.
func (c *AMQPClient) Enabled() bool {
	return c.config.URL != "" && c.config.QueueName != ""
}

// Connect establishes a connection to the AMQP server
func (c *AMQPClient) Connect() error {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if c.connected {
		return nil
	}

	if !c.Enabled() {
		c.logger.Debug("AMQP URL not set, record publishing disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	connChan := make(chan struct {
		conn *amqp.Connection
		err  error
	}, 1)

	go func() {
		conn, err := amqp.Dial(c.config.URL)
		select {
		case <-ctx.Done():
			if conn != nil {
				conn.Close()
			}
		case connChan <- struct {
			conn *amqp.Connection
			err  error
		}{conn, err}:
		}
	}()

	var conn *amqp.Connection
	var err error
	select {
	case result := <-connChan:
		conn = result.conn
		err = result.err
	case <-ctx.Done():
		return fmt.Errorf("connection to AMQP server timed out after 5 seconds")
	}
	if err != nil {
		return fmt.Errorf("failed to connect to AMQP server: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	if _, err := channel.QueueDeclare(
		c.config.QueueName,
		c.config.Durable,
		c.config.AutoDelete,
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare AMQP queue: %w", err)
	}

	c.conn = conn
	c.channel = channel
	c.connected = true

	c.logger.WithFields(logrus.Fields{
		"queue": c.config.QueueName,
	}).Info("Connected to AMQP server")

	return nil
}

// Disconnect closes the channel and connection
func (c *AMQPClient) Disconnect() {
	c.connMutex.Lock()
	defer c.connMutex.Unlock()

	if !c.connected {
		return
	}

	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false

	c.logger.Info("Disconnected from AMQP server")
}

// IsConnected returns the connection state
func (c *AMQPClient) IsConnected() bool {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()
	return c.connected
}

// PublishRecord publishes one conversation record
func (c *AMQPClient) PublishRecord(callUUID string, record analysis.ConversationRecord) error {
	return c.publish(RecordMessage{
		CallUUID:  callUUID,
		Record:    record,
		Timestamp: time.Now().UTC(),
	})
}

// OnRecord implements the pipeline record listener, forwarding each
// structured record to the queue. Publish failures are logged, not fatal;
// a broker outage must not break analysis.
func (c *AMQPClient) OnRecord(callUUID string, record analysis.ConversationRecord) {
	if err := c.PublishRecord(callUUID, record); err != nil {
		c.logger.WithError(err).WithField("call_uuid", callUUID).
			Warn("Failed to publish conversation record")
	}
}

// OnSummary implements the pipeline summary listener.
func (c *AMQPClient) OnSummary(callUUID string, attrs analysis.AttributeSummary, sentiments analysis.SentimentSummary, recordCount int) {
	if err := c.PublishSummary(callUUID, attrs, sentiments, recordCount); err != nil {
		c.logger.WithError(err).WithField("call_uuid", callUUID).
			Warn("Failed to publish conversation summary")
	}
}

// PublishSummary publishes the end-of-call aggregates
func (c *AMQPClient) PublishSummary(callUUID string, attrs analysis.AttributeSummary, sentiments analysis.SentimentSummary, recordCount int) error {
	return c.publish(SummaryMessage{
		CallUUID:   callUUID,
		Attributes: attrs,
		Sentiments: sentiments,
		Records:    recordCount,
		Timestamp:  time.Now().UTC(),
	})
}

func (c *AMQPClient) publish(message interface{}) error {
	c.connMutex.RLock()
	defer c.connMutex.RUnlock()

	if !c.Enabled() {
		return nil
	}
	if !c.connected {
		return fmt.Errorf("AMQP client is not connected")
	}

	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal AMQP message: %w", err)
	}

	err = c.channel.Publish(
		c.config.ExchangeName,
		c.config.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish AMQP message: %w", err)
	}

	return nil
}
