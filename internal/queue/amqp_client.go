package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/streadway/amqp"
)

// AMQPClient publishes queue messages to a RabbitMQ topic exchange.
// The message type is used as the routing key.
type AMQPClient struct {
	url      string
	exchange string

	mu   sync.Mutex
	conn *amqp.Connection
}

// NewAMQPClient dials the broker and declares the exchange.
func NewAMQPClient(url, exchange string) (*AMQPClient, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("AMQP_URL is required")
	}
	exchange = strings.TrimSpace(exchange)
	if exchange == "" {
		return nil, fmt.Errorf("AMQP_EXCHANGE is required")
	}
	c := &AMQPClient{url: url, exchange: exchange}
	ch, err := c.channel()
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return c, nil
}

// channel opens a channel, redialing when the connection has dropped.
func (c *AMQPClient) channel() (*amqp.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.conn.IsClosed() {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			return nil, fmt.Errorf("dial amqp: %w", err)
		}
		c.conn = conn
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	return ch, nil
}

// Send publishes a persistent JSON message.
func (c *AMQPClient) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode amqp message: %w", err)
	}
	ch, err := c.channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	err = ch.Publish(
		c.exchange,
		msg.Type,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.SubmissionID,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("amqp publish: %w", err)
	}
	return nil
}

// Close releases the broker connection.
func (c *AMQPClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

var _ Client = (*AMQPClient)(nil)
