// Package rabbitmq publishes payment lifecycle events to a topic exchange.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/MMN3003/payagent/src/logger"
	"github.com/rabbitmq/amqp091-go"
)

// Publisher is implemented by types that can publish events.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, body interface{}) error
	Close()
}

var (
	_ Publisher = (*EventProducer)(nil)
	_ Publisher = (*EventProducerFallback)(nil)
)

// EventProducer holds the RabbitMQ connection and channel for publishing messages.
type EventProducer struct {
	mu       sync.Mutex
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	log      *logger.Logger
}

// EventProducerFallback only logs. Used when RabbitMQ is not configured or
// unreachable at startup.
type EventProducerFallback struct {
	log *logger.Logger
}

func NewEventProducerFallback(log *logger.Logger) *EventProducerFallback {
	return &EventProducerFallback{log: log}
}

func (p *EventProducerFallback) Publish(_ context.Context, routingKey string, _ interface{}) error {
	p.log.Warnf("rabbitmq fallback: publish skipped routing_key=%s", routingKey)
	return nil
}

func (p *EventProducerFallback) Close() {}

func sanitizeAMQPURL(raw string) (string, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.Trim(clean, "\"'")
	// If any stray characters precede the scheme, slice from first occurrence of amqp
	idx := strings.Index(strings.ToLower(clean), "amqp")
	if idx > 0 {
		clean = clean[idx:]
	}
	u, err := url.Parse(clean)
	if err != nil {
		return "", err
	}
	if u.Scheme != "amqp" && u.Scheme != "amqps" {
		return "", errors.New("AMQP scheme must be either 'amqp://' or 'amqps://'")
	}
	return clean, nil
}

// NewEventProducer dials RabbitMQ and declares the durable topic exchange.
func NewEventProducer(amqpURL, exchange string, log *logger.Logger) (*EventProducer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}

	// Use a bounded dial timeout so startup does not hang indefinitely
	conn, err := amqp091.DialConfig(cleanURL, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := declare(ch, exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	return &EventProducer{conn: conn, channel: ch, exchange: exchange, log: log}, nil
}

func declare(ch *amqp091.Channel, exchange string) error {
	return ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	)
}

// Publish sends body as JSON. A failed publish reopens the channel once and
// retries.
func (p *EventProducer) Publish(ctx context.Context, routingKey string, body interface{}) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		p.log.Errorf("rabbitmq json marshal failed routing_key=%s err=%v", routingKey, err)
		return err
	}
	msg := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		Body:         jsonBody,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
	if err == nil {
		return nil
	}
	p.log.Warnf("rabbitmq publish failed; reopening channel routing_key=%s err=%v", routingKey, err)

	ch, chErr := p.conn.Channel()
	if chErr != nil {
		return chErr
	}
	p.channel = ch
	if err := declare(ch, p.exchange); err != nil {
		return err
	}
	return p.channel.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg)
}

// Close gracefully closes the channel and connection to RabbitMQ.
func (p *EventProducer) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
