/**
 * @description
 * This file provides the event publisher for the account-service. Every event
 * is wrapped in an envelope {event_id, event_type, occurred_at, payload},
 * serialized to JSON, and published to a durable topic exchange with the event
 * type as the routing key and persistent delivery mode.
 *
 * Key features:
 * - Lazy connection: the first publish (or an explicit DeclareExchange call)
 *   dials the broker; a closed channel is transparently re-established before
 *   the next publish.
 * - Safe for concurrent use: a mutex serializes access to the shared channel.
 * - One-shot retry: a failed publish reopens the channel and tries once more.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The RabbitMQ client library.
 * - github.com/google/uuid: Fresh event ids.
 */
package rabbitmq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// eventEnvelope is the outer structure wrapping every published domain event.
type eventEnvelope struct {
	EventID    string    `json:"event_id"`
	EventType  string    `json:"event_type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// EventPublisher publishes enveloped domain events to a topic exchange.
type EventPublisher struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	channel  *amqp.Channel
}

// NewEventPublisher creates a publisher for the given AMQP URL and exchange.
// The connection is established lazily on first use.
func NewEventPublisher(amqpURL, exchange string) (*EventPublisher, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	return &EventPublisher{url: cleanURL, exchange: exchange}, nil
}

// DeclareExchange eagerly connects and declares the topic exchange. Intended
// for startup so publish latency and broker problems surface early.
func (p *EventPublisher) DeclareExchange() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.ensureChannel()
	return err
}

// Publish wraps the payload in an envelope and sends it to the topic exchange
// with the event type as routing key, marked persistent. The caller decides
// whether a failure matters; database work must never be rolled back for one.
func (p *EventPublisher) Publish(ctx context.Context, eventType string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	envelope := eventEnvelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	ch, err := p.ensureChannel()
	if err != nil {
		return err
	}

	if err := p.publishBody(ctx, ch, eventType, body); err != nil {
		// One-shot retry on a fresh channel.
		p.reset()
		ch, chErr := p.ensureChannel()
		if chErr != nil {
			return chErr
		}
		return p.publishBody(ctx, ch, eventType, body)
	}
	return nil
}

func (p *EventPublisher) publishBody(ctx context.Context, ch *amqp.Channel, routingKey string, body []byte) error {
	return ch.PublishWithContext(ctx,
		p.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
}

// ensureChannel returns an open channel on an open connection, dialing and
// declaring the exchange as needed. Callers must hold p.mu.
func (p *EventPublisher) ensureChannel() (*amqp.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}

	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.DialConfig(p.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
		if err != nil {
			return nil, err
		}
		p.conn = conn
	}

	ch, err := p.conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := ch.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	); err != nil {
		ch.Close()
		return nil, err
	}

	p.channel = ch
	return p.channel, nil
}

// reset drops the cached channel so the next publish reopens it.
func (p *EventPublisher) reset() {
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
}

// Close gracefully closes the channel and connection.
func (p *EventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel != nil {
		p.channel.Close()
		p.channel = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
