/**
 * @description
 * This package provides a reusable RabbitMQ consumer. It owns its own
 * connection, declares a topic exchange, a durable queue, and the binding
 * between them, and consumes with manual acknowledgment and a prefetch of one
 * so at most a single message is in flight per consumer.
 *
 * Key features:
 * - Supervised loop: on any transport failure the consumer reconnects after a
 *   fixed delay and resumes from the durable queue.
 * - Cooperative shutdown: context cancellation is observed within the poll
 *   window and stops the loop cleanly.
 * - Message acknowledgment (ack/nack) driven by the handler's result.
 *
 * @dependencies
 * - github.com/rabbitmq/amqp091-go: The official Go client for RabbitMQ.
 */
package rabbitmq

import (
	"context"
	"errors"
	"log"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	dialTimeout    = 10 * time.Second
	reconnectDelay = 5 * time.Second
)

// MessageHandler processes a single message body. It returns true to
// acknowledge (ack) the message, or false to reject (nack) and requeue it.
type MessageHandler func(body []byte) bool

// Consumer drains a durable queue bound to a topic exchange.
type Consumer struct {
	url string
}

// NewConsumer creates a new RabbitMQ consumer for the given AMQP URL. No
// connection is made until Run is called.
func NewConsumer(amqpURL string) (*Consumer, error) {
	cleanURL, err := sanitizeAMQPURL(amqpURL)
	if err != nil {
		return nil, err
	}
	return &Consumer{url: cleanURL}, nil
}

// Run consumes messages until the context is canceled, reconnecting with a
// fixed delay after any transport failure.
func (c *Consumer) Run(ctx context.Context, exchange, queueName, routingKey string, handler MessageHandler) {
	for {
		err := c.consume(ctx, exchange, queueName, routingKey, handler)
		if ctx.Err() != nil {
			log.Printf("Consumer for %s stopped", routingKey)
			return
		}
		log.Printf("WARN: Consumer for %s lost connection, reconnecting: %v", routingKey, err)

		select {
		case <-ctx.Done():
			log.Printf("Consumer for %s stopped", routingKey)
			return
		case <-time.After(reconnectDelay):
		}
	}
}

// consume holds one connection for its lifetime: declare topology, then drain
// deliveries until the context is canceled or the transport fails.
func (c *Consumer) consume(ctx context.Context, exchange, queueName, routingKey string, handler MessageHandler) error {
	conn, err := amqp.DialConfig(c.url, amqp.Config{Dial: amqp.DefaultDial(dialTimeout)})
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	// Declare a topic exchange (if it doesn't exist).
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	); err != nil {
		return err
	}

	// Declare a durable queue so messages survive consumer restarts.
	q, err := ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		return err
	}

	// Bind the queue to the exchange with the routing key.
	if err := ch.QueueBind(q.Name, routingKey, exchange, false, nil); err != nil {
		return err
	}

	// One message in flight at a time: processing is strictly ordered per
	// queue and a nacked message is redelivered before anything newer.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	msgs, err := ch.Consume(
		q.Name, // queue
		"",     // consumer
		false,  // auto-ack (we want manual acknowledgment)
		false,  // exclusive
		false,  // no-local
		false,  // no-wait
		nil,    // args
	)
	if err != nil {
		return err
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	log.Printf("Consuming %s from queue %s", routingKey, q.Name)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			if handler(d.Body) {
				if err := d.Ack(false); err != nil {
					return err
				}
			} else {
				log.Printf("Handler failed to process message with routing key %s, requeuing", d.RoutingKey)
				if err := d.Nack(false, true); err != nil {
					return err
				}
			}
		}
	}
}

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
