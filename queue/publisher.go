// Package queue implements the notification producer over AMQP. Each
// publish call acquires its own connection and channel and releases
// them on every exit path, so a failed publish never leaks broker
// resources into later calls.
package queue

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	amqp "github.com/rabbitmq/amqp091-go"

	identity "github.com/cloudsell/go-identity"
)

const (
	// DefaultTimeout bounds the dial plus publish of a single call.
	DefaultTimeout = 5 * time.Second
	// DefaultPrefetch is applied to the channel even though this is a
	// producer-only role; retained as non-harmful broker configuration.
	DefaultPrefetch = 10
)

// Producer publishes serialized notification jobs to one named, durable
// queue with persistent delivery. Delivery is at-least-once: a nil
// error means the broker accepted the message, not that any consumer
// processed it.
type Producer struct {
	url      string
	queue    string
	timeout  time.Duration
	prefetch int
	logger   identity.Logger
}

var _ identity.Publisher = (*Producer)(nil)

// Option configures a Producer.
type Option func(*Producer)

// WithTimeout bounds each publish call, connect included.
func WithTimeout(d time.Duration) Option {
	return func(p *Producer) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithPrefetch overrides the channel QoS value.
func WithPrefetch(count int) Option {
	return func(p *Producer) {
		if count > 0 {
			p.prefetch = count
		}
	}
}

// WithLogger overrides the producer logger.
func WithLogger(logger identity.Logger) Option {
	return func(p *Producer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a producer for the given broker URL and queue name.
func New(url, queueName string, opts ...Option) *Producer {
	p := &Producer{
		url:      url,
		queue:    queueName,
		timeout:  DefaultTimeout,
		prefetch: DefaultPrefetch,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	return p
}

// Publish connects, declares the durable queue, and publishes body with
// persistent delivery mode. The connection and channel are closed on
// all exit paths including failure.
func (p *Producer) Publish(ctx context.Context, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Dial: amqp.DefaultDial(p.timeout),
	})
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to connect to broker")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to open channel")
	}
	defer ch.Close()

	if err := ch.Qos(p.prefetch, 0, false); err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to set channel qos")
	}

	q, err := ch.QueueDeclare(
		p.queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryOperation, "failed to declare queue")
	}

	err = ch.PublishWithContext(ctx,
		"", // default exchange
		q.Name,
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
		return errors.Wrap(err, errors.CategoryOperation, "failed to publish message")
	}

	if p.logger != nil {
		p.logger.Debug("published %d bytes to queue %s", len(body), q.Name)
	}

	return nil
}
