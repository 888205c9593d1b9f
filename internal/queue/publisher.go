package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/apartment-portal/internal/billing"
)

// DialTimeout bounds connecting and the AMQP handshake. Publishing runs
// inside a bill action, so a dead broker must fail fast.
const DialTimeout = 2 * time.Second

// Publisher sends bill events to RabbitMQ. It dials per publish; bill
// actions are rare enough that a pooled connection is not worth holding.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, queue: BillQueueName, dialTimeout: DialTimeout}
}

// Publish sends e as a persistent message. Errors are returned unlogged;
// the caller decides whether they matter.
func (p *Publisher) Publish(ctx context.Context, e billing.Event) error {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq: channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.queue); err != nil {
		return fmt.Errorf("rabbitmq: declare %s: %w", p.queue, err)
	}

	body, err := json.Marshal(NewBillEvent(e))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         string(e.Type),
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

// declare makes sure the durable queue exists.
func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	return err
}
