package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrNotAcked is returned by Publish when the broker nacks an event.
var ErrNotAcked = errors.New("booking event nacked by broker")

// Publisher sends booking events to a durable RabbitMQ queue. A fresh
// connection is dialled per event; booking events are rare enough that
// a pooled connection is not worth its reconnect handling.
type Publisher struct {
	url     string
	queue   string
	timeout time.Duration
	log     *zap.Logger
}

// NewPublisher returns a Publisher for the broker at url. An empty
// queue name selects DefaultQueue.
func NewPublisher(url, queue string, timeout time.Duration, log *zap.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueue
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{url: url, queue: queue, timeout: timeout, log: log}
}

// Notify publishes ev on its own goroutine and returns immediately.
// Failures are logged and otherwise ignored.
func (p *Publisher) Notify(ev BookingEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.Publish(ctx, ev); err != nil {
			p.log.Warn("booking event not published",
				zap.String("type", ev.Type), zap.Uint64("booking_id", ev.BookingID), zap.Error(err))
		}
	}()
}

// Publish sends ev on a channel in confirm mode and waits for the
// broker's ack. Messages are marked persistent.
func (p *Publisher) Publish(ctx context.Context, ev BookingEvent) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("enable publisher confirms: %w", err)
	}

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    ev.ID,
		Type:         ev.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	dc, err := ch.PublishWithDeferredConfirmWithContext(ctx, "", p.queue, false, false, pub)
	if err != nil {
		return err
	}
	acked, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !acked {
		return ErrNotAcked
	}
	return nil
}
