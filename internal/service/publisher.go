// Package service publishes domain events to RabbitMQ. Publishing is best
// effort: failures are logged and returned, and callers on the request path
// ignore them so a broker outage never fails a write.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/iliyamo/venue-calendar/internal/queue"
)

// ErrNoBroker is returned by a Publisher built without a broker url.
var ErrNoBroker = errors.New("publisher: no broker configured")

// Publisher sends AvailabilityChangedEvent messages to the durable
// availability.changed queue. One connection is opened lazily and reused;
// it is redialled after the broker closes it.
type Publisher struct {
	url    string
	logger *log.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a publisher for url. An empty url makes every
// publish return ErrNoBroker.
func NewPublisher(url string) *Publisher {
	return &Publisher{url: url, logger: log.New("publisher")}
}

// PublishAvailabilityChanged publishes ev as a persistent JSON message with
// a random message id.
func (p *Publisher) PublishAvailabilityChanged(ctx context.Context, ev q.AvailabilityChangedEvent) error {
	if p == nil || p.url == "" {
		return ErrNoBroker
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         q.AvailabilityQueue,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channel()
	if err != nil {
		p.logger.Warnf("rabbitmq: %v", err)
		return err
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", q.AvailabilityQueue, false, false, msg); err != nil {
		p.logger.Warnf("rabbitmq: publish failed: %v", err)
		p.reset()
		return err
	}
	return nil
}

// channel returns the open channel, dialling and declaring the queue first
// when needed. p.mu must be held.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("channel open failed: %w", err)
	}
	// durable so messages survive broker restarts
	if _, err := ch.QueueDeclare(q.AvailabilityQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("queue declare failed: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.conn, p.ch = nil, nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
