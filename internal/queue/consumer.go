package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/gommon/log"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer reads the availability.changed queue and appends one line per
// event to an audit log file.
type Consumer struct {
	URL     string
	LogPath string
	Logger  *log.Logger
}

// NewConsumer returns a consumer for url writing to logPath.
func NewConsumer(url, logPath string) *Consumer {
	return &Consumer{URL: url, LogPath: logPath, Logger: log.New("audit-consumer")}
}

// Run connects to RabbitMQ, declares the queue (durable) and consumes until
// ctx is cancelled. Broken connections are redialled with exponential
// backoff capped at 30s. Messages that cannot be handled are rejected
// without requeue so a bad payload cannot loop.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warnf("failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warnf("consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warnf("set QoS failed: %v", err)
	}
	if _, err := ch.QueueDeclare(AvailabilityQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(AvailabilityQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(d.Body); err != nil {
				c.Logger.Errorf("handle message %s failed: %v", d.MessageId, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(body []byte) error {
	if err := os.MkdirAll(filepath.Dir(c.LogPath), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(c.LogPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	return WriteAuditLine(f, body)
}

// WriteAuditLine decodes an AvailabilityChangedEvent from body and writes
// its single-line audit form to w.
func WriteAuditLine(w io.Writer, body []byte) error {
	var ev AvailabilityChangedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.VenueID == 0 || ev.Start == "" {
		return errors.New("event missing venue_id or start_date")
	}
	state := "available"
	if !ev.IsAvailable {
		state = "unavailable"
	}
	span := ev.Start
	if ev.End != "" && ev.End != ev.Start {
		span = ev.Start + ".." + ev.End
	}
	line := fmt.Sprintf("[%s] Availability changed | venue_id=%d | dates=%s | days=%d | state=%s | reason=%q | by=%d (%s)\n",
		ev.ChangedAt, ev.VenueID, span, ev.Days, state, ev.Reason, ev.ChangedBy, ev.Role)
	if _, err := io.WriteString(w, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// sleep waits for d or until ctx is done; it reports whether d elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
