// Package events is the narrow "external-event publisher" capability
// spec.md §9 raises as an Open Question: rooms need to notify other
// systems (friend/host notifications) about cross-cutting occurrences
// without the HTTP/friends layer reaching into room internals. This
// module resolves that question by giving the core a fire-and-forget
// Publisher it calls on a handful of notable transitions.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notification is one room.* event published for external consumption.
type Notification struct {
	Type      string                 `json:"type"`
	RoomID    string                 `json:"roomId"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Notification type constants, matching the occurrences named in §9.
const (
	NotifyPlayerDisqualified = "room.player_disqualified"
	NotifyHostReassigned     = "room.host_reassigned"
	NotifyGameResultAppended = "room.game_result_appended"
)

// Publisher fires notifications for external systems to consume.
// Failures are operational faults (§7): logged and swallowed, never
// propagated back into a room's message handler.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// AMQPPublisher publishes to a single durable RabbitMQ queue, the
// publish-only half of the teacher's queue.Queue.
type AMQPPublisher struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	queueName string
	logger    *slog.Logger
}

func NewAMQPPublisher(url, queueName string, logger *slog.Logger) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: connect rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events: declare queue: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AMQPPublisher{conn: conn, channel: ch, queueName: queueName, logger: logger}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("events: marshal notification: %w", err)
	}
	return p.channel.PublishWithContext(ctx, "", p.queueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
		Timestamp:    n.Timestamp,
	})
}

func (p *AMQPPublisher) Close() error {
	p.channel.Close()
	return p.conn.Close()
}

// NoopPublisher discards every notification; used when AMQP_URL is unset.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, n Notification) error { return nil }
