// Package events publishes committed ledger changes to a message broker.
// Publishing happens after the database commit and is best effort: the
// database is the source of truth and a lost message never undoes a commit.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is the envelope of every published event.
type Message struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Actor      string    `json:"actor,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
	Payload    any       `json:"payload"`
}

// NewMessage wraps payload in an envelope with a fresh ID. typ doubles as the
// routing key, e.g. "transfer.completed".
func NewMessage(typ, actor string, payload any) Message {
	return Message{
		ID:         uuid.NewString(),
		Type:       typ,
		Actor:      actor,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher sends messages to subscribers.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Nop discards every message. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Message) error { return nil }
func (Nop) Close() error                           { return nil }

// AMQP publishes JSON messages to a durable topic exchange. A closed
// connection or channel is redialled on the next Publish.
type AMQP struct {
	mu       sync.Mutex
	url      string
	exchange string
	conn     *amqp.Connection
	ch       *amqp.Channel
}

// DialAMQP connects to url and declares exchange.
func DialAMQP(url, exchange string) (*AMQP, error) {
	p := &AMQP{url: url, exchange: exchange}
	if err := p.connect(); err != nil {
		return nil, err
	}
	return p, nil
}

// connect opens a connection and channel and declares the exchange. The
// caller holds mu, or owns p exclusively.
func (p *AMQP) connect() error {
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return fmt.Errorf("declaring exchange %s: %w", p.exchange, err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

// reset drops the current connection and channel, if any.
func (p *AMQP) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Publish sends msg with its type as the routing key. When the broker has
// closed the channel it reconnects and tries once more.
func (p *AMQP) Publish(ctx context.Context, msg Message) error {
	pub, err := publishing(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.connect(); err != nil {
			return fmt.Errorf("publishing %s: %w", msg.Type, err)
		}
	}
	err = p.ch.PublishWithContext(ctx, p.exchange, msg.Type, false, false, pub)
	if errors.Is(err, amqp.ErrClosed) {
		if err := p.connect(); err != nil {
			return fmt.Errorf("publishing %s: %w", msg.Type, err)
		}
		err = p.ch.PublishWithContext(ctx, p.exchange, msg.Type, false, false, pub)
	}
	if err != nil {
		return fmt.Errorf("publishing %s: %w", msg.Type, err)
	}
	return nil
}

// Close closes the channel and the connection.
func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err := p.conn.Close()
		p.conn = nil
		return err
	}
	return nil
}

func publishing(msg Message) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("encoding %s: %w", msg.Type, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID,
		Timestamp:    msg.OccurredAt,
		Type:         msg.Type,
		AppId:        "arsenal",
		Body:         body,
	}, nil
}
