// Package events publishes catalog changes to a RabbitMQ topic exchange.
// Publishing is best effort: a failed publish is reported to the caller and
// never retried.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/emzola/catalog/data"
	"github.com/emzola/catalog/internal/jsonlog"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	exchangeType = "topic"
	eventVersion = "1"

	TypeBookCreated = "book.created"
	TypeBookDeleted = "book.deleted"
)

// Event is the message body published for every change.
type Event struct {
	ID        string         `json:"event_id"`
	Type      string         `json:"event_type"`
	Version   string         `json:"event_version"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

func newEvent(eventType string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// BookCreated builds the event announcing a newly registered book.
func BookCreated(book *data.Book) Event {
	return newEvent(TypeBookCreated, map[string]any{
		"id":            book.ID,
		"title":         book.Title,
		"author":        book.Author,
		"publisher":     book.Publisher,
		"publish_date":  book.PublishDate,
		"isbn":          book.ISBN,
		"thumbnail_url": book.ThumbnailURL,
	})
}

// BookDeleted builds the event announcing a delete request for an id.
func BookDeleted(bookID int64) Event {
	return newEvent(TypeBookDeleted, map[string]any{
		"id": bookID,
	})
}

// Publisher sends events over an AMQP channel.
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   *jsonlog.Logger
}

// NewPublisher dials url and declares a durable topic exchange.
func NewPublisher(url, exchange string, logger *jsonlog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to amqp: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	err = channel.ExchangeDeclare(exchange, exchangeType, true, false, false, false, nil)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	logger.PrintInfo("connected to amqp broker", map[string]string{"exchange": exchange})
	return &Publisher{
		conn:     conn,
		channel:  channel,
		exchange: exchange,
		logger:   logger,
	}, nil
}

// PublishBookCreated publishes a book.created event.
func (p *Publisher) PublishBookCreated(ctx context.Context, book *data.Book) error {
	return p.publish(ctx, BookCreated(book))
}

// PublishBookDeleted publishes a book.deleted event.
func (p *Publisher) PublishBookDeleted(ctx context.Context, bookID int64) error {
	return p.publish(ctx, BookDeleted(bookID))
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Timestamp:    event.Timestamp,
		Body:         body,
		Headers: amqp.Table{
			"event_type":    event.Type,
			"event_version": event.Version,
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	p.logger.PrintDebug("event published", map[string]string{
		"event_id":   event.ID,
		"event_type": event.Type,
		"book_id":    strconv.FormatInt(toInt64(event.Payload["id"]), 10),
	})
	return nil
}

// Close closes the channel and the connection.
func (p *Publisher) Close() error {
	if err := p.channel.Close(); err != nil {
		p.logger.PrintError(err, map[string]string{"component": "amqp channel"})
	}
	return p.conn.Close()
}

func toInt64(v any) int64 {
	id, _ := v.(int64)
	return id
}

// Noop discards every event. It is used when no broker is configured.
type Noop struct{}

func (Noop) PublishBookCreated(ctx context.Context, book *data.Book) error { return nil }

func (Noop) PublishBookDeleted(ctx context.Context, bookID int64) error { return nil }

func (Noop) Close() error { return nil }
