// Package events publishes storefront activity to the shared topic exchange.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

type CartPublisher interface {
	PublishCartItemChanged(ctx context.Context, meta EventMeta, c cart.Change) error
}

type Publisher struct {
	ch       *amqp.Channel
	producer string

	// AMQP channels are not safe for concurrent publishing
	mu  sync.Mutex
	seq map[string]int64
}

type PublisherOptions struct {
	Producer string
}

func NewPublisher(conn *amqp.Connection, opts PublisherOptions) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	producer := opts.Producer
	if producer == "" {
		producer = storefrontServiceName
	}

	return &Publisher{ch: ch, producer: producer, seq: map[string]int64{}}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishCartItemChanged publishes one item change. Sequences are per
// partition and local to this process.
func (p *Publisher) PublishCartItemChanged(ctx context.Context, meta EventMeta, c cart.Change) error {
	if !itemChange(c) {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ev := newCartItemChangedEvent(meta, 0, p.producer, c, time.Now().UTC())
	p.seq[ev.PartitionKey]++
	ev.Sequence = p.seq[ev.PartitionKey]

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal CartItemChanged envelope: %w", err)
	}
	return p.publishJSON(ctx, CartItemChangedRoutingKey, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishCartItemChanged(context.Context, EventMeta, cart.Change) error {
	return nil
}

// Notify returns a cart store subscriber that publishes item changes.
// Publish failures are logged and never reach the cart mutation.
func Notify(ctx context.Context, pub CartPublisher, meta EventMeta, log zerolog.Logger) func(cart.Change) {
	return func(c cart.Change) {
		if !itemChange(c) {
			return
		}
		if err := pub.PublishCartItemChanged(ctx, meta, c); err != nil {
			log.Warn().Err(err).
				Int("productId", c.ProductID).
				Str("action", string(c.Action)).
				Msg("publish cart event failed")
		}
	}
}
