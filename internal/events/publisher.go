package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aliabbasi2000/ezelectronics/internal/cart"
)

// Publisher emits enveloped domain events to the events exchange.
type Publisher struct {
	ch      *amqp.Channel
	seqRepo SequenceRepository
}

func NewPublisher(conn *amqp.Connection, seqRepo SequenceRepository) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}

	return &Publisher{ch: ch, seqRepo: seqRepo}, nil
}

func (p *Publisher) Close() error {
	return p.ch.Close()
}

// PublishCartCheckedOut emits CartCheckedOut.v1 for a paid cart.
func (p *Publisher) PublishCartCheckedOut(ctx context.Context, c cart.Cart) error {
	seq, err := p.seqRepo.NextSequence(ctx, c.Customer)
	if err != nil {
		return fmt.Errorf("reserve sequence: %w", err)
	}

	env := BuildCartCheckedOutEvent(c, seq, time.Now().UTC())
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartCheckedOut envelope: %w", err)
	}

	return p.publishJSON(ctx, CartCheckedOutRoutingKey, body)
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
