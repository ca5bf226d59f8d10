package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aq2208/payment-api/internal/usecase"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	rkPaymentConfirmed = "payment.confirmed"
	rkRefundFinished   = "refund.finished"
)

// RabbitPublisher pushes domain events to a topic exchange for
// downstream consumers (notifications, analytics). Best-effort: the
// caller logs failures and never blocks a state transition on them.
type RabbitPublisher struct {
	ch       *amqp.Channel
	exchange string
}

// NewRabbitPublisher declares the exchange once at startup.
func NewRabbitPublisher(ch *amqp.Channel, exchange string) (*RabbitPublisher, error) {
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		return nil, fmt.Errorf("enable confirm mode: %w", err)
	}
	return &RabbitPublisher{ch: ch, exchange: exchange}, nil
}

func (p *RabbitPublisher) PublishPaymentConfirmed(ctx context.Context, ev usecase.PaymentConfirmedMsg) error {
	return p.publish(ctx, rkPaymentConfirmed, ev)
}

func (p *RabbitPublisher) PublishRefundFinished(ctx context.Context, ev usecase.RefundFinishedMsg) error {
	return p.publish(ctx, rkRefundFinished, ev)
}

func (p *RabbitPublisher) publish(ctx context.Context, routingKey string, ev any) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Body:         body,
	}
	if err := p.ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, pub); err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

var _ usecase.EventPublisher = (*RabbitPublisher)(nil)
