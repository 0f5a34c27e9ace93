package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/devvibe-backend/internal/mail"
)

// Publisher is a mail.Mailer that queues messages on MailQueueName instead
// of talking SMTP inline.  A returned error means the broker did not accept
// the message.
type Publisher struct {
	url  string
	kind string
	log  *slog.Logger
}

// NewPublisher returns a Publisher for the broker at url.  kind labels the
// events it publishes (for example "password_reset").
func NewPublisher(url, kind string, log *slog.Logger) *Publisher {
	return &Publisher{url: url, kind: kind, log: log}
}

// Send publishes msg as a persistent MailRequestedEvent.  Each call opens
// its own connection.
func (p *Publisher) Send(ctx context.Context, msg mail.Message) error {
	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.log.Warn("rabbitmq: dial failed", "error", err)
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.log.Warn("rabbitmq: channel open failed", "error", err)
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := declareMailQueue(ch); err != nil {
		p.log.Warn("rabbitmq: queue declare failed", "error", err)
		return err
	}

	pub, err := encodeEvent(MailRequestedEvent{
		Message:     msg,
		Kind:        p.kind,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	if err := ch.PublishWithContext(ctx,
		"",            // default exchange
		MailQueueName, // routing key = queue name
		false,         // mandatory
		false,         // immediate
		pub,
	); err != nil {
		p.log.Warn("rabbitmq: publish failed", "error", err)
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func encodeEvent(ev MailRequestedEvent) (amqp.Publishing, error) {
	body, err := json.Marshal(ev)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}, nil
}

// declareMailQueue is idempotent; the queue is durable so messages survive
// broker restarts.
func declareMailQueue(ch *amqp.Channel) error {
	_, err := ch.QueueDeclare(
		MailQueueName, // name
		true,          // durable
		false,         // autoDelete
		false,         // exclusive
		false,         // noWait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	return nil
}
