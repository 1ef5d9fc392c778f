package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPSender publishes each message to a durable RabbitMQ queue consumed by
// the delivery worker. A connection is opened per message.
type AMQPSender struct {
	url    string
	queue  string
	logger *slog.Logger
	now    func() time.Time
}

func NewAMQPSender(url, queue string, logger *slog.Logger) *AMQPSender {
	return &AMQPSender{url: url, queue: queue, logger: logger, now: time.Now}
}

func (s *AMQPSender) Send(ctx context.Context, to, subject, body string) error {
	pub, err := s.publishing(to, subject, body)
	if err != nil {
		return err
	}

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return fmt.Errorf("mailer: dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("mailer: open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(s.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("mailer: declare queue: %w", err)
	}

	if err := ch.PublishWithContext(ctx, "", s.queue, false, false, pub); err != nil {
		return fmt.Errorf("mailer: publish: %w", err)
	}

	s.logger.InfoContext(ctx, "mail queued", "action", "mail.send", "queue", s.queue, "subject", subject)
	return nil
}

func (s *AMQPSender) publishing(to, subject, body string) (amqp.Publishing, error) {
	msg := Message{To: to, Subject: subject, HTML: body, CreatedAt: s.now().UTC()}
	payload, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("mailer: marshal message: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    msg.CreatedAt,
		Body:         payload,
	}, nil
}
