// Package mailer hands transactional email to an external delivery system.
package mailer

import (
	"context"
	"log/slog"
	"time"
)

// Sender delivers one message. Implementations must be safe for concurrent use.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Message is the payload handed to the delivery system.
type Message struct {
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "mail not delivered (log driver)",
		"action", "mail.send",
		"to", to,
		"subject", subject,
		"body", body,
	)
	return nil
}
