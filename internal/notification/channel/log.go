package channel

import (
	"context"
	"log/slog"
)

// LogChannel records the message instead of delivering it. It is the safe
// fallback when no real channel is configured: submissions still succeed and
// operators can see what would have been sent.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Name() string { return "log" }

func (c *LogChannel) Send(ctx context.Context, msg Message) error {
	c.logger.InfoContext(ctx, "notification logged (delivery disabled)",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Text,
	)
	return nil
}
