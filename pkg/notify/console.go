package notify

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/redact"
)

// Console writes every message to a logger with sensitive values masked.
type Console struct {
	logger logger.Logger
}

// NewConsole returns a console dispatcher.
func NewConsole(l logger.Logger) *Console {
	if l == nil {
		l = &logger.Nop{}
	}
	return &Console{logger: l}
}

func (c *Console) Send(_ context.Context, templateID, recipient string, data map[string]any) error {
	c.logger.Info("[console] notification",
		logger.Field{Key: "template_id", Value: templateID},
		logger.Field{Key: "recipient", Value: redact.Email(recipient)},
		logger.Field{Key: "data", Value: redact.Map(data)},
	)
	return nil
}
