package render

import (
	"context"

	"github.com/goliatone/go-crypta/pkg/interfaces/logger"
	"github.com/goliatone/go-crypta/pkg/redact"
)

// LogMailer writes rendered messages to a logger instead of sending them.
type LogMailer struct {
	Logger logger.Logger
}

func (m LogMailer) Deliver(_ context.Context, msg Message) error {
	lgr := m.Logger
	if lgr == nil {
		lgr = &logger.Nop{}
	}
	lgr.Info("email rendered",
		logger.Field{Key: "template", Value: msg.TemplateID},
		logger.Field{Key: "recipient", Value: redact.Email(msg.Recipient)},
		logger.Field{Key: "subject", Value: msg.Subject},
		logger.Field{Key: "text_length", Value: len(msg.Text)},
	)
	return nil
}
