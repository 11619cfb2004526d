package mail

import (
	"context"

	"github.com/clamea-app/server/internal/logging"
)

// LogMailer writes outgoing messages to the application log instead of
// sending them. Used when no SMTP relay is configured, which keeps local
// development working without mail infrastructure.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, to string, subject string, body string) error {
	m.logger.Info(ctx, "outgoing mail", "to", to, "subject", subject, "body", body)
	return nil
}
