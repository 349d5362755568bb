package app

import (
	"context"
	"log/slog"

	"github.com/labourhub/adminauth/internal/admin/service"
)

// logNotifier writes outbound messages to the structured log instead of a
// real email or SMS provider. It keeps the whole delivery path exercised
// until a provider integration is configured.
type logNotifier struct {
	logger *slog.Logger
}

func (n *logNotifier) SendEmail(_ context.Context, msg service.EmailMessage) error {
	n.logger.Info("outbound email",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

func (n *logNotifier) SendSMS(_ context.Context, msg service.SMSMessage) error {
	n.logger.Info("outbound sms", slog.String("to", msg.To))
	return nil
}
