package services

import (
	"context"
	"time"

	"tiffin-service/sender"

	"go.uber.org/zap"
)

// Notifier is the fire-and-forget admin side channel. Implementations must
// never return control flow that could unwind a committed transition, so the
// interface has no error return.
type Notifier interface {
	Notify(ctx context.Context, subject, body string)
}

// EmailNotifier sends plain-text admin emails. A single best-effort attempt
// per call; failures are logged and swallowed. When SMTP or the admin
// address is not configured the notifier is a silent steady-state no-op.
type EmailNotifier struct {
	emailSender sender.EmailSender
	adminEmail  string
	logger      *zap.Logger
}

func NewEmailNotifier(emailSender sender.EmailSender, adminEmail string, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{emailSender: emailSender, adminEmail: adminEmail, logger: logger}
}

// Configured reports whether notifications will actually be delivered.
func (n *EmailNotifier) Configured() bool {
	return n.emailSender != nil && n.adminEmail != ""
}

func (n *EmailNotifier) Notify(ctx context.Context, subject, body string) {
	if !n.Configured() {
		n.logger.Debug("SMTP or admin email not configured, skipping notification",
			zap.String("subject", subject))
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	res, err := n.emailSender.SendEmail(sendCtx, n.adminEmail, subject, body)
	if err != nil {
		n.logger.Warn("Admin notification failed",
			zap.String("subject", subject),
			zap.Error(err))
		return
	}
	n.logger.Info("Admin notification sent",
		zap.String("subject", subject),
		zap.String("message_id", res.MessageID))
}
