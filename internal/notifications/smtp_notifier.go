package notifications

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/auth_session_service/internal/core/domain"
	"github.com/SscSPs/auth_session_service/internal/middleware"
	"github.com/SscSPs/auth_session_service/internal/platform/config"
	"github.com/wneessen/go-mail"
)

// mailSender is the part of *mail.Client the notifier uses.
type mailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPNotifier renders notifications and delivers them over SMTP.
type SMTPNotifier struct {
	from     string
	renderer *Renderer
	sender   mailSender
}

// NewSMTPNotifier creates a notifier for the configured SMTP relay.
func NewSMTPNotifier(cfg *config.Config, renderer *Renderer) (*SMTPNotifier, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return newSMTPNotifier(cfg.MailerFrom, renderer, client), nil
}

func newSMTPNotifier(from string, renderer *Renderer, sender mailSender) *SMTPNotifier {
	return &SMTPNotifier{from: from, renderer: renderer, sender: sender}
}

// Send renders n and delivers it.
func (n *SMTPNotifier) Send(ctx context.Context, notification domain.Notification) error {
	body, err := n.renderer.Render(notification.Template, notification.Data)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(notification.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(notification.Subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	if err := n.sender.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to deliver %s mail: %w", notification.Template, err)
	}
	middleware.GetLoggerFromCtx(ctx).Info("Notification sent", slog.String("template", string(notification.Template)))
	return nil
}

// LogNotifier records that a notification was rendered without sending it.
// The body is never logged since it carries a bearer link. Configuration only
// allows it outside production.
type LogNotifier struct {
	renderer *Renderer
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(renderer *Renderer) *LogNotifier {
	return &LogNotifier{renderer: renderer}
}

func (n *LogNotifier) Send(ctx context.Context, notification domain.Notification) error {
	body, err := n.renderer.Render(notification.Template, notification.Data)
	if err != nil {
		return err
	}
	middleware.GetLoggerFromCtx(ctx).Info("Notification (not sent)",
		slog.String("to", notification.To),
		slog.String("subject", notification.Subject),
		slog.String("template", string(notification.Template)),
		slog.Int("body_bytes", len(body)),
	)
	return nil
}
