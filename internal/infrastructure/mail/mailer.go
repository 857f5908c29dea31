package mail

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gomail "github.com/wneessen/go-mail"

	"BriefingAgent/internal/config"
	"BriefingAgent/internal/domain"
	"BriefingAgent/internal/ports"
)

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// Mailer delivers HTML briefings over SMTP with implicit TLS.
type Mailer struct {
	from       string
	senderName string
	client     sender
	logger     *slog.Logger
}

var _ ports.Mailer = (*Mailer)(nil)

// NewMailer builds an SMTP client from configuration.
func NewMailer(cfg config.MailConfig, logger *slog.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.Username == "" {
		return nil, fmt.Errorf("mail transport misconfigured")
	}

	client, err := gomail.NewClient(cfg.Host,
		gomail.WithPort(cfg.Port),
		gomail.WithSSL(),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(cfg.Username),
		gomail.WithPassword(cfg.Password),
		gomail.WithTimeout(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("new smtp client: %w", err)
	}

	return &Mailer{
		from:       cfg.Username,
		senderName: cfg.SenderName,
		client:     client,
		logger:     logger,
	}, nil
}

// Send builds one message per recipient and delivers them over a single
// connection. Any failure is reported for the whole batch.
func (m *Mailer) Send(ctx context.Context, subject, body string, recipients []string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	messages, err := m.buildMessages(subject, body, recipients)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, messages...); err != nil {
		return fmt.Errorf("send %q: %w: %w", subject, domain.ErrTransport, err)
	}

	if m.logger != nil {
		m.logger.Info("mail sent", "subject", subject, "recipients", len(recipients))
	}
	return nil
}

func (m *Mailer) buildMessages(subject, body string, recipients []string) ([]*gomail.Msg, error) {
	messages := make([]*gomail.Msg, 0, len(recipients))
	for _, recipient := range recipients {
		msg := gomail.NewMsg()
		if err := msg.FromFormat(m.senderName, m.from); err != nil {
			return nil, fmt.Errorf("set sender: %w", err)
		}
		if err := msg.To(recipient); err != nil {
			return nil, fmt.Errorf("set recipient %s: %w", recipient, err)
		}
		msg.Subject(subject)
		msg.SetBodyString(gomail.TypeTextHTML, body)
		messages = append(messages, msg)
	}
	return messages, nil
}
