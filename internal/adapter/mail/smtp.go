package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/arturoeanton/codechat/internal/domain"
	"github.com/arturoeanton/codechat/internal/port"
)

// SMTPConfig describes the mail transport.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	TLS      bool // implicit TLS instead of STARTTLS
	Insecure bool // skip certificate verification
}

// sender is the part of *gomail.Client the notifier uses.
type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*gomail.Msg) error
}

// SMTPNotifier implements port.Notifier over SMTP.
type SMTPNotifier struct {
	client  sender
	from    string
	linkFor func(id string) string
}

// NewSMTPNotifier creates an SMTP notifier. linkFor builds the explain link for a record id.
func NewSMTPNotifier(cfg SMTPConfig, linkFor func(id string) string) (*SMTPNotifier, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.TLS {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if cfg.Insecure {
		opts = append(opts, gomail.WithTLSConfig(&tls.Config{InsecureSkipVerify: true, ServerName: cfg.Host}))
	}
	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPNotifier{client: client, from: cfg.From, linkFor: linkFor}, nil
}

// Notify sends one message per address over a single connection.
func (n *SMTPNotifier) Notify(ctx context.Context, addresses []string, outcome domain.Outcome, sourceURL, recordID string) error {
	messages, err := n.buildMessages(addresses, outcome, sourceURL, recordID)
	if err != nil {
		return &port.NotificationError{Err: err}
	}
	if err := n.client.DialAndSendWithContext(ctx, messages...); err != nil {
		return &port.NotificationError{Err: err}
	}
	slog.Info("notification sent", "outcome", outcome, "recipients", len(messages), "repo_id", recordID)
	return nil
}

func (n *SMTPNotifier) buildMessages(addresses []string, outcome domain.Outcome, sourceURL, recordID string) ([]*gomail.Msg, error) {
	link := ""
	if outcome == domain.OutcomeSucceeded {
		if recordID == "" {
			return nil, fmt.Errorf("success notification without record id")
		}
		link = n.linkFor(recordID)
	}
	subject, body, err := Render(outcome, sourceURL, link)
	if err != nil {
		return nil, err
	}

	messages := make([]*gomail.Msg, 0, len(addresses))
	for _, addr := range addresses {
		addr = strings.TrimSpace(addr)
		if addr == "" {
			continue
		}
		m := gomail.NewMsg()
		if err := m.From(n.from); err != nil {
			return nil, fmt.Errorf("from address: %w", err)
		}
		if err := m.To(addr); err != nil {
			return nil, fmt.Errorf("to address %q: %w", addr, err)
		}
		m.Subject(subject)
		m.SetBodyString(gomail.TypeTextHTML, body)
		messages = append(messages, m)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("no recipients")
	}
	return messages, nil
}

// LogNotifier writes notifications to the log instead of sending them.
type LogNotifier struct {
	linkFor func(id string) string
}

// NewLogNotifier creates a notifier for deployments without SMTP.
func NewLogNotifier(linkFor func(id string) string) *LogNotifier {
	return &LogNotifier{linkFor: linkFor}
}

// Notify logs the rendered subject and link.
func (n *LogNotifier) Notify(_ context.Context, addresses []string, outcome domain.Outcome, sourceURL, recordID string) error {
	link := ""
	if recordID != "" {
		link = n.linkFor(recordID)
	}
	subject, _, err := Render(outcome, sourceURL, link)
	if err != nil {
		return &port.NotificationError{Err: err}
	}
	slog.Info("notification (smtp disabled)",
		"to", strings.Join(addresses, ","),
		"subject", subject,
		"url", sourceURL,
		"link", link,
	)
	return nil
}
