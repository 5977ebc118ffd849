// Package smtp implements a Provider that submits mail over an authenticated
// SMTP session with an opportunistic STARTTLS upgrade.
package smtp

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/shineum/mail-dispatch/internal/email"
	"github.com/shineum/mail-dispatch/internal/provider"
)

// defaultTimeout bounds connect and send when no timeout is configured, so a
// hung server cannot stall the rest of the run.
const defaultTimeout = 30 * time.Second

// Config holds the configuration for creating a Provider.
type Config struct {
	Host     string
	Port     int
	Sender   string
	Username string
	Password string
	Timeout  time.Duration

	// TLSConfig is applied to the STARTTLS upgrade. If nil, the go-mail
	// defaults are used.
	TLSConfig *tls.Config
}

// Provider submits messages over SMTP. Each Send opens a fresh session
// (connect, STARTTLS, AUTH), transmits one message, and tears the session
// down, so a failure for one recipient never poisons the next delivery.
type Provider struct {
	cfg Config
}

// New creates a new SMTP Provider with the given configuration.
func New(cfg Config) *Provider {
	if cfg.Username == "" {
		cfg.Username = cfg.Sender
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Provider{cfg: cfg}
}

// Send delivers the message to a single recipient over a dedicated session.
// Session-establishment failures are reported as *provider.ConnectError,
// rejected sends as *provider.DeliverError.
func (p *Provider) Send(ctx context.Context, msg *email.Message, recipient string) error {
	m, err := buildMsg(msg, recipient)
	if err != nil {
		return &provider.DeliverError{Recipient: recipient, Err: err}
	}

	client, err := p.newClient()
	if err != nil {
		return &provider.ConnectError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	if err := client.DialWithContext(ctx); err != nil {
		return &provider.ConnectError{Err: err}
	}
	defer func() {
		if err := client.Close(); err != nil {
			slog.Debug("failed to close SMTP session", "error", err)
		}
	}()

	if err := client.Send(m); err != nil {
		return &provider.DeliverError{Recipient: recipient, Err: err}
	}

	return nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "smtp"
}

// newClient builds a go-mail client for one session.
func (p *Provider) newClient() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(p.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(p.cfg.Timeout),
	}
	if p.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.cfg.Username),
			mail.WithPassword(p.cfg.Password),
		)
	}
	if p.cfg.TLSConfig != nil {
		opts = append(opts, mail.WithTLSConfig(p.cfg.TLSConfig))
	}

	client, err := mail.NewClient(p.cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	return client, nil
}

// buildMsg binds the recipient into a transport-ready go-mail message.
func buildMsg(msg *email.Message, recipient string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, att := range msg.Attachments {
		if err := m.AttachReader(att.Filename, bytes.NewReader(att.Content),
			mail.WithFileContentType(mail.ContentType(att.ContentType)),
		); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", att.Filename, err)
		}
	}

	return m, nil
}
