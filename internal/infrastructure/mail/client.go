// Package mail delivers reminders over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/pkg/config"
	"todoreminder/internal/pkg/logger"

	gomail "github.com/wneessen/go-mail"
)

// Client sends HTML mail through one SMTP relay. A connection is opened per message.
type Client struct {
	from   string
	client *gomail.Client
	log    logger.Logger
}

// NewClient builds an SMTP client from cfg.
func NewClient(cfg config.SMTP, log logger.Logger) (*Client, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, errors.New("smtp host and from address must be set")
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.TLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Password),
		)
	}

	c, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	log.Info(fmt.Sprintf("SMTP client configured for %s:%d", cfg.Host, cfg.Port))
	return &Client{from: cfg.From, client: c, log: log}, nil
}

// Name identifies the transport in logs.
func (c *Client) Name() string {
	return config.TransportSMTP
}

// Send delivers msg to the address to.
func (c *Client) Send(ctx context.Context, to string, msg dto.Message) error {
	m, err := BuildMessage(c.from, to, msg)
	if err != nil {
		return err
	}
	if err := c.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	c.log.Debug(fmt.Sprintf("Sent mail %q to %s", msg.Subject, to))
	return nil
}

// BuildMessage renders msg as a multipart mail with an HTML body and a text alternative.
func BuildMessage(from, to string, msg dto.Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(from); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", from, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	if msg.Text != "" {
		m.AddAlternativeString(gomail.TypeTextPlain, msg.Text)
	}
	return m, nil
}
