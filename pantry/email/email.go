// pantry/email/email.go
// Package email delivers plain-text notification mail through either an SMTP
// relay or the local sendmail binary. Both transports build messages with
// github.com/wneessen/go-mail and report failures as *SendError.
package email

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

// Message is a single plain-text email.
type Message struct {
	FromAddress string
	FromName    string // optional display name
	To          []string
	ReplyTo     string // optional
	Subject     string
	TextBody    string
	UserAgent   string // sent as User-Agent and X-Mailer
}

// Transport delivers messages. Implementations make exactly one delivery
// attempt per Send call.
type Transport interface {
	// Name identifies the transport in logs and metrics ("smtp", "sendmail").
	Name() string
	// Send delivers msg. Errors are always *SendError.
	Send(ctx context.Context, msg Message) error
	// Check reports whether the transport is usable without sending mail.
	Check(ctx context.Context) error
}

// Encryption selects how the SMTP connection is secured.
type Encryption string

const (
	EncryptionSTARTTLS      Encryption = "starttls" // STARTTLS required
	EncryptionSSL           Encryption = "ssl"      // implicit TLS (smtps)
	EncryptionOpportunistic Encryption = "opportunistic"
	EncryptionNone          Encryption = "none"
)

// ParseEncryption maps a configured value to an Encryption. Empty means
// STARTTLS; "tls" and "smtps" are accepted aliases.
func ParseEncryption(s string) (Encryption, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "starttls", "tls":
		return EncryptionSTARTTLS, nil
	case "ssl", "smtps":
		return EncryptionSSL, nil
	case "opportunistic":
		return EncryptionOpportunistic, nil
	case "none":
		return EncryptionNone, nil
	default:
		return "", fmt.Errorf("unknown smtp encryption %q (want starttls|tls|ssl|smtps|opportunistic|none)", s)
	}
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host       string
	Port       int // default 587, or 465 for EncryptionSSL
	Username   string
	Password   string
	Encryption Encryption
	Timeout    time.Duration // default 30s
	Debug      bool          // go-mail protocol logging to stderr
}

// SMTP sends mail through an SMTP relay.
type SMTP struct {
	cfg SMTPConfig
}

// NewSMTP returns an SMTP transport with defaults applied.
func NewSMTP(cfg SMTPConfig) *SMTP {
	if cfg.Encryption == "" {
		cfg.Encryption = EncryptionSTARTTLS
	}
	if cfg.Port == 0 {
		cfg.Port = 587
		if cfg.Encryption == EncryptionSSL {
			cfg.Port = 465
		}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTP{cfg: cfg}
}

func (s *SMTP) Name() string { return "smtp" }

// Port is the relay port after defaults.
func (s *SMTP) Port() int { return s.cfg.Port }

// Check verifies that a host is configured. It does not dial.
func (s *SMTP) Check(context.Context) error {
	if strings.TrimSpace(s.cfg.Host) == "" {
		return &SendError{Kind: KindConfig, Transport: s.Name(), Err: errNoSMTPHost}
	}
	return nil
}

// Send dials the relay, delivers msg and closes the connection.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := s.Check(ctx); err != nil {
		return err
	}
	m, err := buildMsg(msg)
	if err != nil {
		return &SendError{Kind: KindPermanent, Transport: s.Name(), Err: err}
	}

	c, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return &SendError{Kind: KindConfig, Transport: s.Name(), Err: fmt.Errorf("smtp client init: %w", err)}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if err := c.DialAndSendWithContext(ctx, m); err != nil {
		return classify(s.Name(), err)
	}
	return nil
}

func (s *SMTP) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
	}
	switch s.cfg.Encryption {
	case EncryptionSSL:
		opts = append(opts, mail.WithSSL())
	case EncryptionOpportunistic:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case EncryptionNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	if s.cfg.Debug {
		opts = append(opts, mail.WithDebugLog())
	}
	return opts
}

var (
	errNoSMTPHost    = errors.New("smtp host is not configured")
	errNoRecipients  = errors.New("no recipients specified")
	errEmptyBody     = errors.New("message body is empty")
	errNoFromAddress = errors.New("from address is empty")
)

// buildMsg converts msg into a go-mail message. Address errors are the
// caller's fault and never succeed on retry.
func buildMsg(msg Message) (*mail.Msg, error) {
	if len(msg.To) == 0 {
		return nil, errNoRecipients
	}
	if msg.TextBody == "" {
		return nil, errEmptyBody
	}
	if msg.FromAddress == "" {
		return nil, errNoFromAddress
	}

	m := mail.NewMsg()
	if msg.FromName != "" {
		if err := m.FromFormat(msg.FromName, msg.FromAddress); err != nil {
			return nil, fmt.Errorf("invalid from address: %w", err)
		}
	} else if err := m.From(msg.FromAddress); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	m.Subject(msg.Subject)
	m.SetDate()
	m.SetMessageID()
	if msg.UserAgent != "" {
		m.SetUserAgent(msg.UserAgent)
	}
	m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	return m, nil
}
