// pantry/email/transport.go
package email

import (
	"context"
	"fmt"
	"strings"
)

// Mode chooses which transport NewTransport builds.
type Mode string

const (
	ModeAuto     Mode = "auto" // SMTP when a host is set, sendmail otherwise
	ModeSMTP     Mode = "smtp"
	ModeSendmail Mode = "sendmail"
)

// ParseMode maps a configured value to a Mode. Empty means ModeAuto.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeSMTP, ModeSendmail:
		return m, nil
	default:
		return "", fmt.Errorf("unknown mail transport %q (want auto|smtp|sendmail)", s)
	}
}

// TransportConfig is everything NewTransport needs.
type TransportConfig struct {
	Mode         Mode
	SMTP         SMTPConfig
	SendmailPath string
}

// Validate reports configuration that makes every send fail. Callers log it
// at startup; NewTransport still returns a transport that reports the same
// problem on each Send.
func (c TransportConfig) Validate() error {
	if c.Mode == ModeSMTP && strings.TrimSpace(c.SMTP.Host) == "" {
		return fmt.Errorf("mail transport is smtp but SMTP_HOST is empty")
	}
	return nil
}

// NewTransport selects a transport:
//   - smtp: always SMTP; a missing host fails every Send with KindConfig
//   - sendmail: always the local binary
//   - auto: SMTP when a host is set, sendmail otherwise
func NewTransport(cfg TransportConfig) Transport {
	switch cfg.Mode {
	case ModeSMTP:
		if err := cfg.Validate(); err != nil {
			return misconfigured{name: "smtp", err: err}
		}
		return NewSMTP(cfg.SMTP)
	case ModeSendmail:
		return NewSendmail(cfg.SendmailPath)
	default:
		if strings.TrimSpace(cfg.SMTP.Host) != "" {
			return NewSMTP(cfg.SMTP)
		}
		return NewSendmail(cfg.SendmailPath)
	}
}

// misconfigured never sends; it surfaces a startup configuration problem
// as a per-request failure instead of dropping mail silently.
type misconfigured struct {
	name string
	err  error
}

func (m misconfigured) Name() string { return m.name }

func (m misconfigured) Check(context.Context) error {
	return &SendError{Kind: KindConfig, Transport: m.name, Err: m.err}
}

func (m misconfigured) Send(ctx context.Context, _ Message) error {
	return m.Check(ctx)
}
