// pantry/email/errors.go
package email

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/textproto"
	"os/exec"
	"regexp"
	"strings"

	"github.com/wneessen/go-mail"
)

// Kind classifies a delivery failure.
type Kind string

const (
	// KindConfig means the transport cannot work as configured
	// (no SMTP host, missing sendmail binary).
	KindConfig Kind = "config"
	// KindTransient failures may succeed later: network errors, timeouts,
	// 4xx SMTP replies, sendmail exit codes.
	KindTransient Kind = "transient"
	// KindPermanent failures will not succeed on retry: 5xx SMTP replies,
	// rejected credentials, malformed addresses.
	KindPermanent Kind = "permanent"
)

// SendError is returned by every Transport.
type SendError struct {
	Kind      Kind
	Transport string
	Err       error
}

func (e *SendError) Error() string {
	return "email: " + e.Transport + " " + string(e.Kind) + " failure: " + e.Err.Error()
}

func (e *SendError) Unwrap() error { return e.Err }

// Temporary reports whether a later attempt might succeed.
func (e *SendError) Temporary() bool { return e.Kind == KindTransient }

// KindOf returns the Kind of err, or "" when err is nil or not a *SendError.
func KindOf(err error) Kind {
	var se *SendError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

var (
	authFailure = []string{"535", "5.7.8", "authentication failed", "username and password not accepted"}
	// an SMTP reply code at the start of a reply line, e.g. "550 5.1.1 ..."
	permanentReply = regexp.MustCompile(`(^|[^\d:.])5\d\d[ -]`)
)

func classify(transport string, err error) *SendError {
	var se *SendError
	if errors.As(err, &se) {
		return se
	}
	kind := classifyKind(err)
	return &SendError{Kind: kind, Transport: transport, Err: err}
}

func classifyKind(err error) Kind {
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrPermission) {
		return KindConfig
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTransient
	}

	var tp *textproto.Error
	if errors.As(err, &tp) {
		if tp.Code >= 500 {
			return KindPermanent
		}
		return KindTransient
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return KindTransient
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return KindTransient
	}

	msg := err.Error()
	lower := strings.ToLower(msg)
	for _, s := range authFailure {
		if strings.Contains(lower, s) {
			return KindPermanent
		}
	}

	var mailErr *mail.SendError
	if errors.As(err, &mailErr) && mailErr.IsTemp() {
		return KindTransient
	}
	if permanentReply.MatchString(msg) {
		return KindPermanent
	}
	return KindTransient
}
