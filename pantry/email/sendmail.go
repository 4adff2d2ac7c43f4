// pantry/email/sendmail.go
package email

import (
	"context"
	"fmt"
	"os"
)

// DefaultSendmailPath is where most MTAs install their sendmail-compatible binary.
const DefaultSendmailPath = "/usr/sbin/sendmail"

// Sendmail hands messages to the local MTA by piping them to
// `sendmail -oi -t`, which reads recipients from the headers.
type Sendmail struct {
	path string
}

// NewSendmail returns a sendmail transport. An empty path uses DefaultSendmailPath.
func NewSendmail(path string) *Sendmail {
	if path == "" {
		path = DefaultSendmailPath
	}
	return &Sendmail{path: path}
}

func (s *Sendmail) Name() string { return "sendmail" }

// Path is the binary this transport executes.
func (s *Sendmail) Path() string { return s.path }

// Check verifies the binary exists and is executable.
func (s *Sendmail) Check(context.Context) error {
	info, err := os.Stat(s.path)
	if err != nil {
		return &SendError{Kind: KindConfig, Transport: s.Name(), Err: err}
	}
	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return &SendError{Kind: KindConfig, Transport: s.Name(),
			Err: fmt.Errorf("%s is not an executable file", s.path)}
	}
	return nil
}

// Send runs sendmail once. A non-zero exit status is reported as transient,
// a missing binary as a configuration error.
func (s *Sendmail) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return &SendError{Kind: KindPermanent, Transport: s.Name(), Err: err}
	}
	if err := m.WriteToSendmailWithContext(ctx, s.path); err != nil {
		return classify(s.Name(), err)
	}
	return nil
}
