package email

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		FromAddress: "no-reply@fundingconnect.example",
		To:          []string{"fundingconnect@palmtreesdigital.com"},
		ReplyTo:     "jane@example.com",
		Subject:     "New Funding Request from Jane Doe",
		TextBody:    "A new funding request has been submitted:\n\nName: Jane Doe\n",
		UserAgent:   "fundingconnect/test",
	}
}

func TestParseEncryption(t *testing.T) {
	tests := []struct {
		in      string
		want    Encryption
		wantErr bool
	}{
		{"", EncryptionSTARTTLS, false},
		{"TLS", EncryptionSTARTTLS, false},
		{"starttls", EncryptionSTARTTLS, false},
		{"smtps", EncryptionSSL, false},
		{"ssl", EncryptionSSL, false},
		{"opportunistic", EncryptionOpportunistic, false},
		{"none", EncryptionNone, false},
		{"rot13", "", true},
	}
	for _, tt := range tests {
		got, err := ParseEncryption(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeAuto, m)

	m, err = ParseMode(" SMTP ")
	require.NoError(t, err)
	assert.Equal(t, ModeSMTP, m)

	_, err = ParseMode("pigeon")
	assert.Error(t, err)
}

func TestNewTransport_Selection(t *testing.T) {
	tr := NewTransport(TransportConfig{Mode: ModeAuto, SMTP: SMTPConfig{Host: "smtp.example.com"}})
	assert.IsType(t, &SMTP{}, tr)

	tr = NewTransport(TransportConfig{Mode: ModeAuto})
	require.IsType(t, &Sendmail{}, tr)
	assert.Equal(t, DefaultSendmailPath, tr.(*Sendmail).Path())

	tr = NewTransport(TransportConfig{Mode: ModeSendmail, SMTP: SMTPConfig{Host: "smtp.example.com"}, SendmailPath: "/opt/bin/sendmail"})
	require.IsType(t, &Sendmail{}, tr)
	assert.Equal(t, "/opt/bin/sendmail", tr.(*Sendmail).Path())
}

func TestNewTransport_SMTPModeWithoutHost(t *testing.T) {
	cfg := TransportConfig{Mode: ModeSMTP}
	require.Error(t, cfg.Validate())

	tr := NewTransport(cfg)
	assert.Equal(t, "smtp", tr.Name())

	err := tr.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
	assert.Equal(t, KindConfig, KindOf(tr.Check(context.Background())))
}

func TestNewSMTP_Defaults(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "smtp.example.com"})
	assert.Equal(t, 587, s.cfg.Port)
	assert.Equal(t, 30*time.Second, s.cfg.Timeout)
	assert.Equal(t, EncryptionSTARTTLS, s.cfg.Encryption)
	assert.NoError(t, s.Check(context.Background()))
}

func TestNewSMTP_PortFollowsEncryption(t *testing.T) {
	tests := []struct {
		enc  Encryption
		port int
		want int
	}{
		{EncryptionSSL, 0, 465},
		{EncryptionSTARTTLS, 0, 587},
		{EncryptionOpportunistic, 0, 587},
		{EncryptionNone, 0, 587},
		{EncryptionSSL, 2465, 2465},
		{EncryptionSTARTTLS, 2525, 2525},
	}
	for _, tt := range tests {
		s := NewSMTP(SMTPConfig{Host: "smtp.example.com", Encryption: tt.enc, Port: tt.port})
		assert.Equal(t, tt.want, s.cfg.Port, "%s port %d", tt.enc, tt.port)
	}
}

func TestBuildMsg_Rejects(t *testing.T) {
	msg := testMessage()
	msg.To = nil
	_, err := buildMsg(msg)
	assert.ErrorIs(t, err, errNoRecipients)

	msg = testMessage()
	msg.ReplyTo = "not an address"
	_, err = buildMsg(msg)
	assert.Error(t, err)

	msg = testMessage()
	msg.TextBody = ""
	_, err = buildMsg(msg)
	assert.ErrorIs(t, err, errEmptyBody)
}

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"auth rejected", errors.New("smtp: 535 5.7.8 Authentication failed"), KindPermanent},
		{"mailbox unavailable", &textproto.Error{Code: 550, Msg: "5.1.1 no such user"}, KindPermanent},
		{"greylisted", &textproto.Error{Code: 451, Msg: "4.7.1 try again later"}, KindTransient},
		{"deadline", fmt.Errorf("dial: %w", context.DeadlineExceeded), KindTransient},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, KindTransient},
		{"port in message", errors.New("dial tcp 10.0.0.1:587: i/o timeout"), KindTransient},
		{"missing binary", fmt.Errorf("start: %w", os.ErrNotExist), KindConfig},
		{"not in path", exec.ErrNotFound, KindConfig},
		{"unknown", errors.New("something odd"), KindTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyKind(tt.err))
		})
	}
}

func TestSendError(t *testing.T) {
	cause := errors.New("exit status 75")
	err := fmt.Errorf("send: %w", &SendError{Kind: KindTransient, Transport: "sendmail", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindTransient, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))

	var se *SendError
	require.ErrorAs(t, err, &se)
	assert.True(t, se.Temporary())
	assert.Contains(t, se.Error(), "sendmail transient failure")
}

func TestTemplate_Render(t *testing.T) {
	tpl := MustParseTemplate("t", "Hello {{.Name}}", "Name: {{.Name}}\n")

	subject, body, err := tpl.Render(map[string]string{"Name": "Jane\r\nBcc: x@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "Hello Jane Bcc: x@example.com", subject)
	assert.Equal(t, "Name: Jane\r\nBcc: x@example.com\n", body)

	_, _, err = tpl.Render(map[string]string{})
	assert.Error(t, err, "missing keys must fail")
}

// writeScript creates an executable shell script for standing in for sendmail.
func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sendmail")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestSendmail_Send(t *testing.T) {
	out := filepath.Join(t.TempDir(), "message.eml")
	sm := NewSendmail(writeScript(t, `cat > "`+out+`"`))
	require.NoError(t, sm.Check(context.Background()))

	require.NoError(t, sm.Send(context.Background(), testMessage()))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	eml := string(raw)
	assert.Contains(t, eml, "Subject: New Funding Request from Jane Doe")
	assert.Contains(t, eml, "Reply-To: <jane@example.com>")
	assert.Contains(t, eml, "<fundingconnect@palmtreesdigital.com>")
	assert.Contains(t, eml, "X-Mailer: fundingconnect/test")
	assert.Contains(t, eml, "Name: Jane Doe")
}

func TestSendmail_ExitStatusIsTransient(t *testing.T) {
	sm := NewSendmail(writeScript(t, "cat >/dev/null\nexit 75"))
	err := sm.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestSendmail_MissingBinary(t *testing.T) {
	sm := NewSendmail(filepath.Join(t.TempDir(), "nope"))
	assert.Equal(t, KindConfig, KindOf(sm.Check(context.Background())))

	err := sm.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, KindConfig, KindOf(err))
}

func TestSendmail_NotExecutable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sendmail")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), 0o644))
	assert.Equal(t, KindConfig, KindOf(NewSendmail(path).Check(context.Background())))
}

// fakeSMTP is a minimal SMTP server that accepts one message per session.
type fakeSMTP struct {
	ln        net.Listener
	rcptReply string

	mu   sync.Mutex
	data []string
}

func startFakeSMTP(t *testing.T, rcptReply string) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	f := &fakeSMTP{ln: ln, rcptReply: rcptReply}
	t.Cleanup(func() { _ = ln.Close() })
	go f.serve()
	return f
}

func (f *fakeSMTP) port() int { return f.ln.Addr().(*net.TCPAddr).Port }

func (f *fakeSMTP) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.data...)
}

func (f *fakeSMTP) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.session(conn)
	}
}

func (f *fakeSMTP) session(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	tp := textproto.NewConn(conn)
	reply := func(s string) { _ = tp.PrintfLine("%s", s) }

	reply("220 fake.smtp ESMTP ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
		switch cmd {
		case "EHLO":
			reply("250-fake.smtp")
			reply("250 HELP")
		case "HELO":
			reply("250 fake.smtp")
		case "RCPT":
			reply(f.rcptReply)
		case "DATA":
			reply("354 end data with <CR><LF>.<CR><LF>")
			b, err := tp.ReadDotBytes()
			if err != nil {
				return
			}
			f.mu.Lock()
			f.data = append(f.data, string(b))
			f.mu.Unlock()
			reply("250 2.0.0 queued")
		case "QUIT":
			reply("221 2.0.0 bye")
			return
		default:
			reply("250 OK")
		}
	}
}

func newTestSMTP(port int) *SMTP {
	return NewSMTP(SMTPConfig{
		Host:       "127.0.0.1",
		Port:       port,
		Encryption: EncryptionNone,
		Timeout:    5 * time.Second,
	})
}

func TestSMTP_Send(t *testing.T) {
	srv := startFakeSMTP(t, "250 2.1.5 OK")

	err := newTestSMTP(srv.port()).Send(context.Background(), testMessage())
	require.NoError(t, err)

	msgs := srv.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Subject: New Funding Request from Jane Doe")
	assert.Contains(t, msgs[0], "Name: Jane Doe")
}

func TestSMTP_RejectedRecipientIsPermanent(t *testing.T) {
	srv := startFakeSMTP(t, "550 5.1.1 mailbox unavailable")

	err := newTestSMTP(srv.port()).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, KindPermanent, KindOf(err))
	assert.Empty(t, srv.messages())
}

func TestSMTP_TemporaryRejectIsTransient(t *testing.T) {
	srv := startFakeSMTP(t, "451 4.7.1 greylisted, try again")

	err := newTestSMTP(srv.port()).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err))
}

func TestSMTP_ConnectionRefusedIsTransient(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	err = newTestSMTP(port).Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.Equal(t, KindTransient, KindOf(err), "port %s", strconv.Itoa(port))
}
