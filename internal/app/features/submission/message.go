// internal/app/features/submission/message.go
package submission

import (
	"net"
	"strings"

	"github.com/palmtreesdigital/fundingconnect/pantry/email"
	"golang.org/x/net/idna"
)

var requestTemplate = email.MustParseTemplate("funding_request",
	"New Funding Request from {{.Name}}",
	`A new funding request has been submitted:

Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}
Property Address: {{.Address}}
Deal Type: {{.DealType}}
Loan Amount: {{.LoanAmount}}

Deal Details:
{{.Details}}
`)

// Compose renders the notification subject and body for s.
func Compose(s Submission) (subject, body string, err error) {
	return requestTemplate.Render(s)
}

// fallbackSender returns no-reply@<host> for the host the form was posted
// to. The port is dropped and internationalized names are converted to
// their ASCII form; anything unusable becomes "localhost".
func fallbackSender(requestHost string) string {
	host := strings.TrimSpace(requestHost)
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "no-reply@localhost"
	}

	ascii, err := idna.Lookup.ToASCII(host)
	if err != nil || !isDomain(ascii) {
		return "no-reply@localhost"
	}
	return "no-reply@" + strings.ToLower(ascii)
}

func isDomain(s string) bool {
	if s == "" || len(s) > 253 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
		default:
			return false
		}
	}
	return true
}
