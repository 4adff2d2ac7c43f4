// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/palmtreesdigital/fundingconnect/config"
	"github.com/palmtreesdigital/fundingconnect/pantry/email"
)

// appEnvPrefix is empty so the mail settings keep their deployed names
// (SMTP_HOST, MAIL_FROM_ADDRESS, ...).
const appEnvPrefix = ""

// AppKeys are the service's own configuration keys.
var AppKeys = []config.AppKey{
	{Name: "mail_transport", Default: "auto", Desc: "Mail transport: auto, smtp or sendmail"},
	{Name: "mail_recipient", Default: "", Desc: "Address that receives funding requests"},
	{Name: "mail_from_address", Default: "", Desc: "Sender address (default no-reply@<request host>)"},
	{Name: "mail_from_name", Default: "", Desc: "Sender display name"},
	{Name: "smtp_host", Default: "", Desc: "SMTP relay host; empty selects sendmail in auto mode"},
	{Name: "smtp_port", Default: 0, Desc: "SMTP relay port (0: 465 for ssl, 587 otherwise)"},
	{Name: "smtp_username", Default: "", Desc: "SMTP username; enables AUTH when set"},
	{Name: "smtp_password", Default: "", Desc: "SMTP password"},
	{Name: "smtp_encryption", Default: "starttls", Desc: "SMTP encryption: starttls, ssl, opportunistic or none"},
	{Name: "smtp_timeout", Default: 30 * time.Second, Desc: "SMTP dial and send timeout"},
	{Name: "smtp_debug", Default: false, Desc: "Log the SMTP conversation"},
	{Name: "sendmail_path", Default: email.DefaultSendmailPath, Desc: "Local sendmail binary"},
	{Name: "success_redirect_url", Default: "", Desc: "Redirect here after a sent request instead of rendering the thank-you page"},
	{Name: "form_url", Default: "index.html", Desc: "Back to form link on the result pages"},
	{Name: "site_dir", Default: "", Desc: "Serve the form pages from this directory instead of the built-in ones"},
}

// AppConfig is the service configuration, read-only after startup.
type AppConfig struct {
	Transport email.TransportConfig

	Recipient   string
	FromAddress string
	FromName    string

	SuccessRedirectURL string
	FormURL            string
	SiteDir            string
}

// appConfigFrom builds AppConfig from loaded values. Bad values are
// collected into one error, the way core config validation reports them.
func appConfigFrom(vals config.AppConfigValues) (AppConfig, error) {
	var invalid []string

	mode, err := email.ParseMode(vals.String("mail_transport"))
	if err != nil {
		invalid = append(invalid, err.Error())
	}
	enc, err := email.ParseEncryption(vals.String("smtp_encryption"))
	if err != nil {
		invalid = append(invalid, err.Error())
	}
	port := vals.Int("smtp_port")
	if port < 0 || port > 65535 {
		invalid = append(invalid, "smtp_port must be in 0..65535")
	}

	sendmailPath := strings.TrimSpace(vals.String("sendmail_path"))
	if sendmailPath == "" {
		sendmailPath = email.DefaultSendmailPath
	}

	cfg := AppConfig{
		Transport: email.TransportConfig{
			Mode: mode,
			SMTP: email.SMTPConfig{
				Host:       strings.TrimSpace(vals.String("smtp_host")),
				Port:       port,
				Username:   vals.String("smtp_username"),
				Password:   vals.String("smtp_password"),
				Encryption: enc,
				Timeout:    vals.Duration("smtp_timeout", 30*time.Second),
				Debug:      vals.Bool("smtp_debug"),
			},
			SendmailPath: sendmailPath,
		},
		Recipient:          strings.TrimSpace(vals.String("mail_recipient")),
		FromAddress:        strings.TrimSpace(vals.String("mail_from_address")),
		FromName:           strings.TrimSpace(vals.String("mail_from_name")),
		SuccessRedirectURL: strings.TrimSpace(vals.String("success_redirect_url")),
		FormURL:            strings.TrimSpace(vals.String("form_url")),
		SiteDir:            strings.TrimSpace(vals.String("site_dir")),
	}

	if len(invalid) > 0 {
		return AppConfig{}, fmt.Errorf("invalid: %s", strings.Join(invalid, ", "))
	}
	return cfg, nil
}
