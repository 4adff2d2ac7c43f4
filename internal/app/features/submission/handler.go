// internal/app/features/submission/handler.go
package submission

import (
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/palmtreesdigital/fundingconnect/metrics"
	"github.com/palmtreesdigital/fundingconnect/pantry/email"
	"github.com/palmtreesdigital/fundingconnect/pantry/templates"
	"go.uber.org/zap"
)

// Client-facing messages. Rejections stay generic; the log names the field.
const (
	msgMethodNotAllowed = "Method Not Allowed"
	msgRequired         = "Please complete all required fields."
	msgInvalidEmail     = "Please provide a valid email address."
)

// DefaultRecipient receives every funding request unless configured otherwise.
const DefaultRecipient = "fundingconnect@palmtreesdigital.com"

// multipartMemory is how much of a multipart body is held in memory; the
// form has no file inputs, so this is never exceeded in practice.
const multipartMemory = 1 << 20

// Config is read-only per-request configuration, built once at startup.
type Config struct {
	Recipient   string
	FromAddress string // empty: no-reply@<request host>
	FromName    string
	UserAgent   string // X-Mailer / User-Agent of outgoing mail

	// SuccessRedirectURL, when set, answers a sent request with a 302
	// instead of the inline thank-you page.
	SuccessRedirectURL string
	// FormURL is the "Back to form" link on both result pages.
	FormURL string
}

// Handler is the form endpoint. It validates, sends one email, and renders
// the result.
type Handler struct {
	cfg       Config
	transport email.Transport
	pages     *templates.Engine
	logger    *zap.Logger
}

// NewHandler wires a Handler. pages must have the submission templates booted.
func NewHandler(cfg Config, transport email.Transport, pages *templates.Engine, logger *zap.Logger) *Handler {
	if cfg.Recipient == "" {
		cfg.Recipient = DefaultRecipient
	}
	if cfg.FormURL == "" {
		cfg.FormURL = "index.html"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cfg: cfg, transport: transport, pages: pages, logger: logger}
}

// pageData is what the result templates see.
type pageData struct {
	FormURL   string
	Recipient string
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := h.logger.With(
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("remote_ip", r.RemoteAddr),
	)

	if r.Method != http.MethodPost {
		log.Info("submission rejected: method not allowed", zap.String("method", r.Method))
		metrics.RecordSubmission(metrics.OutcomeMethodNotAllowed)
		w.Header().Set("Allow", http.MethodPost)
		plainText(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return
	}

	if err := parseForm(r); err != nil {
		// treated as an empty form; the required check rejects it below
		log.Warn("form parse failed", zap.Error(err))
	}

	sub := FromForm(r.PostForm)
	if err := sub.Validate(); err != nil {
		metrics.RecordSubmission(metrics.OutcomeInvalid)
		var fe *FieldError
		if errors.As(err, &fe) && fe.Reason == ReasonInvalidEmail {
			log.Info("submission rejected: invalid email", zap.String("field", fe.Field))
			plainText(w, http.StatusBadRequest, msgInvalidEmail)
			return
		}
		field := ""
		if fe != nil {
			field = fe.Field
		}
		log.Info("submission rejected: missing field", zap.String("field", field), zap.Error(err))
		plainText(w, http.StatusBadRequest, msgRequired)
		return
	}

	sent := h.send(r, sub, log)

	data := pageData{FormURL: h.cfg.FormURL, Recipient: h.cfg.Recipient}
	if !sent {
		metrics.RecordSubmission(metrics.OutcomeSendFailed)
		h.pages.WriteHTML(w, http.StatusOK, "send_failed", data)
		return
	}

	metrics.RecordSubmission(metrics.OutcomeSent)
	if h.cfg.SuccessRedirectURL != "" {
		http.Redirect(w, r, h.cfg.SuccessRedirectURL, http.StatusFound)
		return
	}
	h.pages.WriteHTML(w, http.StatusOK, "thanks", data)
}

// send makes the single delivery attempt. Failures are logged and reported
// as false; they never reach the client.
func (h *Handler) send(r *http.Request, sub Submission, log *zap.Logger) bool {
	subject, body, err := Compose(sub)
	if err != nil {
		log.Error("compose failed", zap.Error(err))
		return false
	}

	from := h.cfg.FromAddress
	if from == "" {
		from = fallbackSender(r.Host)
	}
	msg := email.Message{
		FromAddress: from,
		FromName:    h.cfg.FromName,
		To:          []string{h.cfg.Recipient},
		ReplyTo:     sub.Email,
		Subject:     subject,
		TextBody:    body,
		UserAgent:   h.cfg.UserAgent,
	}

	transport := h.transport.Name()
	log.Debug("sending funding request", zap.String("transport", transport), zap.String("from", from))

	start := time.Now()
	err = h.transport.Send(r.Context(), msg)
	took := time.Since(start)
	metrics.RecordMailSend(transport, err, took)

	if err != nil {
		log.Error("send_result",
			zap.Bool("sent", false),
			zap.String("transport", transport),
			zap.String("kind", string(email.KindOf(err))),
			zap.Duration("took", took),
			zap.Error(err),
		)
		return false
	}
	log.Info("send_result",
		zap.Bool("sent", true),
		zap.String("transport", transport),
		zap.Duration("took", took),
	)
	return true
}

// parseForm handles both urlencoded and multipart bodies.
func parseForm(r *http.Request) error {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "multipart/form-data" {
		return r.ParseMultipartForm(multipartMemory)
	}
	return r.ParseForm()
}

func plainText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
