// metrics/metrics.go
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// reqDuration is a histogram of HTTP request durations in seconds, labeled
// by route pattern, method, and status code.
var reqDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests.",
		Buckets: []float64{0.01, 0.1, 0.3, 1.2, 5, 30},
	},
	[]string{"path", "method", "status"},
)

// Submission outcomes. One of these is recorded per POST to the form endpoint.
const (
	OutcomeSent             = "sent"
	OutcomeSendFailed       = "send_failed"
	OutcomeInvalid          = "invalid"
	OutcomeMethodNotAllowed = "method_not_allowed"
)

var submissions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fundingconnect_submissions_total",
		Help: "Funding request submissions by outcome.",
	},
	[]string{"outcome"},
)

var mailSends = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "fundingconnect_mail_send_total",
		Help: "Mail delivery attempts by transport and result.",
	},
	[]string{"transport", "result"},
)

var mailSendDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "fundingconnect_mail_send_duration_seconds",
		Help:    "Time spent handing a message to the mail transport.",
		Buckets: []float64{0.05, 0.25, 1, 5, 15, 30},
	},
	[]string{"transport"},
)

// RegisterDefault registers the Go runtime and process collectors plus this
// service's collectors. Call it once at startup.
//
// It panics (or logs fatally) if registration fails for any reason other
// than the collector already being registered.
func RegisterDefault(logger *zap.Logger) {
	mustRegister(logger, "Go collector", collectors.NewGoCollector())
	mustRegister(logger, "process collector", collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	mustRegister(logger, "HTTP request histogram", reqDuration)
	mustRegister(logger, "submission counter", submissions)
	mustRegister(logger, "mail send counter", mailSends)
	mustRegister(logger, "mail send histogram", mailSendDuration)
}

func mustRegister(logger *zap.Logger, name string, c prometheus.Collector) {
	err := prometheus.Register(c)
	if err == nil {
		return
	}
	var already prometheus.AlreadyRegisteredError
	if errors.As(err, &already) {
		return
	}
	if logger != nil {
		logger.Fatal("failed to register "+name, zap.Error(err))
	}
	panic("metrics: failed to register " + name + ": " + err.Error())
}

// RecordSubmission counts one form submission with the given outcome.
func RecordSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// RecordMailSend counts one delivery attempt and observes how long it took.
func RecordMailSend(transport string, err error, took time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	mailSends.WithLabelValues(transport, result).Inc()
	mailSendDuration.WithLabelValues(transport).Observe(took.Seconds())
}

const maxPathLabelLength = 256

// HTTPMetrics is a middleware that records request duration into the
// http_request_duration_seconds histogram. It labels by chi route pattern
// so unmatched paths do not blow up cardinality.
func HTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		protoMajor := r.ProtoMajor
		if protoMajor < 1 {
			protoMajor = 1
		}
		ww := middleware.NewWrapResponseWriter(w, protoMajor)

		next.ServeHTTP(ww, r)

		statusCode := ww.Status()
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		if statusCode < 100 || statusCode > 599 {
			statusCode = http.StatusInternalServerError
		}

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		if len(path) > maxPathLabelLength {
			path = truncateUTF8(path, maxPathLabelLength-3) + "..."
		}

		reqDuration.WithLabelValues(path, r.Method, strconv.Itoa(statusCode)).
			Observe(time.Since(start).Seconds())
	})
}

// Handler returns an http.Handler that exposes the Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// truncateUTF8 cuts s to at most maxBytes without splitting a rune.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	for maxBytes > 0 && !utf8.RuneStart(s[maxBytes]) {
		maxBytes--
	}
	return s[:maxBytes]
}
