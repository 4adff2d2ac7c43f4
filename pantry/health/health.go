// pantry/health/health.go
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/palmtreesdigital/fundingconnect/httputil"
	"go.uber.org/zap"
)

// Check is a single readiness probe. It must not send mail or otherwise
// change state.
type Check func(ctx context.Context) error

// Response is the JSON body of /health.
type Response struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// checkTimeout bounds each probe so a hung dependency cannot hang the endpoint.
const checkTimeout = 2 * time.Second

// Handler runs checks on every request. With no checks it is a plain
// liveness probe ({"status":"ok"}). Any failing check turns the response
// into a 503 with {"status":"error"} and per-check results.
func Handler(checks map[string]Check, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(checks) == 0 {
			httputil.WriteJSON(w, http.StatusOK, Response{Status: "ok"})
			return
		}

		resp := Response{Status: "ok", Checks: make(map[string]string, len(checks))}
		status := http.StatusOK
		for name, check := range checks {
			if check == nil {
				resp.Checks[name] = "ok"
				continue
			}
			ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
			err := check(ctx)
			cancel()
			if err != nil {
				resp.Status = "error"
				resp.Checks[name] = "error: " + err.Error()
				status = http.StatusServiceUnavailable
				logger.Warn("health check failed", zap.String("check", name), zap.Error(err))
				continue
			}
			resp.Checks[name] = "ok"
		}
		httputil.WriteJSON(w, status, resp)
	})
}

// Mount attaches GET /health.
func Mount(r chi.Router, checks map[string]Check, logger *zap.Logger) {
	r.Method(http.MethodGet, "/health", Handler(checks, logger))
}
