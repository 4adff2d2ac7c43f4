// router/router.go
package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/palmtreesdigital/fundingconnect/config"
	"github.com/palmtreesdigital/fundingconnect/logging"
	"github.com/palmtreesdigital/fundingconnect/metrics"
	"github.com/palmtreesdigital/fundingconnect/middleware"
	"go.uber.org/zap"
)

// quietPaths are probe endpoints whose access logs drop to debug level.
var quietPaths = []string{"/health", "/metrics"}

// New creates a chi.Router with the standard middleware stack:
// request ID, real IP, panic recovery, body size limit, metrics, access
// logging, security headers, compression and CORS. NotFound and
// MethodNotAllowed answer in plain text.
//
// Feature routes and probes are mounted by the caller.
func New(coreCfg *config.CoreConfig, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logging.Recoverer(logger))

	r.Use(middleware.LimitBodySize(coreCfg.MaxRequestBodyBytes))
	r.Use(metrics.HTTPMetrics)
	r.Use(logging.RequestLogger(logger, quietPaths...))

	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(middleware.CompressFromConfig(coreCfg))
	r.Use(middleware.CORSFromConfig(coreCfg))

	r.NotFound(middleware.NotFoundHandler(logger))
	r.MethodNotAllowed(middleware.MethodNotAllowedHandler(logger))

	return r
}
