// middleware/cors.go
package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/palmtreesdigital/fundingconnect/config"
)

// CORSFromConfig returns a middleware that applies CORS behavior based on the
// given CoreConfig's CORS section. It matters when the form page is hosted
// on a different origin and submits with fetch() instead of a plain POST.
//
// If coreCfg.CORS.EnableCORS is false, it returns an identity middleware, so it
// is safe to call unconditionally:
//
//	r.Use(middleware.CORSFromConfig(coreCfg))
func CORSFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.CORS.EnableCORS {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return cors.Handler(cors.Options{
		AllowedOrigins:   coreCfg.CORS.CORSAllowedOrigins,
		AllowedMethods:   coreCfg.CORS.CORSAllowedMethods,
		AllowedHeaders:   coreCfg.CORS.CORSAllowedHeaders,
		AllowCredentials: coreCfg.CORS.CORSAllowCredentials,
		MaxAge:           coreCfg.CORS.CORSMaxAge,
	})
}
