// middleware/security.go
package middleware

import (
	"net/http"
	"strconv"

	"github.com/palmtreesdigital/fundingconnect/config"
)

// SecurityHeadersOptions configures the security headers middleware.
// An empty string (or zero HSTSMaxAge) disables the corresponding header.
type SecurityHeadersOptions struct {
	XFrameOptions       string // "DENY" | "SAMEORIGIN"
	XContentTypeOptions string // "nosniff"
	ReferrerPolicy      string
	XSSProtection       string

	// HSTS is only ever sent on TLS requests.
	HSTSMaxAge            int
	HSTSIncludeSubDomains bool
	HSTSPreload           bool

	ContentSecurityPolicy string
	PermissionsPolicy     string
}

// DefaultSecurityHeadersOptions returns the defaults used for the result pages.
func DefaultSecurityHeadersOptions() SecurityHeadersOptions {
	return SecurityHeadersOptions{
		XFrameOptions:         "SAMEORIGIN",
		XContentTypeOptions:   "nosniff",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		XSSProtection:         "1; mode=block",
		HSTSMaxAge:            31536000,
		HSTSIncludeSubDomains: true,
	}
}

// SecurityHeaders returns middleware that sets the configured headers.
//
//	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersOptions()))
func SecurityHeaders(opts SecurityHeadersOptions) func(next http.Handler) http.Handler {
	static := [][2]string{
		{"X-Frame-Options", opts.XFrameOptions},
		{"X-Content-Type-Options", opts.XContentTypeOptions},
		{"Referrer-Policy", opts.ReferrerPolicy},
		{"X-XSS-Protection", opts.XSSProtection},
		{"Content-Security-Policy", opts.ContentSecurityPolicy},
		{"Permissions-Policy", opts.PermissionsPolicy},
	}

	var hsts string
	if opts.HSTSMaxAge > 0 {
		hsts = "max-age=" + strconv.Itoa(opts.HSTSMaxAge)
		if opts.HSTSIncludeSubDomains {
			hsts += "; includeSubDomains"
		}
		if opts.HSTSPreload {
			hsts += "; preload"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for _, kv := range static {
				if kv[1] != "" {
					h.Set(kv[0], kv[1])
				}
			}
			// plain HTTP in dev must not pin the browser to HTTPS
			if hsts != "" && r.TLS != nil {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeadersFromConfig returns middleware configured from CoreConfig,
// or a no-op when enable_security_headers is false.
func SecurityHeadersFromConfig(coreCfg *config.CoreConfig) func(next http.Handler) http.Handler {
	if coreCfg == nil || !coreCfg.Security.EnableSecurityHeaders {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	s := coreCfg.Security
	return SecurityHeaders(SecurityHeadersOptions{
		XFrameOptions:         s.XFrameOptions,
		XContentTypeOptions:   s.XContentTypeOptions,
		ReferrerPolicy:        s.ReferrerPolicy,
		XSSProtection:         s.XSSProtection,
		HSTSMaxAge:            s.HSTSMaxAge,
		HSTSIncludeSubDomains: s.HSTSIncludeSubDomains,
		HSTSPreload:           s.HSTSPreload,
		ContentSecurityPolicy: s.ContentSecurityPolicy,
		PermissionsPolicy:     s.PermissionsPolicy,
	})
}

// SecureDefaults is SecurityHeaders(DefaultSecurityHeadersOptions()).
func SecureDefaults() func(next http.Handler) http.Handler {
	return SecurityHeaders(DefaultSecurityHeadersOptions())
}
