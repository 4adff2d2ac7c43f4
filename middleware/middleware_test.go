package middleware

import (
	"crypto/tls"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/palmtreesdigital/fundingconnect/config"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestSecurityHeaders_Defaults(t *testing.T) {
	rec := httptest.NewRecorder()
	SecureDefaults()(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	tests := []struct {
		header string
		want   string
	}{
		{"X-Frame-Options", "SAMEORIGIN"},
		{"X-Content-Type-Options", "nosniff"},
		{"Referrer-Policy", "strict-origin-when-cross-origin"},
		{"X-XSS-Protection", "1; mode=block"},
		{"Strict-Transport-Security", ""},
		{"Content-Security-Policy", ""},
	}
	for _, tt := range tests {
		if got := rec.Header().Get(tt.header); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestSecurityHeaders_HSTSOnlyForTLS(t *testing.T) {
	opts := DefaultSecurityHeadersOptions()
	opts.HSTSPreload = true
	handler := SecurityHeaders(opts)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "https://example.com/", nil)
	req.TLS = &tls.ConnectionState{}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	want := "max-age=31536000; includeSubDomains; preload"
	if got := rec.Header().Get("Strict-Transport-Security"); got != want {
		t.Errorf("HSTS = %q, want %q", got, want)
	}
}

func TestSecurityHeadersFromConfig(t *testing.T) {
	cfg := &config.CoreConfig{}
	cfg.Security.EnableSecurityHeaders = true
	cfg.Security.XFrameOptions = "DENY"
	cfg.Security.ContentSecurityPolicy = "default-src 'self'"

	rec := httptest.NewRecorder()
	SecurityHeadersFromConfig(cfg)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want %q", got, "DENY")
	}
	if got := rec.Header().Get("Content-Security-Policy"); got != "default-src 'self'" {
		t.Errorf("Content-Security-Policy = %q", got)
	}

	cfg.Security.EnableSecurityHeaders = false
	rec = httptest.NewRecorder()
	SecurityHeadersFromConfig(cfg)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := rec.Header().Get("X-Frame-Options"); got != "" {
		t.Errorf("X-Frame-Options should not be set when disabled, got %q", got)
	}

	rec = httptest.NewRecorder()
	SecurityHeadersFromConfig(nil)(okHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestLimitBodySize(t *testing.T) {
	var called bool
	var readErr error
	handler := LimitBodySize(16)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, readErr = io.ReadAll(r.Body)
	}))

	// declared length over the cap: rejected before the handler runs
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(strings.Repeat("a", 64)))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
	if called {
		t.Error("handler ran for an oversized Content-Length")
	}

	// unknown length: the reader cuts it off
	req = httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(strings.Repeat("a", 64)))
	req.ContentLength = -1
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if readErr == nil {
		t.Fatal("expected an error reading an oversized chunked body")
	}

	readErr = nil
	req = httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader("name=Jane"))
	handler.ServeHTTP(httptest.NewRecorder(), req)
	if readErr != nil {
		t.Fatalf("small body rejected: %v", readErr)
	}
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		code    int
		body    string
	}{
		{"not found", NotFoundHandler(nil), http.StatusNotFound, "Not Found\n"},
		{"method not allowed", MethodNotAllowedHandler(nil), http.StatusMethodNotAllowed, "Method Not Allowed\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
			if rec.Code != tt.code {
				t.Errorf("status = %d, want %d", rec.Code, tt.code)
			}
			if rec.Body.String() != tt.body {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.body)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
				t.Errorf("Content-Type = %q, want text/plain", ct)
			}
		})
	}
}

func TestCORSFromConfig(t *testing.T) {
	cfg := &config.CoreConfig{}
	cfg.CORS.EnableCORS = true
	cfg.CORS.CORSAllowedOrigins = []string{"https://fundingconnect.example"}
	cfg.CORS.CORSAllowedMethods = []string{http.MethodPost}

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.Header.Set("Origin", "https://fundingconnect.example")
	rec := httptest.NewRecorder()
	CORSFromConfig(cfg)(okHandler).ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://fundingconnect.example" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	rec = httptest.NewRecorder()
	CORSFromConfig(&config.CoreConfig{})(okHandler).ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("CORS disabled but header set: %q", got)
	}
}

func TestCompressFromConfig(t *testing.T) {
	page := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(strings.Repeat("<p>Thank You!</p>", 200)))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	rec := httptest.NewRecorder()
	CompressFromConfig(&config.CoreConfig{EnableCompression: true, CompressionLevel: 5})(page).ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}

	rec = httptest.NewRecorder()
	CompressFromConfig(&config.CoreConfig{})(page).ServeHTTP(rec, req)
	if got := rec.Header().Get("Content-Encoding"); got != "" {
		t.Errorf("compression disabled but Content-Encoding = %q", got)
	}
}
