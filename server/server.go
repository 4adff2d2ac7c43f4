// server/server.go
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/palmtreesdigital/fundingconnect/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/acme/autocert"
)

// errInsecureKey marks a TLS key that is readable by group or others.
var errInsecureKey = errors.New("overly permissive permissions")

// WithShutdownSignals returns a context that is canceled on SIGINT or SIGTERM.
// The returned cancel function also stops signal delivery.
func WithShutdownSignals(parent context.Context, logger *zap.Logger) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			if logger != nil {
				logger.Info("shutdown signal received", zap.Any("signal", sig))
			}
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// ListenAndServeWithContext serves handler over plain HTTP, HTTPS with a
// certificate pair, or HTTPS with Let's Encrypt (http-01), depending on cfg.
// It blocks until ctx is canceled (graceful shutdown) or a server fails.
func ListenAndServeWithContext(
	ctx context.Context,
	cfg *config.CoreConfig,
	handler http.Handler,
	logger *zap.Logger,
) error {
	if cfg == nil {
		return fmt.Errorf("ListenAndServeWithContext: cfg is nil")
	}
	if handler == nil {
		return fmt.Errorf("ListenAndServeWithContext: handler is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := newHTTPServer(cfg, handler, logger)
	httpAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPPort)
	httpsAddr := ":" + strconv.Itoa(cfg.HTTP.HTTPSPort)

	var (
		auxSrv   *http.Server // :80 redirect (and ACME challenge) server
		baseLn   net.Listener
		ln       net.Listener
		serveErr = make(chan error, 1)
		auxErr   chan error // stays nil in HTTP-only mode
	)

	startAux := func(h http.Handler) {
		auxSrv = newHTTPServer(cfg, h, logger)
		auxSrv.Addr = ":80"
		auxErr = make(chan error, 1)
		go serveAuxiliary(auxSrv, auxErr)
		logger.Info("HTTP redirect server listening", zap.String("addr", auxSrv.Addr))
	}

	switch {
	case !cfg.HTTP.UseHTTPS:
		l, err := net.Listen("tcp", httpAddr)
		if err != nil {
			return fmt.Errorf("listen http %s: %w", httpAddr, err)
		}
		baseLn, ln = l, l
		logger.Info("HTTP server listening", zap.String("addr", ln.Addr().String()))

	case cfg.TLS.UseLetsEncrypt:
		m := &autocert.Manager{
			Prompt:     autocert.AcceptTOS,
			HostPolicy: autocert.HostWhitelist(cfg.TLS.Domain),
			Cache:      autocert.DirCache(cfg.TLS.LetsEncryptCacheDir),
			Email:      cfg.TLS.LetsEncryptEmail,
		}
		startAux(m.HTTPHandler(httpRedirectHandler()))

		if err := waitForCert(ctx, m, cfg.TLS.Domain, 60*time.Second); err != nil {
			logger.Warn("autocert pre-warm failed; first HTTPS hits may see TLS errors", zap.Error(err))
		}

		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, GetCertificate: m.GetCertificate}
		l, err := net.Listen("tcp", httpsAddr)
		if err != nil {
			_ = shutdownAux(context.Background(), auxSrv)
			return fmt.Errorf("listen https %s: %w", httpsAddr, err)
		}
		srv.TLSConfig = tlsCfg
		baseLn, ln = l, tls.NewListener(l, tlsCfg)
		logger.Info("HTTPS server (Let's Encrypt) listening",
			zap.String("addr", httpsAddr), zap.String("domain", cfg.TLS.Domain))

	default:
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("manual TLS selected but cert_file / key_file not provided")
		}
		if err := validateTLSFiles(cfg.TLS.CertFile, cfg.TLS.KeyFile); err != nil {
			if !errors.Is(err, errInsecureKey) || cfg.Env == "prod" {
				return err
			}
			logger.Warn("TLS key file security warning (would block in prod)", zap.Error(err))
		}

		cert, err := tls.LoadX509KeyPair(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			return fmt.Errorf("load TLS cert/key: %w", err)
		}
		startAux(httpRedirectHandler())

		tlsCfg := &tls.Config{MinVersion: tls.VersionTLS12, Certificates: []tls.Certificate{cert}}
		l, err := net.Listen("tcp", httpsAddr)
		if err != nil {
			_ = shutdownAux(context.Background(), auxSrv)
			return fmt.Errorf("listen https %s: %w", httpsAddr, err)
		}
		srv.TLSConfig = tlsCfg
		baseLn, ln = l, tls.NewListener(l, tlsCfg)
		logger.Info("HTTPS server (manual TLS) listening",
			zap.String("addr", httpsAddr), zap.String("cert_file", cfg.TLS.CertFile))
	}

	go servePrimary(srv, ln, serveErr)

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down server")
			// ctx is already done, so shutdown gets its own window.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			_ = shutdownAux(shutdownCtx, auxSrv)
			err := srv.Shutdown(shutdownCtx)
			_ = baseLn.Close()
			if err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil

		case err := <-serveErr:
			_ = shutdownAux(context.Background(), auxSrv)
			_ = baseLn.Close()
			if err != nil {
				return fmt.Errorf("primary server error: %w", err)
			}
			return nil

		case err := <-auxErr:
			if err != nil {
				if closeErr := srv.Close(); closeErr != nil {
					logger.Error("failed to close primary server after auxiliary crash", zap.Error(closeErr))
				}
				_ = baseLn.Close()
				return fmt.Errorf("auxiliary server error: %w", err)
			}
			auxSrv, auxErr = nil, nil
		}
	}
}

func newHTTPServer(cfg *config.CoreConfig, h http.Handler, logger *zap.Logger) *http.Server {
	srv := &http.Server{
		Handler:           h,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}
	if stdlog, err := zap.NewStdLogAt(logger, zapcore.WarnLevel); err == nil {
		srv.ErrorLog = stdlog
	} else {
		logger.Warn("failed to attach stdlib error logger", zap.Error(err))
	}
	return srv
}

func servePrimary(srv *http.Server, ln net.Listener, ch chan<- error) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ch <- err
		return
	}
	ch <- nil
}

func serveAuxiliary(auxSrv *http.Server, ch chan<- error) {
	if err := auxSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		ch <- err
		return
	}
	ch <- nil
}

func shutdownAux(ctx context.Context, auxSrv *http.Server) error {
	if auxSrv == nil {
		return nil
	}
	return auxSrv.Shutdown(ctx)
}

// httpRedirectHandler sends every plain HTTP request to the same host and
// path over HTTPS. Hosts and URIs with control characters are rejected.
func httpRedirectHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqURI := r.URL.RequestURI()
		if !isValidHost(r.Host) || !isValidRequestURI(reqURI) {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, "https://"+r.Host+reqURI, http.StatusMovedPermanently)
	})
}

func isValidRequestURI(uri string) bool {
	for _, c := range uri {
		if (c < 0x20 && c != '\t') || c == 0x7f {
			return false
		}
	}
	return true
}

func isValidHost(host string) bool {
	if host == "" || strings.Contains(host, "://") || strings.HasPrefix(host, "/") {
		return false
	}

	hostPart := host
	if h, portStr, err := net.SplitHostPort(host); err == nil {
		port, perr := strconv.Atoi(portStr)
		if perr != nil || port <= 0 || port > 65535 {
			return false
		}
		hostPart = h
	}
	if hostPart == "" {
		return false
	}

	if strings.HasPrefix(hostPart, "[") && strings.HasSuffix(hostPart, "]") {
		ip := hostPart[1 : len(hostPart)-1]
		if i := strings.IndexByte(ip, '%'); i != -1 {
			ip = ip[:i]
		}
		if net.ParseIP(ip) == nil {
			return false
		}
	}

	for _, c := range hostPart {
		if c <= 0x20 || c == 0x7f {
			return false
		}
	}
	return true
}

// validateTLSFiles checks that both files exist and are regular files. On
// Unix it also returns errInsecureKey when the key is group/world accessible.
func validateTLSFiles(certFile, keyFile string) error {
	for _, f := range []struct{ kind, path string }{{"certificate", certFile}, {"key", keyFile}} {
		info, err := os.Stat(f.path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("TLS %s file does not exist: %s", f.kind, f.path)
			}
			return fmt.Errorf("cannot access TLS %s file %s: %w", f.kind, f.path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("TLS %s path is a directory, not a file: %s", f.kind, f.path)
		}
		if f.kind == "key" && runtime.GOOS != "windows" && info.Mode().Perm()&0o077 != 0 {
			return fmt.Errorf("TLS key file %s has %w %o (recommended: 0600)", f.path, errInsecureKey, info.Mode().Perm())
		}
	}
	return nil
}

// waitForCert blocks until autocert has a certificate for host, the timeout
// passes, or ctx is done.
func waitForCert(ctx context.Context, m *autocert.Manager, host string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	for {
		_, err := m.GetCertificate(&tls.ClientHelloInfo{ServerName: host})
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for cert for %q: %w", host, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}
