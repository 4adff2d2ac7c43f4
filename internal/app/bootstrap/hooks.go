// internal/app/bootstrap/hooks.go
package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/palmtreesdigital/fundingconnect/app"
	"github.com/palmtreesdigital/fundingconnect/config"
	"github.com/palmtreesdigital/fundingconnect/httputil"
	"github.com/palmtreesdigital/fundingconnect/internal/app/features/site"
	"github.com/palmtreesdigital/fundingconnect/internal/app/features/submission"
	_ "github.com/palmtreesdigital/fundingconnect/internal/app/resources"
	"github.com/palmtreesdigital/fundingconnect/metrics"
	"github.com/palmtreesdigital/fundingconnect/pantry/email"
	"github.com/palmtreesdigital/fundingconnect/pantry/health"
	"github.com/palmtreesdigital/fundingconnect/pantry/templates"
	"github.com/palmtreesdigital/fundingconnect/pantry/version"
	"github.com/palmtreesdigital/fundingconnect/router"
	"go.uber.org/zap"
)

// AppName names the service in logs and in the X-Mailer header.
const AppName = "fundingconnect"

// LoadConfig loads the core config and the mail settings.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, vals, err := config.LoadWithAppConfig(logger, appEnvPrefix, AppKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}
	appCfg, err := appConfigFrom(vals)
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("app config: %w", err)
	}
	return coreCfg, appCfg, nil
}

// BuildDeps selects the mail transport and compiles the result pages.
func BuildDeps(_ context.Context, _ *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (Deps, error) {
	if err := appCfg.Transport.Validate(); err != nil {
		// not fatal: each request reports the failure on its apology page
		logger.Error("mail transport misconfigured", zap.Error(err))
	}
	transport := email.NewTransport(appCfg.Transport)

	pages := templates.New(logger)
	if err := pages.Boot(); err != nil {
		return Deps{}, fmt.Errorf("templates: %w", err)
	}

	fields := []zap.Field{
		zap.String("transport", transport.Name()),
		zap.String("mode", string(appCfg.Transport.Mode)),
	}
	if s, ok := transport.(*email.SMTP); ok {
		fields = append(fields,
			zap.String("smtp_host", appCfg.Transport.SMTP.Host),
			zap.Int("smtp_port", s.Port()),
			zap.String("smtp_encryption", string(appCfg.Transport.SMTP.Encryption)),
		)
	}
	logger.Info("mail transport selected", fields...)
	return Deps{Transport: transport, Pages: pages}, nil
}

// Preflight reports an unusable transport without refusing to start; the
// static pages and health endpoint stay useful while mail is being fixed.
func Preflight(ctx context.Context, _ *config.CoreConfig, _ AppConfig, deps Deps, logger *zap.Logger) error {
	if err := deps.Transport.Check(ctx); err != nil {
		logger.Warn("mail transport not ready",
			zap.String("transport", deps.Transport.Name()),
			zap.String("kind", string(email.KindOf(err))),
			zap.Error(err))
	}
	return nil
}

// BuildHandler mounts the form endpoint, the static pages, and the
// operational endpoints.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps Deps, logger *zap.Logger) (http.Handler, error) {
	httputil.SetJSONLogger(logger)

	r := router.New(coreCfg, logger)

	health.Mount(r, map[string]health.Check{
		"mail_transport": deps.Transport.Check,
	}, logger)
	version.Mount(r)
	r.Handle("/metrics", metrics.Handler())

	site.Mount(r, site.FS(appCfg.SiteDir))

	h := submission.NewHandler(submission.Config{
		Recipient:          appCfg.Recipient,
		FromAddress:        appCfg.FromAddress,
		FromName:           appCfg.FromName,
		UserAgent:          version.UserAgent(AppName),
		SuccessRedirectURL: appCfg.SuccessRedirectURL,
		FormURL:            appCfg.FormURL,
	}, deps.Transport, deps.Pages, logger)
	submission.Mount(r, h)

	logger.Info("routes mounted", zap.String("version", version.String()))
	return r, nil
}

// Hooks wires the service into app.Run.
var Hooks = app.Hooks[AppConfig, Deps]{
	Name:         AppName,
	LoadConfig:   LoadConfig,
	BuildDeps:    BuildDeps,
	Preflight:    Preflight,
	BuildHandler: BuildHandler,
}
