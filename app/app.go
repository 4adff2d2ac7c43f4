// app/app.go
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/palmtreesdigital/fundingconnect/config"
	"github.com/palmtreesdigital/fundingconnect/logging"
	"github.com/palmtreesdigital/fundingconnect/metrics"
	"github.com/palmtreesdigital/fundingconnect/server"
	"go.uber.org/zap"
)

// Hooks are the integration points an application provides to Run.
// C is the app-specific config and D the bundle of dependencies built from it
// (mail transport, templates, clocks, ...).
type Hooks[C any, D any] struct {
	// Name is used only for logging.
	Name string

	// LoadConfig returns the core config and the app config. It usually
	// calls config.LoadWithAppConfig.
	LoadConfig func(logger *zap.Logger) (*config.CoreConfig, C, error)

	// BuildDeps constructs the long-lived dependencies the handlers share.
	BuildDeps func(ctx context.Context, core *config.CoreConfig, appCfg C, logger *zap.Logger) (D, error)

	// Preflight runs startup checks against the built deps. A returned error
	// aborts startup; checks that should only warn must log and return nil.
	// May be nil.
	Preflight func(ctx context.Context, core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) error

	// BuildHandler constructs the final http.Handler: router, middleware
	// and routes.
	BuildHandler func(core *config.CoreConfig, appCfg C, deps D, logger *zap.Logger) (http.Handler, error)
}

// Run executes the startup sequence:
//
//  1. Bootstrap logger
//  2. Load core + app config (Hooks.LoadConfig)
//  3. Build the final logger from core config
//  4. Register default metrics
//  5. Build dependencies (Hooks.BuildDeps)
//  6. Preflight checks (Hooks.Preflight, if provided)
//  7. Wire shutdown signals to a context
//  8. Build the HTTP handler (Hooks.BuildHandler)
//  9. Serve until shutdown
func Run[C any, D any](ctx context.Context, hooks Hooks[C, D]) error {
	bootstrap := logging.BootstrapLogger()
	defer func() { _ = bootstrap.Sync() }()
	bootstrap.Info("bootstrap logger initialized", zap.String("app", hooks.Name))

	coreCfg, appCfg, err := hooks.LoadConfig(bootstrap)
	if err != nil {
		bootstrap.Error("config load failed", zap.Error(err))
		return fmt.Errorf("load config: %w", err)
	}
	bootstrap.Info("config loaded",
		zap.String("env", coreCfg.Env),
		zap.String("log_level", coreCfg.LogLevel),
		zap.String("log_file", coreCfg.LogFile),
	)

	logger, err := logging.BuildLogger(logging.Options{
		Level: coreCfg.LogLevel,
		Env:   coreCfg.Env,
		File:  coreCfg.LogFile,
	})
	if err != nil {
		bootstrap.Error("logger build failed", zap.Error(err))
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logger.Info("logger initialized", zap.String("app", hooks.Name))
	logger.Debug("core config", zap.String("config", coreCfg.Dump()))

	metrics.RegisterDefault(logger)

	deps, err := hooks.BuildDeps(ctx, coreCfg, appCfg, logger)
	if err != nil {
		logger.Error("dependency build failed", zap.Error(err))
		return fmt.Errorf("build deps: %w", err)
	}

	if hooks.Preflight != nil {
		if err := hooks.Preflight(ctx, coreCfg, appCfg, deps, logger); err != nil {
			logger.Error("preflight failed", zap.Error(err))
			return fmt.Errorf("preflight: %w", err)
		}
	}

	ctx, cancel := server.WithShutdownSignals(ctx, logger)
	defer cancel()

	handler, err := hooks.BuildHandler(coreCfg, appCfg, deps, logger)
	if err != nil {
		logger.Error("handler build failed", zap.Error(err))
		return fmt.Errorf("build handler: %w", err)
	}

	if err := server.ListenAndServeWithContext(ctx, coreCfg, handler, logger); err != nil {
		logger.Error("server exited with error", zap.Error(err))
		return err
	}
	logger.Info("server stopped")
	return nil
}
