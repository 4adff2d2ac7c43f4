// logging/logging.go
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BootstrapLogger returns a development-friendly logger for early startup.
// It's safe to use before config is loaded and logs to stderr.
func BootstrapLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// ValidLogLevels lists all valid zap log levels for validation.
var ValidLogLevels = []string{"debug", "info", "warn", "error", "dpanic", "panic", "fatal"}

// IsValidLogLevel checks if the given level string is a valid zap log level.
// Comparison is case-insensitive.
func IsValidLogLevel(level string) bool {
	level = strings.ToLower(level)
	for _, valid := range ValidLogLevels {
		if level == valid {
			return true
		}
	}
	return false
}

// Options controls how the final logger is built.
type Options struct {
	Level string // debug, info, warn, ...
	Env   string // "prod" switches to the JSON encoder
	// File, when set, receives a copy of every log line. zap opens file
	// sinks in append mode, so restarts never truncate earlier entries.
	File string
}

// BuildLogger constructs the final logger.
// If env is "prod", it uses a JSON encoder; otherwise, it uses the development config.
//
// If an invalid level is provided, it defaults to "info" and logs a warning
// to stderr so the misconfiguration is visible.
func BuildLogger(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	if opts.Env == "prod" {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if err := cfg.Level.UnmarshalText([]byte(strings.ToLower(opts.Level))); err != nil {
		_, _ = os.Stderr.WriteString("WARNING: invalid log level \"" + opts.Level +
			"\"; valid levels are: debug, info, warn, error, dpanic, panic, fatal. Defaulting to \"info\".\n")
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if f := strings.TrimSpace(opts.File); f != "" {
		cfg.OutputPaths = append(cfg.OutputPaths, f)
	}

	return cfg.Build()
}
