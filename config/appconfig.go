// config/appconfig.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// AppKey defines a configuration key for the application.
// Apps register their config keys using this type, and the loader handles
// config files, environment variables, and command-line flags for them.
type AppKey struct {
	// Name is the key name (e.g., "smtp_host", "mail_recipient").
	// This is used as-is for config files and CLI flags.
	// For env vars, it's uppercased and prefixed when a prefix is set.
	Name string

	// Default is the default value if not set elsewhere.
	// Supported types: string, int, int64, bool, []string, time.Duration.
	Default any

	// Desc is a short description for --help output.
	Desc string
}

// AppConfigValues holds the loaded app configuration values.
// Keys are the AppKey.Name values, values are the loaded configuration.
type AppConfigValues map[string]any

// String returns a string value or empty string if not found/wrong type.
func (a AppConfigValues) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an int value or 0 if not found/wrong type.
// Handles both int and int64 (TOML/Viper returns int64 for integers).
func (a AppConfigValues) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}

// Int64 returns an int64 value or 0 if not found/wrong type.
func (a AppConfigValues) Int64(key string) int64 {
	switch v := a[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Bool returns a bool value or false if not found/wrong type.
func (a AppConfigValues) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// StringSlice returns a []string value or nil if not found/wrong type.
func (a AppConfigValues) StringSlice(key string) []string {
	if v, ok := a[key].([]string); ok {
		return v
	}
	return nil
}

// Duration parses a duration value from the config.
// Accepts:
//   - Duration strings: "10m", "1h30m", "90s", "2h"
//   - Numeric values: interpreted as seconds (e.g., 600 = 10 minutes)
//   - Plain numeric strings: "600" = 600 seconds
//
// Returns the default value if the key is not found, empty, or invalid.
func (a AppConfigValues) Duration(key string, def time.Duration) time.Duration {
	raw := a[key]
	if raw == nil {
		return def
	}
	dur, err := parseDurationFlexible(raw, def)
	if err != nil {
		return def
	}
	return dur
}

// loadAppConfig loads app-specific configuration using the same precedence
// as the core config: flags > env > config files > defaults.
//
// Values are coerced to the type of AppKey.Default, so SMTP_PORT=2525 in the
// environment comes back as an int rather than the raw string.
func loadAppConfig(logger *zap.Logger, v *viper.Viper, fs *pflag.FlagSet, envPrefix string, keys []AppKey) AppConfigValues {
	if len(keys) == 0 {
		return make(AppConfigValues)
	}

	// Child viper for app config with the app's env prefix
	appV := viper.New()
	if envPrefix != "" {
		appV.SetEnvPrefix(envPrefix)
	}
	appV.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	appV.AutomaticEnv()

	for _, key := range keys {
		// A config file value replaces the key default but stays below env
		// and flags; appV.Set would outrank both.
		def := key.Default
		if v.InConfig(key.Name) {
			def = v.Get(key.Name)
		}
		appV.SetDefault(key.Name, def)
		_ = appV.BindEnv(key.Name)

		if f := fs.Lookup(key.Name); f != nil && f.Changed {
			_ = appV.BindPFlag(key.Name, f)
		}
	}

	result := make(AppConfigValues, len(keys))
	for _, key := range keys {
		switch key.Default.(type) {
		case string:
			result[key.Name] = appV.GetString(key.Name)
		case int:
			result[key.Name] = appV.GetInt(key.Name)
		case int64:
			result[key.Name] = appV.GetInt64(key.Name)
		case bool:
			result[key.Name] = appV.GetBool(key.Name)
		case []string:
			result[key.Name] = appV.GetStringSlice(key.Name)
		default:
			result[key.Name] = appV.Get(key.Name)
		}
	}

	if logger != nil {
		fields := make([]zap.Field, 0, len(keys))
		for _, key := range keys {
			if isSecretKey(key.Name) {
				fields = append(fields, zap.String(key.Name, "[REDACTED]"))
			} else {
				fields = append(fields, zap.Any(key.Name, result[key.Name]))
			}
		}
		logger.Info("app config loaded", fields...)
	}

	return result
}

func isSecretKey(name string) bool {
	n := strings.ToLower(name)
	return strings.Contains(n, "key") ||
		strings.Contains(n, "secret") ||
		strings.Contains(n, "password") ||
		strings.Contains(n, "token")
}

// registerAppFlags registers command-line flags for app config keys.
// Must be called before the flag set is parsed.
func registerAppFlags(fs *pflag.FlagSet, keys []AppKey) error {
	for _, key := range keys {
		if fs.Lookup(key.Name) != nil {
			return fmt.Errorf("config key %q conflicts with existing flag", key.Name)
		}

		switch d := key.Default.(type) {
		case string:
			fs.String(key.Name, d, key.Desc)
		case int:
			fs.Int(key.Name, d, key.Desc)
		case int64:
			fs.Int64(key.Name, d, key.Desc)
		case bool:
			fs.Bool(key.Name, d, key.Desc)
		case time.Duration:
			fs.String(key.Name, d.String(), key.Desc)
		case []string:
			// For string slices, accept a comma-separated list on the command line
			fs.StringSlice(key.Name, d, key.Desc)
		default:
			return fmt.Errorf("config key %q has unsupported default type %T", key.Name, key.Default)
		}
	}
	return nil
}
