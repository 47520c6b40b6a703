package config

import (
	"strings"

	"github.com/getmentor/authflow/pkg/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Source is one place a base URL may come from. Lookup reports false when the
// source has no value.
type Source struct {
	Name   string
	Lookup func() (string, bool)
}

// StaticSource always yields value, or nothing when value is empty
func StaticSource(name, value string) Source {
	return Source{
		Name: name,
		Lookup: func() (string, bool) {
			return value, value != ""
		},
	}
}

// ViperSource reads key from v (environment, .env file or explicit Set)
func ViperSource(v *viper.Viper, key string) Source {
	return Source{
		Name: "env:" + key,
		Lookup: func() (string, bool) {
			if !v.IsSet(key) {
				return "", false
			}
			value := v.GetString(key)
			return value, value != ""
		},
	}
}

// DefaultSources is the fallback chain used by Load: the build-time value,
// then the runtime environment.
func DefaultSources(v *viper.Viper) []Source {
	return []Source{
		StaticSource("build", BuildBaseURL),
		ViperSource(v, "API_BASE_URL"),
	}
}

// ResolveBaseURL returns the first non-empty value in sources, trimmed of
// trailing slashes. It never fails: with no value anywhere it returns DefaultBaseURL.
func ResolveBaseURL(sources ...Source) string {
	for _, src := range sources {
		value, ok := src.Lookup()
		value = strings.TrimRight(strings.TrimSpace(value), "/")
		if !ok || value == "" {
			logger.Debug("Base URL source empty", zap.String("source", src.Name))
			continue
		}
		logger.Info("Resolved API base URL",
			zap.String("source", src.Name),
			zap.String("base_url", value))
		return value
	}

	logger.Warn("API base URL not configured, using development default",
		zap.String("base_url", DefaultBaseURL))
	return DefaultBaseURL
}
