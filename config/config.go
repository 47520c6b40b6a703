package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DefaultBaseURL is the development backend address used when nothing else is configured
const DefaultBaseURL = "http://localhost:3000"

// BuildBaseURL is injected at build time:
//
//	go build -ldflags "-X github.com/getmentor/authflow/config.BuildBaseURL=https://api.example.com"
var BuildBaseURL string

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	API           APIConfig
	App           AppConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Flow          FlowConfig
	DevServer     DevServerConfig
}

type APIConfig struct {
	BaseURL        string
	Timeout        time.Duration
	PreflightProbe bool
	ProbeCooldown  time.Duration
}

type AppConfig struct {
	Env     string
	Version string
}

type LoggingConfig struct {
	Level      string
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

type ObservabilityConfig struct {
	ExporterEndpoint string
	ServiceName      string
	ServiceNamespace string
	ServiceVersion   string
}

type FlowConfig struct {
	SplashDelay  time.Duration
	SuccessDelay time.Duration
	ContactPhone string
	StartScreen  string
}

type DevServerConfig struct {
	Port             string
	AllowedOrigins   []string
	JWTSecret        string
	JWTIssuer        string
	AccessTokenTTL   time.Duration
	RefreshTokenTTL  time.Duration
	OTPTTL           time.Duration
	Users            map[string]string // email -> plaintext password, hashed at startup
	RequestsPerSec   float64
	RequestBurstSize int
}

// Load reads configuration from environment variables and an optional .env file
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("API_TIMEOUT_SECONDS", 30)
	v.SetDefault("API_PREFLIGHT_PROBE", false)
	v.SetDefault("API_PROBE_COOLDOWN_MS", 10000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 10)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE_DAYS", 7)
	v.SetDefault("O11Y_SERVICE_NAME", "authflow")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "authflow")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("FLOW_SPLASH_DELAY_MS", 2000)
	v.SetDefault("FLOW_SUCCESS_DELAY_MS", 1000)
	v.SetDefault("FLOW_CONTACT_PHONE", "")
	v.SetDefault("FLOW_START_SCREEN", "")

	// Dev server defaults
	v.SetDefault("DEV_SERVER_PORT", "3000")
	v.SetDefault("DEV_ALLOWED_CORS_ORIGINS", "http://localhost:8081,http://localhost:19006")
	v.SetDefault("DEV_JWT_ISSUER", "authflow-devserver")
	v.SetDefault("DEV_ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("DEV_REFRESH_TOKEN_TTL_HOURS", 720)
	v.SetDefault("DEV_OTP_TTL_SECONDS", 300)
	v.SetDefault("DEV_USERS", "demo@example.com:password123")
	v.SetDefault("DEV_RATE_LIMIT_RPS", 5)
	v.SetDefault("DEV_RATE_LIMIT_BURST", 10)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	users, err := parseUsers(v.GetString("DEV_USERS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		API: APIConfig{
			BaseURL:        ResolveBaseURL(DefaultSources(v)...),
			Timeout:        time.Duration(v.GetInt("API_TIMEOUT_SECONDS")) * time.Second,
			PreflightProbe: v.GetBool("API_PREFLIGHT_PROBE"),
			ProbeCooldown:  time.Duration(v.GetInt("API_PROBE_COOLDOWN_MS")) * time.Millisecond,
		},
		App: AppConfig{
			Env:     v.GetString("APP_ENV"),
			Version: v.GetString("APP_VERSION"),
		},
		Logging: LoggingConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Dir:        v.GetString("LOG_DIR"),
			MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint: v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:      v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace: v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:   v.GetString("O11Y_SERVICE_VERSION"),
		},
		Flow: FlowConfig{
			SplashDelay:  time.Duration(v.GetInt("FLOW_SPLASH_DELAY_MS")) * time.Millisecond,
			SuccessDelay: time.Duration(v.GetInt("FLOW_SUCCESS_DELAY_MS")) * time.Millisecond,
			ContactPhone: v.GetString("FLOW_CONTACT_PHONE"),
			StartScreen:  strings.TrimSpace(v.GetString("FLOW_START_SCREEN")),
		},
		DevServer: DevServerConfig{
			Port:             v.GetString("DEV_SERVER_PORT"),
			AllowedOrigins:   splitList(v.GetString("DEV_ALLOWED_CORS_ORIGINS")),
			JWTSecret:        v.GetString("DEV_JWT_SECRET"),
			JWTIssuer:        v.GetString("DEV_JWT_ISSUER"),
			AccessTokenTTL:   time.Duration(v.GetInt("DEV_ACCESS_TOKEN_TTL_MINUTES")) * time.Minute,
			RefreshTokenTTL:  time.Duration(v.GetInt("DEV_REFRESH_TOKEN_TTL_HOURS")) * time.Hour,
			OTPTTL:           time.Duration(v.GetInt("DEV_OTP_TTL_SECONDS")) * time.Second,
			Users:            users,
			RequestsPerSec:   v.GetFloat64("DEV_RATE_LIMIT_RPS"),
			RequestBurstSize: v.GetInt("DEV_RATE_LIMIT_BURST"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL resolved to an empty value")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("API_TIMEOUT_SECONDS must not be negative")
	}
	if c.Flow.SplashDelay < 0 || c.Flow.SuccessDelay < 0 {
		return fmt.Errorf("FLOW_SPLASH_DELAY_MS and FLOW_SUCCESS_DELAY_MS must not be negative")
	}
	return nil
}

// ValidateDevServer checks the settings only the dev server needs
func (c *Config) ValidateDevServer() error {
	if c.DevServer.Port == "" {
		return fmt.Errorf("DEV_SERVER_PORT is required")
	}
	if c.DevServer.JWTSecret == "" {
		return fmt.Errorf("DEV_JWT_SECRET is required")
	}
	if c.DevServer.OTPTTL <= 0 {
		return fmt.Errorf("DEV_OTP_TTL_SECONDS must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parseUsers reads "email:password,email:password" pairs
func parseUsers(raw string) (map[string]string, error) {
	users := make(map[string]string)
	for _, pair := range splitList(raw) {
		email, password, ok := strings.Cut(pair, ":")
		email = strings.ToLower(strings.TrimSpace(email))
		if !ok || email == "" || password == "" {
			return nil, fmt.Errorf("DEV_USERS entry %q must look like email:password", pair)
		}
		users[email] = password
	}
	return users, nil
}
