package config

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
)

type Config struct {
	Env         string `yaml:"env"          env:"ENV"          validate:"required,oneof=local staging production"`
	Port        string `yaml:"port"         env:"PORT"         validate:"required"`
	MetricsPort string `yaml:"metrics_port" env:"METRICS_PORT" validate:"required"`
	LogLevel    string `yaml:"log_level"    env:"LOG_LEVEL"    validate:"oneof=debug info warn error"`

	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" validate:"required"`

	App          AppConfig          `yaml:"app"          envPrefix:"APP_"`
	Email        EmailConfig        `yaml:"email"        envPrefix:"EMAIL_"`
	AI           AIConfig           `yaml:"ai"           envPrefix:"AI_"`
	Security     SecurityConfig     `yaml:"security"     envPrefix:"SECURITY_"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"   envPrefix:"RATE_LIMIT_"`
	Booking      BookingConfig      `yaml:"booking"      envPrefix:"BOOKING_"`
	Notification NotificationConfig `yaml:"notification" envPrefix:"NOTIFICATION_"`
	Cleanup      CleanupConfig      `yaml:"cleanup"      envPrefix:"CLEANUP_"`
}

type AppConfig struct {
	Name       string `yaml:"name"        env:"NAME"`
	BaseURL    string `yaml:"base_url"    env:"BASE_URL"    validate:"required,url"`
	AdminEmail string `yaml:"admin_email" env:"ADMIN_EMAIL" validate:"required,email"`
	AdminName  string `yaml:"admin_name"  env:"ADMIN_NAME"`
}

type EmailConfig struct {
	Enabled      bool   `yaml:"enabled"        env:"ENABLED"`
	Provider     string `yaml:"provider"       env:"PROVIDER" validate:"oneof=log smtp resend"`
	FromAddress  string `yaml:"from_address"   env:"FROM_ADDRESS" validate:"omitempty,email"`
	FromName     string `yaml:"from_name"      env:"FROM_NAME"`
	ResendAPIKey string `yaml:"resend_api_key" env:"RESEND_API_KEY" validate:"required_if=Provider resend"`
	SMTPHost     string `yaml:"smtp_host"      env:"SMTP_HOST" validate:"required_if=Provider smtp"`
	SMTPPort     int    `yaml:"smtp_port"      env:"SMTP_PORT"`
	SMTPUsername string `yaml:"smtp_username"  env:"SMTP_USERNAME"`
	SMTPPassword string `yaml:"smtp_password"  env:"SMTP_PASSWORD"`
}

type AIConfig struct {
	Enabled     bool    `yaml:"enabled"     env:"ENABLED"`
	Model       string  `yaml:"model"       env:"MODEL"`
	OllamaHost  string  `yaml:"ollama_host" env:"OLLAMA_HOST" validate:"omitempty,url"`
	MaxTokens   int     `yaml:"max_tokens"  env:"MAX_TOKENS"  validate:"min=1,max=8192"`
	Temperature float64 `yaml:"temperature" env:"TEMPERATURE" validate:"min=0,max=2"`
}

type SecurityConfig struct {
	AuthTokenDays    int `yaml:"auth_token_days"     env:"AUTH_TOKEN_DAYS"     validate:"min=1,max=365"`
	MagicLinkMinutes int `yaml:"magic_link_minutes"  env:"MAGIC_LINK_MINUTES"  validate:"min=1,max=120"`
	MaxTokensPerUser int `yaml:"max_tokens_per_user" env:"MAX_TOKENS_PER_USER" validate:"min=1,max=100"`
}

type RateLimitConfig struct {
	MaxBookingsPerUserPerDay int `yaml:"max_bookings_per_user_per_day" env:"MAX_BOOKINGS_PER_DAY"     validate:"min=1"`
	MaxAIRequestsPer5Min     int `yaml:"max_ai_requests_per_5min"      env:"MAX_AI_REQUESTS_PER_5MIN" validate:"min=1"`
}

type BookingConfig struct {
	MaxDurationDays         int `yaml:"max_duration_days"         env:"MAX_DURATION_DAYS"         validate:"min=1"`
	MaxDescriptionLength    int `yaml:"max_description_length"    env:"MAX_DESCRIPTION_LENGTH"    validate:"min=1"`
	ReminderHours           int `yaml:"reminder_hours"            env:"REMINDER_HOURS"            validate:"min=1"`
	CalibrationReminderDays int `yaml:"calibration_reminder_days" env:"CALIBRATION_REMINDER_DAYS" validate:"min=1"`
	ShortNoticeDays         int `yaml:"short_notice_days"         env:"SHORT_NOTICE_DAYS"         validate:"min=0"`
}

type NotificationConfig struct {
	WorkingHoursStart   string `yaml:"working_hours_start"   env:"WORKING_HOURS_START" validate:"datetime=15:04"`
	WorkingHoursEnd     string `yaml:"working_hours_end"     env:"WORKING_HOURS_END"   validate:"datetime=15:04"`
	EnforceWorkingHours bool   `yaml:"enforce_working_hours" env:"ENFORCE_WORKING_HOURS"`
}

type CleanupConfig struct {
	AuthTokenRetentionDays       int `yaml:"auth_token_retention_days"       env:"AUTH_TOKEN_RETENTION_DAYS"       validate:"min=1"`
	MagicLinkRetentionDays       int `yaml:"magic_link_retention_days"       env:"MAGIC_LINK_RETENTION_DAYS"       validate:"min=1"`
	AIQueryLogRetentionDays      int `yaml:"ai_query_log_retention_days"     env:"AI_QUERY_LOG_RETENTION_DAYS"     validate:"min=1"`
	NotificationLogRetentionDays int `yaml:"notification_log_retention_days" env:"NOTIFICATION_LOG_RETENTION_DAYS" validate:"min=1"`
}

// Default returns the baseline configuration. Load layers a YAML file
// (CONFIG_PATH) and then environment variables over it, in that order.
func Default() *Config {
	return &Config{
		Env:         "local",
		Port:        "8080",
		MetricsPort: "9090",
		LogLevel:    "info",
		App: AppConfig{
			Name:       "RFBooking",
			BaseURL:    "http://localhost:8080",
			AdminEmail: "admin@example.com",
			AdminName:  "Administrator",
		},
		Email: EmailConfig{
			Enabled:     true,
			Provider:    "log",
			FromAddress: "noreply@example.com",
			FromName:    "RFBooking System",
			SMTPPort:    587,
		},
		AI: AIConfig{
			Enabled:     true,
			Model:       "llama3.1:8b",
			OllamaHost:  "http://localhost:11434",
			MaxTokens:   800,
			Temperature: 0.3,
		},
		Security: SecurityConfig{
			AuthTokenDays:    30,
			MagicLinkMinutes: 15,
			MaxTokensPerUser: 10,
		},
		RateLimit: RateLimitConfig{
			MaxBookingsPerUserPerDay: 20,
			MaxAIRequestsPer5Min:     10,
		},
		Booking: BookingConfig{
			MaxDurationDays:         30,
			MaxDescriptionLength:    10240,
			ReminderHours:           24,
			CalibrationReminderDays: 7,
			ShortNoticeDays:         8,
		},
		Notification: NotificationConfig{
			WorkingHoursStart:   "09:00",
			WorkingHoursEnd:     "17:00",
			EnforceWorkingHours: true,
		},
		Cleanup: CleanupConfig{
			AuthTokenRetentionDays:       7,
			MagicLinkRetentionDays:       7,
			AIQueryLogRetentionDays:      7,
			NotificationLogRetentionDays: 30,
		},
	}
}

func Load() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
