package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is assembled once at process start and passed to constructors.
// Nothing below cmd/ reads the environment directly.
type Config struct {
	HTTPAddr   string `mapstructure:"HTTP_ADDR" validate:"required"`
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`
	LogLevel   string `mapstructure:"LOG_LEVEL" validate:"oneof=trace debug info warn error"`
	LogFormat  string `mapstructure:"LOG_FORMAT" validate:"oneof=json console"`

	// MemoryStore swaps MySQL for the in-process store (local development).
	MemoryStore bool   `mapstructure:"MEMORY_STORE"`
	DBDSN       string `mapstructure:"DB_DSN_PRIMARY" validate:"required_unless=MemoryStore true"`

	JWTSecret string `mapstructure:"JWT_SECRET" validate:"required,min=16"`

	PaymentBaseURL       string        `mapstructure:"PAYMENT_BASE_URL" validate:"required,url"`
	PaymentAPIKey        string        `mapstructure:"PAYMENT_API_KEY" validate:"required"`
	PaymentWebhookSecret string        `mapstructure:"PAYMENT_WEBHOOK_SECRET" validate:"required"`
	PaymentTimeout       time.Duration `mapstructure:"PAYMENT_TIMEOUT" validate:"gt=0,lte=1m"`
	WebhookTolerance     time.Duration `mapstructure:"WEBHOOK_TOLERANCE" validate:"gt=0"`

	DefaultCountry   string        `mapstructure:"DEFAULT_COUNTRY" validate:"required,len=2"`
	OversellPolicy   string        `mapstructure:"OVERSELL_POLICY" validate:"oneof=tolerate reject"`
	AccessTokenBytes int           `mapstructure:"ACCESS_TOKEN_BYTES" validate:"gte=16,lte=64"`
	PendingTTL       time.Duration `mapstructure:"PENDING_TTL" validate:"gt=0"`

	RedisAddr    string   `mapstructure:"REDIS_ADDR"`
	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`

	AdminEmail   string `mapstructure:"ADMIN_EMAIL" validate:"required,email"`
	MailFrom     string `mapstructure:"MAIL_FROM" validate:"omitempty,email"`
	MailFromName string `mapstructure:"MAIL_FROM_NAME"`
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUser     string `mapstructure:"SMTP_USER"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
}

var defaults = map[string]any{
	"HTTP_ADDR":          ":8080",
	"CORS_ORIGIN":        "http://localhost:5173",
	"LOG_LEVEL":          "info",
	"LOG_FORMAT":         "json",
	"MEMORY_STORE":       false,
	"PAYMENT_BASE_URL":   "https://sandbox-api.paddle.com",
	"PAYMENT_TIMEOUT":    "15s",
	"WEBHOOK_TOLERANCE":  "5m",
	"DEFAULT_COUNTRY":    "US",
	"OVERSELL_POLICY":    "tolerate",
	"ACCESS_TOKEN_BYTES": 32,
	"PENDING_TTL":        "24h",
	"MAIL_FROM_NAME":     "Recipe Shop",
	"SMTP_PORT":          587,
}

// Load reads .env (if present) and the process environment into a validated Config.
func Load(envFiles ...string) (*Config, error) {
	// A missing .env is fine: the environment may already be populated.
	_ = godotenv.Load(envFiles...)
	return FromViper(viper.New())
}

// FromViper unmarshals and validates a Config from v, which is bound to the environment here.
func FromViper(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()
	for key, def := range defaults {
		v.SetDefault(key, def)
	}
	for _, key := range keys() {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.KafkaBrokers = splitCSV(v.GetString("KAFKA_BROKERS"))
	cfg.DefaultCountry = strings.ToUpper(cfg.DefaultCountry)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func keys() []string {
	return []string{
		"HTTP_ADDR", "CORS_ORIGIN", "LOG_LEVEL", "LOG_FORMAT",
		"MEMORY_STORE", "DB_DSN_PRIMARY", "JWT_SECRET",
		"PAYMENT_BASE_URL", "PAYMENT_API_KEY", "PAYMENT_WEBHOOK_SECRET", "PAYMENT_TIMEOUT", "WEBHOOK_TOLERANCE",
		"DEFAULT_COUNTRY", "OVERSELL_POLICY", "ACCESS_TOKEN_BYTES", "PENDING_TTL",
		"REDIS_ADDR", "KAFKA_BROKERS",
		"ADMIN_EMAIL", "MAIL_FROM", "MAIL_FROM_NAME", "SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASSWORD",
	}
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// DatabaseDSN reads only the primary DSN, for maintenance commands that
// do not need the full service configuration.
func DatabaseDSN(envFiles ...string) (string, error) {
	_ = godotenv.Load(envFiles...)
	v := viper.New()
	if err := v.BindEnv("DB_DSN_PRIMARY"); err != nil {
		return "", fmt.Errorf("bind DB_DSN_PRIMARY: %w", err)
	}
	dsn := v.GetString("DB_DSN_PRIMARY")
	if dsn == "" {
		return "", errors.New("DB_DSN_PRIMARY is not set")
	}
	return dsn, nil
}

// SMTPEnabled reports whether real mail delivery is configured.
func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" && c.MailFrom != "" }
