package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port               string   `validate:"required"`
	IsProduction       bool
	AppEnv             string   `validate:"oneof=development production test"`
	AppName            string   `validate:"required"`
	AppBaseURL         string   `validate:"required,url"`
	CORSAllowedOrigins []string `validate:"dive,required"`

	DBDriver       string `validate:"oneof=postgres sqlite"`
	DatabaseURL    string `validate:"required_if=DBDriver postgres"`
	SQLitePath     string `validate:"required_if=DBDriver sqlite"`
	EnableDBCheck  bool
	MigrationsPath string

	JWTIssuer string `validate:"required"`

	AccessTokenSecret      string        `validate:"required"`
	AccessTokenExpiry      time.Duration `validate:"required,gt=0"`
	RefreshTokenTTL        time.Duration `validate:"required,gt=0"`
	EmailTokenSecret       string        `validate:"required"`
	EmailTokenExpiry       time.Duration `validate:"required,gt=0"`
	RecoveryTokenSecret    string        `validate:"required"`
	RecoveryTokenExpiry    time.Duration `validate:"required,gt=0"`
	ChangeEmailTokenSecret string        `validate:"required"`
	ChangeEmailTokenExpiry time.Duration `validate:"required,gt=0"`

	MailTemplates MailTemplates
	MailerFrom    string `validate:"required,email"`
	SMTPHost      string
	SMTPPort      int `validate:"required_with=SMTPHost"`
	SMTPUsername  string
	SMTPPassword  string

	BcryptCost   int `validate:"min=4,max=31"`
	OTELEndpoint string
}

// MailTemplates maps each notification purpose to a template identifier.
type MailTemplates struct {
	VerifyEmail   string `validate:"required"`
	ResetPassword string `validate:"required"`
	ChangeEmail   string `validate:"required"`
}

// IsDevelopment reports whether development-only routes may be served.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "test"
}

// ErrDuplicateSecrets is returned when two token purposes share a signing secret.
var ErrDuplicateSecrets = errors.New("token signing secrets must be distinct")

// ErrSMTPRequired is returned when production runs without an SMTP host.
var ErrSMTPRequired = errors.New("SMTP_HOST is required in production")

// LoadConfig loads configuration from environment variables and .env file if present.
// A missing or invalid required setting is returned as an error; callers treat it as fatal.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_BASE_URL", "http://localhost:3000")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("SQLITE_PATH", "auth.db")
	v.SetDefault("ENABLE_DB_CHECK", false)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("JWT_ISSUER", "auth-session-service")
	v.SetDefault("JWT_AT_EXPIRES", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "720h")
	v.SetDefault("JWT_EMAIL_EXPIRES", "72h")
	v.SetDefault("JWT_RECOVERY_EXPIRES", "1h")
	v.SetDefault("JWT_CHANGE_EMAIL_EXPIRES", "24h")
	v.SetDefault("MAIL_TEMPLATE_VERIFY_EMAIL", "verify-email")
	v.SetDefault("MAIL_TEMPLATE_RESET_PASSWORD", "reset-password")
	v.SetDefault("MAIL_TEMPLATE_CHANGE_EMAIL", "change-email")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("BCRYPT_COST", 10)

	v.AutomaticEnv()

	cfg := &Config{
		Port:               v.GetString("PORT"),
		IsProduction:       v.GetBool("IS_PRODUCTION"),
		AppEnv:             strings.ToLower(v.GetString("APP_ENV")),
		AppName:            v.GetString("APP_NAME"),
		AppBaseURL:         strings.TrimRight(v.GetString("APP_BASE_URL"), "/"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),

		DBDriver:       strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseURL:    v.GetString("PGSQL_URL"),
		SQLitePath:     v.GetString("SQLITE_PATH"),
		EnableDBCheck:  v.GetBool("ENABLE_DB_CHECK"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		JWTIssuer: v.GetString("JWT_ISSUER"),

		AccessTokenSecret:      v.GetString("JWT_AT_SECRET"),
		EmailTokenSecret:       v.GetString("JWT_EMAIL_SECRET"),
		RecoveryTokenSecret:    v.GetString("JWT_RECOVERY_SECRET"),
		ChangeEmailTokenSecret: v.GetString("JWT_CHANGE_EMAIL_SECRET"),

		MailTemplates: MailTemplates{
			VerifyEmail:   v.GetString("MAIL_TEMPLATE_VERIFY_EMAIL"),
			ResetPassword: v.GetString("MAIL_TEMPLATE_RESET_PASSWORD"),
			ChangeEmail:   v.GetString("MAIL_TEMPLATE_CHANGE_EMAIL"),
		},
		MailerFrom:   v.GetString("MAILER_FROM"),
		SMTPHost:     v.GetString("SMTP_HOST"),
		SMTPPort:     v.GetInt("SMTP_PORT"),
		SMTPUsername: v.GetString("SMTP_USERNAME"),
		SMTPPassword: v.GetString("SMTP_PASSWORD"),

		BcryptCost:   v.GetInt("BCRYPT_COST"),
		OTELEndpoint: v.GetString("OTEL_ENDPOINT"),
	}

	var err error
	durations := []struct {
		key    string
		target *time.Duration
	}{
		{"JWT_AT_EXPIRES", &cfg.AccessTokenExpiry},
		{"REFRESH_TOKEN_TTL", &cfg.RefreshTokenTTL},
		{"JWT_EMAIL_EXPIRES", &cfg.EmailTokenExpiry},
		{"JWT_RECOVERY_EXPIRES", &cfg.RecoveryTokenExpiry},
		{"JWT_CHANGE_EMAIL_EXPIRES", &cfg.ChangeEmailTokenExpiry},
	}
	for _, d := range durations {
		if *d.target, err = time.ParseDuration(v.GetString(d.key)); err != nil {
			return nil, fmt.Errorf("invalid value for %s: %w", d.key, err)
		}
	}

	if cfg.IsProduction && cfg.AppEnv == "development" {
		log.Println("Warning: IS_PRODUCTION is set while APP_ENV is development.")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and that every purpose has its own secret.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	secrets := map[string]string{}
	for name, secret := range map[string]string{
		"JWT_AT_SECRET":           c.AccessTokenSecret,
		"JWT_EMAIL_SECRET":        c.EmailTokenSecret,
		"JWT_RECOVERY_SECRET":     c.RecoveryTokenSecret,
		"JWT_CHANGE_EMAIL_SECRET": c.ChangeEmailTokenSecret,
	} {
		if other, ok := secrets[secret]; ok {
			return fmt.Errorf("%w: %s and %s", ErrDuplicateSecrets, other, name)
		}
		secrets[secret] = name
	}
	if (c.IsProduction || c.AppEnv == "production") && c.SMTPHost == "" {
		return ErrSMTPRequired
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
