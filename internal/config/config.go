package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type NicePayConfig struct {
	ClientID  string
	SecretKey string
	BaseURL   string // https://api.nicepay.co.kr (sandbox: https://sandbox-api.nicepay.co.kr)
}

type SMTPConfig struct {
	Host          string
	Port          string
	User          string
	Pass          string
	TLSMode       string // "", "starttls", "tls"
	SkipVerifyTLS bool
	FromAddr      string
	FromName      string
}

type Config struct {
	Env     string // dev|prod
	Addr    string
	BaseURL string // public origin, used for redirect targets
	DBDSN   string

	SessionCookie string
	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	NicePay NicePayConfig
	SMTP    SMTPConfig
}

// Load reads configuration from the environment. main calls godotenv
// beforehand; prod uses real env vars.
func Load() (Config, error) {
	cfg := Config{
		Env:     envOr("APP_ENV", "dev"),
		Addr:    envOr("APP_ADDR", ":8080"),
		BaseURL: envOr("BASE_URL", "http://localhost:8080"),
		DBDSN:   os.Getenv("DB_DSN"),

		SessionCookie: envOr("SESSION_COOKIE", "bc_session"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
		SessionTTL:    envDurationOr("SESSION_TTL", 14*24*time.Hour),

		NicePay: NicePayConfig{
			ClientID:  os.Getenv("NICEPAY_CLIENT_ID"),
			SecretKey: os.Getenv("NICEPAY_SECRET_KEY"),
			BaseURL:   envOr("NICEPAY_API_BASE", "https://sandbox-api.nicepay.co.kr"),
		},
		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			Port:          envOr("SMTP_PORT", "1025"),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			TLSMode:       os.Getenv("SMTP_TLS_MODE"),
			SkipVerifyTLS: envBool("SMTP_SKIP_VERIFY_TLS"),
			FromAddr:      envOr("SMTP_FROM_ADDR", "no-reply@baeumcoop.kr"),
			FromName:      envOr("SMTP_FROM_NAME", "배움협동조합"),
		},
	}
	cfg.SecureCookies = cfg.Env == "prod"

	if cfg.DBDSN == "" {
		return Config{}, fmt.Errorf("DB_DSN is required")
	}
	if cfg.NicePay.ClientID == "" || cfg.NicePay.SecretKey == "" {
		return Config{}, fmt.Errorf("NICEPAY_CLIENT_ID and NICEPAY_SECRET_KEY are required")
	}
	return cfg, nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envBool(k string) bool {
	b, _ := strconv.ParseBool(os.Getenv(k))
	return b
}

func envDurationOr(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
