package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const (
	ServiceName = "portfolio-api"

	defaultPort        = "8000"
	defaultDatabaseURL = "sqlite://portfolio.db"
	defaultSMTPPort    = 587
)

type Config struct {
	Addr           string
	DatabaseURL    string
	AllowedOrigins []string
	AdminAPIKey    string
	RedisURL       string
	TrustedProxies []string

	RateLimit  int
	RateWindow time.Duration

	SMTP              SMTP
	NotifyTo          string
	NotifyTimeout     time.Duration
	DiscordWebhookURL string

	EnableSSL bool
	SSLCert   string
	SSLKey    string

	LogLevel  string
	LogFormat string
}

// SMTP describes the outbound mail relay. UseTLS selects STARTTLS on a plain
// connection; when false the connection is encrypted from the start.
type SMTP struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	UseTLS   bool
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logrus.Warnf("could not read .env: %v", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	addr, err := listenAddr(getenv("PORT", defaultPort))
	if err != nil {
		return Config{}, err
	}

	rate, err := strconv.Atoi(getenv("RATE_LIMIT_REQUESTS", "6"))
	if err != nil || rate < 1 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_REQUESTS %q", os.Getenv("RATE_LIMIT_REQUESTS"))
	}
	window, err := time.ParseDuration(getenv("RATE_LIMIT_WINDOW", "1m"))
	if err != nil || window <= 0 {
		return Config{}, fmt.Errorf("invalid RATE_LIMIT_WINDOW %q", os.Getenv("RATE_LIMIT_WINDOW"))
	}

	smtpPort, err := strconv.Atoi(getenv("SMTP_PORT", strconv.Itoa(defaultSMTPPort)))
	if err != nil || smtpPort < 1 || smtpPort > 65535 {
		return Config{}, fmt.Errorf("invalid SMTP_PORT %q", os.Getenv("SMTP_PORT"))
	}
	notifyTimeout, err := time.ParseDuration(getenv("NOTIFY_TIMEOUT", "20s"))
	if err != nil || notifyTimeout <= 0 {
		return Config{}, fmt.Errorf("invalid NOTIFY_TIMEOUT %q", os.Getenv("NOTIFY_TIMEOUT"))
	}

	smtpUser := getenv("SMTP_USER", "")
	cfg := Config{
		Addr:           addr,
		DatabaseURL:    getenv("DATABASE_URL", defaultDatabaseURL),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		AdminAPIKey:    getenv("ADMIN_API_KEY", ""),
		RedisURL:       getenv("REDIS_URL", ""),
		TrustedProxies: splitList(os.Getenv("TRUSTED_PROXIES")),
		RateLimit:      rate,
		RateWindow:     window,
		SMTP: SMTP{
			Host:     getenv("SMTP_HOST", ""),
			Port:     smtpPort,
			User:     smtpUser,
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("SMTP_FROM", smtpUser),
			UseTLS:   parseBool(getenv("SMTP_USE_TLS", "true")),
		},
		NotifyTo:          getenv("NOTIFY_TO", ""),
		NotifyTimeout:     notifyTimeout,
		DiscordWebhookURL: getenv("DISCORD_WEBHOOK_URL", ""),
		EnableSSL:         parseBool(getenv("ENABLE_SSL", "false")),
		SSLCert:           getenv("SSL_CERT", ""),
		SSLKey:            getenv("SSL_KEY", ""),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
	}
	return cfg, nil
}

// TLSConfigured reports whether HTTPS serving was requested and has key material.
func (c Config) TLSConfigured() bool {
	return c.EnableSSL && c.SSLCert != "" && c.SSLKey != ""
}

func listenAddr(port string) (string, error) {
	if strings.Contains(port, ":") {
		return port, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}
	return ":" + port, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	}
	return false
}
