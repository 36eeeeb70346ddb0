package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port               string
	DatabaseURL        string
	PublicBaseURL      string
	RateLimitPerMinute int
	RateLimitBurst     int
	AnalyticsProvider  string
	AnalyticsWebhook   string
	AnalyticsToken     string
	EmailProvider      string
	EmailWebhook       string
	EmailToken         string
}

func Load() Config {
	port := os.Getenv("AUTH_PORT")
	if port == "" {
		port = "8080"
	}
	baseURL := os.Getenv("AUTH_PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	return Config{
		Port:               port,
		DatabaseURL:        os.Getenv("DB_DSN"),
		PublicBaseURL:      baseURL,
		RateLimitPerMinute: readInt("AUTH_RATE_LIMIT_PER_MIN", 120),
		RateLimitBurst:     readInt("AUTH_RATE_LIMIT_BURST", 30),
		AnalyticsProvider:  os.Getenv("AUTH_ANALYTICS_PROVIDER"),
		AnalyticsWebhook:   os.Getenv("AUTH_ANALYTICS_WEBHOOK_URL"),
		AnalyticsToken:     os.Getenv("AUTH_ANALYTICS_WEBHOOK_TOKEN"),
		EmailProvider:      os.Getenv("AUTH_EMAIL_PROVIDER"),
		EmailWebhook:       os.Getenv("AUTH_EMAIL_WEBHOOK_URL"),
		EmailToken:         os.Getenv("AUTH_EMAIL_WEBHOOK_TOKEN"),
	}
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
