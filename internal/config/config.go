package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config contains all runtime settings for the voice agent service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	AllowAnyOrigin bool

	OpenAIAPIKey      string
	OpenAIRealtimeURL string
	OpenAIChatURL     string
	RealtimeModel     string
	RealtimeVoice     string
	ChatModel         string

	// UpstreamHandshakeTimeout bounds dialing and configuring the realtime
	// connection. The relay loops themselves are unbounded by design.
	UpstreamHandshakeTimeout time.Duration

	CalComAPIKey      string
	CalComEventTypeID string
	CalComBaseURL     string

	ResendAPIKey  string
	ResendBaseURL string
	EmailFrom     string

	FrontendURL string

	// CollaboratorTimeout bounds every HTTP call to the calendar and email
	// collaborators so a hung dependency cannot pin a session open.
	CollaboratorTimeout time.Duration

	DatabaseURL string
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		BindAddr:                 envOrDefault("APP_BIND_ADDR", ":8000"),
		MetricsNamespace:         envOrDefault("APP_METRICS_NAMESPACE", "voiceagent"),
		AllowAnyOrigin:           false,
		OpenAIAPIKey:             stringsTrimSpace("OPENAI_API_KEY"),
		OpenAIRealtimeURL:        envOrDefault("OPENAI_REALTIME_URL", "wss://api.openai.com/v1/realtime"),
		OpenAIChatURL:            envOrDefault("OPENAI_CHAT_URL", "https://api.openai.com/v1/chat/completions"),
		RealtimeModel:            envOrDefault("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview"),
		RealtimeVoice:            envOrDefault("OPENAI_REALTIME_VOICE", "shimmer"),
		ChatModel:                envOrDefault("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		CalComAPIKey:             stringsTrimSpace("CALCOM_API_KEY"),
		CalComEventTypeID:        stringsTrimSpace("CALCOM_EVENT_TYPE_ID"),
		CalComBaseURL:            envOrDefault("CALCOM_BASE_URL", "https://api.cal.com/v1"),
		ResendAPIKey:             stringsTrimSpace("RESEND_API_KEY"),
		ResendBaseURL:            envOrDefault("RESEND_BASE_URL", "https://api.resend.com"),
		EmailFrom:                stringsTrimSpace("EMAIL_FROM"),
		FrontendURL:              stringsTrimSpace("FRONTEND_URL"),
		DatabaseURL:              stringsTrimSpace("DATABASE_URL"),
		ShutdownTimeout:          15 * time.Second,
		UpstreamHandshakeTimeout: 15 * time.Second,
		CollaboratorTimeout:      15 * time.Second,
	}
	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.UpstreamHandshakeTimeout, err = durationFromEnv("UPSTREAM_HANDSHAKE_TIMEOUT", cfg.UpstreamHandshakeTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.CollaboratorTimeout, err = durationFromEnv("COLLABORATOR_HTTP_TIMEOUT", cfg.CollaboratorTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", cfg.AllowAnyOrigin)
	if err != nil {
		return Config{}, err
	}

	if cfg.UpstreamHandshakeTimeout < time.Second {
		return Config{}, fmt.Errorf("UPSTREAM_HANDSHAKE_TIMEOUT must be at least 1s")
	}
	if cfg.CollaboratorTimeout < time.Second {
		return Config{}, fmt.Errorf("COLLABORATOR_HTTP_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func stringsTrimSpace(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := stringsTrimSpace(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(stringsTrimSpace(key))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
