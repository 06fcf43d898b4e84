package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthModeRequired AuthMode = "required"
	AuthModeOptional AuthMode = "optional"
	AuthModeDisabled AuthMode = "disabled"
)

type StoreBackend string

const (
	StoreMemory   StoreBackend = "memory"
	StorePostgres StoreBackend = "postgres"
)

type Config struct {
	Addr string

	AuthMode AuthMode
	APIKeys  map[string]struct{}

	MaxBodyBytes int64

	// CORS
	CORSAllowedOrigins map[string]struct{} // empty => disabled

	// Interview policy.
	MaxTurns    int
	MinTurns    int
	AcceptScore float64
	RejectScore float64
	TurnTimeout time.Duration

	// Session store.
	Store       StoreBackend
	PostgresDSN string

	// Providers.
	GeminiAPIKey    string
	GeminiModel     string
	ElevenLabsKey   string
	ElevenLabsVoice string

	// Real-time room server (empty URL disables provisioning).
	RoomServerURL    string
	RoomServerWSURL  string
	RoomAPIKey       string
	RoomAPISecret    string
	RoomTokenTTL     time.Duration

	// Report delivery over SMTP (empty host disables delivery).
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	// Live WebSocket mode (/v1/interviews/{id}/live).
	LiveMaxFrameBytes    int64
	LiveWSWriteTimeout   time.Duration
	LiveWSPingInterval   time.Duration
	LiveHandshakeTimeout time.Duration

	// Operational defaults
	ReadHeaderTimeout   time.Duration
	ReadTimeout         time.Duration
	HandlerTimeout      time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 envOr("INTERVIEWD_ADDR", ":8080"),
		AuthMode:             AuthMode(envOr("INTERVIEWD_AUTH_MODE", string(AuthModeRequired))),
		APIKeys:              make(map[string]struct{}),
		MaxBodyBytes:         envInt64Or("INTERVIEWD_MAX_BODY_BYTES", 16<<20), // audio payloads
		CORSAllowedOrigins:   make(map[string]struct{}),
		MaxTurns:             envIntOr("INTERVIEWD_MAX_TURNS", 8),
		MinTurns:             envIntOr("INTERVIEWD_MIN_TURNS", 3),
		AcceptScore:          envFloat64Or("INTERVIEWD_ACCEPT_SCORE", 4.0),
		RejectScore:          envFloat64Or("INTERVIEWD_REJECT_SCORE", 1.5),
		TurnTimeout:          envDurationOr("INTERVIEWD_TURN_TIMEOUT", 30*time.Second),
		Store:                StoreBackend(envOr("INTERVIEWD_STORE", string(StoreMemory))),
		PostgresDSN:          envOr("INTERVIEWD_POSTGRES_DSN", ""),
		GeminiAPIKey:         envOr("INTERVIEWD_GEMINI_API_KEY", ""),
		GeminiModel:          envOr("INTERVIEWD_GEMINI_MODEL", ""),
		ElevenLabsKey:        envOr("INTERVIEWD_ELEVENLABS_API_KEY", ""),
		ElevenLabsVoice:      envOr("INTERVIEWD_ELEVENLABS_VOICE", ""),
		RoomServerURL:        envOr("INTERVIEWD_ROOM_SERVER_URL", ""),
		RoomServerWSURL:      envOr("INTERVIEWD_ROOM_SERVER_WS_URL", ""),
		RoomAPIKey:           envOr("INTERVIEWD_ROOM_API_KEY", ""),
		RoomAPISecret:        envOr("INTERVIEWD_ROOM_API_SECRET", ""),
		RoomTokenTTL:         envDurationOr("INTERVIEWD_ROOM_TOKEN_TTL", time.Hour),
		SMTPHost:             envOr("INTERVIEWD_SMTP_HOST", ""),
		SMTPPort:             envIntOr("INTERVIEWD_SMTP_PORT", 587),
		SMTPUser:             envOr("INTERVIEWD_SMTP_USER", ""),
		SMTPPassword:         envOr("INTERVIEWD_SMTP_PASSWORD", ""),
		LiveMaxFrameBytes:    envInt64Or("INTERVIEWD_LIVE_MAX_FRAME_BYTES", 4<<20),
		LiveWSWriteTimeout:   envDurationOr("INTERVIEWD_LIVE_WS_WRITE_TIMEOUT", 5*time.Second),
		LiveWSPingInterval:   envDurationOr("INTERVIEWD_LIVE_WS_PING_INTERVAL", 20*time.Second),
		LiveHandshakeTimeout: envDurationOr("INTERVIEWD_LIVE_HANDSHAKE_TIMEOUT", 5*time.Second),
		ReadHeaderTimeout:    envDurationOr("INTERVIEWD_READ_HEADER_TIMEOUT", 10*time.Second),
		ReadTimeout:          envDurationOr("INTERVIEWD_READ_TIMEOUT", 60*time.Second),
		HandlerTimeout:       envDurationOr("INTERVIEWD_TOTAL_REQUEST_TIMEOUT", 2*time.Minute),
		ShutdownGracePeriod:  envDurationOr("INTERVIEWD_SHUTDOWN_GRACE_PERIOD", 30*time.Second),
	}

	switch cfg.AuthMode {
	case AuthModeRequired, AuthModeOptional, AuthModeDisabled:
	default:
		return Config{}, fmt.Errorf("INTERVIEWD_AUTH_MODE must be one of required|optional|disabled")
	}

	for _, key := range splitCSV(os.Getenv("INTERVIEWD_API_KEYS")) {
		cfg.APIKeys[key] = struct{}{}
	}

	for _, origin := range splitCSV(os.Getenv("INTERVIEWD_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if cfg.MaxBodyBytes <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_MAX_BODY_BYTES must be > 0")
	}
	if cfg.MaxTurns <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_MAX_TURNS must be > 0")
	}
	if cfg.MinTurns < 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_MIN_TURNS must be >= 0")
	}
	if cfg.MinTurns > cfg.MaxTurns {
		return Config{}, fmt.Errorf("INTERVIEWD_MIN_TURNS must be <= INTERVIEWD_MAX_TURNS")
	}
	if cfg.AcceptScore < cfg.RejectScore {
		return Config{}, fmt.Errorf("INTERVIEWD_ACCEPT_SCORE must be >= INTERVIEWD_REJECT_SCORE")
	}
	if cfg.TurnTimeout < 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_TURN_TIMEOUT must be >= 0")
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(cfg.PostgresDSN) == "" {
			return Config{}, fmt.Errorf("INTERVIEWD_POSTGRES_DSN must be set when INTERVIEWD_STORE=postgres")
		}
	default:
		return Config{}, fmt.Errorf("INTERVIEWD_STORE must be one of memory|postgres")
	}

	if cfg.RoomServerURL != "" {
		if cfg.RoomAPIKey == "" || cfg.RoomAPISecret == "" {
			return Config{}, fmt.Errorf("INTERVIEWD_ROOM_API_KEY and INTERVIEWD_ROOM_API_SECRET must be set when INTERVIEWD_ROOM_SERVER_URL is set")
		}
		if cfg.RoomTokenTTL <= 0 {
			return Config{}, fmt.Errorf("INTERVIEWD_ROOM_TOKEN_TTL must be > 0")
		}
	}

	if cfg.SMTPHost != "" && cfg.SMTPPort <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_SMTP_PORT must be > 0 when INTERVIEWD_SMTP_HOST is set")
	}

	if cfg.LiveMaxFrameBytes <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_MAX_FRAME_BYTES must be > 0")
	}
	if cfg.LiveWSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.LiveWSPingInterval <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_WS_PING_INTERVAL must be > 0")
	}
	if cfg.LiveHandshakeTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_LIVE_HANDSHAKE_TIMEOUT must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ReadTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_READ_TIMEOUT must be > 0")
	}
	if cfg.HandlerTimeout <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_TOTAL_REQUEST_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	if cfg.AuthMode == AuthModeRequired && len(cfg.APIKeys) == 0 {
		return Config{}, fmt.Errorf("INTERVIEWD_API_KEYS must be set when INTERVIEWD_AUTH_MODE=required")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
