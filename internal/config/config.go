package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	DBPath         string
	LogLevel       string
	LogFormat      string
	JWTSecret      string
	TokenTTL       time.Duration
	CORSOrigins    []string
	AllowRevote    bool
	VAPIDPublic    string
	VAPIDPrivate   string
	PushSubscriber string

	ReminderInterval time.Duration
	ReminderAfter    time.Duration
}

// PushEnabled reports whether both VAPID keys are configured.
func (c Config) PushEnabled() bool {
	return c.VAPIDPublic != "" && c.VAPIDPrivate != ""
}

// Load reads configuration from the environment after applying any .env
// file found in the working directory. Variables already set win over
// the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:           get("CHOREUS_PORT", "8080"),
		DBPath:         get("CHOREUS_DB_PATH", "choreus.db"),
		LogLevel:       get("CHOREUS_LOG_LEVEL", "info"),
		LogFormat:      get("CHOREUS_LOG_FORMAT", "text"),
		JWTSecret:      get("CHOREUS_JWT_SECRET", ""),
		VAPIDPublic:    get("CHOREUS_VAPID_PUBLIC_KEY", ""),
		VAPIDPrivate:   get("CHOREUS_VAPID_PRIVATE_KEY", ""),
		PushSubscriber: get("CHOREUS_PUSH_SUBSCRIBER", "mailto:noreply@choreus.app"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("CHOREUS_JWT_SECRET is required")
	}

	var err error
	if cfg.TokenTTL, err = positiveDuration(get, "CHOREUS_TOKEN_TTL", "168h"); err != nil {
		return Config{}, err
	}

	if cfg.ReminderInterval, err = positiveDuration(get, "CHOREUS_REMINDER_INTERVAL", "1h"); err != nil {
		return Config{}, err
	}
	if cfg.ReminderAfter, err = positiveDuration(get, "CHOREUS_REMINDER_AFTER", "24h"); err != nil {
		return Config{}, err
	}

	revote, err := strconv.ParseBool(get("CHOREUS_ALLOW_REVOTE", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse CHOREUS_ALLOW_REVOTE: %w", err)
	}
	cfg.AllowRevote = revote

	for _, origin := range strings.Split(get("CHOREUS_CORS_ORIGINS", "http://localhost:5173"), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
		}
	}

	return cfg, nil
}

func positiveDuration(get func(string, string) string, key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(get(key, def))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", key)
	}
	return d, nil
}
