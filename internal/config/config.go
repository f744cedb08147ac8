package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Relay modes for outbound events.
const (
	RelayHTTP = "http"
	RelayWS   = "ws"
	RelayAuto = "auto"
	RelayOff  = "off"
)

type LogConfig struct {
	Level   string `env:"LEVEL"      envDefault:"info"`
	Format  string `env:"FORMAT"     envDefault:"legacy"`
	Console bool   `env:"TO_CONSOLE" envDefault:"true"`
	ToFile  bool   `env:"TO_FILE"    envDefault:"false"`
	File    string `env:"FILE"       envDefault:"logs/tafl.log"`
	Caller  bool   `env:"CALLER"     envDefault:"false"`
}

type AppConfig struct {
	RedisURL string `env:"TAFL_REDIS_URL"`

	RelayMode    string        `env:"TAFL_RELAY_MODE"     envDefault:"auto"`
	RelayBaseURL string        `env:"TAFL_RELAY_BASE_URL"`
	RelayWSURL   string        `env:"TAFL_RELAY_WS_URL"`
	RelayDryRun  bool          `env:"TAFL_RELAY_DRY_RUN"  envDefault:"false"`
	RelayTimeout time.Duration `env:"TAFL_RELAY_TIMEOUT"  envDefault:"10s"`
	RelayRetry   int           `env:"TAFL_RELAY_RETRY"    envDefault:"3"`

	XUserID    string `env:"TAFL_X_USER_ID"`
	XUserEmail string `env:"TAFL_X_USER_EMAIL"`
	XSessionID string `env:"TAFL_X_SESSION_ID"`

	DefaultVariant string        `env:"TAFL_DEFAULT_VARIANT" envDefault:"ardri"`
	VariantDir     string        `env:"TAFL_VARIANT_DIR"`
	MaxSessions    int           `env:"TAFL_MAX_SESSIONS"    envDefault:"200"`
	LobbyTTL       time.Duration `env:"TAFL_LOBBY_TTL"       envDefault:"1h"`
	EventBuffer    int           `env:"TAFL_EVENT_BUFFER"    envDefault:"64"`

	AllowedRooms []string `env:"TAFL_ALLOWED_ROOMS" envSeparator:","`

	Log LogConfig `envPrefix:"TAFL_LOG_"`
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) normalize() {
	c.RedisURL = strings.TrimSpace(c.RedisURL)
	c.RelayMode = strings.ToLower(strings.TrimSpace(c.RelayMode))
	c.RelayBaseURL = strings.TrimRight(strings.TrimSpace(c.RelayBaseURL), "/")
	c.RelayWSURL = strings.TrimSpace(c.RelayWSURL)
	c.DefaultVariant = strings.ToLower(strings.TrimSpace(c.DefaultVariant))

	rooms := c.AllowedRooms[:0]
	for _, r := range c.AllowedRooms {
		if s := strings.TrimSpace(r); s != "" {
			rooms = append(rooms, s)
		}
	}
	c.AllowedRooms = rooms
}

// Validate checks the combinations env parsing cannot express.
func (c *AppConfig) Validate() error {
	switch c.RelayMode {
	case RelayHTTP:
		if c.RelayBaseURL == "" && !c.RelayDryRun {
			return errors.New("TAFL_RELAY_BASE_URL is required for relay mode http")
		}
	case RelayWS:
		if c.RelayWSURL == "" && !c.RelayDryRun {
			return errors.New("TAFL_RELAY_WS_URL is required for relay mode ws")
		}
	case RelayAuto:
		if c.RelayBaseURL == "" && c.RelayWSURL == "" && !c.RelayDryRun {
			return errors.New("relay mode auto needs TAFL_RELAY_BASE_URL or TAFL_RELAY_WS_URL")
		}
	case RelayOff:
	default:
		return fmt.Errorf("unknown TAFL_RELAY_MODE %q", c.RelayMode)
	}
	if c.MaxSessions <= 0 {
		return errors.New("TAFL_MAX_SESSIONS must be positive")
	}
	if c.EventBuffer <= 0 {
		return errors.New("TAFL_EVENT_BUFFER must be positive")
	}
	return nil
}

// RoomAllowed reports whether room may open tables. An empty allow list admits every room.
func (c *AppConfig) RoomAllowed(room string) bool {
	if len(c.AllowedRooms) == 0 {
		return true
	}
	for _, r := range c.AllowedRooms {
		if r == room {
			return true
		}
	}
	return false
}

// RelayHeaders returns the identity headers sent with every relay request.
func (c *AppConfig) RelayHeaders() map[string]string {
	return map[string]string{
		"X-User-Id":    c.XUserID,
		"X-User-Email": c.XUserEmail,
		"X-Session-Id": c.XSessionID,
	}
}
