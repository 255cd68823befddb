package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pion/webrtc/v4"
)

type Config struct {
	Debug      bool   `env:"DEBUG" envDefault:"false"`
	Port       string `env:"PORT" envDefault:"3000"`
	MetricPort string `env:"METRIC_PORT" envDefault:"9090"`
	Domain     string `env:"DOMAIN" envDefault:"http://localhost:3000"`
	StaticDir  string `env:"STATIC_DIR" envDefault:"web"`

	// AllowedOrigins feeds the guard's best-effort origin check.
	// Domain is always part of the allow-list.
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	Guard  GuardConfig
	Rooms  RoomsConfig
	Coturn CoturnConfig

	StunServer    webrtc.ICEServer
	TurnUDPServer webrtc.ICEServer
	TurnTCPServer webrtc.ICEServer
}

type GuardConfig struct {
	RateWindow    time.Duration `env:"GUARD_RATE_WINDOW" envDefault:"60s"`
	RateCeiling   int           `env:"GUARD_RATE_CEILING" envDefault:"3"`
	BlockDuration time.Duration `env:"GUARD_BLOCK_DURATION" envDefault:"1h"`
	TokenLifetime time.Duration `env:"GUARD_TOKEN_LIFETIME" envDefault:"5m"`
	TokenMinAge   time.Duration `env:"GUARD_TOKEN_MIN_AGE" envDefault:"1s"`
}

type RoomsConfig struct {
	MaxRooms         int           `env:"ROOM_MAX" envDefault:"100"`
	CreationsPerHour int           `env:"ROOM_CREATIONS_PER_HOUR" envDefault:"120"`
	EmptyTTL         time.Duration `env:"ROOM_EMPTY_TTL" envDefault:"10m"`
	SweepInterval    time.Duration `env:"ROOM_SWEEP_INTERVAL" envDefault:"1m"`
	ChatLogMax       int           `env:"ROOM_CHAT_LOG_MAX" envDefault:"100"`
	ChatLogTrimTo    int           `env:"ROOM_CHAT_LOG_TRIM_TO" envDefault:"50"`
	JoinHistory      int           `env:"ROOM_JOIN_HISTORY" envDefault:"50"`
}

type CoturnConfig struct {
	Host string `env:"COTURN_HOST"`

	// Secret is the coturn static-auth-secret used to mint short-lived
	// TURN REST credentials for clients.
	Secret string `env:"COTURN_SECRET"`
}

func New() (*Config, error) {
	c, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	c.AllowedOrigins = append(c.AllowedOrigins, c.Domain)

	c.StunServer = webrtc.ICEServer{
		URLs: []string{"stun:stun.l.google.com:19302"},
	}

	if c.Coturn.Host != "" {
		c.TurnUDPServer = webrtc.ICEServer{
			URLs: []string{fmt.Sprintf("turn:%s?transport=udp", c.Coturn.Host)},
		}
		c.TurnTCPServer = webrtc.ICEServer{
			URLs: []string{fmt.Sprintf("turn:%s?transport=tcp", c.Coturn.Host)},
		}
	}

	return &c, nil
}
