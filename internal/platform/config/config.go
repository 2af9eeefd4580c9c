// Package config loads process configuration from the environment.
package config

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type (
	Config struct {
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

		Server   Server   `envPrefix:"HTTP_"`
		Database Database `envPrefix:"DATABASE_"`
		Redis    RedisConfig
		Kafka    Kafka   `envPrefix:"KAFKA_"`
		Audit    Audit   `envPrefix:"AUDIT_"`
		Ledger   Ledger  `envPrefix:"LEDGER_"`
		Relayer  Relayer `envPrefix:"RELAYER_"`
		Claims   Claims
		Auth     Auth `envPrefix:"ORGANIZER_JWT_"`
	}

	Server struct {
		Addr           string        `env:"ADDR" envDefault:":8080"`
		RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"45s"`
		WriteTimeout   time.Duration `env:"WRITE_TIMEOUT" envDefault:"60s"`
		ShutdownGrace  time.Duration `env:"SHUTDOWN_GRACE" envDefault:"15s"`
	}

	// Database selects PostgreSQL when URL is set; otherwise stores are in memory.
	Database struct {
		URL      string `env:"URL"`
		MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
	}

	// RedisConfig enables the event read-through cache when URL is set.
	RedisConfig struct {
		URL          string        `env:"REDIS_URL"`
		PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
		MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
		DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
		ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
		WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
		EventTTL     time.Duration `env:"EVENT_CACHE_TTL" envDefault:"15m"`
	}

	// Kafka enables the audit sink when Brokers is set.
	Kafka struct {
		Brokers    []string `env:"BROKERS" envSeparator:","`
		AuditTopic string   `env:"AUDIT_TOPIC" envDefault:"presence.audit"`
	}

	Audit struct {
		Buffer int `env:"BUFFER" envDefault:"1024"`
	}

	Ledger struct {
		RPCAddr string `env:"RPC_ADDR" envDefault:"http://localhost:26657"`
	}

	Relayer struct {
		Principal        string        `env:"PRINCIPAL" envDefault:"presence-relayer"`
		Key              string        `env:"KEY"`
		StartSequence    uint64        `env:"START_SEQUENCE" envDefault:"0"`
		QueueSize        int           `env:"QUEUE_SIZE" envDefault:"256"`
		PollInterval     time.Duration `env:"POLL_INTERVAL" envDefault:"250ms"`
		FinalityTimeout  time.Duration `env:"FINALITY_TIMEOUT" envDefault:"2m"`
		BroadcastTimeout time.Duration `env:"BROADCAST_TIMEOUT" envDefault:"10s"`
		BreakerThreshold int           `env:"BREAKER_THRESHOLD" envDefault:"5"`
		BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" envDefault:"15s"`
	}

	Claims struct {
		FinalityWait    time.Duration `env:"CLAIM_FINALITY_WAIT" envDefault:"20s"`
		ReservationTTL  time.Duration `env:"CLAIM_RESERVATION_TTL" envDefault:"10m"`
		RegisterWait    time.Duration `env:"REGISTER_FINALITY_WAIT" envDefault:"30s"`
		MonitorInterval time.Duration `env:"RESERVATION_MONITOR_INTERVAL" envDefault:"1m"`
	}

	// Auth enables organizer bearer tokens on registration when Secret is set.
	Auth struct {
		Secret   string `env:"SECRET"`
		Issuer   string `env:"ISSUER" envDefault:"presence"`
		Audience string `env:"AUDIENCE" envDefault:"presence-organizers"`
	}
)

// Load parses the process environment and validates the result.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. The claim wait must end before the
// relayer gives up on finality, which must end before the reservation expires,
// or a reservation could be reclaimed while its mint is still in flight.
func (c Config) Validate() error {
	var errs []error
	if c.Claims.FinalityWait >= c.Relayer.FinalityTimeout {
		errs = append(errs, errors.New("CLAIM_FINALITY_WAIT must be shorter than RELAYER_FINALITY_TIMEOUT"))
	}
	// A reservation is stamped at request arrival and its mint resolves at
	// most a finality timeout after the request enqueued it.
	if c.Server.RequestTimeout+c.Relayer.FinalityTimeout >= c.Claims.ReservationTTL {
		errs = append(errs, errors.New("HTTP_REQUEST_TIMEOUT plus RELAYER_FINALITY_TIMEOUT must be shorter than CLAIM_RESERVATION_TTL"))
	}
	if c.Server.WriteTimeout <= c.Claims.FinalityWait {
		errs = append(errs, errors.New("HTTP_WRITE_TIMEOUT must exceed CLAIM_FINALITY_WAIT"))
	}
	if strings.TrimSpace(c.Relayer.Key) == "" {
		errs = append(errs, errors.New("RELAYER_KEY is required"))
	}
	if c.Relayer.QueueSize <= 0 {
		errs = append(errs, errors.New("RELAYER_QUEUE_SIZE must be positive"))
	}
	return errors.Join(errs...)
}

// SigningKey decodes RELAYER_KEY from hex or base64.
func (r Relayer) SigningKey() ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(r.Key), "0x")
	if b, err := hex.DecodeString(raw); err == nil {
		return b, nil
	}
	if b, err := base64.StdEncoding.DecodeString(raw); err == nil {
		return b, nil
	}
	return nil, errors.New("RELAYER_KEY must be hex or base64")
}
