package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Server holds the bridge's own listen settings.
type Server struct {
	Port string
}

// Upstream holds the connection settings for the Finance Assistant backend.
// Immutable after load; the coordinator owns it for its lifetime.
type Upstream struct {
	Host       string
	Port       int
	TLS        bool
	APIKey     string
	TimeoutSec int
}

// Poll holds the refresh loop settings.
type Poll struct {
	IntervalSec      int
	FailureThreshold int
}

// DB holds the local SQLite settings.
type DB struct {
	Path string
}

// Auth holds token settings for the bridge's own API.
type Auth struct {
	SigningKey  string
	TokenTTLMin int
}

// Log holds logging settings.
type Log struct {
	Level string
}

// Config is the full runtime configuration.
type Config struct {
	Server   Server
	Upstream Upstream
	Poll     Poll
	DB       DB
	Auth     Auth
	Log      Log
}

// Timeout returns the per-request upstream timeout.
func (u Upstream) Timeout() time.Duration {
	return time.Duration(u.TimeoutSec) * time.Second
}

// Interval returns the poll interval.
func (p Poll) Interval() time.Duration {
	return time.Duration(p.IntervalSec) * time.Second
}

// TokenTTL returns the JWT lifetime.
func (a Auth) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMin) * time.Minute
}

const envPrefix = "FINBRIDGE"

// Load reads configs/config.yml from the given directory, applies
// FINBRIDGE_* environment overrides, and validates the result. A missing
// config file is not an error; env and defaults then carry the config.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8093")
	v.SetDefault("upstream.port", 8080)
	v.SetDefault("upstream.tls", false)
	v.SetDefault("upstream.timeout_sec", 10)
	v.SetDefault("poll.interval_sec", 300)
	v.SetDefault("poll.failure_threshold", 3)
	v.SetDefault("db.path", "finbridge.db")
	v.SetDefault("auth.token_ttl_min", 60)
	v.SetDefault("log.level", "info")
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: Server{
			Port: v.GetString("server.port"),
		},
		Upstream: Upstream{
			Host:       v.GetString("upstream.host"),
			Port:       v.GetInt("upstream.port"),
			TLS:        v.GetBool("upstream.tls"),
			APIKey:     v.GetString("upstream.api_key"),
			TimeoutSec: v.GetInt("upstream.timeout_sec"),
		},
		Poll: Poll{
			IntervalSec:      v.GetInt("poll.interval_sec"),
			FailureThreshold: v.GetInt("poll.failure_threshold"),
		},
		DB: DB{
			Path: v.GetString("db.path"),
		},
		Auth: Auth{
			SigningKey:  v.GetString("auth.signing_key"),
			TokenTTLMin: v.GetInt("auth.token_ttl_min"),
		},
		Log: Log{
			Level: v.GetString("log.level"),
		},
	}
}
