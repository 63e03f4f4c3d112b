package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all server configuration
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Session SessionConfig `toml:"session"`
	Board   BoardConfig   `toml:"board"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Redis   RedisConfig   `toml:"redis"`
}

type ServerConfig struct {
	Port            int      `toml:"port"`
	AllowedOrigins  []string `toml:"allowed_origins"`
	KeepAlivePeriod Duration `toml:"keepalive_period"`
}

type SessionConfig struct {
	MaxSessions   int      `toml:"max_sessions"`
	Timeout       Duration `toml:"timeout"`
	MaxBufferSize int      `toml:"max_buffer_size"` // audio buffer bytes per session
}

type BoardConfig struct {
	RevealInterval Duration `toml:"reveal_interval"`
	ViewportHeight float64  `toml:"viewport_height"`
}

type GeminiConfig struct {
	APIKey      string `toml:"api_key"`
	Model       string `toml:"model"`
	Voice       string `toml:"voice"`
	EnableAudio bool   `toml:"enable_audio"`
	Greeting    string `toml:"greeting"` // agent's opening line, spoken on connect
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
}

// Duration lets TOML carry values like "30s" or "15m".
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file or env overrides
// are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"*"},
			KeepAlivePeriod: Duration(30 * time.Second),
		},
		Session: SessionConfig{
			MaxSessions:   100,
			Timeout:       Duration(30 * time.Minute),
			MaxBufferSize: 5 * 1024 * 1024,
		},
		Board: BoardConfig{
			RevealInterval: Duration(30 * time.Millisecond),
			ViewportHeight: 600,
		},
		Gemini: GeminiConfig{
			EnableAudio: true,
			Greeting:    "Hi! I'm your tutor today. What would you like to learn?",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}
}

// Load builds the configuration in three layers: defaults, then the TOML
// file at path (skipped when path is empty or missing), then environment
// variables. A .env file is honored the same way the env itself is.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if cfg.Gemini.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Gemini.APIKey = key
	}
	if model := os.Getenv("GEMINI_MODEL"); model != "" {
		c.Gemini.Model = model
	}
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("invalid PORT: %w", err)
		}
		c.Server.Port = p
	}
	if addr := os.Getenv("REDIS_URL"); addr != "" {
		c.Redis.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}
	if maxSessions := os.Getenv("MAX_SESSIONS"); maxSessions != "" {
		m, err := strconv.Atoi(maxSessions)
		if err != nil {
			return fmt.Errorf("invalid MAX_SESSIONS: %w", err)
		}
		c.Session.MaxSessions = m
	}
	if timeout := os.Getenv("SESSION_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TIMEOUT: %w", err)
		}
		c.Session.Timeout = Duration(time.Duration(t) * time.Minute)
	}
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	if keepalive := os.Getenv("KEEPALIVE_PERIOD"); keepalive != "" {
		k, err := strconv.Atoi(keepalive)
		if err != nil {
			return fmt.Errorf("invalid KEEPALIVE_PERIOD: %w", err)
		}
		c.Server.KeepAlivePeriod = Duration(time.Duration(k) * time.Second)
	}
	if bufferSize := os.Getenv("MAX_BUFFER_SIZE"); bufferSize != "" {
		b, err := strconv.Atoi(bufferSize)
		if err != nil {
			return fmt.Errorf("invalid MAX_BUFFER_SIZE: %w", err)
		}
		c.Session.MaxBufferSize = b
	}
	return nil
}
