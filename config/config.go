package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

// Chat — настройки комнат; duration-поля задаются строками ("1h", "3s").
type Chat struct {
	HistoryLimit  int    `yaml:"historyLimit"`  // default 50
	MaxMessageLen int    `yaml:"maxMessageLen"` // default 4000
	MessageTTL    string `yaml:"messageTTL"`    // default 1h
	UnreadWindow  string `yaml:"unreadWindow"`  // default 24h
	TypingIdle    string `yaml:"typingIdle"`    // default 1s
	EmptyGrace    string `yaml:"emptyGrace"`    // default 5s
	StoreTimeout  string `yaml:"storeTimeout"`  // default 3s
}

// Relay — внешний сервис счётчиков непрочитанных. Пустой url отключает relay.
type Relay struct {
	URL     string `yaml:"url"`
	APIKey  string `yaml:"apiKey"`
	Timeout string `yaml:"timeout"` // default 5s
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Chat     Chat     `yaml:"chat"`
	Relay    Relay    `yaml:"relay"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 50
	}
	if c.Chat.MaxMessageLen <= 0 {
		c.Chat.MaxMessageLen = 4000
	}
	return nil
}

func (c *Chat) MessageTTLOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.MessageTTL)
}

func (c *Chat) UnreadWindowOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.UnreadWindow)
}

func (c *Chat) TypingIdleOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.TypingIdle)
}

func (c *Chat) EmptyGraceOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.EmptyGrace)
}

func (c *Chat) StoreTimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.StoreTimeout)
}

func (c *Relay) TimeoutOr(def time.Duration) time.Duration {
	return parseDurationOr(def, c.Timeout)
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
