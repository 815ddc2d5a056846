package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendOpenAI = "openai"
	BackendGemini = "gemini"
)

type Config struct {
	HTTPAddr   string           `yaml:"http_addr"`
	LogLevel   string           `yaml:"log_level"`
	RandomSeed int64            `yaml:"random_seed"`
	OneBot     OneBotConfig     `yaml:"onebot"`
	Completion CompletionConfig `yaml:"completion"`
	Session    SessionConfig    `yaml:"session"`
	Styles     StylesConfig     `yaml:"styles"`
	Moderation ModerationConfig `yaml:"moderation"`
	AutoReply  AutoReplyConfig  `yaml:"auto_reply"`
}

type OneBotConfig struct {
	BaseURL          string        `yaml:"base_url"`
	AccessToken      string        `yaml:"access_token"`
	Timeout          time.Duration `yaml:"timeout"`
	ReverseWSEnabled bool          `yaml:"reverse_ws_enabled"`
}

type CompletionConfig struct {
	Backend string        `yaml:"backend"`
	Timeout time.Duration `yaml:"timeout"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type SessionConfig struct {
	HistoryLimit int           `yaml:"history_limit"`
	Timeout      time.Duration `yaml:"timeout"`
}

// StylesConfig дополнительные персоны поверх встроенных.
type StylesConfig struct {
	Default string            `yaml:"default"`
	Extra   map[string]string `yaml:"extra"`
}

type ModerationConfig struct {
	BanWords     []string      `yaml:"ban_words"`
	BaseDuration time.Duration `yaml:"base_duration"`
}

// AutoReplyConfig вероятность случайной реплики, общая и по беседам.
type AutoReplyConfig struct {
	Probability float64            `yaml:"probability"`
	Overrides   map[string]float64 `yaml:"overrides"`
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если path задан
// и файл существует), затем переменные окружения.
func Load(path string) (Config, error) {
	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(cfg *Config) {
	cfg.HTTPAddr = ":5000"
	cfg.LogLevel = "info"
	cfg.OneBot = OneBotConfig{
		BaseURL:          "http://127.0.0.1:3000",
		Timeout:          10 * time.Second,
		ReverseWSEnabled: true,
	}
	cfg.Completion = CompletionConfig{
		Backend: BackendOpenAI,
		Timeout: 60 * time.Second,
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-v3",
		},
		Gemini: GeminiConfig{Model: "gemini-2.0-flash"},
	}
	cfg.Session = SessionConfig{HistoryLimit: 36, Timeout: 15 * time.Minute}
	cfg.Moderation = ModerationConfig{BaseDuration: 60 * time.Second}
	cfg.AutoReply = AutoReplyConfig{Probability: 0.05}
}

func applyEnv(cfg *Config) error {
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.OneBot.BaseURL = getEnv("ONEBOT_BASE_URL", cfg.OneBot.BaseURL)
	cfg.OneBot.AccessToken = getEnv("ONEBOT_ACCESS_TOKEN", cfg.OneBot.AccessToken)
	cfg.Completion.Backend = strings.ToLower(getEnv("COMPLETION_BACKEND", cfg.Completion.Backend))
	cfg.Completion.OpenAI.APIKey = getEnv("OPENAI_API_KEY", cfg.Completion.OpenAI.APIKey)
	cfg.Completion.OpenAI.BaseURL = getEnv("OPENAI_BASE_URL", cfg.Completion.OpenAI.BaseURL)
	cfg.Completion.OpenAI.Model = getEnv("OPENAI_MODEL", cfg.Completion.OpenAI.Model)
	cfg.Completion.Gemini.APIKey = getEnv("GEMINI_API_KEY", cfg.Completion.Gemini.APIKey)
	cfg.Completion.Gemini.Model = getEnv("GEMINI_MODEL", cfg.Completion.Gemini.Model)

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"ONEBOT_TIMEOUT", &cfg.OneBot.Timeout},
		{"COMPLETION_TIMEOUT", &cfg.Completion.Timeout},
		{"SESSION_TIMEOUT", &cfg.Session.Timeout},
		{"BAN_BASE_DURATION", &cfg.Moderation.BaseDuration},
	}
	for _, d := range durations {
		v, ok := os.LookupEnv(d.key)
		if !ok {
			continue
		}
		parsed, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v, ok := os.LookupEnv("HISTORY_LIMIT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse HISTORY_LIMIT: %w", err)
		}
		cfg.Session.HistoryLimit = n
	}

	if v, ok := os.LookupEnv("AUTO_REPLY_PROBABILITY"); ok {
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse AUTO_REPLY_PROBABILITY: %w", err)
		}
		cfg.AutoReply.Probability = p
	}

	if v, ok := os.LookupEnv("RANDOM_SEED"); ok {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse RANDOM_SEED: %w", err)
		}
		cfg.RandomSeed = seed
	}

	wsEnabled, err := parseBoolDefault(os.Getenv("REVERSE_WS_ENABLED"), cfg.OneBot.ReverseWSEnabled)
	if err != nil {
		return fmt.Errorf("parse REVERSE_WS_ENABLED: %w", err)
	}
	cfg.OneBot.ReverseWSEnabled = wsEnabled

	return nil
}

// Validate проверяет значения, которые нельзя исправить молча.
func (c Config) Validate() error {
	switch c.Completion.Backend {
	case BackendOpenAI, BackendGemini:
	default:
		return fmt.Errorf("unknown completion backend %q", c.Completion.Backend)
	}
	if c.Session.HistoryLimit <= 0 {
		return fmt.Errorf("history limit must be positive, got %d", c.Session.HistoryLimit)
	}
	if c.AutoReply.Probability < 0 || c.AutoReply.Probability > 1 {
		return fmt.Errorf("auto reply probability must be within [0, 1], got %v", c.AutoReply.Probability)
	}
	for id, p := range c.AutoReply.Overrides {
		if p < 0 || p > 1 {
			return fmt.Errorf("auto reply probability for %s must be within [0, 1], got %v", id, p)
		}
	}
	return nil
}

func parseDuration(value string) (time.Duration, error) {
	if value == "" {
		return 0, fmt.Errorf("duration is empty")
	}
	return time.ParseDuration(value)
}

func getEnv(key, def string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return def
}

// parseBoolDefault parses optional boolean with default value.
func parseBoolDefault(value string, def bool) (bool, error) {
	if value == "" {
		return def, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, err
	}
	return parsed, nil
}
