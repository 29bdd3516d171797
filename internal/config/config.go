package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Telegram  TelegramConfig
	NLP       NLPConfig
	Geocoder  GeocoderConfig
	Store     StoreConfig
	Render    RenderConfig
	Worker    WorkerConfig
	Logging   LoggingConfig
	Retention time.Duration
}

type ServerConfig struct {
	Host string
	Port int
}

type TelegramConfig struct {
	BotToken    string
	Channel     string
	APIBaseURL  string
	PollTimeout time.Duration
}

type NLPConfig struct {
	TaggerURL     string
	TaggerTimeout time.Duration
	MorphDictPath string
}

type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	RPS       int
	CacheSize int
	// Optional "left,top,right,bottom" viewbox passed to the geocoding
	// service with bounded=1. Empty means no regional bias.
	Viewbox string
}

type StoreConfig struct {
	DBPath  string
	CSVPath string
}

type RenderConfig struct {
	StaticDir string
	MapFile   string
}

type WorkerConfig struct {
	Count      int
	BufferSize int
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "localhost"),
			Port: getEnvInt("SERVER_PORT", 8080),
		},
		Telegram: TelegramConfig{
			BotToken:    os.Getenv("TELEGRAM_BOT_TOKEN"),
			Channel:     os.Getenv("TELEGRAM_CHANNEL"),
			APIBaseURL:  getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
			PollTimeout: getEnvDuration("TELEGRAM_POLL_TIMEOUT", 30*time.Second),
		},
		NLP: NLPConfig{
			TaggerURL:     getEnv("NER_URL", "http://localhost:8081"),
			TaggerTimeout: getEnvDuration("NER_TIMEOUT", 15*time.Second),
			MorphDictPath: getEnv("MORPH_DICT_PATH", "./data/uk_lemmas.tsv"),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("GEOCODER_USER_AGENT", "alertmap/1.0"),
			Timeout:   getEnvDuration("GEOCODER_TIMEOUT", 15*time.Second),
			RPS:       getEnvInt("GEOCODER_RPS", 1),
			CacheSize: getEnvInt("GEOCODER_CACHE_SIZE", 512),
			Viewbox:   getEnv("GEOCODER_VIEWBOX", ""),
		},
		Store: StoreConfig{
			DBPath:  getEnv("DB_PATH", "./data/alerts.db"),
			CSVPath: getEnv("CSV_PATH", "./data/locations.csv"),
		},
		Render: RenderConfig{
			StaticDir: getEnv("STATIC_DIR", "./static"),
			MapFile:   getEnv("MAP_FILE", "alerts.html"),
		},
		Worker: WorkerConfig{
			Count:      getEnvInt("WORKER_COUNT", 2),
			BufferSize: getEnvInt("WORKER_BUFFER_SIZE", 20),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Retention: getEnvDuration("RETENTION_WINDOW", time.Hour),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}
	if c.Telegram.Channel == "" {
		return fmt.Errorf("TELEGRAM_CHANNEL is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Retention <= 0 {
		return fmt.Errorf("retention window must be positive, got %s", c.Retention)
	}
	if c.Geocoder.RPS < 1 {
		return fmt.Errorf("geocoder RPS must be at least 1, got %d", c.Geocoder.RPS)
	}
	if c.Worker.Count < 1 {
		return fmt.Errorf("worker count must be at least 1, got %d", c.Worker.Count)
	}

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return fallback
}
