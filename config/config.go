package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the LLeX answer engine.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Databases DatabasesConfig `mapstructure:"databases"`
	History   HistoryConfig   `mapstructure:"history"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Statute   StatuteConfig   `mapstructure:"statute"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig describes the completion/embedding service.
type LLMConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	ChatModel      string        `mapstructure:"chat_model"`
	EmbeddingModel string        `mapstructure:"embedding_model"`
	Temperature    float64       `mapstructure:"temperature"`
	MaxTokens      int           `mapstructure:"max_tokens"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// SearchConfig carries the external search provider credentials.
type SearchConfig struct {
	SerperAPIKey      string `mapstructure:"serper_api_key"`
	BraveAPIKey       string `mapstructure:"brave_api_key"`
	NaverClientID     string `mapstructure:"naver_client_id"`
	NaverClientSecret string `mapstructure:"naver_client_secret"`
	NewsAPIKey        string `mapstructure:"newsapi_key"`
	MaxResults        int    `mapstructure:"max_results"`
	FetchPages        int    `mapstructure:"fetch_pages"` // pages fetched+indexed per web search, 0 disables
	RenderFallback    bool   `mapstructure:"render_fallback"`
}

// DatabasesConfig groups the backing stores.
type DatabasesConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig describes the relational store connection.
type PostgresConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN builds the postgres connection string.
func (p PostgresConfig) DSN() (string, error) {
	if p.URL != "" {
		return p.URL, nil
	}
	if p.Host == "" || p.DBName == "" {
		return "", fmt.Errorf("postgres not configured (databases.postgres.host/dbname or url)")
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl), nil
}

// RedisConfig describes the history read-through cache.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// HistoryConfig controls conversation-history reads and retention.
type HistoryConfig struct {
	Window        int    `mapstructure:"window"`         // turns the router reads for context
	RetentionDays int    `mapstructure:"retention_days"` // 0 disables the cleaner
	CleanupCron   string `mapstructure:"cleanup_cron"`
}

// StreamConfig tunes the SSE channel.
type StreamConfig struct {
	YieldEvery int           `mapstructure:"yield_every"` // politeness yield cadence in text chunks
	ChunkSize  int           `mapstructure:"chunk_size"`  // graph-path answer re-chunk size in runes
	ChunkDelay time.Duration `mapstructure:"chunk_delay"`
}

// StatuteConfig tunes statute lookup.
type StatuteConfig struct {
	MinScore float64 `mapstructure:"min_score"` // vector similarity acceptance threshold
}

// TelemetryConfig contains monitoring settings.
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoadConfig loads config from the given file, falling back to config.yaml
// in the usual locations, with LLEX_* environment overrides on top.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", 60*time.Second)
	viper.SetDefault("server.address", ":10010")
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.chat_model", "gpt-4o-mini")
	viper.SetDefault("llm.embedding_model", "text-embedding-3-large")
	viper.SetDefault("llm.temperature", 0.3)
	viper.SetDefault("llm.max_tokens", 1800)
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("search.max_results", 8)
	viper.SetDefault("search.fetch_pages", 0)
	viper.SetDefault("databases.redis.ttl", 5*time.Minute)
	viper.SetDefault("history.window", 10)
	viper.SetDefault("history.retention_days", 0)
	viper.SetDefault("history.cleanup_cron", "0 4 * * *")
	viper.SetDefault("stream.yield_every", 20)
	viper.SetDefault("stream.chunk_size", 20)
	viper.SetDefault("stream.chunk_delay", 10*time.Millisecond)
	viper.SetDefault("statute.min_score", 0.7)
	viper.SetDefault("telemetry.enabled", true)

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("LLEX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
		// env-only setups are fine
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	return &config
}
