package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string `yaml:"database_url"`
	DatabaseName string `yaml:"database_name"`

	// HTTP configuration
	HTTPPort string `yaml:"http_port"`

	// Auth configuration
	JWTSecret              string        `yaml:"jwt_secret"`
	TokenTTL               time.Duration `yaml:"token_ttl"`
	UsernameChangeCooldown time.Duration `yaml:"username_change_cooldown"`

	// Redis configuration (optional, slips fall back to memory when unset)
	RedisAddr       string        `yaml:"redis_addr"`
	SlipTTL         time.Duration `yaml:"slip_ttl"`
	SlipIdleTimeout time.Duration `yaml:"slip_idle_timeout"`

	// Kafka configuration (optional)
	KafkaBrokers      []string `yaml:"kafka_brokers"`
	KafkaEventsTopic  string   `yaml:"kafka_events_topic"`
	KafkaResultsTopic string   `yaml:"kafka_results_topic"`
	KafkaGroupID      string   `yaml:"kafka_group_id"`

	// Odds provider configuration
	OddsAPIURL   string        `yaml:"odds_api_url"`
	OddsAPIKey   string        `yaml:"odds_api_key"`
	OddsRegions  string        `yaml:"odds_regions"`
	OddsCacheTTL time.Duration `yaml:"odds_cache_ttl"`

	// Discord payout webhook (optional)
	DiscordWebhookID    string `yaml:"discord_webhook_id"`
	DiscordWebhookToken string `yaml:"discord_webhook_token"`

	// Environment
	Environment string `yaml:"environment"` // "development", "production" or "test"
	LogLevel    string `yaml:"log_level"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// NewTestConfig returns a configuration suitable for tests
func NewTestConfig() *Config {
	cfg := defaults()
	cfg.Environment = "test"
	cfg.JWTSecret = "test-secret"
	cfg.LogLevel = "debug"
	return cfg
}

func defaults() *Config {
	return &Config{
		HTTPPort:               "8080",
		TokenTTL:               24 * time.Hour,
		UsernameChangeCooldown: 30 * 24 * time.Hour,
		SlipTTL:                7 * 24 * time.Hour,
		SlipIdleTimeout:        30 * time.Minute,
		KafkaEventsTopic:       "sportsbook.events",
		KafkaResultsTopic:      "sportsbook.wager-results",
		KafkaGroupID:           "sportsbook-settlement",
		OddsAPIURL:             "https://api.the-odds-api.com/v4",
		OddsRegions:            "us",
		OddsCacheTTL:           60 * time.Second,
		LogLevel:               "info",
	}
}

// load loads configuration from an optional YAML file and then environment variables
func load() (*Config, error) {
	config := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, config); err != nil {
			return nil, err
		}
	}

	applyEnv(config)

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadFile(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(config *Config) {
	setString(&config.DatabaseURL, "DATABASE_URL")
	setString(&config.DatabaseName, "DATABASE_NAME")
	setString(&config.HTTPPort, "HTTP_PORT")
	setString(&config.JWTSecret, "JWT_SECRET")
	setDuration(&config.TokenTTL, "TOKEN_TTL")
	setDuration(&config.UsernameChangeCooldown, "USERNAME_CHANGE_COOLDOWN")
	setString(&config.RedisAddr, "REDIS_ADDR")
	setDuration(&config.SlipTTL, "SLIP_TTL")
	setDuration(&config.SlipIdleTimeout, "SLIP_IDLE_TIMEOUT")
	setString(&config.KafkaEventsTopic, "KAFKA_EVENTS_TOPIC")
	setString(&config.KafkaResultsTopic, "KAFKA_RESULTS_TOPIC")
	setString(&config.KafkaGroupID, "KAFKA_GROUP_ID")
	setString(&config.OddsAPIURL, "ODDS_API_URL")
	setString(&config.OddsAPIKey, "ODDS_API_KEY")
	setString(&config.OddsRegions, "ODDS_REGIONS")
	setDuration(&config.OddsCacheTTL, "ODDS_CACHE_TTL")
	setString(&config.DiscordWebhookID, "DISCORD_WEBHOOK_ID")
	setString(&config.DiscordWebhookToken, "DISCORD_WEBHOOK_TOKEN")
	setString(&config.Environment, "ENVIRONMENT")
	setString(&config.LogLevel, "LOG_LEVEL")

	// Parse broker list
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		config.KafkaBrokers = nil
		for _, broker := range strings.Split(brokers, ",") {
			broker = strings.TrimSpace(broker)
			if broker != "" {
				config.KafkaBrokers = append(config.KafkaBrokers, broker)
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Environment == "test" {
		return nil
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if _, err := strconv.Atoi(c.HTTPPort); err != nil {
		return fmt.Errorf("HTTP_PORT must be numeric: %q", c.HTTPPort)
	}
	return nil
}

// KafkaEnabled reports whether a broker list was configured
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// DiscordEnabled reports whether the payout webhook was configured
func (c *Config) DiscordEnabled() bool {
	return c.DiscordWebhookID != "" && c.DiscordWebhookToken != ""
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			*dst = parsed
		}
	}
}
