package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/cypherlabdev/sports-trading-agent/internal/models"
)

// Config holds all configuration for the trading agent
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Kafka     KafkaConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Ledger    LedgerConfig
	Signals   SignalsConfig
	Alerts    AlertsConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ProvidersConfig holds feed provider configuration
type ProvidersConfig struct {
	PollInterval time.Duration
	TheOddsAPI   TheOddsAPIConfig
	APIFutebol   APIFutebolConfig
}

// TheOddsAPIConfig holds The Odds API configuration
type TheOddsAPIConfig struct {
	APIKey      string
	Regions     string
	Markets     string
	Sports      []string
	DailyBudget int // Requests per UTC day (500 credits/month free tier)
}

// APIFutebolConfig holds API-Futebol configuration
type APIFutebolConfig struct {
	APIKey string // Empty disables the fixture provider
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Brokers      []string
	IntakeTopic  string // Topic to consume quote batches from (raw_quotes)
	SignalsTopic string // Topic to publish signals to; empty disables publishing
	GroupID      string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// PostgresConfig holds history store configuration
type PostgresConfig struct {
	DSN string // Empty disables history persistence
}

// LedgerConfig holds in-memory ledger configuration
type LedgerConfig struct {
	StaleAfter time.Duration
}

// SignalsConfig holds detector parameters
type SignalsConfig struct {
	MinSpread float64 // Minimum back-lay spread for arbitrage (0.05 = 5%)
	BaseStake float64
	Drift     DriftConfig
	Cycle     CycleConfig
}

// DriftConfig holds odds drift detector parameters
type DriftConfig struct {
	Enabled         bool
	MinDriftPercent float64
}

// CycleConfig holds cycle method parameters
type CycleConfig struct {
	Enabled         bool
	MaxBackOdds     float64 // Back entries at or below this price
	MinLayOdds      float64 // Lay entries at or above this price
	GreenTarget     float64 // Target profit fraction of bankroll
	MaxRed          float64 // Maximum acceptable loss fraction
	RiskRewardRatio float64
	Bankroll        float64
}

// AlertsConfig holds alert dispatcher configuration
type AlertsConfig struct {
	MinConfidence  float64
	MaxQuoteAge    time.Duration
	DedupTTL       time.Duration
	MaxPerMinute   int
	WebhookURL     string // Empty disables the webhook notifier
	TelegramToken  string // Empty disables the Telegram notifier
	TelegramChatID int64
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8082)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("providers.poll_interval", 5*time.Minute)
	v.SetDefault("providers.theoddsapi.regions", "eu,uk")
	v.SetDefault("providers.theoddsapi.markets", "h2h,h2h_lay")
	v.SetDefault("providers.theoddsapi.sports", []string{
		"soccer_epl",
		"soccer_brazil_campeonato",
		"soccer_uefa_champs_league",
	})
	v.SetDefault("providers.theoddsapi.daily_budget", 16)

	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.intake_topic", "raw_quotes")
	v.SetDefault("kafka.signals_topic", "signals")
	v.SetDefault("kafka.group_id", "trading-agent")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 15*time.Minute)

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("ledger.stale_after", 30*time.Minute)

	v.SetDefault("signals.min_spread", 0.05)
	v.SetDefault("signals.base_stake", 100.0)
	v.SetDefault("signals.drift.enabled", true)
	v.SetDefault("signals.drift.min_drift_percent", 10.0)
	v.SetDefault("signals.cycle.enabled", true)
	v.SetDefault("signals.cycle.max_back_odds", 1.06)
	v.SetDefault("signals.cycle.min_lay_odds", 30.0)
	v.SetDefault("signals.cycle.green_target", 0.05)
	v.SetDefault("signals.cycle.max_red", 0.15)
	v.SetDefault("signals.cycle.risk_reward_ratio", 3.0)
	v.SetDefault("signals.cycle.bankroll", 1000.0)

	v.SetDefault("alerts.min_confidence", 0.80)
	v.SetDefault("alerts.max_quote_age", 5*time.Minute)
	v.SetDefault("alerts.dedup_ttl", 10*time.Minute)
	v.SetDefault("alerts.max_per_minute", 10)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	v.SetEnvPrefix("TRADING_AGENT")
	v.AutomaticEnv()
	// Replace . with _ for environment variables
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unmarshal to struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

// ToCycleParams converts config to cycle method parameters
func (c *CycleConfig) ToCycleParams() models.CycleParams {
	return models.CycleParams{
		MaxBackOdds:     decimal.NewFromFloat(c.MaxBackOdds),
		MinLayOdds:      decimal.NewFromFloat(c.MinLayOdds),
		GreenTarget:     decimal.NewFromFloat(c.GreenTarget),
		MaxRed:          decimal.NewFromFloat(c.MaxRed),
		RiskRewardRatio: decimal.NewFromFloat(c.RiskRewardRatio),
		Bankroll:        decimal.NewFromFloat(c.Bankroll),
	}
}
