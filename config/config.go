package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Log         Logger         `mapstructure:"logger"`
	DB          Database       `mapstructure:"database"`
	API         API            `mapstructure:"api"`
	TradingView TradingView    `mapstructure:"tradingview"`
	Cache       Cache          `mapstructure:"cache"`
	Refresh     Refresh        `mapstructure:"refresh"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

type Logger struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type Database struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"name"`
	SSLMode         string `mapstructure:"ssl_mode"`
	TimeZone        string `mapstructure:"time_zone"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime string `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

type API struct {
	Port int `mapstructure:"port"`
}

type TradingView struct {
	BaseURLScanner   string        `mapstructure:"base_url_scanner"`
	BaseTimeout      time.Duration `mapstructure:"base_timeout"`
	MaxRequestPerMin int           `mapstructure:"max_request_per_min"`
	Market           string        `mapstructure:"market"`
	Exchange         string        `mapstructure:"exchange"`
}

type Cache struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	QuoteExpiration   time.Duration `mapstructure:"quote_expiration"`
}

type Refresh struct {
	Enabled         bool          `mapstructure:"enabled"`
	CronExpression  string        `mapstructure:"cron_expression"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	TimeoutDuration time.Duration `mapstructure:"timeout_duration"`
}

type TelegramConfig struct {
	BotToken            string `mapstructure:"bot_token"`
	ChatID              int64  `mapstructure:"chat_id"`
	MaxRequestPerSecond int    `mapstructure:"max_request_per_second"`
}

func Load() (*Config, error) {
	// .env is optional; real deployments configure through the environment.
	_ = godotenv.Load()

	viper.SetConfigType("yaml")
	viper.SetConfigName("config")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("No config file loaded:", err)
	}

	setDefaults()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.encoding", "json")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("tradingview.base_url_scanner", "https://scanner.tradingview.com")
	viper.SetDefault("tradingview.base_timeout", 10*time.Second)
	viper.SetDefault("tradingview.max_request_per_min", 30)
	viper.SetDefault("tradingview.market", "brazil")
	viper.SetDefault("tradingview.exchange", "BMFBOVESPA")
	viper.SetDefault("cache.default_expiration", 5*time.Minute)
	viper.SetDefault("cache.cleanup_interval", 10*time.Minute)
	viper.SetDefault("cache.quote_expiration", time.Minute)
	viper.SetDefault("refresh.enabled", true)
	viper.SetDefault("refresh.cron_expression", "*/30 9-18 * * 1-5")
	viper.SetDefault("refresh.max_concurrency", 4)
	viper.SetDefault("refresh.timeout_duration", 2*time.Minute)
	viper.SetDefault("telegram.max_request_per_second", 1)
}
