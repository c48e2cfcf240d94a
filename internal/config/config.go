package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Bot      BotConfig
	Feed     FeedConfig
	Deposit  DepositConfig
	Gateway  GatewayConfig
	Reaper   ReaperConfig
}

type ServerConfig struct {
	Port int
	Env  string // "development", "production"
}

type DatabaseConfig struct {
	Host    string
	Port    string
	Name    string
	User    string
	Pass    string
	Charset string
}

type RedisConfig struct {
	Addr string
	Pass string
	DB   int
}

type BotConfig struct {
	Token       string
	AdminChatID int64
}

// FeedConfig drives the settlement feed poller. Username and Token belong
// to the aggregator account whose mutations the feed reports.
type FeedConfig struct {
	URL          string
	Username     string
	Token        string
	Interval     time.Duration
	FetchTimeout time.Duration
}

type DepositConfig struct {
	TTL         time.Duration
	Debounce    time.Duration
	MaxPending  int64
	OffsetMin   int64
	OffsetMax   int64
	MaxAttempts int
}

type GatewayConfig struct {
	BaseURL  string
	APIKey   string
	QRString string
}

type ReaperConfig struct {
	Interval time.Duration
}

// Load reads configuration from .env file and environment variables.
func Load() (*Config, error) {
	// Load .env file (ignore error if missing)
	_ = godotenv.Load()

	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("APP_PORT", 8080)
	viper.SetDefault("APP_ENV", "production")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "3306")
	viper.SetDefault("DB_CHARSET", "utf8mb4")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("FEED_INTERVAL", "10s")
	viper.SetDefault("FEED_FETCH_TIMEOUT", "5s")
	viper.SetDefault("DEPOSIT_TTL", "5m")
	viper.SetDefault("DEPOSIT_DEBOUNCE", "1s")
	viper.SetDefault("DEPOSIT_MAX_PENDING", 1)
	viper.SetDefault("DEPOSIT_OFFSET_MIN", 1)
	viper.SetDefault("DEPOSIT_OFFSET_MAX", 300)
	viper.SetDefault("DEPOSIT_MAX_ATTEMPTS", 5)
	viper.SetDefault("GATEWAY_BASE_URL", "https://api.serverpremium.web.id")
	viper.SetDefault("REAPER_INTERVAL", "30s")

	cfg := &Config{
		Server: ServerConfig{
			Port: viper.GetInt("APP_PORT"),
			Env:  viper.GetString("APP_ENV"),
		},
		Database: DatabaseConfig{
			Host:    viper.GetString("DB_HOST"),
			Port:    viper.GetString("DB_PORT"),
			Name:    viper.GetString("DB_NAME"),
			User:    viper.GetString("DB_USER"),
			Pass:    viper.GetString("DB_PASS"),
			Charset: viper.GetString("DB_CHARSET"),
		},
		Redis: RedisConfig{
			Addr: viper.GetString("REDIS_ADDR"),
			Pass: viper.GetString("REDIS_PASS"),
			DB:   viper.GetInt("REDIS_DB"),
		},
		Bot: BotConfig{
			Token:       viper.GetString("BOT_TOKEN"),
			AdminChatID: viper.GetInt64("BOT_ADMIN_CHAT_ID"),
		},
		Feed: FeedConfig{
			URL:          viper.GetString("FEED_URL"),
			Username:     viper.GetString("FEED_USERNAME"),
			Token:        viper.GetString("FEED_TOKEN"),
			Interval:     viper.GetDuration("FEED_INTERVAL"),
			FetchTimeout: viper.GetDuration("FEED_FETCH_TIMEOUT"),
		},
		Deposit: DepositConfig{
			TTL:         viper.GetDuration("DEPOSIT_TTL"),
			Debounce:    viper.GetDuration("DEPOSIT_DEBOUNCE"),
			MaxPending:  viper.GetInt64("DEPOSIT_MAX_PENDING"),
			OffsetMin:   viper.GetInt64("DEPOSIT_OFFSET_MIN"),
			OffsetMax:   viper.GetInt64("DEPOSIT_OFFSET_MAX"),
			MaxAttempts: viper.GetInt("DEPOSIT_MAX_ATTEMPTS"),
		},
		Gateway: GatewayConfig{
			BaseURL:  viper.GetString("GATEWAY_BASE_URL"),
			APIKey:   viper.GetString("GATEWAY_API_KEY"),
			QRString: viper.GetString("GATEWAY_QR_STRING"),
		},
		Reaper: ReaperConfig{
			Interval: viper.GetDuration("REAPER_INTERVAL"),
		},
	}

	if cfg.Database.Name == "" {
		log.Println("WARNING: DB_NAME is not set")
	}
	if cfg.Feed.URL == "" {
		log.Println("WARNING: FEED_URL is not set, settlement polling disabled")
	}
	if cfg.Bot.Token == "" {
		log.Println("WARNING: BOT_TOKEN is not set, notifications will be log-only")
	}

	return cfg, nil
}

// DSN returns the MySQL DSN string for GORM.
func (d *DatabaseConfig) DSN() string {
	return d.User + ":" + d.Pass + "@tcp(" + d.Host + ":" + d.Port + ")/" + d.Name + "?charset=" + d.Charset + "&parseTime=True&loc=Local"
}
