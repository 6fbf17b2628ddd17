package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Gateway  GatewayConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// SlotCacheTTL bounds how stale the availability view may get.
	SlotCacheTTL time.Duration
}

type GatewayConfig struct {
	// Provider selects the payment gateway: "razorpay" (default) or
	// "cashfree".
	Provider string

	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string

	CashfreeClientID     string
	CashfreeClientSecret string
	CashfreeEnvironment  string

	// CommissionRate is the platform share of a captured payment; the
	// hospital payout is amount * (1 - CommissionRate).
	CommissionRate float64

	// IdempotencyWindow is the coarse time bucket used when deriving order
	// idempotency keys: retries inside one window collapse to the same key.
	IdempotencyWindow time.Duration
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("SLOT_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("PAYMENT_GATEWAY", "razorpay")
	viper.SetDefault("CASHFREE_ENVIRONMENT", "sandbox")
	viper.SetDefault("PLATFORM_COMMISSION_RATE", 0.10)
	viper.SetDefault("IDEMPOTENCY_WINDOW_SECONDS", 120)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:         viper.GetString("REDIS_ADDR"),
			Password:     viper.GetString("REDIS_PASS"),
			DB:           viper.GetInt("REDIS_DB"),
			SlotCacheTTL: time.Duration(viper.GetInt("SLOT_CACHE_TTL_SECONDS")) * time.Second,
		},
		Gateway: GatewayConfig{
			Provider:              viper.GetString("PAYMENT_GATEWAY"),
			RazorpayKeyID:         viper.GetString("RAZORPAY_KEY_ID"),
			RazorpayKeySecret:     viper.GetString("RAZORPAY_KEY_SECRET"),
			RazorpayWebhookSecret: viper.GetString("RAZORPAY_WEBHOOK_SECRET"),
			CashfreeClientID:      viper.GetString("CASHFREE_CLIENT_ID"),
			CashfreeClientSecret:  viper.GetString("CASHFREE_CLIENT_SECRET"),
			CashfreeEnvironment:   viper.GetString("CASHFREE_ENVIRONMENT"),
			CommissionRate:        viper.GetFloat64("PLATFORM_COMMISSION_RATE"),
			IdempotencyWindow:     time.Duration(viper.GetInt("IDEMPOTENCY_WINDOW_SECONDS")) * time.Second,
		},
	}

	return config, nil
}
