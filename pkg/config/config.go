package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string
	CORSOrigins []string

	DatabaseURL string
	DBDriver    string

	JWTAccessSecret  []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	CookieSecure     bool

	AdminEmail    string
	AdminPassword string

	KafkaBrokers     []string
	OrderEventsTopic string

	RedisAddr      string
	RedisPassword  string
	IdempotencyTTL time.Duration

	RazorpayKeyID     string
	RazorpayKeySecret string
	DefaultCurrency   string

	TaxRate               string
	FreeShippingThreshold int64
	ShippingFee           int64
	StatsWindowDays       int
}

// Load reads an optional .env file and then the process environment.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		ServiceName: EnvDefault("SERVICE_NAME", "ethnic-shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),
		CORSOrigins: CSV(EnvDefault("CORS_ORIGINS", "http://localhost:5173")),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBDriver:    EnvDefault("DB_DRIVER", "pgx"),

		JWTAccessSecret:  []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        EnvDurationDefault("ACCESS_TTL", 15*time.Minute),
		RefreshTTL:       EnvDurationDefault("REFRESH_TTL", 7*24*time.Hour),
		CookieSecure:     EnvBoolDefault("COOKIE_SECURE", true),

		AdminEmail:    os.Getenv("ADMIN_EMAIL"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),

		KafkaBrokers:     CSV(os.Getenv("KAFKA_BROKERS")),
		OrderEventsTopic: EnvDefault("ORDER_EVENTS_TOPIC", "order_events"),

		RedisAddr:      os.Getenv("REDIS_ADDR"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		IdempotencyTTL: EnvDurationDefault("IDEMPOTENCY_TTL", 24*time.Hour),

		RazorpayKeyID:     os.Getenv("RAZORPAY_KEY_ID"),
		RazorpayKeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
		DefaultCurrency:   EnvDefault("DEFAULT_CURRENCY", "INR"),

		TaxRate:               EnvDefault("TAX_RATE", "0.05"),
		FreeShippingThreshold: int64(EnvIntDefault("FREE_SHIPPING_THRESHOLD", 1000)),
		ShippingFee:           int64(EnvIntDefault("SHIPPING_FEE", 50)),
		StatsWindowDays:       EnvIntDefault("STATS_WINDOW_DAYS", 7),
	}
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
