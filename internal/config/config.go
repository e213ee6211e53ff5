package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod

	DatabaseURL      string // あれば最優先
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresHost     string
	PostgresPort     int
	PostgresSSLMode  string

	JWTSecret string // JWT署名シークレット

	RedisAddr    string   // 空ならインメモリのレート制限
	KafkaBrokers []string // 空ならプロセス内で通知を配送
	NotifyTopic  string
	NotifyGroup  string

	StripeSecretKey     string
	StripeWebhookSecret string

	ResendAPIKey string
	EmailFrom    string
	AdminEmail   string

	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	StockXAPIKey       string
	StockXClientID     string
	StockXClientSecret string
	StockXRefreshToken string

	PokemonTCGAPIKey string

	CronSecret    string
	OrderPrefix   string
	RateLimitFile string
	Version       string
}

// Loadは環境変数
func Load() (Config, error) {
	cfg := Config{
		Port:  os.Getenv("PORT"),
		GoEnv: os.Getenv("GO_ENV"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),
		NotifyTopic:  getenv("NOTIFY_TOPIC", "notifications"),
		NotifyGroup:  getenv("NOTIFY_GROUP", "notify-worker"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getenv("EMAIL_FROM", "Secured Tampa Support <orders@securedtampa.com>"),
		AdminEmail:   getenv("ADMIN_EMAIL", "securedtampa.llc@gmail.com"),

		TwilioAccountSID:  os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioPhoneNumber: os.Getenv("TWILIO_PHONE_NUMBER"),

		StockXAPIKey:       os.Getenv("STOCKX_API_KEY"),
		StockXClientID:     os.Getenv("STOCKX_CLIENT_ID"),
		StockXClientSecret: os.Getenv("STOCKX_CLIENT_SECRET"),
		StockXRefreshToken: os.Getenv("STOCKX_REFRESH_TOKEN"),

		PokemonTCGAPIKey: os.Getenv("POKEMON_TCG_API_KEY"),

		CronSecret:    os.Getenv("CRON_SECRET"),
		OrderPrefix:   getenv("ORDER_PREFIX", "SEC"),
		RateLimitFile: os.Getenv("RATE_LIMIT_FILE"),
		Version:       getenv("APP_VERSION", "dev"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.GoEnv == "" {
		return Config{}, fmt.Errorf("GO_ENV is required")
	}

	// DATABASE_URLが無いときだけPOSTGRES_*を必須にする
	if cfg.DatabaseURL == "" {
		pgPort, err := mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.PostgresPort = pgPort

		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	}

	return cfg, nil
}

// DSNはgorm/postgres用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

func (c Config) IsProd() bool {
	return c.GoEnv == "prod" || c.GoEnv == "production"
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
