package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"docaudit/internal/audit/models"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	LogLevel      string
}

// MoySklad holds the bookkeeping-platform connection settings. Each audited
// region authenticates against its own account.
type MoySklad struct {
	BaseURL     string
	Credentials map[models.Region]Account
}

// Account is one region's basic-auth pair.
type Account struct {
	Login    string
	Password string
}

// Audit holds audit-run tunables.
type Audit struct {
	ContactCenter string
	OwnerCacheTTL time.Duration
	MinPrice      int64
}

// Dispatch configures the report sinks. Empty values disable a sink.
type Dispatch struct {
	TelegramToken  string
	TelegramChatID string
	BitrixWebhook  string
	BitrixChatID   string

	KafkaBrokers []string
	KafkaTopic   string
}

// RedisConfig holds the owner-cache redis settings. An empty URL disables
// redis and keeps the cache in-process.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Config is everything main needs to wire the service.
type Config struct {
	Server      Server
	MoySklad    MoySklad
	Audit       Audit
	Dispatch    Dispatch
	Redis       RedisConfig
	PostgresDSN string
}

// FromEnv builds the full config from environment variables so main stays
// lean. Missing optional values disable the corresponding component.
func FromEnv() Config {
	cfg := Config{
		Server: Server{
			Addr:          getenv("DOCAUDIT_ADDR", ":8080"),
			JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			LogLevel:      getenv("LOG_LEVEL", "info"),
		},
		MoySklad: MoySklad{
			BaseURL:     getenv("MOYSKLAD_BASE_URL", ""),
			Credentials: credentialsFromEnv(),
		},
		Audit: Audit{
			ContactCenter: getenv("CONTACT_CENTER_NAME", "Контакт-Центр"),
			OwnerCacheTTL: getdur("OWNER_CACHE_TTL", 24*time.Hour),
			MinPrice:      getint64("MIN_PRICE", 0),
		},
		Dispatch: Dispatch{
			TelegramToken:  os.Getenv("TELEGRAM_BOT_TOKEN"),
			TelegramChatID: os.Getenv("TELEGRAM_CHAT_ID"),
			BitrixWebhook:  os.Getenv("BITRIX_WEBHOOK_URL"),
			BitrixChatID:   os.Getenv("BITRIX_CHAT_ID"),
			KafkaTopic:     getenv("KAFKA_TICKET_TOPIC", "docaudit.reports"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Dispatch.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// credentialsFromEnv collects per-region platform accounts. The legacy
// RB/RF names are still accepted so existing deployments keep working.
func credentialsFromEnv() map[models.Region]Account {
	aliases := map[models.Region][]string{
		models.RegionBY: {"BY", "RB"},
		models.RegionRU: {"RU", "RF"},
		models.RegionKZ: {"KZ"},
	}
	out := make(map[models.Region]Account)
	for region, names := range aliases {
		for _, name := range names {
			login := os.Getenv("MOYSKLAD_LOGIN_" + name)
			password := os.Getenv("MOYSKLAD_PASSWORD_" + name)
			if login != "" && password != "" {
				out[region] = Account{Login: login, Password: password}
				break
			}
		}
	}
	return out
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
