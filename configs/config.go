package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var loadEnv sync.Once

func Config(key string) string {
	loadEnv.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			logrus.Warn("Warning: .env file not found, reading from system environment variables")
		}
	})

	return os.Getenv(key)
}

// Settings is the typed view of the environment used to wire the server.
type Settings struct {
	Port        string
	DatabaseURL string
	JWTSecret   string
	LogLevel    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	NodeID        string

	ExpiryDelay       time.Duration
	SweepInterval     time.Duration
	QueuePollInterval time.Duration
	QueueWorkers      int

	PriceMatchStrict        bool
	MatchStrictAvailability bool
	PriceCacheSize          int
	PriceCacheTTL           time.Duration

	KafkaBrokers         []string
	KafkaDeadLetterTopic string

	PaymentBaseURL     string
	PaymentMerchantID  string
	PaymentSecret      string
	PaymentTestingMode bool
	WebhookBaseURL     string

	BrevoAPIKey     string
	EmailSender     string
	EmailSenderName string
}

func Load() Settings {
	s := Settings{
		Port:        stringOr("PORT", "8080"),
		DatabaseURL: Config("DATABASE_URL"),
		JWTSecret:   Config("JWT_SECRET"),
		LogLevel:    stringOr("LOG_LEVEL", "info"),

		RedisAddr:     Config("REDIS_ADDR"),
		RedisPassword: Config("REDIS_PASSWORD"),
		RedisDB:       intOr("REDIS_DB", 0),
		NodeID:        Config("NODE_ID"),

		ExpiryDelay:       durationOr("EXPIRY_DELAY", 5*time.Minute),
		SweepInterval:     durationOr("SWEEP_INTERVAL", time.Minute),
		QueuePollInterval: durationOr("QUEUE_POLL_INTERVAL", time.Second),
		QueueWorkers:      intOr("QUEUE_WORKERS", 4),

		PriceMatchStrict:        boolOr("PRICE_MATCH_STRICT", false),
		MatchStrictAvailability: boolOr("MATCH_STRICT_AVAILABILITY", false),
		PriceCacheSize:          intOr("PRICE_CACHE_SIZE", 512),
		PriceCacheTTL:           durationOr("PRICE_CACHE_TTL", time.Minute),

		KafkaBrokers:         listOf("KAFKA_BROKERS"),
		KafkaDeadLetterTopic: stringOr("KAFKA_DEADLETTER_TOPIC", "houserent.expiry.deadletter"),

		PaymentBaseURL:     stringOr("PAYMENT_BASE_URL", "https://api.freedompay.kz"),
		PaymentMerchantID:  Config("PAYMENT_MERCHANT_ID"),
		PaymentSecret:      Config("PAYMENT_SECRET"),
		PaymentTestingMode: boolOr("PAYMENT_TESTING_MODE", true),
		WebhookBaseURL:     Config("WEBHOOK_BASE_URL"),

		BrevoAPIKey:     Config("BREVO_API_KEY"),
		EmailSender:     Config("EMAIL_SENDER"),
		EmailSenderName: stringOr("EMAIL_SENDER_NAME", "HouseRent"),
	}
	if s.NodeID == "" {
		s.NodeID = uuid.NewString()
	}
	return s
}

func stringOr(key, fallback string) string {
	if v := Config(key); v != "" {
		return v
	}
	return fallback
}

func intOr(key string, fallback int) int {
	v := Config(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid integer setting, using default")
		return fallback
	}
	return n
}

func boolOr(key string, fallback bool) bool {
	v := Config(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid boolean setting, using default")
		return fallback
	}
	return b
}

func durationOr(key string, fallback time.Duration) time.Duration {
	v := Config(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// bare numbers are seconds
		if secs, convErr := strconv.Atoi(v); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		logrus.WithFields(logrus.Fields{"key": key, "value": v}).Warn("invalid duration setting, using default")
		return fallback
	}
	return d
}

func listOf(key string) []string {
	var out []string
	for _, part := range strings.Split(Config(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
