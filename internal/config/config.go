package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	AppPort    string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	// DBScopedRole is the database role end-user transactions switch to so
	// row-level policies apply.
	DBScopedRole string

	JWTSecret  string
	CronSecret string

	PostmarkServerToken string
	EmailFrom           string
	AppBaseURL          string

	LogLevel string

	KafkaBrokers           string
	KafkaClientID          string
	KafkaGroupID           string
	KafkaRetryGroupID      string
	KafkaTopicPartitions   string
	KafkaRetryPartitions   string
	KafkaReplicationFactor string
	KafkaMaxAttempts       string
	EventDrivenEnabled     string

	SchedulerEnabled  string
	SchedulerInterval string

	ExpiryGraceDays string
	PageSize        string
}

func Load() *Config {
	return &Config{
		AppPort:      getEnv("APP_PORT", "8080"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", "postgres"),
		DBName:       getEnv("DB_NAME", "pawclub"),
		DBSSLMode:    getEnv("DB_SSLMODE", "disable"),
		DBScopedRole: getEnv("DB_SCOPED_ROLE", "authenticated"),

		JWTSecret:  getEnv("JWT_SECRET", ""),
		CronSecret: getEnv("CRON_SECRET", ""),

		PostmarkServerToken: getEnv("POSTMARK_SERVER_TOKEN", ""),
		EmailFrom:           getEnv("EMAIL_FROM", "hello@pawclub.app"),
		AppBaseURL:          getEnv("APP_BASE_URL", "http://localhost:5173"),

		LogLevel: getEnv("LOG_LEVEL", "info"),

		KafkaBrokers:           getEnv("KAFKA_BROKERS", "kafka:9092"),
		KafkaClientID:          getEnv("KAFKA_CLIENT_ID", "pawclub-functions"),
		KafkaGroupID:           getEnv("KAFKA_GROUP_ID", "pawclub-side-effects"),
		KafkaRetryGroupID:      getEnv("KAFKA_RETRY_GROUP_ID", "pawclub-side-effects-retry"),
		KafkaTopicPartitions:   getEnv("KAFKA_TOPIC_PARTITIONS", "3"),
		KafkaRetryPartitions:   getEnv("KAFKA_RETRY_PARTITIONS", "1"),
		KafkaReplicationFactor: getEnv("KAFKA_REPLICATION_FACTOR", "1"),
		KafkaMaxAttempts:       getEnv("KAFKA_MAX_ATTEMPTS", "5"),
		EventDrivenEnabled:     getEnv("EVENT_DRIVEN_ENABLED", "false"),

		SchedulerEnabled:  getEnv("SCHEDULER_ENABLED", "false"),
		SchedulerInterval: getEnv("SCHEDULER_INTERVAL", "24h"),

		ExpiryGraceDays: getEnv("EXPIRY_GRACE_DAYS", "7"),
		PageSize:        getEnv("PAGE_SIZE", "1000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (c *Config) TopicPartitions() int {
	return parseInt(c.KafkaTopicPartitions, 3)
}

func (c *Config) RetryPartitions() int {
	return parseInt(c.KafkaRetryPartitions, 1)
}

func (c *Config) ReplicationFactor() int16 {
	value := parseInt(c.KafkaReplicationFactor, 1)
	return int16(value)
}

func (c *Config) MaxAttempts() int {
	return parseInt(c.KafkaMaxAttempts, 5)
}

func (c *Config) EventDriven() bool {
	return parseBool(c.EventDrivenEnabled)
}

func (c *Config) Scheduler() bool {
	return parseBool(c.SchedulerEnabled)
}

func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.SchedulerInterval)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

func (c *Config) GracePeriod() time.Duration {
	return time.Duration(parseInt(c.ExpiryGraceDays, 7)) * 24 * time.Hour
}

func (c *Config) Pagination() int {
	return parseInt(c.PageSize, 1000)
}

func parseInt(value string, fallback int) int {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	b, err := strconv.ParseBool(value)
	return err == nil && b
}
