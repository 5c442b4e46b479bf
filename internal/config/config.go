package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	NodeID      int64

	AuthJWTSecret    string
	AuthTokenTTL     time.Duration
	AuthCookieName   string
	AuthCookieDomain string
	// AuthCookieSecure is nil when unset; production then forces secure cookies.
	AuthCookieSecure *bool

	LogLevel  string
	LogFormat string

	OtelEnabled          bool
	OtelExporterEndpoint string
	OtelExporterProtocol string
	OtelSamplingRatio    float64

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBPath            string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int
	DBAutoMigrate     bool
	DBSlowQuery       time.Duration
	DBLogQueries      bool

	BootstrapOrgID         int64
	BootstrapAdminName     string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LoginRateLimitEnabled bool
	LoginRatePerMinute    float64
	LoginBurst            int

	StripeWebhookSecret string

	CallsAPIBaseURL string
	CallsAPIKey     string
	CallsAPITimeout time.Duration

	SchedulerEnabled   bool
	SchedulerInterval  time.Duration
	SchedulerJobs      []string
	SchedulerBatchSize int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	cfg := Config{
		AppName:     getenv("APP_SERVICE", "fyxed"),
		AppVersion:  getenv("APP_VERSION", "0.1.0"),
		Environment: getenv("ENVIRONMENT", "development"),
		HTTPAddr:    getenv("HTTP_ADDR", ":8080"),
		NodeID:      int64(getenvInt("SNOWFLAKE_NODE_ID", 1)),

		AuthJWTSecret:    strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
		AuthTokenTTL:     getenvDuration("AUTH_TOKEN_TTL", 12*time.Hour),
		AuthCookieName:   strings.TrimSpace(getenv("AUTH_COOKIE_NAME", "")),
		AuthCookieDomain: strings.TrimSpace(getenv("AUTH_COOKIE_DOMAIN", "")),
		AuthCookieSecure: getenvOptionalBool("AUTH_COOKIE_SECURE"),

		LogLevel:  strings.ToLower(strings.TrimSpace(getenv("LOG_LEVEL", "info"))),
		LogFormat: strings.ToLower(strings.TrimSpace(getenv("LOG_FORMAT", "json"))),

		OtelEnabled:          getenvBool("OTEL_ENABLED", false),
		OtelExporterEndpoint: strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")),
		OtelExporterProtocol: strings.ToLower(strings.TrimSpace(getenv("OTEL_EXPORTER_OTLP_PROTOCOL", "grpc"))),
		OtelSamplingRatio:    getenvFloat("OTEL_SAMPLING_RATIO", 0.1),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "fyxed"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBPath:            getenv("DATABASE_PATH", "fyxed.db"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 10),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 50),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 300),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 60),
		DBAutoMigrate:     getenvBool("DATABASE_AUTO_MIGRATE", false),
		DBSlowQuery:       getenvDuration("DATABASE_SLOW_QUERY", 200*time.Millisecond),
		DBLogQueries:      getenvBool("DATABASE_LOG_QUERIES", false),

		BootstrapOrgID:         int64(getenvInt("BOOTSTRAP_ORG_ID", 1)),
		BootstrapAdminName:     getenv("BOOTSTRAP_ADMIN_NAME", "Fyxed Admin"),
		BootstrapAdminEmail:    strings.TrimSpace(getenv("BOOTSTRAP_ADMIN_EMAIL", "")),
		BootstrapAdminPassword: getenv("BOOTSTRAP_ADMIN_PASSWORD", ""),

		RedisAddr:     strings.TrimSpace(getenv("REDIS_ADDR", "")),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		LoginRateLimitEnabled: getenvBool("LOGIN_RATE_LIMIT_ENABLED", true),
		LoginRatePerMinute:    getenvFloat("LOGIN_RATE_PER_MINUTE", 10),
		LoginBurst:            getenvInt("LOGIN_RATE_BURST", 5),

		StripeWebhookSecret: strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),

		CallsAPIBaseURL: strings.TrimRight(strings.TrimSpace(getenv("CALLS_API_BASE_URL", "")), "/"),
		CallsAPIKey:     strings.TrimSpace(getenv("CALLS_API_KEY", "")),
		CallsAPITimeout: getenvDuration("CALLS_API_TIMEOUT", 10*time.Second),

		SchedulerEnabled:   getenvBool("SCHEDULER_ENABLED", true),
		SchedulerInterval:  getenvDuration("SCHEDULER_INTERVAL", time.Minute),
		SchedulerJobs:      parseList(getenv("SCHEDULER_JOBS", "")),
		SchedulerBatchSize: getenvInt("SCHEDULER_BATCH_SIZE", 100),
	}

	return cfg
}

// IsProduction reports whether the process runs in the production environment.
func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvOptionalBool(key string) *bool {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return nil
	}
	value := getenvBool(key, false)
	return &value
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvDuration(key string, def time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
