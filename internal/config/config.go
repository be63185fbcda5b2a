package config // package config loads application configuration from environment variables

import (
    "fmt"
    "os"
    "strings"

    "github.com/joho/godotenv"

    "github.com/iliyamo/campus-marketplace/internal/database"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable; nested structs group the settings of one
// subsystem.
type Config struct {
    Env            string           // application environment (e.g. "dev", "prod")
    Port           string           // HTTP port to listen on
    LogLevel       string           // zerolog level name
    DB             database.Options // driver and connection settings
    AutoMigrate    bool             // create tables on startup
    JWTSecret      string           // secret used to verify identity tokens
    Queue          QueueConfig
    MetricsEnabled bool // expose /metrics
}

// QueueConfig configures the RabbitMQ payment settlement consumer.
type QueueConfig struct {
    URL             string
    PaymentQueue    string
    ConsumerEnabled bool
}

// IsDev reports whether the service runs in a development environment.
func (c Config) IsDev() bool {
    switch strings.ToLower(c.Env) {
    case "dev", "development", "local", "test":
        return true
    }
    return false
}

// LoadDotEnv loads variables from the given .env files (default ".env")
// without overriding variables already set.  Missing files are ignored.
func LoadDotEnv(files ...string) {
    if len(files) == 0 {
        files = []string{".env"}
    }
    for _, f := range files {
        if _, err := os.Stat(f); err == nil {
            _ = godotenv.Load(f)
        }
    }
}

// Load reads configuration values from environment variables.  Every
// missing required variable is reported in the returned error.
func Load() (Config, error) {
    var missing []string
    must := func(key string) string {
        v, ok := os.LookupEnv(key)
        if !ok || v == "" {
            missing = append(missing, key)
        }
        return v
    }

    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", "8080"),
        LogLevel:       envStr("LOG_LEVEL", "info"),
        AutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
        JWTSecret:      must("JWT_SECRET"),
        MetricsEnabled: envBool("METRICS_ENABLED", true),
        Queue: QueueConfig{
            URL:             firstEnv("RABBITMQ_URL", "AMQP_URL"),
            PaymentQueue:    envStr("PAYMENT_QUEUE", "payment.settled"),
            ConsumerEnabled: envBool("PAYMENT_CONSUMER_ENABLED", true),
        },
    }

    cfg.DB.Driver = envStr("DB_DRIVER", database.DriverMySQL)
    switch cfg.DB.Driver {
    case database.DriverMySQL:
        cfg.DB.User = must("DB_USER")
        cfg.DB.Pass = os.Getenv("DB_PASS") // empty allowed
        cfg.DB.Host = must("DB_HOST")
        cfg.DB.Port = must("DB_PORT")
        cfg.DB.Name = must("DB_NAME")
    case database.DriverSQLite:
        cfg.DB.Path = envStr("DB_PATH", "campus.db")
    default:
        return cfg, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DB.Driver)
    }

    if len(missing) > 0 {
        return cfg, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
    }
    return cfg, nil
}

func firstEnv(keys ...string) string {
    for _, k := range keys {
        if v := os.Getenv(k); v != "" {
            return v
        }
    }
    return ""
}
