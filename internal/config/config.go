package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds the runtime configuration of the API server. Each field
// corresponds to an environment variable.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	DBMigrate      bool   // create missing tables at startup
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time‑to‑live in minutes
	RefreshTTLDays int    // refresh token time‑to‑live in days
	BcryptCost     int    // bcrypt cost for password hashing

	AMQPURL         string // RabbitMQ url; events are not published when empty
	AuditLogPath    string // file the availability consumer appends to
	ConsumerEnabled bool   // run the audit consumer inside the server process
}

// Load reads configuration values from environment variables and returns a
// Config. Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		DBMigrate:      envBool("DB_MIGRATE", false),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		AMQPURL:         amqpURL(),
		AuditLogPath:    envStr("AUDIT_LOG_PATH", "logs/availability.log"),
		ConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", true),
	}
}

// amqpURL accepts RABBITMQ_URL with AMQP_URL as a fallback.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}

// ClientConfig configures the calendar CLI. Flags override every field.
type ClientConfig struct {
	BaseURL  string        // CALENDAR_API_URL, e.g. http://localhost:8080/api
	Timeout  time.Duration // CALENDAR_API_TIMEOUT
	Retries  int           // CALENDAR_API_RETRIES
	Email    string        // CALENDAR_EMAIL
	Password string        // CALENDAR_PASSWORD
}

// LoadClient reads the CLI configuration. Nothing is required here; the
// CLI reports missing credentials itself.
func LoadClient() ClientConfig {
	return ClientConfig{
		BaseURL:  envStr("CALENDAR_API_URL", "http://localhost:8080/api"),
		Timeout:  envDur("CALENDAR_API_TIMEOUT", 15*time.Second),
		Retries:  envInt("CALENDAR_API_RETRIES", 2),
		Email:    os.Getenv("CALENDAR_EMAIL"),
		Password: os.Getenv("CALENDAR_PASSWORD"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
