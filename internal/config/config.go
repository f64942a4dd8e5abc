package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strings" // strings normalises driver names
	"time"    // time resolves the booking time zone
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // application environment (e.g. "development", "production")
	Port string // HTTP port to listen on

	DBDriver  string // "mysql", "postgres" or "memory"
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	DBSSLMode string // postgres sslmode (default "disable")
	DBMigrate bool   // create missing tables at startup

	JWTSecret string // secret used to verify access tokens issued by the auth service

	TimeZone      *time.Location // zone in which "today" is evaluated for stay dates
	ExtraHolidays string         // MM-DD list added to the built-in holiday calendar

	RabbitMQURL           string // broker URL for lifecycle events
	EventsEnabled         bool   // publish lifecycle events to RabbitMQ
	EventsConsumerEnabled bool   // run the in-process consumer writing logs/booking.log
	EventsLogPath         string // file the consumer appends to
}

// UsesSQL reports whether the configured driver needs a database connection.
func (c Config) UsesSQL() bool { return c.DBDriver != "memory" }

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The DB_* connection
// variables are only required when DB_DRIVER names a SQL database.
func Load() Config {
	cfg := Config{
		Env:       getenv("APP_ENV", "development"),              // environment
		Port:      must("APP_PORT"),                              // port to bind the HTTP server
		DBDriver:  strings.ToLower(getenv("DB_DRIVER", "mysql")), // storage backend
		JWTSecret: must("JWT_SECRET"),                            // secret used for verifying JWTs

		TimeZone:      mustLocation("BOOKING_TIMEZONE"),
		ExtraHolidays: os.Getenv("PRICING_EXTRA_HOLIDAYS"),

		RabbitMQURL:           rabbitURL(),
		EventsEnabled:         envBool("EVENTS_ENABLED", false),
		EventsConsumerEnabled: envBool("EVENTS_CONSUMER_ENABLED", false),
		EventsLogPath:         getenv("EVENTS_LOG_PATH", "logs/booking.log"),
	}
	switch cfg.DBDriver {
	case "memory":
	case "mysql", "postgres":
		cfg.DBUser = must("DB_USER")            // database user
		cfg.DBPass = os.Getenv("DB_PASS")       // database password (empty allowed)
		cfg.DBHost = must("DB_HOST")            // database host
		cfg.DBPort = must("DB_PORT")            // database port
		cfg.DBName = must("DB_NAME")            // database name
		cfg.DBSSLMode = os.Getenv("DB_SSLMODE") // postgres only
		cfg.DBMigrate = envBool("DB_MIGRATE", false)
	default:
		log.Fatalf("unsupported DB_DRIVER: %q", cfg.DBDriver)
	}
	return cfg
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustLocation resolves an IANA zone name; unset means UTC.
func mustLocation(key string) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Fatalf("invalid time zone for %s: %q", key, name)
	}
	return loc
}

// rabbitURL honours RABBITMQ_URL, then AMQP_URL.  Empty lets the queue
// package fall back to its local default.
func rabbitURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return os.Getenv("AMQP_URL")
}
