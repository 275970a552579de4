package config // package config loads application configuration from environment variables

import (
    "log"     // log is used to report configuration errors and halt execution
    "os"      // os provides access to environment variables
    "strconv" // strconv converts strings to other types
    "time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    SessionSecret string // secret used to sign session tokens
    SessionTTLMin int    // session lifetime in minutes
    CookieSecure  bool   // mark the session cookie Secure (HTTPS only)
    BcryptCost    int    // bcrypt cost for password hashing
    AMQPURL       string // RabbitMQ URL; empty disables booking events
    BookingLogDir string // directory the booking event consumer writes to
    Seed          SeedConfig
    Pricing       Pricing
}

// SeedConfig controls the demo data inserted at startup.
type SeedConfig struct {
    Enabled       bool      // insert theatres, movies, showtimes and accounts
    Days          int       // number of days of showtimes to generate
    From          time.Time // first day of generated showtimes (UTC midnight)
    AdminPassword string    // password of the seeded admin account
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
    return Config{
        Env:           must("APP_ENV"),              // environment (dev/test/prod)
        Port:          must("APP_PORT"),             // port to bind the HTTP server
        DBUser:        must("DB_USER"),              // database user
        DBPass:        os.Getenv("DB_PASS"),         // database password (empty allowed)
        DBHost:        must("DB_HOST"),              // database host
        DBPort:        must("DB_PORT"),              // database port
        DBName:        must("DB_NAME"),              // database name
        SessionSecret: must("SESSION_SECRET"),       // secret used for signing sessions
        SessionTTLMin: mustInt("SESSION_TTL_MIN"),   // session lifetime in minutes
        CookieSecure:  envBool("COOKIE_SECURE", false),
        BcryptCost:    mustInt("BCRYPT_COST"),       // bcrypt cost factor
        AMQPURL:       os.Getenv("AMQP_URL"),        // optional message broker
        BookingLogDir: envStr("BOOKING_LOG_DIR", "logs"),
        Seed:          LoadSeedConfig(),
        Pricing:       mustPricing(),
    }
}

// LoadSeedConfig reads the SEED_* variables.  SEED_FROM accepts a
// YYYY-MM-DD day; when unset the window starts today.
func LoadSeedConfig() SeedConfig {
    from := time.Now().UTC().Truncate(24 * time.Hour)
    if s := os.Getenv("SEED_FROM"); s != "" {
        d, err := time.Parse("2006-01-02", s)
        if err != nil {
            log.Fatalf("invalid date for SEED_FROM: %q", s)
        }
        from = d
    }
    days := envInt("SEED_DAYS", 14)
    if days < 1 {
        days = 1
    }
    return SeedConfig{
        Enabled:       envBool("SEED_ENABLED", true),
        Days:          days,
        From:          from,
        AdminPassword: envStr("ADMIN_PASSWORD", "admin1234"),
    }
}

func mustPricing() Pricing {
    p, err := LoadPricing()
    if err != nil {
        log.Fatalf("invalid price table: %v", err)
    }
    return p
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

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
