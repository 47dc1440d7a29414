package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	RefreshTokenSecret string // shared secret used to sign HS256 refresh tokens
	AccessTTLMin       int    // access token time‑to‑live in minutes
	RefreshTTLDays     int    // refresh token time‑to‑live in days
	BcryptCost         int    // bcrypt cost for password hashing
	CookieDomain       string // domain attribute for auth cookies
	Keys               KeyConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Optional values fall
// back to defaults matching the published API contract (1h access tokens,
// 30 day refresh tokens).
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),      // environment (dev/test/prod)
		Port:               must("APP_PORT"),     // port to bind the HTTP server
		DBUser:             must("DB_USER"),      // database user
		DBPass:             os.Getenv("DB_PASS"), // database password (empty allowed)
		DBHost:             must("DB_HOST"),      // database host
		DBPort:             must("DB_PORT"),      // database port
		DBName:             must("DB_NAME"),      // database name
		RefreshTokenSecret: must("REFRESH_TOKEN_SECRET"),
		AccessTTLMin:       atoi(getenv("ACCESS_TOKEN_TTL_MIN", "60")),
		RefreshTTLDays:     atoi(getenv("REFRESH_TOKEN_TTL_DAYS", "30")),
		BcryptCost:         atoi(getenv("BCRYPT_COST", "10")),
		CookieDomain:       getenv("COOKIE_DOMAIN", "localhost"),
		Keys:               loadKeyConfig(),
	}
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

// getenv returns the value of an environment variable or a default when the
// variable is unset or empty.
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// atoi converts a string to an int, exiting fatally on malformed input so a
// bad deployment is caught at startup rather than at first use.
func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int in config: %q", s)
	}
	return n
}
