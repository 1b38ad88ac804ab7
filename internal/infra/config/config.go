package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	Port        string
	APIBasePath string
	CORSOrigin  string
	LogLevel    string
	Environment string

	DatabaseURL string // Built from DB_* parts when DATABASE_URL is unset
	DBSync      bool   // Best-effort schema sync on boot

	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration
	DBConnMaxIdleTime time.Duration

	StatsCronSpec string // Empty disables the inventory gauges job
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.Port = getEnv("PORT", "8080")
	cfg.APIBasePath = "/" + strings.Trim(getEnv("API_BASE_PATH", "/api"), "/")
	if cfg.APIBasePath == "/" {
		cfg.APIBasePath = ""
	}
	cfg.CORSOrigin = getEnv("CORS_ORIGIN", "*")

	cfg.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getEnv("ENVIRONMENT", "development"))

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL, err = dsnFromParts()
		if err != nil {
			return nil, err
		}
	}

	if cfg.DBSync, err = getBool("DB_SYNC", true); err != nil {
		return nil, err
	}
	if cfg.DBMaxOpenConns, err = getInt("DB_MAX_OPEN_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBMaxIdleConns, err = getInt("DB_MAX_IDLE_CONNS", 5); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxLifetime, err = getDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute); err != nil {
		return nil, err
	}
	if cfg.DBConnMaxIdleTime, err = getDuration("DB_CONN_MAX_IDLE_TIME", 10*time.Second); err != nil {
		return nil, err
	}

	// Set but empty disables the job.
	if spec, ok := os.LookupEnv("STATS_CRON_SPEC"); ok {
		cfg.StatsCronSpec = strings.TrimSpace(spec)
	} else {
		cfg.StatsCronSpec = "@every 1m"
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *AppConfig) Addr() string {
	return ":" + c.Port
}

func dsnFromParts() (string, error) {
	host := os.Getenv("DB_HOST")
	user := os.Getenv("DB_USER")
	name := os.Getenv("DB_NAME")
	if host == "" || user == "" || name == "" {
		return "", fmt.Errorf("DATABASE_URL is not set and DB_HOST, DB_USER, DB_NAME are incomplete")
	}

	parts := []string{
		"host=" + quoteDSN(host),
		"port=" + quoteDSN(getEnv("DB_PORT", "5432")),
		"user=" + quoteDSN(user),
		"dbname=" + quoteDSN(name),
		"sslmode=" + quoteDSN(getEnv("DB_SSLMODE", "disable")),
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		parts = append(parts, "password="+quoteDSN(password))
	}
	return strings.Join(parts, " "), nil
}

// quoteDSN quotes a value for the lib/pq key=value connection string format.
func quoteDSN(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
