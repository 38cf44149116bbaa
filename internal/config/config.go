package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the console.
type Config struct {
	App      AppConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Session  SessionConfig
	Routes   RoutesConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Stub     StubConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level       string
	Service     string
	Development bool
}

// AuthConfig points at the external auth endpoint.
type AuthConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// SessionConfig selects and configures the session store backend.
type SessionConfig struct {
	Driver   string
	FilePath string
	Slot     string
}

// RoutesConfig holds the fixed guard fallback locations.
type RoutesConfig struct {
	LoginLocation   string
	DefaultLocation string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// StubConfig configures the development auth endpoint.
type StubConfig struct {
	Host             string
	Port             string
	JWTSecret        string
	TokenTTLMinutes  int
	BcryptCost       int
	AdminEmail       string
	AdminPassword    string
	EmployeeEmail    string
	EmployeePassword string
}

// Store drivers accepted by SESSION_STORE_DRIVER.
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := strings.ToLower(getEnv("SESSION_STORE_DRIVER", DriverFile))
	switch driver {
	case DriverFile, DriverMemory, DriverRedis, DriverPostgres:
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE_DRIVER %q", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "asset-console"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "127.0.0.1"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Logger: LoggerConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Service:     getEnv("APP_NAME", "asset-console"),
			Development: getEnv("APP_ENV", "development") == "development",
		},
		Auth: AuthConfig{
			BaseURL:        strings.TrimRight(getEnv("AUTH_BASE_URL", "http://127.0.0.1:8080/api/v1"), "/"),
			TimeoutSeconds: getEnvAsInt("AUTH_TIMEOUT_SECONDS", 10),
		},
		Session: SessionConfig{
			Driver:   driver,
			FilePath: getEnv("SESSION_FILE_PATH", defaultSessionFile()),
			Slot:     getEnv("SESSION_SLOT", "token"),
		},
		Routes: RoutesConfig{
			LoginLocation:   getEnv("ROUTE_LOGIN_LOCATION", "/login"),
			DefaultLocation: getEnv("ROUTE_DEFAULT_LOCATION", "/my-assets"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "asset-console:session"),
		},
		Stub: StubConfig{
			Host:             getEnv("AUTHSTUB_HOST", "127.0.0.1"),
			Port:             getEnv("AUTHSTUB_PORT", "8080"),
			JWTSecret:        getEnv("AUTHSTUB_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes:  getEnvAsInt("AUTHSTUB_TOKEN_TTL_MINUTES", 60),
			BcryptCost:       getEnvAsInt("AUTHSTUB_BCRYPT_COST", 10),
			AdminEmail:       getEnv("AUTHSTUB_ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:    getEnv("AUTHSTUB_ADMIN_PASSWORD", "admin123"),
			EmployeeEmail:    getEnv("AUTHSTUB_EMPLOYEE_EMAIL", "employee@example.com"),
			EmployeePassword: getEnv("AUTHSTUB_EMPLOYEE_PASSWORD", "employee123"),
		},
	}

	if cfg.Session.Driver == DriverPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("POSTGRES_DSN required for postgres session store")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the auth endpoint call timeout.
func (a AuthConfig) Timeout() time.Duration {
	if a.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// Addr returns the stub's bind address.
func (s StubConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "asset-console", "session")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
