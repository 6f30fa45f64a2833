package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application runtime configuration.
type Config struct {
	Env                      string
	HTTPPort                 string
	DatabaseURL              string
	DBMaxConns               int32
	DefaultCurrency          string
	JWTSecret                string
	AllowedOrigins           []string
	WaybillBaseline          int64
	WaybillMaxAttempts       int
	EnforceStatusTransitions bool
	AutoMigrate              bool
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	IdleTimeout              time.Duration
	ShutdownTimeout          time.Duration
}

// Load reads environment variables and .env (if present).
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Env:                      getEnv("APP_ENV", "development"),
		HTTPPort:                 getEnv("HTTP_PORT", "5000"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),
		DBMaxConns:               int32(getInt("DB_MAX_CONNS", 10)),
		DefaultCurrency:          getEnv("CURRENCY_CODE", "KES"),
		JWTSecret:                os.Getenv("JWT_SECRET"),
		AllowedOrigins:           getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3001"}),
		WaybillBaseline:          int64(getInt("WAYBILL_BASELINE", 10000)),
		WaybillMaxAttempts:       getInt("WAYBILL_MAX_ATTEMPTS", 5),
		EnforceStatusTransitions: getBool("ENFORCE_STATUS_TRANSITIONS", false),
		AutoMigrate:              getBool("AUTO_MIGRATE", true),
		ReadTimeout:              getDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:             getDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:              getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout:          getDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.DatabaseURL == "" {
		return cfg, errors.New("DATABASE_URL is required")
	}
	if cfg.WaybillMaxAttempts < 1 {
		cfg.WaybillMaxAttempts = 1
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}

func getList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		// Support seconds as integer without suffix.
		if secs, convErr := strconv.Atoi(val); convErr == nil {
			return time.Duration(secs) * time.Second
		}
		return fallback
	}
	return d
}
