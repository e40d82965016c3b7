// internal/config/config.go
//
// Runtime configuration for the memory server and terminal client.
//
// Load reads a `.env` file when present (development), then decodes the
// process environment into Config. Unset keys keep their defaults; values
// are weakly typed, so BOARD_ROWS=4 decodes into an int.
//
// Environment variables:
//   PORT, LOG_LEVEL, APP_ENV
//   DB_DRIVER (sqlite3|mysql), DB_DSN
//   SCORES_BACKEND (sql|redis), REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//   BOARD_ROWS, BOARD_COLS, ROUND_SECONDS, FACES_FILE, DAILY_SALT
//   JWT_SECRET, JWT_EXPIRES_DAYS, COOKIE_NAME, CLIENT_ORIGIN
//   SESSION_TTL (Go duration), SCORES_URL (terminal client)

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// Config holds every tunable setting.
type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	AppEnv   string `mapstructure:"APP_ENV"`

	DBDriver string `mapstructure:"DB_DRIVER"`
	DBDSN    string `mapstructure:"DB_DSN"`

	ScoresBackend string `mapstructure:"SCORES_BACKEND"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	BoardRows    int    `mapstructure:"BOARD_ROWS"`
	BoardCols    int    `mapstructure:"BOARD_COLS"`
	RoundSeconds int    `mapstructure:"ROUND_SECONDS"`
	FacesFile    string `mapstructure:"FACES_FILE"`
	DailySalt    string `mapstructure:"DAILY_SALT"`

	JWTSecret      string        `mapstructure:"JWT_SECRET"`
	JWTExpiresDays int           `mapstructure:"JWT_EXPIRES_DAYS"`
	CookieName     string        `mapstructure:"COOKIE_NAME"`
	ClientOrigin   string        `mapstructure:"CLIENT_ORIGIN"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`

	ScoresURL string `mapstructure:"SCORES_URL"`
}

// Default returns the settings used when nothing is configured:
// a 4x7 board over 2 minutes, SQLite storage under ./data.
func Default() Config {
	return Config{
		Port:           "5175",
		LogLevel:       "info",
		AppEnv:         "development",
		DBDriver:       "sqlite3",
		DBDSN:          "./data/memory.db",
		ScoresBackend:  "sql",
		RedisAddr:      "localhost:6379",
		BoardRows:      4,
		BoardCols:      7,
		RoundSeconds:   120,
		DailySalt:      "local_dev_salt",
		JWTSecret:      "dev_secret_change_me",
		JWTExpiresDays: 14,
		CookieName:     "memory_token",
		ClientOrigin:   "http://localhost:5173",
		SessionTTL:     30 * time.Minute,
		ScoresURL:      "http://localhost:5175",
	}
}

// Production reports whether cookies should be Secure/SameSite=None.
func (c Config) Production() bool { return c.AppEnv == "production" }

// Load reads .env (if any) and the environment over the defaults.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromEnv(environ())
}

// FromEnv decodes env over the defaults.
func FromEnv(env map[string]string) (Config, error) {
	cfg := Default()
	// Empty values keep the default.
	in := make(map[string]interface{}, len(env))
	for k, v := range env {
		if v != "" {
			in[k] = v
		}
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		DecodeHook:       durationHook,
	})
	if err != nil {
		return cfg, err
	}
	if err := dec.Decode(in); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.ScoresBackend {
	case "sql", "redis":
	default:
		return cfg, fmt.Errorf("SCORES_BACKEND %q: want sql or redis", cfg.ScoresBackend)
	}
	switch cfg.DBDriver {
	case "sqlite3", "mysql":
	default:
		return cfg, fmt.Errorf("DB_DRIVER %q: want sqlite3 or mysql", cfg.DBDriver)
	}
	return cfg, nil
}

var durationHook = mapstructure.StringToTimeDurationHookFunc()

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}
