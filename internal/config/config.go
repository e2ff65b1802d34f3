package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port string

	Store        string // memory | redis | sqlite | postgres | mysql
	RedisURL     string
	RedisTTL     time.Duration
	DatabasePath string
	DatabaseURL  string

	RetryMax        int
	RetryMaxElapsed time.Duration

	IdentityMode string // id | name
	GameIDStyle  string // uuid | code

	DevMode   bool
	LogFormat string // console | json
	LogLevel  string

	ExportEnabled  bool
	ExportFile     string
	MetricsEnabled bool
}

// Load reads a .env file if one exists and then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Msg(".env file could not be loaded")
	}
	return FromEnv()
}

func FromEnv() Config {
	c := Config{}
	c.Port = getenv("PORT", "8080")
	c.Store = strings.ToLower(getenv("STORE", "memory"))
	c.RedisURL = os.Getenv("REDIS_URL")
	c.RedisTTL = getduration("REDIS_TTL", 0)
	c.DatabasePath = getenv("DATABASE_PATH", "./storychain.db")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	c.RetryMax = getint("STORE_RETRY_MAX", 8)
	c.RetryMaxElapsed = getduration("STORE_RETRY_MAX_ELAPSED", 2*time.Second)
	c.IdentityMode = strings.ToLower(getenv("IDENTITY_MODE", "id"))
	c.GameIDStyle = strings.ToLower(getenv("GAME_ID_STYLE", "uuid"))
	c.DevMode = getbool("DEV_MODE", false)
	c.LogFormat = getenv("LOG_FORMAT", "console")
	c.LogLevel = getenv("LOG_LEVEL", "info")
	c.ExportEnabled = getbool("EXPORT_ENABLED", false)
	c.ExportFile = getenv("EXPORT_FILE", "./storychain-stories.txt")
	c.MetricsEnabled = getbool("METRICS_ENABLED", true)
	return c
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid boolean, using default")
		return def
	}
	return b
}

func getint(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid integer, using default")
		return def
	}
	return n
}

func getduration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Str("key", k).Str("value", v).Msg("invalid duration, using default")
		return def
	}
	return d
}
