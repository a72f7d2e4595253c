// Package config loads process configuration from the environment, the
// way the teacher repo's internal/config does — a flat struct, one
// Load() call at startup, getEnv/getEnvInt/getEnvBool/getEnvInt64 helpers.
package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr          string
	WSReadBufferSize  int
	WSWriteBufferSize int

	DBDSN     string
	RedisAddr string
	RedisDB   int

	JWTSecret  string
	PromAddr   string
	TraceStdout bool

	AMQPURL string

	MaxPlayers       int
	DBIntervalMS     int64
	HotIntervalMS    int64
	HotCacheTTL      time.Duration
	JoinTimeout      time.Duration
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	return Config{
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		WSReadBufferSize:  getEnvInt("WS_READ_BUFFER", 4096),
		WSWriteBufferSize: getEnvInt("WS_WRITE_BUFFER", 4096),

		DBDSN:     getEnv("DB_DSN", "root:password@tcp(localhost:3316)/quizbattle?parseTime=true&multiStatements=true&charset=utf8mb4&collation=utf8mb4_unicode_ci"),
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6389"),
		RedisDB:   getEnvInt("REDIS_DB", 0),

		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change"),
		PromAddr:    getEnv("PROM_ADDR", ":9090"),
		TraceStdout: getEnvBool("TRACE_STDOUT", true),

		AMQPURL: getEnv("AMQP_URL", ""),

		MaxPlayers:    getEnvInt("MAX_PLAYERS", 20),
		DBIntervalMS:  getEnvInt64("DB_INTERVAL_MS", 3500),
		HotIntervalMS: getEnvInt64("HOT_INTERVAL_MS", 750),
		HotCacheTTL:   time.Duration(getEnvInt("HOT_CACHE_TTL_HOURS", 12)) * time.Hour,
		JoinTimeout:   time.Duration(getEnvInt("JOIN_TIMEOUT_SEC", 8)) * time.Second,
	}
}
