package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the full process configuration, sourced from the environment
// (a local .env is honored when present).
type Config struct {
	Addr           string
	DatabaseURL    string
	StartCountdown time.Duration
	ActionTimeout  time.Duration
	GracePeriod    time.Duration
}

func Load() Config {
	_ = godotenv.Load() // absent .env is fine

	return Config{
		Addr:           envString("ADDR", ":3001"),
		DatabaseURL:    envString("DATABASE_URL", ""),
		StartCountdown: envSeconds("START_COUNTDOWN_SECONDS", 10*time.Second),
		ActionTimeout:  envSeconds("ACTION_TIMEOUT_SECONDS", 60*time.Second),
		GracePeriod:    envSeconds("ROOM_GRACE_PERIOD_SECONDS", 5*time.Minute),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return time.Duration(n) * time.Second
}
