package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port         int
	LogLevel     string
	GeminiAPIKey string
	GeminiModel  string
	CallbackURL  string
	NatsURL      string
	NatsToken    string
	DatabaseURL  string
}

func Load() Config {
	return Config{
		Port:         envInt("PORT", 8080),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		GeminiAPIKey: envStr("GEMINI_API_KEY", ""),
		GeminiModel:  envStr("TRAPLINE_MODEL", "gemini-2.0-flash"),
		CallbackURL:  envStr("CALLBACK_URL", "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
		DatabaseURL:  envStr("DATABASE_URL", ""),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
