// Package config — конфигурация сервера из переменных окружения.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config содержит все настройки сервера.
type Config struct {
	Port           string
	AllowedOrigins []string

	// Внешний ответчик (LLM/RAG бэкенд)
	ResponderURL     string
	ResponderTimeout time.Duration

	// Внешний сервис расшифровки аудио
	TranscriberURL   string
	TranscriberKey   string
	TranscriberModel string

	// Каталог WooCommerce
	WooBaseURL        string
	WooConsumerKey    string
	WooConsumerSecret string
}

// Load читает .env (если есть) и собирает конфигурацию.
// Для каждого параметра есть разумное значение по умолчанию.
func Load() *Config {
	// .env необязателен: в продакшене переменные приходят из окружения
	_ = godotenv.Load()

	return &Config{
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		ResponderURL:     getEnv("RESPONDER_API_URL", "http://localhost:8000/api"),
		ResponderTimeout: getDuration("RESPONDER_API_TIMEOUT", 30*time.Second),

		TranscriberURL:   getEnv("TRANSCRIBER_API_URL", "https://api.openai.com/v1/audio/transcriptions"),
		TranscriberKey:   os.Getenv("TRANSCRIBER_API_KEY"),
		TranscriberModel: getEnv("TRANSCRIBER_MODEL", "whisper-1"),

		WooBaseURL:        getEnv("WOO_BASE_URL", "https://vogo.family"),
		WooConsumerKey:    os.Getenv("WOO_CONSUMER_KEY"),
		WooConsumerSecret: os.Getenv("WOO_CONSUMER_SECRET"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
