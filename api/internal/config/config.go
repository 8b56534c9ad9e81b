package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port string

	GeminiAPIKey string
	GeminiModel  string
	MaxRetries   int

	AttestURL    string
	AttestSecret string

	DatabaseURL   string
	CacheTTLHours int

	// bot front-end
	TelegramBotToken string
	YCOAuthToken     string
	YCFolderID       string
	AnalyzerURL      string
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing required env %s", k)
	}
	return v
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

// Load reads every knob; entry points enforce their own required keys
// (the bot does not need a Gemini key, the analyzer does not need a
// Telegram token).
func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8000"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		MaxRetries:   getEnvInt("MAX_RETRIES", 4),

		AttestURL:    os.Getenv("ATTEST_URL"),
		AttestSecret: os.Getenv("ATTEST_SECRET"),

		DatabaseURL:   os.Getenv("DATABASE_URL"),
		CacheTTLHours: getEnvInt("CACHE_TTL_HOURS", 24),

		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		YCOAuthToken:     os.Getenv("YC_OAUTH_TOKEN"),
		YCFolderID:       os.Getenv("YC_FOLDER_ID"),
		AnalyzerURL:      getEnv("ANALYZER_URL", "http://localhost:8000"),
	}
}

// MustServer validates the keys the analyzer server cannot run without.
func (c *Config) MustServer() *Config {
	if c.GeminiAPIKey == "" {
		mustEnv("GEMINI_API_KEY")
	}
	return c
}

// MustBot validates the keys the bot front-end cannot run without.
func (c *Config) MustBot() *Config {
	if c.TelegramBotToken == "" {
		mustEnv("TELEGRAM_BOT_TOKEN")
	}
	if c.YCOAuthToken == "" {
		mustEnv("YC_OAUTH_TOKEN")
	}
	if c.YCFolderID == "" {
		mustEnv("YC_FOLDER_ID")
	}
	return c
}
