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
	ModelProvider   string
	AnthropicAPIKey string
	AnthropicModel  string
	OpenAIAPIKey    string
	OpenAIModel     string
	AITimeout       time.Duration
	QuestionCount   int
	Port            string
	DBPath          string
	SessionTTL      time.Duration
	CommentEndpoint string
	CORSOrigins     []string
	MaxUploadSize   int64
	LogLevel        string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		ModelProvider:   getEnv("MODEL_PROVIDER", "anthropic"),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		AnthropicModel:  getEnv("ANTHROPIC_MODEL", "claude-3-5-sonnet-20241022"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:       getEnvDuration("AI_TIMEOUT", 20*time.Second),
		QuestionCount:   getEnvInt("QUIZ_QUESTION_COUNT", 3),
		Port:            getEnv("PORT", "8080"),
		DBPath:          getEnv("DB_PATH", "./storage/coursebuilder.db"),
		SessionTTL:      getEnvDuration("SESSION_TTL", 2*time.Hour),
		CommentEndpoint: getEnv("COMMENT_ENDPOINT", "https://jsonplaceholder.typicode.com/posts"),
		CORSOrigins:     getEnvList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
		MaxUploadSize:   int64(getEnvInt("MAX_UPLOAD_SIZE", 52428800)), // 50MB default
		LogLevel:        getEnv("LOG_LEVEL", "info"),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", value).Dur("default", defaultValue).Msg("Invalid duration, using default")
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		log.Warn().Str("key", key).Str("value", value).Int("default", defaultValue).Msg("Invalid number, using default")
		return defaultValue
	}
	return n
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
