package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server  ServerConfig
	AWS     AWSConfig
	Redis   RedisConfig
	OpenAI  OpenAIConfig
	Titles  TitleConfig
	Enhance EnhanceConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	RateLimitPerMinute int    // per-IP request budget; 0 disables
	RateLimitBurst     int
}

// AWSConfig holds AWS credentials and S3 settings.
type AWSConfig struct {
	Region               string
	AccessKeyID          string
	SecretAccessKey      string
	CredentialsFile      string // CSV fallback (rootkey.csv export format)
	Bucket               string
	PresignExpireMinutes int
}

// RedisConfig holds Redis connection settings for the enhancement queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenAIConfig holds speech-to-text and title-model settings.
type OpenAIConfig struct {
	APIKey             string
	TitleModel         string
	TranscribeModel    string
	TranscribeLanguage string
}

// TitleConfig controls AI title generation for transcribed recordings.
type TitleConfig struct {
	Enabled     bool
	Temperature float64
	MaxTokens   int
	Prompt      string
}

// EnhanceConfig controls the fire-and-forget audio enhancement pipeline.
type EnhanceConfig struct {
	Enabled      bool
	OutputSuffix string // appended to the filename stem, e.g. "-enhanced"
	Overwrite    bool   // replace the source object instead of writing a sibling
	FFmpegPath   string
}

// DefaultTitlePrompt is the instruction sent to the title model ahead of the transcript.
const DefaultTitlePrompt = "Summarize the following transcript in 1 to 4 words. Return only the concise title."

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "3001"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 30),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 100),
			RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),
		},
		AWS: AWSConfig{
			Region:               getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:          getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:      getEnv("AWS_SECRET_ACCESS_KEY", ""),
			CredentialsFile:      getEnv("AWS_CREDENTIALS_FILE", "rootkey.csv"),
			Bucket:               getEnv("S3_BUCKET", ""),
			PresignExpireMinutes: getEnvInt("AWS_PRESIGN_EXPIRE_MINUTES", 15),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		OpenAI: OpenAIConfig{
			APIKey:             getEnv("OPENAI_API_KEY", ""),
			TitleModel:         getEnv("OPENAI_TITLE_MODEL", "gpt-4.1-mini"),
			TranscribeModel:    getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
			TranscribeLanguage: getEnv("OPENAI_TRANSCRIBE_LANGUAGE", "en"),
		},
		Titles: TitleConfig{
			Enabled:     getEnvBool("ENABLE_AI_TITLES", true),
			Temperature: getEnvFloat("AI_TITLE_TEMPERATURE", 0.2),
			MaxTokens:   getEnvInt("AI_TITLE_MAX_TOKENS", 20),
			Prompt:      getEnv("AI_TITLE_PROMPT", DefaultTitlePrompt),
		},
		Enhance: EnhanceConfig{
			Enabled:      getEnvBool("ENABLE_AUDIO_ENHANCEMENT", false),
			OutputSuffix: getEnv("AUDIO_ENHANCEMENT_OUTPUT_SUFFIX", "-enhanced"),
			Overwrite:    getEnvBool("AUDIO_ENHANCEMENT_OVERWRITE", false),
			FFmpegPath:   getEnv("FFMPEG_PATH", "ffmpeg"),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "":
		return fallback
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
