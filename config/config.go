package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

var (
	MongoURI      string
	MongoDatabase string
	Port          string

	GeminiAPIKey            string
	GeminiImageModel        string
	GeminiChatModel         string
	GeminiRequestsPerMinute int
	GenerationTimeoutSecs   int

	JWTSecret        string
	SessionTTLHours  int
	SessionCacheSize int

	AWSRegion     string
	AWSBucketName string

	LinkPreviewBrowser bool
	MaxUploadMB        int

	LogLevel  string
	LogFormat string
)

// LoadConfig loads environment variables from .env file
func LoadConfig() {
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found, using default values or system environment variables")
	}

	MongoURI = getEnv("MONGO_URI", "mongodb://localhost:27017/")
	MongoDatabase = getEnv("MONGO_DATABASE", "visionai")
	Port = getEnv("PORT", "8080")

	// API_KEY is what the hosted studio injects; GEMINI_API_KEY wins when both are set.
	GeminiAPIKey = getEnv("GEMINI_API_KEY", os.Getenv("API_KEY"))
	GeminiImageModel = getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image")
	GeminiChatModel = getEnv("GEMINI_CHAT_MODEL", "gemini-2.5-flash")
	GeminiRequestsPerMinute = getEnvInt("GEMINI_REQUESTS_PER_MINUTE", 30)
	GenerationTimeoutSecs = getEnvInt("GENERATION_TIMEOUT_SECONDS", 300)

	JWTSecret = os.Getenv("JWT_SECRET")
	SessionTTLHours = getEnvInt("SESSION_TTL_HOURS", 24)
	SessionCacheSize = getEnvInt("SESSION_CACHE_SIZE", 256)

	AWSRegion = getEnv("AWS_REGION", "ap-south-1")
	AWSBucketName = os.Getenv("AWS_BUCKET_NAME")

	LinkPreviewBrowser = getEnvBool("LINK_PREVIEW_BROWSER", false)
	MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", 10)

	LogLevel = getEnv("LOG_LEVEL", "info")
	LogFormat = getEnv("LOG_FORMAT", "text")
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logrus.WithField("key", key).Warnf("invalid integer %q, using %d", v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
