package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "API_KEY", "PORT", "GEMINI_REQUESTS_PER_MINUTE", "LINK_PREVIEW_BROWSER", "MONGO_DATABASE"} {
		t.Setenv(k, "")
	}

	LoadConfig()

	assert.Equal(t, "8080", Port)
	assert.Equal(t, "visionai", MongoDatabase)
	assert.Equal(t, "gemini-2.5-flash-image", GeminiImageModel)
	assert.Equal(t, "gemini-2.5-flash", GeminiChatModel)
	assert.Equal(t, 30, GeminiRequestsPerMinute)
	assert.False(t, LinkPreviewBrowser)
	assert.Empty(t, GeminiAPIKey)
}

func TestLoadConfigAPIKeyFallback(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "studio-key")
	LoadConfig()
	assert.Equal(t, "studio-key", GeminiAPIKey)

	t.Setenv("GEMINI_API_KEY", "explicit-key")
	LoadConfig()
	assert.Equal(t, "explicit-key", GeminiAPIKey)
}

func TestLoadConfigInvalidNumbersFallBack(t *testing.T) {
	t.Setenv("GEMINI_REQUESTS_PER_MINUTE", "lots")
	t.Setenv("SESSION_CACHE_SIZE", "-4")
	t.Setenv("LINK_PREVIEW_BROWSER", "true")

	LoadConfig()

	assert.Equal(t, 30, GeminiRequestsPerMinute)
	assert.Equal(t, 256, SessionCacheSize)
	assert.True(t, LinkPreviewBrowser)
}
