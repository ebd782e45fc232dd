package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilderKeepsOrder(t *testing.T) {
	parts, err := NewPromptBuilder().
		Image("source", EncodeDataURL([]byte("face"), "image/webp")).
		Image("reference", EncodeDataURL([]byte("glasses"), "image/png")).
		Text("overlay").
		Build()
	require.NoError(t, err)
	require.Len(t, parts, 3)

	assert.Equal(t, ImagePart{MimeType: "image/webp", Data: []byte("face")}, parts[0])
	assert.Equal(t, ImagePart{MimeType: "image/png", Data: []byte("glasses")}, parts[1])
	assert.Equal(t, TextPart{Text: "overlay"}, parts[2])
}

func TestPromptBuilderStopsAtFirstError(t *testing.T) {
	_, err := NewPromptBuilder().
		Image("source", "data:image/png;base64,!!").
		Text("never added").
		Build()
	assert.ErrorIs(t, err, ErrInvalidImage)
	assert.Contains(t, err.Error(), "source image")
}

func TestPromptBuilderEmpty(t *testing.T) {
	_, err := NewPromptBuilder().Text("").Build()
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}
