package utils

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

const (
	tryOnInstruction = "Refine the first image by placing the glasses from the second image onto the person's face in the first image. " +
		"Ensure realistic lighting, shadows, perspective, and fit. " +
		"Do not alter the person's facial features significantly, just add the accessory."
	styleInstructionFormat = "Edit the image to add eyeglasses on the person's face. Style description: %s. " +
		"Ensure high-quality, photorealistic texturing and correct perspective."

	// GeneratedImageMimeType is the encoding results are always re-wrapped in.
	GeneratedImageMimeType = "image/png"
)

var (
	ErrMissingAPIKey    = errors.New("GEMINI_API_KEY is not set")
	ErrNoImageGenerated = errors.New("no image generated")
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// ImageGenerator composites eyewear onto a portrait using the Gemini image model.
type ImageGenerator struct {
	client  *genai.Client
	model   contentGenerator
	limiter *GeminiLimiter
}

// NewImageGenerator creates a Gemini client for the given image model
func NewImageGenerator(ctx context.Context, apiKey, modelName string, limiter *GeminiLimiter) (*ImageGenerator, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &ImageGenerator{
		client:  client,
		model:   client.GenerativeModel(modelName),
		limiter: limiter,
	}, nil
}

func (g *ImageGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// BuildEyewearPrompt lays out the request parts: the face always comes first.
// With a reference image the glasses follow together with the fixed
// compositing instruction; otherwise only the style description is sent.
func BuildEyewearPrompt(sourceImage, instruction, referenceImage string) ([]PromptPart, error) {
	b := NewPromptBuilder().Image("source", sourceImage)
	if referenceImage != "" {
		b.Image("reference", referenceImage).Text(tryOnInstruction)
	} else {
		b.Text(fmt.Sprintf(styleInstructionFormat, instruction))
	}
	return b.Build()
}

// GenerateEyewearImage returns the generated portrait as a PNG data URL.
// An empty referenceImage means "no reference eyewear".
func (g *ImageGenerator) GenerateEyewearImage(ctx context.Context, sourceImage, instruction, referenceImage string) (string, error) {
	parts, err := BuildEyewearPrompt(sourceImage, instruction, referenceImage)
	if err != nil {
		return "", err
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, toGenaiParts(parts)...)
	GeminiRequestSeconds.WithLabelValues("image").Observe(time.Since(start).Seconds())
	if err != nil {
		logrus.WithError(err).WithField("with_reference", referenceImage != "").Error("image generation error")
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return ExtractGeneratedImage(resp)
}

// ExtractGeneratedImage scans the first candidate's parts in order and
// returns the first inline image, whatever mime type it was returned with.
func ExtractGeneratedImage(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoImageGenerated
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if len(p.Data) > 0 {
				return EncodeDataURL(p.Data, GeneratedImageMimeType), nil
			}
		case genai.Text:
			logrus.WithField("text", string(p)).Debug("model returned text alongside the image")
		}
	}

	return "", ErrNoImageGenerated
}

func toGenaiParts(parts []PromptPart) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case ImagePart:
			out = append(out, genai.Blob{MIMEType: v.MimeType, Data: v.Data})
		case TextPart:
			out = append(out, genai.Text(v.Text))
		}
	}
	return out
}
