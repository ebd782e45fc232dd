package utils

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/raushankrgupta/eyewear-stylist/models"
	"github.com/sirupsen/logrus"
	googlegenai "google.golang.org/genai"
)

const (
	consultantSystemInstruction = "You are an expert optical stylist and vision consultant. " +
		"Help the user find glasses, describe styles, and suggest brands. You speak Persian (Farsi). " +
		"When looking for products, use Google Search to find real links."

	// EmptyReplyFallback is shown when the model answers with no text.
	EmptyReplyFallback = "متاسفم، نمی‌توانم پاسخ دهم."
	// ChatErrorFallback replaces the reply whenever the call itself fails.
	ChatErrorFallback = "خطایی در ارتباط با مشاور رخ داد."
)

// Consultant answers styling questions with Google Search grounding so the
// reply can cite real shops.
type Consultant struct {
	client  *googlegenai.Client
	model   string
	limiter *GeminiLimiter
}

// ConsultantOptions overrides transport details, mostly for tests.
type ConsultantOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewConsultant(ctx context.Context, apiKey, model string, limiter *GeminiLimiter, opts ConsultantOptions) (*Consultant, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	cfg := &googlegenai.ClientConfig{
		APIKey:     apiKey,
		Backend:    googlegenai.BackendGeminiAPI,
		HTTPClient: opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = googlegenai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := googlegenai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Consultant{client: client, model: model, limiter: limiter}, nil
}

// Chat sends message, preceded by the prior conversation, and returns the
// reply with its cited links. Failures never reach the caller: they turn
// into ChatErrorFallback with no links.
func (c *Consultant) Chat(ctx context.Context, message string, history []models.ChatTurn) models.ConsultationReply {
	if err := c.limiter.Wait(ctx); err != nil {
		return c.fallback(err)
	}

	config := &googlegenai.GenerateContentConfig{
		SystemInstruction: googlegenai.NewContentFromText(consultantSystemInstruction, googlegenai.RoleUser),
		Tools:             []*googlegenai.Tool{{GoogleSearch: &googlegenai.GoogleSearch{}}},
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, ConversationContents(history, message), config)
	GeminiRequestSeconds.WithLabelValues("chat").Observe(time.Since(start).Seconds())
	if err != nil {
		return c.fallback(err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		text = EmptyReplyFallback
	}

	ChatRequestsTotal.WithLabelValues(OutcomeSuccess).Inc()
	return models.ConsultationReply{Text: text, Links: ExtractGroundingLinks(resp)}
}

func (c *Consultant) fallback(err error) models.ConsultationReply {
	logrus.WithError(err).WithField("model", c.model).Error("chat error")
	ChatRequestsTotal.WithLabelValues(OutcomeFallback).Inc()
	return models.ConsultationReply{Text: ChatErrorFallback, Links: []models.Link{}}
}

// ConversationContents turns the log plus the new message into request
// contents. The API wants turns to alternate starting with the user, so
// leading model turns (the synthetic welcome) are dropped and consecutive
// turns of one role are merged.
func ConversationContents(history []models.ChatTurn, message string) []*googlegenai.Content {
	turns := append(append([]models.ChatTurn(nil), history...), models.ChatTurn{Role: models.RoleUser, Text: message})

	var contents []*googlegenai.Content
	for _, t := range turns {
		if strings.TrimSpace(t.Text) == "" {
			continue
		}
		role := googlegenai.RoleUser
		if t.Role == models.RoleModel {
			role = googlegenai.RoleModel
		}
		if len(contents) == 0 && role == googlegenai.RoleModel {
			continue
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, googlegenai.NewPartFromText(t.Text))
			continue
		}
		contents = append(contents, googlegenai.NewContentFromText(t.Text, googlegenai.Role(role)))
	}
	return contents
}

// ExtractGroundingLinks collects every web citation of the first candidate
// in response order. Duplicates are kept.
func ExtractGroundingLinks(resp *googlegenai.GenerateContentResponse) []models.Link {
	links := []models.Link{}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return links
	}
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		links = append(links, models.Link{Title: chunk.Web.Title, URL: chunk.Web.URI})
	}
	return links
}
