package utils

import (
	"errors"
	"fmt"
)

// PromptPart is one element of a multi-part generation request.
// It is either an ImagePart or a TextPart.
type PromptPart interface {
	promptPart()
}

// ImagePart carries decoded image bytes and their mime type.
type ImagePart struct {
	MimeType string
	Data     []byte
}

// TextPart carries a natural-language instruction.
type TextPart struct {
	Text string
}

func (ImagePart) promptPart() {}
func (TextPart) promptPart()  {}

var ErrEmptyPrompt = errors.New("prompt has no parts")

// PromptBuilder assembles an ordered list of parts. The first failure is
// remembered and returned from Build, so calls can be chained.
type PromptBuilder struct {
	parts []PromptPart
	err   error
}

func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Image decodes a data URL (or raw base64 payload) and appends it.
func (b *PromptBuilder) Image(label, dataURL string) *PromptBuilder {
	if b.err != nil {
		return b
	}
	data, mime, err := DecodeDataURL(dataURL)
	if err != nil {
		b.err = fmt.Errorf("%s image: %w", label, err)
		return b
	}
	b.parts = append(b.parts, ImagePart{MimeType: mime, Data: data})
	return b
}

// Text appends an instruction. Blank text is skipped.
func (b *PromptBuilder) Text(text string) *PromptBuilder {
	if b.err != nil || text == "" {
		return b
	}
	b.parts = append(b.parts, TextPart{Text: text})
	return b
}

func (b *PromptBuilder) Build() ([]PromptPart, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.parts) == 0 {
		return nil, ErrEmptyPrompt
	}
	return b.parts, nil
}
