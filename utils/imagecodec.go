package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultImageMimeType is assumed when a payload carries no data URL prefix.
const DefaultImageMimeType = "image/jpeg"

var (
	ErrInvalidImage  = errors.New("invalid image payload")
	ErrNotAnImage    = errors.New("uploaded file is not an image")
	ErrImageTooLarge = errors.New("uploaded image is too large")
)

var (
	knownPrefixPattern = regexp.MustCompile(`^data:image/(png|jpeg|jpg|webp);base64,`)
	mimePrefixPattern  = regexp.MustCompile(`^data:(image/[a-zA-Z+]+);base64,`)
)

// StripDataURLPrefix removes a png/jpeg/jpg/webp data URL prefix.
// Anything else is returned unchanged and treated as a raw base64 payload.
func StripDataURLPrefix(dataURL string) string {
	return knownPrefixPattern.ReplaceAllString(dataURL, "")
}

// SniffMimeType reads the mime type declared by a data URL prefix,
// falling back to DefaultImageMimeType. The payload itself is not inspected.
func SniffMimeType(dataURL string) string {
	if m := mimePrefixPattern.FindStringSubmatch(dataURL); m != nil {
		return m[1]
	}
	return DefaultImageMimeType
}

// DecodeDataURL splits a data URL into raw bytes and its mime type.
func DecodeDataURL(dataURL string) ([]byte, string, error) {
	if dataURL == "" {
		return nil, "", fmt.Errorf("%w: empty", ErrInvalidImage)
	}
	data, err := base64.StdEncoding.DecodeString(StripDataURLPrefix(dataURL))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return data, SniffMimeType(dataURL), nil
}

// EncodeDataURL wraps raw bytes as a base64 data URL.
func EncodeDataURL(data []byte, mimeType string) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ReadImageDataURL reads an uploaded file and returns it as a data URL.
// The mime type comes from the file content, not from what the client declared.
func ReadImageDataURL(r io.Reader, maxBytes int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return "", ErrImageTooLarge
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}
	return EncodeDataURL(data, mt.String()), nil
}

// ValidateImageDataURL checks a client-supplied data URL before it is stored.
func ValidateImageDataURL(dataURL string) error {
	if !mimePrefixPattern.MatchString(dataURL) {
		return fmt.Errorf("%w: missing data:image/...;base64, prefix", ErrInvalidImage)
	}
	_, _, err := DecodeDataURL(dataURL)
	return err
}
