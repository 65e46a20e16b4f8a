// Package providers holds the text and image generation backends and the
// registry that picks one per product.
package providers

import "context"

// Image is an inline image sent with a text request.
type Image struct {
	Base64   string
	MIMEType string
}

type TextRequest struct {
	System          string
	User            string
	Images          []Image
	MaxOutputTokens int
	Temperature     float32
}

type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

type TextResponse struct {
	Text         string
	Usage        *TokenUsage
	Model        string
	ModelVersion string
}

type TextProvider interface {
	// Name is the identifier stored on products and in settings.
	Name() string
	Generate(ctx context.Context, req TextRequest) (*TextResponse, error)
}

type ImageResult struct {
	// URL is publicly fetchable; LocalPath is the site-relative copy.
	URL       string
	LocalPath string
}

type ImageProvider interface {
	Generate(ctx context.Context, prompt string, width, height int) (*ImageResult, error)
}
