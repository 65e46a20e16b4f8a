package providers

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

const GeminiName = "gemini"

type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY environment variable is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client, model: model}, nil
}

func (g *GeminiProvider) Name() string { return GeminiName }

func (g *GeminiProvider) Generate(ctx context.Context, req TextRequest) (*TextResponse, error) {
	contents, err := geminiContents(req)
	if err != nil {
		return nil, err
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, geminiConfig(req))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("gemini returned no result")
	}

	resp := &TextResponse{
		Text:         result.Text(),
		Model:        g.model,
		ModelVersion: result.ModelVersion,
	}
	if result.UsageMetadata != nil {
		resp.Usage = &TokenUsage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:  int64(result.UsageMetadata.TotalTokenCount),
		}
	}
	if resp.Text == "" {
		return resp, errors.New("gemini returned an empty response")
	}
	return resp, nil
}

// geminiContents puts the images before the user text in a single user turn.
func geminiContents(req TextRequest) ([]*genai.Content, error) {
	parts := make([]*genai.Part, 0, len(req.Images)+1)
	for i, img := range req.Images {
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			return nil, fmt.Errorf("decode image %d: %w", i, err)
		}
		mime := img.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, genai.NewPartFromBytes(data, mime))
	}
	parts = append(parts, genai.NewPartFromText(req.User))
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
}

func geminiConfig(req TextRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	if req.Temperature > 0 {
		t := req.Temperature
		cfg.Temperature = &t
	}
	if req.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}
	return cfg
}
