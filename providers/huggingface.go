package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"social-pilot/internal/httpclient"
)

const HuggingFaceName = "huggingface"

type HuggingFaceProvider struct {
	base   *httpclient.BaseClient
	apiKey string
	model  string
}

func NewHuggingFace(httpClient *http.Client, baseURL, apiKey, model string) *HuggingFaceProvider {
	return &HuggingFaceProvider{
		base:   httpclient.NewBaseClientWithClient(httpClient, baseURL),
		apiKey: apiKey,
		model:  model,
	}
}

func (h *HuggingFaceProvider) Name() string { return HuggingFaceName }

type hfContentPart struct {
	Type     string      `json:"type"`
	Text     string      `json:"text,omitempty"`
	ImageURL *hfImageURL `json:"image_url,omitempty"`
}

type hfImageURL struct {
	URL string `json:"url"`
}

type hfMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type hfRequest struct {
	Model       string      `json:"model"`
	Messages    []hfMessage `json:"messages"`
	MaxTokens   int         `json:"max_tokens,omitempty"`
	Temperature float32     `json:"temperature"`
	Stream      bool        `json:"stream"`
}

type hfResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
	Error any `json:"error"`
}

func (h *HuggingFaceProvider) Generate(ctx context.Context, req TextRequest) (*TextResponse, error) {
	var userContent any = req.User
	if len(req.Images) > 0 {
		parts := []hfContentPart{{Type: "text", Text: req.User}}
		for _, img := range req.Images {
			parts = append(parts, hfContentPart{Type: "image_url", ImageURL: &hfImageURL{URL: dataURI(img)}})
		}
		userContent = parts
	}

	body := hfRequest{
		Model: h.model,
		Messages: []hfMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: userContent},
		},
		MaxTokens:   req.MaxOutputTokens,
		Temperature: req.Temperature,
	}
	if body.MaxTokens == 0 {
		body.MaxTokens = 2048
	}

	httpReq, err := h.base.NewJSONRequest(ctx, http.MethodPost, "chat/completions", nil, body)
	if err != nil {
		return nil, err
	}
	if h.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	var out hfResponse
	if err := h.base.DoJSON(httpReq, &out); err != nil {
		return nil, fmt.Errorf("huggingface API error: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, errors.New("no response from HuggingFace API")
	}

	resp := &TextResponse{
		Text:  out.Choices[0].Message.Content,
		Model: h.model,
	}
	if out.Model != "" {
		resp.ModelVersion = out.Model
	}
	if out.Usage != nil {
		resp.Usage = &TokenUsage{
			InputTokens:  out.Usage.PromptTokens,
			OutputTokens: out.Usage.CompletionTokens,
			TotalTokens:  out.Usage.TotalTokens,
		}
	}
	return resp, nil
}

func dataURI(img Image) string {
	if strings.HasPrefix(img.Base64, "data:") {
		return img.Base64
	}
	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + img.Base64
}
