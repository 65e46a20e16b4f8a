// Package providertest has scripted text and image backends for tests.
package providertest

import (
	"context"
	"sync"

	"social-pilot/providers"
)

// TextProvider replies with Replies in order, repeating the last one.
type TextProvider struct {
	ProviderName string
	Replies      []string
	Err          error

	mu       sync.Mutex
	requests []providers.TextRequest
}

func NewText(name string, replies ...string) *TextProvider {
	return &TextProvider{ProviderName: name, Replies: replies}
}

func (p *TextProvider) Name() string { return p.ProviderName }

func (p *TextProvider) Generate(ctx context.Context, req providers.TextRequest) (*providers.TextResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.requests)
	p.requests = append(p.requests, req)
	if p.Err != nil {
		return nil, p.Err
	}
	text := ""
	if len(p.Replies) > 0 {
		text = p.Replies[min(n, len(p.Replies)-1)]
	}
	return &providers.TextResponse{
		Text:  text,
		Model: p.ProviderName + "-test",
		Usage: &providers.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
	}, nil
}

// Requests returns every request received so far.
func (p *TextProvider) Requests() []providers.TextRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]providers.TextRequest(nil), p.requests...)
}

type ImageCall struct {
	Prompt        string
	Width, Height int
}

// ImageProvider returns Result for every call.
type ImageProvider struct {
	Result providers.ImageResult
	Err    error

	mu    sync.Mutex
	calls []ImageCall
}

func (p *ImageProvider) Generate(ctx context.Context, prompt string, width, height int) (*providers.ImageResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, ImageCall{Prompt: prompt, Width: width, Height: height})
	if p.Err != nil {
		return nil, p.Err
	}
	out := p.Result
	return &out, nil
}

func (p *ImageProvider) Calls() []ImageCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ImageCall(nil), p.calls...)
}
