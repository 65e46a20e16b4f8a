package providers

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"social-pilot/internal/httpclient"
)

// PollinationsConfig describes where images are fetched from and stored.
type PollinationsConfig struct {
	BaseURL string
	Model   string
	APIKey  string
	// MediaDir is the directory files are written to; PublicPath is the
	// URL prefix the same directory is served under.
	MediaDir   string
	PublicPath string
}

type PollinationsProvider struct {
	httpClient *http.Client
	cfg        PollinationsConfig
	now        func() time.Time
}

func NewPollinations(httpClient *http.Client, cfg PollinationsConfig) *PollinationsProvider {
	if httpClient == nil {
		httpClient = httpclient.NewDefault()
	}
	if cfg.Model == "" {
		cfg.Model = "flux"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	cfg.PublicPath = strings.TrimRight(cfg.PublicPath, "/")
	return &PollinationsProvider{httpClient: httpClient, cfg: cfg, now: time.Now}
}

// Generate fetches the image and keeps a local copy, since fetching the
// public URL again needs the API key.
func (p *PollinationsProvider) Generate(ctx context.Context, prompt string, width, height int) (*ImageResult, error) {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}

	q := url.Values{}
	q.Set("width", strconv.Itoa(width))
	q.Set("height", strconv.Itoa(height))
	q.Set("model", p.cfg.Model)
	q.Set("nologo", "true")
	q.Set("seed", strconv.Itoa(rand.IntN(1000000)))
	imageURL := p.cfg.BaseURL + "/image/" + url.PathEscape(prompt) + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	if p.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pollinations request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &httpclient.StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	if err := os.MkdirAll(p.cfg.MediaDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	filename := fmt.Sprintf("pollinations-%d.jpg", p.now().UnixMilli())
	f, err := os.Create(filepath.Join(p.cfg.MediaDir, filename))
	if err != nil {
		return nil, fmt.Errorf("create media file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return nil, fmt.Errorf("write media file: %w", err)
	}

	return &ImageResult{URL: imageURL, LocalPath: p.cfg.PublicPath + "/" + filename}, nil
}
