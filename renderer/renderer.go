// Package renderer fetches the HTML of a landing page.
package renderer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/chromedp/chromedp"
)

const USER_AGENT = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/118.0.0.0 Safari/537.36"

// 랜딩 페이지 하나는 이 크기를 넘지 않는다고 본다.
const maxPageBytes = 5 << 20

type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// HTTPRenderer downloads the page as served, without running scripts.
type HTTPRenderer struct {
	Client *http.Client
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", USER_AGENT)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ChromeRenderer renders the page in headless Chrome so client-side apps
// produce their text.
type ChromeRenderer struct {
	ExecPath string
	Timeout  time.Duration
}

func NewChromeRenderer() *ChromeRenderer {
	chromePath := os.Getenv("CHROME_PATH")
	if chromePath == "" {
		chromePath = "/usr/bin/chromium-browser" // Docker/Linux 기본
	}
	return &ChromeRenderer{ExecPath: chromePath, Timeout: 30 * time.Second}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(r.ExecPath),
		chromedp.UserAgent(USER_AGENT),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crashpad", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("headless", true),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()
	cctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()
	cctx, cancel = context.WithTimeout(cctx, r.Timeout)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(cctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1*time.Second),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", err
	}
	return htmlContent, nil
}

// New picks a renderer by name: "chrome" or anything else for plain HTTP.
func New(kind string, client *http.Client) Renderer {
	if kind == "chrome" {
		return NewChromeRenderer()
	}
	return &HTTPRenderer{Client: client}
}
