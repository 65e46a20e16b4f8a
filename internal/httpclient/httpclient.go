package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"social-pilot/internal/logger"
	"social-pilot/internal/trace"
)

// Config 는 HTTP 클라이언트 공통 설정이다.
type Config struct {
	Timeout time.Duration
}

const maxBodyLog = 1024

// 로그에 토큰이 남지 않도록 access_token 류의 값을 가린다.
var secretPattern = regexp.MustCompile(`((?:access_token|fb_exchange_token|client_secret|refresh_token|code_verifier)"?\s*[=:]\s*"?)[^&"\s]+`)

func redact(s string) string {
	return secretPattern.ReplaceAllString(s, "${1}REDACTED")
}

// loggingRoundTripper 는 모든 아웃바운드 호출에 공통 로깅과
// X-Request-Id / X-Span-Id 헤더 전파를 수행한다.
type loggingRoundTripper struct {
	inner http.RoundTripper
}

func (l *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	requestID, spanID := trace.NextSpanID(req.Context())
	req.Header.Set("X-Request-Id", requestID)
	req.Header.Set("X-Span-Id", spanID)

	var bodySnippet string
	contentType := req.Header.Get("Content-Type")
	if req.Body != nil && !strings.HasPrefix(contentType, "multipart/") {
		if bodyBytes, err := io.ReadAll(req.Body); err == nil {
			if len(bodyBytes) > maxBodyLog {
				bodySnippet = string(bodyBytes[:maxBodyLog])
			} else {
				bodySnippet = string(bodyBytes)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
		}
	}

	fields := logger.Fields{
		"method":     req.Method,
		"url":        redact(req.URL.String()),
		"request_id": requestID,
		"span_id":    spanID,
	}
	if bodySnippet != "" {
		fields["body"] = redact(bodySnippet)
	}

	resp, err := l.inner.RoundTrip(req)
	fields["duration"] = time.Since(start).String()
	if err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("httpclient request failed", fields)
		return nil, err
	}

	fields["status"] = resp.StatusCode
	logger.DebugWithFields("httpclient request success", fields)
	return resp, nil
}

// StatusError 는 2xx 가 아닌 응답을 나타낸다.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// BaseClient 는 http.Client 와 baseURL 을 묶어 요청 생성을 돕는다.
type BaseClient struct {
	HTTPClient *http.Client
	BaseURL    string
}

func NewBaseClient(baseURL string) *BaseClient {
	return NewBaseClientWithClient(nil, baseURL)
}

// NewBaseClientWithClient 는 주어진 http.Client 를 사용한다. nil 이면 기본 클라이언트를 쓴다.
func NewBaseClientWithClient(httpClient *http.Client, baseURL string) *BaseClient {
	if httpClient == nil {
		httpClient = NewDefault()
	}
	return &BaseClient{
		HTTPClient: httpClient,
		BaseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// NewRequest 는 baseURL 에 relPath 를 붙인 요청을 만든다.
// relPath 에 쿼리가 섞이면 path.Join 이 망가뜨리므로 에러를 반환한다.
func (c *BaseClient) NewRequest(ctx context.Context, method, relPath string, query url.Values, body io.Reader) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.Contains(relPath, "?") {
		return nil, fmt.Errorf("httpclient: relPath must not contain query string: %s", relPath)
	}
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	if relPath != "" {
		base.Path = path.Join(base.Path, relPath)
	}
	if query != nil {
		base.RawQuery = query.Encode()
	}
	return http.NewRequestWithContext(ctx, method, base.String(), body)
}

// NewJSONRequest 는 payload 를 JSON 으로 인코딩한 요청을 만든다.
func (c *BaseClient) NewJSONRequest(ctx context.Context, method, relPath string, query url.Values, payload any) (*http.Request, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("httpclient: marshal payload: %w", err)
	}
	req, err := c.NewRequest(ctx, method, relPath, query, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *BaseClient) Do(req *http.Request) (*http.Response, error) {
	return c.HTTPClient.Do(req)
}

// DoJSON 은 요청을 실행하고 응답 바디를 out 에 디코딩한다.
// 2xx 가 아니면 바디를 디코딩한 뒤 *StatusError 를 반환한다.
// 플랫폼 API 는 에러도 JSON 으로 주기 때문에 out 은 에러 응답에서도 채워진다.
func (c *BaseClient) DoJSON(req *http.Request, out any) error {
	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("httpclient: decode body: %w", err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := string(body)
		if len(snippet) > maxBodyLog {
			snippet = snippet[:maxBodyLog]
		}
		return &StatusError{StatusCode: resp.StatusCode, Body: redact(snippet)}
	}
	return nil
}

// New 는 주어진 설정으로 로깅이 붙은 http.Client 를 만든다. Timeout 기본값은 10초.
func New(cfg Config) *http.Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingRoundTripper{inner: http.DefaultTransport},
	}
}

func NewDefault() *http.Client {
	return New(Config{})
}
