package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"social-pilot/internal/logger"
	"social-pilot/internal/trace"
)

const (
	headerRequestID = "X-Request-Id"
	headerSpanID    = "X-Span-Id"
	maxBodyLog      = 1024
)

// RequestTrace는 모든 inbound HTTP 요청에 대해 Request ID와 Span ID를 보장하고,
// 이를 컨텍스트/헤더에 저장한 뒤 완료 로그에 포함시킨다.
func RequestTrace() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		req := c.Request

		requestID := req.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = trace.GenerateID()
		}

		// inbound 로그는 span_id=0, 이후 outbound 호출(LLM, Graph API, X API)은 1,2,3,... 로 증가한다.
		ctx := trace.WithRequestAndSpan(req.Context(), requestID, 0)
		c.Request = req.WithContext(ctx)
		req = c.Request

		currentSpan := trace.CurrentSpanID(ctx)
		c.Request.Header.Set(headerRequestID, requestID)
		c.Request.Header.Set(headerSpanID, currentSpan)
		c.Writer.Header().Set(headerRequestID, requestID)
		c.Writer.Header().Set(headerSpanID, currentSpan)

		bodySnippet := readBodySnippet(c)

		c.Next()

		status := c.Writer.Status()
		fields := logger.Fields{
			"method":     req.Method,
			"path":       req.URL.Path,
			"route":      c.FullPath(),
			"status":     status,
			"duration":   time.Since(start).String(),
			"request_id": requestID,
			"span_id":    trace.CurrentSpanID(c.Request.Context()),
		}
		if req.URL.RawQuery != "" {
			fields["query"] = redactQuery(req)
		}
		if bodySnippet != "" {
			fields["body"] = bodySnippet
		}
		if status >= http.StatusInternalServerError {
			logger.ErrorWithFields("completed request", fields)
			return
		}
		logger.InfoWithFields("completed request", fields)
	}
}

// readBodySnippet 은 JSON 본문 앞부분을 읽고, gin 핸들러에서 다시 읽을 수 있도록 Body 를 복원한다.
// multipart(스크린샷 업로드)는 기록하지 않는다.
func readBodySnippet(c *gin.Context) string {
	req := c.Request
	if req.Body == nil || req.ContentLength == 0 {
		return ""
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return ""
	}
	if !strings.HasPrefix(req.Header.Get("Content-Type"), "application/json") {
		return ""
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if len(body) > maxBodyLog {
		body = body[:maxBodyLog]
	}
	return string(body)
}

// redactQuery 는 OAuth 콜백의 code / state 값을 가린다.
func redactQuery(req *http.Request) map[string][]string {
	out := map[string][]string{}
	for key, values := range req.URL.Query() {
		if key == "code" || key == "state" {
			out[key] = []string{"[redacted]"}
			continue
		}
		out[key] = values
	}
	return out
}
