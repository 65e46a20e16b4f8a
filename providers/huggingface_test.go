package providers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-pilot/internal/httpclient"
	"social-pilot/providers"
)

func TestHuggingFaceGenerate(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer hf-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"glm-4.5v-0727","choices":[{"message":{"content":"{\"ok\":true}"}}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	}))
	defer srv.Close()

	p := providers.NewHuggingFace(srv.Client(), srv.URL, "hf-key", "zai-org/GLM-4.5V")
	resp, err := p.Generate(context.Background(), providers.TextRequest{
		System:      "sys",
		User:        "hello",
		Images:      []providers.Image{{Base64: "aGk=", MIMEType: "image/jpeg"}},
		Temperature: 0.3,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, int64(15), resp.Usage.TotalTokens)
	assert.Equal(t, "glm-4.5v-0727", resp.ModelVersion)

	assert.Equal(t, "zai-org/GLM-4.5V", got["model"])
	assert.Equal(t, float64(2048), got["max_tokens"])
	messages := got["messages"].([]any)
	require.Len(t, messages, 2)
	user := messages[1].(map[string]any)
	parts := user["content"].([]any)
	require.Len(t, parts, 2)
	image := parts[1].(map[string]any)["image_url"].(map[string]any)
	assert.Equal(t, "data:image/jpeg;base64,aGk=", image["url"])
}

func TestHuggingFaceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	p := providers.NewHuggingFace(srv.Client(), srv.URL, "", "m")
	_, err := p.Generate(context.Background(), providers.TextRequest{User: "x"})
	require.Error(t, err)
	var se *httpclient.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
}

func TestHuggingFaceNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	p := providers.NewHuggingFace(srv.Client(), srv.URL, "", "m")
	_, err := p.Generate(context.Background(), providers.TextRequest{User: "x"})
	assert.EqualError(t, err, "no response from HuggingFace API")
}
