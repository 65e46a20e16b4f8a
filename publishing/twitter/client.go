package twitter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"social-pilot/apperr"
	"social-pilot/internal/httpclient"
)

// Client talks to the X v2 API and the v1.1 media upload endpoint.
type Client struct {
	api      *httpclient.BaseClient
	upload   *httpclient.BaseClient
	mediaDir string
}

// NewClient builds a client. mediaDir is the directory site-relative media
// paths such as "/media/a.jpg" resolve against.
func NewClient(httpClient *http.Client, apiBaseURL, uploadBaseURL, mediaDir string) *Client {
	return &Client{
		api:      httpclient.NewBaseClientWithClient(httpClient, apiBaseURL),
		upload:   httpclient.NewBaseClientWithClient(httpClient, uploadBaseURL),
		mediaDir: mediaDir,
	}
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type apiError struct {
	Detail string `json:"detail"`
	Title  string `json:"title"`
	Error  string `json:"error"`
}

func (e apiError) message(fallback string) string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Error != "":
		return e.Error
	}
	return fallback
}

func bearer(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
}

// Me returns the user that owns token.
func (c *Client) Me(ctx context.Context, token string) (User, error) {
	req, err := c.api.NewRequest(ctx, http.MethodGet, "/2/users/me", url.Values{"user.fields": {"username"}}, nil)
	if err != nil {
		return User{}, err
	}
	bearer(req, token)

	var resp struct {
		Data User `json:"data"`
		apiError
	}
	if err := c.api.DoJSON(req, &resp); err != nil || resp.Data.ID == "" {
		return User{}, apperr.Upstream(resp.message("Failed to fetch X user"), err)
	}
	return resp.Data, nil
}

// CreateTweet posts text with optional media ids and returns the tweet id.
func (c *Client) CreateTweet(ctx context.Context, token, text string, mediaIDs []string) (string, error) {
	body := map[string]any{"text": text}
	if len(mediaIDs) > 0 {
		body["media"] = map[string]any{"media_ids": mediaIDs}
	}
	req, err := c.api.NewJSONRequest(ctx, http.MethodPost, "/2/tweets", nil, body)
	if err != nil {
		return "", err
	}
	bearer(req, token)

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
		apiError
	}
	if err := c.api.DoJSON(req, &resp); err != nil || resp.Data.ID == "" {
		return "", apperr.Upstream(resp.message("Failed to post to X"), err)
	}
	return resp.Data.ID, nil
}

// UploadMedia sends the image as multipart field "media" and returns media_id_string.
func (c *Client) UploadMedia(ctx context.Context, token string, data []byte, contentType string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", `form-data; name="media"; filename="upload.jpg"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := c.upload.NewRequest(ctx, http.MethodPost, "/1.1/media/upload.json", nil, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	bearer(req, token)

	var resp struct {
		MediaIDString string `json:"media_id_string"`
		apiError
	}
	if err := c.upload.DoJSON(req, &resp); err != nil || resp.MediaIDString == "" {
		return "", apperr.Upstream(resp.message("Failed to upload media to X"), err)
	}
	return resp.MediaIDString, nil
}

// LoadMedia reads an absolute http(s) URL over the network and a
// site-relative path from the media directory.
func (c *Client) LoadMedia(ctx context.Context, ref string) ([]byte, string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return c.download(ctx, ref)
	}
	if c.mediaDir == "" {
		return nil, "", apperr.Upstream("Failed to download media URL", errors.New("no media directory configured"))
	}
	// "/media/x.jpg" 는 mediaDir 의 x.jpg 를 가리킨다.
	name := filepath.Base(filepath.Clean("/" + ref))
	data, err := os.ReadFile(filepath.Join(c.mediaDir, name))
	if err != nil {
		return nil, "", apperr.Upstream("Failed to download media URL", err)
	}
	return data, http.DetectContentType(data), nil
}

func (c *Client) download(ctx context.Context, ref string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return nil, "", apperr.Upstream("Failed to download media URL", err)
	}
	resp, err := c.api.Do(req)
	if err != nil {
		return nil, "", apperr.Upstream("Failed to download media URL", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", apperr.Upstream("Failed to download media URL", fmt.Errorf("status %d", resp.StatusCode))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", apperr.Upstream("Failed to download media URL", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return data, ct, nil
}
