package instagram

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"social-pilot/apperr"
	"social-pilot/internal/httpclient"
	"social-pilot/internal/logger"
)

// Client wraps the Graph API calls used for content publishing.
type Client struct {
	graph        *httpclient.BaseClient
	pollAttempts int
	pollInterval time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

type ClientOption func(*Client)

// WithPolling overrides how container status is polled.
func WithPolling(attempts int, interval time.Duration) ClientOption {
	return func(c *Client) {
		c.pollAttempts = attempts
		c.pollInterval = interval
	}
}

func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ClientOption {
	return func(c *Client) { c.sleep = sleep }
}

func NewClient(httpClient *http.Client, graphBaseURL string, opts ...ClientOption) *Client {
	c := &Client{
		graph:        httpclient.NewBaseClientWithClient(httpClient, graphBaseURL),
		pollAttempts: 30,
		pollInterval: 2 * time.Second,
		sleep:        sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type graphError struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// check turns a transport error or an error.message body into an upstream error.
func (g graphError) check(err error, fallback string) error {
	if g.Error != nil && g.Error.Message != "" {
		return apperr.Upstream(g.Error.Message, err)
	}
	if err != nil {
		return apperr.Upstream(fallback, err)
	}
	return nil
}

// Caption is the content, a blank line and the hashtags as "#tag" words.
func Caption(content string, hashtags []string) string {
	tags := make([]string, 0, len(hashtags))
	for _, h := range hashtags {
		h = strings.TrimPrefix(strings.TrimSpace(h), "#")
		if h != "" {
			tags = append(tags, "#"+h)
		}
	}
	if len(tags) == 0 {
		return content
	}
	return content + "\n\n" + strings.Join(tags, " ")
}

// CreateContainer registers the image and caption and returns the container id.
func (c *Client) CreateContainer(ctx context.Context, igUserID, imageURL, caption, token string) (string, error) {
	req, err := c.graph.NewJSONRequest(ctx, http.MethodPost, "/"+igUserID+"/media", nil, map[string]string{
		"image_url":    imageURL,
		"caption":      caption,
		"access_token": token,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
		graphError
	}
	err = c.graph.DoJSON(req, &resp)
	if err := resp.check(err, "Failed to create Instagram media container"); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", apperr.Upstream("Failed to create Instagram media container", errors.New("empty container id"))
	}
	return resp.ID, nil
}

// WaitForContainer polls until the container is FINISHED. It gives up
// quietly after the configured attempts and lets the publish call decide.
func (c *Client) WaitForContainer(ctx context.Context, containerID, token string) error {
	for attempt := 1; attempt <= c.pollAttempts; attempt++ {
		req, err := c.graph.NewRequest(ctx, http.MethodGet, "/"+containerID,
			url.Values{"fields": {"status_code"}, "access_token": {token}}, nil)
		if err != nil {
			return err
		}
		var resp struct {
			StatusCode string `json:"status_code"`
			graphError
		}
		err = c.graph.DoJSON(req, &resp)
		if err := resp.check(err, "Failed to check Instagram media status"); err != nil {
			return err
		}
		switch resp.StatusCode {
		case "FINISHED":
			return nil
		case "ERROR":
			return apperr.Upstream("Instagram failed to process the image", nil)
		}
		if attempt < c.pollAttempts {
			if err := c.sleep(ctx, c.pollInterval); err != nil {
				return err
			}
		}
	}
	logger.WarnWithFields("instagram container not finished after polling", logger.Fields{
		"container_id": containerID,
		"attempts":     c.pollAttempts,
	})
	return nil
}

// PublishContainer makes the container visible and returns the media id.
func (c *Client) PublishContainer(ctx context.Context, igUserID, containerID, token string) (string, error) {
	req, err := c.graph.NewJSONRequest(ctx, http.MethodPost, "/"+igUserID+"/media_publish", nil, map[string]string{
		"creation_id":  containerID,
		"access_token": token,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
		graphError
	}
	err = c.graph.DoJSON(req, &resp)
	if err := resp.check(err, "Failed to post to Instagram"); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", apperr.Upstream("Failed to post to Instagram", errors.New("empty media id"))
	}
	return resp.ID, nil
}
