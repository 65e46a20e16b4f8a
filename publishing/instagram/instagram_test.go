package instagram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-pilot/apperr"
	"social-pilot/models"
	"social-pilot/publishing/instagram"
)

type fakeGraph struct {
	mu        sync.Mutex
	statuses  []string
	polls     int
	published []string
	container map[string]string
	createErr string
}

func (g *fakeGraph) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /{ig}/media", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		g.mu.Lock()
		g.container = body
		g.mu.Unlock()
		if g.createErr != "" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"` + g.createErr + `","type":"OAuthException","code":9004}}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"container-1"}`))
	})
	mux.HandleFunc("POST /{ig}/media_publish", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		g.mu.Lock()
		g.published = append(g.published, body["creation_id"])
		g.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":"media-99"}`))
	})
	mux.HandleFunc("POST /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.Form.Get("code"))
		assert.Equal(t, "app", r.Form.Get("client_id"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"short-token","token_type":"bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "short-token", q.Get("fb_exchange_token"))
		_, _ = w.Write([]byte(`{"access_token":"long-token","token_type":"bearer"}`))
	})
	mux.HandleFunc("GET /debug_token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "long-token", r.URL.Query().Get("input_token"))
		assert.Equal(t, "app|shh", r.URL.Query().Get("access_token"))
		_, _ = w.Write([]byte(`{"data":{"granular_scopes":[
			{"scope":"pages_show_list","target_ids":["page-1"]},
			{"scope":"instagram_basic","target_ids":["ig-1"]},
			{"scope":"pages_read_engagement"}]}}`))
	})
	mux.HandleFunc("GET /{id}", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.PathValue("id") {
		case "container-1":
			assert.Equal(t, "status_code", q.Get("fields"))
			g.mu.Lock()
			status := g.statuses[min(g.polls, len(g.statuses)-1)]
			g.polls++
			g.mu.Unlock()
			_, _ = w.Write([]byte(`{"status_code":"` + status + `","id":"container-1"}`))
		case "page-1":
			assert.Equal(t, "long-token", q.Get("access_token"))
			_, _ = w.Write([]byte(`{"access_token":"page-token","id":"page-1"}`))
		case "ig-1":
			assert.Equal(t, "page-token", q.Get("access_token"))
			_, _ = w.Write([]byte(`{"username":"pennyapp","id":"ig-1"}`))
		default:
			http.NotFound(w, r)
		}
	})
	return mux
}

func newClient(t *testing.T, g *fakeGraph, attempts int) (*instagram.Client, *httptest.Server, *int) {
	t.Helper()
	srv := httptest.NewServer(g.handler(t))
	t.Cleanup(srv.Close)
	sleeps := 0
	client := instagram.NewClient(srv.Client(), srv.URL,
		instagram.WithPolling(attempts, 2*time.Second),
		instagram.WithSleep(func(ctx context.Context, d time.Duration) error {
			assert.Equal(t, 2*time.Second, d)
			sleeps++
			return nil
		}))
	return client, srv, &sleeps
}

var account = &models.Account{Platform: models.PlatformInstagram, ExternalUserID: "ig-1", AccessToken: "page-token"}

func TestCaption(t *testing.T) {
	assert.Equal(t, "Hello\n\n#budget #calm", instagram.Caption("Hello", []string{"#budget", " calm ", ""}))
	assert.Equal(t, "Hello", instagram.Caption("Hello", nil))
}

func TestPublishPollsUntilFinished(t *testing.T) {
	g := &fakeGraph{statuses: []string{"IN_PROGRESS", "IN_PROGRESS", "FINISHED"}}
	client, _, sleeps := newClient(t, g, 30)
	p := instagram.NewPublisher(client)

	id, err := p.Publish(context.Background(), &models.Post{
		Content:        "Budget calmly.",
		Hashtags:       []string{"budget"},
		PublicMediaURL: "https://gen.pollinations.ai/image/x.jpg",
	}, account)
	require.NoError(t, err)
	assert.Equal(t, "media-99", id)

	assert.Equal(t, 3, g.polls)
	assert.Equal(t, 2, *sleeps)
	assert.Equal(t, "Budget calmly.\n\n#budget", g.container["caption"])
	assert.Equal(t, "https://gen.pollinations.ai/image/x.jpg", g.container["image_url"])
	assert.Equal(t, "page-token", g.container["access_token"])
	assert.Equal(t, []string{"container-1"}, g.published)
}

func TestPublishAbortsOnContainerError(t *testing.T) {
	g := &fakeGraph{statuses: []string{"IN_PROGRESS", "ERROR"}}
	client, _, _ := newClient(t, g, 30)

	_, err := instagram.NewPublisher(client).Publish(context.Background(), &models.Post{PublicMediaURL: "https://x/y.jpg"}, account)
	require.Error(t, err)
	assert.Equal(t, "Instagram failed to process the image", apperr.Reason(err))
	assert.Empty(t, g.published)
}

func TestPublishGivesUpPollingAndStillPublishes(t *testing.T) {
	g := &fakeGraph{statuses: []string{"IN_PROGRESS"}}
	client, _, sleeps := newClient(t, g, 3)

	_, err := instagram.NewPublisher(client).Publish(context.Background(), &models.Post{PublicMediaURL: "https://x/y.jpg"}, account)
	require.NoError(t, err)
	assert.Equal(t, 3, g.polls)
	assert.Equal(t, 2, *sleeps)
	assert.Len(t, g.published, 1)
}

func TestPublishSurfacesGraphError(t *testing.T) {
	g := &fakeGraph{statuses: []string{"FINISHED"}, createErr: "Media download has failed."}
	client, _, _ := newClient(t, g, 30)

	_, err := instagram.NewPublisher(client).Publish(context.Background(), &models.Post{PublicMediaURL: "https://x/y.jpg"}, account)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, "Media download has failed.", apperr.Reason(err))
	assert.Zero(t, g.polls)
}

func TestCheckRequiresPublicURL(t *testing.T) {
	p := instagram.NewPublisher(nil)
	for _, u := range []string{"", "  ", "/media/a.jpg"} {
		err := p.Check(&models.Post{PublicMediaURL: u})
		assert.Equal(t, apperr.KindConstraint, apperr.KindOf(err), u)
		assert.Contains(t, apperr.Reason(err), "Missing public image URL")
	}
	assert.NoError(t, p.Check(&models.Post{PublicMediaURL: "https://x/y.jpg"}))
}

func TestOAuthLink(t *testing.T) {
	g := &fakeGraph{}
	srv := httptest.NewServer(g.handler(t))
	t.Cleanup(srv.Close)

	o := instagram.NewOAuth(instagram.OAuthConfig{
		AppID:        "app",
		AppSecret:    "shh",
		RedirectURL:  "http://localhost/api/v1/instagram/callback",
		DialogURL:    "https://www.facebook.com/v19.0/dialog/oauth",
		GraphBaseURL: srv.URL,
	}, srv.Client())
	require.True(t, o.Configured())

	u, err := url.Parse(o.AuthURL("prod-1"))
	require.NoError(t, err)
	assert.Equal(t, "prod-1", u.Query().Get("state"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Contains(t, u.Query().Get("scope"), "instagram_content_publish")

	before := time.Now()
	acc, err := o.Link(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, models.PlatformInstagram, acc.Platform)
	assert.Equal(t, "ig-1", acc.ExternalUserID)
	assert.Equal(t, "page-1", acc.PageID)
	assert.Equal(t, "pennyapp", acc.Username)
	assert.Equal(t, "page-token", acc.AccessToken)
	require.NotNil(t, acc.TokenExpiresAt)
	assert.WithinDuration(t, before.Add(60*24*time.Hour), *acc.TokenExpiresAt, time.Minute)
}
