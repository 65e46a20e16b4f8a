package twitter_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-pilot/apperr"
	"social-pilot/internal/memstore"
	"social-pilot/models"
	"social-pilot/publishing/twitter"
)

type fakeX struct {
	mu        sync.Mutex
	tweets    []map[string]any
	uploads   [][]byte
	refreshes int
	auth      []string
}

func (f *fakeX) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /2/tweets", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.tweets = append(f.tweets, body)
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		if strings.Contains(body["text"].(string), "duplicate") {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail":"You are not allowed to create a Tweet with duplicate content."}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":{"id":"1790000000000000001","text":"ok"}}`))
	})
	mux.HandleFunc("POST /1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("media")
		require.NoError(t, err)
		data, _ := io.ReadAll(file)
		f.mu.Lock()
		f.uploads = append(f.uploads, data)
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"media_id":42,"media_id_string":"42"}`))
	})
	mux.HandleFunc("POST /2/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		require.NoError(t, r.ParseForm())
		f.mu.Lock()
		f.refreshes++
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch r.Form.Get("grant_type") {
		case "refresh_token":
			assert.Equal(t, "refresh-1", r.Form.Get("refresh_token"))
			_, _ = w.Write([]byte(`{"access_token":"access-2","refresh_token":"refresh-2","token_type":"bearer","expires_in":7200}`))
		case "authorization_code":
			assert.Equal(t, "the-code", r.Form.Get("code"))
			assert.NotEmpty(t, r.Form.Get("code_verifier"))
			_, _ = w.Write([]byte(`{"access_token":"access-1","refresh_token":"refresh-1","token_type":"bearer","expires_in":7200}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("GET /2/users/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "username", r.URL.Query().Get("user.fields"))
		_, _ = w.Write([]byte(`{"data":{"id":"777","username":"pennyapp"}}`))
	})
	mux.HandleFunc("GET /remote.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte("remote-bytes"))
	})
	return mux
}

type xFixture struct {
	fake      *fakeX
	srv       *httptest.Server
	accounts  *memstore.Accounts
	oauth     *twitter.OAuth
	publisher *twitter.Publisher
	mediaDir  string
}

func newXFixture(t *testing.T) *xFixture {
	t.Helper()
	f := &xFixture{fake: &fakeX{}, accounts: memstore.NewAccounts(), mediaDir: t.TempDir()}
	f.srv = httptest.NewServer(f.fake.handler(t))
	t.Cleanup(f.srv.Close)

	client := twitter.NewClient(f.srv.Client(), f.srv.URL, f.srv.URL, f.mediaDir)
	f.oauth = twitter.NewOAuth(twitter.OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/v1/x/callback",
		AuthURL:      f.srv.URL + "/i/oauth2/authorize",
		APIBaseURL:   f.srv.URL,
	}, f.srv.Client())
	f.publisher = twitter.NewPublisher(client, f.oauth, f.accounts)
	return f
}

func (f *xFixture) account(t *testing.T, expiresAt *time.Time) *models.Account {
	t.Helper()
	acc, err := f.accounts.Upsert(context.Background(), &models.Account{
		Platform:       models.PlatformTwitter,
		ExternalUserID: "777",
		Username:       "pennyapp",
		AccessToken:    "access-1",
		RefreshToken:   "refresh-1",
		TokenExpiresAt: expiresAt,
	})
	require.NoError(t, err)
	return acc
}

func TestPublishTextOnly(t *testing.T) {
	f := newXFixture(t)
	acc := f.account(t, nil)

	id, err := f.publisher.Publish(context.Background(), &models.Post{
		Content:  "Budget calmly.",
		Hashtags: []string{"#budget", "calm", "extra"},
	}, acc)
	require.NoError(t, err)
	assert.Equal(t, "1790000000000000001", id)

	require.Len(t, f.fake.tweets, 1)
	assert.Equal(t, "Budget calmly.\n\n#budget #calm", f.fake.tweets[0]["text"])
	assert.NotContains(t, f.fake.tweets[0], "media")
	assert.Equal(t, "Bearer access-1", f.fake.auth[0])
	assert.Zero(t, f.fake.refreshes)
}

func TestPublishUploadsLocalMedia(t *testing.T) {
	f := newXFixture(t)
	acc := f.account(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(f.mediaDir, "pic.jpg"), []byte("local-bytes"), 0o644))

	_, err := f.publisher.Publish(context.Background(), &models.Post{Content: "With a picture", MediaURL: "/media/pic.jpg"}, acc)
	require.NoError(t, err)

	require.Len(t, f.fake.uploads, 1)
	assert.Equal(t, "local-bytes", string(f.fake.uploads[0]))
	media := f.fake.tweets[0]["media"].(map[string]any)
	assert.Equal(t, []any{"42"}, media["media_ids"])
}

func TestPublishDownloadsRemoteMedia(t *testing.T) {
	f := newXFixture(t)
	acc := f.account(t, nil)

	_, err := f.publisher.Publish(context.Background(), &models.Post{Content: "Remote", PublicMediaURL: f.srv.URL + "/remote.jpg"}, acc)
	require.NoError(t, err)
	require.Len(t, f.fake.uploads, 1)
	assert.Equal(t, "remote-bytes", string(f.fake.uploads[0]))
}

func TestPublishMissingLocalMedia(t *testing.T) {
	f := newXFixture(t)
	acc := f.account(t, nil)

	_, err := f.publisher.Publish(context.Background(), &models.Post{Content: "x", MediaURL: "/media/missing.jpg"}, acc)
	require.Error(t, err)
	assert.Equal(t, "Failed to download media URL", apperr.Reason(err))
	assert.Empty(t, f.fake.tweets)
}

func TestPublishRefreshesExpiredToken(t *testing.T) {
	f := newXFixture(t)
	past := time.Now().Add(-time.Hour)
	acc := f.account(t, &past)

	_, err := f.publisher.Publish(context.Background(), &models.Post{Content: "Fresh token"}, acc)
	require.NoError(t, err)

	assert.Equal(t, 1, f.fake.refreshes)
	assert.Equal(t, "Bearer access-2", f.fake.auth[0])

	stored, err := f.accounts.GetByID(context.Background(), acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "access-2", stored.AccessToken)
	assert.Equal(t, "refresh-2", stored.RefreshToken)
	require.NotNil(t, stored.TokenExpiresAt)
	assert.True(t, stored.TokenExpiresAt.After(time.Now()))
}

func TestPublishSurfacesPlatformDetail(t *testing.T) {
	f := newXFixture(t)
	acc := f.account(t, nil)

	_, err := f.publisher.Publish(context.Background(), &models.Post{Content: "duplicate"}, acc)
	require.Error(t, err)
	assert.Equal(t, apperr.KindUpstream, apperr.KindOf(err))
	assert.Equal(t, "You are not allowed to create a Tweet with duplicate content.", apperr.Reason(err))
}

func TestCheck(t *testing.T) {
	f := newXFixture(t)
	assert.NoError(t, f.publisher.Check(&models.Post{Content: strings.Repeat("x", 500)}))

	err := f.publisher.Check(&models.Post{Content: "   "})
	assert.Equal(t, apperr.KindConstraint, apperr.KindOf(err))
}

func TestOAuthFlow(t *testing.T) {
	f := newXFixture(t)
	ctx := context.Background()

	authURL, state, verifier, err := f.oauth.Start()
	require.NoError(t, err)
	assert.Len(t, state, 48)
	assert.NotEmpty(t, verifier)
	assert.Contains(t, authURL, "code_challenge_method=S256")
	assert.Contains(t, authURL, "state="+state)
	assert.Contains(t, authURL, "scope=tweet.read+tweet.write+users.read+offline.access+media.write")

	tok, err := f.oauth.Exchange(ctx, "the-code", verifier)
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok.AccessToken)

	client := twitter.NewClient(f.srv.Client(), f.srv.URL, f.srv.URL, "")
	user, err := client.Me(ctx, tok.AccessToken)
	require.NoError(t, err)

	acc := twitter.AccountFromToken(tok, user)
	assert.Equal(t, models.PlatformTwitter, acc.Platform)
	assert.Equal(t, "777", acc.ExternalUserID)
	assert.Equal(t, "pennyapp", acc.Username)
	assert.Equal(t, "refresh-1", acc.RefreshToken)
	require.NotNil(t, acc.TokenExpiresAt)
}
