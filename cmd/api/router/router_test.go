package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/briefimport"
	"social-pilot/cmd/api/router"
	"social-pilot/events"
	"social-pilot/extraction"
	"social-pilot/generation"
	"social-pilot/internal/memstore"
	"social-pilot/models"
	"social-pilot/providers"
	"social-pilot/publishing"
	"social-pilot/publishing/instagram"
	"social-pilot/publishing/twitter"
	"social-pilot/revisions"
	"social-pilot/scheduler"
	"social-pilot/services"
)

type nopQueue struct{ ids []primitive.ObjectID }

func (q *nopQueue) Enqueue(ctx context.Context, id primitive.ObjectID) error {
	q.ids = append(q.ids, id)
	return nil
}

type noImport struct{}

func (noImport) Import(ctx context.Context, pageURL, feedURL string) (*briefimport.Result, error) {
	return nil, apperr.Validation("url or feedUrl required")
}

type stubPublisher struct {
	checkErr error
	calls    int
}

func (s *stubPublisher) Check(post *models.Post) error { return s.checkErr }

func (s *stubPublisher) Publish(ctx context.Context, post *models.Post, acc *models.Account) (string, error) {
	s.calls++
	return "ext-1", nil
}

type env struct {
	t        *testing.T
	engine   *gin.Engine
	products *memstore.Products
	posts    *memstore.Posts
	accounts *memstore.Accounts
	queue    *nopQueue
	x        *stubPublisher
	xAPI     *httptest.Server
}

func newEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	e := &env{
		t:        t,
		products: memstore.NewProducts(),
		posts:    memstore.NewPosts(),
		accounts: memstore.NewAccounts(),
		queue:    &nopQueue{},
		x:        &stubPublisher{},
	}
	e.xAPI = httptest.NewServer(fakeXAPI())
	t.Cleanup(e.xAPI.Close)

	revs := memstore.NewRevisions()
	settings := memstore.NewSettings()
	snap := revisions.NewSnapshotter(revs, e.products)
	extractionSvc := extraction.NewService(e.products, e.queue)
	registry := providers.NewRegistry("gemini")
	gen := generation.NewService(e.products, e.accounts, e.posts, registry, settings, nil, nil, nil)
	pub := publishing.NewService(e.posts, e.products, e.accounts, map[models.Platform]publishing.Publisher{
		models.PlatformTwitter:   e.x,
		models.PlatformInstagram: &stubPublisher{},
	}, events.NewDispatcher(nil, "test"))

	client := e.xAPI.Client()
	xOAuth := twitter.NewOAuth(twitter.OAuthConfig{
		ClientID:     "cid",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost/api/v1/x/callback",
		AuthURL:      e.xAPI.URL + "/i/oauth2/authorize",
		APIBaseURL:   e.xAPI.URL,
	}, client)

	e.engine = router.New(router.Deps{
		Products:       services.NewProductService(e.products, snap, extractionSvc, noImport{}),
		Posts:          services.NewPostService(e.posts, e.products),
		Accounts:       services.NewAccountService(e.accounts, e.products),
		Extraction:     extractionSvc,
		Generation:     gen,
		Publishing:     pub,
		Scheduler:      scheduler.New(e.posts, pub, time.Minute),
		Revisions:      snap,
		Settings:       settings,
		XOAuth:         xOAuth,
		XClient:        twitter.NewClient(client, e.xAPI.URL, e.xAPI.URL, t.TempDir()),
		InstagramOAuth: instagram.NewOAuth(instagram.OAuthConfig{}, client),
	})
	return e
}

func fakeXAPI() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /2/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "access-1",
			"refresh_token": "refresh-1",
			"token_type":    "bearer",
			"expires_in":    7200,
		})
	})
	mux.HandleFunc("GET /2/users/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]string{"id": "42", "username": "pennyapp"}})
	})
	return mux
}

func (e *env) do(method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *env) product(brief string) *models.Product {
	e.t.Helper()
	w := e.do(http.MethodPost, "/api/v1/products", map[string]any{"name": "Penny", "brief": brief})
	require.Equal(e.t, http.StatusCreated, w.Code, w.Body.String())
	p := decode[models.Product](e.t, w)
	return &p
}

func TestHealthAndTraceHeaders(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.Equal(t, "0", w.Header().Get("X-Span-Id"))
}

func TestProductEndpoints(t *testing.T) {
	e := newEnv(t)
	p := e.product("A budgeting app for freelancers")
	assert.Equal(t, models.ExtractionPending, p.ExtractionStatus)
	assert.Len(t, e.queue.ids, 1)

	w := e.do(http.MethodGet, "/api/v1/products/"+p.ID.Hex(), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodGet, "/api/v1/products/nope", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/v1/products/"+primitive.NewObjectID().Hex(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decode[map[string]string](t, w)["error"])

	w = e.do(http.MethodPost, "/api/v1/products", map[string]any{"description": "no name"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/v1/products", nil)
	assert.Len(t, decode[[]models.Product](t, w), 1)
}

func TestReExtractWithoutBrief(t *testing.T) {
	e := newEnv(t)
	p := e.product("")

	w := e.do(http.MethodPost, "/api/v1/products/"+p.ID.Hex()+"/re-extract", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPut, "/api/v1/products/"+p.ID.Hex()+"/brief", map[string]string{"brief": "Now with a brief"})
	require.Equal(t, http.StatusOK, w.Code)
	w = e.do(http.MethodPost, "/api/v1/products/"+p.ID.Hex()+"/re-extract", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "pending", decode[map[string]string](t, w)["status"])
}

func TestRevisionListAndRevert(t *testing.T) {
	e := newEnv(t)
	p := e.product("v1")
	base := "/api/v1/products/" + p.ID.Hex()

	require.Equal(t, http.StatusOK, e.do(http.MethodPut, base+"/brief", map[string]string{"brief": "v2"}).Code)

	w := e.do(http.MethodGet, base+"/revisions?field=brief", nil)
	require.Equal(t, http.StatusOK, w.Code)
	revs := decode[[]models.Revision](t, w)
	require.Len(t, revs, 1)
	assert.Equal(t, "v1", revs[0].Content)

	w = e.do(http.MethodPost, base+"/revisions/"+revs[0].ID.Hex()+"/revert", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v1", decode[models.Product](t, w).Brief)

	w = e.do(http.MethodGet, base+"/revisions?field=tagline", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStrategyEditAcceptsLegacyHooks(t *testing.T) {
	e := newEnv(t)
	p := e.product("")
	w := e.do(http.MethodPut, "/api/v1/products/"+p.ID.Hex()+"/strategy", map[string]any{
		"content": map[string]any{"hooks": []string{"Rent is due again"}},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[models.Product](t, w)
	require.NotNil(t, got.Strategy)
	assert.Equal(t, "Rent is due again", got.Strategy.Hooks[0].Text)
}

func TestGenerateValidation(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPost, "/api/v1/generate", map[string]any{"platform": "twitter", "contentType": "ad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "productId, platform, and contentType required", decode[map[string]string](t, w)["error"])

	w = e.do(http.MethodPost, "/api/v1/generate", map[string]any{"productId": primitive.NewObjectID().Hex(), "platform": "tiktok", "contentType": "ad"})
	assert.Equal(t, "Invalid platform", decode[map[string]string](t, w)["error"])

	w = e.do(http.MethodPost, "/api/v1/generate", map[string]any{"productId": primitive.NewObjectID().Hex(), "platform": "x", "contentType": "ad"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	p := e.product("")
	w = e.do(http.MethodPost, "/api/v1/generate", map[string]any{"productId": p.ID.Hex(), "platform": "x", "contentType": "ad"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "Upload a brief first")
}

func (e *env) linkX(p *models.Product) {
	e.t.Helper()
	acc, err := e.accounts.Upsert(context.Background(), &models.Account{Platform: models.PlatformTwitter, ExternalUserID: "42", Username: "pennyapp", AccessToken: "a"})
	require.NoError(e.t, err)
	w := e.do(http.MethodPost, "/api/v1/products/"+p.ID.Hex()+"/accounts", map[string]string{"accountId": acc.ID.Hex()})
	require.Equal(e.t, http.StatusOK, w.Code, w.Body.String())
}

func TestPostLifecycleAndPublish(t *testing.T) {
	e := newEnv(t)
	p := e.product("")
	e.linkX(p)

	w := e.do(http.MethodPost, "/api/v1/posts", map[string]any{
		"productId": p.ID.Hex(), "platform": "twitter", "type": "post", "content": "Budget calmly.", "hashtags": []string{"money"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[models.Post](t, w)
	assert.Equal(t, models.StatusDraft, post.Status)

	w = e.do(http.MethodPut, "/api/v1/posts/"+post.ID.Hex(), map[string]any{"status": "approved"})
	require.Equal(t, http.StatusOK, w.Code)

	w = e.do(http.MethodPut, "/api/v1/posts/"+post.ID.Hex(), map[string]any{"status": "posted"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/publish", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[map[string]any](t, w)
	assert.Equal(t, true, res["success"])
	assert.Equal(t, "ext-1", res["platformPostId"])

	w = e.do(http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/publish", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	res = decode[map[string]any](t, w)
	assert.Equal(t, false, res["success"])
	assert.Equal(t, "Already posted", res["error"])
	assert.Equal(t, 1, e.x.calls)

	w = e.do(http.MethodPut, "/api/v1/posts/"+post.ID.Hex(), map[string]any{"content": "edit"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(http.MethodGet, "/api/v1/posts?productId="+p.ID.Hex(), nil)
	assert.Len(t, decode[[]models.Post](t, w), 1)
}

func TestPublishConstraintIsUnprocessable(t *testing.T) {
	e := newEnv(t)
	e.x.checkErr = apperr.Constraint("Post exceeds 280 characters after hashtags. Shorten content or hashtags.")
	p := e.product("")
	e.linkX(p)
	post := &models.Post{ProductID: p.ID, Platform: models.PlatformTwitter, Type: models.ContentPost, Content: "x", Status: models.StatusApproved}
	require.NoError(t, e.posts.Create(context.Background(), post))

	w := e.do(http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/publish", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, 0, e.x.calls)

	w = e.do(http.MethodPost, "/api/v1/posts/"+post.ID.Hex()+"/publish?platform=instagram", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "This post is not set to Instagram platform", decode[map[string]any](t, w)["error"])
}

func TestSchedulerRun(t *testing.T) {
	e := newEnv(t)
	p := e.product("")
	e.linkX(p)
	due := time.Now().Add(-time.Minute)
	post := &models.Post{ProductID: p.ID, Platform: models.PlatformTwitter, Type: models.ContentPost, Content: "x", Status: models.StatusScheduled, ScheduledAt: &due}
	require.NoError(t, e.posts.Create(context.Background(), post))

	w := e.do(http.MethodPost, "/api/v1/scheduler/run", nil)
	require.Equal(t, http.StatusOK, w.Code)
	res := decode[map[string]any](t, w)
	assert.EqualValues(t, 1, res["processedCount"])
	assert.EqualValues(t, 0, res["failedCount"])
}

func TestSettings(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodPut, "/api/v1/settings", map[string]string{models.SettingTextProvider: "HuggingFace"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "huggingface", decode[map[string]string](t, w)[models.SettingTextProvider])

	w = e.do(http.MethodPut, "/api/v1/settings", map[string]string{models.SettingTextProvider: "gpt"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(http.MethodGet, "/api/v1/settings", nil)
	assert.Equal(t, "huggingface", decode[map[string]string](t, w)[models.SettingTextProvider])
}

func cookieNamed(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestXOAuthFlowLinksProduct(t *testing.T) {
	e := newEnv(t)
	p := e.product("")

	w := e.do(http.MethodGet, "/api/v1/x/auth?productId="+p.ID.Hex(), nil)
	require.Equal(t, http.StatusFound, w.Code)
	loc, err := url.Parse(w.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "S256", loc.Query().Get("code_challenge_method"))

	state := cookieNamed(w, "x_oauth_state")
	verifier := cookieNamed(w, "x_oauth_verifier")
	product := cookieNamed(w, "x_oauth_product_id")
	require.NotNil(t, state)
	require.NotNil(t, verifier)
	require.NotNil(t, product)
	assert.Equal(t, loc.Query().Get("state"), state.Value)
	assert.Equal(t, 600, state.MaxAge)

	w = e.do(http.MethodGet, "/api/v1/x/callback?code=c1&state="+state.Value, nil, state, verifier, product)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/products?success=x_linked", w.Header().Get("Location"))

	stored, err := e.products.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.XAccountID)
	acc, err := e.accounts.GetByID(context.Background(), *stored.XAccountID)
	require.NoError(t, err)
	assert.Equal(t, "pennyapp", acc.Username)
	assert.Equal(t, "refresh-1", acc.RefreshToken)
}

func TestXCallbackRejectsStateMismatch(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/v1/x/callback?code=c1&state=other", nil,
		&http.Cookie{Name: "x_oauth_state", Value: "mine"},
		&http.Cookie{Name: "x_oauth_verifier", Value: "v"})
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasSuffix(w.Header().Get("Location"), "error=x_oauth_denied"))
}

func TestInstagramAuthRequiresConfig(t *testing.T) {
	e := newEnv(t)
	w := e.do(http.MethodGet, "/api/v1/instagram/auth", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = e.do(http.MethodGet, "/api/v1/instagram/callback?error=access_denied", nil)
	assert.Equal(t, "/settings?error=oauth_denied", w.Header().Get("Location"))
}
