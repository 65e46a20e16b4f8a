package services_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/briefimport"
	"social-pilot/extraction"
	"social-pilot/internal/memstore"
	"social-pilot/models"
	"social-pilot/revisions"
	"social-pilot/services"
)

type recordingQueue struct {
	mu  sync.Mutex
	ids []primitive.ObjectID
}

func (q *recordingQueue) Enqueue(ctx context.Context, id primitive.ObjectID) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.ids = append(q.ids, id)
	return nil
}

type stubImporter struct {
	page, feed string
	brief      string
}

func (s *stubImporter) Import(ctx context.Context, pageURL, feedURL string) (*briefimport.Result, error) {
	s.page, s.feed = pageURL, feedURL
	return &briefimport.Result{Brief: s.brief, Extractor: "readability"}, nil
}

type productFixture struct {
	products  *memstore.Products
	revisions *memstore.Revisions
	queue     *recordingQueue
	importer  *stubImporter
	svc       *services.ProductService
}

func newProductFixture() *productFixture {
	f := &productFixture{
		products:  memstore.NewProducts(),
		revisions: memstore.NewRevisions(),
		queue:     &recordingQueue{},
		importer:  &stubImporter{brief: "# Penny\n\nImported text"},
	}
	snap := revisions.NewSnapshotter(f.revisions, f.products)
	f.svc = services.NewProductService(f.products, snap, extraction.NewService(f.products, f.queue), f.importer)
	return f
}

func TestCreateProductQueuesExtraction(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()

	p, err := f.svc.Create(ctx, services.CreateProductInput{Name: " Penny ", Brief: "A budgeting app", Screenshots: []string{"/uploads/a.png", " "}})
	require.NoError(t, err)
	assert.Equal(t, "Penny", p.Name)
	assert.Equal(t, []string{"/uploads/a.png"}, p.Screenshots)
	assert.Equal(t, models.ExtractionPending, p.ExtractionStatus)
	assert.Equal(t, []primitive.ObjectID{p.ID}, f.queue.ids)

	bare, err := f.svc.Create(ctx, services.CreateProductInput{Name: "Empty"})
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionNone, bare.ExtractionStatus)
	assert.Len(t, f.queue.ids, 1)

	_, err = f.svc.Create(ctx, services.CreateProductInput{Name: ""})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	_, err = f.svc.Create(ctx, services.CreateProductInput{Name: "x", TextProvider: "gpt"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestUpdateBriefSnapshotsAndRetriggers(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	p, err := f.svc.Create(ctx, services.CreateProductInput{Name: "Penny", Brief: "v1"})
	require.NoError(t, err)

	_, err = f.svc.UpdateBrief(ctx, p.ID, "v2", "plan.md")
	require.NoError(t, err)

	stored, err := f.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", stored.Brief)
	assert.Equal(t, "plan.md", stored.BriefFileName)

	revs, err := f.revisions.ListByProduct(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, "v1", revs[0].Content)
	assert.Equal(t, models.SourceManual, revs[0].Source)
	assert.Len(t, f.queue.ids, 2)

	_, err = f.svc.UpdateBrief(ctx, primitive.NewObjectID(), "v3", "")
	assert.Equal(t, "Product not found", apperr.Reason(err))
}

func TestImportBriefUsesStoredURLs(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	p, err := f.svc.Create(ctx, services.CreateProductInput{Name: "Penny", URL: "https://penny.app", FeedURL: "https://penny.app/feed.xml", Brief: "old"})
	require.NoError(t, err)

	_, res, err := f.svc.ImportBrief(ctx, p.ID, "", "")
	require.NoError(t, err)
	assert.Equal(t, "readability", res.Extractor)
	assert.Equal(t, "https://penny.app", f.importer.page)
	assert.Equal(t, "https://penny.app/feed.xml", f.importer.feed)

	revs, err := f.revisions.ListByProduct(ctx, p.ID, nil)
	require.NoError(t, err)
	require.Len(t, revs, 1)
	assert.Equal(t, models.SourceImport, revs[0].Source)

	_, _, err = f.svc.ImportBrief(ctx, p.ID, "https://penny.app/new", "")
	require.NoError(t, err)
	stored, _ := f.products.GetByID(ctx, p.ID)
	assert.Equal(t, "https://penny.app/new", stored.URL)
}

func TestUpdateStrategyAcceptsLegacyHooks(t *testing.T) {
	f := newProductFixture()
	ctx := context.Background()
	p, err := f.svc.Create(ctx, services.CreateProductInput{Name: "Penny"})
	require.NoError(t, err)

	out, err := f.svc.UpdateStrategy(ctx, p.ID, json.RawMessage(`{"hooks":["Taxes ate my paycheck"],"contentPillars":["money calm"]}`))
	require.NoError(t, err)
	require.Len(t, out.Strategy.Hooks, 1)
	assert.Equal(t, "Taxes ate my paycheck", out.Strategy.Hooks[0].Text)

	_, err = f.svc.UpdateStrategy(ctx, p.ID, json.RawMessage(`{"hooks":`))
	assert.Equal(t, "Invalid strategy content", apperr.Reason(err))

	_, err = f.svc.UpdateProfile(ctx, p.ID, json.RawMessage(`{"name":"Penny","tone":"warm"}`))
	require.NoError(t, err)
}

func newPostService(t *testing.T) (*services.PostService, *models.Product) {
	t.Helper()
	products := memstore.NewProducts()
	p := &models.Product{Name: "Penny"}
	require.NoError(t, products.Create(context.Background(), p))
	return services.NewPostService(memstore.NewPosts(), products), p
}

func TestPostLifecycle(t *testing.T) {
	svc, product := newPostService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, services.CreatePostInput{ProductID: product.ID, Platform: "x", Type: "post", Content: "Budget calmly."})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, post.Status)
	assert.Equal(t, models.PlatformTwitter, post.Platform)
	assert.Equal(t, []string{}, post.Hashtags)

	approved := models.StatusApproved
	post, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Status: &approved})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, post.Status)

	scheduled := models.StatusScheduled
	_, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Status: &scheduled})
	assert.Equal(t, "scheduledAt required for scheduled posts", apperr.Reason(err))

	at := time.Now().Add(time.Hour)
	post, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Status: &scheduled, ScheduledAt: &at})
	require.NoError(t, err)
	assert.Equal(t, models.StatusScheduled, post.Status)

	post, err = svc.Update(ctx, post.ID, services.UpdatePostInput{ClearSchedule: true})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, post.Status)
	assert.Nil(t, post.ScheduledAt)

	posted := models.StatusPosted
	_, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Status: &posted})
	assert.Equal(t, "Posts become posted only by publishing", apperr.Reason(err))

	list, err := svc.ListByProduct(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestPostContentEditsOnlyInDraft(t *testing.T) {
	svc, product := newPostService(t)
	ctx := context.Background()

	post, err := svc.Create(ctx, services.CreatePostInput{ProductID: product.ID, Platform: "instagram", Type: "post", Content: "v1"})
	require.NoError(t, err)

	edit := "v2"
	post, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Content: &edit})
	require.NoError(t, err)
	assert.Equal(t, "v2", post.Content)

	approved := models.StatusApproved
	_, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Status: &approved})
	require.NoError(t, err)

	late := "v3"
	_, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Content: &late})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
	_, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Hashtags: []string{"money"}})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	stored, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", stored.Content)
	assert.Equal(t, models.StatusApproved, stored.Status)

	draft := models.StatusDraft
	post, err = svc.Update(ctx, post.ID, services.UpdatePostInput{Status: &draft, Content: &late})
	require.NoError(t, err)
	assert.Equal(t, "v3", post.Content)
	assert.Equal(t, models.StatusDraft, post.Status)
}

func TestCreatePostValidation(t *testing.T) {
	svc, product := newPostService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   services.CreatePostInput
		want string
	}{
		{"empty content", services.CreatePostInput{ProductID: product.ID, Platform: "instagram", Type: "post"}, "content required"},
		{"bad platform", services.CreatePostInput{ProductID: product.ID, Platform: "tiktok", Type: "post", Content: "x"}, "Invalid platform"},
		{"bad type", services.CreatePostInput{ProductID: product.ID, Platform: "instagram", Type: "short", Content: "x"}, "Invalid content type"},
		{"unknown product", services.CreatePostInput{ProductID: primitive.NewObjectID(), Platform: "instagram", Type: "post", Content: "x"}, "Product not found"},
		{"posted", services.CreatePostInput{ProductID: product.ID, Platform: "instagram", Type: "post", Content: "x", Status: models.StatusPosted}, "Posts become posted only by publishing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tt.in)
			require.Error(t, err)
			assert.Equal(t, tt.want, apperr.Reason(err))
		})
	}
}
