package extraction_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/eventbus"
	"social-pilot/events"
	"social-pilot/extraction"
	"social-pilot/internal/memstore"
	"social-pilot/internal/providertest"
	"social-pilot/models"
	"social-pilot/providers"
	"social-pilot/revisions"
)

const extractionReply = "Here is the analysis:\n```json\n" + `{
  "appProfile": {
    "name": "Penny",
    "tagline": "Budgeting for people with irregular income",
    "category": "finance",
    "coreValue": "Know what you can spend this week",
    "features": ["income smoothing", "tax buckets"],
    "audience": {"primary": "freelancers", "demographics": "25-40", "psychographics": "hates spreadsheets"},
    "tone": "Warm",
    "visualIdentity": {"style": "", "colors": "", "mood": ""},
    "differentiators": ["built for uneven paychecks"]
  },
  "marketingStrategy": {
    "hooks": ["Your paycheck is not a salary", {"text": "Stop guessing taxes", "category": "pain"}],
    "contentPillars": ["money calm"],
    "painPoints": ["tax surprises"],
    "desirePoints": ["a boring bank balance"],
    "objections": [{"objection": "Another app?", "counter": "It replaces three"}],
    "toneGuidelines": "friendly",
    "visualDirection": "soft daylight desk scenes"
  }
}` + "\n```"

type fixture struct {
	products *memstore.Products
	revs     *memstore.Revisions
	logs     *memstore.AILogs
	bus      *eventbus.MemoryBus
	text     *providertest.TextProvider
	pipeline *extraction.Pipeline
	product  *models.Product
}

func newFixture(t *testing.T, product *models.Product, replies ...string) *fixture {
	t.Helper()
	f := &fixture{
		products: memstore.NewProducts(),
		revs:     memstore.NewRevisions(),
		logs:     memstore.NewAILogs(),
		bus:      eventbus.NewMemoryBus(),
		text:     providertest.NewText(providers.GeminiName, replies...),
		product:  product,
	}
	require.NoError(t, f.products.Create(context.Background(), product))
	f.pipeline = extraction.NewPipeline(
		f.products,
		revisions.NewSnapshotter(f.revs, f.products),
		nil,
		providers.NewRegistry("", f.text),
		memstore.NewSettings(),
		providers.NewAuditor(f.logs, nil),
		events.NewDispatcher(f.bus, "test"),
		extraction.Options{},
	)
	return f
}

func TestRunStoresProfileAndStrategy(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny", Brief: "# Penny\nBudgeting for freelancers"}, extractionReply)
	ctx := context.Background()

	require.NoError(t, f.pipeline.Run(ctx, f.product.ID))

	stored, err := f.products.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionDone, stored.ExtractionStatus)
	assert.Empty(t, stored.ExtractionError)
	assert.Nil(t, stored.ExtractionStartedAt)

	require.NotNil(t, stored.Profile)
	assert.Equal(t, "Penny", stored.Profile.Name)
	assert.NotEmpty(t, stored.Profile.VisualIdentity.Style)
	assert.NotEmpty(t, stored.Profile.VisualIdentity.Colors)
	assert.NotEmpty(t, stored.Profile.VisualIdentity.Mood)
	assert.Contains(t, stored.Profile.VisualIdentity.Style, "soft daylight desk scenes")

	require.NotNil(t, stored.Strategy)
	require.Len(t, stored.Strategy.Hooks, 2)
	assert.Equal(t, models.HookCuriosity, stored.Strategy.Hooks[0].Category)
	assert.Equal(t, models.StageConsideration, stored.Strategy.Objections[0].Stage)

	reqs := f.text.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, 4096, reqs[0].MaxOutputTokens)
	assert.InDelta(t, 0.3, reqs[0].Temperature, 1e-6)
	assert.Empty(t, reqs[0].Images)
	assert.Contains(t, reqs[0].System, "Budgeting for freelancers")

	logs := f.logs.Entries()
	require.Len(t, logs, 1)
	assert.Equal(t, models.PurposeExtraction, logs[0].Purpose)

	revs, err := f.revs.ListByProduct(ctx, f.product.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, revs)

	published := f.bus.Published(eventbus.TopicPostEvents.Base())
	require.Len(t, published, 1)
	typ, err := events.PeekType(published[0])
	require.NoError(t, err)
	assert.Equal(t, events.ExtractionCompleted, typ)
}

func TestRunSnapshotsPreviousValues(t *testing.T) {
	existing := &models.Product{
		Name:     "Penny",
		Brief:    "brief",
		Profile:  &models.Profile{Name: "Old Penny", Tone: "dry"},
		Strategy: &models.Strategy{PainPoints: []string{"old pain"}},
	}
	f := newFixture(t, existing, extractionReply)
	ctx := context.Background()

	require.NoError(t, f.pipeline.Run(ctx, existing.ID))

	revs, err := f.revs.ListByProduct(ctx, existing.ID, nil)
	require.NoError(t, err)
	require.Len(t, revs, 2)
	for _, r := range revs {
		assert.Equal(t, models.SourceExtraction, r.Source)
	}
	fields := []models.RevisionField{revs[0].Field, revs[1].Field}
	assert.ElementsMatch(t, []models.RevisionField{models.FieldProfile, models.FieldStrategy}, fields)
}

func TestRunRecordsParseFailure(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny", Brief: "brief"}, "Sorry, I cannot help with that.")
	ctx := context.Background()

	require.NoError(t, f.pipeline.Run(ctx, f.product.ID))

	stored, err := f.products.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionFailed, stored.ExtractionStatus)
	assert.Equal(t, "Failed to parse extraction response", stored.ExtractionError)
	assert.Nil(t, stored.Profile)
	assert.Nil(t, stored.Strategy)
}

func TestRunRecordsMissingBrief(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny"}, extractionReply)
	require.NoError(t, f.pipeline.Run(context.Background(), f.product.ID))

	stored, err := f.products.GetByID(context.Background(), f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionFailed, stored.ExtractionStatus)
	assert.Equal(t, "No brief stored, upload one first", stored.ExtractionError)
	assert.Empty(t, f.text.Requests())
}

func TestRunSkipsWhenClaimHeld(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny", Brief: "brief"}, extractionReply)
	ctx := context.Background()
	require.NoError(t, f.products.ClaimExtraction(ctx, f.product.ID, time.Now(), time.Now().Add(-time.Minute)))

	err := f.pipeline.Run(ctx, f.product.ID)
	assert.ErrorIs(t, err, extraction.ErrClaimHeld)
	assert.Empty(t, f.text.Requests())
}

func TestHeldClaimEventRerunsWithEditedBrief(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny", Brief: "brief v1"}, extractionReply)
	ctx := context.Background()

	// another worker is extracting brief v1
	require.NoError(t, f.products.ClaimExtraction(ctx, f.product.ID, time.Now(), time.Now().Add(-time.Minute)))

	p, err := f.products.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	require.NoError(t, revisions.NewSnapshotter(f.revs, f.products).Write(ctx, p, models.FieldBrief, "brief v2", models.SourceManual))
	require.NoError(t, events.NewDispatcher(f.bus, "api").RequestExtraction(ctx, f.product.ID))
	published := f.bus.Published(eventbus.TopicExtractionRequests.Base())
	require.Len(t, published, 1)

	handler := extraction.EventHandler(f.pipeline.Run)
	err = handler(ctx, published[0])
	require.ErrorIs(t, err, extraction.ErrClaimHeld)
	assert.Empty(t, f.text.Requests())

	// the other worker finishes, then the retried event is redelivered
	require.NoError(t, f.products.SetExtractionStatus(ctx, f.product.ID, models.ExtractionDone, ""))
	require.NoError(t, handler(ctx, published[0]))

	reqs := f.text.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].System, "brief v2")
	stored, err := f.products.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionDone, stored.ExtractionStatus)
}

func TestRunTakesOverStaleClaim(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny", Brief: "brief"}, extractionReply)
	ctx := context.Background()
	old := time.Now().Add(-time.Hour)
	require.NoError(t, f.products.ClaimExtraction(ctx, f.product.ID, old, old.Add(-time.Minute)))

	require.NoError(t, f.pipeline.Run(ctx, f.product.ID))
	stored, err := f.products.GetByID(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionDone, stored.ExtractionStatus)
}

func TestRunMissingProduct(t *testing.T) {
	f := newFixture(t, &models.Product{Name: "Penny", Brief: "brief"}, extractionReply)
	assert.NoError(t, f.pipeline.Run(context.Background(), primitive.NewObjectID()))
}

func TestFillVisualIdentityKeepsProvidedValues(t *testing.T) {
	p := models.Profile{Tone: "Playful", VisualIdentity: models.VisualIdentity{Style: "flat illustration"}}
	extraction.FillVisualIdentity(&p, models.Strategy{})
	assert.Equal(t, "flat illustration", p.VisualIdentity.Style)
	assert.Contains(t, p.VisualIdentity.Colors, "bright primaries")
	assert.Contains(t, p.VisualIdentity.Mood, "playful")
}
