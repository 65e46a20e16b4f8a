package events_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/eventbus"
	"social-pilot/events"
	"social-pilot/models"
)

func TestNilDispatcherIsNoop(t *testing.T) {
	var d *events.Dispatcher
	ctx := context.Background()
	assert.NoError(t, d.RequestExtraction(ctx, primitive.NewObjectID()))
	d.ExtractionFailed(ctx, primitive.NewObjectID(), "nope")
	d.PostPublished(ctx, &models.Post{})

	noBus := events.NewDispatcher(nil, "api")
	assert.NoError(t, noBus.RequestExtraction(ctx, primitive.NewObjectID()))
}

func TestDispatcherPublishesTypedEvents(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	d := events.NewDispatcher(bus, "api")
	ctx := context.Background()

	productID := primitive.NewObjectID()
	require.NoError(t, d.RequestExtraction(ctx, productID))

	reqs := bus.Published(eventbus.TopicExtractionRequests.Base())
	require.Len(t, reqs, 1)
	typ, err := events.PeekType(reqs[0])
	require.NoError(t, err)
	assert.Equal(t, events.ExtractionRequested, typ)
	payload, err := eventbus.DecodeJSON[events.ExtractionRequestedEvent](reqs[0])
	require.NoError(t, err)
	assert.Equal(t, productID, payload.ProductID)
	assert.Equal(t, "api", payload.Source)

	now := time.Now()
	d.PostPublished(ctx, &models.Post{ID: primitive.NewObjectID(), Platform: models.PlatformTwitter, PlatformPostID: "123", PostedAt: &now})
	d.PostPublishFailed(ctx, &models.Post{ID: primitive.NewObjectID(), Platform: models.PlatformInstagram}, "Missing public image URL")

	postEvents := bus.Published(eventbus.TopicPostEvents.Base())
	require.Len(t, postEvents, 2)
	published, err := eventbus.DecodeJSON[events.PostPublishedEvent](postEvents[0])
	require.NoError(t, err)
	assert.Equal(t, events.PostPublished, published.Type)
	assert.Equal(t, "123", published.PlatformPostID)

	failed, err := eventbus.DecodeJSON[events.PostPublishFailedEvent](postEvents[1])
	require.NoError(t, err)
	assert.Equal(t, "Missing public image URL", failed.Error)
}
