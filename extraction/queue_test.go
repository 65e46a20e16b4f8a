package extraction_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/eventbus"
	"social-pilot/events"
	"social-pilot/extraction"
	"social-pilot/internal/memstore"
	"social-pilot/models"
)

func TestLocalQueueCoalescesTriggersDuringRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	started := make(chan struct{}, 4)
	var runs, concurrent, maxConcurrent atomic.Int32

	q := extraction.NewLocalQueue(func(ctx context.Context, id primitive.ObjectID) error {
		n := concurrent.Add(1)
		for {
			m := maxConcurrent.Load()
			if n <= m || maxConcurrent.CompareAndSwap(m, n) {
				break
			}
		}
		runs.Add(1)
		started <- struct{}{}
		<-release
		concurrent.Add(-1)
		return nil
	}, 4, 16)
	q.Start(ctx)

	id := primitive.NewObjectID()
	require.NoError(t, q.Enqueue(ctx, id))
	<-started

	// three triggers mid-run collapse into one follow-up
	for range 3 {
		require.NoError(t, q.Enqueue(ctx, id))
	}
	release <- struct{}{}
	<-started
	release <- struct{}{}

	assert.Never(t, func() bool { return runs.Load() > 2 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, int32(2), runs.Load())
	assert.Equal(t, int32(1), maxConcurrent.Load())

	cancel()
	q.Wait()
}

func TestLocalQueueRunsProductsInParallel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(2)
	gate := make(chan struct{})
	q := extraction.NewLocalQueue(func(ctx context.Context, id primitive.ObjectID) error {
		wg.Done()
		<-gate
		return nil
	}, 2, 4)
	q.Start(ctx)

	require.NoError(t, q.Enqueue(ctx, primitive.NewObjectID()))
	require.NoError(t, q.Enqueue(ctx, primitive.NewObjectID()))

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("products did not run concurrently")
	}
	close(gate)
}

func TestLocalQueueFull(t *testing.T) {
	q := extraction.NewLocalQueue(func(ctx context.Context, id primitive.ObjectID) error { return nil }, 1, 1)
	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, primitive.NewObjectID()))
	assert.ErrorIs(t, q.Enqueue(ctx, primitive.NewObjectID()), extraction.ErrQueueFull)
}

type recordingQueue struct {
	ids []primitive.ObjectID
}

func (q *recordingQueue) Enqueue(ctx context.Context, id primitive.ObjectID) error {
	q.ids = append(q.ids, id)
	return nil
}

func TestServiceTrigger(t *testing.T) {
	ctx := context.Background()
	products := memstore.NewProducts()
	queue := &recordingQueue{}
	svc := extraction.NewService(products, queue)

	noBrief := &models.Product{Name: "Empty"}
	require.NoError(t, products.Create(ctx, noBrief))
	_, err := svc.Trigger(ctx, noBrief.ID)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
	assert.Equal(t, "No brief stored, upload one first", apperr.Reason(err))

	_, err = svc.Trigger(ctx, primitive.NewObjectID())
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	p := &models.Product{Name: "Penny", Brief: "brief"}
	require.NoError(t, products.Create(ctx, p))
	status, err := svc.Trigger(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionPending, status)
	assert.Equal(t, []primitive.ObjectID{p.ID}, queue.ids)

	stored, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExtractionPending, stored.ExtractionStatus)
}

func TestKafkaQueueRoundTrip(t *testing.T) {
	bus := eventbus.NewMemoryBus()
	q := extraction.NewKafkaQueue(events.NewDispatcher(bus, "api"))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	id := primitive.NewObjectID()
	require.NoError(t, q.Enqueue(ctx, id))

	got := make(chan primitive.ObjectID, 1)
	handler := extraction.EventHandler(func(ctx context.Context, productID primitive.ObjectID) error {
		select {
		case got <- productID:
		default:
		}
		return extraction.ErrClaimHeld
	})
	go func() { _ = bus.Subscribe(ctx, "worker", eventbus.TopicExtractionRequests, handler) }()

	select {
	case pid := <-got:
		assert.Equal(t, id, pid)
	case <-ctx.Done():
		t.Fatal("event not consumed")
	}
	// a held claim rides the retry topics
	assert.Eventually(t, func() bool {
		return len(bus.Published(eventbus.TopicExtractionRequests.GetRetryTopics()[0])) > 0
	}, time.Second, 10*time.Millisecond)
}
