package extraction

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/internal/logger"
)

// Queue delivers extraction tasks at least once.
type Queue interface {
	Enqueue(ctx context.Context, productID primitive.ObjectID) error
}

// RunFunc executes one extraction.
type RunFunc func(ctx context.Context, productID primitive.ObjectID) error

var ErrQueueFull = errors.New("extraction queue is full")

type jobState int

const (
	jobQueued jobState = iota + 1
	jobRunning
	// jobRerun: a trigger arrived while running, one more run follows.
	jobRerun
)

// LocalQueue is an in-process worker pool. A product is never run twice at
// the same time; triggers arriving mid-run collapse into one follow-up run.
type LocalQueue struct {
	run     RunFunc
	workers int
	jobs    chan primitive.ObjectID

	mu    sync.Mutex
	state map[primitive.ObjectID]jobState

	wg sync.WaitGroup
}

func NewLocalQueue(run RunFunc, workers, capacity int) *LocalQueue {
	if workers <= 0 {
		workers = 1
	}
	if capacity <= 0 {
		capacity = 256
	}
	return &LocalQueue{
		run:     run,
		workers: workers,
		jobs:    make(chan primitive.ObjectID, capacity),
		state:   map[primitive.ObjectID]jobState{},
	}
}

// Start launches the workers. They stop when ctx is done; Wait blocks until
// they have.
func (q *LocalQueue) Start(ctx context.Context) {
	for range q.workers {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			q.work(ctx)
		}()
	}
}

func (q *LocalQueue) Wait() {
	q.wg.Wait()
}

func (q *LocalQueue) Enqueue(ctx context.Context, productID primitive.ObjectID) error {
	q.mu.Lock()
	switch q.state[productID] {
	case jobQueued, jobRerun:
		q.mu.Unlock()
		return nil
	case jobRunning:
		q.state[productID] = jobRerun
		q.mu.Unlock()
		return nil
	}
	q.state[productID] = jobQueued
	q.mu.Unlock()

	select {
	case q.jobs <- productID:
		return nil
	default:
		q.mu.Lock()
		delete(q.state, productID)
		q.mu.Unlock()
		return ErrQueueFull
	}
}

func (q *LocalQueue) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case id := <-q.jobs:
			q.mu.Lock()
			q.state[id] = jobRunning
			q.mu.Unlock()

			if err := q.run(ctx, id); err != nil && !errors.Is(err, ErrClaimHeld) {
				logger.Log.Errorf("extraction run for %s failed: %v", id.Hex(), err)
			}

			q.mu.Lock()
			again := q.state[id] == jobRerun
			if again {
				q.state[id] = jobQueued
			} else {
				delete(q.state, id)
			}
			q.mu.Unlock()

			if again {
				q.requeue(ctx, id)
			}
		}
	}
}

func (q *LocalQueue) requeue(ctx context.Context, id primitive.ObjectID) {
	select {
	case q.jobs <- id:
	default:
		// 채널이 가득 차면 워커를 막지 않도록 별도 고루틴에서 넣는다
		go func() {
			select {
			case q.jobs <- id:
			case <-ctx.Done():
			}
		}()
	}
}
