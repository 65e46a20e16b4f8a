// Package scheduler publishes posts whose scheduled time has passed.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/internal/trace"
	"social-pilot/models"
)

type PostFinder interface {
	FindDue(ctx context.Context, now time.Time) ([]models.Post, error)
}

type Publisher interface {
	Publish(ctx context.Context, postID primitive.ObjectID) (*models.Post, error)
}

// Result of one tick.
type Result struct {
	Processed int  `json:"processedCount"`
	Failed    int  `json:"failedCount"`
	Skipped   bool `json:"skipped,omitempty"`
}

type Scheduler struct {
	posts     PostFinder
	publisher Publisher
	interval  time.Duration
	running   atomic.Bool
	now       func() time.Time
}

func New(posts PostFinder, publisher Publisher, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{posts: posts, publisher: publisher, interval: interval, now: time.Now}
}

// RunTick publishes every due post in order. A tick requested while another
// is running returns immediately with Skipped set.
func (s *Scheduler) RunTick(ctx context.Context) (Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		logger.Log.Info("scheduler tick skipped, previous tick still running")
		return Result{Skipped: true}, nil
	}
	defer s.running.Store(false)

	ctx = trace.Background(ctx)
	due, err := s.posts.FindDue(ctx, s.now())
	if err != nil {
		return Result{}, err
	}

	var res Result
	for _, p := range due {
		if ctx.Err() != nil {
			break
		}
		if _, err := s.publisher.Publish(ctx, p.ID); err != nil {
			res.Failed++
			logger.ErrorWithFields("scheduled post failed", logger.Fields{
				"post_id":  p.ID.Hex(),
				"platform": string(p.Platform),
				"kind":     string(apperr.KindOf(err)),
				"error":    apperr.Reason(err),
			})
			continue
		}
		res.Processed++
	}
	if len(due) > 0 {
		logger.Log.Infof("scheduler: %d published, %d failed out of %d due", res.Processed, res.Failed, len(due))
	}
	return res, nil
}

// Start ticks until ctx is done. The first tick runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	logger.Log.Infof("scheduler started (%s interval)", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunTick(ctx); err != nil {
			logger.Log.Errorf("scheduler tick error: %v", err)
		}
		select {
		case <-ctx.Done():
			logger.Log.Info("scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}
