// Package memstore provides in-memory stores with the same behaviour as
// the Mongo repositories. Used by tests and local runs without a database.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/models"
	"social-pilot/repositories"
)

// clone deep-copies through JSON so callers never share pointers with the store.
func clone[T any](in *T) *T {
	b, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		panic(err)
	}
	return &out
}

type Products struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Product
}

func NewProducts() *Products {
	return &Products{items: map[primitive.ObjectID]*models.Product{}}
}

func (s *Products) Create(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	p.Normalize()
	s.items[p.ID] = clone(p)
	return nil
}

func (s *Products) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := clone(p)
	out.Normalize()
	return out, nil
}

func (s *Products) List(ctx context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Product, 0, len(s.items))
	for _, p := range s.items {
		out = append(out, *clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Products) UpdateDetails(ctx context.Context, p *models.Product) error {
	return s.update(p.ID, func(cur *models.Product) {
		cur.Name = p.Name
		cur.Description = p.Description
		cur.URL = p.URL
		cur.FeedURL = p.FeedURL
		cur.Screenshots = append([]string(nil), p.Screenshots...)
		cur.TextProvider = p.TextProvider
	})
}

func (s *Products) SaveContent(ctx context.Context, p *models.Product, fields ...models.RevisionField) error {
	for _, f := range fields {
		if _, err := p.FieldContent(f); err != nil {
			return err
		}
	}
	snapshot := clone(p)
	return s.update(p.ID, func(cur *models.Product) {
		for _, f := range fields {
			switch f {
			case models.FieldBrief:
				cur.Brief = snapshot.Brief
				cur.BriefFileName = snapshot.BriefFileName
			case models.FieldProfile:
				cur.Profile = snapshot.Profile
			case models.FieldStrategy:
				cur.Strategy = snapshot.Strategy
			}
		}
	})
}

func (s *Products) SetExtractionStatus(ctx context.Context, id primitive.ObjectID, status models.ExtractionStatus, errMsg string) error {
	return s.update(id, func(cur *models.Product) {
		cur.ExtractionStatus = status
		cur.ExtractionError = errMsg
		switch status {
		case models.ExtractionDone, models.ExtractionFailed, models.ExtractionNone:
			cur.ExtractionStartedAt = nil
		}
	})
}

func (s *Products) ClaimExtraction(ctx context.Context, id primitive.ObjectID, now, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	if cur.ExtractionStartedAt != nil && !cur.ExtractionStartedAt.Before(staleBefore) {
		return repositories.ErrConflict
	}
	cur.ExtractionStatus = models.ExtractionExtracting
	cur.ExtractionError = ""
	started := now
	cur.ExtractionStartedAt = &started
	cur.UpdatedAt = now
	return nil
}

func (s *Products) LinkAccount(ctx context.Context, id primitive.ObjectID, platform models.Platform, accountID primitive.ObjectID) error {
	if platform != models.PlatformInstagram && platform != models.PlatformTwitter {
		return fmt.Errorf("unknown platform %q", platform)
	}
	return s.update(id, func(cur *models.Product) {
		acc := accountID
		if platform == models.PlatformInstagram {
			cur.InstagramAccountID = &acc
		} else {
			cur.XAccountID = &acc
		}
	})
}

func (s *Products) update(id primitive.ObjectID, fn func(*models.Product)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(cur)
	cur.UpdatedAt = time.Now()
	return nil
}

type Posts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Post
}

func NewPosts() *Posts {
	return &Posts{items: map[primitive.ObjectID]*models.Post{}}
}

func (s *Posts) Create(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = models.StatusDraft
	}
	if p.Hashtags == nil {
		p.Hashtags = []string{}
	}
	s.items[p.ID] = clone(p)
	return nil
}

func (s *Posts) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return clone(p), nil
}

func (s *Posts) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.items {
		if p.ProductID == productID {
			out = append(out, *clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Posts) FindDue(ctx context.Context, now time.Time) ([]models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Post{}
	for _, p := range s.items {
		if p.Status == models.StatusScheduled && p.ScheduledAt != nil && !p.ScheduledAt.After(now) {
			out = append(out, *clone(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(*out[j].ScheduledAt) })
	return out, nil
}

func (s *Posts) UpdateEditable(ctx context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[p.ID]
	if !ok || cur.Status == models.StatusPosted {
		return repositories.ErrConflict
	}
	cur.Content = p.Content
	cur.Hashtags = append([]string(nil), p.Hashtags...)
	cur.MediaURL = p.MediaURL
	cur.PublicMediaURL = p.PublicMediaURL
	cur.Status = p.Status
	cur.ScheduledAt = p.ScheduledAt
	cur.UpdatedAt = time.Now()
	return nil
}

func (s *Posts) BeginPublishAttempt(ctx context.Context, id primitive.ObjectID, key string, now, staleBefore time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok || cur.Status == models.StatusPosted {
		return repositories.ErrConflict
	}
	if cur.PublishAttempt != nil && !cur.PublishAttempt.StartedAt.Before(staleBefore) {
		return repositories.ErrConflict
	}
	cur.PublishAttempt = &models.PublishAttempt{Key: key, StartedAt: now}
	return nil
}

func (s *Posts) MarkPosted(ctx context.Context, id primitive.ObjectID, key, platformPostID string, postedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok || cur.PublishAttempt == nil || cur.PublishAttempt.Key != key {
		return repositories.ErrConflict
	}
	cur.Status = models.StatusPosted
	cur.PlatformPostID = platformPostID
	at := postedAt
	cur.PostedAt = &at
	cur.LastError = ""
	cur.PublishAttempt = nil
	return nil
}

func (s *Posts) FailPublishAttempt(ctx context.Context, id primitive.ObjectID, key, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok || cur.PublishAttempt == nil || cur.PublishAttempt.Key != key {
		return nil
	}
	cur.LastError = errMsg
	cur.PublishAttempt = nil
	return nil
}

type Accounts struct {
	mu    sync.Mutex
	items map[primitive.ObjectID]*models.Account
}

func NewAccounts() *Accounts {
	return &Accounts{items: map[primitive.ObjectID]*models.Account{}}
}

func (s *Accounts) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.items[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	out := *a
	return &out, nil
}

func (s *Accounts) ListByPlatform(ctx context.Context, platform models.Platform) ([]models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Account{}
	for _, a := range s.items {
		if a.Platform == platform {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Accounts) Upsert(ctx context.Context, a *models.Account) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, cur := range s.items {
		if cur.Platform == a.Platform && cur.ExternalUserID == a.ExternalUserID {
			cur.Username = a.Username
			cur.AccessToken = a.AccessToken
			cur.RefreshToken = a.RefreshToken
			cur.TokenExpiresAt = a.TokenExpiresAt
			if a.PageID != "" {
				cur.PageID = a.PageID
			}
			cur.UpdatedAt = now
			out := *cur
			return &out, nil
		}
	}
	stored := *a
	if stored.ID.IsZero() {
		stored.ID = primitive.NewObjectID()
	}
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.items[stored.ID] = &stored
	out := stored
	return &out, nil
}

func (s *Accounts) UpdateTokens(ctx context.Context, id primitive.ObjectID, accessToken, refreshToken string, expiresAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[id]
	if !ok {
		return repositories.ErrNotFound
	}
	cur.AccessToken = accessToken
	cur.RefreshToken = refreshToken
	cur.TokenExpiresAt = expiresAt
	cur.UpdatedAt = time.Now()
	return nil
}

type Revisions struct {
	mu    sync.Mutex
	items []models.Revision
}

func NewRevisions() *Revisions { return &Revisions{} }

func (s *Revisions) Insert(ctx context.Context, rev *models.Revision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rev.ID.IsZero() {
		rev.ID = primitive.NewObjectID()
	}
	if rev.CreatedAt.IsZero() {
		rev.CreatedAt = time.Now()
	}
	s.items = append(s.items, *rev)
	return nil
}

func (s *Revisions) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.items {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, repositories.ErrNotFound
}

// ListByProduct returns newest first; insertion order breaks ties.
func (s *Revisions) ListByProduct(ctx context.Context, productID primitive.ObjectID, field *models.RevisionField) ([]models.Revision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []models.Revision{}
	for i := len(s.items) - 1; i >= 0; i-- {
		r := s.items[i]
		if r.ProductID != productID || (field != nil && r.Field != *field) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type Settings struct {
	mu    sync.Mutex
	items map[string]string
}

func NewSettings() *Settings { return &Settings{items: map[string]string{}} }

func (s *Settings) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.items[key], nil
}

func (s *Settings) All(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.items))
	for k, v := range s.items {
		out[k] = v
	}
	return out, nil
}

func (s *Settings) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
	return nil
}

type AILogs struct {
	mu    sync.Mutex
	items []models.AILog
}

func NewAILogs() *AILogs { return &AILogs{} }

func (s *AILogs) Insert(ctx context.Context, l *models.AILog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, *l)
	return nil
}

func (s *AILogs) Entries() []models.AILog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.AILog(nil), s.items...)
}
