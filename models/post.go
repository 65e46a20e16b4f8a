package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Platform string

const (
	PlatformInstagram Platform = "instagram"
	PlatformTwitter   Platform = "twitter"
)

// ParsePlatform accepts "x" as an alias for twitter.
func ParsePlatform(s string) (Platform, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "instagram":
		return PlatformInstagram, true
	case "twitter", "x":
		return PlatformTwitter, true
	}
	return "", false
}

type ContentType string

const (
	ContentReel     ContentType = "reel"
	ContentPost     ContentType = "post"
	ContentStory    ContentType = "story"
	ContentCarousel ContentType = "carousel"
	ContentAd       ContentType = "ad"
)

func ParseContentType(s string) (ContentType, bool) {
	ct := ContentType(strings.ToLower(strings.TrimSpace(s)))
	switch ct {
	case ContentReel, ContentPost, ContentStory, ContentCarousel, ContentAd:
		return ct, true
	}
	return "", false
}

type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusApproved  PostStatus = "approved"
	StatusScheduled PostStatus = "scheduled"
	StatusPosted    PostStatus = "posted"
)

func ParsePostStatus(s string) (PostStatus, bool) {
	st := PostStatus(strings.ToLower(strings.TrimSpace(s)))
	switch st {
	case StatusDraft, StatusApproved, StatusScheduled, StatusPosted:
		return st, true
	}
	return "", false
}

type TargetType string

const (
	TargetPain      TargetType = "pain"
	TargetDesire    TargetType = "desire"
	TargetObjection TargetType = "objection"
)

func ParseTargetType(s string) (TargetType, bool) {
	tt := TargetType(strings.ToLower(strings.TrimSpace(s)))
	switch tt {
	case TargetPain, TargetDesire, TargetObjection:
		return tt, true
	}
	return "", false
}

// Provenance records which targeting choices produced a post.
type Provenance struct {
	HookUsed        string     `bson:"hook_used,omitempty" json:"hookUsed,omitempty"`
	PillarUsed      string     `bson:"pillar_used,omitempty" json:"pillarUsed,omitempty"`
	TargetType      TargetType `bson:"target_type,omitempty" json:"targetType,omitempty"`
	TargetValue     string     `bson:"target_value,omitempty" json:"targetValue,omitempty"`
	ToneConstraints []string   `bson:"tone_constraints,omitempty" json:"toneConstraints,omitempty"`
	VisualDirection string     `bson:"visual_direction,omitempty" json:"visualDirection,omitempty"`
}

// PublishAttempt is the lease taken while a post is being sent to its platform.
type PublishAttempt struct {
	Key       string    `bson:"key" json:"key"`
	StartedAt time.Time `bson:"started_at" json:"startedAt"`
}

// Post belongs to exactly one product.
// Collection: posts
type Post struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProductID      primitive.ObjectID `bson:"product_id" json:"productId"`
	Platform       Platform           `bson:"platform" json:"platform"`
	Type           ContentType        `bson:"type" json:"type"`
	Content        string             `bson:"content" json:"content"`
	Hashtags       []string           `bson:"hashtags" json:"hashtags"`
	MediaURL       string             `bson:"media_url,omitempty" json:"mediaUrl,omitempty"`
	PublicMediaURL string             `bson:"public_media_url,omitempty" json:"publicMediaUrl,omitempty"`
	Status         PostStatus         `bson:"status" json:"status"`
	ScheduledAt    *time.Time         `bson:"scheduled_at,omitempty" json:"scheduledAt,omitempty"`
	PostedAt       *time.Time         `bson:"posted_at,omitempty" json:"postedAt,omitempty"`
	PlatformPostID string             `bson:"platform_post_id,omitempty" json:"platformPostId,omitempty"`
	Provenance     Provenance         `bson:"provenance" json:"provenance"`
	PublishAttempt *PublishAttempt    `bson:"publish_attempt,omitempty" json:"publishAttempt,omitempty"`
	LastError      string             `bson:"last_error,omitempty" json:"lastError,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CanTransition reports whether a manual lifecycle move is allowed.
// Only the publishing state machines may set posted.
func (p *Post) CanTransition(to PostStatus) bool {
	if p.Status == StatusPosted {
		return false
	}
	switch to {
	case StatusDraft, StatusApproved:
		return true
	case StatusScheduled:
		return p.ScheduledAt != nil
	}
	return false
}
