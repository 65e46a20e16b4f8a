package dto

import (
	"time"

	"social-pilot/brain"
	"social-pilot/models"
)

// CreatePostRequestDTO 는 생성된 후보를 그대로 저장할 수 있도록 Candidate 와 같은 필드명을 쓴다.
type CreatePostRequestDTO struct {
	ProductID      string            `json:"productId" binding:"required"`
	Platform       string            `json:"platform" binding:"required" example:"instagram"`
	Type           string            `json:"type" binding:"required" example:"post"`
	Content        string            `json:"content" binding:"required"`
	Hashtags       []string          `json:"hashtags"`
	MediaURL       string            `json:"mediaUrl"`
	PublicMediaURL string            `json:"publicMediaUrl"`
	Status         string            `json:"status" example:"draft"`
	ScheduledAt    *time.Time        `json:"scheduledAt"`
	Metadata       models.Provenance `json:"metadata"`
}

// UpdatePostRequestDTO 의 nil 필드는 변경하지 않는다. clearSchedule 은 예약 시각을 지운다.
type UpdatePostRequestDTO struct {
	Content        *string    `json:"content"`
	Hashtags       []string   `json:"hashtags"`
	MediaURL       *string    `json:"mediaUrl"`
	PublicMediaURL *string    `json:"publicMediaUrl"`
	Status         *string    `json:"status"`
	ScheduledAt    *time.Time `json:"scheduledAt"`
	ClearSchedule  bool       `json:"clearSchedule"`
}

type PublishResponseDTO struct {
	Success        bool         `json:"success"`
	PlatformPostID string       `json:"platformPostId,omitempty"`
	Error          string       `json:"error,omitempty"`
	Post           *models.Post `json:"post,omitempty"`
}

// GenerateRequestDTO 는 JSON 본문, 또는 multipart 의 "data" 필드로 전달된다.
type GenerateRequestDTO struct {
	ProductID   string           `json:"productId" example:"665f1c2e9b1e8a0012345678"`
	Platform    string           `json:"platform" example:"twitter"`
	ContentType string           `json:"contentType" example:"ad"`
	Targeting   *brain.Targeting `json:"targeting"`
	Count       int              `json:"count" example:"3"`
}
