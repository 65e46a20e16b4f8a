package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AIPurpose string

const (
	PurposeExtraction AIPurpose = "extraction"
	PurposeGeneration AIPurpose = "generation"
)

// AILog stores text-backend usage for monitoring.
// Collection: ai_logs
type AILog struct {
	ID             primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Provider       string              `bson:"provider" json:"provider"`
	ModelName      string              `bson:"model_name" json:"model_name"`
	ModelVersion   string              `bson:"model_version,omitempty" json:"model_version,omitempty"`
	Purpose        AIPurpose           `bson:"purpose,omitempty" json:"purpose,omitempty"`
	ProductID      *primitive.ObjectID `bson:"product_id,omitempty" json:"product_id,omitempty"`
	InputTokens    int64               `bson:"input_tokens" json:"input_tokens"`
	OutputTokens   int64               `bson:"output_tokens" json:"output_tokens"`
	TotalTokens    int64               `bson:"total_tokens" json:"total_tokens"`
	DurationMs     int64               `bson:"duration_ms" json:"duration_ms"`
	ImageCount     int                 `bson:"image_count" json:"image_count"`
	ErrorMessage   *string             `bson:"error_message,omitempty" json:"error_message,omitempty"`
	InputPrompt    string              `bson:"input_prompt" json:"input_prompt"`
	OutputResponse string              `bson:"output_response" json:"output_response"`
	RequestedAt    time.Time           `bson:"requested_at" json:"requested_at"`
	CompletedAt    time.Time           `bson:"completed_at" json:"completed_at"`
}
