package dto

// ErrorResponseDTO는 공통 에러 응답 형식을 통일하기 위한 DTO이다.
type ErrorResponseDTO struct {
	Error string `json:"error" example:"Product not found"`
}

// MessageResponseDTO는 단순 메시지 응답 형식을 통일하기 위한 DTO이다.
type MessageResponseDTO struct {
	Message string `json:"message" example:"settings saved"`
}

type HealthResponseDTO struct {
	Status string `json:"status" example:"ok"`
}

type ExtractionStatusDTO struct {
	Status string `json:"status" example:"pending"`
}

type SchedulerRunResponseDTO struct {
	ProcessedCount int  `json:"processedCount"`
	FailedCount    int  `json:"failedCount"`
	Skipped        bool `json:"skipped,omitempty"`
}
