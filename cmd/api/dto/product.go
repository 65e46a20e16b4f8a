package dto

import (
	"encoding/json"

	"social-pilot/models"
)

// CreateProductRequestDTO 는 제품 생성 요청 본문이다. screenshots 는 업로드 디렉터리 기준 경로다.
type CreateProductRequestDTO struct {
	Name          string   `json:"name" binding:"required" example:"Penny"`
	Description   string   `json:"description"`
	Brief         string   `json:"brief"`
	BriefFileName string   `json:"briefFileName" example:"brief.md"`
	URL           string   `json:"url" example:"https://penny.app"`
	FeedURL       string   `json:"feedUrl" example:"https://penny.app/changelog.xml"`
	Screenshots   []string `json:"screenshots"`
	TextProvider  string   `json:"textProvider" example:"gemini"`
}

type UpdateBriefRequestDTO struct {
	Brief    string `json:"brief" binding:"required"`
	FileName string `json:"fileName"`
}

type ImportBriefRequestDTO struct {
	URL     string `json:"url"`
	FeedURL string `json:"feedUrl"`
}

// ImportBriefResponseDTO 는 가져온 브리프와 갱신된 제품을 함께 돌려준다.
type ImportBriefResponseDTO struct {
	Product   *models.Product `json:"product"`
	Extractor string          `json:"extractor" example:"readability"`
	Title     string          `json:"title"`
	Updates   int             `json:"updates"`
}

// ContentRequestDTO 는 profile / strategy 수동 편집 본문이다.
type ContentRequestDTO struct {
	Content json.RawMessage `json:"content" swaggertype:"object"`
}

type LinkAccountRequestDTO struct {
	AccountID string `json:"accountId" binding:"required"`
}
