package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/cmd/api/dto"
	"social-pilot/generation"
	"social-pilot/models"
	"social-pilot/providers"
)

const maxScreenshotUpload = 10 << 20

// GenerateHandler godoc
// @Summary      Generate candidate posts
// @Description  후보 포스트를 생성합니다(저장하지 않음). JSON 본문, 또는 multipart 의 data(JSON) + screenshots 파일로 요청합니다.
// @Tags         generate
// @Accept       json
// @Accept       mpfd
// @Produce      json
// @Param        body  body      dto.GenerateRequestDTO  true  "Generation request"
// @Success      200   {array}   generation.Candidate
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      502   {object}  dto.ErrorResponseDTO
// @Router       /generate [post]
func GenerateHandler(svc *generation.Service, timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, images, err := bindGenerateRequest(c)
		if err != nil {
			badRequest(c, "invalid request body")
			return
		}
		in := generation.Request{Count: req.Count, Images: images}
		if req.ProductID != "" {
			id, err := primitive.ObjectIDFromHex(req.ProductID)
			if err != nil {
				badRequest(c, "invalid productId")
				return
			}
			in.ProductID = id
		}
		if req.Platform != "" {
			p, ok := models.ParsePlatform(req.Platform)
			if !ok {
				badRequest(c, "Invalid platform")
				return
			}
			in.Platform = p
		}
		if req.ContentType != "" {
			ct, ok := models.ParseContentType(req.ContentType)
			if !ok {
				badRequest(c, "Invalid content type")
				return
			}
			in.ContentType = ct
		}
		if req.Targeting != nil {
			in.Targeting = *req.Targeting
		}

		ctx := c.Request.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		candidates, err := svc.Generate(ctx, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, candidates)
	}
}

// bindGenerateRequest 는 JSON 본문 또는 multipart(data + screenshots) 를 읽는다.
func bindGenerateRequest(c *gin.Context) (dto.GenerateRequestDTO, []providers.Image, error) {
	var req dto.GenerateRequestDTO
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		err := c.ShouldBindJSON(&req)
		return req, nil, err
	}
	if err := json.Unmarshal([]byte(c.PostForm("data")), &req); err != nil {
		return req, nil, err
	}
	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, err
	}
	var images []providers.Image
	for _, fh := range form.File["screenshots"] {
		f, err := fh.Open()
		if err != nil {
			return req, nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, maxScreenshotUpload))
		f.Close()
		if err != nil {
			return req, nil, err
		}
		mime := fh.Header.Get("Content-Type")
		if mime == "" || mime == "application/octet-stream" {
			mime = http.DetectContentType(data)
		}
		images = append(images, providers.Image{Base64: base64.StdEncoding.EncodeToString(data), MIMEType: mime})
	}
	return req, images, nil
}
