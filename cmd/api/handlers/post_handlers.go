package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/cmd/api/dto"
	"social-pilot/internal/logger"
	"social-pilot/models"
	"social-pilot/publishing"
	"social-pilot/services"
)

// CreatePostHandler godoc
// @Summary      Save a post
// @Description  생성된 후보를 draft(또는 approved / scheduled) 로 저장합니다.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreatePostRequestDTO  true  "Post"
// @Success      201   {object}  models.Post
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /posts [post]
func CreatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreatePostRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "productId, platform, type and content required")
			return
		}
		productID, err := primitive.ObjectIDFromHex(req.ProductID)
		if err != nil {
			badRequest(c, "invalid productId")
			return
		}
		in := services.CreatePostInput{
			ProductID:      productID,
			Platform:       models.Platform(req.Platform),
			Type:           models.ContentType(req.Type),
			Content:        req.Content,
			Hashtags:       req.Hashtags,
			MediaURL:       req.MediaURL,
			PublicMediaURL: req.PublicMediaURL,
			ScheduledAt:    req.ScheduledAt,
			Provenance:     req.Metadata,
		}
		if req.Status != "" {
			st, ok := models.ParsePostStatus(req.Status)
			if !ok {
				badRequest(c, "Invalid status: "+req.Status)
				return
			}
			in.Status = st
		}
		post, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, post)
	}
}

// ListPostsHandler godoc
// @Summary      List posts of a product
// @Tags         posts
// @Param        productId  query  string  true  "Product ObjectID"
// @Produce      json
// @Success      200  {array}   models.Post
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /posts [get]
func ListPostsHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, err := primitive.ObjectIDFromHex(c.Query("productId"))
		if err != nil {
			badRequest(c, "productId required")
			return
		}
		list, err := svc.ListByProduct(c.Request.Context(), productID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetPostHandler godoc
// @Summary      Get post
// @Tags         posts
// @Param        id   path  string  true  "Post ObjectID"
// @Produce      json
// @Success      200  {object}  models.Post
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /posts/{id} [get]
func GetPostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		post, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// UpdatePostHandler godoc
// @Summary      Edit post or move its status
// @Description  본문, 해시태그, 미디어는 draft 상태에서만 수정할 수 있습니다. posted 로의 전환은 게시로만 이뤄집니다.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id    path      string                    true  "Post ObjectID"
// @Param        body  body      dto.UpdatePostRequestDTO  true  "Changes"
// @Success      200   {object}  models.Post
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      409   {object}  dto.ErrorResponseDTO
// @Router       /posts/{id} [put]
func UpdatePostHandler(svc *services.PostService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.UpdatePostRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
		in := services.UpdatePostInput{
			Content:        req.Content,
			Hashtags:       req.Hashtags,
			MediaURL:       req.MediaURL,
			PublicMediaURL: req.PublicMediaURL,
			ScheduledAt:    req.ScheduledAt,
			ClearSchedule:  req.ClearSchedule,
		}
		if req.Status != nil {
			st, ok := models.ParsePostStatus(*req.Status)
			if !ok {
				badRequest(c, "Invalid status: "+*req.Status)
				return
			}
			in.Status = &st
		}
		post, err := svc.Update(c.Request.Context(), id, in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// PublishPostHandler godoc
// @Summary      Publish a post
// @Description  포스트를 플랫폼에 게시합니다. platform 쿼리를 주면 포스트의 플랫폼과 일치해야 합니다.
// @Tags         posts
// @Param        id        path   string  true   "Post ObjectID"
// @Param        platform  query  string  false  "instagram | twitter"
// @Produce      json
// @Success      200  {object}  dto.PublishResponseDTO
// @Failure      409  {object}  dto.PublishResponseDTO
// @Failure      422  {object}  dto.PublishResponseDTO
// @Failure      502  {object}  dto.PublishResponseDTO
// @Router       /posts/{id}/publish [post]
func PublishPostHandler(svc *publishing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var (
			post *models.Post
			err  error
		)
		if raw := c.Query("platform"); raw != "" {
			platform, ok := models.ParsePlatform(raw)
			if !ok {
				badRequest(c, "Invalid platform")
				return
			}
			post, err = svc.PublishTo(c.Request.Context(), id, platform)
		} else {
			post, err = svc.Publish(c.Request.Context(), id)
		}
		if err != nil {
			status := statusFor(err)
			fields := requestFields(c)
			fields["post_id"] = id.Hex()
			fields["error"] = err.Error()
			logger.WarnWithFields("publish failed", fields)
			reason := apperr.Reason(err)
			if status == http.StatusInternalServerError {
				reason = "Internal server error"
			}
			c.JSON(status, dto.PublishResponseDTO{Success: false, Error: reason})
			return
		}
		c.JSON(http.StatusOK, dto.PublishResponseDTO{Success: true, PlatformPostID: post.PlatformPostID, Post: post})
	}
}
