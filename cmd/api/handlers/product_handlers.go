package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"social-pilot/cmd/api/dto"
	"social-pilot/extraction"
	"social-pilot/generation"
	"social-pilot/models"
	"social-pilot/revisions"
	"social-pilot/services"
)

// CreateProductHandler godoc
// @Summary      Create product
// @Description  제품을 생성합니다. brief 가 있으면 추출 작업을 큐에 넣습니다.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        body  body      dto.CreateProductRequestDTO  true  "Product"
// @Success      201   {object}  models.Product
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /products [post]
func CreateProductHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.CreateProductRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "name required")
			return
		}
		p, err := svc.Create(c.Request.Context(), services.CreateProductInput{
			Name:          req.Name,
			Description:   req.Description,
			Brief:         req.Brief,
			BriefFileName: req.BriefFileName,
			URL:           req.URL,
			FeedURL:       req.FeedURL,
			Screenshots:   req.Screenshots,
			TextProvider:  req.TextProvider,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

// ListProductsHandler godoc
// @Summary      List products
// @Tags         products
// @Produce      json
// @Success      200  {array}  models.Product
// @Router       /products [get]
func ListProductsHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// GetProductHandler godoc
// @Summary      Get product
// @Tags         products
// @Param        id   path  string  true  "Product ObjectID"
// @Produce      json
// @Success      200  {object}  models.Product
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /products/{id} [get]
func GetProductHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		p, err := svc.Get(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdateBriefHandler godoc
// @Summary      Replace brief
// @Description  브리프를 교체하고(이전 값은 revision 으로 보관) 추출을 다시 실행합니다.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "Product ObjectID"
// @Param        body  body      dto.UpdateBriefRequestDTO  true  "Brief"
// @Success      200   {object}  models.Product
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/brief [put]
func UpdateBriefHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.UpdateBriefRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "brief required")
			return
		}
		p, err := svc.UpdateBrief(c.Request.Context(), id, req.Brief, req.FileName)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ImportBriefHandler godoc
// @Summary      Import brief from landing page and feed
// @Description  url / feedUrl 을 생략하면 제품에 저장된 값을 사용합니다.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true   "Product ObjectID"
// @Param        body  body      dto.ImportBriefRequestDTO  false  "Sources"
// @Success      200   {object}  dto.ImportBriefResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      502   {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/brief/import [post]
func ImportBriefHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.ImportBriefRequestDTO
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				badRequest(c, "invalid request body")
				return
			}
		}
		p, res, err := svc.ImportBrief(c.Request.Context(), id, req.URL, req.FeedURL)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.ImportBriefResponseDTO{
			Product:   p,
			Extractor: res.Extractor,
			Title:     res.Title,
			Updates:   res.Updates,
		})
	}
}

// UpdateProfileHandler godoc
// @Summary      Replace app profile
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Product ObjectID"
// @Param        body  body      dto.ContentRequestDTO  true  "Profile JSON"
// @Success      200   {object}  models.Product
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/profile [put]
func UpdateProfileHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.ContentRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Content) == 0 {
			badRequest(c, "content required")
			return
		}
		p, err := svc.UpdateProfile(c.Request.Context(), id, req.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// UpdateStrategyHandler godoc
// @Summary      Replace marketing strategy
// @Description  문자열 hook 목록(이전 형식)도 받습니다.
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        id    path      string                 true  "Product ObjectID"
// @Param        body  body      dto.ContentRequestDTO  true  "Strategy JSON"
// @Success      200   {object}  models.Product
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/strategy [put]
func UpdateStrategyHandler(svc *services.ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.ContentRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil || len(req.Content) == 0 {
			badRequest(c, "content required")
			return
		}
		p, err := svc.UpdateStrategy(c.Request.Context(), id, req.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// ReExtractHandler godoc
// @Summary      Trigger extraction
// @Description  추출 작업을 큐에 넣고 바로 반환합니다. 진행 상태는 product.extractionStatus 로 확인합니다.
// @Tags         products
// @Param        id   path  string  true  "Product ObjectID"
// @Produce      json
// @Success      202  {object}  dto.ExtractionStatusDTO
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/re-extract [post]
func ReExtractHandler(svc *extraction.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		status, err := svc.Trigger(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, dto.ExtractionStatusDTO{Status: string(status)})
	}
}

// SuggestionsHandler godoc
// @Summary      Least-used angles
// @Tags         products
// @Param        id   path  string  true  "Product ObjectID"
// @Produce      json
// @Success      200  {object}  brain.Suggestions
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/suggestions [get]
func SuggestionsHandler(svc *generation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		out, err := svc.Suggestions(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// ListRevisionsHandler godoc
// @Summary      List revisions
// @Tags         revisions
// @Param        id     path   string  true   "Product ObjectID"
// @Param        field  query  string  false  "brief | profile | strategy"
// @Produce      json
// @Success      200  {array}  models.Revision
// @Router       /products/{id}/revisions [get]
func ListRevisionsHandler(svc *revisions.Snapshotter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var field *models.RevisionField
		if raw := c.Query("field"); raw != "" {
			f, ok := models.ParseRevisionField(raw)
			if !ok {
				badRequest(c, "Invalid field")
				return
			}
			field = &f
		}
		list, err := svc.List(c.Request.Context(), id, field)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// RevertRevisionHandler godoc
// @Summary      Revert to a revision
// @Description  현재 값은 새 revision 으로 보관되므로 되돌리기를 다시 되돌릴 수 있습니다.
// @Tags         revisions
// @Param        id          path  string  true  "Product ObjectID"
// @Param        revisionId  path  string  true  "Revision ObjectID"
// @Produce      json
// @Success      200  {object}  models.Product
// @Failure      404  {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/revisions/{revisionId}/revert [post]
func RevertRevisionHandler(svc *revisions.Snapshotter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		revID, ok := objectIDParam(c, "revisionId")
		if !ok {
			return
		}
		p, err := svc.Revert(c.Request.Context(), id, revID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
