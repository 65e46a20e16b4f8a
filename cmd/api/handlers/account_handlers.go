package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/cmd/api/dto"
	"social-pilot/models"
	"social-pilot/services"
)

// ListAccountsHandler godoc
// @Summary      List connected accounts
// @Tags         accounts
// @Param        platform  query  string  true  "instagram | twitter"
// @Produce      json
// @Success      200  {array}   models.Account
// @Failure      400  {object}  dto.ErrorResponseDTO
// @Router       /accounts [get]
func ListAccountsHandler(svc *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		platform, ok := models.ParsePlatform(c.Query("platform"))
		if !ok {
			badRequest(c, "Invalid platform")
			return
		}
		list, err := svc.List(c.Request.Context(), platform)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// LinkAccountHandler godoc
// @Summary      Link an existing account to a product
// @Description  계정의 플랫폼 슬롯(instagram / x)에 연결합니다.
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        id    path      string                     true  "Product ObjectID"
// @Param        body  body      dto.LinkAccountRequestDTO  true  "Account"
// @Success      200   {object}  models.Account
// @Failure      404   {object}  dto.ErrorResponseDTO
// @Router       /products/{id}/accounts [post]
func LinkAccountHandler(svc *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := objectIDParam(c, "id")
		if !ok {
			return
		}
		var req dto.LinkAccountRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "accountId required")
			return
		}
		accountID, err := primitive.ObjectIDFromHex(req.AccountID)
		if err != nil {
			badRequest(c, "invalid accountId")
			return
		}
		acc, err := svc.Link(c.Request.Context(), productID, accountID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, acc)
	}
}
