package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"social-pilot/apperr"
	"social-pilot/internal/logger"
	"social-pilot/publishing/instagram"
	"social-pilot/publishing/twitter"
	"social-pilot/services"
)

const (
	xStateCookie      = "x_oauth_state"
	xVerifierCookie   = "x_oauth_verifier"
	xProductCookie    = "x_oauth_product_id"
	igProductCookie   = "oauth_product_id"
	oauthCookieMaxAge = 10 * 60
)

func setOAuthCookie(c *gin.Context, name, value string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(name, value, oauthCookieMaxAge, "/", "", gin.Mode() == gin.ReleaseMode, true)
}

func clearOAuthCookies(c *gin.Context, names ...string) {
	for _, name := range names {
		c.SetCookie(name, "", -1, "/", "", false, true)
	}
}

// productIDOrZero 는 비어 있거나 잘못된 값이면 NilObjectID 를 돌려준다 (계정만 연결).
func productIDOrZero(raw string) primitive.ObjectID {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID
	}
	return id
}

// XAuthHandler godoc
// @Summary      Start X OAuth
// @Description  state / PKCE verifier / productId 를 10분짜리 쿠키에 저장하고 X 인증 페이지로 리다이렉트합니다.
// @Tags         oauth
// @Param        productId  query  string  false  "Product to link"
// @Success      302  {string}  string  "X authorize page"
// @Failure      500  {object}  dto.ErrorResponseDTO
// @Router       /x/auth [get]
func XAuthHandler(oauth *twitter.OAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !oauth.Configured() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing X OAuth env vars"})
			return
		}
		authURL, state, verifier, err := oauth.Start()
		if err != nil {
			respondError(c, err)
			return
		}
		setOAuthCookie(c, xStateCookie, state)
		setOAuthCookie(c, xVerifierCookie, verifier)
		if productID := c.Query("productId"); productID != "" {
			setOAuthCookie(c, xProductCookie, productID)
		}
		c.Redirect(http.StatusFound, authURL)
	}
}

// XCallbackHandler godoc
// @Summary      X OAuth callback
// @Description  state 를 검증하고 토큰을 교환한 뒤 계정을 저장하고 제품에 연결합니다.
// @Tags         oauth
// @Success      302  {string}  string  "/products?success=x_linked or /products?error=..."
// @Router       /x/callback [get]
func XCallbackHandler(oauth *twitter.OAuth, client *twitter.Client, accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		state := c.Query("state")
		storedState, _ := c.Cookie(xStateCookie)
		verifier, _ := c.Cookie(xVerifierCookie)
		productRaw, _ := c.Cookie(xProductCookie)
		// 재사용 방지를 위해 콜백 시점에 쿠키를 즉시 만료시킨다.
		clearOAuthCookies(c, xStateCookie, xVerifierCookie, xProductCookie)

		fail := func(reason string, err error) {
			fields := requestFields(c)
			fields["reason"] = reason
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.ErrorWithFields("x oauth callback failed", fields)
			c.Redirect(http.StatusFound, "/products?error="+reason)
		}

		if c.Query("error") != "" || code == "" || state == "" || storedState == "" || state != storedState || verifier == "" {
			fail("x_oauth_denied", nil)
			return
		}
		if !oauth.Configured() {
			fail("x_oauth_env", nil)
			return
		}
		ctx := c.Request.Context()
		tok, err := oauth.Exchange(ctx, code, verifier)
		if err != nil {
			fail("x_token_exchange", err)
			return
		}
		user, err := client.Me(ctx, tok.AccessToken)
		if err != nil || user.ID == "" {
			fail("x_user_fetch", err)
			return
		}
		if _, err := accounts.Connect(ctx, productIDOrZero(productRaw), twitter.AccountFromToken(tok, user)); err != nil {
			fail("x_oauth_unknown", err)
			return
		}
		c.Redirect(http.StatusFound, "/products?success=x_linked")
	}
}

// InstagramAuthHandler godoc
// @Summary      Start Instagram OAuth
// @Description  Facebook OAuth 다이얼로그로 리다이렉트합니다. productId 는 state 와 쿠키 양쪽에 실립니다.
// @Tags         oauth
// @Param        productId  query  string  false  "Product to link"
// @Success      302  {string}  string  "Facebook dialog"
// @Failure      500  {object}  dto.ErrorResponseDTO
// @Router       /instagram/auth [get]
func InstagramAuthHandler(oauth *instagram.OAuth) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !oauth.Configured() {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Missing Instagram OAuth env vars"})
			return
		}
		productID := c.Query("productId")
		setOAuthCookie(c, igProductCookie, productID)
		c.Redirect(http.StatusFound, oauth.AuthURL(productID))
	}
}

// InstagramCallbackHandler godoc
// @Summary      Instagram OAuth callback
// @Tags         oauth
// @Success      302  {string}  string  "/products?success=instagram_linked, /settings?success=connected or /settings?error=..."
// @Router       /instagram/callback [get]
func InstagramCallbackHandler(oauth *instagram.OAuth, accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		productRaw, _ := c.Cookie(igProductCookie)
		if productRaw == "" {
			productRaw = c.Query("state")
		}
		clearOAuthCookies(c, igProductCookie)

		fail := func(reason string, err error) {
			fields := requestFields(c)
			fields["reason"] = reason
			if err != nil {
				fields["error"] = err.Error()
			}
			logger.ErrorWithFields("instagram oauth callback failed", fields)
			c.Redirect(http.StatusFound, "/settings?error="+reason)
		}

		if c.Query("error") != "" || code == "" {
			fail("oauth_denied", nil)
			return
		}
		ctx := c.Request.Context()
		acc, err := oauth.Link(ctx, code)
		if err != nil {
			reason := "token_exchange"
			if apperr.KindOf(err) == apperr.KindValidation {
				reason = "no_pages"
			}
			fail(reason, err)
			return
		}
		productID := productIDOrZero(productRaw)
		if _, err := accounts.Connect(ctx, productID, acc); err != nil {
			fail("unknown", err)
			return
		}
		if !productID.IsZero() {
			c.Redirect(http.StatusFound, "/products?success=instagram_linked")
			return
		}
		c.Redirect(http.StatusFound, "/settings?success=connected")
	}
}
