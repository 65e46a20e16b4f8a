package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"social-pilot/cmd/api/handlers"
	"social-pilot/cmd/api/middleware"
	"social-pilot/extraction"
	"social-pilot/generation"
	"social-pilot/publishing"
	"social-pilot/publishing/instagram"
	"social-pilot/publishing/twitter"
	"social-pilot/revisions"
	"social-pilot/scheduler"
	"social-pilot/services"
	_ "social-pilot/docs"
)

// Deps 는 main 에서 조립한 서비스들이다.
type Deps struct {
	Products   *services.ProductService
	Posts      *services.PostService
	Accounts   *services.AccountService
	Extraction *extraction.Service
	Generation *generation.Service
	Publishing *publishing.Service
	Scheduler  *scheduler.Scheduler
	Revisions  *revisions.Snapshotter
	Settings   handlers.SettingsStore

	XOAuth         *twitter.OAuth
	XClient        *twitter.Client
	InstagramOAuth *instagram.OAuth

	GenerateTimeout time.Duration
	// MediaDir 는 생성 이미지가 저장되는 디렉터리이고 MediaPath 는 그 공개 경로다.
	MediaDir  string
	MediaPath string
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestTrace())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Instagram 은 공개 URL 로 이미지를 가져가므로 생성 이미지를 그대로 서빙한다.
	if d.MediaDir != "" && d.MediaPath != "" {
		r.Static(d.MediaPath, d.MediaDir)
	}

	// v1 routes
	api := r.Group("/api/v1")
	{
		api.POST("/products", handlers.CreateProductHandler(d.Products))
		api.GET("/products", handlers.ListProductsHandler(d.Products))
		api.GET("/products/:id", handlers.GetProductHandler(d.Products))
		api.PUT("/products/:id/brief", handlers.UpdateBriefHandler(d.Products))
		api.POST("/products/:id/brief/import", handlers.ImportBriefHandler(d.Products))
		api.PUT("/products/:id/profile", handlers.UpdateProfileHandler(d.Products))
		api.PUT("/products/:id/strategy", handlers.UpdateStrategyHandler(d.Products))
		api.POST("/products/:id/re-extract", handlers.ReExtractHandler(d.Extraction))
		api.GET("/products/:id/suggestions", handlers.SuggestionsHandler(d.Generation))
		api.GET("/products/:id/revisions", handlers.ListRevisionsHandler(d.Revisions))
		api.POST("/products/:id/revisions/:revisionId/revert", handlers.RevertRevisionHandler(d.Revisions))
		api.POST("/products/:id/accounts", handlers.LinkAccountHandler(d.Accounts))

		api.POST("/generate", handlers.GenerateHandler(d.Generation, d.GenerateTimeout))

		api.POST("/posts", handlers.CreatePostHandler(d.Posts))
		api.GET("/posts", handlers.ListPostsHandler(d.Posts))
		api.GET("/posts/:id", handlers.GetPostHandler(d.Posts))
		api.PUT("/posts/:id", handlers.UpdatePostHandler(d.Posts))
		api.POST("/posts/:id/publish", handlers.PublishPostHandler(d.Publishing))

		api.POST("/scheduler/run", handlers.RunSchedulerHandler(d.Scheduler))

		api.GET("/settings", handlers.GetSettingsHandler(d.Settings))
		api.PUT("/settings", handlers.PutSettingsHandler(d.Settings))

		api.GET("/accounts", handlers.ListAccountsHandler(d.Accounts))
		api.GET("/x/auth", handlers.XAuthHandler(d.XOAuth))
		api.GET("/x/callback", handlers.XCallbackHandler(d.XOAuth, d.XClient, d.Accounts))
		api.GET("/instagram/auth", handlers.InstagramAuthHandler(d.InstagramOAuth))
		api.GET("/instagram/callback", handlers.InstagramCallbackHandler(d.InstagramOAuth, d.Accounts))
	}

	return r
}

// WithCORS 는 브라우저 프런트엔드(쿠키 포함 요청)를 위해 엔진을 CORS 핸들러로 감싼다.
func WithCORS(h http.Handler, origins []string) http.Handler {
	if len(origins) == 0 {
		return h
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "X-Span-Id"},
		AllowCredentials: true,
	}).Handler(h)
}
