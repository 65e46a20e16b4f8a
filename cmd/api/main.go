package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"social-pilot/briefimport"
	"social-pilot/cmd/api/router"
	"social-pilot/config"
	"social-pilot/db"
	"social-pilot/events"
	"social-pilot/extraction"
	"social-pilot/generation"
	"social-pilot/internal/bootstrap"
	"social-pilot/internal/httpclient"
	"social-pilot/internal/logger"
	"social-pilot/models"
	"social-pilot/providers"
	"social-pilot/publishing"
	"social-pilot/publishing/instagram"
	"social-pilot/publishing/twitter"
	"social-pilot/renderer"
	"social-pilot/scheduler"
	"social-pilot/services"
)

// @title           social-pilot API
// @version         1.0
// @description     Brief extraction, post generation and Instagram / X publishing
// @BasePath        /api/v1
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB 초기화
	if err := db.Init(ctx); err != nil {
		logger.Log.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			logger.Log.Errorf("mongo disconnect: %v", err)
		}
	}()
	stores := bootstrap.NewStores(db.Database())

	// Kafka 가 설정되어 있으면 추출 작업은 cmd/worker 로 넘기고, 아니면 프로세스 안에서 돌린다.
	bus, closeBus, err := bootstrap.EventBus()
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer closeBus()
	dispatcher := events.NewDispatcher(bus, "api")

	registry := bootstrap.TextRegistry(ctx, cfg)
	auditor := bootstrap.Auditor(cfg, stores)
	pipeline, snapshotter := bootstrap.Pipeline(cfg, stores, registry, auditor, dispatcher)

	var queue extraction.Queue
	var local *extraction.LocalQueue
	if bus != nil {
		queue = extraction.NewKafkaQueue(dispatcher)
		logger.Log.Info("extraction queue: kafka")
	} else {
		local = extraction.NewLocalQueue(pipeline.Run, cfg.Extraction.Workers, 0)
		local.Start(ctx)
		queue = local
		logger.Log.Infof("extraction queue: local (%d workers)", cfg.Extraction.Workers)
	}
	extractionSvc := extraction.NewService(stores.Products, queue)

	images := providers.NewPollinations(httpclient.New(httpclient.Config{Timeout: bootstrap.Seconds(cfg.Image.TimeoutSeconds)}), providers.PollinationsConfig{
		BaseURL:    cfg.Image.BaseURL,
		Model:      cfg.Image.Model,
		APIKey:     os.Getenv("POLLINATIONS_API_KEY"),
		MediaDir:   cfg.Image.MediaDir,
		PublicPath: cfg.Image.PublicPath,
	})
	generationSvc := generation.NewService(stores.Products, stores.Accounts, stores.Posts, registry, stores.Settings, auditor, images, nil)

	// 플랫폼 API
	platformClient := httpclient.New(httpclient.Config{Timeout: 60 * time.Second})
	xOAuth := twitter.NewOAuth(twitter.OAuthConfig{
		ClientID:     os.Getenv("X_CLIENT_ID"),
		ClientSecret: os.Getenv("X_CLIENT_SECRET"),
		RedirectURL:  bootstrap.EnvOr("X_REDIRECT_URI", cfg.X.RedirectURL),
		AuthURL:      cfg.X.AuthURL,
		APIBaseURL:   cfg.X.APIBaseURL,
	}, platformClient)
	xClient := twitter.NewClient(platformClient, cfg.X.APIBaseURL, cfg.X.UploadBaseURL, cfg.Image.MediaDir)
	igClient := instagram.NewClient(platformClient, cfg.Instagram.GraphBaseURL,
		instagram.WithPolling(cfg.Instagram.PollAttempts, bootstrap.Seconds(cfg.Instagram.PollIntervalSeconds)))
	igOAuth := instagram.NewOAuth(instagram.OAuthConfig{
		AppID:        os.Getenv("FACEBOOK_APP_ID"),
		AppSecret:    os.Getenv("FACEBOOK_APP_SECRET"),
		RedirectURL:  bootstrap.EnvOr("INSTAGRAM_REDIRECT_URI", cfg.Instagram.RedirectURL),
		DialogURL:    cfg.Instagram.DialogURL,
		GraphBaseURL: cfg.Instagram.GraphBaseURL,
	}, platformClient)

	publishSvc := publishing.NewService(stores.Posts, stores.Products, stores.Accounts, map[models.Platform]publishing.Publisher{
		models.PlatformInstagram: instagram.NewPublisher(igClient),
		models.PlatformTwitter:   twitter.NewPublisher(xClient, xOAuth, stores.Accounts),
	}, dispatcher)
	sched := scheduler.New(stores.Posts, publishSvc, bootstrap.Seconds(cfg.Scheduler.IntervalSeconds))

	pageClient := httpclient.New(httpclient.Config{Timeout: 30 * time.Second})
	importer := briefimport.NewImporter(renderer.New(cfg.BriefImport.Renderer, pageClient), pageClient, cfg.BriefImport.FeedLimit)

	engine := router.New(router.Deps{
		Products:        services.NewProductService(stores.Products, snapshotter, extractionSvc, importer),
		Posts:           services.NewPostService(stores.Posts, stores.Products),
		Accounts:        services.NewAccountService(stores.Accounts, stores.Products),
		Extraction:      extractionSvc,
		Generation:      generationSvc,
		Publishing:      publishSvc,
		Scheduler:       sched,
		Revisions:       snapshotter,
		Settings:        stores.Settings,
		XOAuth:          xOAuth,
		XClient:         xClient,
		InstagramOAuth:  igOAuth,
		GenerateTimeout: bootstrap.Seconds(cfg.API.GenerateTimeoutSeconds),
		MediaDir:        cfg.Image.MediaDir,
		MediaPath:       cfg.Image.PublicPath,
	})
	srv := &http.Server{
		Addr:              cfg.API.Addr,
		Handler:           router.WithCORS(engine, cfg.API.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Infof("api listening on %s", cfg.API.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("received shutdown signal, shutting down api service...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.Scheduler.Enabled {
		g.Go(func() error {
			sched.Start(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Log.Errorf("api service error: %v", err)
	}
	stop()
	if local != nil {
		local.Wait()
	}
	logger.Log.Info("api service stopped")
}
