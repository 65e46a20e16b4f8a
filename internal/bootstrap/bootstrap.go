// Package bootstrap 는 cmd/api 와 cmd/worker 가 공유하는 조립 코드다.
package bootstrap

import (
	"context"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"social-pilot/config"
	"social-pilot/eventbus"
	"social-pilot/events"
	"social-pilot/extraction"
	"social-pilot/imageprep"
	"social-pilot/internal/httpclient"
	"social-pilot/internal/logger"
	"social-pilot/providers"
	"social-pilot/quota"
	"social-pilot/repositories"
	"social-pilot/revisions"
)

// Stores 는 Mongo 리포지토리 묶음이다.
type Stores struct {
	Products  *repositories.ProductRepository
	Posts     *repositories.PostRepository
	Accounts  *repositories.AccountRepository
	Revisions *repositories.RevisionRepository
	Settings  *repositories.SettingRepository
	AILogs    *repositories.AILogRepository
}

func NewStores(db *mongo.Database) Stores {
	return Stores{
		Products:  repositories.NewProductRepository(db),
		Posts:     repositories.NewPostRepository(db),
		Accounts:  repositories.NewAccountRepository(db),
		Revisions: repositories.NewRevisionRepository(db),
		Settings:  repositories.NewSettingRepository(db),
		AILogs:    repositories.NewAILogRepository(db),
	}
}

func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// EnvOr 는 환경변수가 비어 있으면 def 를 돌려준다.
func EnvOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// TextRegistry 는 API 키가 있는 텍스트 provider 만 등록한다. 기본값은 TEXT_PROVIDER, 없으면 config.
func TextRegistry(ctx context.Context, cfg config.AppConfig) *providers.Registry {
	client := httpclient.New(httpclient.Config{Timeout: Seconds(cfg.Text.TimeoutSeconds)})
	var ps []providers.TextProvider
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		g, err := providers.NewGemini(ctx, key, cfg.Text.GeminiModel)
		if err != nil {
			logger.Log.Errorf("gemini provider disabled: %v", err)
		} else {
			ps = append(ps, g)
		}
	}
	if key := EnvOr("HUGGINGFACE_API_KEY", os.Getenv("HF_TOKEN")); key != "" {
		ps = append(ps, providers.NewHuggingFace(client, cfg.Text.HuggingFaceBaseURL, key, cfg.Text.HuggingFaceModel))
	}
	r := providers.NewRegistry(EnvOr("TEXT_PROVIDER", cfg.Text.DefaultProvider), ps...)
	if len(r.Names()) == 0 {
		logger.Log.Warn("no text provider configured, set GEMINI_API_KEY or HUGGINGFACE_API_KEY")
	}
	return r
}

// Auditor 는 모든 텍스트 호출에 생성 quota 와 ai_logs 기록을 붙인다.
func Auditor(cfg config.AppConfig, stores Stores) *providers.Auditor {
	return providers.NewAuditor(stores.AILogs, quota.NewGenerationQuotaLimiterFromConfig(cfg))
}

// EventBus 는 KAFKA_BOOTSTRAP_SERVERS 가 있으면 Kafka 버스를 만든다.
// Kafka 가 없으면 nil 을 돌려주고 이벤트 발행은 생략된다.
func EventBus() (eventbus.EventBus, func(), error) {
	brokers, ok := eventbus.Brokers()
	if !ok {
		return nil, func() {}, nil
	}
	if err := eventbus.EnsureTopics(brokers, 3, eventbus.AllTopics...); err != nil {
		logger.Log.Errorf("failed to ensure eventbus topics: %v", err)
	}
	bus, err := eventbus.NewKafkaEventBus(brokers)
	if err != nil {
		return nil, func() {}, err
	}
	return bus, bus.Close, nil
}

// Pipeline 은 스크린샷 준비, provider 선택, revision 기록이 연결된 추출 파이프라인이다.
func Pipeline(cfg config.AppConfig, stores Stores, registry *providers.Registry, auditor *providers.Auditor, dispatcher *events.Dispatcher) (*extraction.Pipeline, *revisions.Snapshotter) {
	snapshotter := revisions.NewSnapshotter(stores.Revisions, stores.Products)
	preparer := &imageprep.Preparer{BaseDir: cfg.Extraction.UploadDir}
	pipeline := extraction.NewPipeline(stores.Products, snapshotter, preparer, registry, stores.Settings, auditor, dispatcher, extraction.Options{
		Images: imageprep.Options{
			MaxCount:  cfg.Extraction.MaxScreenshots,
			MaxWidth:  cfg.Extraction.MaxWidth,
			MaxHeight: cfg.Extraction.MaxHeight,
			Quality:   cfg.Extraction.JPEGQuality,
		},
		Lease: time.Duration(cfg.Extraction.LeaseMinutes) * time.Minute,
	})
	return pipeline, snapshotter
}
