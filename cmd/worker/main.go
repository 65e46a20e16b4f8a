package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"social-pilot/config"
	"social-pilot/db"
	"social-pilot/eventbus"
	"social-pilot/events"
	"social-pilot/extraction"
	"social-pilot/internal/bootstrap"
	"social-pilot/internal/logger"
)

// worker 는 extraction.requested 이벤트를 소비해 추출 파이프라인을 실행한다.
// 실패한 이벤트는 RetryDelays 에 따라 재시도 토픽으로, 한도를 넘으면 DLQ 로 간다.
func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Init(cfg.Logging.Level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// MongoDB 초기화
	if err := db.Init(ctx); err != nil {
		logger.Log.Errorf("failed to initialize MongoDB: %v", err)
		os.Exit(1)
	}
	defer db.Disconnect(context.Background())
	stores := bootstrap.NewStores(db.Database())

	if _, ok := eventbus.Brokers(); !ok {
		logger.Log.Error("KAFKA_BOOTSTRAP_SERVERS is required for the worker")
		os.Exit(1)
	}
	bus, closeBus, err := bootstrap.EventBus()
	if err != nil {
		logger.Log.Errorf("failed to create event bus: %v", err)
		os.Exit(1)
	}
	defer closeBus()

	dispatcher := events.NewDispatcher(bus, "worker")
	registry := bootstrap.TextRegistry(ctx, cfg)
	pipeline, _ := bootstrap.Pipeline(cfg, stores, registry, bootstrap.Auditor(cfg, stores), dispatcher)

	groupID := eventbus.GetGroupID() + "-extraction"
	logger.Log.Info("starting extraction worker with eventbus...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := bus.Subscribe(ctx, groupID, eventbus.TopicExtractionRequests, extraction.EventHandler(pipeline.Run))
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Log.Errorf("eventbus subscribe error: %v", err)
		}
	}()

	// 종료 신호 대기
	<-sigChan
	logger.Log.Info("received shutdown signal, shutting down extraction worker...")

	cancel()
	wg.Wait()

	logger.Log.Info("extraction worker stopped")
}
