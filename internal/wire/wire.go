// Package wire 负责应用的依赖装配
package wire

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"ai-grader-api/internal/application/document"
	"ai-grader-api/internal/application/quota"
	"ai-grader-api/internal/config"
	"ai-grader-api/internal/infrastructure/llm"
	"ai-grader-api/internal/infrastructure/messaging"
	"ai-grader-api/internal/infrastructure/persistence/postgres"
	"ai-grader-api/internal/infrastructure/persistence/redis"
	einoobs "ai-grader-api/internal/observability/eino"
	"ai-grader-api/internal/interfaces/http/handler"
	"ai-grader-api/internal/interfaces/http/router"
)

// App 装配完成的应用
type App struct {
	router *router.Router
}

// Engine 返回 HTTP 引擎
func (a *App) Engine() *gin.Engine {
	return a.router.Engine()
}

// InitializeApp 构造全部依赖并返回应用与清理函数
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	// 持久化层
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		pgClient.Close()
		return nil, nil, fmt.Errorf("failed to init redis: %w", err)
	}

	cleanup := func() {
		_ = redisClient.Close()
		_ = pgClient.Close()
	}

	// 用量记录（eino 全局回调中使用）
	usageRepo := postgres.NewLLMUsageEventRepository(pgClient)
	usageRecorder := quota.NewLLMUsageRecorder(usageRepo)
	einoobs.Init(usageRecorder)

	// LLM 与业务服务
	llmFactory := llm.NewEinoFactory(cfg)
	docService := document.NewService(cfg.Generation, llmFactory)

	// 基础设施服务
	cache := redis.NewCache(redisClient)
	draftStore := redis.NewDraftStore(redisClient, cfg.Generation.DraftTTL)
	rateLimiter := redis.NewRateLimiter(redisClient)
	producer := messaging.NewProducer(redisClient.Redis(), int64(cfg.Messaging.RedisStream.MaxLen))

	// 用量统计查询走缓存
	usageStats := quota.NewUsageStatsService(usageRepo, cache)

	// HTTP 层
	documentHandler := handler.NewDocumentHandler(cfg, docService, draftStore, producer)
	usageHandler := handler.NewUsageHandler(usageStats)
	healthHandler := handler.NewHealthHandler(pgClient, redisClient)

	r := router.New(cfg, documentHandler, usageHandler, healthHandler, rateLimiter)

	return &App{router: r}, cleanup, nil
}
