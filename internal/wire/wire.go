//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"edu-ai-api/internal/application/assistant"
	"edu-ai-api/internal/application/usage"
	"edu-ai-api/internal/config"
	"edu-ai-api/internal/domain/repository"
	"edu-ai-api/internal/domain/service"
	"edu-ai-api/internal/infrastructure/llm"
	"edu-ai-api/internal/infrastructure/persistence/postgres"
	"edu-ai-api/internal/infrastructure/persistence/redis"
	"edu-ai-api/internal/interfaces/http/handler"
	"edu-ai-api/internal/interfaces/http/middleware"
	"edu-ai-api/internal/interfaces/http/router"
	"edu-ai-api/internal/workflow/port"
)

// InitializePostgresOnly 仅初始化 PostgreSQL 数据层（用于 bootstrap）
func InitializePostgresOnly(ctx context.Context, cfg *config.Config) (*PostgresOnlyDataLayer, func(), error) {
	wire.Build(
		PostgresSet,
		wire.Struct(new(PostgresOnlyDataLayer), "*"),
	)
	return nil, nil, nil
}

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		MessagingSet,
		AssistantSet,
		RouterSet,
	)
	return nil, nil, nil
}

// PostgresSet PostgreSQL 提供者集合
var PostgresSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewInteractionRepository,
	postgres.NewQuestionBankRepository,
	postgres.NewStudyPlanRepository,
)

// RepoSet 整合了具体实现与接口绑定的集合
var RepoSet = wire.NewSet(
	PostgresSet,
	// 接口绑定
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.InteractionRepository), new(*postgres.InteractionRepository)),
	wire.Bind(new(repository.QuestionBankRepository), new(*postgres.QuestionBankRepository)),
	wire.Bind(new(repository.StudyPlanRepository), new(*postgres.StudyPlanRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// MessagingSet 消息队列提供者集合
var MessagingSet = wire.NewSet(
	ProvideInteractionPublisher,
)

// AssistantSet 编排器及其依赖
var AssistantSet = wire.NewSet(
	ProvideInferenceClient,
	ProvidePromptBuilder,
	usage.NewRecorder,
	wire.Bind(new(service.UsageRecorder), new(*usage.Recorder)),
	assistant.OptionsFromConfig,
	assistant.NewOrchestrator,
	wire.Bind(new(handler.Assistant), new(*assistant.Orchestrator)),
	wire.Bind(new(port.InferenceClient), new(*llm.Client)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	ProvideHealthHandler,
	handler.NewAIHandler,
	router.New,
)
