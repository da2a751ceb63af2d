package wire

import (
	"edu-ai-api/internal/config"
	"edu-ai-api/internal/domain/service"
	"edu-ai-api/internal/infrastructure/llm"
	"edu-ai-api/internal/infrastructure/messaging"
	"edu-ai-api/internal/infrastructure/persistence/postgres"
	"edu-ai-api/internal/infrastructure/persistence/redis"
	"edu-ai-api/internal/interfaces/http/handler"
	"edu-ai-api/internal/workflow/model"
	"edu-ai-api/internal/workflow/prompt"
)

// PostgresOnlyDataLayer 仅包含 PostgreSQL 的数据层（用于 bootstrap）
type PostgresOnlyDataLayer struct {
	PgClient         *postgres.Client
	TxManager        *postgres.TxManager
	InteractionRepo  *postgres.InteractionRepository
	QuestionBankRepo *postgres.QuestionBankRepository
	StudyPlanRepo    *postgres.StudyPlanRepository
}

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideInteractionPublisher 提供交互事件发布者；未启用 Stream 时发布为空操作
func ProvideInteractionPublisher(cfg *config.Config, redisClient *redis.Client) service.InteractionPublisher {
	return messaging.NewProducerFromConfig(cfg, redisClient.Redis())
}

// ProvideInferenceClient 提供推理端点客户端
func ProvideInferenceClient(cfg *config.Config) (*llm.Client, error) {
	return llm.NewClientFromConfig(cfg)
}

// ProvidePromptBuilder 由 ai 配置构造 PromptBuilder
func ProvidePromptBuilder(cfg *config.Config) *prompt.Builder {
	taskMax := make(map[model.TaskKind]int, len(cfg.AI.TaskMaxTokens))
	for k, v := range cfg.AI.TaskMaxTokens {
		taskMax[model.TaskKind(k)] = v
	}
	defaultMax := 0
	if _, p, ok := cfg.LLM.Provider(); ok {
		defaultMax = p.MaxTokens
	}
	return prompt.NewBuilder(prompt.NewRegistry(), prompt.Options{
		MaxQuestionCount: cfg.AI.MaxQuestionCount,
		MaxProblemLength: cfg.AI.MaxProblemLength,
		RecordFormat:     model.RecordFormat(cfg.AI.RecordFormat),
		DefaultMaxTokens: defaultMax,
		TaskMaxTokens:    taskMax,
	})
}

// ProvideHealthHandler 提供健康检查处理器
func ProvideHealthHandler(cfg *config.Config, pg *postgres.Client, rdb *redis.Client) *handler.HealthHandler {
	return handler.NewHealthHandler(cfg.App.Version, pg, rdb)
}
