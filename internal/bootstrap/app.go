package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/Cossomoj/RAG-agent-sub000/internal/ai"
	"github.com/Cossomoj/RAG-agent-sub000/internal/app"
	"github.com/Cossomoj/RAG-agent-sub000/internal/cache"
	"github.com/Cossomoj/RAG-agent-sub000/internal/config"
	"github.com/Cossomoj/RAG-agent-sub000/internal/model"
	mysqlClient "github.com/Cossomoj/RAG-agent-sub000/internal/platform/mysql"
	rabbitmqClient "github.com/Cossomoj/RAG-agent-sub000/internal/platform/rabbitmq"
	redisClient "github.com/Cossomoj/RAG-agent-sub000/internal/platform/redis"
	"github.com/Cossomoj/RAG-agent-sub000/internal/rag"
	"github.com/Cossomoj/RAG-agent-sub000/internal/repository"
	"github.com/Cossomoj/RAG-agent-sub000/internal/worker"
)

type App struct {
	Config        *config.Config
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	MessageWorker *worker.MessagePersistWorker

	LLM          *ai.Client
	Provider     *rag.IndexProvider
	IndexBuilder *app.IndexBuilder
	AnswerCache  *cache.AnswerCache
	Questions    *repository.QuestionRepository

	AnswerService   *app.AnswerService
	SuggestService  *app.SuggestService
	AdminService    *app.AdminService
	DialogueService *app.DialogueService

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlDB.AutoMigrate(
		&model.QuestionConfig{},
		&model.PromptTemplate{},
		&model.CorpusChunk{},
		&model.Message{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	messageRepo := repository.NewMessageRepository(mysqlDB)
	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}

	llm := ai.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.EmbeddingModel)

	chunkRepo := repository.NewChunkRepository(mysqlDB)
	builder := app.NewIndexBuilder(chunkRepo, llm, cfg.RAG.EnsembleWeights)
	indexSet, err := builder.Build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build corpus indices failed: %w", err)
	}
	provider := rag.NewIndexProvider(indexSet)

	answerCache := cache.NewAnswerCache(redisCli, cfg.RAG.NonCacheableIDs)
	dialogueCache := cache.NewDialogueCache(redisCli, time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second)
	publisher := rabbitmqClient.NewMessagePublisher(mqConn, cfg.RabbitMQ.MessagePersistQueue)
	dialogueService := app.NewDialogueService(messageRepo, dialogueCache, publisher)

	questionRepo := repository.NewQuestionRepository(mysqlDB)
	answerService := app.NewAnswerService(
		questionRepo,
		repository.NewTemplateRepository(mysqlDB),
		answerCache,
		provider,
		rag.NewQueryExpander(llm, cfg.RAG.ExpansionTotal),
		rag.NewMultiQueryRanker(llm, cfg.RAG.RetrievalConcurrency),
		app.NewAnswerStreamer(llm),
		dialogueService,
		cfg.RAG.TopK,
		cfg.RAG.MaxHistoryTurns,
	)

	return &App{
		Config:          cfg,
		MySQL:           mysqlDB,
		Redis:           redisCli,
		MQConn:          mqConn,
		MessageWorker:   messageWorker,
		LLM:             llm,
		Provider:        provider,
		IndexBuilder:    builder,
		AnswerCache:     answerCache,
		Questions:       questionRepo,
		AnswerService:   answerService,
		SuggestService:  app.NewSuggestService(llm),
		AdminService: app.NewAdminService(
			cfg.Auth.AdminUsername,
			cfg.Auth.AdminPasswordHash,
			cfg.Auth.JWTSecret,
			time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		),
		DialogueService: dialogueService,
		StartedAt:       time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MessageWorker != nil {
		a.MessageWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
