package bootstrap

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"clinic-assistant-be/internal/config"
	"clinic-assistant-be/internal/controller"
	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/internal/service"
	"clinic-assistant-be/pkg/analytics"
	"clinic-assistant-be/pkg/background"
	"clinic-assistant-be/pkg/cache"
	"clinic-assistant-be/pkg/conversation"
	"clinic-assistant-be/pkg/embedding"
	"clinic-assistant-be/pkg/generation"
	"clinic-assistant-be/pkg/governance"
	"clinic-assistant-be/pkg/guard"
	"clinic-assistant-be/pkg/llm/factory"
	"clinic-assistant-be/pkg/queue"
	"clinic-assistant-be/pkg/retrieval"
	"clinic-assistant-be/pkg/session"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController      controller.IChatController
	KnowledgeController controller.IKnowledgeController

	// Background services (exposed for the binaries to run)
	WorkerService service.IWorkerService
	Pool          *background.Pool

	// Shared infrastructure
	Logger logger.ILogger
	Queue  queue.Queue
	Redis  *redis.Client
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Providers
	var embeddingProvider embedding.EmbeddingProvider
	if cfg.Ai.EmbeddingProvider == "ollama" {
		embeddingProvider = embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
	} else {
		embeddingProvider = embedding.NewGeminiProvider(cfg.Ai.GoogleGeminiKey)
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
	}

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.GoogleGeminiKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Infrastructure
	rdb := newRedisClient(cfg.App.RedisURL)

	var jobQueue queue.Queue
	if cfg.App.NatsURL != "" {
		natsQueue, natsErr := queue.NewNatsQueue(cfg.App.NatsURL)
		if natsErr != nil {
			log.Printf("[WARN] Failed to connect to NATS, using in-process queue: %v", natsErr)
			jobQueue = queue.NewWatermillQueue()
		} else {
			jobQueue = natsQueue
		}
	} else {
		jobQueue = queue.NewWatermillQueue()
	}

	resultStore := queue.NewResultStore(rdb, cfg.Governance.JobResultTTL)

	var sessionStore session.Store
	if rdb != nil {
		sessionStore = session.NewRedisStore(rdb, cfg.Governance.SessionTTL)
	} else {
		sessionStore = session.NewMemoryStore(cfg.Governance.SessionTTL)
	}

	// 4. Governance
	semaphore := governance.NewSemaphore(rdb, governance.SemaphoreConfig{
		GlobalLimit: cfg.Governance.GlobalConcurrency,
		OrgLimit:    cfg.Governance.OrgConcurrency,
		LeaseTTL:    cfg.Governance.LeaseTTL,
	})

	location, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		log.Printf("[WARN] Invalid timezone %q, using UTC", cfg.App.Timezone)
		location = time.UTC
	}
	ledger := governance.NewLedger(rdb, governance.LedgerConfig{
		DailyLimitSatang: cfg.Governance.DailyBudgetSatang,
		Location:         location,
	})

	estimator := governance.NewCostEstimator(cfg.Governance.EstimateSatangPer1K, cfg.Ai.MaxOutputTokens)
	breaker := governance.NewCircuitBreaker(governance.BreakerConfig{
		FailureThreshold: cfg.Governance.BreakerFailures,
		SuccessThreshold: cfg.Governance.BreakerSuccesses,
		Cooldown:         cfg.Governance.BreakerCooldown,
	})

	// 5. Conversation + guards
	convPolicy := conversation.DefaultPolicy()
	classifier := conversation.NewClassifier(convPolicy)
	machine := conversation.NewMachine(convPolicy)

	guardPolicy := guard.Policy{
		ShortMessageRunes:  cfg.Guard.ShortMessageRunes,
		RefinementKeywords: cfg.Guard.RefinementKeywords,
		ChitchatKeywords:   cfg.Guard.ChitchatKeywords,
		ForbiddenTokens:    cfg.Guard.ForbiddenTokens,
	}
	turnLogger := initTurnLogger(cfg.App.TurnLogFilePath)
	preGuards := guard.NewPipeline(turnLogger,
		&guard.DuplicateIntentGuard{},
		&guard.StickinessGuard{Policy: guardPolicy},
		&guard.PreferenceGuard{Policy: guardPolicy},
		&guard.KnowledgeReadinessGuard{},
		&guard.SurgicalFlowGuard{ConversationPolicy: convPolicy},
	)
	outputGuard := guard.NewOutputGuard(guardPolicy)

	// 6. Retrieval + analytics
	confidenceEngine := retrieval.NewConfidenceEngine(retrieval.Thresholds{
		Full:       cfg.Guard.ConfidenceFull,
		Restricted: cfg.Guard.ConfidenceRestricted,
	})
	searcher := retrieval.NewSearcher(embeddingProvider, confidenceEngine, turnLogger)

	fanOut := analytics.NewFanOut(
		[]analytics.Agent{
			analytics.NewBookingAgent(),
			analytics.NewPromotionsAgent(),
			analytics.NewProfileAgent(),
			analytics.NewFinanceAgent(cfg.Governance.EstimateSatangPer1K),
			analytics.NewKnowledgeAgent(searcher, retrieval.DefaultConfig()),
			analytics.NewFeedbackAgent([]string{"angry", "upset", "terrible", "complaint", "refund"}),
		},
		map[string]time.Duration{
			analytics.AgentBooking:    cfg.Analytics.BookingTimeout,
			analytics.AgentPromotions: cfg.Analytics.PromotionTimeout,
			analytics.AgentProfile:    cfg.Analytics.ProfileTimeout,
			analytics.AgentFinance:    cfg.Analytics.FinanceTimeout,
			analytics.AgentKnowledge:  cfg.Analytics.KnowledgeTimeout,
			analytics.AgentFeedback:   cfg.Analytics.FeedbackTimeout,
		},
		cfg.Analytics.FallbackTimeout,
		sysLogger,
	)

	// 7. Generation
	contextBuilder := generation.NewBuilder(cfg.Ai.ContextMaxChars)
	roleManager := generation.NewRoleManager(llmProvider, cfg.Ai.MaxOutputTokens)
	validator := generation.NewValidator()
	judge := generation.NewJudge(llmProvider, cfg.Ai.JudgeEnabled, cfg.Ai.JudgeTimeout, sysLogger)

	pool := background.NewPool(cfg.Governance.PoolWorkers, cfg.Governance.PoolQueueSize, cfg.Governance.PoolTaskTimeout, sysLogger)

	// 8. Services
	turnService := service.NewTurnService(
		cfg,
		uowFactory,
		sessionStore,
		session.NewLocker(),
		classifier,
		machine,
		preGuards,
		outputGuard,
		fanOut,
		contextBuilder,
		jobQueue,
		resultStore,
		cache.NewResponseCache(rdb, cfg.Governance.ResponseCacheTTL),
		semaphore,
		ledger,
		estimator,
		breaker,
		llmProvider.Name(),
		pool,
		sysLogger,
	)

	workerService := service.NewWorkerService(
		jobQueue,
		resultStore,
		roleManager,
		validator,
		judge,
		breaker,
		cfg.Governance.MaxJobAttempts,
		sysLogger,
	)

	knowledgeService := service.NewKnowledgeService(uowFactory, embeddingProvider, sysLogger)

	return &Container{
		ChatController:      controller.NewChatController(turnService),
		KnowledgeController: controller.NewKnowledgeController(knowledgeService),
		WorkerService:       workerService,
		Pool:                pool,
		Logger:              sysLogger,
		Queue:               jobQueue,
		Redis:               rdb,
	}
}

func newRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}
	return rdb
}

func initTurnLogger(logPath string) *log.Logger {
	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		log.Printf("Failed to create logs directory: %v", err)
	}
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return log.New(os.Stdout, "[TURN] ", log.LstdFlags)
	}
	return log.New(file, "", log.LstdFlags)
}
