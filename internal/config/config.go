package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Ai         AIConfig
	Governance GovernanceConfig
	Guard      GuardPolicyConfig
	Analytics  AnalyticsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	TurnLogFilePath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	Timezone           string // calendar day boundary for budget accounting
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string
	LLMModel          string
	GoogleGeminiKey   string
	JudgeEnabled      bool
	JudgeTimeout      time.Duration
	MaxOutputTokens   int
	ContextMaxChars   int // hard budget for the frozen generation context
}

// GovernanceConfig bundles the admission/cost knobs. All of these are
// enforced inside pkg/governance, not by callers.
type GovernanceConfig struct {
	GlobalConcurrency   int
	OrgConcurrency      int
	LeaseTTL            time.Duration
	DailyBudgetSatang   int64 // per-org daily budget in minor currency units
	EstimateSatangPer1K int64 // reservation estimate per 1k tokens
	BreakerFailures     int
	BreakerSuccesses    int
	BreakerCooldown     time.Duration
	TurnDeadline        time.Duration
	JobResultTTL        time.Duration
	JobPollInterval     time.Duration
	MaxJobAttempts      int
	SessionTTL          time.Duration
	ResponseCacheTTL    time.Duration
	PoolWorkers         int
	PoolQueueSize       int
	PoolTaskTimeout     time.Duration
}

// GuardPolicyConfig keeps the duplicate/stickiness heuristics configurable.
// The keyword lists are a data asset loaded from env (comma separated) so a
// deployment can localize them without a rebuild.
type GuardPolicyConfig struct {
	ShortMessageRunes    int
	RefinementKeywords   []string
	ResetKeywords        []string
	ChitchatKeywords     []string
	ForbiddenTokens      []string
	ConfidenceFull       float64
	ConfidenceRestricted float64
}

type AnalyticsConfig struct {
	BookingTimeout   time.Duration
	PromotionTimeout time.Duration
	ProfileTimeout   time.Duration
	FinanceTimeout   time.Duration
	KnowledgeTimeout time.Duration
	FeedbackTimeout  time.Duration
	FallbackTimeout  time.Duration // applied to agents without an explicit entry
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			TurnLogFilePath:    getEnv("TURN_LOG_FILE_PATH", "logs/turns.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
			Timezone:           getEnv("BUDGET_TIMEZONE", "Asia/Bangkok"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			GoogleGeminiKey:   getEnv("GOOGLE_GEMINI_API_KEY", ""),
			JudgeEnabled:      getEnv("JUDGE_ENABLED", "false") == "true",
			JudgeTimeout:      getEnvAsDuration("JUDGE_TIMEOUT", 2*time.Second),
			MaxOutputTokens:   getEnvAsInt("LLM_MAX_OUTPUT_TOKENS", 512),
			ContextMaxChars:   getEnvAsInt("LLM_CONTEXT_MAX_CHARS", 4000),
		},
		Governance: GovernanceConfig{
			GlobalConcurrency:   getEnvAsInt("GOV_GLOBAL_CONCURRENCY", 32),
			OrgConcurrency:      getEnvAsInt("GOV_ORG_CONCURRENCY", 4),
			LeaseTTL:            getEnvAsDuration("GOV_LEASE_TTL", 30*time.Second),
			DailyBudgetSatang:   getEnvAsInt64("GOV_DAILY_BUDGET_SATANG", 50000),
			EstimateSatangPer1K: getEnvAsInt64("GOV_ESTIMATE_SATANG_PER_1K", 15),
			BreakerFailures:     getEnvAsInt("GOV_BREAKER_FAILURES", 5),
			BreakerSuccesses:    getEnvAsInt("GOV_BREAKER_SUCCESSES", 2),
			BreakerCooldown:     getEnvAsDuration("GOV_BREAKER_COOLDOWN", 30*time.Second),
			TurnDeadline:        getEnvAsDuration("GOV_TURN_DEADLINE", 12*time.Second),
			JobResultTTL:        getEnvAsDuration("GOV_JOB_RESULT_TTL", 2*time.Minute),
			JobPollInterval:     getEnvAsDuration("GOV_JOB_POLL_INTERVAL", 100*time.Millisecond),
			MaxJobAttempts:      getEnvAsInt("GOV_MAX_JOB_ATTEMPTS", 3),
			SessionTTL:          getEnvAsDuration("GOV_SESSION_TTL", 30*time.Minute),
			ResponseCacheTTL:    getEnvAsDuration("GOV_RESPONSE_CACHE_TTL", 15*time.Minute),
			PoolWorkers:         getEnvAsInt("GOV_POOL_WORKERS", 2),
			PoolQueueSize:       getEnvAsInt("GOV_POOL_QUEUE_SIZE", 128),
			PoolTaskTimeout:     getEnvAsDuration("GOV_POOL_TASK_TIMEOUT", 10*time.Second),
		},
		Guard: GuardPolicyConfig{
			ShortMessageRunes:    getEnvAsInt("GUARD_SHORT_MESSAGE_RUNES", 25),
			RefinementKeywords:   getEnvAsList("GUARD_REFINEMENT_KEYWORDS", "more natural,less dramatic,softer,stronger,subtle"),
			ResetKeywords:        getEnvAsList("GUARD_RESET_KEYWORDS", "start over,reset,new topic"),
			ChitchatKeywords:     getEnvAsList("GUARD_CHITCHAT_KEYWORDS", "thanks,thank you,ok,okay,haha,lol"),
			ForbiddenTokens:      getEnvAsList("GUARD_FORBIDDEN_TOKENS", "unknown,other,null,undefined"),
			ConfidenceFull:       getEnvAsFloat("GUARD_CONFIDENCE_FULL", 0.85),
			ConfidenceRestricted: getEnvAsFloat("GUARD_CONFIDENCE_RESTRICTED", 0.70),
		},
		Analytics: AnalyticsConfig{
			BookingTimeout:   getEnvAsDuration("AGENT_BOOKING_TIMEOUT", 250*time.Millisecond),
			PromotionTimeout: getEnvAsDuration("AGENT_PROMOTION_TIMEOUT", 200*time.Millisecond),
			ProfileTimeout:   getEnvAsDuration("AGENT_PROFILE_TIMEOUT", 200*time.Millisecond),
			FinanceTimeout:   getEnvAsDuration("AGENT_FINANCE_TIMEOUT", 150*time.Millisecond),
			KnowledgeTimeout: getEnvAsDuration("AGENT_KNOWLEDGE_TIMEOUT", 350*time.Millisecond),
			FeedbackTimeout:  getEnvAsDuration("AGENT_FEEDBACK_TIMEOUT", 150*time.Millisecond),
			FallbackTimeout:  getEnvAsDuration("AGENT_FALLBACK_TIMEOUT", 200*time.Millisecond),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
