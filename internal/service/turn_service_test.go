package service

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"clinic-assistant-be/internal/config"
	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/internal/dto"
	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/internal/repository/contract"
	"clinic-assistant-be/internal/repository/specification"
	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/pkg/analytics"
	"clinic-assistant-be/pkg/cache"
	"clinic-assistant-be/pkg/conversation"
	"clinic-assistant-be/pkg/generation"
	"clinic-assistant-be/pkg/governance"
	"clinic-assistant-be/pkg/guard"
	"clinic-assistant-be/pkg/queue"
	"clinic-assistant-be/pkg/retrieval"
	"clinic-assistant-be/pkg/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- in-memory repository fakes ---

type fakeTurnRepo struct {
	mu      sync.Mutex
	records []*entity.TurnRecord
}

func (r *fakeTurnRepo) Create(_ context.Context, record *entity.TurnRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeTurnRepo) FindOne(_ context.Context, _ ...specification.Specification) (*entity.TurnRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.records) == 0 {
		return nil, nil
	}
	return r.records[len(r.records)-1], nil
}

func (r *fakeTurnRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.TurnRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.TurnRecord(nil), r.records...), nil
}

func (r *fakeTurnRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.records)), nil
}

type fakeActivityRepo struct {
	mu   sync.Mutex
	logs []*entity.ActivityLog
}

func (r *fakeActivityRepo) Create(_ context.Context, log *entity.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeActivityRepo) FindAll(_ context.Context, _ ...specification.Specification) ([]*entity.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*entity.ActivityLog(nil), r.logs...), nil
}

func (r *fakeActivityRepo) Count(_ context.Context, _ ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.logs)), nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*entity.CustomerProfile
}

func profileKey(orgId uuid.UUID, channel, userId string) string {
	return orgId.String() + "/" + channel + "/" + userId
}

func (r *fakeProfileRepo) Upsert(_ context.Context, profile *entity.CustomerProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profiles == nil {
		r.profiles = map[string]*entity.CustomerProfile{}
	}
	r.profiles[profileKey(profile.OrganizationId, profile.Channel, profile.UserId)] = profile
	return nil
}

func (r *fakeProfileRepo) FindByIdentity(_ context.Context, orgId uuid.UUID, channel, userId string) (*entity.CustomerProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.profiles[profileKey(orgId, channel, userId)], nil
}

type fakeUnitOfWork struct {
	turns    *fakeTurnRepo
	activity *fakeActivityRepo
	profiles *fakeProfileRepo
}

func (u *fakeUnitOfWork) Begin(context.Context) error { return nil }

func (u *fakeUnitOfWork) Commit() error { return nil }

func (u *fakeUnitOfWork) Rollback() error { return nil }

func (u *fakeUnitOfWork) ClinicServiceRepository() contract.ClinicServiceRepository { return nil }
func (u *fakeUnitOfWork) KnowledgeEmbeddingRepository() contract.KnowledgeEmbeddingRepository {
	return nil
}
func (u *fakeUnitOfWork) TurnRecordRepository() contract.TurnRecordRepository { return u.turns }
func (u *fakeUnitOfWork) ActivityLogRepository() contract.ActivityLogRepository {
	return u.activity
}
func (u *fakeUnitOfWork) CustomerProfileRepository() contract.CustomerProfileRepository {
	return u.profiles
}

type fakeFactory struct {
	uow *fakeUnitOfWork
}

func (f *fakeFactory) NewUnitOfWork(context.Context) unitofwork.UnitOfWork { return f.uow }

// --- queue and result fakes ---

type fakeQueue struct {
	mu       sync.Mutex
	jobs     []*queue.GenerationJob
	failWith error
}

func (q *fakeQueue) Publish(_ context.Context, job *queue.GenerationJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.failWith != nil {
		return q.failWith
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *fakeQueue) Subscribe(context.Context) (<-chan *queue.GenerationJob, error) {
	ch := make(chan *queue.GenerationJob)
	close(ch)
	return ch, nil
}

func (q *fakeQueue) Close() error { return nil }

func (q *fakeQueue) published() []*queue.GenerationJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*queue.GenerationJob(nil), q.jobs...)
}

type fakeResults struct {
	mu        sync.Mutex
	result    *queue.GenerationResult
	err       error
	waitedFor []string
}

func (r *fakeResults) Wait(_ context.Context, jobID string, _ time.Duration) (*queue.GenerationResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waitedFor = append(r.waitedFor, jobID)
	if r.err != nil {
		return nil, r.err
	}
	out := *r.result
	out.JobID = jobID
	return &out, nil
}

// --- analytics stub ---

type stubKnowledgeAgent struct {
	assessment *retrieval.Assessment
	findings   []string
	risks      []string
}

func (a *stubKnowledgeAgent) Name() string { return analytics.AgentKnowledge }

func (a *stubKnowledgeAgent) Analyze(context.Context, *analytics.Input) (*analytics.Output, error) {
	return &analytics.Output{
		Agent:              analytics.AgentKnowledge,
		KeyFindings:        a.findings,
		RiskFlags:          a.risks,
		DataClassification: analytics.ClassificationCustomer,
		Assessment:         a.assessment,
	}, nil
}

// --- fixture ---

type turnFixture struct {
	svc       ITurnService
	cfg       *config.Config
	queue     *fakeQueue
	results   *fakeResults
	uow       *fakeUnitOfWork
	store     session.Store
	semaphore *governance.Semaphore
	ledger    *governance.Ledger
	breaker   *governance.CircuitBreaker
	respCache *cache.ResponseCache
	knowledge *stubKnowledgeAgent
}

func fullAssessment() *retrieval.Assessment {
	return &retrieval.Assessment{
		Confidence: 0.92,
		Mode:       retrieval.ModeFull,
		Hits: []retrieval.Hit{{
			ID:    "kb-1",
			Score: 0.95,
			Metadata: map[string]interface{}{
				"service":      "botox",
				"price_satang": "450000",
				"duration":     "30 minutes",
				"risks":        "temporary bruising",
				"description":  "botulinum toxin treatment",
			},
			Document: "Botox smooths dynamic wrinkles; effects last three to four months.",
		}},
	}
}

func newTurnFixture(t *testing.T) *turnFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := &config.Config{
		Governance: config.GovernanceConfig{
			GlobalConcurrency:   8,
			OrgConcurrency:      4,
			LeaseTTL:            30 * time.Second,
			DailyBudgetSatang:   10000,
			EstimateSatangPer1K: 15,
			TurnDeadline:        2 * time.Second,
			JobPollInterval:     5 * time.Millisecond,
			SessionTTL:          time.Hour,
		},
		Guard: config.GuardPolicyConfig{
			ShortMessageRunes:    25,
			RefinementKeywords:   []string{"more natural", "softer", "less"},
			ResetKeywords:        []string{"start over", "reset"},
			ChitchatKeywords:     []string{"ok", "thanks", "cool"},
			ForbiddenTokens:      []string{"unknown", "not sure"},
			ConfidenceFull:       0.85,
			ConfidenceRestricted: 0.70,
		},
	}

	convPolicy := conversation.DefaultPolicy()
	guardPolicy := guard.Policy{
		ShortMessageRunes:  cfg.Guard.ShortMessageRunes,
		RefinementKeywords: cfg.Guard.RefinementKeywords,
		ChitchatKeywords:   cfg.Guard.ChitchatKeywords,
		ForbiddenTokens:    cfg.Guard.ForbiddenTokens,
	}

	quiet := log.New(io.Discard, "", 0)
	preGuards := guard.NewPipeline(quiet,
		&guard.DuplicateIntentGuard{},
		&guard.StickinessGuard{Policy: guardPolicy},
		&guard.PreferenceGuard{Policy: guardPolicy},
		&guard.KnowledgeReadinessGuard{},
		&guard.SurgicalFlowGuard{ConversationPolicy: convPolicy},
	)

	knowledge := &stubKnowledgeAgent{
		assessment: fullAssessment(),
		findings:   []string{"botox price on file"},
	}
	fanOut := analytics.NewFanOut(
		[]analytics.Agent{knowledge},
		map[string]time.Duration{},
		200*time.Millisecond,
		logger.NewNopLogger(),
	)

	f := &turnFixture{
		cfg:       cfg,
		queue:     &fakeQueue{},
		results:   &fakeResults{result: &queue.GenerationResult{Reply: "Our doctor will tailor your botox plan at the visit.", TokensIn: 100, TokensOut: 50}},
		uow:       &fakeUnitOfWork{turns: &fakeTurnRepo{}, activity: &fakeActivityRepo{}, profiles: &fakeProfileRepo{}},
		store:     session.NewMemoryStore(time.Hour),
		semaphore: governance.NewSemaphore(rdb, governance.SemaphoreConfig{GlobalLimit: 8, OrgLimit: 4, LeaseTTL: 30 * time.Second}),
		ledger:    governance.NewLedger(rdb, governance.LedgerConfig{DailyLimitSatang: 10000, Location: time.UTC, EntryTTL: 48 * time.Hour}),
		breaker:   governance.NewCircuitBreaker(governance.BreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Cooldown: time.Minute}),
		respCache: cache.NewResponseCache(rdb, 15*time.Minute),
		knowledge: knowledge,
	}

	f.svc = NewTurnService(
		cfg,
		&fakeFactory{uow: f.uow},
		f.store,
		session.NewLocker(),
		conversation.NewClassifier(convPolicy),
		conversation.NewMachine(convPolicy),
		preGuards,
		guard.NewOutputGuard(guardPolicy),
		fanOut,
		generation.NewBuilder(4000),
		f.queue,
		f.results,
		f.respCache,
		f.semaphore,
		f.ledger,
		governance.NewCostEstimator(cfg.Governance.EstimateSatangPer1K, 64),
		f.breaker,
		"fake",
		nil, // no pool: audit writes run inline so tests observe them
		logger.NewNopLogger(),
	)
	return f
}

func turnRequest(message string) *dto.TurnRequest {
	return &dto.TurnRequest{UserId: "user-1", Message: message}
}

// --- tests ---

func TestHandleTurnGeneratesAndCaches(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, "Our doctor will tailor your botox plan at the visit.", resp.Reply)
	assert.Equal(t, conversation.StagePricing, resp.Stage)
	assert.Equal(t, retrieval.ModeFull, resp.RetrievalMode)
	assert.False(t, resp.Cached)
	assert.Equal(t, 100, resp.Diagnostics.TokensIn)
	assert.Equal(t, 50, resp.Diagnostics.TokensOut)
	assert.Equal(t, int64(3), resp.Diagnostics.CostSatang)

	jobs := f.queue.published()
	require.Len(t, jobs, 1)
	assert.Equal(t, resp.CorrelationId, jobs[0].CorrelationID)
	assert.Equal(t, retrieval.ModeFull, jobs[0].Context.Mode)
	assert.Contains(t, jobs[0].Context.Findings, "botox price on file")
	assert.Equal(t, []string{jobs[0].ID}, f.results.waitedFor)

	records, _ := f.uow.turns.FindAll(ctx)
	require.Len(t, records, 1)
	assert.Equal(t, resp.Reply, records[0].Reply)
	assert.Equal(t, conversation.StagePricing, records[0].Stage)
	assert.Equal(t, retrieval.ModeFull, records[0].RetrievalMode)

	// the reservation was reconciled down to actual usage
	snap, err := f.svc.BudgetSnapshot(ctx, org)
	require.NoError(t, err)
	assert.Equal(t, int64(3), snap.SpentSatang)
	assert.Equal(t, int64(0), snap.ReservedSatang)
	assert.Equal(t, int64(10000), snap.LimitSatang)

	// an identical follow-up is served from the cache without a second job
	again, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, resp.Reply, again.Reply)
	assert.Len(t, f.queue.published(), 1)
}

func TestHandleTurnCapacityExceeded(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := f.semaphore.Acquire(ctx, org.String())
		require.NoError(t, err)
	}

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.Equal(t, constant.ReplyTryLater, resp.Reply)
	assert.Empty(t, f.queue.published())
}

func TestHandleTurnBudgetExceeded(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()
	ctx := context.Background()

	_, err := f.ledger.Reserve(ctx, org.String(), 10000)
	require.NoError(t, err)

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.Equal(t, constant.ReplyBudgetExceeded, resp.Reply)
	assert.Empty(t, f.queue.published())
}

func TestHandleTurnPreferenceRefinementBlocks(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()
	ctx := context.Background()
	key := session.Key{OrganizationID: org.String(), Channel: constant.ChannelDefault, UserID: "user-1"}

	seeded := conversation.NewState()
	seeded.Stage = conversation.StagePricing
	seeded.Intent = conversation.IntentServiceInquiry
	seeded.Service = "botox"
	seeded.Area = "face"
	require.NoError(t, f.store.Save(ctx, key, &seeded))

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("more natural please"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyPreferenceNoted, resp.Reply)
	assert.Equal(t, "preference_refinement", resp.GuardName)
	assert.Empty(t, f.queue.published())

	// the delta reached the session but no slot moved
	after, err := f.store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "more natural please", after.Preference["style"])
	assert.Equal(t, "botox", after.Service)
	assert.Equal(t, "face", after.Area)

	// and the customer profile absorbed it
	profile, err := f.uow.profiles.FindByIdentity(ctx, org, constant.ChannelDefault, "user-1")
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "more natural please", profile.Preferences["style"])
}

func TestHandleTurnParkedSessionIgnoresRefinement(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()
	ctx := context.Background()
	key := session.Key{OrganizationID: org.String(), Channel: constant.ChannelDefault, UserID: "user-1"}

	seeded := conversation.NewState()
	seeded.Stage = conversation.StageWaitingAdmin
	seeded.Intent = conversation.IntentMedicalConcern
	seeded.Service = "botox"
	seeded.Area = "face"
	require.NoError(t, f.store.Save(ctx, key, &seeded))

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("more natural please"))
	require.NoError(t, err)

	// parked means parked: no guard runs, no preference is taken
	assert.Equal(t, constant.ReplyConservative, resp.Reply)
	assert.Equal(t, conversation.StageWaitingAdmin, resp.Stage)
	assert.Empty(t, resp.GuardName)
	assert.Empty(t, f.queue.published())

	after, err := f.store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, conversation.StageWaitingAdmin, after.Stage)
	assert.Empty(t, after.Preference)
	assert.Equal(t, "botox", after.Service)
	assert.Equal(t, "face", after.Area)
	assert.Contains(t, after.RecentMessages, "more natural please")
}

func TestHandleTurnSurgicalPricingDeflected(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()

	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("how much is a nose job"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyConsultFirst, resp.Reply)
	assert.Equal(t, "surgical_flow_lock", resp.GuardName)
	assert.Empty(t, f.queue.published())
}

func TestHandleTurnKnowledgeAbstainBlocks(t *testing.T) {
	f := newTurnFixture(t)
	f.knowledge.assessment = &retrieval.Assessment{Confidence: 0.2, Mode: retrieval.ModeAbstain}
	f.knowledge.findings = nil
	org := uuid.New()

	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyKnowledgeFallback, resp.Reply)
	assert.Equal(t, "knowledge_readiness", resp.GuardName)
	assert.Empty(t, f.queue.published())
}

func TestHandleTurnAbstainWithoutServiceBlocks(t *testing.T) {
	f := newTurnFixture(t)
	f.knowledge.assessment = &retrieval.Assessment{Confidence: 0.6, Mode: retrieval.ModeAbstain}
	f.knowledge.findings = nil
	org := uuid.New()

	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("tell me about your clinic please"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyGreeting, resp.Reply)
	assert.Equal(t, "knowledge_readiness", resp.GuardName)
	assert.Empty(t, f.queue.published())
}

func TestHandleTurnMedicalParksInWaitingAdmin(t *testing.T) {
	f := newTurnFixture(t)
	org := uuid.New()
	ctx := context.Background()
	key := session.Key{OrganizationID: org.String(), Channel: constant.ChannelDefault, UserID: "user-1"}

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("I am pregnant, is botox a side effect risk for me?"))
	require.NoError(t, err)
	assert.Equal(t, constant.ReplyMedicalHandoff, resp.Reply)
	assert.Equal(t, conversation.StageWaitingAdmin, resp.Stage)
	assert.Empty(t, f.queue.published())

	// the session is parked: follow-ups get a conservative holding reply
	resp, err = f.svc.HandleTurn(ctx, org, turnRequest("are you still there?"))
	require.NoError(t, err)
	assert.Equal(t, constant.ReplyConservative, resp.Reply)
	assert.Equal(t, conversation.StageWaitingAdmin, resp.Stage)
	assert.Empty(t, f.queue.published())

	// staff reset releases the conversation
	require.NoError(t, f.svc.ResetSession(ctx, org, &dto.ResetSessionRequest{UserId: "user-1"}))
	fresh, err := f.store.Load(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, conversation.StageGreeting, fresh.Stage)
}

func TestHandleTurnBreakerOpenDegrades(t *testing.T) {
	f := newTurnFixture(t)
	f.breaker.RecordFailure("fake")
	f.breaker.RecordFailure("fake")
	org := uuid.New()

	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyTryLater, resp.Reply)
	assert.Empty(t, f.queue.published())

	records, _ := f.uow.turns.FindAll(context.Background())
	require.Len(t, records, 1)
	assert.Equal(t, constant.ReplyTryLater, records[0].Reply)
}

func TestHandleTurnPublishFailureFallsBack(t *testing.T) {
	f := newTurnFixture(t)
	f.queue.failWith = errors.New("broker unavailable")
	org := uuid.New()

	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyConservative, resp.Reply)
	assert.Empty(t, f.results.waitedFor)
}

func TestHandleTurnResultTimeoutFallsBack(t *testing.T) {
	f := newTurnFixture(t)
	f.results.err = queue.ErrResultTimeout
	org := uuid.New()

	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyConservative, resp.Reply)
	assert.Len(t, f.queue.published(), 1)
}

func TestHandleTurnWorkerErrorNotCached(t *testing.T) {
	f := newTurnFixture(t)
	f.results.result = &queue.GenerationResult{Error: "generation failed after retries: provider down"}
	org := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.Equal(t, constant.ReplyConservative, resp.Reply)

	_, hit, err := f.respCache.Get(ctx, org, cache.Normalize("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestHandleTurnOutputGuardReplacesReply(t *testing.T) {
	f := newTurnFixture(t)
	f.results.result = &queue.GenerationResult{Reply: "The exact outcome is unknown until we examine you.", TokensIn: 80, TokensOut: 40}
	org := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyConservative, resp.Reply)
	assert.Equal(t, "output", resp.GuardName)
	assert.Equal(t, string(guard.ReasonIllegalText), resp.GuardReason)
	assert.Len(t, f.queue.published(), 1)

	// a replaced reply is never worth caching
	_, hit, err := f.respCache.Get(ctx, org, cache.Normalize("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestHandleTurnOutputGuardAreaReask(t *testing.T) {
	f := newTurnFixture(t)
	f.results.result = &queue.GenerationResult{Reply: "Great! Which area would you like us to treat?", TokensIn: 60, TokensOut: 20}
	org := uuid.New()

	// the area is already resolved to "face"; re-asking is never sent
	resp, err := f.svc.HandleTurn(context.Background(), org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)

	assert.Equal(t, constant.ReplyConservative, resp.Reply)
	assert.Equal(t, string(guard.ReasonAskAreaAgain), resp.GuardReason)
}

func TestHandleTurnRiskFlagsBlockCaching(t *testing.T) {
	f := newTurnFixture(t)
	f.knowledge.risks = []string{"medication interaction mentioned"}
	org := uuid.New()
	ctx := context.Background()

	resp, err := f.svc.HandleTurn(ctx, org, turnRequest("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.Equal(t, []string{"medication interaction mentioned"}, resp.Diagnostics.RiskFlags)

	_, hit, err := f.respCache.Get(ctx, org, cache.Normalize("Tell me about botox for my face"))
	require.NoError(t, err)
	assert.False(t, hit)
}
