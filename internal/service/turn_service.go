package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"clinic-assistant-be/internal/config"
	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/internal/dto"
	"clinic-assistant-be/internal/entity"
	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/pkg/analytics"
	"clinic-assistant-be/pkg/background"
	"clinic-assistant-be/pkg/cache"
	"clinic-assistant-be/pkg/conversation"
	"clinic-assistant-be/pkg/generation"
	"clinic-assistant-be/pkg/governance"
	"clinic-assistant-be/pkg/guard"
	"clinic-assistant-be/pkg/queue"
	"clinic-assistant-be/pkg/retrieval"
	"clinic-assistant-be/pkg/session"

	"github.com/google/uuid"
)

// ITurnService is the orchestrator: one call per inbound customer message.
type ITurnService interface {
	HandleTurn(ctx context.Context, organizationId uuid.UUID, request *dto.TurnRequest) (*dto.TurnResponse, error)
	ResetSession(ctx context.Context, organizationId uuid.UUID, request *dto.ResetSessionRequest) error
	BudgetSnapshot(ctx context.Context, organizationId uuid.UUID) (*dto.BudgetSnapshotResponse, error)
}

// ResultWaiter is the slice of the result store the orchestrator needs.
type ResultWaiter interface {
	Wait(ctx context.Context, jobID string, interval time.Duration) (*queue.GenerationResult, error)
}

type turnService struct {
	cfg *config.Config

	uowFactory   unitofwork.RepositoryFactory
	sessionStore session.Store
	locker       *session.Locker

	classifier *conversation.Classifier
	machine    *conversation.Machine

	preGuards   *guard.Pipeline
	outputGuard *guard.OutputGuard

	fanOut         *analytics.FanOut
	contextBuilder *generation.Builder

	jobQueue queue.Queue
	results  ResultWaiter

	respCache *cache.ResponseCache

	semaphore    *governance.Semaphore
	ledger       *governance.Ledger
	estimator    *governance.CostEstimator
	breaker      *governance.CircuitBreaker
	providerName string

	pool   *background.Pool
	logger logger.ILogger
}

func NewTurnService(
	cfg *config.Config,
	uowFactory unitofwork.RepositoryFactory,
	sessionStore session.Store,
	locker *session.Locker,
	classifier *conversation.Classifier,
	machine *conversation.Machine,
	preGuards *guard.Pipeline,
	outputGuard *guard.OutputGuard,
	fanOut *analytics.FanOut,
	contextBuilder *generation.Builder,
	jobQueue queue.Queue,
	results ResultWaiter,
	respCache *cache.ResponseCache,
	semaphore *governance.Semaphore,
	ledger *governance.Ledger,
	estimator *governance.CostEstimator,
	breaker *governance.CircuitBreaker,
	providerName string,
	pool *background.Pool,
	log logger.ILogger,
) ITurnService {
	return &turnService{
		cfg:            cfg,
		uowFactory:     uowFactory,
		sessionStore:   sessionStore,
		locker:         locker,
		classifier:     classifier,
		machine:        machine,
		preGuards:      preGuards,
		outputGuard:    outputGuard,
		fanOut:         fanOut,
		contextBuilder: contextBuilder,
		jobQueue:       jobQueue,
		results:        results,
		respCache:      respCache,
		semaphore:      semaphore,
		ledger:         ledger,
		estimator:      estimator,
		breaker:        breaker,
		providerName:   providerName,
		pool:           pool,
		logger:         log,
	}
}

// turn carries the mutable bookkeeping of one HandleTurn call.
type turn struct {
	correlationId string
	startedAt     time.Time
	orgId         uuid.UUID
	branchId      string
	channel       string
	userId        string
	message       string

	state      conversation.State
	classified conversation.Classified
	report     *analytics.Report
	assessment *retrieval.Assessment

	guardName   string
	guardReason string
	reply       string
	cached      bool
	tokensIn    int
	tokensOut   int
	costSatang  int64
}

// HandleTurn processes one customer message end to end: admission, budget,
// session, analytics, guards, state transition, at most one generation,
// output validation, persistence. Deterministic degradations (capacity,
// budget, breaker, timeout) return a templated reply, never an error.
func (ts *turnService) HandleTurn(ctx context.Context, organizationId uuid.UUID, request *dto.TurnRequest) (*dto.TurnResponse, error) {
	channel := request.Channel
	if channel == "" {
		channel = constant.ChannelDefault
	}

	t := &turn{
		correlationId: uuid.NewString(),
		startedAt:     time.Now(),
		orgId:         organizationId,
		branchId:      request.BranchId,
		channel:       channel,
		userId:        request.UserId,
		message:       request.Message,
	}

	ctx, cancel := context.WithTimeout(ctx, ts.cfg.Governance.TurnDeadline)
	defer cancel()

	// 1. Admission: the distributed semaphore caps concurrency globally and
	// per organization. Over capacity is a normal outcome, not an error.
	lease, err := ts.semaphore.Acquire(ctx, organizationId.String())
	if err != nil {
		if errors.Is(err, governance.ErrCapacityExceeded) {
			return ts.respond(t, constant.ReplyTryLater), nil
		}
		return nil, fmt.Errorf("semaphore acquire failed: %w", err)
	}
	defer func() {
		// Release is idempotent; the TTL on the lease covers a crashed
		// process.
		releaseCtx, releaseCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer releaseCancel()
		_ = lease.Release(releaseCtx)
	}()

	// 2. Budget: reserve the estimate up front, reconcile the actual on the
	// way out. Exactly one reconcile runs per reservation.
	estimate := ts.estimator.EstimateSatang(request.Message)
	reservation, err := ts.ledger.Reserve(ctx, organizationId.String(), estimate)
	if err != nil {
		if errors.Is(err, governance.ErrBudgetExceeded) {
			ts.logger.Warn("TURN", "daily budget exceeded", map[string]interface{}{
				"organization_id": organizationId.String(),
			})
			return ts.respond(t, constant.ReplyBudgetExceeded), nil
		}
		return nil, fmt.Errorf("budget reserve failed: %w", err)
	}
	defer func() {
		reconcileCtx, reconcileCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer reconcileCancel()
		_ = reservation.Reconcile(reconcileCtx, t.costSatang)
	}()

	// 3. Session lock: turns for the same conversation are serialized.
	key := session.Key{OrganizationID: organizationId.String(), Channel: channel, UserID: request.UserId}
	unlock := ts.locker.Lock(key)
	defer unlock()

	state, err := ts.sessionStore.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("session load failed: %w", err)
	}
	t.state = *state

	// 4. A parked conversation belongs to staff. Nothing downstream runs,
	// no guard, no analytics, no cache, until an explicit session reset;
	// only the ring buffer and timestamps move.
	if t.state.Stage == conversation.StageWaitingAdmin {
		t.state = ts.machine.Update(t.state, conversation.Classified{}, request.Message)
		ts.persistTurn(ctx, key, t, constant.ReplyConservative)
		return ts.respond(t, constant.ReplyConservative), nil
	}

	// 5. Response cache: an identical question already answered in full
	// mode skips everything downstream.
	normalized := cache.Normalize(request.Message)
	if ts.respCache != nil {
		if reply, hit, cacheErr := ts.respCache.Get(ctx, organizationId, normalized); cacheErr == nil && hit {
			t.cached = true
			return ts.respond(t, reply), nil
		}
	}

	t.classified = ts.classifier.Classify(request.Message, ts.cfg.Guard.ResetKeywords)

	// 6. Analytics fan-out, knowledge retrieval included.
	uow := ts.uowFactory.NewUnitOfWork(ctx)
	t.report = ts.fanOut.Run(ctx, &analytics.Input{
		OrganizationID: organizationId,
		Channel:        channel,
		UserID:         request.UserId,
		Message:        request.Message,
		State:          &t.state,
		Classified:     t.classified,
		UOW:            uow,
	})
	t.assessment = t.report.Assessment()

	retrievalMode := retrieval.ModeAbstain
	if t.assessment != nil {
		retrievalMode = t.assessment.Mode
	}

	// 7. Pre-generation guards.
	verdict := ts.preGuards.Evaluate(guard.Input{
		Prev:          t.state,
		Classified:    t.classified,
		Message:       request.Message,
		RetrievalMode: retrievalMode,
	})

	// 8. State transition runs whether or not a guard blocked: the ring
	// buffer and timestamps must reflect every message.
	next := ts.machine.Update(t.state, t.classified, request.Message)

	if verdict.Blocked {
		t.guardName = verdict.Guard
		t.guardReason = string(verdict.Reason)
		if len(verdict.PreferenceDelta) > 0 {
			for k, v := range verdict.PreferenceDelta {
				next.Preference[k] = v
			}
		}
		t.state = next
		ts.persistTurn(ctx, key, t, verdict.Reply)
		return ts.respond(t, verdict.Reply), nil
	}

	// Medical and handoff stages go straight to a human; the conversation
	// parks in waiting_admin until staff release it.
	if next.Stage == conversation.StageMedical || next.Stage == conversation.StageHandoff {
		next.Stage = conversation.StageWaitingAdmin
		t.state = next
		ts.persistTurn(ctx, key, t, constant.ReplyMedicalHandoff)
		return ts.respond(t, constant.ReplyMedicalHandoff), nil
	}
	// 9. Provider circuit: an open breaker degrades before any job is
	// queued, so broken providers cost nothing.
	if err := ts.breaker.Allow(ts.providerName); err != nil {
		t.state = next
		ts.persistTurn(ctx, key, t, constant.ReplyTryLater)
		return ts.respond(t, constant.ReplyTryLater), nil
	}

	// 10. Freeze the context and enqueue the single generation job.
	frozen := ts.contextBuilder.Build(&next, t.assessment, t.report.CustomerFindings())
	job := queue.NewGenerationJob(t.correlationId, organizationId, channel, request.UserId, request.Message, frozen)

	if err := ts.jobQueue.Publish(ctx, job); err != nil {
		ts.logger.Error("TURN", "failed to enqueue generation job", map[string]interface{}{
			"correlation_id": t.correlationId,
			"error":          err.Error(),
		})
		t.state = next
		ts.persistTurn(ctx, key, t, constant.ReplyConservative)
		return ts.respond(t, constant.ReplyConservative), nil
	}

	result, err := ts.results.Wait(ctx, job.ID, ts.cfg.Governance.JobPollInterval)
	if err != nil {
		ts.logger.Warn("TURN", "generation result not ready", map[string]interface{}{
			"correlation_id": t.correlationId,
			"job_id":         job.ID,
			"error":          err.Error(),
		})
		t.state = next
		ts.persistTurn(ctx, key, t, constant.ReplyConservative)
		return ts.respond(t, constant.ReplyConservative), nil
	}

	t.tokensIn = result.TokensIn
	t.tokensOut = result.TokensOut
	t.costSatang = ts.estimator.ActualSatang(result.TokensIn, result.TokensOut)

	reply := result.Reply
	clean := true
	if result.Failed() {
		reply = constant.ReplyConservative
		clean = false
	} else if reason := ts.outputGuard.Check(next, reply); reason != guard.ReasonNone {
		// The draft violated an output rule. No second model call: the
		// deterministic stage template answers instead.
		ts.logger.Warn("TURN", "output guard replaced reply", map[string]interface{}{
			"correlation_id": t.correlationId,
			"reason":         string(reason),
		})
		t.guardName = "output"
		t.guardReason = string(reason)
		reply = templateForReason(reason)
		if ts.outputGuard.Check(next, reply) != guard.ReasonNone {
			reply = constant.ReplyConservative
		}
		clean = false
	}

	t.state = next
	ts.persistTurn(ctx, key, t, reply)

	// 11. Only clean full-mode replies are worth reusing.
	if clean && ts.respCache != nil && retrievalMode == retrieval.ModeFull && len(t.report.RiskFlags()) == 0 {
		if cacheErr := ts.respCache.Set(ctx, organizationId, normalized, reply); cacheErr != nil {
			ts.logger.Warn("TURN", "response cache write failed", map[string]interface{}{
				"error": cacheErr.Error(),
			})
		}
	}

	return ts.respond(t, reply), nil
}

func templateForReason(reason guard.Reason) string {
	switch reason {
	case guard.ReasonPriceWithoutService:
		return constant.ReplyAskService
	case guard.ReasonPriceWithoutArea:
		return constant.ReplyAskArea
	default:
		return constant.ReplyConservative
	}
}

// persistTurn saves the session synchronously (the next turn depends on it)
// and pushes the audit trail to the background pool.
func (ts *turnService) persistTurn(ctx context.Context, key session.Key, t *turn, reply string) {
	t.reply = reply
	if err := ts.sessionStore.Save(ctx, key, &t.state); err != nil {
		ts.logger.Error("TURN", "session save failed", map[string]interface{}{
			"correlation_id": t.correlationId,
			"error":          err.Error(),
		})
	}

	snapshot := *t
	task := func(taskCtx context.Context) {
		ts.recordTurn(taskCtx, &snapshot)
	}
	if ts.pool == nil || !ts.pool.Submit(task) {
		// Audit writes degrade to inline when no pool is available.
		ts.recordTurn(ctx, &snapshot)
	}
}

func (ts *turnService) recordTurn(ctx context.Context, t *turn) {
	uow := ts.uowFactory.NewUnitOfWork(ctx)

	confidence := 0.0
	mode := ""
	if t.assessment != nil {
		confidence = t.assessment.Confidence
		mode = t.assessment.Mode
	}

	record := &entity.TurnRecord{
		Id:             uuid.New(),
		CorrelationId:  t.correlationId,
		OrganizationId: t.orgId,
		BranchId:       t.branchId,
		Channel:        t.channel,
		UserId:         t.userId,
		Message:        t.message,
		Reply:          t.reply,
		Stage:          t.state.Stage,
		Intent:         t.state.Intent,
		GuardName:      t.guardName,
		GuardReason:    t.guardReason,
		RetrievalMode:  mode,
		Confidence:     confidence,
		TokensIn:       t.tokensIn,
		TokensOut:      t.tokensOut,
		CostSatang:     t.costSatang,
		LatencyMs:      time.Since(t.startedAt).Milliseconds(),
		CreatedAt:      time.Now(),
	}
	if err := uow.TurnRecordRepository().Create(ctx, record); err != nil {
		ts.logger.Error("TURN", "turn record write failed", map[string]interface{}{
			"correlation_id": t.correlationId,
			"error":          err.Error(),
		})
	}

	details, _ := json.Marshal(map[string]interface{}{
		"correlation_id": t.correlationId,
		"stage":          t.state.Stage,
		"intent":         t.state.Intent,
		"guard":          t.guardName,
	})
	activity := &entity.ActivityLog{
		Id:             uuid.New(),
		OrganizationId: t.orgId,
		UserId:         t.userId,
		Action:         "chat_turn",
		Details:        string(details),
		CreatedAt:      time.Now(),
	}
	if err := uow.ActivityLogRepository().Create(ctx, activity); err != nil {
		ts.logger.Warn("TURN", "activity log write failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	ts.updateProfile(ctx, uow, t)
}

// updateProfile folds the turn into the customer memory: preference deltas
// and a one-line summary of where the conversation stands.
func (ts *turnService) updateProfile(ctx context.Context, uow unitofwork.UnitOfWork, t *turn) {
	profile, err := uow.CustomerProfileRepository().FindByIdentity(ctx, t.orgId, t.channel, t.userId)
	if err != nil {
		ts.logger.Warn("TURN", "profile lookup failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	if profile == nil {
		profile = &entity.CustomerProfile{
			Id:             uuid.New(),
			OrganizationId: t.orgId,
			Channel:        t.channel,
			UserId:         t.userId,
			Preferences:    map[string]string{},
			CreatedAt:      time.Now(),
		}
	}
	for k, v := range t.state.Preference {
		profile.Preferences[k] = v
	}
	if t.state.Service != "" {
		profile.Summary = fmt.Sprintf("interested in %s (%s), stage %s", t.state.Service, t.state.Area, t.state.Stage)
	}
	profile.LastSeenAt = time.Now()

	if err := uow.CustomerProfileRepository().Upsert(ctx, profile); err != nil {
		ts.logger.Warn("TURN", "profile upsert failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

func (ts *turnService) respond(t *turn, reply string) *dto.TurnResponse {
	t.reply = reply
	mode := ""
	confidence := 0.0
	if t.assessment != nil {
		mode = t.assessment.Mode
		confidence = t.assessment.Confidence
	}

	resp := &dto.TurnResponse{
		CorrelationId: t.correlationId,
		Reply:         reply,
		Stage:         t.state.Stage,
		Intent:        t.state.Intent,
		RetrievalMode: mode,
		GuardName:     t.guardName,
		GuardReason:   t.guardReason,
		Cached:        t.cached,
		CreatedAt:     time.Now(),
	}
	resp.Diagnostics = &dto.TurnDiags{
		Confidence: confidence,
		TokensIn:   t.tokensIn,
		TokensOut:  t.tokensOut,
		CostSatang: t.costSatang,
		LatencyMs:  time.Since(t.startedAt).Milliseconds(),
	}
	if t.report != nil {
		resp.Diagnostics.RiskFlags = t.report.RiskFlags()
	}
	return resp
}

// ResetSession drops the stored conversation. The next message starts from
// greeting; this is also the staff-side exit from waiting_admin.
func (ts *turnService) ResetSession(ctx context.Context, organizationId uuid.UUID, request *dto.ResetSessionRequest) error {
	channel := request.Channel
	if channel == "" {
		channel = constant.ChannelDefault
	}
	key := session.Key{OrganizationID: organizationId.String(), Channel: channel, UserID: request.UserId}

	unlock := ts.locker.Lock(key)
	defer unlock()

	if err := ts.sessionStore.Delete(ctx, key); err != nil {
		return fmt.Errorf("session delete failed: %w", err)
	}
	ts.logger.Info("TURN", "session reset", map[string]interface{}{
		"organization_id": organizationId.String(),
		"user_id":         request.UserId,
	})
	return nil
}

func (ts *turnService) BudgetSnapshot(ctx context.Context, organizationId uuid.UUID) (*dto.BudgetSnapshotResponse, error) {
	reserved, spent, err := ts.ledger.Snapshot(ctx, organizationId.String())
	if err != nil {
		return nil, fmt.Errorf("budget snapshot failed: %w", err)
	}
	return &dto.BudgetSnapshotResponse{
		Day:            time.Now().Format("2006-01-02"),
		SpentSatang:    spent,
		ReservedSatang: reserved,
		LimitSatang:    ts.cfg.Governance.DailyBudgetSatang,
	}, nil
}
