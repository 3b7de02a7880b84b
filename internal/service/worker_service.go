package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/pkg/generation"
	"clinic-assistant-be/pkg/governance"
	"clinic-assistant-be/pkg/llm"
	"clinic-assistant-be/pkg/queue"
)

// IWorkerService drains the generation queue. It is the only component
// that talks to the model for customer replies.
type IWorkerService interface {
	Run(ctx context.Context) error
}

// ResultSink is the slice of the result store the worker needs.
type ResultSink interface {
	Set(ctx context.Context, result *queue.GenerationResult) error
}

type workerService struct {
	jobQueue    queue.Queue
	results     ResultSink
	roleManager *generation.RoleManager
	validator   *generation.Validator
	judge       *generation.Judge
	breaker     *governance.CircuitBreaker
	maxAttempts int
	logger      logger.ILogger
}

func NewWorkerService(
	jobQueue queue.Queue,
	results ResultSink,
	roleManager *generation.RoleManager,
	validator *generation.Validator,
	judge *generation.Judge,
	breaker *governance.CircuitBreaker,
	maxAttempts int,
	log logger.ILogger,
) IWorkerService {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return &workerService{
		jobQueue:    jobQueue,
		results:     results,
		roleManager: roleManager,
		validator:   validator,
		judge:       judge,
		breaker:     breaker,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

// Run consumes jobs until the context is cancelled.
func (ws *workerService) Run(ctx context.Context) error {
	jobs, err := ws.jobQueue.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("failed to subscribe to generation queue: %w", err)
	}

	ws.logger.Info("WORKER", "generation worker started", nil)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				return nil
			}
			ws.process(ctx, job)
		}
	}
}

func (ws *workerService) process(ctx context.Context, job *queue.GenerationJob) {
	result := &queue.GenerationResult{
		JobID:       job.ID,
		CompletedAt: time.Now(),
	}

	if err := ws.breaker.Allow(ws.roleManager.ProviderName()); err != nil {
		result.Error = err.Error()
		ws.deliver(ctx, job, result)
		return
	}

	draft, err := ws.generate(ctx, job)
	if err != nil {
		result.Error = err.Error()
		ws.deliver(ctx, job, result)
		return
	}

	result.TokensIn = draft.Usage.TokensIn
	result.TokensOut = draft.Usage.TokensOut

	if err := ws.validator.ValidateNumbers(job.Context, draft.Text); err != nil {
		// An untraced number in the draft is a correctness failure; the
		// orchestrator falls back to a template instead of the draft.
		ws.logger.Warn("WORKER", "draft failed numeric validation", map[string]interface{}{
			"correlation_id": job.CorrelationID,
			"error":          err.Error(),
		})
		result.Error = err.Error()
		ws.deliver(ctx, job, result)
		return
	}

	if ws.judge != nil && !ws.judge.Review(ctx, job.Context, draft.Text) {
		result.Error = "judge rejected draft"
		ws.deliver(ctx, job, result)
		return
	}

	result.Reply = job.Context.EnsureDisclaimer(draft.Text)
	result.CompletedAt = time.Now()
	ws.deliver(ctx, job, result)
}

// generate calls the model with transport-level retries. Retries stop as
// soon as a response arrives: each job produces at most one completed
// generation, attempts only cover failures that produced nothing.
func (ws *workerService) generate(ctx context.Context, job *queue.GenerationJob) (*llm.Result, error) {
	var lastErr error
	backoff := 250 * time.Millisecond

	for attempt := 1; attempt <= ws.maxAttempts; attempt++ {
		draft, err := ws.roleManager.Generate(ctx, job.Context, job.Message)
		if err == nil {
			ws.breaker.RecordSuccess(ws.roleManager.ProviderName())
			return draft, nil
		}

		ws.breaker.RecordFailure(ws.roleManager.ProviderName())
		lastErr = err
		ws.logger.Warn("WORKER", "generation attempt failed", map[string]interface{}{
			"correlation_id": job.CorrelationID,
			"attempt":        attempt,
			"error":          err.Error(),
		})

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			break
		}
		if ws.breaker.Allow(ws.roleManager.ProviderName()) != nil {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
	return nil, fmt.Errorf("generation failed after retries: %w", lastErr)
}

func (ws *workerService) deliver(ctx context.Context, job *queue.GenerationJob, result *queue.GenerationResult) {
	if err := ws.results.Set(ctx, result); err != nil {
		ws.logger.Error("WORKER", "failed to store generation result", map[string]interface{}{
			"correlation_id": job.CorrelationID,
			"job_id":         job.ID,
			"error":          err.Error(),
		})
	}
}
