package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/pkg/generation"
	"clinic-assistant-be/pkg/governance"
	"clinic-assistant-be/pkg/llm"
	"clinic-assistant-be/pkg/queue"
	"clinic-assistant-be/pkg/retrieval"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider serves the role manager through Chat and the judge through
// Generate, so one stub covers both call sites.
type fakeProvider struct {
	mu        sync.Mutex
	chatText  string
	chatErrs  []error // consumed one per Chat call, nil means success
	chatCalls int
	judgeText string
}

func (p *fakeProvider) Chat(context.Context, []llm.Message, ...llm.Option) (*llm.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.chatCalls++
	if len(p.chatErrs) > 0 {
		err := p.chatErrs[0]
		p.chatErrs = p.chatErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &llm.Result{Text: p.chatText, Usage: llm.Usage{TokensIn: 120, TokensOut: 40}}, nil
}

func (p *fakeProvider) Generate(context.Context, string, ...llm.Option) (*llm.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return &llm.Result{Text: p.judgeText}, nil
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.chatCalls
}

type fakeSink struct {
	mu      sync.Mutex
	results []*queue.GenerationResult
}

func (s *fakeSink) Set(_ context.Context, result *queue.GenerationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *fakeSink) last() *queue.GenerationResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.results) == 0 {
		return nil
	}
	return s.results[len(s.results)-1]
}

func newTestWorker(provider *fakeProvider, judgeEnabled bool, maxAttempts int, breakerFailures int) (*workerService, *fakeSink, *governance.CircuitBreaker) {
	sink := &fakeSink{}
	breaker := governance.NewCircuitBreaker(governance.BreakerConfig{
		FailureThreshold: breakerFailures,
		SuccessThreshold: 1,
		Cooldown:         time.Minute,
	})
	ws := &workerService{
		jobQueue:    queue.NewWatermillQueue(),
		results:     sink,
		roleManager: generation.NewRoleManager(provider, 64),
		validator:   generation.NewValidator(),
		judge:       generation.NewJudge(provider, judgeEnabled, time.Second, logger.NewNopLogger()),
		breaker:     breaker,
		maxAttempts: maxAttempts,
		logger:      logger.NewNopLogger(),
	}
	return ws, sink, breaker
}

func testJob() *queue.GenerationJob {
	frozen := &generation.Context{
		Mode:       retrieval.ModeFull,
		Stage:      "pricing",
		Tone:       "medium",
		Service:    "botox",
		Area:       "face",
		Facts:      []string{"botox price 4500 baht per area"},
		Disclaimer: constant.ReplyDefaultDisclaimer,
	}
	return queue.NewGenerationJob(uuid.NewString(), uuid.New(), "web", "user-1", "how much is botox", frozen)
}

func TestWorkerProcessDeliversReply(t *testing.T) {
	provider := &fakeProvider{chatText: "Botox is 4500 baht per area at our clinic."}
	ws, sink, breaker := newTestWorker(provider, false, 3, 2)

	job := testJob()
	ws.process(context.Background(), job)

	result := sink.last()
	require.NotNil(t, result)
	assert.Equal(t, job.ID, result.JobID)
	assert.Contains(t, result.Reply, "Botox is 4500 baht per area at our clinic.")
	// a priced claim always carries the disclaimer
	assert.Contains(t, result.Reply, constant.ReplyDefaultDisclaimer)
	assert.Equal(t, 120, result.TokensIn)
	assert.Equal(t, 40, result.TokensOut)
	assert.False(t, result.Failed())
	assert.Equal(t, governance.BreakerClosed, breaker.State("fake"))
}

func TestWorkerProcessRetriesTransportErrors(t *testing.T) {
	provider := &fakeProvider{
		chatText: "Botox is 4500 baht per area.",
		chatErrs: []error{errors.New("connection reset")},
	}
	ws, sink, _ := newTestWorker(provider, false, 3, 5)

	ws.process(context.Background(), testJob())

	result := sink.last()
	require.NotNil(t, result)
	assert.False(t, result.Failed())
	assert.Equal(t, 2, provider.calls())
}

func TestWorkerProcessGivesUpAfterMaxAttempts(t *testing.T) {
	boom := errors.New("upstream 500")
	provider := &fakeProvider{chatErrs: []error{boom, boom, boom}}
	ws, sink, _ := newTestWorker(provider, false, 2, 10)

	ws.process(context.Background(), testJob())

	result := sink.last()
	require.NotNil(t, result)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "generation failed after retries")
	assert.Equal(t, 2, provider.calls())
}

func TestWorkerProcessBreakerOpenSkipsProvider(t *testing.T) {
	provider := &fakeProvider{chatText: "never sent"}
	ws, sink, breaker := newTestWorker(provider, false, 3, 2)
	breaker.RecordFailure("fake")
	breaker.RecordFailure("fake")

	ws.process(context.Background(), testJob())

	result := sink.last()
	require.NotNil(t, result)
	assert.True(t, result.Failed())
	assert.Zero(t, provider.calls())
}

func TestWorkerProcessRejectsUntracedNumbers(t *testing.T) {
	provider := &fakeProvider{chatText: "A full course is only 99,000 baht."}
	ws, sink, _ := newTestWorker(provider, false, 3, 2)

	ws.process(context.Background(), testJob())

	result := sink.last()
	require.NotNil(t, result)
	assert.True(t, result.Failed())
	assert.Contains(t, result.Error, "99,000")
	assert.Empty(t, result.Reply)
}

func TestWorkerProcessJudgeRejection(t *testing.T) {
	provider := &fakeProvider{
		chatText:  "Our doctor will walk you through the plan at your visit.",
		judgeText: "UNSAFE medical claim",
	}
	ws, sink, _ := newTestWorker(provider, true, 3, 2)

	ws.process(context.Background(), testJob())

	result := sink.last()
	require.NotNil(t, result)
	assert.Equal(t, "judge rejected draft", result.Error)
	assert.Empty(t, result.Reply)
}

func TestWorkerRunConsumesQueue(t *testing.T) {
	provider := &fakeProvider{chatText: "Botox is 4500 baht per area."}
	ws, sink, _ := newTestWorker(provider, false, 3, 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- ws.Run(ctx) }()

	// give the subscriber a moment before publishing
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, ws.jobQueue.Publish(ctx, testJob()))

	require.Eventually(t, func() bool { return sink.last() != nil }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, sink.last().Failed())

	cancel()
	select {
	case err := <-done:
		// cancellation either surfaces as ctx.Err or as a closed job channel
		if err != nil {
			assert.ErrorIs(t, err, context.Canceled)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop on context cancel")
	}
}
