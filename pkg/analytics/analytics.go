package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/internal/repository/unitofwork"
	"clinic-assistant-be/pkg/conversation"
	"clinic-assistant-be/pkg/retrieval"

	"github.com/google/uuid"
)

// Data classifications control which agent outputs may reach the customer
// facing generation context. Internal outputs stay server side.
const (
	ClassificationCustomer = "customer"
	ClassificationInternal = "internal"
)

// Agent names.
const (
	AgentBooking    = "booking"
	AgentPromotions = "promotions"
	AgentProfile    = "profile"
	AgentFinance    = "finance"
	AgentKnowledge  = "knowledge"
	AgentFeedback   = "feedback"
)

// Input is the read-only snapshot every agent analyzes. Agents never mutate
// conversation state; they only report findings.
type Input struct {
	OrganizationID uuid.UUID
	Channel        string
	UserID         string
	Message        string
	State          *conversation.State
	Classified     conversation.Classified
	UOW            unitofwork.UnitOfWork
}

// Output is one agent's contribution to the turn.
type Output struct {
	Agent              string
	KeyFindings        []string
	Recommendation     string
	RiskFlags          []string
	DataClassification string
	Assessment         *retrieval.Assessment
	Elapsed            time.Duration
	Err                error
}

// Agent analyzes one aspect of the turn within its deadline.
type Agent interface {
	Name() string
	Analyze(ctx context.Context, input *Input) (*Output, error)
}

// Report aggregates the fan-out. A missing or failed agent degrades the
// report, it never fails the turn.
type Report struct {
	Outputs map[string]*Output
}

// Assessment returns the knowledge agent's retrieval grading, or nil when
// the agent failed or timed out.
func (r *Report) Assessment() *retrieval.Assessment {
	if out, ok := r.Outputs[AgentKnowledge]; ok && out.Err == nil {
		return out.Assessment
	}
	return nil
}

// CustomerFindings returns findings safe to surface in the generation
// context, in stable agent order.
func (r *Report) CustomerFindings() []string {
	var findings []string
	for _, name := range []string{AgentKnowledge, AgentBooking, AgentPromotions, AgentProfile, AgentFeedback} {
		out, ok := r.Outputs[name]
		if !ok || out.Err != nil || out.DataClassification != ClassificationCustomer {
			continue
		}
		findings = append(findings, out.KeyFindings...)
	}
	return findings
}

// RiskFlags collects flags across all agents, internal ones included. A
// degraded agent contributes its flag too, so downstream consumers can see
// the turn ran on partial analytics.
func (r *Report) RiskFlags() []string {
	var flags []string
	for _, out := range r.Outputs {
		flags = append(flags, out.RiskFlags...)
	}
	return flags
}

// FanOut runs all agents in parallel, each under its own timeout.
type FanOut struct {
	agents   []Agent
	timeouts map[string]time.Duration
	fallback time.Duration
	logger   logger.ILogger
}

func NewFanOut(agents []Agent, timeouts map[string]time.Duration, fallback time.Duration, log logger.ILogger) *FanOut {
	return &FanOut{
		agents:   agents,
		timeouts: timeouts,
		fallback: fallback,
		logger:   log,
	}
}

func (f *FanOut) timeoutFor(name string) time.Duration {
	if d, ok := f.timeouts[name]; ok && d > 0 {
		return d
	}
	return f.fallback
}

// Run fans the input out to every agent and waits for all of them. The
// slowest agent bounds the wall time, never the sum.
func (f *FanOut) Run(ctx context.Context, input *Input) *Report {
	report := &Report{Outputs: make(map[string]*Output, len(f.agents))}

	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, agent := range f.agents {
		wg.Add(1)
		go func(a Agent) {
			defer wg.Done()
			out := f.runOne(ctx, a, input)
			mu.Lock()
			report.Outputs[a.Name()] = out
			mu.Unlock()
		}(agent)
	}

	wg.Wait()
	return report
}

func (f *FanOut) runOne(ctx context.Context, agent Agent, input *Input) *Output {
	started := time.Now()

	agentCtx, cancel := context.WithTimeout(ctx, f.timeoutFor(agent.Name()))
	defer cancel()

	type result struct {
		out *Output
		err error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.logger.Error("ANALYTICS", "agent panicked", map[string]interface{}{
					"agent": agent.Name(),
					"panic": r,
				})
				done <- result{err: fmt.Errorf("agent %s panicked", agent.Name())}
			}
		}()
		o, err := agent.Analyze(agentCtx, input)
		done <- result{out: o, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			f.logger.Warn("ANALYTICS", "agent failed", map[string]interface{}{
				"agent": agent.Name(),
				"error": res.err.Error(),
			})
			return degradedOutput(agent.Name(), res.err, started)
		}
		if res.out == nil {
			res.out = &Output{}
		}
		res.out.Agent = agent.Name()
		res.out.Elapsed = time.Since(started)
		return res.out
	case <-agentCtx.Done():
		f.logger.Warn("ANALYTICS", "agent timed out", map[string]interface{}{
			"agent":   agent.Name(),
			"timeout": f.timeoutFor(agent.Name()).String(),
		})
		return degradedOutput(agent.Name(), agentCtx.Err(), started)
	}
}

// degradedOutput stands in for an agent that failed or timed out. It always
// carries a risk flag: a turn answered on partial analytics must say so.
func degradedOutput(name string, err error, started time.Time) *Output {
	return &Output{
		Agent:              name,
		RiskFlags:          []string{name + " degraded"},
		DataClassification: ClassificationInternal,
		Err:                err,
		Elapsed:            time.Since(started),
	}
}
