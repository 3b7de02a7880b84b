package analytics

import (
	"context"
	"fmt"

	"clinic-assistant-be/pkg/retrieval"
)

// KnowledgeAgent runs the vector search and grades retrieval confidence.
// Its assessment decides the response mode for the whole turn, so it gets
// the longest timeout of the fan-out.
type KnowledgeAgent struct {
	searcher *retrieval.Searcher
	config   retrieval.Config
}

func NewKnowledgeAgent(searcher *retrieval.Searcher, config retrieval.Config) *KnowledgeAgent {
	return &KnowledgeAgent{
		searcher: searcher,
		config:   config,
	}
}

func (a *KnowledgeAgent) Name() string { return AgentKnowledge }

func (a *KnowledgeAgent) Analyze(ctx context.Context, input *Input) (*Output, error) {
	if input.UOW == nil {
		return nil, fmt.Errorf("knowledge agent requires a unit of work")
	}

	assessment, err := a.searcher.Execute(ctx, input.UOW, input.OrganizationID, input.Message, a.config)
	if err != nil {
		return nil, fmt.Errorf("knowledge retrieval failed: %w", err)
	}

	out := &Output{
		DataClassification: ClassificationCustomer,
		Assessment:         assessment,
	}
	out.KeyFindings = append(out.KeyFindings,
		fmt.Sprintf("retrieval matched %d knowledge items (%s mode)", len(assessment.Hits), assessment.Mode))
	if assessment.Mode == retrieval.ModeRestricted {
		out.RiskFlags = append(out.RiskFlags, "restricted mode: quote stored values only")
	}
	return out, nil
}
