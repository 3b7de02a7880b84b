package generation

import (
	"context"
	"fmt"

	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/pkg/llm"
)

// RoleManager performs the one model call a turn is allowed. Everything the
// model may say comes from the frozen context it receives.
type RoleManager struct {
	provider  llm.Provider
	maxTokens int
}

func NewRoleManager(provider llm.Provider, maxTokens int) *RoleManager {
	if maxTokens <= 0 {
		maxTokens = 512
	}
	return &RoleManager{
		provider:  provider,
		maxTokens: maxTokens,
	}
}

func (rm *RoleManager) ProviderName() string {
	return rm.provider.Name()
}

// Generate drafts the reply for one turn.
func (rm *RoleManager) Generate(ctx context.Context, frozen *Context, userMessage string) (*llm.Result, error) {
	history := []llm.Message{
		{Role: "system", Content: constant.RoleManagerSystemPromptV2 + "\n\n" + frozen.Render()},
		{Role: "user", Content: userMessage},
	}

	result, err := rm.provider.Chat(ctx, history,
		llm.WithTemperature(0.4),
		llm.WithMaxTokens(rm.maxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("role manager generation failed: %w", err)
	}
	return result, nil
}
