package generation

import (
	"context"
	"strings"
	"time"

	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/internal/pkg/logger"
	"clinic-assistant-be/pkg/llm"
)

// Judge is an advisory second opinion on a drafted reply. It is fail-open:
// when disabled, unreachable, or slow, the draft passes.
type Judge struct {
	provider llm.Provider
	enabled  bool
	timeout  time.Duration
	logger   logger.ILogger
}

func NewJudge(provider llm.Provider, enabled bool, timeout time.Duration, log logger.ILogger) *Judge {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Judge{
		provider: provider,
		enabled:  enabled,
		timeout:  timeout,
		logger:   log,
	}
}

// Review returns false only on an explicit UNSAFE verdict.
func (j *Judge) Review(ctx context.Context, frozen *Context, draft string) bool {
	if !j.enabled || j.provider == nil {
		return true
	}

	judgeCtx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	prompt := constant.JudgeSystemPromptV1 + "\n\n" + frozen.Render() + "\nDRAFT REPLY:\n" + draft

	result, err := j.provider.Generate(judgeCtx, prompt,
		llm.WithTemperature(0),
		llm.WithMaxTokens(8),
	)
	if err != nil {
		j.logger.Warn("JUDGE", "judge unavailable, passing draft", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}

	verdict := strings.ToUpper(strings.TrimSpace(result.Text))
	if strings.HasPrefix(verdict, "UNSAFE") {
		j.logger.Warn("JUDGE", "draft flagged unsafe", nil)
		return false
	}
	return true
}
