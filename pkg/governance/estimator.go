package governance

import (
	"log"

	"github.com/pkoukk/tiktoken-go"
)

// CostEstimator converts prompts and usage into satang. The reservation side
// is a deliberate upper bound; reconciliation replaces it with actuals.
type CostEstimator struct {
	enc          *tiktoken.Tiktoken
	satangPer1K  int64
	maxOutputTok int
}

func NewCostEstimator(satangPer1K int64, maxOutputTokens int) *CostEstimator {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Fall back to the rune heuristic; estimation stays an upper bound
		log.Printf("[COST] tiktoken unavailable, using heuristic: %v", err)
		enc = nil
	}
	if maxOutputTokens <= 0 {
		maxOutputTokens = 512
	}
	return &CostEstimator{enc: enc, satangPer1K: satangPer1K, maxOutputTok: maxOutputTokens}
}

func (e *CostEstimator) countTokens(text string) int {
	if e.enc != nil {
		return len(e.enc.Encode(text, nil, nil))
	}
	// ~4 chars per token, rounded up
	return (len([]rune(text)) + 3) / 4
}

// EstimateSatang returns the optimistic upper-bound cost for one call:
// prompt tokens plus the full output budget.
func (e *CostEstimator) EstimateSatang(prompt string) int64 {
	tokens := e.countTokens(prompt) + e.maxOutputTok
	return e.tokensToSatang(int64(tokens))
}

// ActualSatang prices the reported usage after the call.
func (e *CostEstimator) ActualSatang(tokensIn, tokensOut int) int64 {
	return e.tokensToSatang(int64(tokensIn + tokensOut))
}

func (e *CostEstimator) tokensToSatang(tokens int64) int64 {
	satang := (tokens*e.satangPer1K + 999) / 1000 // round up
	if satang < 1 {
		satang = 1
	}
	return satang
}
