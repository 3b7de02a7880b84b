package guard

import (
	"regexp"
	"strings"

	"clinic-assistant-be/pkg/conversation"
)

// pricePattern matches amounts a customer would read as a quote: currency
// symbols, "baht"/"THB" suffixes, or formatted numbers above chat noise.
var pricePattern = regexp.MustCompile(`(?i)(฿\s*\d[\d,]*|\d[\d,]*\s*(?:baht|thb)|\b\d{1,3}(?:,\d{3})+\b)`)

// areaQuestionPattern catches the bot re-asking for a treatment area.
var areaQuestionPattern = regexp.MustCompile(`(?i)(which|what)\s+(area|part|zone)`)

// OutputGuard runs over the produced reply text, whether it came from a
// template or from the model. It is the last deterministic gate before the
// customer sees anything.
type OutputGuard struct {
	policy Policy
}

func NewOutputGuard(policy Policy) *OutputGuard {
	return &OutputGuard{policy: policy}
}

// Check returns ReasonNone when the reply is allowed for the given state.
func (g *OutputGuard) Check(s conversation.State, reply string) Reason {
	lower := strings.ToLower(reply)

	// Forbidden internal tokens leaking to the user
	for _, token := range g.policy.ForbiddenTokens {
		if containsWord(lower, strings.ToLower(token)) {
			return ReasonIllegalText
		}
	}

	if pricePattern.MatchString(reply) {
		if s.Service == "" {
			return ReasonPriceWithoutService
		}
		if s.Area == "" {
			return ReasonPriceWithoutArea
		}
		// Pricing content before the conversation reached pricing
		if !s.PastExploring() {
			return ReasonStageMismatch
		}
	}

	// Never re-ask a question the state already answers
	if s.Area != "" && areaQuestionPattern.MatchString(reply) {
		return ReasonAskAreaAgain
	}

	return ReasonNone
}

// containsWord matches token as a standalone word so "unknown" does not flag
// a legitimate "well-known".
func containsWord(haystack, token string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], token)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(token)
		beforeOK := start == 0 || !isWordByte(haystack[start-1])
		afterOK := end == len(haystack) || !isWordByte(haystack[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}
