package guard

import (
	"strings"

	"clinic-assistant-be/internal/constant"
	"clinic-assistant-be/pkg/conversation"
	"clinic-assistant-be/pkg/retrieval"
)

// DuplicateIntentGuard short-circuits when the turn carries the exact same
// (intent, service, area) as the previous one, or literally repeats the last
// message while both slots are resolved. The user gets a short
// acknowledgement, never the same question twice.
type DuplicateIntentGuard struct{}

func (g *DuplicateIntentGuard) Name() string { return "duplicate_intent" }

func (g *DuplicateIntentGuard) Evaluate(in Input) Verdict {
	s := in.Prev
	if s.Stage == conversation.StageGreeting {
		return pass()
	}

	sameIntent := in.Classified.Intent == s.Intent &&
		(in.Classified.Service == "" || in.Classified.Service == s.Service) &&
		(in.Classified.Area == "" || in.Classified.Area == s.Area)

	repeatedMessage := false
	if n := len(s.RecentMessages); n > 0 {
		repeatedMessage = strings.EqualFold(strings.TrimSpace(s.RecentMessages[n-1]), strings.TrimSpace(in.Message))
	}

	if (sameIntent && s.SlotsResolved()) || (repeatedMessage && s.SlotsResolved()) {
		return block(g.Name(), constant.ReplyAcknowledge)
	}
	return pass()
}

// StickinessGuard catches messages that add no slot information while the
// conversation already knows service and area. Replies with a human-style
// filler; state stays put.
type StickinessGuard struct {
	Policy Policy
}

func (g *StickinessGuard) Name() string { return "state_stickiness" }

func (g *StickinessGuard) Evaluate(in Input) Verdict {
	s := in.Prev
	if !s.SlotsResolved() {
		return pass()
	}
	if in.Classified.Service != "" || in.Classified.Area != "" {
		return pass()
	}
	// Informational intents still deserve a real answer
	switch in.Classified.Intent {
	case conversation.IntentPriceInquiry, conversation.IntentBookingRequest,
		conversation.IntentMedicalConcern, conversation.IntentPostcare,
		conversation.IntentHandoffRequest, conversation.IntentReset:
		return pass()
	}

	if len([]rune(in.Message)) <= g.Policy.ShortMessageRunes && containsAny(in.Message, g.Policy.ChitchatKeywords) {
		return block(g.Name(), constant.ReplyFiller)
	}
	return pass()
}

// PreferenceGuard merges short stylistic follow-ups ("more natural", "less
// dramatic") into the preference map. It must NOT re-run classification or
// clear any slot; it only emits a delta for the orchestrator to merge.
type PreferenceGuard struct {
	Policy Policy
}

func (g *PreferenceGuard) Name() string { return "preference_refinement" }

func (g *PreferenceGuard) Evaluate(in Input) Verdict {
	if !in.Prev.SlotsResolved() {
		return pass()
	}
	if len([]rune(in.Message)) > g.Policy.ShortMessageRunes*2 {
		return pass()
	}

	lower := strings.ToLower(in.Message)
	for _, kw := range g.Policy.RefinementKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			v := block(g.Name(), constant.ReplyPreferenceNoted)
			v.PreferenceDelta = map[string]string{"style": strings.TrimSpace(lower)}
			return v
		}
	}
	return pass()
}

// KnowledgeReadinessGuard blocks generation whenever retrieval abstains,
// resolved service or not. The model never improvises over a weak knowledge
// base. Intents routed to a human (or a reset) pass: those paths never
// reach the model anyway.
type KnowledgeReadinessGuard struct{}

func (g *KnowledgeReadinessGuard) Name() string { return "knowledge_readiness" }

func (g *KnowledgeReadinessGuard) Evaluate(in Input) Verdict {
	if in.RetrievalMode != retrieval.ModeAbstain {
		return pass()
	}
	switch in.Classified.Intent {
	case conversation.IntentMedicalConcern, conversation.IntentHandoffRequest, conversation.IntentReset:
		return pass()
	}
	if in.Prev.Service == "" && in.Classified.Service == "" {
		switch in.Classified.Intent {
		case conversation.IntentGreeting, conversation.IntentChitchat:
			// Small talk needs no knowledge base; greet instead of
			// deferring to staff.
			return block(g.Name(), constant.ReplyGreeting)
		}
	}
	return block(g.Name(), constant.ReplyKnowledgeFallback)
}

// SurgicalFlowGuard enforces the consultation-first pricing lock: surgical
// categories never disclose pricing before the booking stage, regardless of
// what the model would say.
type SurgicalFlowGuard struct {
	ConversationPolicy conversation.Policy
}

func (g *SurgicalFlowGuard) Name() string { return "surgical_flow_lock" }

func (g *SurgicalFlowGuard) Evaluate(in Input) Verdict {
	service := in.Classified.Service
	if service == "" {
		service = in.Prev.Service
	}
	if service == "" || !g.ConversationPolicy.IsSurgical(service) {
		return pass()
	}
	if in.Classified.Intent != conversation.IntentPriceInquiry {
		return pass()
	}
	switch in.Prev.Stage {
	case conversation.StageBooking, conversation.StageWaitingAdmin:
		return pass()
	}
	return block(g.Name(), constant.ReplyConsultFirst)
}

func containsAny(message string, keywords []string) bool {
	lower := strings.ToLower(message)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
