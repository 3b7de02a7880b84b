package conversation

// Dialogue stages. Ordering matters for "pricing or later" checks.
const (
	StageGreeting        = "greeting"
	StageExploring       = "exploring"
	StageServiceSelected = "service_selected"
	StageAreaSelected    = "area_selected"
	StagePricing         = "pricing"
	StageBooking         = "booking"
	StagePostcare        = "postcare"
	StageMedical         = "medical"
	StageHandoff         = "handoff"
	StageWaitingAdmin    = "waiting_admin"
)

// Classified intents. Anything outside this vocabulary degrades to chitchat.
const (
	IntentGreeting       = "greeting"
	IntentChitchat       = "chitchat"
	IntentServiceInquiry = "service_inquiry"
	IntentPriceInquiry   = "price_inquiry"
	IntentBookingRequest = "booking_request"
	IntentPostcare       = "postcare"
	IntentMedicalConcern = "medical_concern"
	IntentHandoffRequest = "handoff_request"
	IntentPreferenceTune = "preference_tune"
	IntentReset          = "reset"
)

// Reply tones
const (
	ToneShort   = "short"
	ToneMedium  = "medium"
	ToneExplain = "explain"
)

const recentMessageLimit = 5

// State is the per (org, channel, user) dialogue state. It is owned by the
// session store and mutated only through Machine.Update.
type State struct {
	Stage          string            `json:"stage"`
	Intent         string            `json:"intent"`
	Service        string            `json:"service,omitempty"`
	Area           string            `json:"area,omitempty"`
	Preference     map[string]string `json:"preference,omitempty"`
	Tone           string            `json:"tone"`
	RecentMessages []string          `json:"recent_messages"`
	LastUpdated    int64             `json:"last_updated"` // epoch ms
}

// NewState returns the default state for a first-contact user.
func NewState() State {
	return State{
		Stage:      StageGreeting,
		Intent:     IntentGreeting,
		Tone:       ToneMedium,
		Preference: map[string]string{},
	}
}

// Clone returns a deep copy so transition functions stay pure.
func (s State) Clone() State {
	next := s
	next.Preference = make(map[string]string, len(s.Preference))
	for k, v := range s.Preference {
		next.Preference[k] = v
	}
	next.RecentMessages = append([]string(nil), s.RecentMessages...)
	return next
}

// SlotsResolved reports whether both dialogue slots are filled.
func (s State) SlotsResolved() bool {
	return s.Service != "" && s.Area != ""
}

// PastExploring reports whether the stage is pricing or any later stage.
func (s State) PastExploring() bool {
	switch s.Stage {
	case StagePricing, StageBooking, StagePostcare, StageMedical, StageHandoff, StageWaitingAdmin:
		return true
	}
	return false
}

func (s *State) pushMessage(raw string) {
	s.RecentMessages = append(s.RecentMessages, raw)
	if len(s.RecentMessages) > recentMessageLimit {
		s.RecentMessages = s.RecentMessages[len(s.RecentMessages)-recentMessageLimit:]
	}
}

// ValidIntents is the closed vocabulary used by the strict NLU parser.
var ValidIntents = map[string]bool{
	IntentGreeting:       true,
	IntentChitchat:       true,
	IntentServiceInquiry: true,
	IntentPriceInquiry:   true,
	IntentBookingRequest: true,
	IntentPostcare:       true,
	IntentMedicalConcern: true,
	IntentHandoffRequest: true,
	IntentPreferenceTune: true,
	IntentReset:          true,
}
