package conversation

import (
	"time"
)

// Machine applies intent transitions to dialogue state. Update is pure with
// respect to its inputs: callers get a new State and decide whether to
// persist it.
type Machine struct {
	policy Policy
	now    func() time.Time
}

func NewMachine(policy Policy) *Machine {
	return &Machine{policy: policy, now: time.Now}
}

// WithClock overrides the machine clock. Tests use this to assert transition
// idempotence byte for byte.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Reset returns a fresh state. The only path out of waiting_admin.
func (m *Machine) Reset(raw string) State {
	next := NewState()
	next.pushMessage(raw)
	next.LastUpdated = m.now().UnixMilli()
	return next
}

// Update is the single state transform: (state, classified intent, raw
// message) -> next state. All invariants live here:
//   - waiting_admin is absorbing; only the ring buffer moves
//   - no-context intents mid-conversation touch nothing but the ring buffer
//   - slots carry forward; an intent change is never a topic change
//   - fixed-area services auto-fill their area
//   - stage resolution runs after slot merge and once more as a final pass,
//     so service+area can never both be set with a lagging stage
func (m *Machine) Update(s State, c Classified, raw string) State {
	next := s.Clone()
	next.pushMessage(raw)
	next.LastUpdated = m.now().UnixMilli()

	if s.Stage == StageWaitingAdmin {
		return next
	}

	if c.Intent == IntentReset {
		return m.Reset(raw)
	}

	if m.policy.NoContextIntents[c.Intent] && s.Stage != StageGreeting {
		return next
	}

	next.Intent = c.Intent

	// Slot merge: new explicit slots win, missing slots inherit
	if c.Service != "" {
		next.Service = c.Service
	}
	if c.Area != "" && m.policy.ValidAreas[c.Area] {
		next.Area = c.Area
	}

	// Fixed-area auto-fill; never overwrite an area the user already gave
	if area, ok := m.policy.FixedArea(next.Service); ok && next.Area == "" {
		next.Area = area
	}

	next.Tone = m.resolveTone(raw)

	next.Stage = m.resolveStage(next, c)
	// Final consistency pass. resolveStage is idempotent, so running it
	// again guarantees no path leaves slots ahead of the stage.
	next.Stage = m.resolveStage(next, c)

	return next
}

// resolveStage derives the stage from slots, with intent overrides for
// medical, handoff, postcare and booking flows.
func (m *Machine) resolveStage(s State, c Classified) string {
	switch c.Intent {
	case IntentMedicalConcern:
		return StageMedical
	case IntentHandoffRequest:
		return StageHandoff
	case IntentPostcare:
		return StagePostcare
	case IntentBookingRequest:
		if s.SlotsResolved() {
			return StageBooking
		}
	}

	switch {
	case s.Service == "" && s.Area == "":
		if s.Stage == StageGreeting && c.Intent == IntentGreeting {
			return StageGreeting
		}
		return StageExploring
	case s.Service != "" && s.Area == "":
		return StageServiceSelected
	case s.Service == "" && s.Area != "":
		return StageAreaSelected
	default:
		return StagePricing
	}
}

func (m *Machine) resolveTone(raw string) string {
	runes := len([]rune(raw))
	switch {
	case runes <= m.policy.ShortToneRunes:
		return ToneShort
	case runes >= m.policy.ExplainToneRunes:
		return ToneExplain
	default:
		return ToneMedium
	}
}
