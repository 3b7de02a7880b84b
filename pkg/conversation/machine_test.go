package conversation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock() func() time.Time {
	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestUpdateCarriesSlotsForward(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	// "interested in a nose job"
	s := NewState()
	s = m.Update(s, Classified{Intent: IntentServiceInquiry, Service: "rhinoplasty"}, "interested in a nose job")

	assert.Equal(t, "rhinoplasty", s.Service)
	assert.Equal(t, "nose", s.Area, "fixed-area service must auto-fill its area")
	assert.Equal(t, StagePricing, s.Stage, "both slots resolved means pricing")

	// A follow-up price question must not wipe the topic
	s = m.Update(s, Classified{Intent: IntentPriceInquiry}, "how much is it?")

	assert.Equal(t, "rhinoplasty", s.Service, "slot must carry forward across intents")
	assert.Equal(t, "nose", s.Area)
	assert.Equal(t, IntentPriceInquiry, s.Intent)
	assert.Equal(t, StagePricing, s.Stage)
}

func TestUpdateStageDerivation(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	tests := []struct {
		name      string
		classify  Classified
		wantStage string
	}{
		{"service only", Classified{Intent: IntentServiceInquiry, Service: "botox"}, StageServiceSelected},
		{"area only", Classified{Intent: IntentServiceInquiry, Area: "face"}, StageAreaSelected},
		{"neither", Classified{Intent: IntentPriceInquiry}, StageExploring},
		{"medical override", Classified{Intent: IntentMedicalConcern}, StageMedical},
		{"handoff override", Classified{Intent: IntentHandoffRequest}, StageHandoff},
		{"postcare override", Classified{Intent: IntentPostcare}, StagePostcare},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := m.Update(NewState(), tt.classify, "msg")
			assert.Equal(t, tt.wantStage, next.Stage)
		})
	}
}

func TestUpdateBookingNeedsResolvedSlots(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	// Booking with no slots falls back to exploring
	s := m.Update(NewState(), Classified{Intent: IntentBookingRequest}, "book me in")
	assert.Equal(t, StageExploring, s.Stage)

	// Booking with both slots moves to booking
	s = m.Update(NewState(), Classified{Intent: IntentServiceInquiry, Service: "botox", Area: "face"}, "botox on my face")
	s = m.Update(s, Classified{Intent: IntentBookingRequest}, "book me in")
	assert.Equal(t, StageBooking, s.Stage)
}

func TestWaitingAdminIsAbsorbing(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	s := NewState()
	s.Stage = StageWaitingAdmin
	s.Service = "rhinoplasty"
	s.Area = "nose"
	s.Intent = IntentHandoffRequest

	next := m.Update(s, Classified{Intent: IntentServiceInquiry, Service: "botox"}, "actually about botox")

	assert.Equal(t, StageWaitingAdmin, next.Stage)
	assert.Equal(t, "rhinoplasty", next.Service, "absorbing stage must not take new slots")
	assert.Equal(t, IntentHandoffRequest, next.Intent)
	assert.Contains(t, next.RecentMessages, "actually about botox", "ring buffer still moves")
}

func TestResetEscapesWaitingAdmin(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	s := NewState()
	s.Stage = StageWaitingAdmin

	// waiting_admin swallows everything, including reset intents routed
	// through Update; the orchestrator calls Reset directly.
	next := m.Reset("start over")
	assert.Equal(t, StageGreeting, next.Stage)
	assert.Empty(t, next.Service)
	assert.Empty(t, next.Area)
}

func TestUpdateResetIntentClearsState(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	s := m.Update(NewState(), Classified{Intent: IntentServiceInquiry, Service: "botox", Area: "face"}, "botox face")
	assert.Equal(t, StagePricing, s.Stage)

	next := m.Update(s, Classified{Intent: IntentReset}, "start over")
	assert.Equal(t, StageGreeting, next.Stage)
	assert.Empty(t, next.Service)
	assert.Empty(t, next.Area)
}

func TestUpdateNoContextIntentsPreserveState(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	s := m.Update(NewState(), Classified{Intent: IntentServiceInquiry, Service: "botox", Area: "face"}, "botox face")

	next := m.Update(s, Classified{Intent: IntentChitchat}, "haha thanks")
	assert.Equal(t, s.Stage, next.Stage)
	assert.Equal(t, s.Service, next.Service)
	assert.Equal(t, s.Intent, next.Intent, "chitchat mid-conversation must not shift intent")
}

func TestUpdateIsIdempotentUnderFixedClock(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	base := m.Update(NewState(), Classified{Intent: IntentServiceInquiry, Service: "rhinoplasty"}, "nose job please")

	once := m.Update(base, Classified{Intent: IntentPriceInquiry}, "price?")
	twice := m.Update(m.Update(base, Classified{Intent: IntentPriceInquiry}, "price?"), Classified{Intent: IntentPriceInquiry}, "price?")

	assert.Equal(t, once.Stage, twice.Stage)
	assert.Equal(t, once.Service, twice.Service)
	assert.Equal(t, once.Area, twice.Area)
	assert.Equal(t, once.Intent, twice.Intent)
}

func TestUpdateUserAreaBeatsFixedArea(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	s := m.Update(NewState(), Classified{Intent: IntentServiceInquiry, Area: "face"}, "something for my face")
	s = m.Update(s, Classified{Intent: IntentServiceInquiry, Service: "rhinoplasty"}, "a nose job maybe")

	// The user already gave an area; the fixed-area fill must not overwrite it.
	assert.Equal(t, "face", s.Area)
}

func TestUpdateRingBufferIsBounded(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	s := NewState()
	for i := 0; i < 10; i++ {
		s = m.Update(s, Classified{Intent: IntentPriceInquiry}, "message")
	}
	assert.Len(t, s.RecentMessages, recentMessageLimit)
}

func TestResolveTone(t *testing.T) {
	m := NewMachine(DefaultPolicy()).WithClock(fixedClock())

	short := m.Update(NewState(), Classified{Intent: IntentPriceInquiry}, "price?")
	assert.Equal(t, ToneShort, short.Tone)

	long := m.Update(NewState(), Classified{Intent: IntentPriceInquiry},
		"I have been thinking about this for a long time and I would like to understand every detail about the procedure, recovery and of course the pricing")
	assert.Equal(t, ToneExplain, long.Tone)
}
