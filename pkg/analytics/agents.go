package analytics

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"clinic-assistant-be/internal/repository/specification"
	"clinic-assistant-be/pkg/conversation"
)

// BookingAgent watches for booking readiness: once both slots are resolved
// it recommends moving the customer toward a consultation slot.
type BookingAgent struct{}

func NewBookingAgent() *BookingAgent { return &BookingAgent{} }

func (a *BookingAgent) Name() string { return AgentBooking }

func (a *BookingAgent) Analyze(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{DataClassification: ClassificationCustomer}

	if input.State.SlotsResolved() {
		out.KeyFindings = append(out.KeyFindings,
			fmt.Sprintf("customer has settled on %s (%s) and can be offered a consultation slot", input.State.Service, input.State.Area))
		out.Recommendation = "offer a consultation booking"
	}
	if input.Classified.Intent == conversation.IntentBookingRequest && !input.State.SlotsResolved() {
		out.KeyFindings = append(out.KeyFindings, "customer asked to book before choosing a service")
		out.Recommendation = "confirm the service before booking"
	}
	return out, nil
}

// PromotionsAgent surfaces catalog context for the selected service so the
// reply layer can mention what the clinic actually offers.
type PromotionsAgent struct{}

func NewPromotionsAgent() *PromotionsAgent { return &PromotionsAgent{} }

func (a *PromotionsAgent) Name() string { return AgentPromotions }

func (a *PromotionsAgent) Analyze(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{DataClassification: ClassificationCustomer}

	if input.State.Service == "" || input.UOW == nil {
		return out, nil
	}

	svc, err := input.UOW.ClinicServiceRepository().FindOne(ctx,
		specification.ByOrganization{OrganizationID: input.OrganizationID},
		specification.ByServiceName{Name: input.State.Service},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load service catalog entry: %w", err)
	}
	if svc == nil {
		out.RiskFlags = append(out.RiskFlags, "selected service missing from catalog")
		return out, nil
	}

	out.KeyFindings = append(out.KeyFindings,
		fmt.Sprintf("catalog lists %s with duration %s", svc.Name, svc.Duration))
	if svc.Surgical {
		out.RiskFlags = append(out.RiskFlags, "surgical service requires consultation before quoting")
	}
	return out, nil
}

// ProfileAgent folds the stored customer memory into the turn.
type ProfileAgent struct{}

func NewProfileAgent() *ProfileAgent { return &ProfileAgent{} }

func (a *ProfileAgent) Name() string { return AgentProfile }

func (a *ProfileAgent) Analyze(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{DataClassification: ClassificationCustomer}

	if input.UOW == nil {
		return out, nil
	}

	profile, err := input.UOW.CustomerProfileRepository().FindByIdentity(ctx, input.OrganizationID, input.Channel, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load customer profile: %w", err)
	}
	if profile == nil {
		out.KeyFindings = append(out.KeyFindings, "first contact with this customer")
		return out, nil
	}

	if profile.Summary != "" {
		out.KeyFindings = append(out.KeyFindings, "returning customer: "+profile.Summary)
	}
	if style, ok := profile.Preferences["style"]; ok {
		out.KeyFindings = append(out.KeyFindings, "prefers "+style+" answers")
	}
	return out, nil
}

// FinanceAgent estimates turn economics. Its output is quarantined to the
// internal classification and never reaches the customer facing context.
type FinanceAgent struct {
	estimateSatangPer1K int64
}

func NewFinanceAgent(estimateSatangPer1K int64) *FinanceAgent {
	return &FinanceAgent{estimateSatangPer1K: estimateSatangPer1K}
}

func (a *FinanceAgent) Name() string { return AgentFinance }

func (a *FinanceAgent) Analyze(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{DataClassification: ClassificationInternal}

	runes := utf8.RuneCountInString(input.Message)
	estTokens := int64(runes/4) + 512
	estSatang := (estTokens*a.estimateSatangPer1K + 999) / 1000

	out.KeyFindings = append(out.KeyFindings,
		fmt.Sprintf("estimated turn cost %d satang", estSatang))
	if estSatang > a.estimateSatangPer1K {
		out.RiskFlags = append(out.RiskFlags, "unusually long input message")
	}
	return out, nil
}

// FeedbackAgent reads coarse sentiment so escalation patterns show up in
// the turn record.
type FeedbackAgent struct {
	negativeKeywords []string
}

func NewFeedbackAgent(negativeKeywords []string) *FeedbackAgent {
	return &FeedbackAgent{negativeKeywords: negativeKeywords}
}

func (a *FeedbackAgent) Name() string { return AgentFeedback }

func (a *FeedbackAgent) Analyze(ctx context.Context, input *Input) (*Output, error) {
	out := &Output{DataClassification: ClassificationCustomer}

	lower := strings.ToLower(input.Message)
	for _, kw := range a.negativeKeywords {
		if kw != "" && strings.Contains(lower, kw) {
			out.KeyFindings = append(out.KeyFindings, "customer sounds dissatisfied")
			out.RiskFlags = append(out.RiskFlags, "negative sentiment")
			out.Recommendation = "acknowledge the frustration before answering"
			break
		}
	}
	return out, nil
}
