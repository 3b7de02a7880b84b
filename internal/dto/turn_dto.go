package dto

import (
	"time"
)

type TurnRequest struct {
	Channel  string `json:"channel" validate:"omitempty,oneof=line web"`
	BranchId string `json:"branch_id" validate:"omitempty,uuid"`
	UserId   string `json:"user_id" validate:"required,max=128"`
	Message  string `json:"message" validate:"required,max=4000"`
}

type TurnResponse struct {
	CorrelationId string     `json:"correlation_id"`
	Reply         string     `json:"reply"`
	Stage         string     `json:"stage"`
	Intent        string     `json:"intent"`
	RetrievalMode string     `json:"retrieval_mode,omitempty"`
	GuardName     string     `json:"-"`
	GuardReason   string     `json:"-"`
	Cached        bool       `json:"cached,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	Diagnostics   *TurnDiags `json:"diagnostics,omitempty"`
}

// TurnDiags is only populated for authenticated staff requests that ask
// for it; customers never see it.
type TurnDiags struct {
	Confidence float64  `json:"confidence"`
	TokensIn   int      `json:"tokens_in"`
	TokensOut  int      `json:"tokens_out"`
	CostSatang int64    `json:"cost_satang"`
	LatencyMs  int64    `json:"latency_ms"`
	RiskFlags  []string `json:"risk_flags,omitempty"`
}

type ResetSessionRequest struct {
	Channel string `json:"channel" validate:"omitempty,oneof=line web"`
	UserId  string `json:"user_id" validate:"required,max=128"`
}

type BudgetSnapshotResponse struct {
	Day            string `json:"day"`
	SpentSatang    int64  `json:"spent_satang"`
	ReservedSatang int64  `json:"reserved_satang"`
	LimitSatang    int64  `json:"limit_satang"`
}
