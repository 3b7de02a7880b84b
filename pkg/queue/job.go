package queue

import (
	"time"

	"clinic-assistant-be/pkg/generation"

	"github.com/google/uuid"
)

// TopicGenerationJobs carries queued generation work.
const TopicGenerationJobs = "generation.jobs"

// GenerationJob is one unit of model work. The frozen context travels with
// the job so the worker needs no session access to render the prompt.
type GenerationJob struct {
	ID             string              `json:"id"`
	CorrelationID  string              `json:"correlation_id"`
	OrganizationID uuid.UUID           `json:"organization_id"`
	Channel        string              `json:"channel"`
	UserID         string              `json:"user_id"`
	Message        string              `json:"message"`
	Context        *generation.Context `json:"context"`
	Attempt        int                 `json:"attempt"`
	EnqueuedAt     time.Time           `json:"enqueued_at"`
}

func NewGenerationJob(correlationID string, organizationID uuid.UUID, channel, userID, message string, frozen *generation.Context) *GenerationJob {
	return &GenerationJob{
		ID:             uuid.NewString(),
		CorrelationID:  correlationID,
		OrganizationID: organizationID,
		Channel:        channel,
		UserID:         userID,
		Message:        message,
		Context:        frozen,
		Attempt:        1,
		EnqueuedAt:     time.Now(),
	}
}

// GenerationResult is what the worker publishes back for one job.
type GenerationResult struct {
	JobID       string    `json:"job_id"`
	Reply       string    `json:"reply"`
	TokensIn    int       `json:"tokens_in"`
	TokensOut   int       `json:"tokens_out"`
	Error       string    `json:"error,omitempty"`
	CompletedAt time.Time `json:"completed_at"`
}

func (r *GenerationResult) Failed() bool {
	return r.Error != ""
}
