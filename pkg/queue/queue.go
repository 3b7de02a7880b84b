package queue

import "context"

// Queue moves generation jobs from the orchestrator to workers. Both the
// in-process and the NATS implementation satisfy it, so deployments choose
// at bootstrap without touching the services.
type Queue interface {
	Publish(ctx context.Context, job *GenerationJob) error
	Subscribe(ctx context.Context) (<-chan *GenerationJob, error)
	Close() error
}
