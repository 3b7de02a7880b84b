package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// WatermillQueue is the in-process queue. Jobs published here are only
// visible to workers in the same process, which is exactly what the
// single-binary deployment runs.
type WatermillQueue struct {
	pubSub *gochannel.GoChannel
}

func NewWatermillQueue() *WatermillQueue {
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 64,
		},
		watermillLogger,
	)
	return &WatermillQueue{pubSub: pubSub}
}

func (q *WatermillQueue) Publish(ctx context.Context, job *GenerationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal generation job: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	return q.pubSub.Publish(TopicGenerationJobs, msg)
}

func (q *WatermillQueue) Subscribe(ctx context.Context) (<-chan *GenerationJob, error) {
	messages, err := q.pubSub.Subscribe(ctx, TopicGenerationJobs)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to %s: %w", TopicGenerationJobs, err)
	}

	jobs := make(chan *GenerationJob)
	go func() {
		defer close(jobs)
		for msg := range messages {
			var job GenerationJob
			if err := json.Unmarshal(msg.Payload, &job); err != nil {
				// Malformed payloads are dropped; retrying cannot fix them.
				msg.Ack()
				continue
			}
			msg.Ack()
			select {
			case jobs <- &job:
			case <-ctx.Done():
				return
			}
		}
	}()
	return jobs, nil
}

func (q *WatermillQueue) Close() error {
	return q.pubSub.Close()
}
