package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	natsStreamName   = "GENERATION"
	natsSubject      = "generation.jobs"
	natsDurableName  = "generation-workers"
	natsMaxDeliver   = 3
	natsAckWait      = 30 * time.Second
	natsConnectRetry = 2 * time.Second
)

// NatsQueue is the cross-process queue. JetStream work-queue retention
// gives each job to exactly one worker; unacked jobs are redelivered.
type NatsQueue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

func NewNatsQueue(url string) (*NatsQueue, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(natsConnectRetry),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      natsStreamName,
		Subjects:  []string{natsSubject},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	})
	if err != nil {
		log.Printf("Warn: Failed to ensure stream %q: %v", natsStreamName, err)
		// NATS may not be ready yet or the stream already exists.
	}

	return &NatsQueue{nc: nc, js: js}, nil
}

func (q *NatsQueue) Publish(ctx context.Context, job *GenerationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal generation job: %w", err)
	}
	if _, err := q.js.Publish(ctx, natsSubject, payload); err != nil {
		return fmt.Errorf("failed to publish generation job: %w", err)
	}
	return nil
}

func (q *NatsQueue) Subscribe(ctx context.Context) (<-chan *GenerationJob, error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, natsStreamName, jetstream.ConsumerConfig{
		Durable:       natsDurableName,
		FilterSubject: natsSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       natsAckWait,
		MaxDeliver:    natsMaxDeliver,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer: %w", err)
	}

	jobs := make(chan *GenerationJob)

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var job GenerationJob
		if err := json.Unmarshal(msg.Data(), &job); err != nil {
			log.Printf("Error unmarshalling generation job: %v", err)
			msg.Term()
			return
		}
		select {
		case jobs <- &job:
			msg.Ack()
		case <-ctx.Done():
			msg.Nak()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		<-ctx.Done()
		cc.Stop()
		close(jobs)
	}()

	return jobs, nil
}

func (q *NatsQueue) Close() error {
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
