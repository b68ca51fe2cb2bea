package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"roomkeeper/models"

	"github.com/hibiken/asynq"
)

const (
	TypeEngineEvent  = "reservation:event"
	TypeNoShowSweep  = "reservation:no_show_sweep"
	QueueEvents      = "events"
	QueueMaintenance = "maintenance"
)

// NewEngineEventTask wraps a committed change for downstream consumers.
func NewEngineEventTask(event models.EngineEvent) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(event)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeEngineEvent, b)
	opts := []asynq.Option{
		asynq.Queue(QueueEvents),
		asynq.MaxRetry(10),
		asynq.Retention(24 * time.Hour),
	}
	return task, opts, nil
}

// NewNoShowSweepTask builds the periodic no-show sweep. Unique keeps overlapping
// schedules from queueing the sweep twice.
func NewNoShowSweepTask() (*asynq.Task, []asynq.Option) {
	task := asynq.NewTask(TypeNoShowSweep, nil)
	opts := []asynq.Option{
		asynq.Queue(QueueMaintenance),
		asynq.MaxRetry(1),
		asynq.Unique(10 * time.Minute),
	}
	return task, opts
}

// AsynqPublisher enqueues engine events on the events queue.
type AsynqPublisher struct {
	Client *asynq.Client
}

// NewAsynqPublisher returns a publisher bound to client.
func NewAsynqPublisher(client *asynq.Client) *AsynqPublisher {
	return &AsynqPublisher{Client: client}
}

func (p *AsynqPublisher) Publish(ctx context.Context, event models.EngineEvent) error {
	task, opts, err := NewEngineEventTask(event)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event.Kind, err)
	}
	if _, err := p.Client.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue %s event: %w", event.Kind, err)
	}
	return nil
}
