package cron

import (
	"context"
	"fmt"
	"log"
	"time"

	"roomkeeper/config"
	"roomkeeper/services/booking"
	"roomkeeper/services/tasks"

	"github.com/hibiken/asynq"
)

// Worker runs the maintenance queue and the scheduler that feeds it.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
}

// RedisOpt is the asynq connection shared by the worker and the event publisher.
func RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// InitNoShowWorker starts the periodic no-show sweep in the background.
func InitNoShowWorker(svc booking.ReservationService) (*Worker, error) {
	redisOpts := RedisOpt()

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				tasks.QueueMaintenance: 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeNoShowSweep, handleNoShowSweep(svc))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{Location: time.UTC})
	task, opts := tasks.NewNoShowSweepTask()
	if _, err := scheduler.Register(config.AppConfig.NoShowSweepSpec, task, opts...); err != nil {
		return nil, fmt.Errorf("register no-show sweep %q: %w", config.AppConfig.NoShowSweepSpec, err)
	}

	log.Println("[NoShowWorker] Starting async worker...")
	const maxAttempts = 5
	for attempts := 1; ; attempts++ {
		err := srv.Start(mux)
		if err == nil {
			break
		}
		log.Printf("[NoShowWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)
		if attempts == maxAttempts {
			return nil, fmt.Errorf("start no-show worker: %w", err)
		}
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}

	if err := scheduler.Start(); err != nil {
		srv.Shutdown()
		return nil, fmt.Errorf("start no-show scheduler: %w", err)
	}
	return &Worker{srv: srv, scheduler: scheduler}, nil
}

// Shutdown stops scheduling and waits for an in-flight sweep to finish.
func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

func handleNoShowSweep(svc booking.ReservationService) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		marked, err := svc.SweepNoShows(ctx, time.Now())
		if err != nil {
			log.Printf("[NoShowHandler] Sweep finished with errors after marking %d: %v", marked, err)
			return err
		}
		log.Printf("[NoShowHandler] Marked %d reservations as no-show", marked)
		return nil
	}
}
