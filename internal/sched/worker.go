package sched

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Sink delivers the final text to a chat. The Telegram client implements it.
type Sink interface {
	Send(chatID int64, text string) error
}

const sinkRetryDelay = 2 * time.Second

// Dispatcher executes dispatch tasks: it checks the durable job record,
// sends the message, and marks completion.
type Dispatcher struct {
	store Store
	sink  Sink
	sleep func(time.Duration)
}

func NewDispatcher(store Store, sink Sink) *Dispatcher {
	return &Dispatcher{store: store, sink: sink, sleep: time.Sleep}
}

// HandleDispatch processes one trigger firing.
//
// A missing or malformed payload means a corrupted write, not a transient
// fault: the task is dropped without retry. A sink transport failure gets
// one retry after a short delay before the job is marked failed.
func (d *Dispatcher) HandleDispatch(ctx context.Context, t *asynq.Task) error {
	var payload DispatchPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		slog.Error("malformed dispatch payload", "error", err)
		return fmt.Errorf("malformed dispatch payload: %v: %w", err, asynq.SkipRetry)
	}

	job, err := d.store.Get(ctx, payload.JobKey)
	if err != nil {
		slog.Error("dispatch task has no job record", "job_key", payload.JobKey, "error", err)
		return fmt.Errorf("no job record for %s: %v: %w", payload.JobKey, err, asynq.SkipRetry)
	}

	switch job.Status {
	case StatusCompleted:
		slog.Info("job already completed, skipping", "job_key", job.JobKey)
		return nil
	case StatusCancelled:
		slog.Info("job cancelled, skipping", "job_key", job.JobKey)
		return nil
	}

	if job.ChatID == 0 || job.Label == "" {
		slog.Error("job record missing required fields", "job_key", job.JobKey)
		if err := d.store.MarkFailed(ctx, job.JobKey); err != nil {
			slog.Error("failed to mark job failed", "job_key", job.JobKey, "error", err)
		}
		return fmt.Errorf("job %s missing required fields: %w", job.JobKey, asynq.SkipRetry)
	}

	text := fmt.Sprintf("Уведомление:\n%s\n%s", job.Label, job.Description)

	if err := d.sendWithRetry(job.ChatID, text); err != nil {
		slog.Error("delivery failed", "job_key", job.JobKey, "chat_id", job.ChatID, "error", err)
		if markErr := d.store.MarkFailed(ctx, job.JobKey); markErr != nil {
			slog.Error("failed to mark job failed", "job_key", job.JobKey, "error", markErr)
		}
		return fmt.Errorf("delivery for %s failed: %v: %w", job.JobKey, err, asynq.SkipRetry)
	}

	if err := d.store.MarkCompleted(ctx, job.JobKey, time.Now().UTC()); err != nil {
		// The message went out; failing the task now would re-send it on
		// retry. Log and report success.
		slog.Error("failed to mark job completed", "job_key", job.JobKey, "error", err)
		return nil
	}

	slog.Info("notification dispatched", "job_key", job.JobKey, "chat_id", job.ChatID)
	return nil
}

func (d *Dispatcher) sendWithRetry(chatID int64, text string) error {
	err := d.sink.Send(chatID, text)
	if err == nil {
		return nil
	}
	d.sleep(sinkRetryDelay)
	if retryErr := d.sink.Send(chatID, text); retryErr != nil {
		return errors.Join(err, retryErr)
	}
	return nil
}

// Worker runs the asynq server consuming the notifications queue.
type Worker struct {
	server     *asynq.Server
	dispatcher *Dispatcher
}

func NewWorker(redisAddr string, dispatcher *Dispatcher) *Worker {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: redisAddr},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueNotifications: 10,
			},
		},
	)
	return &Worker{server: server, dispatcher: dispatcher}
}

func (w *Worker) Start(ctx context.Context) error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeDispatch, w.dispatcher.HandleDispatch)

	slog.Info("Starting worker", "queue", QueueNotifications, "concurrency", 10)

	if err := w.server.Start(mux); err != nil {
		return err
	}

	<-ctx.Done()

	w.server.Shutdown()
	slog.Info("Worker stopped")
	return nil
}
