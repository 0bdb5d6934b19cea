package sched

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// TaskChecker reports whether a live queue task exists for a job key.
// *Queue implements it.
type TaskChecker interface {
	HasDispatch(jobKey string) (bool, error)
}

const reconcileBatch = 500

// Reconciler re-arms scheduled job rows whose queue task has gone missing
// (a flushed Redis, a crash between row write and enqueue). Past-due jobs
// re-armed this way fire immediately.
type Reconciler struct {
	store   Store
	queue   Enqueuer
	checker TaskChecker
	cron    *cron.Cron
}

func NewReconciler(store Store, queue Enqueuer, checker TaskChecker) *Reconciler {
	return &Reconciler{
		store:   store,
		queue:   queue,
		checker: checker,
		cron:    cron.New(),
	}
}

// Start runs one sweep immediately, then every minute until ctx is done.
func (r *Reconciler) Start(ctx context.Context) error {
	r.Sweep(ctx)

	if _, err := r.cron.AddFunc("* * * * *", func() { r.Sweep(context.Background()) }); err != nil {
		return err
	}
	r.cron.Start()

	go func() {
		<-ctx.Done()
		<-r.cron.Stop().Done()
	}()
	return nil
}

// Sweep walks not-yet-fired jobs and re-enqueues any without a live task.
func (r *Reconciler) Sweep(ctx context.Context) {
	jobs, err := r.store.ListScheduled(ctx, reconcileBatch)
	if err != nil {
		slog.Error("reconcile sweep failed to list jobs", "error", err)
		return
	}

	rearmed := 0
	for _, job := range jobs {
		alive, err := r.checker.HasDispatch(job.JobKey)
		if err != nil {
			slog.Error("reconcile check failed", "job_key", job.JobKey, "error", err)
			continue
		}
		if alive {
			continue
		}

		payload := DispatchPayload{
			JobKey:         job.JobKey,
			NotificationID: job.NotificationID,
			ChatID:         job.ChatID,
			Label:          job.Label,
			Description:    job.Description,
		}
		if err := r.queue.EnqueueDispatch(payload, job.TriggerTime); err != nil {
			slog.Error("reconcile re-enqueue failed", "job_key", job.JobKey, "error", err)
			continue
		}
		rearmed++
		slog.Info("re-armed job", "job_key", job.JobKey, "trigger_time", job.TriggerTime)
	}

	if len(jobs) > 0 {
		slog.Info("reconcile sweep complete", "checked", len(jobs), "rearmed", rearmed)
	}
}
