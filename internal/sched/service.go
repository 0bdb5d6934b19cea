package sched

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"wallet/internal/apperr"
)

// ScheduleRequest is everything the scheduler knows about a notification.
// There is no user directory on this side; the chat id arrives resolved.
type ScheduleRequest struct {
	NotificationID uuid.UUID
	ChatID         int64
	Name           string
	Description    string
	FireTime       time.Time
}

// Service plans triggers and arms them in the store and the queue.
type Service struct {
	store Store
	queue Enqueuer
	now   func() time.Time
}

func NewService(store Store, queue Enqueuer) *Service {
	return &Service{store: store, queue: queue, now: time.Now}
}

// Schedule fans the request out into 1–3 jobs. Each job is persisted and
// armed independently: a failure on one does not roll back the others, it
// is reported and the remaining triggers are still attempted.
func (s *Service) Schedule(ctx context.Context, req ScheduleRequest) (int, error) {
	if req.Name == "" {
		return 0, fmt.Errorf("%w: name must not be empty", apperr.ErrValidation)
	}
	if req.FireTime.IsZero() {
		return 0, fmt.Errorf("%w: notification time must be set", apperr.ErrValidation)
	}

	triggers := Plan(s.now(), req.FireTime, req.Name)

	scheduled := 0
	var firstErr error
	for _, trigger := range triggers {
		if err := s.scheduleOne(ctx, req, trigger); err != nil {
			slog.Error("failed to schedule trigger",
				"notification_id", req.NotificationID,
				"offset_minutes", trigger.OffsetMinutes,
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		scheduled++
	}

	if scheduled == 0 && firstErr != nil {
		return 0, firstErr
	}
	return scheduled, nil
}

func (s *Service) scheduleOne(ctx context.Context, req ScheduleRequest, trigger Trigger) error {
	job := &Job{
		JobKey:         JobKey(req.NotificationID, trigger.OffsetMinutes),
		NotificationID: req.NotificationID,
		ChatID:         req.ChatID,
		Name:           req.Name,
		Description:    req.Description,
		Label:          trigger.Label,
		TriggerTime:    trigger.Time,
		OffsetMinutes:  trigger.OffsetMinutes,
		Status:         StatusScheduled,
	}

	// Row first, task second: a task without a row would dispatch blind,
	// while a row without a task is picked up by the reconciler.
	if err := s.store.Upsert(ctx, job); err != nil {
		return err
	}

	payload := DispatchPayload{
		JobKey:         job.JobKey,
		NotificationID: job.NotificationID,
		ChatID:         job.ChatID,
		Label:          job.Label,
		Description:    job.Description,
	}
	return s.queue.EnqueueDispatch(payload, trigger.Time)
}

// Cancel withdraws all pending jobs of a notification. Returns the number
// of jobs cancelled; zero is not an error.
func (s *Service) Cancel(ctx context.Context, notificationID uuid.UUID) (int, error) {
	jobs, err := s.store.CancelByNotification(ctx, notificationID)
	if err != nil {
		return 0, err
	}

	for _, job := range jobs {
		if err := s.queue.DeleteDispatch(job.JobKey); err != nil {
			// The row is already cancelled; the dispatch handler will see
			// that and skip even if the task survives in Redis.
			slog.Warn("failed to delete queued task for cancelled job",
				"job_key", job.JobKey, "error", err)
		}
	}

	slog.Info("cancelled jobs", "notification_id", notificationID, "count", len(jobs))
	return len(jobs), nil
}
