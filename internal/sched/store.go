package sched

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"wallet/internal/apperr"
)

// Store is the durable job record store. The dispatch worker checks and
// updates it around every send, so completion survives restarts.
type Store interface {
	Upsert(ctx context.Context, job *Job) error
	Get(ctx context.Context, jobKey string) (*Job, error)
	ListScheduled(ctx context.Context, limit int) ([]Job, error)
	MarkCompleted(ctx context.Context, jobKey string, firedAt time.Time) error
	MarkFailed(ctx context.Context, jobKey string) error
	CancelByNotification(ctx context.Context, notificationID uuid.UUID) ([]Job, error)
}

type PGStore struct {
	db *sqlx.DB
}

func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{db: db}
}

// Upsert inserts the job row or, when the key already exists, replaces its
// payload and re-arms it. Replacement by key is what keeps re-scheduling a
// notification from producing duplicate firings.
func (s *PGStore) Upsert(ctx context.Context, job *Job) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (job_key, notification_id, chat_id, name, description,
			label, trigger_time, offset_minutes, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_key) DO UPDATE SET
			chat_id = EXCLUDED.chat_id,
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			label = EXCLUDED.label,
			trigger_time = EXCLUDED.trigger_time,
			status = EXCLUDED.status,
			fired_at = NULL,
			updated_at = now()
	`, job.JobKey, job.NotificationID, job.ChatID, job.Name, job.Description,
		job.Label, job.TriggerTime, job.OffsetMinutes, StatusScheduled)
	if err != nil {
		return fmt.Errorf("failed to upsert job %s: %w", job.JobKey, err)
	}
	return nil
}

func (s *PGStore) Get(ctx context.Context, jobKey string) (*Job, error) {
	job := &Job{}
	err := s.db.GetContext(ctx, job, `SELECT * FROM jobs WHERE job_key = $1`, jobKey)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: job %s", apperr.ErrNotFound, jobKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job %s: %w", jobKey, err)
	}
	return job, nil
}

// ListScheduled returns not-yet-fired jobs, oldest trigger first. Used by
// the reconciler to re-arm anything Redis has lost.
func (s *PGStore) ListScheduled(ctx context.Context, limit int) ([]Job, error) {
	var jobs []Job
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT * FROM jobs
		WHERE status = $1
		ORDER BY trigger_time
		LIMIT $2
	`, StatusScheduled, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled jobs: %w", err)
	}
	return jobs, nil
}

func (s *PGStore) MarkCompleted(ctx context.Context, jobKey string, firedAt time.Time) error {
	return s.setStatus(ctx, jobKey, StatusCompleted, &firedAt)
}

func (s *PGStore) MarkFailed(ctx context.Context, jobKey string) error {
	return s.setStatus(ctx, jobKey, StatusFailed, nil)
}

func (s *PGStore) setStatus(ctx context.Context, jobKey, status string, firedAt *time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET status = $2, fired_at = $3, updated_at = now()
		WHERE job_key = $1
	`, jobKey, status, firedAt)
	if err != nil {
		return fmt.Errorf("failed to mark job %s %s: %w", jobKey, status, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: job %s", apperr.ErrNotFound, jobKey)
	}
	return nil
}

// CancelByNotification marks all pending jobs of a notification cancelled
// and returns them so the caller can drop the matching queue tasks.
func (s *PGStore) CancelByNotification(ctx context.Context, notificationID uuid.UUID) ([]Job, error) {
	var jobs []Job
	err := s.db.SelectContext(ctx, &jobs, `
		UPDATE jobs SET status = $2, updated_at = now()
		WHERE notification_id = $1 AND status = $3
		RETURNING *
	`, notificationID, StatusCancelled, StatusScheduled)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel jobs for notification %s: %w", notificationID, err)
	}
	return jobs, nil
}
