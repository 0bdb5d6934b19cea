package sched

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Job statuses. A job moves scheduled → completed on a successful dispatch,
// scheduled → failed on a fatal dispatch error, and scheduled → cancelled
// when the owning notification is withdrawn. Completed jobs never re-fire.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
)

// Job is the durable record of a single trigger. One notification fans out
// into up to three jobs, distinguished by OffsetMinutes.
type Job struct {
	JobKey         string     `db:"job_key"`
	NotificationID uuid.UUID  `db:"notification_id"`
	ChatID         int64      `db:"chat_id"`
	Name           string     `db:"name"`
	Description    string     `db:"description"`
	Label          string     `db:"label"`
	TriggerTime    time.Time  `db:"trigger_time"`
	OffsetMinutes  int        `db:"offset_minutes"`
	Status         string     `db:"status"`
	FiredAt        *time.Time `db:"fired_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// JobKey composes the unique job identity. At most one job per offset
// category can exist for a notification; re-scheduling replaces it.
func JobKey(notificationID uuid.UUID, offsetMinutes int) string {
	return fmt.Sprintf("%s:%d", notificationID, offsetMinutes)
}

// DispatchPayload is the asynq task body for a single trigger.
type DispatchPayload struct {
	JobKey         string    `json:"job_key"`
	NotificationID uuid.UUID `json:"notification_id"`
	ChatID         int64     `json:"chat_id"`
	Label          string    `json:"label"`
	Description    string    `json:"description"`
}
