package sched

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	QueueNotifications = "notifications"
	TaskTypeDispatch   = "notification:dispatch"

	// Completed task metadata kept in Redis for inspection.
	taskRetention = 24 * time.Hour
)

// Enqueuer arms and disarms delayed dispatch tasks.
type Enqueuer interface {
	EnqueueDispatch(payload DispatchPayload, processAt time.Time) error
	DeleteDispatch(jobKey string) error
}

// Queue wraps the asynq client and inspector. Tasks carry the job key as
// their TaskID, so the queue enforces the same uniqueness as the job store.
type Queue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewQueue(redisAddr string) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	return &Queue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
	}
}

// EnqueueDispatch schedules the dispatch task at processAt. A leftover task
// with the same key is dropped first so replacement never duplicates.
func (q *Queue) EnqueueDispatch(payload DispatchPayload, processAt time.Time) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	if err := q.DeleteDispatch(payload.JobKey); err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeDispatch, payloadBytes)
	_, err = q.client.Enqueue(task,
		asynq.Queue(QueueNotifications),
		asynq.TaskID(payload.JobKey),
		asynq.ProcessAt(processAt),
		asynq.Retention(taskRetention),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue dispatch task %s: %w", payload.JobKey, err)
	}
	return nil
}

// DeleteDispatch removes the task for jobKey if one exists. A missing task
// is not an error: the job may have fired already or never been armed.
func (q *Queue) DeleteDispatch(jobKey string) error {
	err := q.inspector.DeleteTask(QueueNotifications, jobKey)
	if err != nil && !errors.Is(err, asynq.ErrTaskNotFound) && !errors.Is(err, asynq.ErrQueueNotFound) {
		return fmt.Errorf("failed to delete dispatch task %s: %w", jobKey, err)
	}
	return nil
}

// HasDispatch reports whether a live task exists for jobKey.
func (q *Queue) HasDispatch(jobKey string) (bool, error) {
	_, err := q.inspector.GetTaskInfo(QueueNotifications, jobKey)
	if errors.Is(err, asynq.ErrTaskNotFound) || errors.Is(err, asynq.ErrQueueNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to inspect dispatch task %s: %w", jobKey, err)
	}
	return true, nil
}

func (q *Queue) Close() error {
	return q.client.Close()
}
