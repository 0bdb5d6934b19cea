package sched

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"wallet/internal/apperr"
)

type fakeStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[string]*Job)}
}

func (s *fakeStore) Upsert(ctx context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *job
	copied.Status = StatusScheduled
	copied.FiredAt = nil
	s.jobs[job.JobKey] = &copied
	return nil
}

func (s *fakeStore) Get(ctx context.Context, jobKey string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobKey]
	if !ok {
		return nil, fmt.Errorf("%w: job %s", apperr.ErrNotFound, jobKey)
	}
	copied := *job
	return &copied, nil
}

func (s *fakeStore) ListScheduled(ctx context.Context, limit int) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []Job
	for _, job := range s.jobs {
		if job.Status == StatusScheduled && len(result) < limit {
			result = append(result, *job)
		}
	}
	return result, nil
}

func (s *fakeStore) MarkCompleted(ctx context.Context, jobKey string, firedAt time.Time) error {
	return s.setStatus(jobKey, StatusCompleted, &firedAt)
}

func (s *fakeStore) MarkFailed(ctx context.Context, jobKey string) error {
	return s.setStatus(jobKey, StatusFailed, nil)
}

func (s *fakeStore) setStatus(jobKey, status string, firedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobKey]
	if !ok {
		return fmt.Errorf("%w: job %s", apperr.ErrNotFound, jobKey)
	}
	job.Status = status
	job.FiredAt = firedAt
	return nil
}

func (s *fakeStore) CancelByNotification(ctx context.Context, notificationID uuid.UUID) ([]Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var cancelled []Job
	for _, job := range s.jobs {
		if job.NotificationID == notificationID && job.Status == StatusScheduled {
			job.Status = StatusCancelled
			cancelled = append(cancelled, *job)
		}
	}
	return cancelled, nil
}

type enqueued struct {
	payload   DispatchPayload
	processAt time.Time
}

type fakeQueue struct {
	mu    sync.Mutex
	tasks map[string]enqueued
	fail  bool
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{tasks: make(map[string]enqueued)}
}

func (q *fakeQueue) EnqueueDispatch(payload DispatchPayload, processAt time.Time) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("redis unavailable")
	}
	q.tasks[payload.JobKey] = enqueued{payload: payload, processAt: processAt}
	return nil
}

func (q *fakeQueue) DeleteDispatch(jobKey string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.tasks, jobKey)
	return nil
}

func (q *fakeQueue) HasDispatch(jobKey string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	_, ok := q.tasks[jobKey]
	return ok, nil
}

type fakeSink struct {
	mu       sync.Mutex
	sent     []string
	failures int
}

func (s *fakeSink) Send(chatID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errors.New("telegram unreachable")
	}
	s.sent = append(s.sent, text)
	return nil
}

func (s *fakeSink) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
