package sched

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func newTestDispatcher(store Store, sink Sink) *Dispatcher {
	d := NewDispatcher(store, sink)
	d.sleep = func(time.Duration) {}
	return d
}

func dispatchTask(t *testing.T, job *Job) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(DispatchPayload{
		JobKey:         job.JobKey,
		NotificationID: job.NotificationID,
		ChatID:         job.ChatID,
		Label:          job.Label,
		Description:    job.Description,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return asynq.NewTask(TaskTypeDispatch, payload)
}

func seedJob(t *testing.T, store *fakeStore) *Job {
	t.Helper()
	job := &Job{
		JobKey:         JobKey(uuid.New(), 0),
		NotificationID: uuid.New(),
		ChatID:         42,
		Name:           "Rent",
		Description:    "Pay rent",
		Label:          "Rent",
		TriggerTime:    time.Now(),
		Status:         StatusScheduled,
	}
	if err := store.Upsert(context.Background(), job); err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return job
}

func TestHandleDispatch_SendsAndCompletes(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	dispatcher := newTestDispatcher(store, sink)
	job := seedJob(t, store)

	if err := dispatcher.HandleDispatch(context.Background(), dispatchTask(t, job)); err != nil {
		t.Fatalf("HandleDispatch: %v", err)
	}

	if sink.sentCount() != 1 {
		t.Fatalf("want 1 message sent, got %d", sink.sentCount())
	}
	want := "Уведомление:\nRent\nPay rent"
	if sink.sent[0] != want {
		t.Errorf("want message %q, got %q", want, sink.sent[0])
	}
	stored, _ := store.Get(context.Background(), job.JobKey)
	if stored.Status != StatusCompleted {
		t.Errorf("want status completed, got %s", stored.Status)
	}
	if stored.FiredAt == nil {
		t.Error("fired_at not set")
	}
}

// Re-delivery of an already-completed job must not send a second message.
func TestHandleDispatch_Idempotent(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	dispatcher := newTestDispatcher(store, sink)
	job := seedJob(t, store)
	task := dispatchTask(t, job)

	if err := dispatcher.HandleDispatch(context.Background(), task); err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	if err := dispatcher.HandleDispatch(context.Background(), task); err != nil {
		t.Fatalf("second dispatch: %v", err)
	}

	if sink.sentCount() != 1 {
		t.Fatalf("want exactly 1 message after re-delivery, got %d", sink.sentCount())
	}
}

func TestHandleDispatch_CancelledJobSkipped(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	dispatcher := newTestDispatcher(store, sink)
	job := seedJob(t, store)

	if _, err := store.CancelByNotification(context.Background(), job.NotificationID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if err := dispatcher.HandleDispatch(context.Background(), dispatchTask(t, job)); err != nil {
		t.Fatalf("HandleDispatch: %v", err)
	}
	if sink.sentCount() != 0 {
		t.Fatalf("cancelled job must not send, got %d messages", sink.sentCount())
	}
}

// One transient sink failure is absorbed by the in-handler retry.
func TestHandleDispatch_RetriesOnceOnSinkFailure(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{failures: 1}
	dispatcher := newTestDispatcher(store, sink)
	job := seedJob(t, store)

	if err := dispatcher.HandleDispatch(context.Background(), dispatchTask(t, job)); err != nil {
		t.Fatalf("HandleDispatch: %v", err)
	}
	if sink.sentCount() != 1 {
		t.Fatalf("want delivery after retry, got %d messages", sink.sentCount())
	}
}

// Two consecutive failures exhaust the policy: the job is marked failed and
// the task is not retried by asynq.
func TestHandleDispatch_GivesUpAfterRetry(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{failures: 2}
	dispatcher := newTestDispatcher(store, sink)
	job := seedJob(t, store)

	err := dispatcher.HandleDispatch(context.Background(), dispatchTask(t, job))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry, got %v", err)
	}
	stored, _ := store.Get(context.Background(), job.JobKey)
	if stored.Status != StatusFailed {
		t.Errorf("want status failed, got %s", stored.Status)
	}
}

func TestHandleDispatch_MalformedPayloadFatal(t *testing.T) {
	dispatcher := newTestDispatcher(newFakeStore(), &fakeSink{})

	err := dispatcher.HandleDispatch(context.Background(),
		asynq.NewTask(TaskTypeDispatch, []byte("{not json")))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry, got %v", err)
	}
}

func TestHandleDispatch_MissingFieldsFatal(t *testing.T) {
	store := newFakeStore()
	sink := &fakeSink{}
	dispatcher := newTestDispatcher(store, sink)

	job := seedJob(t, store)
	store.jobs[job.JobKey].ChatID = 0

	err := dispatcher.HandleDispatch(context.Background(), dispatchTask(t, job))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("want SkipRetry, got %v", err)
	}
	if !strings.Contains(err.Error(), "missing required fields") {
		t.Errorf("unexpected error: %v", err)
	}
	if sink.sentCount() != 0 {
		t.Fatalf("corrupted job must not send, got %d messages", sink.sentCount())
	}
}
