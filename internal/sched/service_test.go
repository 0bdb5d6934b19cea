package sched

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"wallet/internal/apperr"
)

func newTestService(store *fakeStore, queue *fakeQueue, now time.Time) *Service {
	s := NewService(store, queue)
	s.now = func() time.Time { return now }
	return s
}

func TestSchedule_RoundTrip_ThreeJobs(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	queue := newFakeQueue()
	service := newTestService(store, queue, now)

	id := uuid.New()
	fireTime := now.Add(48 * time.Hour)
	scheduled, err := service.Schedule(context.Background(), ScheduleRequest{
		NotificationID: id,
		ChatID:         42,
		Name:           "Rent",
		Description:    "Pay rent",
		FireTime:       fireTime,
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if scheduled != 3 {
		t.Fatalf("want 3 jobs scheduled, got %d", scheduled)
	}

	wantTriggers := map[string]time.Time{
		JobKey(id, 0):    fireTime,
		JobKey(id, 1440): fireTime.Add(-24 * time.Hour),
		JobKey(id, 60):   fireTime.Add(-time.Hour),
	}
	for key, wantTime := range wantTriggers {
		job, err := store.Get(context.Background(), key)
		if err != nil {
			t.Fatalf("job %s not persisted: %v", key, err)
		}
		if !job.TriggerTime.Equal(wantTime) {
			t.Errorf("job %s: want trigger %v, got %v", key, wantTime, job.TriggerTime)
		}
		task, ok := queue.tasks[key]
		if !ok {
			t.Fatalf("job %s not enqueued", key)
		}
		if !task.processAt.Equal(wantTime) {
			t.Errorf("job %s: want processAt %v, got %v", key, wantTime, task.processAt)
		}
	}
}

func TestSchedule_Rescheduling_ReplacesByKey(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	queue := newFakeQueue()
	service := newTestService(store, queue, now)

	id := uuid.New()
	req := ScheduleRequest{
		NotificationID: id,
		ChatID:         42,
		Name:           "Rent",
		FireTime:       now.Add(48 * time.Hour),
	}
	if _, err := service.Schedule(context.Background(), req); err != nil {
		t.Fatalf("first Schedule: %v", err)
	}

	req.FireTime = now.Add(72 * time.Hour)
	if _, err := service.Schedule(context.Background(), req); err != nil {
		t.Fatalf("second Schedule: %v", err)
	}

	if len(store.jobs) != 3 {
		t.Fatalf("want 3 job rows after re-schedule, got %d", len(store.jobs))
	}
	if len(queue.tasks) != 3 {
		t.Fatalf("want 3 queued tasks after re-schedule, got %d", len(queue.tasks))
	}
	main, _ := store.Get(context.Background(), JobKey(id, 0))
	if !main.TriggerTime.Equal(req.FireTime) {
		t.Errorf("main trigger not replaced: got %v", main.TriggerTime)
	}
}

func TestSchedule_EmptyName_Validation(t *testing.T) {
	service := newTestService(newFakeStore(), newFakeQueue(), time.Now())

	_, err := service.Schedule(context.Background(), ScheduleRequest{
		NotificationID: uuid.New(),
		ChatID:         42,
		FireTime:       time.Now().Add(time.Hour),
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

func TestSchedule_ZeroTime_Validation(t *testing.T) {
	service := newTestService(newFakeStore(), newFakeQueue(), time.Now())

	_, err := service.Schedule(context.Background(), ScheduleRequest{
		NotificationID: uuid.New(),
		ChatID:         42,
		Name:           "Rent",
	})
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
}

// A queue outage on every trigger surfaces an error; the rows stay behind
// for the reconciler.
func TestSchedule_QueueDown_ReportsError(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	queue := newFakeQueue()
	queue.fail = true
	service := newTestService(store, queue, now)

	_, err := service.Schedule(context.Background(), ScheduleRequest{
		NotificationID: uuid.New(),
		ChatID:         42,
		Name:           "Rent",
		FireTime:       now.Add(48 * time.Hour),
	})
	if err == nil {
		t.Fatal("want error when queue is down")
	}
	if len(store.jobs) != 3 {
		t.Fatalf("rows should persist for the reconciler, got %d", len(store.jobs))
	}
}

func TestCancel_MarksJobsAndDropsTasks(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	queue := newFakeQueue()
	service := newTestService(store, queue, now)

	id := uuid.New()
	if _, err := service.Schedule(context.Background(), ScheduleRequest{
		NotificationID: id,
		ChatID:         42,
		Name:           "Rent",
		FireTime:       now.Add(48 * time.Hour),
	}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	cancelled, err := service.Cancel(context.Background(), id)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled != 3 {
		t.Fatalf("want 3 jobs cancelled, got %d", cancelled)
	}
	if len(queue.tasks) != 0 {
		t.Fatalf("want 0 queued tasks after cancel, got %d", len(queue.tasks))
	}
	for key := range store.jobs {
		if store.jobs[key].Status != StatusCancelled {
			t.Errorf("job %s: want status cancelled, got %s", key, store.jobs[key].Status)
		}
	}
}

func TestReconciler_RearmsMissingTasks(t *testing.T) {
	now := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	queue := newFakeQueue()
	service := newTestService(store, queue, now)

	id := uuid.New()
	if _, err := service.Schedule(context.Background(), ScheduleRequest{
		NotificationID: id,
		ChatID:         42,
		Name:           "Rent",
		FireTime:       now.Add(48 * time.Hour),
	}); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// Simulate Redis losing a task between scheduling and the trigger time.
	lost := JobKey(id, 0)
	if err := queue.DeleteDispatch(lost); err != nil {
		t.Fatalf("DeleteDispatch: %v", err)
	}

	reconciler := NewReconciler(store, queue, queue)
	reconciler.Sweep(context.Background())

	task, ok := queue.tasks[lost]
	if !ok {
		t.Fatal("lost task was not re-armed")
	}
	job, _ := store.Get(context.Background(), lost)
	if !task.processAt.Equal(job.TriggerTime) {
		t.Errorf("re-armed at %v, want original trigger time %v", task.processAt, job.TriggerTime)
	}
}
