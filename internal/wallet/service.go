package wallet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"wallet/internal/apperr"
	"wallet/internal/bridge"
	"wallet/internal/userdir"
)

// UserDirectory resolves a user to their delivery channel.
type UserDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*userdir.User, error)
}

// Scheduler is the cross-service bridge to the scheduler API.
type Scheduler interface {
	Schedule(ctx context.Context, req bridge.ScheduleRequest) error
	Cancel(ctx context.Context, notificationID uuid.UUID) error
}

// Service owns the notification lifecycle on the wallet side.
type Service struct {
	repo      Repo
	users     UserDirectory
	scheduler Scheduler
	validate  *validator.Validate
	now       func() time.Time
}

func NewService(repo Repo, users UserDirectory, scheduler Scheduler) *Service {
	return &Service{
		repo:      repo,
		users:     users,
		scheduler: scheduler,
		validate:  validator.New(),
		now:       time.Now,
	}
}

// Add validates, persists the notification as pending, and asks the
// scheduler to arm it. The row is promoted to active only on scheduler
// confirmation; on bridge failure it stays pending and the sweep retries,
// so a downstream outage never aborts an already-persisted create.
func (s *Service) Add(ctx context.Context, req CreateNotificationRequest) (*Notification, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if !req.FireTime.After(s.now()) {
		return nil, fmt.Errorf("%w: fire time must be in the future", apperr.ErrValidation)
	}

	user, err := s.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if user.TelegramChatID == nil {
		return nil, fmt.Errorf("%w: user has no linked telegram chat", apperr.ErrValidation)
	}

	n := &Notification{
		ID:          uuid.New(),
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		FireTime:    req.FireTime,
		Status:      StatusPending,
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return nil, err
	}

	if err := s.schedule(ctx, n, *user.TelegramChatID); err != nil {
		slog.Warn("scheduling deferred to sweep", "notification_id", n.ID, "error", err)
		return n, nil
	}

	n.Status = StatusActive
	return n, nil
}

// Update re-validates and replaces the downstream triggers: cancel first,
// then re-schedule against the new fire time. Both downstream calls are
// best-effort; a pending status keeps the sweep retrying.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req UpdateNotificationRequest) (*Notification, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrValidation, err)
	}
	if !req.FireTime.After(s.now()) {
		return nil, fmt.Errorf("%w: fire time must be in the future", apperr.ErrValidation)
	}

	n, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, n.UserID)
	if err != nil {
		return nil, err
	}
	if user.TelegramChatID == nil {
		return nil, fmt.Errorf("%w: user has no linked telegram chat", apperr.ErrValidation)
	}

	if err := s.scheduler.Cancel(ctx, n.ID); err != nil {
		slog.Warn("downstream cancel failed", "notification_id", n.ID, "error", err)
	}

	n.Name = req.Name
	n.Description = req.Description
	n.FireTime = req.FireTime
	n.Status = StatusPending
	if err := s.repo.Update(ctx, n); err != nil {
		return nil, err
	}

	if err := s.schedule(ctx, n, *user.TelegramChatID); err != nil {
		slog.Warn("scheduling deferred to sweep", "notification_id", n.ID, "error", err)
		return n, nil
	}

	n.Status = StatusActive
	return n, nil
}

// Delete removes the record and issues a best-effort downstream cancel;
// the scheduler being unreachable never fails the delete.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.scheduler.Cancel(ctx, id); err != nil {
		slog.Warn("downstream cancel failed", "notification_id", id, "error", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// schedule bridges to the scheduler and promotes the row on success.
func (s *Service) schedule(ctx context.Context, n *Notification, chatID int64) error {
	err := s.scheduler.Schedule(ctx, bridge.ScheduleRequest{
		ID:                   n.ID,
		TelegramUserID:       chatID,
		Name:                 n.Name,
		Description:          n.Description,
		NotificationDateTime: n.FireTime,
	})
	if err != nil {
		return err
	}
	return s.repo.SetStatus(ctx, n.ID, StatusActive)
}
