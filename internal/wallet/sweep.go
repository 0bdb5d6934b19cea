package wallet

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	sweepBatch = 100
	// How long a notification may sit pending before the sweep retries it.
	// Keeps the sweep from racing an in-flight first attempt.
	pendingGrace = 30 * time.Second
)

// SweepPending retries the scheduler bridge for notifications stuck in
// pending, promoting each on confirmation.
func (s *Service) SweepPending(ctx context.Context) {
	stuck, err := s.repo.ListStuckPending(ctx, s.now().Add(-pendingGrace), sweepBatch)
	if err != nil {
		slog.Error("pending sweep failed to list notifications", "error", err)
		return
	}

	for _, n := range stuck {
		user, err := s.users.GetByID(ctx, n.UserID)
		if err != nil || user.TelegramChatID == nil {
			slog.Warn("pending notification has no deliverable user",
				"notification_id", n.ID, "error", err)
			continue
		}
		if err := s.schedule(ctx, &n, *user.TelegramChatID); err != nil {
			slog.Warn("pending sweep re-schedule failed", "notification_id", n.ID, "error", err)
			continue
		}
		slog.Info("pending notification promoted", "notification_id", n.ID)
	}
}

// Sweeper periodically runs the pending sweep.
type Sweeper struct {
	service *Service
	cron    *cron.Cron
}

func NewSweeper(service *Service) *Sweeper {
	return &Sweeper{service: service, cron: cron.New()}
}

func (s *Sweeper) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc("* * * * *", func() {
		s.service.SweepPending(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()

	go func() {
		<-ctx.Done()
		<-s.cron.Stop().Done()
	}()
	return nil
}
