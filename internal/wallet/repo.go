package wallet

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

// Repo is the notification record store.
type Repo interface {
	Insert(ctx context.Context, n *Notification) error
	Get(ctx context.Context, id uuid.UUID) (*Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	Update(ctx context.Context, n *Notification) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetStatus(ctx context.Context, id uuid.UUID, status string) error
	ListStuckPending(ctx context.Context, olderThan time.Time, limit int) ([]Notification, error)
}

type PGRepo struct {
	db *sqlx.DB
}

func NewPGRepo(db *sqlx.DB) *PGRepo {
	return &PGRepo{db: db}
}

func (r *PGRepo) Insert(ctx context.Context, n *Notification) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (id, user_id, name, description, fire_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, n.ID, n.UserID, n.Name, n.Description, n.FireTime, n.Status).
		Scan(&n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

func (r *PGRepo) Get(ctx context.Context, id uuid.UUID) (*Notification, error) {
	n := &Notification{}
	err := r.db.GetContext(ctx, n, `SELECT * FROM notifications WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: notification %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get notification %s: %w", id, err)
	}
	return n, nil
}

func (r *PGRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	var result []Notification
	err := r.db.SelectContext(ctx, &result, `
		SELECT * FROM notifications WHERE user_id = $1 ORDER BY fire_time
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return result, nil
}

func (r *PGRepo) Update(ctx context.Context, n *Notification) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications
		SET name = $2, description = $3, fire_time = $4, status = $5, updated_at = now()
		WHERE id = $1
	`, n.ID, n.Name, n.Description, n.FireTime, n.Status)
	if err != nil {
		return fmt.Errorf("failed to update notification %s: %w", n.ID, err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return fmt.Errorf("%w: notification %s", apperr.ErrNotFound, n.ID)
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return fmt.Errorf("%w: notification %s", apperr.ErrNotFound, id)
	}
	return nil
}

func (r *PGRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("failed to set notification %s status: %w", id, err)
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return fmt.Errorf("%w: notification %s", apperr.ErrNotFound, id)
	}
	return nil
}

// ListStuckPending returns notifications that never got a scheduler
// confirmation, for the reconciliation sweep.
func (r *PGRepo) ListStuckPending(ctx context.Context, olderThan time.Time, limit int) ([]Notification, error) {
	var result []Notification
	err := r.db.SelectContext(ctx, &result, `
		SELECT * FROM notifications
		WHERE status = $1 AND updated_at < $2
		ORDER BY updated_at
		LIMIT $3
	`, StatusPending, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending notifications: %w", err)
	}
	return result, nil
}
