// Package userdir is the user directory: it resolves users to their
// Telegram chat id and owns the api-key binding used by the bot flow.
package userdir

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

type User struct {
	ID             uuid.UUID `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	APIKey         uuid.UUID `db:"api_key" json:"api_key"`
	TelegramChatID *int64    `db:"telegram_chat_id" json:"telegram_chat_id,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

type Directory struct {
	db *sqlx.DB
}

func NewDirectory(db *sqlx.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Create(ctx context.Context, name string) (*User, error) {
	user := &User{
		ID:     uuid.New(),
		Name:   name,
		APIKey: uuid.New(),
	}
	err := d.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, api_key)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, user.ID, user.Name, user.APIKey).Scan(&user.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (d *Directory) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := d.db.GetContext(ctx, user, `SELECT * FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return user, nil
}

// BindChat links a Telegram chat to the user owning apiKey. Re-binding the
// same user to a new chat simply overwrites the old link.
func (d *Directory) BindChat(ctx context.Context, apiKey uuid.UUID, chatID int64) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE users SET telegram_chat_id = $2
		WHERE api_key = $1
	`, apiKey, chatID)
	if err != nil {
		return fmt.Errorf("failed to bind chat: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: unknown api key", apperr.ErrNotFound)
	}
	return nil
}
