package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Notification statuses implementing the scheduling saga: rows are inserted
// pending and promoted to active only after the scheduler confirms. Rows
// stuck pending are retried by the reconciliation sweep.
const (
	StatusPending = "pending"
	StatusActive  = "active"
)

type Notification struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	FireTime    time.Time `db:"fire_time" json:"fire_time"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

type CreateNotificationRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	Name        string    `json:"name" validate:"required,min=3,max=256"`
	Description string    `json:"description" validate:"required,min=3,max=1000"`
	FireTime    time.Time `json:"fire_time" validate:"required"`
}

type UpdateNotificationRequest struct {
	Name        string    `json:"name" validate:"required,min=3,max=256"`
	Description string    `json:"description" validate:"required,min=3,max=1000"`
	FireTime    time.Time `json:"fire_time" validate:"required"`
}

type CreateUserRequest struct {
	Name string `json:"name" validate:"required,min=3,max=256"`
}
