package sched

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"wallet/internal/apperr"
)

// ScheduleNotificationRequest is the cross-service wire contract. The fire
// time travels as ISO-8601 (RFC 3339).
type ScheduleNotificationRequest struct {
	ID                   uuid.UUID `json:"id"`
	TelegramUserID       int64     `json:"telegramUserId"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	NotificationDateTime time.Time `json:"notificationDateTime"`
}

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func SetupRoutes(api *echo.Group, h *Handler) {
	notifications := api.Group("/notifications")
	notifications.POST("/ScheduleNotification", h.ScheduleNotification)
	notifications.DELETE("/:id", h.CancelNotification)
}

func (h *Handler) ScheduleNotification(c echo.Context) error {
	var req ScheduleNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	scheduled, err := h.service.Schedule(c.Request().Context(), ScheduleRequest{
		NotificationID: req.ID,
		ChatID:         req.TelegramUserID,
		Name:           req.Name,
		Description:    req.Description,
		FireTime:       req.NotificationDateTime,
	})
	if err != nil {
		return err
	}

	return c.String(http.StatusOK,
		fmt.Sprintf("Notification %q scheduled: %d trigger(s)", req.Name, scheduled))
}

func (h *Handler) CancelNotification(c echo.Context) error {
	notificationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return fmt.Errorf("%w: invalid notification id", apperr.ErrValidation)
	}

	cancelled, err := h.service.Cancel(c.Request().Context(), notificationID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]int{"cancelled": cancelled})
}
