package wallet

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"wallet/internal/apperr"
	"wallet/internal/userdir"
)

// UserCreator is the slice of the user directory the HTTP surface needs.
type UserCreator interface {
	Create(ctx context.Context, name string) (*userdir.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*userdir.User, error)
}

type Handler struct {
	service *Service
	users   UserCreator
}

func NewHandler(service *Service, users UserCreator) *Handler {
	return &Handler{service: service, users: users}
}

func SetupRoutes(api *echo.Group, h *Handler) {
	notifications := api.Group("/notifications")
	notifications.POST("", h.AddNotification)
	notifications.GET("/:id", h.GetNotification)
	notifications.GET("", h.ListNotifications)
	notifications.PUT("/:id", h.UpdateNotification)
	notifications.DELETE("/:id", h.DeleteNotification)

	users := api.Group("/users")
	users.POST("", h.CreateUser)
	users.GET("/:id", h.GetUser)
}

func (h *Handler) AddNotification(c echo.Context) error {
	var req CreateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	n, err := h.service.Add(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) GetNotification(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	n, err := h.service.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) ListNotifications(c echo.Context) error {
	userID, err := uuid.Parse(c.QueryParam("user_id"))
	if err != nil {
		return fmt.Errorf("%w: user_id query parameter is required", apperr.ErrValidation)
	}

	result, err := h.service.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) UpdateNotification(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req UpdateNotificationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	n, err := h.service.Update(c.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, n)
}

func (h *Handler) DeleteNotification(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Notification deleted"})
}

func (h *Handler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}

	user, err := h.users.Create(c.Request().Context(), req.Name)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *Handler) GetUser(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	user, err := h.users.GetByID(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id", apperr.ErrValidation)
	}
	return id, nil
}
