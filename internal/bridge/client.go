// Package bridge is the wallet side of the cross-service HTTP contract
// with the scheduler.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// ScheduleRequest mirrors the scheduler's ScheduleNotification body. The
// scheduler has no user directory, so the chat id travels resolved.
type ScheduleRequest struct {
	ID                   uuid.UUID `json:"id"`
	TelegramUserID       int64     `json:"telegramUserId"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	NotificationDateTime time.Time `json:"notificationDateTime"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Schedule asks the scheduler to arm the notification's triggers.
func (c *Client) Schedule(ctx context.Context, req ScheduleRequest) error {
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule request: %w", err)
	}

	url := c.baseURL + "/api/v1/notifications/ScheduleNotification"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build schedule request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("schedule call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("scheduler returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}

// Cancel asks the scheduler to withdraw all pending triggers of the
// notification. Callers treat failures as best-effort.
func (c *Client) Cancel(ctx context.Context, notificationID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/v1/notifications/%s", c.baseURL, notificationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build cancel request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("cancel call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("scheduler returned %d: %s", resp.StatusCode, respBody)
	}
	return nil
}
