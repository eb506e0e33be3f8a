package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/allez-ride/chat-service/internal/domain"
)

// CountUpdate — тело POST /count-update внешнего сервиса счётчиков.
type CountUpdate struct {
	TripID        string `json:"tripId"`
	RecipientID   string `json:"recipientId"`
	RecipientType string `json:"recipientType"`
	Count         int    `json:"count"`
	SenderID      string `json:"senderId"`
	SenderType    string `json:"senderType"`
}

// ExternalRole переводит роль во внешний словарь API: rider -> passenger,
// driver и admin без изменений.
func ExternalRole(r domain.Role) string {
	if r == domain.RoleRider {
		return "passenger"
	}
	return string(r)
}

type Client struct {
	http   *http.Client
	url    string
	apiKey string
}

func NewClient(url, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		http:   &http.Client{Timeout: timeout},
		url:    url,
		apiKey: apiKey,
	}
}

// Send отправляет один count-update. Любой не-2xx статус — ошибка:
// вызывающая сторона решает, логировать или ронять (здесь — только логировать).
func (c *Client) Send(ctx context.Context, u CountUpdate) error {
	body, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal count update: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post count update: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("count update rejected: status %d", resp.StatusCode)
	}
	return nil
}
