package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"assistant-telegram/models"

	"go.uber.org/zap"
)

// Client talks to the restaurant platform's HTTP API: activated menu, the
// conversational assistant, orders and business-hours schedule. All payloads
// are JSON.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ChatReply is the assistant's answer to one user message. The three flags
// are independent; any subset may be set on a single reply.
type ChatReply struct {
	ID        string    `json:"_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Schedule  bool      `json:"schedule"`
	Menu      bool      `json:"menu"`
	Order     bool      `json:"order"`
}

type chatRequest struct {
	Message    string `json:"message"`
	Restaurant string `json:"restaurant"`
	UserID     string `json:"user_id"`
}

type historyRequest struct {
	UserID     string `json:"user_id"`
	Restaurant string `json:"restaurant"`
}

type historyResponse struct {
	Messages []struct {
		ID        string    `json:"_id"`
		Message   string    `json:"message"`
		Type      string    `json:"type"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"messages"`
}

type menuResponse struct {
	Items []models.MenuItem `json:"items"`
}

// OrderPayload is built whole at submission time and posted in one request.
type OrderPayload struct {
	Items        []models.CartLine `json:"items"`
	RestaurantID string            `json:"restaurant_id"`
	UserID       string            `json:"user_id"`
}

// SendChat posts one user message to the assistant and returns its reply.
func (c *Client) SendChat(ctx context.Context, userID, restaurantID, message string) (*ChatReply, error) {
	var reply ChatReply
	err := c.doJSON(ctx, http.MethodPost, "/chat", chatRequest{
		Message:    message,
		Restaurant: restaurantID,
		UserID:     userID,
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// FetchHistory loads the stored conversation for a (user, restaurant) pair.
// The platform takes the filter in the body of a GET request.
func (c *Client) FetchHistory(ctx context.Context, userID, restaurantID string) ([]models.ChatMessage, error) {
	var resp historyResponse
	err := c.doJSON(ctx, http.MethodGet, "/chat", historyRequest{
		UserID:     userID,
		Restaurant: restaurantID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	msgs := make([]models.ChatMessage, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		kind := models.MessageAssistant
		if m.Type == "human" {
			kind = models.MessageUser
		}
		msgs = append(msgs, models.ChatMessage{
			ID:        m.ID,
			Kind:      kind,
			Text:      m.Message,
			CreatedAt: m.CreatedAt,
		})
	}
	return msgs, nil
}

// FetchActivatedMenu returns the restaurant's currently activated menu items.
func (c *Client) FetchActivatedMenu(ctx context.Context, restaurantID string) ([]models.MenuItem, error) {
	var resp menuResponse
	path := fmt.Sprintf("/menu/%s/activated", url.PathEscape(restaurantID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// FetchSchedule returns the restaurant's weekly opening hours, keyed by the
// restaurant's contact email. Days missing or with null hours are closed and
// are omitted from the result.
func (c *Client) FetchSchedule(ctx context.Context, email string) (models.WeekSchedule, error) {
	var raw map[string]*struct {
		Open  *string `json:"open"`
		Close *string `json:"close"`
	}
	path := fmt.Sprintf("/users/%s/schedule", url.PathEscape(email))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	week := models.WeekSchedule{}
	for day, hours := range raw {
		if hours == nil || hours.Open == nil || hours.Close == nil {
			continue
		}
		week[day] = models.DayHours{Open: *hours.Open, Close: *hours.Close}
	}
	return week, nil
}

// SubmitOrder posts a finalized order.
func (c *Client) SubmitOrder(ctx context.Context, payload OrderPayload) error {
	return c.doJSON(ctx, http.MethodPost, "/orders", payload, nil)
}

// ListOrders returns the user's orders at a restaurant, newest as the
// platform sorts them.
func (c *Client) ListOrders(ctx context.Context, userID, restaurantID string) ([]models.Order, error) {
	var orders []models.Order
	path := fmt.Sprintf("/orders/%s/%s", url.PathEscape(userID), url.PathEscape(restaurantID))
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("platform request failed", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Debug("platform returned non-success",
			zap.String("path", path), zap.Int("status", resp.StatusCode))
		return fmt.Errorf("platform: %s %s returned %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}
