package trackapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tazhate/trackbot/internal/domain"
)

// Client is a REST client for the tracking server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new client for the server at baseURL
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// IsConfigured returns true if the client has a server URL
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// Trackings returns the tracking endpoints.
func (c *Client) Trackings() *Trackings {
	return &Trackings{c: c}
}

// Reminders returns the reminder endpoints.
func (c *Client) Reminders() *Reminders {
	return &Reminders{c: c}
}

// doRequest performs an HTTP request with auth and decodes the JSON response
// into out. Every failure is returned as a *domain.TransportError.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body, out any) error {
	fail := func(status int, err error) error {
		return &domain.TransportError{Op: op, Status: status, Err: err}
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fail(0, fmt.Errorf("marshal body: %w", err))
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fail(0, fmt.Errorf("create request: %w", err))
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("do request: %w", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		return fail(resp.StatusCode, statusError(resp.StatusCode, respBody))
	}

	if out == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("unmarshal response: %w", err))
	}
	return nil
}

// statusError maps an error response to the matching domain error.
func statusError(status int, body []byte) error {
	var e apiError
	_ = json.Unmarshal(body, &e)
	msg := e.Error
	if msg == "" {
		msg = e.Message
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
	}

	switch status {
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, domain.ErrNotFound)
	case http.StatusForbidden, http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", msg, domain.ErrAccessDenied)
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, domain.ErrInvalidTransition)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		if e.Field != "" {
			m := e.Message
			if m == "" {
				m = msg
			}
			return &domain.ValidationError{Field: e.Field, Message: m}
		}
	}
	if msg == "" {
		return errors.New(http.StatusText(status))
	}
	return errors.New(msg)
}

func userQuery(userID int64) string {
	return "?" + url.Values{"user_id": {strconv.FormatInt(userID, 10)}}.Encode()
}

// Trackings implements service.TrackingService over HTTP.
type Trackings struct {
	c *Client
}

func (t *Trackings) List(ctx context.Context, userID int64) ([]domain.Tracking, error) {
	var out []domain.Tracking
	if err := t.c.doRequest(ctx, "tracking.list", http.MethodGet, "/trackings"+userQuery(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Trackings) Create(ctx context.Context, payload domain.TrackingPayload) (*domain.Tracking, error) {
	var out domain.Tracking
	if err := t.c.doRequest(ctx, "tracking.create", http.MethodPost, "/trackings", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Trackings) Update(ctx context.Context, id int64, payload domain.TrackingPayload) (*domain.Tracking, error) {
	var out domain.Tracking
	path := fmt.Sprintf("/trackings/%d", id)
	if err := t.c.doRequest(ctx, "tracking.update", http.MethodPatch, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Trackings) SetState(ctx context.Context, id int64, state domain.TrackingState) (*domain.Tracking, error) {
	var out domain.Tracking
	path := fmt.Sprintf("/trackings/%d/state", id)
	if err := t.c.doRequest(ctx, "tracking.set_state", http.MethodPut, path, stateRequest{State: state}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *Trackings) Delete(ctx context.Context, id int64) error {
	return t.c.doRequest(ctx, "tracking.delete", http.MethodDelete, fmt.Sprintf("/trackings/%d", id), nil, nil)
}

// Reminders implements service.ReminderService over HTTP.
type Reminders struct {
	c *Client
}

func (r *Reminders) List(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	var out []domain.Reminder
	if err := r.c.doRequest(ctx, "reminder.list", http.MethodGet, "/reminders"+userQuery(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Reminders) action(ctx context.Context, op string, id int64, action string, body any) (*domain.Reminder, error) {
	var out domain.Reminder
	path := fmt.Sprintf("/reminders/%d/%s", id, action)
	if err := r.c.doRequest(ctx, op, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Reminders) Complete(ctx context.Context, id int64, value string) (*domain.Reminder, error) {
	req := completeRequest{}
	if value != "" {
		req.Value = &value
	}
	return r.action(ctx, "reminder.complete", id, "complete", req)
}

func (r *Reminders) Dismiss(ctx context.Context, id int64) (*domain.Reminder, error) {
	return r.action(ctx, "reminder.dismiss", id, "dismiss", nil)
}

func (r *Reminders) Snooze(ctx context.Context, id int64, minutes int) (*domain.Reminder, error) {
	return r.action(ctx, "reminder.snooze", id, "snooze", snoozeRequest{Minutes: minutes})
}

func (r *Reminders) Update(ctx context.Context, id int64, patch domain.ReminderPatch) (*domain.Reminder, error) {
	var out domain.Reminder
	path := fmt.Sprintf("/reminders/%d", id)
	if err := r.c.doRequest(ctx, "reminder.update", http.MethodPatch, path, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Reminders) Delete(ctx context.Context, id int64) error {
	return r.c.doRequest(ctx, "reminder.delete", http.MethodDelete, fmt.Sprintf("/reminders/%d", id), nil, nil)
}
