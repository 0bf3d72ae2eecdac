// Package api talks to the reservation backend over its JSON REST interface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ariefcatur/go-table-booking/internal/booking"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.StatusCode)
	}
	return fmt.Sprintf("backend returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Entry
}

// New builds a client. Every request is bounded by timeout in addition to
// the caller's context.
func New(baseURL string, timeout time.Duration, log *logrus.Entry) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		log:     log,
	}
}

type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

type Profile struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

func (c *Client) Login(ctx context.Context, username, password string) (LoginResult, error) {
	var out LoginResult
	err := c.do(ctx, http.MethodPost, "/api/login", "", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, username, email, password string) error {
	return c.do(ctx, http.MethodPost, "/api/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, nil)
}

func (c *Client) Menus(ctx context.Context) ([]booking.MenuItem, error) {
	var out []booking.MenuItem
	err := c.do(ctx, http.MethodGet, "/api/menus", "", nil, &out)
	return out, err
}

// CreateBooking returns the stored booking when the backend echoes it, nil
// otherwise.
func (c *Client) CreateBooking(ctx context.Context, token string, sub booking.Submission) (*booking.Booking, error) {
	var out booking.Booking
	if err := c.do(ctx, http.MethodPost, "/api/bookings", token, sub, &out); err != nil {
		return nil, err
	}
	return echoed(out), nil
}

func (c *Client) UpdateBooking(ctx context.Context, token, id string, sub booking.Submission) (*booking.Booking, error) {
	var out booking.Booking
	if err := c.do(ctx, http.MethodPut, "/api/bookings/"+url.PathEscape(id), token, sub, &out); err != nil {
		return nil, err
	}
	return echoed(out), nil
}

func (c *Client) PayBooking(ctx context.Context, token, id string) (*booking.Booking, error) {
	var out booking.Booking
	path := "/api/bookings/" + url.PathEscape(id) + "/pay"
	if err := c.do(ctx, http.MethodPatch, path, token, map[string]bool{"isPaid": true}, &out); err != nil {
		return nil, err
	}
	return echoed(out), nil
}

func (c *Client) DeleteBooking(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/bookings/"+url.PathEscape(id), token, nil, nil)
}

func (c *Client) History(ctx context.Context, token string) ([]booking.Booking, error) {
	var out []booking.Booking
	err := c.do(ctx, http.MethodGet, "/api/bookings/history", token, nil, &out)
	return out, err
}

func (c *Client) Me(ctx context.Context, token string) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodGet, "/api/users/me", token, nil, &out)
	return out, err
}

func (c *Client) UpdateMe(ctx context.Context, token string, p Profile) (Profile, error) {
	var out Profile
	err := c.do(ctx, http.MethodPut, "/api/users/me", token, p, &out)
	return out, err
}

func echoed(b booking.Booking) *booking.Booking {
	if b.ID == "" {
		return nil
	}
	return &b
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	log := c.log.WithFields(logrus.Fields{"method": method, "path": path, "request_id": reqID})
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "took": time.Since(start)}).Debug("request done")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	s := strings.TrimSpace(string(raw))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
