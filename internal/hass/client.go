// Package hass talks to the Home Assistant REST API entity store.
package hass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned when the platform does not know the entity.
var ErrNotFound = errors.New("hass: entity not found")

// StatusError is a non-2xx response other than 404.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hass: %s %s: status %d", e.Method, e.Path, e.Code)
}

// Entity is one state object as returned by GET /states.
type Entity struct {
	EntityID   string     `json:"entity_id"`
	State      string     `json:"state"`
	Attributes Attributes `json:"attributes"`
}

// Attributes is the free-form attribute map of an entity.
type Attributes map[string]any

// String returns the attribute as a string, or "" when absent or not a string.
func (a Attributes) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// StateClient is the engine's only view of the platform.
type StateClient interface {
	GetState(ctx context.Context, entityID string) (*Entity, error)
	SetState(ctx context.Context, entityID, state string, attrs Attributes) error
	DeleteState(ctx context.Context, entityID string) error
	ListStates(ctx context.Context) ([]Entity, error)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New builds a client for an API root such as http://supervisor/core/api.
func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// Ping succeeds once the API answers at all; 401/404/405 still prove it is up.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusUnauthorized, http.StatusNotFound, http.StatusMethodNotAllowed:
		return nil
	}
	return &StatusError{Method: http.MethodGet, Path: "/", Code: resp.StatusCode}
}

func (c *Client) GetState(ctx context.Context, entityID string) (*Entity, error) {
	var out Entity
	if err := c.getJSON(ctx, "/states/"+url.PathEscape(entityID), &out); err != nil {
		return nil, err
	}
	if out.EntityID == "" {
		out.EntityID = entityID
	}
	return &out, nil
}

func (c *Client) ListStates(ctx context.Context) ([]Entity, error) {
	var out []Entity
	if err := c.getJSON(ctx, "/states", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SetState(ctx context.Context, entityID, state string, attrs Attributes) error {
	body, err := json.Marshal(struct {
		State      string     `json:"state"`
		Attributes Attributes `json:"attributes"`
	}{state, attrs})
	if err != nil {
		return fmt.Errorf("failed to marshal state for %s: %w", entityID, err)
	}
	path := "/states/" + url.PathEscape(entityID)
	resp, err := c.do(ctx, http.MethodPost, path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return &StatusError{Method: http.MethodPost, Path: path, Code: resp.StatusCode}
	}
	return nil
}

// DeleteState removes an entity. Deleting an absent entity succeeds.
func (c *Client) DeleteState(ctx context.Context, entityID string) error {
	path := "/states/" + url.PathEscape(entityID)
	resp, err := c.do(ctx, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Method: http.MethodDelete, Path: path, Code: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		return &StatusError{Method: http.MethodGet, Path: path, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader) (*http.Response, error) {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("hass: %s %s: %w", method, path, err)
	}
	return resp, nil
}
