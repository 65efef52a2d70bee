// Package hass wraps the Home Assistant core and Supervisor HTTP APIs and
// derives the health reports consumed by the digest composer.
package hass

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
)

// EntityState is one entry of /api/states.
type EntityState struct {
	EntityID    string                 `json:"entity_id"`
	State       string                 `json:"state"`
	Attributes  map[string]interface{} `json:"attributes"`
	LastChanged time.Time              `json:"last_changed"`
	LastUpdated time.Time              `json:"last_updated"`
}

// Domain returns the entity id prefix before the first dot.
func (s *EntityState) Domain() string {
	if i := strings.IndexByte(s.EntityID, '.'); i >= 0 {
		return s.EntityID[:i]
	}
	return s.EntityID
}

// FriendlyName returns the friendly_name attribute, falling back to the
// entity id.
func (s *EntityState) FriendlyName() string {
	if v, ok := s.Attributes["friendly_name"].(string); ok && v != "" {
		return v
	}
	return s.EntityID
}

// StrAttr returns a string attribute or "".
func (s *EntityState) StrAttr(key string) string {
	v, _ := s.Attributes[key].(string)
	return v
}

// ConnectionStatus is the result of a connectivity probe.
type ConnectionStatus struct {
	Connected    bool   `json:"connected"`
	Version      string `json:"version,omitempty"`
	LocationName string `json:"location_name,omitempty"`
	Error        string `json:"error,omitempty"`
}

// Client talks to the core API (Supervisor-proxied) and the Supervisor API
// using the add-on bearer token.
type Client struct {
	core       *resty.Client
	supervisor *resty.Client
	log        zerolog.Logger
}

// NewClient builds a client for the given base URLs and token.
func NewClient(coreURL, supervisorURL, token string, log zerolog.Logger) *Client {
	mk := func(base string) *resty.Client {
		return resty.New().
			SetBaseURL(base).
			SetAuthToken(token).
			SetHeader("Content-Type", "application/json").
			SetTimeout(30 * time.Second)
	}
	return &Client{
		core:       mk(coreURL),
		supervisor: mk(supervisorURL),
		log:        log,
	}
}

func (c *Client) getJSON(ctx context.Context, client *resty.Client, path string, out interface{}) error {
	resp, err := client.R().SetContext(ctx).Get(path)
	if err != nil {
		return fmt.Errorf("ha request %s: %w", path, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ha api error: %d %s", resp.StatusCode(), resp.Status())
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// GetAllStates fetches every entity state.
func (c *Client) GetAllStates(ctx context.Context) ([]EntityState, error) {
	var states []EntityState
	if err := c.getJSON(ctx, c.core, "/api/states", &states); err != nil {
		return nil, err
	}
	return states, nil
}

// GetState fetches a single entity state.
func (c *Client) GetState(ctx context.Context, entityID string) (*EntityState, error) {
	var state EntityState
	if err := c.getJSON(ctx, c.core, "/api/states/"+entityID, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// CallService invokes a HA service, e.g. CallService(ctx, "notify",
// "mobile_app_phone", data).
func (c *Client) CallService(ctx context.Context, domain, service string, data map[string]interface{}) error {
	resp, err := c.core.R().
		SetContext(ctx).
		SetBody(data).
		Post(fmt.Sprintf("/api/services/%s/%s", domain, service))
	if err != nil {
		return fmt.Errorf("ha service call %s.%s: %w", domain, service, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("ha api error: %d %s", resp.StatusCode(), resp.Status())
	}
	return nil
}

// SendNotification calls a notify-style service. The service string may be
// fully qualified ("persistent_notification.create") or a bare notify
// service name.
func (c *Client) SendNotification(ctx context.Context, service, title, message string, data map[string]interface{}) error {
	domain, name := "notify", service
	if i := strings.IndexByte(service, '.'); i >= 0 {
		domain, name = service[:i], service[i+1:]
	}
	payload := map[string]interface{}{
		"title":   title,
		"message": message,
	}
	for k, v := range data {
		payload[k] = v
	}
	return c.CallService(ctx, domain, name, payload)
}

type haConfig struct {
	Version      string `json:"version"`
	LocationName string `json:"location_name"`
}

// CheckConnection probes /api/config. Never returns an error; failures are
// reported in the status.
func (c *Client) CheckConnection(ctx context.Context) *ConnectionStatus {
	var cfg haConfig
	if err := c.getJSON(ctx, c.core, "/api/config", &cfg); err != nil {
		return &ConnectionStatus{Connected: false, Error: err.Error()}
	}
	return &ConnectionStatus{Connected: true, Version: cfg.Version, LocationName: cfg.LocationName}
}

// ErrorLog fetches the plain-text core error log.
func (c *Client) ErrorLog(ctx context.Context) (string, error) {
	resp, err := c.core.R().SetContext(ctx).Get("/api/error_log")
	if err != nil {
		return "", fmt.Errorf("ha request /api/error_log: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("ha api error: %d %s", resp.StatusCode(), resp.Status())
	}
	return resp.String(), nil
}
