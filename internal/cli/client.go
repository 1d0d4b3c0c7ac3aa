package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lemontycoon/internal/game"
)

type Client struct {
	BaseURL    string
	AdminToken string
	HTTP       *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError is a decline or failure reported by the game API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api status %d", e.Status)
	}
	return fmt.Sprintf("api status %d: %s", e.Status, e.Message)
}

// IsDuplicate reports whether the server already applied this idempotency key.
func (e *APIError) IsDuplicate() bool {
	return e.Status == http.StatusConflict
}

// IsNetworkError reports whether err means the API could not be reached, as
// opposed to the API answering with a decline.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &urlErr) || errors.As(err, &netErr)
}

type stateEnvelope struct {
	Success bool          `json:"success"`
	State   game.Snapshot `json:"state"`
}

type dayEnvelope struct {
	Success bool `json:"success"`
	game.DayReport
}

func (c *Client) State(ctx context.Context) (game.Snapshot, error) {
	var out game.Snapshot
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out, "")
	return out, err
}

func (c *Client) SetPrice(ctx context.Context, price float64, idem string) (game.Snapshot, error) {
	return c.mutate(ctx, "/v1/price", PriceBody(price), idem)
}

func (c *Client) SetRecipe(ctx context.Context, lemon, sugar float64, idem string) (game.Snapshot, error) {
	return c.mutate(ctx, "/v1/recipe", RecipeBody(lemon, sugar), idem)
}

func (c *Client) Buy(ctx context.Context, item string, quantity int, idem string) (game.Snapshot, error) {
	return c.mutate(ctx, "/v1/buy", BuyBody(item, quantity), idem)
}

func (c *Client) Upgrade(ctx context.Context, track, idem string) (game.Snapshot, error) {
	return c.mutate(ctx, "/v1/upgrade", UpgradeBody(track), idem)
}

func (c *Client) Reset(ctx context.Context, idem string) (game.Snapshot, error) {
	return c.mutate(ctx, "/v1/reset", nil, idem)
}

func (c *Client) StartDay(ctx context.Context, idem string) (game.DayReport, error) {
	var out dayEnvelope
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/start-day", nil, &out, idem)
	return out.DayReport, err
}

// Do sends a raw request; the offline queue replays through it.
func (c *Client) Do(ctx context.Context, method, path string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	var in any
	if body != nil {
		in = body
	}
	err := c.jsonRequest(ctx, method, path, in, &out, idem)
	return out, err
}

func PriceBody(price float64) map[string]any {
	return map[string]any{"price": price}
}

func RecipeBody(lemon, sugar float64) map[string]any {
	return map[string]any{"lemon_ratio": lemon, "sugar_ratio": sugar}
}

func BuyBody(item string, quantity int) map[string]any {
	return map[string]any{"item": item, "quantity": quantity}
}

func UpgradeBody(track string) map[string]any {
	return map[string]any{"type": track}
}

func (c *Client) mutate(ctx context.Context, path string, body map[string]any, idem string) (game.Snapshot, error) {
	var out stateEnvelope
	var in any
	if body != nil {
		in = body
	}
	err := c.jsonRequest(ctx, http.MethodPost, path, in, &out, idem)
	return out.State, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.AdminToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.AdminToken)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		var decline struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(raw, &decline) == nil && decline.Message != "" {
			apiErr.Code = decline.Error
			apiErr.Message = decline.Message
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
