package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/ordersync/internal/common"
	"github.com/dmitrijs2005/ordersync/internal/models"
)

const (
	DeviceIDHeader = common.DeviceIDHeader
	DefaultTimeout = 5 * time.Second

	maxErrorBody = 512
)

type HTTPClient struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration

	mu       sync.RWMutex
	deviceID string
	token    string
}

// NewHTTPClient builds a client for the store rooted at baseURL. A zero
// timeout means DefaultTimeout.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse server url: unsupported scheme %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPClient{base: u, http: &http.Client{}, timeout: timeout}, nil
}

func (c *HTTPClient) SetCredentials(deviceID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deviceID = deviceID
	c.token = token
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	err := c.do(ctx, http.MethodGet, c.base.JoinPath("health"), nil, nil)
	if err != nil && !IsUnavailable(err) {
		return fmt.Errorf("%w: health check: %v", ErrUnavailable, err)
	}
	return err
}

func (c *HTTPClient) ListOrders(ctx context.Context, deviceScope *string) ([]models.Order, error) {
	u := c.base.JoinPath("orders")
	if deviceScope != nil {
		u.RawQuery = url.Values{common.ScopeQueryParam: {*deviceScope}}.Encode()
	}

	var orders []models.Order
	err := c.do(ctx, http.MethodGet, u, nil, &orders)
	if deviceScope != nil {
		var rej *RejectedError
		if errors.As(err, &rej) {
			switch rej.StatusCode {
			case http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusNotImplemented:
				rej.Err = ErrScopeUnsupported
			}
		}
	}
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (c *HTTPClient) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	var created models.Order
	if err := c.do(ctx, http.MethodPost, c.base.JoinPath("orders"), order, &created); err != nil {
		return models.Order{}, err
	}
	return created, nil
}

func (c *HTTPClient) UpdateOrderStatus(ctx context.Context, id string, status models.Status) (models.Order, error) {
	body := struct {
		Status models.Status `json:"status"`
	}{status}

	var updated models.Order
	if err := c.do(ctx, http.MethodPatch, c.base.JoinPath("orders", id, "status"), body, &updated); err != nil {
		return models.Order{}, err
	}
	return updated, nil
}

func (c *HTTPClient) DeleteOrder(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.base.JoinPath("orders", id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method string, u *url.URL, in, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, u.Path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, u.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	if c.deviceID != "" {
		req.Header.Set(DeviceIDHeader, c.deviceID)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	c.mu.RUnlock()

	resp, err := c.http.Do(req)
	if err != nil {
		return c.mapTransportError(ctx, method, u, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.mapTransportError(ctx, method, u, err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(raw)) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return &RejectedError{StatusCode: resp.StatusCode, Body: "malformed response body", Err: err}
		}
		return nil
	}

	return mapStatus(resp.StatusCode, raw)
}

// mapTransportError classifies a failed round trip. A cancelled caller
// context is passed through unclassified; everything else, including our own
// timeout, means the store is unreachable.
func (c *HTTPClient) mapTransportError(ctx context.Context, method string, u *url.URL, err error) error {
	if errors.Is(context.Cause(ctx), context.Canceled) {
		return fmt.Errorf("%s %s: %w", method, u.Path, context.Canceled)
	}
	return fmt.Errorf("%w: %s %s: %v", ErrUnavailable, method, u.Path, err)
}

func mapStatus(code int, raw []byte) error {
	switch code {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, code)
	}

	rej := &RejectedError{StatusCode: code, Body: errorMessage(raw)}
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		rej.Err = ErrUnauthorized
	case http.StatusNotFound:
		rej.Err = ErrNotFound
	case http.StatusConflict:
		rej.Err = ErrConflict
	}
	return rej
}

// errorMessage prefers the "error" field of a JSON body and falls back to the
// raw text, truncated.
func errorMessage(raw []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody]
	}
	return msg
}
