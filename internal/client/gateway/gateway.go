// Package gateway is the single-call request/response abstraction over the
// remote spreadsheet backend. It owns request shaping and response-shape
// checking and collapses every failure class into common.ErrUnavailable, so
// callers have exactly one remediation path: queue and retry later.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/tidwall/gjson"

	"github.com/smolnikov/tripsync/internal/client/models"
	"github.com/smolnikov/tripsync/internal/common"
	"github.com/smolnikov/tripsync/internal/logging"
)

// Client is the remote gateway seen by the sync layer.
type Client interface {
	// Call dispatches one action. GET carries no payload; POST serializes
	// {"action":..., "data":...}. Any transport error, non-2xx status or
	// non-JSON response yields common.ErrUnavailable; Call never panics and
	// never returns a partial result.
	Call(ctx context.Context, action string, payload any, method string) (*models.Snapshot, error)

	// Ping is a cheap connectivity probe for the online-status watcher.
	Ping(ctx context.Context) error
}

type apiRequest struct {
	Action string `json:"action"`
	Data   any    `json:"data"`
}

type HTTPClient struct {
	endpoint string
	http     *retryablehttp.Client
	log      logging.Logger
}

// New builds a gateway over retryablehttp. retryMax bounds transport-level
// retries only; the sync queue remains the single source of replay logic.
func New(endpoint string, retryMax int, log logging.Logger) *HTTPClient {
	rc := retryablehttp.NewClient()
	rc.Logger = stdlog.New(io.Discard, "", 0)
	rc.RetryMax = retryMax
	return &HTTPClient{endpoint: endpoint, http: rc, log: log}
}

func (c *HTTPClient) Call(ctx context.Context, action string, payload any, method string) (*models.Snapshot, error) {
	var req *retryablehttp.Request
	var err error

	switch method {
	case http.MethodPost:
		var body []byte
		body, err = json.Marshal(apiRequest{Action: action, Data: payload})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request for %s: %w", action, err)
		}
		req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
		if err == nil {
			// text/plain keeps the spreadsheet backend from demanding a
			// CORS preflight; the body is still JSON.
			req.Header.Set("Content-Type", "text/plain;charset=utf-8")
		}
	default:
		req, err = retryablehttp.NewRequestWithContext(ctx, http.MethodGet,
			c.endpoint+"?action="+url.QueryEscape(action), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", action, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn(ctx, "api call failed", "action", action, "err", err)
		return nil, fmt.Errorf("%s: %w", action, common.ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Warn(ctx, "api response read failed", "action", action, "err", err)
		return nil, fmt.Errorf("%s: %w", action, common.ErrUnavailable)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn(ctx, "api call rejected", "action", action, "status", resp.StatusCode)
		return nil, fmt.Errorf("%s: status %d: %w", action, resp.StatusCode, common.ErrUnavailable)
	}

	ct := resp.Header.Get("Content-Type")
	if ct != "" && !strings.Contains(ct, "application/json") {
		c.log.Warn(ctx, "api response not json", "action", action, "contentType", ct)
		return nil, fmt.Errorf("%s: content type %s: %w", action, ct, common.ErrUnavailable)
	}

	if !gjson.ValidBytes(body) || !gjson.ParseBytes(body).IsObject() {
		c.log.Warn(ctx, "api response malformed", "action", action)
		return nil, fmt.Errorf("%s: malformed body: %w", action, common.ErrUnavailable)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		c.log.Warn(ctx, "api response unmarshal failed", "action", action, "err", err)
		return nil, fmt.Errorf("%s: %w", action, common.ErrUnavailable)
	}
	return &snap, nil
}

// Ping issues a HEAD request to the endpoint. Any response at all, including
// an error status, proves connectivity; only a transport failure counts as
// offline. It deliberately bypasses the retrying wrapper, which would turn
// error statuses into failures.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build ping request: %w", err)
	}
	resp, err := c.http.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping: %w", common.ErrUnavailable)
	}
	_ = resp.Body.Close()
	return nil
}
