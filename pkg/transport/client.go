package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
)

// Request timeouts.
const (
	// DefaultWakeTimeout bounds a single liveness probe.
	DefaultWakeTimeout = 2 * time.Second

	// DefaultRequestTimeout bounds connect and log requests.
	DefaultRequestTimeout = 3 * time.Second

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 64 * 1024
)

// ErrMalformedResponse is returned when the collector's reply can't be decoded.
var ErrMalformedResponse = errors.New("malformed collector response")

// MalformedReason is the user-facing text for ErrMalformedResponse.
const MalformedReason = "Failure in JSON parsing"

// AuthRequest is the body of a connect request.
type AuthRequest struct {
	UserName string `json:"userName"`
	Secret   string `json:"secret"`
	Version  string `json:"version"`
	Section  string `json:"section"`
}

// AuthResponse is the collector's reply to a successful connect request.
type AuthResponse struct {
	SessionKey   string `json:"sessionKey"`
	SessionIndex int    `json:"sessionIndex"`
	Message      string `json:"message"`
}

// Collector is the remote end of the telemetry pipeline.
type Collector interface {
	// Awake probes the liveness endpoint. It returns nil on any 2xx.
	Awake(ctx context.Context) error

	// Connect authenticates and opens a logging session.
	Connect(ctx context.Context, req AuthRequest) (AuthResponse, error)

	// Log sends one serialized event.
	Log(ctx context.Context, event []byte) error
}

// ClientConfig configures a collector client.
type ClientConfig struct {
	// WakeURL, ConnectURL and LogURL are the collector endpoints.
	WakeURL    string
	ConnectURL string
	LogURL     string

	// WakeTimeout bounds one liveness probe (default: 2s).
	WakeTimeout time.Duration

	// RequestTimeout bounds connect and log requests (default: 3s).
	RequestTimeout time.Duration

	// HTTPClient is used for all requests (default: pooled cleanhttp client).
	HTTPClient *http.Client
}

// Client talks to a collector over HTTP.
type Client struct {
	config ClientConfig
	http   *http.Client
}

// NewClient creates a collector client.
func NewClient(config ClientConfig) *Client {
	if config.WakeTimeout <= 0 {
		config.WakeTimeout = DefaultWakeTimeout
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = DefaultRequestTimeout
	}
	hc := config.HTTPClient
	if hc == nil {
		hc = cleanhttp.DefaultPooledClient()
	}
	return &Client{config: config, http: hc}
}

// Awake probes the liveness endpoint.
func (c *Client) Awake(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.WakeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.WakeURL, nil)
	if err != nil {
		return fmt.Errorf("build wake request: %w", err)
	}
	_, err = c.do(req)
	return err
}

// Connect authenticates with the collector.
func (c *Client) Connect(ctx context.Context, auth AuthRequest) (AuthResponse, error) {
	body, err := json.Marshal(auth)
	if err != nil {
		return AuthResponse{}, fmt.Errorf("encode connect request: %w", err)
	}

	respBody, err := c.postJSON(ctx, c.config.ConnectURL, body)
	if err != nil {
		return AuthResponse{}, err
	}

	var resp AuthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return AuthResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.SessionKey == "" {
		return AuthResponse{}, fmt.Errorf("%w: missing session key", ErrMalformedResponse)
	}
	return resp, nil
}

// Log sends one serialized event. The response body is ignored.
func (c *Client) Log(ctx context.Context, event []byte) error {
	_, err := c.postJSON(ctx, c.config.LogURL, event)
	return err
}

func (c *Client) postJSON(ctx context.Context, url string, body []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// StatusError is returned for non-2xx collector responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("HTTP %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Body)
}

// Reason returns the text shown to users for a failed request: the response
// body if the collector sent one, otherwise the error itself.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) {
		if strings.TrimSpace(se.Body) != "" {
			return se.Body
		}
		return se.Error()
	}
	if errors.Is(err, ErrMalformedResponse) {
		return MalformedReason
	}
	return err.Error()
}

// Compile-time interface satisfaction check.
var _ Collector = (*Client)(nil)
