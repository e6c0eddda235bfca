// Package client talks to a remote wakectl server. It implements the same
// interfaces as the in-process backend so the CLI can use either.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wakectl/internal/constants"
	"wakectl/internal/errors"
	"wakectl/internal/interfaces"

	"github.com/gorilla/websocket"
	"github.com/hashicorp/go-retryablehttp"
)

var _ interfaces.Backend = (*Client)(nil)

// Options configures a Client
type Options struct {
	Token    string
	RetryMax int
	Timeout  time.Duration
}

// Client represents the HTTP/WebSocket client for a wakectl server
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	token      string
	timeout    time.Duration
}

// New creates a new client instance
func New(serverURL string, opts Options) (*Client, error) {
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.InvalidInput(serverURL, "a server URL such as http://localhost:7700")
	}
	if u.Host == "" {
		return nil, errors.InvalidInput(serverURL, "a server URL with a host")
	}

	if opts.Timeout <= 0 {
		opts.Timeout = constants.DefaultHTTPClientTimeout
	}
	if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}

	rc := retryablehttp.NewClient()
	// requests are bounded per call through their context
	rc.HTTPClient = &http.Client{}
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.CheckRetry = retryPolicy
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = leveledLogger{}

	return &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: rc,
		token:      opts.Token,
		timeout:    opts.Timeout,
	}, nil
}

// BaseURL returns the server address
func (c *Client) BaseURL() string {
	return c.baseURL
}

type unsafeRetryKey struct{}

// idempotent reports whether repeating method cannot change server state twice
func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// retryPolicy retries connection failures and gateway errors. Other 5xx
// responses come from the server's own logic and are returned as they are.
// Requests that are not idempotent are only repeated when the server cannot
// have acted on them: the connection was never made, or it answered 429/503.
func retryPolicy(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	unsafe, _ := ctx.Value(unsafeRetryKey{}).(bool)

	if err != nil {
		if unsafe && !neverSent(err) {
			return false, nil
		}
		return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
	}
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true, nil
	case http.StatusBadGateway, http.StatusGatewayTimeout:
		return !unsafe, nil
	}
	return false, nil
}

// neverSent reports whether err happened while dialing, before any byte of
// the request reached the server
func neverSent(err error) bool {
	var opErr *net.OpError
	return stderrors.As(err, &opErr) && opErr.Op == "dial"
}

// doRequest performs an HTTP request with authentication
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	if !idempotent(method) {
		ctx = context.WithValue(ctx, unsafeRetryKey{}, true)
	}

	var reqBody interface{}
	if raw != nil {
		reqBody = bytes.NewReader(raw)
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, errors.APICallError(method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NetworkConnectionError(c.baseURL, err)
	}
	return resp, nil
}

// call performs a request bounded by the client timeout and decodes a 2xx
// JSON body into out. Error bodies are turned back into coded errors.
func (c *Client) call(ctx context.Context, method, path string, body, out interface{}) error {
	return c.callWithTimeout(ctx, c.timeout, method, path, body, out)
}

// callWithTimeout is call with an explicit bound; zero leaves the request
// bounded only by ctx
func (c *Client) callWithTimeout(ctx context.Context, timeout time.Duration, method, path string, body, out interface{}) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.APICallError(method, path, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, constants.MaxProbeBodyBytes))

	var body errors.HTTPErrorResponse
	if err := json.Unmarshal(data, &body); err != nil || body.Error.Message == "" {
		body.Error.Message = strings.TrimSpace(string(data))
		if body.Error.Message == "" {
			body.Error.Message = resp.Status
		}
		if resp.StatusCode == http.StatusUnauthorized {
			body.Error.Code = errors.ErrUnauthorized
		}
	}
	return errors.FromResponse(resp.StatusCode, body)
}

// WebSocketConnect establishes a WebSocket connection to path, which may
// carry a query string
func (c *Client) WebSocketConnect(ctx context.Context, path string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	wsScheme := "ws"
	if u.Scheme == "https" {
		wsScheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s%s%s", wsScheme, u.Host, u.Path, path)

	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode >= 400 {
			defer resp.Body.Close()
			return nil, decodeError(resp)
		}
		return nil, errors.NetworkConnectionError(wsURL, err)
	}

	return conn, nil
}

// Health checks the health of the server
func (c *Client) Health(ctx context.Context) (map[string]interface{}, error) {
	var health map[string]interface{}
	if err := c.call(ctx, http.MethodGet, "/health", nil, &health); err != nil {
		return nil, err
	}
	return health, nil
}
