// Package apiclient is the HTTP client of the venue calendar API. A single
// Client carries the session: it attaches the bearer token to every call,
// refreshes the access token once when the backend answers 401, and clears
// the session and fires OnUnauthorized when that is not enough.
package apiclient

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

	"github.com/hashicorp/go-retryablehttp"
	"github.com/labstack/gommon/log"
)

// ErrUnauthorized matches any 401 answer, including the one returned after
// the session has been cleared.
var ErrUnauthorized = errors.New("unauthorized")

// ErrBadResponse is returned when a 2xx body cannot be decoded.
var ErrBadResponse = errors.New("malformed response")

const maxBodyBytes = 8 << 20

// APIError is a non-2xx response from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api: %d %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Options configures a Client. Zero values fall back to the defaults noted
// on each field.
type Options struct {
	BaseURL      string        // e.g. http://localhost:8080/api (required)
	Timeout      time.Duration // per attempt, default 15s
	RetryMax     int           // retries on transport errors, 5xx and 429; default 2, negative disables
	RetryWaitMin time.Duration // default 200ms
	RetryWaitMax time.Duration // default 2s
	HTTPClient   *http.Client  // optional base client, Timeout is overridden
	Logger       *log.Logger   // default log.New("apiclient")

	// OnUnauthorized runs after a 401 that could not be recovered by a token
	// refresh. The session is already cleared when it runs.
	OnUnauthorized func()
}

// Client talks to the venue calendar API.
type Client struct {
	base           *url.URL
	http           *retryablehttp.Client
	logger         *log.Logger
	onUnauthorized func()

	mu      sync.RWMutex
	access  string
	refresh string
}

// New builds a Client from opts.
func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("apiclient: base url required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.RetryMax == 0 {
		opts.RetryMax = 2
	} else if opts.RetryMax < 0 {
		opts.RetryMax = 0
	}
	if opts.RetryWaitMin <= 0 {
		opts.RetryWaitMin = 200 * time.Millisecond
	}
	if opts.RetryWaitMax <= 0 {
		opts.RetryWaitMax = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.New("apiclient")
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	hc.Timeout = opts.Timeout

	rc := retryablehttp.NewClient()
	rc.HTTPClient = hc
	rc.RetryMax = opts.RetryMax
	rc.RetryWaitMin = opts.RetryWaitMin
	rc.RetryWaitMax = opts.RetryWaitMax
	rc.Logger = leveledLogger{opts.Logger}
	// hand the final response back instead of a generic "giving up" error
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		base:           base,
		http:           rc,
		logger:         opts.Logger,
		onUnauthorized: opts.OnUnauthorized,
	}, nil
}

// SetTokens installs a session obtained elsewhere.
func (c *Client) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.access, c.refresh = access, refresh
}

// ClearSession forgets both tokens.
func (c *Client) ClearSession() {
	c.SetTokens("", "")
}

// Authenticated reports whether an access token is held.
func (c *Client) Authenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access != ""
}

func (c *Client) tokens() (access, refresh string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.access, c.refresh
}

// call describes one API request.
type call struct {
	method string
	path   string
	query  url.Values
	body   any
	// auth endpoints never trigger refresh or the unauthorized hook
	auth bool
}

// do executes cl and returns the raw 2xx body.
func (c *Client) do(ctx context.Context, cl call) ([]byte, error) {
	status, body, err := c.send(ctx, cl)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized && !cl.auth {
		if c.tryRefresh(ctx) {
			status, body, err = c.send(ctx, cl)
			if err != nil {
				return nil, err
			}
		}
		if status == http.StatusUnauthorized {
			c.ClearSession()
			c.logger.Warnf("%s %s: session rejected, login required", cl.method, cl.path)
			if c.onUnauthorized != nil {
				c.onUnauthorized()
			}
		}
	}
	if status < 200 || status > 299 {
		return nil, &APIError{Status: status, Message: errorMessage(body)}
	}
	return body, nil
}

func (c *Client) send(ctx context.Context, cl call) (int, []byte, error) {
	u := c.base.JoinPath(cl.path)
	if len(cl.query) > 0 {
		u.RawQuery = cl.query.Encode()
	}

	var payload []byte
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s body: %w", cl.path, err)
		}
		payload = b
	}
	var raw interface{}
	if payload != nil {
		raw = payload
	}
	req, err := retryablehttp.NewRequestWithContext(ctx, cl.method, u.String(), raw)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if access, _ := c.tokens(); access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", cl.method, cl.path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: read body: %w", cl.method, cl.path, err)
	}
	return resp.StatusCode, body, nil
}

// errorMessage pulls a human message out of an error body.
func errorMessage(body []byte) string {
	var m struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &m); err == nil {
		if m.Error != "" {
			return m.Error
		}
		if m.Message != "" {
			return m.Message
		}
	}
	s := strings.TrimSpace(string(bytes.ToValidUTF8(body, nil)))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}

// leveledLogger routes retryablehttp diagnostics through gommon levels.
type leveledLogger struct{ l *log.Logger }

func (a leveledLogger) Error(msg string, kv ...interface{}) { a.l.Errorf("%s %v", msg, kv) }
func (a leveledLogger) Info(msg string, kv ...interface{})  { a.l.Infof("%s %v", msg, kv) }
func (a leveledLogger) Debug(msg string, kv ...interface{}) { a.l.Debugf("%s %v", msg, kv) }
func (a leveledLogger) Warn(msg string, kv ...interface{})  { a.l.Warnf("%s %v", msg, kv) }
