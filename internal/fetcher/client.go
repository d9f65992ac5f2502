package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Zachdehooge/sos-dashboard/internal/apperror"
)

const userAgent = "sos-dashboard/1.0 (github.com/Zachdehooge/sos-dashboard)"

// Client talks to the SOS reporting API. The session cookie lives in the
// underlying http.Client's jar.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	log        *logrus.Entry
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client. It is copied; the
// caller's value is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets an overall request timeout, whatever the option order.
// Zero keeps the http.Client's own timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the log entry used for request logging.
func WithLogger(entry *logrus.Entry) Option {
	return func(c *Client) { c.log = entry }
}

// NewClient creates a Client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("fetcher: invalid base url: %w", err)
	}

	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{},
		log:        logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}

	hc := *c.httpClient
	if c.timeout > 0 {
		hc.Timeout = c.timeout
	}
	if hc.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("fetcher: cookie jar: %w", err)
		}
		hc.Jar = jar
	}
	c.httpClient = &hc
	return c, nil
}

// BaseURL returns the API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Cookies returns the session cookies currently held for the API.
func (c *Client) Cookies() []*http.Cookie {
	return c.httpClient.Jar.Cookies(c.baseURL)
}

// SetCookies restores previously saved session cookies.
func (c *Client) SetCookies(cookies []*http.Cookie) {
	c.httpClient.Jar.SetCookies(c.baseURL, cookies)
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

// do sends one request and decodes a 2xx JSON body into out (when out is non-nil).
// Non-2xx responses become typed errors; see decodeError.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("fetcher: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return fmt.Errorf("fetcher: build %s %s: %w", method, path, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": requestID,
	})

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return apperror.Wrap(err, apperror.ErrCodeNetwork, fmt.Sprintf("could not reach the SOS API (%s %s)", method, path))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeNetwork, "failed to read response body")
	}

	log.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(started).String(),
	}).Debug("request finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeParse, fmt.Sprintf("malformed response from %s %s", method, path))
	}
	return nil
}

// decodeError prefers the server's "message", then "error"; otherwise it
// synthesizes a generic message carrying the status code.
func decodeError(status int, raw []byte) error {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	msg := ""
	if err := json.Unmarshal(raw, &body); err == nil {
		msg = strings.TrimSpace(body.Message)
		if msg == "" {
			msg = strings.TrimSpace(body.Error)
		}
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d", status)
	}
	return apperror.HTTP(status, msg)
}
