// Package client is the authenticated request pipeline. Every call made through a Client carries
// the session's bearer token when there is one, and every failed call is classified, reported to
// the user once and returned to the caller. A 401 also ends the session.
package client

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

	"github.com/jrsteele09/go-learn-client/notify"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	DefaultTimeout = 15 * time.Second

	maxBodyBytes = 10 << 20
)

// Session is what the pipeline needs from the session: the current credential and the ability to
// end it.
type Session interface {
	oauth2.TokenSource
	Logout(ctx context.Context) error
}

type Client struct {
	baseURL    string
	session    Session
	notifier   notify.Notifier
	http       *http.Client
	middleware []Middleware
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client. Its Transport becomes the base of the chain; hc
// itself is not modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		c.http = &cp
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithMiddleware appends outgoing middleware after the built-in request ID and bearer steps.
func WithMiddleware(mw ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, mw...)
	}
}

// New builds a client for the API rooted at baseURL (e.g. "http://localhost:9540/api"). sess may be
// nil for a client that never authenticates; n defaults to logging.
func New(baseURL string, sess Session, n notify.Notifier, opts ...Option) *Client {
	if n == nil {
		n = notify.Log{}
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		session:  sess,
		notifier: n,
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	var src oauth2.TokenSource
	if sess != nil {
		src = sess
	}
	mw := append([]Middleware{RequestID(), Bearer(src)}, c.middleware...)
	mw = append(mw, Logging())

	c.http.Transport = Chain(c.http.Transport, mw...)
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Get(ctx context.Context, path string, params url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, params, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.Do(ctx, http.MethodPatch, path, nil, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, out)
}

// Do sends one request. On success the JSON payload is decoded into out (when out is non-nil and
// the body is not empty); a payload that does not decode is a failure like any other. On failure
// the returned error is a *RequestError, except for caller cancellation which is returned as is and
// not reported.
func (c *Client) Do(ctx context.Context, method, path string, params url.Values, body any, out any) error {
	req, err := c.newRequest(ctx, method, path, params, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("[client %s %s] %w", method, path, ctxErr)
		}
		return c.fail(ctx, &RequestError{Method: method, Path: path, Kind: ErrNetwork, Message: MessageNetwork, Err: err})
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fmt.Errorf("[client %s %s] %w", method, path, ctxErr)
			}
			return c.fail(ctx, &RequestError{Method: method, Path: path, Status: resp.StatusCode, Kind: ErrNetwork, Message: MessageNetwork, Err: readErr})
		}
		if err := decodePayload(raw, out); err != nil {
			return c.fail(ctx, &RequestError{Method: method, Path: path, Status: resp.StatusCode, Kind: ErrUnknownRequest, Message: MessageFailed, Err: err})
		}
		return nil
	}

	errBody := decodeErrorBody(raw)
	kind, message := classify(resp.StatusCode, errBody)
	return c.fail(ctx, &RequestError{
		Method:  method,
		Path:    path,
		Status:  resp.StatusCode,
		Kind:    kind,
		Message: message,
		Body:    errBody,
	})
}

// fail performs the side effects of a failed call, then hands the error back.
func (c *Client) fail(ctx context.Context, reqErr *RequestError) error {
	log.Warn().
		Str("method", reqErr.Method).
		Str("path", reqErr.Path).
		Int("status", reqErr.Status).
		Msg(reqErr.Kind.Error())

	c.notifier.Notify(notify.Error(reqErr.Status, reqErr.Message))

	if reqErr.Status == http.StatusUnauthorized && c.session != nil {
		if err := c.session.Logout(context.WithoutCancel(ctx)); err != nil {
			log.Err(err).Msg("forced logout after 401 failed")
		}
	}
	return reqErr
}

func (c *Client) newRequest(ctx context.Context, method, path string, params url.Values, body any) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("[client %s %s] encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("[client %s %s] build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func decodePayload(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("[client] decode response: %w", err)
	}
	return nil
}

func decodeErrorBody(raw []byte) map[string]any {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil
	}
	return body
}
