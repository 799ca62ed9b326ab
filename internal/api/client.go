package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fleetdash/config"
	"fleetdash/internal/logs"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// TokenSource yields the bearer token for the next request ("" = none).
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

type Client struct {
	base    string
	http    *http.Client
	tokens  TokenSource
	limiter *rate.Limiter

	mu             sync.RWMutex
	onUnauthorized func(error)
}

func New(cfg config.APIConfig, tokens TokenSource) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	c := &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		http:   &http.Client{Timeout: timeout},
		tokens: tokens,
	}
	if cfg.RateLimit.RPS > 0 {
		burst := cfg.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RPS), burst)
	}
	return c
}

// WithHTTPClient swaps the transport (tests, custom TLS).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// OnUnauthorized registers a hook run on every 401/403 response.
func (c *Client) OnUnauthorized(fn func(error)) {
	c.mu.Lock()
	c.onUnauthorized = fn
	c.mu.Unlock()
}

func (c *Client) BaseURL() string { return c.base }

type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any        // encoded as application/json when non-nil
	Form   *Multipart // encoded as multipart/form-data when non-nil
}

func (c *Client) Get(ctx context.Context, path string, q url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: q}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, JSON: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, JSON: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path, JSON: body}, out)
}

// Do sends r and decodes a 2xx JSON response into out (nil = discard).
func (c *Client) Do(ctx context.Context, r Request, out any) error {
	log := logs.Logger.WithFields(logrus.Fields{"method": r.Method, "path": r.Path})

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return errors.Wrapf(err, "%s %s: pacing", r.Method, r.Path)
		}
	}

	req, err := c.newRequest(ctx, r)
	if err != nil {
		return errors.Wrapf(err, "%s %s: build request", r.Method, r.Path)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Debug("request failed")
		return errors.Wrapf(err, "%s %s", r.Method, r.Path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "%s %s: read body", r.Method, r.Path)
	}
	log.WithFields(logrus.Fields{"status": resp.StatusCode, "took": time.Since(start)}).Debug("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newError(r.Method, r.Path, resp.StatusCode, body)
		if IsUnauthorized(apiErr) {
			c.mu.RLock()
			hook := c.onUnauthorized
			c.mu.RUnlock()
			if hook != nil {
				hook(apiErr)
			}
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &DecodeError{Path: r.Path, Err: err}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, r Request) (*http.Request, error) {
	u := c.base + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		u += "?" + r.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
		length      int64 = -1
	)
	switch {
	case r.Form != nil:
		buf, ct, err := r.Form.encode()
		if err != nil {
			return nil, err
		}
		length = int64(buf.Len())
		body = r.Form.track(buf, length)
		contentType = ct
	case r.JSON != nil:
		b, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, err
		}
		length = int64(len(b))
		body = bytes.NewReader(b)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, u, body)
	if err != nil {
		return nil, err
	}
	if length >= 0 {
		req.ContentLength = length
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return req, nil
}

// Upload sends form as multipart/form-data; progress, if set on form, is
// reported while the body is written.
func (c *Client) Upload(ctx context.Context, method, path string, form *Multipart, out any) error {
	return c.Do(ctx, Request{Method: method, Path: path, Form: form}, out)
}
