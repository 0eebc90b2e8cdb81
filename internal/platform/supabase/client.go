// Package supabase is a minimal client for the Supabase REST surface used by the
// intake: PostgREST inserts and storage upload, list and public URLs.
package supabase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"grantintake/pkg/platform/sentinel"
)

const DefaultTimeout = 30 * time.Second

// Config holds the project URL and the service role key.
type Config struct {
	URL        string
	ServiceKey string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	restURL    string
	storageURL string
	key        string
	http       *http.Client
}

func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("supabase: project URL is required")
	}
	if cfg.ServiceKey == "" {
		return nil, errors.New("supabase: service key is required")
	}
	base := strings.TrimRight(cfg.URL, "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("supabase: invalid project URL: %w", err)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		restURL:    base + "/rest/v1",
		storageURL: base + "/storage/v1",
		key:        cfg.ServiceKey,
		http:       hc,
	}, nil
}

// Error is a non-2xx answer from Supabase. Message is the backend's own text.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
	Hint       string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase: %d: %s", e.StatusCode, e.Message)
}

// BackendMessage returns the message reported by Supabase.
func (e *Error) BackendMessage() string {
	return e.Message
}

// Unwrap maps the status onto the infrastructure sentinels.
func (e *Error) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusNotFound:
		return sentinel.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return sentinel.ErrConflict
	case e.StatusCode >= 500:
		return sentinel.ErrUnavailable
	default:
		return nil
	}
}

// parseError reads PostgREST ({code,message,details,hint}) and storage
// ({statusCode,error,message}) error bodies.
func parseError(body []byte, statusCode int) error {
	e := &Error{StatusCode: statusCode}
	if !gjson.ValidBytes(body) {
		e.Message = strings.TrimSpace(string(body))
		return e
	}
	res := gjson.GetManyBytes(body, "code", "message", "details", "hint", "error", "error_description")
	e.Code = res[0].String()
	e.Details = res[2].String()
	e.Hint = res[3].String()
	for _, r := range []gjson.Result{res[1], res[4], res[5]} {
		if msg := r.String(); msg != "" {
			e.Message = msg
			break
		}
	}
	return e
}

func (c *Client) do(ctx context.Context, method, rawURL string, body io.Reader, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("supabase: build request: %w", err)
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase: %s %s: %w: %w", method, req.URL.Path, sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, parseError(respBody, resp.StatusCode)
	}
	return respBody, nil
}

func jsonBody(b []byte) io.Reader {
	if b == nil {
		return nil
	}
	return bytes.NewReader(b)
}
