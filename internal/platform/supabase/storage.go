package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// listLimit bounds the prefix listing used to confirm an upload.
const listLimit = 100

// Upload stores content under bucket/name, replacing an existing object.
func (c *Client) Upload(ctx context.Context, bucket, name string, content io.Reader, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	u := fmt.Sprintf("%s/object/%s/%s", c.storageURL, bucket, url.PathEscape(name))
	_, err := c.do(ctx, http.MethodPost, u, content, map[string]string{
		"Content-Type":  contentType,
		"Cache-Control": "3600",
		"x-upsert":      "true",
	})
	return err
}

// List returns the names of the objects in bucket starting with prefix.
func (c *Client) List(ctx context.Context, bucket, prefix string) ([]string, error) {
	body, err := json.Marshal(map[string]any{
		"prefix": "",
		"search": prefix,
		"limit":  listLimit,
		"offset": 0,
	})
	if err != nil {
		return nil, fmt.Errorf("supabase: marshal list request: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, fmt.Sprintf("%s/object/list/%s", c.storageURL, bucket), jsonBody(body), nil)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp) {
		return nil, fmt.Errorf("supabase: invalid list response")
	}
	var names []string
	for _, n := range gjson.GetBytes(resp, "#.name").Array() {
		names = append(names, n.String())
	}
	return names, nil
}

// PublicURL returns the unauthenticated address of bucket/name. It does not
// check that the object exists.
func (c *Client) PublicURL(bucket, name string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.storageURL, bucket, url.PathEscape(name))
}
