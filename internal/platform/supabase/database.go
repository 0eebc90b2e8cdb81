package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Insert adds row to table and decodes the stored representation into out.
func (c *Client) Insert(ctx context.Context, table string, row any, out any) error {
	body, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("supabase: marshal row: %w", err)
	}
	resp, err := c.do(ctx, http.MethodPost, c.restURL+"/"+table, jsonBody(body), map[string]string{
		"Prefer": "return=representation",
	})
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	// PostgREST answers inserts with an array of the inserted rows
	first := gjson.GetBytes(resp, "0")
	if !first.Exists() {
		return fmt.Errorf("supabase: insert into %s returned no rows", table)
	}
	if err := json.Unmarshal([]byte(first.Raw), out); err != nil {
		return fmt.Errorf("supabase: unmarshal inserted row: %w", err)
	}
	return nil
}
