package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/altinukshini/scale-tui/internal/transform"
)

// Page is one page of a paginated list endpoint.
type Page struct {
	Count    int
	Next     string
	Previous string
	Rows     []transform.Row
}

// Pages returns how many pages of size exist.
func (p Page) Pages(size int) int {
	if size <= 0 || p.Count == 0 {
		return 1
	}
	return (p.Count + size - 1) / size
}

type pageEnvelope struct {
	Count    int             `json:"count"`
	Next     *string         `json:"next"`
	Previous *string         `json:"previous"`
	Results  json.RawMessage `json:"results"`
}

// List fetches a list endpoint. Rows are kept raw; turning them into display
// records is the caller's job.
func (c *Client) List(ctx context.Context, path string, q url.Values) (*Page, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, q, &raw); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	return decodePage(raw)
}

func decodePage(raw json.RawMessage) (*Page, error) {
	trimmed := bytes.TrimSpace(raw)
	// A few endpoints return a bare array.
	if len(trimmed) > 0 && trimmed[0] == '[' {
		rows, err := transform.DecodeRows(trimmed)
		if err != nil {
			return nil, err
		}
		return &Page{Count: len(rows), Rows: rows}, nil
	}

	var env pageEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("decode page: %w", err)
	}
	page := &Page{Count: env.Count}
	if env.Next != nil {
		page.Next = *env.Next
	}
	if env.Previous != nil {
		page.Previous = *env.Previous
	}
	if len(env.Results) > 0 && string(env.Results) != "null" {
		rows, err := transform.DecodeRows(env.Results)
		if err != nil {
			return nil, err
		}
		page.Rows = rows
	}
	return page, nil
}

// GetRecord fetches a single object, e.g. "recipes/12/", as a raw row.
func (c *Client) GetRecord(ctx context.Context, path string) (transform.Row, error) {
	var row transform.Row
	if err := c.Get(ctx, path, nil, &row); err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	return row, nil
}
