// Package airtable is a minimal client for the Airtable REST API, covering
// the operations the settlement pipeline needs: filtered list, read by id,
// create, and partial patch. It knows nothing about goals or confirmations;
// field mapping lives in the repository layer.
package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Error is a non-2xx response from the store. The body is kept verbatim
// because Airtable puts the useful diagnostics there.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("airtable: status %d: %s", e.StatusCode, e.Body)
}

// IsNotFound reports whether err is a store 404.
func IsNotFound(err error) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

// Record is one row of a table: an opaque store-assigned ID plus a partial
// field map. Fields absent from the map are untouched by a patch.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

type Client struct {
	baseURL string
	baseID  string
	apiKey  string
	http    *http.Client
}

func NewClient(baseID, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		baseID:  baseID,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests and for
// Airtable-compatible stores.
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = u
	return c
}

// ListRecords returns all records of a table matching the filter formula
// (empty formula means all records), following pagination offsets until the
// store stops returning one. The result is the snapshot the sweep operates
// on; records created afterwards belong to the next invocation.
func (c *Client) ListRecords(ctx context.Context, table, formula string) ([]Record, error) {
	var records []Record
	offset := ""

	for {
		q := url.Values{}
		if formula != "" {
			q.Set("filterByFormula", formula)
		}
		if offset != "" {
			q.Set("offset", offset)
		}

		endpoint := c.tableURL(table)
		if len(q) > 0 {
			endpoint += "?" + q.Encode()
		}

		var page struct {
			Records []Record `json:"records"`
			Offset  string   `json:"offset"`
		}
		err := c.do(ctx, http.MethodGet, endpoint, nil, &page)
		if err != nil {
			return nil, err
		}

		records = append(records, page.Records...)

		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

func (c *Client) GetRecord(ctx context.Context, table, id string) (*Record, error) {
	var rec Record
	err := c.do(ctx, http.MethodGet, c.tableURL(table)+"/"+url.PathEscape(id), nil, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) CreateRecord(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	var rec Record
	body := map[string]any{"fields": fields}
	err := c.do(ctx, http.MethodPost, c.tableURL(table), body, &rec)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// PatchRecord performs a partial update: only the named fields change.
// It is not atomic with any prior read.
func (c *Client) PatchRecord(ctx context.Context, table, id string, fields map[string]any) error {
	body := map[string]any{"fields": fields}
	return c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+url.PathEscape(id), body, nil)
}

func (c *Client) tableURL(table string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(table))
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("store request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read store response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if out != nil {
		err = json.Unmarshal(respBody, out)
		if err != nil {
			return fmt.Errorf("failed to decode store response: %w", err)
		}
	}
	return nil
}
