// Package remote mirrors local state to a PostgREST-style row store. Each
// entity has its own request functions; all of them are scoped to the
// configured student.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nhle/winterbreak/internal/model"
)

// Client is a thin HTTP client for the row store REST API. It handles key
// authentication, JSON marshaling, and retry with exponential backoff on
// HTTP 429.
type Client struct {
	baseURL    string
	key        string
	studentID  string
	enabled    bool
	httpClient *http.Client
	maxRetries int
	now        func() time.Time
}

// NewClient creates a client from cfg. When the URL or key is unusable the
// client is disabled and every call returns ErrDisabled.
func NewClient(cfg model.RemoteConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	studentID := cfg.StudentID
	if studentID == "" {
		studentID = model.DefaultStudentID
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		key:        cfg.Key,
		studentID:  studentID,
		enabled:    model.ValidRemoteURL(cfg.URL) && model.ValidRemoteKey(cfg.Key),
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 3,
		now:        time.Now,
	}
}

// Enabled reports whether the client talks to a remote at all.
func (c *Client) Enabled() bool {
	return c != nil && c.enabled
}

// StudentID returns the student every row is scoped to.
func (c *Client) StudentID() string {
	return c.studentID
}

// Ping checks that the row store answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	var rows []struct {
		ID string `json:"id"`
	}
	q := url.Values{}
	q.Set("select", "id")
	q.Set("limit", "1")
	err := c.do(ctx, request{method: http.MethodGet, table: "students", query: q}, &rows)
	if errors.Is(err, ErrTableMissing) {
		// The server answered; a missing table is not a connectivity problem.
		return nil
	}
	return err
}

// request describes one row store call.
type request struct {
	method string
	table  string
	query  url.Values
	body   any
	prefer []string
}

// eq returns a filter set with col=eq.value pairs. pairs alternates column
// and value.
func eq(pairs ...string) url.Values {
	q := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		q.Set(pairs[i], "eq."+pairs[i+1])
	}
	return q
}

func (c *Client) selectRows(ctx context.Context, table string, q url.Values, out any) error {
	if q.Get("select") == "" {
		q.Set("select", "*")
	}
	return c.do(ctx, request{method: http.MethodGet, table: table, query: q}, out)
}

func (c *Client) insert(ctx context.Context, table string, rows any, out any) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		table:  table,
		query:  url.Values{},
		body:   rows,
		prefer: []string{"return=representation"},
	}, out)
}

func (c *Client) upsert(ctx context.Context, table, onConflict string, rows any, out any) error {
	q := url.Values{}
	q.Set("on_conflict", onConflict)
	return c.do(ctx, request{
		method: http.MethodPost,
		table:  table,
		query:  q,
		body:   rows,
		prefer: []string{"return=representation", "resolution=merge-duplicates"},
	}, out)
}

func (c *Client) update(ctx context.Context, table string, q url.Values, patch any, out any) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		table:  table,
		query:  q,
		body:   patch,
		prefer: []string{"return=representation"},
	}, out)
}

func (c *Client) remove(ctx context.Context, table string, q url.Values) error {
	return c.do(ctx, request{method: http.MethodDelete, table: table, query: q}, nil)
}

// count returns the number of rows matching q using an exact count.
func (c *Client) count(ctx context.Context, table string, q url.Values) (int, error) {
	if !c.Enabled() {
		return 0, ErrDisabled
	}
	q.Set("select", "id")

	resp, _, err := c.send(ctx, request{
		method: http.MethodHead,
		table:  table,
		query:  q,
		prefer: []string{"count=exact"},
	})
	if err != nil {
		return 0, err
	}
	return parseContentRange(resp.Header.Get("Content-Range"))
}

// single unwraps a representation list into its first row.
func single[T any](rows []T, table string) (T, error) {
	var zero T
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s: %w", table, ErrNotFound)
	}
	return rows[0], nil
}

// do sends req and unmarshals the JSON response into result when non-nil.
func (c *Client) do(ctx context.Context, req request, result any) error {
	if !c.Enabled() {
		return ErrDisabled
	}

	resp, respBody, err := c.send(ctx, req)
	if err != nil {
		return err
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", req.method, req.table, err)
	}
	return nil
}

// send is the core HTTP method that builds the request, handles auth and
// rate limiting with exponential backoff, and maps error responses.
func (c *Client) send(ctx context.Context, req request) (*http.Response, []byte, error) {
	endpoint := c.baseURL + "/rest/v1/" + req.table
	if len(req.query) > 0 {
		endpoint += "?" + req.query.Encode()
	}

	var payload []byte
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		var bodyReader io.Reader
		if payload != nil {
			bodyReader = bytes.NewReader(payload)
		}

		httpReq, err := http.NewRequestWithContext(ctx, req.method, endpoint, bodyReader)
		if err != nil {
			return nil, nil, fmt.Errorf("creating request: %w", err)
		}

		httpReq.Header.Set("apikey", c.key)
		httpReq.Header.Set("Authorization", "Bearer "+c.key)
		httpReq.Header.Set("Accept", "application/json")
		if payload != nil {
			httpReq.Header.Set("Content-Type", "application/json")
		}
		if len(req.prefer) > 0 {
			httpReq.Header.Set("Prefer", strings.Join(req.prefer, ","))
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return nil, nil, fmt.Errorf("executing request %s %s: %w", req.method, req.table, err)
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return nil, nil, fmt.Errorf("reading response body: %w", readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = fmt.Errorf("rate limited (429) on %s %s", req.method, req.table)

			select {
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, nil, decodeAPIError(req, resp.StatusCode, respBody)
		}

		return resp, respBody, nil
	}

	return nil, nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

// errorBody is the PostgREST error document.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func decodeAPIError(req request, status int, body []byte) error {
	apiErr := &APIError{Method: req.method, Table: req.table, Status: status}

	var eb errorBody
	if json.Unmarshal(body, &eb) == nil && (eb.Code != "" || eb.Message != "") {
		apiErr.Code = eb.Code
		apiErr.Message = eb.Message
		if eb.Details != "" {
			apiErr.Message += " (" + eb.Details + ")"
		}
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}

// parseContentRange extracts the total from "0-9/42" or "*/42".
func parseContentRange(header string) (int, error) {
	i := strings.LastIndexByte(header, '/')
	if i < 0 {
		return 0, fmt.Errorf("missing count in Content-Range %q", header)
	}
	total := header[i+1:]
	if total == "*" {
		return 0, fmt.Errorf("server did not report an exact count")
	}
	n, err := strconv.Atoi(total)
	if err != nil {
		return 0, fmt.Errorf("parsing Content-Range %q: %w", header, err)
	}
	return n, nil
}
