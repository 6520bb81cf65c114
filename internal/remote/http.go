package remote

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

	apperrors "github.com/clicknote/clicknote-core/internal/errors"
	"github.com/clicknote/clicknote-core/internal/logging"
)

// Client is an HTTP implementation of Store against a PostgREST-style table
// API: each table is a route, equality filters are query parameters, and
// writes carry a bearer key.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a Client for the given base URL and API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Select implements Store.
func (c *Client) Select(ctx context.Context, table string, filters Filters) ([]Row, error) {
	resp, err := c.do(ctx, http.MethodGet, table, filters, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "failed to decode select response", err)
	}
	return rows, nil
}

// Insert implements Store.
func (c *Client) Insert(ctx context.Context, table string, row Row) (Row, error) {
	resp, err := c.do(ctx, http.MethodPost, table, nil, row)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	// The backend returns the stored representation as a one-element array.
	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil || len(rows) == 0 {
		// Some deployments return 201 with an empty body; echo the input.
		return row, nil
	}
	return rows[0], nil
}

// Update implements Store.
func (c *Client) Update(ctx context.Context, table string, filters Filters, patch Row) ([]Row, error) {
	resp, err := c.do(ctx, http.MethodPatch, table, filters, patch)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var rows []Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "failed to decode update response", err)
	}
	return rows, nil
}

// Delete implements Store.
func (c *Client) Delete(ctx context.Context, table string, filters Filters) error {
	resp, err := c.do(ctx, http.MethodDelete, table, filters, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

// FireBeacon posts the payload to the teardown-sync endpoint without waiting
// for, or reporting, the outcome. Used only by the shutdown flush; durability
// never depends on it.
func (c *Client) FireBeacon(path string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)

		resp, err := c.http.Do(req)
		if err != nil {
			logging.Debug("beacon send failed", map[string]interface{}{"error": err.Error()})
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
}

// do builds and executes one table-scoped request.
func (c *Client) do(ctx context.Context, method, table string, filters Filters, body interface{}) (*http.Response, error) {
	u, err := url.Parse(c.baseURL + "/" + url.PathEscape(table))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "invalid table URL", err)
	}

	q := u.Query()
	for col, val := range filters {
		q.Set(col, "eq."+val)
	}
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrRemote, "failed to encode request body", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "failed to build request", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=representation")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, fmt.Sprintf("%s %s failed", method, table), err)
	}
	return resp, nil
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// checkStatus maps HTTP failures onto the core error taxonomy. Callers treat
// all three classes identically (enqueue fallback), the codes only feed logs.
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.ErrUnauthenticated, drainBody(resp))
	case resp.StatusCode < 500:
		return apperrors.New(apperrors.ErrRemoteRejected, drainBody(resp))
	default:
		return apperrors.New(apperrors.ErrRemote, drainBody(resp))
	}
}

func drainBody(resp *http.Response) string {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := strings.TrimSpace(string(data))
	if msg == "" {
		msg = resp.Status
	}
	return msg
}
