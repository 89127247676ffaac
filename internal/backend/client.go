// Package backend is the ticketing backend collaborator: a thin REST client
// bound to one credential triple, plus the tool wrappers a session transport
// registers. No retries and no response reshaping happen here; transient
// backend failures propagate to the caller.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/ticketgate/internal/model"
)

// Client calls the ticketing backend's REST API with basic auth.
type Client struct {
	baseURL  string
	username string
	secret   string
	http     *http.Client
}

// NewClient binds a client to resolved credentials. The HTTP client's own
// timeout is the only bound on a hung backend call.
func NewClient(creds model.BackendCredentials, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:  creds.BaseURL,
		username: creds.Username,
		secret:   creds.Secret,
		http:     httpClient,
	}
}

// do issues one REST call and returns the raw JSON response body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload any) (json.RawMessage, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.username, c.secret)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("backend %s %s: status %d: %s", method, path, resp.StatusCode, truncate(out, 256))
	}
	if len(out) == 0 {
		out = []byte(`{}`)
	}
	return out, nil
}

// GetIssue fetches one issue by key.
func (c *Client) GetIssue(ctx context.Context, key string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(key), nil, nil)
}

// SearchIssues runs a JQL search.
func (c *Client) SearchIssues(ctx context.Context, jql string, maxResults int) (json.RawMessage, error) {
	q := url.Values{}
	q.Set("jql", jql)
	if maxResults > 0 {
		q.Set("maxResults", strconv.Itoa(maxResults))
	}
	return c.do(ctx, http.MethodGet, "/rest/api/2/search", q, nil)
}

// CreateIssue creates an issue from raw field data.
func (c *Client) CreateIssue(ctx context.Context, fields json.RawMessage) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/rest/api/2/issue", nil, map[string]json.RawMessage{"fields": fields})
}

// AddComment appends a comment to an issue.
func (c *Client) AddComment(ctx context.Context, key, text string) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, "/rest/api/2/issue/"+url.PathEscape(key)+"/comment", nil,
		map[string]string{"body": text})
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
