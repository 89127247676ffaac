package backend

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/and161185/ticketgate/internal/mcp"
)

// Tools returns the tool set registered on every new session transport.
// Each wrapper decodes its arguments and returns the backend's JSON verbatim.
func Tools(c *Client) []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "get_issue",
			Description: "Fetch a single issue by its key.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"key":{"type":"string"}},"required":["key"]}`),
			Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
				var p struct {
					Key string `json:"key"`
				}
				if err := json.Unmarshal(args, &p); err != nil || p.Key == "" {
					return nil, fmt.Errorf("get_issue: key is required")
				}
				return c.GetIssue(ctx, p.Key)
			},
		},
		{
			Name:        "search_issues",
			Description: "Search issues with a JQL query.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"jql":{"type":"string"},"maxResults":{"type":"integer"}},"required":["jql"]}`),
			Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
				var p struct {
					JQL        string `json:"jql"`
					MaxResults int    `json:"maxResults"`
				}
				if err := json.Unmarshal(args, &p); err != nil || p.JQL == "" {
					return nil, fmt.Errorf("search_issues: jql is required")
				}
				return c.SearchIssues(ctx, p.JQL, p.MaxResults)
			},
		},
		{
			Name:        "create_issue",
			Description: "Create an issue from raw field data.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"fields":{"type":"object"}},"required":["fields"]}`),
			Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
				var p struct {
					Fields json.RawMessage `json:"fields"`
				}
				if err := json.Unmarshal(args, &p); err != nil || len(p.Fields) == 0 {
					return nil, fmt.Errorf("create_issue: fields are required")
				}
				return c.CreateIssue(ctx, p.Fields)
			},
		},
		{
			Name:        "add_comment",
			Description: "Add a comment to an issue.",
			InputSchema: json.RawMessage(`{"type":"object","properties":{"key":{"type":"string"},"body":{"type":"string"}},"required":["key","body"]}`),
			Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
				var p struct {
					Key  string `json:"key"`
					Body string `json:"body"`
				}
				if err := json.Unmarshal(args, &p); err != nil || p.Key == "" || p.Body == "" {
					return nil, fmt.Errorf("add_comment: key and body are required")
				}
				return c.AddComment(ctx, p.Key, p.Body)
			},
		},
	}
}
