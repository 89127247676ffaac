package mcp

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool is one callable operation exposed over the protocol.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)
}

// toolDescriptor is the wire shape of a tool in tools/list.
type toolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// callParams is the wire shape of tools/call params.
type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// content is one block of a tool result.
type content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// callResult is the wire shape of a tools/call result. Tool-level failures
// travel as IsError payloads, not protocol errors.
type callResult struct {
	Content []content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Transport processes the protocol conversation of one session. It is not
// safe for concurrent use; the owning session actor serializes all calls.
type Transport struct {
	info    ServerInfo
	tools   map[string]Tool
	order   []string
	onClose func()
	closed  bool
}

// NewTransport constructs a transport with the given tool set. onClose, if
// non-nil, runs once when the transport closes.
func NewTransport(info ServerInfo, tools []Tool, onClose func()) *Transport {
	t := &Transport{info: info, tools: make(map[string]Tool, len(tools)), onClose: onClose}
	for _, tool := range tools {
		if _, dup := t.tools[tool.Name]; dup {
			continue
		}
		t.tools[tool.Name] = tool
		t.order = append(t.order, tool.Name)
	}
	return t
}

// Handle processes one message. The returned response is nil for
// notifications.
func (t *Transport) Handle(ctx context.Context, req *Request) *Response {
	if t.closed {
		return NewErrorResponse(req, &Error{Code: CodeInvalidRequest, Message: "transport closed"})
	}

	switch req.Method {
	case MethodInitialize:
		return NewResponse(req, InitializeResult{
			ProtocolVersion: ProtocolVersion,
			ServerInfo:      t.info,
		})
	case MethodInitialized:
		return nil
	case MethodToolsList:
		ds := make([]toolDescriptor, 0, len(t.order))
		for _, name := range t.order {
			tool := t.tools[name]
			ds = append(ds, toolDescriptor{Name: tool.Name, Description: tool.Description, InputSchema: tool.InputSchema})
		}
		return NewResponse(req, map[string]any{"tools": ds})
	case MethodToolsCall:
		return t.call(ctx, req)
	default:
		if req.IsNotification() {
			return nil
		}
		return NewErrorResponse(req, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method not found: %s", req.Method)})
	}
}

func (t *Transport) call(ctx context.Context, req *Request) *Response {
	var p callParams
	if err := json.Unmarshal(req.Params, &p); err != nil || p.Name == "" {
		return NewErrorResponse(req, &Error{Code: CodeInvalidParams, Message: "invalid tool call params"})
	}
	tool, ok := t.tools[p.Name]
	if !ok {
		return NewErrorResponse(req, &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("unknown tool: %s", p.Name)})
	}

	out, err := tool.Handler(ctx, p.Arguments)
	if err != nil {
		return NewResponse(req, callResult{
			Content: []content{{Type: "text", Text: err.Error()}},
			IsError: true,
		})
	}
	return NewResponse(req, callResult{
		Content: []content{{Type: "text", Text: string(out)}},
	})
}

// Close releases the session's backend binding. Idempotent.
func (t *Transport) Close() {
	if t.closed {
		return
	}
	t.closed = true
	if t.onClose != nil {
		t.onClose()
	}
}
