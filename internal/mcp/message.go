// Package mcp implements the protocol surface of the gateway: JSON-RPC 2.0
// message shapes, the initialize handshake and a per-session server
// transport with a tool registry.
package mcp

import "encoding/json"

// ProtocolVersion is the handshake revision this gateway speaks.
const ProtocolVersion = "2025-03-26"

// Methods the transport recognizes.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// JSON-RPC error codes. Protocol-layer failures always carry one of these,
// independent of the outer HTTP status.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603

	// CodeUnknownSession signals a session id the actor does not know;
	// the client must re-initialize.
	CodeUnknownSession = -32001
	// CodeUnauthorized is the protocol-layer mirror of an auth rejection.
	CodeUnauthorized = -32000
)

// Request is one inbound JSON-RPC message. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the message expects no response.
func (r *Request) IsNotification() bool { return len(r.ID) == 0 || string(r.ID) == "null" }

// Response is one outbound JSON-RPC message.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is the protocol's structured error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ParseRequest decodes a message body. Malformed JSON or a missing method
// yields a protocol error rather than a Go error so the caller can ship it
// back in-band.
func ParseRequest(body []byte) (*Request, *Error) {
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, &Error{Code: CodeParse, Message: "parse error"}
	}
	if req.JSONRPC != "2.0" || req.Method == "" {
		return nil, &Error{Code: CodeInvalidRequest, Message: "invalid request"}
	}
	return &req, nil
}

// NewResponse builds a success response for req.
func NewResponse(req *Request, result any) *Response {
	return &Response{JSONRPC: "2.0", ID: req.ID, Result: result}
}

// NewErrorResponse builds an error response; req may be nil when the request
// never parsed.
func NewErrorResponse(req *Request, e *Error) *Response {
	resp := &Response{JSONRPC: "2.0", Error: e}
	if req != nil {
		resp.ID = req.ID
	}
	return resp
}

// InitializeResult is the handshake response payload.
type InitializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    Capabilities `json:"capabilities"`
	ServerInfo      ServerInfo   `json:"serverInfo"`
}

// Capabilities advertises what the server supports.
type Capabilities struct {
	Tools struct{} `json:"tools"`
}

// ServerInfo identifies the server implementation.
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}
