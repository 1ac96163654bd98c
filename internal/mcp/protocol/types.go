// Package protocol holds the JSON-RPC 2.0 and MCP message shapes shared by
// the server, its transports and the progress publisher.
package protocol

import (
	"encoding/json"

	"github.com/cloo-solutions/jobspy-mcp/internal/domain"
)

// Version is the MCP protocol revision this server speaks.
const Version = "2024-11-05"

// JSONRPCVersion is the only accepted "jsonrpc" value.
const JSONRPCVersion = "2.0"

// Method names.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodCancelled   = "notifications/cancelled"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
	MethodPromptsList = "prompts/list"
	MethodPromptsGet  = "prompts/get"
	MethodProgress    = "notifications/progress"
)

// Request is a JSON-RPC request, or a notification when ID is absent.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0 || string(r.ID) == "null"
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  any             `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// NewResult builds a success response for id.
func NewResult(id json.RawMessage, result any) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: orNull(id), Result: result}
}

// NewError builds an error response for id.
func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{JSONRPC: JSONRPCVersion, ID: orNull(id), Error: &Error{Code: code, Message: message}}
}

func orNull(id json.RawMessage) json.RawMessage {
	if len(id) == 0 {
		return json.RawMessage("null")
	}
	return id
}

// Notification is a one-way server message.
type Notification struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// NewNotification builds a notification.
func NewNotification(method string, params any) *Notification {
	return &Notification{JSONRPC: JSONRPCVersion, Method: method, Params: params}
}

// Error is a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Standard JSON-RPC error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Implementation names a client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities,omitempty"`
	ClientInfo      Implementation `json:"clientInfo"`
}

type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

type ServerCapabilities struct {
	Tools   *ListChangedCapability `json:"tools,omitempty"`
	Prompts *ListChangedCapability `json:"prompts,omitempty"`
	Logging map[string]any         `json:"logging,omitempty"`
}

type ListChangedCapability struct {
	ListChanged bool `json:"listChanged"`
}

// Tool describes one callable tool.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// Meta carries request metadata such as the client's progress token.
type Meta struct {
	ProgressToken any `json:"progressToken,omitempty"`
}

type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Meta      *Meta          `json:"_meta,omitempty"`
}

// CallToolResult is the tools/call result. IsError is always serialized.
type CallToolResult struct {
	IsError bool       `json:"isError"`
	Content []Content  `json:"content,omitempty"`
	Error   *ToolError `json:"error,omitempty"`
}

// ToolError is the structured failure of a tool call.
type ToolError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Fields  any    `json:"fields,omitempty"`
}

// Content is one piece of tool or prompt output.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// TextContent wraps text as content.
func TextContent(text string) Content {
	return Content{Type: "text", Text: text}
}

// Prompt describes a prompt template.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// ProgressParams is the payload of notifications/progress: the MCP progress
// fields with the search progress event flattened alongside.
type ProgressParams struct {
	ProgressToken any `json:"progressToken,omitempty"`
	Total         int `json:"total"`
	domain.ProgressEvent
}
