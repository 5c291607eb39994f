package mcpjsonrpc

import "encoding/json"

// Based on JSON-RPC 2.0 Specification: https://www.jsonrpc.org/specification

// Request represents a JSON-RPC request object.
type Request struct {
	Version string          `json:"jsonrpc"`          // MUST be "2.0"
	Method  string          `json:"method"`           // Method to be invoked
	Params  json.RawMessage `json:"params,omitempty"` // Parameters, decoded per method
	ID      interface{}     `json:"id,omitempty"`     // Request identifier (string, number, or null)
}

// Response represents a JSON-RPC response object.
type Response struct {
	Version string      `json:"jsonrpc"`          // MUST be "2.0"
	Result  interface{} `json:"result,omitempty"` // Required on success
	Error   *Error      `json:"error,omitempty"`  // Required on error
	ID      interface{} `json:"id"`               // Must match request ID (or null if could not be determined)
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int         `json:"code"`           // Error code
	Message string      `json:"message"`        // Error message
	Data    interface{} `json:"data,omitempty"` // Additional data about the error
}

// Error codes (subset of the JSON-RPC 2.0 predefined codes)
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// MethodCallTool is the only method served by the admin endpoint.
const MethodCallTool = "tools/call"

// CallToolParams defines the structure for the "params" field
// when the method is "tools/call".
type CallToolParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// CallToolResult is the "result" of a successful "tools/call" request. Tool failures are
// reported with IsError rather than as JSON-RPC errors.
type CallToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// NewError builds an error response for id.
func NewError(id interface{}, code int, message string) Response {
	return Response{Version: "2.0", Error: &Error{Code: code, Message: message}, ID: id}
}
