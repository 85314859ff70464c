// Package protocol implements the line-delimited JSON-RPC message codec used
// by the MCP stdio transport.
//
// Every request line decodes into a Request; every response is encoded into a
// single line terminated by exactly one '\n'. Params are modelled per method
// (InitializeParams, CallToolParams) and keep unknown fields in an Extra map.
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// Version is the JSON-RPC version written on every response.
const Version = mcp.JSONRPC_VERSION

var (
	// ErrInvalidRequest is returned when a line is valid JSON but is not a request object.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrInvalidParams is returned when the params of a method cannot be decoded.
	ErrInvalidParams = errors.New("invalid params")
)

// Request is a decoded JSON-RPC request or notification.
type Request struct {
	JSONRPC string
	Method  string
	// Params is nil when the request carried no params.
	Params json.RawMessage
	// ID is nil for notifications. An explicit null id is kept as "null" and
	// still makes the message a request.
	ID json.RawMessage
}

// IsNotification reports whether the request carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// ErrorObject is the JSON-RPC error member.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Response is a JSON-RPC response. Exactly one of Result and Error is set.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type wireRequest struct {
	JSONRPC *string         `json:"jsonrpc"`
	Method  *string         `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// Decode parses one input line into a Request.
func Decode(line []byte) (*Request, error) {
	var w wireRequest
	if err := json.Unmarshal(line, &w); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if w.JSONRPC == nil {
		return nil, fmt.Errorf("%w: missing field jsonrpc", ErrInvalidRequest)
	}
	if w.Method == nil {
		return nil, fmt.Errorf("%w: missing field method", ErrInvalidRequest)
	}

	req := &Request{
		JSONRPC: *w.JSONRPC,
		Method:  *w.Method,
		ID:      w.ID,
	}
	if len(w.Params) > 0 && !bytes.Equal(w.Params, []byte("null")) {
		req.Params = w.Params
	}
	return req, nil
}

// NewResult builds a success response for id carrying v as the result.
func NewResult(id json.RawMessage, v any) (*Response, error) {
	raw, err := marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &Response{JSONRPC: Version, ID: id, Result: bytes.TrimRight(raw, "\n")}, nil
}

// NewError builds an error response for id.
func NewError(id json.RawMessage, code int, message string) *Response {
	return &Response{
		JSONRPC: Version,
		ID:      id,
		Error:   &ErrorObject{Code: code, Message: message},
	}
}

// Encode serializes resp as a single line ending in '\n'.
func Encode(resp *Response) ([]byte, error) {
	if resp.JSONRPC == "" {
		resp.JSONRPC = Version
	}
	if len(resp.ID) == 0 {
		resp.ID = json.RawMessage("null")
	}
	out, err := marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// DecodeResponse parses a response line produced by Encode.
func DecodeResponse(line []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Result == nil && resp.Error == nil {
		return nil, fmt.Errorf("%w: response has neither result nor error", ErrInvalidRequest)
	}
	return &resp, nil
}

// marshal encodes v without HTML escaping; the output ends with '\n'.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
