package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// InitializeParams are the params of the initialize method. Only options is
// interpreted; every other member is kept in Extra and ignored.
type InitializeParams struct {
	Options *InitializeOptions
	Extra   map[string]json.RawMessage
}

// InitializeOptions carries server options sent by the client.
type InitializeOptions struct {
	// CommitFormat is nil when the client did not send a string commitFormat.
	CommitFormat *string
	Extra        map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (p *InitializeParams) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	if raw, ok := fields["options"]; ok {
		delete(fields, "options")
		if !isNull(raw) {
			var opts InitializeOptions
			if err := json.Unmarshal(raw, &opts); err != nil {
				return fmt.Errorf("options: %w", err)
			}
			p.Options = &opts
		}
	}
	p.Extra = fields
	return nil
}

// UnmarshalJSON implements json.Unmarshaler. A commitFormat that is not a
// string is ignored rather than rejected.
func (o *InitializeOptions) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	if raw, ok := fields["commitFormat"]; ok {
		var s string
		if json.Unmarshal(raw, &s) == nil && !isNull(raw) {
			o.CommitFormat = &s
			delete(fields, "commitFormat")
		}
	}
	o.Extra = fields
	return nil
}

// DecodeInitializeParams decodes initialize params. Absent params yield an empty value.
func DecodeInitializeParams(raw json.RawMessage) (*InitializeParams, error) {
	var p InitializeParams
	if len(raw) == 0 {
		return &p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: initialize: %w", ErrInvalidParams, err)
	}
	return &p, nil
}

// CallToolParams are the params of tools/call.
type CallToolParams struct {
	Name string
	// Arguments is nil when the client sent none.
	Arguments json.RawMessage
	Extra     map[string]json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler. name is required and must be a string.
func (p *CallToolParams) UnmarshalJSON(data []byte) error {
	fields, err := objectFields(data)
	if err != nil {
		return err
	}
	raw, ok := fields["name"]
	if !ok {
		return fmt.Errorf("missing field name")
	}
	if isNull(raw) {
		return fmt.Errorf("name must be a string")
	}
	if err := json.Unmarshal(raw, &p.Name); err != nil {
		return fmt.Errorf("name: %w", err)
	}
	delete(fields, "name")

	if args, ok := fields["arguments"]; ok {
		delete(fields, "arguments")
		if !isNull(args) {
			p.Arguments = args
		}
	}
	p.Extra = fields
	return nil
}

// DecodeCallToolParams decodes tools/call params. Absent params are an error.
func DecodeCallToolParams(raw json.RawMessage) (*CallToolParams, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: tools/call: params required", ErrInvalidParams)
	}
	var p CallToolParams
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: tools/call: %w", ErrInvalidParams, err)
	}
	return &p, nil
}

// ExecuteCommitArgs are the arguments of the execute_commit tool.
type ExecuteCommitArgs struct {
	Message string
}

// DecodeExecuteCommitArgs reads arguments.message leniently: anything other
// than a string message, including absent arguments, yields an empty message.
func DecodeExecuteCommitArgs(raw json.RawMessage) ExecuteCommitArgs {
	var args ExecuteCommitArgs
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil {
		return args
	}
	if msg, ok := fields["message"]; ok {
		_ = json.Unmarshal(msg, &args.Message)
	}
	return args
}

func objectFields(data []byte) (map[string]json.RawMessage, error) {
	if isNull(data) {
		return nil, fmt.Errorf("expected object, got null")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

func isNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
