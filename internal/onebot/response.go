package onebot

import (
	"encoding/json"
	"fmt"
)

// Stream markers carried in the "stream" field of a response.
const (
	NormalAction = "normal-action"
	StreamAction = "stream-action"
)

// type values inside streamed response payloads.
const (
	StreamTypeStream   = "stream"
	StreamTypeResponse = "response"
	StreamTypeError    = "error"
)

// data_type values inside streamed response payloads.
const (
	StreamDataChunk    = "data_chunk"
	StreamFileChunk    = "file_chunk"
	StreamFileInfo     = "file_info"
	StreamDataComplete = "data_complete"
	StreamFileComplete = "file_complete"
	StreamError        = "error"
)

// Response is an action reply correlated by its echo token. A frame
// without post_type but with echo decodes to this type.
type Response struct {
	Status  string          `json:"status"`
	Retcode int64           `json:"retcode"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
	Wording string          `json:"wording,omitempty"`
	Echo    string          `json:"echo,omitempty"`
	Stream  string          `json:"stream,omitempty"`
}

// Variant implements Event.
func (*Response) Variant() string { return VariantResponse }

// Self implements Event.
func (*Response) Self() int64 { return 0 }

// Unix implements Event.
func (*Response) Unix() int64 { return 0 }

// OK reports whether the upstream accepted the action. "async" counts
// as accepted: the action was queued without a result.
func (r *Response) OK() bool {
	return r.Status == "ok" || r.Status == "async"
}

// IsStream reports whether the response belongs to a streamed action.
func (r *Response) IsStream() bool { return r.Stream == StreamAction }

// Err returns nil for accepted responses and an *ActionError otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	return &ActionError{
		Status:  r.Status,
		Retcode: r.Retcode,
		Message: r.Message,
		Wording: r.Wording,
	}
}

// DecodeData unmarshals the data payload into v. Responses with empty
// or null data leave v untouched.
func (r *Response) DecodeData(v any) error {
	if len(r.Data) == 0 || string(r.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// StreamData is the payload of one frame of a streamed action.
type StreamData struct {
	Type     string `json:"type"`
	DataType string `json:"data_type"`
	Data     string `json:"data,omitempty"`
	Message  string `json:"message,omitempty"`
}

// StreamPayload parses the data payload of a streamed response frame.
func (r *Response) StreamPayload() (*StreamData, error) {
	var sd StreamData
	if len(r.Data) == 0 {
		return &sd, nil
	}
	if err := json.Unmarshal(r.Data, &sd); err != nil {
		return nil, fmt.Errorf("failed to decode stream payload: %w", err)
	}
	return &sd, nil
}

// Terminal reports whether the frame closes its stream.
func (d *StreamData) Terminal() bool {
	return d.DataType == StreamDataComplete || d.DataType == StreamFileComplete
}

// ActionError reports a non-ok action response.
type ActionError struct {
	Status  string
	Retcode int64
	Message string
	Wording string
}

func (e *ActionError) Error() string {
	detail := e.Wording
	if detail == "" {
		detail = e.Message
	}
	if detail == "" {
		return fmt.Sprintf("action failed: status=%s retcode=%d", e.Status, e.Retcode)
	}
	return fmt.Sprintf("action failed: status=%s retcode=%d: %s", e.Status, e.Retcode, detail)
}
