package apierror

import (
	"bytes"
	"encoding/json"
)

// Body is the nested error object of the canonical error shape.
type Body struct {
	Code      Code           `json:"code"`
	Message   string         `json:"message"`
	Retryable bool           `json:"retryable"`
	Details   map[string]any `json:"details,omitempty"`
}

// Response renders e in the canonical {"error": {...}} shape.
func (e *AppError) Response() map[string]Body {
	return map[string]Body{"error": {
		Code:      e.Code,
		Message:   e.Message,
		Retryable: e.Code.Retryable(),
		Details:   e.Details,
	}}
}

// Payload is what ParsePayload could recover from an error body. Code is
// empty for the flat shapes.
type Payload struct {
	Code    Code
	Message string
}

// ParsePayload extracts a code and message from any of the error body
// shapes. ok is false when the body is blank, not JSON, or has no message.
func ParsePayload(body []byte) (Payload, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Payload{}, false
	}

	var raw struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if json.Unmarshal(body, &raw) != nil {
		return Payload{}, false
	}

	if len(raw.Error) > 0 {
		switch raw.Error[0] {
		case '{':
			var nested Body
			if json.Unmarshal(raw.Error, &nested) == nil && nested.Message != "" {
				return Payload{Code: nested.Code, Message: nested.Message}, true
			}
		case '"':
			var flat string
			if json.Unmarshal(raw.Error, &flat) == nil && flat != "" {
				return Payload{Message: flat}, true
			}
		}
	}
	if raw.Message == "" {
		return Payload{}, false
	}
	return Payload{Message: raw.Message}, true
}

// ParseMessage returns only the human-readable message of an error body.
func ParseMessage(body []byte) (string, bool) {
	p, ok := ParsePayload(body)
	return p.Message, ok
}
