// Package envelope provides the wire-level response envelope shared by the
// platform backend, the local API, and the client SDK. Every JSON body is
// either a Success or a Failure, discriminated by the "success" field.
package envelope

import (
	"encoding/json"
	"fmt"
	"time"
)

// PaginationMeta describes the page window of a list response.
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPaginationMeta computes pagination metadata for a list response.
// TotalPages is ceil(total/limit).
func NewPaginationMeta(page, limit, total int) PaginationMeta {
	m := PaginationMeta{Page: page, Limit: limit, Total: total}
	if limit > 0 {
		m.TotalPages = (total + limit - 1) / limit
	}
	return m
}

// Valid reports whether the metadata satisfies the envelope invariants.
func (m PaginationMeta) Valid() bool {
	if m.Page < 1 || m.Limit < 1 || m.Total < 0 || m.TotalPages < 0 {
		return false
	}
	want := (m.Total + m.Limit - 1) / m.Limit
	return m.TotalPages == want
}

// Success is the success shape of the envelope.
type Success struct {
	Data json.RawMessage
	Meta *PaginationMeta
}

// Failure is the failure shape of the envelope.
type Failure struct {
	StatusCode int            `json:"statusCode"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path"`
	Method     string         `json:"method"`
	Message    string         `json:"message"`
	Errors     map[string]any `json:"errors,omitempty"`
}

// NewFailure builds a failure envelope stamped with the current time.
func NewFailure(status int, message, path, method string, now time.Time) Failure {
	return Failure{
		StatusCode: status,
		Timestamp:  now.UTC().Format(time.RFC3339),
		Path:       path,
		Method:     method,
		Message:    message,
	}
}

// successWire and failureWire are the marshalled forms carrying the
// discriminant. The exported types stay free of the redundant field so a
// Success can never be constructed with success=false and vice versa.
type successWire struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *PaginationMeta `json:"meta,omitempty"`
}

type failureWire struct {
	Success    bool           `json:"success"`
	StatusCode int            `json:"statusCode"`
	Timestamp  string         `json:"timestamp"`
	Path       string         `json:"path"`
	Method     string         `json:"method"`
	Message    string         `json:"message"`
	Errors     map[string]any `json:"errors,omitempty"`
}

// MarshalJSON writes the success wire shape.
func (s Success) MarshalJSON() ([]byte, error) {
	data := s.Data
	if data == nil {
		data = json.RawMessage("null")
	}
	return json.Marshal(successWire{Success: true, Data: data, Meta: s.Meta})
}

// MarshalJSON writes the failure wire shape.
func (f Failure) MarshalJSON() ([]byte, error) {
	return json.Marshal(failureWire{
		Success:    false,
		StatusCode: f.StatusCode,
		Timestamp:  f.Timestamp,
		Path:       f.Path,
		Method:     f.Method,
		Message:    f.Message,
		Errors:     f.Errors,
	})
}

// discriminant is used to peek at the "success" field without committing to
// either shape.
type discriminant struct {
	Success *bool `json:"success"`
}

// Detect reports whether the body structurally matches the envelope contract,
// and if so whether it is the success shape. Bodies that are not JSON objects
// or lack the boolean discriminant are not envelopes.
func Detect(body []byte) (isEnvelope, isSuccess bool) {
	var d discriminant
	if err := json.Unmarshal(body, &d); err != nil || d.Success == nil {
		return false, false
	}
	return true, *d.Success
}

// Parse decodes a body into exactly one of the two envelope shapes.
// Exactly one of the returned pointers is non-nil on success.
func Parse(body []byte) (*Success, *Failure, error) {
	isEnv, isSuccess := Detect(body)
	if !isEnv {
		return nil, nil, fmt.Errorf("envelope: body does not match envelope contract")
	}
	if isSuccess {
		var w successWire
		if err := json.Unmarshal(body, &w); err != nil {
			return nil, nil, fmt.Errorf("envelope: decode success: %w", err)
		}
		return &Success{Data: w.Data, Meta: w.Meta}, nil, nil
	}
	var w failureWire
	if err := json.Unmarshal(body, &w); err != nil {
		return nil, nil, fmt.Errorf("envelope: decode failure: %w", err)
	}
	return nil, &Failure{
		StatusCode: w.StatusCode,
		Timestamp:  w.Timestamp,
		Path:       w.Path,
		Method:     w.Method,
		Message:    w.Message,
		Errors:     w.Errors,
	}, nil
}

// NewSuccess wraps a payload value into a success envelope.
func NewSuccess(data any, meta *PaginationMeta) (Success, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Success{}, fmt.Errorf("envelope: encode data: %w", err)
	}
	return Success{Data: raw, Meta: meta}, nil
}

// DecodeData decodes the success payload into T.
func DecodeData[T any](s *Success) (T, error) {
	var v T
	if s == nil {
		return v, fmt.Errorf("envelope: nil success envelope")
	}
	if err := json.Unmarshal(s.Data, &v); err != nil {
		return v, fmt.Errorf("envelope: decode data: %w", err)
	}
	return v, nil
}
