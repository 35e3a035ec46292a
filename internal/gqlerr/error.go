// Package gqlerr is the gateway-wide GraphQL error taxonomy (spec.md
// §7). It generalizes the teacher's SanitizedError / ClientError /
// SafeError split (graphql/errors.go): a client sees only the message
// a call site chose (New's text, or the message passed to Wrap) plus a
// Code; a wrapped cause's text is never rendered, so an internal panic
// or a wrapped os.PathError never leaks detail to a client.
package gqlerr

import (
	"encoding/json"
	"fmt"
)

// Code is the taxonomy from spec.md §7.
type Code string

const (
	CodeOperationValidation     Code = "OPERATION_VALIDATION_ERROR"
	CodeOperationPlanning       Code = "OPERATION_PLANNING_ERROR"
	CodeSubgraphRequest         Code = "SUBGRAPH_REQUEST_ERROR"
	CodeSubgraphInvalidResponse Code = "SUBGRAPH_INVALID_RESPONSE_ERROR"
	CodeHook                    Code = "HOOK_ERROR"
	CodeUnauthorized            Code = "UNAUTHORIZED"
	CodeRateLimited             Code = "RATE_LIMITED"
	CodeGatewayTimeout          Code = "GATEWAY_TIMEOUT"
	CodeInternal                Code = "INTERNAL_SERVER_ERROR"
)

// PathSegment is one step of a GraphQL response path: either a field
// key on an object or an index into a list.
type PathSegment struct {
	Key      string
	Index    int
	IsIndex  bool
}

// Location is a 1-based line/column into the operation's source text.
type Location struct {
	Line   int
	Column int
}

// Error is a client-facing GraphQL error (§7/§3 "Errors: append-only
// list with {message, path, location, extensions}").
type Error struct {
	Message    string
	Path       []PathSegment
	Location   *Location
	Code       Code
	Extensions map[string]interface{}

	// cause is kept for server-side logs/traces (Error, Unwrap) and is
	// never rendered to the client: MarshalJSON leaves it out whatever
	// Sanitized is.
	cause     error
	Sanitized bool
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// SanitizedError implements the teacher's SanitizedError contract so
// existing error-wrapping call sites compose.
func (e *Error) SanitizedError() string { return e.Message }

func (e *Error) Unwrap() error { return e.cause }

// New creates a client-visible error with a code and no location; call
// sites that have one should set e.Location/e.Path afterward.
func New(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Sanitized: true}
}

// Wrap attaches a code and message to an internal cause without
// exposing the cause's text to the client.
func Wrap(code Code, cause error, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: cause}
}

// WithPath returns a copy of e with Path set.
func (e *Error) WithPath(path []PathSegment) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// WithLocation returns a copy of e with Location set.
func (e *Error) WithLocation(loc Location) *Error {
	cp := *e
	cp.Location = &loc
	return &cp
}

// wireLocation/wireError mirror the GraphQL-over-HTTP response
// envelope's error shape ({message, locations, path, extensions}).
type wireLocation struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// MarshalJSON renders e the way a client is allowed to see it: the
// message is always e.Message (already sanitized text for wrapped
// causes, see Wrap), never e.cause's text.
func (e *Error) MarshalJSON() ([]byte, error) {
	var path []interface{}
	if e.Path != nil {
		path = make([]interface{}, len(e.Path))
		for i, seg := range e.Path {
			if seg.IsIndex {
				path[i] = seg.Index
			} else {
				path[i] = seg.Key
			}
		}
	}

	var locations []wireLocation
	if e.Location != nil {
		locations = []wireLocation{{Line: e.Location.Line, Column: e.Location.Column}}
	}

	extensions := e.Extensions
	if e.Code != "" {
		if extensions == nil {
			extensions = make(map[string]interface{}, 1)
		} else {
			merged := make(map[string]interface{}, len(extensions)+1)
			for k, v := range extensions {
				merged[k] = v
			}
			extensions = merged
		}
		extensions["code"] = string(e.Code)
	}

	return json.Marshal(struct {
		Message    string                 `json:"message"`
		Path       []interface{}          `json:"path,omitempty"`
		Locations  []wireLocation         `json:"locations,omitempty"`
		Extensions map[string]interface{} `json:"extensions,omitempty"`
	}{
		Message:    e.Message,
		Path:       path,
		Locations:  locations,
		Extensions: extensions,
	})
}

func (s PathSegment) String() string {
	if s.IsIndex {
		return fmt.Sprintf("%d", s.Index)
	}
	return s.Key
}
