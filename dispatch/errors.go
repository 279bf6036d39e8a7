package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by Lookup when no registered pattern matches
	// the request path.
	ErrNotFound = errors.New("no matching route was found")

	// ErrMethodNotAllowed matches errors returned by Lookup when the path
	// is known but not under the request method. Use errors.Is against it;
	// the concrete value is always a *MethodNotAllowedError.
	ErrMethodNotAllowed = errors.New("method is not allowed for the matched path")

	// ErrNoRoute is returned by the extractors when the request context
	// carries no match, for example inside a fallback handler.
	ErrNoRoute = errors.New("no route match in request context")

	// ErrUnknownParam is wrapped by a *ParamError when the requested
	// capture name is not declared by the matched pattern.
	ErrUnknownParam = errors.New("unknown path parameter")

	// ErrParamEncoding is wrapped by a *ParamError when a captured value
	// contains an invalid percent-escape.
	ErrParamEncoding = errors.New("invalid path parameter encoding")
)

// MethodNotAllowedError is the Lookup outcome for a path that is registered
// under other methods only.
type MethodNotAllowedError struct {
	// Allow holds the methods the path is registered under, sorted.
	Allow []string
}

func (e *MethodNotAllowedError) Error() string {
	return fmt.Sprintf("method is not allowed, allowed: %s", strings.Join(e.Allow, ", "))
}

// Is reports a match against ErrMethodNotAllowed.
func (e *MethodNotAllowedError) Is(target error) bool { return target == ErrMethodNotAllowed }

// ConflictError reports a route registration that collides with an existing
// one, either directly (same pattern and method) or through the matching
// engine's ambiguity rules.
type ConflictError struct {
	Pattern string
	Method  string
	Err     error
}

func (e *ConflictError) Error() string {
	method := methodLabel(e.Method)
	if e.Err != nil {
		return fmt.Sprintf("route conflict for %s %s: %v", method, e.Pattern, e.Err)
	}
	return fmt.Sprintf("route %s %s is already registered", method, e.Pattern)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// ConfigError reports a router configuration that cannot produce a working
// compiled router: an unmet state requirement, a second state attachment, or
// clashing fallbacks during a merge.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ParamError is the typed rejection produced by the parameter extractors.
// It wraps ErrUnknownParam, ErrParamEncoding, or the strconv conversion
// error, so callers can distinguish the cases with errors.Is and errors.As.
type ParamError struct {
	// Name is the capture name the extraction was asked for.
	Name string

	// Value is the captured text, when one existed.
	Value string

	// Target names the requested Go type for conversion failures.
	Target string

	Err error
}

func (e *ParamError) Error() string {
	switch {
	case errors.Is(e.Err, ErrUnknownParam):
		return fmt.Sprintf("path parameter %q is not declared by the matched pattern", e.Name)
	case errors.Is(e.Err, ErrParamEncoding):
		return fmt.Sprintf("path parameter %q holds invalid escape %q", e.Name, e.Value)
	case e.Target != "":
		return fmt.Sprintf("path parameter %q: cannot convert %q to %s: %v", e.Name, e.Value, e.Target, e.Err)
	default:
		return fmt.Sprintf("path parameter %q: %v", e.Name, e.Err)
	}
}

func (e *ParamError) Unwrap() error { return e.Err }
