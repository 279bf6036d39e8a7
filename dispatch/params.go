package dispatch

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/vitalvas/hermod/engine"
)

// Params returns every capture of the matched route in declaration order,
// percent-decoded. It fails with ErrNoRoute when the request did not
// resolve to a route, and with a *ParamError wrapping ErrParamEncoding when
// a captured value held an invalid escape.
func Params(r *http.Request) (engine.Params, error) {
	m, ok := CurrentMatch(r)
	if !ok {
		return nil, ErrNoRoute
	}
	return m.Params()
}

// Param returns the named capture's decoded value. Asking for a name the
// matched pattern does not declare fails with a *ParamError wrapping
// ErrUnknownParam.
func Param(r *http.Request, name string) (string, error) {
	params, err := Params(r)
	if err != nil {
		return "", err
	}
	value, ok := params.Get(name)
	if !ok {
		return "", &ParamError{Name: name, Err: ErrUnknownParam}
	}
	return value, nil
}

// ParamValue enumerates the types ParamAs converts captures to.
type ParamValue interface {
	string | int | int64 | uint | uint64 | float64 | bool
}

// ParamAs returns the named capture converted to T. A value that does not
// parse as T fails with a *ParamError wrapping the strconv error; bad input
// is a per-request rejection, never a panic.
func ParamAs[T ParamValue](r *http.Request, name string) (T, error) {
	var out T
	value, err := Param(r, name)
	if err != nil {
		return out, err
	}
	if err := convertParam(value, &out); err != nil {
		return out, &ParamError{
			Name:   name,
			Value:  value,
			Target: fmt.Sprintf("%T", out),
			Err:    err,
		}
	}
	return out, nil
}

func convertParam(s string, out any) error {
	switch p := out.(type) {
	case *string:
		*p = s
	case *int:
		n, err := strconv.ParseInt(s, 10, 0)
		if err != nil {
			return err
		}
		*p = int(n)
	case *int64:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*p = n
	case *uint:
		n, err := strconv.ParseUint(s, 10, 0)
		if err != nil {
			return err
		}
		*p = uint(n)
	case *uint64:
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return err
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = f
	case *bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*p = b
	}
	return nil
}

// MatchedPath returns the pattern the request matched with placeholders
// intact: a request for /users/42 matched by /users/{id} yields
// "/users/{id}". It fails with ErrNoRoute when no route matched, fallback
// handling included.
func MatchedPath(r *http.Request) (string, error) {
	m, ok := CurrentMatch(r)
	if !ok {
		return "", ErrNoRoute
	}
	return m.Pattern, nil
}
