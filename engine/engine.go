// Package engine defines the contract between the dispatch core and an
// external path-matching engine, together with the route template grammar
// both sides share.
//
// An Engine produces Builders. A Builder accepts templates during the
// router's build phase and compiles them into an immutable Matcher that
// resolves concrete request paths for the lifetime of the server. Ambiguity
// rules (which templates may coexist, which candidate wins for a given path)
// belong to the engine implementation; callers observe them only through
// Insert and Compile errors and through Lookup results.
package engine

import "fmt"

// Key is an opaque identifier a caller associates with an inserted template.
// The engine stores and returns it verbatim.
type Key int

// Engine creates matcher builders. Implementations must be safe for use by
// multiple builders, but a single Builder is driven from one goroutine.
type Engine interface {
	NewBuilder() Builder
}

// Builder accumulates templates and compiles them into a Matcher.
type Builder interface {
	// Insert registers a template under the given key. It returns a
	// *ConflictError when the template cannot coexist with one already
	// inserted.
	Insert(tpl Template, key Key) error

	// Compile produces the immutable matcher. Conflicts an engine only
	// detects during tree construction are reported here, also as
	// *ConflictError values. The builder must not be used after Compile.
	Compile() (Matcher, error)
}

// Matcher resolves request paths. Implementations must be safe for
// concurrent use and must not retain or mutate the path argument.
type Matcher interface {
	// Lookup reports the winning template's key and its captured values,
	// in template declaration order, for the given path. Capture values
	// are returned exactly as they appear in the path, without any
	// unescaping. The second return value is false when no template
	// matches.
	Lookup(path string) (Match, bool)
}

// Match is a successful Lookup result.
type Match struct {
	Key    Key
	Params Params
}

// Param is a single captured path value.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered list of captured path values.
type Params []Param

// Get returns the value captured under name.
func (p Params) Get(name string) (string, bool) {
	for _, pp := range p {
		if pp.Name == name {
			return pp.Value, true
		}
	}
	return "", false
}

// Map returns the captures as a map. Ordering information is lost.
func (p Params) Map() map[string]string {
	if p == nil {
		return nil
	}
	m := make(map[string]string, len(p))
	for _, pp := range p {
		m[pp.Name] = pp.Value
	}
	return m
}

// ConflictError reports that a template cannot coexist with another template
// in the same matcher.
type ConflictError struct {
	// Template is the canonical form of the rejected template.
	Template string

	// Existing is the canonical form of the previously inserted template
	// the rejected one conflicts with, when the engine can name it.
	Existing string

	// Reason carries the engine's own diagnostics when no single existing
	// template is to blame.
	Reason string
}

func (e *ConflictError) Error() string {
	switch {
	case e.Existing != "":
		return fmt.Sprintf("template %q conflicts with %q", e.Template, e.Existing)
	case e.Reason != "":
		return fmt.Sprintf("template %q rejected: %s", e.Template, e.Reason)
	default:
		return fmt.Sprintf("template %q rejected by matcher", e.Template)
	}
}

// PatternError reports a malformed route template.
type PatternError struct {
	Pattern string
	Reason  string
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid route template %q: %s", e.Pattern, e.Reason)
}
