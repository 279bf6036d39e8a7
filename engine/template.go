package engine

import (
	"fmt"
	"strings"
)

// SegmentKind classifies one path segment of a template.
type SegmentKind int

const (
	// SegmentLiteral matches its text exactly.
	SegmentLiteral SegmentKind = iota

	// SegmentCapture matches any single non-empty segment and records it
	// under the capture name.
	SegmentCapture

	// SegmentWildcard matches the remainder of the path and records it
	// under the capture name. Only valid as the final segment.
	SegmentWildcard
)

// Segment is one slash-delimited element of a template. Value holds the
// literal text for SegmentLiteral and the capture name otherwise.
type Segment struct {
	Kind  SegmentKind
	Value string
}

// Template is a parsed route template.
//
// The grammar: a template begins with a slash and consists of slash-separated
// segments. A segment is either literal text, a capture of the form {name},
// or a wildcard capture of the form {*name} in the final position. Captures
// span whole segments; capture names use letters, digits, and underscores and
// are unique within one template. A trailing slash is an empty final literal
// segment and is significant.
type Template struct {
	raw      string
	segments []Segment
	captures []string
	wildcard string
}

// ParseTemplate validates pattern against the template grammar.
func ParseTemplate(pattern string) (Template, error) {
	if pattern == "" {
		return Template{}, &PatternError{Pattern: pattern, Reason: "template is empty"}
	}
	if pattern[0] != '/' {
		return Template{}, &PatternError{Pattern: pattern, Reason: "template must begin with a slash"}
	}

	parts := strings.Split(pattern[1:], "/")
	tpl := Template{raw: pattern, segments: make([]Segment, 0, len(parts))}
	seen := make(map[string]struct{}, 2)

	for i, part := range parts {
		last := i == len(parts)-1

		switch {
		case part == "":
			if !last {
				return Template{}, &PatternError{Pattern: pattern, Reason: "empty segment"}
			}
			tpl.segments = append(tpl.segments, Segment{Kind: SegmentLiteral})

		case part[0] == '{' && part[len(part)-1] == '}':
			inner := part[1 : len(part)-1]
			kind := SegmentCapture
			if strings.HasPrefix(inner, "*") {
				kind = SegmentWildcard
				inner = inner[1:]
			}
			if err := checkCaptureName(pattern, inner); err != nil {
				return Template{}, err
			}
			if _, dup := seen[inner]; dup {
				return Template{}, &PatternError{Pattern: pattern, Reason: fmt.Sprintf("duplicate capture name %q", inner)}
			}
			if kind == SegmentWildcard {
				if !last {
					return Template{}, &PatternError{Pattern: pattern, Reason: "wildcard capture must be the final segment"}
				}
				tpl.wildcard = inner
			}
			seen[inner] = struct{}{}
			tpl.captures = append(tpl.captures, inner)
			tpl.segments = append(tpl.segments, Segment{Kind: kind, Value: inner})

		case part[0] == '{':
			return Template{}, &PatternError{Pattern: pattern, Reason: fmt.Sprintf("unclosed '{' in segment %q", part)}

		case part[len(part)-1] == '}':
			return Template{}, &PatternError{Pattern: pattern, Reason: fmt.Sprintf("unmatched '}' in segment %q", part)}

		default:
			if strings.ContainsAny(part, "{}") {
				return Template{}, &PatternError{Pattern: pattern, Reason: fmt.Sprintf("capture must span the whole segment in %q", part)}
			}
			if strings.Contains(part, "*") {
				return Template{}, &PatternError{Pattern: pattern, Reason: fmt.Sprintf("'*' is not allowed in literal segment %q", part)}
			}
			tpl.segments = append(tpl.segments, Segment{Kind: SegmentLiteral, Value: part})
		}
	}

	return tpl, nil
}

// MustParseTemplate is ParseTemplate for templates known to be valid at
// compile time. It panics on error.
func MustParseTemplate(pattern string) Template {
	tpl, err := ParseTemplate(pattern)
	if err != nil {
		panic(err)
	}
	return tpl
}

func checkCaptureName(pattern, name string) error {
	if name == "" {
		return &PatternError{Pattern: pattern, Reason: "empty capture name"}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c == '_' || ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') {
			continue
		}
		return &PatternError{Pattern: pattern, Reason: fmt.Sprintf("invalid character %q in capture name %q", c, name)}
	}
	return nil
}

// String returns the canonical template text, which is exactly the pattern
// it was parsed from.
func (t Template) String() string { return t.raw }

// Segments returns the parsed segments. The returned slice is shared and
// must not be modified.
func (t Template) Segments() []Segment { return t.segments }

// CaptureNames returns the capture names in declaration order, including the
// wildcard capture. The returned slice is shared and must not be modified.
func (t Template) CaptureNames() []string { return t.captures }

// Wildcard returns the wildcard capture name, if the template has one.
func (t Template) Wildcard() (string, bool) { return t.wildcard, t.wildcard != "" }

// Shape returns the template with capture names erased: captures render as
// {} and wildcards as {*}. Two templates with equal shapes match exactly the
// same set of paths, which makes the shape the unit of conflict detection.
func (t Template) Shape() string {
	var b strings.Builder
	b.Grow(len(t.raw))
	for _, seg := range t.segments {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentCapture:
			b.WriteString("{}")
		case SegmentWildcard:
			b.WriteString("{*}")
		default:
			b.WriteString(seg.Value)
		}
	}
	return b.String()
}

// Fill substitutes capture values into the template and returns the
// resulting concrete path, the inverse of matching. Every capture must have
// a non-empty value; capture values must not contain a slash, wildcard
// values may. Values are inserted verbatim, so callers escape them as needed
// before building a URL.
func (t Template) Fill(values map[string]string) (string, error) {
	var b strings.Builder
	b.Grow(len(t.raw))
	for _, seg := range t.segments {
		b.WriteByte('/')
		switch seg.Kind {
		case SegmentLiteral:
			b.WriteString(seg.Value)
		case SegmentCapture:
			v, ok := values[seg.Value]
			if !ok || v == "" {
				return "", fmt.Errorf("missing value for capture %q in template %q", seg.Value, t.raw)
			}
			if strings.Contains(v, "/") {
				return "", fmt.Errorf("value for capture %q contains a slash", seg.Value)
			}
			b.WriteString(v)
		case SegmentWildcard:
			v, ok := values[seg.Value]
			if !ok || v == "" {
				return "", fmt.Errorf("missing value for capture %q in template %q", seg.Value, t.raw)
			}
			b.WriteString(v)
		}
	}
	return b.String(), nil
}
