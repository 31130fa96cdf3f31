package db

import (
	"fmt"
	"strings"
)

// Path is a parsed document path: collection/document/field/field...
type Path struct {
	Collection string
	Document   string
	Fields     []string
}

// ParsePath splits a slash-separated path. Leading and trailing slashes
// are ignored; empty inner segments are rejected, as are "$" anywhere and
// "." inside field segments (they would be read as operators or nested
// field separators by Mongo).
func ParsePath(raw string) (Path, error) {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	segs := strings.Split(trimmed, "/")
	for i, seg := range segs {
		if seg == "" || strings.Contains(seg, "$") {
			return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
		if i >= 2 && strings.Contains(seg, ".") {
			return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, raw)
		}
	}

	p := Path{Collection: segs[0]}
	if len(segs) > 1 {
		p.Document = segs[1]
	}
	if len(segs) > 2 {
		p.Fields = segs[2:]
	}
	return p, nil
}

// FieldPath is the dotted form of Fields.
func (p Path) FieldPath() string {
	return strings.Join(p.Fields, ".")
}

func (p Path) Segments() []string {
	segs := []string{p.Collection}
	if p.Document != "" {
		segs = append(segs, p.Document)
	}
	return append(segs, p.Fields...)
}

func (p Path) String() string {
	return strings.Join(p.Segments(), "/")
}

// JoinPath builds a path from segments.
func JoinPath(segs ...string) string {
	return strings.Join(segs, "/")
}

// documentPath parses raw and requires it to name a whole document.
func documentPath(raw string) (Path, error) {
	p, err := ParsePath(raw)
	if err != nil {
		return Path{}, err
	}
	if p.Document == "" || len(p.Fields) > 0 {
		return Path{}, fmt.Errorf("%w: %s: expected collection/document", ErrInvalidPath, raw)
	}
	return p, nil
}

// listPath parses raw and requires it to name a field inside a document.
func listPath(raw string) (Path, error) {
	p, err := ParsePath(raw)
	if err != nil {
		return Path{}, err
	}
	if len(p.Fields) == 0 {
		return Path{}, fmt.Errorf("%w: %s: expected a field inside a document", ErrInvalidPath, raw)
	}
	return p, nil
}
