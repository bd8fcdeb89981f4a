package jsonptr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SegmentError represents an error that occurred in a segment of a path.
type SegmentError struct {
	Seg string // The segment of the path that caused the error.
	Pos int    // The position of the segment.
	Err error
}

func (e *SegmentError) Error() string {
	return fmt.Sprintf("invalid segment %q: %s", e.Seg, e.Err)
}

func (e *SegmentError) Unwrap() error {
	return e.Err
}

func (e *SegmentError) Is(err error) bool {
	if e.Err == err {
		return true
	}
	return errors.Is(e.Unwrap(), e.Err)
}

// EscapeSequenceError is an error indicating that an invalid escape sequence was
// encountered. This error is returned if a segment contains a tilde that is not
// followed by either a 0 or a 1.
type EscapeSequenceError string

func (e EscapeSequenceError) Error() string {
	return "invalid escape sequence: " + string(e)
}

type InvalidJSONPointerError string

func (e InvalidJSONPointerError) Error() string {
	return "invalid JSON pointer: " + string(e)
}

type InvalidIndexError string

func (e InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid array index: %q", string(e))
}

// MissingValueError is an error indicating that a pointer segment has no
// corresponding value in the document it is evaluated against. The error value
// is the pointer up to and including the unresolvable segment.
type MissingValueError string

func (e MissingValueError) Error() string {
	return fmt.Sprintf("no value at %q", string(e))
}

// Validate validates a string according to RFC 6901.
func Validate(pointer string) error {
	if len(pointer) == 0 || (len(pointer) == 1 && pointer[0] == '/') {
		return nil
	}

	if pointer[0] != '/' {
		return InvalidJSONPointerError(pointer)
	}

	// The first char must be a "/", so we ignore the first occurrence.
	// Following "/" are kept, as "//" is a valid JSON pointer.
	path := strings.Split(pointer[1:], "/")

	for i, segment := range path {
		token := []rune(segment)
		for j := 0; j < len(token); j++ {
			// A reference token is *(unescaped / escaped) where unescaped is any
			// of (0x00-2E / 0x30-7D / 0x7F-10FFFF), practically every code point
			// except ~ and /, both of which are covered.
			if token[j] != '~' || (j < len(token)-1 && (token[j+1] == '0' || token[j+1] == '1')) {
				continue
			}

			s := token[j : j+1]
			if j != len(token)-1 {
				s = append(s, token[j+1])
			}

			return &SegmentError{Seg: segment, Pos: i, Err: EscapeSequenceError(s)}
		}
	}

	return nil
}

// IsArrayIndex checks if a segment is a valid JSON pointer array index.
func IsArrayIndex(segment string) bool {
	r := []rune(segment)
	if len(r) == 1 && r[0] == '0' {
		return true
	}

	for j := 0; j < len(r); j++ {
		if (j == 0 && r[j] == '0') || (r[j] < '0' || r[j] > '9') {
			return false
		}
	}
	return len(r) > 0
}

// Unescape reverses the escaping applied to a single reference token. Escaped
// slashes are unescaped first, so that ~01 becomes ~1 and not /.
func Unescape(segment string) string {
	segment = strings.ReplaceAll(segment, "~1", "/")
	return strings.ReplaceAll(segment, "~0", "~")
}

// Escape escapes a single reference token for use in a pointer.
func Escape(segment string) string {
	segment = strings.ReplaceAll(segment, "~", "~0")
	return strings.ReplaceAll(segment, "/", "~1")
}

// Split validates pointer and returns its unescaped reference tokens. The
// empty pointer yields no tokens.
func Split(pointer string) ([]string, error) {
	if err := Validate(pointer); err != nil {
		return nil, err
	}

	if pointer == "" {
		return nil, nil
	}

	path := strings.Split(pointer[1:], "/")
	for i := range path {
		path[i] = Unescape(path[i])
	}
	return path, nil
}

// Object is implemented by mapping representations other than map[string]any,
// allowing Evaluate to index into them.
type Object interface {
	Get(key string) (any, bool)
}

// Evaluate resolves pointer against doc per RFC 6901 and returns the value it
// points to. The document is a raw JSON value: objects are map[string]any or
// any Object implementation, arrays are []any.
func Evaluate(doc any, pointer string) (any, error) {
	path, err := Split(pointer)
	if err != nil {
		return nil, err
	}

	for i, segment := range path {
		switch d := doc.(type) {
		case map[string]any:
			v, ok := d[segment]
			if !ok {
				return nil, MissingValueError(join(path[:i+1]))
			}
			doc = v
		case Object:
			v, ok := d.Get(segment)
			if !ok {
				return nil, MissingValueError(join(path[:i+1]))
			}
			doc = v
		case []any:
			if !IsArrayIndex(segment) {
				return nil, &SegmentError{Seg: segment, Pos: i, Err: InvalidIndexError(segment)}
			}
			n, err := strconv.Atoi(segment)
			if err != nil || n >= len(d) {
				return nil, MissingValueError(join(path[:i+1]))
			}
			doc = d[n]
		default:
			return nil, MissingValueError(join(path[:i+1]))
		}
	}

	return doc, nil
}

func join(path []string) string {
	var b strings.Builder
	for _, segment := range path {
		b.WriteByte('/')
		b.WriteString(Escape(segment))
	}
	return b.String()
}
