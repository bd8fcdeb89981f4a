package jsonschema

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"jsonschema/jsonptr"
)

// A FormatCheckFunc reports whether a value conforms to one format. Checkers
// only ever see the instance value; non-string values are typically
// conformant by definition and are filtered before the checker runs.
type FormatCheckFunc func(value any) bool

// A FormatChecker maps format names to checkers. Checkers are immutable;
// Checks returns a modified copy. Formats the checker does not define are not
// checked at all, per the always-ignore-unknown-formats policy.
type FormatChecker struct {
	checkers map[string]FormatCheckFunc
}

func NewFormatChecker(checkers map[string]FormatCheckFunc) FormatChecker {
	copied := make(map[string]FormatCheckFunc, len(checkers))
	for name, fn := range checkers {
		copied[name] = fn
	}
	return FormatChecker{checkers: copied}
}

// Checks returns a copy of the checker with fn registered for name.
func (fc FormatChecker) Checks(name string, fn FormatCheckFunc) FormatChecker {
	copied := make(map[string]FormatCheckFunc, len(fc.checkers)+1)
	for n, f := range fc.checkers {
		copied[n] = f
	}
	copied[name] = fn
	return FormatChecker{checkers: copied}
}

// Defines reports whether the checker knows the named format.
func (fc FormatChecker) Defines(name string) bool {
	_, ok := fc.checkers[name]
	return ok
}

// Check returns nil when value conforms to the named format, or when the
// format is unknown. A panicking checker func is recovered and reported as
// the FormatError's underlying error instead of escaping as a fault.
func (fc FormatChecker) Check(value any, format string) (err error) {
	fn, ok := fc.checkers[format]
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = &FormatError{Format: format, Value: value, Err: fmt.Errorf("checker panicked: %v", r)}
		}
	}()

	if !fn(value) {
		return &FormatError{
			Format: format,
			Value:  value,
			Err:    fmt.Errorf("%v is not a %q", value, format),
		}
	}
	return nil
}

// IsConformant is Check reduced to a boolean.
func (fc FormatChecker) IsConformant(value any, format string) bool {
	return fc.Check(value, format) == nil
}

// stringFormat lifts a string predicate into a FormatCheckFunc that accepts
// every non-string value.
func stringFormat(fn func(string) bool) FormatCheckFunc {
	return func(value any) bool {
		s, ok := value.(string)
		if !ok {
			return true
		}
		return fn(s)
	}
}

var hostnamePattern = regexp.MustCompile(
	`^(?i)[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

func isDateTime(s string) bool {
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func isDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

func isTimeFormat(s string) bool {
	for _, layout := range []string{"15:04:05Z07:00", "15:04:05.999999999Z07:00", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// The original implementation only requires an @; full addr-spec checking is
// deliberately out of scope for the format vocabulary.
func isEmail(s string) bool {
	return strings.Contains(s, "@")
}

func isHostname(s string) bool {
	return len(s) <= 253 && hostnamePattern.MatchString(s)
}

func isIPv4(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && ip.To4() != nil && strings.Count(s, ".") == 3
}

func isIPv6(s string) bool {
	ip := net.ParseIP(s)
	return ip != nil && strings.Contains(s, ":")
}

func isURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs()
}

func isURIReference(s string) bool {
	_, err := url.Parse(s)
	return err == nil && utf8.ValidString(s)
}

func isRegex(s string) bool {
	_, err := regexp.Compile(s)
	return err == nil
}

func isJSONPointer(s string) bool {
	return jsonptr.Validate(s) == nil
}

func isRelativeJSONPointer(s string) bool {
	if s == "" {
		return false
	}
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || (s[0] == '0' && i > 1) {
		return false
	}
	rest := s[i:]
	return rest == "#" || jsonptr.Validate(rest) == nil
}

var (
	// Draft3FormatChecker uses draft 3's legacy format names.
	Draft3FormatChecker = NewFormatChecker(map[string]FormatCheckFunc{
		"date-time":  stringFormat(isDateTime),
		"date":       stringFormat(isDate),
		"time":       stringFormat(isTimeFormat),
		"email":      stringFormat(isEmail),
		"host-name":  stringFormat(isHostname),
		"ip-address": stringFormat(isIPv4),
		"ipv6":       stringFormat(isIPv6),
		"regex":      stringFormat(isRegex),
		"uri":        stringFormat(isURI),
	})

	Draft4FormatChecker = NewFormatChecker(map[string]FormatCheckFunc{
		"date-time": stringFormat(isDateTime),
		"email":     stringFormat(isEmail),
		"hostname":  stringFormat(isHostname),
		"ipv4":      stringFormat(isIPv4),
		"ipv6":      stringFormat(isIPv6),
		"regex":     stringFormat(isRegex),
		"uri":       stringFormat(isURI),
	})

	Draft6FormatChecker = Draft4FormatChecker.
				Checks("uri-reference", stringFormat(isURIReference)).
				Checks("json-pointer", stringFormat(isJSONPointer))

	Draft7FormatChecker = Draft6FormatChecker.
				Checks("date", stringFormat(isDate)).
				Checks("time", stringFormat(isTimeFormat)).
				Checks("iri", stringFormat(isURI)).
				Checks("iri-reference", stringFormat(isURIReference)).
				Checks("idn-email", stringFormat(isEmail)).
				Checks("relative-json-pointer", stringFormat(isRelativeJSONPointer))
)
