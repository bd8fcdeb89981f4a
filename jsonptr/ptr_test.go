package jsonptr

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestValidate(t *testing.T) {
	var tests = []struct {
		ptr, err string
	}{
		{ptr: "#", err: "invalid JSON pointer: #"},
		{ptr: "#/", err: "invalid JSON pointer: #/"},
		{ptr: "/#"},
		{ptr: "//foo"},
		{ptr: "/foo///bar"},
		{ptr: "/~0"},
		{ptr: "/foo/~1"},
		{ptr: "/~/", err: `invalid segment "~": invalid escape sequence: ~`},
		{ptr: "/~2abc/", err: `invalid segment "~2abc": invalid escape sequence: ~2`},
		{ptr: "/foo/b#ar/ä"},
		{ptr: "/+1"},
		{ptr: "/foo/🙂/baz"},
		{ptr: "/foo/0//"},
		// Trailing slashes are legal as they are used to skip empty keys!
		{ptr: "/foo/0//bar/1/baz/2//"},
		{ptr: "/-1"},

		// RFC examples:
		{ptr: ""},
		{ptr: "/foo"},
		{ptr: "/foo/0"},
		{ptr: "/"},
		{ptr: "/a~1b"},
		{ptr: "/c%d"},
		{ptr: "/e^f"},
		{ptr: "/g|h"},
		{ptr: "/i\\j"},
		{ptr: "/k\"l"},
		{ptr: "/ "},
		{ptr: "/m~0n"},
	}

	for i, test := range tests {
		err := Validate(test.ptr)

		if test.err == "" && err != nil {
			t.Errorf("test[%d]: expected no error, got %q", i, err)
		}

		if (test.err != "" && err == nil) || (err != nil && err.Error() != test.err) {
			t.Errorf("test[%d]: expected error %q, got %q", i, test.err, err)
		}
	}

	t.Run("errors", func(t *testing.T) {
		err := Validate("/~2")
		if err2 := errors.Unwrap(err); err2 == nil || err2.Error() != `invalid escape sequence: ~2` {
			t.Errorf("expected error %q, got %q", EscapeSequenceError("~2"), err)
		}
	})
}

func TestIsArrayIndex(t *testing.T) {
	var tests = []struct {
		in string
		ok bool
	}{
		{in: "1", ok: true},
		{in: "-1", ok: false},
		{in: "+1", ok: false},
		{in: "12", ok: true},
		{in: "102", ok: true},
		{in: "02", ok: false},
		{in: "0", ok: true},
		{in: "三", ok: false},
		{in: "", ok: false},
	}

	for i, test := range tests {
		if ok := IsArrayIndex(test.in); test.ok != ok {
			t.Errorf("test[%d]: expected %t, got %t", i, test.ok, ok)
		}
	}
}

func TestSplit(t *testing.T) {
	var tests = []struct {
		ptr  string
		path []string
	}{
		{ptr: ""},
		{ptr: "/foo/bar", path: []string{"foo", "bar"}},
		{ptr: "/a~1b/m~0n", path: []string{"a/b", "m~n"}},
		{ptr: "/~01", path: []string{"~1"}},
		{ptr: "//", path: []string{"", ""}},
	}

	for i, test := range tests {
		path, err := Split(test.ptr)
		if err != nil {
			t.Errorf("test[%d]: expected no error, got %q", i, err)
		}
		if !reflect.DeepEqual(path, test.path) {
			t.Errorf("test[%d]: expected %v, got %v", i, test.path, path)
		}
	}

	if _, err := Split("foo"); err == nil {
		t.Errorf("expected error for pointer without leading slash")
	}
}

type testObject map[string]any

func (o testObject) Get(key string) (any, bool) {
	v, ok := o[key]
	return v, ok
}

func TestEvaluate(t *testing.T) {
	doc := map[string]any{
		"foo": []any{"bar", "baz"},
		"":    float64(0),
		"a/b": float64(1),
		"m~n": float64(8),
		"obj": testObject{"k": "v"},
	}

	var tests = []struct {
		ptr string
		out any
		err string
	}{
		{ptr: "", out: doc},
		{ptr: "/foo", out: []any{"bar", "baz"}},
		{ptr: "/foo/0", out: "bar"},
		{ptr: "/foo/1", out: "baz"},
		{ptr: "/", out: float64(0)},
		{ptr: "/a~1b", out: float64(1)},
		{ptr: "/m~0n", out: float64(8)},
		{ptr: "/obj/k", out: "v"},
		{ptr: "/foo/2", err: `no value at "/foo/2"`},
		{ptr: "/foo/bar", err: `invalid segment "bar": invalid array index: "bar"`},
		{ptr: "/nope", err: `no value at "/nope"`},
		{ptr: "/foo/0/deep", err: `no value at "/foo/0/deep"`},
	}

	for i, test := range tests {
		out, err := Evaluate(doc, test.ptr)

		if test.err == "" {
			if err != nil {
				t.Errorf("test[%d]: expected no error, got %q", i, err)
				continue
			}
			if !reflect.DeepEqual(out, test.out) {
				t.Errorf("test[%d]: expected %v, got %v", i, test.out, out)
			}
			continue
		}

		if err == nil || err.Error() != test.err {
			t.Errorf("test[%d]: expected error %q, got %q", i, test.err, err)
		}
	}
}

func ExampleEvaluate() {
	doc := map[string]any{"definitions": map[string]any{"node": map[string]any{"type": "object"}}}
	v, _ := Evaluate(doc, "/definitions/node/type")
	fmt.Println(v)
	// Output: object
}
